package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/aliabbas776/MATCHMATE-BACKEND/internal/model"
)

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.User, error)
}

type userRepo struct {
	db sessionDB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		SELECT * FROM users WHERE id = $1
	`, id)
	return HandleNotFound(&user, err)
}

func (r *userRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		SELECT * FROM users WHERE api_token_hash = $1
	`, tokenHash)
	return HandleNotFound(&user, err)
}
