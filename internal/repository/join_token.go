package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/aliabbas776/MATCHMATE-BACKEND/internal/model"
)

type JoinTokenRepository interface {
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.SessionJoinToken, error)
	Create(ctx context.Context, params model.CreateJoinTokenParams) (*model.SessionJoinToken, error)
	// Redeem flips is_used false -> true for an unused token. The conditional
	// update is the compare-and-swap that guarantees at most one success per
	// token under concurrent validation; losers get nil.
	Redeem(ctx context.Context, tokenHash string, usedAt time.Time) (*model.SessionJoinToken, error)
	// DeleteExpiredUnused removes tokens past their deadline that were never
	// redeemed. Redeemed tokens are kept alongside the audit trail.
	DeleteExpiredUnused(ctx context.Context) (int64, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) JoinTokenRepository
}

type joinTokenRepo struct {
	db sessionDB
}

func NewJoinTokenRepository(db *sqlx.DB) JoinTokenRepository {
	return &joinTokenRepo{db: db}
}

func (r *joinTokenRepo) WithTx(tx *sqlx.Tx) JoinTokenRepository {
	return &joinTokenRepo{db: tx}
}

func (r *joinTokenRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.SessionJoinToken, error) {
	var token model.SessionJoinToken
	err := r.db.GetContext(ctx, &token, `
		SELECT * FROM session_join_tokens WHERE token_hash = $1
	`, tokenHash)
	return HandleNotFound(&token, err)
}

func (r *joinTokenRepo) Create(ctx context.Context, params model.CreateJoinTokenParams) (*model.SessionJoinToken, error) {
	var token model.SessionJoinToken
	err := r.db.GetContext(ctx, &token, `
		INSERT INTO session_join_tokens (id, session_id, user_id, token_hash, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`, params.ID, params.SessionID, params.UserID, params.TokenHash, params.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *joinTokenRepo) Redeem(ctx context.Context, tokenHash string, usedAt time.Time) (*model.SessionJoinToken, error) {
	var token model.SessionJoinToken
	err := r.db.GetContext(ctx, &token, `
		UPDATE session_join_tokens SET
			is_used = TRUE,
			used_at = $2
		WHERE token_hash = $1 AND is_used = FALSE
		RETURNING *
	`, tokenHash, usedAt)
	return HandleNotFound(&token, err)
}

func (r *joinTokenRepo) DeleteExpiredUnused(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM session_join_tokens
		WHERE is_used = FALSE AND expires_at < NOW()
	`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
