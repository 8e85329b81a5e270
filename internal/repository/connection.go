package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// ConnectionRepository answers the approved-contact predicate. Connection
// management itself lives outside this service.
type ConnectionRepository interface {
	// IsApproved reports whether the two users hold an approved connection
	// in either direction.
	IsApproved(ctx context.Context, userA, userB string) (bool, error)
}

type connectionRepo struct {
	db sessionDB
}

func NewConnectionRepository(db *sqlx.DB) ConnectionRepository {
	return &connectionRepo{db: db}
}

func (r *connectionRepo) IsApproved(ctx context.Context, userA, userB string) (bool, error) {
	var approved bool
	err := r.db.GetContext(ctx, &approved, `
		SELECT EXISTS (
			SELECT 1 FROM user_connections
			WHERE status = 'approved'
			AND ((from_user_id = $1 AND to_user_id = $2)
				OR (from_user_id = $2 AND to_user_id = $1))
		)
	`, userA, userB)
	if err != nil {
		return false, err
	}
	return approved, nil
}
