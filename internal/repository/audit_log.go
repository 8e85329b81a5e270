package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/aliabbas776/MATCHMATE-BACKEND/internal/model"
)

// AuditLogRepository is append-only: entries are never updated or deleted.
type AuditLogRepository interface {
	Append(ctx context.Context, params model.AppendAuditLogParams) (*model.SessionAuditLog, error)
	// ListBySession returns all entries for a session, oldest first.
	ListBySession(ctx context.Context, sessionID string) ([]model.SessionAuditLog, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) AuditLogRepository
}

type auditLogRepo struct {
	db sessionDB
}

func NewAuditLogRepository(db *sqlx.DB) AuditLogRepository {
	return &auditLogRepo{db: db}
}

func (r *auditLogRepo) WithTx(tx *sqlx.Tx) AuditLogRepository {
	return &auditLogRepo{db: tx}
}

func (r *auditLogRepo) Append(ctx context.Context, params model.AppendAuditLogParams) (*model.SessionAuditLog, error) {
	var entry model.SessionAuditLog
	err := r.db.GetContext(ctx, &entry, `
		INSERT INTO session_audit_logs (id, session_id, user_id, event_type, message, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *
	`, params.ID, params.SessionID, params.UserID, params.EventType, params.Message, params.Metadata)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *auditLogRepo) ListBySession(ctx context.Context, sessionID string) ([]model.SessionAuditLog, error) {
	entries := []model.SessionAuditLog{}
	err := r.db.SelectContext(ctx, &entries, `
		SELECT * FROM session_audit_logs
		WHERE session_id = $1
		ORDER BY created_at ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	return entries, nil
}
