package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/aliabbas776/MATCHMATE-BACKEND/internal/model"
)

type SessionRepository interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// FindByIDForUpdate locks the session row for the duration of the
	// enclosing transaction. Only meaningful on a repository bound to a
	// transaction via WithTx.
	FindByIDForUpdate(ctx context.Context, id string) (*model.Session, error)
	ListByUser(ctx context.Context, userID string) ([]model.Session, error)
	Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error)
	// MarkActive transitions pending -> active. Returns nil if the session
	// was not pending anymore (a concurrent start won the race).
	MarkActive(ctx context.Context, params model.ActivateSessionParams) (*model.Session, error)
	// MarkReady sets the caller's ready flag. The flag is monotonic and only
	// settable while the session is active; returns nil otherwise.
	MarkReady(ctx context.Context, id string, forInitiator bool) (*model.Session, error)
	// MarkCompleted transitions active -> completed. Returns nil on a lost race.
	MarkCompleted(ctx context.Context, id string, endedAt time.Time) (*model.Session, error)
	// MarkCancelled transitions pending|active -> cancelled. Returns nil on a lost race.
	MarkCancelled(ctx context.Context, id string, endedAt time.Time) (*model.Session, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) SessionRepository
}

// sessionDB is an interface satisfied by both *sqlx.DB and *sqlx.Tx
type sessionDB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type sessionRepo struct {
	db sessionDB
}

func NewSessionRepository(db *sqlx.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) WithTx(tx *sqlx.Tx) SessionRepository {
	return &sessionRepo{db: tx}
}

func (r *sessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM sessions WHERE id = $1
	`, id)
	return HandleNotFound(&session, err)
}

func (r *sessionRepo) FindByIDForUpdate(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM sessions WHERE id = $1 FOR UPDATE
	`, id)
	return HandleNotFound(&session, err)
}

func (r *sessionRepo) ListByUser(ctx context.Context, userID string) ([]model.Session, error) {
	sessions := []model.Session{}
	err := r.db.SelectContext(ctx, &sessions, `
		SELECT * FROM sessions
		WHERE initiator_id = $1 OR participant_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepo) Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		INSERT INTO sessions (id, initiator_id, participant_id, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING *
	`, params.ID, params.InitiatorID, params.ParticipantID)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) MarkActive(ctx context.Context, params model.ActivateSessionParams) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		UPDATE sessions SET
			status = 'active',
			started_by = $2,
			meeting_id = $3,
			meeting_url = $4,
			meeting_password = $5,
			started_at = $6,
			updated_at = $6
		WHERE id = $1 AND status = 'pending'
		RETURNING *
	`, params.ID, params.StartedBy, params.MeetingID, params.MeetingURL,
		params.MeetingPassword, params.StartedAt)
	return HandleNotFound(&session, err)
}

func (r *sessionRepo) MarkReady(ctx context.Context, id string, forInitiator bool) (*model.Session, error) {
	var session model.Session
	var err error
	if forInitiator {
		err = r.db.GetContext(ctx, &session, `
			UPDATE sessions SET
				initiator_ready = TRUE,
				updated_at = $2
			WHERE id = $1 AND status = 'active'
			RETURNING *
		`, id, time.Now())
	} else {
		err = r.db.GetContext(ctx, &session, `
			UPDATE sessions SET
				participant_ready = TRUE,
				updated_at = $2
			WHERE id = $1 AND status = 'active'
			RETURNING *
		`, id, time.Now())
	}
	return HandleNotFound(&session, err)
}

func (r *sessionRepo) MarkCompleted(ctx context.Context, id string, endedAt time.Time) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		UPDATE sessions SET
			status = 'completed',
			ended_at = $2,
			updated_at = $2
		WHERE id = $1 AND status = 'active'
		RETURNING *
	`, id, endedAt)
	return HandleNotFound(&session, err)
}

func (r *sessionRepo) MarkCancelled(ctx context.Context, id string, endedAt time.Time) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		UPDATE sessions SET
			status = 'cancelled',
			ended_at = $2,
			updated_at = $2
		WHERE id = $1 AND status IN ('pending', 'active')
		RETURNING *
	`, id, endedAt)
	return HandleNotFound(&session, err)
}
