package model

import "time"

// SessionJoinToken is a single-use credential granting one successful entry
// check for a session. Only the sha256 hash of the raw token is stored.
type SessionJoinToken struct {
	ID        string     `db:"id" json:"id"`
	SessionID string     `db:"session_id" json:"sessionId"`
	UserID    string     `db:"user_id" json:"userId"`
	TokenHash string     `db:"token_hash" json:"-"`
	IsUsed    bool       `db:"is_used" json:"isUsed"`
	UsedAt    *time.Time `db:"used_at" json:"usedAt,omitempty"`
	ExpiresAt time.Time  `db:"expires_at" json:"expiresAt"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
}

func (t *SessionJoinToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

type CreateJoinTokenParams struct {
	ID        string
	SessionID string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
}
