package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Metadata is a string-to-string map stored as jsonb.
type Metadata map[string]string

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *Metadata) Scan(src any) error {
	if src == nil {
		*m = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported metadata type %T", src)
	}
}

// SessionAuditLog is an append-only record of one accepted session event.
// Rows are never updated or deleted.
type SessionAuditLog struct {
	ID        string         `db:"id" json:"id"`
	SessionID string         `db:"session_id" json:"sessionId"`
	UserID    *string        `db:"user_id" json:"userId,omitempty"`
	EventType AuditEventType `db:"event_type" json:"eventType"`
	Message   string         `db:"message" json:"message"`
	Metadata  Metadata       `db:"metadata" json:"metadata,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
}

type AppendAuditLogParams struct {
	ID        string
	SessionID string
	// UserID is nil for system-attributed events.
	UserID    *string
	EventType AuditEventType
	Message   string
	Metadata  Metadata
}
