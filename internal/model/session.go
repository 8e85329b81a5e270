package model

import (
	"time"
)

type Session struct {
	ID               string        `db:"id" json:"id"`
	InitiatorID      string        `db:"initiator_id" json:"initiatorId"`
	ParticipantID    string        `db:"participant_id" json:"participantId"`
	Status           SessionStatus `db:"status" json:"status"`
	StartedBy        *string       `db:"started_by" json:"startedBy,omitempty"`
	MeetingID        *string       `db:"meeting_id" json:"meetingId,omitempty"`
	MeetingURL       *string       `db:"meeting_url" json:"meetingUrl,omitempty"`
	MeetingPassword  *string       `db:"meeting_password" json:"-"`
	InitiatorReady   bool          `db:"initiator_ready" json:"initiatorReady"`
	ParticipantReady bool          `db:"participant_ready" json:"participantReady"`
	StartedAt        *time.Time    `db:"started_at" json:"startedAt,omitempty"`
	EndedAt          *time.Time    `db:"ended_at" json:"endedAt,omitempty"`
	CreatedAt        time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time     `db:"updated_at" json:"updatedAt"`
}

// HasParticipant reports whether userID is one of the two parties.
func (s *Session) HasParticipant(userID string) bool {
	return userID == s.InitiatorID || userID == s.ParticipantID
}

// OtherParticipant returns the counterpart of userID in the session pair.
func (s *Session) OtherParticipant(userID string) string {
	if userID == s.InitiatorID {
		return s.ParticipantID
	}
	return s.InitiatorID
}

// ReadyFor reports whether the given party has marked themselves ready.
func (s *Session) ReadyFor(userID string) bool {
	if userID == s.InitiatorID {
		return s.InitiatorReady
	}
	if userID == s.ParticipantID {
		return s.ParticipantReady
	}
	return false
}

type CreateSessionParams struct {
	ID            string
	InitiatorID   string
	ParticipantID string
}

type ActivateSessionParams struct {
	ID              string
	StartedBy       string
	MeetingID       string
	MeetingURL      string
	MeetingPassword string
	StartedAt       time.Time
}
