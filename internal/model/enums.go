package model

type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "pending"
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// Terminal reports whether no further transition may leave this status.
func (s SessionStatus) Terminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusCancelled
}

type ConnectionStatus string

const (
	ConnectionStatusPending  ConnectionStatus = "pending"
	ConnectionStatusApproved ConnectionStatus = "approved"
	ConnectionStatusRejected ConnectionStatus = "rejected"
)

type AuditEventType string

const (
	AuditEventCreated           AuditEventType = "created"
	AuditEventStarted           AuditEventType = "started"
	AuditEventReady             AuditEventType = "ready"
	AuditEventJoined            AuditEventType = "joined"
	AuditEventLeft              AuditEventType = "left"
	AuditEventEnded             AuditEventType = "ended"
	AuditEventCancelled         AuditEventType = "cancelled"
	AuditEventZoomLinkGenerated AuditEventType = "zoom_link_generated"
)
