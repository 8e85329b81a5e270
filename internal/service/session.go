package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/aliabbas776/MATCHMATE-BACKEND/internal/database"
	apperrors "github.com/aliabbas776/MATCHMATE-BACKEND/internal/errors"
	"github.com/aliabbas776/MATCHMATE-BACKEND/internal/meeting"
	"github.com/aliabbas776/MATCHMATE-BACKEND/internal/model"
	"github.com/aliabbas776/MATCHMATE-BACKEND/internal/notify"
	"github.com/aliabbas776/MATCHMATE-BACKEND/internal/repository"
	"github.com/aliabbas776/MATCHMATE-BACKEND/internal/util"
)

const meetingTopic = "1-on-1 Session"

// Transactor runs a function inside a database transaction.
// *database.DB satisfies it.
type Transactor interface {
	WithTx(ctx context.Context, fn database.TxFunc) error
}

var _ Transactor = (*database.DB)(nil)

type JoinTokenResult struct {
	Token     string    `json:"token"`
	SessionID string    `json:"sessionId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type ValidateTokenResult struct {
	Session         *model.Session `json:"session"`
	MeetingID       string         `json:"meetingId"`
	MeetingURL      string         `json:"meetingUrl"`
	MeetingPassword string         `json:"meetingPassword"`
}

type JoinInfoResult struct {
	SessionID       string `json:"sessionId"`
	MeetingID       string `json:"meetingId"`
	MeetingURL      string `json:"meetingUrl"`
	MeetingPassword string `json:"meetingPassword"`
	IsHost          bool   `json:"isHost"`
	UserName        string `json:"userName"`
}

// SessionService orchestrates the session lifecycle: creation, meeting
// provisioning, mutual-readiness gating, join tokens and the audit trail.
// Every accepted state transition and its audit entry commit in one
// transaction.
type SessionService struct {
	tx          Transactor
	sessionRepo repository.SessionRepository
	tokenRepo   repository.JoinTokenRepository
	auditRepo   repository.AuditLogRepository
	connRepo    repository.ConnectionRepository
	userRepo    repository.UserRepository
	provisioner meeting.Provisioner
	notifier    notify.Notifier
	tokenTTL    time.Duration
}

func NewSessionService(
	tx Transactor,
	sessionRepo repository.SessionRepository,
	tokenRepo repository.JoinTokenRepository,
	auditRepo repository.AuditLogRepository,
	connRepo repository.ConnectionRepository,
	userRepo repository.UserRepository,
	provisioner meeting.Provisioner,
	notifier notify.Notifier,
	tokenTTL time.Duration,
) *SessionService {
	return &SessionService{
		tx:          tx,
		sessionRepo: sessionRepo,
		tokenRepo:   tokenRepo,
		auditRepo:   auditRepo,
		connRepo:    connRepo,
		userRepo:    userRepo,
		provisioner: provisioner,
		notifier:    notifier,
		tokenTTL:    tokenTTL,
	}
}

// Create opens a new pending session between the caller and an approved
// contact.
func (s *SessionService) Create(ctx context.Context, initiatorID, participantID string) (*model.Session, error) {
	if participantID == "" {
		return nil, apperrors.MissingRequired("participantId")
	}
	if initiatorID == participantID {
		return nil, apperrors.SelfSession()
	}

	participant, err := s.userRepo.FindByID(ctx, participantID)
	if err != nil {
		return nil, apperrors.Database("find participant", err)
	}
	if participant == nil {
		return nil, apperrors.NotFound("User")
	}

	approved, err := s.connRepo.IsApproved(ctx, initiatorID, participantID)
	if err != nil {
		return nil, apperrors.Database("check connection", err)
	}
	if !approved {
		return nil, apperrors.NotApprovedContact()
	}

	var session *model.Session
	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		session, err = s.sessionRepo.WithTx(tx).Create(ctx, model.CreateSessionParams{
			ID:            uuid.NewString(),
			InitiatorID:   initiatorID,
			ParticipantID: participantID,
		})
		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}

		return s.appendAudit(ctx, tx, session.ID, &initiatorID, model.AuditEventCreated,
			"Session created", model.Metadata{"participantId": participantID})
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("sessionId", session.ID).
		Str("initiatorId", initiatorID).
		Str("participantId", participantID).
		Msg("session created")

	return session, nil
}

// Get returns a session, restricted to its two participants.
func (s *SessionService) Get(ctx context.Context, sessionID, callerID string) (*model.Session, error) {
	return s.findForParticipant(ctx, sessionID, callerID)
}

// List returns the caller's sessions, newest first.
func (s *SessionService) List(ctx context.Context, callerID string) ([]model.Session, error) {
	sessions, err := s.sessionRepo.ListByUser(ctx, callerID)
	if err != nil {
		return nil, apperrors.Database("list sessions", err)
	}
	return sessions, nil
}

// Start provisions the meeting room and activates a pending session. The
// meeting is created before the transaction opens; if provisioning fails the
// session is left untouched and the caller may retry. When two starts race,
// the row lock plus the pending-only update guarantee a single winner.
func (s *SessionService) Start(ctx context.Context, sessionID, callerID string) (*model.Session, error) {
	session, err := s.findForParticipant(ctx, sessionID, callerID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionStatusPending {
		return nil, apperrors.InvalidStateTransition(string(session.Status), "start")
	}

	provisioned, err := s.provisioner.Provision(ctx, meetingTopic)
	if err != nil {
		log.Error().Err(err).Str("sessionId", sessionID).Msg("meeting provisioning failed")
		return nil, apperrors.ProvisioningFailed(err)
	}

	var updated *model.Session
	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		locked, err := s.sessionRepo.WithTx(tx).FindByIDForUpdate(ctx, sessionID)
		if err != nil {
			return apperrors.Database("lock session", err)
		}
		if locked == nil {
			return apperrors.NotFound("Session")
		}

		updated, err = s.sessionRepo.WithTx(tx).MarkActive(ctx, model.ActivateSessionParams{
			ID:              sessionID,
			StartedBy:       callerID,
			MeetingID:       provisioned.ID,
			MeetingURL:      provisioned.JoinURL,
			MeetingPassword: provisioned.Password,
			StartedAt:       time.Now(),
		})
		if err != nil {
			return apperrors.Database("activate session", err)
		}
		if updated == nil {
			// A concurrent start won the race.
			return apperrors.InvalidStateTransition(string(locked.Status), "start")
		}

		if err := s.appendAudit(ctx, tx, sessionID, &callerID, model.AuditEventStarted,
			"Session started", nil); err != nil {
			return err
		}
		return s.appendAudit(ctx, tx, sessionID, &callerID, model.AuditEventZoomLinkGenerated,
			"Meeting link generated", model.Metadata{"meetingId": provisioned.ID})
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("sessionId", sessionID).
		Str("startedBy", callerID).
		Str("meetingId", provisioned.ID).
		Msg("session started")

	// Best effort: hand the join link to the other party.
	s.notifier.Notify(ctx, updated.OtherParticipant(callerID), notify.SessionEvent{
		Event:      "session_started",
		SessionID:  sessionID,
		ActorID:    callerID,
		MeetingURL: provisioned.JoinURL,
		Message:    "If you are ready for this session, mark yourself ready and join.",
	})

	return updated, nil
}

// MarkReady records the caller's readiness. Repeat calls are no-ops and do
// not produce duplicate audit entries.
func (s *SessionService) MarkReady(ctx context.Context, sessionID, callerID string) (*model.Session, error) {
	var updated *model.Session
	err := s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		locked, err := s.sessionRepo.WithTx(tx).FindByIDForUpdate(ctx, sessionID)
		if err != nil {
			return apperrors.Database("lock session", err)
		}
		if locked == nil {
			return apperrors.NotFound("Session")
		}
		if !locked.HasParticipant(callerID) {
			return apperrors.NotParticipant()
		}
		if locked.Status != model.SessionStatusActive {
			return apperrors.InvalidStateTransition(string(locked.Status), "mark ready in")
		}

		if locked.ReadyFor(callerID) {
			updated = locked
			return nil
		}

		updated, err = s.sessionRepo.WithTx(tx).MarkReady(ctx, sessionID, callerID == locked.InitiatorID)
		if err != nil {
			return apperrors.Database("mark ready", err)
		}
		if updated == nil {
			return apperrors.InvalidStateTransition(string(locked.Status), "mark ready in")
		}

		return s.appendAudit(ctx, tx, sessionID, &callerID, model.AuditEventReady,
			"Participant marked ready", nil)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, updated.OtherParticipant(callerID), notify.SessionEvent{
		Event:     "participant_ready",
		SessionID: sessionID,
		ActorID:   callerID,
	})

	return updated, nil
}

// CanJoin is the gating predicate for join-token issuance. The party who
// triggered meeting creation must wait for the other party's explicit
// readiness; the other party may enter as soon as the meeting exists.
func CanJoin(session *model.Session, userID string) bool {
	if session.Status != model.SessionStatusActive {
		return false
	}
	if !session.HasParticipant(userID) {
		return false
	}
	if session.StartedBy == nil {
		return false
	}
	if userID == *session.StartedBy {
		return session.ReadyFor(session.OtherParticipant(userID))
	}
	return true
}

// IssueJoinToken mints a fresh single-use token for the caller. Earlier
// unredeemed tokens stay valid until their own expiry.
func (s *SessionService) IssueJoinToken(ctx context.Context, sessionID, callerID string) (*JoinTokenResult, error) {
	session, err := s.findForParticipant(ctx, sessionID, callerID)
	if err != nil {
		return nil, err
	}
	if !CanJoin(session, callerID) {
		return nil, apperrors.NotReadyYet()
	}

	raw, err := util.GenerateToken()
	if err != nil {
		return nil, apperrors.Internal("Failed to generate token").WithCause(err)
	}

	expiresAt := time.Now().Add(s.tokenTTL)
	_, err = s.tokenRepo.Create(ctx, model.CreateJoinTokenParams{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		UserID:    callerID,
		TokenHash: util.HashToken(raw),
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return nil, apperrors.Database("create join token", err)
	}

	log.Info().
		Str("sessionId", sessionID).
		Str("userId", callerID).
		Time("expiresAt", expiresAt).
		Msg("join token issued")

	return &JoinTokenResult{
		Token:     raw,
		SessionID: sessionID,
		ExpiresAt: expiresAt,
	}, nil
}

// ValidateJoinToken redeems a token. The conditional update in the token
// store guarantees exactly one success per token under concurrent attempts;
// expired tokens are rejected without being consumed.
func (s *SessionService) ValidateJoinToken(ctx context.Context, rawToken string) (*ValidateTokenResult, error) {
	if rawToken == "" {
		return nil, apperrors.MissingRequired("token")
	}

	tokenHash := util.HashToken(rawToken)
	token, err := s.tokenRepo.FindByTokenHash(ctx, tokenHash)
	if err != nil {
		return nil, apperrors.Database("find join token", err)
	}
	if token == nil {
		return nil, apperrors.NotFound("Join token")
	}
	if token.IsUsed {
		return nil, apperrors.TokenAlreadyUsed()
	}
	if token.Expired(time.Now()) {
		return nil, apperrors.TokenExpired()
	}

	var result *ValidateTokenResult
	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		redeemed, err := s.tokenRepo.WithTx(tx).Redeem(ctx, tokenHash, time.Now())
		if err != nil {
			return apperrors.Database("redeem join token", err)
		}
		if redeemed == nil {
			// Lost the race against a concurrent validation.
			return apperrors.TokenAlreadyUsed()
		}

		session, err := s.sessionRepo.WithTx(tx).FindByID(ctx, redeemed.SessionID)
		if err != nil {
			return apperrors.Database("find session", err)
		}
		if session == nil {
			return apperrors.NotFound("Session")
		}

		if err := s.appendAudit(ctx, tx, session.ID, &redeemed.UserID, model.AuditEventJoined,
			"Participant joined via token", model.Metadata{"tokenId": redeemed.ID}); err != nil {
			return err
		}

		result = &ValidateTokenResult{Session: session}
		if session.MeetingID != nil {
			result.MeetingID = *session.MeetingID
		}
		if session.MeetingURL != nil {
			result.MeetingURL = *session.MeetingURL
		}
		if session.MeetingPassword != nil {
			result.MeetingPassword = *session.MeetingPassword
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("sessionId", result.Session.ID).
		Str("userId", token.UserID).
		Msg("join token redeemed")

	return result, nil
}

// End completes an active session.
func (s *SessionService) End(ctx context.Context, sessionID, callerID string) (*model.Session, error) {
	updated, err := s.transition(ctx, sessionID, callerID, "end",
		model.AuditEventEnded, "Session ended",
		func(repo repository.SessionRepository, locked *model.Session) (*model.Session, error) {
			if locked.Status != model.SessionStatusActive {
				return nil, apperrors.InvalidStateTransition(string(locked.Status), "end")
			}
			return repo.MarkCompleted(ctx, sessionID, time.Now())
		})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, updated.OtherParticipant(callerID), notify.SessionEvent{
		Event:     "session_ended",
		SessionID: sessionID,
		ActorID:   callerID,
	})

	return updated, nil
}

// Cancel aborts a pending or active session.
func (s *SessionService) Cancel(ctx context.Context, sessionID, callerID string) (*model.Session, error) {
	updated, err := s.transition(ctx, sessionID, callerID, "cancel",
		model.AuditEventCancelled, "Session cancelled",
		func(repo repository.SessionRepository, locked *model.Session) (*model.Session, error) {
			if locked.Status.Terminal() {
				return nil, apperrors.InvalidStateTransition(string(locked.Status), "cancel")
			}
			return repo.MarkCancelled(ctx, sessionID, time.Now())
		})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, updated.OtherParticipant(callerID), notify.SessionEvent{
		Event:     "session_cancelled",
		SessionID: sessionID,
		ActorID:   callerID,
	})

	return updated, nil
}

// Leave records that a participant left the meeting. The session stays
// active; ending it is an explicit, separate operation.
func (s *SessionService) Leave(ctx context.Context, sessionID, callerID string) (*model.Session, error) {
	var session *model.Session
	err := s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		session, err = s.sessionRepo.WithTx(tx).FindByID(ctx, sessionID)
		if err != nil {
			return apperrors.Database("find session", err)
		}
		if session == nil {
			return apperrors.NotFound("Session")
		}
		if !session.HasParticipant(callerID) {
			return apperrors.NotParticipant()
		}
		if session.Status != model.SessionStatusActive {
			return apperrors.InvalidStateTransition(string(session.Status), "leave")
		}

		return s.appendAudit(ctx, tx, sessionID, &callerID, model.AuditEventLeft,
			"Participant left the meeting", nil)
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// JoinInfo returns the meeting coordinates for an active session.
func (s *SessionService) JoinInfo(ctx context.Context, sessionID, callerID string) (*JoinInfoResult, error) {
	session, err := s.findForParticipant(ctx, sessionID, callerID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionStatusActive {
		return nil, apperrors.InvalidStateTransition(string(session.Status), "join")
	}

	result := &JoinInfoResult{
		SessionID: session.ID,
		IsHost:    session.StartedBy != nil && *session.StartedBy == callerID,
	}
	if session.MeetingID != nil {
		result.MeetingID = *session.MeetingID
	}
	if session.MeetingURL != nil {
		result.MeetingURL = *session.MeetingURL
	}
	if session.MeetingPassword != nil {
		result.MeetingPassword = *session.MeetingPassword
	}

	if caller, err := s.userRepo.FindByID(ctx, callerID); err == nil && caller != nil {
		result.UserName = caller.DisplayName
		if result.UserName == "" {
			result.UserName = caller.Username
		}
	}

	return result, nil
}

// ListAuditLogs returns the session's audit trail, oldest first.
func (s *SessionService) ListAuditLogs(ctx context.Context, sessionID, callerID string) ([]model.SessionAuditLog, error) {
	if _, err := s.findForParticipant(ctx, sessionID, callerID); err != nil {
		return nil, err
	}

	entries, err := s.auditRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Database("list audit logs", err)
	}
	return entries, nil
}

func (s *SessionService) findForParticipant(ctx context.Context, sessionID, callerID string) (*model.Session, error) {
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Database("find session", err)
	}
	if session == nil {
		return nil, apperrors.NotFound("Session")
	}
	if !session.HasParticipant(callerID) {
		return nil, apperrors.NotParticipant()
	}
	return session, nil
}

// transition runs a locked status change plus its audit entry in one
// transaction. Each session row has its own lock; sessions never contend
// with each other.
func (s *SessionService) transition(
	ctx context.Context,
	sessionID, callerID, op string,
	event model.AuditEventType,
	message string,
	mutate func(repo repository.SessionRepository, locked *model.Session) (*model.Session, error),
) (*model.Session, error) {
	var updated *model.Session
	err := s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		repo := s.sessionRepo.WithTx(tx)
		locked, err := repo.FindByIDForUpdate(ctx, sessionID)
		if err != nil {
			return apperrors.Database("lock session", err)
		}
		if locked == nil {
			return apperrors.NotFound("Session")
		}
		if !locked.HasParticipant(callerID) {
			return apperrors.NotParticipant()
		}

		updated, err = mutate(repo, locked)
		if err != nil {
			return err
		}
		if updated == nil {
			return apperrors.InvalidStateTransition(string(locked.Status), op)
		}

		return s.appendAudit(ctx, tx, sessionID, &callerID, event, message, nil)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("sessionId", sessionID).
		Str("userId", callerID).
		Str("status", string(updated.Status)).
		Msg("session " + op)

	return updated, nil
}

func (s *SessionService) appendAudit(
	ctx context.Context,
	tx *sqlx.Tx,
	sessionID string,
	userID *string,
	event model.AuditEventType,
	message string,
	metadata model.Metadata,
) error {
	_, err := s.auditRepo.WithTx(tx).Append(ctx, model.AppendAuditLogParams{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		UserID:    userID,
		EventType: event,
		Message:   message,
		Metadata:  metadata,
	})
	if err != nil {
		return apperrors.Database("append audit log", err)
	}
	return nil
}
