package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/aliabbas776/MATCHMATE-BACKEND/internal/database"
	"github.com/aliabbas776/MATCHMATE-BACKEND/internal/meeting"
	"github.com/aliabbas776/MATCHMATE-BACKEND/internal/model"
	"github.com/aliabbas776/MATCHMATE-BACKEND/internal/notify"
	"github.com/aliabbas776/MATCHMATE-BACKEND/internal/repository"
)

// fakeTx runs the function directly; the in-memory repositories do their own
// locking, so the transactional guarantees the real store provides are
// emulated by per-repository mutexes.
type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn database.TxFunc) error {
	return fn(nil)
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]model.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]model.Session)}
}

func (r *fakeSessionRepo) WithTx(tx *sqlx.Tx) repository.SessionRepository { return r }

func (r *fakeSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return &s, nil
	}
	return nil, nil
}

func (r *fakeSessionRepo) FindByIDForUpdate(ctx context.Context, id string) (*model.Session, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeSessionRepo) ListByUser(ctx context.Context, userID string) ([]model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Session
	for _, s := range r.sessions {
		if s.InitiatorID == userID || s.ParticipantID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	s := model.Session{
		ID:            params.ID,
		InitiatorID:   params.InitiatorID,
		ParticipantID: params.ParticipantID,
		Status:        model.SessionStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	r.sessions[params.ID] = s
	return &s, nil
}

func (r *fakeSessionRepo) MarkActive(ctx context.Context, params model.ActivateSessionParams) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[params.ID]
	if !ok || s.Status != model.SessionStatusPending {
		return nil, nil
	}
	startedBy := params.StartedBy
	meetingID := params.MeetingID
	meetingURL := params.MeetingURL
	meetingPassword := params.MeetingPassword
	startedAt := params.StartedAt
	s.Status = model.SessionStatusActive
	s.StartedBy = &startedBy
	s.MeetingID = &meetingID
	s.MeetingURL = &meetingURL
	s.MeetingPassword = &meetingPassword
	s.StartedAt = &startedAt
	s.UpdatedAt = startedAt
	r.sessions[params.ID] = s
	return &s, nil
}

func (r *fakeSessionRepo) MarkReady(ctx context.Context, id string, forInitiator bool) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.Status != model.SessionStatusActive {
		return nil, nil
	}
	if forInitiator {
		s.InitiatorReady = true
	} else {
		s.ParticipantReady = true
	}
	s.UpdatedAt = time.Now()
	r.sessions[id] = s
	return &s, nil
}

func (r *fakeSessionRepo) MarkCompleted(ctx context.Context, id string, endedAt time.Time) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.Status != model.SessionStatusActive {
		return nil, nil
	}
	s.Status = model.SessionStatusCompleted
	s.EndedAt = &endedAt
	s.UpdatedAt = endedAt
	r.sessions[id] = s
	return &s, nil
}

func (r *fakeSessionRepo) MarkCancelled(ctx context.Context, id string, endedAt time.Time) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || (s.Status != model.SessionStatusPending && s.Status != model.SessionStatusActive) {
		return nil, nil
	}
	s.Status = model.SessionStatusCancelled
	s.EndedAt = &endedAt
	s.UpdatedAt = endedAt
	r.sessions[id] = s
	return &s, nil
}

type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]model.SessionJoinToken // keyed by token hash
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]model.SessionJoinToken)}
}

func (r *fakeTokenRepo) WithTx(tx *sqlx.Tx) repository.JoinTokenRepository { return r }

func (r *fakeTokenRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.SessionJoinToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tokens[tokenHash]; ok {
		return &t, nil
	}
	return nil, nil
}

func (r *fakeTokenRepo) Create(ctx context.Context, params model.CreateJoinTokenParams) (*model.SessionJoinToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := model.SessionJoinToken{
		ID:        params.ID,
		SessionID: params.SessionID,
		UserID:    params.UserID,
		TokenHash: params.TokenHash,
		ExpiresAt: params.ExpiresAt,
		CreatedAt: time.Now(),
	}
	r.tokens[params.TokenHash] = t
	return &t, nil
}

func (r *fakeTokenRepo) Redeem(ctx context.Context, tokenHash string, usedAt time.Time) (*model.SessionJoinToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[tokenHash]
	if !ok || t.IsUsed {
		return nil, nil
	}
	t.IsUsed = true
	t.UsedAt = &usedAt
	r.tokens[tokenHash] = t
	return &t, nil
}

func (r *fakeTokenRepo) DeleteExpiredUnused(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	now := time.Now()
	for hash, t := range r.tokens {
		if !t.IsUsed && now.After(t.ExpiresAt) {
			delete(r.tokens, hash)
			n++
		}
	}
	return n, nil
}

// setExpired backdates a token's deadline, for expiry tests.
func (r *fakeTokenRepo) setExpired(tokenHash string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.tokens[tokenHash]
	t.ExpiresAt = time.Now().Add(-time.Minute)
	r.tokens[tokenHash] = t
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []model.SessionAuditLog
}

func newFakeAuditRepo() *fakeAuditRepo {
	return &fakeAuditRepo{}
}

func (r *fakeAuditRepo) WithTx(tx *sqlx.Tx) repository.AuditLogRepository { return r }

func (r *fakeAuditRepo) Append(ctx context.Context, params model.AppendAuditLogParams) (*model.SessionAuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry := model.SessionAuditLog{
		ID:        params.ID,
		SessionID: params.SessionID,
		UserID:    params.UserID,
		EventType: params.EventType,
		Message:   params.Message,
		Metadata:  params.Metadata,
		CreatedAt: time.Now(),
	}
	r.entries = append(r.entries, entry)
	return &entry, nil
}

func (r *fakeAuditRepo) ListBySession(ctx context.Context, sessionID string) ([]model.SessionAuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.SessionAuditLog{}
	for _, e := range r.entries {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeAuditRepo) eventsFor(sessionID string) []model.AuditEventType {
	entries, _ := r.ListBySession(context.Background(), sessionID)
	var out []model.AuditEventType
	for _, e := range entries {
		out = append(out, e.EventType)
	}
	return out
}

type fakeConnectionRepo struct {
	approved map[[2]string]bool
}

func newFakeConnectionRepo() *fakeConnectionRepo {
	return &fakeConnectionRepo{approved: make(map[[2]string]bool)}
}

func (r *fakeConnectionRepo) approve(a, b string) {
	r.approved[[2]string{a, b}] = true
}

func (r *fakeConnectionRepo) IsApproved(ctx context.Context, userA, userB string) (bool, error) {
	return r.approved[[2]string{userA, userB}] || r.approved[[2]string{userB, userA}], nil
}

type fakeUserRepo struct {
	users map[string]model.User
}

func newFakeUserRepo(ids ...string) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]model.User)}
	for _, id := range ids {
		r.users[id] = model.User{ID: id, Username: id, DisplayName: "User " + id}
	}
	return r
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if u, ok := r.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.User, error) {
	for _, u := range r.users {
		if u.APITokenHash == tokenHash {
			return &u, nil
		}
	}
	return nil, nil
}

type fakeProvisioner struct {
	mu    sync.Mutex
	fail  bool
	calls int
}

func (p *fakeProvisioner) Provision(ctx context.Context, topic string) (*meeting.Meeting, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.fail {
		return nil, errors.New("provider unavailable")
	}
	return &meeting.Meeting{
		ID:       "meeting-123",
		JoinURL:  "https://zoom.us/j/123",
		Password: "pw",
	}, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []notify.SessionEvent
	users  []string
}

func (n *fakeNotifier) Notify(ctx context.Context, userID string, event notify.SessionEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.users = append(n.users, userID)
	n.events = append(n.events, event)
}

func (n *fakeNotifier) lastEvent() (string, string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.events) == 0 {
		return "", ""
	}
	return n.users[len(n.users)-1], n.events[len(n.events)-1].Event
}
