package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aliabbas776/MATCHMATE-BACKEND/internal/audit"
	apperrors "github.com/aliabbas776/MATCHMATE-BACKEND/internal/errors"
	"github.com/aliabbas776/MATCHMATE-BACKEND/internal/middleware"
	"github.com/aliabbas776/MATCHMATE-BACKEND/internal/service"
)

type SessionHandler struct {
	sessionService *service.SessionService
}

func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
	}
}

func (h *SessionHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/create", h.CreateSession)
	r.Get("/", h.ListSessions)
	r.Post("/join-token/validate", h.ValidateJoinToken)

	r.Route("/{sessionID}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Post("/start", h.StartSession)
		r.Post("/ready", h.MarkReady)
		r.Post("/leave", h.LeaveSession)
		r.Post("/end", h.EndSession)
		r.Post("/cancel", h.CancelSession)
		r.Post("/join-token", h.IssueJoinToken)
		r.Post("/join-info", h.JoinInfo)
		r.Get("/audit-logs", h.ListAuditLogs)
	})

	return r
}

type createSessionRequest struct {
	ParticipantID string `json:"participantId"`
}

// POST /v1/sessions/create
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("Authentication required"))
		return
	}

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("body", "invalid JSON"))
		return
	}

	session, err := h.sessionService.Create(r.Context(), user.ID, req.ParticipantID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

// GET /v1/sessions/
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("Authentication required"))
		return
	}

	sessions, err := h.sessionService.List(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// GET /v1/sessions/{sessionID}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("Authentication required"))
		return
	}

	session, err := h.sessionService.Get(r.Context(), chi.URLParam(r, "sessionID"), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// POST /v1/sessions/{sessionID}/start
func (h *SessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("Authentication required"))
		return
	}

	session, err := h.sessionService.Start(r.Context(), chi.URLParam(r, "sessionID"), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// POST /v1/sessions/{sessionID}/ready
func (h *SessionHandler) MarkReady(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("Authentication required"))
		return
	}

	session, err := h.sessionService.MarkReady(r.Context(), chi.URLParam(r, "sessionID"), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// POST /v1/sessions/{sessionID}/leave
func (h *SessionHandler) LeaveSession(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("Authentication required"))
		return
	}

	session, err := h.sessionService.Leave(r.Context(), chi.URLParam(r, "sessionID"), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// POST /v1/sessions/{sessionID}/end
func (h *SessionHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("Authentication required"))
		return
	}

	session, err := h.sessionService.End(r.Context(), chi.URLParam(r, "sessionID"), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// POST /v1/sessions/{sessionID}/cancel
func (h *SessionHandler) CancelSession(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("Authentication required"))
		return
	}

	session, err := h.sessionService.Cancel(r.Context(), chi.URLParam(r, "sessionID"), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// POST /v1/sessions/{sessionID}/join-token
func (h *SessionHandler) IssueJoinToken(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("Authentication required"))
		return
	}

	result, err := h.sessionService.IssueJoinToken(r.Context(), chi.URLParam(r, "sessionID"), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

type validateTokenRequest struct {
	Token string `json:"token"`
}

// POST /v1/sessions/join-token/validate
func (h *SessionHandler) ValidateJoinToken(w http.ResponseWriter, r *http.Request) {
	var req validateTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("body", "invalid JSON"))
		return
	}

	result, err := h.sessionService.ValidateJoinToken(r.Context(), req.Token)
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrCodeTokenAlreadyUsed) {
			audit.LogFromRequest(r, audit.Event{Type: audit.EventTokenReplay})
		} else {
			audit.LogFromRequest(r, audit.Event{Type: audit.EventTokenInvalid})
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// POST /v1/sessions/{sessionID}/join-info
func (h *SessionHandler) JoinInfo(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("Authentication required"))
		return
	}

	result, err := h.sessionService.JoinInfo(r.Context(), chi.URLParam(r, "sessionID"), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GET /v1/sessions/{sessionID}/audit-logs
func (h *SessionHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("Authentication required"))
		return
	}

	entries, err := h.sessionService.ListAuditLogs(r.Context(), chi.URLParam(r, "sessionID"), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"auditLogs": entries,
		"count":     len(entries),
	})
}
