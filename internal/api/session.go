package api

import (
	"net/http"
	"time"

	"autobazar/listing-editor/internal/auth"
	"autobazar/listing-editor/internal/common"
	"autobazar/listing-editor/internal/constants"
	"autobazar/listing-editor/internal/logging"
)

type sessionStatus struct {
	Active    bool       `json:"active"`
	UserID    string     `json:"userId,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

func (h *Handlers) status() sessionStatus {
	s := h.deps.Session
	if !s.Active() {
		return sessionStatus{}
	}
	exp := s.ExpiresAt()
	st := sessionStatus{Active: true, UserID: s.UserID()}
	if !exp.IsZero() {
		st.ExpiresAt = &exp
	}
	return st
}

// Login handles POST /api/v1/session with the marketplace token pair.
func (h *Handlers) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		var tokens auth.Tokens
		if err := decodeBody(r, &tokens); err != nil {
			common.RespondError(w, initTime, err, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := h.deps.Session.Begin(tokens); err != nil {
			common.RespondError(w, initTime, err, "The access token is not usable", http.StatusUnauthorized)
			return
		}
		if err := h.deps.Services.Sessions.Save(h.deps.Session, tokens); err != nil {
			logging.Warn("Session not persisted", "error", err)
		}
		common.RespondSuccess(w, initTime, "Signed in", h.status())
	}
}

// Logout handles DELETE /api/v1/session. Open editors are closed; their
// drafts stay in the draft store.
func (h *Handlers) Logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		if _, err := h.deps.Services.Editors.AutosaveAll(r.Context()); err != nil {
			logging.Warn("Autosave before logout incomplete", "error", err)
		}
		h.deps.Services.Editors.CloseAll()
		h.deps.Session.End()
		h.deps.Services.Sessions.Delete()
		h.deps.Services.Cache.Invalidate(
			string(constants.CachePrefixMyListings),
			string(constants.CachePrefixLiked),
			string(constants.CachePrefixDetail),
		)
		common.RespondSuccess(w, initTime, "Signed out", h.status())
	}
}

// SessionStatus handles GET /api/v1/session
func (h *Handlers) SessionStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		common.RespondSuccess(w, time.Now(), "Session status", h.status())
	}
}

// RefreshSession handles POST /api/v1/session/refresh
func (h *Handlers) RefreshSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		if _, err := h.deps.Session.Refresh(r.Context()); err != nil {
			common.RespondError(w, initTime, err, userMessage(err, "Could not refresh the session"), statusFor(err, http.StatusUnauthorized))
			return
		}
		common.RespondSuccess(w, initTime, "Session refreshed", h.status())
	}
}
