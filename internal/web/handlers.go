package web

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/loydmilligan/mashboard-strategist/internal/league"
)

// Handlers holds the API handlers and their dependencies.
type Handlers struct {
	engine *league.Engine
}

// NewHandlers creates the handler set.
func NewHandlers(engine *league.Engine) *Handlers {
	return &Handlers{engine: engine}
}

type messageRequest struct {
	Message string `json:"message"`
}

type playlistRequest struct {
	Platform string `json:"platform"`
}

type errorResponse struct {
	Error   string          `json:"error"`
	Session *league.Session `json:"session,omitempty"`
}

// CreateSession starts a new strategy session.
func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.engine.CreateSession(r.Context())
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// ListSessions returns all sessions, newest first.
func (h *Handlers) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.engine.ListSessions(r.Context())
	if err != nil {
		writeError(w, err, nil)
		return
	}
	if sessions == nil {
		sessions = []*league.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

// GetSession returns a single session by ID.
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.engine.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// DeleteSession removes a session.
func (h *Handlers) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.DeleteSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PostMessage runs one conversation turn against the session.
func (h *Handlers) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "message is required"})
		return
	}

	session, err := h.engine.ProcessTurn(r.Context(), chi.URLParam(r, "id"), req.Message)
	if err != nil {
		writeError(w, err, session)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// CreatePlaylist builds a playlist from the session's picks.
func (h *Handlers) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req playlistRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
	}

	session, err := h.engine.CreatePlaylist(r.Context(), chi.URLParam(r, "id"), req.Platform)
	if err != nil {
		writeError(w, err, session)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// GetProfile returns the long-term listener profile.
func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.engine.GetProfile(r.Context())
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// writeError maps engine errors to HTTP status codes. A non-nil session
// is included so clients see transcript entries recorded before the
// failure.
func writeError(w http.ResponseWriter, err error, session *league.Session) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, league.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, league.ErrTurnInFlight):
		status = http.StatusConflict
	case errors.Is(err, league.ErrNoCandidates):
		status = http.StatusBadRequest
	case errors.Is(err, league.ErrChatNotConfigured),
		errors.Is(err, league.ErrPlaylistsNotConfigured):
		status = http.StatusServiceUnavailable
	case session != nil:
		// A session alongside an error means the chat provider failed
		// mid-turn.
		status = http.StatusBadGateway
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Session: session})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encoding response: %v", err)
	}
}
