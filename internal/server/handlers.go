package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/serenemind/sessiond/internal/session"
)

// Handlers exposes the session registry over HTTP.
type Handlers struct {
	registry *session.Registry
	logger   *slog.Logger
}

func NewHandlers(registry *session.Registry, logger *slog.Logger) *Handlers {
	return &Handlers{registry: registry, logger: logger}
}

// Mount attaches all routes to the router.
func (h *Handlers) Mount(r chi.Router) {
	r.Get("/healthz", h.handleHealth)

	r.Route("/v1/sessions", func(r chi.Router) {
		r.Post("/", h.handleCreate)

		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.handleSnapshot)
			r.Delete("/", h.handleEnd)
			r.Post("/entries", h.handleSubmit)
			r.Get("/analytics", h.handleAnalytics)
			r.Delete("/crisis", h.handleDismissCrisis)
			r.Delete("/error", h.handleClearError)
		})
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) handleCreate(w http.ResponseWriter, r *http.Request) {
	s := h.registry.Create(r.Context())
	AddLogField(r.Context(), "session_id", s.ID())
	writeJSON(w, http.StatusCreated, s.Snapshot())
}

// lookup resolves the session from the URL, writing a 404 when it is gone.
func (h *Handlers) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "sessionID")
	s, ok := h.registry.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown session"})
		return nil, false
	}
	AddLogField(r.Context(), "session_id", s.ID())
	return s, true
}

type submitRequest struct {
	Text string `json:"text"`
}

func (h *Handlers) handleSubmit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	result, err := s.Submit(r.Context(), req.Text)
	switch {
	case errors.Is(err, session.ErrEmptyEntry):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	case errors.Is(err, session.ErrSubmissionInFlight):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		return
	case err != nil:
		AddError(r.Context(), err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	// A failed round-trip is a completed cycle: the result carries the
	// classified error and the fallback reply, not an HTTP error.
	AddLogField(r.Context(), "outcome", string(result.Outcome))
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *Handlers) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Analytics())
}

func (h *Handlers) handleDismissCrisis(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	s.DismissCrisis()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) handleClearError(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	s.ClearError()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) handleEnd(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.registry.Delete(s.ID())
	w.WriteHeader(http.StatusNoContent)
}
