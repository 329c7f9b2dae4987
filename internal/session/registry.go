package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/serenemind/sessiond/internal/analytics"
	"github.com/serenemind/sessiond/internal/conversation"
	"github.com/serenemind/sessiond/internal/domain"
	"github.com/serenemind/sessiond/internal/storage"
	"github.com/serenemind/sessiond/internal/tokens"
)

// Deps are the collaborators shared by every session a registry creates.
type Deps struct {
	Analysis  AnalysisClient
	Avatar    AvatarClient
	Estimator *tokens.Estimator
	Store     storage.TranscriptStore
	Logger    *slog.Logger

	// OnCrisis is invoked once each time a session's crisis flag latches.
	OnCrisis func(sessionID string)
}

// Registry tracks live sessions by ID.
type Registry struct {
	deps Deps

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry(deps Deps) *Registry {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Registry{
		deps:     deps,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new empty session and registers it.
func (r *Registry) Create(ctx context.Context) *Session {
	s := &Session{
		id:        "sess_" + uuid.New().String(),
		logger:    r.deps.Logger,
		analysis:  r.deps.Analysis,
		avatar:    r.deps.Avatar,
		estimator: r.deps.Estimator,
		store:     r.deps.Store,
		onCrisis:  r.deps.OnCrisis,
		log:       conversation.New(),
		agg:       analytics.New(),
		state:     StateIdle,
		derived:   domain.InitialDerivedState(),
	}

	if r.deps.Store != nil {
		if err := r.deps.Store.CreateSession(ctx, &storage.SessionRecord{ID: s.id}); err != nil {
			r.deps.Logger.Error("failed to create session transcript",
				slog.String("session_id", s.id),
				slog.String("error", err.Error()),
			)
		}
	}

	r.mu.Lock()
	r.sessions[s.id] = s
	r.mu.Unlock()

	return s
}

// Get returns the session with the given ID.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Delete ends a session, discarding its in-memory state.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
