// Package session implements the submission lifecycle state machine that
// orchestrates one journaling turn: validate input, call the analysis
// service, normalize, project derived state, call the response-generation
// service, and append to the conversation log. All remote failures are
// classified here and never propagate past the controller.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/serenemind/sessiond/internal/analytics"
	"github.com/serenemind/sessiond/internal/api/avatar"
	"github.com/serenemind/sessiond/internal/conversation"
	"github.com/serenemind/sessiond/internal/domain"
	"github.com/serenemind/sessiond/internal/storage"
	"github.com/serenemind/sessiond/internal/tokens"
)

// State is the submission lifecycle state. Success and Failed are resting
// states equivalent to Idle for admission purposes: only Submitting rejects
// a new entry.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StateSuccess    State = "success"
	StateFailed     State = "failed"
)

// FallbackReply is the fixed empathetic reply appended when a round-trip
// fails, so the conversation view never shows a hole.
const FallbackReply = "Your words matter to me. I'm having a brief connection issue — please try again in a moment. 💙"

// Rejection errors returned by Submit before any state changes.
var (
	ErrEmptyEntry         = errors.New("journal entry is empty")
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
)

// AnalysisClient is the remote analysis service boundary.
type AnalysisClient interface {
	Analyze(ctx context.Context, text string, history []domain.ContextMessage) (*domain.Analysis, error)
}

// AvatarClient is the remote response-generation service boundary.
type AvatarClient interface {
	Respond(ctx context.Context, req *avatar.RespondRequest) (string, error)
}

// Result is the outcome of one submission.
type Result struct {
	Outcome       State                   `json:"outcome"`
	Reply         string                  `json:"reply"`
	Analysis      *domain.Analysis        `json:"analysis,omitempty"`
	Derived       domain.DerivedState     `json:"derived"`
	ContextTokens int                     `json:"context_tokens,omitempty"`
	Err           *domain.ClassifiedError `json:"error,omitempty"`
}

// Snapshot is the externally visible view of a session.
type Snapshot struct {
	ID            string                  `json:"id"`
	State         State                   `json:"state"`
	Derived       domain.DerivedState     `json:"derived"`
	CrisisActive  bool                    `json:"crisis_active"`
	ContextTokens int                     `json:"context_tokens"`
	LastError     *domain.ClassifiedError `json:"last_error,omitempty"`
	Turns         []domain.Turn           `json:"turns"`
}

// Session is one in-memory journaling session. The conversation log and
// derived state are mutated only by the controller; the normalizer and
// projector stay pure.
type Session struct {
	id        string
	logger    *slog.Logger
	analysis  AnalysisClient
	avatar    AvatarClient
	estimator *tokens.Estimator
	store     storage.TranscriptStore
	onCrisis  func(sessionID string)

	log *conversation.Log
	agg *analytics.Aggregator

	mu            sync.Mutex
	state         State
	derived       domain.DerivedState
	lastAnalysis  *domain.Analysis
	lastError     *domain.ClassifiedError
	crisisActive  bool
	contextTokens int
}

// Submit runs one full submission cycle. Rejections (empty input, submission
// already in flight) return an error and change nothing. Every other
// outcome, including remote failures, completes the cycle and returns a
// Result: failures append the fallback reply and carry the classified error.
func (s *Session) Submit(ctx context.Context, text string) (*Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyEntry
	}

	s.mu.Lock()
	if s.state == StateSubmitting {
		s.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	s.state = StateSubmitting
	s.mu.Unlock()

	// Context for the analysis call is the log before this turn; the user
	// turn is appended immediately after so it is visible before any network
	// result returns, and is never rolled back.
	history := s.log.AsContext()
	userTurn := s.log.Append(domain.RoleUser, text, nil)

	analysisRec, err := s.analysis.Analyze(ctx, text, history)
	if err != nil {
		return s.fail(s.logger.With(slog.String("stage", "analysis")), userTurn, err), nil
	}

	projected := Project(*analysisRec)

	// The response-generation call carries the log as it stands before this
	// turn's assistant reply, with roles already translated.
	replyContext := s.log.AsContext()
	contextTokens := 0
	if s.estimator != nil {
		if n, err := s.estimator.CountContext(replyContext); err == nil {
			contextTokens = n
		}
	}

	reply, err := s.avatar.Respond(ctx, &avatar.RespondRequest{
		JournalText:         text,
		Emotion:             analysisRec.Emotion,
		Confidence:          analysisRec.Confidence,
		RiskLevel:           analysisRec.CrisisRisk,
		CrisisProbability:   analysisRec.CrisisProbability,
		MentalState:         analysisRec.MentalState,
		SeverityRating:      analysisRec.SeverityRating,
		Tags:                analysisRec.Tags,
		SemanticSummary:     analysisRec.SemanticSummary,
		ConversationHistory: replyContext,
	})
	if err != nil {
		return s.fail(s.logger.With(slog.String("stage", "respond")), userTurn, err), nil
	}

	replyTurn := s.log.Append(domain.RoleAvatar, reply, analysisRec)

	s.mu.Lock()
	s.state = StateSuccess
	s.derived = projected
	last := *analysisRec
	s.lastAnalysis = &last
	s.lastError = nil
	s.contextTokens = contextTokens
	raised := false
	if projected.CrisisFlag && !s.crisisActive {
		s.crisisActive = true
		raised = true
	}
	s.mu.Unlock()

	if raised && s.onCrisis != nil {
		s.onCrisis(s.id)
	}

	s.agg.Record(analysisRec.Summarize())
	conversation.Record(ctx, s.store, s.id, userTurn, replyTurn)

	s.logger.Info("submission succeeded",
		slog.String("session_id", s.id),
		slog.String("risk", string(projected.CurrentRisk)),
		slog.Int("severity", projected.CurrentSeverity),
		slog.String("provenance", analysisRec.TriggeredBy),
		slog.Int("context_tokens", contextTokens),
	)

	return &Result{
		Outcome:       StateSuccess,
		Reply:         reply,
		Analysis:      analysisRec,
		Derived:       projected,
		ContextTokens: contextTokens,
	}, nil
}

// fail completes a submission after a remote or normalization error: the
// already-appended user turn stays, a synthetic fallback reply is appended
// with no analysis, and derived state is left untouched so it still reflects
// the last successful analysis.
func (s *Session) fail(logger *slog.Logger, userTurn domain.Turn, err error) *Result {
	classified := domain.Classify(err)
	fallbackTurn := s.log.Append(domain.RoleAvatar, FallbackReply, nil)

	s.mu.Lock()
	s.state = StateFailed
	s.lastError = classified
	derived := s.derived
	s.mu.Unlock()

	conversation.Record(context.Background(), s.store, s.id, userTurn, fallbackTurn)

	logger.Warn("submission failed",
		slog.String("session_id", s.id),
		slog.String("kind", string(classified.Kind)),
		slog.String("error", classified.Message),
	)

	return &Result{
		Outcome: StateFailed,
		Reply:   FallbackReply,
		Derived: derived,
		Err:     classified,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Derived returns the current UI projection.
func (s *Session) Derived() domain.DerivedState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.derived
}

// Log exposes the conversation log.
func (s *Session) Log() *conversation.Log {
	return s.log
}

// Analytics returns the rolling statistics over successful turns.
func (s *Session) Analytics() analytics.Report {
	return s.agg.Report()
}

// CrisisActive reports whether the crisis-escalation surface should show.
func (s *Session) CrisisActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.crisisActive
}

// DismissCrisis clears the crisis signal. Only explicit dismissal clears it;
// a later low-risk entry never does.
func (s *Session) DismissCrisis() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.crisisActive = false
}

// ClearError dismisses the error banner.
func (s *Session) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = nil
}

// Snapshot returns the externally visible session view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	state := s.state
	derived := s.derived
	crisis := s.crisisActive
	lastErr := s.lastError
	contextTokens := s.contextTokens
	s.mu.Unlock()

	return Snapshot{
		ID:            s.id,
		State:         state,
		Derived:       derived,
		CrisisActive:  crisis,
		ContextTokens: contextTokens,
		LastError:     lastErr,
		Turns:         s.log.Snapshot(),
	}
}
