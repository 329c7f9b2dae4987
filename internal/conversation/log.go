// Package conversation holds the append-only conversation log for one
// session. The log owns its turns: callers get value copies, and the only
// mutator is Append. No removal or reordering operation exists.
package conversation

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/serenemind/sessiond/internal/domain"
)

// Log is an append-only ordered sequence of conversation turns.
type Log struct {
	mu    sync.Mutex
	turns []domain.Turn
}

// New creates an empty log.
func New() *Log {
	return &Log{}
}

// Append adds a turn to the end of the log, assigning its ID and timestamp,
// and returns the stored copy.
func (l *Log) Append(role domain.Role, content string, analysis *domain.Analysis) domain.Turn {
	turn := domain.Turn{
		ID:        "turn_" + uuid.New().String(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if analysis != nil {
		a := *analysis
		turn.Analysis = &a
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.turns = append(l.turns, turn)
	return turn
}

// Len returns the number of turns appended so far.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.turns)
}

// Snapshot returns a copy of all turns in append order. Mutating the result
// never affects the log.
func (l *Log) Snapshot() []domain.Turn {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.Turn, len(l.turns))
	copy(out, l.turns)
	for i := range out {
		if out[i].Analysis != nil {
			a := *out[i].Analysis
			out[i].Analysis = &a
		}
	}
	return out
}

// AsContext returns the ordered role/content pairs sent upstream as
// conversation context. Analysis is stripped, and the internal "avatar" role
// is translated to the external "assistant" label at this boundary.
func (l *Log) AsContext() []domain.ContextMessage {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.ContextMessage, len(l.turns))
	for i, turn := range l.turns {
		role := turn.Role
		if role == domain.RoleAvatar {
			role = domain.RoleAssistant
		}
		out[i] = domain.ContextMessage{Role: role, Content: turn.Content}
	}
	return out
}
