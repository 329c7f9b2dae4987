// Package storage defines the transcript store written through by the
// application layer after each completed submission. The session core itself
// is ephemeral; transcripts are best-effort retention and never read back
// into live session state.
package storage

import (
	"context"
	"time"
)

// TranscriptStore persists per-session conversation transcripts.
type TranscriptStore interface {
	CreateSession(ctx context.Context, rec *SessionRecord) error
	AppendTurn(ctx context.Context, sessionID string, turn *TurnRecord) error
	GetSession(ctx context.Context, id string) (*SessionRecord, error)
	ListSessions(ctx context.Context, opts ListOptions) ([]*SessionRecord, error)
	Close() error
}

// SessionRecord is one persisted session transcript.
type SessionRecord struct {
	ID        string            `json:"id"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Turns     []TurnRecord      `json:"turns,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// TurnRecord is one persisted conversation turn. Risk and severity are
// denormalized from the attached analysis so transcripts can be triaged
// without decoding it.
type TurnRecord struct {
	ID             string    `json:"id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	RiskLevel      string    `json:"risk_level,omitempty"`
	SeverityRating int       `json:"severity_rating,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ListOptions paginates session listings.
type ListOptions struct {
	Limit  int
	Offset int
}
