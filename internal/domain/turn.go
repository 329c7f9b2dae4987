package domain

import "time"

// Role identifies the author of a conversation turn. Internally the
// assistant persona is the "avatar"; the external service contract uses
// "assistant", translated at the context boundary.
type Role string

const (
	RoleUser   Role = "user"
	RoleAvatar Role = "avatar"

	// RoleAssistant is the external label the response-generation service
	// expects for avatar-authored turns.
	RoleAssistant Role = "assistant"
)

// Turn is one exchange unit in a conversation. Analysis is attached only to
// avatar turns produced by a fully successful round-trip.
type Turn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Analysis  *Analysis `json:"analysis,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ContextMessage is a role/content pair sent upstream as conversation
// context. Analysis never crosses this boundary.
type ContextMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// DerivedState is the UI projection of the most recent successfully
// normalized analysis. It is always recomputed whole, never merged.
type DerivedState struct {
	CurrentEmotion  string    `json:"current_emotion"`
	CurrentRisk     RiskLevel `json:"current_risk"`
	CurrentSeverity int       `json:"current_severity"`
	CrisisFlag      bool      `json:"crisis_flag"`
}

// InitialDerivedState is the projection before any entry has been analyzed.
func InitialDerivedState() DerivedState {
	return DerivedState{
		CurrentEmotion:  "neutral",
		CurrentRisk:     RiskLow,
		CurrentSeverity: 0,
		CrisisFlag:      false,
	}
}
