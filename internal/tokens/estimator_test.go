package tokens

import (
	"testing"

	"github.com/serenemind/sessiond/internal/domain"
)

func TestCountTextNonEmpty(t *testing.T) {
	e := NewEstimator()
	n, err := e.CountText("I feel hopeless and alone")
	if err != nil {
		t.Fatalf("CountText: %v", err)
	}
	if n == 0 {
		t.Error("expected a non-zero token count")
	}
}

func TestCountContextIncludesOverhead(t *testing.T) {
	e := NewEstimator()

	one, err := e.CountContext([]domain.ContextMessage{
		{Role: domain.RoleUser, Content: "hello"},
	})
	if err != nil {
		t.Fatalf("CountContext: %v", err)
	}
	if one <= tokensPerMessage+tokensPerRole {
		t.Errorf("count %d does not include content tokens", one)
	}

	two, err := e.CountContext([]domain.ContextMessage{
		{Role: domain.RoleUser, Content: "hello"},
		{Role: domain.RoleAssistant, Content: "hello"},
	})
	if err != nil {
		t.Fatalf("CountContext: %v", err)
	}
	if two != 2*one {
		t.Errorf("two identical messages = %d tokens, want %d", two, 2*one)
	}

	empty, err := e.CountContext(nil)
	if err != nil {
		t.Fatalf("CountContext(nil): %v", err)
	}
	if empty != 0 {
		t.Errorf("empty context = %d tokens, want 0", empty)
	}
}
