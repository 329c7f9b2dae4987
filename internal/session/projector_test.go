package session

import (
	"reflect"
	"testing"

	"github.com/serenemind/sessiond/internal/domain"
)

func TestProjectIsIdempotent(t *testing.T) {
	u := domain.Analysis{
		Emotion:           "sadness",
		CrisisRisk:        domain.RiskMedium,
		CrisisProbability: 0.4,
		SeverityRating:    4,
	}
	before := u

	first := Project(u)
	second := Project(u)

	if first != second {
		t.Errorf("projection not idempotent: %+v vs %+v", first, second)
	}
	if !reflect.DeepEqual(u, before) {
		t.Errorf("Project mutated its input: %+v", u)
	}
	if first.CurrentEmotion != "sadness" || first.CurrentRisk != domain.RiskMedium || first.CurrentSeverity != 4 {
		t.Errorf("projection = %+v", first)
	}
}

func TestProjectCrisisFlagExhaustive(t *testing.T) {
	cases := []struct {
		risk domain.RiskLevel
		want bool
	}{
		{domain.RiskLow, false},
		{domain.RiskMedium, false},
		{domain.RiskHigh, true},
		{domain.RiskCrisis, true},
	}

	for _, tc := range cases {
		got := Project(domain.Analysis{CrisisRisk: tc.risk})
		if got.CrisisFlag != tc.want {
			t.Errorf("risk %s: crisis flag = %v, want %v", tc.risk, got.CrisisFlag, tc.want)
		}
	}
}
