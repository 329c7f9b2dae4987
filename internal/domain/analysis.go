// Package domain provides the canonical records shared by the session
// manager: the unified analysis, conversation turns, derived UI state, and
// the classified error taxonomy.
package domain

import "math"

// RiskLevel is the ordinal crisis tier assigned to a journal entry.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
	RiskCrisis RiskLevel = "CRISIS"
)

// Calibrated probability cutoffs used when a payload carries a probability
// but no recognizable risk label. These match the upstream crisis detector.
const (
	crisisThreshold = 0.75
	highThreshold   = 0.55
	mediumThreshold = 0.35
)

// ParseRiskLevel maps a wire string onto a RiskLevel. The second return is
// false when the string is not one of the four known tiers.
func ParseRiskLevel(s string) (RiskLevel, bool) {
	switch RiskLevel(s) {
	case RiskLow, RiskMedium, RiskHigh, RiskCrisis:
		return RiskLevel(s), true
	}
	return RiskLow, false
}

// RiskFromProbability thresholds a clamped crisis probability into a tier.
func RiskFromProbability(p float64) RiskLevel {
	p = ClampUnit(p)
	switch {
	case p >= crisisThreshold:
		return RiskCrisis
	case p >= highThreshold:
		return RiskHigh
	case p >= mediumThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Escalates reports whether the tier demands immediate action.
func (r RiskLevel) Escalates() bool {
	return r == RiskHigh || r == RiskCrisis
}

// Analysis is the canonical, schema-version-independent analysis record.
// Both backend payload shapes normalize into this struct; downstream code
// never sees a version check.
type Analysis struct {
	MentalState             string             `json:"mental_state"`
	RawLabel                string             `json:"raw_label"`
	Emotion                 string             `json:"emotion"`
	CrisisRisk              RiskLevel          `json:"crisis_risk"`
	CrisisProbability       float64            `json:"crisis_probability"`
	RequiresImmediateAction bool               `json:"requires_immediate_action"`
	SeverityRating          int                `json:"severity_rating"`
	Tags                    []string           `json:"tags"`
	Confidence              float64            `json:"confidence"`
	AllScores               map[string]float64 `json:"all_scores"`
	SemanticSummary         string             `json:"semantic_summary"`
	TriggeredBy             string             `json:"triggered_by"`
	ProcessingTimeMs        float64            `json:"processing_time_ms"`
	ModelVersion            string             `json:"model_version"`
}

// Summary is the strict subset of Analysis emitted to the analytics sink
// after each successful turn.
type Summary struct {
	Emotion           string   `json:"emotion"`
	Confidence        float64  `json:"confidence"`
	CrisisProbability float64  `json:"crisis_probability"`
	MentalState       string   `json:"mental_state"`
	SeverityRating    int      `json:"severity_rating"`
	Tags              []string `json:"tags"`
}

// Summarize projects the analytics subset out of the analysis.
func (a *Analysis) Summarize() Summary {
	tags := make([]string, len(a.Tags))
	copy(tags, a.Tags)
	return Summary{
		Emotion:           a.Emotion,
		Confidence:        a.Confidence,
		CrisisProbability: a.CrisisProbability,
		MentalState:       a.MentalState,
		SeverityRating:    a.SeverityRating,
		Tags:              tags,
	}
}

// ClampUnit clamps a value to [0, 1]. NaN clamps to 0.
func ClampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ClampSeverity clamps a severity rating to [0, 10].
func ClampSeverity(v int) int {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

// DerivedSeverity is the documented fallback derivation used when a payload
// supplies no explicit severity: round(probability * 10), clamped.
func DerivedSeverity(crisisProbability float64) int {
	return ClampSeverity(int(math.Round(ClampUnit(crisisProbability) * 10)))
}
