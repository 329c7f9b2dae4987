// Package codec normalizes raw analysis-service payloads into the canonical
// domain.Analysis record. Two wire shapes are accepted: the unified v2 shape
// carrying a single nested record, and the legacy v1 shape carrying three
// independent sub-model records. Presence of the nested unified record
// selects v2; its absence selects v1. There is no partial mixing.
package codec

import (
	"encoding/json"
	"strings"

	"github.com/serenemind/sessiond/internal/domain"
)

// UnifiedPayload is the nested v2 record. Field names already match the
// canonical record.
type UnifiedPayload struct {
	MentalState             string             `json:"mental_state"`
	RawLabel                string             `json:"raw_label"`
	Emotion                 string             `json:"emotion"`
	CrisisRisk              string             `json:"crisis_risk"`
	CrisisProbability       float64            `json:"crisis_probability"`
	SeverityRating          *int               `json:"severity_rating"`
	Tags                    []string           `json:"tags"`
	Confidence              float64            `json:"confidence"`
	AllScores               map[string]float64 `json:"all_scores"`
	RequiresImmediateAction bool               `json:"requires_immediate_action"`
	SemanticSummary         string             `json:"semantic_summary"`
	TriggeredBy             string             `json:"triggered_by"`
	ProcessingTimeMs        *float64           `json:"processing_time_ms"`
	ModelVersion            string             `json:"model_version"`
}

// EmotionPayload is the v1 emotion sub-model record.
type EmotionPayload struct {
	Emotion     string             `json:"emotion"`
	Confidence  float64            `json:"confidence"`
	AllEmotions map[string]float64 `json:"all_emotions"`
}

// CrisisPayload is the v1 crisis sub-model record.
type CrisisPayload struct {
	CrisisProbability       float64 `json:"crisis_probability"`
	RiskLevel               string  `json:"risk_level"`
	RequiresImmediateAction bool    `json:"requires_immediate_action"`
}

// MentalHealthPayload is the v1 mental-health sub-model record.
type MentalHealthPayload struct {
	MentalState string             `json:"mental_state"`
	Confidence  float64            `json:"confidence"`
	AllScores   map[string]float64 `json:"all_scores"`
}

// Envelope is the top-level analysis response. Exactly one shape is
// populated: Unified for v2, or the three sub-records for v1.
type Envelope struct {
	Unified      *UnifiedPayload      `json:"unified,omitempty"`
	Emotion      *EmotionPayload      `json:"emotion,omitempty"`
	Crisis       *CrisisPayload       `json:"crisis,omitempty"`
	MentalHealth *MentalHealthPayload `json:"mental_health,omitempty"`

	ProcessingTimeMs float64 `json:"processing_time_ms,omitempty"`
	LanguageDetected string  `json:"language_detected,omitempty"`
	ModelVersion     string  `json:"model_version,omitempty"`
}

// Provenance markers recorded on the normalized record.
const (
	provenanceLegacy = "legacy"

	defaultLegacyVersion  = "1.0"
	defaultUnifiedVersion = "2.0.0"
)

// Normalize decodes a raw response body and maps it into the canonical
// record. Out-of-range numeric values are clamped, never rejected; the only
// failure modes are an undecodable body and an envelope missing both shapes.
func Normalize(raw []byte) (*domain.Analysis, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, domain.ErrSchema("")
	}
	return NormalizeEnvelope(&env)
}

// NormalizeEnvelope maps a decoded envelope into the canonical record.
func NormalizeEnvelope(env *Envelope) (*domain.Analysis, error) {
	switch {
	case env.Unified != nil:
		return fromUnified(env), nil
	case env.Emotion != nil || env.Crisis != nil || env.MentalHealth != nil:
		return fromLegacy(env), nil
	default:
		return nil, domain.ErrSchema("")
	}
}

// fromUnified passes the v2 record through, filling processing time and
// model version from the envelope when the nested record omits them.
func fromUnified(env *Envelope) *domain.Analysis {
	u := env.Unified

	risk := parseRisk(u.CrisisRisk, u.CrisisProbability)
	prob := domain.ClampUnit(u.CrisisProbability)

	severity := domain.DerivedSeverity(prob)
	if u.SeverityRating != nil {
		severity = domain.ClampSeverity(*u.SeverityRating)
	}

	processing := env.ProcessingTimeMs
	if u.ProcessingTimeMs != nil {
		processing = *u.ProcessingTimeMs
	}
	if processing < 0 {
		processing = 0
	}

	version := u.ModelVersion
	if version == "" {
		version = env.ModelVersion
	}
	if version == "" {
		version = defaultUnifiedVersion
	}

	return &domain.Analysis{
		MentalState:             u.MentalState,
		RawLabel:                u.RawLabel,
		Emotion:                 u.Emotion,
		CrisisRisk:              risk,
		CrisisProbability:       prob,
		RequiresImmediateAction: u.RequiresImmediateAction || risk.Escalates(),
		SeverityRating:          severity,
		Tags:                    dedupeTags(u.Tags),
		Confidence:              domain.ClampUnit(u.Confidence),
		AllScores:               copyScores(u.AllScores),
		SemanticSummary:         u.SemanticSummary,
		TriggeredBy:             u.TriggeredBy,
		ProcessingTimeMs:        processing,
		ModelVersion:            version,
	}
}

// fromLegacy rebuilds the canonical record from the three v1 sub-records,
// applying the documented defaults for any that are absent.
func fromLegacy(env *Envelope) *domain.Analysis {
	mentalState := "Stable"
	rawLabel := "normal"
	if env.MentalHealth != nil && env.MentalHealth.MentalState != "" {
		mentalState = env.MentalHealth.MentalState
		rawLabel = strings.ToLower(env.MentalHealth.MentalState)
	}

	emotion := "neutral"
	confidence := 0.0
	scores := map[string]float64{}
	if env.Emotion != nil {
		if env.Emotion.Emotion != "" {
			emotion = env.Emotion.Emotion
		}
		confidence = domain.ClampUnit(env.Emotion.Confidence)
		scores = copyScores(env.Emotion.AllEmotions)
	}

	prob := 0.0
	risk := domain.RiskLow
	immediate := false
	if env.Crisis != nil {
		prob = domain.ClampUnit(env.Crisis.CrisisProbability)
		risk = parseRisk(env.Crisis.RiskLevel, prob)
		immediate = env.Crisis.RequiresImmediateAction
	}

	processing := env.ProcessingTimeMs
	if processing < 0 {
		processing = 0
	}

	version := env.ModelVersion
	if version == "" {
		version = defaultLegacyVersion
	}

	return &domain.Analysis{
		MentalState:             mentalState,
		RawLabel:                rawLabel,
		Emotion:                 emotion,
		CrisisRisk:              risk,
		CrisisProbability:       prob,
		RequiresImmediateAction: immediate || risk.Escalates(),
		SeverityRating:          domain.DerivedSeverity(prob),
		Tags:                    []string{},
		Confidence:              confidence,
		AllScores:               scores,
		SemanticSummary:         "",
		TriggeredBy:             provenanceLegacy,
		ProcessingTimeMs:        processing,
		ModelVersion:            version,
	}
}

// parseRisk maps a wire risk label onto the enum, thresholding the
// probability when the label is missing or unrecognized.
func parseRisk(label string, probability float64) domain.RiskLevel {
	if risk, ok := domain.ParseRiskLevel(strings.ToUpper(strings.TrimSpace(label))); ok {
		return risk
	}
	if label == "" && probability == 0 {
		return domain.RiskLow
	}
	return domain.RiskFromProbability(probability)
}

// dedupeTags drops duplicate tags while keeping first-seen order.
func dedupeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func copyScores(scores map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(scores))
	for k, v := range scores {
		out[k] = v
	}
	return out
}
