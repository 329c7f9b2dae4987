package codec

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/serenemind/sessiond/internal/domain"
)

func TestNormalizeUnifiedPassthrough(t *testing.T) {
	severity := 6
	env := &Envelope{
		Unified: &UnifiedPayload{
			MentalState:       "Anxiety",
			RawLabel:          "anxiety",
			Emotion:           "fear",
			CrisisRisk:        "MEDIUM",
			CrisisProbability: 0.41,
			SeverityRating:    &severity,
			Tags:              []string{"work", "sleep", "work"},
			Confidence:        0.88,
			AllScores:         map[string]float64{"anxiety": 0.88, "normal": 0.07},
			SemanticSummary:   "Elevated worry around work deadlines.",
			TriggeredBy:       "model",
			ModelVersion:      "4.0.0",
		},
		ProcessingTimeMs: 12.5,
	}

	got, err := NormalizeEnvelope(env)
	if err != nil {
		t.Fatalf("NormalizeEnvelope: %v", err)
	}

	if got.MentalState != "Anxiety" || got.RawLabel != "anxiety" || got.Emotion != "fear" {
		t.Errorf("labels not passed through: %+v", got)
	}
	if got.CrisisRisk != domain.RiskMedium {
		t.Errorf("risk = %s, want MEDIUM", got.CrisisRisk)
	}
	if got.SeverityRating != 6 {
		t.Errorf("severity = %d, want explicit 6", got.SeverityRating)
	}
	if !reflect.DeepEqual(got.Tags, []string{"work", "sleep"}) {
		t.Errorf("tags = %v, want deduplicated [work sleep]", got.Tags)
	}
	if got.ProcessingTimeMs != 12.5 {
		t.Errorf("processing time = %v, want envelope value 12.5", got.ProcessingTimeMs)
	}
	if got.ModelVersion != "4.0.0" {
		t.Errorf("model version = %q", got.ModelVersion)
	}
	if got.RequiresImmediateAction {
		t.Error("MEDIUM tier must not require immediate action")
	}
}

func TestNormalizeUnifiedRoundTrip(t *testing.T) {
	// A canonical record serialized back into the v2 wire shape must
	// normalize to an identical record.
	want := &domain.Analysis{
		MentalState:             "Depression",
		RawLabel:                "depression",
		Emotion:                 "sadness",
		CrisisRisk:              domain.RiskHigh,
		CrisisProbability:       0.62,
		RequiresImmediateAction: true,
		SeverityRating:          7,
		Tags:                    []string{"isolation"},
		Confidence:              0.81,
		AllScores:               map[string]float64{"depression": 0.81},
		SemanticSummary:         "Persistent low mood.",
		TriggeredBy:             "model",
		ProcessingTimeMs:        9.1,
		ModelVersion:            "4.0.0",
	}

	raw, err := json.Marshal(map[string]any{
		"unified":            want,
		"processing_time_ms": want.ProcessingTimeMs,
		"model_version":      want.ModelVersion,
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round-trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestNormalizeLegacyDefaults(t *testing.T) {
	// An empty legacy record still normalizes, with every documented default.
	got, err := NormalizeEnvelope(&Envelope{Emotion: &EmotionPayload{}})
	if err != nil {
		t.Fatalf("NormalizeEnvelope: %v", err)
	}

	if got.MentalState != "Stable" {
		t.Errorf("mental state = %q, want Stable", got.MentalState)
	}
	if got.RawLabel != "normal" {
		t.Errorf("raw label = %q, want normal", got.RawLabel)
	}
	if got.Emotion != "neutral" {
		t.Errorf("emotion = %q, want neutral", got.Emotion)
	}
	if got.CrisisRisk != domain.RiskLow || got.CrisisProbability != 0 {
		t.Errorf("crisis defaults wrong: %+v", got)
	}
	if got.RequiresImmediateAction {
		t.Error("immediate action must default to false")
	}
	if got.SeverityRating != 0 {
		t.Errorf("severity = %d, want 0", got.SeverityRating)
	}
	if len(got.Tags) != 0 {
		t.Errorf("tags = %v, want empty", got.Tags)
	}
	if got.SemanticSummary != "" {
		t.Errorf("summary = %q, want empty", got.SemanticSummary)
	}
	if got.TriggeredBy != "legacy" {
		t.Errorf("provenance = %q, want legacy", got.TriggeredBy)
	}
	if got.ModelVersion != "1.0" {
		t.Errorf("model version = %q, want 1.0", got.ModelVersion)
	}
}

func TestNormalizeLegacyHopelessScenario(t *testing.T) {
	raw := []byte(`{
		"crisis": {"risk_level": "HIGH", "crisis_probability": 0.82, "requires_immediate_action": true},
		"emotion": {"emotion": "sadness", "confidence": 0.7, "all_emotions": {"sadness": 0.7, "fear": 0.2}},
		"mental_health": {"mental_state": "Depression"}
	}`)

	got, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if got.CrisisRisk != domain.RiskHigh {
		t.Errorf("risk = %s, want HIGH", got.CrisisRisk)
	}
	if got.CrisisProbability != 0.82 {
		t.Errorf("probability = %v, want 0.82", got.CrisisProbability)
	}
	if got.SeverityRating != 8 {
		t.Errorf("severity = %d, want round(0.82*10) = 8", got.SeverityRating)
	}
	if got.Emotion != "sadness" {
		t.Errorf("emotion = %q, want sadness", got.Emotion)
	}
	if got.RawLabel != "depression" {
		t.Errorf("raw label = %q, want depression", got.RawLabel)
	}
	if got.TriggeredBy != "legacy" {
		t.Errorf("provenance = %q, want legacy", got.TriggeredBy)
	}
	if !got.RequiresImmediateAction {
		t.Error("HIGH tier must require immediate action")
	}
}

func TestNormalizeLegacySeverityDerivation(t *testing.T) {
	cases := []struct {
		prob float64
		want int
	}{
		{0, 0},
		{0.04, 0},
		{0.05, 1},
		{0.44, 4},
		{0.45, 5},
		{0.82, 8},
		{1, 10},
		{1.7, 10}, // clamped before derivation
	}

	for _, tc := range cases {
		got, err := NormalizeEnvelope(&Envelope{
			Crisis: &CrisisPayload{CrisisProbability: tc.prob},
		})
		if err != nil {
			t.Fatalf("NormalizeEnvelope(prob=%v): %v", tc.prob, err)
		}
		if got.SeverityRating != tc.want {
			t.Errorf("prob %v: severity = %d, want %d", tc.prob, got.SeverityRating, tc.want)
		}
	}
}

func TestNormalizeClampsOutOfRange(t *testing.T) {
	got, err := NormalizeEnvelope(&Envelope{
		Emotion: &EmotionPayload{Emotion: "joy", Confidence: 1.4},
		Crisis:  &CrisisPayload{CrisisProbability: -0.3, RiskLevel: "LOW"},
	})
	if err != nil {
		t.Fatalf("NormalizeEnvelope: %v", err)
	}
	if got.Confidence != 1 {
		t.Errorf("confidence = %v, want clamped to 1", got.Confidence)
	}
	if got.CrisisProbability != 0 {
		t.Errorf("probability = %v, want clamped to 0", got.CrisisProbability)
	}
}

func TestNormalizeUnknownRiskFallsBackToThresholds(t *testing.T) {
	cases := []struct {
		label string
		prob  float64
		want  domain.RiskLevel
	}{
		{"severe", 0.8, domain.RiskCrisis},
		{"elevated", 0.6, domain.RiskHigh},
		{"", 0.4, domain.RiskMedium},
		{"??", 0.1, domain.RiskLow},
		{"high", 0.1, domain.RiskHigh}, // known label wins, case-insensitively
	}

	for _, tc := range cases {
		got, err := NormalizeEnvelope(&Envelope{
			Crisis: &CrisisPayload{RiskLevel: tc.label, CrisisProbability: tc.prob},
		})
		if err != nil {
			t.Fatalf("NormalizeEnvelope(%q): %v", tc.label, err)
		}
		if got.CrisisRisk != tc.want {
			t.Errorf("label %q prob %v: risk = %s, want %s", tc.label, tc.prob, got.CrisisRisk, tc.want)
		}
	}
}

func TestNormalizeMissingBothShapes(t *testing.T) {
	for _, raw := range []string{`{}`, `{"processing_time_ms": 3.2}`, `not json`} {
		_, err := Normalize([]byte(raw))
		if err == nil {
			t.Fatalf("Normalize(%q): expected error", raw)
		}
		ce := domain.Classify(err)
		if ce.Kind != domain.ErrorKindSchema {
			t.Errorf("Normalize(%q): kind = %s, want schema", raw, ce.Kind)
		}
	}
}

func TestExtractDetailPrecedence(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
		ok   bool
	}{
		{"string detail", `{"detail": "text too long"}`, "text too long", true},
		{"field list", `{"detail": [{"msg": "text required"}, {"msg": "history invalid"}]}`, "text required, history invalid", true},
		{"object message", `{"detail": {"message": "model not loaded"}}`, "model not loaded", true},
		{"object without message", `{"detail": {"code": 7}}`, domain.GenericValidationMessage, true},
		{"no detail", `{"error": "nope"}`, "", false},
		{"not json", `gateway timeout`, "", false},
	}

	for _, tc := range cases {
		got, ok := ExtractDetail([]byte(tc.body))
		if ok != tc.ok || got != tc.want {
			t.Errorf("%s: got (%q, %v), want (%q, %v)", tc.name, got, ok, tc.want, tc.ok)
		}
	}
}

func TestParseErrorResponseClassification(t *testing.T) {
	ve := ParseErrorResponse(422, []byte(`{"detail": "text must not be empty"}`))
	if ve.Kind != domain.ErrorKindValidation || ve.Message != "text must not be empty" {
		t.Errorf("structured body: got %+v", ve)
	}
	if ve.StatusCode != 422 {
		t.Errorf("status = %d, want 422", ve.StatusCode)
	}

	te := ParseErrorResponse(502, []byte(`Bad Gateway`))
	if te.Kind != domain.ErrorKindTransport {
		t.Errorf("unstructured body: kind = %s, want transport", te.Kind)
	}
	if te.Message != domain.GenericTransportMessage {
		t.Errorf("unstructured body: message = %q", te.Message)
	}
}
