package session

import "github.com/serenemind/sessiond/internal/domain"

// Project computes the UI projection of a normalized analysis. It is pure:
// the same analysis always yields the same state, the input is never
// mutated, and the result shares no memory with it. The crisis tier is
// trusted as assigned by the normalizer — thresholding happens exactly once,
// in whichever producer set CrisisRisk.
func Project(u domain.Analysis) domain.DerivedState {
	return domain.DerivedState{
		CurrentEmotion:  u.Emotion,
		CurrentRisk:     u.CrisisRisk,
		CurrentSeverity: u.SeverityRating,
		CrisisFlag:      u.CrisisRisk.Escalates(),
	}
}
