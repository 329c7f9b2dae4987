// Package analytics builds rolling per-session statistics from the
// normalized summary emitted after each successful turn.
package analytics

import (
	"fmt"
	"strings"
	"sync"

	"github.com/serenemind/sessiond/internal/domain"
)

// TrendPoint is one entry in the chronological trend series.
type TrendPoint struct {
	Label             string  `json:"label"`
	CrisisProbability float64 `json:"crisis_probability"`
	Confidence        float64 `json:"confidence"`
}

// Report is the aggregate view over every recorded entry.
type Report struct {
	TotalEntries         int            `json:"total_entries"`
	AvgCrisisProbability float64        `json:"avg_crisis_probability"`
	AvgConfidence        float64        `json:"avg_confidence"`
	TopEmotion           string         `json:"top_emotion"`
	EmotionFrequency     map[string]int `json:"emotion_frequency"`
	MentalStateFrequency map[string]int `json:"mental_state_frequency"`
	Trend                []TrendPoint   `json:"trend"`
	TagFrequency         map[string]int `json:"tag_frequency"`
	MaxSeverity          int            `json:"max_severity"`
}

// Aggregator accumulates per-turn summaries for one session.
type Aggregator struct {
	mu      sync.Mutex
	entries []domain.Summary
}

// New creates an empty aggregator.
func New() *Aggregator {
	return &Aggregator{}
}

// Record appends one successful turn's summary.
func (a *Aggregator) Record(s domain.Summary) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, s)
}

// Report computes the rolling statistics over everything recorded so far.
func (a *Aggregator) Report() Report {
	a.mu.Lock()
	defer a.mu.Unlock()

	report := Report{
		EmotionFrequency:     make(map[string]int),
		MentalStateFrequency: make(map[string]int),
		TagFrequency:         make(map[string]int),
		Trend:                make([]TrendPoint, 0, len(a.entries)),
	}

	if len(a.entries) == 0 {
		return report
	}

	var crisisSum, confidenceSum float64
	for i, e := range a.entries {
		crisisSum += e.CrisisProbability
		confidenceSum += e.Confidence
		report.EmotionFrequency[e.Emotion]++
		report.MentalStateFrequency[strings.ToLower(e.MentalState)]++
		for _, tag := range e.Tags {
			report.TagFrequency[tag]++
		}
		if e.SeverityRating > report.MaxSeverity {
			report.MaxSeverity = e.SeverityRating
		}
		report.Trend = append(report.Trend, TrendPoint{
			Label:             fmt.Sprintf("entry %d", i+1),
			CrisisProbability: e.CrisisProbability,
			Confidence:        e.Confidence,
		})
	}

	n := float64(len(a.entries))
	report.TotalEntries = len(a.entries)
	report.AvgCrisisProbability = crisisSum / n
	report.AvgConfidence = confidenceSum / n

	top, topCount := "", 0
	for emotion, count := range report.EmotionFrequency {
		if count > topCount || (count == topCount && emotion < top) {
			top, topCount = emotion, count
		}
	}
	report.TopEmotion = top

	return report
}
