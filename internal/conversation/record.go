package conversation

import (
	"context"
	"log/slog"
	"time"

	"github.com/serenemind/sessiond/internal/domain"
	"github.com/serenemind/sessiond/internal/storage"
)

const persistTimeout = 5 * time.Second

// Record writes turns through to the transcript store. It best-effort logs
// on failure without failing the submission path, and runs against a fresh
// context so a cancelled request never drops a transcript.
func Record(ctx context.Context, store storage.TranscriptStore, sessionID string, turns ...domain.Turn) {
	if store == nil || sessionID == "" {
		return
	}

	logger := slog.Default()
	persistCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	for _, turn := range turns {
		if turn.Content == "" {
			continue
		}
		rec := &storage.TurnRecord{
			ID:      turn.ID,
			Role:    string(turn.Role),
			Content: turn.Content,
		}
		if turn.Analysis != nil {
			rec.RiskLevel = string(turn.Analysis.CrisisRisk)
			rec.SeverityRating = turn.Analysis.SeverityRating
		}
		if err := store.AppendTurn(persistCtx, sessionID, rec); err != nil {
			logger.Error("failed to store turn",
				slog.String("session_id", sessionID),
				slog.String("role", string(turn.Role)),
				slog.String("error", err.Error()),
			)
		}
	}
}
