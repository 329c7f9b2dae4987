package runtime

import (
	"log/slog"
	"time"

	"github.com/serenemind/sessiond/internal/config"
	"github.com/serenemind/sessiond/internal/session"
	"github.com/serenemind/sessiond/internal/storage"
	"github.com/serenemind/sessiond/internal/storage/memory"
	"github.com/serenemind/sessiond/internal/storage/sqlite"
	"github.com/serenemind/sessiond/internal/tokens"
)

const defaultUpstreamTimeout = 30 * time.Second

// Option is a functional option for configuring an App.
type Option func(*App) error

// WithConfigFile loads configuration from the given YAML file. Environment
// variables still overlay it.
func WithConfigFile(path string) Option {
	return func(a *App) error {
		a.configPath = path
		return nil
	}
}

// WithConfig uses an already-built configuration, skipping Load.
func WithConfig(cfg *config.Config) Option {
	return func(a *App) error {
		a.cfg = cfg
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithSQLite persists transcripts to a SQLite database at path.
func WithSQLite(path string) Option {
	return func(a *App) error {
		store, err := sqlite.New(path)
		if err != nil {
			return err
		}
		a.store = store
		return nil
	}
}

// WithMemoryStore keeps transcripts in memory (default).
func WithMemoryStore() Option {
	return func(a *App) error {
		a.store = memory.New()
		return nil
	}
}

// WithTranscriptStore sets a custom transcript store.
func WithTranscriptStore(store storage.TranscriptStore) Option {
	return func(a *App) error {
		a.store = store
		return nil
	}
}

// WithAnalysisClient sets a custom analysis client.
func WithAnalysisClient(c session.AnalysisClient) Option {
	return func(a *App) error {
		a.analysis = c
		return nil
	}
}

// WithAvatarClient sets a custom response-generation client.
func WithAvatarClient(c session.AvatarClient) Option {
	return func(a *App) error {
		a.avatar = c
		return nil
	}
}

// WithTokenEstimator sets a custom context token estimator.
func WithTokenEstimator(e *tokens.Estimator) Option {
	return func(a *App) error {
		a.estimator = e
		return nil
	}
}

// WithCrisisCallback is invoked each time a session's crisis flag latches.
func WithCrisisCallback(fn func(sessionID string)) Option {
	return func(a *App) error {
		a.onCrisis = fn
		return nil
	}
}
