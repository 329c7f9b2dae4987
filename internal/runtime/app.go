// Package runtime assembles the session service from its parts: config,
// upstream clients, transcript storage, the session registry, and the HTTP
// server lifecycle. App can be embedded in larger programs or run standalone.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/serenemind/sessiond/internal/api/analysis"
	"github.com/serenemind/sessiond/internal/api/avatar"
	"github.com/serenemind/sessiond/internal/config"
	"github.com/serenemind/sessiond/internal/server"
	"github.com/serenemind/sessiond/internal/session"
	"github.com/serenemind/sessiond/internal/storage"
	"github.com/serenemind/sessiond/internal/storage/memory"
	"github.com/serenemind/sessiond/internal/storage/sqlite"
	"github.com/serenemind/sessiond/internal/tokens"
)

// App is the assembled session service.
type App struct {
	// Dependencies (injected via options)
	cfg        *config.Config
	configPath string
	logger     *slog.Logger
	store      storage.TranscriptStore
	analysis   session.AnalysisClient
	avatar     session.AvatarClient
	estimator  *tokens.Estimator
	onCrisis   func(sessionID string)

	// Internal state
	registry *session.Registry
	srv      *server.Server

	mu      sync.Mutex
	started bool
}

// New creates an App with the given options. Anything not injected is built
// from configuration on Start.
func New(opts ...Option) (*App, error) {
	a := &App{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	if a.cfg == nil {
		cfg, err := config.Load(a.configPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		a.cfg = cfg
	}

	return a, nil
}

// Start builds the remaining dependencies and starts the HTTP server in the
// background. It returns once the service is wired.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.started {
		return fmt.Errorf("app already started")
	}

	if err := a.initStore(); err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	a.initClients()

	if a.estimator == nil {
		a.estimator = tokens.NewEstimator()
	}

	a.registry = session.NewRegistry(session.Deps{
		Analysis:  a.analysis,
		Avatar:    a.avatar,
		Estimator: a.estimator,
		Store:     a.store,
		Logger:    a.logger,
		OnCrisis:  a.onCrisis,
	})

	a.srv = server.New(a.cfg.Server.Port, a.logger)
	server.NewHandlers(a.registry, a.logger).Mount(a.srv.Router)

	go func() {
		if err := a.srv.Start(); err != nil {
			a.logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	a.started = true
	a.logger.Info("sessiond started",
		slog.Int("port", a.cfg.Server.Port),
		slog.String("analysis_url", a.cfg.Analysis.BaseURL),
		slog.String("avatar_url", a.cfg.Avatar.BaseURL),
		slog.String("storage", a.cfg.Storage.Driver),
	)
	return nil
}

// Shutdown drains the HTTP server and closes storage.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.logger.Info("shutting down sessiond")

	if a.srv != nil {
		if err := a.srv.Shutdown(ctx); err != nil {
			a.logger.Error("failed to shutdown server", slog.String("error", err.Error()))
			return err
		}
	}

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Error("failed to close storage", slog.String("error", err.Error()))
		}
	}

	a.started = false
	a.logger.Info("sessiond shutdown complete")
	return nil
}

// Registry exposes the live session registry for embedding callers.
func (a *App) Registry() *session.Registry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.registry
}

// initStore resolves the transcript store from config when none was
// injected. Driver "none" disables transcript retention.
func (a *App) initStore() error {
	if a.store != nil {
		return nil
	}

	switch a.cfg.Storage.Driver {
	case "", "memory":
		a.store = memory.New()
	case "sqlite":
		path := a.cfg.Storage.Path
		if path == "" {
			path = "sessiond.db"
		}
		store, err := sqlite.New(path)
		if err != nil {
			return err
		}
		a.store = store
	case "none":
		a.store = nil
	default:
		return fmt.Errorf("unknown storage driver %q", a.cfg.Storage.Driver)
	}
	return nil
}

// initClients builds the upstream clients from config when none were
// injected. Outbound calls are traced through otelhttp.
func (a *App) initClients() {
	if a.analysis == nil {
		a.analysis = analysis.NewClient(
			analysis.WithBaseURL(a.cfg.Analysis.BaseURL),
			analysis.WithHTTPClient(&http.Client{
				Transport: otelhttp.NewTransport(http.DefaultTransport),
				Timeout:   a.cfg.Analysis.TimeoutOrDefault(defaultUpstreamTimeout),
			}),
		)
	}
	if a.avatar == nil {
		a.avatar = avatar.NewClient(
			avatar.WithBaseURL(a.cfg.Avatar.BaseURL),
			avatar.WithHTTPClient(&http.Client{
				Transport: otelhttp.NewTransport(http.DefaultTransport),
				Timeout:   a.cfg.Avatar.TimeoutOrDefault(defaultUpstreamTimeout),
			}),
		)
	}
}
