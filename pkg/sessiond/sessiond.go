// Package sessiond provides the public API for embedding the session
// service. This is the stable API for external consumers.
package sessiond

import (
	"github.com/serenemind/sessiond/internal/runtime"
)

// App is the main entry point for running the session service.
// See internal/runtime.App for full documentation.
type App = runtime.App

// Option is a functional option for configuring an App.
type Option = runtime.Option

// New creates a new App with the given options.
// Example:
//
//	app, err := sessiond.New(
//	    sessiond.WithConfigFile("config.yaml"),
//	    sessiond.WithSQLite("./data/sessiond.db"),
//	)
var New = runtime.New

// Configuration options
var (
	// Config sources
	WithConfigFile = runtime.WithConfigFile
	WithConfig     = runtime.WithConfig

	// Storage
	WithSQLite          = runtime.WithSQLite
	WithMemoryStore     = runtime.WithMemoryStore
	WithTranscriptStore = runtime.WithTranscriptStore

	// Upstream clients
	WithAnalysisClient = runtime.WithAnalysisClient
	WithAvatarClient   = runtime.WithAvatarClient

	// Advanced options
	WithLogger         = runtime.WithLogger
	WithTokenEstimator = runtime.WithTokenEstimator
	WithCrisisCallback = runtime.WithCrisisCallback
)
