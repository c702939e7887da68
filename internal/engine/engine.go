// Package engine orchestrates the write paths of neurodash: it combines the record store,
// the analysis service, the settings cache and the signal generator.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/neurodash/neurodash/internal/analysis"
	"github.com/neurodash/neurodash/internal/cache"
	"github.com/neurodash/neurodash/internal/config"
	"github.com/neurodash/neurodash/internal/database"
	"github.com/neurodash/neurodash/internal/generator"
	"github.com/neurodash/neurodash/internal/scheduler"
)

// ErrInvalidInput indicates a request the engine refuses before touching the store.
var ErrInvalidInput = errors.New("invalid input")

// Engine is the main engine for neurodash.
type Engine struct {
	cfg       *config.Config
	db        database.DB
	analysis  analysis.Interpreter
	settings  *cache.SettingsCache
	generator *generator.Generator
	scheduler *scheduler.Scheduler

	// per user *sync.Mutex, see lockSettings
	settingsLocks sync.Map
}

// Option configures an Engine.
type Option func(*Engine)

// WithGenerator replaces the signal generator built from the configuration.
func WithGenerator(g *generator.Generator) Option {
	return func(e *Engine) {
		e.generator = g
	}
}

// New creates a new Engine. The generator jobs are registered but only run after Run is called.
func New(cfg *config.Config, db database.DB, interpreter analysis.Interpreter, settingsCache *cache.SettingsCache, opts ...Option) (*Engine, error) {
	sched, err := scheduler.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	engine := &Engine{
		cfg:       cfg,
		db:        db,
		analysis:  interpreter,
		settings:  settingsCache,
		scheduler: sched,
	}
	for _, opt := range opts {
		opt(engine)
	}
	if engine.generator == nil {
		engine.generator = generator.New(generator.WithBufferSize(cfg.Generator.BufferSize))
	}

	if err := engine.setupJobs(); err != nil {
		return nil, fmt.Errorf("failed to setup jobs: %w", err)
	}

	return engine, nil
}

// Stats returns the record counts of a user.
func (e *Engine) Stats(ctx context.Context, userID uint) (*database.RecordCounts, error) {
	return e.db.CountRecords(ctx, userID)
}

// Login returns the user with the given name, creating it on first use.
func (e *Engine) Login(ctx context.Context, username string) (*database.User, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	user, err := e.db.GetOrCreateUser(ctx, username)
	if err != nil {
		return nil, err
	}
	log.Debug("user logged in", "user_id", user.ID, "username", user.Username)
	return user, nil
}
