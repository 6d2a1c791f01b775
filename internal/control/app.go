// Package control wires the booking pipeline together from
// configuration and owns the lifecycle of its infrastructure.
package control

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vietddude/slotbot/internal/booking/auth"
	"github.com/vietddude/slotbot/internal/booking/engine"
	"github.com/vietddude/slotbot/internal/booking/health"
	"github.com/vietddude/slotbot/internal/booking/search"
	"github.com/vietddude/slotbot/internal/core/config"
	"github.com/vietddude/slotbot/internal/infra/cowin"
	"github.com/vietddude/slotbot/internal/infra/prefs"
	redisclient "github.com/vietddude/slotbot/internal/infra/redis"
	"github.com/vietddude/slotbot/internal/infra/storage"
	"github.com/vietddude/slotbot/internal/infra/storage/postgres"
)

// App holds the assembled pipeline and its infrastructure handles.
type App struct {
	cfg     *config.AppConfig
	log     *slog.Logger
	client  *cowin.Client
	auth    *auth.Manager
	engine  *engine.Engine
	store   prefs.Store
	history storage.HistoryRepository
	db      *postgres.DB
	redis   *redisclient.Client
	health  *health.Server
}

// New assembles the application. prompter supplies the out-of-band OTP
// codes during login and refresh.
func New(cfg *config.AppConfig, prompter auth.CodePrompter, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}

	app := &App{cfg: cfg, log: log}
	app.client = cowin.NewClient(cfg.API)
	app.auth = auth.NewManager(app.client, prompter, log)

	// Preference store backend
	switch cfg.Preferences.Backend {
	case "", "file":
		app.store = prefs.NewFileStore(cfg.Preferences.Dir)
		log.Info("Using file preference store", "dir", cfg.Preferences.Dir)
	case "redis":
		rc, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		app.redis = rc
		app.store = prefs.NewRedisStore(rc)
		log.Info("Using redis preference store")
	default:
		return nil, fmt.Errorf("unknown preference backend %q", cfg.Preferences.Backend)
	}

	// Optional booking-history audit store
	app.history = storage.NopHistory{}
	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := postgres.Migrate(db, "migrations"); err != nil {
			_ = db.Close()
			return nil, err
		}
		app.db = db
		app.history = postgres.NewHistoryRepo(db)
		log.Info("Booking history enabled")
	}

	app.engine = engine.New(cfg.Booking, app.auth, search.NewEngine(app.client, log), app.client, app.history, log)

	if cfg.Server.Port > 0 {
		app.health = health.NewServer(cfg.Server.Port)
	}

	return app, nil
}

// Start launches the optional health/metrics server.
func (a *App) Start(ctx context.Context) {
	if a.health == nil {
		return
	}
	go func() {
		a.log.Info("Health server listening", "port", a.cfg.Server.Port)
		if err := a.health.Start(); err != nil {
			a.log.Error("Health server failed", "error", err)
		}
	}()
}

// Stop releases infrastructure handles.
func (a *App) Stop(ctx context.Context) error {
	var firstErr error
	if a.health != nil {
		if err := a.health.Stop(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Engine exposes the booking engine surface.
func (a *App) Engine() *engine.Engine { return a.engine }

// Prefs exposes the preference store.
func (a *App) Prefs() prefs.Store { return a.store }

// History exposes the booking audit store.
func (a *App) History() storage.HistoryRepository { return a.history }
