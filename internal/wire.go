package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jonboulle/clockwork"

	"github.com/starford/perchsync/internal/keyboard"
	"github.com/starford/perchsync/internal/kvstore"
	"github.com/starford/perchsync/internal/perch"
	"github.com/starford/perchsync/internal/premium"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if app.clock == nil {
		app.clock = clockwork.NewRealClock()
	}
	return app, nil
}

// newLogger builds the structured JSON logger. The MCP subcommand logs to
// stderr because stdout carries the protocol.
func newLogger(cfg *Config, stderr bool) *slog.Logger {
	out := os.Stdout
	if stderr {
		out = os.Stderr
	}
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
}

// openStore opens the configured key-value backend.
func openStore(ctx context.Context, cfg StorageConfig) (kvstore.Store, error) {
	switch cfg.Driver {
	case StorageDriverSQLite:
		return kvstore.OpenSQLite(cfg.SQLite.Path)
	case StorageDriverRedis:
		return kvstore.OpenRedis(ctx, kvstore.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	case StorageDriverMemory:
		return kvstore.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

// components are the pieces shared by the HTTP server and the MCP server.
type components struct {
	store   kvstore.Store
	catalog *keyboard.Catalog
	service *perch.Service
}

func (c *components) Close() error {
	return c.store.Close()
}

func buildComponents(ctx context.Context, app *application, logger *slog.Logger, pub perch.Publisher) (*components, error) {
	cfg := app.config

	loc, err := cfg.Day.Location()
	if err != nil {
		return nil, fmt.Errorf("day timezone: %w", err)
	}
	epoch, err := cfg.Day.EpochTime()
	if err != nil {
		return nil, fmt.Errorf("day epoch: %w", err)
	}

	store := app.store
	if store == nil {
		if store, err = openStore(ctx, cfg.Storage); err != nil {
			return nil, fmt.Errorf("init storage: %w", err)
		}
	}

	catalog := keyboard.NewCatalog(cfg.Keyboards.Path, logger)
	if _, err := catalog.Reload(); err != nil {
		logger.Warn("initial keyboard load failed", slog.String("error", err.Error()))
	}

	opts := []perch.Option{
		perch.WithClock(app.clock),
		perch.WithLocation(loc),
		perch.WithEpoch(epoch),
		perch.WithPremium(premium.New(cfg.Premium.TargetID, cfg.Premium.Message, logger)),
		perch.WithLogger(logger),
	}
	if pub != nil {
		opts = append(opts, perch.WithPublisher(pub))
	}

	return &components{
		store:   store,
		catalog: catalog,
		service: perch.NewService(store, catalog, opts...),
	}, nil
}
