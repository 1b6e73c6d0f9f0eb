package internal

import (
	"github.com/jonboulle/clockwork"

	"github.com/starford/perchsync/internal/kvstore"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	store  kvstore.Store
	clock  clockwork.Clock
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithStore overrides the configured storage backend.
func WithStore(s kvstore.Store) Option {
	return func(a *application) {
		a.store = s
	}
}

// WithClock sets the clock used for day keys.
func WithClock(c clockwork.Clock) Option {
	return func(a *application) {
		a.clock = c
	}
}
