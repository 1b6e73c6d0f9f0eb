// Package daygate decides once per local calendar day whether the game's
// keyboard and puzzle state has to be rebuilt, and runs the rebuild through
// an ordered chain of optional strategies.
package daygate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/starford/perchsync/internal/apperr"
)

// LastSeenKey is the storage slot holding the day key of the last rotation.
const LastSeenKey = "perch__dayKey_v1"

// CacheKeys are storage slots that freeze keyboard and puzzle state across
// days. They are cleared before every rebuild.
var CacheKeys = []string{
	"perch_keyboard",
	"perchKeyboard",
	"keyboardLayout",
	"keyboard_layout",
	"perch_state",
	"perchState",
	"puzzleState",
}

// Storage is the persisted key/value state the gate reads and writes.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Trigger names the host signal that asked for an evaluation.
type Trigger string

// Host triggers.
const (
	TriggerReady   Trigger = "ready"
	TriggerVisible Trigger = "visible"
)

// ParseTrigger validates a trigger name.
func ParseTrigger(s string) (Trigger, error) {
	switch t := Trigger(s); t {
	case TriggerReady, TriggerVisible:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", apperr.ErrInvalidTrigger, s)
}

// Result describes one evaluation.
type Result struct {
	DayKey    string `json:"day_key"`
	Previous  string `json:"previous,omitempty"`
	Evaluated bool   `json:"evaluated"`
	Rotated   bool   `json:"rotated"`
	Strategy  string `json:"strategy,omitempty"`
	DayIndex  int    `json:"day_index"`
}

// Gate runs the rebuild at most once per local calendar day.
type Gate struct {
	storage    Storage
	clock      clockwork.Clock
	loc        *time.Location
	epoch      time.Time
	strategies []Strategy
	providers  []IndexProvider
	reloader   Reloader
	cacheKeys  []string
	logger     *slog.Logger

	mu sync.Mutex
}

// Option configures a Gate.
type Option func(*Gate)

// WithClock sets the time source.
func WithClock(c clockwork.Clock) Option {
	return func(g *Gate) { g.clock = c }
}

// WithLocation sets the timezone day keys are computed in.
func WithLocation(loc *time.Location) Option {
	return func(g *Gate) { g.loc = loc }
}

// WithEpoch sets the day the fallback index counts from.
func WithEpoch(epoch time.Time) Option {
	return func(g *Gate) { g.epoch = epoch }
}

// WithStrategies sets the ordered rebuild strategies.
func WithStrategies(s ...Strategy) Option {
	return func(g *Gate) { g.strategies = s }
}

// WithIndexProviders sets the ordered daily index overrides.
func WithIndexProviders(p ...IndexProvider) Option {
	return func(g *Gate) { g.providers = p }
}

// WithReloader sets the terminal rebuild path.
func WithReloader(r Reloader) Option {
	return func(g *Gate) { g.reloader = r }
}

// WithCacheKeys replaces the keys cleared before a rebuild.
func WithCacheKeys(keys ...string) Option {
	return func(g *Gate) { g.cacheKeys = keys }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gate) { g.logger = l }
}

// New creates a Gate over storage.
func New(storage Storage, opts ...Option) *Gate {
	g := &Gate{
		storage:   storage,
		clock:     clockwork.NewRealClock(),
		loc:       time.Local,
		epoch:     DefaultEpoch,
		cacheKeys: CacheKeys,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.reloader == nil {
		g.reloader = logReload(g.logger)
	}
	return g
}

// Today returns the current day key.
func (g *Gate) Today() string {
	return DayKey(g.clock.Now(), g.loc)
}

// Signal applies the activation policy for a host trigger: ready always
// evaluates, visible evaluates only when the page is not hidden.
func (g *Gate) Signal(ctx context.Context, trigger Trigger, hidden bool) (Result, error) {
	if trigger == TriggerVisible && hidden {
		return Result{DayKey: g.Today()}, nil
	}
	return g.Evaluate(ctx)
}

// Evaluate compares today's key with the persisted one. On the first call of
// a later day it stores today's key and rebuilds; otherwise it does nothing.
func (g *Gate) Evaluate(ctx context.Context) (Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	today := g.Today()
	last, ok, err := g.storage.Get(ctx, LastSeenKey)
	if err != nil {
		return Result{}, fmt.Errorf("daygate: read last-seen day: %w", err)
	}

	res := Result{DayKey: today, Previous: last, Evaluated: true}
	// Day keys sort lexically. An earlier day (a caller in a zone behind the
	// stored one) never moves the key back.
	if ok && today <= last {
		return res, nil
	}

	if err := g.storage.Set(ctx, LastSeenKey, today); err != nil {
		return res, fmt.Errorf("daygate: store day key: %w", err)
	}

	res.Rotated = true
	res.Strategy, res.DayIndex = g.Rebuild(ctx)

	g.logger.Info("daygate: new day",
		slog.String("day_key", today),
		slog.String("previous", last),
		slog.String("strategy", res.Strategy),
		slog.Int("day_index", res.DayIndex))

	return res, nil
}

// Rebuild clears the freeze-point cache keys and runs the first available
// strategy, falling back to the reloader. It returns the name of the path
// that ran and the day index it was given.
//
// A strategy that fails is logged and the next one is tried, so the chain
// always ends in some rebuild.
func (g *Gate) Rebuild(ctx context.Context) (string, int) {
	g.clearCache(ctx)
	idx := g.DailyIndex(ctx)

	for _, s := range g.strategies {
		if !s.Available() {
			continue
		}
		if err := s.Rebuild(ctx, idx); err != nil {
			g.logger.Warn("daygate: strategy failed",
				slog.String("strategy", s.Name()),
				slog.String("error", err.Error()))
			continue
		}
		return s.Name(), idx
	}

	if err := g.reloader.Reload(ctx); err != nil {
		g.logger.Error("daygate: reload failed", slog.String("error", err.Error()))
	}
	return StrategyReload, idx
}

// DailyIndex returns the first provider override, or the number of days
// since the epoch in the gate's location.
func (g *Gate) DailyIndex(ctx context.Context) int {
	for _, p := range g.providers {
		if p == nil {
			continue
		}
		if idx, ok := p.DailyIndex(ctx); ok {
			return idx
		}
	}
	return DaysSince(g.epoch, g.clock.Now(), g.loc)
}

func (g *Gate) clearCache(ctx context.Context) {
	for _, k := range g.cacheKeys {
		if err := g.storage.Remove(ctx, k); err != nil {
			g.logger.Debug("daygate: clear cache key failed",
				slog.String("key", k),
				slog.String("error", err.Error()))
		}
	}
}
