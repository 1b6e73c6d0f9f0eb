package daygate

import (
	"context"
	"log/slog"
)

// Strategy names reported in Result.Strategy.
const (
	StrategyKeyboardSets  = "keyboard_sets"
	StrategyBuildKeyboard = "build_keyboard"
	StrategyInitGame      = "init_game"
	StrategyStartGame     = "start_game"
	StrategyReload        = "reload"
)

// Strategy is one optional rebuild path. The gate probes strategies in order
// and runs the first one that reports itself available.
type Strategy interface {
	Name() string
	Available() bool
	Rebuild(ctx context.Context, dayIndex int) error
}

// Reloader is the terminal rebuild path, used when no strategy is available.
type Reloader interface {
	Reload(ctx context.Context) error
}

// ReloaderFunc adapts a function to Reloader.
type ReloaderFunc func(ctx context.Context) error

// Reload calls f.
func (f ReloaderFunc) Reload(ctx context.Context) error { return f(ctx) }

// KeyboardSetStrategy selects one element of an ordered collection of keyboard
// sets by day index and hands it to Apply.
type KeyboardSetStrategy[S any] struct {
	Sets  []S
	Apply func(ctx context.Context, set S) error
}

// Name implements Strategy.
func (k KeyboardSetStrategy[S]) Name() string { return StrategyKeyboardSets }

// Available reports whether both a non-empty collection and Apply exist.
func (k KeyboardSetStrategy[S]) Available() bool {
	return len(k.Sets) > 0 && k.Apply != nil
}

// Rebuild applies Sets[dayIndex mod len(Sets)].
func (k KeyboardSetStrategy[S]) Rebuild(ctx context.Context, dayIndex int) error {
	return k.Apply(ctx, k.Sets[pick(dayIndex, len(k.Sets))])
}

// Capability wraps a single optional rebuild function.
type Capability struct {
	Label string
	Fn    func(ctx context.Context) error
}

// Name implements Strategy.
func (c Capability) Name() string { return c.Label }

// Available reports whether Fn is set.
func (c Capability) Available() bool { return c.Fn != nil }

// Rebuild calls Fn; the day index is not used.
func (c Capability) Rebuild(ctx context.Context, _ int) error { return c.Fn(ctx) }

// Chain returns the rebuild strategies in their fixed priority order:
// keyboard sets, buildKeyboard, initGame, startGame. Any argument may be nil.
func Chain(sets Strategy, buildKeyboard, initGame, startGame func(context.Context) error) []Strategy {
	out := make([]Strategy, 0, 4)
	if sets != nil {
		out = append(out, sets)
	}
	return append(out,
		Capability{Label: StrategyBuildKeyboard, Fn: buildKeyboard},
		Capability{Label: StrategyInitGame, Fn: initGame},
		Capability{Label: StrategyStartGame, Fn: startGame},
	)
}

// IndexProvider optionally overrides the computed daily index.
type IndexProvider interface {
	DailyIndex(ctx context.Context) (int, bool)
}

// IndexFunc adapts a function to IndexProvider.
type IndexFunc func(ctx context.Context) (int, bool)

// DailyIndex calls f.
func (f IndexFunc) DailyIndex(ctx context.Context) (int, bool) { return f(ctx) }

// FixedIndex returns a provider that answers v when v is non-nil.
func FixedIndex(v *int) IndexProvider {
	return IndexFunc(func(context.Context) (int, bool) {
		if v == nil {
			return 0, false
		}
		return *v, true
	})
}

func logReload(logger *slog.Logger) Reloader {
	return ReloaderFunc(func(context.Context) error {
		logger.Info("daygate: reload requested")
		return nil
	})
}
