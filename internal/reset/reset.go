// Package reset clears a client's persisted game state on demand.
package reset

import (
	"context"
	"log/slog"

	"github.com/starford/perchsync/internal/daygate"
	"github.com/starford/perchsync/internal/metrics"
)

// Keys are the local storage slots a hard reset removes. The day gate's
// last-seen key is deliberately absent.
var Keys = []string{
	"perch_today_date",
	"perch_today",
	"perch_daily",
	"perch_daily_pair",
	"perch_daily_seed",
	"perch_state",
	"perch_progress",
	"perch_stats_cache",
}

// Storage is the local slot set the reset removes keys from.
type Storage interface {
	Remove(ctx context.Context, key string) error
}

// Clearer empties the session slot set.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Report lists what a hard reset did.
type Report struct {
	Removed        []string `json:"removed"`
	Failed         []string `json:"failed,omitempty"`
	SessionCleared bool     `json:"session_cleared"`
}

// Resetter performs hard resets for one client.
type Resetter struct {
	local    Storage
	session  Clearer
	reloader daygate.Reloader
	logger   *slog.Logger
}

// New creates a Resetter. session and reloader may be nil.
func New(local Storage, session Clearer, reloader daygate.Reloader, logger *slog.Logger) *Resetter {
	return &Resetter{local: local, session: session, reloader: reloader, logger: logger}
}

// HardReset removes Keys, clears the session slots and reloads. Every
// storage failure is logged and skipped so the reload is always reached.
func (r *Resetter) HardReset(ctx context.Context) Report {
	rep := Report{Removed: make([]string, 0, len(Keys))}

	for _, k := range Keys {
		if err := r.local.Remove(ctx, k); err != nil {
			r.logger.Warn("reset: remove failed", slog.String("key", k), slog.String("error", err.Error()))
			rep.Failed = append(rep.Failed, k)
			continue
		}
		rep.Removed = append(rep.Removed, k)
	}

	if r.session != nil {
		if err := r.session.Clear(ctx); err != nil {
			r.logger.Warn("reset: clear session failed", slog.String("error", err.Error()))
		} else {
			rep.SessionCleared = true
		}
	}

	metrics.HardResetsTotal.Inc()

	if r.reloader != nil {
		if err := r.reloader.Reload(ctx); err != nil {
			r.logger.Error("reset: reload failed", slog.String("error", err.Error()))
		}
	}
	return rep
}
