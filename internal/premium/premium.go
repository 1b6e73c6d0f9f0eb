// Package premium redirects presses on the Premium button to a toast
// instead of the upsell modal.
package premium

import (
	"context"
	"log/slog"

	"github.com/starford/perchsync/internal/metrics"
)

const (
	DefaultTargetID = "premiumBtn"
	DefaultMessage  = "Premium coming soon!"
)

// Toaster names.
const (
	ToasterShowToast      = "show_toast"
	ToasterShowBonusToast = "show_bonus_toast"
	ToasterLog            = "log"
)

// interceptedTypes are the event types captured on the Premium button.
var interceptedTypes = map[string]struct{}{
	"click":      {},
	"touchstart": {},
	"pointerup":  {},
}

// Event is a UI event as reported by the page. Ancestors lists element ids
// from the target's parent outward.
type Event struct {
	Type      string   `json:"type"`
	TargetID  string   `json:"target_id"`
	Ancestors []string `json:"ancestors,omitempty"`
}

// Outcome tells the page what to do with the event.
type Outcome struct {
	Handled                  bool   `json:"handled"`
	PreventDefault           bool   `json:"prevent_default"`
	StopPropagation          bool   `json:"stop_propagation"`
	StopImmediatePropagation bool   `json:"stop_immediate_propagation"`
	Toaster                  string `json:"toaster,omitempty"`
	Message                  string `json:"message,omitempty"`
}

// Toaster is one optional way of showing a message.
type Toaster interface {
	Name() string
	Available() bool
	Toast(ctx context.Context, msg string) error
}

// ToastFunc wraps an optional toast function.
type ToastFunc struct {
	Label string
	Fn    func(ctx context.Context, msg string) error
}

// Name implements Toaster.
func (t ToastFunc) Name() string { return t.Label }

// Available reports whether Fn is set.
func (t ToastFunc) Available() bool { return t.Fn != nil }

// Toast calls Fn.
func (t ToastFunc) Toast(ctx context.Context, msg string) error { return t.Fn(ctx, msg) }

// Interceptor matches Premium button events and shows the toast.
type Interceptor struct {
	targetID string
	message  string
	logger   *slog.Logger
}

// New creates an Interceptor. Empty targetID or message fall back to the defaults.
func New(targetID, message string, logger *slog.Logger) *Interceptor {
	if targetID == "" {
		targetID = DefaultTargetID
	}
	if message == "" {
		message = DefaultMessage
	}
	return &Interceptor{targetID: targetID, message: message, logger: logger}
}

// Matches reports whether ev is an intercepted event type on the button or
// inside it.
func (i *Interceptor) Matches(ev Event) bool {
	if _, ok := interceptedTypes[ev.Type]; !ok {
		return false
	}
	if ev.TargetID == i.targetID {
		return true
	}
	for _, id := range ev.Ancestors {
		if id == i.targetID {
			return true
		}
	}
	return false
}

// Handle suppresses a matching event and shows the message through the first
// available toaster, falling back to a log line. Non-matching events are
// left alone.
func (i *Interceptor) Handle(ctx context.Context, ev Event, toasters ...Toaster) Outcome {
	if !i.Matches(ev) {
		return Outcome{}
	}

	out := Outcome{
		Handled:                  true,
		PreventDefault:           true,
		StopPropagation:          true,
		StopImmediatePropagation: true,
		Message:                  i.message,
		Toaster:                  ToasterLog,
	}

	for _, t := range toasters {
		if t == nil || !t.Available() {
			continue
		}
		if err := t.Toast(ctx, i.message); err != nil {
			i.logger.Warn("premium: toast failed", slog.String("toaster", t.Name()), slog.String("error", err.Error()))
			continue
		}
		out.Toaster = t.Name()
		break
	}

	if out.Toaster == ToasterLog {
		i.logger.Info(i.message, slog.String("event", ev.Type))
	}
	metrics.PremiumInterceptsTotal.WithLabelValues(out.Toaster).Inc()
	return out
}
