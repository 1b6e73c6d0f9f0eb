package premium

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestMatches(t *testing.T) {
	i := New("", "", quietLogger())
	tests := []struct {
		name string
		ev   Event
		want bool
	}{
		{"click on button", Event{Type: "click", TargetID: "premiumBtn"}, true},
		{"touch on icon inside button", Event{Type: "touchstart", TargetID: "icon", Ancestors: []string{"", "premiumBtn", "footer"}}, true},
		{"pointerup", Event{Type: "pointerup", TargetID: "premiumBtn"}, true},
		{"other button", Event{Type: "click", TargetID: "statsBtn", Ancestors: []string{"footer"}}, false},
		{"untracked event type", Event{Type: "mouseover", TargetID: "premiumBtn"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := i.Matches(tt.ev); got != tt.want {
				t.Errorf("Matches = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHandle_ToasterOrder(t *testing.T) {
	var shown []string
	show := func(name string) func(context.Context, string) error {
		return func(_ context.Context, msg string) error {
			shown = append(shown, name+":"+msg)
			return nil
		}
	}
	i := New("", "", quietLogger())
	ev := Event{Type: "click", TargetID: "premiumBtn"}

	out := i.Handle(context.Background(), ev,
		ToastFunc{Label: ToasterShowToast, Fn: show("toast")},
		ToastFunc{Label: ToasterShowBonusToast, Fn: show("bonus")})
	if !out.Handled || !out.PreventDefault || !out.StopPropagation || !out.StopImmediatePropagation {
		t.Errorf("outcome = %+v", out)
	}
	if out.Toaster != ToasterShowToast || len(shown) != 1 || shown[0] != "toast:Premium coming soon!" {
		t.Errorf("toaster = %q shown = %v", out.Toaster, shown)
	}

	shown = nil
	out = i.Handle(context.Background(), ev,
		ToastFunc{Label: ToasterShowToast},
		ToastFunc{Label: ToasterShowBonusToast, Fn: show("bonus")})
	if out.Toaster != ToasterShowBonusToast || len(shown) != 1 {
		t.Errorf("toaster = %q shown = %v", out.Toaster, shown)
	}
}

func TestHandle_LogFallback(t *testing.T) {
	i := New("", "Soon", quietLogger())
	failing := ToastFunc{Label: ToasterShowToast, Fn: func(context.Context, string) error { return errors.New("no dom") }}
	out := i.Handle(context.Background(), Event{Type: "click", TargetID: "premiumBtn"}, failing)
	if !out.Handled || out.Toaster != ToasterLog || out.Message != "Soon" {
		t.Errorf("outcome = %+v", out)
	}
}

func TestHandle_IgnoresOtherTargets(t *testing.T) {
	called := false
	i := New("", "", quietLogger())
	out := i.Handle(context.Background(), Event{Type: "click", TargetID: "shareBtn"},
		ToastFunc{Label: ToasterShowToast, Fn: func(context.Context, string) error { called = true; return nil }})
	if out.Handled || called {
		t.Errorf("outcome = %+v called = %v", out, called)
	}
}
