package perch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/jonboulle/clockwork"

	"github.com/starford/perchsync/internal/apperr"
	"github.com/starford/perchsync/internal/daygate"
	"github.com/starford/perchsync/internal/keyboard"
	"github.com/starford/perchsync/internal/kvstore"
	"github.com/starford/perchsync/internal/premium"
	"github.com/starford/perchsync/internal/sse"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []sse.Event
}

func (p *recordingPublisher) Publish(e sse.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

var testSets = []keyboard.Set{
	{Name: "qwerty", Rows: []string{"QWERTYUIOP", "ASDFGHJKL", "ZXCVBNM"}},
	{Name: "alpha", Rows: []string{"ABCDEFGHI", "JKLMNOPQR", "STUVWXYZ"}},
	{Name: "dvorak", Rows: []string{"PYFGCRL", "AOEUIDHTNS", "QJKXBMWVZ"}},
}

func testService(t *testing.T, sets []keyboard.Set) (*Service, *clockwork.FakeClock, *recordingPublisher, kvstore.Store) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 1, 3, 9, 0, 0, 0, time.UTC))
	pub := &recordingPublisher{}
	store := kvstore.NewMemory()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	svc := NewService(store, keyboard.NewStaticCatalog(sets),
		WithClock(clock),
		WithLocation(time.UTC),
		WithPublisher(pub),
		WithLogger(logger),
	)
	return svc, clock, pub, store
}

func TestSignal_AppliesKeyboardSetOfTheDay(t *testing.T) {
	svc, _, pub, _ := testService(t, testSets)

	resp, err := svc.Signal(context.Background(), "c1", SignalRequest{
		Trigger:      "ready",
		Capabilities: []string{CapApplyKeyboardSet, CapBuildKeyboard},
	})
	if err != nil {
		t.Fatalf("Signal: %v", err)
	}
	if !resp.Result.Rotated || resp.Result.Strategy != daygate.StrategyKeyboardSets {
		t.Errorf("result = %+v", resp.Result)
	}
	// 2025-01-03 is day 2.
	if resp.Instruction.Action != ActionApplyKeyboardSet || resp.Instruction.KeyboardSet.Name != "dvorak" {
		t.Errorf("instruction = %+v", resp.Instruction)
	}
	if resp.Instruction.DayIndex == nil || *resp.Instruction.DayIndex != 2 {
		t.Errorf("day index = %v", resp.Instruction.DayIndex)
	}
	if pub.count() != 1 {
		t.Errorf("published %d events", pub.count())
	}
}

func TestSignal_SameDayIsNoop(t *testing.T) {
	svc, clock, pub, _ := testService(t, testSets)
	ctx := context.Background()
	req := SignalRequest{Trigger: "visible", Capabilities: []string{CapInitGame}}

	if _, err := svc.Signal(ctx, "c1", req); err != nil {
		t.Fatal(err)
	}
	clock.Advance(6 * time.Hour)
	resp, err := svc.Signal(ctx, "c1", req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Result.Rotated || resp.Instruction.Action != ActionNone {
		t.Errorf("second signal = %+v", resp)
	}
	if pub.count() != 1 {
		t.Errorf("published %d events, want 1", pub.count())
	}

	clock.Advance(12 * time.Hour)
	resp, _ = svc.Signal(ctx, "c1", req)
	if !resp.Result.Rotated || resp.Instruction.Action != ActionInitGame {
		t.Errorf("next day = %+v", resp)
	}
}

func TestSignal_CapabilityFallbacks(t *testing.T) {
	tests := []struct {
		name string
		sets []keyboard.Set
		caps []string
		want Action
	}{
		{"sets without apply", testSets, []string{CapStartGame}, ActionStartGame},
		{"apply without sets", nil, []string{CapApplyKeyboardSet, CapBuildKeyboard}, ActionBuildKeyboard},
		{"init beats start", testSets, []string{CapStartGame, CapInitGame}, ActionInitGame},
		{"nothing declared", testSets, nil, ActionReload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _, _ := testService(t, tt.sets)
			resp, err := svc.Signal(context.Background(), "c1", SignalRequest{Trigger: "ready", Capabilities: tt.caps})
			if err != nil {
				t.Fatal(err)
			}
			if resp.Instruction.Action != tt.want {
				t.Errorf("action = %q, want %q", resp.Instruction.Action, tt.want)
			}
		})
	}
}

func TestSignal_IndexOverrides(t *testing.T) {
	svc, _, _, _ := testService(t, testSets)
	day, puzzle := 10, 4
	resp, err := svc.Signal(context.Background(), "c1", SignalRequest{
		Trigger:      "ready",
		Capabilities: []string{CapApplyKeyboardSet},
		DayIndex:     &day,
		PuzzleIndex:  &puzzle,
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Result.DayIndex != 10 || resp.Instruction.KeyboardSet.Name != "alpha" {
		t.Errorf("result = %+v instruction = %+v", resp.Result, resp.Instruction)
	}
}

func TestSignal_TimezoneDecidesDay(t *testing.T) {
	svc, _, _, store := testService(t, testSets)
	// 09:00 UTC on Jan 3 is still Jan 2 in Honolulu.
	resp, err := svc.Signal(context.Background(), "c1", SignalRequest{Trigger: "ready", Timezone: "Pacific/Honolulu"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Result.DayKey != "2025-01-02" {
		t.Errorf("day key = %q", resp.Result.DayKey)
	}
	v, _, _ := store.Get(context.Background(), kvstore.LocalNamespace("c1"), daygate.LastSeenKey)
	if v != "2025-01-02" {
		t.Errorf("stored = %q", v)
	}
}

func TestSignal_AlternatingTimezonesRotateOnce(t *testing.T) {
	svc, _, pub, store := testService(t, testSets)
	ctx := context.Background()

	zones := []string{"Pacific/Kiritimati", "Pacific/Pago_Pago", "Pacific/Kiritimati", "Pacific/Pago_Pago"}
	for i, tz := range zones {
		resp, err := svc.Signal(ctx, "c1", SignalRequest{Trigger: "visible", Timezone: tz, Capabilities: []string{CapInitGame}})
		if err != nil {
			t.Fatal(err)
		}
		if i > 0 && resp.Result.Rotated {
			t.Errorf("signal %d in %s rotated again: %+v", i, tz, resp.Result)
		}
	}

	if pub.count() != 1 {
		t.Errorf("rebuilds published = %d, want 1", pub.count())
	}
	v, _, _ := store.Get(ctx, kvstore.LocalNamespace("c1"), daygate.LastSeenKey)
	if v != "2025-01-03" {
		t.Errorf("stored = %q, want 2025-01-03", v)
	}
}

func TestSignal_HiddenSkips(t *testing.T) {
	svc, _, pub, _ := testService(t, testSets)
	resp, err := svc.Signal(context.Background(), "c1", SignalRequest{Trigger: "visible", Hidden: true})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Result.Evaluated || pub.count() != 0 {
		t.Errorf("hidden signal evaluated: %+v", resp)
	}
}

func TestSignal_Validation(t *testing.T) {
	svc, _, _, _ := testService(t, testSets)
	ctx := context.Background()

	if _, err := svc.Signal(ctx, "bad/id", SignalRequest{Trigger: "ready"}); !errors.Is(err, apperr.ErrInvalidClient) {
		t.Errorf("client id: %v", err)
	}
	if _, err := svc.Signal(ctx, "c1", SignalRequest{Trigger: "blur"}); !errors.Is(err, apperr.ErrInvalidTrigger) {
		t.Errorf("trigger: %v", err)
	}
	if _, err := svc.Signal(ctx, "c1", SignalRequest{Trigger: "ready", Timezone: "Mars/Olympus"}); !errors.Is(err, apperr.ErrInvalidTimezone) {
		t.Errorf("timezone: %v", err)
	}
}

func TestSignal_ConcurrentSameClientRotatesOnce(t *testing.T) {
	svc, _, pub, _ := testService(t, testSets)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Signal(ctx, "c1", SignalRequest{Trigger: "visible", Capabilities: []string{CapBuildKeyboard}})
		}()
	}
	wg.Wait()

	if pub.count() != 1 {
		t.Errorf("rotations = %d, want 1", pub.count())
	}
}

func TestHardReset_KeepsDayKey(t *testing.T) {
	svc, _, pub, store := testService(t, testSets)
	ctx := context.Background()

	if _, err := svc.Signal(ctx, "c1", SignalRequest{Trigger: "ready"}); err != nil {
		t.Fatal(err)
	}
	_ = store.Set(ctx, kvstore.LocalNamespace("c1"), "perch_daily_seed", "42")
	_ = store.Set(ctx, kvstore.SessionNamespace("c1"), "tab", "x")

	resp, err := svc.HardReset(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Instruction.Action != ActionReload || !resp.Report.SessionCleared {
		t.Errorf("resp = %+v", resp)
	}

	st, err := svc.State(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if st.LastSeen != "2025-01-03" || len(st.Keys) != 1 {
		t.Errorf("state = %+v", st)
	}
	if pub.count() != 2 {
		t.Errorf("published %d events, want 2", pub.count())
	}
}

func TestPremium(t *testing.T) {
	svc, _, pub, _ := testService(t, nil)
	ctx := context.Background()

	resp, err := svc.Premium(ctx, "c1", PremiumRequest{
		Event:        premium.Event{Type: "click", TargetID: "premiumBtn"},
		Capabilities: []string{CapShowBonusToast},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Outcome.Handled || resp.Instruction.Action != ActionToast || resp.Instruction.Toaster != premium.ToasterShowBonusToast {
		t.Errorf("resp = %+v", resp)
	}

	resp, _ = svc.Premium(ctx, "c1", PremiumRequest{Event: premium.Event{Type: "click", TargetID: "other"}})
	if resp.Outcome.Handled || resp.Instruction.Action != ActionNone {
		t.Errorf("non-premium click handled: %+v", resp)
	}
	if pub.count() != 1 {
		t.Errorf("published %d events", pub.count())
	}
}

func TestState_Unknown(t *testing.T) {
	svc, _, _, _ := testService(t, nil)
	if _, err := svc.State(context.Background(), "ghost"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestToday(t *testing.T) {
	svc, _, _, _ := testService(t, testSets)
	today, err := svc.Today(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if today.DayKey != "2025-01-03" || today.DayIndex != 2 || today.KeyboardSet.Name != "dvorak" {
		t.Errorf("today = %+v", today)
	}
}
