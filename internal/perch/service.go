// Package perch coordinates the day gate, hard reset and premium interceptor
// for individual Perch clients.
package perch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/starford/perchsync/internal/apperr"
	"github.com/starford/perchsync/internal/daygate"
	"github.com/starford/perchsync/internal/keyboard"
	"github.com/starford/perchsync/internal/kvstore"
	"github.com/starford/perchsync/internal/metrics"
	"github.com/starford/perchsync/internal/premium"
	"github.com/starford/perchsync/internal/reset"
	"github.com/starford/perchsync/internal/sse"
)

// Capabilities a page may declare.
const (
	CapApplyKeyboardSet = "applyKeyboardSet"
	CapBuildKeyboard    = "buildKeyboard"
	CapInitGame         = "initGame"
	CapStartGame        = "startGame"
	CapShowToast        = "showToast"
	CapShowBonusToast   = "showBonusToast"
)

// Action is what the page should do next.
type Action string

// Actions.
const (
	ActionNone             Action = "none"
	ActionApplyKeyboardSet Action = "apply_keyboard_set"
	ActionBuildKeyboard    Action = "build_keyboard"
	ActionInitGame         Action = "init_game"
	ActionStartGame        Action = "start_game"
	ActionReload           Action = "reload"
	ActionToast            Action = "toast"
)

// Instruction is sent back to the page, in the HTTP response and over SSE.
type Instruction struct {
	Action      Action        `json:"action"`
	KeyboardSet *keyboard.Set `json:"keyboard_set,omitempty"`
	DayIndex    *int          `json:"day_index,omitempty"`
	Toaster     string        `json:"toaster,omitempty"`
	Message     string        `json:"message,omitempty"`
}

// SignalRequest is a host trigger reported by a page.
type SignalRequest struct {
	Trigger      string   `json:"trigger"`
	Hidden       bool     `json:"hidden"`
	Capabilities []string `json:"capabilities"`
	DayIndex     *int     `json:"day_index,omitempty"`
	PuzzleIndex  *int     `json:"puzzle_index,omitempty"`
	Timezone     string   `json:"timezone,omitempty"`
}

// SignalResponse is the outcome of a trigger.
type SignalResponse struct {
	Result      daygate.Result `json:"result"`
	Instruction Instruction    `json:"instruction"`
}

// ResetResponse is the outcome of a hard reset.
type ResetResponse struct {
	Report      reset.Report `json:"report"`
	Instruction Instruction  `json:"instruction"`
}

// PremiumRequest is a UI event reported by a page.
type PremiumRequest struct {
	Event        premium.Event `json:"event"`
	Capabilities []string      `json:"capabilities"`
}

// PremiumResponse is the outcome of a premium event.
type PremiumResponse struct {
	Outcome     premium.Outcome `json:"outcome"`
	Instruction Instruction     `json:"instruction"`
}

// ClientState is the persisted state of a client.
type ClientState struct {
	ClientID string   `json:"client_id"`
	LastSeen string   `json:"last_seen,omitempty"`
	Keys     []string `json:"keys"`
}

// Today describes the current day as seen from one timezone.
type Today struct {
	DayKey      string        `json:"day_key"`
	DayIndex    int           `json:"day_index"`
	Timezone    string        `json:"timezone"`
	KeyboardSet *keyboard.Set `json:"keyboard_set,omitempty"`
}

// Publisher delivers instructions to connected pages.
type Publisher interface {
	Publish(event sse.Event)
}

// Service coordinates storage, keyboard catalog and event delivery.
type Service struct {
	store     kvstore.Store
	catalog   *keyboard.Catalog
	publisher Publisher
	premium   *premium.Interceptor
	clock     clockwork.Clock
	loc       *time.Location
	epoch     time.Time
	logger    *slog.Logger
	locks     *keyedMutex
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets the event publisher.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithClock sets the time source.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithLocation sets the timezone used when a page does not send one.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// WithEpoch sets the first day of the rotation.
func WithEpoch(epoch time.Time) Option {
	return func(s *Service) { s.epoch = epoch }
}

// WithPremium sets the premium interceptor.
func WithPremium(i *premium.Interceptor) Option {
	return func(s *Service) { s.premium = i }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a new service.
func NewService(store kvstore.Store, catalog *keyboard.Catalog, opts ...Option) *Service {
	s := &Service{
		store:   store,
		catalog: catalog,
		clock:   clockwork.NewRealClock(),
		loc:     time.Local,
		epoch:   daygate.DefaultEpoch,
		logger:  slog.Default(),
		locks:   newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.premium == nil {
		s.premium = premium.New("", "", s.logger)
	}
	return s
}

// Signal runs the day gate for clientID with the capabilities the page declared.
// Evaluations for the same client are serialized.
func (s *Service) Signal(ctx context.Context, clientID string, req SignalRequest) (*SignalResponse, error) {
	if err := kvstore.ValidateClientID(clientID); err != nil {
		return nil, err
	}
	trigger, err := daygate.ParseTrigger(req.Trigger)
	if err != nil {
		return nil, err
	}
	loc, err := s.location(req.Timezone)
	if err != nil {
		return nil, err
	}

	caps := newCapSet(req.Capabilities)
	instr := Instruction{Action: ActionNone}
	emit := func(a Action) func(context.Context) error {
		if !caps.has(actionCapability[a]) {
			return nil
		}
		return func(context.Context) error {
			instr = Instruction{Action: a}
			return nil
		}
	}

	sets := daygate.KeyboardSetStrategy[keyboard.Set]{Sets: s.catalog.Sets()}
	if caps.has(CapApplyKeyboardSet) {
		sets.Apply = func(_ context.Context, set keyboard.Set) error {
			instr = Instruction{Action: ActionApplyKeyboardSet, KeyboardSet: &set}
			return nil
		}
	}

	gate := daygate.New(kvstore.Scope(s.store, kvstore.LocalNamespace(clientID)),
		daygate.WithClock(s.clock),
		daygate.WithLocation(loc),
		daygate.WithEpoch(s.epoch),
		daygate.WithStrategies(daygate.Chain(sets,
			emit(ActionBuildKeyboard), emit(ActionInitGame), emit(ActionStartGame))...),
		daygate.WithIndexProviders(daygate.FixedIndex(req.DayIndex), daygate.FixedIndex(req.PuzzleIndex)),
		daygate.WithReloader(daygate.ReloaderFunc(func(context.Context) error {
			instr = Instruction{Action: ActionReload}
			return nil
		})),
		daygate.WithLogger(s.logger.With(slog.String("client_id", clientID))),
	)

	unlock := s.locks.Lock(clientID)
	res, err := gate.Signal(ctx, trigger, req.Hidden)
	unlock()
	if err != nil {
		metrics.GateEvaluationsTotal.WithLabelValues(string(trigger), "error").Inc()
		return nil, fmt.Errorf("signal %s: %w", clientID, err)
	}

	switch {
	case !res.Evaluated:
		metrics.GateEvaluationsTotal.WithLabelValues(string(trigger), "skipped").Inc()
	case !res.Rotated:
		metrics.GateEvaluationsTotal.WithLabelValues(string(trigger), "same_day").Inc()
	default:
		metrics.GateEvaluationsTotal.WithLabelValues(string(trigger), "rotated").Inc()
		metrics.RebuildsTotal.WithLabelValues(res.Strategy).Inc()
		idx := res.DayIndex
		instr.DayIndex = &idx
		s.publish(clientID, sse.EventInstruction, instr)
	}

	return &SignalResponse{Result: res, Instruction: instr}, nil
}

// HardReset clears the client's game state and tells the page to reload.
func (s *Service) HardReset(ctx context.Context, clientID string) (*ResetResponse, error) {
	if err := kvstore.ValidateClientID(clientID); err != nil {
		return nil, err
	}

	instr := Instruction{Action: ActionNone}
	r := reset.New(
		kvstore.Scope(s.store, kvstore.LocalNamespace(clientID)),
		kvstore.Scope(s.store, kvstore.SessionNamespace(clientID)),
		daygate.ReloaderFunc(func(context.Context) error {
			instr = Instruction{Action: ActionReload}
			return nil
		}),
		s.logger.With(slog.String("client_id", clientID)),
	)

	unlock := s.locks.Lock(clientID)
	rep := r.HardReset(ctx)
	unlock()

	s.publish(clientID, sse.EventInstruction, instr)
	return &ResetResponse{Report: rep, Instruction: instr}, nil
}

// Premium handles a UI event that may target the Premium button.
func (s *Service) Premium(ctx context.Context, clientID string, req PremiumRequest) (*PremiumResponse, error) {
	if err := kvstore.ValidateClientID(clientID); err != nil {
		return nil, err
	}

	caps := newCapSet(req.Capabilities)
	instr := Instruction{Action: ActionNone}
	toaster := func(label, capability string) premium.Toaster {
		t := premium.ToastFunc{Label: label}
		if caps.has(capability) {
			t.Fn = func(_ context.Context, msg string) error {
				instr = Instruction{Action: ActionToast, Toaster: label, Message: msg}
				return nil
			}
		}
		return t
	}

	out := s.premium.Handle(ctx, req.Event,
		toaster(premium.ToasterShowToast, CapShowToast),
		toaster(premium.ToasterShowBonusToast, CapShowBonusToast),
	)
	if out.Handled {
		if instr.Action == ActionNone {
			instr = Instruction{Action: ActionToast, Toaster: out.Toaster, Message: out.Message}
		}
		s.publish(clientID, sse.EventToast, instr)
	}
	return &PremiumResponse{Outcome: out, Instruction: instr}, nil
}

// State returns the persisted state of clientID.
func (s *Service) State(ctx context.Context, clientID string) (*ClientState, error) {
	if err := kvstore.ValidateClientID(clientID); err != nil {
		return nil, err
	}
	local := kvstore.Scope(s.store, kvstore.LocalNamespace(clientID))
	keys, err := local.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("state %s: %w", clientID, err)
	}
	if len(keys) == 0 {
		return nil, apperr.ErrNotFound
	}
	last, _, err := local.Get(ctx, daygate.LastSeenKey)
	if err != nil {
		return nil, fmt.Errorf("state %s: %w", clientID, err)
	}
	return &ClientState{ClientID: clientID, LastSeen: last, Keys: keys}, nil
}

// Today returns the day key, fallback index and the keyboard set of the day
// in timezone tz ("" for the service default).
func (s *Service) Today(_ context.Context, tz string) (*Today, error) {
	loc, err := s.location(tz)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	t := &Today{
		DayKey:   daygate.DayKey(now, loc),
		DayIndex: daygate.DaysSince(s.epoch, now, loc),
		Timezone: loc.String(),
	}
	if sets := s.catalog.Sets(); len(sets) > 0 {
		set := sets[((t.DayIndex%len(sets))+len(sets))%len(sets)]
		t.KeyboardSet = &set
	}
	return t, nil
}

// KeyboardSets returns the loaded keyboard sets in rotation order.
func (s *Service) KeyboardSets() []keyboard.Set {
	return s.catalog.Sets()
}

// KeyboardsReloaded broadcasts a catalog change to every page.
func (s *Service) KeyboardsReloaded(sets []keyboard.Set) {
	s.publish("", sse.EventKeyboardsReloaded, map[string]int{"count": len(sets)})
}

func (s *Service) location(tz string) (*time.Location, error) {
	if tz == "" {
		return s.loc, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", apperr.ErrInvalidTimezone, tz)
	}
	return loc, nil
}

func (s *Service) publish(clientID, kind string, data any) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(sse.Event{Type: kind, Client: clientID, Data: data})
}

var actionCapability = map[Action]string{
	ActionBuildKeyboard: CapBuildKeyboard,
	ActionInitGame:      CapInitGame,
	ActionStartGame:     CapStartGame,
}

type capSet map[string]struct{}

func newCapSet(caps []string) capSet {
	out := make(capSet, len(caps))
	for _, c := range caps {
		out[c] = struct{}{}
	}
	return out
}

func (c capSet) has(name string) bool {
	_, ok := c[name]
	return ok
}
