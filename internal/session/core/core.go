// Package core implements the session tick state machine.
//
// Like the rest of the simulation kernel, it is deterministic given
// its random source: no goroutines, channels, mutexes, or time calls.
// The service layer owns a State and serializes all access to it.
package core

import (
	"errors"

	"github.com/zappabad/microcap/internal/market"
	"github.com/zappabad/microcap/internal/market/book"
	"github.com/zappabad/microcap/internal/market/events"
	"github.com/zappabad/microcap/internal/market/price"
	"github.com/zappabad/microcap/internal/rng"
)

// SessionLength is one trading day: 6.5 hours of one-minute ticks.
const SessionLength = 390

// Phase is the session lifecycle state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhasePaused
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhasePaused:
		return "paused"
	case PhaseComplete:
		return "complete"
	default:
		return "unknown"
	}
}

var ErrBadTransition = errors.New("invalid session phase transition")

// State is the complete simulation state for one session.
type State struct {
	Phase          Phase
	Tick           int
	SessionLength  int
	Stocks         []market.Stock
	Events         []market.Event // append-only session log
	LastEventTicks map[market.StockID]int
}

// TickResult is what one tick transition produced.
type TickResult struct {
	Stocks          []market.Stock
	NewEvents       []market.Event
	Tick            int
	SessionComplete bool
}

// NewState builds an idle session over the given instruments.
func NewState(stocks []market.Stock, sessionLength int) State {
	if sessionLength <= 0 {
		sessionLength = SessionLength
	}
	return State{
		Phase:          PhaseIdle,
		SessionLength:  sessionLength,
		Stocks:         stocks,
		LastEventTicks: make(map[market.StockID]int),
	}
}

// Start transitions Idle -> Running.
func (s *State) Start() error {
	if s.Phase != PhaseIdle {
		return ErrBadTransition
	}
	s.Phase = PhaseRunning
	return nil
}

// Pause transitions Running -> Paused. State is preserved, not reset.
func (s *State) Pause() error {
	if s.Phase != PhaseRunning {
		return ErrBadTransition
	}
	s.Phase = PhasePaused
	return nil
}

// Resume transitions Paused -> Running.
func (s *State) Resume() error {
	if s.Phase != PhasePaused {
		return ErrBadTransition
	}
	s.Phase = PhaseRunning
	return nil
}

// Reset returns to Idle over a fresh instrument set.
func (s *State) Reset(stocks []market.Stock) {
	*s = NewState(stocks, s.SessionLength)
}

// Scheduler advances States tick by tick.
type Scheduler struct {
	gen *events.Generator
}

// NewScheduler creates a Scheduler with the given event generator.
func NewScheduler(gen *events.Generator) *Scheduler {
	if gen == nil {
		gen = events.NewGenerator(events.DefaultConfig())
	}
	return &Scheduler{gen: gen}
}

// Tick advances the state by one simulated step. It never fails:
// degenerate numeric inputs are clamped inside the price model and
// book synthesizer. The state is mutated in place; the scheduler's
// owner must be its single writer.
//
// Session completion is reported, not enforced: the caller decides
// when to stop driving ticks.
func (sch *Scheduler) Tick(s *State, src rng.Source) TickResult {
	s.Tick++
	tick := s.Tick

	var newEvents []market.Event
	if ev := sch.gen.MaybeGenerate(s.Stocks, tick, s.LastEventTicks, src); ev != nil {
		newEvents = append(newEvents, *ev)
	}

	for i := range s.Stocks {
		sch.tickStock(&s.Stocks[i], tick, s.SessionLength, newEvents, src)
	}

	// Cooldown bookkeeping for targeted stocks.
	for _, ev := range newEvents {
		for _, id := range ev.AffectedStockIDs {
			s.LastEventTicks[id] = tick
		}
	}
	s.Events = append(s.Events, newEvents...)

	complete := tick >= s.SessionLength
	if complete && s.Phase == PhaseRunning {
		s.Phase = PhaseComplete
	}

	return TickResult{
		Stocks:          s.Stocks,
		NewEvents:       newEvents,
		Tick:            tick,
		SessionComplete: complete,
	}
}

func (sch *Scheduler) tickStock(s *market.Stock, tick, sessionLength int, newEvents []market.Event, src rng.Source) {
	if s.Halted {
		s.HaltTicksRemaining--
		if s.HaltTicksRemaining <= 0 {
			s.Halted = false
			s.HaltTicksRemaining = 0
		} else {
			// Still halted: frozen price, empty book.
			s.Book = market.OrderBook{}
			return
		}
	}

	for _, ev := range newEvents {
		if !ev.Affects(s.ID) {
			continue
		}
		s.CatalystMultiplier = ev.PriceImpact
		if ev.Duration > 0 {
			s.CatalystDecay = 1 / float64(ev.Duration) // linear wear-off
		} else {
			s.CatalystDecay = 1
		}

		if events.IsHaltType(ev.Type) {
			s.Halted = true
			s.HaltTicksRemaining = events.HaltDuration(ev, src)
			s.Book = market.OrderBook{}
			return
		}
	}

	u := price.NextTick(*s, tick, sessionLength, src)
	*s = price.Apply(*s, u)

	s.Book = book.Skew(book.Generate(*s, src), s.Momentum)
}
