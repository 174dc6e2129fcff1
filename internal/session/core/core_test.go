package core

import (
	"testing"

	"github.com/zappabad/microcap/internal/market"
	"github.com/zappabad/microcap/internal/market/events"
	"github.com/zappabad/microcap/internal/rng"
)

func newTestState() State {
	return NewState(market.InitSession(market.DefaultCatalog()), SessionLength)
}

func TestPhaseTransitions(t *testing.T) {
	s := newTestState()

	if s.Phase != PhaseIdle {
		t.Fatalf("new state phase = %v, want idle", s.Phase)
	}
	if err := s.Pause(); err != ErrBadTransition {
		t.Errorf("pause from idle: err = %v, want ErrBadTransition", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Start(); err != ErrBadTransition {
		t.Errorf("double start: err = %v, want ErrBadTransition", err)
	}
	if err := s.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := s.Resume(); err != nil {
		t.Fatalf("resume: %v", err)
	}

	s.Reset(market.InitSession(market.DefaultCatalog()))
	if s.Phase != PhaseIdle || s.Tick != 0 {
		t.Errorf("reset left phase=%v tick=%d", s.Phase, s.Tick)
	}
}

func TestTickIncrementsAndUpdatesStocks(t *testing.T) {
	s := newTestState()
	_ = s.Start()
	sch := NewScheduler(nil)
	src := rng.New(1)

	res := sch.Tick(&s, src)

	if res.Tick != 1 {
		t.Errorf("tick = %d, want 1", res.Tick)
	}
	if res.SessionComplete {
		t.Error("session complete after one tick")
	}
	for _, st := range res.Stocks {
		if len(st.PriceHistory) != 2 {
			t.Errorf("%s: price history length %d, want 2", st.Ticker, len(st.PriceHistory))
		}
		if len(st.Book.Bids) == 0 || len(st.Book.Asks) == 0 {
			t.Errorf("%s: expected regenerated book", st.Ticker)
		}
	}
}

func TestSessionCompleteAtExactly390(t *testing.T) {
	s := newTestState()
	_ = s.Start()
	sch := NewScheduler(nil)
	src := rng.New(7)

	for i := 1; i < SessionLength; i++ {
		res := sch.Tick(&s, src)
		if res.SessionComplete {
			t.Fatalf("session complete at tick %d, before %d", i, SessionLength)
		}
	}
	res := sch.Tick(&s, src)
	if !res.SessionComplete {
		t.Fatal("session not complete at tick 390")
	}
	if s.Phase != PhaseComplete {
		t.Errorf("phase = %v, want complete", s.Phase)
	}
}

func TestHaltFreezesPriceAndEmptiesBook(t *testing.T) {
	s := newTestState()
	_ = s.Start()
	sch := NewScheduler(nil)
	src := rng.New(3)

	// Manufacture a halt directly.
	s.Stocks[0].Halted = true
	s.Stocks[0].HaltTicksRemaining = 5
	frozen := s.Stocks[0].Price

	for i := 0; i < 4; i++ {
		sch.Tick(&s, src)
		st := s.Stocks[0]
		if !st.Halted {
			t.Fatalf("tick %d: halt cleared early", i+1)
		}
		if st.Price != frozen {
			t.Fatalf("tick %d: price moved during halt: %v != %v", i+1, st.Price, frozen)
		}
		if len(st.Book.Bids) != 0 || len(st.Book.Asks) != 0 {
			t.Fatalf("tick %d: book not empty during halt", i+1)
		}
	}

	// Fifth tick clears the countdown and resumes trading.
	sch.Tick(&s, src)
	st := s.Stocks[0]
	if st.Halted {
		t.Error("halt not cleared at countdown zero")
	}
	if len(st.Book.Bids) == 0 {
		t.Error("book not regenerated after halt lift")
	}
}

func TestHaltEventSetsHaltAndSkipsPricing(t *testing.T) {
	// Force the generator to fire every tick; loop until it lands a
	// halt event so the full injection path is covered.
	cfg := events.DefaultConfig()
	cfg.BaseProbability = 1
	sch := NewScheduler(events.NewGenerator(cfg))

	s := newTestState()
	_ = s.Start()
	src := rng.New(12)

	for i := 0; i < 5_000; i++ {
		res := sch.Tick(&s, src)
		for _, ev := range res.NewEvents {
			if ev.Type != market.EventSECHalt {
				continue
			}
			for _, st := range s.Stocks {
				if !ev.Affects(st.ID) {
					continue
				}
				if !st.Halted {
					t.Fatal("halt event did not halt target")
				}
				if st.HaltTicksRemaining < 10 || st.HaltTicksRemaining > 30 {
					t.Fatalf("halt ticks %d outside template range", st.HaltTicksRemaining)
				}
				if len(st.Book.Bids) != 0 {
					t.Fatal("halted stock kept its book")
				}
				return
			}
		}
	}
	t.Skip("no halt event sampled; seed produced none in 5000 ticks")
}

func TestEventAppliesCatalyst(t *testing.T) {
	cfg := events.DefaultConfig()
	cfg.BaseProbability = 1
	sch := NewScheduler(events.NewGenerator(cfg))

	s := newTestState()
	_ = s.Start()
	src := rng.New(5)

	res := sch.Tick(&s, src)
	if len(res.NewEvents) == 0 {
		// p=1 guarantees a roll passes; eligibility can still filter
		// everything out, so walk a few ticks.
		for i := 0; i < 100 && len(res.NewEvents) == 0; i++ {
			res = sch.Tick(&s, src)
		}
	}
	if len(res.NewEvents) == 0 {
		t.Fatal("no event generated with p=1")
	}

	ev := res.NewEvents[0]
	if s.LastEventTicks[ev.AffectedStockIDs[0]] != res.Tick {
		t.Error("cooldown tick not recorded for affected stock")
	}
	if len(s.Events) == 0 {
		t.Error("event not appended to session log")
	}
}

func TestTickNeverGeneratesMoreThanOneEvent(t *testing.T) {
	cfg := events.DefaultConfig()
	cfg.BaseProbability = 1
	sch := NewScheduler(events.NewGenerator(cfg))

	s := newTestState()
	_ = s.Start()
	src := rng.New(8)

	for i := 0; i < 1_000; i++ {
		res := sch.Tick(&s, src)
		if len(res.NewEvents) > 1 {
			t.Fatalf("tick %d produced %d events", res.Tick, len(res.NewEvents))
		}
	}
}
