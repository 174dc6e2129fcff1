package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zappabad/microcap/internal/ledger"
	"github.com/zappabad/microcap/internal/market"
	"github.com/zappabad/microcap/internal/session/core"
)

func newTestService(t *testing.T, cfg Config) *Service {
	t.Helper()
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	svc := NewService(market.InitSession(market.DefaultCatalog()), cfg)
	t.Cleanup(svc.Close)
	return svc
}

func TestServiceLifecycle(t *testing.T) {
	svc := newTestService(t, DefaultConfig())
	ctx := context.Background()

	snap, err := svc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Phase != core.PhaseIdle {
		t.Errorf("expected idle phase, got %v", snap.Phase)
	}

	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := svc.Start(ctx); !errors.Is(err, core.ErrBadTransition) {
		t.Errorf("second start: expected ErrBadTransition, got %v", err)
	}
	if err := svc.Pause(ctx); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := svc.Resume(ctx); err != nil {
		t.Fatalf("resume: %v", err)
	}

	snap, err = svc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Phase != core.PhaseRunning {
		t.Errorf("expected running phase, got %v", snap.Phase)
	}
}

func TestServiceStepAdvancesTick(t *testing.T) {
	svc := newTestService(t, DefaultConfig())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := svc.Step(ctx); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	snap, err := svc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Tick != 3 {
		t.Errorf("expected tick 3, got %d", snap.Tick)
	}
}

func TestServiceTradeRoundTrip(t *testing.T) {
	svc := newTestService(t, DefaultConfig())
	ctx := context.Background()

	player, err := svc.AddPlayer(ctx, "alice")
	if err != nil {
		t.Fatalf("add player: %v", err)
	}
	if player.Cash != 10_000 {
		t.Fatalf("expected starting cash 10000, got %v", player.Cash)
	}

	snap, err := svc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stock := snap.Stocks[0]

	trade, updated, err := svc.ExecuteTrade(ctx, player.ID, stock.ID, ledger.ActionBuy, 10)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if trade.Quantity != 10 {
		t.Errorf("expected quantity 10, got %d", trade.Quantity)
	}
	if updated.Portfolio[stock.ID] != 10 {
		t.Errorf("expected 10 shares held, got %d", updated.Portfolio[stock.ID])
	}
	if updated.Cash >= 10_000 {
		t.Errorf("expected cash below 10000 after buy, got %v", updated.Cash)
	}

	_, updated, err = svc.ExecuteTrade(ctx, player.ID, stock.ID, ledger.ActionSell, 10)
	if err != nil {
		t.Fatalf("sell: %v", err)
	}
	if len(updated.Portfolio) != 0 {
		t.Errorf("expected flat portfolio, got %v", updated.Portfolio)
	}
}

func TestServiceTradeRejections(t *testing.T) {
	svc := newTestService(t, DefaultConfig())
	ctx := context.Background()

	player, err := svc.AddPlayer(ctx, "bob")
	if err != nil {
		t.Fatalf("add player: %v", err)
	}
	snap, err := svc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stock := snap.Stocks[0]

	if _, _, err := svc.ExecuteTrade(ctx, "nope", stock.ID, ledger.ActionBuy, 10); !errors.Is(err, ErrUnknownPlayer) {
		t.Errorf("expected ErrUnknownPlayer, got %v", err)
	}
	if _, _, err := svc.ExecuteTrade(ctx, player.ID, "nope", ledger.ActionBuy, 10); !errors.Is(err, ErrUnknownStock) {
		t.Errorf("expected ErrUnknownStock, got %v", err)
	}
	if _, _, err := svc.ExecuteTrade(ctx, player.ID, stock.ID, ledger.ActionSell, 10); !errors.Is(err, ledger.ErrInsufficientShares) {
		t.Errorf("expected ErrInsufficientShares, got %v", err)
	}
}

func TestServiceSetSpeed(t *testing.T) {
	svc := newTestService(t, DefaultConfig())
	ctx := context.Background()

	if err := svc.SetSpeed(ctx, 3); !errors.Is(err, ErrBadSpeed) {
		t.Errorf("expected ErrBadSpeed, got %v", err)
	}
	if err := svc.SetSpeed(ctx, 4); err != nil {
		t.Fatalf("set speed: %v", err)
	}

	snap, err := svc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Speed != 4 {
		t.Errorf("expected speed 4, got %v", snap.Speed)
	}
}

func TestServiceUpdates(t *testing.T) {
	svc := newTestService(t, DefaultConfig())
	ctx := context.Background()

	updates := svc.Updates()
	if err := svc.Step(ctx); err != nil {
		t.Fatalf("step: %v", err)
	}

	select {
	case u := <-updates:
		if u.Tick != 1 {
			t.Errorf("expected tick 1, got %d", u.Tick)
		}
		if len(u.Stocks) == 0 {
			t.Error("expected stocks in update")
		}
	case <-time.After(time.Second):
		t.Error("timeout waiting for update")
	}
}

func TestServiceTimerDrivesTicks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TickInterval = 5 * time.Millisecond
	svc := newTestService(t, cfg)
	ctx := context.Background()

	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	select {
	case u := <-svc.Updates():
		if u.Tick == 0 {
			t.Error("expected a nonzero tick from the timer")
		}
	case <-time.After(time.Second):
		t.Error("timeout waiting for a timer-driven tick")
	}
}

func TestServicePausePreservesState(t *testing.T) {
	svc := newTestService(t, DefaultConfig())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := svc.Step(ctx); err != nil {
			t.Fatalf("step: %v", err)
		}
	}
	if err := svc.Pause(ctx); err != nil {
		t.Fatalf("pause: %v", err)
	}

	before, err := svc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	after, err := svc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if after.Tick != before.Tick {
		t.Errorf("tick advanced while paused: %d -> %d", before.Tick, after.Tick)
	}
	if after.Stocks[0].Price != before.Stocks[0].Price {
		t.Errorf("price moved while paused: %v -> %v", before.Stocks[0].Price, after.Stocks[0].Price)
	}
}

func TestServiceReset(t *testing.T) {
	svc := newTestService(t, DefaultConfig())
	ctx := context.Background()

	player, err := svc.AddPlayer(ctx, "carol")
	if err != nil {
		t.Fatalf("add player: %v", err)
	}
	snap, err := svc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := svc.ExecuteTrade(ctx, player.ID, snap.Stocks[0].ID, ledger.ActionBuy, 10); err != nil {
		t.Fatalf("buy: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := svc.Step(ctx); err != nil {
			t.Fatalf("step: %v", err)
		}
	}

	if err := svc.Reset(ctx, market.InitSession(market.DefaultCatalog())); err != nil {
		t.Fatalf("reset: %v", err)
	}

	snap, err = svc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Phase != core.PhaseIdle || snap.Tick != 0 {
		t.Errorf("expected idle tick 0 after reset, got %v tick %d", snap.Phase, snap.Tick)
	}

	fresh, err := svc.Player(ctx, player.ID)
	if err != nil {
		t.Fatalf("player after reset: %v", err)
	}
	if fresh.Cash != 10_000 || len(fresh.Portfolio) != 0 || len(fresh.TradeHistory) != 0 {
		t.Errorf("player not reset: %+v", fresh)
	}
}

func TestServiceDeterministicWithSeed(t *testing.T) {
	run := func() []float64 {
		cfg := DefaultConfig()
		cfg.Seed = 7
		svc := NewService(market.InitSession(market.DefaultCatalog()), cfg)
		defer svc.Close()

		ctx := context.Background()
		for i := 0; i < 50; i++ {
			if err := svc.Step(ctx); err != nil {
				t.Fatalf("step: %v", err)
			}
		}
		snap, err := svc.Snapshot(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		prices := make([]float64, len(snap.Stocks))
		for i, s := range snap.Stocks {
			prices[i] = s.Price
		}
		return prices
	}

	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("stock %d diverged: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestServiceCloseUnblocksCallers(t *testing.T) {
	svc := NewService(market.InitSession(market.DefaultCatalog()), DefaultConfig())
	svc.Close()

	if err := svc.Start(context.Background()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled after close, got %v", err)
	}
}
