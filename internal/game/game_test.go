package game

import (
	"context"
	"errors"
	"testing"

	"github.com/zappabad/microcap/internal/ledger"
)

func newTestGame(t *testing.T, maxRounds int) *Game {
	t.Helper()
	cfg := DefaultConfig()
	cfg.MaxRounds = maxRounds
	cfg.Session.Seed = 42
	g := New(cfg)
	t.Cleanup(g.Close)
	return g
}

func TestGameRoundLifecycle(t *testing.T) {
	g := newTestGame(t, 3)
	ctx := context.Background()

	if g.Phase() != PhaseLobby || g.Round() != 0 {
		t.Fatalf("expected lobby round 0, got %v round %d", g.Phase(), g.Round())
	}

	player, err := g.Join(ctx, "alice")
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := g.StartRound(ctx); err != nil {
		t.Fatalf("start round: %v", err)
	}
	if g.Phase() != PhaseTrading || g.Round() != 1 {
		t.Errorf("expected trading round 1, got %v round %d", g.Phase(), g.Round())
	}
	if err := g.StartRound(ctx); !errors.Is(err, ErrNotInResults) {
		t.Errorf("start mid-round: expected ErrNotInResults, got %v", err)
	}

	for i := 0; i < 10; i++ {
		if err := g.Session().Step(ctx); err != nil {
			t.Fatalf("step: %v", err)
		}
	}

	result, err := g.FinishRound(ctx, player.ID, 1)
	if err != nil {
		t.Fatalf("finish round: %v", err)
	}
	if g.Phase() != PhaseResults {
		t.Errorf("expected results phase, got %v", g.Phase())
	}
	if result.Score.PlayerID != player.ID {
		t.Errorf("score for wrong player: %s", result.Score.PlayerID)
	}
	if len(result.Challenges) != 3 {
		t.Errorf("expected 3 challenge entries, got %d", len(result.Challenges))
	}
}

func TestGameFinishOutsideTrading(t *testing.T) {
	g := newTestGame(t, 3)

	if _, err := g.FinishRound(context.Background(), "whoever", 1); !errors.Is(err, ErrNotTrading) {
		t.Errorf("expected ErrNotTrading, got %v", err)
	}
}

func TestGameNextRoundResetsPlayers(t *testing.T) {
	g := newTestGame(t, 3)
	ctx := context.Background()

	player, err := g.Join(ctx, "bob")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := g.StartRound(ctx); err != nil {
		t.Fatalf("start round: %v", err)
	}

	snap, err := g.Session().Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if _, _, err := g.Session().ExecuteTrade(ctx, player.ID, snap.Stocks[0].ID, ledger.ActionBuy, 10); err != nil {
		t.Fatalf("buy: %v", err)
	}

	if _, err := g.FinishRound(ctx, player.ID, 1); err != nil {
		t.Fatalf("finish round: %v", err)
	}
	if err := g.StartRound(ctx); err != nil {
		t.Fatalf("second round: %v", err)
	}
	if g.Round() != 2 {
		t.Errorf("expected round 2, got %d", g.Round())
	}

	fresh, err := g.Session().Player(ctx, player.ID)
	if err != nil {
		t.Fatalf("player: %v", err)
	}
	if fresh.Cash != 10_000 || len(fresh.Portfolio) != 0 {
		t.Errorf("player carried state into new round: %+v", fresh)
	}
}

func TestGameRoundBudget(t *testing.T) {
	g := newTestGame(t, 1)
	ctx := context.Background()

	player, err := g.Join(ctx, "carol")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := g.StartRound(ctx); err != nil {
		t.Fatalf("start round: %v", err)
	}
	if _, err := g.FinishRound(ctx, player.ID, 1); err != nil {
		t.Fatalf("finish round: %v", err)
	}

	if err := g.StartRound(ctx); !errors.Is(err, ErrNoRoundsLeft) {
		t.Errorf("expected ErrNoRoundsLeft, got %v", err)
	}
}
