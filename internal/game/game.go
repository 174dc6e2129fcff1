// Package game ties the session service, ledger, and evaluators into
// a round-based game: lobby, trading, results, next round. A Game is
// driven by a single caller (the TUI model or a headless runner); the
// session service underneath is the one that is safe for concurrent
// use.
package game

import (
	"context"
	"errors"

	"github.com/zappabad/microcap/internal/challenge"
	"github.com/zappabad/microcap/internal/ledger"
	"github.com/zappabad/microcap/internal/market"
	"github.com/zappabad/microcap/internal/scoring"
	"github.com/zappabad/microcap/internal/session/service"
)

var (
	ErrNoRoundsLeft = errors.New("round budget exhausted")
	ErrNotTrading   = errors.New("no round in progress")
	ErrNotInResults = errors.New("round still in progress")
)

// Phase is the game-level phase, above the session's own phase.
type Phase int

const (
	PhaseLobby Phase = iota
	PhaseTrading
	PhaseResults
)

func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhaseTrading:
		return "trading"
	case PhaseResults:
		return "results"
	default:
		return "unknown"
	}
}

// RoundResult is everything the results phase shows for one player.
type RoundResult struct {
	Score      scoring.PlayerScore
	Challenges []challenge.Progress
	Player     *ledger.Player
}

// Game owns the session service and the round lifecycle.
type Game struct {
	cfg   Config
	svc   *service.Service
	phase Phase
	round int
}

// New creates a Game in the lobby phase.
func New(cfg Config) *Game {
	if len(cfg.Catalog) == 0 {
		cfg.Catalog = DefaultConfig().Catalog
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = DefaultConfig().MaxRounds
	}
	return &Game{
		cfg: cfg,
		svc: service.NewService(market.InitSession(cfg.Catalog), cfg.Session),
	}
}

// Session exposes the underlying session service for subscribers and
// trade entry.
func (g *Game) Session() *service.Service { return g.svc }

// Phase returns the game-level phase.
func (g *Game) Phase() Phase { return g.phase }

// Round returns the 1-based current round, 0 before the first start.
func (g *Game) Round() int { return g.round }

// MaxRounds returns the round budget.
func (g *Game) MaxRounds() int { return g.cfg.MaxRounds }

// Join registers a player. Players may join in any phase; a join
// mid-round starts with full cash and an empty book of trades.
func (g *Game) Join(ctx context.Context, name string) (*ledger.Player, error) {
	return g.svc.AddPlayer(ctx, name)
}

// StartRound begins the next round from the lobby or results phase.
// Each round runs over a freshly seeded instrument set with every
// player restored to starting cash.
func (g *Game) StartRound(ctx context.Context) error {
	if g.phase == PhaseTrading {
		return ErrNotInResults
	}
	if g.round >= g.cfg.MaxRounds {
		return ErrNoRoundsLeft
	}

	if g.round > 0 {
		if err := g.svc.Reset(ctx, market.InitSession(g.cfg.Catalog)); err != nil {
			return err
		}
	}
	if err := g.svc.Start(ctx); err != nil {
		return err
	}

	g.round++
	g.phase = PhaseTrading
	return nil
}

// FinishRound ends the trading phase and computes the player's result.
// The session is paused if it has not already completed on its own.
func (g *Game) FinishRound(ctx context.Context, playerID string, now int64) (RoundResult, error) {
	if g.phase != PhaseTrading {
		return RoundResult{}, ErrNotTrading
	}

	// Best effort: the session may already be complete, in which case
	// the pause is rejected and the state is already frozen.
	_ = g.svc.Pause(ctx)

	result, err := g.Result(ctx, playerID, now)
	if err != nil {
		return RoundResult{}, err
	}

	g.phase = PhaseResults
	return result, nil
}

// Result computes the score and challenge progress for one player
// against the current session state without changing any phase.
func (g *Game) Result(ctx context.Context, playerID string, now int64) (RoundResult, error) {
	snap, err := g.svc.Snapshot(ctx)
	if err != nil {
		return RoundResult{}, err
	}
	player, err := g.svc.Player(ctx, playerID)
	if err != nil {
		return RoundResult{}, err
	}

	progresses := challenge.Evaluate(player, snap.Stocks, now)
	score := scoring.Score(player, snap.Stocks, g.round, g.cfg.MaxRounds, progresses)

	return RoundResult{
		Score:      score,
		Challenges: progresses,
		Player:     player,
	}, nil
}

// Close shuts down the underlying session service.
func (g *Game) Close() {
	g.svc.Close()
}
