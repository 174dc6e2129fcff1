// Command sim runs a headless session: it steps the clock to
// completion with a naive momentum trader attached and prints the
// score report. Useful for tuning the price model and the scoring
// weights without a terminal UI.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/zappabad/microcap/internal/bot"
	"github.com/zappabad/microcap/internal/config"
	"github.com/zappabad/microcap/internal/game"
	"github.com/zappabad/microcap/internal/scoring"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	seed := flag.Int64("seed", 0, "override the session seed (0 keeps the config value)")
	rounds := flag.Int("rounds", 1, "number of rounds to run")
	logEvery := flag.Int("log-every", 60, "ticks between progress lines")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg := game.DefaultConfig()
	if *configPath != "" {
		fileCfg, err := config.LoadAndValidate(*configPath)
		if err != nil {
			logger.Error("load config", "path", *configPath, "error", err)
			os.Exit(1)
		}
		cfg = fileCfg.GameConfig()
	}
	if *seed != 0 {
		cfg.Session.Seed = *seed
	}
	// Headless runs drive the clock through Step. Park the wall
	// clock timer so it never fires on its own, and shed updates
	// since nobody is subscribed.
	cfg.Session.TickInterval = time.Hour
	cfg.Session.DropUpdates = true

	g := game.New(cfg)
	defer g.Close()

	ctx := context.Background()

	player, err := g.Join(ctx, "sim")
	if err != nil {
		logger.Error("join game", "error", err)
		os.Exit(1)
	}

	strat := bot.NewMomentum(cfg.Session.Seed + 1)

	for round := 0; round < *rounds; round++ {
		if err := g.StartRound(ctx); err != nil {
			if errors.Is(err, game.ErrNoRoundsLeft) {
				break
			}
			logger.Error("start round", "error", err)
			os.Exit(1)
		}
		logger.Info("round started", "round", g.Round(), "seed", cfg.Session.Seed)

		if err := runRound(ctx, g, player.ID, strat, logger, *logEvery); err != nil {
			logger.Error("run round", "round", g.Round(), "error", err)
			os.Exit(1)
		}

		result, err := g.FinishRound(ctx, player.ID, time.Now().UnixNano())
		if err != nil {
			logger.Error("finish round", "round", g.Round(), "error", err)
			os.Exit(1)
		}
		report(logger, g.Round(), result)
	}
}

func runRound(ctx context.Context, g *game.Game, playerID string, strat bot.Strategy, logger *slog.Logger, logEvery int) error {
	svc := g.Session()

	for {
		if err := svc.Step(ctx); err != nil {
			return err
		}

		snap, err := svc.Snapshot(ctx)
		if err != nil {
			return err
		}

		player, err := svc.Player(ctx, playerID)
		if err != nil {
			return err
		}
		for _, intent := range strat.Step(bot.View{Tick: snap.Tick, Stocks: snap.Stocks, Player: player}) {
			// Rejections are part of a naive strategy's life.
			_, _, _ = svc.ExecuteTrade(ctx, playerID, intent.StockID, intent.Action, intent.Quantity)
		}

		if logEvery > 0 && snap.Tick%logEvery == 0 {
			logger.Info("session progress", "tick", snap.Tick, "length", snap.SessionLength)
		}
		if snap.Tick >= snap.SessionLength {
			return nil
		}
	}
}

func report(logger *slog.Logger, round int, result game.RoundResult) {
	s := result.Score
	logger.Info("round complete",
		"round", round,
		"pnl", s.PnL,
		"pnl_score", s.PnLScore,
		"max_drawdown", s.MaxDrawdown,
		"risk_score", s.RiskScore,
		"win_rate", s.WinRate,
		"accuracy_score", s.AccuracyScore,
		"speed_score", s.SpeedScore,
		"challenge_bonus", s.ChallengeBonus,
		"total", s.TotalScore,
		"level", scoring.ConfigForLevel(s.Level).Label,
	)
	for _, id := range s.Badges {
		logger.Info("badge earned", "round", round, "badge", id)
	}
	for _, ch := range result.Challenges {
		logger.Info("challenge", "round", round, "id", ch.ChallengeID, "progress", ch.Progress, "completed", ch.Completed)
	}
}
