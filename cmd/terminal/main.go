package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/zappabad/microcap/internal/config"
	"github.com/zappabad/microcap/internal/game"
	"github.com/zappabad/microcap/tui"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	playerName := flag.String("player", "Trader", "player display name")
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

	g := game.New(cfg)
	defer g.Close()

	ctx := context.Background()

	player, err := g.Join(ctx, *playerName)
	if err != nil {
		logger.Error("join game", "error", err)
		os.Exit(1)
	}

	if err := g.StartRound(ctx); err != nil {
		logger.Error("start round", "error", err)
		os.Exit(1)
	}

	model := tui.NewModel(g, player.ID)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Error("run tui", "error", err)
		os.Exit(1)
	}
}
