package game

import (
	"github.com/zappabad/microcap/internal/market"
	"github.com/zappabad/microcap/internal/session/service"
)

// Config holds configuration for the game.
type Config struct {
	// Catalog is the instrument seed set for each round.
	Catalog []market.Seed
	// MaxRounds is the round budget for one game.
	MaxRounds int
	// Session is the configuration for the session service.
	Session service.Config
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Catalog:   market.DefaultCatalog(),
		MaxRounds: 10,
		Session:   service.DefaultConfig(),
	}
}
