// Package config loads game configuration from YAML files with
// environment variable expansion.
package config

import (
	"fmt"
	"time"

	"github.com/zappabad/microcap/internal/game"
	"github.com/zappabad/microcap/internal/market"
	"github.com/zappabad/microcap/internal/session/service"
)

// FileConfig is the root of a YAML config file. Zero fields keep
// their built-in defaults.
type FileConfig struct {
	Game    GameConfig    `yaml:"game"`
	Session SessionConfig `yaml:"session"`
	Catalog []SeedConfig  `yaml:"catalog"`
}

// GameConfig holds round settings.
type GameConfig struct {
	MaxRounds int `yaml:"max_rounds"`
}

// SessionConfig holds the session timer and ledger settings.
type SessionConfig struct {
	TickInterval     time.Duration `yaml:"tick_interval"`
	SpeedMultipliers []float64     `yaml:"speed_multipliers"`
	SessionLength    int           `yaml:"session_length"`
	StartingCash     float64       `yaml:"starting_cash"`
	Seed             int64         `yaml:"seed"`
	UpdateBuffer     int           `yaml:"update_buffer"`
}

// SeedConfig describes one instrument in the session universe.
type SeedConfig struct {
	Ticker           string  `yaml:"ticker"`
	Name             string  `yaml:"name"`
	Price            float64 `yaml:"price"`
	Volatility       float64 `yaml:"volatility"`
	Sector           string  `yaml:"sector"`
	FloatShares      int64   `yaml:"float_shares"`
	TotalShares      int64   `yaml:"total_shares"`
	ShortInterestPct float64 `yaml:"short_interest_pct"`
}

// Validate rejects configs that could not run a session.
func (c *FileConfig) Validate() error {
	if c.Game.MaxRounds < 0 {
		return fmt.Errorf("game.max_rounds must not be negative, got %d", c.Game.MaxRounds)
	}
	if c.Session.SessionLength < 0 {
		return fmt.Errorf("session.session_length must not be negative, got %d", c.Session.SessionLength)
	}
	if c.Session.StartingCash < 0 {
		return fmt.Errorf("session.starting_cash must not be negative, got %v", c.Session.StartingCash)
	}
	for i, m := range c.Session.SpeedMultipliers {
		if m <= 0 {
			return fmt.Errorf("session.speed_multipliers[%d] must be positive, got %v", i, m)
		}
	}
	for i, s := range c.Catalog {
		if s.Ticker == "" {
			return fmt.Errorf("catalog[%d]: ticker is required", i)
		}
		if s.Price <= 0 {
			return fmt.Errorf("catalog[%d] (%s): price must be positive, got %v", i, s.Ticker, s.Price)
		}
		if s.FloatShares <= 0 {
			return fmt.Errorf("catalog[%d] (%s): float_shares must be positive, got %d", i, s.Ticker, s.FloatShares)
		}
	}
	return nil
}

// GameConfig converts the file config into a runnable game.Config,
// filling unset fields from the defaults.
func (c *FileConfig) GameConfig() game.Config {
	cfg := game.DefaultConfig()

	if c.Game.MaxRounds > 0 {
		cfg.MaxRounds = c.Game.MaxRounds
	}
	cfg.Session = c.sessionConfig(cfg.Session)
	if len(c.Catalog) > 0 {
		cfg.Catalog = c.catalog()
	}

	return cfg
}

func (c *FileConfig) sessionConfig(base service.Config) service.Config {
	if c.Session.TickInterval > 0 {
		base.TickInterval = c.Session.TickInterval
	}
	if len(c.Session.SpeedMultipliers) > 0 {
		base.SpeedMultipliers = c.Session.SpeedMultipliers
	}
	if c.Session.SessionLength > 0 {
		base.SessionLength = c.Session.SessionLength
	}
	if c.Session.StartingCash > 0 {
		base.StartingCash = c.Session.StartingCash
	}
	if c.Session.Seed != 0 {
		base.Seed = c.Session.Seed
	}
	if c.Session.UpdateBuffer > 0 {
		base.UpdateBuffer = c.Session.UpdateBuffer
	}
	return base
}

func (c *FileConfig) catalog() []market.Seed {
	seeds := make([]market.Seed, len(c.Catalog))
	for i, s := range c.Catalog {
		seeds[i] = market.Seed{
			Ticker:           s.Ticker,
			Name:             s.Name,
			Price:            s.Price,
			Volatility:       s.Volatility,
			Sector:           s.Sector,
			FloatShares:      s.FloatShares,
			TotalShares:      s.TotalShares,
			ShortInterestPct: s.ShortInterestPct,
		}
	}
	return seeds
}
