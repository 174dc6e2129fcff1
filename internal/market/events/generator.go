// Package events injects randomized market catalysts into a session.
package events

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zappabad/microcap/internal/market"
	"github.com/zappabad/microcap/internal/rng"
)

// Config tunes event frequency.
type Config struct {
	// BaseProbability gates whether any event fires on a given tick.
	BaseProbability float64
	// Cooldown is the minimum ticks between events on the same stock.
	Cooldown int
	// SectorBiasChance is the probability a biased template is
	// restricted to its sectors when picking a target.
	SectorBiasChance float64
}

// DefaultConfig returns a Config with reasonable defaults, tuned so an
// event lands every 40-80 ticks or so.
func DefaultConfig() Config {
	return Config{
		BaseProbability:  0.018,
		Cooldown:         25,
		SectorBiasChance: 0.7,
	}
}

// Generator emits at most one market event per tick.
type Generator struct {
	cfg Config
}

// NewGenerator creates a Generator.
func NewGenerator(cfg Config) *Generator {
	if cfg.BaseProbability <= 0 {
		cfg.BaseProbability = DefaultConfig().BaseProbability
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultConfig().Cooldown
	}
	if cfg.SectorBiasChance <= 0 {
		cfg.SectorBiasChance = DefaultConfig().SectorBiasChance
	}
	return &Generator{cfg: cfg}
}

// MaybeGenerate rolls for an event this tick. Halted stocks and stocks
// inside their cooldown window are never targeted. Returns nil when no
// event fires or no stock is eligible.
func (g *Generator) MaybeGenerate(stocks []market.Stock, tick int, lastEventTicks map[market.StockID]int, src rng.Source) *market.Event {
	if src.Float64() > g.cfg.BaseProbability {
		return nil
	}

	tpl := pickWeighted(src)

	respectBias := len(tpl.SectorBias) > 0 && src.Float64() < g.cfg.SectorBiasChance

	eligible := make([]market.Stock, 0, len(stocks))
	for _, s := range stocks {
		if s.Halted {
			continue
		}
		if last, ok := lastEventTicks[s.ID]; ok && tick-last < g.cfg.Cooldown {
			continue
		}
		if respectBias && !containsSector(tpl.SectorBias, s.Sector) {
			continue
		}
		eligible = append(eligible, s)
	}
	if len(eligible) == 0 {
		return nil
	}

	target := eligible[src.Intn(len(eligible))]

	impact := rng.Range(src, tpl.PriceImpactRange[0], tpl.PriceImpactRange[1])
	volImpact := rng.Range(src, tpl.VolumeImpactRange[0], tpl.VolumeImpactRange[1])
	duration := tpl.DurationRange[0] + int(src.Float64()*float64(tpl.DurationRange[1]-tpl.DurationRange[0]))

	title := fillTemplate(tpl.Titles[src.Intn(len(tpl.Titles))], target)
	description := fillTemplate(tpl.Descriptions[src.Intn(len(tpl.Descriptions))], target)

	return &market.Event{
		ID:               uuid.NewString(),
		Type:             tpl.Type,
		Title:            title,
		Description:      description,
		AffectedStockIDs: []market.StockID{target.ID},
		PriceImpact:      impact,
		VolumeImpact:     volImpact,
		Duration:         duration,
		Tick:             tick,
		Time:             time.Now().UnixNano(),
	}
}

// HaltDuration samples a halt length for the event's template. Zero
// for non-halting categories.
func HaltDuration(e market.Event, src rng.Source) int {
	tpl, ok := templateFor(e.Type)
	if !ok || !tpl.Halts {
		return 0
	}
	return tpl.HaltDuration[0] + int(src.Float64()*float64(tpl.HaltDuration[1]-tpl.HaltDuration[0]))
}

// IsHaltType reports whether the category forces a trading halt.
func IsHaltType(t market.EventType) bool {
	tpl, ok := templateFor(t)
	return ok && tpl.Halts
}

func pickWeighted(src rng.Source) Template {
	total := 0
	for _, tpl := range templates {
		total += tpl.Weight
	}
	roll := src.Float64() * float64(total)
	for _, tpl := range templates {
		roll -= float64(tpl.Weight)
		if roll <= 0 {
			return tpl
		}
	}
	return templates[0]
}

func fillTemplate(text string, s market.Stock) string {
	si := "0"
	if s.Float.FloatShares > 0 {
		si = strconv.FormatInt(s.Float.ShortInterest*100/s.Float.FloatShares, 10)
	}
	text = strings.ReplaceAll(text, "{ticker}", s.Ticker)
	text = strings.ReplaceAll(text, "{name}", s.Name)
	text = strings.ReplaceAll(text, "{si}", si)
	return text
}

func containsSector(sectors []string, sector string) bool {
	for _, s := range sectors {
		if s == sector {
			return true
		}
	}
	return false
}
