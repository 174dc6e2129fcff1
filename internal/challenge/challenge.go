// Package challenge evaluates session challenges over a player's
// trade history. Evaluators are pure reads: they never mutate the
// player or the stocks.
package challenge

import (
	"math"

	"github.com/zappabad/microcap/internal/ledger"
	"github.com/zappabad/microcap/internal/market"
)

// ID identifies a challenge.
type ID string

const (
	ShortTheTop   ID = "short-the-top"
	CatchTheKnife ID = "catch-the-knife"
	ScalpMaster   ID = "scalp-master"
)

// Definition describes one challenge and its score reward.
type Definition struct {
	ID          ID
	Name        string
	Description string
	Reward      float64
}

// Progress is a player's state on one challenge. Derived on demand,
// never persisted.
type Progress struct {
	ChallengeID ID
	PlayerID    string
	Completed   bool
	Progress    float64 // 0..1
	CompletedAt int64   // unix nanos; 0 when incomplete
}

const (
	parabolicRise        = 0.30
	capitulationDrop     = 0.25
	trailingWindow       = 5
	scalpStreakTarget    = 10
	knifeBottomTolerance = 0.05
)

// Definitions returns the challenge catalog.
func Definitions() []Definition {
	return []Definition{
		{
			ID:          ShortTheTop,
			Name:        "Short the Top",
			Description: "Sell a stock that has gone parabolic (30%+ rise in 5 ticks)",
			Reward:      500,
		},
		{
			ID:          CatchTheKnife,
			Name:        "Catch the Knife",
			Description: "Buy a capitulating stock near its bottom",
			Reward:      500,
		},
		{
			ID:          ScalpMaster,
			Name:        "Scalp Master",
			Description: "Complete 10 consecutive profitable trades",
			Reward:      750,
		},
	}
}

// ByID returns the definition for an id.
func ByID(id ID) (Definition, bool) {
	for _, d := range Definitions() {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}

// TotalBonus sums the rewards of completed challenges.
func TotalBonus(progresses []Progress) float64 {
	var total float64
	for _, p := range progresses {
		if !p.Completed {
			continue
		}
		if def, ok := ByID(p.ChallengeID); ok {
			total += def.Reward
		}
	}
	return total
}

// Evaluate computes progress on every challenge for the player. now is
// stamped onto newly completed entries.
func Evaluate(p *ledger.Player, stocks []market.Stock, now int64) []Progress {
	byID := make(map[market.StockID]market.Stock, len(stocks))
	for _, s := range stocks {
		byID[s.ID] = s
	}

	return []Progress{
		evalShortTheTop(p, byID, now),
		evalCatchTheKnife(p, byID, now),
		evalScalpMaster(p, now),
	}
}

// evalShortTheTop: any sell or short on a stock whose trailing window
// shows a parabolic rise.
func evalShortTheTop(p *ledger.Player, stocks map[market.StockID]market.Stock, now int64) Progress {
	completed := false
	for _, t := range p.TradeHistory {
		if t.Action != ledger.ActionSell && t.Action != ledger.ActionShort {
			continue
		}
		if s, ok := stocks[t.StockID]; ok && isParabolic(s) {
			completed = true
			break
		}
	}
	return progressFor(ShortTheTop, p.ID, completed, boolProgress(completed), now)
}

// evalCatchTheKnife: any buy on a capitulating stock within tolerance
// of the trailing window's low.
func evalCatchTheKnife(p *ledger.Player, stocks map[market.StockID]market.Stock, now int64) Progress {
	completed := false
	for _, t := range p.TradeHistory {
		if t.Action != ledger.ActionBuy {
			continue
		}
		s, ok := stocks[t.StockID]
		if ok && isCapitulating(s) && isNearBottom(t.Price, s) {
			completed = true
			break
		}
	}
	return progressFor(CatchTheKnife, p.ID, completed, boolProgress(completed), now)
}

// evalScalpMaster: current streak of consecutive profitable closes,
// with partial credit.
func evalScalpMaster(p *ledger.Player, now int64) Progress {
	streak := profitableStreak(p.TradeHistory)
	progress := math.Min(float64(streak)/scalpStreakTarget, 1)
	return progressFor(ScalpMaster, p.ID, streak >= scalpStreakTarget, progress, now)
}

// profitableStreak counts the trailing run of profitable FIFO closes.
func profitableStreak(trades []ledger.Trade) int {
	closed := ledger.MatchClosedTrades(trades)
	streak := 0
	for i := len(closed) - 1; i >= 0; i-- {
		if !closed[i].Profitable {
			break
		}
		streak++
	}
	return streak
}

func trailingPrices(s market.Stock) []float64 {
	h := s.PriceHistory
	if len(h) > trailingWindow {
		h = h[len(h)-trailingWindow:]
	}
	return h
}

func isParabolic(s market.Stock) bool {
	recent := trailingPrices(s)
	if len(recent) < 2 {
		return false
	}
	start, end := recent[0], recent[len(recent)-1]
	return start > 0 && (end-start)/start >= parabolicRise
}

func isCapitulating(s market.Stock) bool {
	recent := trailingPrices(s)
	if len(recent) < 2 {
		return false
	}
	start, end := recent[0], recent[len(recent)-1]
	return start > 0 && (start-end)/start >= capitulationDrop
}

func isNearBottom(buyPrice float64, s market.Stock) bool {
	recent := trailingPrices(s)
	if len(recent) == 0 {
		return false
	}
	low := recent[0]
	for _, p := range recent[1:] {
		if p < low {
			low = p
		}
	}
	return low > 0 && math.Abs(buyPrice-low)/low <= knifeBottomTolerance
}

func boolProgress(done bool) float64 {
	if done {
		return 1
	}
	return 0
}

func progressFor(id ID, playerID string, completed bool, progress float64, now int64) Progress {
	pr := Progress{
		ChallengeID: id,
		PlayerID:    playerID,
		Completed:   completed,
		Progress:    progress,
	}
	if completed {
		pr.CompletedAt = now
	}
	return pr
}
