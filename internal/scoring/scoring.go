// Package scoring turns a player's ledger into a composite round
// score, a level, and a set of badges. Everything here is a pure read
// over the player, the stock set, and the challenge progress.
package scoring

import (
	"sort"

	"github.com/zappabad/microcap/internal/challenge"
	"github.com/zappabad/microcap/internal/ledger"
	"github.com/zappabad/microcap/internal/market"
)

// Sub-score weights. Each weighted component contributes at most
// roughly its weight in points at the reference performance bands.
const (
	pnlScale       = 35
	riskWeight     = 25
	accuracyWeight = 25
	speedWeight    = 15
)

const (
	levelStep = 500
	maxLevel  = 6
)

// BadgeID identifies a badge.
type BadgeID string

const (
	BadgeFirstBlood   BadgeID = "first-blood"
	BadgeDiamondHands BadgeID = "diamond-hands"
	BadgePaperHands   BadgeID = "paper-hands"
	BadgeTheBigShort  BadgeID = "the-big-short"
	BadgeDiversified  BadgeID = "diversified"
	BadgeSpeedDemon   BadgeID = "speed-demon"
)

// Badge is a display definition for one badge.
type Badge struct {
	ID          BadgeID
	Name        string
	Description string
}

// AllBadges returns the badge catalog in display order.
func AllBadges() []Badge {
	return []Badge{
		{BadgeDiamondHands, "Diamond Hands", "Held through 20%+ drawdown and recovered to profit"},
		{BadgePaperHands, "Paper Hands", "Closed a trade within 3% loss of entry"},
		{BadgeTheBigShort, "The Big Short", "50%+ of starting cash earned from short sells"},
		{BadgeFirstBlood, "First Blood", "Completed first profitable trade"},
		{BadgeDiversified, "Diversified", "Held positions in 3+ sectors simultaneously"},
		{BadgeSpeedDemon, "Speed Demon", "Finished in under half the max rounds"},
	}
}

// PlayerScore is the full scoring breakdown for one player.
type PlayerScore struct {
	PlayerID       string
	PnL            float64
	PnLScore       float64
	MaxDrawdown    float64
	RiskScore      float64
	WinRate        float64
	AccuracyScore  float64
	RoundsUsed     int
	SpeedScore     float64
	ChallengeBonus float64
	TotalScore     float64
	Level          int
	Badges         []BadgeID
}

// LevelConfig carries the difficulty knobs a level unlocks for the
// next round.
type LevelConfig struct {
	Level                int
	Label                string
	VolatilityMultiplier float64
	TickSpeedMultiplier  float64
	BlackSwanChance      float64
}

var levelConfigs = []LevelConfig{
	{Level: 1, Label: "Intern", VolatilityMultiplier: 1.0, TickSpeedMultiplier: 1.0, BlackSwanChance: 0},
	{Level: 2, Label: "Analyst", VolatilityMultiplier: 1.2, TickSpeedMultiplier: 0.9, BlackSwanChance: 0.05},
	{Level: 3, Label: "Associate", VolatilityMultiplier: 1.4, TickSpeedMultiplier: 0.8, BlackSwanChance: 0.10},
	{Level: 4, Label: "VP", VolatilityMultiplier: 1.7, TickSpeedMultiplier: 0.7, BlackSwanChance: 0.15},
	{Level: 5, Label: "Director", VolatilityMultiplier: 2.0, TickSpeedMultiplier: 0.6, BlackSwanChance: 0.20},
	{Level: 6, Label: "Managing Dir", VolatilityMultiplier: 2.5, TickSpeedMultiplier: 0.5, BlackSwanChance: 0.30},
}

// Levels returns the six-tier difficulty table.
func Levels() []LevelConfig {
	out := make([]LevelConfig, len(levelConfigs))
	copy(out, levelConfigs)
	return out
}

// LevelFor maps a total score to its level tier.
func LevelFor(totalScore float64) int {
	level := int(totalScore/levelStep) + 1
	if level > maxLevel {
		return maxLevel
	}
	return level
}

// ConfigForLevel returns the difficulty config for a level, clamped to
// the valid tier range.
func ConfigForLevel(level int) LevelConfig {
	if level < 1 {
		level = 1
	}
	if level > maxLevel {
		level = maxLevel
	}
	return levelConfigs[level-1]
}

// MaxDrawdown replays the player's trades in timestamp order and
// tracks the largest peak-to-trough equity decline. Holdings are
// marked at the most recent fill price seen for each instrument, so
// the curve reflects prices as of each trade rather than end-of-round
// prices; instruments with no fill yet fall back to the current price.
func MaxDrawdown(p *ledger.Player, stocks []market.Stock) float64 {
	if len(p.TradeHistory) == 0 {
		return 0
	}

	trades := make([]ledger.Trade, len(p.TradeHistory))
	copy(trades, p.TradeHistory)
	sort.SliceStable(trades, func(i, j int) bool { return trades[i].Time < trades[j].Time })

	current := make(map[market.StockID]float64, len(stocks))
	for _, s := range stocks {
		current[s.ID] = s.Price
	}

	cash := float64(ledger.StartingCash)
	holdings := make(map[market.StockID]int64)
	marks := make(map[market.StockID]float64)
	peak := float64(ledger.StartingCash)
	maxDd := 0.0

	for _, t := range trades {
		cost := t.Price * float64(t.Quantity)
		switch t.Action {
		case ledger.ActionBuy:
			cash -= cost
			holdings[t.StockID] += t.Quantity
		case ledger.ActionCover:
			cash -= cost
			holdings[t.StockID] += t.Quantity
		case ledger.ActionSell:
			cash += cost
			holdings[t.StockID] -= t.Quantity
		case ledger.ActionShort:
			cash += cost
			holdings[t.StockID] -= t.Quantity
		}
		if holdings[t.StockID] == 0 {
			delete(holdings, t.StockID)
		}
		marks[t.StockID] = t.Price

		equity := cash
		for id, qty := range holdings {
			mark, ok := marks[id]
			if !ok {
				mark = current[id]
			}
			equity += mark * float64(qty)
		}

		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			if dd := (peak - equity) / peak; dd > maxDd {
				maxDd = dd
			}
		}
	}

	return maxDd
}

// Score computes the full breakdown for one player at round end.
func Score(p *ledger.Player, stocks []market.Stock, roundsUsed, maxRounds int, progresses []challenge.Progress) PlayerScore {
	closed := ledger.MatchClosedTrades(p.TradeHistory)
	pnl := p.TotalValue - ledger.StartingCash
	maxDd := MaxDrawdown(p, stocks)

	wins := 0
	for _, c := range closed {
		if c.Profitable {
			wins++
		}
	}
	winRate := 0.0
	if len(closed) > 0 {
		winRate = float64(wins) / float64(len(closed))
	}

	pnlScore := pnlSubScore(pnl)
	riskScore := riskSubScore(maxDd)
	accuracyScore := accuracySubScore(winRate)
	speedScore := speedSubScore(roundsUsed, maxRounds)
	bonus := challenge.TotalBonus(progresses)

	total := pnlScore + riskScore + accuracyScore + speedScore + bonus
	if total < 0 {
		total = 0
	}

	return PlayerScore{
		PlayerID:       p.ID,
		PnL:            pnl,
		PnLScore:       pnlScore,
		MaxDrawdown:    maxDd,
		RiskScore:      riskScore,
		WinRate:        winRate,
		AccuracyScore:  accuracyScore,
		RoundsUsed:     roundsUsed,
		SpeedScore:     speedScore,
		ChallengeBonus: bonus,
		TotalScore:     total,
		Level:          LevelFor(total),
		Badges:         evaluateBadges(p, stocks, closed, maxDd, roundsUsed, maxRounds),
	}
}

// pnlSubScore is linear in dollar profit: $100 of PnL is worth the
// full PnL weight.
func pnlSubScore(pnl float64) float64 {
	return pnl / 100 * pnlScale
}

func riskSubScore(maxDrawdown float64) float64 {
	raw := 100 - maxDrawdown*200
	if raw < 0 {
		raw = 0
	}
	return raw * riskWeight / 100
}

func accuracySubScore(winRate float64) float64 {
	return winRate * 200 * accuracyWeight / 100
}

func speedSubScore(roundsUsed, maxRounds int) float64 {
	if maxRounds <= 1 {
		return speedWeight * 2
	}
	ratio := 1 - float64(roundsUsed-1)/float64(maxRounds-1)
	return ratio * 200 * speedWeight / 100
}

func evaluateBadges(p *ledger.Player, stocks []market.Stock, closed []ledger.ClosedTrade, maxDrawdown float64, roundsUsed, maxRounds int) []BadgeID {
	var badges []BadgeID

	anyWin := false
	smallLoss := false
	shortProfits := 0.0
	for _, c := range closed {
		if c.Profitable {
			anyWin = true
		}
		loss := closedLossFraction(c)
		if loss > 0 && loss <= 0.03 {
			smallLoss = true
		}
		if c.Short && c.Profitable {
			shortProfits += (c.EntryPrice - c.ExitPrice) * float64(c.Quantity)
		}
	}

	if anyWin {
		badges = append(badges, BadgeFirstBlood)
	}
	if maxDrawdown >= 0.20 && p.TotalValue > ledger.StartingCash {
		badges = append(badges, BadgeDiamondHands)
	}
	if smallLoss {
		badges = append(badges, BadgePaperHands)
	}
	if shortProfits >= ledger.StartingCash*0.5 {
		badges = append(badges, BadgeTheBigShort)
	}
	if heldSectors(p, stocks) >= 3 {
		badges = append(badges, BadgeDiversified)
	}
	if roundsUsed > 0 && float64(roundsUsed) < float64(maxRounds)/2 {
		badges = append(badges, BadgeSpeedDemon)
	}

	return badges
}

// closedLossFraction is the fractional loss of a closed trade relative
// to entry, positive only when the trade lost money.
func closedLossFraction(c ledger.ClosedTrade) float64 {
	if c.EntryPrice <= 0 {
		return 0
	}
	loss := (c.EntryPrice - c.ExitPrice) / c.EntryPrice
	if c.Short {
		loss = -loss
	}
	return loss
}

// heldSectors counts distinct sectors with any open exposure, long or
// short.
func heldSectors(p *ledger.Player, stocks []market.Stock) int {
	sectorOf := make(map[market.StockID]string, len(stocks))
	for _, s := range stocks {
		sectorOf[s.ID] = s.Sector
	}
	sectors := make(map[string]struct{})
	for id, qty := range p.Portfolio {
		if qty == 0 {
			continue
		}
		if sector, ok := sectorOf[id]; ok {
			sectors[sector] = struct{}{}
		}
	}
	return len(sectors)
}
