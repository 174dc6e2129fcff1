package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zappabad/microcap/internal/challenge"
	"github.com/zappabad/microcap/internal/ledger"
	"github.com/zappabad/microcap/internal/market"
)

func newScoredPlayer(totalValue float64, trades ...ledger.Trade) *ledger.Player {
	p := ledger.NewPlayer("trader", ledger.StartingCash)
	p.TotalValue = totalValue
	p.TradeHistory = trades
	return p
}

func roundTrip(stock market.StockID, at int64, entry, exit float64, qty int64) []ledger.Trade {
	return []ledger.Trade{
		{StockID: stock, Action: ledger.ActionBuy, Quantity: qty, Price: entry, Time: at},
		{StockID: stock, Action: ledger.ActionSell, Quantity: qty, Price: exit, Time: at + 1},
	}
}

func TestPnLScoreHundredDollarsIsFullWeight(t *testing.T) {
	p := newScoredPlayer(10_100)
	score := Score(p, nil, 1, 10, nil)

	assert.InDelta(t, 100, score.PnL, 1e-9)
	assert.InDelta(t, 35, score.PnLScore, 1e-9)
}

func TestPnLScoreMonotonicInProfit(t *testing.T) {
	low := Score(newScoredPlayer(10_050), nil, 1, 10, nil)
	high := Score(newScoredPlayer(10_200), nil, 1, 10, nil)

	assert.Greater(t, high.PnLScore, low.PnLScore)
}

func TestRiskScoreDecreasesWithDrawdownUntilFloor(t *testing.T) {
	assert.InDelta(t, 25, riskSubScore(0), 1e-9)
	assert.InDelta(t, 20, riskSubScore(0.10), 1e-9)
	assert.InDelta(t, 0, riskSubScore(0.50), 1e-9)
	// Floored: beyond 50% drawdown it cannot go negative.
	assert.InDelta(t, 0, riskSubScore(0.90), 1e-9)
	assert.Greater(t, riskSubScore(0.10), riskSubScore(0.30))
}

func TestAccuracyScore(t *testing.T) {
	// One winning close, one losing close.
	trades := append(roundTrip("x", 0, 5, 6, 10), roundTrip("x", 10, 5, 4, 10)...)
	score := Score(newScoredPlayer(10_000, trades...), nil, 1, 10, nil)

	assert.InDelta(t, 0.5, score.WinRate, 1e-9)
	assert.InDelta(t, 25, score.AccuracyScore, 1e-9)
}

func TestSpeedScore(t *testing.T) {
	assert.InDelta(t, 30, speedSubScore(1, 10), 1e-9)
	assert.InDelta(t, 0, speedSubScore(10, 10), 1e-9)
	// A single-round budget always earns full marks.
	assert.InDelta(t, 30, speedSubScore(1, 1), 1e-9)
	assert.Greater(t, speedSubScore(2, 10), speedSubScore(8, 10))
}

func TestChallengeBonusAddsToTotal(t *testing.T) {
	progresses := []challenge.Progress{{ChallengeID: challenge.ScalpMaster, Completed: true}}

	without := Score(newScoredPlayer(10_000), nil, 1, 10, nil)
	with := Score(newScoredPlayer(10_000), nil, 1, 10, progresses)

	assert.InDelta(t, 750, with.ChallengeBonus, 1e-9)
	assert.InDelta(t, without.TotalScore+750, with.TotalScore, 1e-9)
}

func TestTotalScoreNeverNegative(t *testing.T) {
	// A catastrophic round: deep loss, max drawdown, no wins.
	trades := roundTrip("x", 0, 100, 1, 90)
	score := Score(newScoredPlayer(1_000, trades...), nil, 10, 10, nil)

	assert.GreaterOrEqual(t, score.TotalScore, 0.0)
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		total float64
		want  int
	}{
		{0, 1},
		{499, 1},
		{500, 2},
		{1499, 3},
		{2500, 6},
		{10_000, 6},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFor(tt.total), "total=%v", tt.total)
	}
}

func TestConfigForLevelClamps(t *testing.T) {
	assert.Equal(t, "Intern", ConfigForLevel(0).Label)
	assert.Equal(t, "Intern", ConfigForLevel(1).Label)
	assert.Equal(t, "Managing Dir", ConfigForLevel(6).Label)
	assert.Equal(t, "Managing Dir", ConfigForLevel(99).Label)

	require.Len(t, Levels(), 6)
	assert.InDelta(t, 2.5, ConfigForLevel(6).VolatilityMultiplier, 1e-9)
}

func TestMaxDrawdownLongPosition(t *testing.T) {
	// Buy 100 @ $10, scale out 50 @ $5 (trough), then 50 @ $20.
	trades := []ledger.Trade{
		{StockID: "x", Action: ledger.ActionBuy, Quantity: 100, Price: 10, Time: 1},
		{StockID: "x", Action: ledger.ActionSell, Quantity: 50, Price: 5, Time: 2},
		{StockID: "x", Action: ledger.ActionSell, Quantity: 50, Price: 20, Time: 3},
	}
	p := newScoredPlayer(10_250, trades...)

	// Equity at the $5 sell: cash 9,250 + 50 shares marked at $5 =
	// 9,500 against a 10,000 peak.
	assert.InDelta(t, 0.05, MaxDrawdown(p, nil), 1e-9)
}

func TestMaxDrawdownShortPosition(t *testing.T) {
	trades := []ledger.Trade{
		{StockID: "x", Action: ledger.ActionShort, Quantity: 100, Price: 10, Time: 1},
		{StockID: "x", Action: ledger.ActionCover, Quantity: 100, Price: 15, Time: 2},
	}
	p := newScoredPlayer(9_500, trades...)

	assert.InDelta(t, 0.05, MaxDrawdown(p, nil), 1e-9)
}

func TestMaxDrawdownNoTrades(t *testing.T) {
	assert.Zero(t, MaxDrawdown(newScoredPlayer(10_000), nil))
}

func TestBadgeFirstBlood(t *testing.T) {
	win := Score(newScoredPlayer(10_010, roundTrip("x", 0, 5, 6, 10)...), nil, 1, 10, nil)
	loss := Score(newScoredPlayer(9_990, roundTrip("x", 0, 5, 4, 10)...), nil, 1, 10, nil)

	assert.Contains(t, win.Badges, BadgeFirstBlood)
	assert.NotContains(t, loss.Badges, BadgeFirstBlood)
}

func TestBadgePaperHands(t *testing.T) {
	tests := []struct {
		name  string
		entry float64
		exit  float64
		want  bool
	}{
		{"2% loss", 100, 98, true},
		{"exactly 3% loss", 100, 97, true},
		{"5% loss", 100, 95, false},
		{"profitable", 100, 105, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := Score(newScoredPlayer(10_000, roundTrip("x", 0, tt.entry, tt.exit, 10)...), nil, 1, 10, nil)
			if tt.want {
				assert.Contains(t, score.Badges, BadgePaperHands)
			} else {
				assert.NotContains(t, score.Badges, BadgePaperHands)
			}
		})
	}
}

func TestBadgeTheBigShortRequiresShortProfits(t *testing.T) {
	// Short 1,000 @ $10, cover @ $4: $6,000 profit, over half of
	// starting cash.
	shortTrades := []ledger.Trade{
		{StockID: "x", Action: ledger.ActionShort, Quantity: 1000, Price: 10, Time: 1},
		{StockID: "x", Action: ledger.ActionCover, Quantity: 1000, Price: 4, Time: 2},
	}
	withShorts := Score(newScoredPlayer(16_000, shortTrades...), nil, 1, 10, nil)
	assert.Contains(t, withShorts.Badges, BadgeTheBigShort)

	// The same profit made long does not count.
	longTrades := roundTrip("x", 0, 4, 10, 1000)
	withLongs := Score(newScoredPlayer(16_000, longTrades...), nil, 1, 10, nil)
	assert.NotContains(t, withLongs.Badges, BadgeTheBigShort)
}

func TestBadgeDiversified(t *testing.T) {
	stocks := []market.Stock{
		{ID: "a", Sector: market.SectorTechnology, Price: 5},
		{ID: "b", Sector: market.SectorEnergy, Price: 5},
		{ID: "c", Sector: market.SectorFinance, Price: 5},
		{ID: "d", Sector: market.SectorFinance, Price: 5},
	}

	p := newScoredPlayer(10_000)
	p.Portfolio = map[market.StockID]int64{"a": 10, "b": 10, "c": -10}
	score := Score(p, stocks, 1, 10, nil)
	assert.Contains(t, score.Badges, BadgeDiversified, "short exposure counts toward sector spread")

	// Two sectors across three instruments is not diversified.
	p2 := newScoredPlayer(10_000)
	p2.Portfolio = map[market.StockID]int64{"b": 10, "c": 10, "d": 10}
	score2 := Score(p2, stocks, 1, 10, nil)
	assert.NotContains(t, score2.Badges, BadgeDiversified)
}

func TestBadgeSpeedDemon(t *testing.T) {
	fast := Score(newScoredPlayer(10_000), nil, 4, 10, nil)
	slow := Score(newScoredPlayer(10_000), nil, 5, 10, nil)

	assert.Contains(t, fast.Badges, BadgeSpeedDemon)
	assert.NotContains(t, slow.Badges, BadgeSpeedDemon)
}

func TestBadgeDiamondHands(t *testing.T) {
	// Rides a 50% drawdown on the position and still exits up.
	trades := []ledger.Trade{
		{StockID: "x", Action: ledger.ActionBuy, Quantity: 1000, Price: 5, Time: 1},
		{StockID: "x", Action: ledger.ActionSell, Quantity: 1, Price: 2, Time: 2},
		{StockID: "x", Action: ledger.ActionSell, Quantity: 999, Price: 8, Time: 3},
	}
	score := Score(newScoredPlayer(13_000, trades...), nil, 1, 10, nil)

	assert.GreaterOrEqual(t, score.MaxDrawdown, 0.20)
	assert.Contains(t, score.Badges, BadgeDiamondHands)
}
