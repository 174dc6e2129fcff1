// Package bot runs scripted traders against a session. Bots fill the
// tape during solo play and give the headless simulator something to
// score.
package bot

import (
	"github.com/zappabad/microcap/internal/ledger"
	"github.com/zappabad/microcap/internal/market"
	"github.com/zappabad/microcap/internal/rng"
)

// Intent is one trade a strategy wants executed.
type Intent struct {
	StockID  market.StockID
	Action   ledger.Action
	Quantity int64
}

// View is the read-only state a strategy sees on each tick.
type View struct {
	Tick   int
	Stocks []market.Stock
	Player *ledger.Player
}

// Strategy decides what to trade on each tick. Implementations must
// be deterministic given their own seed; the runner supplies no
// randomness.
type Strategy interface {
	Step(v View) []Intent
}

// Momentum chases strength and dumps weakness, holding at most one
// position per instrument.
type Momentum struct {
	src rng.Source

	// ActRate is the chance of doing anything on a given tick.
	ActRate float64
	// MaxQuantity caps the share size of an opening trade.
	MaxQuantity int
}

// NewMomentum creates a momentum strategy with its own seed.
func NewMomentum(seed int64) *Momentum {
	return &Momentum{
		src:         rng.New(seed),
		ActRate:     0.3,
		MaxQuantity: 50,
	}
}

// Step implements Strategy.
func (m *Momentum) Step(v View) []Intent {
	if len(v.Stocks) == 0 || v.Player == nil || m.src.Float64() >= m.ActRate {
		return nil
	}

	s := v.Stocks[m.src.Intn(len(v.Stocks))]
	if s.Halted || len(s.PriceHistory) < 2 {
		return nil
	}

	held := v.Player.Position(s.ID)
	rising := s.Price > s.PriceHistory[len(s.PriceHistory)-2]
	qty := int64(10 + m.src.Intn(m.MaxQuantity-9))

	switch {
	case held > 0 && !rising:
		return []Intent{{StockID: s.ID, Action: ledger.ActionSell, Quantity: held}}
	case held < 0 && rising:
		return []Intent{{StockID: s.ID, Action: ledger.ActionCover, Quantity: -held}}
	case held == 0 && rising:
		return []Intent{{StockID: s.ID, Action: ledger.ActionBuy, Quantity: qty}}
	case held == 0 && !rising:
		return []Intent{{StockID: s.ID, Action: ledger.ActionShort, Quantity: qty}}
	}
	return nil
}
