// Package ledger holds player accounts and trade execution.
//
// Trades fill synthetically against the current book snapshot; they do
// not interact with other players. The trade history is the sole
// source of truth for cost basis, realized PnL, and evaluators.
package ledger

import (
	"errors"

	"github.com/google/uuid"

	"github.com/zappabad/microcap/internal/market"
)

// StartingCash is the default balance for a new player.
const StartingCash = 10_000

// Rejection reasons. Execution never panics; invalid trades come back
// as one of these.
var (
	ErrHalted             = errors.New("instrument is halted")
	ErrBadQuantity        = errors.New("quantity must be a positive integer")
	ErrInsufficientCash   = errors.New("insufficient cash")
	ErrInsufficientShares = errors.New("insufficient held shares")
	ErrNoShortPosition    = errors.New("no short position to cover")
)

// Action is the trade direction.
type Action string

const (
	ActionBuy   Action = "buy"
	ActionSell  Action = "sell"
	ActionShort Action = "short"
	ActionCover Action = "cover"
)

// Opens reports whether the action opens exposure (buy, short) rather
// than closing it (sell, cover).
func (a Action) Opens() bool { return a == ActionBuy || a == ActionShort }

// Trade is one executed fill. Immutable once recorded.
type Trade struct {
	ID       string
	PlayerID string
	StockID  market.StockID
	Action   Action
	Quantity int64
	Price    float64
	Time     int64 // unix nanos
}

// Player is one trading account. Portfolio quantities are signed:
// positive long, negative short. Entries are removed at zero.
type Player struct {
	ID           string
	Name         string
	Cash         float64
	Portfolio    map[market.StockID]int64
	TotalValue   float64
	TradeHistory []Trade
}

// NewPlayer creates a player with the given starting balance.
func NewPlayer(name string, cash float64) *Player {
	return &Player{
		ID:         uuid.NewString(),
		Name:       name,
		Cash:       cash,
		Portfolio:  make(map[market.StockID]int64),
		TotalValue: cash,
	}
}

// Position returns the signed quantity held for a stock.
func (p *Player) Position(id market.StockID) int64 {
	return p.Portfolio[id]
}

// Clone returns a deep copy safe for readers.
func (p *Player) Clone() *Player {
	c := *p
	c.Portfolio = make(map[market.StockID]int64, len(p.Portfolio))
	for id, qty := range p.Portfolio {
		c.Portfolio[id] = qty
	}
	c.TradeHistory = append([]Trade(nil), p.TradeHistory...)
	return &c
}

// FillPrice returns the price a trade of the given action would fill
// at right now: the best opposing book level, falling back to last
// price when that side is empty.
func FillPrice(s market.Stock, a Action) float64 {
	if a == ActionBuy || a == ActionCover {
		if ask, ok := s.Book.BestAsk(); ok {
			return ask.Price
		}
		return s.Price
	}
	if bid, ok := s.Book.BestBid(); ok {
		return bid.Price
	}
	return s.Price
}

// Execute fills a trade for the player against the stock's current
// book. The mutation is atomic: validation happens up front, and a
// rejected trade leaves the player untouched. quotes supplies current
// prices for the mark-to-market of TotalValue.
func Execute(p *Player, s market.Stock, quotes map[market.StockID]float64, a Action, quantity int64, now int64) (Trade, error) {
	if s.Halted {
		return Trade{}, ErrHalted
	}
	if quantity <= 0 {
		return Trade{}, ErrBadQuantity
	}

	fill := FillPrice(s, a)
	cost := fill * float64(quantity)
	held := p.Portfolio[s.ID]

	switch a {
	case ActionBuy:
		if p.Cash < cost {
			return Trade{}, ErrInsufficientCash
		}
	case ActionSell:
		if held < quantity {
			return Trade{}, ErrInsufficientShares
		}
	case ActionShort:
		// Proceeds-as-collateral gate: shorting requires cash cover
		// for the full notional.
		if p.Cash < cost {
			return Trade{}, ErrInsufficientCash
		}
	case ActionCover:
		if held >= 0 || -held < quantity {
			return Trade{}, ErrNoShortPosition
		}
	default:
		return Trade{}, ErrBadQuantity
	}

	switch a {
	case ActionBuy, ActionCover:
		p.Cash -= cost
		p.Portfolio[s.ID] = held + quantity
	case ActionSell, ActionShort:
		p.Cash += cost
		p.Portfolio[s.ID] = held - quantity
	}
	if p.Portfolio[s.ID] == 0 {
		delete(p.Portfolio, s.ID)
	}

	trade := Trade{
		ID:       uuid.NewString(),
		PlayerID: p.ID,
		StockID:  s.ID,
		Action:   a,
		Quantity: quantity,
		Price:    fill,
		Time:     now,
	}
	p.TradeHistory = append(p.TradeHistory, trade)
	p.TotalValue = MarkToMarket(p, quotes)

	return trade, nil
}

// MarkToMarket values the account at current prices: cash plus the
// signed value of every open position. Unknown quotes value at zero.
func MarkToMarket(p *Player, quotes map[market.StockID]float64) float64 {
	total := p.Cash
	for id, qty := range p.Portfolio {
		total += quotes[id] * float64(qty)
	}
	return total
}
