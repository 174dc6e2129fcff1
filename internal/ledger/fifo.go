package ledger

import (
	"sort"

	"github.com/zappabad/microcap/internal/market"
)

// ClosedTrade is one matched chunk produced by the FIFO walk: a
// closing trade consumed part (or all) of an open lot.
type ClosedTrade struct {
	StockID    market.StockID
	EntryPrice float64
	ExitPrice  float64
	Quantity   int64
	Short      bool // true when the lot was a short sale
	Profitable bool
}

// Lot is a still-open chunk of exposure.
type Lot struct {
	Price     float64
	Remaining int64
	Short     bool
}

// MatchClosedTrades walks a trade history in chronological order and
// matches closing trades against the oldest open opposing lots first.
// Long lots (buys) are consumed by sells; short lots are consumed by
// covers. This is the single matcher shared by scoring and challenge
// evaluation.
func MatchClosedTrades(trades []Trade) []ClosedTrade {
	closed, _ := matchFIFO(trades)
	return closed
}

// OpenLots returns the still-open lots per stock after the FIFO walk,
// in age order.
func OpenLots(trades []Trade) map[market.StockID][]Lot {
	_, open := matchFIFO(trades)
	return open
}

// UnrealizedPnL marks every open lot against current quotes. Long lots
// gain when price rises, short lots when it falls.
func UnrealizedPnL(trades []Trade, quotes map[market.StockID]float64) float64 {
	var pnl float64
	for id, lots := range OpenLots(trades) {
		quote, ok := quotes[id]
		if !ok {
			continue
		}
		for _, lot := range lots {
			diff := quote - lot.Price
			if lot.Short {
				diff = -diff
			}
			pnl += diff * float64(lot.Remaining)
		}
	}
	return pnl
}

func matchFIFO(trades []Trade) ([]ClosedTrade, map[market.StockID][]Lot) {
	sorted := append([]Trade(nil), trades...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	longs := make(map[market.StockID][]Lot)
	shorts := make(map[market.StockID][]Lot)
	var closed []ClosedTrade

	for _, t := range sorted {
		switch t.Action {
		case ActionBuy:
			longs[t.StockID] = append(longs[t.StockID], Lot{Price: t.Price, Remaining: t.Quantity})
		case ActionShort:
			shorts[t.StockID] = append(shorts[t.StockID], Lot{Price: t.Price, Remaining: t.Quantity, Short: true})
		case ActionSell:
			closed = consume(longs, t, false, closed)
		case ActionCover:
			closed = consume(shorts, t, true, closed)
		}
	}

	open := make(map[market.StockID][]Lot)
	for id, lots := range longs {
		if len(lots) > 0 {
			open[id] = append(open[id], lots...)
		}
	}
	for id, lots := range shorts {
		if len(lots) > 0 {
			open[id] = append(open[id], lots...)
		}
	}
	return closed, open
}

func consume(queues map[market.StockID][]Lot, t Trade, short bool, closed []ClosedTrade) []ClosedTrade {
	queue := queues[t.StockID]
	remaining := t.Quantity

	for remaining > 0 && len(queue) > 0 {
		front := &queue[0]
		filled := min64(remaining, front.Remaining)

		profitable := t.Price > front.Price
		if short {
			profitable = t.Price < front.Price
		}
		closed = append(closed, ClosedTrade{
			StockID:    t.StockID,
			EntryPrice: front.Price,
			ExitPrice:  t.Price,
			Quantity:   filled,
			Short:      short,
			Profitable: profitable,
		})

		front.Remaining -= filled
		remaining -= filled
		if front.Remaining <= 0 {
			queue = queue[1:]
		}
	}

	queues[t.StockID] = queue
	return closed
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
