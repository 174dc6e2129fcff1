package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zappabad/microcap/internal/market"
)

func testStock(id market.StockID, price float64) market.Stock {
	return market.Stock{
		ID:     id,
		Ticker: "NXRA",
		Price:  price,
		Book: market.OrderBook{
			Bids: []market.Level{{Price: price - 0.02, Size: 5_000}},
			Asks: []market.Level{{Price: price + 0.02, Size: 5_000}},
		},
	}
}

func quotesFor(stocks ...market.Stock) map[market.StockID]float64 {
	q := make(map[market.StockID]float64)
	for _, s := range stocks {
		q[s.ID] = s.Price
	}
	return q
}

func TestExecuteBuyHappyPath(t *testing.T) {
	p := NewPlayer("trader", StartingCash)
	s := testStock("x", 5.00)
	s.Book.Asks[0].Price = 5.00

	trade, err := Execute(p, s, quotesFor(s), ActionBuy, 100, 1)
	require.NoError(t, err)

	assert.Equal(t, ActionBuy, trade.Action)
	assert.Equal(t, 5.00, trade.Price)
	assert.Equal(t, 9_500.0, p.Cash)
	assert.Equal(t, int64(100), p.Portfolio["x"])
	assert.Len(t, p.TradeHistory, 1)
}

func TestExecuteRejections(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*Player, *market.Stock)
		action  Action
		qty     int64
		wantErr error
	}{
		{
			name:    "halted instrument",
			setup:   func(p *Player, s *market.Stock) { s.Halted = true },
			action:  ActionBuy,
			qty:     10,
			wantErr: ErrHalted,
		},
		{
			name:    "zero quantity",
			action:  ActionBuy,
			qty:     0,
			wantErr: ErrBadQuantity,
		},
		{
			name:    "negative quantity",
			action:  ActionSell,
			qty:     -5,
			wantErr: ErrBadQuantity,
		},
		{
			name:    "insufficient cash",
			setup:   func(p *Player, s *market.Stock) { p.Cash = 10 },
			action:  ActionBuy,
			qty:     100,
			wantErr: ErrInsufficientCash,
		},
		{
			name:    "insufficient shares",
			action:  ActionSell,
			qty:     1,
			wantErr: ErrInsufficientShares,
		},
		{
			name:    "cover with no short",
			action:  ActionCover,
			qty:     1,
			wantErr: ErrNoShortPosition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPlayer("trader", StartingCash)
			s := testStock("x", 5.00)
			if tt.setup != nil {
				tt.setup(p, &s)
			}
			cashBefore := p.Cash

			_, err := Execute(p, s, quotesFor(s), tt.action, tt.qty, 1)
			require.ErrorIs(t, err, tt.wantErr)

			// Rejection must leave the player untouched.
			assert.Equal(t, cashBefore, p.Cash)
			assert.Empty(t, p.Portfolio)
			assert.Empty(t, p.TradeHistory)
		})
	}
}

func TestExecuteFillPriceFallsBackToLast(t *testing.T) {
	p := NewPlayer("trader", StartingCash)
	s := testStock("x", 5.00)
	s.Book = market.OrderBook{} // empty book, e.g. right after a halt lift

	trade, err := Execute(p, s, quotesFor(s), ActionBuy, 10, 1)
	require.NoError(t, err)
	assert.Equal(t, 5.00, trade.Price)
}

func TestExecuteRemovesFlatPositions(t *testing.T) {
	p := NewPlayer("trader", StartingCash)
	s := testStock("x", 5.00)

	_, err := Execute(p, s, quotesFor(s), ActionBuy, 100, 1)
	require.NoError(t, err)
	_, err = Execute(p, s, quotesFor(s), ActionSell, 100, 2)
	require.NoError(t, err)

	_, held := p.Portfolio["x"]
	assert.False(t, held, "flat position should be removed from the portfolio map")
}

func TestExecuteShortAndCover(t *testing.T) {
	p := NewPlayer("trader", StartingCash)
	s := testStock("x", 5.00)
	s.Book.Bids[0].Price = 5.00
	s.Book.Asks[0].Price = 4.00

	_, err := Execute(p, s, quotesFor(s), ActionShort, 100, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(-100), p.Portfolio["x"])
	assert.Equal(t, 10_500.0, p.Cash)

	// Cover half at a lower price.
	_, err = Execute(p, s, quotesFor(s), ActionCover, 50, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(-50), p.Portfolio["x"])
	assert.Equal(t, 10_300.0, p.Cash)

	// Covering more than the short remaining is rejected.
	_, err = Execute(p, s, quotesFor(s), ActionCover, 60, 3)
	require.ErrorIs(t, err, ErrNoShortPosition)
}

func TestRoundTripCashLaw(t *testing.T) {
	p := NewPlayer("trader", StartingCash)
	s := testStock("x", 5.00)

	var buys, sells float64
	for i, step := range []struct {
		action Action
		qty    int64
	}{
		{ActionBuy, 100},
		{ActionBuy, 50},
		{ActionSell, 120},
		{ActionSell, 30},
	} {
		trade, err := Execute(p, s, quotesFor(s), step.action, step.qty, int64(i+1))
		require.NoError(t, err)
		if step.action == ActionBuy {
			buys += trade.Price * float64(step.qty)
		} else {
			sells += trade.Price * float64(step.qty)
		}
	}

	assert.InDelta(t, StartingCash-buys+sells, p.Cash, 1e-9)
	assert.Empty(t, p.Portfolio)
}

func TestEndToEndScenario(t *testing.T) {
	// Start $10,000; buy 100 @ $5.00; mark to $6.00; sell 100 @ $6.00.
	p := NewPlayer("trader", StartingCash)
	s := testStock("x", 5.00)
	s.Book.Asks[0].Price = 5.00

	_, err := Execute(p, s, quotesFor(s), ActionBuy, 100, 1)
	require.NoError(t, err)
	assert.Equal(t, 9_500.0, p.Cash)
	assert.Equal(t, int64(100), p.Portfolio["x"])

	s.Price = 6.00
	s.Book.Bids[0].Price = 6.00
	assert.InDelta(t, 100.0, UnrealizedPnL(p.TradeHistory, quotesFor(s)), 1e-9)

	_, err = Execute(p, s, quotesFor(s), ActionSell, 100, 2)
	require.NoError(t, err)
	assert.Equal(t, 10_100.0, p.Cash)
	assert.Empty(t, p.Portfolio)
	assert.Equal(t, 10_100.0, p.TotalValue)

	closed := MatchClosedTrades(p.TradeHistory)
	require.Len(t, closed, 1)
	assert.True(t, closed[0].Profitable)
	assert.InDelta(t, 100.0, (closed[0].ExitPrice-closed[0].EntryPrice)*float64(closed[0].Quantity), 1e-9)
}
