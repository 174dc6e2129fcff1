package ledger

import (
	"testing"

	"pgregory.net/rapid"
)

// For any sequence of accepted trades, cash equals starting cash minus
// buy notionals plus sell notionals, and the portfolio entry equals
// net buys minus net sells, removed exactly at zero.
func TestProperty_LedgerRoundTripLaws(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := NewPlayer("trader", StartingCash)
		s := testStock("x", rapid.Float64Range(0.05, 50).Draw(t, "price"))
		quotes := quotesFor(s)

		var paid, received float64
		var net int64

		steps := rapid.IntRange(1, 40).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			action := ActionBuy
			if rapid.Bool().Draw(t, "sell") {
				action = ActionSell
			}
			qty := rapid.Int64Range(1, 500).Draw(t, "qty")

			trade, err := Execute(p, s, quotes, action, qty, int64(i+1))
			if err != nil {
				continue // rejected trades must not move anything
			}
			switch action {
			case ActionBuy:
				paid += trade.Price * float64(qty)
				net += qty
			case ActionSell:
				received += trade.Price * float64(qty)
				net -= qty
			}
		}

		wantCash := StartingCash - paid + received
		if diff := p.Cash - wantCash; diff > 1e-6 || diff < -1e-6 {
			t.Fatalf("cash law violated: have %v want %v", p.Cash, wantCash)
		}

		held, ok := p.Portfolio[s.ID]
		if net == 0 && ok {
			t.Fatalf("flat position still present: %d", held)
		}
		if net != 0 && held != net {
			t.Fatalf("portfolio %d != net trades %d", held, net)
		}
	})
}
