package book

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/zappabad/microcap/internal/market"
	"github.com/zappabad/microcap/internal/rng"
)

// Bid prices strictly decrease, ask prices strictly increase, and the
// spread is non-negative for any price, volatility, and seed.
func TestProperty_BookOrdering(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := market.Stock{
			Price:      rapid.Float64Range(0.02, 100).Draw(t, "price"),
			Volatility: rapid.Float64Range(0.01, 0.25).Draw(t, "volatility"),
			Float:      market.Float{FloatShares: rapid.Int64Range(1_000_000, 50_000_000).Draw(t, "float")},
		}
		src := rng.New(rapid.Int64().Draw(t, "seed"))

		b := Generate(s, src)

		for i := 1; i < len(b.Bids); i++ {
			if b.Bids[i].Price >= b.Bids[i-1].Price {
				t.Fatalf("bids not strictly decreasing at %d: %v >= %v", i, b.Bids[i].Price, b.Bids[i-1].Price)
			}
		}
		for i := 1; i < len(b.Asks); i++ {
			if b.Asks[i].Price <= b.Asks[i-1].Price {
				t.Fatalf("asks not strictly increasing at %d: %v <= %v", i, b.Asks[i].Price, b.Asks[i-1].Price)
			}
		}

		bid, hasBid := b.BestBid()
		ask, hasAsk := b.BestAsk()
		if hasBid && hasAsk && ask.Price-bid.Price < 0 {
			t.Fatalf("crossed book: bid %v > ask %v", bid.Price, ask.Price)
		}
		if b.Spread < 0 {
			t.Fatalf("negative spread %v", b.Spread)
		}
	})
}

// Skew never drops a level below the minimum size and never reorders
// prices.
func TestProperty_SkewPreservesOrderingAndFloor(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := market.Stock{
			Price:      rapid.Float64Range(0.02, 100).Draw(t, "price"),
			Volatility: rapid.Float64Range(0.01, 0.25).Draw(t, "volatility"),
			Float:      market.Float{FloatShares: 8_500_000},
		}
		src := rng.New(rapid.Int64().Draw(t, "seed"))
		momentum := rapid.Float64Range(-0.5, 0.5).Draw(t, "momentum")

		b := Skew(Generate(s, src), momentum)

		for i := 1; i < len(b.Bids); i++ {
			if b.Bids[i].Price >= b.Bids[i-1].Price {
				t.Fatalf("skew reordered bids")
			}
		}
		for i := 1; i < len(b.Asks); i++ {
			if b.Asks[i].Price <= b.Asks[i-1].Price {
				t.Fatalf("skew reordered asks")
			}
		}
		for _, lvl := range append(append([]market.Level{}, b.Bids...), b.Asks...) {
			if lvl.Size < minLevelSize && momentum != 0 {
				// Thickened sides keep their size; thinned sides floor at minLevelSize.
				// Generated sizes start well above the floor either way.
				t.Fatalf("level size %d below floor", lvl.Size)
			}
		}
	})
}
