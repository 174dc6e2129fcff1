// Package book synthesizes depth-of-book snapshots.
//
// Micro-cap books are thin, wide, and lumpy. The generator derives a
// plausible snapshot from current price, volatility, and float; Skew
// then tilts it toward whichever side momentum is eating.
package book

import (
	"math"

	"github.com/zappabad/microcap/internal/market"
	"github.com/zappabad/microcap/internal/rng"
)

const (
	depth            = 8      // levels per side
	baseSizeFraction = 0.0005 // base level size as fraction of float
	volSpreadFactor  = 0.3    // volatility contribution to spread

	wallProbability = 0.12 // chance an ask level is a resistance wall

	skewThreshold = 0.02
	skewCap       = 0.8 // never thin a side past 80%
	minLevelSize  = 100
)

// Generate builds a synthetic snapshot for the stock's current state.
// Returns an empty book for non-positive prices.
func Generate(s market.Stock, src rng.Source) market.OrderBook {
	price := s.Price
	if price <= 0 {
		return market.OrderBook{}
	}

	baseSpread := 0.01
	if price < 1 {
		baseSpread = 0.005
	}
	volSpread := s.Volatility * volSpreadFactor * price
	halfSpread := (baseSpread + volSpread) / 2

	tickSize := 0.01
	if price < 1 {
		tickSize = 0.0001
	}

	bestBid := roundToTick(price-halfSpread, tickSize)
	bestAsk := roundToTick(price+halfSpread, tickSize)

	baseSize := float64(s.Float.FloatShares) * baseSizeFraction

	bids := make([]market.Level, 0, depth)
	for i := 0; i < depth; i++ {
		levelPrice := roundToTick(bestBid-float64(i)*tickSize*float64(1+src.Intn(4)), tickSize)
		if levelPrice <= 0 {
			break
		}
		// Thicker support deeper in the book, with lumpy randomness.
		depthMult := 1 + float64(i)*0.3
		size := int64(baseSize * depthMult * (0.3 + src.Float64()*1.4))
		bids = append(bids, market.Level{Price: levelPrice, Size: size})
	}

	asks := make([]market.Level, 0, depth)
	for i := 0; i < depth; i++ {
		levelPrice := roundToTick(bestAsk+float64(i)*tickSize*float64(1+src.Intn(4)), tickSize)

		// Occasional big passive seller sitting on the ask.
		wallMult := 1.0
		if src.Float64() < wallProbability {
			wallMult = rng.Range(src, 3, 8)
		}
		depthMult := 1 + float64(i)*0.25
		size := int64(baseSize * depthMult * wallMult * (0.3 + src.Float64()*1.4))
		asks = append(asks, market.Level{Price: levelPrice, Size: size})
	}

	sortDescending(bids)
	sortAscending(asks)
	dedupe(&bids)
	dedupe(&asks)

	spread := bestAsk - bestBid
	return market.OrderBook{
		Bids:          bids,
		Asks:          asks,
		Spread:        math.Round(spread*10000) / 10000,
		SpreadPercent: math.Round(spread/price*100*100) / 100,
	}
}

// Skew thins the side momentum is consuming and moderately thickens
// the other. Bullish momentum eats asks; bearish momentum eats bids.
func Skew(b market.OrderBook, momentum float64) market.OrderBook {
	if math.Abs(momentum) < skewThreshold {
		return b
	}

	factor := math.Min(math.Abs(momentum)*3, skewCap)

	thin := func(levels []market.Level) []market.Level {
		out := make([]market.Level, len(levels))
		for i, lvl := range levels {
			size := int64(float64(lvl.Size) * (1 - factor))
			if size < minLevelSize {
				size = minLevelSize
			}
			out[i] = market.Level{Price: lvl.Price, Size: size}
		}
		return out
	}
	thicken := func(levels []market.Level) []market.Level {
		out := make([]market.Level, len(levels))
		for i, lvl := range levels {
			out[i] = market.Level{Price: lvl.Price, Size: int64(float64(lvl.Size) * (1 + factor*0.5))}
		}
		return out
	}

	if momentum > 0 {
		b.Asks = thin(b.Asks)
		b.Bids = thicken(b.Bids)
	} else {
		b.Bids = thin(b.Bids)
		b.Asks = thicken(b.Asks)
	}
	return b
}

func roundToTick(value, tickSize float64) float64 {
	return math.Round(value/tickSize) * tickSize
}

func sortDescending(levels []market.Level) {
	for i := 1; i < len(levels); i++ {
		for j := i; j > 0 && levels[j].Price > levels[j-1].Price; j-- {
			levels[j], levels[j-1] = levels[j-1], levels[j]
		}
	}
}

func sortAscending(levels []market.Level) {
	for i := 1; i < len(levels); i++ {
		for j := i; j > 0 && levels[j].Price < levels[j-1].Price; j-- {
			levels[j], levels[j-1] = levels[j-1], levels[j]
		}
	}
}

// dedupe merges adjacent levels that landed on the same tick after
// rounding, so level prices stay strictly monotonic.
func dedupe(levels *[]market.Level) {
	in := *levels
	if len(in) < 2 {
		return
	}
	out := in[:1]
	for _, lvl := range in[1:] {
		if lvl.Price == out[len(out)-1].Price {
			out[len(out)-1].Size += lvl.Size
			continue
		}
		out = append(out, lvl)
	}
	*levels = out
}
