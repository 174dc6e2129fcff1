// Package price implements the per-tick stochastic price model.
//
// The model is deterministic given its random source: no goroutines,
// no time calls, no global state. The session scheduler owns the only
// source that feeds it.
package price

import (
	"math"

	"github.com/zappabad/microcap/internal/market"
	"github.com/zappabad/microcap/internal/rng"
)

const (
	momentumRetain      = 0.92  // fraction of momentum carried per tick
	momentumSensitivity = 0.4   // how much a new return feeds momentum
	momentumWeight      = 0.3   // momentum contribution to total return
	meanReversion       = 0.002 // pull toward the rolling anchor
	anchorWindow        = 60    // ticks in the anchor average

	// Micro-cap regime: parabolic runs expand volatility, and the
	// odds of a violent reversal grow with momentum.
	parabolicThreshold = 0.15
	parabolicVolMult   = 2.5
	crashBaseProb      = 0.003
	crashMomentumScale = 8

	catalystSnapTolerance = 0.001

	baseVolumeFraction = 0.002 // ~0.2% of float per tick baseline
	momentumClamp      = 0.5
)

// Update is the result of one tick of the model for one stock.
type Update struct {
	Price              float64
	Momentum           float64
	CatalystMultiplier float64
	CatalystDecay      float64
	Volume             int64
}

// NextTick computes the next price state for a stock. Pure: the input
// stock is not modified. A halted stock holds price and momentum and
// trades zero volume.
func NextTick(s market.Stock, tick int, sessionLength int, src rng.Source) Update {
	if s.Halted {
		return Update{
			Price:              s.Price,
			Momentum:           s.Momentum,
			CatalystMultiplier: s.CatalystMultiplier,
			CatalystDecay:      s.CatalystDecay,
			Volume:             0,
		}
	}

	catalystMult := s.CatalystMultiplier
	catalystDecay := s.CatalystDecay
	if catalystMult != 1 {
		catalystMult = 1 + (catalystMult-1)*(1-catalystDecay)
		if math.Abs(catalystMult-1) < catalystSnapTolerance {
			catalystMult = 1
			catalystDecay = 0
		}
	}

	baseReturn := rng.Norm(src) * s.Volatility

	momentum := s.Momentum*momentumRetain + baseReturn*momentumSensitivity

	isParabolic := math.Abs(momentum) > parabolicThreshold
	volMult := 1.0
	if isParabolic {
		volMult = parabolicVolMult
	}

	// Failed squeezes and blow-off tops: the hotter the move, the more
	// likely it snaps back hard.
	crashOdds := crashBaseProb + math.Abs(momentum)*crashMomentumScale*crashBaseProb
	if isParabolic && src.Float64() < crashOdds {
		momentum = -momentum * rng.Range(src, 0.6, 1.0)
	}

	anchor := anchorPrice(s.PriceHistory)
	reversionPull := 0.0
	if s.Price > 0 && anchor > 0 {
		reversionPull = (anchor - s.Price) / s.Price * meanReversion
	}

	totalReturn := baseReturn*volMult*catalystMult + momentum*momentumWeight + reversionPull

	newPrice := s.Price * (1 + totalReturn)
	newPrice = math.Max(market.MinPrice, newPrice)
	newPrice = roundPrice(newPrice)

	baseVolume := float64(s.Float.FloatShares) * baseVolumeFraction
	volFactor := 1 + math.Abs(totalReturn)*40
	parabolicBoost := 1.0
	if isParabolic {
		parabolicBoost = 3
	}
	catalystBoost := 1.0
	if catalystMult != 1 {
		catalystBoost = 2
	}
	tickVolume := math.Floor(baseVolume * volFactor * parabolicBoost * catalystBoost * (0.5 + src.Float64()))

	momentum = clamp(momentum, -momentumClamp, momentumClamp)

	sessionTick := tick % sessionLength
	todMult := timeOfDayVolume(sessionTick, sessionLength)

	return Update{
		Price:              newPrice,
		Momentum:           momentum,
		CatalystMultiplier: catalystMult,
		CatalystDecay:      catalystDecay,
		Volume:             int64(tickVolume * todMult),
	}
}

// Apply folds an Update into a stock: price, day range, bounded
// histories, volume profile, and float rotation.
func Apply(s market.Stock, u Update) market.Stock {
	s.PriceHistory = append(s.PriceHistory, u.Price)
	if len(s.PriceHistory) > market.PriceHistoryCap {
		s.PriceHistory = s.PriceHistory[len(s.PriceHistory)-market.PriceHistoryCap:]
	}

	history := append(s.Volume.History, u.Volume)
	if len(history) > market.VolumeHistoryCap {
		history = history[len(history)-market.VolumeHistoryCap:]
	}

	var sum int64
	for _, v := range history {
		sum += v
	}
	avg := float64(u.Volume)
	if len(history) > 0 {
		avg = float64(sum) / float64(len(history))
	}

	rvol := 1.0
	if avg > 0 {
		rvol = float64(u.Volume) / avg
	}

	dayVolume := s.Float.DayVolume + u.Volume
	rotation := 0.0
	if s.Float.FloatShares > 0 {
		rotation = float64(dayVolume) / float64(s.Float.FloatShares)
	}

	s.Price = u.Price
	s.High = math.Max(s.High, u.Price)
	s.Low = math.Min(s.Low, u.Price)
	s.Momentum = u.Momentum
	s.CatalystMultiplier = u.CatalystMultiplier
	s.CatalystDecay = u.CatalystDecay
	s.Volume = market.VolumeProfile{
		Current:        u.Volume,
		Average:        avg,
		History:        history,
		RelativeVolume: rvol,
	}
	s.Float.DayVolume = dayVolume
	s.Float.FloatRotation = rotation
	return s
}

// anchorPrice averages the trailing anchor window. Returns 0 for an
// empty history; callers treat that as "no anchor".
func anchorPrice(history []float64) float64 {
	window := history
	if len(window) > anchorWindow {
		window = window[len(window)-anchorWindow:]
	}
	if len(window) == 0 {
		return 0
	}
	var sum float64
	for _, p := range window {
		sum += p
	}
	return sum / float64(len(window))
}

// roundPrice rounds to cents at or above $1, sub-penny below.
func roundPrice(p float64) float64 {
	if p >= 1 {
		return math.Round(p*100) / 100
	}
	return math.Round(p*10000) / 10000
}

// timeOfDayVolume shapes volume with a U-curve: heavy near the open
// and close, light midday.
func timeOfDayVolume(sessionTick, sessionLength int) float64 {
	if sessionLength <= 1 {
		return 1
	}
	normalized := float64(sessionTick) / float64(sessionLength-1)
	return 0.5 + 4*(normalized-0.5)*(normalized-0.5)
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
