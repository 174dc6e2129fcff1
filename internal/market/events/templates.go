package events

import "github.com/zappabad/microcap/internal/market"

// Template describes one category of market catalyst. Impact, volume,
// duration, and halt length are sampled uniformly from the ranges when
// an event fires.
type Template struct {
	Type         market.EventType
	Titles       []string
	Descriptions []string

	PriceImpactRange  [2]float64 // multiplier range
	VolumeImpactRange [2]float64
	DurationRange     [2]int // ticks

	Halts        bool
	HaltDuration [2]int

	Weight     int      // relative selection weight
	SectorBias []string // more likely to target these sectors
}

var templates = []Template{
	{
		Type: market.EventEarningsSurprise,
		Titles: []string{
			"{ticker} Crushes Earnings Estimates",
			"{ticker} Reports Blowout Quarter",
			"{ticker} Revenue Beats by 40%",
		},
		Descriptions: []string{
			"{name} reported EPS of $0.12 vs. consensus of -$0.05. Revenue up 120% YoY.",
			"{name} surprised Wall Street with its first profitable quarter. Short sellers scrambling.",
			"Massive beat on top and bottom line. Guidance raised for full year.",
		},
		PriceImpactRange:  [2]float64{1.15, 1.60},
		VolumeImpactRange: [2]float64{4, 12},
		DurationRange:     [2]int{20, 60},
		Weight:            10,
	},
	{
		Type: market.EventEarningsMiss,
		Titles: []string{
			"{ticker} Misses Earnings Badly",
			"{ticker} Reports Wider-Than-Expected Loss",
			"{ticker} Revenue Falls Short",
		},
		Descriptions: []string{
			"{name} posted a loss of -$0.22 vs. expected -$0.08. Cash burn accelerating.",
			"Disappointing results across the board. Management lowered guidance.",
			"{name} missed revenue estimates by 30%. Customer churn increasing.",
		},
		PriceImpactRange:  [2]float64{0.55, 0.85},
		VolumeImpactRange: [2]float64{3, 8},
		DurationRange:     [2]int{15, 45},
		Weight:            10,
	},
	{
		Type: market.EventSECHalt,
		Titles: []string{
			"TRADING HALTED: {ticker} Pending News",
			"{ticker} Halted — Volatility Circuit Breaker",
			"LULD Halt on {ticker}",
		},
		Descriptions: []string{
			"Trading in {name} has been halted pending a company announcement.",
			"Circuit breaker triggered on {ticker} after rapid price movement.",
			"Limit Up/Limit Down halt on {ticker}. Trading to resume shortly.",
		},
		PriceImpactRange:  [2]float64{0.70, 1.40}, // either way on resume
		VolumeImpactRange: [2]float64{8, 20},
		DurationRange:     [2]int{30, 90},
		Halts:             true,
		HaltDuration:      [2]int{10, 30},
		Weight:            5,
	},
	{
		Type: market.EventDilution,
		Titles: []string{
			"{ticker} Announces Shelf Offering",
			"{ticker} Files ATM Offering — Dilution Alert",
			"{ticker} Prices Secondary Offering",
		},
		Descriptions: []string{
			"{name} filed to sell up to $15M in shares at market prices. Dilution risk.",
			"Direct offering priced at 15% discount to market. Shares outstanding increase 20%.",
			"{name} registered 8M new shares for sale. Float expanding significantly.",
		},
		PriceImpactRange:  [2]float64{0.60, 0.82},
		VolumeImpactRange: [2]float64{5, 15},
		DurationRange:     [2]int{30, 80},
		Weight:            8,
	},
	{
		Type: market.EventShortSqueeze,
		Titles: []string{
			"{ticker} Short Squeeze Developing",
			"Shorts Trapped in {ticker} — Squeeze Alert",
			"{ticker} Borrow Rate Spikes to 300%",
		},
		Descriptions: []string{
			"Short interest at {si}% of float. Borrow fees skyrocketing. Forced covering imminent.",
			"No shares available to borrow on {ticker}. Short sellers getting margin called.",
			"Massive buy volume on {ticker} as shorts scramble to cover. Float locked up.",
		},
		PriceImpactRange:  [2]float64{1.25, 2.20},
		VolumeImpactRange: [2]float64{10, 25},
		DurationRange:     [2]int{15, 50},
		Weight:            6,
		SectorBias:        []string{market.SectorHealthcare, market.SectorTechnology},
	},
	{
		Type: market.EventInsiderBuying,
		Titles: []string{
			"{ticker} CEO Buys $500K in Open Market",
			"Insider Cluster Buying in {ticker}",
		},
		Descriptions: []string{
			"{name} CEO purchased 150,000 shares at market price. First insider buy in 2 years.",
			"Three insiders at {name} bought shares this week. Total insider purchases: $1.2M.",
		},
		PriceImpactRange:  [2]float64{1.08, 1.25},
		VolumeImpactRange: [2]float64{2, 5},
		DurationRange:     [2]int{30, 60},
		Weight:            5,
	},
	{
		Type: market.EventFDAApproval,
		Titles: []string{
			"{ticker} Receives FDA Fast Track Designation",
			"FDA Approves {ticker} Lead Candidate",
		},
		Descriptions: []string{
			"{name} granted Fast Track for its lead compound. Phase 3 trial expected next quarter.",
			"FDA approval for {name}'s flagship drug. Addressable market estimated at $2B.",
		},
		PriceImpactRange:  [2]float64{1.30, 2.50},
		VolumeImpactRange: [2]float64{10, 30},
		DurationRange:     [2]int{20, 60},
		Weight:            4,
		SectorBias:        []string{market.SectorHealthcare},
	},
	{
		Type: market.EventContractWin,
		Titles: []string{
			"{ticker} Awarded $50M Government Contract",
			"{ticker} Lands Major Partnership Deal",
		},
		Descriptions: []string{
			"{name} won a multi-year government contract worth $50M. Revenue visibility greatly improved.",
			"Strategic partnership announced between {name} and a Fortune 500 company.",
		},
		PriceImpactRange:  [2]float64{1.12, 1.45},
		VolumeImpactRange: [2]float64{3, 8},
		DurationRange:     [2]int{20, 50},
		Weight:            6,
		SectorBias:        []string{market.SectorTechnology, market.SectorEnergy},
	},
	{
		Type: market.EventOffering,
		Titles: []string{
			"{ticker} Announces Warrant Exercise",
			"{ticker} Converts Preferred Shares",
		},
		Descriptions: []string{
			"Warrants exercised at $0.50 on {ticker}. 5M new shares entering the float.",
			"{name} converting preferred shares to common. Float expected to increase 25%.",
		},
		PriceImpactRange:  [2]float64{0.70, 0.88},
		VolumeImpactRange: [2]float64{4, 10},
		DurationRange:     [2]int{20, 50},
		Weight:            6,
	},
	{
		Type: market.EventSocialMomentum,
		Titles: []string{
			"{ticker} Trending on Social Media",
			"{ticker} Going Viral — Retail Pile-In",
		},
		Descriptions: []string{
			"{ticker} mentions up 500% on social media. Retail traders piling in.",
			"{name} trending #1 on stock forums. \"Diamond hands\" sentiment dominant.",
		},
		PriceImpactRange:  [2]float64{1.10, 1.80},
		VolumeImpactRange: [2]float64{8, 20},
		DurationRange:     [2]int{10, 40},
		Weight:            7,
	},
}

// Templates returns the full catalog.
func Templates() []Template {
	return templates
}

func templateFor(t market.EventType) (Template, bool) {
	for _, tpl := range templates {
		if tpl.Type == t {
			return tpl, true
		}
	}
	return Template{}, false
}
