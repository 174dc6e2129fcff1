package market

import "github.com/google/uuid"

// StockID uniquely identifies an instrument within a session.
type StockID string

// NewStockID returns a fresh StockID.
func NewStockID() StockID {
	return StockID(uuid.NewString())
}

// Sector labels used by the seed catalog and event sector bias.
const (
	SectorTechnology = "Technology"
	SectorFinance    = "Finance"
	SectorEnergy     = "Energy"
	SectorHealthcare = "Healthcare"
	SectorConsumer   = "Consumer"
)

// MinPrice is the penny floor. No tick may take a price below it.
const MinPrice = 0.01

// History caps. Older entries are dropped as new ticks arrive.
const (
	PriceHistoryCap  = 500
	VolumeHistoryCap = 60
)

// Float holds the share-structure and liquidity state of a stock.
type Float struct {
	TotalShares   int64
	FloatShares   int64 // freely tradeable shares
	ShortInterest int64 // shares currently sold short
	DayVolume     int64 // cumulative volume this session
	FloatRotation float64
}

// VolumeProfile tracks per-tick volume and its rolling average.
type VolumeProfile struct {
	Current        int64
	Average        float64
	History        []int64 // capped at VolumeHistoryCap
	RelativeVolume float64 // current / average (RVOL)
}

// Level is one price level of the synthetic book.
type Level struct {
	Price float64
	Size  int64
}

// OrderBook is a synthetic depth snapshot. Bids are sorted descending
// by price, asks ascending. A halted stock carries an empty book.
type OrderBook struct {
	Bids          []Level
	Asks          []Level
	Spread        float64
	SpreadPercent float64
}

// BestBid returns the top bid level, if any.
func (b OrderBook) BestBid() (Level, bool) {
	if len(b.Bids) == 0 {
		return Level{}, false
	}
	return b.Bids[0], true
}

// BestAsk returns the top ask level, if any.
func (b OrderBook) BestAsk() (Level, bool) {
	if len(b.Asks) == 0 {
		return Level{}, false
	}
	return b.Asks[0], true
}

// Stock is the full per-instrument simulation state. The session
// scheduler is its single writer; everything else reads snapshots.
type Stock struct {
	ID     StockID
	Ticker string
	Name   string
	Sector string

	Price         float64
	PreviousClose float64
	Open          float64
	High          float64
	Low           float64
	PriceHistory  []float64 // capped at PriceHistoryCap

	Volatility float64
	Momentum   float64 // clamped to [-0.5, 0.5]

	// Catalyst state injected by market events. Multiplier relaxes
	// toward 1 by Decay per tick and snaps to exactly 1 near the end.
	CatalystMultiplier float64
	CatalystDecay      float64

	Float  Float
	Volume VolumeProfile
	Book   OrderBook

	Halted             bool
	HaltTicksRemaining int
}

// Clone returns a deep copy safe to hand to readers while the
// scheduler keeps mutating the original.
func (s Stock) Clone() Stock {
	c := s
	c.PriceHistory = append([]float64(nil), s.PriceHistory...)
	c.Volume.History = append([]int64(nil), s.Volume.History...)
	c.Book.Bids = append([]Level(nil), s.Book.Bids...)
	c.Book.Asks = append([]Level(nil), s.Book.Asks...)
	return c
}

// EventType enumerates the catalyst categories the generator emits.
type EventType string

const (
	EventEarningsSurprise EventType = "earnings_surprise"
	EventEarningsMiss     EventType = "earnings_miss"
	EventSECHalt          EventType = "sec_halt"
	EventDilution         EventType = "dilution"
	EventShortSqueeze     EventType = "short_squeeze"
	EventInsiderBuying    EventType = "insider_buying"
	EventFDAApproval      EventType = "fda_approval"
	EventContractWin      EventType = "contract_win"
	EventOffering         EventType = "offering_announced"
	EventSocialMomentum   EventType = "reddit_momentum"
)

// Event is a market catalyst. Immutable once created; the session
// keeps them on an append-only log.
type Event struct {
	ID          string
	Type        EventType
	Title       string
	Description string

	AffectedStockIDs []StockID

	PriceImpact  float64 // multiplier, e.g. 1.1 = +10%, 0.85 = -15%
	VolumeImpact float64
	Duration     int // ticks the catalyst persists

	Tick int
	Time int64 // unix nanos when the event fired
}

// Affects reports whether the event targets the given stock.
func (e Event) Affects(id StockID) bool {
	for _, sid := range e.AffectedStockIDs {
		if sid == id {
			return true
		}
	}
	return false
}
