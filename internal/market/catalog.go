package market

// Seed is the static description of one tradable instrument.
type Seed struct {
	Ticker           string
	Name             string
	Price            float64
	Volatility       float64
	Sector           string
	FloatShares      int64
	TotalShares      int64
	ShortInterestPct float64 // fraction of float sold short
}

// DefaultCatalog is the built-in micro-cap universe.
func DefaultCatalog() []Seed {
	return []Seed{
		{
			Ticker:           "NXRA",
			Name:             "Nexara Therapeutics",
			Price:            3.42,
			Volatility:       0.06,
			Sector:           SectorHealthcare,
			FloatShares:      8_500_000,
			TotalShares:      24_000_000,
			ShortInterestPct: 0.32,
		},
		{
			Ticker:           "VLTX",
			Name:             "VoltX Energy Corp",
			Price:            1.87,
			Volatility:       0.08,
			Sector:           SectorEnergy,
			FloatShares:      5_200_000,
			TotalShares:      18_000_000,
			ShortInterestPct: 0.18,
		},
		{
			Ticker:           "CRDL",
			Name:             "Cordell AI Systems",
			Price:            7.15,
			Volatility:       0.05,
			Sector:           SectorTechnology,
			FloatShares:      12_000_000,
			TotalShares:      35_000_000,
			ShortInterestPct: 0.22,
		},
		{
			Ticker:           "MBRA",
			Name:             "Mombra Financial",
			Price:            0.84,
			Volatility:       0.10,
			Sector:           SectorFinance,
			FloatShares:      3_800_000,
			TotalShares:      15_000_000,
			ShortInterestPct: 0.41,
		},
		{
			Ticker:           "PLSR",
			Name:             "Pulsar Brands Inc",
			Price:            4.58,
			Volatility:       0.04,
			Sector:           SectorConsumer,
			FloatShares:      6_700_000,
			TotalShares:      20_000_000,
			ShortInterestPct: 0.14,
		},
	}
}

// InitSession builds the initial instrument set from seed data.
func InitSession(catalog []Seed) []Stock {
	stocks := make([]Stock, 0, len(catalog))
	for _, seed := range catalog {
		stocks = append(stocks, Stock{
			ID:            NewStockID(),
			Ticker:        seed.Ticker,
			Name:          seed.Name,
			Sector:        seed.Sector,
			Price:         seed.Price,
			PreviousClose: seed.Price,
			Open:          seed.Price,
			High:          seed.Price,
			Low:           seed.Price,
			PriceHistory:  []float64{seed.Price},
			Volatility:    seed.Volatility,

			CatalystMultiplier: 1,

			Float: Float{
				TotalShares:   seed.TotalShares,
				FloatShares:   seed.FloatShares,
				ShortInterest: int64(float64(seed.FloatShares) * seed.ShortInterestPct),
			},
			Volume: VolumeProfile{RelativeVolume: 1},
		})
	}
	return stocks
}
