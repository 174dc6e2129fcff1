package panels

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zappabad/microcap/internal/market"
	"github.com/zappabad/microcap/tui/styles"
)

// ticksPerCandle aggregates this many simulation ticks into one bar.
const ticksPerCandle = 5

// Candle represents a single aggregated bar.
type Candle struct {
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
	Tick   int
}

// ChartPanel displays a candlestick chart built from an instrument's
// tick-by-tick price history.
type ChartPanel struct {
	ticker  string
	candles []Candle

	focused bool
	width   int
	height  int

	maxCandles int
}

// NewChartPanel creates a new chart panel.
func NewChartPanel() *ChartPanel {
	return &ChartPanel{
		maxCandles: 50,
	}
}

// Init initializes the panel.
func (p *ChartPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the panel.
func (p *ChartPanel) Update(msg tea.Msg) (*ChartPanel, tea.Cmd) {
	return p, nil
}

// SetStock rebuilds the candle series from the instrument's price
// history. The history is already bounded, so a full rebuild per
// update stays cheap.
func (p *ChartPanel) SetStock(stock market.Stock) {
	p.ticker = stock.Ticker
	p.candles = buildCandles(stock.PriceHistory, p.maxCandles)
}

// buildCandles groups consecutive prices into fixed-width bars.
func buildCandles(prices []float64, maxCandles int) []Candle {
	var candles []Candle
	for start := 0; start < len(prices); start += ticksPerCandle {
		end := start + ticksPerCandle
		if end > len(prices) {
			end = len(prices)
		}
		chunk := prices[start:end]

		c := Candle{
			Open:  chunk[0],
			High:  chunk[0],
			Low:   chunk[0],
			Close: chunk[len(chunk)-1],
			Tick:  start,
		}
		for _, price := range chunk {
			if price > c.High {
				c.High = price
			}
			if price < c.Low {
				c.Low = price
			}
		}
		candles = append(candles, c)
	}

	if len(candles) > maxCandles {
		candles = candles[len(candles)-maxCandles:]
	}
	return candles
}

// View renders the panel.
func (p *ChartPanel) View() string {
	name := "No instrument"
	if p.ticker != "" {
		name = p.ticker
	}

	var content strings.Builder

	chartWidth := p.width - 12
	chartHeight := p.height - 6
	if chartHeight < 5 {
		chartHeight = 5
	}

	if len(p.candles) == 0 {
		content.WriteString(lipgloss.NewStyle().Foreground(styles.TextMutedColor).Render("No price data yet..."))
	} else {
		content.WriteString(p.renderChart(chartWidth, chartHeight))
	}

	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}

	title := styles.RenderTitle(fmt.Sprintf("📉 Chart - %s", name), p.focused)
	panel := lipgloss.JoinVertical(lipgloss.Left, title, content.String())

	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

func (p *ChartPanel) renderChart(width, height int) string {
	chartWidth := width - 10
	if chartWidth < 10 {
		chartWidth = 10
	}

	// Each candle takes two columns: the bar and a space.
	candlesToShow := chartWidth / 2
	if candlesToShow < 1 {
		candlesToShow = 1
	}
	displayCandles := p.candles
	if len(displayCandles) > candlesToShow {
		displayCandles = displayCandles[len(displayCandles)-candlesToShow:]
	}

	minPrice := displayCandles[0].Low
	maxPrice := displayCandles[0].High
	for _, c := range displayCandles {
		if c.Low < minPrice {
			minPrice = c.Low
		}
		if c.High > maxPrice {
			maxPrice = c.High
		}
	}

	// Pad the range so bars never touch the frame.
	priceRange := maxPrice - minPrice
	if priceRange == 0 {
		priceRange = maxPrice * 0.01
		if priceRange == 0 {
			priceRange = 0.01
		}
	}
	padding := priceRange * 0.1
	minPrice -= padding
	maxPrice += padding

	chartHeight := height - 3
	if chartHeight < 5 {
		chartHeight = 5
	}

	var result strings.Builder

	for row := 0; row < chartHeight; row++ {
		price := p.rowToPrice(row, minPrice, maxPrice, chartHeight)
		result.WriteString(styles.ChartAxisStyle.Render(fmt.Sprintf("%9s │", styles.FormatPrice(price))))

		for _, candle := range displayCandles {
			char := candleChar(candle, row, minPrice, maxPrice, chartHeight)

			var style lipgloss.Style
			if candle.Close >= candle.Open {
				style = styles.CandleUpStyle
			} else {
				style = styles.CandleDownStyle
			}

			result.WriteString(style.Render(string(char)))
			result.WriteString(" ")
		}
		result.WriteString("\n")
	}

	// Bottom border with tick labels
	result.WriteString(styles.ChartAxisStyle.Render("──────────┴"))
	for range displayCandles {
		result.WriteString(styles.ChartAxisStyle.Render("──"))
	}
	result.WriteString("\n")

	result.WriteString(styles.ChartAxisStyle.Render("           "))
	for i, candle := range displayCandles {
		if i == 0 || i == len(displayCandles)-1 || i%5 == 0 {
			result.WriteString(styles.ChartLabelStyle.Render(fmt.Sprintf("%-2d", candle.Tick%100)))
		} else {
			result.WriteString("  ")
		}
	}

	return result.String()
}

// candleChar returns the character to draw for a candle at a given row.
func candleChar(candle Candle, row int, minPrice, maxPrice float64, height int) rune {
	rowPrice := rowToPrice(row, minPrice, maxPrice, height)

	bodyTop := candle.Open
	bodyBottom := candle.Close
	if candle.Close > candle.Open {
		bodyTop = candle.Close
		bodyBottom = candle.Open
	}

	// Tolerance maps continuous prices onto discrete rows.
	tolerance := (maxPrice - minPrice) / float64(height*2)

	if rowPrice <= bodyTop+tolerance && rowPrice >= bodyBottom-tolerance {
		return '┃'
	}
	if rowPrice <= candle.High+tolerance && rowPrice > bodyTop {
		return '│'
	}
	if rowPrice >= candle.Low-tolerance && rowPrice < bodyBottom {
		return '│'
	}
	return ' '
}

func (p *ChartPanel) rowToPrice(row int, minPrice, maxPrice float64, height int) float64 {
	return rowToPrice(row, minPrice, maxPrice, height)
}

func rowToPrice(row int, minPrice, maxPrice float64, height int) float64 {
	if height <= 1 {
		return minPrice
	}
	ratio := float64(row) / float64(height-1)
	return maxPrice - ratio*(maxPrice-minPrice)
}

// SetFocus sets the focus state of the panel.
func (p *ChartPanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *ChartPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// Ticker returns the charted instrument's ticker.
func (p *ChartPanel) Ticker() string {
	return p.ticker
}
