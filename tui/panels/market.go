package panels

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zappabad/microcap/internal/market"
	"github.com/zappabad/microcap/tui/styles"
)

// MarketOverviewPanel displays the session universe: price, session
// change, relative volume, and halt status per instrument.
type MarketOverviewPanel struct {
	stocks        []market.Stock
	selectedIndex int
	focused       bool
	width         int
	height        int
}

// NewMarketOverviewPanel creates a new market overview panel.
func NewMarketOverviewPanel(stocks []market.Stock) *MarketOverviewPanel {
	return &MarketOverviewPanel{stocks: stocks}
}

// Init initializes the panel.
func (p *MarketOverviewPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the panel.
func (p *MarketOverviewPanel) Update(msg tea.Msg) (*MarketOverviewPanel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if !p.focused {
			return p, nil
		}
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
			if p.selectedIndex > 0 {
				p.selectedIndex--
			}
		case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
			if p.selectedIndex < len(p.stocks)-1 {
				p.selectedIndex++
			}
		case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
			if s, ok := p.SelectedStock(); ok {
				return p, func() tea.Msg { return StockSelectedMsg{Stock: s} }
			}
		}
	}
	return p, nil
}

// View renders the panel.
func (p *MarketOverviewPanel) View() string {
	var content strings.Builder

	header := fmt.Sprintf("%-6s %10s %9s %6s %6s",
		"Ticker", "Price", "Chg", "RVOL", "")
	content.WriteString(styles.HeaderStyle.Render(header))
	content.WriteString("\n")

	for i, s := range p.stocks {
		change := 0.0
		if s.PreviousClose > 0 {
			change = (s.Price - s.PreviousClose) / s.PreviousClose * 100
		}

		status := ""
		if s.Halted {
			status = styles.HaltedStyle.Render("HALT")
		}

		row := fmt.Sprintf("%-6s %10s %9s %5.1fx %6s",
			s.Ticker,
			styles.FormatPrice(s.Price),
			styles.FormatChange(change),
			s.Volume.RelativeVolume,
			status)

		style := styles.RowStyle
		if i == p.selectedIndex && p.focused {
			style = styles.SelectedRowStyle
		}
		content.WriteString(style.Render(row))
		if i < len(p.stocks)-1 {
			content.WriteString("\n")
		}
	}

	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}

	title := styles.RenderTitle("📈 Market", p.focused)
	panel := lipgloss.JoinVertical(lipgloss.Left, title, content.String())

	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

// SetFocus sets the focus state of the panel.
func (p *MarketOverviewPanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *MarketOverviewPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetStocks replaces the displayed universe with a fresh snapshot.
func (p *MarketOverviewPanel) SetStocks(stocks []market.Stock) {
	p.stocks = stocks
	if p.selectedIndex >= len(stocks) {
		p.selectedIndex = 0
	}
}

// SelectedStock returns the currently selected instrument.
func (p *MarketOverviewPanel) SelectedStock() (market.Stock, bool) {
	if p.selectedIndex >= 0 && p.selectedIndex < len(p.stocks) {
		return p.stocks[p.selectedIndex], true
	}
	return market.Stock{}, false
}

// StockSelectedMsg is sent when the selected instrument changes.
type StockSelectedMsg struct {
	Stock market.Stock
}
