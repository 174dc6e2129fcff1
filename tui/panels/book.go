package panels

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zappabad/microcap/internal/market"
	"github.com/zappabad/microcap/tui/styles"
)

// BookPanel displays the synthetic depth snapshot for the selected
// instrument.
type BookPanel struct {
	stock   market.Stock
	hasData bool
	focused bool
	width   int
	height  int
}

// NewBookPanel creates a new book panel.
func NewBookPanel() *BookPanel {
	return &BookPanel{}
}

// Init initializes the panel.
func (p *BookPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the panel.
func (p *BookPanel) Update(msg tea.Msg) (*BookPanel, tea.Cmd) {
	return p, nil
}

// View renders the panel.
func (p *BookPanel) View() string {
	var content strings.Builder

	name := "No instrument selected"
	if p.hasData {
		name = p.stock.Ticker
	}

	if p.hasData && p.stock.Halted {
		content.WriteString(styles.HaltedStyle.Render("TRADING HALTED"))
		content.WriteString("\n")
		content.WriteString(styles.TimeStyle.Render(
			fmt.Sprintf("%d ticks remaining", p.stock.HaltTicksRemaining)))
	} else if p.hasData {
		content.WriteString(p.renderLevels())
	}

	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}

	title := styles.RenderTitle(fmt.Sprintf("📊 Book - %s", name), p.focused)
	panel := lipgloss.JoinVertical(lipgloss.Left, title, content.String())

	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

func (p *BookPanel) renderLevels() string {
	var content strings.Builder

	book := p.stock.Book

	header := fmt.Sprintf("%8s %10s │ %-10s %-8s", "BidSz", "Bid", "Ask", "AskSz")
	content.WriteString(styles.HeaderStyle.Render(header))
	content.WriteString("\n")

	rows := len(book.Bids)
	if len(book.Asks) > rows {
		rows = len(book.Asks)
	}

	for i := 0; i < rows; i++ {
		bidPart := fmt.Sprintf("%8s %10s", "", "")
		askPart := fmt.Sprintf("%-10s %-8s", "", "")

		if i < len(book.Bids) {
			bidPart = fmt.Sprintf("%8d %10s",
				book.Bids[i].Size, styles.FormatPrice(book.Bids[i].Price))
		}
		if i < len(book.Asks) {
			askPart = fmt.Sprintf("%-10s %-8d",
				styles.FormatPrice(book.Asks[i].Price), book.Asks[i].Size)
		}

		content.WriteString(styles.BuyStyle.Render(bidPart))
		content.WriteString(" │ ")
		content.WriteString(styles.SellStyle.Render(askPart))
		content.WriteString("\n")
	}

	content.WriteString("\n")
	content.WriteString(styles.SizeStyle.Render(fmt.Sprintf(
		"Spread %s (%.2f%%)", styles.FormatPrice(book.Spread), book.SpreadPercent)))

	return content.String()
}

// SetFocus sets the focus state of the panel.
func (p *BookPanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *BookPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetStock sets the instrument whose book is displayed.
func (p *BookPanel) SetStock(stock market.Stock) {
	p.stock = stock
	p.hasData = true
}

// Stock returns the current instrument.
func (p *BookPanel) Stock() (market.Stock, bool) {
	return p.stock, p.hasData
}
