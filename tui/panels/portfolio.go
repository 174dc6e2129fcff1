package panels

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zappabad/microcap/internal/ledger"
	"github.com/zappabad/microcap/internal/market"
	"github.com/zappabad/microcap/tui/styles"
)

// PortfolioPanel shows the player's cash, open positions marked
// against the current tape, and the most recent fills.
type PortfolioPanel struct {
	player  *ledger.Player
	quotes  map[market.StockID]float64
	tickers map[market.StockID]string
	focused bool
	width   int
	height  int
}

// NewPortfolioPanel creates a new portfolio panel.
func NewPortfolioPanel() *PortfolioPanel {
	return &PortfolioPanel{
		quotes:  make(map[market.StockID]float64),
		tickers: make(map[market.StockID]string),
	}
}

// Init initializes the panel.
func (p *PortfolioPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the panel.
func (p *PortfolioPanel) Update(msg tea.Msg) (*PortfolioPanel, tea.Cmd) {
	return p, nil
}

// View renders the panel.
func (p *PortfolioPanel) View() string {
	var content strings.Builder

	if p.player == nil {
		content.WriteString(lipgloss.NewStyle().Foreground(styles.TextMutedColor).Render("No player"))
	} else {
		content.WriteString(p.renderSummary())
		content.WriteString("\n\n")
		content.WriteString(p.renderPositions())
		content.WriteString("\n\n")
		content.WriteString(p.renderRecentTrades())
	}

	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}

	title := styles.RenderTitle("💼 Portfolio", p.focused)
	panel := lipgloss.JoinVertical(lipgloss.Left, title, content.String())

	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

func (p *PortfolioPanel) renderSummary() string {
	pnl := p.player.TotalValue - ledger.StartingCash
	pnlStr := styles.PriceUpStyle.Render(fmt.Sprintf("+%s", styles.FormatCash(pnl)))
	if pnl < 0 {
		pnlStr = styles.PriceDownStyle.Render(fmt.Sprintf("-%s", styles.FormatCash(-pnl)))
	}

	return fmt.Sprintf("%s %s   %s %s   %s %s",
		styles.LabelStyle.Render("Cash"), styles.FormatCash(p.player.Cash),
		styles.LabelStyle.Render("Equity"), styles.FormatCash(p.player.TotalValue),
		styles.LabelStyle.Render("P&L"), pnlStr)
}

func (p *PortfolioPanel) renderPositions() string {
	var content strings.Builder

	content.WriteString(styles.HeaderStyle.Render(fmt.Sprintf("%-6s %8s %10s %10s", "SYM", "QTY", "MARK", "UNRL")))

	if len(p.player.Portfolio) == 0 {
		content.WriteString("\n")
		content.WriteString(lipgloss.NewStyle().Foreground(styles.TextMutedColor).Render("Flat"))
		return content.String()
	}

	ids := make([]market.StockID, 0, len(p.player.Portfolio))
	for id := range p.player.Portfolio {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return p.tickers[ids[i]] < p.tickers[ids[j]] })

	unrealized := perStockUnrealized(p.player.TradeHistory, p.quotes)

	for _, id := range ids {
		qty := p.player.Portfolio[id]
		mark := p.quotes[id]

		qtyStr := fmt.Sprintf("%d", qty)
		if qty > 0 {
			qtyStr = styles.PriceUpStyle.Render(fmt.Sprintf("+%d", qty))
		} else {
			qtyStr = styles.PriceDownStyle.Render(qtyStr)
		}

		unrl := unrealized[id]
		unrlStr := styles.PriceStyle.Render(styles.FormatCash(unrl))
		if unrl > 0 {
			unrlStr = styles.PriceUpStyle.Render("+" + styles.FormatCash(unrl))
		} else if unrl < 0 {
			unrlStr = styles.PriceDownStyle.Render("-" + styles.FormatCash(-unrl))
		}

		content.WriteString("\n")
		content.WriteString(fmt.Sprintf("%-6s %8s %10s %10s",
			p.tickers[id], qtyStr, styles.FormatPrice(mark), unrlStr))
	}

	return content.String()
}

func (p *PortfolioPanel) renderRecentTrades() string {
	var content strings.Builder

	content.WriteString(styles.HeaderStyle.Render("Recent fills"))

	history := p.player.TradeHistory
	if len(history) == 0 {
		content.WriteString("\n")
		content.WriteString(lipgloss.NewStyle().Foreground(styles.TextMutedColor).Render("No trades yet"))
		return content.String()
	}

	maxShow := 5
	start := len(history) - maxShow
	if start < 0 {
		start = 0
	}

	for i := len(history) - 1; i >= start; i-- {
		t := history[i]

		actionStyle := styles.BuyStyle
		if t.Action == ledger.ActionSell || t.Action == ledger.ActionShort {
			actionStyle = styles.SellStyle
		}

		ts := styles.TimeStyle.Render(time.Unix(0, t.Time).Format("15:04:05"))
		content.WriteString("\n")
		content.WriteString(fmt.Sprintf("%s %s %d %s @ %s",
			ts,
			actionStyle.Render(strings.ToUpper(string(t.Action))),
			t.Quantity,
			p.tickers[t.StockID],
			styles.FormatPrice(t.Price)))
	}

	return content.String()
}

// perStockUnrealized marks each instrument's open lots against the
// current quote.
func perStockUnrealized(trades []ledger.Trade, quotes map[market.StockID]float64) map[market.StockID]float64 {
	out := make(map[market.StockID]float64)
	for id, lots := range ledger.OpenLots(trades) {
		mark, ok := quotes[id]
		if !ok {
			continue
		}
		for _, lot := range lots {
			if lot.Short {
				out[id] += (lot.Price - mark) * float64(lot.Remaining)
			} else {
				out[id] += (mark - lot.Price) * float64(lot.Remaining)
			}
		}
	}
	return out
}

// SetFocus sets the focus state of the panel.
func (p *PortfolioPanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *PortfolioPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetPlayer updates the rendered ledger snapshot.
func (p *PortfolioPanel) SetPlayer(player *ledger.Player) {
	p.player = player
}

// SetStocks refreshes quotes and ticker names from the tape.
func (p *PortfolioPanel) SetStocks(stocks []market.Stock) {
	for _, s := range stocks {
		p.quotes[s.ID] = s.Price
		p.tickers[s.ID] = s.Ticker
	}
}
