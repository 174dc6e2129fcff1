package panels

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zappabad/microcap/internal/ledger"
	"github.com/zappabad/microcap/internal/market"
	"github.com/zappabad/microcap/tui/styles"
)

// TradeField represents the currently focused input field.
type TradeField int

const (
	FieldTicker TradeField = iota
	FieldAction
	FieldQuantity
	FieldSubmit
)

// TradePanel handles trade entry with ticker autocomplete. Fills
// happen against the synthesized book, so there is no price field.
type TradePanel struct {
	stocks        []market.Stock
	tickerInput   textinput.Model
	quantityInput textinput.Model

	// Dropdown state
	showDropdown     bool
	dropdownItems    []string
	dropdownFiltered []string
	dropdownIndex    int

	// Action selector
	actionOptions []ledger.Action
	actionIndex   int

	// Current field
	currentField TradeField

	// Selected values
	selectedStock *market.Stock

	focused bool
	width   int
	height  int
}

// NewTradePanel creates a new trade entry panel.
func NewTradePanel(stocks []market.Stock) *TradePanel {
	tickers := make([]string, len(stocks))
	for i, s := range stocks {
		tickers[i] = s.Ticker
	}

	tickerInput := textinput.New()
	tickerInput.Placeholder = "Search ticker..."
	tickerInput.Width = 15
	tickerInput.CharLimit = 10

	quantityInput := textinput.New()
	quantityInput.Placeholder = "Shares"
	quantityInput.Width = 10
	quantityInput.CharLimit = 15

	return &TradePanel{
		stocks:           stocks,
		tickerInput:      tickerInput,
		quantityInput:    quantityInput,
		dropdownItems:    tickers,
		dropdownFiltered: tickers,
		actionOptions:    []ledger.Action{ledger.ActionBuy, ledger.ActionSell, ledger.ActionShort, ledger.ActionCover},
		currentField:     FieldTicker,
	}
}

// Init initializes the panel.
func (p *TradePanel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the panel.
func (p *TradePanel) Update(msg tea.Msg) (*TradePanel, tea.Cmd) {
	if !p.focused {
		return p, nil
	}

	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("down"))):
			p.nextField()
			return p, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("up"))):
			p.prevField()
			return p, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
			if p.currentField == FieldSubmit {
				return p, p.submitTrade()
			}
			if p.showDropdown && p.currentField == FieldTicker {
				p.selectDropdownItem()
				p.showDropdown = false
				p.nextField()
				return p, nil
			}
			p.nextField()
			return p, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("esc"))):
			p.showDropdown = false
			return p, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("left"))):
			if p.showDropdown {
				if p.dropdownIndex > 0 {
					p.dropdownIndex--
				}
				return p, nil
			}
			if p.currentField == FieldAction && p.actionIndex > 0 {
				p.actionIndex--
				return p, nil
			}

		case key.Matches(msg, key.NewBinding(key.WithKeys("right"))):
			if p.showDropdown {
				if p.dropdownIndex < len(p.dropdownFiltered)-1 {
					p.dropdownIndex++
				}
				return p, nil
			}
			if p.currentField == FieldAction && p.actionIndex < len(p.actionOptions)-1 {
				p.actionIndex++
				return p, nil
			}
		}
	}

	// Update the appropriate text input
	switch p.currentField {
	case FieldTicker:
		p.tickerInput, cmd = p.tickerInput.Update(msg)
		p.filterDropdown(p.tickerInput.Value())
		p.showDropdown = len(p.tickerInput.Value()) > 0

	case FieldQuantity:
		p.quantityInput, cmd = p.quantityInput.Update(msg)
	}

	return p, cmd
}

// View renders the panel.
func (p *TradePanel) View() string {
	var content strings.Builder

	content.WriteString(p.renderField("Ticker\n", FieldTicker, p.renderTickerField()))
	content.WriteString("\n")

	content.WriteString(p.renderField("Action", FieldAction, p.renderActionField()))
	content.WriteString("\n")

	content.WriteString(p.renderField("Qty", FieldQuantity, p.quantityInput.View()))
	content.WriteString("\n\n")

	submitStyle := styles.InputStyle
	if p.currentField == FieldSubmit && p.focused {
		submitStyle = styles.FocusedInputStyle.Bold(true).Foreground(styles.PrimaryColor)
	}
	content.WriteString(submitStyle.Render("  [Submit Trade]  "))

	content.WriteString("\n\n")
	content.WriteString(p.renderTradeSummary())

	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}

	title := styles.RenderTitle("📝 Trade Entry", p.focused)
	panel := lipgloss.JoinVertical(lipgloss.Left, title, content.String())

	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

func (p *TradePanel) renderField(label string, field TradeField, inputView string) string {
	labelStyle := styles.LabelStyle
	if p.currentField == field && p.focused {
		labelStyle = labelStyle.Foreground(styles.PrimaryColor)
	}
	labelStr := labelStyle.Render(fmt.Sprintf("%-8s", label))
	return labelStr + inputView
}

func (p *TradePanel) renderTickerField() string {
	var result strings.Builder

	inputStyle := styles.InputStyle
	if p.currentField == FieldTicker && p.focused {
		inputStyle = styles.FocusedInputStyle
		p.tickerInput.Focus()
	} else {
		p.tickerInput.Blur()
	}

	result.WriteString(inputStyle.Render(p.tickerInput.View()))

	if p.showDropdown && len(p.dropdownFiltered) > 0 {
		result.WriteString("\n")
		maxShow := 5
		if len(p.dropdownFiltered) < maxShow {
			maxShow = len(p.dropdownFiltered)
		}

		for i := 0; i < maxShow; i++ {
			item := p.dropdownFiltered[i]
			style := styles.DropdownItemStyle
			if i == p.dropdownIndex {
				style = styles.DropdownSelectedStyle
			}

			highlighted := p.highlightMatch(item, p.tickerInput.Value())
			result.WriteString("         " + style.Render(highlighted))
			if i < maxShow-1 {
				result.WriteString("\n")
			}
		}
	}

	return result.String()
}

func (p *TradePanel) renderActionField() string {
	var items []string
	for i, opt := range p.actionOptions {
		style := styles.DropdownItemStyle
		if i == p.actionIndex {
			if p.currentField == FieldAction && p.focused {
				style = styles.DropdownSelectedStyle
			} else {
				style = styles.DropdownItemStyle.Bold(true)
			}
			switch opt {
			case ledger.ActionBuy, ledger.ActionCover:
				style = style.Foreground(styles.UpColor)
			case ledger.ActionSell, ledger.ActionShort:
				style = style.Foreground(styles.DownColor)
			}
		}
		items = append(items, style.Render(strings.ToUpper(string(opt))))
	}
	return strings.Join(items, " | ")
}

func (p *TradePanel) renderTradeSummary() string {
	var parts []string

	ticker := p.tickerInput.Value()
	if p.selectedStock != nil {
		ticker = p.selectedStock.Ticker
	}
	if ticker == "" {
		ticker = "---"
	}
	parts = append(parts, ticker)

	action := p.actionOptions[p.actionIndex]
	actionStyle := styles.BuyStyle
	if action == ledger.ActionSell || action == ledger.ActionShort {
		actionStyle = styles.SellStyle
	}
	parts = append(parts, actionStyle.Render(strings.ToUpper(string(action))))

	qty := p.quantityInput.Value()
	if qty == "" {
		qty = "0"
	}
	parts = append(parts, "x"+qty)

	return styles.HeaderStyle.Render("Trade: ") + strings.Join(parts, " ")
}

func (p *TradePanel) filterDropdown(query string) {
	query = strings.ToUpper(query)
	p.dropdownFiltered = nil
	p.dropdownIndex = 0

	for _, item := range p.dropdownItems {
		if strings.Contains(strings.ToUpper(item), query) {
			p.dropdownFiltered = append(p.dropdownFiltered, item)
		}
	}
}

func (p *TradePanel) highlightMatch(item, query string) string {
	if query == "" {
		return item
	}

	upper := strings.ToUpper(item)
	queryUpper := strings.ToUpper(query)
	idx := strings.Index(upper, queryUpper)
	if idx == -1 {
		return item
	}

	before := item[:idx]
	match := item[idx : idx+len(query)]
	after := item[idx+len(query):]

	return before + styles.DropdownMatchStyle.Render(match) + after
}

func (p *TradePanel) selectDropdownItem() {
	if p.dropdownIndex < len(p.dropdownFiltered) {
		selected := p.dropdownFiltered[p.dropdownIndex]
		p.tickerInput.SetValue(selected)

		for i, s := range p.stocks {
			if s.Ticker == selected {
				p.selectedStock = &p.stocks[i]
				break
			}
		}
	}
}

func (p *TradePanel) nextField() {
	p.showDropdown = false
	switch p.currentField {
	case FieldTicker:
		p.selectDropdownItem()
		p.currentField = FieldAction
		p.tickerInput.Blur()
	case FieldAction:
		p.currentField = FieldQuantity
		p.quantityInput.Focus()
	case FieldQuantity:
		p.currentField = FieldSubmit
		p.quantityInput.Blur()
	case FieldSubmit:
		p.currentField = FieldTicker
		p.tickerInput.Focus()
	}
}

func (p *TradePanel) prevField() {
	p.showDropdown = false
	switch p.currentField {
	case FieldTicker:
		p.currentField = FieldSubmit
		p.tickerInput.Blur()
	case FieldAction:
		p.currentField = FieldTicker
		p.tickerInput.Focus()
	case FieldQuantity:
		p.currentField = FieldAction
		p.quantityInput.Blur()
	case FieldSubmit:
		p.currentField = FieldQuantity
		p.quantityInput.Focus()
	}
}

func (p *TradePanel) submitTrade() tea.Cmd {
	if p.selectedStock == nil {
		return nil
	}

	qty, err := strconv.ParseInt(p.quantityInput.Value(), 10, 64)
	if err != nil || qty <= 0 {
		return nil
	}

	stockID := p.selectedStock.ID
	action := p.actionOptions[p.actionIndex]

	return func() tea.Msg {
		return TradeSubmitMsg{
			StockID:  stockID,
			Action:   action,
			Quantity: qty,
		}
	}
}

// SetFocus sets the focus state of the panel.
func (p *TradePanel) SetFocus(focused bool) {
	p.focused = focused
	if focused {
		switch p.currentField {
		case FieldTicker:
			p.tickerInput.Focus()
		case FieldQuantity:
			p.quantityInput.Focus()
		}
	} else {
		p.tickerInput.Blur()
		p.quantityInput.Blur()
	}
}

// SetSize sets the panel dimensions.
func (p *TradePanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetStocks refreshes the tradable universe.
func (p *TradePanel) SetStocks(stocks []market.Stock) {
	p.stocks = stocks
	tickers := make([]string, len(stocks))
	for i, s := range stocks {
		tickers[i] = s.Ticker
	}
	p.dropdownItems = tickers
	if p.selectedStock != nil {
		for i := range stocks {
			if stocks[i].ID == p.selectedStock.ID {
				p.selectedStock = &p.stocks[i]
				break
			}
		}
	}
}

// SetTicker pre-fills the ticker field.
func (p *TradePanel) SetTicker(stock market.Stock) {
	p.tickerInput.SetValue(stock.Ticker)
	p.selectedStock = &stock
}

// Reset clears the input fields.
func (p *TradePanel) Reset() {
	p.tickerInput.SetValue("")
	p.quantityInput.SetValue("")
	p.selectedStock = nil
	p.currentField = FieldTicker
	p.actionIndex = 0
	p.showDropdown = false
}

// TradeSubmitMsg is sent when a trade is submitted.
type TradeSubmitMsg struct {
	StockID  market.StockID
	Action   ledger.Action
	Quantity int64
}
