package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zappabad/microcap/internal/game"
	"github.com/zappabad/microcap/internal/ledger"
	"github.com/zappabad/microcap/internal/scoring"
	"github.com/zappabad/microcap/internal/session/service"
	"github.com/zappabad/microcap/tui/panels"
	"github.com/zappabad/microcap/tui/styles"
)

// PanelFocus represents which panel is currently focused.
type PanelFocus int

const (
	FocusMarket    PanelFocus = 0
	FocusBook      PanelFocus = 1
	FocusChart     PanelFocus = 2
	FocusEvents    PanelFocus = 3
	FocusTrade     PanelFocus = 4
	FocusPortfolio PanelFocus = 5

	panelCount = 6
)

// Model is the main TUI application model. It drives one game: join,
// trade through the rounds, and read the score report between them.
type Model struct {
	game     *game.Game
	playerID string

	// Session view state, refreshed from service updates.
	tick   int
	length int
	speed  float64
	paused bool

	// Round results overlay.
	result     *game.RoundResult
	showResult bool

	// Panels
	marketPanel    *panels.MarketOverviewPanel
	bookPanel      *panels.BookPanel
	chartPanel     *panels.ChartPanel
	eventsPanel    *panels.EventFeedPanel
	tradePanel     *panels.TradePanel
	portfolioPanel *panels.PortfolioPanel

	focusedPanel PanelFocus

	width  int
	height int

	statusMsg string
	ready     bool
}

// NewModel creates a new TUI model around a joined game.
func NewModel(g *game.Game, playerID string) *Model {
	snap, _ := g.Session().Snapshot(context.Background())

	marketPanel := panels.NewMarketOverviewPanel(snap.Stocks)
	bookPanel := panels.NewBookPanel()
	chartPanel := panels.NewChartPanel()
	eventsPanel := panels.NewEventFeedPanel()
	tradePanel := panels.NewTradePanel(snap.Stocks)
	portfolioPanel := panels.NewPortfolioPanel()

	if len(snap.Stocks) > 0 {
		bookPanel.SetStock(snap.Stocks[0])
		chartPanel.SetStock(snap.Stocks[0])
	}
	portfolioPanel.SetStocks(snap.Stocks)

	return &Model{
		game:           g,
		playerID:       playerID,
		length:         snap.SessionLength,
		speed:          snap.Speed,
		marketPanel:    marketPanel,
		bookPanel:      bookPanel,
		chartPanel:     chartPanel,
		eventsPanel:    eventsPanel,
		tradePanel:     tradePanel,
		portfolioPanel: portfolioPanel,
		focusedPanel:   FocusTrade,
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.marketPanel.Init(),
		m.bookPanel.Init(),
		m.chartPanel.Init(),
		m.eventsPanel.Init(),
		m.tradePanel.Init(),
		m.portfolioPanel.Init(),
		m.listenSessionUpdates(),
		m.refreshPlayer(),
	)
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "tab":
			m.focusedPanel = (m.focusedPanel + 1) % panelCount
			return m, nil

		case "shift+tab":
			m.focusedPanel--
			if m.focusedPanel < 0 {
				m.focusedPanel = panelCount - 1
			}
			return m, nil

		case "f1":
			m.focusedPanel = FocusMarket
			return m, nil
		case "f2":
			m.focusedPanel = FocusBook
			return m, nil
		case "f3":
			m.focusedPanel = FocusChart
			return m, nil
		case "f4":
			m.focusedPanel = FocusEvents
			return m, nil
		case "f5":
			m.focusedPanel = FocusTrade
			return m, nil
		case "f6":
			m.focusedPanel = FocusPortfolio
			return m, nil

		case " ":
			return m, m.togglePause()

		case "1", "2", "3", "4":
			return m, m.setSpeedKey(msg.String())

		case "enter":
			if m.showResult {
				m.showResult = false
				m.startNextRound()
				return m, nil
			}

		case "r":
			if m.game.Phase() == game.PhaseTrading && m.focusedPanel != FocusTrade {
				m.finishRound()
				return m, nil
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case sessionUpdateMsg:
		m.handleSessionUpdate(msg.update)
		cmds = append(cmds, m.listenSessionUpdates())
		if len(msg.update.Stocks) > 0 {
			cmds = append(cmds, m.refreshPlayer())
		}

	case sessionClosedMsg:
		return m, tea.Quit

	case panels.StockSelectedMsg:
		m.bookPanel.SetStock(msg.Stock)
		m.chartPanel.SetStock(msg.Stock)
		m.tradePanel.SetTicker(msg.Stock)

	case panels.TradeSubmitMsg:
		cmds = append(cmds, m.submitTrade(msg))

	case tradeResultMsg:
		m.statusMsg = msg.message
		if msg.player != nil {
			m.portfolioPanel.SetPlayer(msg.player)
		}
		if msg.ok {
			m.tradePanel.Reset()
		}

	case playerMsg:
		m.portfolioPanel.SetPlayer(msg.player)

	case controlResultMsg:
		if msg.message != "" {
			m.statusMsg = msg.message
		}
		m.paused = msg.paused
		m.speed = msg.speed
	}

	m.updateFocusedPanel(msg, &cmds)

	return m, tea.Batch(cmds...)
}

func (m *Model) updateFocusedPanel(msg tea.Msg, cmds *[]tea.Cmd) {
	var cmd tea.Cmd

	switch m.focusedPanel {
	case FocusMarket:
		m.marketPanel, cmd = m.marketPanel.Update(msg)
		if selected, ok := m.marketPanel.SelectedStock(); ok {
			if current, has := m.bookPanel.Stock(); !has || current.ID != selected.ID {
				m.bookPanel.SetStock(selected)
				m.chartPanel.SetStock(selected)
			}
		}
	case FocusBook:
		m.bookPanel, cmd = m.bookPanel.Update(msg)
	case FocusChart:
		m.chartPanel, cmd = m.chartPanel.Update(msg)
	case FocusEvents:
		m.eventsPanel, cmd = m.eventsPanel.Update(msg)
	case FocusTrade:
		m.tradePanel, cmd = m.tradePanel.Update(msg)
	case FocusPortfolio:
		m.portfolioPanel, cmd = m.portfolioPanel.Update(msg)
	}

	if cmd != nil {
		*cmds = append(*cmds, cmd)
	}
}

// View renders the UI.
func (m *Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.showResult && m.result != nil {
		return m.renderResult()
	}

	m.marketPanel.SetFocus(m.focusedPanel == FocusMarket)
	m.bookPanel.SetFocus(m.focusedPanel == FocusBook)
	m.chartPanel.SetFocus(m.focusedPanel == FocusChart)
	m.eventsPanel.SetFocus(m.focusedPanel == FocusEvents)
	m.tradePanel.SetFocus(m.focusedPanel == FocusTrade)
	m.portfolioPanel.SetFocus(m.focusedPanel == FocusPortfolio)

	// Layout:
	// ┌───────────────────┬─────────────┬───────────┐
	// │  Market Overview  │    Book     │   Chart   │
	// ├───────────────────┼─────────────┼───────────┤
	// │      Events       │    Trade    │ Portfolio │
	// └───────────────────┴─────────────┴───────────┘

	leftWidth := m.width / 3
	middleWidth := m.width / 3
	rightWidth := m.width - leftWidth - middleWidth

	topHeight := (m.height - 3) / 2
	bottomHeight := m.height - topHeight - 3

	m.marketPanel.SetSize(leftWidth, topHeight)
	m.bookPanel.SetSize(middleWidth, topHeight)
	m.chartPanel.SetSize(rightWidth, topHeight)

	topRow := lipgloss.JoinHorizontal(lipgloss.Top,
		m.marketPanel.View(),
		m.bookPanel.View(),
		m.chartPanel.View(),
	)

	m.eventsPanel.SetSize(leftWidth, bottomHeight)
	m.tradePanel.SetSize(middleWidth, bottomHeight)
	m.portfolioPanel.SetSize(rightWidth, bottomHeight)

	bottomRow := lipgloss.JoinHorizontal(lipgloss.Top,
		m.eventsPanel.View(),
		m.tradePanel.View(),
		m.portfolioPanel.View(),
	)

	statusBar := m.renderStatusBar()

	return lipgloss.JoinVertical(lipgloss.Left, topRow, bottomRow, statusBar)
}

func (m *Model) renderStatusBar() string {
	session := fmt.Sprintf("Round %d/%d │ Tick %d/%d │ %gx",
		m.game.Round(), m.game.MaxRounds(), m.tick, m.length, m.speed)
	if m.paused {
		session += " │ " + styles.HaltedStyle.Render("PAUSED")
	}

	help := []string{
		styles.StatusBarKeyStyle.Render("F1-F6") + styles.StatusBarDescStyle.Render(" panels"),
		styles.StatusBarKeyStyle.Render("space") + styles.StatusBarDescStyle.Render(" pause"),
		styles.StatusBarKeyStyle.Render("1-4") + styles.StatusBarDescStyle.Render(" speed"),
		styles.StatusBarKeyStyle.Render("r") + styles.StatusBarDescStyle.Render(" end round"),
		styles.StatusBarKeyStyle.Render("q") + styles.StatusBarDescStyle.Render(" quit"),
	}
	helpStr := strings.Join(help, " │ ")

	status := ""
	if m.statusMsg != "" {
		status = " │ " + m.statusMsg
	}

	return styles.StatusBarStyle.Width(m.width).Render(session + " │ " + helpStr + status)
}

func (m *Model) renderResult() string {
	r := m.result
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render(fmt.Sprintf("Round %d Results", m.game.Round())))
	b.WriteString("\n\n")

	row := func(label string, value string) {
		b.WriteString(fmt.Sprintf("%s %s\n", styles.LabelStyle.Render(fmt.Sprintf("%-16s", label)), value))
	}

	pnlStr := styles.FormatCash(r.Score.PnL)
	if r.Score.PnL >= 0 {
		pnlStr = styles.PriceUpStyle.Render("+" + pnlStr)
	} else {
		pnlStr = styles.PriceDownStyle.Render(pnlStr)
	}

	row("P&L", fmt.Sprintf("%s (%.0f pts)", pnlStr, r.Score.PnLScore))
	row("Max drawdown", fmt.Sprintf("%.1f%% (%.0f pts)", r.Score.MaxDrawdown*100, r.Score.RiskScore))
	row("Win rate", fmt.Sprintf("%.0f%% (%.0f pts)", r.Score.WinRate*100, r.Score.AccuracyScore))
	row("Speed", fmt.Sprintf("%d rounds (%.0f pts)", r.Score.RoundsUsed, r.Score.SpeedScore))
	row("Challenge bonus", fmt.Sprintf("%.0f pts", r.Score.ChallengeBonus))
	b.WriteString("\n")
	row("Total", styles.TitleStyle.Render(fmt.Sprintf("%.0f", r.Score.TotalScore)))

	level := scoring.ConfigForLevel(r.Score.Level)
	row("Level", fmt.Sprintf("%d (%s)", level.Level, level.Label))

	if len(r.Score.Badges) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.HeaderStyle.Render("Badges"))
		b.WriteString("\n")
		byID := make(map[scoring.BadgeID]scoring.Badge)
		for _, badge := range scoring.AllBadges() {
			byID[badge.ID] = badge
		}
		for _, id := range r.Score.Badges {
			badge := byID[id]
			b.WriteString(fmt.Sprintf("  🏅 %s %s\n",
				styles.HeaderStyle.Render(badge.Name),
				styles.StatusBarDescStyle.Render(badge.Description)))
		}
	}

	if len(r.Challenges) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.HeaderStyle.Render("Challenges"))
		b.WriteString("\n")
		for _, ch := range r.Challenges {
			mark := "·"
			if ch.Completed {
				mark = "✓"
			}
			b.WriteString(fmt.Sprintf("  %s %s %.0f%%\n", mark, ch.ChallengeID, ch.Progress*100))
		}
	}

	b.WriteString("\n")
	if m.game.Round() < m.game.MaxRounds() {
		b.WriteString(styles.StatusBarDescStyle.Render("enter: next round  │  q: quit"))
	} else {
		b.WriteString(styles.StatusBarDescStyle.Render("Game over  │  q: quit"))
	}

	panel := styles.FocusedPanelStyle.Padding(1, 3).Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, panel)
}

func (m *Model) handleSessionUpdate(u service.Update) {
	m.tick = u.Tick

	m.marketPanel.SetStocks(u.Stocks)
	m.tradePanel.SetStocks(u.Stocks)
	m.portfolioPanel.SetStocks(u.Stocks)

	if current, ok := m.bookPanel.Stock(); ok {
		for i := range u.Stocks {
			if u.Stocks[i].ID == current.ID {
				m.bookPanel.SetStock(u.Stocks[i])
				m.chartPanel.SetStock(u.Stocks[i])
				break
			}
		}
	}

	if len(u.NewEvents) > 0 {
		m.eventsPanel.AddEvents(u.NewEvents)
	}

	if u.SessionComplete {
		m.statusMsg = "Session complete, press r for results"
	}
}

func (m *Model) submitTrade(msg panels.TradeSubmitMsg) tea.Cmd {
	return func() tea.Msg {
		trade, player, err := m.game.Session().ExecuteTrade(
			context.Background(), m.playerID, msg.StockID, msg.Action, msg.Quantity)
		if err != nil {
			return tradeResultMsg{message: "❌ " + err.Error()}
		}
		return tradeResultMsg{
			ok:     true,
			player: player,
			message: fmt.Sprintf("✓ %s %d @ %s",
				strings.ToUpper(string(trade.Action)), trade.Quantity, styles.FormatPrice(trade.Price)),
		}
	}
}

func (m *Model) togglePause() tea.Cmd {
	paused := m.paused
	return func() tea.Msg {
		ctx := context.Background()
		if paused {
			if err := m.game.Session().Resume(ctx); err != nil {
				return controlResultMsg{message: "❌ " + err.Error(), paused: paused, speed: m.speed}
			}
			return controlResultMsg{paused: false, speed: m.speed}
		}
		if err := m.game.Session().Pause(ctx); err != nil {
			return controlResultMsg{message: "❌ " + err.Error(), paused: paused, speed: m.speed}
		}
		return controlResultMsg{paused: true, speed: m.speed}
	}
}

func (m *Model) setSpeedKey(k string) tea.Cmd {
	speeds := map[string]float64{"1": 0.5, "2": 1, "3": 2, "4": 4}
	speed := speeds[k]
	paused := m.paused
	return func() tea.Msg {
		if err := m.game.Session().SetSpeed(context.Background(), speed); err != nil {
			return controlResultMsg{message: "❌ " + err.Error(), paused: paused, speed: m.speed}
		}
		return controlResultMsg{message: fmt.Sprintf("Speed %gx", speed), paused: paused, speed: speed}
	}
}

// finishRound and startNextRound run on the Update goroutine because
// Game itself is not safe for concurrent use; only the session service
// behind it is.
func (m *Model) finishRound() {
	result, err := m.game.FinishRound(context.Background(), m.playerID, time.Now().UnixNano())
	if err != nil {
		m.statusMsg = "❌ " + err.Error()
		return
	}
	m.result = &result
	m.showResult = true
}

func (m *Model) startNextRound() {
	if err := m.game.StartRound(context.Background()); err != nil {
		m.statusMsg = "❌ " + err.Error()
		return
	}
	m.paused = false
	m.statusMsg = fmt.Sprintf("Round %d", m.game.Round())
}

func (m *Model) refreshPlayer() tea.Cmd {
	return func() tea.Msg {
		player, err := m.game.Session().Player(context.Background(), m.playerID)
		if err != nil {
			return nil
		}
		return playerMsg{player: player}
	}
}

func (m *Model) listenSessionUpdates() tea.Cmd {
	return func() tea.Msg {
		u, ok := <-m.game.Session().Updates()
		if !ok {
			return sessionClosedMsg{}
		}
		return sessionUpdateMsg{update: u}
	}
}

// sessionUpdateMsg carries one tick's worth of state from the session
// service into the UI loop.
type sessionUpdateMsg struct {
	update service.Update
}

type sessionClosedMsg struct{}

type tradeResultMsg struct {
	ok      bool
	player  *ledger.Player
	message string
}

type playerMsg struct {
	player *ledger.Player
}

type controlResultMsg struct {
	message string
	paused  bool
	speed   float64
}
