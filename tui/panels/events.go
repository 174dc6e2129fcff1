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

// EventFeedPanel displays the session's market event log, newest
// last.
type EventFeedPanel struct {
	events        []market.Event
	selectedIndex int
	scrollOffset  int
	focused       bool
	width         int
	height        int
	maxItems      int
}

// NewEventFeedPanel creates a new event feed panel.
func NewEventFeedPanel() *EventFeedPanel {
	return &EventFeedPanel{
		maxItems: 50,
	}
}

// Init initializes the panel.
func (p *EventFeedPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the panel.
func (p *EventFeedPanel) Update(msg tea.Msg) (*EventFeedPanel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if !p.focused {
			return p, nil
		}
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
			if p.selectedIndex > 0 {
				p.selectedIndex--
				if p.selectedIndex < p.scrollOffset {
					p.scrollOffset = p.selectedIndex
				}
			}
		case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
			if p.selectedIndex < len(p.events)-1 {
				p.selectedIndex++
				visibleItems := p.height - 4
				if p.selectedIndex >= p.scrollOffset+visibleItems {
					p.scrollOffset = p.selectedIndex - visibleItems + 1
				}
			}
		}
	}
	return p, nil
}

// View renders the panel.
func (p *EventFeedPanel) View() string {
	var content strings.Builder

	if len(p.events) == 0 {
		content.WriteString(lipgloss.NewStyle().Foreground(styles.TextMutedColor).Render("No events yet"))
	} else {
		visibleItems := p.height - 4
		if visibleItems < 1 {
			visibleItems = 1
		}

		start := p.scrollOffset
		end := start + visibleItems
		if end > len(p.events) {
			end = len(p.events)
		}

		for i := start; i < end; i++ {
			ev := p.events[i]

			title := ev.Title
			if len(title) > p.width-12 && p.width > 15 {
				title = title[:p.width-15] + "..."
			}

			tickStyled := styles.TimeStyle.Render(fmt.Sprintf("t%03d", ev.Tick))
			titleStyled := eventStyle(ev).Render(title)

			line := fmt.Sprintf("%s %s", tickStyled, titleStyled)
			if i == p.selectedIndex && p.focused {
				line = styles.SelectedRowStyle.Render(line)
			}

			content.WriteString(line)
			if i < end-1 {
				content.WriteString("\n")
			}
		}

		if len(p.events) > visibleItems {
			scrollInfo := fmt.Sprintf(" (%d/%d)", p.selectedIndex+1, len(p.events))
			content.WriteString("\n")
			content.WriteString(lipgloss.NewStyle().Foreground(styles.TextMutedColor).Render(scrollInfo))
		}
	}

	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}

	title := styles.RenderTitle("📰 Events", p.focused)
	panel := lipgloss.JoinVertical(lipgloss.Left, title, content.String())

	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

// eventStyle colors an event by what it does to the stock.
func eventStyle(ev market.Event) lipgloss.Style {
	switch {
	case ev.Type == market.EventSECHalt:
		return styles.EventHaltStyle
	case ev.PriceImpact > 1:
		return styles.EventBullishStyle
	case ev.PriceImpact < 1:
		return styles.EventBearishStyle
	default:
		return styles.EventNormalStyle
	}
}

// SetFocus sets the focus state of the panel.
func (p *EventFeedPanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *EventFeedPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetEvents replaces the feed with the full session log.
func (p *EventFeedPanel) SetEvents(events []market.Event) {
	if len(events) > p.maxItems {
		events = events[len(events)-p.maxItems:]
	}
	p.events = events
	if p.selectedIndex >= len(p.events) {
		p.selectedIndex = len(p.events) - 1
		if p.selectedIndex < 0 {
			p.selectedIndex = 0
		}
	}
}

// AddEvents appends fresh events to the feed.
func (p *EventFeedPanel) AddEvents(events []market.Event) {
	p.events = append(p.events, events...)
	if len(p.events) > p.maxItems {
		p.events = p.events[len(p.events)-p.maxItems:]
	}
}

// SelectedEvent returns the currently selected event.
func (p *EventFeedPanel) SelectedEvent() *market.Event {
	if p.selectedIndex >= 0 && p.selectedIndex < len(p.events) {
		return &p.events[p.selectedIndex]
	}
	return nil
}
