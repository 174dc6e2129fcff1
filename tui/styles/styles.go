package styles

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	// Primary colors
	PrimaryColor   = lipgloss.Color("#7C3AED") // Purple
	SecondaryColor = lipgloss.Color("#10B981") // Green
	AccentColor    = lipgloss.Color("#F59E0B") // Amber

	// Status colors
	UpColor      = lipgloss.Color("#10B981") // Green
	DownColor    = lipgloss.Color("#EF4444") // Red
	HaltColor    = lipgloss.Color("#F59E0B") // Amber
	NeutralColor = lipgloss.Color("#6B7280") // Gray

	// Background colors
	BackgroundColor      = lipgloss.Color("#1F2937")
	PanelBackgroundColor = lipgloss.Color("#111827")
	BorderColor          = lipgloss.Color("#374151")
	FocusBorderColor     = lipgloss.Color("#7C3AED")

	// Text colors
	TextColor          = lipgloss.Color("#F9FAFB")
	TextSecondaryColor = lipgloss.Color("#9CA3AF")
	TextMutedColor     = lipgloss.Color("#6B7280")
)

// Panel styles
var (
	// Base panel style
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	// Focused panel style
	FocusedPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(FocusBorderColor).
				Padding(0, 1)

	// Panel title style
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			Padding(0, 1)

	// Header row style
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextSecondaryColor)

	// Row styles
	RowStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	SelectedRowStyle = lipgloss.NewStyle().
				Foreground(TextColor).
				Background(lipgloss.Color("#374151"))
)

// Text styles
var (
	// Buy/Sell text
	BuyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(UpColor)

	SellStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(DownColor)

	// Price styles
	PriceStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	PriceUpStyle = lipgloss.NewStyle().
			Foreground(UpColor)

	PriceDownStyle = lipgloss.NewStyle().
			Foreground(DownColor)

	// Halted instrument marker
	HaltedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(HaltColor)

	// Size style
	SizeStyle = lipgloss.NewStyle().
			Foreground(TextSecondaryColor)

	// Timestamp style
	TimeStyle = lipgloss.NewStyle().
			Foreground(TextMutedColor)

	// Event feed styles
	EventNormalStyle = lipgloss.NewStyle().
				Foreground(TextColor)

	EventBullishStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(UpColor)

	EventBearishStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(DownColor)

	EventHaltStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(HaltColor)
)

// Input styles
var (
	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	FocusedInputStyle = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder()).
				BorderForeground(FocusBorderColor).
				Padding(0, 1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(TextSecondaryColor)

	PlaceholderStyle = lipgloss.NewStyle().
				Foreground(TextMutedColor)

	DropdownStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(BorderColor).
			Background(PanelBackgroundColor)

	DropdownItemStyle = lipgloss.NewStyle().
				Foreground(TextColor).
				Padding(0, 1)

	DropdownSelectedStyle = lipgloss.NewStyle().
				Foreground(TextColor).
				Background(lipgloss.Color("#374151")).
				Padding(0, 1)

	DropdownMatchStyle = lipgloss.NewStyle().
				Foreground(PrimaryColor).
				Bold(true)
)

// Chart styles
var (
	CandleUpStyle = lipgloss.NewStyle().
			Foreground(UpColor)

	CandleDownStyle = lipgloss.NewStyle().
			Foreground(DownColor)

	ChartAxisStyle = lipgloss.NewStyle().
			Foreground(TextMutedColor)

	ChartLabelStyle = lipgloss.NewStyle().
			Foreground(TextSecondaryColor)
)

// Status bar styles
var (
	StatusBarStyle = lipgloss.NewStyle().
			Background(BackgroundColor).
			Foreground(TextSecondaryColor).
			Padding(0, 1)

	StatusBarKeyStyle = lipgloss.NewStyle().
				Foreground(PrimaryColor).
				Bold(true)

	StatusBarDescStyle = lipgloss.NewStyle().
				Foreground(TextSecondaryColor)
)

// Helper function to render a title bar for a panel
func RenderTitle(title string, focused bool) string {
	style := TitleStyle
	if focused {
		style = style.Foreground(FocusBorderColor)
	}
	return style.Render(title)
}

// FormatPrice renders a dollar price with the same precision the
// pricing model uses: cents at a dollar and up, four decimals below.
func FormatPrice(price float64) string {
	if price >= 1 {
		return fmt.Sprintf("$%.2f", price)
	}
	return fmt.Sprintf("$%.4f", price)
}

// FormatChange renders a signed percentage move, styled by direction.
func FormatChange(pct float64) string {
	switch {
	case pct > 0:
		return PriceUpStyle.Render(fmt.Sprintf("+%.2f%%", pct))
	case pct < 0:
		return PriceDownStyle.Render(fmt.Sprintf("%.2f%%", pct))
	default:
		return PriceStyle.Render("0.00%")
	}
}

// FormatCash renders a cash balance with thousands precision.
func FormatCash(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}
