// Package styles defines the visual styling for the application.
package styles

import "github.com/charmbracelet/lipgloss"

// Color definitions for the dashboard theme.
var (
	// Primary colors
	Primary   = lipgloss.Color("205") // Pink
	Secondary = lipgloss.Color("63")  // Purple
	Subtle    = lipgloss.Color("240") // Gray

	// Provider colors
	OpenAI    = lipgloss.Color("36")  // Teal
	Anthropic = lipgloss.Color("208") // Orange

	// OtherColor is used for the folded "Other" segment.
	OtherColor = lipgloss.Color("242")

	// Status colors
	Success = lipgloss.Color("42")  // Green
	Error   = lipgloss.Color("196") // Red
	Warning = lipgloss.Color("220") // Yellow
	Info    = lipgloss.Color("39")  // Blue

	// Background colors
	BgDark = lipgloss.Color("235")

	// Text colors
	TextPrimary   = lipgloss.Color("252")
	TextSecondary = lipgloss.Color("245")
	TextMuted     = lipgloss.Color("240")

	// ToastStyle for floating notifications.
	ToastStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(0, 1).
			MarginBottom(1)
)

// TitleStyle is used for main headings.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

// DocStyle provides consistent document margins.
var DocStyle = lipgloss.NewStyle().
	Margin(1, 2).
	Padding(0, 1)

// CardStyle creates a bordered card container.
var CardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Subtle).
	Padding(1, 2).
	MarginBottom(1)

// CardTitleStyle styles card headers.
var CardTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

// FocusedStyle is used for focused input elements.
var FocusedStyle = lipgloss.NewStyle().
	Foreground(Primary).
	Bold(true)

// BlurredStyle is used for unfocused input elements.
var BlurredStyle = lipgloss.NewStyle().
	Foreground(TextMuted)

// FocusedBorderStyle creates a focused border.
var FocusedBorderStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Primary).
	Padding(0, 1)

// HelpStyle is the base style for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(TextMuted)

// HelpSeparatorStyle styles separators in help text.
var HelpSeparatorStyle = lipgloss.NewStyle().
	Foreground(Subtle)

// HelpPanelStyle creates the help overlay panel.
var HelpPanelStyle = lipgloss.NewStyle().
	Border(lipgloss.DoubleBorder()).
	BorderForeground(Primary).
	Padding(1, 3).
	Background(BgDark)

// TableHeaderStyle styles table headers.
var TableHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	BorderStyle(lipgloss.NormalBorder()).
	BorderBottom(true).
	BorderForeground(Subtle)

// TableCellStyle styles table cells.
var TableCellStyle = lipgloss.NewStyle().
	Padding(0, 1)

// ErrorTextStyle for error messages.
var ErrorTextStyle = lipgloss.NewStyle().
	Foreground(Error)

// SuccessTextStyle for success messages.
var SuccessTextStyle = lipgloss.NewStyle().
	Foreground(Success)

// WarningTextStyle for warning messages.
var WarningTextStyle = lipgloss.NewStyle().
	Foreground(Warning)

// InfoTextStyle for info messages.
var InfoTextStyle = lipgloss.NewStyle().
	Foreground(Info)

// ModalContentStyle styles modal content.
var ModalContentStyle = lipgloss.NewStyle().
	Border(lipgloss.DoubleBorder()).
	BorderForeground(Primary).
	Padding(1, 2).
	Background(BgDark)

// StaleStyle marks data kept from an earlier fetch.
var StaleStyle = lipgloss.NewStyle().
	Foreground(Warning).
	Italic(true)

// NoiseStyle dims bars below the noise floor.
var NoiseStyle = lipgloss.NewStyle().
	Foreground(TextMuted)

// OutlierStyle marks bars clipped at the axis maximum.
var OutlierStyle = lipgloss.NewStyle().
	Foreground(Warning).
	Bold(true)

// ColumnStyle frames a selector column.
var ColumnStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Subtle).
	Padding(0, 1)

// FocusedColumnStyle frames the focused selector column.
var FocusedColumnStyle = ColumnStyle.
	BorderForeground(Primary)

// ColumnHeaderStyle styles selector column headers.
var ColumnHeaderStyle = lipgloss.NewStyle().
	Foreground(TextSecondary).
	Bold(true)

// segmentPalette holds the colors of chart segments, in legend order.
var segmentPalette = []lipgloss.Color{
	lipgloss.Color("39"),  // Blue
	lipgloss.Color("205"), // Pink
	lipgloss.Color("42"),  // Green
	lipgloss.Color("220"), // Yellow
	lipgloss.Color("141"), // Lavender
	lipgloss.Color("209"), // Salmon
	lipgloss.Color("51"),  // Cyan
	lipgloss.Color("170"), // Magenta
}

// SegmentColor returns the color of the i-th chart segment. Colors repeat
// after the palette is exhausted.
func SegmentColor(i int) lipgloss.Color {
	if i < 0 {
		i = -i
	}
	return segmentPalette[i%len(segmentPalette)]
}

// ProviderColor returns the brand color of a provider by name.
func ProviderColor(name string) lipgloss.Color {
	switch name {
	case "OpenAI":
		return OpenAI
	case "Anthropic":
		return Anthropic
	default:
		return Secondary
	}
}

// CenterBoth centers content both horizontally and vertically.
func CenterBoth(content string, width, height int) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center).
		AlignVertical(lipgloss.Center).
		Render(content)
}
