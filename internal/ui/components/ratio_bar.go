package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/llm-usage-tui/internal/logger"
	"github.com/j-veylop/llm-usage-tui/internal/ui/styles"
)

const (
	gradientLow  = "#5fafff"
	gradientHigh = "#51cf66"
)

// RatioBar renders a labelled bar for a fraction in [0,1]. An unavailable
// ratio renders as an empty track with "n/a".
func RatioBar(label string, fraction float64, available bool, width int) string {
	labelStr := lipgloss.NewStyle().Foreground(styles.TextSecondary).Render(label)
	barWidth := max(width-lipgloss.Width(label)-10, 5)

	if !available {
		track := lipgloss.NewStyle().Foreground(styles.Subtle).Render(strings.Repeat("░", barWidth))
		return fmt.Sprintf("%s %s %6s", labelStr, track, styles.HelpStyle.Render("n/a"))
	}

	fraction = min(max(fraction, 0), 1)
	bar := progress.New(
		progress.WithGradient(gradientLow, gradientHigh),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)

	percentStr := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		Width(6).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%.0f%%", fraction*100))

	return fmt.Sprintf("%s %s %s", labelStr, bar.ViewAs(fraction), percentStr)
}

// RenderGradientBar renders just the bar part with gradient colors.
func RenderGradientBar(percent float64, width int) string {
	if width < 1 {
		return ""
	}

	filled := min(max(int(float64(width)*percent/100), 0), width)

	var b strings.Builder
	for i := range width {
		if i < filled {
			t := float64(i) / float64(max(1, width-1))
			color := interpolateColor(gradientLow, gradientHigh, t)
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("█"))
		} else {
			b.WriteString(lipgloss.NewStyle().Foreground(styles.Subtle).Render("░"))
		}
	}

	return b.String()
}

func interpolateColor(fromHex, toHex string, t float64) string {
	from := hexToRGB(fromHex)
	to := hexToRGB(toHex)

	r := int(float64(from[0]) + t*(float64(to[0])-float64(from[0])))
	g := int(float64(from[1]) + t*(float64(to[1])-float64(from[1])))
	b := int(float64(from[2]) + t*(float64(to[2])-float64(from[2])))

	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func hexToRGB(hex string) [3]int {
	hex = strings.TrimPrefix(hex, "#")
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		logger.Error("failed to parse hex color", "hex", hex, "error", err)
		return [3]int{0, 0, 0}
	}
	return [3]int{r, g, b}
}
