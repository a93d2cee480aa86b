// Package components provides reusable UI components for the TUI.
package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/j-veylop/llm-usage-tui/internal/ui/styles"
)

// RenderLineChart creates a single-series ASCII line chart.
func RenderLineChart(data []float64, width, height int, caption string) string {
	if len(data) == 0 {
		return styles.HelpStyle.Render("No data available")
	}

	// Ensure minimum dimensions
	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	// asciigraph cannot draw a single point.
	if len(data) == 1 {
		data = []float64{data[0], data[0]}
	}

	graph := asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(asciigraph.Cyan),
	)

	return graph
}

// RenderBarChart creates a simple horizontal bar chart. format renders the
// value printed after each bar.
func RenderBarChart(values []float64, labels []string, colors []lipgloss.Color, width int, format func(float64) string) string {
	if len(values) == 0 {
		return ""
	}
	if format == nil {
		format = func(v float64) string { return fmt.Sprintf("%.1f", v) }
	}

	maxVal := 0.0
	for _, v := range values {
		maxVal = math.Max(maxVal, v)
	}
	if maxVal == 0 {
		maxVal = 1
	}

	maxLabelLen := 0
	for _, l := range labels {
		maxLabelLen = max(maxLabelLen, lipgloss.Width(l))
	}

	barWidth := max(width-maxLabelLen-12, 10) // Leave room for label and value

	var lines []string
	for i, v := range values {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		style := lipgloss.NewStyle().Foreground(styles.Secondary)
		if i < len(colors) {
			style = style.Foreground(colors[i])
		}

		paddedLabel := fmt.Sprintf("%-*s", maxLabelLen, label)
		barLen := max(int((v/maxVal)*float64(barWidth)), 0)

		bar := style.Render(strings.Repeat("█", barLen))
		lines = append(lines, paddedLabel+" │"+bar+" "+format(v))
	}

	return strings.Join(lines, "\n")
}

// RenderSparkline creates a compact inline sparkline chart.
func RenderSparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}

	maxVal := 0.0
	for _, v := range values {
		maxVal = math.Max(maxVal, v)
	}
	if maxVal == 0 {
		maxVal = 1
	}

	// Sample values to fit width
	var result strings.Builder
	step := max(float64(len(values))/float64(width), 1)

	for i := 0; i < width && int(float64(i)*step) < len(values); i++ {
		val := values[int(float64(i)*step)]
		normalized := int((val / maxVal) * float64(len(sparkChars)-1))
		normalized = min(max(normalized, 0), len(sparkChars)-1)
		result.WriteRune(sparkChars[normalized])
	}

	return result.String()
}

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// eighths are the partial blocks for one to seven eighths of a cell.
var eighths = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇'}

// BarSegment is one colored part of a stacked bar. Height is a fraction of
// the full chart height.
type BarSegment struct {
	Color  lipgloss.Color
	Height float64
}

// BarStack is one column of a stacked bar chart. Segments stack bottom-up.
type BarStack struct {
	Label    string
	Segments []BarSegment
	// Clipped marks a bar cut off at the top of the axis.
	Clipped bool
	// Dim renders the bar muted.
	Dim bool
}

// StackedBarOptions controls RenderStackedBars.
type StackedBarOptions struct {
	// AxisLabel formats the y-axis value at a fraction of the axis.
	AxisLabel func(frac float64) string
	Height    int
	BarWidth  int
	Gap       int
}

// RenderStackedBars draws vertical stacked bars with eighth-block
// resolution, a y-axis with top, middle and zero labels and the stack labels
// along the x-axis. Clipped bars end in an arrow.
func RenderStackedBars(stacks []BarStack, opts StackedBarOptions) string {
	if len(stacks) == 0 {
		return styles.HelpStyle.Render("No data available")
	}
	height := max(opts.Height, 2)
	barWidth := max(opts.BarWidth, 1)
	gap := max(opts.Gap, 0)

	axis := make([]string, height)
	if opts.AxisLabel != nil {
		axis[0] = opts.AxisLabel(1)
		axis[height/2] = opts.AxisLabel(float64(height-height/2) / float64(height))
		axis[height-1] = opts.AxisLabel(0)
	}
	axisWidth := 0
	for _, a := range axis {
		axisWidth = max(axisWidth, lipgloss.Width(a))
	}

	cells := make([][]string, len(stacks))
	for i, s := range stacks {
		cells[i] = stackCells(s, height)
	}

	axisStyle := lipgloss.NewStyle().Foreground(styles.TextMuted)
	var lines []string
	for row := range height {
		var b strings.Builder
		b.WriteString(axisStyle.Render(fmt.Sprintf("%*s", axisWidth, axis[row])))
		b.WriteString(axisStyle.Render(" ┤"))
		for i := range stacks {
			if i > 0 {
				b.WriteString(strings.Repeat(" ", gap))
			}
			b.WriteString(strings.Repeat(cells[i][row], barWidth))
		}
		lines = append(lines, b.String())
	}

	lines = append(lines, strings.Repeat(" ", axisWidth+2)+xLabels(stacks, barWidth, gap))
	return strings.Join(lines, "\n")
}

// stackCells renders one stack as height cells, top row first.
func stackCells(s BarStack, height int) []string {
	units := height * 8
	bounds := make([]int, len(s.Segments))
	cum := 0.0
	for i, seg := range s.Segments {
		cum += math.Max(seg.Height, 0)
		bounds[i] = min(int(math.Round(cum*float64(units))), units)
	}
	top := 0
	if len(bounds) > 0 {
		top = bounds[len(bounds)-1]
		if top == 0 && cum > 0 {
			top = 1
			bounds[len(bounds)-1] = 1
		}
	}

	out := make([]string, height)
	for row := range height {
		bottom := (height - row - 1) * 8
		filled := min(max(top-bottom, 0), 8)
		if filled == 0 {
			out[row] = " "
			continue
		}

		color := segmentAt(s.Segments, bounds, bottom, filled)
		style := lipgloss.NewStyle().Foreground(color)
		if s.Dim {
			style = styles.NoiseStyle
		}

		ch := "█"
		if filled < 8 {
			ch = string(eighths[filled-1])
		}
		if s.Clipped && row == 0 {
			ch = "▲"
			style = styles.OutlierStyle
		}
		out[row] = style.Render(ch)
	}
	return out
}

// segmentAt returns the color of the segment covering most of a cell.
func segmentAt(segs []BarSegment, bounds []int, bottom, filled int) lipgloss.Color {
	best, bestOverlap := lipgloss.Color(""), -1
	lo := 0
	for i, hi := range bounds {
		overlap := min(hi, bottom+filled) - max(lo, bottom)
		if overlap > bestOverlap {
			best, bestOverlap = segs[i].Color, overlap
		}
		lo = hi
	}
	return best
}

// xLabels spaces stack labels so that none overlap.
func xLabels(stacks []BarStack, barWidth, gap int) string {
	slot := barWidth + gap
	labelWidth := 0
	for _, s := range stacks {
		labelWidth = max(labelWidth, lipgloss.Width(s.Label))
	}
	every := max((labelWidth+slot)/slot, 1)

	line := []rune(strings.Repeat(" ", len(stacks)*slot+labelWidth))
	for i := 0; i < len(stacks); i += every {
		copy(line[i*slot:], []rune(stacks[i].Label))
	}
	return lipgloss.NewStyle().Foreground(styles.TextMuted).Render(strings.TrimRight(string(line), " "))
}

// RenderLegend creates a chart legend.
func RenderLegend(items []LegendItem) string {
	var parts []string
	for _, item := range items {
		colorBox := lipgloss.NewStyle().Foreground(item.Color).Render("■")
		parts = append(parts, fmt.Sprintf("%s %s", colorBox, item.Label))
	}
	return strings.Join(parts, "  ")
}

// LegendItem represents a single legend entry.
type LegendItem struct {
	Label string
	Color lipgloss.Color
}
