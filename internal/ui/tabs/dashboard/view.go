package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/j-veylop/llm-usage-tui/internal/models"
	"github.com/j-veylop/llm-usage-tui/internal/nav"
	"github.com/j-veylop/llm-usage-tui/internal/store"
	"github.com/j-veylop/llm-usage-tui/internal/ui/components"
	"github.com/j-veylop/llm-usage-tui/internal/ui/styles"
	"github.com/j-veylop/llm-usage-tui/internal/viewmodel"
)

const (
	chartHeight    = 10
	trendHeight    = 5
	maxBarWidth    = 5
	maxDetailGroup = 4
	dayLabelFormat = "01/02"
)

// View renders the dashboard component.
func (m *Model) View() string {
	var sections []string

	sections = append(sections, m.renderTitle())

	v, err := m.build()
	if err != nil {
		sections = append(sections, styles.ErrorTextStyle.Render(err.Error()))
	} else {
		sections = append(sections, m.renderSelector(v))
		sections = append(sections, m.renderStatus(v))
		sections = append(sections, m.renderChart(v))
		if m.showDetail {
			sections = append(sections, m.renderDetail(v))
		}
		sections = append(sections, m.renderSummaryCards(v))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) cardWidth() int {
	return max(m.width-6, 40)
}

// renderTitle renders the dashboard title.
func (m *Model) renderTitle() string {
	sel := m.selection()
	title := styles.TitleStyle.Render("LLM Usage")
	provider := lipgloss.NewStyle().
		Foreground(styles.ProviderColor(sel.Provider.String())).
		Bold(true).
		Render(sel.Provider.String())
	subtitle := styles.HelpStyle.Render(fmt.Sprintf("%s %s over the %s", provider, strings.ToLower(sel.Metric.String()), strings.ToLower(sel.Range.String())))

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

// renderSelector renders the four option columns side by side. The drill
// list opens under the Group By column.
func (m *Model) renderSelector(v viewmodel.View) string {
	st := v.Nav
	colWidth := max((m.cardWidth()-8)/len(models.Columns), 14)

	var cols []string
	for _, c := range models.Columns {
		focused := c == st.Focus
		lines := []string{styles.ColumnHeaderStyle.Render(c.String())}

		selected := st.Selected(c)
		for i, opt := range st.Options(c) {
			lines = append(lines, optionLine(opt, i == selected, focused && !st.Expanded))
		}

		if c == models.ColumnGroupBy && st.Expanded {
			lines = append(lines, styles.HelpStyle.Render("─ drill ─"))
			cursor := st.DrillCursor(v.DrillTargets)
			for i, t := range nav.DrillEntries(v.DrillTargets) {
				lines = append(lines, optionLine(drillLabel(v, t), i == cursor, true))
			}
		}

		box := styles.ColumnStyle
		if focused {
			box = styles.FocusedColumnStyle
		}
		cols = append(cols, box.Width(colWidth).Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func optionLine(label string, selected, active bool) string {
	switch {
	case selected && active:
		return styles.FocusedStyle.Render("▸ " + label)
	case selected:
		return lipgloss.NewStyle().Foreground(styles.TextPrimary).Render("• " + label)
	default:
		return styles.BlurredStyle.Render("  " + label)
	}
}

// drillLabel returns the display name of a drill target.
func drillLabel(v viewmodel.View, key string) string {
	if key == nav.AllTargets {
		return key
	}
	for _, seg := range v.Series.Segments {
		if seg.Key == key {
			return seg.Label
		}
	}
	return models.AbbreviateKey(key)
}

// renderStatus reports freshness of both datasets of the provider.
func (m *Model) renderStatus(v viewmodel.View) string {
	parts := []string{
		datasetStatus("cost", v.CostState),
		datasetStatus("usage", v.UsageState),
	}
	if v.Refreshing {
		m.spinner.SetLabel(fmt.Sprintf("Fetching %s usage...", v.Nav.Selection.Provider))
		parts = append(parts, m.spinner.ViewWithLabel())
	}
	return "  " + strings.Join(parts, styles.HelpSeparatorStyle.Render("  │  "))
}

func datasetStatus(name string, st store.DatasetState) string {
	switch {
	case st.Err != nil && st.Stale:
		return styles.StaleStyle.Render(fmt.Sprintf("%s: stale since %s", name, st.UpdatedAt.Format("15:04")))
	case st.Err != nil:
		return styles.ErrorTextStyle.Render(name + ": unavailable")
	case st.Loaded:
		return styles.HelpStyle.Render(fmt.Sprintf("%s: updated %s", name, st.UpdatedAt.Format("15:04")))
	default:
		return styles.HelpStyle.Render(name + ": not loaded")
	}
}

// segmentColors assigns palette colors to segments in chart order.
func segmentColors(s models.ScaledSeries) map[string]lipgloss.Color {
	colors := make(map[string]lipgloss.Color, len(s.Segments))
	for i, seg := range s.Segments {
		if seg.Other {
			colors[seg.Key] = styles.OtherColor
			continue
		}
		colors[seg.Key] = styles.SegmentColor(i)
	}
	return colors
}

// chartLayout picks the widest bars that fit all n days, and otherwise the
// number of one-cell bars that fit.
func chartLayout(n, avail int) (barWidth, gap, visible int) {
	gap = 1
	for barWidth = maxBarWidth; barWidth > 1; barWidth-- {
		if n*(barWidth+gap) <= avail {
			return barWidth, gap, n
		}
	}
	return 1, gap, min(max(avail/(1+gap), 1), n)
}

// buildStacks converts the scaled series into chart columns.
func buildStacks(s models.ScaledSeries, color lipgloss.Color) []components.BarStack {
	colors := segmentColors(s)
	stacks := make([]components.BarStack, len(s.Days))
	for i, day := range s.Days {
		stack := components.BarStack{
			Label:   day.Format(dayLabelFormat),
			Clipped: i < len(s.Clipped) && s.Clipped[i],
			Dim:     i < len(s.Noise) && s.Noise[i],
		}
		if len(s.Segments) == 0 {
			stack.Segments = []components.BarSegment{{Height: s.Heights[i], Color: color}}
		} else {
			for _, seg := range s.Segments {
				stack.Segments = append(stack.Segments, components.BarSegment{
					Height: seg.Heights[i],
					Color:  colors[seg.Key],
				})
			}
		}
		stacks[i] = stack
	}
	return stacks
}

// renderChart renders the daily bar chart, its legend and the trend line.
func (m *Model) renderChart(v viewmodel.View) string {
	cardWidth := m.cardWidth()
	inner := cardWidth - 6
	sel := v.Nav.Selection
	scaled := v.Scaled

	var rows []string
	titleIcon := lipgloss.NewStyle().Foreground(styles.Primary).Render("◈")
	title := fmt.Sprintf("Daily %s", strings.ToLower(sel.Metric.String()))
	if sel.GroupBy != models.GroupByNone {
		title += " by " + strings.ToLower(sel.GroupBy.String())
	}
	if sel.Drill != "" {
		title += " › " + drillLabel(v, sel.Drill)
	}
	header := fmt.Sprintf("%s %s", titleIcon, styles.CardTitleStyle.Render(title))
	if v.Series.HasData {
		spark := lipgloss.NewStyle().Foreground(styles.Secondary).Render(components.RenderSparkline(scaled.Values, 30))
		header = lipgloss.JoinHorizontal(lipgloss.Top, header, "  ", spark)
	}
	rows = append(rows, header)

	switch {
	case !v.Series.HasData && v.Refreshing:
		rows = append(rows, components.RenderSpinnerCentered(&m.spinner, inner, chartHeight))
	case !v.Series.HasData:
		rows = append(rows, "", styles.HelpStyle.Render("  No data for this provider and metric."))
		if st := v.State(); st.Err != nil {
			rows = append(rows, styles.ErrorTextStyle.Render("  "+st.Err.Error()))
		} else {
			rows = append(rows, styles.InfoTextStyle.Render("  ╰─▶ Press r to refresh"))
		}
		rows = append(rows, "")
	default:
		rows = append(rows, m.renderBars(scaled, inner))
		rows = append(rows, "")
		rows = append(rows, m.renderLegend(v))
		if notes := chartNotes(scaled); notes != "" {
			rows = append(rows, styles.HelpStyle.Render(notes))
		}
		rows = append(rows, "")
		rows = append(rows, components.RenderLineChart(scaled.Values, inner-12, trendHeight, "daily total"))
	}

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderBars(scaled models.ScaledSeries, inner int) string {
	metric := scaled.Metric
	axisMax := scaled.AxisMax
	axisWidth := lipgloss.Width(models.FormatValue(metric, axisMax)) + 2

	n := len(scaled.Days)
	barWidth, gap, visible := chartLayout(n, inner-axisWidth)

	m.offset = min(m.offset, n-visible)
	start := n - visible - m.offset

	color := styles.ProviderColor(m.selection().Provider.String())
	stacks := buildStacks(scaled, color)[start : start+visible]

	chart := components.RenderStackedBars(stacks, components.StackedBarOptions{
		Height:   chartHeight,
		BarWidth: barWidth,
		Gap:      gap,
		AxisLabel: func(frac float64) string {
			return models.FormatValue(metric, frac*axisMax)
		},
	})

	if visible < n {
		pos := styles.HelpStyle.Render(fmt.Sprintf("days %d-%d of %d  [ ] scroll", start+1, start+visible, n))
		chart = lipgloss.JoinVertical(lipgloss.Left, chart, pos)
	}
	return chart
}

// chartNotes explains clipped and dimmed bars.
func chartNotes(s models.ScaledSeries) string {
	var notes []string
	if s.HasOutliers {
		notes = append(notes, "▲ clipped above "+models.FormatValue(s.Metric, s.AxisMax))
	}
	if lo.Contains(s.Noise, true) {
		notes = append(notes, "dim days are below the noise floor")
	}
	return strings.Join(notes, "  ·  ")
}

func (m *Model) renderLegend(v viewmodel.View) string {
	if len(v.Summary.Legend) == 0 {
		return ""
	}
	colors := segmentColors(v.Scaled)
	items := lo.Map(v.Summary.Legend, func(s models.SegmentShare, _ int) components.LegendItem {
		return components.LegendItem{
			Label: fmt.Sprintf("%s %s (%.0f%%)", s.Label, models.FormatValue(v.Summary.Metric, s.Total), s.Share*100),
			Color: colors[s.Key],
		}
	})
	return components.RenderLegend(items)
}

// renderDetail renders a per-day table, newest first.
func (m *Model) renderDetail(v viewmodel.View) string {
	scaled := v.Scaled
	metric := scaled.Metric
	segs := scaled.Segments
	if len(segs) > maxDetailGroup {
		segs = segs[:maxDetailGroup]
	}

	columns := []table.Column{
		{Title: "Day", Width: 8},
		{Title: "Total", Width: 12},
	}
	for _, seg := range segs {
		columns = append(columns, table.Column{Title: truncate(seg.Label, 14), Width: 14})
	}

	rows := make([]table.Row, 0, len(scaled.Days))
	for i := len(scaled.Days) - 1; i >= 0; i-- {
		row := table.Row{
			scaled.Days[i].Format(dayLabelFormat),
			models.FormatValue(metric, scaled.Values[i]),
		}
		for _, seg := range segs {
			row = append(row, models.FormatValue(metric, seg.Values[i]))
		}
		rows = append(rows, row)
	}

	m.detail.SetColumns(columns)
	m.detail.SetRows(rows)
	m.detail.SetHeight(min(len(rows), 31) + 1)

	var lines []string
	titleIcon := lipgloss.NewStyle().Foreground(styles.Primary).Render("◈")
	lines = append(lines, fmt.Sprintf("%s %s", titleIcon, styles.CardTitleStyle.Render("Daily detail")))
	lines = append(lines, m.detail.View())

	if len(segs) > 0 {
		lines = append(lines, "")
		labels := lo.Map(segs, func(s models.ScaledSegment, _ int) string { return s.Label })
		totals := lo.Map(segs, func(s models.ScaledSegment, _ int) float64 { return lo.Sum(s.Values) })
		colors := segmentColors(scaled)
		segColors := lo.Map(segs, func(s models.ScaledSegment, _ int) lipgloss.Color { return colors[s.Key] })
		lines = append(lines, components.RenderBarChart(totals, labels, segColors, m.cardWidth()-6, func(f float64) string {
			return models.FormatValue(metric, f)
		}))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// renderSummaryCards renders the cost and usage cards side by side, or
// stacked on narrow terminals.
func (m *Model) renderSummaryCards(v viewmodel.View) string {
	full := m.cardWidth()
	half := (full - 1) / 2

	if full < 90 {
		return lipgloss.JoinVertical(lipgloss.Left,
			renderCostCard(v.Cost, full),
			renderUsageCard(v.Usage, full),
		)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		renderCostCard(v.Cost, half),
		" ",
		renderUsageCard(v.Usage, half),
	)
}

func statLine(label, value string) string {
	return fmt.Sprintf("  %s %s",
		lipgloss.NewStyle().Foreground(styles.TextSecondary).Width(18).Render(label),
		lipgloss.NewStyle().Foreground(styles.TextPrimary).Bold(true).Render(value))
}

func changeLine(label string, r models.Ratio) string {
	style := styles.HelpStyle
	if r.Available {
		switch {
		case r.Value > 0:
			style = styles.WarningTextStyle
		case r.Value < 0:
			style = styles.SuccessTextStyle
		}
	}
	return fmt.Sprintf("  %s %s",
		lipgloss.NewStyle().Foreground(styles.TextSecondary).Width(18).Render(label),
		style.Render(models.FormatPercent(r)))
}

func renderCostCard(s models.Summary, width int) string {
	lines := []string{styles.CardTitleStyle.Render("$ Cost")}
	if !s.HasData {
		lines = append(lines, styles.HelpStyle.Render("  No cost data"))
		return styles.CardStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	}

	lines = append(lines,
		statLine("Total", models.FormatCost(s.Total)),
		statLine("Average / day", models.FormatCost(s.AveragePerDay)),
		changeLine("Trend", s.Trend),
		changeLine("vs previous", s.PeriodChange),
	)
	return styles.CardStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func renderUsageCard(s models.Summary, width int) string {
	lines := []string{styles.CardTitleStyle.Render("◆ Usage")}
	if !s.HasData {
		lines = append(lines, styles.HelpStyle.Render("  No usage data"))
		return styles.CardStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	}

	lines = append(lines,
		statLine("Tokens", models.FormatTokens(s.Total)),
		statLine("Requests", models.FormatTokens(float64(s.Requests))),
		statLine("Requests / day", fmt.Sprintf("%.0f", s.AvgRequestsPerDay)),
		statLine("Input / output", fmt.Sprintf("%s / %s",
			models.FormatTokens(float64(s.InputTokens)), models.FormatTokens(float64(s.OutputTokens)))),
		changeLine("Trend", s.Trend),
		"",
		"  "+components.RatioBar("Cache hits", s.CacheRate.Value, s.CacheRate.Available, width-10),
	)
	return styles.CardStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
