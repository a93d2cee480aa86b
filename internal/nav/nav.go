// Package nav implements the option selector: four columns of options, a
// focused column, and a drill-down list under the Group By column.
//
// State is a value. Every transition returns a new State, so the rendering
// layer can hold on to the one it drew.
package nav

import (
	"github.com/samber/lo"

	"github.com/j-veylop/llm-usage-tui/internal/models"
)

// AllTargets is the label of the drill-down entry that clears the drill.
const AllTargets = "All"

// State is the selector state.
type State struct {
	Selection models.Selection
	Focus     models.Column
	// Expanded is set while the drill-down list is open.
	Expanded bool
}

// New returns the initial state: provider column focused and the first
// option of every column selected.
func New() State {
	return State{
		Selection: models.DefaultSelection(),
		Focus:     models.ColumnProvider,
	}
}

// Left focuses the previous column. It stops at the first column.
func (s State) Left() State {
	s.Expanded = false
	if s.Focus > models.ColumnProvider {
		s.Focus--
	}
	return s
}

// Right focuses the next column. It stops at the last column.
func (s State) Right() State {
	s.Expanded = false
	if s.Focus < models.ColumnGroupBy {
		s.Focus++
	}
	return s
}

// Up selects the previous option of the focused column, or the previous
// drill-down target while expanded.
func (s State) Up(targets []string) State {
	return s.step(-1, targets)
}

// Down selects the next option of the focused column, or the next
// drill-down target while expanded.
func (s State) Down(targets []string) State {
	return s.step(1, targets)
}

// Toggle opens or closes the drill-down list. It only opens on a grouped
// view with the Group By column focused.
func (s State) Toggle() State {
	if s.Expanded {
		s.Expanded = false
		return s
	}
	if s.Focus == models.ColumnGroupBy && s.Selection.GroupBy != models.GroupByNone {
		s.Expanded = true
	}
	return s
}

// Options returns the labels of a column's options in display order.
func (s State) Options(c models.Column) []string {
	switch c {
	case models.ColumnProvider:
		return lo.Map(models.Providers, func(p models.Provider, _ int) string { return p.String() })
	case models.ColumnMetric:
		return lo.Map(models.Metrics, func(m models.Metric, _ int) string { return m.String() })
	case models.ColumnRange:
		return lo.Map(models.DateRanges, func(r models.DateRange, _ int) string { return r.String() })
	case models.ColumnGroupBy:
		opts := models.GroupByOptions(s.Selection.Provider, s.Selection.Metric)
		return lo.Map(opts, func(g models.GroupBy, _ int) string { return g.String() })
	default:
		return nil
	}
}

// Selected returns the index of the selected option in a column.
func (s State) Selected(c models.Column) int {
	sel := s.Selection
	switch c {
	case models.ColumnProvider:
		return lo.IndexOf(models.Providers, sel.Provider)
	case models.ColumnMetric:
		return lo.IndexOf(models.Metrics, sel.Metric)
	case models.ColumnRange:
		return lo.IndexOf(models.DateRanges, sel.Range)
	case models.ColumnGroupBy:
		return lo.IndexOf(models.GroupByOptions(sel.Provider, sel.Metric), sel.GroupBy)
	default:
		return -1
	}
}

// DrillEntries returns the drill-down list: AllTargets followed by targets.
func DrillEntries(targets []string) []string {
	return append([]string{AllTargets}, targets...)
}

// DrillCursor returns the index of the current drill-down in DrillEntries.
func (s State) DrillCursor(targets []string) int {
	if s.Selection.Drill == "" {
		return 0
	}
	return lo.IndexOf(targets, s.Selection.Drill) + 1
}

func (s State) step(delta int, targets []string) State {
	if s.Expanded {
		cur := s.DrillCursor(targets)
		next := clamp(cur+delta, len(targets)+1)
		if next == 0 {
			s.Selection.Drill = ""
		} else {
			s.Selection.Drill = targets[next-1]
		}
		return s
	}

	sel := s.Selection
	switch s.Focus {
	case models.ColumnProvider:
		next := models.Providers[clamp(s.Selected(s.Focus)+delta, len(models.Providers))]
		if next != sel.Provider {
			sel.Provider = next
			sel.GroupBy = models.GroupByNone
			sel.Drill = ""
		}
	case models.ColumnMetric:
		next := models.Metrics[clamp(s.Selected(s.Focus)+delta, len(models.Metrics))]
		if next != sel.Metric {
			sel.Metric = next
			sel.Drill = ""
		}
	case models.ColumnRange:
		sel.Range = models.DateRanges[clamp(s.Selected(s.Focus)+delta, len(models.DateRanges))]
	case models.ColumnGroupBy:
		opts := models.GroupByOptions(sel.Provider, sel.Metric)
		next := opts[clamp(s.Selected(s.Focus)+delta, len(opts))]
		if next != sel.GroupBy {
			sel.GroupBy = next
			sel.Drill = ""
		}
	}
	s.Selection = sel.Normalize()
	return s
}

func clamp(i, n int) int {
	return max(0, min(i, n-1))
}
