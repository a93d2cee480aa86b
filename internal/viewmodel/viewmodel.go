// Package viewmodel assembles everything the dashboard draws for one
// selector state. It is recomputed on every render and holds no state.
package viewmodel

import (
	"fmt"

	"github.com/j-veylop/llm-usage-tui/internal/engine"
	"github.com/j-veylop/llm-usage-tui/internal/models"
	"github.com/j-veylop/llm-usage-tui/internal/nav"
	"github.com/j-veylop/llm-usage-tui/internal/store"
	"github.com/j-veylop/llm-usage-tui/internal/summary"
)

// RenderPreconditionError reports a selection the dashboard cannot draw.
// The selector never produces one; it exists to fail loudly if it does.
type RenderPreconditionError struct {
	Selection models.Selection
}

func (e *RenderPreconditionError) Error() string {
	s := e.Selection
	return fmt.Sprintf("invalid selection: %s %s grouped by %s (drill %q)",
		s.Provider, s.Metric, s.GroupBy, s.Drill)
}

// Source is what the builder reads. *store.Store implements it.
type Source interface {
	engine.Source
	Refreshing(p models.Provider) bool
}

// View is the complete render input for the dashboard.
type View struct {
	DrillTargets []string

	Series  models.AggregatedSeries
	Scaled  models.ScaledSeries
	Summary models.Summary

	// Cost and Usage summarize the provider's ungrouped datasets over the
	// selected range, independent of the charted metric.
	Cost  models.Summary
	Usage models.Summary

	CostState  store.DatasetState
	UsageState store.DatasetState

	Nav nav.State

	Refreshing bool
}

// State returns the dataset state backing the charted metric.
func (v View) State() store.DatasetState {
	if v.Nav.Selection.Metric == models.MetricCost {
		return v.CostState
	}
	return v.UsageState
}

// Builder computes views.
type Builder struct {
	engine *engine.Engine
	opts   summary.Options
}

// NewBuilder creates a builder.
func NewBuilder(e *engine.Engine, opts summary.Options) *Builder {
	return &Builder{engine: e, opts: opts}
}

// Build computes the view for a selector state.
func (b *Builder) Build(src Source, st nav.State) (View, error) {
	sel := st.Selection
	if !sel.Valid() {
		return View{}, &RenderPreconditionError{Selection: sel}
	}

	v := View{
		Nav:          st,
		Refreshing:   src.Refreshing(sel.Provider),
		DrillTargets: b.engine.DrillTargets(src, sel),
	}
	if snap := src.Snapshot(sel.Provider); snap != nil {
		v.CostState = snap.CostState
		v.UsageState = snap.UsageState
	}

	v.Series = b.engine.Aggregate(src, sel)
	v.Scaled, v.Summary = summary.Summarize(v.Series, b.opts)

	overview := models.Selection{Provider: sel.Provider, Range: sel.Range}
	overview.Metric = models.MetricCost
	v.Cost = summary.Stats(b.engine.Aggregate(src, overview), b.opts)
	overview.Metric = models.MetricUsage
	v.Usage = summary.Stats(b.engine.Aggregate(src, overview), b.opts)

	return v, nil
}
