// Package engine turns stored records and a Selection into a chartable series.
package engine

import (
	"cmp"
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/j-veylop/llm-usage-tui/internal/models"
	"github.com/j-veylop/llm-usage-tui/internal/store"
)

// DefaultMaterialityThreshold is the share of total volume below which a
// group is folded into the "Other" segment.
const DefaultMaterialityThreshold = 0.10

// unknownGroup labels records that carry no model or key attribution.
const unknownGroup = "unknown"

// Options tune aggregation.
type Options struct {
	MaterialityThreshold float64
}

// DefaultOptions returns the standard aggregation options.
func DefaultOptions() Options {
	return Options{MaterialityThreshold: DefaultMaterialityThreshold}
}

// Source provides provider snapshots. *store.Store implements it.
type Source interface {
	Snapshot(p models.Provider) *store.Snapshot
}

// Engine aggregates snapshots. It holds no data of its own.
type Engine struct {
	now  func() time.Time
	opts Options
}

// New creates an engine. A nil clock defaults to time.Now.
func New(opts Options, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	if opts.MaterialityThreshold < 0 {
		opts.MaterialityThreshold = 0
	}
	return &Engine{opts: opts, now: now}
}

type point struct {
	group string
	label string
	// offset is the number of days before the window end.
	offset int
	value  float64
	tokens models.TokenTotals
}

// Aggregate computes the series for a selection. Missing days are explicit
// zeros and the result always has one entry per day of the range.
func (e *Engine) Aggregate(src Source, sel models.Selection) models.AggregatedSeries {
	sel = sel.Normalize()
	n := sel.Range.Days()

	snap := src.Snapshot(sel.Provider)
	window := models.NewFetchWindow(e.now())
	if snap != nil && !snap.Window.End.IsZero() {
		window = snap.Window
	}

	series := models.AggregatedSeries{
		Selection: sel,
		Days:      window.Trailing(n),
		Totals:    make([]float64, n),
	}
	if snap == nil {
		return series
	}
	series.HasData = snap.State(sel.Metric).Loaded

	points := collect(snap, sel)
	if sel.Drill != "" {
		points = lo.Filter(points, func(p point, _ int) bool { return p.group == sel.Drill })
	}

	groups := make(map[string]*models.Segment)
	for _, p := range points {
		switch {
		case p.offset < n:
			idx := n - 1 - p.offset
			series.Totals[idx] += p.value
			series.Tokens.Requests += p.tokens.Requests
			series.Tokens.Input += p.tokens.Input
			series.Tokens.Output += p.tokens.Output
			series.Tokens.Cached += p.tokens.Cached

			if sel.GroupBy == models.GroupByNone {
				continue
			}
			seg, ok := groups[p.group]
			if !ok {
				seg = &models.Segment{Key: p.group, Label: p.label, Values: make([]float64, n)}
				groups[p.group] = seg
			}
			seg.Values[idx] += p.value
			seg.Total += p.value
		case p.offset < 2*n:
			series.PreviousTotal += p.value
		}
	}
	series.HasPrevious = series.HasData && 2*n <= models.FetchWindowDays

	if sel.GroupBy != models.GroupByNone {
		segs := lo.Map(lo.Values(groups), func(s *models.Segment, _ int) models.Segment { return *s })
		if sel.Drill == "" {
			segs = e.fold(segs, n)
		} else {
			sortSegments(segs)
		}
		series.Segments = segs
	}

	return series
}

// DrillTargets returns the material group keys of the selection's grouping,
// largest first. Folded groups are not offered.
func (e *Engine) DrillTargets(src Source, sel models.Selection) []string {
	sel.Drill = ""
	if sel.Normalize().GroupBy == models.GroupByNone {
		return nil
	}
	series := e.Aggregate(src, sel)
	material := lo.Reject(series.Segments, func(s models.Segment, _ int) bool { return s.Other })
	return lo.Map(material, func(s models.Segment, _ int) string { return s.Key })
}

// fold merges segments under the materiality threshold into a single Other
// segment placed last.
func (e *Engine) fold(segs []models.Segment, n int) []models.Segment {
	volume := lo.SumBy(segs, func(s models.Segment) float64 { return s.Total })
	if volume <= 0 {
		sortSegments(segs)
		return segs
	}

	material, minor := lo.FilterReject(segs, func(s models.Segment, _ int) bool {
		return s.Total/volume >= e.opts.MaterialityThreshold
	})
	sortSegments(material)
	if len(minor) == 0 {
		return material
	}

	other := models.Segment{
		Key:    models.OtherBucket,
		Label:  models.OtherBucket,
		Values: make([]float64, n),
		Other:  true,
	}
	for _, s := range minor {
		for i, v := range s.Values {
			other.Values[i] += v
		}
		other.Total += s.Total
	}
	return append(material, other)
}

// sortSegments orders by total descending, ties broken by key.
func sortSegments(segs []models.Segment) {
	slices.SortFunc(segs, func(a, b models.Segment) int {
		return cmp.Or(cmp.Compare(b.Total, a.Total), cmp.Compare(a.Key, b.Key))
	})
}

// collect turns a snapshot's records for the metric into points.
func collect(snap *store.Snapshot, sel models.Selection) []point {
	end := snap.Window.End
	offset := func(d time.Time) int {
		return int(end.Sub(models.Day(d)).Hours() / 24)
	}

	var points []point
	if sel.Metric == models.MetricCost {
		for _, r := range snap.Cost {
			off := offset(r.Date)
			if off < 0 {
				continue
			}
			g, l := group(snap, sel.GroupBy, r.Model, r.APIKeyID)
			points = append(points, point{group: g, label: l, offset: off, value: r.Amount.InexactFloat64()})
		}
		return points
	}

	for _, r := range snap.Usage {
		off := offset(r.Date)
		if off < 0 {
			continue
		}
		g, l := group(snap, sel.GroupBy, r.Model, r.APIKeyID)
		points = append(points, point{
			group:  g,
			label:  l,
			offset: off,
			value:  float64(r.TotalTokens()),
			tokens: models.TokenTotals{
				Requests: r.Requests,
				Input:    r.InputTokens,
				Output:   r.OutputTokens,
				Cached:   r.CachedInputTokens,
			},
		})
	}
	return points
}

// group returns the bucket key and display label for a record.
func group(snap *store.Snapshot, by models.GroupBy, model, keyID string) (string, string) {
	switch by {
	case models.GroupByModel:
		if model == "" {
			return unknownGroup, unknownGroup
		}
		return model, model
	case models.GroupByAPIKey:
		if keyID == "" {
			return unknownGroup, unknownGroup
		}
		return keyID, snap.KeyLabel(keyID)
	default:
		return "", ""
	}
}
