// Package summary scales a series onto a chart axis and derives its headline
// statistics.
package summary

import (
	"math"
	"slices"

	"github.com/samber/lo"

	"github.com/j-veylop/llm-usage-tui/internal/models"
)

const (
	// DefaultNoiseFloor is the daily cost in USD under which a day is noise.
	DefaultNoiseFloor = 1.0
	// DefaultPercentile picks the typical magnitude of a series.
	DefaultPercentile = 0.90
	// DefaultOutlierRatio is how far above the typical magnitude a day must
	// be to stop driving the axis.
	DefaultOutlierRatio = 3.0

	minOutlierSamples = 3
)

// Options tune scaling.
type Options struct {
	NoiseFloor   float64
	Percentile   float64
	OutlierRatio float64
}

// DefaultOptions returns the standard scaling options.
func DefaultOptions() Options {
	return Options{
		NoiseFloor:   DefaultNoiseFloor,
		Percentile:   DefaultPercentile,
		OutlierRatio: DefaultOutlierRatio,
	}
}

func (o Options) sanitized() Options {
	d := DefaultOptions()
	if o.NoiseFloor < 0 {
		o.NoiseFloor = d.NoiseFloor
	}
	if o.Percentile <= 0 || o.Percentile > 1 {
		o.Percentile = d.Percentile
	}
	if o.OutlierRatio < 1 {
		o.OutlierRatio = d.OutlierRatio
	}
	return o
}

// Summarize computes the scaled series and summary for an aggregated series.
func Summarize(series models.AggregatedSeries, opts Options) (models.ScaledSeries, models.Summary) {
	opts = opts.sanitized()
	return Scale(series, opts), Stats(series, opts)
}

// Scale maps the series onto a chart axis. The axis tracks the typical
// magnitude of the series: days far above it are clipped at full height and
// flagged, and for cost the axis never drops below the noise floor.
func Scale(series models.AggregatedSeries, opts Options) models.ScaledSeries {
	opts = opts.sanitized()
	metric := series.Selection.Metric
	vals := series.Totals

	floor := 0.0
	if metric == models.MetricCost {
		floor = opts.NoiseFloor
	}

	out := models.ScaledSeries{
		Days:    series.Days,
		Values:  vals,
		Heights: make([]float64, len(vals)),
		Clipped: make([]bool, len(vals)),
		Noise:   make([]bool, len(vals)),
		Metric:  metric,
	}

	axis := 0.0
	if len(vals) > 0 {
		axis = slices.Max(vals)
	}
	nonzero := lo.Filter(vals, func(v float64, _ int) bool { return v > 0 })
	if len(nonzero) >= minOutlierSamples {
		typical := Percentile(nonzero, opts.Percentile)
		if limit := typical * opts.OutlierRatio; typical > 0 && axis > limit {
			axis = slices.Max(lo.Filter(nonzero, func(v float64, _ int) bool { return v <= limit }))
			out.HasOutliers = true
		}
	}
	if axis < floor {
		axis = floor
	}
	if axis <= 0 {
		axis = 1
	}
	out.AxisMax = axis

	for i, v := range vals {
		out.Heights[i] = math.Min(math.Max(v/axis, 0), 1)
		out.Clipped[i] = v > axis
		out.Noise[i] = metric == models.MetricCost && v < floor
	}

	for _, seg := range series.Segments {
		ss := models.ScaledSegment{
			Key:     seg.Key,
			Label:   seg.Label,
			Values:  seg.Values,
			Heights: make([]float64, len(seg.Values)),
			Other:   seg.Other,
		}
		for i, v := range seg.Values {
			if i < len(vals) && vals[i] > 0 && v > 0 {
				ss.Heights[i] = math.Min(out.Heights[i]*v/vals[i], out.Heights[i])
			}
		}
		out.Segments = append(out.Segments, ss)
	}

	return out
}

// Stats derives the headline numbers of a series.
func Stats(series models.AggregatedSeries, opts Options) models.Summary {
	opts = opts.sanitized()
	metric := series.Selection.Metric
	n := len(series.Totals)

	s := models.Summary{
		Metric:  metric,
		Days:    n,
		HasData: series.HasData,
		Total:   lo.Sum(series.Totals),
	}
	if n > 0 {
		s.AveragePerDay = s.Total / float64(n)
	}

	if series.HasData {
		s.Trend = Trend(series.Totals)
		if series.HasPrevious && series.PreviousTotal > 0 {
			s.PeriodChange = models.Ratio{
				Value:     (s.Total - series.PreviousTotal) / series.PreviousTotal * 100,
				Available: true,
			}
		}
	}

	if metric == models.MetricUsage && series.HasData {
		s.CacheRate = CacheRate(series.Tokens)
		s.Requests = series.Tokens.Requests
		s.InputTokens = series.Tokens.Input
		s.OutputTokens = series.Tokens.Output
		s.CachedTokens = series.Tokens.Cached
		if n > 0 {
			s.AvgRequestsPerDay = float64(s.Requests) / float64(n)
		}
	}

	for _, seg := range series.Segments {
		if metric == models.MetricCost && seg.Total < opts.NoiseFloor {
			continue
		}
		share := 0.0
		if s.Total > 0 {
			share = seg.Total / s.Total
		}
		s.Legend = append(s.Legend, models.SegmentShare{
			Key:   seg.Key,
			Label: seg.Label,
			Total: seg.Total,
			Share: share,
			Other: seg.Other,
		})
	}

	return s
}

// Trend compares the mean of the first half of the values with the mean of
// the second half, as a percentage. For odd lengths the middle value belongs
// to neither half. A zero first half yields 0%.
func Trend(values []float64) models.Ratio {
	n := len(values)
	if n < 2 {
		return models.NA
	}
	half := n / 2
	first := lo.Mean(values[:half])
	second := lo.Mean(values[n-half:])
	if first == 0 {
		return models.Ratio{Value: 0, Available: true}
	}
	return models.Ratio{Value: (second - first) / first * 100, Available: true}
}

// CacheRate is cached input tokens over all input tokens.
func CacheRate(t models.TokenTotals) models.Ratio {
	if t.Input <= 0 {
		return models.NA
	}
	r := float64(t.Cached) / float64(t.Input)
	return models.Ratio{Value: math.Max(0, math.Min(r, 1)), Available: true}
}

// Percentile returns the nearest-rank percentile p (0,1] of values.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	rank := int(math.Ceil(p*float64(len(sorted)))) - 1
	rank = max(0, min(rank, len(sorted)-1))
	return sorted[rank]
}
