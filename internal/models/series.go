package models

import "time"

// OtherBucket is the segment key that collects immaterial buckets.
const OtherBucket = "Other"

// Segment is one group's sub-series inside an AggregatedSeries.
type Segment struct {
	Key    string
	Label  string
	Values []float64
	Total  float64
	// Other marks the folded bucket of immaterial groups.
	Other bool
}

// TokenTotals sums usage counters over a displayed range.
type TokenTotals struct {
	Requests int64
	Input    int64
	Output   int64
	Cached   int64
}

// AggregatedSeries is the engine output for one Selection. Days and Totals
// always have exactly Selection.Range.Days() entries.
type AggregatedSeries struct {
	Days     []time.Time
	Totals   []float64
	Segments []Segment
	Tokens   TokenTotals

	// PreviousTotal is the total of the equally long period before Days,
	// valid only when HasPrevious is set.
	PreviousTotal float64

	Selection Selection

	// HasData is false when the provider never delivered the dataset.
	HasData     bool
	HasPrevious bool
}

// ScaledSegment carries a segment's true values and axis-relative heights.
type ScaledSegment struct {
	Key     string
	Label   string
	Values  []float64
	Heights []float64
	Other   bool
}

// ScaledSeries is an AggregatedSeries mapped onto a chart axis. Heights are
// in [0,1]; Values keep the true amounts for labels and detail views.
type ScaledSeries struct {
	Days     []time.Time
	Values   []float64
	Heights  []float64
	Clipped  []bool
	Noise    []bool
	Segments []ScaledSegment
	AxisMax  float64
	Metric   Metric

	HasOutliers bool
}

// Ratio is a derived number that may be undefined.
type Ratio struct {
	Value     float64
	Available bool
}

// NA is the undefined Ratio.
var NA = Ratio{}

// SegmentShare is one legend entry.
type SegmentShare struct {
	Key   string
	Label string
	Total float64
	Share float64
	Other bool
}

// Summary holds the headline statistics for a series.
type Summary struct {
	Legend []SegmentShare

	Total         float64
	AveragePerDay float64

	// Trend is the percent change from the first half of the range to the
	// second half.
	Trend Ratio
	// PeriodChange is the percent change against the preceding period.
	PeriodChange Ratio
	// CacheRate is cached input tokens over all input tokens, in [0,1].
	CacheRate Ratio

	Requests          int64
	InputTokens       int64
	OutputTokens      int64
	CachedTokens      int64
	AvgRequestsPerDay float64

	Days    int
	Metric  Metric
	HasData bool
}
