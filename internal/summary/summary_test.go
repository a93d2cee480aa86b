package summary

import (
	"math"
	"testing"

	"github.com/j-veylop/llm-usage-tui/internal/models"
)

func series(metric models.Metric, totals ...float64) models.AggregatedSeries {
	return models.AggregatedSeries{
		Selection: models.Selection{Metric: metric},
		Totals:    totals,
		HasData:   true,
	}
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestScale_OutlierDoesNotDominateAxis(t *testing.T) {
	totals := make([]float64, 30)
	for i := range totals {
		totals[i] = 0.50
	}
	totals[14] = 500

	scaled, sum := Summarize(series(models.MetricCost, totals...), DefaultOptions())

	if scaled.AxisMax > DefaultNoiseFloor {
		t.Errorf("axis max = %v, want at most the noise floor", scaled.AxisMax)
	}
	if !scaled.HasOutliers || !scaled.Clipped[14] {
		t.Error("the $500 day should be flagged as a clipped outlier")
	}
	if scaled.Values[14] != 500 {
		t.Errorf("true value should be retained, got %v", scaled.Values[14])
	}
	if scaled.Heights[14] != 1 {
		t.Errorf("outlier height = %v, want 1", scaled.Heights[14])
	}
	if !approx(scaled.Heights[0], 0.5) {
		t.Errorf("typical day height = %v, want 0.5", scaled.Heights[0])
	}
	if !scaled.Noise[0] || scaled.Noise[14] {
		t.Error("sub-dollar days should be flagged as noise")
	}
	if !approx(sum.Total, 29*0.5+500) {
		t.Errorf("total = %v, want %v", sum.Total, 29*0.5+500)
	}
}

func TestScale_NoOutliers(t *testing.T) {
	scaled := Scale(series(models.MetricUsage, 10, 20, 30, 40), DefaultOptions())
	if scaled.AxisMax != 40 || scaled.HasOutliers {
		t.Errorf("axis = %v outliers=%v, want raw max without outliers", scaled.AxisMax, scaled.HasOutliers)
	}
	for i, h := range scaled.Heights {
		if h < 0 || h > 1 {
			t.Errorf("height %d = %v out of range", i, h)
		}
	}
	if scaled.Noise[0] {
		t.Error("usage days are never noise")
	}
}

func TestScale_NegativeTotalsStayOnAxis(t *testing.T) {
	s := series(models.MetricUsage, -4990, 10)
	s.Segments = []models.Segment{{Key: "m", Values: []float64{-4990, 10}}}

	scaled := Scale(s, DefaultOptions())
	for i, h := range scaled.Heights {
		if h < 0 || h > 1 {
			t.Errorf("height %d = %v, want within [0,1]", i, h)
		}
	}
	if scaled.Heights[0] != 0 || scaled.Heights[1] != 1 {
		t.Errorf("heights = %v, want [0 1]", scaled.Heights)
	}
	if h := scaled.Segments[0].Heights[0]; h != 0 {
		t.Errorf("segment height = %v, want 0", h)
	}
}

func TestScale_Empty(t *testing.T) {
	scaled := Scale(series(models.MetricUsage, 0, 0, 0), DefaultOptions())
	if scaled.AxisMax != 1 {
		t.Errorf("empty series axis = %v, want 1", scaled.AxisMax)
	}
}

func TestScale_Segments(t *testing.T) {
	s := series(models.MetricUsage, 100, 0)
	s.Segments = []models.Segment{
		{Key: "a", Values: []float64{75, 0}, Total: 75},
		{Key: "b", Values: []float64{25, 0}, Total: 25},
	}
	scaled := Scale(s, DefaultOptions())
	if !approx(scaled.Segments[0].Heights[0], 0.75) || !approx(scaled.Segments[1].Heights[0], 0.25) {
		t.Errorf("segment heights = %v / %v", scaled.Segments[0].Heights, scaled.Segments[1].Heights)
	}
}

func TestTrend(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   models.Ratio
	}{
		{"SinglePoint", []float64{5}, models.NA},
		{"Empty", nil, models.NA},
		{"ZeroFirstHalf", []float64{0, 0, 5, 5}, models.Ratio{Value: 0, Available: true}},
		{"Doubling", []float64{1, 1, 2, 2}, models.Ratio{Value: 100, Available: true}},
		{"OddSkipsMiddle", []float64{2, 100, 1}, models.Ratio{Value: -50, Available: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Trend(tt.values)
			if got.Available != tt.want.Available || !approx(got.Value, tt.want.Value) {
				t.Errorf("Trend() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCacheRate(t *testing.T) {
	tests := []struct {
		name   string
		tokens models.TokenTotals
		want   models.Ratio
	}{
		{"NoInput", models.TokenTotals{}, models.NA},
		{"Quarter", models.TokenTotals{Input: 400, Cached: 100}, models.Ratio{Value: 0.25, Available: true}},
		{"ClampedHigh", models.TokenTotals{Input: 100, Cached: 300}, models.Ratio{Value: 1, Available: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CacheRate(tt.tokens)
			if got != tt.want {
				t.Errorf("CacheRate() = %+v, want %+v", got, tt.want)
			}
			if got.Available && (got.Value < 0 || got.Value > 1) {
				t.Errorf("cache rate %v out of [0,1]", got.Value)
			}
		})
	}
}

func TestStats_Usage(t *testing.T) {
	s := series(models.MetricUsage, 100, 300)
	s.Tokens = models.TokenTotals{Requests: 10, Input: 300, Output: 100, Cached: 150}
	s.HasPrevious = true
	s.PreviousTotal = 200

	sum := Stats(s, DefaultOptions())
	if sum.Total != 400 || sum.AveragePerDay != 200 {
		t.Errorf("total/avg = %v/%v", sum.Total, sum.AveragePerDay)
	}
	if !approx(sum.CacheRate.Value, 0.5) {
		t.Errorf("cache rate = %+v", sum.CacheRate)
	}
	if sum.Requests != 10 || sum.AvgRequestsPerDay != 5 {
		t.Errorf("requests = %d avg %v", sum.Requests, sum.AvgRequestsPerDay)
	}
	if !sum.PeriodChange.Available || !approx(sum.PeriodChange.Value, 100) {
		t.Errorf("period change = %+v, want +100%%", sum.PeriodChange)
	}
}

func TestStats_CostLegendThreshold(t *testing.T) {
	s := series(models.MetricCost, 10.5)
	s.Segments = []models.Segment{
		{Key: "big", Label: "big", Total: 10},
		{Key: models.OtherBucket, Label: models.OtherBucket, Total: 0.5, Other: true},
	}
	sum := Stats(s, DefaultOptions())
	if len(sum.Legend) != 1 || sum.Legend[0].Key != "big" {
		t.Errorf("legend = %+v, want only segments above the noise floor", sum.Legend)
	}
	if sum.CacheRate.Available {
		t.Error("cost summaries have no cache rate")
	}
}

func TestStats_NoData(t *testing.T) {
	s := series(models.MetricUsage, 0, 0, 0)
	s.HasData = false
	sum := Stats(s, DefaultOptions())
	if sum.Trend.Available || sum.CacheRate.Available || sum.PeriodChange.Available {
		t.Errorf("derived fields should be n/a without data: %+v", sum)
	}
}

func TestPercentile(t *testing.T) {
	values := []float64{5, 1, 4, 2, 3, 6, 7, 8, 9, 10}
	if got := Percentile(values, 0.9); got != 9 {
		t.Errorf("Percentile(0.9) = %v, want 9", got)
	}
	if got := Percentile(values, 1); got != 10 {
		t.Errorf("Percentile(1) = %v, want 10", got)
	}
	if got := Percentile(nil, 0.9); got != 0 {
		t.Errorf("Percentile(nil) = %v, want 0", got)
	}
	if values[0] != 5 {
		t.Error("Percentile must not sort its input in place")
	}
}
