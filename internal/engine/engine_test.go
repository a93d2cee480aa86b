package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/j-veylop/llm-usage-tui/internal/adapter"
	"github.com/j-veylop/llm-usage-tui/internal/models"
	"github.com/j-veylop/llm-usage-tui/internal/store"
)

var testNow = time.Date(2025, 3, 30, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return testNow }

func day(offset int) time.Time {
	return models.Day(testNow).AddDate(0, 0, -offset)
}

func newStore(cost []models.DailyCostRecord, usage []models.DailyUsageRecord, names map[string]string) *store.Store {
	s := store.New()
	s.Ingest(store.Result{
		Window:    models.NewFetchWindow(testNow),
		FetchedAt: testNow,
		Data: adapter.Dataset{
			Provider: models.ProviderOpenAI,
			HasCost:  cost != nil,
			HasUsage: usage != nil,
			Cost:     cost,
			Usage:    usage,
			KeyNames: names,
		},
	})
	return s
}

func cost(offset int, model string, amount float64) models.DailyCostRecord {
	return models.DailyCostRecord{
		Date:     day(offset),
		Provider: models.ProviderOpenAI,
		Model:    model,
		Amount:   decimal.NewFromFloat(amount),
	}
}

func TestAggregate_SeriesLengthMatchesRange(t *testing.T) {
	s := newStore([]models.DailyCostRecord{cost(0, "a", 1), cost(20, "a", 2)}, nil, nil)
	e := New(DefaultOptions(), clock)

	for _, r := range models.DateRanges {
		for _, g := range []models.GroupBy{models.GroupByNone, models.GroupByModel} {
			sel := models.Selection{Provider: models.ProviderOpenAI, Metric: models.MetricCost, Range: r, GroupBy: g}
			series := e.Aggregate(s, sel)
			if len(series.Days) != r.Days() || len(series.Totals) != r.Days() {
				t.Errorf("%v/%v: got %d days and %d totals, want %d", r, g, len(series.Days), len(series.Totals), r.Days())
			}
			for _, seg := range series.Segments {
				if len(seg.Values) != r.Days() {
					t.Errorf("%v/%v: segment %s has %d values", r, g, seg.Key, len(seg.Values))
				}
			}
		}
	}
}

func TestAggregate_ZeroFill(t *testing.T) {
	s := newStore([]models.DailyCostRecord{cost(0, "a", 3), cost(2, "a", 4)}, nil, nil)
	e := New(DefaultOptions(), clock)

	series := e.Aggregate(s, models.Selection{Provider: models.ProviderOpenAI, Range: models.Range7Days})
	want := []float64{0, 0, 0, 0, 4, 0, 3}
	for i, v := range want {
		if series.Totals[i] != v {
			t.Errorf("Totals[%d] = %v, want %v", i, series.Totals[i], v)
		}
	}
	if !series.Days[6].Equal(day(0)) {
		t.Errorf("last day = %v, want today", series.Days[6])
	}
	if !series.HasData {
		t.Error("series should report data")
	}
}

func TestAggregate_OtherBucket(t *testing.T) {
	s := newStore([]models.DailyCostRecord{
		cost(0, "Model A", 80),
		cost(0, "Model B", 15),
		cost(0, "Model C", 5),
	}, nil, nil)
	e := New(DefaultOptions(), clock)

	series := e.Aggregate(s, models.Selection{
		Provider: models.ProviderOpenAI,
		Metric:   models.MetricCost,
		Range:    models.Range7Days,
		GroupBy:  models.GroupByModel,
	})

	if len(series.Segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(series.Segments))
	}
	wantKeys := []string{"Model A", "Model B", models.OtherBucket}
	for i, k := range wantKeys {
		if series.Segments[i].Key != k {
			t.Errorf("segment %d = %q, want %q", i, series.Segments[i].Key, k)
		}
	}
	other := series.Segments[2]
	if !other.Other || other.Total != 5 {
		t.Errorf("Other should hold Model C's 5, got %+v", other)
	}

	targets := e.DrillTargets(s, series.Selection)
	if len(targets) != 2 || targets[0] != "Model A" || targets[1] != "Model B" {
		t.Errorf("DrillTargets() = %v, want material buckets only", targets)
	}
}

func TestAggregate_TiesSortAlphabetically(t *testing.T) {
	s := newStore([]models.DailyCostRecord{
		cost(0, "zeta", 10),
		cost(0, "alpha", 10),
		cost(0, "mid", 10),
	}, nil, nil)
	e := New(DefaultOptions(), clock)

	series := e.Aggregate(s, models.Selection{Provider: models.ProviderOpenAI, GroupBy: models.GroupByModel})
	got := []string{series.Segments[0].Key, series.Segments[1].Key, series.Segments[2].Key}
	want := []string{"alpha", "mid", "zeta"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("segment order = %v, want %v", got, want)
		}
	}
}

func TestAggregate_DrillDown(t *testing.T) {
	s := newStore([]models.DailyCostRecord{
		cost(0, "Model A", 80),
		cost(1, "Model A", 20),
		cost(0, "Model B", 15),
	}, nil, nil)
	e := New(DefaultOptions(), clock)

	series := e.Aggregate(s, models.Selection{
		Provider: models.ProviderOpenAI,
		GroupBy:  models.GroupByModel,
		Drill:    "Model A",
	})
	if len(series.Segments) != 1 || series.Segments[0].Key != "Model A" {
		t.Fatalf("drill-down should keep only Model A, got %+v", series.Segments)
	}
	if series.Totals[6] != 80 || series.Totals[5] != 20 {
		t.Errorf("totals should be restricted to the bucket, got %v", series.Totals)
	}
}

func TestAggregate_Usage(t *testing.T) {
	usage := []models.DailyUsageRecord{
		{Date: day(0), Provider: models.ProviderOpenAI, Model: "gpt-4o", APIKeyID: "key_1",
			Requests: 3, InputTokens: 1000, OutputTokens: 500, CachedInputTokens: 250},
		{Date: day(1), Provider: models.ProviderOpenAI, Model: "gpt-4o", APIKeyID: "",
			Requests: 1, InputTokens: 100, OutputTokens: 100},
	}
	s := newStore(nil, usage, map[string]string{"key_1": "prod"})
	e := New(DefaultOptions(), clock)

	series := e.Aggregate(s, models.Selection{
		Provider: models.ProviderOpenAI,
		Metric:   models.MetricUsage,
		GroupBy:  models.GroupByAPIKey,
	})

	if series.Totals[6] != 1500 || series.Totals[5] != 200 {
		t.Errorf("usage volume should be input+output, got %v", series.Totals)
	}
	want := models.TokenTotals{Requests: 4, Input: 1100, Output: 600, Cached: 250}
	if series.Tokens != want {
		t.Errorf("Tokens = %+v, want %+v", series.Tokens, want)
	}
	if series.Segments[0].Label != "prod" {
		t.Errorf("key label = %q, want resolved name", series.Segments[0].Label)
	}
	if series.Segments[1].Key != unknownGroup {
		t.Errorf("unattributed usage should be grouped as %q", unknownGroup)
	}
}

func TestAggregate_InvalidGroupingIsNormalized(t *testing.T) {
	s := newStore([]models.DailyCostRecord{cost(0, "a", 1)}, nil, nil)
	e := New(DefaultOptions(), clock)

	series := e.Aggregate(s, models.Selection{
		Provider: models.ProviderOpenAI,
		Metric:   models.MetricCost,
		GroupBy:  models.GroupByAPIKey,
	})
	if series.Selection.GroupBy != models.GroupByNone || len(series.Segments) != 0 {
		t.Errorf("API key grouping on cost should fall back to None, got %v", series.Selection.GroupBy)
	}
}

func TestAggregate_PreviousPeriod(t *testing.T) {
	s := newStore([]models.DailyCostRecord{
		cost(0, "a", 10),
		cost(7, "a", 4),
		cost(13, "a", 1),
		cost(14, "a", 100),
	}, nil, nil)
	e := New(DefaultOptions(), clock)

	week := e.Aggregate(s, models.Selection{Provider: models.ProviderOpenAI, Range: models.Range7Days})
	if !week.HasPrevious || week.PreviousTotal != 5 {
		t.Errorf("previous week total = %v (has=%v), want 5", week.PreviousTotal, week.HasPrevious)
	}

	month := e.Aggregate(s, models.Selection{Provider: models.ProviderOpenAI, Range: models.Range30Days})
	if month.HasPrevious {
		t.Error("30-day range has no previous period inside the window")
	}
}

func TestAggregate_NoSnapshot(t *testing.T) {
	e := New(DefaultOptions(), clock)
	series := e.Aggregate(store.New(), models.Selection{Provider: models.ProviderAnthropic, Range: models.Range30Days})
	if series.HasData || len(series.Totals) != 30 {
		t.Errorf("expected 30 zero days without data, got %d (HasData=%v)", len(series.Totals), series.HasData)
	}
	if !series.Days[29].Equal(day(0)) {
		t.Error("window should end today when nothing was fetched")
	}
}

func TestAggregate_RangeSwitchUsesStoredWindow(t *testing.T) {
	var recs []models.DailyCostRecord
	for i := 0; i < models.FetchWindowDays; i++ {
		recs = append(recs, cost(i, "a", 1))
	}
	s := newStore(recs, nil, nil)
	e := New(DefaultOptions(), clock)

	sel := models.Selection{Provider: models.ProviderOpenAI, Range: models.Range30Days}
	month := e.Aggregate(s, sel)
	sel.Range = models.Range7Days
	week := e.Aggregate(s, sel)

	if len(month.Totals) != 30 || len(week.Totals) != 7 {
		t.Fatalf("unexpected lengths %d/%d", len(month.Totals), len(week.Totals))
	}
	for i := range week.Totals {
		if week.Totals[i] != month.Totals[23+i] {
			t.Errorf("7d day %d = %v, want trailing 30d value %v", i, week.Totals[i], month.Totals[23+i])
		}
	}
}
