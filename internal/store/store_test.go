package store

import (
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/j-veylop/llm-usage-tui/internal/adapter"
	"github.com/j-veylop/llm-usage-tui/internal/models"
)

var testNow = time.Date(2025, 3, 30, 12, 0, 0, 0, time.UTC)

func day(offset int) time.Time {
	return models.Day(testNow).AddDate(0, 0, -offset)
}

func usageResult(gen uint64, records ...models.DailyUsageRecord) Result {
	for i := range records {
		records[i].Provider = models.ProviderOpenAI
	}
	return Result{
		Generation: gen,
		FetchedAt:  testNow,
		Window:     models.NewFetchWindow(testNow),
		Data: adapter.Dataset{
			Provider: models.ProviderOpenAI,
			HasUsage: true,
			Usage:    records,
		},
	}
}

func TestIngest_Idempotent(t *testing.T) {
	s := New()
	recs := []models.DailyUsageRecord{
		{Date: day(0), Model: "gpt-4o", InputTokens: 100},
		{Date: day(1), Model: "gpt-4o", InputTokens: 50},
	}

	s.Ingest(usageResult(0, recs...))
	first := s.Snapshot(models.ProviderOpenAI).Usage

	s.Ingest(usageResult(0, recs...))
	second := s.Snapshot(models.ProviderOpenAI).Usage

	if !reflect.DeepEqual(first, second) {
		t.Errorf("re-ingesting identical data changed the store:\n%v\n%v", first, second)
	}
	if len(second) != 2 {
		t.Errorf("expected 2 records, got %d", len(second))
	}
}

func TestIngest_DedupAndWindow(t *testing.T) {
	s := New()
	s.Ingest(usageResult(0,
		models.DailyUsageRecord{Date: day(0), Model: "m", InputTokens: 10},
		models.DailyUsageRecord{Date: day(0).Add(3 * time.Hour), Model: "m", InputTokens: 20},
		models.DailyUsageRecord{Date: day(45), Model: "m", InputTokens: 99},
	))

	got := s.Snapshot(models.ProviderOpenAI).Usage
	if len(got) != 1 {
		t.Fatalf("expected 1 record after dedup, got %d", len(got))
	}
	if got[0].InputTokens != 20 {
		t.Errorf("last record per key should win, got %d", got[0].InputTokens)
	}
}

func TestIngest_FailureKeepsPreviousData(t *testing.T) {
	s := New()
	s.Ingest(Result{
		Window:    models.NewFetchWindow(testNow),
		FetchedAt: testNow,
		Data: adapter.Dataset{
			Provider: models.ProviderOpenAI,
			HasCost:  true,
			HasUsage: true,
			Cost:     []models.DailyCostRecord{{Date: day(0), Provider: models.ProviderOpenAI, Amount: decimal.NewFromInt(5)}},
			Usage:    []models.DailyUsageRecord{{Date: day(0), Provider: models.ProviderOpenAI, InputTokens: 5}},
		},
	})

	fetchErr := errors.New("503")
	s.Ingest(Result{
		Window:   models.NewFetchWindow(testNow),
		UsageErr: fetchErr,
		Data: adapter.Dataset{
			Provider: models.ProviderOpenAI,
			HasCost:  true,
			Cost:     []models.DailyCostRecord{{Date: day(0), Provider: models.ProviderOpenAI, Amount: decimal.NewFromInt(7)}},
		},
	})

	snap := s.Snapshot(models.ProviderOpenAI)
	if len(snap.Usage) != 1 {
		t.Fatal("usage records should survive a failed refresh")
	}
	if st := snap.State(models.MetricUsage); !st.Stale || !errors.Is(st.Err, fetchErr) {
		t.Errorf("usage should be stale with the fetch error, got %+v", st)
	}
	if st := snap.State(models.MetricCost); st.Stale || st.Err != nil || !st.Loaded {
		t.Errorf("cost should be fresh, got %+v", st)
	}
	if !snap.Cost[0].Amount.Equal(decimal.NewFromInt(7)) {
		t.Error("cost should be replaced by the new fetch")
	}
}

func TestIngest_FirstFetchFailure(t *testing.T) {
	s := New()
	s.Ingest(Result{
		Window:  models.NewFetchWindow(testNow),
		CostErr: errors.New("unauthorized"),
		Data:    adapter.Dataset{Provider: models.ProviderAnthropic},
	})
	snap := s.Snapshot(models.ProviderAnthropic)
	st := snap.State(models.MetricCost)
	if st.Loaded || st.Stale || st.Err == nil {
		t.Errorf("first failure should be an error without data, got %+v", st)
	}
}

func TestIngest_LastFetchWins(t *testing.T) {
	s := New()
	older := s.BeginRefresh(models.ProviderOpenAI)
	newer := s.BeginRefresh(models.ProviderOpenAI)

	if !s.Refreshing(models.ProviderOpenAI) {
		t.Error("provider should be refreshing")
	}

	if !s.Ingest(usageResult(newer, models.DailyUsageRecord{Date: day(0), Model: "new", InputTokens: 1})) {
		t.Fatal("newest result should be accepted")
	}
	if s.Ingest(usageResult(older, models.DailyUsageRecord{Date: day(0), Model: "old", InputTokens: 1})) {
		t.Fatal("superseded result should be discarded")
	}

	if got := s.Snapshot(models.ProviderOpenAI).Usage[0].Model; got != "new" {
		t.Errorf("store holds %q, want the newest fetch", got)
	}
	if s.Refreshing(models.ProviderOpenAI) {
		t.Error("provider should be idle after ingesting the newest result")
	}
}

func TestQuery_RangeIsViewSide(t *testing.T) {
	s := New()
	var recs []models.DailyUsageRecord
	for i := 0; i < models.FetchWindowDays; i++ {
		recs = append(recs, models.DailyUsageRecord{Date: day(i), Model: "m", InputTokens: int64(i + 1)})
	}
	s.Ingest(usageResult(0, recs...))
	before := s.Snapshot(models.ProviderOpenAI)

	q30 := s.Query(models.ProviderOpenAI, models.MetricUsage, models.Range30Days, testNow)
	q7 := s.Query(models.ProviderOpenAI, models.MetricUsage, models.Range7Days, testNow)

	if len(q30.Usage) != 30 || len(q30.Days) != 30 {
		t.Errorf("30d query returned %d records over %d days", len(q30.Usage), len(q30.Days))
	}
	if len(q7.Usage) != 7 || len(q7.Days) != 7 {
		t.Errorf("7d query returned %d records over %d days", len(q7.Usage), len(q7.Days))
	}
	if s.Snapshot(models.ProviderOpenAI) != before {
		t.Error("queries must not replace the snapshot")
	}
}

func TestQuery_Empty(t *testing.T) {
	s := New()
	q := s.Query(models.ProviderAnthropic, models.MetricCost, models.Range7Days, testNow)
	if len(q.Days) != 7 || len(q.Cost) != 0 {
		t.Errorf("empty store should yield 7 days and no records, got %+v", q)
	}
}

func TestKeyLabel(t *testing.T) {
	snap := &Snapshot{KeyNames: map[string]string{"key_1": "prod"}}
	if got := snap.KeyLabel("key_1"); got != "prod" {
		t.Errorf("KeyLabel() = %q, want prod", got)
	}
	if got := snap.KeyLabel("key_abcdefghijklmnopqrst"); got != "key_abcd...qrst" {
		t.Errorf("KeyLabel() = %q, want abbreviated id", got)
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			gen := s.BeginRefresh(models.ProviderOpenAI)
			s.Ingest(usageResult(gen, models.DailyUsageRecord{Date: day(0), Model: "m", InputTokens: 1}))
		}()
		go func() {
			defer wg.Done()
			_ = s.Query(models.ProviderOpenAI, models.MetricUsage, models.Range7Days, testNow)
		}()
	}
	wg.Wait()

	if snap := s.Snapshot(models.ProviderOpenAI); snap == nil || len(snap.Usage) != 1 {
		t.Error("expected a single deduplicated record after concurrent refreshes")
	}
}
