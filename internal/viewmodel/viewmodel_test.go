package viewmodel

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/j-veylop/llm-usage-tui/internal/adapter"
	"github.com/j-veylop/llm-usage-tui/internal/engine"
	"github.com/j-veylop/llm-usage-tui/internal/models"
	"github.com/j-veylop/llm-usage-tui/internal/nav"
	"github.com/j-veylop/llm-usage-tui/internal/store"
	"github.com/j-veylop/llm-usage-tui/internal/summary"
)

var testNow = time.Date(2025, 3, 30, 12, 0, 0, 0, time.UTC)

func newBuilder() *Builder {
	return NewBuilder(engine.New(engine.DefaultOptions(), func() time.Time { return testNow }), summary.DefaultOptions())
}

func TestBuild_UsageFailureKeepsCostSummary(t *testing.T) {
	s := store.New()
	s.Ingest(store.Result{
		Window:   models.NewFetchWindow(testNow),
		UsageErr: errors.New("usage endpoint returned 500"),
		Data: adapter.Dataset{
			Provider: models.ProviderAnthropic,
			HasCost:  true,
			Cost: []models.DailyCostRecord{{
				Date:     models.Day(testNow),
				Provider: models.ProviderAnthropic,
				Model:    "claude",
				Amount:   decimal.NewFromInt(12),
			}},
		},
	})

	st := nav.New().Down(nil)
	v, err := newBuilder().Build(s, st)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if !v.Cost.HasData || v.Cost.Total != 12 {
		t.Errorf("cost summary = %+v, want total 12", v.Cost)
	}
	if v.Usage.HasData || v.Usage.CacheRate.Available || v.Usage.Trend.Available {
		t.Errorf("usage summary should be n/a, got %+v", v.Usage)
	}
	if v.UsageState.Err == nil {
		t.Error("usage error should be surfaced")
	}
	if v.State() != v.CostState {
		t.Error("charted metric is cost")
	}
	if len(v.Scaled.Heights) != 7 {
		t.Errorf("scaled series has %d days, want 7", len(v.Scaled.Heights))
	}
}

func TestBuild_InvalidSelection(t *testing.T) {
	st := nav.New()
	st.Selection.GroupBy = models.GroupByAPIKey

	_, err := newBuilder().Build(store.New(), st)
	var pre *RenderPreconditionError
	if !errors.As(err, &pre) {
		t.Fatalf("expected RenderPreconditionError, got %v", err)
	}
}

func TestBuild_Refreshing(t *testing.T) {
	s := store.New()
	s.BeginRefresh(models.ProviderOpenAI)
	v, err := newBuilder().Build(s, nav.New())
	if err != nil {
		t.Fatal(err)
	}
	if !v.Refreshing {
		t.Error("view should report the pending refresh")
	}
	if v.Summary.HasData {
		t.Error("nothing has been ingested yet")
	}
}
