// Package usage refreshes provider reports into the aggregation store.
package usage

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/j-veylop/llm-usage-tui/internal/adapter"
	"github.com/j-veylop/llm-usage-tui/internal/logger"
	"github.com/j-veylop/llm-usage-tui/internal/models"
	"github.com/j-veylop/llm-usage-tui/internal/store"
)

// ErrNoCredential is returned when a provider has no configured fetcher.
var ErrNoCredential = errors.New("no admin key configured")

// Fetcher retrieves raw report pages for one provider. The OpenAI and
// Anthropic API clients implement it.
type Fetcher interface {
	Costs(ctx context.Context, start time.Time) ([][]byte, error)
	Usage(ctx context.Context, start time.Time) ([][]byte, error)
	KeyNames(ctx context.Context, ids []string) (map[string]string, error)
}

// Event represents a usage service event.
type Event struct {
	Error      error
	Dataset    string
	Provider   models.Provider
	Generation uint64
	Type       EventType
}

// EventType defines the type of usage event.
type EventType int

const (
	// EventRefreshing indicates that a provider refresh has started.
	EventRefreshing EventType = iota
	// EventUpdated indicates that a refresh result was ingested.
	EventUpdated
	// EventError indicates that a dataset failed to load.
	EventError
)

// Service drives provider refreshes.
type Service struct {
	store     *store.Store
	fetchers  map[models.Provider]Fetcher
	names     map[models.Provider]map[string]string
	eventChan chan Event
	now       func() time.Time
	group     singleflight.Group
	mu        sync.RWMutex
}

// New creates a usage service writing into st. A nil now uses time.Now.
func New(st *store.Store, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:     st,
		fetchers:  make(map[models.Provider]Fetcher),
		names:     make(map[models.Provider]map[string]string),
		eventChan: make(chan Event, 100),
		now:       now,
	}
}

// Events returns the event channel.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// SetFetcher installs the fetcher for a provider. A nil fetcher removes it.
func (s *Service) SetFetcher(p models.Provider, f Fetcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f == nil {
		delete(s.fetchers, p)
		return
	}
	s.fetchers[p] = f
}

// HasFetcher reports whether a provider can be refreshed.
func (s *Service) HasFetcher(p models.Provider) bool {
	return s.fetcher(p) != nil
}

func (s *Service) fetcher(p models.Provider) Fetcher {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetchers[p]
}

// Refresh fetches both datasets of a provider and ingests the outcome. The
// returned error joins the per-dataset failures. A result superseded by a
// newer refresh is dropped without error.
func (s *Service) Refresh(ctx context.Context, p models.Provider) error {
	f := s.fetcher(p)
	if f == nil {
		return ErrNoCredential
	}

	gen := s.store.BeginRefresh(p)
	s.sendEvent(Event{Type: EventRefreshing, Provider: p, Generation: gen})

	fetchedAt := s.now()
	window := models.NewFetchWindow(fetchedAt)

	var costPages, usagePages [][]byte
	var costErr, usageErr error

	var g errgroup.Group
	g.Go(func() error {
		costPages, costErr = f.Costs(ctx, window.Start)
		return nil
	})
	g.Go(func() error {
		usagePages, usageErr = f.Usage(ctx, window.Start)
		return nil
	})
	_ = g.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	ds := adapter.Normalize(payloadFor(p, costPages, usagePages))
	for _, issue := range ds.Issues {
		logger.Warn("skipped malformed field", "provider", p, "dataset", issue.Dataset,
			"field", issue.Field, "detail", issue.Detail)
	}
	ds.KeyNames = s.resolveNames(ctx, p, f, ds.Usage)

	accepted := s.store.Ingest(store.Result{
		FetchedAt:  fetchedAt,
		CostErr:    costErr,
		UsageErr:   usageErr,
		Data:       ds,
		Window:     window,
		Generation: gen,
	})
	if !accepted {
		logger.Debug("discarded superseded refresh", "provider", p, "generation", gen)
		return nil
	}

	if costErr != nil {
		s.sendEvent(Event{Type: EventError, Provider: p, Dataset: adapter.DatasetCost, Error: costErr, Generation: gen})
	}
	if usageErr != nil {
		s.sendEvent(Event{Type: EventError, Provider: p, Dataset: adapter.DatasetUsage, Error: usageErr, Generation: gen})
	}
	s.sendEvent(Event{Type: EventUpdated, Provider: p, Generation: gen})

	return errors.Join(costErr, usageErr)
}

// RefreshAll refreshes every provider with a fetcher concurrently.
func (s *Service) RefreshAll(ctx context.Context) {
	s.mu.RLock()
	providers := slices.Sorted(maps.Keys(s.fetchers))
	s.mu.RUnlock()

	var g errgroup.Group
	for _, p := range providers {
		g.Go(func() error {
			if err := s.Refresh(ctx, p); err != nil {
				logger.Error("refresh failed", "provider", p, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// resolveNames returns display names for the keys seen in records, fetching
// only ids that are not cached. Lookup failures leave ids unnamed.
func (s *Service) resolveNames(ctx context.Context, p models.Provider, f Fetcher, records []models.DailyUsageRecord) map[string]string {
	ids := lo.Uniq(lo.Compact(lo.Map(records, func(r models.DailyUsageRecord, _ int) string {
		return r.APIKeyID
	})))

	s.mu.RLock()
	cached := s.names[p]
	missing := lo.Filter(ids, func(id string, _ int) bool {
		_, ok := cached[id]
		return !ok
	})
	s.mu.RUnlock()

	if len(missing) > 0 {
		slices.Sort(missing)
		// Callers asking for the same ids share one lookup.
		flight := p.String() + ":" + strings.Join(missing, ",")
		v, err, _ := s.group.Do(flight, func() (any, error) {
			return f.KeyNames(ctx, missing)
		})
		if err != nil {
			logger.Warn("failed to resolve key names", "provider", p, "error", err)
		} else if fetched, ok := v.(map[string]string); ok {
			s.mu.Lock()
			if s.names[p] == nil {
				s.names[p] = make(map[string]string)
			}
			maps.Copy(s.names[p], fetched)
			s.mu.Unlock()
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.names[p])
}

func payloadFor(p models.Provider, costPages, usagePages [][]byte) adapter.Payload {
	if p == models.ProviderAnthropic {
		return adapter.AnthropicPayload{CostPages: costPages, UsagePages: usagePages}
	}
	return adapter.OpenAIPayload{CostPages: costPages, UsagePages: usagePages}
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		logger.Warn("usage event dropped", "type", event.Type, "provider", event.Provider)
	}
}
