// Package store holds the normalized records of the current fetch window.
//
// Each provider has one immutable Snapshot. Ingesting a refresh result builds
// a new Snapshot and swaps it in under the lock, so readers always see either
// the previous or the next state in full.
package store

import (
	"sync"
	"time"

	"github.com/j-veylop/llm-usage-tui/internal/adapter"
	"github.com/j-veylop/llm-usage-tui/internal/models"
)

// DatasetState tracks the freshness of one dataset inside a snapshot.
type DatasetState struct {
	UpdatedAt time.Time
	// Err is the last fetch failure. It is kept alongside the previous
	// records, which are then reported as stale.
	Err error
	// Loaded is set once the dataset has been ingested successfully.
	Loaded bool
	Stale  bool
}

// Snapshot is the immutable per-provider state. Callers must not modify the
// slices or maps it exposes.
type Snapshot struct {
	Window     models.FetchWindow
	KeyNames   map[string]string
	Usage      []models.DailyUsageRecord
	Cost       []models.DailyCostRecord
	CostState  DatasetState
	UsageState DatasetState
	Generation uint64
	Provider   models.Provider
}

// State returns the freshness of the dataset backing a metric.
func (s *Snapshot) State(m models.Metric) DatasetState {
	if m == models.MetricCost {
		return s.CostState
	}
	return s.UsageState
}

// KeyLabel returns the display name for an API key id, falling back to the
// abbreviated id when the name is unknown.
func (s *Snapshot) KeyLabel(id string) string {
	if name, ok := s.KeyNames[id]; ok && name != "" {
		return name
	}
	return models.AbbreviateKey(id)
}

// Result is the outcome of one provider refresh. A nil error with a dataset
// that is absent from Data leaves the previous records untouched.
type Result struct {
	FetchedAt  time.Time
	CostErr    error
	UsageErr   error
	Data       adapter.Dataset
	Window     models.FetchWindow
	Generation uint64
}

// Store keeps one snapshot per provider.
type Store struct {
	snapshots map[models.Provider]*Snapshot
	begun     map[models.Provider]uint64
	mu        sync.RWMutex
}

// New creates an empty store.
func New() *Store {
	return &Store{
		snapshots: make(map[models.Provider]*Snapshot),
		begun:     make(map[models.Provider]uint64),
	}
}

// BeginRefresh registers a new refresh for a provider and returns its
// generation. Results carrying an older generation are discarded by Ingest.
func (s *Store) BeginRefresh(p models.Provider) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.begun[p]++
	return s.begun[p]
}

// Ingest applies a refresh result. It returns false when the result was
// superseded by a newer refresh and therefore ignored.
func (s *Store) Ingest(r Result) bool {
	p := r.Data.Provider

	s.mu.Lock()
	defer s.mu.Unlock()

	if r.Generation < s.begun[p] {
		return false
	}
	if r.Generation > s.begun[p] {
		s.begun[p] = r.Generation
	}

	prev := s.snapshots[p]
	next := &Snapshot{
		Provider:   p,
		Generation: r.Generation,
		Window:     r.Window,
		KeyNames:   map[string]string{},
	}
	if prev != nil {
		*next = *prev
		next.Generation = r.Generation
	}

	switch {
	case r.CostErr != nil:
		next.CostState.Err = r.CostErr
		next.CostState.Stale = next.CostState.Loaded
	case r.Data.HasCost:
		next.Cost = dedupCost(r.Data.Cost, r.Window)
		next.CostState = DatasetState{UpdatedAt: r.FetchedAt, Loaded: true}
	}

	switch {
	case r.UsageErr != nil:
		next.UsageState.Err = r.UsageErr
		next.UsageState.Stale = next.UsageState.Loaded
	case r.Data.HasUsage:
		next.Usage = dedupUsage(r.Data.Usage, r.Window)
		next.UsageState = DatasetState{UpdatedAt: r.FetchedAt, Loaded: true}
	}

	if r.Data.HasCost || r.Data.HasUsage {
		next.Window = r.Window
	}
	if len(r.Data.KeyNames) > 0 || prev == nil {
		next.KeyNames = r.Data.KeyNames
		if next.KeyNames == nil {
			next.KeyNames = map[string]string{}
		}
	}

	s.snapshots[p] = next
	return true
}

// Snapshot returns the current snapshot for a provider, or nil if nothing
// was ingested yet.
func (s *Store) Snapshot(p models.Provider) *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshots[p]
}

// Refreshing reports whether a provider has a refresh that has not been
// ingested yet.
func (s *Store) Refreshing(p models.Provider) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := s.snapshots[p]
	if snap == nil {
		return s.begun[p] > 0
	}
	return snap.Generation < s.begun[p]
}

// Query holds the records of a snapshot that fall inside the trailing days of
// its window.
type Query struct {
	Usage []models.DailyUsageRecord
	Cost  []models.DailyCostRecord
	Days  []time.Time
}

// Query returns the records for a provider's metric within the trailing range.
// It never mutates the store. The days slice is derived from the snapshot's
// window, or from now when the provider has no snapshot yet.
func (s *Store) Query(p models.Provider, m models.Metric, r models.DateRange, now time.Time) Query {
	snap := s.Snapshot(p)
	if snap == nil {
		return Query{Days: models.NewFetchWindow(now).Trailing(r.Days())}
	}
	return snap.Query(m, r.Days())
}

// Query slices the snapshot to the trailing n days of its window.
func (s *Snapshot) Query(m models.Metric, n int) Query {
	days := s.Window.Trailing(n)
	q := Query{Days: days}
	from := days[0]

	if m == models.MetricCost {
		for _, r := range s.Cost {
			if !r.Date.Before(from) && !r.Date.After(s.Window.End) {
				q.Cost = append(q.Cost, r)
			}
		}
		return q
	}
	for _, r := range s.Usage {
		if !r.Date.Before(from) && !r.Date.After(s.Window.End) {
			q.Usage = append(q.Usage, r)
		}
	}
	return q
}

// dedupUsage keeps the last record per key and drops records outside the window.
func dedupUsage(in []models.DailyUsageRecord, w models.FetchWindow) []models.DailyUsageRecord {
	idx := make(map[models.RecordKey]int, len(in))
	out := make([]models.DailyUsageRecord, 0, len(in))
	for _, r := range in {
		if !w.Contains(r.Date) {
			continue
		}
		r.Date = models.Day(r.Date)
		k := r.Key()
		if i, ok := idx[k]; ok {
			out[i] = r
			continue
		}
		idx[k] = len(out)
		out = append(out, r)
	}
	return out
}

func dedupCost(in []models.DailyCostRecord, w models.FetchWindow) []models.DailyCostRecord {
	idx := make(map[models.RecordKey]int, len(in))
	out := make([]models.DailyCostRecord, 0, len(in))
	for _, r := range in {
		if !w.Contains(r.Date) {
			continue
		}
		r.Date = models.Day(r.Date)
		k := r.Key()
		if i, ok := idx[k]; ok {
			out[i] = r
			continue
		}
		idx[k] = len(out)
		out = append(out, r)
	}
	return out
}
