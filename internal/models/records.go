package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FetchWindowDays is the fixed span of days fetched from each provider.
const FetchWindowDays = 30

// DateLayout is the calendar-day key format used across the store.
const DateLayout = "2006-01-02"

// RecordKey uniquely identifies a daily record within a fetch window.
type RecordKey struct {
	Date     string
	Provider Provider
	Model    string
	APIKeyID string
}

// DailyUsageRecord is one day of token usage for a provider, model and key.
type DailyUsageRecord struct {
	Date     time.Time
	Model    string
	APIKeyID string
	Provider Provider

	Requests int64
	// InputTokens counts every input token, cached ones included.
	InputTokens         int64
	OutputTokens        int64
	CachedInputTokens   int64
	CacheCreationTokens int64
}

// Key returns the dedup key for the record.
func (r DailyUsageRecord) Key() RecordKey {
	return RecordKey{
		Date:     r.Date.Format(DateLayout),
		Provider: r.Provider,
		Model:    r.Model,
		APIKeyID: r.APIKeyID,
	}
}

// TotalTokens returns input plus output tokens.
func (r DailyUsageRecord) TotalTokens() int64 {
	return r.InputTokens + r.OutputTokens
}

// Add accumulates another record's counters into r.
func (r *DailyUsageRecord) Add(o DailyUsageRecord) {
	r.Requests += o.Requests
	r.InputTokens += o.InputTokens
	r.OutputTokens += o.OutputTokens
	r.CachedInputTokens += o.CachedInputTokens
	r.CacheCreationTokens += o.CacheCreationTokens
}

// DailyCostRecord is one day of spend in USD.
type DailyCostRecord struct {
	Date     time.Time
	Amount   decimal.Decimal
	Model    string // model or line item description
	APIKeyID string
	Provider Provider
}

// Key returns the dedup key for the record.
func (r DailyCostRecord) Key() RecordKey {
	return RecordKey{
		Date:     r.Date.Format(DateLayout),
		Provider: r.Provider,
		Model:    r.Model,
		APIKeyID: r.APIKeyID,
	}
}

// FetchWindow is the immutable 30-day span ending on End (inclusive).
type FetchWindow struct {
	Start time.Time
	End   time.Time
}

// NewFetchWindow returns the window of FetchWindowDays UTC days ending on now's day.
func NewFetchWindow(now time.Time) FetchWindow {
	end := Day(now)
	return FetchWindow{
		Start: end.AddDate(0, 0, -(FetchWindowDays - 1)),
		End:   end,
	}
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Trailing returns the last n days of the window, oldest first.
// n is clamped to the window length.
func (w FetchWindow) Trailing(n int) []time.Time {
	if n > FetchWindowDays {
		n = FetchWindowDays
	}
	if n < 1 {
		n = 1
	}
	days := make([]time.Time, n)
	for i := range days {
		days[i] = w.End.AddDate(0, 0, i-(n-1))
	}
	return days
}

// Contains reports whether t falls on a day inside the window.
func (w FetchWindow) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(w.Start) && !d.After(w.End)
}
