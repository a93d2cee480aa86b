// Package adapter normalizes raw provider billing payloads into daily records.
//
// Adapters are pure functions of their payload. Malformed or missing fields
// are read as zero and reported as ParseIssues; they never drop a whole day.
package adapter

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/j-veylop/llm-usage-tui/internal/models"
)

// Dataset names used in issues and errors.
const (
	DatasetCost  = "cost"
	DatasetUsage = "usage"
)

// Payload is the raw response set for one provider. It is implemented by
// OpenAIPayload and AnthropicPayload.
type Payload interface {
	Provider() models.Provider
}

// ParseIssue describes a field that could not be read and was zeroed.
type ParseIssue struct {
	Provider models.Provider
	Dataset  string
	Field    string
	Detail   string
}

func (e ParseIssue) Error() string {
	return fmt.Sprintf("%s %s: field %q: %s", e.Provider, e.Dataset, e.Field, e.Detail)
}

// Dataset is the normalized result of one payload. HasCost and HasUsage are
// false when the corresponding responses were not part of the payload.
type Dataset struct {
	KeyNames map[string]string
	Usage    []models.DailyUsageRecord
	Cost     []models.DailyCostRecord
	Issues   []ParseIssue
	Provider models.Provider
	HasCost  bool
	HasUsage bool
}

// Normalize converts a provider payload into records.
func Normalize(p Payload) Dataset {
	switch v := p.(type) {
	case OpenAIPayload:
		return normalizeOpenAI(v)
	case *OpenAIPayload:
		return normalizeOpenAI(*v)
	case AnthropicPayload:
		return normalizeAnthropic(v)
	case *AnthropicPayload:
		return normalizeAnthropic(*v)
	default:
		return Dataset{}
	}
}

// parser accumulates records and issues for one dataset.
type parser struct {
	usage    map[models.RecordKey]*models.DailyUsageRecord
	cost     map[models.RecordKey]*models.DailyCostRecord
	issues   *[]ParseIssue
	dataset  string
	provider models.Provider
}

func newParser(p models.Provider, dataset string, issues *[]ParseIssue) *parser {
	return &parser{
		usage:    make(map[models.RecordKey]*models.DailyUsageRecord),
		cost:     make(map[models.RecordKey]*models.DailyCostRecord),
		issues:   issues,
		dataset:  dataset,
		provider: p,
	}
}

func (p *parser) issue(field, format string, args ...any) {
	*p.issues = append(*p.issues, ParseIssue{
		Provider: p.provider,
		Dataset:  p.dataset,
		Field:    field,
		Detail:   fmt.Sprintf(format, args...),
	})
}

// buckets iterates the daily buckets of every page.
func (p *parser) buckets(pages [][]byte, fn func(bucket gjson.Result)) {
	for i, page := range pages {
		if !gjson.ValidBytes(page) {
			p.issue("page", "page %d is not valid JSON", i)
			continue
		}
		data := gjson.GetBytes(page, "data")
		if !data.IsArray() {
			p.issue("data", "page %d has no data array", i)
			continue
		}
		data.ForEach(func(_, bucket gjson.Result) bool {
			fn(bucket)
			return true
		})
	}
}

// int reads a count field, accepting numbers and numeric strings. Negative
// and out-of-range counts read as zero.
func (p *parser) int(res gjson.Result, path string) int64 {
	v := res.Get(path)
	var n float64
	switch v.Type {
	case gjson.Null:
		return 0
	case gjson.Number:
		n = v.Num
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			p.issue(path, "not a number: %q", v.Str)
			return 0
		}
		n = f
	default:
		p.issue(path, "unexpected %s value", v.Type)
		return 0
	}
	switch {
	case math.IsNaN(n) || math.IsInf(n, 0) || n >= math.MaxInt64:
		p.issue(path, "count out of range: %s", v.Raw)
		return 0
	case n < 0:
		p.issue(path, "negative count: %s", v.Raw)
		return 0
	}
	return int64(n)
}

// decimal reads a money field, accepting numbers and numeric strings.
func (p *parser) decimal(res gjson.Result, path string) decimal.Decimal {
	v := res.Get(path)
	var raw string
	switch v.Type {
	case gjson.Null:
		return decimal.Zero
	case gjson.Number:
		raw = v.Raw
	case gjson.String:
		raw = strings.TrimSpace(v.Str)
	default:
		p.issue(path, "unexpected %s value", v.Type)
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		p.issue(path, "not a decimal: %q", raw)
		return decimal.Zero
	}
	return d
}

func (p *parser) addUsage(r models.DailyUsageRecord) {
	r.Provider = p.provider
	k := r.Key()
	if cur, ok := p.usage[k]; ok {
		cur.Add(r)
		return
	}
	p.usage[k] = &r
}

func (p *parser) addCost(r models.DailyCostRecord) {
	r.Provider = p.provider
	k := r.Key()
	if cur, ok := p.cost[k]; ok {
		cur.Amount = cur.Amount.Add(r.Amount)
		return
	}
	p.cost[k] = &r
}

func (p *parser) usageRecords() []models.DailyUsageRecord {
	out := make([]models.DailyUsageRecord, 0, len(p.usage))
	for _, r := range p.usage {
		out = append(out, *r)
	}
	slices.SortFunc(out, func(a, b models.DailyUsageRecord) int {
		return compareKeys(a.Key(), b.Key())
	})
	return out
}

func (p *parser) costRecords() []models.DailyCostRecord {
	out := make([]models.DailyCostRecord, 0, len(p.cost))
	for _, r := range p.cost {
		out = append(out, *r)
	}
	slices.SortFunc(out, func(a, b models.DailyCostRecord) int {
		return compareKeys(a.Key(), b.Key())
	})
	return out
}

func compareKeys(a, b models.RecordKey) int {
	return cmp.Or(
		cmp.Compare(a.Date, b.Date),
		cmp.Compare(a.Model, b.Model),
		cmp.Compare(a.APIKeyID, b.APIKeyID),
	)
}

// unixDay parses a unix-seconds bucket start.
func (p *parser) unixDay(bucket gjson.Result, path string) (time.Time, bool) {
	v := bucket.Get(path)
	if v.Type != gjson.Number {
		p.issue(path, "bucket without a usable start time")
		return time.Time{}, false
	}
	return models.Day(time.Unix(v.Int(), 0)), true
}

// rfc3339Day parses an RFC 3339 bucket start.
func (p *parser) rfc3339Day(bucket gjson.Result, path string) (time.Time, bool) {
	v := bucket.Get(path)
	t, err := time.Parse(time.RFC3339, v.String())
	if err != nil {
		p.issue(path, "bucket without a usable start time: %q", v.String())
		return time.Time{}, false
	}
	return models.Day(t), true
}

func copyNames(names map[string]string) map[string]string {
	out := make(map[string]string, len(names))
	for id, name := range names {
		if name != "" {
			out[id] = name
		}
	}
	return out
}
