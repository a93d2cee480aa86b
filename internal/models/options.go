// Package models defines data structures and domain types.
package models

// Provider identifies an LLM billing API.
type Provider int

const (
	// ProviderOpenAI is the OpenAI organization API.
	ProviderOpenAI Provider = iota
	// ProviderAnthropic is the Anthropic Admin API.
	ProviderAnthropic
)

// Providers lists every provider in display order.
var Providers = []Provider{ProviderOpenAI, ProviderAnthropic}

// String returns the display name for a provider.
func (p Provider) String() string {
	switch p {
	case ProviderOpenAI:
		return "OpenAI"
	case ProviderAnthropic:
		return "Anthropic"
	default:
		return "Unknown"
	}
}

// EnvKey returns the environment variable holding the provider's admin key.
func (p Provider) EnvKey() string {
	switch p {
	case ProviderOpenAI:
		return "OPENAI_ADMIN_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_ADMIN_KEY"
	default:
		return ""
	}
}

// SupportsKeyAttribution reports whether the provider attributes the metric's
// records to individual API keys. Cost reports from both providers are grouped
// by line item only, so key attribution is a usage-only capability.
func (p Provider) SupportsKeyAttribution(m Metric) bool {
	switch p {
	case ProviderOpenAI, ProviderAnthropic:
		return m == MetricUsage
	default:
		return false
	}
}

// Metric selects which dataset is charted.
type Metric int

const (
	// MetricCost charts spend in USD.
	MetricCost Metric = iota
	// MetricUsage charts token volume.
	MetricUsage
)

// Metrics lists every metric in display order.
var Metrics = []Metric{MetricCost, MetricUsage}

// String returns the display name for a metric.
func (m Metric) String() string {
	switch m {
	case MetricCost:
		return "Cost"
	case MetricUsage:
		return "Usage"
	default:
		return "Unknown"
	}
}

// DateRange represents the trailing slice of the fetch window on display.
type DateRange int

const (
	// Range7Days shows the last 7 days.
	Range7Days DateRange = iota
	// Range30Days shows the full 30-day window.
	Range30Days
)

// DateRanges lists every range in display order.
var DateRanges = []DateRange{Range7Days, Range30Days}

// String returns the display name for a date range.
func (r DateRange) String() string {
	switch r {
	case Range7Days:
		return "7 Days"
	case Range30Days:
		return "30 Days"
	default:
		return "Unknown"
	}
}

// Days returns the number of days covered by the range.
func (r DateRange) Days() int {
	switch r {
	case Range7Days:
		return 7
	case Range30Days:
		return FetchWindowDays
	default:
		return FetchWindowDays
	}
}

// GroupBy selects how records are split into segments.
type GroupBy int

const (
	// GroupByNone sums everything into a single series.
	GroupByNone GroupBy = iota
	// GroupByModel splits by model or line item.
	GroupByModel
	// GroupByAPIKey splits by API key.
	GroupByAPIKey
)

// String returns the display name for a grouping.
func (g GroupBy) String() string {
	switch g {
	case GroupByNone:
		return "None"
	case GroupByModel:
		return "Model"
	case GroupByAPIKey:
		return "API Key"
	default:
		return "Unknown"
	}
}

// GroupByOptions returns the groupings valid for a provider and metric.
func GroupByOptions(p Provider, m Metric) []GroupBy {
	opts := []GroupBy{GroupByNone, GroupByModel}
	if p.SupportsKeyAttribution(m) {
		opts = append(opts, GroupByAPIKey)
	}
	return opts
}

// Column is one of the option columns in the selector.
type Column int

const (
	ColumnProvider Column = iota
	ColumnMetric
	ColumnRange
	ColumnGroupBy
)

// Columns lists every column in left-to-right order.
var Columns = []Column{ColumnProvider, ColumnMetric, ColumnRange, ColumnGroupBy}

// String returns the column header.
func (c Column) String() string {
	switch c {
	case ColumnProvider:
		return "Provider"
	case ColumnMetric:
		return "Metric"
	case ColumnRange:
		return "Range"
	case ColumnGroupBy:
		return "Group By"
	default:
		return "Unknown"
	}
}
