package models

// Selection is the user's current view choice. It is a value: navigation
// produces a new Selection instead of mutating the current one.
type Selection struct {
	// Drill restricts a grouped view to a single bucket key. Empty means all.
	Drill    string
	Provider Provider
	Metric   Metric
	Range    DateRange
	GroupBy  GroupBy
}

// DefaultSelection returns the first option of every column.
func DefaultSelection() Selection {
	return Selection{
		Provider: ProviderOpenAI,
		Metric:   MetricCost,
		Range:    Range7Days,
		GroupBy:  GroupByNone,
	}
}

// Valid reports whether the grouping is available for the provider and metric
// and a drill-down is only set on a grouped view.
func (s Selection) Valid() bool {
	if s.Drill != "" && s.GroupBy == GroupByNone {
		return false
	}
	for _, g := range GroupByOptions(s.Provider, s.Metric) {
		if g == s.GroupBy {
			return true
		}
	}
	return false
}

// Normalize returns the closest valid selection, dropping an unavailable
// grouping and any drill-down that no longer applies.
func (s Selection) Normalize() Selection {
	if s.Valid() {
		return s
	}
	valid := false
	for _, g := range GroupByOptions(s.Provider, s.Metric) {
		if g == s.GroupBy {
			valid = true
		}
	}
	if !valid {
		s.GroupBy = GroupByNone
	}
	if s.GroupBy == GroupByNone {
		s.Drill = ""
	}
	return s
}
