package models

import (
	"fmt"
	"math"
)

// AbbreviateKey shortens API key ids longer than 16 characters to
// "first8...last4".
func AbbreviateKey(id string) string {
	r := []rune(id)
	if len(r) <= 16 {
		return id
	}
	return string(r[:8]) + "..." + string(r[len(r)-4:])
}

// FormatTokens renders a token count compactly, e.g. 1.2M or 350k.
func FormatTokens(n float64) string {
	switch {
	case math.Abs(n) >= 1_000_000:
		return fmt.Sprintf("%.1fM", n/1_000_000)
	case math.Abs(n) >= 1_000:
		return fmt.Sprintf("%.0fk", n/1_000)
	default:
		return fmt.Sprintf("%.0f", n)
	}
}

// FormatCost renders a USD amount.
func FormatCost(v float64) string {
	if math.Abs(v) >= 1000 {
		return fmt.Sprintf("$%.0f", v)
	}
	return fmt.Sprintf("$%.2f", v)
}

// FormatValue renders v according to the metric.
func FormatValue(m Metric, v float64) string {
	if m == MetricCost {
		return FormatCost(v)
	}
	return FormatTokens(v)
}

// FormatPercent renders a signed percentage, or "n/a".
func FormatPercent(r Ratio) string {
	if !r.Available {
		return "n/a"
	}
	return fmt.Sprintf("%+.1f%%", r.Value)
}

// FormatRate renders a [0,1] ratio as a percentage, or "n/a".
func FormatRate(r Ratio) string {
	if !r.Available {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", r.Value*100)
}
