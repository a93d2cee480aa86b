package adapter

import (
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/j-veylop/llm-usage-tui/internal/models"
)

var centsPerDollar = decimal.NewFromInt(100)

// AnthropicPayload holds raw pages from the Anthropic Admin API. A nil page
// slice means that dataset was not fetched.
type AnthropicPayload struct {
	// KeyNames maps api_key_id to the key's display name.
	KeyNames map[string]string
	// CostPages are /cost_report responses grouped by description.
	CostPages [][]byte
	// UsagePages are /usage_report/messages responses grouped by model.
	UsagePages [][]byte
}

// Provider implements Payload.
func (AnthropicPayload) Provider() models.Provider { return models.ProviderAnthropic }

func normalizeAnthropic(p AnthropicPayload) Dataset {
	ds := Dataset{
		Provider: models.ProviderAnthropic,
		KeyNames: copyNames(p.KeyNames),
		HasCost:  p.CostPages != nil,
		HasUsage: p.UsagePages != nil,
	}

	if ds.HasCost {
		cp := newParser(models.ProviderAnthropic, DatasetCost, &ds.Issues)
		cp.buckets(p.CostPages, func(bucket gjson.Result) {
			day, ok := cp.rfc3339Day(bucket, "starting_at")
			if !ok {
				return
			}
			bucket.Get("results").ForEach(func(_, res gjson.Result) bool {
				// Amounts are reported in cents.
				amount := cp.decimal(res, "amount").Div(centsPerDollar)
				if amount.IsZero() {
					return true
				}
				if cur := res.Get("currency").String(); cur != "" && cur != "USD" {
					cp.issue("currency", "unexpected currency %q treated as USD", cur)
				}
				model := res.Get("model").String()
				if model == "" {
					model = res.Get("description").String()
				}
				cp.addCost(models.DailyCostRecord{
					Date:   day,
					Model:  model,
					Amount: amount,
				})
				return true
			})
		})
		ds.Cost = cp.costRecords()
	}

	if ds.HasUsage {
		up := newParser(models.ProviderAnthropic, DatasetUsage, &ds.Issues)
		up.buckets(p.UsagePages, func(bucket gjson.Result) {
			day, ok := up.rfc3339Day(bucket, "starting_at")
			if !ok {
				return
			}
			bucket.Get("results").ForEach(func(_, res gjson.Result) bool {
				uncached := up.int(res, "uncached_input_tokens")
				creation := up.int(res, "cache_creation.ephemeral_1h_input_tokens") +
					up.int(res, "cache_creation.ephemeral_5m_input_tokens")
				read := up.int(res, "cache_read_input_tokens")

				rec := models.DailyUsageRecord{
					Date:                day,
					Model:               res.Get("model").String(),
					APIKeyID:            res.Get("api_key_id").String(),
					InputTokens:         uncached + creation + read,
					OutputTokens:        up.int(res, "output_tokens"),
					CachedInputTokens:   read,
					CacheCreationTokens: creation,
				}
				if rec.TotalTokens() == 0 {
					return true
				}
				up.addUsage(rec)
				return true
			})
		})
		ds.Usage = up.usageRecords()
	}

	return ds
}
