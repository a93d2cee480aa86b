package adapter

import (
	"github.com/tidwall/gjson"

	"github.com/j-veylop/llm-usage-tui/internal/models"
)

// OpenAIPayload holds raw pages from the OpenAI organization API. A nil page
// slice means that dataset was not fetched.
type OpenAIPayload struct {
	// KeyNames maps api_key_id to the key's display name.
	KeyNames map[string]string
	// CostPages are /costs responses grouped by line_item.
	CostPages [][]byte
	// UsagePages are /usage/{completions,embeddings,images} responses
	// grouped by model and api_key_id.
	UsagePages [][]byte
}

// Provider implements Payload.
func (OpenAIPayload) Provider() models.Provider { return models.ProviderOpenAI }

func normalizeOpenAI(p OpenAIPayload) Dataset {
	ds := Dataset{
		Provider: models.ProviderOpenAI,
		KeyNames: copyNames(p.KeyNames),
		HasCost:  p.CostPages != nil,
		HasUsage: p.UsagePages != nil,
	}

	if ds.HasCost {
		cp := newParser(models.ProviderOpenAI, DatasetCost, &ds.Issues)
		cp.buckets(p.CostPages, func(bucket gjson.Result) {
			day, ok := cp.unixDay(bucket, "start_time")
			if !ok {
				return
			}
			bucket.Get("results").ForEach(func(_, res gjson.Result) bool {
				amount := cp.decimal(res, "amount.value")
				if amount.IsZero() {
					return true
				}
				cp.addCost(models.DailyCostRecord{
					Date:   day,
					Model:  res.Get("line_item").String(),
					Amount: amount,
				})
				return true
			})
		})
		ds.Cost = cp.costRecords()
	}

	if ds.HasUsage {
		up := newParser(models.ProviderOpenAI, DatasetUsage, &ds.Issues)
		up.buckets(p.UsagePages, func(bucket gjson.Result) {
			day, ok := up.unixDay(bucket, "start_time")
			if !ok {
				return
			}
			bucket.Get("results").ForEach(func(_, res gjson.Result) bool {
				rec := models.DailyUsageRecord{
					Date:              day,
					Model:             res.Get("model").String(),
					APIKeyID:          res.Get("api_key_id").String(),
					Requests:          up.int(res, "num_model_requests"),
					InputTokens:       up.int(res, "input_tokens"),
					OutputTokens:      up.int(res, "output_tokens"),
					CachedInputTokens: up.int(res, "input_cached_tokens"),
				}
				if rec.Requests == 0 && rec.TotalTokens() == 0 {
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
