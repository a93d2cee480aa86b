// Package anthropic fetches cost and usage pages from the Anthropic Admin API.
package anthropic

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/j-veylop/llm-usage-tui/internal/adapter"
	"github.com/j-veylop/llm-usage-tui/internal/api"
	"github.com/j-veylop/llm-usage-tui/internal/logger"
	"github.com/j-veylop/llm-usage-tui/internal/models"
)

const (
	// DefaultBaseURL is the Admin API root.
	DefaultBaseURL = "https://api.anthropic.com/v1/organizations"
	// APIVersion is sent as the anthropic-version header.
	APIVersion = "2023-06-01"

	maxConcurrentKeys = 5
)

// Client talks to the Anthropic Admin API with an admin key.
type Client struct {
	api *api.Client
}

// New creates a client. baseURL may be empty for the public API.
func New(adminKey, baseURL string, opts api.Options) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	headers := map[string]string{
		"x-api-key":         adminKey,
		"anthropic-version": APIVersion,
	}
	return &Client{api: api.NewClient(models.ProviderAnthropic, baseURL, headers, opts)}
}

// Costs returns every cost_report page since start, grouped by description.
func (c *Client) Costs(ctx context.Context, start time.Time) ([][]byte, error) {
	q := url.Values{}
	q.Set("starting_at", start.UTC().Format(time.RFC3339))
	q.Set("group_by[]", "description")
	q.Set("limit", "31")
	return c.api.Paginate(ctx, adapter.DatasetCost, "/cost_report", q, api.NextPageCursor)
}

// Usage returns every daily messages usage page since start, grouped by
// model and API key.
func (c *Client) Usage(ctx context.Context, start time.Time) ([][]byte, error) {
	q := url.Values{}
	q.Set("starting_at", start.UTC().Format(time.RFC3339))
	q.Set("bucket_width", "1d")
	q.Set("limit", "31")
	q["group_by[]"] = []string{"model", "api_key_id"}
	return c.api.Paginate(ctx, adapter.DatasetUsage, "/usage_report/messages", q, api.NextPageCursor)
}

// KeyNames looks up the name of every key id. Keys that cannot be fetched are
// left out of the result.
func (c *Client) KeyNames(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentKeys)
	for _, id := range ids {
		g.Go(func() error {
			body, err := c.api.Get(gctx, "keys", "/api_keys/"+url.PathEscape(id), nil)
			if err != nil {
				logger.Warn("failed to fetch api key", "provider", models.ProviderAnthropic, "id", id, "error", err)
				return nil
			}
			if name := gjson.GetBytes(body, "name").String(); name != "" {
				mu.Lock()
				names[id] = name
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return names, nil
}
