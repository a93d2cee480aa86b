// Package openai fetches cost and usage pages from the OpenAI organization API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/j-veylop/llm-usage-tui/internal/adapter"
	"github.com/j-veylop/llm-usage-tui/internal/api"
	"github.com/j-veylop/llm-usage-tui/internal/logger"
	"github.com/j-veylop/llm-usage-tui/internal/models"
)

// DefaultBaseURL is the organization API root.
const DefaultBaseURL = "https://api.openai.com/v1/organization"

// UsageEndpoints are the usage report families merged into one dataset.
var UsageEndpoints = []string{"completions", "embeddings", "images"}

// maxConcurrentProjects bounds parallel api_keys listings.
const maxConcurrentProjects = 5

// Client talks to the OpenAI organization API with an admin key.
type Client struct {
	api *api.Client
}

// New creates a client. baseURL may be empty for the public API.
func New(adminKey, baseURL string, opts api.Options) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	headers := map[string]string{
		"Authorization": "Bearer " + adminKey,
		"Content-Type":  "application/json",
	}
	return &Client{api: api.NewClient(models.ProviderOpenAI, baseURL, headers, opts)}
}

// Costs returns every /costs page since start, grouped by line item.
func (c *Client) Costs(ctx context.Context, start time.Time) ([][]byte, error) {
	q := url.Values{}
	q.Set("start_time", strconv.FormatInt(start.Unix(), 10))
	q.Set("group_by", "line_item")
	q.Set("limit", "180")
	return c.api.Paginate(ctx, adapter.DatasetCost, "/costs", q, api.NextPageCursor)
}

// Usage returns the daily usage pages of every usage endpoint since start.
// Endpoints are fetched concurrently; the call fails only when all of them do.
func (c *Client) Usage(ctx context.Context, start time.Time) ([][]byte, error) {
	q := url.Values{}
	q.Set("start_time", strconv.FormatInt(start.Unix(), 10))
	q.Set("bucket_width", "1d")
	q.Set("limit", "31")
	q["group_by"] = []string{"model", "api_key_id"}

	results := make([][][]byte, len(UsageEndpoints))
	errs := make([]error, len(UsageEndpoints))

	var g errgroup.Group
	for i, endpoint := range UsageEndpoints {
		g.Go(func() error {
			results[i], errs[i] = c.api.Paginate(ctx, adapter.DatasetUsage, "/usage/"+endpoint, q, api.NextPageCursor)
			return nil
		})
	}
	_ = g.Wait()

	var pages [][]byte
	var failed []error
	for i, endpoint := range UsageEndpoints {
		if errs[i] != nil {
			logger.Warn("usage endpoint failed", "provider", models.ProviderOpenAI, "endpoint", endpoint, "error", errs[i])
			failed = append(failed, errs[i])
			continue
		}
		pages = append(pages, results[i]...)
	}
	if len(failed) == len(UsageEndpoints) {
		return nil, fmt.Errorf("all usage endpoints failed: %w", errors.Join(failed...))
	}
	if pages == nil {
		pages = [][]byte{}
	}
	return pages, nil
}

// KeyNames resolves API key ids to names by walking projects and their keys.
// Only ids in want are returned. Projects whose keys cannot be listed are
// skipped.
func (c *Client) KeyNames(ctx context.Context, want []string) (map[string]string, error) {
	names := make(map[string]string)
	if len(want) == 0 {
		return names, nil
	}
	wanted := make(map[string]bool, len(want))
	for _, id := range want {
		wanted[id] = true
	}

	projectPages, err := c.api.Paginate(ctx, "keys", "/projects", url.Values{"limit": {"100"}}, api.LastIDCursor)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	var projects []string
	for _, page := range projectPages {
		for _, id := range gjson.GetBytes(page, "data.#.id").Array() {
			projects = append(projects, id.String())
		}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentProjects)
	for _, project := range projects {
		g.Go(func() error {
			pages, err := c.api.Paginate(gctx, "keys", "/projects/"+url.PathEscape(project)+"/api_keys",
				url.Values{"limit": {"100"}}, api.LastIDCursor)
			if err != nil {
				logger.Warn("failed to list project api keys", "project", project, "error", err)
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			for _, page := range pages {
				gjson.GetBytes(page, "data").ForEach(func(_, key gjson.Result) bool {
					if id := key.Get("id").String(); wanted[id] {
						names[id] = key.Get("name").String()
					}
					return true
				})
			}
			return nil
		})
	}
	_ = g.Wait()

	return names, nil
}
