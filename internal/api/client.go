// Package api provides the HTTP plumbing shared by the provider billing
// clients: authenticated GETs, retries and cursor pagination.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/tidwall/gjson"

	"github.com/j-veylop/llm-usage-tui/internal/logger"
	"github.com/j-veylop/llm-usage-tui/internal/models"
)

// MaxPages bounds every paginated listing.
const MaxPages = 30

// maxErrorBody is how much of a failed response body is kept in errors.
const maxErrorBody = 200

// FetchError is a failed request to a provider API.
type FetchError struct {
	Err        error
	Dataset    string
	Endpoint   string
	StatusCode int
	Provider   models.Provider
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: %s returned %d: %v", e.Provider, e.Dataset, e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Provider, e.Dataset, e.Endpoint, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Retryable reports whether repeating the request may succeed: network
// failures, rate limiting and server errors.
func (e *FetchError) Retryable() bool {
	if errors.Is(e.Err, context.Canceled) || errors.Is(e.Err, context.DeadlineExceeded) {
		return false
	}
	return e.StatusCode == 0 || e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Unauthorized reports whether the provider rejected the credential.
func (e *FetchError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// RetryConfig controls request retries.
type RetryConfig struct {
	MaxRetries  int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	JitterDelay time.Duration
}

// DefaultRetryConfig is used when Options leave Retry unset.
var DefaultRetryConfig = RetryConfig{
	MaxRetries:  3,
	BaseDelay:   500 * time.Millisecond,
	MaxDelay:    10 * time.Second,
	JitterDelay: 250 * time.Millisecond,
}

// Options configure a Client.
type Options struct {
	HTTPClient *http.Client
	Retry      RetryConfig
	Timeout    time.Duration
}

// Client performs authenticated GET requests against one provider API.
type Client struct {
	httpClient *http.Client
	executor   failsafe.Executor[[]byte]
	headers    map[string]string
	baseURL    string
	provider   models.Provider
}

// NewClient creates a client for baseURL that sends headers on every request.
func NewClient(p models.Provider, baseURL string, headers map[string]string, opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	retry := opts.Retry
	if retry == (RetryConfig{}) {
		retry = DefaultRetryConfig
	}

	return &Client{
		httpClient: httpClient,
		executor:   failsafe.With[[]byte](newRetryPolicy(retry)),
		headers:    headers,
		baseURL:    strings.TrimRight(baseURL, "/"),
		provider:   p,
	}
}

func newRetryPolicy(cfg RetryConfig) retrypolicy.RetryPolicy[[]byte] {
	builder := retrypolicy.NewBuilder[[]byte]().
		HandleIf(func(_ []byte, err error) bool {
			var fe *FetchError
			return errors.As(err, &fe) && fe.Retryable()
		}).
		WithMaxRetries(cfg.MaxRetries).
		ReturnLastFailure()
	if cfg.BaseDelay > 0 {
		builder = builder.WithBackoff(cfg.BaseDelay, max(cfg.MaxDelay, cfg.BaseDelay))
	}
	if cfg.JitterDelay > 0 {
		builder = builder.WithJitter(cfg.JitterDelay)
	}
	return builder.Build()
}

// Provider returns the provider the client talks to.
func (c *Client) Provider() models.Provider { return c.provider }

// Get fetches path with query and returns the body of a 200 response.
// dataset only labels errors.
func (c *Client) Get(ctx context.Context, dataset, path string, query url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	return c.executor.WithContext(ctx).Get(func() ([]byte, error) {
		return c.do(ctx, dataset, path, endpoint)
	})
}

func (c *Client) do(ctx context.Context, dataset, path, endpoint string) ([]byte, error) {
	fail := func(status int, err error) error {
		return &FetchError{Provider: c.provider, Dataset: dataset, Endpoint: path, StatusCode: status, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fail(0, fmt.Errorf("failed to create request: %w", err))
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fail(0, fmt.Errorf("request failed: %w", err))
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fail(0, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		logger.Warn("provider request failed",
			"provider", c.provider, "endpoint", path, "status", resp.StatusCode)
		return nil, fail(resp.StatusCode, errors.New(truncate(string(body), maxErrorBody)))
	}
	return body, nil
}

// Cursor extracts the query parameter for the next page from a response.
// It returns ok=false on the last page.
type Cursor func(page []byte) (param, value string, ok bool)

// NextPageCursor follows has_more/next_page pagination.
func NextPageCursor(page []byte) (string, string, bool) {
	res := gjson.GetManyBytes(page, "has_more", "next_page")
	if !res[0].Bool() || res[1].String() == "" {
		return "", "", false
	}
	return "page", res[1].String(), true
}

// LastIDCursor follows has_more/last_id pagination.
func LastIDCursor(page []byte) (string, string, bool) {
	res := gjson.GetManyBytes(page, "has_more", "last_id")
	if !res[0].Bool() || res[1].String() == "" {
		return "", "", false
	}
	return "after", res[1].String(), true
}

// Paginate fetches up to MaxPages pages, following cursor.
func (c *Client) Paginate(ctx context.Context, dataset, path string, query url.Values, cursor Cursor) ([][]byte, error) {
	var pages [][]byte
	q := cloneValues(query)

	for range MaxPages {
		page, err := c.Get(ctx, dataset, path, q)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)

		param, value, ok := cursor(page)
		if !ok {
			return pages, nil
		}
		q.Set(param, value)
	}

	logger.Warn("pagination limit reached", "provider", c.provider, "endpoint", path, "pages", MaxPages)
	return pages, nil
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
