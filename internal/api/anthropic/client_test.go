package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/j-veylop/llm-usage-tui/internal/api"
)

var testOpts = api.Options{Retry: api.RetryConfig{MaxRetries: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}}

func TestCostsAndUsage(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "sk-ant-admin" || r.Header.Get("anthropic-version") != APIVersion {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if got := r.URL.Query().Get("starting_at"); got != "2025-01-01T00:00:00Z" {
			t.Errorf("starting_at = %q", got)
		}
		switch r.URL.Path {
		case "/cost_report", "/usage_report/messages":
			fmt.Fprint(w, `{"data": [], "has_more": false, "next_page": null}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New("sk-ant-admin", srv.URL, testOpts)
	if pages, err := c.Costs(context.Background(), start); err != nil || len(pages) != 1 {
		t.Errorf("Costs() = %d pages, %v", len(pages), err)
	}
	if pages, err := c.Usage(context.Background(), start); err != nil || len(pages) != 1 {
		t.Errorf("Usage() = %d pages, %v", len(pages), err)
	}
}

func TestCosts_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := New("bad", srv.URL, testOpts).Costs(context.Background(), time.Now())
	var fe *api.FetchError
	if !errors.As(err, &fe) || !fe.Unauthorized() {
		t.Fatalf("expected unauthorized FetchError, got %v", err)
	}
}

func TestKeyNames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api_keys/apikey_1":
			fmt.Fprint(w, `{"id": "apikey_1", "name": "ci"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	names, err := New("k", srv.URL, testOpts).KeyNames(context.Background(), []string{"apikey_1", "apikey_2"})
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names["apikey_1"] != "ci" {
		t.Errorf("KeyNames() = %v", names)
	}
}
