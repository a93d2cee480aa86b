package openai

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/j-veylop/llm-usage-tui/internal/api"
)

var testOpts = api.Options{Retry: api.RetryConfig{MaxRetries: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}}

func TestCosts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-admin" {
			t.Errorf("missing bearer token")
		}
		if r.URL.Path != "/costs" || r.URL.Query().Get("group_by") != "line_item" {
			t.Errorf("unexpected request %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		if r.URL.Query().Get("page") == "" {
			fmt.Fprint(w, `{"data": [{"start_time": 1}], "has_more": true, "next_page": "n"}`)
			return
		}
		fmt.Fprint(w, `{"data": [{"start_time": 2}], "has_more": false}`)
	}))
	defer srv.Close()

	c := New("sk-admin", srv.URL, testOpts)
	pages, err := c.Costs(context.Background(), time.Unix(0, 0))
	if err != nil {
		t.Fatalf("Costs() error = %v", err)
	}
	if len(pages) != 2 {
		t.Errorf("expected 2 pages, got %d", len(pages))
	}
}

func TestUsage_PartialEndpointFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query()["group_by"]; len(got) != 2 {
			t.Errorf("group_by = %v, want model and api_key_id", got)
		}
		if strings.HasSuffix(r.URL.Path, "/images") {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		fmt.Fprint(w, `{"data": [], "has_more": false}`)
	}))
	defer srv.Close()

	pages, err := New("k", srv.URL, testOpts).Usage(context.Background(), time.Unix(0, 0))
	if err != nil {
		t.Fatalf("one failing endpoint should not fail usage: %v", err)
	}
	if len(pages) != 2 {
		t.Errorf("expected pages from 2 endpoints, got %d", len(pages))
	}
}

func TestUsage_AllEndpointsFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	if _, err := New("k", srv.URL, testOpts).Usage(context.Background(), time.Unix(0, 0)); err == nil {
		t.Fatal("expected an error when every endpoint fails")
	}
}

func TestKeyNames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/projects":
			fmt.Fprint(w, `{"data": [{"id": "proj_1"}, {"id": "proj_2"}], "has_more": false}`)
		case "/projects/proj_1/api_keys":
			fmt.Fprint(w, `{"data": [{"id": "key_a", "name": "prod"}, {"id": "key_z", "name": "unused"}], "has_more": false}`)
		case "/projects/proj_2/api_keys":
			w.WriteHeader(http.StatusNotFound)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	names, err := New("k", srv.URL, testOpts).KeyNames(context.Background(), []string{"key_a", "key_b"})
	if err != nil {
		t.Fatalf("KeyNames() error = %v", err)
	}
	if len(names) != 1 || names["key_a"] != "prod" {
		t.Errorf("KeyNames() = %v, want only key_a", names)
	}
}
