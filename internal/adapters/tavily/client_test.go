package tavily_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"deal_agent/internal/adapters/tavily"
)

func TestSearch_JoinsSnippets(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["api_key"] != "test-key" {
			t.Errorf("api_key missing from body: %v", req)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"title": "Lisbon guide", "content": "top sights"},
				{"title": "no content"},
			},
		})
	}))
	defer ts.Close()

	cl, err := tavily.New(ts.URL, "test-key", 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	got, err := cl.Search(context.Background(), "things to do in Lisbon")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !strings.Contains(got, "Lisbon guide: top sights") {
		t.Fatalf("snippets: %q", got)
	}
	if strings.Contains(got, "no content") {
		t.Fatalf("empty results must be dropped: %q", got)
	}
}

func TestSearch_EmptyResults(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"results": []any{}})
	}))
	defer ts.Close()

	cl, err := tavily.New(ts.URL, "test-key", 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	got, err := cl.Search(context.Background(), "nothing")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty snippets, got %q", got)
	}
}
