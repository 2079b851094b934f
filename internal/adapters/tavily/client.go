package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"deal_agent/internal/adapters/observability"
)

const (
	defaultBase = "https://api.tavily.com"
	maxResults  = 3
	maxSnippets = 1000 // characters, keeps prompts bounded
)

type Client struct {
	base string
	key  string
	hc   *http.Client
	rl   *rate.Limiter
}

func New(base, key string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if base == "" {
		base = defaultBase
	}
	if rps <= 0 {
		rps = 2
	}
	return &Client{
		base: base,
		key:  key,
		hc:   &http.Client{Timeout: 10 * time.Second},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

type searchRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type searchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search returns ranked snippets joined into one block, or "" when the query
// produced nothing usable.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return "", err
	}

	body, err := json.Marshal(searchRequest{APIKey: c.key, Query: query, MaxResults: maxResults})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/search", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("tavily", "search", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("tavily bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}

	var snippets []string
	for _, r := range out.Results {
		if r.Content == "" {
			continue
		}
		snippets = append(snippets, fmt.Sprintf("- %s: %s", r.Title, r.Content))
	}
	if len(snippets) == 0 {
		return "", nil
	}
	joined := strings.Join(snippets, "\n")
	if len(joined) > maxSnippets {
		joined = joined[:maxSnippets]
	}
	return joined, nil
}
