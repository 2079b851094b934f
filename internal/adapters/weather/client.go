package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"deal_agent/internal/adapters/observability"
)

const defaultBase = "https://api.openweathermap.org/data/2.5"

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

type weatherResponse struct {
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

// CurrentWeather returns a one-line description for the location.
func (c *Client) CurrentWeather(ctx context.Context, location string) (string, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("q", location)
	q.Set("appid", c.key)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/weather?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("openweather", "weather", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("openweather bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out weatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	desc := ""
	if len(out.Weather) > 0 {
		desc = out.Weather[0].Description
	}
	return fmt.Sprintf("Weather in %s: %s, temp %.1f°C, feels %.1f°C",
		location, desc, out.Main.Temp, out.Main.FeelsLike), nil
}
