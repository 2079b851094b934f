package domain

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

type DealRepository interface {
	// Write paths
	UpsertDeals(ctx context.Context, deals []Deal) (BatchResult, error)
	UpsertWatch(ctx context.Context, w Watch) error

	// Read paths
	ListDeals(ctx context.Context) ([]Deal, error)
	GetDeal(ctx context.Context, uid string) (Deal, error)
	ListWatches(ctx context.Context, status string) ([]Watch, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// ModelClient generates a conversational reply. Callers must degrade to a
// deterministic fallback when it errors.
type ModelClient interface {
	GenerateReply(ctx context.Context, prompt string) (string, error)
}

// SearchClient returns ranked snippets for a query, or "" when nothing found.
type SearchClient interface {
	Search(ctx context.Context, query string) (string, error)
}

type WeatherClient interface {
	CurrentWeather(ctx context.Context, location string) (string, error)
}
