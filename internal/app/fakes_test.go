package app_test

import (
	"context"
	"sync"

	"deal_agent/internal/domain"
)

// ---- fakes ----

type fakeRepo struct {
	mu        sync.Mutex
	deals     map[string]domain.Deal
	order     []string
	watches   []domain.Watch
	listErr   error
	upsertErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{deals: map[string]domain.Deal{}}
}

func (f *fakeRepo) UpsertDeals(ctx context.Context, deals []domain.Deal) (domain.BatchResult, error) {
	if f.upsertErr != nil {
		return domain.BatchResult{Failed: len(deals)}, f.upsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range deals {
		if _, ok := f.deals[d.DealUID]; !ok {
			f.order = append(f.order, d.DealUID)
		}
		f.deals[d.DealUID] = d
	}
	return domain.BatchResult{Succeeded: len(deals)}, nil
}

func (f *fakeRepo) ListDeals(ctx context.Context) ([]domain.Deal, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Deal, 0, len(f.order))
	for _, uid := range f.order {
		out = append(out, f.deals[uid])
	}
	return out, nil
}

func (f *fakeRepo) GetDeal(ctx context.Context, uid string) (domain.Deal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.deals[uid]
	if !ok {
		return domain.Deal{}, domain.ErrNotFound
	}
	return d, nil
}

func (f *fakeRepo) UpsertWatch(ctx context.Context, w domain.Watch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, cur := range f.watches {
		if cur.WatchUID == w.WatchUID {
			f.watches[i] = w
			return nil
		}
	}
	f.watches = append(f.watches, w)
	return nil
}

func (f *fakeRepo) ListWatches(ctx context.Context, status string) ([]domain.Watch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Watch
	for _, w := range f.watches {
		if status == "" || w.Status == status {
			out = append(out, w)
		}
	}
	return out, nil
}

type fakeCache struct {
	mu    sync.Mutex
	store map[string]any
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		return false, nil
	}
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	switch d := dst.(type) {
	case *[]domain.Deal:
		*d = v.([]domain.Deal)
	case *domain.Deal:
		*d = v.(domain.Deal)
	}
	return true, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	return nil
}

// ---- small helpers ----

func ptr[T any](v T) *T { return &v }

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func flight(uid, origin, dest string, price float64) domain.Deal {
	return domain.Deal{
		DealUID:     uid,
		Kind:        domain.KindFlight,
		Source:      "csv",
		Origin:      ptr(origin),
		Destination: ptr(dest),
		Price:       price,
		Currency:    "USD",
	}
}

func hotel(uid, location string, price float64) domain.Deal {
	return domain.Deal{
		DealUID:       uid,
		Kind:          domain.KindHotel,
		Source:        "csv",
		HotelLocation: ptr(location),
		Price:         price,
		Currency:      "USD",
	}
}
