package app

import (
	"context"
	"encoding/json"
	"time"

	"deal_agent/internal/domain"
)

const dealsListKey = "deals:all"

type QueryService struct {
	repo     domain.DealRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.DealRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

func (s *QueryService) ListDeals(ctx context.Context) ([]domain.Deal, error) {
	var out []domain.Deal
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, dealsListKey, &out); ok {
			return out, nil
		}
	}
	deals, err := s.repo.ListDeals(ctx)
	if err != nil {
		return nil, err
	}

	// copy before caching to avoid aliasing the repo's backing array
	cp := make([]domain.Deal, len(deals))
	copy(cp, deals)

	if s.cache != nil {
		// size guard: skip caching oversized payloads
		if b, _ := json.Marshal(cp); len(b) < 1_000_000 {
			_ = s.cache.Set(ctx, dealsListKey, cp, int(s.cacheTTL.Seconds()))
		}
	}
	return cp, nil
}

func (s *QueryService) GetDeal(ctx context.Context, uid string) (domain.Deal, error) {
	key := "deal:" + uid
	var d domain.Deal
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &d); ok {
			return d, nil
		}
	}
	d, err := s.repo.GetDeal(ctx, uid)
	if err != nil {
		return domain.Deal{}, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, d, int(s.cacheTTL.Seconds()))
	}
	return d, nil
}
