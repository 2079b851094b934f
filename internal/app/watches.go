package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"deal_agent/internal/domain"
)

type WatchService struct {
	repo domain.DealRepository
}

func NewWatchService(repo domain.DealRepository) *WatchService {
	return &WatchService{repo: repo}
}

// CreateWatch persists a standing alert. Missing uid and status get defaults;
// the target deal must name a uid but is not required to exist yet.
func (s *WatchService) CreateWatch(ctx context.Context, w domain.Watch) (domain.Watch, error) {
	if w.TargetUID == "" {
		return domain.Watch{}, fmt.Errorf("target_uid is required")
	}
	if w.WatchUID == "" {
		w.WatchUID = uuid.NewString()
	}
	if w.Status == "" {
		w.Status = domain.WatchStatusActive
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now().UTC()
	}
	if err := s.repo.UpsertWatch(ctx, w); err != nil {
		return domain.Watch{}, fmt.Errorf("upsert watch: %w", err)
	}
	return w, nil
}

func (s *WatchService) ListWatches(ctx context.Context, status string) ([]domain.Watch, error) {
	return s.repo.ListWatches(ctx, status)
}
