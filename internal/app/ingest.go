package app

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"deal_agent/internal/adapters/observability"
	"deal_agent/internal/domain"
)

type IngestionService struct {
	repo     domain.DealRepository
	cache    domain.Cache
	path     string
	interval time.Duration
}

func NewIngestionService(repo domain.DealRepository, cache domain.Cache, path string, interval time.Duration) *IngestionService {
	return &IngestionService{repo: repo, cache: cache, path: path, interval: interval}
}

// loadRows reads the CSV and returns one header-keyed record per row.
// Unknown columns ride along untouched; the normalizer keeps them in metadata.
func loadRows(path string) ([]map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // ragged rows are the normalizer's problem, not a parse failure

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var rows []map[string]any
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rows, fmt.Errorf("read row: %w", err)
		}
		row := make(map[string]any, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// RunOnce executes a single ingestion cycle. A missing or unreadable source
// is a recoverable skip, not an error; row failures are dropped and counted.
func (s *IngestionService) RunOnce(ctx context.Context) (domain.BatchResult, error) {
	rows, err := loadRows(s.path)
	if err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("ingest skipped: source unreadable")
		return domain.BatchResult{}, nil
	}

	deals, rowErrs := NormalizeBatch(rows)
	for _, re := range rowErrs {
		log.Warn().Err(re).Str("path", s.path).Msg("row dropped")
	}
	observability.ObserveIngest("skipped", len(rowErrs))

	if len(deals) == 0 {
		return domain.BatchResult{}, nil
	}

	res, err := s.repo.UpsertDeals(ctx, deals)
	if err != nil {
		return res, fmt.Errorf("upsert batch: %w", err)
	}
	observability.ObserveIngest("ingested", res.Succeeded)
	observability.ObserveIngest("failed", res.Failed)

	s.evaluateWatches(ctx, deals)

	if s.cache != nil {
		_ = s.cache.Del(ctx, dealsListKey)
	}

	log.Info().
		Str("path", s.path).
		Int("ingested", res.Succeeded).
		Int("failed", res.Failed).
		Int("dropped", len(rowErrs)).
		Msg("ingest cycle done")
	return res, nil
}

// evaluateWatches checks active watches against the freshly ingested batch.
// Best-effort: a store failure here never fails the cycle.
func (s *IngestionService) evaluateWatches(ctx context.Context, deals []domain.Deal) {
	watches, err := s.repo.ListWatches(ctx, domain.WatchStatusActive)
	if err != nil {
		log.Warn().Err(err).Msg("watch evaluation skipped")
		return
	}
	if len(watches) == 0 {
		return
	}
	byUID := make(map[string]domain.Deal, len(deals))
	for _, d := range deals {
		byUID[d.DealUID] = d
	}
	for _, w := range watches {
		d, ok := byUID[w.TargetUID]
		if !ok {
			continue
		}
		if w.Triggered(d) {
			observability.ObserveWatchTrigger()
			log.Info().
				Str("watch_uid", w.WatchUID).
				Str("deal_uid", d.DealUID).
				Float64("price", d.Price).
				Msg("watch triggered")
		}
	}
}

// Run drives the periodic ingestion loop until ctx is canceled. The wait is
// interruptible: shutdown never sits out the remainder of an interval.
func (s *IngestionService) Run(ctx context.Context) {
	if s.path == "" {
		return
	}
	log.Info().Str("path", s.path).Dur("interval", s.interval).Msg("ingestion loop starting")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			log.Info().Msg("ingestion loop stopped")
			return
		}
		if _, err := s.RunOnce(ctx); err != nil {
			log.Error().Err(err).Msg("ingest cycle failed")
		}
		select {
		case <-ctx.Done():
			log.Info().Msg("ingestion loop stopped")
			return
		case <-ticker.C:
		}
	}
}
