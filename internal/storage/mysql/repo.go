package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"deal_agent/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

type Repo struct {
	db      *sql.DB
	workers int
}

func New(db *sql.DB, workers int) *Repo {
	if workers <= 0 {
		workers = 8
	}
	return &Repo{db: db, workers: workers}
}

// UpsertDeals applies the batch unordered with bounded concurrency. Each row
// is replace-or-insert on deal_uid; a failed row is counted, never fatal to
// the rest of the batch.
func (r *Repo) UpsertDeals(ctx context.Context, deals []domain.Deal) (domain.BatchResult, error) {
	if len(deals) == 0 {
		return domain.BatchResult{}, nil
	}

	sem := semaphore.NewWeighted(int64(r.workers))
	var wg sync.WaitGroup
	var failed int64

	launched := 0
	for _, d := range deals {
		d := d
		if err := sem.Acquire(ctx, 1); err != nil {
			// context canceled: rows never attempted count as failed
			wg.Wait()
			f := int(atomic.LoadInt64(&failed)) + len(deals) - launched
			return domain.BatchResult{Succeeded: len(deals) - f, Failed: f}, err
		}
		launched++
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			if err := r.upsertDeal(ctx, d); err != nil {
				atomic.AddInt64(&failed, 1)
				log.Warn().Err(err).Str("deal_uid", d.DealUID).Msg("deal upsert failed")
			}
		}()
	}
	wg.Wait()

	f := int(atomic.LoadInt64(&failed))
	return domain.BatchResult{Succeeded: len(deals) - f, Failed: f}, nil
}

func (r *Repo) upsertDeal(ctx context.Context, d domain.Deal) error {
	tags, _ := json.Marshal(d.Tags)
	meta, _ := json.Marshal(d.Metadata)
	_, err := r.db.ExecContext(ctx, upsertDealSQL,
		d.DealUID,
		d.Kind,
		d.Source,
		valStr(d.Title),
		valStr(d.Origin),
		valStr(d.Destination),
		valStr(d.HotelLocation),
		d.Price,
		d.Currency,
		valInt(d.Availability),
		valInt(d.Score),
		string(tags),
		string(meta),
		d.CreatedAt,
	)
	return err
}

func (r *Repo) ListDeals(ctx context.Context) ([]domain.Deal, error) {
	rows, err := r.db.QueryContext(ctx, listDealsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Deal
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) GetDeal(ctx context.Context, uid string) (domain.Deal, error) {
	row := r.db.QueryRowContext(ctx, getDealSQL, uid)
	d, err := scanDeal(row)
	if err == sql.ErrNoRows {
		return domain.Deal{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Deal{}, err
	}
	return d, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDeal(row rowScanner) (domain.Deal, error) {
	var d domain.Deal
	var (
		title, origin, dest, loc sql.NullString
		availability, score      sql.NullInt64
		tagsJSON, metaJSON       []byte
	)
	if err := row.Scan(
		&d.DealUID,
		&d.Kind,
		&d.Source,
		&title,
		&origin,
		&dest,
		&loc,
		&d.Price,
		&d.Currency,
		&availability,
		&score,
		&tagsJSON,
		&metaJSON,
		&d.CreatedAt,
	); err != nil {
		return domain.Deal{}, err
	}

	if title.Valid {
		s := title.String
		d.Title = &s
	}
	if origin.Valid {
		s := origin.String
		d.Origin = &s
	}
	if dest.Valid {
		s := dest.String
		d.Destination = &s
	}
	if loc.Valid {
		s := loc.String
		d.HotelLocation = &s
	}
	if availability.Valid {
		n := int(availability.Int64)
		d.Availability = &n
	}
	if score.Valid {
		n := int(score.Int64)
		d.Score = &n
	}
	_ = json.Unmarshal(tagsJSON, &d.Tags)
	_ = json.Unmarshal(metaJSON, &d.Metadata)
	return d, nil
}

func (r *Repo) UpsertWatch(ctx context.Context, w domain.Watch) error {
	_, err := r.db.ExecContext(ctx, upsertWatchSQL,
		w.WatchUID,
		w.TargetUID,
		valF64(w.ThresholdPrice),
		valInt(w.MinInventory),
		valStr(w.UserRef),
		w.Status,
		w.CreatedAt,
	)
	return err
}

func (r *Repo) ListWatches(ctx context.Context, status string) ([]domain.Watch, error) {
	rows, err := r.db.QueryContext(ctx, listWatchesSQL, status, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Watch
	for rows.Next() {
		var w domain.Watch
		var (
			threshold sql.NullFloat64
			minInv    sql.NullInt64
			userRef   sql.NullString
		)
		if err := rows.Scan(
			&w.WatchUID,
			&w.TargetUID,
			&threshold,
			&minInv,
			&userRef,
			&w.Status,
			&w.CreatedAt,
		); err != nil {
			return nil, err
		}
		if threshold.Valid {
			f := threshold.Float64
			w.ThresholdPrice = &f
		}
		if minInv.Valid {
			n := int(minInv.Int64)
			w.MinInventory = &n
		}
		if userRef.Valid {
			s := userRef.String
			w.UserRef = &s
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
