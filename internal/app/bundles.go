package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"deal_agent/internal/domain"
)

// StoreUnavailableNote is the advisory text returned when bundle selection
// cannot reach the deal store. Advisory only, not a machine-readable code.
const StoreUnavailableNote = "deal store is temporarily unavailable; no bundles could be computed"

type BundleService struct {
	repo domain.DealRepository
}

func NewBundleService(repo domain.DealRepository) *BundleService {
	return &BundleService{repo: repo}
}

// SelectBundle pairs the cheapest matching flight with the cheapest matching
// hotel. Store failures degrade to an empty result with a note; the endpoint
// stays available even when the backing store is unreachable.
func (s *BundleService) SelectBundle(ctx context.Context, req domain.BundleRequest) ([]domain.Bundle, string) {
	deals, err := s.repo.ListDeals(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("bundle selection degraded: list deals failed")
		return []domain.Bundle{}, StoreUnavailableNote
	}

	var flights, hotels []domain.Deal
	for _, d := range deals {
		switch d.Kind {
		case domain.KindFlight:
			if flightMatches(req, d) {
				flights = append(flights, d)
			}
		case domain.KindHotel:
			if hotelMatches(req, d) {
				hotels = append(hotels, d)
			}
		}
	}
	if len(flights) == 0 || len(hotels) == 0 {
		return []domain.Bundle{}, ""
	}

	// cheapest first; ties keep store iteration order
	sort.SliceStable(flights, func(i, j int) bool { return flights[i].Price < flights[j].Price })
	sort.SliceStable(hotels, func(i, j int) bool { return hotels[i].Price < hotels[j].Price })
	f, h := flights[0], hotels[0]

	total := f.Price + h.Price
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	flags := []string{}
	if req.Budget != nil && *req.Budget > 0 && total > *req.Budget {
		flags = append(flags, "over_budget")
	}

	b := domain.Bundle{
		BundleUID:     uuid.NewString(),
		FlightDealUID: f.DealUID,
		HotelDealUID:  h.DealUID,
		TotalPrice:    total,
		Currency:      currency,
		FitScore:      fitScore(req, f, h, total),
		Rationale:     rationale(f, h, total, currency),
		WatchFlags:    flags,
		CreatedAt:     time.Now().UTC(),
	}
	return []domain.Bundle{b}, ""
}

func flightMatches(req domain.BundleRequest, d domain.Deal) bool {
	if req.Origin != nil && !strings.EqualFold(*req.Origin, deref(d.Origin)) {
		return false
	}
	if req.Destination != nil && !strings.EqualFold(*req.Destination, deref(d.Destination)) {
		return false
	}
	return true
}

func hotelMatches(req domain.BundleRequest, d domain.Deal) bool {
	if req.Destination == nil {
		return true
	}
	want := *req.Destination
	return strings.EqualFold(want, deref(d.Destination)) ||
		strings.EqualFold(want, deref(d.HotelLocation))
}

// fitScore is the satisfied fraction of the request's criteria; 1.0 when the
// request constrains nothing.
func fitScore(req domain.BundleRequest, f, h domain.Deal, total float64) float64 {
	criteria, satisfied := 0, 0

	// origin/destination are hard filters, so a produced bundle satisfies them
	if req.Origin != nil {
		criteria++
		satisfied++
	}
	if req.Destination != nil {
		criteria++
		satisfied++
	}
	if req.Budget != nil && *req.Budget > 0 {
		criteria++
		if total <= *req.Budget {
			satisfied++
		}
	}
	if len(req.Preferences) > 0 {
		criteria++
		if hasAnyTag(f, req.Preferences) || hasAnyTag(h, req.Preferences) {
			satisfied++
		}
	}
	if criteria == 0 {
		return 1.0
	}
	return float64(satisfied) / float64(criteria)
}

func hasAnyTag(d domain.Deal, wanted []string) bool {
	for _, t := range d.Tags {
		for _, w := range wanted {
			if strings.EqualFold(t, w) {
				return true
			}
		}
	}
	return false
}

func rationale(f, h domain.Deal, total float64, currency string) string {
	return fmt.Sprintf("Cheapest matching pairing: flight %s plus hotel %s for %.2f %s.",
		labelFor(f), labelFor(h), total, currency)
}

func labelFor(d domain.Deal) string {
	if d.Title != nil && *d.Title != "" {
		return *d.Title
	}
	return d.DealUID
}
