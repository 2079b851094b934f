package domain

import "time"

const WatchStatusActive = "active"

// Watch is a standing alert against a target deal. It triggers when the
// deal's price drops to the threshold or its inventory reaches the minimum.
type Watch struct {
	WatchUID       string    `json:"watch_uid"`
	TargetUID      string    `json:"target_uid"`
	ThresholdPrice *float64  `json:"threshold_price,omitempty"`
	MinInventory   *int      `json:"min_inventory,omitempty"`
	UserRef        *string   `json:"user_ref,omitempty"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// Triggered reports whether d satisfies any of the watch's conditions.
func (w Watch) Triggered(d Deal) bool {
	if w.Status != WatchStatusActive || w.TargetUID != d.DealUID {
		return false
	}
	if w.ThresholdPrice != nil && d.Price <= *w.ThresholdPrice {
		return true
	}
	if w.MinInventory != nil && d.Availability != nil && *d.Availability >= *w.MinInventory {
		return true
	}
	return false
}
