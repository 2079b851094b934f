package domain

import "time"

// Deal is a normalized travel offering (flight or hotel). DealUID is the
// natural key: re-ingesting the same logical row overwrites, never duplicates.
type Deal struct {
	DealUID       string         `json:"deal_uid"`
	Kind          string         `json:"kind"`
	Source        string         `json:"source"`
	Title         *string        `json:"title,omitempty"`
	Origin        *string        `json:"origin,omitempty"`
	Destination   *string        `json:"destination,omitempty"`
	HotelLocation *string        `json:"hotel_location,omitempty"`
	Price         float64        `json:"price"`
	Currency      string         `json:"currency"`
	Availability  *int           `json:"availability,omitempty"`
	Score         *int           `json:"score,omitempty"`
	Tags          []string       `json:"tags,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"` // full raw source row, kept verbatim
	CreatedAt     time.Time      `json:"created_at"`
}

const (
	KindFlight = "flight"
	KindHotel  = "hotel"
)

// Bundle pairs one flight deal and one hotel deal. Bundles are ephemeral:
// computed per request, never persisted. The deal references are weak.
type Bundle struct {
	BundleUID     string    `json:"bundle_uid"`
	FlightDealUID string    `json:"flight_deal_uid"`
	HotelDealUID  string    `json:"hotel_deal_uid"`
	TotalPrice    float64   `json:"total_price"`
	Currency      string    `json:"currency"`
	FitScore      float64   `json:"fit_score"`
	Rationale     string    `json:"rationale"`
	WatchFlags    []string  `json:"watch_flags"`
	CreatedAt     time.Time `json:"created_at"`
}

type BundleRequest struct {
	Origin      *string  `json:"origin,omitempty"`
	Destination *string  `json:"destination,omitempty"`
	Budget      *float64 `json:"budget,omitempty"`
	Currency    string   `json:"currency"`
	Dates       *string  `json:"dates,omitempty"`
	Preferences []string `json:"preferences,omitempty"`
}

// BatchResult reports an unordered batch upsert. Failed rows never abort
// the rest of the batch.
type BatchResult struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}
