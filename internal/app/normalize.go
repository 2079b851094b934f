package app

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"deal_agent/internal/domain"
)

/********** alias registry (single source of truth) **********/

var dealAliases = map[string][]string{
	"id":             {"deal_uid", "id"},
	"kind":           {"kind", "type"},
	"title":          {"title", "name"},
	"origin":         {"origin", "from"},
	"destination":    {"destination", "to"},
	"hotel_location": {"hotel_location", "neighbourhood", "city"},
	"availability":   {"availability", "inventory"},
	"score":          {"score"},
	"source":         {"source"},
	"currency":       {"currency"},
}

/********** tiny helpers **********/

func lookupStr(m map[string]any, key string) string {
	if v, ok := m[key]; ok && v != nil {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// firstNonEmptyAlias: first non-empty string for a named alias set.
func firstNonEmptyAlias(m map[string]any, key string) *string {
	for _, k := range dealAliases[key] {
		if s := lookupStr(m, k); s != "" {
			return &s
		}
	}
	return nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// floatField: number under the first matching key (float64/int/string like "8,0").
// Absent or empty values yield (nil, nil); a present but unparseable value is an error.
func floatField(m map[string]any, keys ...string) (*float64, error) {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case float64:
			f := t
			return &f, nil
		case int:
			f := float64(t)
			return &f, nil
		case int64:
			f := float64(t)
			return &f, nil
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(t, ",", "."))
			if s == "" {
				continue
			}
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", k, err)
			}
			return &f, nil
		default:
			return nil, fmt.Errorf("field %q: unsupported type %T", k, v)
		}
	}
	return nil, nil
}

// intField: same contract as floatField for integer targets.
func intField(m map[string]any, keys ...string) (*int, error) {
	f, err := floatField(m, keys...)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, nil
	}
	n := int(*f)
	return &n, nil
}

// tagList accepts a pre-built sequence or a comma-separated string.
// Pieces are trimmed and empty pieces dropped; order is preserved.
func tagList(v any) []string {
	switch t := v.(type) {
	case []string:
		out := make([]string, 0, len(t))
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(t))
		for _, it := range t {
			if s, ok := it.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
		return out
	case string:
		parts := strings.Split(t, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return nil
}

// fallbackUID synthesizes a stable id for rows without a natural one, so
// re-ingesting an unchanged file updates instead of duplicating.
func fallbackUID(d domain.Deal) string {
	sig := strings.Join([]string{
		deref(d.Title), d.Kind, d.Source, deref(d.Origin), deref(d.Destination),
	}, "|")
	sum := sha1.Sum([]byte(sig))
	return hex.EncodeToString(sum[:])
}

/********** normalizer **********/

// Normalize converts one raw tabular record into a canonical Deal. It is a
// pure transformation; malformed numeric fields fail the row, nothing else.
func Normalize(raw map[string]any) (domain.Deal, error) {
	d := domain.Deal{
		Source:    "csv",
		Currency:  "USD",
		CreatedAt: time.Now().UTC(),
	}

	kind := strings.ToLower(deref(firstNonEmptyAlias(raw, "kind")))
	if kind == "" {
		kind = domain.KindHotel
	}
	d.Kind = kind

	d.Title = firstNonEmptyAlias(raw, "title")
	d.Origin = firstNonEmptyAlias(raw, "origin")
	d.Destination = firstNonEmptyAlias(raw, "destination")
	d.HotelLocation = firstNonEmptyAlias(raw, "hotel_location")
	if s := firstNonEmptyAlias(raw, "source"); s != nil {
		d.Source = *s
	}
	if s := firstNonEmptyAlias(raw, "currency"); s != nil {
		d.Currency = *s
	}

	price, err := floatField(raw, "price")
	if err != nil {
		return domain.Deal{}, err
	}
	if price != nil {
		if *price < 0 {
			return domain.Deal{}, fmt.Errorf("field %q: negative price %v", "price", *price)
		}
		d.Price = *price
	}

	avail, err := intField(raw, dealAliases["availability"]...)
	if err != nil {
		return domain.Deal{}, err
	}
	d.Availability = avail

	score, err := intField(raw, dealAliases["score"]...)
	if err != nil {
		return domain.Deal{}, err
	}
	d.Score = score

	if v, ok := raw["tags"]; ok && v != nil {
		d.Tags = tagList(v)
	}

	if s := firstNonEmptyAlias(raw, "id"); s != nil {
		d.DealUID = *s
	} else {
		d.DealUID = fallbackUID(d)
	}

	// keep the full raw record for audit/debugging
	d.Metadata = raw

	return d, nil
}

// NormalizeBatch normalizes rows independently: one bad row never blocks the
// rest. Row errors come back alongside the valid deals.
func NormalizeBatch(rows []map[string]any) ([]domain.Deal, []error) {
	deals := make([]domain.Deal, 0, len(rows))
	var errs []error
	for i, row := range rows {
		d, err := Normalize(row)
		if err != nil {
			errs = append(errs, fmt.Errorf("row %d: %w", i+1, err))
			continue
		}
		deals = append(deals, d)
	}
	return deals, errs
}
