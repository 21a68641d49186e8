// Package catalog implements the rate-limited metered catalog client (C1,
// spec §4.1/§6). The concrete provider behind this package is a Keepa-style
// Amazon product data API; only its error taxonomy (invalid-auth,
// rate-limit, not-found, transient) is load-bearing for the rest of the
// pipeline, per spec §6.
package catalog

import (
	"time"

	"github.com/maous26/smartacus/internal/domain"
)

// KeepaEpoch is the fixed epoch Keepa-style timestamps are minutes-since
// (2011-01-01T00:00:00Z), per the original Python client
// (src/data/keepa_client.py: KEEPA_EPOCH).
var KeepaEpoch = time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC)

// MinutesToTime converts a Keepa-style minutes-since-epoch value to an
// absolute UTC timestamp.
func MinutesToTime(minutes int64) time.Time {
	return KeepaEpoch.Add(time.Duration(minutes) * time.Minute)
}

// ProductData is the raw transformed response for one listing: current
// metadata plus its full parsed snapshot and history, ready for C3's
// upsert stage.
type ProductData struct {
	Listing   domain.Listing
	Snapshot  domain.Snapshot
	PriceHistory []domain.HistoryPoint
	BSRHistory   []domain.HistoryPoint
}

// SearchBounds narrows a keyword search (spec §4.1 "search").
type SearchBounds struct {
	MinPriceCents int64
	MaxPriceCents int64
	MinReviews    int
	MaxReviews    int
}

// FetchOptions controls what a fetch_products call includes, each adding to
// the per-listing token cost (spec §4.1: "1/listing basic + 1/listing if
// history + 1/listing if offers").
type FetchOptions struct {
	IncludeHistory bool
	HistoryDays    int
	IncludeBuyBox  bool
	IncludeOffers  bool
}

// EstimatedTokenCost returns the per-listing token cost for opts, used by
// the rate limiter to reserve tokens before a call (spec §4.1).
func (o FetchOptions) EstimatedTokenCost() int {
	cost := 1
	if o.IncludeHistory {
		cost++
	}
	if o.IncludeOffers {
		cost++
	}
	return cost
}
