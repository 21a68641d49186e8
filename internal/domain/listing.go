// Package domain holds the core value types shared across the pipeline
// (spec §3). Snapshot and Event types hold a listing-id by value; there is
// no back-pointer from Listing to its Snapshots except through query, so the
// model has no cyclic relationships (Design Notes).
package domain

import "time"

// StockStatus enumerates the fulfillment availability of a listing.
type StockStatus string

const (
	StockInStock     StockStatus = "in-stock"
	StockLow         StockStatus = "low-stock"
	StockOutOfStock  StockStatus = "out-of-stock"
	StockBackOrdered StockStatus = "back-ordered"
	StockUnknown     StockStatus = "unknown"
)

// FulfillmentType enumerates how a listing is fulfilled.
type FulfillmentType string

const (
	FulfillmentPlatform         FulfillmentType = "platform"
	FulfillmentPlatformFulfilled FulfillmentType = "platform-fulfilled"
	FulfillmentMerchant         FulfillmentType = "merchant-fulfilled"
	FulfillmentUnknown          FulfillmentType = "unknown"
)

// Listing is a marketplace product identified by an opaque listing-id.
// Uniqueness: ListingID is the primary key.
type Listing struct {
	ListingID     string
	Title         string
	Brand         string
	Manufacturer  string
	Model         string
	CategoryPath  []string
	WeightGrams   float64
	DimensionsCM  [3]float64 // length, width, height
	ImageURL      string
	IsActive      bool
	FirstSeenAt   time.Time
	LastSeenAt    time.Time
	DeactivatedAt *time.Time
}

// RatingHistogram holds the five-star distribution, summing to 1.0 ± ε when present.
type RatingHistogram [5]float64

// Snapshot is a point-in-time observation of a listing. Append-only, never
// mutated after insert. Uniqueness: (ListingID, CapturedAt).
type Snapshot struct {
	ListingID         string
	CapturedAt        time.Time
	CurrentPriceCents int64
	OriginalPriceCents int64
	LowestNewCents    int64
	LowestUsedCents   int64
	Currency          string
	BSR               int
	BSRCategory       string
	Stock             StockStatus
	Fulfillment       FulfillmentType
	SellerCount       int
	RatingAverage     float64
	ReviewCount       int
	RatingHistogram   *RatingHistogram
	IngestionSessionID string
}

// PriceCents returns the snapshot's current price, or 0 if unset.
func (s Snapshot) PriceCents() int64 { return s.CurrentPriceCents }

// HistoryPoint is a single (timestamp, value) sample in a price/BSR series.
// A nil Value marks the Keepa "no data" sentinel (-1), skipped on parse.
type HistoryPoint struct {
	Timestamp time.Time
	Value     *float64
}
