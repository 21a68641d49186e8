package catalog

import "context"

// RawProduct is the provider's untransformed row: flat (time, value) arrays
// with -1 marking "no data" sentinels, integer sub-unit prices, and a
// ×10 rating scale, exactly as the upstream Keepa-style API returns them
// (spec §4.1 "Output transform").
type RawProduct struct {
	ListingID          string
	Title              string
	Brand              string
	Manufacturer       string
	Model              string
	CategoryPath       []string
	WeightGrams        float64
	DimensionsCM       [3]float64
	ImageURL           string
	CurrentBuyBoxNewCents int64 // -1 if unavailable
	CurrentPrimaryCents  int64  // -1 if unavailable
	CurrentNewCents      int64  // -1 if unavailable
	OriginalPriceCents   int64
	LowestNewCents       int64
	LowestUsedCents      int64
	Currency             string
	BSR                  int
	BSRCategory          string
	Stock                string
	Fulfillment          string
	SellerCount          int
	RatingX10            int // rating ×10, e.g. 47 = 4.7
	ReviewCount          int
	RatingHistogram      *[5]float64
	PriceHistoryMinutes  []int64 // paired with PriceHistoryValues
	PriceHistoryValues   []int64 // -1 sentinel for "no data"
	BSRHistoryMinutes    []int64
	BSRHistoryValues     []int64 // -1 sentinel
}

// RawBatchResponse is one fetch_products response (spec §4.1).
type RawBatchResponse struct {
	Products      []RawProduct
	TokensLeft    int
	NotFoundIDs   []string
}

// RawIDsResponse is a discovery response (category/best-sellers/search).
type RawIDsResponse struct {
	IDs        []string
	TokensLeft int
}

// RawProvider is the capability set the concrete external provider must
// implement (Design Notes: "capability set... interface listing exactly
// the methods the core calls"). Swapping providers is a factory concern.
type RawProvider interface {
	FetchProducts(ctx context.Context, ids []string, opts FetchOptions) (RawBatchResponse, error)
	CategoryListings(ctx context.Context, nodeID string, includeChildren bool, maxResults int) (RawIDsResponse, error)
	BestSellers(ctx context.Context, nodeID string, topN int) (RawIDsResponse, error)
	Search(ctx context.Context, keywords []string, bounds SearchBounds, maxResults int) (RawIDsResponse, error)
	TokensRemaining(ctx context.Context) (int, error)
	Health(ctx context.Context) error
}
