// Package ingestion implements the ingestion pipeline (C3, spec §4.3):
// discover -> freshness-filter -> criteria-filter -> batch-fetch ->
// upsert -> idempotent-insert -> refresh derived views. Every batch runs
// in its own transaction; a batch failure is recorded and the remaining
// batches still run.
package ingestion

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/maous26/smartacus/internal/apperr"
	"github.com/maous26/smartacus/internal/catalog"
	"github.com/maous26/smartacus/internal/domain"
)

const batchSize = 100

// Catalog is the subset of catalog.Client the pipeline needs (spec §4.1/§4.3).
type Catalog interface {
	FetchProducts(ctx context.Context, ids []string, opts catalog.FetchOptions) ([]catalog.ProductData, error)
	CategoryListings(ctx context.Context, nodeID string, includeChildren bool, maxResults int) ([]string, error)
	BestSellers(ctx context.Context, nodeID string, topN int) ([]string, error)
}

// Store is the persistence contract the pipeline needs (spec §4.3); the
// SQLite-backed implementation lives in internal/store.
type Store interface {
	HasRecentSnapshot(ctx context.Context, listingID string, since time.Time) (bool, error)
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	UpsertListing(ctx context.Context, l domain.Listing) error
	InsertSnapshot(ctx context.Context, s domain.Snapshot) error
	RefreshDerivedViews(ctx context.Context) error
}

// CriteriaBounds is the criteria filter configured bounds (spec §6).
type CriteriaBounds struct {
	MinPriceCents int64
	MaxPriceCents int64
	MinReviews    int
	MinRating     float64
	MaxBSR        int
}

func (b CriteriaBounds) accepts(p catalog.ProductData) bool {
	s := p.Snapshot
	if s.CurrentPriceCents < b.MinPriceCents || s.CurrentPriceCents > b.MaxPriceCents {
		return false
	}
	if s.ReviewCount < b.MinReviews {
		return false
	}
	if s.RatingAverage < b.MinRating {
		return false
	}
	if b.MaxBSR > 0 && s.BSR > b.MaxBSR {
		return false
	}
	return true
}

// Options are the per-run inputs (spec §4.3).
type Options struct {
	ExplicitListingIDs []string
	SkipDiscovery      bool
	SkipFiltering      bool
	MaxListings        int
	CategoryNodeID     string
	TopNBestSellers    int // 0 disables the best-sellers discovery leg
	FreshnessThreshold time.Duration
	Criteria           CriteriaBounds
}

// Result is the output record (spec §4.3 "IngestionResult").
type Result struct {
	Discovered        int
	DroppedStale      int
	DroppedCriteria   int
	Fetched           int
	Upserted          int
	SnapshotsInserted int
	BatchesFailed     int
	Errors            []error
}

// Pipeline is the C3 ingestion pipeline.
type Pipeline struct {
	catalog Catalog
	store   Store
	log     zerolog.Logger
	now     func() time.Time
}

// NewPipeline builds a Pipeline.
func NewPipeline(cat Catalog, store Store, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		catalog: cat,
		store:   store,
		log:     log.With().Str("component", "ingestion").Logger(),
		now:     time.Now,
	}
}

// Run executes one ingestion cycle per opts (spec §4.3 algorithm).
func (p *Pipeline) Run(ctx context.Context, opts Options) (Result, error) {
	var result Result

	ids, err := p.discover(ctx, opts)
	if err != nil {
		return result, err
	}
	result.Discovered = len(ids)

	ids = p.filterFresh(ctx, ids, opts.FreshnessThreshold, &result)
	if opts.MaxListings > 0 && len(ids) > opts.MaxListings {
		ids = ids[:opts.MaxListings]
	}

	if !opts.SkipFiltering && len(ids) > 0 {
		ids, err = p.filterCriteria(ctx, ids, opts.Criteria, &result)
		if err != nil {
			return result, err
		}
	}

	for start := 0; start < len(ids); start += batchSize {
		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		p.runBatch(ctx, ids[start:end], &result)
	}

	if err := p.store.RefreshDerivedViews(ctx); err != nil {
		result.Errors = append(result.Errors, apperr.Wrap(apperr.KindStoreError, "refresh derived views", err))
	}

	return result, nil
}

func (p *Pipeline) discover(ctx context.Context, opts Options) ([]string, error) {
	if opts.SkipDiscovery || len(opts.ExplicitListingIDs) > 0 {
		return opts.ExplicitListingIDs, nil
	}
	if opts.TopNBestSellers > 0 {
		return dualModeDiscover(ctx, p.catalog, opts.CategoryNodeID, opts.TopNBestSellers, opts.MaxListings)
	}
	return p.catalog.CategoryListings(ctx, opts.CategoryNodeID, true, opts.MaxListings)
}

func (p *Pipeline) filterFresh(ctx context.Context, ids []string, freshness time.Duration, result *Result) []string {
	threshold := p.now().Add(-p.freshnessOrDefault(freshness))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		fresh, err := p.store.HasRecentSnapshot(ctx, id, threshold)
		if err != nil {
			result.Errors = append(result.Errors, apperr.Wrap(apperr.KindStoreError, "freshness check for "+id, err))
			continue
		}
		if fresh {
			result.DroppedStale++
			continue
		}
		out = append(out, id)
	}
	return out
}

func (p *Pipeline) freshnessOrDefault(freshness time.Duration) time.Duration {
	if freshness > 0 {
		return freshness
	}
	return 24 * time.Hour
}

func (p *Pipeline) filterCriteria(ctx context.Context, ids []string, bounds CriteriaBounds, result *Result) ([]string, error) {
	basic, err := p.catalog.FetchProducts(ctx, ids, catalog.FetchOptions{})
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(basic))
	for _, pd := range basic {
		if bounds.accepts(pd) {
			out = append(out, pd.Listing.ListingID)
		} else {
			result.DroppedCriteria++
		}
	}
	return out, nil
}

func (p *Pipeline) runBatch(ctx context.Context, ids []string, result *Result) {
	products, err := p.catalog.FetchProducts(ctx, ids, catalog.FetchOptions{
		IncludeHistory: true,
		HistoryDays:    90,
		IncludeBuyBox:  true,
	})
	if err != nil {
		result.BatchesFailed++
		result.Errors = append(result.Errors, apperr.Wrap(apperr.KindFetchError, "batch fetch", err))
		return
	}
	result.Fetched += len(products)

	var upserted, inserted int
	err = p.store.WithTransaction(ctx, func(txCtx context.Context) error {
		for _, pd := range products {
			if err := p.store.UpsertListing(txCtx, pd.Listing); err != nil {
				return err
			}
			upserted++
			if err := p.store.InsertSnapshot(txCtx, pd.Snapshot); err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		result.BatchesFailed++
		result.Errors = append(result.Errors, apperr.Wrap(apperr.KindStoreError, "batch upsert", err))
		return
	}
	result.Upserted += upserted
	result.SnapshotsInserted += inserted
}
