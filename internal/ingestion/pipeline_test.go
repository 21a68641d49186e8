package ingestion

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maous26/smartacus/internal/catalog"
	"github.com/maous26/smartacus/internal/domain"
)

type fakeCatalog struct {
	discoverIDs []string
	products    map[string]catalog.ProductData
	fetchErr    error
}

func (f *fakeCatalog) CategoryListings(_ context.Context, _ string, _ bool, _ int) ([]string, error) {
	return f.discoverIDs, nil
}

func (f *fakeCatalog) BestSellers(_ context.Context, _ string, _ int) ([]string, error) {
	return nil, nil
}

func (f *fakeCatalog) FetchProducts(_ context.Context, ids []string, _ catalog.FetchOptions) ([]catalog.ProductData, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	out := make([]catalog.ProductData, 0, len(ids))
	for _, id := range ids {
		if pd, ok := f.products[id]; ok {
			out = append(out, pd)
		}
	}
	return out, nil
}

type fakeStore struct {
	recentSnapshots map[string]bool
	upserted        []string
	inserted        []string
	txErrFor        map[string]bool
}

func (s *fakeStore) HasRecentSnapshot(_ context.Context, listingID string, _ time.Time) (bool, error) {
	return s.recentSnapshots[listingID], nil
}

func (s *fakeStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *fakeStore) UpsertListing(_ context.Context, l domain.Listing) error {
	if s.txErrFor[l.ListingID] {
		return errors.New("boom")
	}
	s.upserted = append(s.upserted, l.ListingID)
	return nil
}

func (s *fakeStore) InsertSnapshot(_ context.Context, sn domain.Snapshot) error {
	s.inserted = append(s.inserted, sn.ListingID)
	return nil
}

func (s *fakeStore) RefreshDerivedViews(_ context.Context) error {
	return nil
}

func productFor(id string, priceCents int64, reviews int, rating float64, bsr int) catalog.ProductData {
	return catalog.ProductData{
		Listing: domain.Listing{ListingID: id},
		Snapshot: domain.Snapshot{
			ListingID:         id,
			CurrentPriceCents: priceCents,
			ReviewCount:       reviews,
			RatingAverage:     rating,
			BSR:               bsr,
		},
	}
}

func TestRunFiltersStaleAndOutOfBounds(t *testing.T) {
	cat := &fakeCatalog{
		discoverIDs: []string{"A", "B", "C"},
		products: map[string]catalog.ProductData{
			"A": productFor("A", 2000, 20, 4.5, 1000),
			"B": productFor("B", 100, 20, 4.5, 1000),  // below min price
			"C": productFor("C", 2000, 20, 4.5, 1000),
		},
	}
	store := &fakeStore{
		recentSnapshots: map[string]bool{"C": true},
		txErrFor:        map[string]bool{},
	}

	p := NewPipeline(cat, store, zerolog.Nop())
	result, err := p.Run(context.Background(), Options{
		CategoryNodeID: "node-1",
		Criteria: CriteriaBounds{
			MinPriceCents: 500,
			MaxPriceCents: 10000,
			MinReviews:    10,
			MinRating:     3.0,
			MaxBSR:        500000,
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 3, result.Discovered)
	assert.Equal(t, 1, result.DroppedStale)
	assert.Equal(t, 1, result.DroppedCriteria)
	assert.Equal(t, 1, result.SnapshotsInserted)
	assert.Equal(t, []string{"A"}, store.upserted)
}

func TestRunBatchFailureDoesNotAbortRemainingBatches(t *testing.T) {
	// 101 ids form two batches (100 + 1); the first batch fails on its
	// first listing, the second must still be written.
	ids := make([]string, 0, batchSize+1)
	products := map[string]catalog.ProductData{}
	for i := 0; i <= batchSize; i++ {
		id := fmt.Sprintf("L%03d", i)
		ids = append(ids, id)
		products[id] = productFor(id, 2000, 20, 4.5, 1000)
	}
	cat := &fakeCatalog{
		discoverIDs: ids,
		products:    products,
	}
	store := &fakeStore{
		recentSnapshots: map[string]bool{},
		txErrFor:        map[string]bool{"L000": true},
	}

	p := NewPipeline(cat, store, zerolog.Nop())
	result, err := p.Run(context.Background(), Options{
		SkipFiltering:  true,
		CategoryNodeID: "node-1",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, result.Errors)
	assert.Equal(t, 1, result.BatchesFailed)
	assert.Equal(t, 1, result.SnapshotsInserted)
	assert.Equal(t, []string{"L100"}, store.upserted)
}
