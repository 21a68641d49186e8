package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maous26/smartacus/internal/catalog"
	"github.com/maous26/smartacus/internal/domain"
	"github.com/maous26/smartacus/internal/events"
	"github.com/maous26/smartacus/internal/ingestion"
	"github.com/maous26/smartacus/internal/scoring"
)

type fakeCatalog struct{}

func (fakeCatalog) CategoryListings(context.Context, string, bool, int) ([]string, error) {
	return []string{"B00TEST"}, nil
}

func (fakeCatalog) BestSellers(context.Context, string, int) ([]string, error) {
	return nil, nil
}

func (fakeCatalog) FetchProducts(_ context.Context, ids []string, _ catalog.FetchOptions) ([]catalog.ProductData, error) {
	out := make([]catalog.ProductData, 0, len(ids))
	for _, id := range ids {
		out = append(out, catalog.ProductData{
			Listing:  domain.Listing{ListingID: id},
			Snapshot: domain.Snapshot{ListingID: id, CurrentPriceCents: 2000, ReviewCount: 20, RatingAverage: 4.5, BSR: 1000},
		})
	}
	return out, nil
}

type fakeIngestStore struct{}

func (fakeIngestStore) HasRecentSnapshot(context.Context, string, time.Time) (bool, error) { return false, nil }
func (fakeIngestStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
func (fakeIngestStore) UpsertListing(context.Context, domain.Listing) error   { return nil }
func (fakeIngestStore) InsertSnapshot(context.Context, domain.Snapshot) error { return nil }
func (fakeIngestStore) RefreshDerivedViews(context.Context) error            { return nil }

type fakeOppStore struct {
	saveErr     error
	snapshots   []domain.Snapshot
	needScoring []string
}

func (f *fakeOppStore) SaveOpportunities(context.Context, []scoring.Opportunity) error {
	return f.saveErr
}
func (f *fakeOppStore) ListingSnapshots(context.Context, string, int) ([]domain.Snapshot, error) {
	return f.snapshots, nil
}
func (f *fakeOppStore) ListingIDsNeedingScoring(context.Context) ([]string, error) {
	return f.needScoring, nil
}
func (f *fakeOppStore) SavePriceEvents(context.Context, []domain.PriceEvent) error    { return nil }
func (f *fakeOppStore) SaveBSREvents(context.Context, []domain.BSREvent) error        { return nil }
func (f *fakeOppStore) SaveStockEvents(context.Context, []domain.StockEvent) error    { return nil }
func (f *fakeOppStore) SaveEconomicEvents(context.Context, []domain.EconomicEvent) error {
	return nil
}

// scorableSnapshots builds a history with three stockout/restock cycles, a
// +10% price bump and a sharply improving BSR in the final 30-day window,
// and steady review growth, which together push time-pressure past its
// gate and every other component into a valid, non-rejected score.
func scorableSnapshots(listingID string) []domain.Snapshot {
	now := time.Now()
	at := func(daysAgo int) time.Time { return now.Add(-time.Duration(daysAgo) * 24 * time.Hour) }

	return []domain.Snapshot{
		{ListingID: listingID, CapturedAt: at(80), CurrentPriceCents: 3000, BSR: 60000, Stock: domain.StockInStock, SellerCount: 6, RatingAverage: 4.0, ReviewCount: 80},
		{ListingID: listingID, CapturedAt: at(70), CurrentPriceCents: 3000, BSR: 58000, Stock: domain.StockOutOfStock, SellerCount: 6, RatingAverage: 4.0, ReviewCount: 90},
		{ListingID: listingID, CapturedAt: at(65), CurrentPriceCents: 3000, BSR: 55000, Stock: domain.StockInStock, SellerCount: 6, RatingAverage: 4.0, ReviewCount: 95},
		{ListingID: listingID, CapturedAt: at(50), CurrentPriceCents: 3000, BSR: 50000, Stock: domain.StockOutOfStock, SellerCount: 5, RatingAverage: 4.2, ReviewCount: 110},
		{ListingID: listingID, CapturedAt: at(45), CurrentPriceCents: 3000, BSR: 48000, Stock: domain.StockInStock, SellerCount: 5, RatingAverage: 4.2, ReviewCount: 120},
		{ListingID: listingID, CapturedAt: at(25), CurrentPriceCents: 3000, BSR: 30000, Stock: domain.StockOutOfStock, SellerCount: 4, RatingAverage: 4.5, ReviewCount: 140},
		{ListingID: listingID, CapturedAt: at(20), CurrentPriceCents: 3000, BSR: 25000, Stock: domain.StockInStock, SellerCount: 4, RatingAverage: 4.5, ReviewCount: 150},
		{ListingID: listingID, CapturedAt: now, CurrentPriceCents: 3300, BSR: 8000, Stock: domain.StockInStock, SellerCount: 4, RatingAverage: 4.5, ReviewCount: 160},
	}
}

func TestRunProducesCompletedCycle(t *testing.T) {
	orch := NewOrchestrator(
		ingestion.NewPipeline(fakeCatalog{}, fakeIngestStore{}, zerolog.Nop()),
		events.NewDetector(),
		scoring.NewScorer(scoring.DefaultConfig()),
		scoring.NewEconScorer(scoring.DefaultConfig()),
		&fakeOppStore{snapshots: scorableSnapshots("B00TEST"), needScoring: []string{"B00TEST"}},
		zerolog.Nop(),
		time.Hour,
	)

	result := orch.Run(context.Background(), ingestion.Options{CategoryNodeID: "node-1", SkipFiltering: true})

	require.Len(t, result.Stages, 5)
	assert.Equal(t, StatusCompleted, result.Status)
	assert.NotEmpty(t, result.Opportunities)
}

func TestRunMarksFailedOnPersistError(t *testing.T) {
	orch := NewOrchestrator(
		ingestion.NewPipeline(fakeCatalog{}, fakeIngestStore{}, zerolog.Nop()),
		events.NewDetector(),
		scoring.NewScorer(scoring.DefaultConfig()),
		scoring.NewEconScorer(scoring.DefaultConfig()),
		&fakeOppStore{saveErr: errors.New("disk full"), snapshots: scorableSnapshots("B00TEST"), needScoring: []string{"B00TEST"}},
		zerolog.Nop(),
		time.Hour,
	)

	result := orch.Run(context.Background(), ingestion.Options{CategoryNodeID: "node-1", SkipFiltering: true})
	assert.Equal(t, StatusFailed, result.Status)
}
