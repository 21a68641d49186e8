package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maous26/smartacus/internal/budget"
	"github.com/maous26/smartacus/internal/domain"
	"github.com/maous26/smartacus/internal/pipeline"
	"github.com/maous26/smartacus/internal/scoring"
)

// newTestDB opens a temp-file sqlite database with the full schema applied,
// mirroring aristath/sentinel's testing.NewTestDB temp-file pattern.
func newTestDB(t *testing.T) *Store {
	t.Helper()
	tmpFile, err := os.CreateTemp("", "smartacus_test_*.db")
	require.NoError(t, err)
	tmpPath := tmpFile.Name()
	require.NoError(t, tmpFile.Close())

	db, err := Open(Config{Path: tmpPath})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
		_ = os.Remove(tmpPath)
	})
	return New(db)
}

func TestUpsertListingAndSnapshotRoundtrip(t *testing.T) {
	s := newTestDB(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	listing := domain.Listing{
		ListingID:    "B00TEST",
		Title:        "Test Widget",
		Brand:        "Acme",
		CategoryPath: []string{"Home", "Kitchen"},
		DimensionsCM: [3]float64{10, 5, 2},
		IsActive:     true,
		FirstSeenAt:  now,
		LastSeenAt:   now,
	}
	require.NoError(t, s.UpsertListing(ctx, listing))

	snap := domain.Snapshot{
		ListingID:         "B00TEST",
		CapturedAt:        now,
		CurrentPriceCents: 2500,
		BSR:               5000,
		Stock:             domain.StockInStock,
		Fulfillment:       domain.FulfillmentPlatform,
		RatingAverage:     4.3,
		ReviewCount:       120,
	}
	require.NoError(t, s.InsertSnapshot(ctx, snap))
	// duplicate insert must be a no-op, not an error
	require.NoError(t, s.InsertSnapshot(ctx, snap))

	has, err := s.HasRecentSnapshot(ctx, "B00TEST", now.Add(-time.Minute))
	require.NoError(t, err)
	assert.True(t, has)

	snaps, err := s.ListingSnapshots(ctx, "B00TEST", 10)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, int64(2500), snaps[0].CurrentPriceCents)
	assert.Equal(t, 5000, snaps[0].BSR)
}

func TestListingIDsNeedingScoring(t *testing.T) {
	s := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.UpsertListing(ctx, domain.Listing{ListingID: "B00A", FirstSeenAt: now, LastSeenAt: now}))
	require.NoError(t, s.InsertSnapshot(ctx, domain.Snapshot{ListingID: "B00A", CapturedAt: now.Add(-48 * time.Hour)}))
	require.NoError(t, s.InsertSnapshot(ctx, domain.Snapshot{ListingID: "B00A", CapturedAt: now}))

	ids, err := s.ListingIDsNeedingScoring(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, "B00A")

	require.NoError(t, s.SaveOpportunities(ctx, []scoring.Opportunity{{ListingID: "B00A", FinalScore: 80, RankScore: 1.2}}))

	ids, err = s.ListingIDsNeedingScoring(ctx)
	require.NoError(t, err)
	assert.NotContains(t, ids, "B00A")
}

func TestSaveOpportunitiesAndTopOpportunities(t *testing.T) {
	s := newTestDB(t)
	ctx := context.Background()

	opps := []scoring.Opportunity{
		{ListingID: "B00LOW", FinalScore: 40, RankScore: 0.5, WindowClass: "standard"},
		{ListingID: "B00HIGH", FinalScore: 90, RankScore: 2.5, WindowClass: "critical"},
	}
	require.NoError(t, s.SaveOpportunities(ctx, opps))

	top, err := s.TopOpportunities(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "B00HIGH", top[0].ListingID)
}

func TestBudgetGetSaveRoundtrip(t *testing.T) {
	s := newTestDB(t)
	ctx := context.Background()
	month := budget.ForTime(time.Now())

	_, ok, err := s.GetBudget(ctx, month)
	require.NoError(t, err)
	assert.False(t, ok)

	b := budget.Budget{Month: month, MonthlyLimit: 1000000, TokensUsed: 5000}
	require.NoError(t, s.SaveBudget(ctx, b))

	got, ok, err := s.GetBudget(ctx, month)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 5000, got.TokensUsed)
}

func TestNicheLifecycle(t *testing.T) {
	s := newTestDB(t)
	ctx := context.Background()

	_, err := s.db.q(ctx).ExecContext(ctx, `
		INSERT INTO niche_registry (category_id, marketplace_domain, name, path_json, is_active)
		VALUES ('electronics-cables', 1, 'Electronics Cables', '["Electronics","Cables"]', 1)
	`)
	require.NoError(t, err)

	niches, err := s.ActiveNiches(ctx)
	require.NoError(t, err)
	require.Len(t, niches, 1)
	assert.Equal(t, "electronics-cables", niches[0].CategoryID)
	assert.Equal(t, []string{"Electronics", "Cables"}, niches[0].Path)

	require.NoError(t, s.RecordNicheOutcome(ctx, "electronics-cables", 10, 3, 0.3))

	niches, err = s.ActiveNiches(ctx)
	require.NoError(t, err)
	require.Len(t, niches, 1)
	assert.Equal(t, 1, niches[0].TotalRuns)
	assert.Equal(t, 3, niches[0].TotalOpportunitiesFound)
	assert.InDelta(t, 0.3, niches[0].ConversionRate, 0.0001)

	require.NoError(t, s.SetActive(ctx, "electronics-cables", false))
	niches, err = s.ActiveNiches(ctx)
	require.NoError(t, err)
	assert.Empty(t, niches)
}

func TestHasCriticalEventLast24h(t *testing.T) {
	s := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.UpsertListing(ctx, domain.Listing{
		ListingID:    "B00EVT",
		CategoryPath: []string{"Home", "Storage"},
		FirstSeenAt:  now,
		LastSeenAt:   now,
	}))

	has, err := s.HasCriticalEventLast24h(ctx, "Storage")
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, s.SaveEconomicEvents(ctx, []domain.EconomicEvent{{
		ListingID:  "B00EVT",
		DetectedAt: now,
		Type:       domain.EventSupplyShock,
		Thesis:     "stockouts rising, BSR improving",
		Confidence: domain.ConfidenceStrong,
		Urgency:    domain.UrgencyHigh,
	}}))

	has, err = s.HasCriticalEventLast24h(ctx, "Storage")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestSaveEventsByKind(t *testing.T) {
	s := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.SavePriceEvents(ctx, []domain.PriceEvent{{
		ListingID: "B00P", DetectedAt: now, BeforeCents: 2000, AfterCents: 1500, PercentChange: -0.25,
		Direction: domain.DirectionDown, Severity: domain.SeverityHigh,
	}}))
	require.NoError(t, s.SaveBSREvents(ctx, []domain.BSREvent{{
		ListingID: "B00P", DetectedAt: now, BeforeBSR: 10000, AfterBSR: 4000, PercentChange: -0.6,
		Direction: domain.DirectionImproving, Severity: domain.SeverityMedium,
	}}))
	require.NoError(t, s.SaveStockEvents(ctx, []domain.StockEvent{{
		ListingID: "B00P", DetectedAt: now, Before: domain.StockInStock, After: domain.StockOutOfStock,
		Direction: domain.DirectionStockout, Severity: domain.SeverityLow,
	}}))

	// duplicate saves on the same (listing_id, detected_at) must not error
	require.NoError(t, s.SavePriceEvents(ctx, []domain.PriceEvent{{
		ListingID: "B00P", DetectedAt: now, BeforeCents: 2000, AfterCents: 1500, PercentChange: -0.25,
		Direction: domain.DirectionDown, Severity: domain.SeverityHigh,
	}}))
}

func TestWithTransactionRollsBackOnError(t *testing.T) {
	s := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	err := s.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.UpsertListing(ctx, domain.Listing{ListingID: "B00TX", FirstSeenAt: now, LastSeenAt: now}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.Error(t, err)

	has, err := s.HasRecentSnapshot(ctx, "B00TX", now.Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, has)

	ids, err := s.ListingIDsNeedingScoring(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSaveRunStartAndResult(t *testing.T) {
	s := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.SaveRunStart(ctx, "cycle-1", "electronics-cables", now))
	// SaveRunStart must be idempotent against re-entry for the same run id
	require.NoError(t, s.SaveRunStart(ctx, "cycle-1", "electronics-cables", now))

	result := pipeline.CycleResult{
		Status: pipeline.StatusCompleted,
		Stages: []pipeline.StageResult{
			{Name: pipeline.StageIngest, Status: pipeline.StatusCompleted, StartedAt: now, CompletedAt: now, Metrics: map[string]int{"fetched": 5}},
		},
		Opportunities: []scoring.Opportunity{{ListingID: "B00A"}},
	}
	require.NoError(t, s.SaveRunResult(ctx, "cycle-1", result, now.Add(time.Minute)))
}
