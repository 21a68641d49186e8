package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maous26/smartacus/internal/budget"
	"github.com/maous26/smartacus/internal/catalog"
	"github.com/maous26/smartacus/internal/domain"
	"github.com/maous26/smartacus/internal/events"
	"github.com/maous26/smartacus/internal/ingestion"
	"github.com/maous26/smartacus/internal/pipeline"
	"github.com/maous26/smartacus/internal/scoring"
	"github.com/maous26/smartacus/internal/strategy"
)

type memBudgetStore struct {
	budgets map[budget.Month]budget.Budget
}

func newMemBudgetStore() *memBudgetStore {
	return &memBudgetStore{budgets: map[budget.Month]budget.Budget{}}
}

func (s *memBudgetStore) GetBudget(_ context.Context, month budget.Month) (budget.Budget, bool, error) {
	b, ok := s.budgets[month]
	return b, ok, nil
}

func (s *memBudgetStore) SaveBudget(_ context.Context, b budget.Budget) error {
	s.budgets[b.Month] = b
	return nil
}

type fakeRegistry struct {
	niches    []domain.NicheMetrics
	activated map[string]bool
}

func (r *fakeRegistry) ActiveNiches(context.Context) ([]domain.NicheMetrics, error) {
	return r.niches, nil
}

func (r *fakeRegistry) HasCriticalEventLast24h(context.Context, string) (bool, error) {
	return false, nil
}

func (r *fakeRegistry) RecordNicheOutcome(context.Context, string, int, int, float64) error {
	return nil
}

func (r *fakeRegistry) SetActive(_ context.Context, categoryID string, active bool) error {
	if r.activated == nil {
		r.activated = map[string]bool{}
	}
	r.activated[categoryID] = active
	return nil
}

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

type fakeOppStore struct{}

func (fakeOppStore) SaveOpportunities(context.Context, []scoring.Opportunity) error { return nil }
func (fakeOppStore) ListingSnapshots(context.Context, string, int) ([]domain.Snapshot, error) {
	return nil, nil
}
func (fakeOppStore) ListingIDsNeedingScoring(context.Context) ([]string, error) { return nil, nil }
func (fakeOppStore) SavePriceEvents(context.Context, []domain.PriceEvent) error      { return nil }
func (fakeOppStore) SaveBSREvents(context.Context, []domain.BSREvent) error          { return nil }
func (fakeOppStore) SaveStockEvents(context.Context, []domain.StockEvent) error      { return nil }
func (fakeOppStore) SaveEconomicEvents(context.Context, []domain.EconomicEvent) error {
	return nil
}

func newTestCycle(registry *fakeRegistry, budgetMgr *budget.Manager) *Cycle {
	orch := pipeline.NewOrchestrator(
		ingestion.NewPipeline(fakeCatalog{}, fakeIngestStore{}, zerolog.Nop()),
		events.NewDetector(),
		scoring.NewScorer(scoring.DefaultConfig()),
		scoring.NewEconScorer(scoring.DefaultConfig()),
		fakeOppStore{},
		zerolog.Nop(),
		time.Hour,
	)
	agent := strategy.NewAgent(10)
	cfg := Config{
		MinTokensPerRun:               1000,
		MaxNichesPerRun:               5,
		MaxListingsNiche:              50,
		ConversionActivateThreshold:   0.5,
		ConversionDeactivateThreshold: 0.01,
	}
	return NewCycle(budgetMgr, agent, registry, orch, nil, cfg, zerolog.Nop())
}

// TestRunOnceSkipsWhenBudgetInsufficient verifies the "monthly token
// remaining < min-per-run -> scheduler returns skipped not failed" boundary.
func TestRunOnceSkipsWhenBudgetInsufficient(t *testing.T) {
	store := newMemBudgetStore()
	store.budgets[budget.ForTime(time.Now())] = budget.Budget{
		Month:        budget.ForTime(time.Now()),
		MonthlyLimit: 10000,
		TokensUsed:   9999,
	}
	budgetMgr := budget.NewManager(store, budget.Config{MonthlyLimit: 10000, PerListingCost: 10})
	registry := &fakeRegistry{niches: []domain.NicheMetrics{{CategoryID: "n1", IsActive: true}}}

	cycle := newTestCycle(registry, budgetMgr)
	outcome, err := cycle.RunOnce(context.Background())

	require.NoError(t, err)
	assert.True(t, outcome.Skipped)
	assert.Empty(t, outcome.NicheResults)
}

func TestRunOnceRunsActiveNiches(t *testing.T) {
	store := newMemBudgetStore()
	budgetMgr := budget.NewManager(store, budget.Config{MonthlyLimit: 900000, PerListingCost: 10})
	recentScan := time.Now().Add(-48 * time.Hour)
	registry := &fakeRegistry{niches: []domain.NicheMetrics{
		{CategoryID: "n1", IsActive: true, TotalRuns: 6, TotalOpportunitiesFound: 10, AvgOpportunityScore: 70, TokensUsed: 500, LastScannedAt: &recentScan},
	}}

	cycle := newTestCycle(registry, budgetMgr)
	outcome, err := cycle.RunOnce(context.Background())

	require.NoError(t, err)
	assert.False(t, outcome.Skipped)
	require.Len(t, outcome.Decision.Assessments, 1)
}
