package budget

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memStore struct {
	records map[Month]Budget
}

func newMemStore() *memStore {
	return &memStore{records: make(map[Month]Budget)}
}

func (s *memStore) GetBudget(_ context.Context, month Month) (Budget, bool, error) {
	b, ok := s.records[month]
	return b, ok, nil
}

func (s *memStore) SaveBudget(_ context.Context, b Budget) error {
	s.records[b.Month] = b
	return nil
}

func newTestManager(store Store, frozen time.Time) *Manager {
	m := NewManager(store, Config{
		MonthlyLimit:      900000,
		DiscoveryAllocPct: 0.2,
		ScanningAllocPct:  0.8,
		PerListingCost:    2,
	})
	m.now = func() time.Time { return frozen }
	return m
}

// TestDailyBudgetPacing exercises scenario S4 from spec §8.
func TestDailyBudgetPacing(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	// June has 30 days, so the 15th leaves 16 days: 600000/16 = 37500.
	day15 := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	m := newTestManager(store, day15)

	require.NoError(t, m.Reserve(ctx, 300000, "scanning"))

	daily, err := m.DailyBudget(ctx)
	require.NoError(t, err)
	require.InDelta(t, 37500.0, daily, 0.01)

	canRun40k, err := m.CanRun(ctx, 40000)
	require.NoError(t, err)
	require.False(t, canRun40k)

	canRun37500, err := m.CanRun(ctx, 37500)
	require.NoError(t, err)
	require.True(t, canRun37500)
}

func TestLazyMonthCreation(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	m := newTestManager(store, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC))

	b, err := m.Status(ctx, ForTime(time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	require.Equal(t, 900000, b.MonthlyLimit)
	require.Equal(t, 0, b.TokensUsed)
}

func TestRecordRunClampsAtMonthlyLimit(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	m := newTestManager(store, time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC))

	require.NoError(t, m.RecordRun(ctx, 950000, 3, 5))

	b, err := m.Status(ctx, ForTime(time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	require.Equal(t, 900000, b.TokensUsed)
	require.Equal(t, 0, b.TokensRemaining())
	require.Equal(t, 1, b.RunsCompleted)
	require.Equal(t, 3, b.CategoriesScanned)
	require.Equal(t, 5, b.OpportunitiesFound)
}

func TestTokensForListings(t *testing.T) {
	m := newTestManager(newMemStore(), time.Now())
	require.Equal(t, 200, m.TokensForListings(100))
}
