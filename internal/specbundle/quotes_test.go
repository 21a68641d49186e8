package specbundle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maous26/smartacus/internal/reviews"
)

type fakeQuoteStore struct {
	cents *int64
	err   error
}

func (f fakeQuoteStore) ActiveSourcingQuoteCents(_ context.Context, _ string) (*int64, error) {
	return f.cents, f.err
}

func TestResolveSourcingCostCentsPrefersActiveQuote(t *testing.T) {
	quoted := int64(450)
	store := fakeQuoteStore{cents: &quoted}

	cents, fromQuote, err := ResolveSourcingCostCents(context.Background(), store, "listing-1", 3000, 200)
	require.NoError(t, err)
	assert.True(t, fromQuote)
	assert.Equal(t, int64(450), cents)
}

func TestResolveSourcingCostCentsFallsBackToHeuristic(t *testing.T) {
	store := fakeQuoteStore{cents: nil}

	cents, fromQuote, err := ResolveSourcingCostCents(context.Background(), store, "listing-1", 3000, 200)
	require.NoError(t, err)
	assert.False(t, fromQuote)
	assert.Equal(t, int64(3000/5+200), cents)
}

func TestAttachSourcingCostAppendsOutreachLine(t *testing.T) {
	profile := reviews.ImprovementProfile{
		ListingID: "B00TEST",
		TopDefects: []reviews.DefectSignal{
			{DefectType: reviews.DefectZipperFailure, SeverityScore: 0.8, Frequency: 12},
		},
	}
	bundle := Build(profile)

	enriched := AttachSourcingCost(bundle, 650, true)
	assert.Equal(t, int64(650), enriched.TargetSourcingCostCents)
	assert.True(t, enriched.SourcingCostFromQuote)
	assert.Contains(t, enriched.RenderedOutreach, "Target unit cost: $6.50")
	assert.Contains(t, enriched.RenderedOutreach, "active supplier quote")
}
