package specbundle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maous26/smartacus/internal/reviews"
)

// TestS5SpecBundleReproducibility exercises scenario S5 from spec §8.
func TestS5SpecBundleReproducibility(t *testing.T) {
	profile := reviews.ImprovementProfile{
		ListingID: "B00TEST",
		TopDefects: []reviews.DefectSignal{
			{DefectType: reviews.DefectZipperFailure, SeverityScore: 0.8, Frequency: 12},
			{DefectType: reviews.DefectStrapBreakage, SeverityScore: 0.5, Frequency: 6},
		},
		TopWishes: []reviews.FeatureRequest{
			{Feature: "waterproof", Mentions: 4, HelpfulVotes: 0},
		},
	}

	first := Build(profile)
	second := Build(profile)

	require.Len(t, first.BlocA, 2)
	assert.Equal(t, reviews.DefectZipperFailure, first.BlocA[0].DefectType)
	assert.Equal(t, reviews.DefectStrapBreakage, first.BlocA[1].DefectType)

	seen := map[string]bool{}
	for _, qc := range first.QCChecklist {
		assert.False(t, qc.TestName == "" || seen[qc.TestName], "duplicate or empty test name: %s", qc.TestName)
		seen[qc.TestName] = true
	}

	assert.Len(t, first.InputsHash, 16)
	assert.Equal(t, first.InputsHash, second.InputsHash)
	assert.Equal(t, first.RenderedOEMSpec, second.RenderedOEMSpec)
	assert.Equal(t, first.RenderedQC, second.RenderedQC)
	assert.Equal(t, first.RenderedOutreach, second.RenderedOutreach)
}

func TestBuildHandlesNoMatchedWishes(t *testing.T) {
	profile := reviews.ImprovementProfile{
		ListingID: "B00NONE",
		TopWishes: []reviews.FeatureRequest{{Feature: "unmapped thing", Mentions: 1}},
	}
	b := Build(profile)
	assert.Empty(t, b.BlocB)
}
