package reviews

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractDefectsMatchesKeywordsOnNegativeReviewsOnly(t *testing.T) {
	revs := []Review{
		{ID: "1", Body: "The zipper broke after a week, very disappointed.", Rating: 2},
		{ID: "2", Body: "Loved it, zipper broke in the movie but this bag is great.", Rating: 5}, // positive, excluded
		{ID: "3", Body: "Strap broke on day one.", Rating: 1},
	}

	defects := ExtractDefects(revs)
	var zipper *DefectSignal
	for i := range defects {
		if defects[i].DefectType == DefectZipperFailure {
			zipper = &defects[i]
		}
	}
	require.NotNil(t, zipper)
	assert.Equal(t, 1, zipper.Frequency)
	assert.Equal(t, 2, zipper.NegativeReviewsScanned)
}

func TestExtractWishesCollapsesSynonyms(t *testing.T) {
	revs := []Review{
		{ID: "1", Body: "I wish it had a waterproof lining.", Rating: 3, HelpfulVotes: 2},
		{ID: "2", Body: "Needs a waterproof lining for rain.", Rating: 2, HelpfulVotes: 1},
	}

	wishes := ExtractWishes(revs)
	require.Len(t, wishes, 1)
	assert.GreaterOrEqual(t, wishes[0].Mentions, 2)
}

func TestExtractionDeterminism(t *testing.T) {
	revs := []Review{
		{ID: "1", Body: "The zipper broke and I wish it had a longer strap.", Rating: 2, HelpfulVotes: 3},
	}
	first := ExtractDefects(revs)
	second := ExtractDefects(revs)
	assert.Equal(t, first, second)

	firstW := ExtractWishes(revs)
	secondW := ExtractWishes(revs)
	assert.Equal(t, firstW, secondW)
}

func TestAggregateEmptyYieldsZeroScore(t *testing.T) {
	profile := Aggregate("B00TEST", nil, nil, 0, 0)
	assert.Equal(t, 0.0, profile.ImprovementScore)
	assert.False(t, profile.ReviewsReady)
	assert.Equal(t, "none", profile.DominantPain)
}

func TestAggregateComputesWeightedScore(t *testing.T) {
	defects := []DefectSignal{
		{DefectType: DefectZipperFailure, SeverityScore: 0.8, Frequency: 12},
		{DefectType: DefectStrapBreakage, SeverityScore: 0.5, Frequency: 6},
	}
	wishes := []FeatureRequest{
		{Feature: "waterproof", Mentions: 4, HelpfulVotes: 10},
	}

	profile := Aggregate("B00TEST", defects, wishes, 40, 20)
	require.True(t, profile.ReviewsReady)
	assert.Equal(t, "zipper_failure", profile.DominantPain)
	assert.Greater(t, profile.ImprovementScore, 0.0)
	assert.LessOrEqual(t, profile.ImprovementScore, 1.0)
}
