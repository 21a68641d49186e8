package shortlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maous26/smartacus/internal/scoring"
)

func opp(id string, score int, riskAdjusted int64, rank float64, windowDays int) scoring.Opportunity {
	return scoring.Opportunity{
		ListingID:              id,
		FinalScore:             score,
		RiskAdjustedValueCents: riskAdjusted,
		RankScore:              rank,
		WindowDays:             windowDays,
		WindowClass:            "urgent",
	}
}

func TestGenerateFiltersAndSorts(t *testing.T) {
	opps := []scoring.Opportunity{
		opp("low-score", 40, 1000000, 100, 10),     // fails score filter
		opp("low-value", 80, 100000, 200, 10),      // fails value filter
		opp("B", 70, 800000, 50, 10),
		opp("A", 90, 1200000, 300, 10),
	}

	entries := Generate(opps, 0)
	require.Len(t, entries, 2)
	assert.Equal(t, "A", entries[0].ListingID)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "B", entries[1].ListingID)
	assert.Equal(t, 2, entries[1].Rank)
}

func TestGenerateTruncatesToLimit(t *testing.T) {
	opps := []scoring.Opportunity{
		opp("A", 90, 600000, 10, 10),
		opp("B", 90, 600000, 20, 10),
		opp("C", 90, 600000, 30, 10),
	}
	entries := Generate(opps, 2)
	require.Len(t, entries, 2)
	assert.Equal(t, "C", entries[0].ListingID)
	assert.Equal(t, "B", entries[1].ListingID)
}

func TestRecommendationBanding(t *testing.T) {
	assert.Equal(t, "immediate action", recommendationFor(14))
	assert.Equal(t, "priority, within 7 days", recommendationFor(30))
	assert.Equal(t, "active, within 2 weeks", recommendationFor(60))
	assert.Equal(t, "monitor", recommendationFor(120))
}
