package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maous26/smartacus/internal/domain"
)

func TestDecideProtectsImmatureNichesFromPause(t *testing.T) {
	agent := NewAgent(2)
	recentScan := time.Now().Add(-1 * time.Hour)
	niches := []NicheInput{
		{Metrics: domain.NicheMetrics{CategoryID: "new-niche", TotalRuns: 1, TotalOpportunitiesFound: 0, AvgOpportunityScore: 0, TokensUsed: 100, LastScannedAt: &recentScan}},
		{Metrics: domain.NicheMetrics{CategoryID: "established-good", TotalRuns: 10, TotalOpportunitiesFound: 50, AvgOpportunityScore: 80, TokensUsed: 1000, LastScannedAt: &recentScan}},
		{Metrics: domain.NicheMetrics{CategoryID: "established-bad", TotalRuns: 10, TotalOpportunitiesFound: 1, AvgOpportunityScore: 10, TokensUsed: 1000, LastScannedAt: &recentScan}},
	}

	decision := agent.Decide("cycle-1", 100000, niches)
	require.Len(t, decision.Assessments, 3)

	var byID = map[string]Assessment{}
	for _, a := range decision.Assessments {
		byID[a.CategoryID] = a
	}

	assert.Equal(t, ActionExplore, byID["new-niche"].Action)
	assert.Equal(t, ActionExploit, byID["established-good"].Action)
	assert.Equal(t, ActionPause, byID["established-bad"].Action)
	assert.Equal(t, 0, byID["established-bad"].AllocatedTokens)
	assert.Greater(t, byID["established-good"].AllocatedTokens, 0)
}

func TestDecideReservesTenPercent(t *testing.T) {
	agent := NewAgent(2)
	niches := []NicheInput{
		{Metrics: domain.NicheMetrics{CategoryID: "a", TotalRuns: 10, TotalOpportunitiesFound: 20, AvgOpportunityScore: 50, TokensUsed: 500}},
	}
	decision := agent.Decide("cycle-1", 100000, niches)
	require.NotEmpty(t, decision.RiskNotes)
}

func TestMaxListingsFloorsAllocation(t *testing.T) {
	assert.Equal(t, 50, maxListings(100, 2))
	assert.Equal(t, 0, maxListings(1, 2))
}
