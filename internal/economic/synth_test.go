package economic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maous26/smartacus/internal/domain"
)

func TestBuildSupplyShockTwoSignalsMinimum(t *testing.T) {
	now := time.Now()

	none := BuildSupplyShock("B00TEST", now, SupplyShockInputs{StockoutCount90d: 1, BSRImprovementPct: 0, PriceTrend30dPct: -0.1})
	assert.Nil(t, none)

	ev := BuildSupplyShock("B00TEST", now, SupplyShockInputs{
		StockoutCount90d:  4,
		BSRImprovementPct: -0.25,
		PriceTrend30dPct:  0.05,
	})
	require.NotNil(t, ev)
	assert.Equal(t, domain.EventSupplyShock, ev.Type)
	assert.Equal(t, domain.ConfidenceModerate, ev.Confidence)
	assert.True(t, ev.Actionable())
}

func TestBuildSupplyShockStrongRequiresZeroContradictions(t *testing.T) {
	ev := BuildSupplyShock("B00TEST", time.Now(), SupplyShockInputs{
		StockoutCount90d:         4,
		BSRImprovementPct:        -0.25,
		PriceTrend30dPct:         0.05,
		CompetitorAlsoOutOfStock: true,
	})
	require.NotNil(t, ev)
	assert.Equal(t, domain.ConfidenceStrong, ev.Confidence)
	assert.Empty(t, ev.ContradictingSignals)
}

func TestBuildCompetitorCollapseUrgency(t *testing.T) {
	ev := BuildCompetitorCollapse("B00TEST", time.Now(), CompetitorCollapseInputs{
		SellerChurn90d:    0.55,
		BSRImprovementPct: -0.3,
	})
	require.NotNil(t, ev)
	assert.Equal(t, domain.UrgencyHigh, ev.Urgency)
}

func TestBuildDemandSurgeCriticalOnStockoutRisk(t *testing.T) {
	ev := BuildDemandSurge("B00TEST", time.Now(), DemandSurgeInputs{
		BSRImprovementPct: -0.3,
		ReviewVelocityUp:  true,
		StockoutRisk:      true,
	})
	require.NotNil(t, ev)
	assert.Equal(t, domain.UrgencyCritical, ev.Urgency)
}
