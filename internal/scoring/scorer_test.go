package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timePressureScore(r Result) int {
	for _, c := range r.Components {
		if c.Name == "time_pressure" {
			return c.Score
		}
	}
	return -1
}

func supplyShockInputs() Inputs {
	return Inputs{
		ListingID: "B00TESTASIN",
		Margin: MarginInputs{
			PriceCents:        3000,
			SourcingCostCents: 400,
			ShippingCostCents: 200,
			ReferralPercent:   0.08,
			ReturnRatePercent: 0.02,
			AdPercentOfRevenue: 0.05,
			StorageCostCents:  20,
		},
		Velocity: VelocityInputs{
			CurrentBSR:      8000,
			BSRDelta7dPct:   -0.20,
			BSRDelta30dPct:  -0.15,
			ReviewsPerMonth: 35,
		},
		Competition: CompetitionInputs{
			SellerCount:         4,
			BuyBoxRotationShare: 0.35,
			ReviewGapVsTop10:    0.30,
			NoBrandDominance:    true,
		},
		Gap: GapInputs{
			NegativeReviewPercent: 0.18,
			WishesPer100Reviews:   7,
			UnansweredQuestions:   12,
		},
		TimePressure: TimePressureInputs{
			StockoutCount90d: 4,
			PriceTrend30dPct: 0.10,
			SellerChurn90d:   2,
			BSRAcceleration:  0.12,
		},
	}
}

// TestS1SupplyShockValid exercises end-to-end scenario S1 from spec §8.
func TestS1SupplyShockValid(t *testing.T) {
	scorer := NewScorer(DefaultConfig())
	result := scorer.Score(supplyShockInputs())

	require.True(t, result.IsValid)
	assert.Equal(t, result.ComponentTotal(), result.Total)
	assert.NotEqual(t, StatusInvalidNoWindow, result.Status)

	econ := NewEconScorer(DefaultConfig())
	mult, windowClass, _, _ := econ.TimeMultiplier(TimeFactorInputs{
		StockoutFrequencyPerMonth: 1.5,
		SellerChurn:               0.25,
		PriceVolatility:           0.15,
		BSRAcceleration:           0.10,
	})
	assert.Greater(t, mult, 1.0)
	assert.Contains(t, []string{"critical", "urgent", "active"}, windowClass)

	opp := econ.Score(result, "supply shock thesis", TimeFactorInputs{
		StockoutFrequencyPerMonth: 1.5,
		SellerChurn:               0.25,
		PriceVolatility:           0.15,
		BSRAcceleration:           0.10,
	}, ValueInputs{
		RetailPriceCents:      3000,
		FixedShippingCents:    200,
		PlatformFeePercent:    0.15,
		PlatformFeeFloorCents: 30,
		ReferralPercent:       0.08,
		AdProvisionPercent:    0.05,
		ReturnsProvisionPercent: 0.02,
		EstimatedMonthlyUnits: 200,
		RiskFactor:            0.3,
	})

	assert.GreaterOrEqual(t, opp.FinalScore, 60)
	assert.Greater(t, opp.EstimatedAnnualValueCents, int64(0))
	assert.Greater(t, opp.RankScore, 0.0)
	assert.GreaterOrEqual(t, opp.TimeMultiplier, 0.5)
	assert.LessOrEqual(t, opp.TimeMultiplier, 2.0)
}

// TestS2HardGateTrip exercises scenario S2: exceptional everything else,
// but time-pressure = 0, so the result must be invalid regardless of total.
func TestS2HardGateTrip(t *testing.T) {
	scorer := NewScorer(DefaultConfig())

	in := Inputs{
		ListingID: "B00GATETEST",
		Margin: MarginInputs{
			PriceCents:        10000,
			SourcingCostCents: 1000,
			ShippingCostCents: 100,
		},
		Velocity: VelocityInputs{
			CurrentBSR:      2000,
			BSRDelta7dPct:   -0.30,
			BSRDelta30dPct:  -0.30,
			ReviewsPerMonth: 50,
		},
		Competition: CompetitionInputs{
			SellerCount:      1,
			NoBrandDominance: true,
		},
		Gap: GapInputs{
			NegativeReviewPercent: 0.30,
			WishesPer100Reviews:   10,
			UnansweredQuestions:   20,
			RecurringProblems:     true,
		},
		TimePressure: TimePressureInputs{
			StockoutCount90d: 0,
			PriceTrend30dPct: -0.05, // negative but within the flat band
			SellerChurn90d:   0,
			BSRAcceleration:  0,
		},
	}

	result := scorer.Score(in)

	require.False(t, result.IsValid)
	assert.Equal(t, StatusInvalidNoWindow, result.Status)
	assert.Contains(t, result.RejectionReason, "Time Pressure")
	assert.Contains(t, result.RejectionReason, "3")
}

// TestS3Determinism exercises scenario S3: scoring the same payload 100
// times yields byte-identical results.
func TestS3Determinism(t *testing.T) {
	scorer := NewScorer(DefaultConfig())
	in := supplyShockInputs()

	first := scorer.Score(in)
	for i := 0; i < 100; i++ {
		got := scorer.Score(in)
		assert.Equal(t, first, got)
	}
}

// TestTimePressureGateBoundary checks the exact boundary from spec §8:
// time-pressure == 3 is valid, == 2 is invalid.
func TestTimePressureGateBoundary(t *testing.T) {
	scorer := NewScorer(DefaultConfig())

	tp3 := TimePressureInputs{StockoutCount90d: 0, PriceTrend30dPct: 0.10, SellerChurn90d: 0, BSRAcceleration: 0}
	in := Inputs{ListingID: "boundary-3", TimePressure: tp3}
	result := scorer.Score(in)
	tpScore := timePressureScore(result)
	require.Equal(t, 3, tpScore)
	assert.True(t, result.IsValid)

	tp2 := TimePressureInputs{StockoutCount90d: 2, PriceTrend30dPct: -0.05, SellerChurn90d: 0, BSRAcceleration: 0}
	in2 := Inputs{ListingID: "boundary-2", TimePressure: tp2}
	result2 := scorer.Score(in2)
	tp2Score := timePressureScore(result2)
	require.Equal(t, 2, tp2Score)
	assert.False(t, result2.IsValid)
}

// TestMarginBandBoundary checks spec §8: margin exactly 35% scores 30,
// 24.999% scores 10.
func TestMarginBandBoundary(t *testing.T) {
	scorer := NewScorer(DefaultConfig())

	// price 1000, platform fee (15%) = 150, sourcing 500 -> total cost 650 -> margin 35.0% exactly
	exceptional := scorer.scoreMargin(MarginInputs{PriceCents: 1000, SourcingCostCents: 500})
	assert.Equal(t, 30, exceptional.Score)

	// price 100000, platform fee = 15000, sourcing such that margin = 24.999%
	totalCost := int64(100000 * (1 - 0.24999))
	sourcing := totalCost - 15000
	moderate := scorer.scoreMargin(MarginInputs{PriceCents: 100000, SourcingCostCents: sourcing})
	assert.Equal(t, 10, moderate.Score)
}
