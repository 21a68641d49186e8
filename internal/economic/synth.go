// Package economic implements the economic-event synthesizer (C5, spec
// §4.5): one builder per EconomicEventType, each following the same
// contract — given a signal bundle, return an event iff creation
// conditions are met, otherwise nothing. At most one event per type is
// produced per detection cycle for a given listing.
package economic

import (
	"time"

	"github.com/maous26/smartacus/internal/domain"
)

// Signal is one named supporting-or-contradicting observation feeding a
// builder's classification.
type Signal struct {
	Name      string
	Supports  bool
	Present   bool // false if this signal could not be evaluated (missing data)
}

// classify derives confidence and the supporting/contradicting signal
// name lists shared by every builder (spec §4.5).
func classify(signals []Signal) (confidence domain.Confidence, supporting, contradicting []string) {
	for _, s := range signals {
		if !s.Present {
			continue
		}
		if s.Supports {
			supporting = append(supporting, s.Name)
		} else {
			contradicting = append(contradicting, s.Name)
		}
	}

	n := len(supporting)
	switch {
	case n >= 4 && len(contradicting) == 0:
		confidence = domain.ConfidenceStrong
	case n >= 3:
		confidence = domain.ConfidenceModerate
	default:
		confidence = domain.ConfidenceWeak
	}
	return confidence, supporting, contradicting
}

func envelope(listingID string, detectedAt time.Time, eventType domain.EconomicEventType, thesis string, confidence domain.Confidence, urgency domain.Urgency, windowDays int, supporting, contradicting []string) domain.EconomicEvent {
	return domain.EconomicEvent{
		ListingID:            listingID,
		DetectedAt:           detectedAt,
		Type:                 eventType,
		Thesis:               thesis,
		Confidence:           confidence,
		Urgency:              urgency,
		EstimatedWindowDays:  windowDays,
		SupportingSignals:    supporting,
		ContradictingSignals: contradicting,
	}
}

// SupplyShockInputs feeds the SupplyShock builder (spec §4.5 example).
type SupplyShockInputs struct {
	StockoutCount90d         int
	BSRImprovementPct        float64 // negative = improving
	PriceTrend30dPct         float64
	CompetitorAlsoOutOfStock bool
}

// BuildSupplyShock returns a SupplyShock event iff at least two of its
// four supporting signals fire (spec §4.5).
func BuildSupplyShock(listingID string, now time.Time, in SupplyShockInputs) *domain.EconomicEvent {
	signals := []Signal{
		{Name: "stockouts_90d>=2", Present: true, Supports: in.StockoutCount90d >= 2},
		{Name: "bsr_improvement>20pct", Present: true, Supports: in.BSRImprovementPct <= -0.20},
		{Name: "price_non_negative_trend", Present: true, Supports: in.PriceTrend30dPct >= 0},
		{Name: "competitor_also_out_of_stock", Present: true, Supports: in.CompetitorAlsoOutOfStock},
	}

	confidence, supporting, contradicting := classify(signals)
	if len(supporting) < 2 {
		return nil
	}

	urgency := urgencyFromStockoutFrequency(in.StockoutCount90d)
	ev := envelope(listingID, now, domain.EventSupplyShock, "Supply shock: recurring stockouts with recovering demand signal", confidence, urgency, windowDaysForUrgency(urgency), supporting, contradicting)
	return &ev
}

// CompetitorCollapseInputs feeds the CompetitorCollapse builder.
type CompetitorCollapseInputs struct {
	SellerChurn90d    float64 // fraction of sellers lost
	BSRImprovementPct float64
	BuyBoxRotationUp  bool
	PriceTrend30dPct  float64 // rising price = pricing power returning
}

// BuildCompetitorCollapse returns a CompetitorCollapse event iff at least
// two of its signals fire.
func BuildCompetitorCollapse(listingID string, now time.Time, in CompetitorCollapseInputs) *domain.EconomicEvent {
	signals := []Signal{
		{Name: "seller_churn>30pct", Present: true, Supports: in.SellerChurn90d >= 0.30},
		{Name: "bsr_improvement>20pct", Present: true, Supports: in.BSRImprovementPct <= -0.20},
		{Name: "buy_box_rotation_increasing", Present: true, Supports: in.BuyBoxRotationUp},
		{Name: "price_trend_rising", Present: true, Supports: in.PriceTrend30dPct > 0},
	}

	confidence, supporting, contradicting := classify(signals)
	if len(supporting) < 2 {
		return nil
	}

	urgency := domain.UrgencyMedium
	if in.SellerChurn90d >= 0.5 {
		urgency = domain.UrgencyHigh
	}
	ev := envelope(listingID, now, domain.EventCompetitorCollapse, "Competitor collapse: seller count thinning while demand holds", confidence, urgency, windowDaysForUrgency(urgency), supporting, contradicting)
	return &ev
}

// QualityDecayInputs feeds the QualityDecay builder.
type QualityDecayInputs struct {
	NegativeReviewPercentRising bool
	RatingAverageDeclineLast90d float64 // positive = rating dropped
	DefectSeverityRising        bool
	UnansweredQuestionsRising   bool
}

// BuildQualityDecay returns a QualityDecay event iff at least two of its
// signals fire.
func BuildQualityDecay(listingID string, now time.Time, in QualityDecayInputs) *domain.EconomicEvent {
	signals := []Signal{
		{Name: "negative_review_share_rising", Present: true, Supports: in.NegativeReviewPercentRising},
		{Name: "rating_decline>=0.2", Present: true, Supports: in.RatingAverageDeclineLast90d >= 0.2},
		{Name: "defect_severity_rising", Present: true, Supports: in.DefectSeverityRising},
		{Name: "unanswered_questions_rising", Present: true, Supports: in.UnansweredQuestionsRising},
	}

	confidence, supporting, contradicting := classify(signals)
	if len(supporting) < 2 {
		return nil
	}

	ev := envelope(listingID, now, domain.EventQualityDecay, "Quality decay: incumbent's product experience eroding", confidence, domain.UrgencyMedium, windowDaysForUrgency(domain.UrgencyMedium), supporting, contradicting)
	return &ev
}

// DemandSurgeInputs feeds the DemandSurge builder.
type DemandSurgeInputs struct {
	BSRImprovementPct   float64 // negative = improving (rank lower number)
	ReviewVelocityUp    bool
	PriceTrend30dPct    float64
	StockoutRisk        bool
}

// BuildDemandSurge returns a DemandSurge event iff at least two of its
// signals fire.
func BuildDemandSurge(listingID string, now time.Time, in DemandSurgeInputs) *domain.EconomicEvent {
	signals := []Signal{
		{Name: "bsr_improvement>20pct", Present: true, Supports: in.BSRImprovementPct <= -0.20},
		{Name: "review_velocity_up", Present: true, Supports: in.ReviewVelocityUp},
		{Name: "price_trend_rising", Present: true, Supports: in.PriceTrend30dPct > 0},
		{Name: "stockout_risk", Present: true, Supports: in.StockoutRisk},
	}

	confidence, supporting, contradicting := classify(signals)
	if len(supporting) < 2 {
		return nil
	}

	urgency := domain.UrgencyHigh
	if in.StockoutRisk {
		urgency = domain.UrgencyCritical
	}
	ev := envelope(listingID, now, domain.EventDemandSurge, "Demand surge: accelerating sales velocity ahead of supply", confidence, urgency, windowDaysForUrgency(urgency), supporting, contradicting)
	return &ev
}

// PriceElasticityInputs feeds the PriceElasticity builder.
type PriceElasticityInputs struct {
	PriceDroppedRecently bool
	BSRImprovedAfterDrop bool
	MarginStillPositive  bool
	CompetitorsHeldPrice bool
}

// BuildPriceElasticity returns a PriceElasticity event iff at least two of
// its signals fire.
func BuildPriceElasticity(listingID string, now time.Time, in PriceElasticityInputs) *domain.EconomicEvent {
	signals := []Signal{
		{Name: "price_dropped_recently", Present: true, Supports: in.PriceDroppedRecently},
		{Name: "bsr_improved_after_drop", Present: true, Supports: in.BSRImprovedAfterDrop},
		{Name: "margin_still_positive", Present: true, Supports: in.MarginStillPositive},
		{Name: "competitors_held_price", Present: true, Supports: in.CompetitorsHeldPrice},
	}

	confidence, supporting, contradicting := classify(signals)
	if len(supporting) < 2 {
		return nil
	}

	ev := envelope(listingID, now, domain.EventPriceElasticity, "Price elasticity: demand responds strongly to price, margin intact", confidence, domain.UrgencyMedium, windowDaysForUrgency(domain.UrgencyMedium), supporting, contradicting)
	return &ev
}

func urgencyFromStockoutFrequency(stockouts90d int) domain.Urgency {
	switch {
	case stockouts90d >= 6:
		return domain.UrgencyCritical
	case stockouts90d >= 4:
		return domain.UrgencyHigh
	case stockouts90d >= 2:
		return domain.UrgencyMedium
	default:
		return domain.UrgencyLow
	}
}

func windowDaysForUrgency(u domain.Urgency) int {
	switch u {
	case domain.UrgencyCritical:
		return 14
	case domain.UrgencyHigh:
		return 30
	case domain.UrgencyMedium:
		return 60
	default:
		return 120
	}
}
