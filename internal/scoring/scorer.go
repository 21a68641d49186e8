package scoring

import (
	"fmt"
	"math"
)

// Scorer computes the deterministic five-component score (C6). It holds no
// mutable state beyond its immutable Config, so a single instance is safe
// to share across goroutines.
type Scorer struct {
	cfg Config
}

// NewScorer builds a Scorer bound to cfg. cfg is never mutated afterward.
func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score evaluates in.ListingID against all five components and applies the
// mandatory time-pressure gate (spec §4.6). The gate takes precedence over
// total-score banding: time-pressure < gate threshold always yields
// invalid-no-window, regardless of how high the other components scored.
func (s *Scorer) Score(in Inputs) Result {
	margin := s.scoreMargin(in.Margin)
	velocity := s.scoreVelocity(in.Velocity)
	competition := s.scoreCompetition(in.Competition)
	gap := s.scoreGap(in.Gap)
	timePressure := s.scoreTimePressure(in.TimePressure)

	components := []ComponentScore{margin, velocity, competition, gap, timePressure}
	total := 0
	for _, c := range components {
		total += c.Score
	}

	window := windowForTimePressure(timePressure.Score)

	result := Result{
		ListingID:  in.ListingID,
		Total:      total,
		Components: components,
		Window:     window,
	}

	if timePressure.Score < s.cfg.TimePressureGate {
		result.IsValid = false
		result.Status = StatusInvalidNoWindow
		result.RejectionReason = fmt.Sprintf(
			"Time Pressure score %d is below the minimum threshold of %d; no actionable window detected",
			timePressure.Score, s.cfg.TimePressureGate,
		)
		return result
	}

	result.IsValid = true
	result.Status = statusForTotal(total, s.cfg)
	return result
}

func statusForTotal(total int, cfg Config) Status {
	switch {
	case total >= cfg.StatusExceptional:
		return StatusExceptional
	case total >= cfg.StatusStrong:
		return StatusStrongResult
	case total >= cfg.StatusModerate:
		return StatusModerateResult
	case total >= cfg.StatusWeak:
		return StatusWeakResult
	default:
		return StatusRejected
	}
}

func windowForTimePressure(tp int) WindowEstimate {
	switch {
	case tp >= 9:
		return WindowEstimate{Label: "critical", Days: 14}
	case tp >= 7:
		return WindowEstimate{Label: "urgent", Days: 30}
	case tp >= 5:
		return WindowEstimate{Label: "short", Days: 60}
	case tp >= 3:
		return WindowEstimate{Label: "medium", Days: 120}
	default:
		return WindowEstimate{Label: "no window", Days: 0}
	}
}

// scoreMargin bands net-margin = (price - total-cost)/price (spec §4.6).
func (s *Scorer) scoreMargin(in MarginInputs) ComponentScore {
	cfg := s.cfg
	if in.PriceCents <= 0 {
		return ComponentScore{Name: "margin", Max: 30, Score: 0, SubScores: map[string]float64{"net_margin_pct": 0}, Explanation: "no price data"}
	}

	price := float64(in.PriceCents)
	platformFeePercentCost := price * cfg.PlatformFeePercent
	platformFee := math.Max(platformFeePercentCost, float64(cfg.PlatformFeeFloorCents))
	referral := price * in.ReferralPercent
	returns := price * in.ReturnRatePercent
	ads := price * in.AdPercentOfRevenue
	totalCost := float64(in.SourcingCostCents) + float64(in.ShippingCostCents) + platformFee + referral + returns + ads + float64(in.StorageCostCents)

	netMargin := (price - totalCost) / price

	var score int
	switch {
	case netMargin >= cfg.MarginExceptionalPct:
		score = 30
	case netMargin >= cfg.MarginStrongPct:
		score = 20
	case netMargin >= cfg.MarginModeratePct:
		score = 10
	default:
		score = 0
	}

	return ComponentScore{
		Name:  "margin",
		Max:   30,
		Score: score,
		SubScores: map[string]float64{
			"net_margin_pct": netMargin,
			"total_cost":     totalCost,
		},
		Explanation: fmt.Sprintf("net margin %.1f%% -> %d/30", netMargin*100, score),
	}
}

// scoreVelocity combines BSR-absolute, Δ7d, Δ30d, and reviews/month
// sub-scores, then applies the stagnancy penalty (spec §4.6).
func (s *Scorer) scoreVelocity(in VelocityInputs) ComponentScore {
	cfg := s.cfg

	bsrAbs := bandBSRAbsolute(in.CurrentBSR, cfg.VelocityBSRAbsMax)
	bsr7d := bandSignedPercent(in.BSRDelta7dPct, cfg.VelocityBSR7dMax, true)
	bsr30d := bandSignedPercent(in.BSRDelta30dPct, cfg.VelocityBSR30dMax, true)
	reviews := bandReviewsPerMonth(in.ReviewsPerMonth, cfg.VelocityReviewsMax)

	score := bsrAbs + bsr7d + bsr30d + reviews

	stagnant := math.Abs(in.BSRDelta7dPct) < 0.05 && math.Abs(in.BSRDelta30dPct) < 0.10 && in.ReviewsPerMonth < 5
	if stagnant {
		score -= cfg.VelocityStagnancyPenalty
	}

	score = clamp(score, 0, cfg.VelocityMax)

	return ComponentScore{
		Name:  "velocity",
		Max:   cfg.VelocityMax,
		Score: score,
		SubScores: map[string]float64{
			"bsr_absolute":   float64(bsrAbs),
			"bsr_delta_7d":   float64(bsr7d),
			"bsr_delta_30d":  float64(bsr30d),
			"reviews_per_month": float64(reviews),
			"stagnancy_penalty": boolToFloat(stagnant) * float64(cfg.VelocityStagnancyPenalty),
		},
		Explanation: fmt.Sprintf("velocity sub-scores sum to %d/%d (stagnant=%v)", score, cfg.VelocityMax, stagnant),
	}
}

func bandBSRAbsolute(bsr int, max int) int {
	// Lower BSR is better (smaller rank number = more sales).
	switch {
	case bsr <= 0:
		return 0
	case bsr <= 5000:
		return max
	case bsr <= 20000:
		return int(math.Round(float64(max) * 0.8))
	case bsr <= 50000:
		return int(math.Round(float64(max) * 0.6))
	case bsr <= 100000:
		return int(math.Round(float64(max) * 0.4))
	case bsr <= 250000:
		return int(math.Round(float64(max) * 0.2))
	default:
		return 0
	}
}

// bandSignedPercent bands a signed percentage delta. Improving (negative
// BSR delta) scores higher when improvingIsNegative is true.
func bandSignedPercent(pct float64, max int, improvingIsNegative bool) int {
	signed := pct
	if improvingIsNegative {
		signed = -pct
	}
	switch {
	case signed >= 0.20:
		return max
	case signed >= 0.10:
		return int(math.Round(float64(max) * 0.75))
	case signed >= 0.0:
		return int(math.Round(float64(max) * 0.5))
	case signed >= -0.10:
		return int(math.Round(float64(max) * 0.25))
	default:
		return 0
	}
}

func bandReviewsPerMonth(perMonth float64, max int) int {
	switch {
	case perMonth >= 20:
		return max
	case perMonth >= 10:
		return int(math.Round(float64(max) * 0.66))
	case perMonth >= 5:
		return int(math.Round(float64(max) * 0.33))
	default:
		return 0
	}
}

// scoreCompetition scores seller count, buy-box rotation, and review gap,
// then applies the brand bonus/malus (spec §4.6).
func (s *Scorer) scoreCompetition(in CompetitionInputs) ComponentScore {
	cfg := s.cfg

	sellerScore := bandSellerCount(in.SellerCount, cfg.CompetitionSellerMax)
	buyBoxScore := int(math.Round(in.BuyBoxRotationShare * float64(cfg.CompetitionBuyBoxMax)))
	reviewGapScore := int(math.Round((1 - in.ReviewGapVsTop10) * float64(cfg.CompetitionReviewGapMax)))

	score := sellerScore + buyBoxScore + reviewGapScore
	if in.NoBrandDominance {
		score += cfg.CompetitionBonusNoBrand
	}
	if in.PlatformOwnedBrand {
		score -= cfg.CompetitionMaluspPlatform
	}
	score = clamp(score, 0, cfg.CompetitionMax)

	return ComponentScore{
		Name:  "competition",
		Max:   cfg.CompetitionMax,
		Score: score,
		SubScores: map[string]float64{
			"seller_count":    float64(sellerScore),
			"buy_box_rotation": float64(buyBoxScore),
			"review_gap":      float64(reviewGapScore),
		},
		Explanation: fmt.Sprintf("competition sub-scores sum to %d/%d", score, cfg.CompetitionMax),
	}
}

func bandSellerCount(sellers int, max int) int {
	switch {
	case sellers <= 2:
		return max
	case sellers <= 5:
		return int(math.Round(float64(max) * 0.75))
	case sellers <= 10:
		return int(math.Round(float64(max) * 0.5))
	case sellers <= 20:
		return int(math.Round(float64(max) * 0.25))
	default:
		return 0
	}
}

// scoreGap scores negative-review %, wish mentions, and unanswered
// questions, then applies the recurring-problems multiplier (spec §4.6).
func (s *Scorer) scoreGap(in GapInputs) ComponentScore {
	cfg := s.cfg

	negScore := float64(cfg.GapNegReviewMax) * math.Min(1, in.NegativeReviewPercent/0.30)
	wishScore := float64(cfg.GapWishMax) * math.Min(1, in.WishesPer100Reviews/10.0)
	unansweredScore := float64(cfg.GapUnansweredMax) * math.Min(1, float64(in.UnansweredQuestions)/20.0)

	total := negScore + wishScore + unansweredScore
	if in.RecurringProblems {
		total *= cfg.GapRecurringMultiplier
	}
	score := clamp(int(math.Round(total)), 0, cfg.GapMax)

	return ComponentScore{
		Name:  "gap",
		Max:   cfg.GapMax,
		Score: score,
		SubScores: map[string]float64{
			"negative_review_pct": negScore,
			"wish_mentions":       wishScore,
			"unanswered":          unansweredScore,
		},
		Explanation: fmt.Sprintf("gap sub-scores sum to %d/%d (recurring=%v)", score, cfg.GapMax, in.RecurringProblems),
	}
}

// scoreTimePressure is the mandatory gate component (spec §4.6).
func (s *Scorer) scoreTimePressure(in TimePressureInputs) ComponentScore {
	cfg := s.cfg

	stockoutScore := bandStockouts(in.StockoutCount90d, cfg.TimePressureStockoutMax)
	priceScore := bandPriceTrend(in.PriceTrend30dPct, cfg.TimePressurePriceMax)
	churnScore := bandChurn(in.SellerChurn90d, cfg.TimePressureChurnMax)
	accelScore := bandBSRAcceleration(in.BSRAcceleration, cfg.TimePressureBSRAccelMax)

	score := clamp(stockoutScore+priceScore+churnScore+accelScore, 0, cfg.TimePressureMax)

	return ComponentScore{
		Name:  "time_pressure",
		Max:   cfg.TimePressureMax,
		Score: score,
		SubScores: map[string]float64{
			"stockouts_90d": float64(stockoutScore),
			"price_trend_30d": float64(priceScore),
			"seller_churn_90d": float64(churnScore),
			"bsr_acceleration": float64(accelScore),
		},
		Explanation: fmt.Sprintf("time-pressure sub-scores sum to %d/%d", score, cfg.TimePressureMax),
	}
}

func bandStockouts(count int, max int) int {
	switch {
	case count >= 3:
		return max
	case count == 2:
		return int(math.Round(float64(max) * 0.66))
	case count == 1:
		return int(math.Round(float64(max) * 0.33))
	default:
		return 0
	}
}

// bandPriceTrend can go negative: a rising price (positive trend) signals
// pressure on supply, a falling price signals weakening demand.
func bandPriceTrend(trend float64, max int) int {
	switch {
	case trend >= 0.10:
		return max
	case trend >= 0.0:
		return int(math.Round(float64(max) * 0.5))
	case trend >= -0.10:
		return 0
	default:
		return -int(math.Round(float64(max) * 0.5))
	}
}

func bandChurn(churn float64, max int) int {
	switch {
	case churn >= 2:
		return max
	case churn >= 1:
		return int(math.Round(float64(max) * 0.5))
	default:
		return 0
	}
}

func bandBSRAcceleration(accel float64, max int) int {
	switch {
	case accel >= 0.10:
		return max
	case accel >= 0.05:
		return int(math.Round(float64(max) * 0.5))
	default:
		return 0
	}
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
