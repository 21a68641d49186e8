package scoring

import (
	"math"
	"time"
)

// UrgencyWeight maps a window class to the ranking weight used for
// rank-score (spec §4.7).
var UrgencyWeight = map[string]float64{
	"critical": 2.0,
	"urgent":   1.5,
	"active":   1.2,
	"standard": 1.0,
	"extended": 0.7,
}

// TimeFactorInputs feeds the four time-multiplier bands (spec §4.7).
type TimeFactorInputs struct {
	StockoutFrequencyPerMonth float64
	SellerChurn               float64 // as a fraction, e.g. 0.25
	PriceVolatility           float64 // as a fraction
	BSRAcceleration           float64 // signed
}

// ValueInputs feeds the monetary value estimate (spec §4.7).
type ValueInputs struct {
	RetailPriceCents       int64
	ActiveSourcingQuoteCents *int64 // nil if no active/unexpired quote
	FixedShippingCents     int64
	PlatformFeePercent     float64
	PlatformFeeFloorCents  int64
	ReferralPercent        float64
	AdProvisionPercent     float64
	ReturnsProvisionPercent float64
	EstimatedMonthlyUnits  float64
	RiskFactor             float64 // default 0.3
}

// Opportunity is the output of the economic scorer (spec §3 "EconomicOpportunity").
type Opportunity struct {
	ListingID             string
	BaseScore             float64 // [0,1]
	TimeMultiplier        float64 // [0.5,2.0]
	FinalScore            int     // [0,100]
	EstimatedMonthlyProfitCents int64
	EstimatedAnnualValueCents   int64
	RiskAdjustedValueCents      int64
	WindowClass           string
	WindowDays            int
	Thesis                string
	RankScore             float64
	Confidence            float64
	DetectedAt            time.Time
	Components            []ComponentScore
}

// EconScorer computes base × time-multiplier and the risk-adjusted monetary
// value (C7). Time-pressure is explicitly NOT a summand here; it enters
// only indirectly via the time-multiplier's factor bands.
type EconScorer struct {
	cfg Config
}

// NewEconScorer builds an EconScorer bound to cfg.
func NewEconScorer(cfg Config) *EconScorer {
	return &EconScorer{cfg: cfg}
}

// BaseScore computes base = (margin+velocity+competition+gap)/90 ∈ [0,1].
// Time-pressure is intentionally excluded from the sum (spec §4.7).
func BaseScore(r Result) float64 {
	sum := 0
	for _, c := range r.Components {
		if c.Name == "time_pressure" {
			continue
		}
		sum += c.Score
	}
	return math.Min(1.0, float64(sum)/90.0)
}

// TimeMultiplier computes the composite geometric-mean multiplier from the
// four factor bands, clamped to [0.5, 2.0] (spec §4.7).
func (s *EconScorer) TimeMultiplier(in TimeFactorInputs) (multiplier float64, windowClass string, confidence float64, factorsHigh int) {
	stockoutFactor := bandStockoutFrequency(in.StockoutFrequencyPerMonth)
	churnFactor := bandSellerChurnFactor(in.SellerChurn)
	volFactor := bandPriceVolatility(in.PriceVolatility)
	accelFactor := bandBSRAccelFactor(in.BSRAcceleration)

	factors := []float64{stockoutFactor, churnFactor, volFactor, accelFactor}
	product := 1.0
	for _, f := range factors {
		product *= f
		if f >= 1.2 {
			factorsHigh++
		}
	}
	geoMean := math.Pow(product, 1.0/float64(len(factors)))

	multiplier = clampFloat(geoMean, s.cfg.TimeMultiplierMin, s.cfg.TimeMultiplierMax)
	windowClass = windowClassForMultiplier(multiplier)
	confidence = 0.5 + 0.125*float64(factorsHigh)

	return multiplier, windowClass, confidence, factorsHigh
}

func bandStockoutFrequency(freq float64) float64 {
	switch {
	case freq >= 3:
		return 1.5
	case freq >= 1:
		return 1.2
	case freq >= 0.5:
		return 1.0
	default:
		return 0.8
	}
}

func bandSellerChurnFactor(churn float64) float64 {
	switch {
	case churn > 0.30:
		return 1.4
	case churn > 0.20:
		return 1.2
	case churn > 0.10:
		return 1.0
	default:
		return 0.8
	}
}

func bandPriceVolatility(vol float64) float64 {
	switch {
	case vol > 0.20:
		return 1.3
	case vol > 0.10:
		return 1.1
	default:
		return 1.0
	}
}

func bandBSRAccelFactor(accel float64) float64 {
	switch {
	case accel > 0.10:
		return 1.4
	case accel > 0:
		return 1.2
	case accel > -0.05:
		return 1.0
	default:
		return 0.8
	}
}

func windowClassForMultiplier(m float64) string {
	switch {
	case m >= 1.8:
		return "critical"
	case m >= 1.4:
		return "urgent"
	case m >= 1.1:
		return "active"
	case m >= 0.9:
		return "standard"
	default:
		return "extended"
	}
}

func windowDaysForClass(class string) int {
	switch class {
	case "critical":
		return 14
	case "urgent":
		return 30
	case "active":
		return 60
	case "standard":
		return 120
	default:
		return 365
	}
}

// Value computes sourcing cost, total unit cost, and the resulting
// monthly/annual/risk-adjusted monetary estimates (spec §4.7).
func Value(in ValueInputs) (monthlyProfitCents, annualCents, riskAdjustedCents int64, sourcingCents int64) {
	if in.ActiveSourcingQuoteCents != nil {
		sourcingCents = *in.ActiveSourcingQuoteCents
	} else {
		sourcingCents = in.RetailPriceCents/5 + in.FixedShippingCents
	}

	price := float64(in.RetailPriceCents)
	platformFeePercentCost := price * in.PlatformFeePercent
	platformFee := math.Max(platformFeePercentCost, float64(in.PlatformFeeFloorCents))
	referral := price * in.ReferralPercent
	ads := price * in.AdProvisionPercent
	returns := price * in.ReturnsProvisionPercent

	totalCost := float64(sourcingCents) + platformFee + referral + ads + returns
	profitPerUnit := math.Max(0, price-totalCost)

	monthlyProfit := profitPerUnit * in.EstimatedMonthlyUnits
	annual := monthlyProfit * 12

	riskFactor := in.RiskFactor
	if riskFactor == 0 {
		riskFactor = 0.3
	}
	riskAdjusted := annual * (1 - riskFactor)

	return int64(math.Round(monthlyProfit)), int64(math.Round(annual)), int64(math.Round(riskAdjusted)), sourcingCents
}

// Score fuses the deterministic ScoringResult with market dynamics into a
// final EconomicOpportunity (spec §4.7). r must be IsValid; callers should
// not call Score on a gated-out result.
func (s *EconScorer) Score(r Result, thesis string, tf TimeFactorInputs, v ValueInputs) Opportunity {
	base := BaseScore(r)
	multiplier, windowClass, confidence, _ := s.TimeMultiplier(tf)

	monthlyProfit, annual, riskAdjusted, _ := Value(v)

	finalScore := int(math.Min(100, math.Round(base*multiplier*100)))
	windowDays := windowDaysForClass(windowClass)

	weight := UrgencyWeight[windowClass]
	if weight == 0 {
		weight = 1.0
	}
	rankScore := float64(riskAdjusted) * weight

	return Opportunity{
		ListingID:                   r.ListingID,
		BaseScore:                   base,
		TimeMultiplier:              multiplier,
		FinalScore:                  finalScore,
		EstimatedMonthlyProfitCents: monthlyProfit,
		EstimatedAnnualValueCents:   annual,
		RiskAdjustedValueCents:      riskAdjusted,
		WindowClass:                 windowClass,
		WindowDays:                  windowDays,
		Thesis:                      thesis,
		RankScore:                   rankScore,
		Confidence:                  confidence,
		Components:                  r.Components,
	}
}

func clampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
