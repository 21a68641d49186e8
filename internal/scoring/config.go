// Package scoring implements the deterministic five-component opportunity
// scorer (C6, spec §4.6) and the economic re-scorer (C7, spec §4.7).
//
// All thresholds live in an immutable Config, built once at startup and
// never mutated at runtime (spec Design Notes: "Dynamic config/kwargs
// objects ... replace with explicit configuration records"). Integer
// arithmetic is used for component sub-scores; floating point only for
// ratios and percentages, per spec §4.6.
package scoring

import "github.com/maous26/smartacus/internal/apperr"

// Config holds every banding threshold and weight used by C6/C7. It is
// built once via DefaultConfig and validated at startup; ValidationError is
// terminal (spec §7).
type Config struct {
	// Margin bands (spec §4.6)
	MarginExceptionalPct float64 // >= -> 30
	MarginStrongPct      float64 // >= -> 20
	MarginModeratePct    float64 // >= -> 10

	// Velocity sub-score maxima
	VelocityBSRAbsMax     int
	VelocityBSR7dMax      int
	VelocityBSR30dMax     int
	VelocityReviewsMax    int
	VelocityStagnancyPenalty int
	VelocityMax           int

	// Competition sub-score maxima
	CompetitionSellerMax     int
	CompetitionBuyBoxMax     int
	CompetitionReviewGapMax  int
	CompetitionBonusNoBrand  int
	CompetitionMaluspPlatform int
	CompetitionMax           int

	// Gap sub-score maxima
	GapNegReviewMax    int
	GapWishMax         int
	GapUnansweredMax   int
	GapRecurringMultiplier float64
	GapMax             int

	// Time-pressure sub-score maxima and the hard gate
	TimePressureStockoutMax int
	TimePressurePriceMax    int
	TimePressureChurnMax    int
	TimePressureBSRAccelMax int
	TimePressureMax         int
	TimePressureGate        int // < this => invalid-no-window

	// Status bands (total score, when valid)
	StatusExceptional int
	StatusStrong      int
	StatusModerate    int
	StatusWeak        int

	// Economic scorer (C7)
	TimeMultiplierMin float64
	TimeMultiplierMax float64
	DefaultRiskFactor float64
	PlatformFeePercent float64
	PlatformFeeFloorCents int64
	DefaultShippingCents  int64

	// Defaults for margin/value provisions the orchestrator cannot derive
	// from snapshot history alone (ad spend, return rate, referral fee are
	// seller-account-level inputs, not listing-observable ones).
	DefaultReferralPercent    float64
	DefaultReturnRatePercent  float64
	DefaultAdPercentOfRevenue float64
}

// Config returns the scorer's full banding config. Exported so the orchestrator
// can derive ListingEconContext without duplicating threshold values.
func (s *Scorer) Config() Config { return s.cfg }

// Config returns the economic-scorer config, mirroring Scorer.Config.
func (s *EconScorer) Config() Config { return s.cfg }

// DefaultConfig returns the spec-mandated banding configuration.
func DefaultConfig() Config {
	return Config{
		MarginExceptionalPct: 0.35,
		MarginStrongPct:      0.25,
		MarginModeratePct:    0.15,

		VelocityBSRAbsMax:        10,
		VelocityBSR7dMax:         8,
		VelocityBSR30dMax:        4,
		VelocityReviewsMax:       3,
		VelocityStagnancyPenalty: 3,
		VelocityMax:              25,

		CompetitionSellerMax:      8,
		CompetitionBuyBoxMax:      6,
		CompetitionReviewGapMax:   6,
		CompetitionBonusNoBrand:   2,
		CompetitionMaluspPlatform: 4,
		CompetitionMax:            20,

		GapNegReviewMax:        6,
		GapWishMax:             5,
		GapUnansweredMax:       4,
		GapRecurringMultiplier: 1.3,
		GapMax:                 15,

		TimePressureStockoutMax: 3,
		TimePressurePriceMax:    3,
		TimePressureChurnMax:    2,
		TimePressureBSRAccelMax: 2,
		TimePressureMax:         10,
		TimePressureGate:        3,

		StatusExceptional: 85,
		StatusStrong:      70,
		StatusModerate:    55,
		StatusWeak:        40,

		TimeMultiplierMin:     0.5,
		TimeMultiplierMax:     2.0,
		DefaultRiskFactor:     0.3,
		PlatformFeePercent:    0.15,
		PlatformFeeFloorCents: 30,
		DefaultShippingCents:  200,

		DefaultReferralPercent:    0.08,
		DefaultReturnRatePercent:  0.03,
		DefaultAdPercentOfRevenue: 0.06,
	}
}

// Validate checks the config's internal consistency. The five component
// maxima must sum to 100 (spec §4.6: "Five additive components totaling
// 100 points").
func (c Config) Validate() error {
	total := c.VelocityMax + c.CompetitionMax + c.GapMax + c.TimePressureMax + 30 // margin max is fixed at 30
	if total != 100 {
		return apperr.New(apperr.KindValidationError, "scoring component maxima must sum to 100")
	}
	if c.TimeMultiplierMin <= 0 || c.TimeMultiplierMax <= c.TimeMultiplierMin {
		return apperr.New(apperr.KindValidationError, "invalid time-multiplier bounds")
	}
	return nil
}
