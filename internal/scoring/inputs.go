package scoring

// MarginInputs feeds the Margin component (spec §4.6).
type MarginInputs struct {
	PriceCents          int64
	SourcingCostCents   int64
	ShippingCostCents   int64
	ReferralPercent     float64 // of price
	ReturnRatePercent   float64 // provision, of price
	AdPercentOfRevenue  float64 // provision, of price
	StorageCostCents    int64   // provision, fixed
}

// VelocityInputs feeds the Velocity component.
type VelocityInputs struct {
	CurrentBSR      int
	BSRDelta7dPct   float64 // signed, e.g. -0.20 for -20%
	BSRDelta30dPct  float64
	ReviewsPerMonth float64
}

// CompetitionInputs feeds the Competition component. Buy-box rotation share
// and review-gap-vs-top-10 are accepted as caller-supplied fields; their
// computation is out of scope for the core (spec §9 Open Questions).
type CompetitionInputs struct {
	SellerCount          int
	BuyBoxRotationShare  float64 // [0,1], higher = more contested
	ReviewGapVsTop10     float64 // [0,1], smaller = better
	NoBrandDominance     bool
	PlatformOwnedBrand   bool
}

// GapInputs feeds the Gap component.
type GapInputs struct {
	NegativeReviewPercent float64 // [0,1]
	WishesPer100Reviews   float64
	UnansweredQuestions   int
	RecurringProblems     bool
}

// TimePressureInputs feeds the Time-pressure gate component.
type TimePressureInputs struct {
	StockoutCount90d  int
	PriceTrend30dPct  float64 // signed
	SellerChurn90d    float64 // count or rate, banded
	BSRAcceleration   float64 // second derivative, signed
}

// Inputs bundles every component's inputs for one listing scored at one
// analysis instant.
type Inputs struct {
	ListingID    string
	Margin       MarginInputs
	Velocity     VelocityInputs
	Competition  CompetitionInputs
	Gap          GapInputs
	TimePressure TimePressureInputs
}
