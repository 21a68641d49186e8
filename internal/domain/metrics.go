package domain

import "time"

// AggregatedMetrics is the per-(listing, analysis-date) roll-up consumed by
// the scorer (spec §3/§4.4).
type AggregatedMetrics struct {
	ListingID          string
	AnalysisDate       time.Time
	StockoutCount90d   int
	PriceTrend30dPct   float64
	SellerChurn90d     float64
	BSRAcceleration    float64 // second derivative
	EventCountsByKind  map[string]int
	LastPriceDropAt    *time.Time
	LastStockoutAt     *time.Time
	AvgPriceVolatility float64
	BSRTrend7dPct      float64
	BSRTrend30dPct     float64

	// RatingAverageDeclineLast90d and ReviewVelocityPerMonth feed the
	// quality-decay/demand-surge economic-event builders (spec §4.5);
	// positive decline means the rating average dropped.
	RatingAverageDeclineLast90d float64
	ReviewVelocityPerMonth      float64
	PriceDroppedRecently        bool
}

// NicheMetrics is a category-registry entry's rolling performance used by
// the strategy agent (spec §3 "Niche").
type NicheMetrics struct {
	CategoryID             string
	MarketplaceDomain      int
	Name                   string
	Path                   []string
	Priority               int // 1 = highest, [1,10]
	IsActive               bool
	TotalRuns              int
	TotalOpportunitiesFound int
	ConversionRate         float64
	PriorConversionRate    float64
	LastScannedAt          *time.Time
	TokensUsed             int
	AvgOpportunityScore    float64
	HasCriticalEventLast24h bool
}
