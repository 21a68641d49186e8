// Package pipeline implements the pipeline orchestrator (C14, spec
// §4.14): runs INGEST -> EVENT-DETECT -> SCORE -> PERSIST-OPPORTUNITIES
// -> CLEANUP for one niche, isolating each stage's failures into its own
// StageResult so a broken stage never aborts the cycle.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/maous26/smartacus/internal/domain"
	"github.com/maous26/smartacus/internal/economic"
	"github.com/maous26/smartacus/internal/events"
	"github.com/maous26/smartacus/internal/ingestion"
	"github.com/maous26/smartacus/internal/scoring"
)

// StageName identifies one of the five orchestrated stages.
type StageName string

const (
	StageIngest              StageName = "INGEST"
	StageEventDetect         StageName = "EVENT-DETECT"
	StageScore               StageName = "SCORE"
	StagePersistOpportunities StageName = "PERSIST-OPPORTUNITIES"
	StageCleanup             StageName = "CLEANUP"
)

// StageStatus is a stage's terminal state (spec §4.14).
type StageStatus string

const (
	StatusPending        StageStatus = "pending"
	StatusRunning        StageStatus = "running"
	StatusCompleted      StageStatus = "completed"
	StatusPartialFailure StageStatus = "partial-failure"
	StatusFailed         StageStatus = "failed"
)

// StageResult records one stage's outcome (spec §4.14).
type StageResult struct {
	Name        StageName
	Status      StageStatus
	StartedAt   time.Time
	CompletedAt time.Time
	Metrics     map[string]int
	Errors      []error
}

// CycleResult is the orchestrator's overall output for one cycle.
type CycleResult struct {
	Stages        []StageResult
	Status        StageStatus
	Opportunities []scoring.Opportunity
}

// OpportunityStore persists a cycle's detected events and final
// opportunities (spec §6).
type OpportunityStore interface {
	SaveOpportunities(ctx context.Context, opps []scoring.Opportunity) error
	ListingSnapshots(ctx context.Context, listingID string, limit int) ([]domain.Snapshot, error)
	ListingIDsNeedingScoring(ctx context.Context) ([]string, error)
	SavePriceEvents(ctx context.Context, evs []domain.PriceEvent) error
	SaveBSREvents(ctx context.Context, evs []domain.BSREvent) error
	SaveStockEvents(ctx context.Context, evs []domain.StockEvent) error
	SaveEconomicEvents(ctx context.Context, evs []domain.EconomicEvent) error
}

// Orchestrator runs one niche's full cycle.
type Orchestrator struct {
	ingestionPipeline *ingestion.Pipeline
	detector          *events.Detector
	scorer            *scoring.Scorer
	econScorer        *scoring.EconScorer
	store             OpportunityStore
	log               zerolog.Logger
	now               func() time.Time
	softCeiling       time.Duration
}

// NewOrchestrator builds an Orchestrator.
func NewOrchestrator(
	ingestionPipeline *ingestion.Pipeline,
	detector *events.Detector,
	scorer *scoring.Scorer,
	econScorer *scoring.EconScorer,
	store OpportunityStore,
	log zerolog.Logger,
	softCeiling time.Duration,
) *Orchestrator {
	return &Orchestrator{
		ingestionPipeline: ingestionPipeline,
		detector:          detector,
		scorer:            scorer,
		econScorer:        econScorer,
		store:             store,
		log:               log.With().Str("component", "pipeline").Logger(),
		now:               time.Now,
		softCeiling:       softCeiling,
	}
}

// ListingEconContext provides the per-listing market-dynamics and value
// inputs EVENT-DETECT/SCORE cannot derive from snapshots alone.
type ListingEconContext struct {
	ListingID string
	Thesis    string
	TimeFactor scoring.TimeFactorInputs
	Value      scoring.ValueInputs
	ScoringInputs scoring.Inputs
}

// Run executes the five stages in order for one niche cycle. A stage's
// failure never aborts the cycle; each stage records its own outcome and
// the orchestrator still attempts downstream stages with best-effort
// input (spec §4.14). The listings EVENT-DETECT/SCORE operate on are
// derived internally from the store's scoring backlog, not supplied by
// the caller, so a completed INGEST always feeds the rest of the cycle.
func (o *Orchestrator) Run(ctx context.Context, ingestOpts ingestion.Options) CycleResult {
	var result CycleResult
	cycleStart := o.now()

	ingestStage, ingestResult := o.runIngest(ctx, ingestOpts)
	result.Stages = append(result.Stages, ingestStage)

	listingIDs, err := o.store.ListingIDsNeedingScoring(ctx)
	if err != nil {
		o.log.Warn().Err(err).Msg("failed to load scoring backlog")
	}

	eventStage, econContexts := o.runEventDetect(ctx, listingIDs)
	result.Stages = append(result.Stages, eventStage)

	scoreStage, opps := o.runScore(econContexts)
	result.Stages = append(result.Stages, scoreStage)
	result.Opportunities = opps

	persistStage := o.runPersist(ctx, opps)
	result.Stages = append(result.Stages, persistStage)

	cleanupStage := o.runCleanup(ctx, cycleStart)
	result.Stages = append(result.Stages, cleanupStage)

	_ = ingestResult
	result.Status = overallStatus(result.Stages)
	return result
}

func (o *Orchestrator) runIngest(ctx context.Context, opts ingestion.Options) (StageResult, ingestion.Result) {
	stage := StageResult{Name: StageIngest, StartedAt: o.now(), Metrics: map[string]int{}}

	ingestResult, err := o.ingestionPipeline.Run(ctx, opts)
	stage.CompletedAt = o.now()
	stage.Metrics["discovered"] = ingestResult.Discovered
	stage.Metrics["fetched"] = ingestResult.Fetched
	stage.Metrics["snapshots_inserted"] = ingestResult.SnapshotsInserted
	stage.Metrics["batches_failed"] = ingestResult.BatchesFailed

	if err != nil {
		stage.Status = StatusFailed
		stage.Errors = append(stage.Errors, err)
		return stage, ingestResult
	}

	stage.Errors = append(stage.Errors, ingestResult.Errors...)
	switch {
	case ingestResult.BatchesFailed > 0 && ingestResult.SnapshotsInserted == 0:
		stage.Status = StatusFailed
	case ingestResult.BatchesFailed > 0:
		stage.Status = StatusPartialFailure
	default:
		stage.Status = StatusCompleted
	}
	return stage, ingestResult
}

func (o *Orchestrator) runEventDetect(ctx context.Context, listingIDs []string) (StageResult, []ListingEconContext) {
	stage := StageResult{Name: StageEventDetect, StartedAt: o.now(), Metrics: map[string]int{}}

	var total, economicTotal int
	econContexts := make([]ListingEconContext, 0, len(listingIDs))
	for _, listingID := range listingIDs {
		snapshots, err := o.store.ListingSnapshots(ctx, listingID, 90)
		if err != nil {
			stage.Errors = append(stage.Errors, err)
			continue
		}
		if len(snapshots) < 2 {
			continue
		}
		priceEvs := o.detector.DetectPriceEvents(listingID, snapshots)
		bsrEvs := o.detector.DetectBSREvents(listingID, snapshots)
		stockEvs := o.detector.DetectStockEvents(listingID, snapshots)
		total += len(priceEvs) + len(bsrEvs) + len(stockEvs)

		if err := o.store.SavePriceEvents(ctx, priceEvs); err != nil {
			stage.Errors = append(stage.Errors, err)
		}
		if err := o.store.SaveBSREvents(ctx, bsrEvs); err != nil {
			stage.Errors = append(stage.Errors, err)
		}
		if err := o.store.SaveStockEvents(ctx, stockEvs); err != nil {
			stage.Errors = append(stage.Errors, err)
		}

		metrics := o.detector.Aggregate(listingID, o.now(), snapshots, priceEvs, bsrEvs, stockEvs)

		econEvents := o.buildEconomicEvents(listingID, metrics)
		economicTotal += len(econEvents)
		if len(econEvents) > 0 {
			if err := o.store.SaveEconomicEvents(ctx, econEvents); err != nil {
				stage.Errors = append(stage.Errors, err)
			}
		}

		econContexts = append(econContexts, o.buildEconContext(listingID, snapshots, metrics))
	}
	stage.Metrics["listings_considered"] = len(listingIDs)
	stage.Metrics["events_detected"] = total
	stage.Metrics["economic_events_detected"] = economicTotal
	stage.CompletedAt = o.now()

	if len(stage.Errors) > 0 && total == 0 {
		stage.Status = StatusFailed
	} else if len(stage.Errors) > 0 {
		stage.Status = StatusPartialFailure
	} else {
		stage.Status = StatusCompleted
	}
	return stage, econContexts
}

// buildEconomicEvents runs all five symmetric synthesizers (spec §4.5)
// against one listing's rolled-up metrics, returning every event whose
// creation conditions fired.
func (o *Orchestrator) buildEconomicEvents(listingID string, metrics domain.AggregatedMetrics) []domain.EconomicEvent {
	now := o.now()
	var out []domain.EconomicEvent

	if ev := economic.BuildSupplyShock(listingID, now, economic.SupplyShockInputs{
		StockoutCount90d:  metrics.StockoutCount90d,
		BSRImprovementPct: metrics.BSRTrend30dPct,
		PriceTrend30dPct:  metrics.PriceTrend30dPct,
	}); ev != nil {
		out = append(out, *ev)
	}

	if ev := economic.BuildCompetitorCollapse(listingID, now, economic.CompetitorCollapseInputs{
		SellerChurn90d:    metrics.SellerChurn90d,
		BSRImprovementPct: metrics.BSRTrend30dPct,
		BuyBoxRotationUp:  false, // buy-box-owner history is not observable from snapshots
		PriceTrend30dPct:  metrics.PriceTrend30dPct,
	}); ev != nil {
		out = append(out, *ev)
	}

	if ev := economic.BuildQualityDecay(listingID, now, economic.QualityDecayInputs{
		NegativeReviewPercentRising: metrics.RatingAverageDeclineLast90d > 0,
		RatingAverageDeclineLast90d: metrics.RatingAverageDeclineLast90d,
		DefectSeverityRising:        false, // requires the review extractor (C9), out of orchestrator scope
		UnansweredQuestionsRising:   false,
	}); ev != nil {
		out = append(out, *ev)
	}

	if ev := economic.BuildDemandSurge(listingID, now, economic.DemandSurgeInputs{
		BSRImprovementPct: metrics.BSRTrend30dPct,
		ReviewVelocityUp:  metrics.ReviewVelocityPerMonth >= 10,
		PriceTrend30dPct:  metrics.PriceTrend30dPct,
		StockoutRisk:      metrics.StockoutCount90d > 0,
	}); ev != nil {
		out = append(out, *ev)
	}

	if ev := economic.BuildPriceElasticity(listingID, now, economic.PriceElasticityInputs{
		PriceDroppedRecently: metrics.PriceDroppedRecently,
		BSRImprovedAfterDrop: metrics.PriceDroppedRecently && metrics.BSRTrend30dPct < 0,
		MarginStillPositive:  metrics.PriceTrend30dPct > -0.30, // heuristic floor: margin isn't verified here, a crash-level price drop is
		CompetitorsHeldPrice: false,                            // competitor pricing isn't tracked per-listing
	}); ev != nil {
		out = append(out, *ev)
	}

	return out
}

// buildEconContext derives the per-listing scoring/value inputs SCORE
// needs from snapshot history and rolled-up metrics. Fields that need
// review-derived or seller-account-level data the orchestrator cannot
// observe (buy-box rotation share, review gap vs top-10, wish/unanswered
// counts, ad/referral/return provisions) fall back to neutral defaults or
// the scoring config's assumed rates (spec §9 Open Questions).
func (o *Orchestrator) buildEconContext(listingID string, snapshots []domain.Snapshot, metrics domain.AggregatedMetrics) ListingEconContext {
	cfg := o.scorer.Config()
	latest := snapshots[len(snapshots)-1]

	scoringInputs := scoring.Inputs{
		ListingID: listingID,
		Margin: scoring.MarginInputs{
			PriceCents:         latest.CurrentPriceCents,
			SourcingCostCents:  latest.CurrentPriceCents / 5,
			ShippingCostCents:  cfg.DefaultShippingCents,
			ReferralPercent:    cfg.DefaultReferralPercent,
			ReturnRatePercent:  cfg.DefaultReturnRatePercent,
			AdPercentOfRevenue: cfg.DefaultAdPercentOfRevenue,
		},
		Velocity: scoring.VelocityInputs{
			CurrentBSR:      latest.BSR,
			BSRDelta7dPct:   metrics.BSRTrend7dPct,
			BSRDelta30dPct:  metrics.BSRTrend30dPct,
			ReviewsPerMonth: metrics.ReviewVelocityPerMonth,
		},
		Competition: scoring.CompetitionInputs{
			SellerCount:      latest.SellerCount,
			NoBrandDominance: true, // brand identity isn't carried on Snapshot
		},
		Gap: scoring.GapInputs{
			NegativeReviewPercent: negativeReviewPercentFromRating(latest.RatingAverage),
		},
		TimePressure: scoring.TimePressureInputs{
			StockoutCount90d: metrics.StockoutCount90d,
			PriceTrend30dPct: metrics.PriceTrend30dPct,
			SellerChurn90d:   metrics.SellerChurn90d,
			BSRAcceleration:  metrics.BSRAcceleration,
		},
	}

	timeFactor := scoring.TimeFactorInputs{
		StockoutFrequencyPerMonth: float64(metrics.StockoutCount90d) / 3.0,
		SellerChurn:               metrics.SellerChurn90d,
		PriceVolatility:           metrics.AvgPriceVolatility,
		BSRAcceleration:           metrics.BSRAcceleration,
	}

	value := scoring.ValueInputs{
		RetailPriceCents:        latest.CurrentPriceCents,
		FixedShippingCents:      cfg.DefaultShippingCents,
		PlatformFeePercent:      cfg.PlatformFeePercent,
		PlatformFeeFloorCents:   cfg.PlatformFeeFloorCents,
		ReferralPercent:         cfg.DefaultReferralPercent,
		AdProvisionPercent:      cfg.DefaultAdPercentOfRevenue,
		ReturnsProvisionPercent: cfg.DefaultReturnRatePercent,
		EstimatedMonthlyUnits:   estimatedMonthlyUnitsFromBSR(latest.BSR),
		RiskFactor:              cfg.DefaultRiskFactor,
	}

	thesis := fmt.Sprintf(
		"%s: %d stockouts/90d, BSR trend %.1f%% (30d), price trend %.1f%% (30d)",
		listingID, metrics.StockoutCount90d, metrics.BSRTrend30dPct*100, metrics.PriceTrend30dPct*100,
	)

	return ListingEconContext{
		ListingID:     listingID,
		Thesis:        thesis,
		ScoringInputs: scoringInputs,
		TimeFactor:    timeFactor,
		Value:         value,
	}
}

// negativeReviewPercentFromRating approximates the negative-review share
// from the rating average alone (a 5.0 average implies ~0%, a 1.0 average
// implies ~100%); the precise figure requires per-review data from the
// review extractor (C9).
func negativeReviewPercentFromRating(ratingAverage float64) float64 {
	if ratingAverage <= 0 {
		return 0
	}
	pct := (3.5 - ratingAverage) / 2.5
	if pct < 0 {
		return 0
	}
	if pct > 1 {
		return 1
	}
	return pct
}

// estimatedMonthlyUnitsFromBSR bands a rough unit-sales estimate off
// current BSR. This is a coarse placeholder, not a calibrated
// rank-to-sales model; a real estimator is out of scope here the same
// way buy-box rotation and review-gap inputs are (spec §9 Open Questions).
func estimatedMonthlyUnitsFromBSR(bsr int) float64 {
	switch {
	case bsr <= 0:
		return 0
	case bsr <= 1000:
		return 900
	case bsr <= 5000:
		return 300
	case bsr <= 20000:
		return 90
	case bsr <= 50000:
		return 40
	case bsr <= 100000:
		return 15
	default:
		return 5
	}
}

func (o *Orchestrator) runScore(econContexts []ListingEconContext) (StageResult, []scoring.Opportunity) {
	stage := StageResult{Name: StageScore, StartedAt: o.now(), Metrics: map[string]int{}}

	var opps []scoring.Opportunity
	var gated, failed int
	for _, ec := range econContexts {
		func() {
			defer func() {
				if r := recover(); r != nil {
					failed++
				}
			}()
			result := o.scorer.Score(ec.ScoringInputs)
			if !result.IsValid {
				gated++
				return
			}
			opp := o.econScorer.Score(result, ec.Thesis, ec.TimeFactor, ec.Value)
			opp.DetectedAt = o.now()
			opps = append(opps, opp)
		}()
	}

	stage.Metrics["scored"] = len(opps)
	stage.Metrics["gated_invalid"] = gated
	stage.Metrics["failed"] = failed
	stage.CompletedAt = o.now()

	switch {
	case failed > 0 && len(opps) == 0:
		stage.Status = StatusFailed
	case failed > 0:
		stage.Status = StatusPartialFailure
	default:
		stage.Status = StatusCompleted
	}
	return stage, opps
}

func (o *Orchestrator) runPersist(ctx context.Context, opps []scoring.Opportunity) StageResult {
	stage := StageResult{Name: StagePersistOpportunities, StartedAt: o.now(), Metrics: map[string]int{"persisted": len(opps)}}

	err := o.store.SaveOpportunities(ctx, opps)
	stage.CompletedAt = o.now()
	if err != nil {
		stage.Status = StatusFailed
		stage.Errors = append(stage.Errors, err)
		return stage
	}
	stage.Status = StatusCompleted
	return stage
}

func (o *Orchestrator) runCleanup(ctx context.Context, cycleStart time.Time) StageResult {
	stage := StageResult{Name: StageCleanup, StartedAt: o.now(), Metrics: map[string]int{}}

	elapsed := o.now().Sub(cycleStart)
	stage.Metrics["cycle_seconds"] = int(elapsed.Seconds())
	stage.CompletedAt = o.now()

	if o.softCeiling > 0 && elapsed > o.softCeiling {
		stage.Status = StatusFailed
		stage.Errors = append(stage.Errors, context.DeadlineExceeded)
		return stage
	}
	stage.Status = StatusCompleted
	return stage
}

// overallStatus derives the cycle's status from its stages (spec §4.14):
// failed if any stage is failed in a way that voids downstream data
// (ingest or persist failing outright), partial-failure if any other stage
// failed or any stage reported partial-failure, else completed.
func overallStatus(stages []StageResult) StageStatus {
	anyPartial := false
	for _, s := range stages {
		if s.Status == StatusFailed && (s.Name == StageIngest || s.Name == StagePersistOpportunities) {
			return StatusFailed
		}
		if s.Status == StatusFailed || s.Status == StatusPartialFailure {
			anyPartial = true
		}
	}
	if anyPartial {
		return StatusPartialFailure
	}
	return StatusCompleted
}
