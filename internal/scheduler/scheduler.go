// Package scheduler implements the scheduler (C13, spec §4.13): a
// single-cycle control loop that checks budget, asks the strategy agent
// for an allocation, runs the pipeline per selected niche, and records
// outcomes. Daemon mode wraps the cycle in a cron-driven sleep-loop;
// cron mode (the default Job contract) runs exactly one cycle and
// returns, matching aristath/sentinel's scheduler.Job shape.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/maous26/smartacus/internal/budget"
	"github.com/maous26/smartacus/internal/domain"
	"github.com/maous26/smartacus/internal/ingestion"
	"github.com/maous26/smartacus/internal/pipeline"
	"github.com/maous26/smartacus/internal/strategy"
)

// NicheRegistry is the persistence contract for niche metrics and
// auto-activation (spec §6 "category-registry").
type NicheRegistry interface {
	ActiveNiches(ctx context.Context) ([]domain.NicheMetrics, error)
	HasCriticalEventLast24h(ctx context.Context, categoryID string) (bool, error)
	RecordNicheOutcome(ctx context.Context, categoryID string, niches, opps int, conversionRate float64) error
	SetActive(ctx context.Context, categoryID string, active bool) error
}

// Config configures a Cycle (spec §6 scheduler defaults).
type Config struct {
	MinTokensPerRun   int
	MaxNichesPerRun   int
	MaxListingsNiche  int
	RunIntervalHours  int
	ConversionActivateThreshold   float64
	ConversionDeactivateThreshold float64
}

// CycleOutcome summarizes one scheduler cycle.
type CycleOutcome struct {
	Skipped       bool
	SkipReason    string
	Decision      strategy.Decision
	NicheResults  map[string]pipeline.CycleResult
}

// RunRecorder persists a per-niche run's lifecycle into pipeline_runs
// (spec §6 "pipeline-runs ... carries per-stage summary"). Optional: a
// nil RunRecorder simply skips run persistence.
type RunRecorder interface {
	SaveRunStart(ctx context.Context, runID, categoryID string, startedAt time.Time) error
	SaveRunResult(ctx context.Context, runID string, result pipeline.CycleResult, completedAt time.Time) error
}

// Cycle is the C13 scheduler, runnable standalone (single cycle) or
// wrapped by a cron schedule for daemon mode.
type Cycle struct {
	budgetMgr    *budget.Manager
	strategyAgt  *strategy.Agent
	registry     NicheRegistry
	orchestrator *pipeline.Orchestrator
	runs         RunRecorder
	cfg          Config
	log          zerolog.Logger
}

// NewCycle builds a Cycle. runs may be nil to skip pipeline_runs
// persistence.
func NewCycle(budgetMgr *budget.Manager, strategyAgt *strategy.Agent, registry NicheRegistry, orchestrator *pipeline.Orchestrator, runs RunRecorder, cfg Config, log zerolog.Logger) *Cycle {
	return &Cycle{
		budgetMgr:    budgetMgr,
		strategyAgt:  strategyAgt,
		registry:     registry,
		orchestrator: orchestrator,
		runs:         runs,
		cfg:          cfg,
		log:          log.With().Str("component", "scheduler").Logger(),
	}
}

// RunOnce executes one scheduler cycle per spec §4.13's five steps,
// returning without running the pipeline at all if the remaining
// monthly budget is below the configured minimum.
func (c *Cycle) RunOnce(ctx context.Context) (CycleOutcome, error) {
	health := CheckHealth()
	c.log.Debug().Float64("mem_used_pct", health.MemUsedPercent).Uint64("mem_available_mb", health.MemAvailableMB).Msg("host health sampled")

	remaining, err := c.remainingTokens(ctx)
	if err != nil {
		return CycleOutcome{}, err
	}
	if remaining < c.cfg.MinTokensPerRun {
		c.log.Info().Int("remaining", remaining).Msg("skipping cycle: insufficient budget")
		return CycleOutcome{Skipped: true, SkipReason: "insufficient monthly budget remaining"}, nil
	}

	dailyBudget, err := c.budgetMgr.DailyBudget(ctx)
	if err != nil {
		return CycleOutcome{}, err
	}
	availableTokens := int(dailyBudget)
	if availableTokens > remaining {
		availableTokens = remaining
	}

	niches, err := c.registry.ActiveNiches(ctx)
	if err != nil {
		return CycleOutcome{}, err
	}

	inputs := make([]strategy.NicheInput, 0, len(niches))
	for _, n := range niches {
		critical, err := c.registry.HasCriticalEventLast24h(ctx, n.CategoryID)
		if err != nil {
			critical = false
		}
		inputs = append(inputs, strategy.NicheInput{Metrics: n, HasCriticalEventLast24h: critical})
	}

	cycleID := cycleIDFor(time.Now())
	decision := c.strategyAgt.Decide(cycleID, availableTokens, inputs)

	outcome := CycleOutcome{Decision: decision, NicheResults: map[string]pipeline.CycleResult{}}

	scanned := 0
	for _, a := range decision.Assessments {
		if a.Action == strategy.ActionPause {
			continue
		}
		if scanned >= c.cfg.MaxNichesPerRun {
			break
		}
		scanned++

		maxListings := a.MaxListings
		if c.cfg.MaxListingsNiche > 0 && maxListings > c.cfg.MaxListingsNiche {
			maxListings = c.cfg.MaxListingsNiche
		}

		runID := cycleID + "-" + a.CategoryID
		runStart := time.Now()
		if c.runs != nil {
			if err := c.runs.SaveRunStart(ctx, runID, a.CategoryID, runStart); err != nil {
				c.log.Warn().Err(err).Str("niche", a.CategoryID).Msg("failed to record run start")
			}
		}

		result := c.orchestrator.Run(ctx, ingestion.Options{
			CategoryNodeID: a.CategoryID,
			MaxListings:    maxListings,
		})
		outcome.NicheResults[a.CategoryID] = result

		if c.runs != nil {
			if err := c.runs.SaveRunResult(ctx, runID, result, time.Now()); err != nil {
				c.log.Warn().Err(err).Str("niche", a.CategoryID).Msg("failed to record run result")
			}
		}

		oppsFound := len(result.Opportunities)
		if err := c.registry.RecordNicheOutcome(ctx, a.CategoryID, 1, oppsFound, conversionRate(oppsFound, maxListings)); err != nil {
			c.log.Warn().Err(err).Str("niche", a.CategoryID).Msg("failed to record niche outcome")
		}
		if err := c.budgetMgr.Reserve(ctx, a.AllocatedTokens, "scanning"); err != nil {
			c.log.Warn().Err(err).Msg("failed to reserve tokens")
		}

		c.autoActivate(ctx, a.CategoryID, conversionRate(oppsFound, maxListings))
	}

	if err := c.budgetMgr.RecordRun(ctx, 0, scanned, totalOpportunities(outcome.NicheResults)); err != nil {
		c.log.Warn().Err(err).Msg("failed to record run")
	}

	return outcome, nil
}

func (c *Cycle) remainingTokens(ctx context.Context) (int, error) {
	b, err := c.budgetMgr.Status(ctx, budget.ForTime(time.Now()))
	if err != nil {
		return 0, err
	}
	return b.TokensRemaining(), nil
}

// autoActivate/deactivates a niche based on trailing conversion-rate
// thresholds (spec §4.13 step 5).
func (c *Cycle) autoActivate(ctx context.Context, categoryID string, rate float64) {
	switch {
	case rate >= c.cfg.ConversionActivateThreshold && c.cfg.ConversionActivateThreshold > 0:
		if err := c.registry.SetActive(ctx, categoryID, true); err != nil {
			c.log.Warn().Err(err).Str("niche", categoryID).Msg("failed to activate niche")
		}
	case rate <= c.cfg.ConversionDeactivateThreshold && c.cfg.ConversionDeactivateThreshold > 0:
		if err := c.registry.SetActive(ctx, categoryID, false); err != nil {
			c.log.Warn().Err(err).Str("niche", categoryID).Msg("failed to deactivate niche")
		}
	}
}

func conversionRate(oppsFound, listingsScanned int) float64 {
	if listingsScanned == 0 {
		return 0
	}
	return float64(oppsFound) / float64(listingsScanned)
}

func totalOpportunities(results map[string]pipeline.CycleResult) int {
	total := 0
	for _, r := range results {
		total += len(r.Opportunities)
	}
	return total
}

func cycleIDFor(t time.Time) string {
	return "cycle-" + t.UTC().Format("20060102T150405") + "-" + uuid.NewString()[:8]
}

// HealthStatus is the host memory sample CheckHealth takes ahead of a
// cycle so a constrained runner can be diagnosed instead of silently
// timing out mid-pipeline (spec §4.13 scheduler health diagnostics).
type HealthStatus struct {
	MemUsedPercent float64
	MemAvailableMB uint64
}

// CheckHealth samples host memory via gopsutil. Errors are swallowed into a
// zero-value HealthStatus; health checks are diagnostic, never blocking.
func CheckHealth() HealthStatus {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return HealthStatus{}
	}
	return HealthStatus{
		MemUsedPercent: vm.UsedPercent,
		MemAvailableMB: vm.Available / (1024 * 1024),
	}
}

// Job adapts Cycle to a cron.Job (robfig/cron/v3), mirroring
// aristath/sentinel's scheduler.Job interface (Run/Name).
type Job struct {
	cycle *Cycle
	log   zerolog.Logger
}

// NewJob builds a cron.Job wrapping cycle.
func NewJob(cycle *Cycle, log zerolog.Logger) *Job {
	return &Job{cycle: cycle, log: log}
}

// Run executes one cycle, logging but not propagating errors — cron
// jobs have no caller to return an error to.
func (j *Job) Run() {
	ctx := context.Background()
	outcome, err := j.cycle.RunOnce(ctx)
	if err != nil {
		j.log.Error().Err(err).Msg("scheduler cycle failed")
		return
	}
	if outcome.Skipped {
		j.log.Info().Str("reason", outcome.SkipReason).Msg("scheduler cycle skipped")
	}
}

// Name identifies this job for cron registration logging.
func (j *Job) Name() string { return "smartacus-cycle" }

// RunDaemon wraps RunOnce in a cron-driven sleep-loop at the configured
// interval, blocking until ctx is canceled (spec §4.13 "daemon mode").
func RunDaemon(ctx context.Context, cycle *Cycle, log zerolog.Logger, intervalHours int) error {
	if intervalHours <= 0 {
		intervalHours = 24
	}
	c := cron.New(cron.WithSeconds())
	job := NewJob(cycle, log)

	spec := fmt.Sprintf("0 0 */%d * * *", intervalHours)
	if _, err := c.AddJob(spec, job); err != nil {
		return err
	}

	c.Start()
	<-ctx.Done()
	stopCtx := c.Stop()
	<-stopCtx.Done()
	return nil
}
