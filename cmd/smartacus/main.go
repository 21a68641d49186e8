// Command smartacus is the process entry point: loads configuration, wires
// every component, and either runs one scheduler cycle or daemonizes it on
// a cron schedule, grounded on aristath/sentinel's cmd/server/main.go
// startup sequence (config -> logger -> dependency wiring -> run -> signal-
// driven graceful shutdown).
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maous26/smartacus/internal/budget"
	"github.com/maous26/smartacus/internal/catalog"
	"github.com/maous26/smartacus/internal/config"
	"github.com/maous26/smartacus/internal/events"
	"github.com/maous26/smartacus/internal/ingestion"
	"github.com/maous26/smartacus/internal/logger"
	"github.com/maous26/smartacus/internal/pipeline"
	"github.com/maous26/smartacus/internal/scheduler"
	"github.com/maous26/smartacus/internal/scoring"
	"github.com/maous26/smartacus/internal/shortlist"
	"github.com/maous26/smartacus/internal/store"
	"github.com/maous26/smartacus/internal/strategy"
)

func main() {
	daemon := flag.Bool("daemon", false, "run continuously on the configured cron schedule instead of a single cycle")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{Level: "info", Pretty: true})
		fallback.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.DevMode})
	log.Info().Msg("starting smartacus")

	db, err := store.Open(store.Config{Path: cfg.DatabasePath, PoolMin: cfg.DBPoolMin, PoolMax: cfg.DBPoolMax})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()
	persist := store.New(db)

	httpClient := &http.Client{Timeout: time.Duration(cfg.CatalogRequestTimeoutS) * time.Second}
	rawProvider := catalog.NewHTTPProvider(catalog.HTTPProviderConfig{
		BaseURL: cfg.CatalogBaseURL,
		APIKey:  cfg.CatalogAPIKey,
	}, httpClient)

	catalogClient := catalog.NewClient(rawProvider, catalog.Config{
		TokensPerMinute: cfg.CatalogTokensPerMinute,
		MaxRetries:      cfg.CatalogMaxRetries,
		RetryBaseDelay:  time.Duration(cfg.CatalogRetryBaseDelayMS) * time.Millisecond,
		RetryMaxDelay:   time.Duration(cfg.CatalogRetryMaxDelayMS) * time.Millisecond,
		RequestTimeout:  time.Duration(cfg.CatalogRequestTimeoutS) * time.Second,
		MarketplaceID:   cfg.CatalogDomainID,
	}, log)

	budgetMgr := budget.NewManager(persist, budget.Config{
		MonthlyLimit:      cfg.BudgetMonthlyLimit,
		DiscoveryAllocPct: cfg.BudgetDiscoveryAllocPct,
		ScanningAllocPct:  cfg.BudgetScanningAllocPct,
		PerListingCost:    cfg.BudgetPerListingCost,
	})

	ingestionPipeline := ingestion.NewPipeline(catalogClient, persist, log)
	orchestrator := pipeline.NewOrchestrator(
		ingestionPipeline,
		events.NewDetector(),
		scoring.NewScorer(cfg.Scoring),
		scoring.NewEconScorer(cfg.Scoring),
		persist,
		log,
		time.Duration(cfg.SchedulerCycleSoftCeilingM)*time.Minute,
	)

	strategyAgent := strategy.NewAgent(cfg.BudgetPerListingCost)

	cycle := scheduler.NewCycle(budgetMgr, strategyAgent, persist, orchestrator, persist, scheduler.Config{
		MinTokensPerRun:               cfg.SchedulerMinTokensPerRun,
		MaxNichesPerRun:               cfg.SchedulerMaxNichesPerRun,
		MaxListingsNiche:              cfg.SchedulerMaxListingsNiche,
		RunIntervalHours:              cfg.SchedulerRunIntervalHours,
		ConversionActivateThreshold:   0.15,
		ConversionDeactivateThreshold: 0.01,
	}, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Info().Msg("shutdown signal received")
		cancel()
	}()

	if *daemon {
		log.Info().Int("interval_hours", cfg.SchedulerRunIntervalHours).Msg("running in daemon mode")
		if err := scheduler.RunDaemon(ctx, cycle, log, cfg.SchedulerRunIntervalHours); err != nil {
			log.Fatal().Err(err).Msg("daemon run failed")
		}
		return
	}

	outcome, err := cycle.RunOnce(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("scheduler cycle failed")
	}
	if outcome.Skipped {
		log.Info().Str("reason", outcome.SkipReason).Msg("cycle skipped")
		return
	}
	log.Info().Int("niches_scanned", len(outcome.NicheResults)).Msg("cycle complete")

	var allOpportunities []scoring.Opportunity
	for _, result := range outcome.NicheResults {
		allOpportunities = append(allOpportunities, result.Opportunities...)
	}
	entries := shortlist.Generate(allOpportunities, 0)
	for _, e := range entries {
		log.Info().
			Int("rank", e.Rank).
			Str("listing_id", e.ListingID).
			Int("score", e.Score).
			Str("recommendation", e.Recommendation).
			Msg("shortlisted opportunity")
	}
	// Review extraction (C9), improvement aggregation (C10), and spec
	// bundle generation (C11) run per shortlisted listing against the
	// configured review-scraping provider, an external collaborator not
	// wired here (spec §1 Non-goals: "the review-scraping provider").
}
