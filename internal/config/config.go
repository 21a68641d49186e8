// Package config loads and validates process configuration (spec §6).
//
// Every option is an explicit typed field populated from environment
// variables with a documented default — no dynamic kwargs object, no
// runtime-extensible config. Unknown env vars are ignored; known ones are
// parsed with getEnv/getEnvAsInt/getEnvAsFloat/getEnvAsBool, matching
// aristath/sentinel's internal/config style.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/maous26/smartacus/internal/apperr"
	"github.com/maous26/smartacus/internal/scoring"
)

// Config is the full process configuration surface.
type Config struct {
	// Catalog client (C1)
	CatalogTokensPerMinute  int
	CatalogMaxRetries       int
	CatalogRetryBaseDelayMS int
	CatalogRetryMaxDelayMS  int
	CatalogRequestTimeoutS  int
	CatalogDomainID         int
	CatalogAPIKey           string
	CatalogBaseURL          string

	// Review provider polling
	ReviewPollMaxWaitS int
	ReviewPollIntervalS int

	// Ingestion (C3)
	IngestionBatchSize        int
	IngestionFreshnessHours   int
	IngestionTargetListings   int
	IngestionMinPriceCents    int64
	IngestionMaxPriceCents    int64
	IngestionMinReviews       int
	IngestionMinRating        float64
	IngestionMaxBSR           int

	// Budget (C2)
	BudgetMonthlyLimit       int
	BudgetPerListingCost     int
	BudgetPerDiscoveryCost   int
	BudgetDiscoveryAllocPct  float64
	BudgetScanningAllocPct   float64

	// Scheduler (C13)
	SchedulerRunIntervalHours int
	SchedulerMinTokensPerRun  int
	SchedulerMaxNichesPerRun  int
	SchedulerMaxListingsNiche int
	SchedulerCycleSoftCeilingM int

	// Store (§6)
	DatabasePath string
	DBPoolMin    int
	DBPoolMax    int

	// Logging
	LogLevel string
	DevMode  bool

	// Scoring config (immutable, §4.6/§4.7)
	Scoring scoring.Config
}

// Load reads configuration from environment variables (and an optional .env file).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		CatalogTokensPerMinute:  getEnvAsInt("CATALOG_TOKENS_PER_MINUTE", 200),
		CatalogMaxRetries:       getEnvAsInt("CATALOG_MAX_RETRIES", 3),
		CatalogRetryBaseDelayMS: getEnvAsInt("CATALOG_RETRY_BASE_DELAY_MS", 1000),
		CatalogRetryMaxDelayMS:  getEnvAsInt("CATALOG_RETRY_MAX_DELAY_MS", 60000),
		CatalogRequestTimeoutS:  getEnvAsInt("CATALOG_REQUEST_TIMEOUT_S", 120),
		CatalogDomainID:         getEnvAsInt("CATALOG_MARKETPLACE_DOMAIN_ID", 1),
		CatalogAPIKey:           getEnv("CATALOG_API_KEY", ""),
		CatalogBaseURL:          getEnv("CATALOG_BASE_URL", "https://api.keepa.com"),

		ReviewPollMaxWaitS:  getEnvAsInt("REVIEW_POLL_MAX_WAIT_S", 120),
		ReviewPollIntervalS: getEnvAsInt("REVIEW_POLL_INTERVAL_S", 3),

		IngestionBatchSize:      getEnvAsInt("INGESTION_BATCH_SIZE", 100),
		IngestionFreshnessHours: getEnvAsInt("INGESTION_FRESHNESS_HOURS", 24),
		IngestionTargetListings: getEnvAsInt("INGESTION_TARGET_LISTING_COUNT", 10000),
		IngestionMinPriceCents:  int64(getEnvAsInt("INGESTION_MIN_PRICE_CENTS", 500)),
		IngestionMaxPriceCents:  int64(getEnvAsInt("INGESTION_MAX_PRICE_CENTS", 10000)),
		IngestionMinReviews:     getEnvAsInt("INGESTION_MIN_REVIEWS", 10),
		IngestionMinRating:      getEnvAsFloat("INGESTION_MIN_RATING", 3.0),
		IngestionMaxBSR:         getEnvAsInt("INGESTION_MAX_BSR", 500000),

		BudgetMonthlyLimit:      getEnvAsInt("BUDGET_MONTHLY_LIMIT", 900000),
		BudgetPerListingCost:    getEnvAsInt("BUDGET_PER_LISTING_COST", 2),
		BudgetPerDiscoveryCost:  getEnvAsInt("BUDGET_PER_DISCOVERY_COST", 5),
		BudgetDiscoveryAllocPct: getEnvAsFloat("BUDGET_DISCOVERY_ALLOC_PCT", 0.2),
		BudgetScanningAllocPct:  getEnvAsFloat("BUDGET_SCANNING_ALLOC_PCT", 0.8),

		SchedulerRunIntervalHours:  getEnvAsInt("SCHEDULER_RUN_INTERVAL_HOURS", 24),
		SchedulerMinTokensPerRun:   getEnvAsInt("SCHEDULER_MIN_TOKENS_PER_RUN", 50),
		SchedulerMaxNichesPerRun:   getEnvAsInt("SCHEDULER_MAX_NICHES_PER_RUN", 5),
		SchedulerMaxListingsNiche:  getEnvAsInt("SCHEDULER_MAX_LISTINGS_PER_NICHE", 100),
		SchedulerCycleSoftCeilingM: getEnvAsInt("SCHEDULER_CYCLE_SOFT_CEILING_MINUTES", 120),

		DatabasePath: getEnv("DATABASE_PATH", "./data/smartacus.db"),
		DBPoolMin:    getEnvAsInt("DATABASE_POOL_MIN", 2),
		DBPoolMax:    getEnvAsInt("DATABASE_POOL_MAX", 10),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		DevMode:  getEnvAsBool("DEV_MODE", false),

		Scoring: scoring.DefaultConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks process-startup invariants. Failures here are terminal
// (apperr.KindValidationError) and must never surface at runtime.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return apperr.New(apperr.KindValidationError, "DATABASE_PATH is required")
	}
	if c.BudgetMonthlyLimit <= 0 {
		return apperr.New(apperr.KindValidationError, "BUDGET_MONTHLY_LIMIT must be positive")
	}
	if c.CatalogTokensPerMinute <= 0 {
		return apperr.New(apperr.KindValidationError, "CATALOG_TOKENS_PER_MINUTE must be positive")
	}
	if err := c.Scoring.Validate(); err != nil {
		return apperr.Wrap(apperr.KindValidationError, "scoring config invalid", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
