package catalog

import "time"

// Config configures a Client (spec §6 "Catalog client").
type Config struct {
	TokensPerMinute int
	MaxRetries      int
	RetryBaseDelay  time.Duration
	RetryMaxDelay   time.Duration
	RequestTimeout  time.Duration
	MarketplaceID   int
}

const maxBatchSize = 100
