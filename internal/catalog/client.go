package catalog

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/maous26/smartacus/internal/apperr"
)

// Client is the rate-limited, retrying wrapper around a RawProvider (C1,
// spec §4.1). It owns no transport details itself; those live behind
// RawProvider so the concrete marketplace API can be swapped without
// touching rate-limiting, retry, or transform logic.
type Client struct {
	provider RawProvider
	bucket   *bucket
	cfg      Config
	log      zerolog.Logger
	now      func() time.Time
}

// NewClient builds a Client bound to provider, rate-limited per cfg.
func NewClient(provider RawProvider, cfg Config, log zerolog.Logger) *Client {
	return &Client{
		provider: provider,
		bucket:   newBucket(cfg.TokensPerMinute),
		cfg:      cfg,
		log:      log.With().Str("component", "catalog").Logger(),
		now:      time.Now,
	}
}

// TokensRemaining reports the last server-reported remaining token count.
func (c *Client) TokensRemaining() int {
	return c.bucket.Remaining()
}

// Health proxies the provider's health check, retried like any other call.
func (c *Client) Health(ctx context.Context) error {
	_, err := withRetry(ctx, c.cfg, c.log, "health", func() (struct{}, error) {
		return struct{}{}, c.provider.Health(ctx)
	})
	return err
}

// FetchProducts retrieves ids in batches of at most 100, concatenating
// results in request order (spec §4.1: "id lists longer than 100 are
// split client-side; sub-results concatenated in request order").
func (c *Client) FetchProducts(ctx context.Context, ids []string, opts FetchOptions) ([]ProductData, error) {
	out := make([]ProductData, 0, len(ids))
	sessionID := newSessionID(c.now())

	for start := 0; start < len(ids); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		cost := opts.EstimatedTokenCost() * len(batch)
		if err := c.bucket.Reserve(ctx, cost); err != nil {
			return out, err
		}

		resp, err := withRetry(ctx, c.cfg, c.log, "fetch_products", func() (RawBatchResponse, error) {
			return c.provider.FetchProducts(ctx, batch, opts)
		})
		if err != nil {
			return out, err
		}
		c.bucket.Reconcile(resp.TokensLeft)

		capturedAt := c.now()
		for _, raw := range resp.Products {
			out = append(out, transform(raw, capturedAt, sessionID))
		}
	}

	return out, nil
}

// CategoryListings discovers listing ids under nodeID.
func (c *Client) CategoryListings(ctx context.Context, nodeID string, includeChildren bool, maxResults int) ([]string, error) {
	if err := c.bucket.Reserve(ctx, 1); err != nil {
		return nil, err
	}
	resp, err := withRetry(ctx, c.cfg, c.log, "category_listings", func() (RawIDsResponse, error) {
		return c.provider.CategoryListings(ctx, nodeID, includeChildren, maxResults)
	})
	if err != nil {
		return nil, err
	}
	c.bucket.Reconcile(resp.TokensLeft)
	return resp.IDs, nil
}

// BestSellers discovers the top-N best-selling listing ids under nodeID.
func (c *Client) BestSellers(ctx context.Context, nodeID string, topN int) ([]string, error) {
	if err := c.bucket.Reserve(ctx, 1); err != nil {
		return nil, err
	}
	resp, err := withRetry(ctx, c.cfg, c.log, "best_sellers", func() (RawIDsResponse, error) {
		return c.provider.BestSellers(ctx, nodeID, topN)
	})
	if err != nil {
		return nil, err
	}
	c.bucket.Reconcile(resp.TokensLeft)
	return resp.IDs, nil
}

// Search discovers listing ids matching keywords within bounds.
func (c *Client) Search(ctx context.Context, keywords []string, bounds SearchBounds, maxResults int) ([]string, error) {
	if err := c.bucket.Reserve(ctx, 1); err != nil {
		return nil, err
	}
	resp, err := withRetry(ctx, c.cfg, c.log, "search", func() (RawIDsResponse, error) {
		return c.provider.Search(ctx, keywords, bounds, maxResults)
	})
	if err != nil {
		return nil, err
	}
	c.bucket.Reconcile(resp.TokensLeft)
	return resp.IDs, nil
}

// withRetry runs call under the three retry classes from spec §4.1/§7:
// auth failures are terminal and never retried; rate-limit/throttle
// responses and transport errors back off exponentially up to
// MaxRetries, after which the last cause is wrapped as FetchError.
func withRetry[T any](ctx context.Context, cfg Config, log zerolog.Logger, op string, call func() (T, error)) (T, error) {
	var zero T
	delay := cfg.RetryBaseDelay
	if delay <= 0 {
		delay = time.Second
	}

	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		result, err := call()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if apperr.Is(err, apperr.KindInvalidAuth) {
			return zero, err
		}

		if attempt == cfg.MaxRetries {
			break
		}

		log.Warn().Str("op", op).Int("attempt", attempt+1).Err(err).Msg("retrying catalog call")

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(math.Min(float64(delay*2), float64(cfg.RetryMaxDelay)))
		if delay <= 0 {
			delay = cfg.RetryMaxDelay
		}
	}

	if apperr.Is(lastErr, apperr.KindFetchError) {
		return zero, lastErr
	}
	return zero, apperr.Wrap(apperr.KindFetchError, op+" failed after retries", lastErr)
}

func newSessionID(t time.Time) string {
	return t.UTC().Format("20060102T150405Z") + "-" + uuid.NewString()
}
