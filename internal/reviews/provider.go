package reviews

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/maous26/smartacus/internal/apperr"
)

// JobStatus is a review-scrape job's polled state (spec §6: "async-job
// model: submit... poll... returns status in {pending, success, error}").
type JobStatus int

const (
	JobPending JobStatus = iota
	JobSuccess
	JobError
)

// RawReview is one unparsed review row as the scrape provider returns it,
// before client-side rating-based filtering is applied.
type RawReview struct {
	ID           string
	Title        string
	Body         string
	Rating       int
	HelpfulVotes int
}

// RawReviewProvider is the capability set the external review-scraping
// collaborator must implement (spec §6 "submit/poll async-job contract"),
// grounded on outscraper_client.py's two-call job protocol.
type RawReviewProvider interface {
	SubmitJob(ctx context.Context, listingID, marketplaceDomain string, limit int, sort string) (jobID string, err error)
	PollJob(ctx context.Context, jobID string) (status JobStatus, reviews []RawReview, err error)
}

// ProviderConfig bounds the poll loop (spec §6: "per-job max-wait").
type ProviderConfig struct {
	MaxWait      time.Duration
	PollInterval time.Duration
}

// Provider fetches a rating-balanced review mix for a listing via the
// submit/poll job contract, with mandatory client-side star filtering
// (spec §6: "Client-side filtering is mandatory when the provider's
// filter-by-star is known-unreliable: fetch max(50, 4xrequired) rows
// sorted by recency and partition locally by rating").
type Provider struct {
	raw RawReviewProvider
	cfg ProviderConfig
	log zerolog.Logger
	now func() time.Time
}

// NewProvider builds a Provider bound to raw, polling under cfg.
func NewProvider(raw RawReviewProvider, cfg ProviderConfig, log zerolog.Logger) *Provider {
	return &Provider{
		raw: raw,
		cfg: cfg,
		log: log.With().Str("component", "reviews_provider").Logger(),
		now: time.Now,
	}
}

// FetchReviews submits one job for listingID, polls it to completion, and
// returns a balanced mix: up to requiredNegative reviews rated <=3 followed
// by up to requiredPositive reviews rated >=4, backfilled from whichever
// side has surplus, deduplicated by id, capped at maxReviews (spec §6/S6).
func (p *Provider) FetchReviews(ctx context.Context, listingID, marketplaceDomain string, requiredNegative, requiredPositive, maxReviews int) ([]Review, error) {
	fetchLimit := (requiredNegative + requiredPositive) * 4
	if fetchLimit < 50 {
		fetchLimit = 50
	}

	jobID, err := p.raw.SubmitJob(ctx, listingID, marketplaceDomain, fetchLimit, "recent")
	if err != nil {
		return nil, apperr.Wrap(apperr.KindFetchError, "submit review job failed", err)
	}

	raw, err := p.poll(ctx, jobID)
	if err != nil {
		return nil, err
	}

	all := make([]Review, 0, len(raw))
	for _, r := range raw {
		all = append(all, Review{
			ID:           r.ID,
			Title:        r.Title,
			Body:         r.Body,
			Rating:       r.Rating,
			HelpfulVotes: r.HelpfulVotes,
		})
	}

	negative := make([]Review, 0, len(all))
	positive := make([]Review, 0, len(all))
	for _, r := range all {
		if r.Rating <= negativeRatingCeiling {
			negative = append(negative, r)
		} else {
			positive = append(positive, r)
		}
	}

	seen := make(map[string]bool, maxReviews)
	final := make([]Review, 0, maxReviews)

	take := func(from []Review, n int) {
		for _, r := range from {
			if len(final) >= n {
				return
			}
			if seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			final = append(final, r)
		}
	}

	negLimit := len(final) + requiredNegative
	take(negative, negLimit)
	posLimit := len(final) + requiredPositive
	take(positive, posLimit)

	if len(final) < maxReviews {
		take(positive, maxReviews)
	}
	if len(final) < maxReviews {
		take(negative, maxReviews)
	}
	if len(final) > maxReviews {
		final = final[:maxReviews]
	}

	return final, nil
}

// poll blocks until jobID resolves to a terminal status or cfg.MaxWait
// elapses (spec §6: "polling long-running external scraper jobs... with a
// bounded max-wait").
func (p *Provider) poll(ctx context.Context, jobID string) ([]RawReview, error) {
	interval := p.cfg.PollInterval
	if interval <= 0 {
		interval = 3 * time.Second
	}
	maxWait := p.cfg.MaxWait
	if maxWait <= 0 {
		maxWait = 120 * time.Second
	}

	deadline := p.now().Add(maxWait)
	for {
		status, rows, err := p.raw.PollJob(ctx, jobID)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindFetchError, "poll review job failed", err)
		}

		switch status {
		case JobSuccess:
			return rows, nil
		case JobError:
			return nil, apperr.New(apperr.KindFetchError, "review job "+jobID+" failed upstream")
		}

		if !p.now().Before(deadline) {
			p.log.Warn().Str("job_id", jobID).Dur("max_wait", maxWait).Msg("review job poll timed out")
			return nil, apperr.New(apperr.KindTimeBudgetExceeded, "review job "+jobID+" timed out")
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}
