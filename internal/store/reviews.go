package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/maous26/smartacus/internal/reviews"
	"github.com/maous26/smartacus/internal/specbundle"
)

// SaveImprovementProfile persists a run's defect signals, feature requests,
// and rolled-up profile, keyed by (listing-id, run-id) (spec §6
// "review-defects / review-feature-requests / improvement-profiles").
func (s *Store) SaveImprovementProfile(ctx context.Context, runID string, profile reviews.ImprovementProfile) error {
	return s.db.WithTransaction(ctx, func(ctx context.Context) error {
		for _, d := range profile.TopDefects {
			quotes, err := json.Marshal(d.ExampleQuotes)
			if err != nil {
				return err
			}
			if _, err := s.db.q(ctx).ExecContext(ctx, `
				INSERT INTO review_defects (listing_id, run_id, defect_type, frequency, severity_score, example_quotes, total_reviews_scanned, negative_reviews_scanned)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(listing_id, run_id, defect_type) DO UPDATE SET
					frequency = excluded.frequency, severity_score = excluded.severity_score, example_quotes = excluded.example_quotes
			`, profile.ListingID, runID, string(d.DefectType), d.Frequency, d.SeverityScore, string(quotes), d.TotalReviewsScanned, d.NegativeReviewsScanned); err != nil {
				return err
			}
		}

		for _, w := range profile.TopWishes {
			quotes, err := json.Marshal(w.SourceQuotes)
			if err != nil {
				return err
			}
			if _, err := s.db.q(ctx).ExecContext(ctx, `
				INSERT INTO review_feature_requests (listing_id, run_id, feature, mentions, confidence, source_quotes, helpful_votes)
				VALUES (?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(listing_id, run_id, feature) DO UPDATE SET
					mentions = excluded.mentions, confidence = excluded.confidence, source_quotes = excluded.source_quotes, helpful_votes = excluded.helpful_votes
			`, profile.ListingID, runID, w.Feature, w.Mentions, w.Confidence, string(quotes), w.HelpfulVotes); err != nil {
				return err
			}
		}

		_, err := s.db.q(ctx).ExecContext(ctx, `
			INSERT INTO improvement_profiles (listing_id, run_id, dominant_pain, improvement_score, reviews_analyzed, negative_reviews_analyzed, reviews_ready)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(listing_id, run_id) DO UPDATE SET
				dominant_pain = excluded.dominant_pain, improvement_score = excluded.improvement_score,
				reviews_analyzed = excluded.reviews_analyzed, negative_reviews_analyzed = excluded.negative_reviews_analyzed, reviews_ready = excluded.reviews_ready
		`, profile.ListingID, runID, profile.DominantPain, profile.ImprovementScore, profile.ReviewsAnalyzed, profile.NegativeReviewsAnalyzed, boolToInt(profile.ReviewsReady))
		return err
	})
}

// SaveSpecBundle persists a rendered bundle keyed by (listing-id, run-id)
// (spec §6 "spec-bundles").
func (s *Store) SaveSpecBundle(ctx context.Context, runID string, bundle specbundle.SpecBundle) error {
	encoded, err := json.Marshal(bundle)
	if err != nil {
		return err
	}
	_, err = s.db.q(ctx).ExecContext(ctx, `
		INSERT INTO spec_bundles (listing_id, run_id, mapping_version, inputs_hash, bundle_json, rendered_oem_spec, rendered_qc, rendered_outreach, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(listing_id, run_id) DO UPDATE SET
			mapping_version = excluded.mapping_version, inputs_hash = excluded.inputs_hash, bundle_json = excluded.bundle_json,
			rendered_oem_spec = excluded.rendered_oem_spec, rendered_qc = excluded.rendered_qc, rendered_outreach = excluded.rendered_outreach
	`, bundle.ListingID, runID, bundle.MappingVersion, bundle.InputsHash, string(encoded), bundle.RenderedOEMSpec, bundle.RenderedQC, bundle.RenderedOutreach, time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// ActiveSourcingQuoteCents returns listingID's cheapest active, unexpired
// unit-cost quote, or nil if none exists (spec §6 "sourcing-quotes ...
// optional active/unexpired filter"; feeds scoring.ValueInputs).
func (s *Store) ActiveSourcingQuoteCents(ctx context.Context, listingID string) (*int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	row := s.db.q(ctx).QueryRowContext(ctx, `
		SELECT unit_cost_cents FROM sourcing_quotes
		WHERE listing_id = ? AND is_active = 1 AND (expires_at IS NULL OR expires_at > ?)
		ORDER BY unit_cost_cents ASC LIMIT 1
	`, listingID, now)

	var cents int64
	if err := row.Scan(&cents); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &cents, nil
}
