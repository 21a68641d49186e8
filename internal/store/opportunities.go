package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/maous26/smartacus/internal/scoring"
)

// SaveOpportunities upserts each opportunity keyed by (listing-id,
// detected-at) (spec §3 "EconomicOpportunity", §6 "opportunities"). The
// detection timestamp and component breakdown are carried on the
// opportunity itself rather than synthesized here; callers that build
// scoring.Opportunity by hand (without going through the scorer) get a
// zero components_json and a detected-at of now as a fallback.
func (s *Store) SaveOpportunities(ctx context.Context, opps []scoring.Opportunity) error {
	for _, o := range opps {
		detectedAt := o.DetectedAt
		if detectedAt.IsZero() {
			detectedAt = time.Now()
		}

		componentsJSON := "{}"
		if len(o.Components) > 0 {
			b, err := json.Marshal(o.Components)
			if err != nil {
				return err
			}
			componentsJSON = string(b)
		}

		_, err := s.db.q(ctx).ExecContext(ctx, `
			INSERT INTO opportunities (listing_id, detected_at, base_score, time_multiplier, final_score, est_monthly_profit_cents, est_annual_value_cents, risk_adjusted_value_cents, window_class, window_days, thesis, rank_score, confidence, components_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(listing_id, detected_at) DO UPDATE SET
				base_score = excluded.base_score,
				time_multiplier = excluded.time_multiplier,
				final_score = excluded.final_score,
				est_monthly_profit_cents = excluded.est_monthly_profit_cents,
				est_annual_value_cents = excluded.est_annual_value_cents,
				risk_adjusted_value_cents = excluded.risk_adjusted_value_cents,
				window_class = excluded.window_class,
				window_days = excluded.window_days,
				thesis = excluded.thesis,
				rank_score = excluded.rank_score,
				confidence = excluded.confidence,
				components_json = excluded.components_json
		`,
			o.ListingID, detectedAt.UTC().Format(time.RFC3339Nano), o.BaseScore, o.TimeMultiplier, o.FinalScore, o.EstimatedMonthlyProfitCents,
			o.EstimatedAnnualValueCents, o.RiskAdjustedValueCents, o.WindowClass, o.WindowDays, o.Thesis, o.RankScore, o.Confidence, componentsJSON,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// TopOpportunities returns the limit highest rank-score opportunities,
// the read path behind the shortlist generator (C8).
func (s *Store) TopOpportunities(ctx context.Context, limit int) ([]scoring.Opportunity, error) {
	rows, err := s.db.q(ctx).QueryContext(ctx, `
		SELECT listing_id, detected_at, base_score, time_multiplier, final_score, est_monthly_profit_cents, est_annual_value_cents, risk_adjusted_value_cents, window_class, window_days, thesis, rank_score, confidence, components_json
		FROM opportunities ORDER BY rank_score DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []scoring.Opportunity
	for rows.Next() {
		var o scoring.Opportunity
		var detectedAt, componentsJSON string
		if err := rows.Scan(&o.ListingID, &detectedAt, &o.BaseScore, &o.TimeMultiplier, &o.FinalScore, &o.EstimatedMonthlyProfitCents,
			&o.EstimatedAnnualValueCents, &o.RiskAdjustedValueCents, &o.WindowClass, &o.WindowDays, &o.Thesis, &o.RankScore, &o.Confidence, &componentsJSON); err != nil {
			return nil, err
		}
		if o.DetectedAt, err = time.Parse(time.RFC3339Nano, detectedAt); err != nil {
			return nil, err
		}
		if componentsJSON != "" && componentsJSON != "{}" {
			if err := json.Unmarshal([]byte(componentsJSON), &o.Components); err != nil {
				return nil, err
			}
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
