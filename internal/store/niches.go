package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/maous26/smartacus/internal/domain"
)

// ActiveNiches satisfies scheduler.NicheRegistry (spec §3 "Niche").
func (s *Store) ActiveNiches(ctx context.Context) ([]domain.NicheMetrics, error) {
	rows, err := s.db.q(ctx).QueryContext(ctx, `
		SELECT category_id, marketplace_domain, name, path_json, priority, is_active, total_runs, total_opportunities_found, conversion_rate, prior_conversion_rate, last_scanned_at, tokens_used, avg_opportunity_score
		FROM niche_registry WHERE is_active = 1
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.NicheMetrics
	for rows.Next() {
		var m domain.NicheMetrics
		var isActive int
		var pathJSON string
		var lastScanned sql.NullString
		if err := rows.Scan(&m.CategoryID, &m.MarketplaceDomain, &m.Name, &pathJSON, &m.Priority, &isActive,
			&m.TotalRuns, &m.TotalOpportunitiesFound, &m.ConversionRate, &m.PriorConversionRate, &lastScanned, &m.TokensUsed, &m.AvgOpportunityScore); err != nil {
			return nil, err
		}
		m.IsActive = isActive == 1
		_ = json.Unmarshal([]byte(pathJSON), &m.Path)
		if lastScanned.Valid {
			if t, err := time.Parse(time.RFC3339Nano, lastScanned.String); err == nil {
				m.LastScannedAt = &t
			}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// HasCriticalEventLast24h reports whether categoryID's listings recorded an
// economic event of strong or confirmed confidence in the trailing 24h,
// used by the
// strategy agent's event-boost exception to PAUSE.
func (s *Store) HasCriticalEventLast24h(ctx context.Context, categoryID string) (bool, error) {
	cutoff := time.Now().Add(-24 * time.Hour).UTC().Format(time.RFC3339Nano)
	var n int
	row := s.db.q(ctx).QueryRowContext(ctx, `
		SELECT COUNT(1) FROM economic_events e
		JOIN listings l ON l.listing_id = e.listing_id
		WHERE e.detected_at >= ? AND e.confidence IN ('strong', 'confirmed')
		AND EXISTS (SELECT 1 FROM json_each(l.category_path) WHERE value = ?)
	`, cutoff, categoryID)
	if err := row.Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// RecordNicheOutcome appends a performance-history row and rolls the
// trailing conversion rate and run count into the niche_registry record
// (spec §6 "niche-registry ... + performance-history table").
func (s *Store) RecordNicheOutcome(ctx context.Context, categoryID string, niches, opps int, conversionRate float64) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return s.db.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.db.q(ctx).ExecContext(ctx, `
			INSERT INTO niche_performance_history (category_id, recorded_at, niches_scanned, opportunities_found, conversion_rate)
			VALUES (?, ?, ?, ?, ?)
		`, categoryID, now, niches, opps, conversionRate); err != nil {
			return err
		}

		_, err := s.db.q(ctx).ExecContext(ctx, `
			UPDATE niche_registry SET
				prior_conversion_rate = conversion_rate,
				conversion_rate = ?,
				total_runs = total_runs + 1,
				total_opportunities_found = total_opportunities_found + ?,
				last_scanned_at = ?
			WHERE category_id = ?
		`, conversionRate, opps, now, categoryID)
		return err
	})
}

// SetActive flips a niche's is_active flag (spec §4.13 auto-activation).
func (s *Store) SetActive(ctx context.Context, categoryID string, active bool) error {
	_, err := s.db.q(ctx).ExecContext(ctx, `UPDATE niche_registry SET is_active = ? WHERE category_id = ?`, boolToInt(active), categoryID)
	return err
}
