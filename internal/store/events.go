package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/maous26/smartacus/internal/domain"
)

// SavePriceEvents upserts detected price events (spec §6 "events tables
// per kind").
func (s *Store) SavePriceEvents(ctx context.Context, evs []domain.PriceEvent) error {
	for _, e := range evs {
		if _, err := s.db.q(ctx).ExecContext(ctx, `
			INSERT INTO price_events (listing_id, detected_at, before_cents, after_cents, percent_change, direction, severity)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(listing_id, detected_at) DO NOTHING
		`, e.ListingID, e.DetectedAt.UTC().Format(time.RFC3339Nano), e.BeforeCents, e.AfterCents, e.PercentChange, string(e.Direction), string(e.Severity)); err != nil {
			return err
		}
	}
	return nil
}

// SaveBSREvents upserts detected BSR events.
func (s *Store) SaveBSREvents(ctx context.Context, evs []domain.BSREvent) error {
	for _, e := range evs {
		if _, err := s.db.q(ctx).ExecContext(ctx, `
			INSERT INTO bsr_events (listing_id, detected_at, before_bsr, after_bsr, percent_change, direction, severity)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(listing_id, detected_at) DO NOTHING
		`, e.ListingID, e.DetectedAt.UTC().Format(time.RFC3339Nano), e.BeforeBSR, e.AfterBSR, e.PercentChange, string(e.Direction), string(e.Severity)); err != nil {
			return err
		}
	}
	return nil
}

// SaveStockEvents upserts detected stock-transition events.
func (s *Store) SaveStockEvents(ctx context.Context, evs []domain.StockEvent) error {
	for _, e := range evs {
		if _, err := s.db.q(ctx).ExecContext(ctx, `
			INSERT INTO stock_events (listing_id, detected_at, before_status, after_status, direction, severity)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(listing_id, detected_at) DO NOTHING
		`, e.ListingID, e.DetectedAt.UTC().Format(time.RFC3339Nano), string(e.Before), string(e.After), string(e.Direction), string(e.Severity)); err != nil {
			return err
		}
	}
	return nil
}

// SaveEconomicEvents upserts synthesized economic events.
func (s *Store) SaveEconomicEvents(ctx context.Context, evs []domain.EconomicEvent) error {
	for _, e := range evs {
		supporting, err := json.Marshal(e.SupportingSignals)
		if err != nil {
			return err
		}
		contradicting, err := json.Marshal(e.ContradictingSignals)
		if err != nil {
			return err
		}
		if _, err := s.db.q(ctx).ExecContext(ctx, `
			INSERT INTO economic_events (listing_id, detected_at, type, thesis, confidence, urgency, window_days, supporting_signals, contradicting_signals, opportunity_value)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(listing_id, detected_at) DO NOTHING
		`, e.ListingID, e.DetectedAt.UTC().Format(time.RFC3339Nano), string(e.Type), e.Thesis, string(e.Confidence), string(e.Urgency), e.EstimatedWindowDays, string(supporting), string(contradicting), e.OpportunityValue); err != nil {
			return err
		}
	}
	return nil
}
