package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/maous26/smartacus/internal/domain"
)

// Store is the sqlite-backed implementation of every persistence contract
// used across the pipeline (ingestion.Store, budget.Store,
// pipeline.OpportunityStore, scheduler.NicheRegistry).
type Store struct {
	db *DB
}

// New builds a Store bound to db.
func New(db *DB) *Store { return &Store{db: db} }

// WithTransaction satisfies ingestion.Store by delegating to the DB.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.db.WithTransaction(ctx, fn)
}

// HasRecentSnapshot reports whether listingID has a snapshot captured at or
// after since (spec §4.3 freshness filter).
func (s *Store) HasRecentSnapshot(ctx context.Context, listingID string, since time.Time) (bool, error) {
	var n int
	row := s.db.q(ctx).QueryRowContext(ctx,
		`SELECT COUNT(1) FROM snapshots WHERE listing_id = ? AND captured_at >= ? LIMIT 1`,
		listingID, since.UTC().Format(time.RFC3339Nano))
	if err := row.Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpsertListing inserts or updates a listing row (spec §3 "Listing" pk
// listing-id).
func (s *Store) UpsertListing(ctx context.Context, l domain.Listing) error {
	categoryPath, err := json.Marshal(l.CategoryPath)
	if err != nil {
		return err
	}
	dims, err := json.Marshal(l.DimensionsCM)
	if err != nil {
		return err
	}

	var deactivatedAt interface{}
	if l.DeactivatedAt != nil {
		deactivatedAt = l.DeactivatedAt.UTC().Format(time.RFC3339Nano)
	}

	_, err = s.db.q(ctx).ExecContext(ctx, `
		INSERT INTO listings (listing_id, title, brand, manufacturer, model, category_path, weight_grams, dimensions_cm, image_url, is_active, first_seen_at, last_seen_at, deactivated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(listing_id) DO UPDATE SET
			title = excluded.title,
			brand = excluded.brand,
			manufacturer = excluded.manufacturer,
			model = excluded.model,
			category_path = excluded.category_path,
			weight_grams = excluded.weight_grams,
			dimensions_cm = excluded.dimensions_cm,
			image_url = excluded.image_url,
			is_active = excluded.is_active,
			last_seen_at = excluded.last_seen_at,
			deactivated_at = excluded.deactivated_at
	`,
		l.ListingID, l.Title, l.Brand, l.Manufacturer, l.Model, string(categoryPath), l.WeightGrams, string(dims), l.ImageURL, boolToInt(l.IsActive),
		l.FirstSeenAt.UTC().Format(time.RFC3339Nano), l.LastSeenAt.UTC().Format(time.RFC3339Nano), deactivatedAt,
	)
	return err
}

// InsertSnapshot appends a point-in-time observation; duplicate
// (listing-id, captured-at) pairs are ignored (spec §3 Snapshot is
// append-only, never mutated).
func (s *Store) InsertSnapshot(ctx context.Context, snap domain.Snapshot) error {
	var histogram interface{}
	if snap.RatingHistogram != nil {
		b, err := json.Marshal(*snap.RatingHistogram)
		if err != nil {
			return err
		}
		histogram = string(b)
	}

	_, err := s.db.q(ctx).ExecContext(ctx, `
		INSERT INTO snapshots (listing_id, captured_at, current_price_cents, original_price_cents, lowest_new_cents, lowest_used_cents, currency, bsr, bsr_category, stock, fulfillment, seller_count, rating_average, review_count, rating_histogram, ingestion_session_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(listing_id, captured_at) DO NOTHING
	`,
		snap.ListingID, snap.CapturedAt.UTC().Format(time.RFC3339Nano), snap.CurrentPriceCents, snap.OriginalPriceCents,
		snap.LowestNewCents, snap.LowestUsedCents, snap.Currency, snap.BSR, snap.BSRCategory, string(snap.Stock), string(snap.Fulfillment),
		snap.SellerCount, snap.RatingAverage, snap.ReviewCount, histogram, snap.IngestionSessionID,
	)
	return err
}

// RefreshDerivedViews is a no-op for the current schema: opportunities and
// aggregated metrics are computed on read, not materialized, so there is
// nothing to refresh yet. Kept so ingestion.Store's contract has a single
// hook to grow into if a materialized rollup is added later.
func (s *Store) RefreshDerivedViews(ctx context.Context) error {
	return nil
}

// ListingSnapshots returns a listing's most recent snapshots, oldest first,
// capped at limit (spec §4.4 input to event detection).
func (s *Store) ListingSnapshots(ctx context.Context, listingID string, limit int) ([]domain.Snapshot, error) {
	rows, err := s.db.q(ctx).QueryContext(ctx, `
		SELECT listing_id, captured_at, current_price_cents, original_price_cents, lowest_new_cents, lowest_used_cents, currency, bsr, bsr_category, stock, fulfillment, seller_count, rating_average, review_count, rating_histogram, ingestion_session_id
		FROM snapshots WHERE listing_id = ? ORDER BY captured_at DESC LIMIT ?
	`, listingID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Snapshot
	for rows.Next() {
		var snap domain.Snapshot
		var capturedAt string
		var stock, fulfillment string
		var histogram sql.NullString
		if err := rows.Scan(&snap.ListingID, &capturedAt, &snap.CurrentPriceCents, &snap.OriginalPriceCents,
			&snap.LowestNewCents, &snap.LowestUsedCents, &snap.Currency, &snap.BSR, &snap.BSRCategory,
			&stock, &fulfillment, &snap.SellerCount, &snap.RatingAverage, &snap.ReviewCount, &histogram, &snap.IngestionSessionID); err != nil {
			return nil, err
		}
		snap.CapturedAt, err = time.Parse(time.RFC3339Nano, capturedAt)
		if err != nil {
			return nil, err
		}
		snap.Stock = domain.StockStatus(stock)
		snap.Fulfillment = domain.FulfillmentType(fulfillment)
		if histogram.Valid {
			var h domain.RatingHistogram
			if err := json.Unmarshal([]byte(histogram.String), &h); err == nil {
				snap.RatingHistogram = &h
			}
		}
		out = append(out, snap)
	}

	// oldest-first, matching the detector's expected ordering
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, rows.Err()
}

// ListingIDsNeedingScoring returns listings with at least two snapshots
// that have never produced an opportunity row (spec §4.6 scoring-gate
// input).
func (s *Store) ListingIDsNeedingScoring(ctx context.Context) ([]string, error) {
	rows, err := s.db.q(ctx).QueryContext(ctx, `
		SELECT l.listing_id FROM listings l
		WHERE (SELECT COUNT(1) FROM snapshots sn WHERE sn.listing_id = l.listing_id) >= 2
		AND NOT EXISTS (SELECT 1 FROM opportunities o WHERE o.listing_id = l.listing_id)
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
