package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maous26/smartacus/internal/domain"
)

func snap(daysAgo int, priceCents int64, bsr int, stock domain.StockStatus, sellers int) domain.Snapshot {
	return domain.Snapshot{
		ListingID:         "B00TEST",
		CapturedAt:        time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -daysAgo),
		CurrentPriceCents: priceCents,
		BSR:               bsr,
		Stock:             stock,
		SellerCount:       sellers,
	}
}

func TestDetectPriceEventsThreshold(t *testing.T) {
	d := NewDetector()
	snapshots := []domain.Snapshot{
		snap(2, 1000, 5000, domain.StockInStock, 5),
		snap(1, 1050, 5000, domain.StockInStock, 5), // +5%, below 10% threshold
		snap(0, 900, 5000, domain.StockInStock, 5),  // -14.3% vs 1050
	}

	evs := d.DetectPriceEvents("B00TEST", snapshots)
	require.Len(t, evs, 1)
	assert.Equal(t, domain.DirectionDown, evs[0].Direction)
	assert.Equal(t, domain.SeverityMedium, evs[0].Severity)
}

func TestDetectStockEvents(t *testing.T) {
	d := NewDetector()
	snapshots := []domain.Snapshot{
		snap(2, 1000, 5000, domain.StockInStock, 5),
		snap(1, 1000, 5000, domain.StockOutOfStock, 5),
		snap(0, 1000, 5000, domain.StockInStock, 5),
	}

	evs := d.DetectStockEvents("B00TEST", snapshots)
	require.Len(t, evs, 2)
	assert.Equal(t, domain.DirectionStockout, evs[0].Direction)
	assert.Equal(t, domain.SeverityHigh, evs[0].Severity)
	assert.Equal(t, domain.DirectionRestock, evs[1].Direction)
	assert.Equal(t, domain.SeverityMedium, evs[1].Severity)
}

func TestDetectBSREventsThreshold(t *testing.T) {
	d := NewDetector()
	snapshots := []domain.Snapshot{
		snap(1, 1000, 10000, domain.StockInStock, 5),
		snap(0, 1000, 13000, domain.StockInStock, 5), // +30% -> worsening
	}

	evs := d.DetectBSREvents("B00TEST", snapshots)
	require.Len(t, evs, 1)
	assert.Equal(t, domain.DirectionWorsening, evs[0].Direction)
}

func TestAggregateIdempotent(t *testing.T) {
	d := NewDetector()
	snapshots := []domain.Snapshot{
		snap(3, 1000, 10000, domain.StockInStock, 5),
		snap(2, 1000, 10000, domain.StockOutOfStock, 4),
		snap(1, 1000, 10000, domain.StockInStock, 4),
		snap(0, 900, 12000, domain.StockInStock, 3),
	}
	stockEvs := d.DetectStockEvents("B00TEST", snapshots)
	priceEvs := d.DetectPriceEvents("B00TEST", snapshots)
	bsrEvs := d.DetectBSREvents("B00TEST", snapshots)

	analysisDate := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	first := d.Aggregate("B00TEST", analysisDate, snapshots, priceEvs, bsrEvs, stockEvs)
	second := d.Aggregate("B00TEST", analysisDate, snapshots, priceEvs, bsrEvs, stockEvs)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, first.StockoutCount90d)
}
