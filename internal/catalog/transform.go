package catalog

import (
	"strings"
	"time"

	"github.com/maous26/smartacus/internal/domain"
)

// transform converts one provider row into the pipeline's typed shape
// (spec §4.1 "Output transform"): history arrays are paired up and the
// -1 "no data" sentinel is dropped, minutes-since-epoch become absolute
// UTC timestamps, and the current price is resolved by priority
// buy-box-new > primary > new.
func transform(raw RawProduct, capturedAt time.Time, sessionID string) ProductData {
	listing := domain.Listing{
		ListingID:    raw.ListingID,
		Title:        raw.Title,
		Brand:        raw.Brand,
		Manufacturer: raw.Manufacturer,
		Model:        raw.Model,
		CategoryPath: raw.CategoryPath,
		WeightGrams:  raw.WeightGrams,
		DimensionsCM: raw.DimensionsCM,
		ImageURL:     raw.ImageURL,
		IsActive:     true,
		LastSeenAt:   capturedAt,
	}

	snapshot := domain.Snapshot{
		ListingID:          raw.ListingID,
		CapturedAt:         capturedAt,
		CurrentPriceCents:  currentPrice(raw),
		OriginalPriceCents: raw.OriginalPriceCents,
		LowestNewCents:     raw.LowestNewCents,
		LowestUsedCents:    raw.LowestUsedCents,
		Currency:           raw.Currency,
		BSR:                raw.BSR,
		BSRCategory:        raw.BSRCategory,
		Stock:              normalizeStock(raw.Stock),
		Fulfillment:        normalizeFulfillment(raw.Fulfillment),
		SellerCount:        raw.SellerCount,
		RatingAverage:      float64(raw.RatingX10) / 10.0,
		ReviewCount:        raw.ReviewCount,
		IngestionSessionID: sessionID,
	}
	if raw.RatingHistogram != nil {
		hist := domain.RatingHistogram(*raw.RatingHistogram)
		snapshot.RatingHistogram = &hist
	}

	return ProductData{
		Listing:      listing,
		Snapshot:     snapshot,
		PriceHistory: parseHistory(raw.PriceHistoryMinutes, raw.PriceHistoryValues),
		BSRHistory:   parseHistory(raw.BSRHistoryMinutes, raw.BSRHistoryValues),
	}
}

// currentPrice resolves the current price by priority buy-box-new >
// primary > new, treating -1 as "unavailable" (spec §4.1).
func currentPrice(raw RawProduct) int64 {
	for _, v := range []int64{raw.CurrentBuyBoxNewCents, raw.CurrentPrimaryCents, raw.CurrentNewCents} {
		if v >= 0 {
			return v
		}
	}
	return 0
}

// parseHistory pairs minutes/values and drops the -1 sentinel.
func parseHistory(minutes, values []int64) []domain.HistoryPoint {
	n := len(minutes)
	if len(values) < n {
		n = len(values)
	}
	points := make([]domain.HistoryPoint, 0, n)
	for i := 0; i < n; i++ {
		if values[i] < 0 {
			continue
		}
		v := float64(values[i])
		points = append(points, domain.HistoryPoint{
			Timestamp: MinutesToTime(minutes[i]),
			Value:     &v,
		})
	}
	return points
}

func normalizeStock(raw string) domain.StockStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "in-stock", "instock", "in_stock":
		return domain.StockInStock
	case "low-stock", "low_stock", "low":
		return domain.StockLow
	case "out-of-stock", "out_of_stock", "oos":
		return domain.StockOutOfStock
	case "back-ordered", "backordered", "backorder":
		return domain.StockBackOrdered
	default:
		return domain.StockUnknown
	}
}

func normalizeFulfillment(raw string) domain.FulfillmentType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "platform", "fba":
		return domain.FulfillmentPlatform
	case "platform-fulfilled", "platform_fulfilled":
		return domain.FulfillmentPlatformFulfilled
	case "merchant-fulfilled", "merchant_fulfilled", "fbm", "merchant":
		return domain.FulfillmentMerchant
	default:
		return domain.FulfillmentUnknown
	}
}
