// Package events implements the event detector (C4, spec §4.4): it
// compares consecutive snapshot pairs and emits Price/BSR/Stock events,
// then rolls the detected history up into AggregatedMetrics for the
// scorer. Detection is pure and idempotent per analysis-date — the same
// snapshot pair always yields the same events regardless of call order.
package events

import (
	"math"
	"sort"
	"time"

	"github.com/maous26/smartacus/internal/domain"
)

const (
	priceEventThresholdPct = 0.10
	bsrEventThresholdPct   = 0.20
	bsrEventThresholdAbs   = 10000
)

// Detector derives events from ordered snapshot histories.
type Detector struct {
	now func() time.Time
}

// NewDetector builds a Detector.
func NewDetector() *Detector {
	return &Detector{now: time.Now}
}

// DetectPriceEvents walks consecutive pairs in snapshots (ordered oldest
// to newest) and emits a PriceEvent for every pair crossing the ±10%
// threshold (spec §4.4).
func (d *Detector) DetectPriceEvents(listingID string, snapshots []domain.Snapshot) []domain.PriceEvent {
	var out []domain.PriceEvent
	for i := 1; i < len(snapshots); i++ {
		prev, cur := snapshots[i-1], snapshots[i]
		if prev.CurrentPriceCents <= 0 || cur.CurrentPriceCents <= 0 {
			continue
		}
		pct := (float64(cur.CurrentPriceCents) - float64(prev.CurrentPriceCents)) / float64(prev.CurrentPriceCents)

		var dir domain.Direction
		switch {
		case pct <= -priceEventThresholdPct:
			dir = domain.DirectionDown
		case pct >= priceEventThresholdPct:
			dir = domain.DirectionUp
		default:
			continue
		}

		out = append(out, domain.PriceEvent{
			ListingID:        listingID,
			DetectedAt:       d.now(),
			BeforeCents:      prev.CurrentPriceCents,
			AfterCents:       cur.CurrentPriceCents,
			PercentChange:    pct,
			Direction:        dir,
			Severity:         priceSeverity(math.Abs(pct)),
			BeforeSnapshotAt: prev.CapturedAt,
			AfterSnapshotAt:  cur.CapturedAt,
		})
	}
	return out
}

// DetectBSREvents emits a BSREvent for every pair crossing the ±20%
// threshold or moving by at least 10,000 rank places (spec §4.4).
func (d *Detector) DetectBSREvents(listingID string, snapshots []domain.Snapshot) []domain.BSREvent {
	var out []domain.BSREvent
	for i := 1; i < len(snapshots); i++ {
		prev, cur := snapshots[i-1], snapshots[i]
		if prev.BSR <= 0 {
			continue
		}
		pct := (float64(cur.BSR) - float64(prev.BSR)) / float64(prev.BSR)
		delta := cur.BSR - prev.BSR

		var dir domain.Direction
		switch {
		case pct <= -bsrEventThresholdPct || delta <= -bsrEventThresholdAbs:
			dir = domain.DirectionImproving
		case pct >= bsrEventThresholdPct || delta >= bsrEventThresholdAbs:
			dir = domain.DirectionWorsening
		default:
			continue
		}

		out = append(out, domain.BSREvent{
			ListingID:        listingID,
			DetectedAt:       d.now(),
			BeforeBSR:        prev.BSR,
			AfterBSR:         cur.BSR,
			PercentChange:    pct,
			Direction:        dir,
			Severity:         bsrSeverity(math.Abs(pct)),
			BeforeSnapshotAt: prev.CapturedAt,
			AfterSnapshotAt:  cur.CapturedAt,
		})
	}
	return out
}

// DetectStockEvents emits a StockEvent on every in<->out-of-stock
// transition (spec §4.4).
func (d *Detector) DetectStockEvents(listingID string, snapshots []domain.Snapshot) []domain.StockEvent {
	var out []domain.StockEvent
	for i := 1; i < len(snapshots); i++ {
		prev, cur := snapshots[i-1], snapshots[i]

		var dir domain.Direction
		var severity domain.Severity
		switch {
		case prev.Stock != domain.StockOutOfStock && cur.Stock == domain.StockOutOfStock:
			dir, severity = domain.DirectionStockout, domain.SeverityHigh
		case prev.Stock == domain.StockOutOfStock && cur.Stock != domain.StockOutOfStock:
			dir, severity = domain.DirectionRestock, domain.SeverityMedium
		default:
			continue
		}

		out = append(out, domain.StockEvent{
			ListingID:        listingID,
			DetectedAt:       d.now(),
			Before:           prev.Stock,
			After:            cur.Stock,
			Direction:        dir,
			Severity:         severity,
			BeforeSnapshotAt: prev.CapturedAt,
			AfterSnapshotAt:  cur.CapturedAt,
		})
	}
	return out
}

// priceSeverity bands |Δ|: >=5% low, >=10% medium, >=20% high, >=30% critical.
func priceSeverity(absPct float64) domain.Severity {
	switch {
	case absPct >= 0.30:
		return domain.SeverityCritical
	case absPct >= 0.20:
		return domain.SeverityHigh
	case absPct >= 0.10:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

// bsrSeverity scales the same four-band shape to BSR's higher 20%
// eventful threshold: >=20% low, >=40% medium, >=60% high, >=80% critical.
func bsrSeverity(absPct float64) domain.Severity {
	switch {
	case absPct >= 0.80:
		return domain.SeverityCritical
	case absPct >= 0.60:
		return domain.SeverityHigh
	case absPct >= 0.40:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

// Aggregate rolls a listing's full detected history up into
// AggregatedMetrics for analysisDate (spec §4.4). Idempotent: calling it
// twice with the same snapshots and events yields an identical result.
func (d *Detector) Aggregate(
	listingID string,
	analysisDate time.Time,
	snapshots []domain.Snapshot,
	priceEvents []domain.PriceEvent,
	bsrEvents []domain.BSREvent,
	stockEvents []domain.StockEvent,
) domain.AggregatedMetrics {
	m := domain.AggregatedMetrics{
		ListingID:         listingID,
		AnalysisDate:      analysisDate,
		EventCountsByKind: map[string]int{},
	}

	for _, e := range stockEvents {
		if e.Direction == domain.DirectionStockout {
			m.StockoutCount90d++
			t := e.DetectedAt
			m.LastStockoutAt = &t
		}
		m.EventCountsByKind["stock"]++
	}
	for range priceEvents {
		m.EventCountsByKind["price"]++
	}
	for _, e := range priceEvents {
		if e.Direction == domain.DirectionDown {
			t := e.DetectedAt
			m.LastPriceDropAt = &t
		}
	}
	for range bsrEvents {
		m.EventCountsByKind["bsr"]++
	}

	m.PriceTrend30dPct = trendPct(priceSeries(snapshots), 30)
	m.AvgPriceVolatility = stdevRatio(values(priceSeries(snapshots)))
	m.BSRTrend7dPct = trendPct(bsrSeries(snapshots), 7)
	m.BSRTrend30dPct = trendPct(bsrSeries(snapshots), 30)
	m.BSRAcceleration = talibSecondDerivative(values(bsrSeries(snapshots)), 3)
	m.SellerChurn90d = sellerChurnRate(snapshots)
	m.RatingAverageDeclineLast90d = ratingDecline(snapshots)
	m.ReviewVelocityPerMonth = reviewVelocityPerMonth(snapshots)
	m.PriceDroppedRecently = m.LastPriceDropAt != nil && analysisDate.Sub(*m.LastPriceDropAt) <= 30*24*time.Hour

	return m
}

// ratingDecline returns the earliest-to-latest drop in rating average,
// positive when the rating fell.
func ratingDecline(snapshots []domain.Snapshot) float64 {
	pts := ratingSeries(snapshots)
	if len(pts) < 2 {
		return 0
	}
	return pts[0].val - pts[len(pts)-1].val
}

func ratingSeries(snapshots []domain.Snapshot) []series {
	out := make([]series, 0, len(snapshots))
	for _, s := range snapshots {
		if s.RatingAverage > 0 {
			out = append(out, series{at: s.CapturedAt, val: s.RatingAverage})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].at.Before(out[j].at) })
	return out
}

// reviewVelocityPerMonth averages review-count growth over the observed
// window into a reviews-per-month rate.
func reviewVelocityPerMonth(snapshots []domain.Snapshot) float64 {
	if len(snapshots) < 2 {
		return 0
	}
	ordered := append([]domain.Snapshot(nil), snapshots...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].CapturedAt.Before(ordered[j].CapturedAt) })

	first, last := ordered[0], ordered[len(ordered)-1]
	days := last.CapturedAt.Sub(first.CapturedAt).Hours() / 24
	if days <= 0 {
		return 0
	}
	delta := last.ReviewCount - first.ReviewCount
	if delta < 0 {
		delta = 0
	}
	return float64(delta) / (days / 30.0)
}

type series struct {
	at  time.Time
	val float64
}

func priceSeries(snapshots []domain.Snapshot) []series {
	out := make([]series, 0, len(snapshots))
	for _, s := range snapshots {
		if s.CurrentPriceCents > 0 {
			out = append(out, series{at: s.CapturedAt, val: float64(s.CurrentPriceCents)})
		}
	}
	return out
}

func bsrSeries(snapshots []domain.Snapshot) []series {
	out := make([]series, 0, len(snapshots))
	for _, s := range snapshots {
		if s.BSR > 0 {
			out = append(out, series{at: s.CapturedAt, val: float64(s.BSR)})
		}
	}
	return out
}

// trendPct returns the percent change between the oldest point within the
// last windowDays and the most recent point.
func trendPct(pts []series, windowDays int) float64 {
	if len(pts) < 2 {
		return 0
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].at.Before(pts[j].at) })

	latest := pts[len(pts)-1]
	cutoff := latest.at.AddDate(0, 0, -windowDays)

	var base series
	found := false
	for _, p := range pts {
		if !p.at.Before(cutoff) {
			base = p
			found = true
			break
		}
	}
	if !found || base.val == 0 {
		return 0
	}
	return (latest.val - base.val) / base.val
}

// values extracts a chronologically-sorted slice of a series' values,
// the shape talib/gonum's vector functions expect.
func values(pts []series) []float64 {
	sort.Slice(pts, func(i, j int) bool { return pts[i].at.Before(pts[j].at) })
	out := make([]float64, len(pts))
	for i, p := range pts {
		out[i] = p.val
	}
	return out
}

func sellerChurnRate(snapshots []domain.Snapshot) float64 {
	if len(snapshots) < 2 {
		return 0
	}
	sort.Slice(snapshots, func(i, j int) bool { return snapshots[i].CapturedAt.Before(snapshots[j].CapturedAt) })
	first := snapshots[0].SellerCount
	last := snapshots[len(snapshots)-1].SellerCount
	if first == 0 {
		return 0
	}
	delta := first - last
	if delta < 0 {
		delta = -delta
	}
	return float64(delta) / float64(first)
}
