package specbundle

import (
	"context"
	"fmt"
)

// QuoteStore is the sourcing-quote lookup dependency (spec §6
// "sourcing-quotes (pk id; optional active/unexpired filter)").
type QuoteStore interface {
	ActiveSourcingQuoteCents(ctx context.Context, listingID string) (cents *int64, err error)
}

// ResolveSourcingCostCents implements the value estimate's sourcing-cost
// precedence (spec §4.7 "prefer a real sourcing quote if one is active and
// unexpired; otherwise heuristic sourcing = retail/5 + fixed shipping"),
// grounded on spec_generator.py's quote-first, heuristic-fallback lookup.
func ResolveSourcingCostCents(ctx context.Context, store QuoteStore, listingID string, retailPriceCents, fixedShippingCents int64) (cents int64, fromQuote bool, err error) {
	quoted, err := store.ActiveSourcingQuoteCents(ctx, listingID)
	if err != nil {
		return 0, false, err
	}
	if quoted != nil {
		return *quoted, true, nil
	}
	return retailPriceCents/5 + fixedShippingCents, false, nil
}

// AttachSourcingCost records costCents/fromQuote on bundle and appends a
// target-cost line to the supplier outreach message, so the supplier sees
// the same sourcing figure the economic scorer valued the opportunity
// against.
func AttachSourcingCost(bundle SpecBundle, costCents int64, fromQuote bool) SpecBundle {
	bundle.TargetSourcingCostCents = costCents
	bundle.SourcingCostFromQuote = fromQuote

	basis := "heuristic estimate"
	if fromQuote {
		basis = "active supplier quote"
	}
	line := fmt.Sprintf("\nTarget unit cost: $%.2f (%s).\n", float64(costCents)/100.0, basis)

	bundle.SupplierBody += line
	bundle.RenderedOutreach = bundle.SupplierSubject + "\n\n" + bundle.SupplierBody
	return bundle
}
