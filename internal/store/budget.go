package store

import (
	"context"
	"database/sql"

	"github.com/maous26/smartacus/internal/budget"
)

// GetBudget satisfies budget.Store.
func (s *Store) GetBudget(ctx context.Context, month budget.Month) (budget.Budget, bool, error) {
	var b budget.Budget
	row := s.db.q(ctx).QueryRowContext(ctx, `
		SELECT year_month, monthly_limit, tokens_used, discovery_alloc_pct, scanning_alloc_pct, runs_completed, categories_scanned, opportunities_found
		FROM token_budget WHERE year_month = ?
	`, string(month))

	var ym string
	err := row.Scan(&ym, &b.MonthlyLimit, &b.TokensUsed, &b.DiscoveryAllocPercent, &b.ScanningAllocPercent, &b.RunsCompleted, &b.CategoriesScanned, &b.OpportunitiesFound)
	if err == sql.ErrNoRows {
		return budget.Budget{}, false, nil
	}
	if err != nil {
		return budget.Budget{}, false, err
	}
	b.Month = budget.Month(ym)
	return b, true, nil
}

// SaveBudget satisfies budget.Store.
func (s *Store) SaveBudget(ctx context.Context, b budget.Budget) error {
	_, err := s.db.q(ctx).ExecContext(ctx, `
		INSERT INTO token_budget (year_month, monthly_limit, tokens_used, discovery_alloc_pct, scanning_alloc_pct, runs_completed, categories_scanned, opportunities_found)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(year_month) DO UPDATE SET
			monthly_limit = excluded.monthly_limit,
			tokens_used = excluded.tokens_used,
			discovery_alloc_pct = excluded.discovery_alloc_pct,
			scanning_alloc_pct = excluded.scanning_alloc_pct,
			runs_completed = excluded.runs_completed,
			categories_scanned = excluded.categories_scanned,
			opportunities_found = excluded.opportunities_found
	`, string(b.Month), b.MonthlyLimit, b.TokensUsed, b.DiscoveryAllocPercent, b.ScanningAllocPercent, b.RunsCompleted, b.CategoriesScanned, b.OpportunitiesFound)
	return err
}
