// Package budget implements the monthly token budget manager (C2, spec
// §4.2). The monthly record is created lazily on first access and tracks
// usage against a hard ceiling; discovery/scanning allocation percentages
// are informational only, never hard-enforced (spec §4.2).
package budget

import (
	"context"
	"fmt"
	"time"
)

// Month is a year-month key, e.g. "2026-07".
type Month string

// ForTime returns the Month key for t, in UTC.
func ForTime(t time.Time) Month {
	return Month(t.UTC().Format("2006-01"))
}

// Budget is the persisted per-month record (spec §3 "TokenBudget").
// Invariant: 0 <= TokensUsed <= MonthlyLimit.
type Budget struct {
	Month                   Month
	MonthlyLimit            int
	TokensUsed              int
	DiscoveryAllocPercent   float64
	ScanningAllocPercent    float64
	RunsCompleted           int
	CategoriesScanned       int
	OpportunitiesFound      int
}

// TokensRemaining returns MonthlyLimit - TokensUsed, floored at 0.
func (b Budget) TokensRemaining() int {
	if b.TokensUsed >= b.MonthlyLimit {
		return 0
	}
	return b.MonthlyLimit - b.TokensUsed
}

// Store is the persistence contract a Manager needs (spec §6 "token-budget
// (pk year-month)"); the SQLite-backed implementation lives in
// internal/store.
type Store interface {
	GetBudget(ctx context.Context, month Month) (Budget, bool, error)
	SaveBudget(ctx context.Context, b Budget) error
}

// Manager is the C2 token budget manager.
type Manager struct {
	store                 Store
	defaultMonthlyLimit   int
	defaultDiscoveryAlloc float64
	defaultScanningAlloc  float64
	perListingCost        int
	now                   func() time.Time
}

// Config configures a new Manager (spec §6 defaults).
type Config struct {
	MonthlyLimit        int
	DiscoveryAllocPct   float64
	ScanningAllocPct    float64
	PerListingCost      int
}

// NewManager builds a Manager bound to store.
func NewManager(store Store, cfg Config) *Manager {
	return &Manager{
		store:                 store,
		defaultMonthlyLimit:   cfg.MonthlyLimit,
		defaultDiscoveryAlloc: cfg.DiscoveryAllocPct,
		defaultScanningAlloc:  cfg.ScanningAllocPct,
		perListingCost:        cfg.PerListingCost,
		now:                   time.Now,
	}
}

// Status returns month's Budget, lazily creating it with the configured
// defaults if this is the first access (spec §4.2).
func (m *Manager) Status(ctx context.Context, month Month) (Budget, error) {
	b, ok, err := m.store.GetBudget(ctx, month)
	if err != nil {
		return Budget{}, err
	}
	if ok {
		return b, nil
	}

	b = Budget{
		Month:                 month,
		MonthlyLimit:          m.defaultMonthlyLimit,
		DiscoveryAllocPercent: m.defaultDiscoveryAlloc,
		ScanningAllocPercent:  m.defaultScanningAlloc,
	}
	if err := m.store.SaveBudget(ctx, b); err != nil {
		return Budget{}, err
	}
	return b, nil
}

// CanRun reports whether estimatedTokens fit within today's paced
// allowance, DailyBudget (spec §4.2, scenario S4).
func (m *Manager) CanRun(ctx context.Context, estimatedTokens int) (bool, error) {
	daily, err := m.DailyBudget(ctx)
	if err != nil {
		return false, err
	}
	return float64(estimatedTokens) <= daily, nil
}

// Reserve records amount tokens consumed under kind (e.g. "discovery",
// "scanning"); the kind breakdown is informational only (spec §4.2) and is
// not separately enforced against DiscoveryAllocPercent/ScanningAllocPercent.
func (m *Manager) Reserve(ctx context.Context, amount int, kind string) error {
	if amount < 0 {
		return fmt.Errorf("budget: cannot reserve negative amount %d", amount)
	}
	month := ForTime(m.now())
	b, err := m.Status(ctx, month)
	if err != nil {
		return err
	}

	b.TokensUsed += amount
	if b.TokensUsed > b.MonthlyLimit {
		b.TokensUsed = b.MonthlyLimit
	}
	return m.store.SaveBudget(ctx, b)
}

// RecordRun folds a completed scheduler cycle's usage into the month record
// (spec §4.2/§4.13).
func (m *Manager) RecordRun(ctx context.Context, tokensUsed, nichesScanned, oppsFound int) error {
	month := ForTime(m.now())
	b, err := m.Status(ctx, month)
	if err != nil {
		return err
	}

	b.TokensUsed += tokensUsed
	if b.TokensUsed > b.MonthlyLimit {
		b.TokensUsed = b.MonthlyLimit
	}
	b.RunsCompleted++
	b.CategoriesScanned += nichesScanned
	b.OpportunitiesFound += oppsFound

	return m.store.SaveBudget(ctx, b)
}

// DailyBudget returns remaining / days-left-in-month, the pacing figure the
// scheduler uses to size a cycle (spec §4.2, scenario S4: limit 900000,
// used 300000, day 15 -> (900000-300000)/(30-15+1) = 37500).
func (m *Manager) DailyBudget(ctx context.Context) (float64, error) {
	now := m.now().UTC()
	b, err := m.Status(ctx, ForTime(now))
	if err != nil {
		return 0, err
	}

	daysInMonth := daysIn(now.Year(), now.Month())
	daysLeft := daysInMonth - now.Day() + 1
	if daysLeft <= 0 {
		daysLeft = 1
	}
	return float64(b.TokensRemaining()) / float64(daysLeft), nil
}

// TokensForListings returns the estimated token cost of scanning n listings
// at the configured per-listing cost.
func (m *Manager) TokensForListings(n int) int {
	return n * m.perListingCost
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
