// Package shortlist implements the shortlist generator (C8, spec §4.8):
// filters a batch of scored opportunities down to the ones worth acting
// on now, ranked by rank-score.
package shortlist

import (
	"sort"

	"github.com/maous26/smartacus/internal/scoring"
)

const (
	minFinalScore        = 50
	minRiskAdjustedCents = 500000 // $5,000
	defaultLimit         = 5
)

// Entry is one shortlisted opportunity (spec §4.8).
type Entry struct {
	Rank                   int
	ListingID              string
	Score                  int
	WindowDays             int
	UrgencyLabel           string
	AnnualValueCents       int64
	RiskAdjustedValueCents int64
	Thesis                 string
	Recommendation         string
}

// Generate filters opps to final-score >= 50 AND risk-adjusted-value >=
// $5,000, sorts by rank-score desc, and truncates to limit (0 = default 5).
func Generate(opps []scoring.Opportunity, limit int) []Entry {
	if limit <= 0 {
		limit = defaultLimit
	}

	filtered := make([]scoring.Opportunity, 0, len(opps))
	for _, o := range opps {
		if o.FinalScore >= minFinalScore && o.RiskAdjustedValueCents >= minRiskAdjustedCents {
			filtered = append(filtered, o)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].RankScore > filtered[j].RankScore
	})

	if len(filtered) > limit {
		filtered = filtered[:limit]
	}

	out := make([]Entry, 0, len(filtered))
	for i, o := range filtered {
		out = append(out, Entry{
			Rank:                   i + 1,
			ListingID:              o.ListingID,
			Score:                  o.FinalScore,
			WindowDays:             o.WindowDays,
			UrgencyLabel:           o.WindowClass,
			AnnualValueCents:       o.EstimatedAnnualValueCents,
			RiskAdjustedValueCents: o.RiskAdjustedValueCents,
			Thesis:                 o.Thesis,
			Recommendation:         recommendationFor(o.WindowDays),
		})
	}
	return out
}

// recommendationFor bands the window-days into an action recommendation
// (spec §4.8).
func recommendationFor(windowDays int) string {
	switch {
	case windowDays <= 14:
		return "immediate action"
	case windowDays <= 30:
		return "priority, within 7 days"
	case windowDays <= 60:
		return "active, within 2 weeks"
	default:
		return "monitor"
	}
}
