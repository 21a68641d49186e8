// Package strategy implements the resource-allocation strategy agent
// (C12, spec §4.12): partitions niches into EXPLOIT/EXPLORE/PAUSE and
// allocates the available token budget across them.
package strategy

import (
	"math"
	"sort"
	"time"

	"github.com/maous26/smartacus/internal/domain"
)

const (
	exploitPoolPct = 0.70
	explorePoolPct = 0.20
	reservePct     = 0.10
)

// Action is a niche's tri-partition assignment.
type Action string

const (
	ActionExploit Action = "exploit"
	ActionExplore Action = "explore"
	ActionPause   Action = "pause"
)

// Assessment is one niche's computed metrics and allocation (spec §4.12).
type Assessment struct {
	CategoryID      string
	Action          Action
	ValuePerToken   float64
	RecencyScore    float64
	Momentum        float64
	Maturity        float64
	EventBoost      bool
	AllocatedTokens int
	MaxListings     int
}

// Decision is C12's output (spec §4.12).
type Decision struct {
	CycleID     string
	Assessments []Assessment
	RiskNotes   []string
}

// Agent computes the strategy decision.
type Agent struct {
	perListingCost int
	now            func() time.Time
}

// NewAgent builds an Agent.
func NewAgent(perListingCost int) *Agent {
	return &Agent{perListingCost: perListingCost, now: time.Now}
}

// NicheInput pairs a niche's metrics with whether it saw a critical
// economic event in the last 24h, computed by the caller from
// EconomicEvent history.
type NicheInput struct {
	Metrics               domain.NicheMetrics
	HasCriticalEventLast24h bool
}

// Decide partitions niches and allocates tokens across the three pools
// (spec §4.12). cycleID identifies this decision for the feedback store.
func (a *Agent) Decide(cycleID string, availableTokens int, niches []NicheInput) Decision {
	assessments := make([]Assessment, 0, len(niches))
	for _, n := range niches {
		assessments = append(assessments, a.assess(n))
	}

	tercileBounds := computeTerciles(assessments)
	for i := range assessments {
		assessments[i].Action = classify(assessments[i], tercileBounds)
	}

	reserve := int(math.Round(float64(availableTokens) * reservePct))
	exploitPool := int(math.Round(float64(availableTokens) * exploitPoolPct))
	explorePool := availableTokens - reserve - exploitPool

	allocateExploit(assessments, exploitPool, a.perListingCost)
	allocateExplore(assessments, explorePool, a.perListingCost)

	var riskNotes []string
	if reserve > 0 {
		riskNotes = append(riskNotes, "10% of available tokens held in reserve")
	}

	return Decision{
		CycleID:     cycleID,
		Assessments: assessments,
		RiskNotes:   riskNotes,
	}
}

func (a *Agent) assess(n NicheInput) Assessment {
	m := n.Metrics
	valuePerToken := float64(m.TotalOpportunitiesFound) * m.AvgOpportunityScore / math.Max(float64(m.TokensUsed), 1)

	recency := 0.0
	if m.LastScannedAt != nil {
		days := a.now().Sub(*m.LastScannedAt).Hours() / 24
		recency = math.Min(1, days/30)
	} else {
		recency = 1
	}

	momentum := m.ConversionRate - m.PriorConversionRate
	maturity := math.Min(1, float64(m.TotalRuns)/5.0)

	return Assessment{
		CategoryID:    m.CategoryID,
		ValuePerToken: valuePerToken,
		RecencyScore:  recency,
		Momentum:      momentum,
		Maturity:      maturity,
		EventBoost:    n.HasCriticalEventLast24h,
	}
}

type terciles struct {
	lowerBound float64
	upperBound float64
}

// computeTerciles splits assessments' value-per-token distribution into
// thirds (spec §4.12 "top tercile"/"bottom tercile").
func computeTerciles(assessments []Assessment) terciles {
	if len(assessments) == 0 {
		return terciles{}
	}
	values := make([]float64, len(assessments))
	for i, a := range assessments {
		values[i] = a.ValuePerToken
	}
	sort.Float64s(values)

	n := len(values)
	lowerIdx := n / 3
	upperIdx := (2 * n) / 3
	if lowerIdx >= n {
		lowerIdx = n - 1
	}
	if upperIdx >= n {
		upperIdx = n - 1
	}
	return terciles{lowerBound: values[lowerIdx], upperBound: values[upperIdx]}
}

// classify applies the EXPLOIT/EXPLORE/PAUSE rules in priority order
// (spec §4.12): a niche with maturity < 1 is always protected from PAUSE.
func classify(a Assessment, t terciles) Action {
	if a.Maturity < 1 || a.RecencyScore >= 0.8 {
		return ActionExplore
	}
	if a.ValuePerToken >= t.upperBound {
		return ActionExploit
	}
	if a.ValuePerToken <= t.lowerBound && !a.EventBoost {
		return ActionPause
	}
	return ActionExplore
}

// allocateExploit distributes pool proportionally to value-per-token
// among EXPLOIT niches (spec §4.12).
func allocateExploit(assessments []Assessment, pool int, perListingCost int) {
	var total float64
	for i := range assessments {
		if assessments[i].Action == ActionExploit {
			total += assessments[i].ValuePerToken
		}
	}
	if total <= 0 {
		return
	}
	for i := range assessments {
		if assessments[i].Action != ActionExploit {
			continue
		}
		share := assessments[i].ValuePerToken / total
		tokens := int(math.Round(share * float64(pool)))
		assessments[i].AllocatedTokens = tokens
		assessments[i].MaxListings = maxListings(tokens, perListingCost)
	}
}

// allocateExplore distributes pool uniformly among EXPLORE niches (spec §4.12).
func allocateExplore(assessments []Assessment, pool int, perListingCost int) {
	count := 0
	for _, a := range assessments {
		if a.Action == ActionExplore {
			count++
		}
	}
	if count == 0 {
		return
	}
	perNiche := pool / count
	for i := range assessments {
		if assessments[i].Action != ActionExplore {
			continue
		}
		assessments[i].AllocatedTokens = perNiche
		assessments[i].MaxListings = maxListings(perNiche, perListingCost)
	}
}

func maxListings(tokens, perListingCost int) int {
	if perListingCost <= 0 {
		return 0
	}
	return tokens / perListingCost
}
