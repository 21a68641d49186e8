package reviews

import (
	"math"
	"sort"
)

var improvementWeights = []float64{3, 2, 1.5, 1, 1}

// ImprovementProfile is C10's output (spec §3).
type ImprovementProfile struct {
	ListingID              string
	TopDefects             []DefectSignal
	TopWishes              []FeatureRequest
	DominantPain           string
	ImprovementScore       float64
	ReviewsAnalyzed        int
	NegativeReviewsAnalyzed int
	ReviewsReady           bool
}

// Aggregate builds an ImprovementProfile from C9's output (spec §4.10).
// An empty defect/wish set yields improvement-score 0 and reviews-ready
// false.
func Aggregate(listingID string, defects []DefectSignal, wishes []FeatureRequest, reviewsAnalyzed, negativeReviewsAnalyzed int) ImprovementProfile {
	profile := ImprovementProfile{
		ListingID:               listingID,
		ReviewsAnalyzed:         reviewsAnalyzed,
		NegativeReviewsAnalyzed: negativeReviewsAnalyzed,
		DominantPain:            "none",
	}

	if len(defects) == 0 && len(wishes) == 0 {
		return profile
	}

	sortedDefects := append([]DefectSignal(nil), defects...)
	sort.SliceStable(sortedDefects, func(i, j int) bool {
		return sortedDefects[i].SeverityScore > sortedDefects[j].SeverityScore
	})
	if len(sortedDefects) > 5 {
		sortedDefects = sortedDefects[:5]
	}
	profile.TopDefects = sortedDefects
	if len(sortedDefects) > 0 {
		profile.DominantPain = string(sortedDefects[0].DefectType)
	}

	sortedWishes := append([]FeatureRequest(nil), wishes...)
	sort.SliceStable(sortedWishes, func(i, j int) bool {
		return sortedWishes[i].Mentions > sortedWishes[j].Mentions
	})
	if len(sortedWishes) > 5 {
		sortedWishes = sortedWishes[:5]
	}
	profile.TopWishes = sortedWishes

	profile.ImprovementScore = improvementScore(sortedDefects, sortedWishes, negativeReviewsAnalyzed)
	profile.ReviewsReady = reviewsAnalyzed > 0
	return profile
}

func improvementScore(topDefects []DefectSignal, topWishes []FeatureRequest, negativeReviewsAnalyzed int) float64 {
	weights := improvementWeights
	if len(topDefects) < len(weights) {
		weights = weights[:len(topDefects)]
	}

	var weightedSum, weightSum float64
	var frequencySum int
	for i, d := range topDefects {
		if i >= len(weights) {
			break
		}
		weightedSum += d.SeverityScore * weights[i]
		weightSum += weights[i]
		frequencySum += d.Frequency
	}

	var weightedAvgSeverity float64
	if weightSum > 0 {
		weightedAvgSeverity = weightedSum / weightSum
	}

	var coverage float64
	if negativeReviewsAnalyzed > 0 {
		coverage = math.Min(1, float64(frequencySum)/float64(negativeReviewsAnalyzed))
	}

	defectScore := weightedAvgSeverity * (0.5 + 0.5*coverage)

	strongWishes := 0
	for _, w := range topWishes {
		if w.Mentions >= 3 {
			strongWishes++
		}
	}
	wishBonus := math.Min(0.2, 0.1*float64(strongWishes))

	score := math.Min(1, defectScore+wishBonus)
	return math.Round(score*1000) / 1000
}
