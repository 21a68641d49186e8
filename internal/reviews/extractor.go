// Package reviews implements the review signal extractor (C9) and
// improvement aggregator (C10), spec §4.9/§4.10: turning raw review text
// into DefectSignal/FeatureRequest records and then a per-listing
// ImprovementProfile.
package reviews

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const (
	negativeRatingCeiling = 3
	severityLogK          = 5.0
	synonymSimilarity     = 0.85
)

// Review is one raw listing review (spec §4.9).
type Review struct {
	ID           string
	Body         string
	Rating       int
	Title        string
	HelpfulVotes int
}

// DefectSignal is C9's defect output (spec §3).
type DefectSignal struct {
	DefectType           DefectType
	Frequency            int
	SeverityScore        float64
	ExampleQuotes        []string
	TotalReviewsScanned  int
	NegativeReviewsScanned int
}

// FrequencyRate is Frequency/NegativeReviewsScanned.
func (d DefectSignal) FrequencyRate() float64 {
	if d.NegativeReviewsScanned == 0 {
		return 0
	}
	return float64(d.Frequency) / float64(d.NegativeReviewsScanned)
}

// FeatureRequest is C9's wish output (spec §3).
type FeatureRequest struct {
	Feature      string
	Mentions     int
	Confidence   float64
	SourceQuotes []string
	HelpfulVotes int
}

// WishStrength = mentions + log1p(sum helpful votes).
func (f FeatureRequest) WishStrength() float64 {
	return float64(f.Mentions) + math.Log1p(float64(f.HelpfulVotes))
}

var wishPatternRe = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(WishPatterns))
	for _, p := range WishPatterns {
		out = append(out, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(p)+`\s+([^.!?]{3,80})`))
	}
	return out
}()

// ExtractDefects scans reviews (rating <= 3 only) against the closed
// lexicon and emits one DefectSignal per matched type (spec §4.9).
func ExtractDefects(revs []Review) []DefectSignal {
	negative := make([]Review, 0, len(revs))
	for _, r := range revs {
		if r.Rating <= negativeRatingCeiling {
			negative = append(negative, r)
		}
	}

	types := make([]DefectType, 0, len(Lexicon))
	for t := range Lexicon {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	out := make([]DefectSignal, 0, len(types))
	for _, defectType := range types {
		keywords := Lexicon[defectType]

		var weightSum float64
		var matches int
		var reviewsWithMatch int
		var quotes []string

		for _, r := range negative {
			body := strings.ToLower(r.Body)
			hit := false
			for _, kw := range keywords {
				if strings.Contains(body, strings.ToLower(kw.Phrase)) {
					weightSum += kw.Weight
					matches++
					hit = true
				}
			}
			if hit {
				reviewsWithMatch++
				if len(quotes) < 3 {
					quotes = append(quotes, r.Body)
				}
			}
		}

		if reviewsWithMatch == 0 {
			continue
		}

		severity := clamp01(weightSum/float64(len(negative))) * (1 + math.Log1p(float64(matches))/severityLogK)
		out = append(out, DefectSignal{
			DefectType:              defectType,
			Frequency:               reviewsWithMatch,
			SeverityScore:           clamp01(severity),
			ExampleQuotes:           quotes,
			TotalReviewsScanned:     len(revs),
			NegativeReviewsScanned:  len(negative),
		})
	}

	return out
}

// ExtractWishes scans every review body for wish-pattern sentences,
// normalizes and collapses near-duplicate keys (sequence-matcher
// similarity >= 0.85), and aggregates mention/helpful-vote totals (spec
// §4.9).
func ExtractWishes(revs []Review) []FeatureRequest {
	type accum struct {
		mentions     int
		helpfulVotes int
		quotes       []string
	}
	byKey := map[string]*accum{}
	var keyOrder []string

	for _, r := range revs {
		for _, re := range wishPatternRe {
			matches := re.FindAllStringSubmatch(r.Body, -1)
			for _, m := range matches {
				if len(m) < 2 {
					continue
				}
				key := normalizeWish(m[1])
				if key == "" {
					continue
				}
				canonical := collapseSynonym(key, keyOrder)

				a, ok := byKey[canonical]
				if !ok {
					a = &accum{}
					byKey[canonical] = a
					keyOrder = append(keyOrder, canonical)
				}
				a.mentions++
				a.helpfulVotes += r.HelpfulVotes
				if len(a.quotes) < 3 {
					a.quotes = append(a.quotes, strings.TrimSpace(m[1]))
				}
			}
		}
	}

	out := make([]FeatureRequest, 0, len(keyOrder))
	for _, key := range keyOrder {
		a := byKey[key]
		out = append(out, FeatureRequest{
			Feature:      key,
			Mentions:     a.mentions,
			Confidence:   clamp01(float64(a.mentions) / 5.0),
			SourceQuotes: a.quotes,
			HelpfulVotes: a.helpfulVotes,
		})
	}
	return out
}

// normalizeWish lower-cases, strips punctuation, and removes stop-words.
func normalizeWish(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	raw = strings.Trim(raw, ".,!? ")
	words := strings.Fields(raw)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if StopWords[w] {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// collapseSynonym returns the existing key in known that key is
// similar to (ratio >= 0.85 via difflib's sequence matcher), or key
// itself if none matches closely enough.
func collapseSynonym(key string, known []string) string {
	for _, existing := range known {
		ratio := difflib.NewMatcher(charTokens(existing), charTokens(key)).Ratio()
		if ratio >= synonymSimilarity {
			return existing
		}
	}
	return key
}

// charTokens splits s into single-rune tokens so difflib's line-oriented
// SequenceMatcher operates at character granularity.
func charTokens(s string) []string {
	runes := []rune(s)
	out := make([]string, len(runes))
	for i, r := range runes {
		out[i] = string(r)
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
