// Package specbundle implements the spec bundle generator (C11, spec
// §4.11): maps an ImprovementProfile's defects and feature wishes through
// closed mapping tables into an OEM specification, a QC checklist, and a
// supplier-outreach message, all rendered deterministically.
package specbundle

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/maous26/smartacus/internal/reviews"
)

// BlocAEntry is one defect-fix OEM requirement row, carrying its source
// defect's severity/frequency for ordering.
type BlocAEntry struct {
	Requirement Requirement
	DefectType  reviews.DefectType
	Severity    float64
	Frequency   int
}

// BlocBEntry is one feature-addition OEM requirement row.
type BlocBEntry struct {
	Requirement  Requirement
	Feature      string
	WishStrength float64
}

// SpecBundle is C11's output (spec §3).
type SpecBundle struct {
	ListingID              string
	BlocA                  []BlocAEntry
	BlocB                  []BlocBEntry
	QCChecklist            []QCTest
	SupplierSubject        string
	SupplierBody           string
	RenderedOEMSpec        string
	RenderedQC             string
	RenderedOutreach       string
	MappingVersion         string
	InputsHash             string
	TargetSourcingCostCents int64
	SourcingCostFromQuote   bool
}

// Build generates a SpecBundle from profile's top defects and wishes
// (spec §4.11). Two calls with equal profile contents and MappingVersion
// produce byte-identical rendered text and an identical InputsHash.
func Build(profile reviews.ImprovementProfile) SpecBundle {
	blocA := buildBlocA(profile.TopDefects)
	blocB := buildBlocB(profile.TopWishes)
	qc := buildQCChecklist(profile.TopDefects, profile.TopWishes)

	bundle := SpecBundle{
		ListingID:      profile.ListingID,
		BlocA:          blocA,
		BlocB:          blocB,
		QCChecklist:    qc,
		MappingVersion: MappingVersion,
		InputsHash:     inputsHash(profile),
	}

	bundle.RenderedOEMSpec = renderOEMSpec(bundle)
	bundle.RenderedQC = renderQCChecklist(bundle)
	bundle.SupplierSubject, bundle.SupplierBody = renderOutreach(bundle)
	bundle.RenderedOutreach = bundle.SupplierSubject + "\n\n" + bundle.SupplierBody

	return bundle
}

// buildBlocA sorts matched defects by (severity desc, frequency desc)
// and emits one requirement row per matched type (spec §4.11).
func buildBlocA(defects []reviews.DefectSignal) []BlocAEntry {
	sorted := append([]reviews.DefectSignal(nil), defects...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].SeverityScore != sorted[j].SeverityScore {
			return sorted[i].SeverityScore > sorted[j].SeverityScore
		}
		return sorted[i].Frequency > sorted[j].Frequency
	})

	out := make([]BlocAEntry, 0, len(sorted))
	for _, d := range sorted {
		mapping, ok := DefectMapping[d.DefectType]
		if !ok || len(mapping.requirements) == 0 {
			continue
		}
		req := mapping.requirements[0]
		req.Priority = priorityFromSeverity(d.SeverityScore)
		out = append(out, BlocAEntry{
			Requirement: req,
			DefectType:  d.DefectType,
			Severity:    d.SeverityScore,
			Frequency:   d.Frequency,
		})
	}
	return out
}

// buildBlocB sorts matched features by normalized wish-strength desc
// (spec §4.11).
func buildBlocB(wishes []reviews.FeatureRequest) []BlocBEntry {
	keywords := make([]string, 0, len(FeatureMapping))
	for k := range FeatureMapping {
		keywords = append(keywords, k)
	}
	sort.Strings(keywords)

	type scored struct {
		w        reviews.FeatureRequest
		keyword  string
		strength float64
	}
	var matched []scored
	for _, w := range wishes {
		for _, keyword := range keywords {
			if strings.Contains(w.Feature, keyword) {
				norm := clamp01(w.WishStrength() / 10.0)
				matched = append(matched, scored{w: w, keyword: keyword, strength: norm})
				break
			}
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].strength > matched[j].strength })

	out := make([]BlocBEntry, 0, len(matched))
	for _, m := range matched {
		mapping := FeatureMapping[m.keyword]
		if len(mapping.requirements) == 0 {
			continue
		}
		out = append(out, BlocBEntry{
			Requirement:  mapping.requirements[0],
			Feature:      m.w.Feature,
			WishStrength: m.strength,
		})
	}
	return out
}

// buildQCChecklist unions QC rows from matched defects then features,
// de-duplicated by test-name, preserving first occurrence (spec §4.11).
func buildQCChecklist(defects []reviews.DefectSignal, wishes []reviews.FeatureRequest) []QCTest {
	seen := map[string]bool{}
	var out []QCTest

	sortedDefects := append([]reviews.DefectSignal(nil), defects...)
	sort.SliceStable(sortedDefects, func(i, j int) bool {
		if sortedDefects[i].SeverityScore != sortedDefects[j].SeverityScore {
			return sortedDefects[i].SeverityScore > sortedDefects[j].SeverityScore
		}
		return sortedDefects[i].Frequency > sortedDefects[j].Frequency
	})
	for _, d := range sortedDefects {
		mapping, ok := DefectMapping[d.DefectType]
		if !ok {
			continue
		}
		for _, t := range mapping.qcTests {
			if seen[t.TestName] {
				continue
			}
			seen[t.TestName] = true
			out = append(out, t)
		}
	}

	keywords := make([]string, 0, len(FeatureMapping))
	for k := range FeatureMapping {
		keywords = append(keywords, k)
	}
	sort.Strings(keywords)
	for _, w := range wishes {
		for _, keyword := range keywords {
			if !strings.Contains(w.Feature, keyword) {
				continue
			}
			for _, t := range FeatureMapping[keyword].qcTests {
				if seen[t.TestName] {
					continue
				}
				seen[t.TestName] = true
				out = append(out, t)
			}
		}
	}

	return out
}

// canonicalSummary is the minimal, sorted structure inputsHash is
// computed over (spec §4.11).
type canonicalSummary struct {
	Defects []canonicalDefect `json:"defects"`
	Wishes  []canonicalWish   `json:"wishes"`
}

type canonicalDefect struct {
	Type      string  `json:"type"`
	Severity  float64 `json:"severity"`
	Frequency int     `json:"frequency"`
}

type canonicalWish struct {
	Feature      string  `json:"feature"`
	WishStrength float64 `json:"wish_strength"`
}

func inputsHash(profile reviews.ImprovementProfile) string {
	defects := make([]canonicalDefect, 0, len(profile.TopDefects))
	for _, d := range profile.TopDefects {
		defects = append(defects, canonicalDefect{Type: string(d.DefectType), Severity: d.SeverityScore, Frequency: d.Frequency})
	}
	sort.Slice(defects, func(i, j int) bool {
		if defects[i].Severity != defects[j].Severity {
			return defects[i].Severity > defects[j].Severity
		}
		return defects[i].Type < defects[j].Type
	})

	wishes := make([]canonicalWish, 0, len(profile.TopWishes))
	for _, w := range profile.TopWishes {
		wishes = append(wishes, canonicalWish{Feature: w.Feature, WishStrength: w.WishStrength()})
	}
	sort.Slice(wishes, func(i, j int) bool {
		if wishes[i].WishStrength != wishes[j].WishStrength {
			return wishes[i].WishStrength > wishes[j].WishStrength
		}
		return wishes[i].Feature < wishes[j].Feature
	})

	summary := canonicalSummary{Defects: defects, Wishes: wishes}
	encoded, _ := json.Marshal(summary)
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:])[:16]
}

func renderOEMSpec(b SpecBundle) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "OEM SPECIFICATION — %s\nmapping-version: %s\n\n", b.ListingID, b.MappingVersion)
	sb.WriteString("Bloc A — Defect Fixes\n")
	for i, e := range b.BlocA {
		fmt.Fprintf(&sb, "%d. [%s] %s\n   material: %s | tolerance: %s\n", i+1, e.Requirement.Priority, e.Requirement.Text, e.Requirement.MaterialSpec, e.Requirement.Tolerance)
	}
	sb.WriteString("\nBloc B — Feature Additions\n")
	for i, e := range b.BlocB {
		fmt.Fprintf(&sb, "%d. [%s] %s\n   material: %s | tolerance: %s\n", i+1, e.Requirement.Priority, e.Requirement.Text, e.Requirement.MaterialSpec, e.Requirement.Tolerance)
	}
	return sb.String()
}

func renderQCChecklist(b SpecBundle) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "QC CHECKLIST — %s\nmapping-version: %s\n\n", b.ListingID, b.MappingVersion)
	for i, t := range b.QCChecklist {
		fmt.Fprintf(&sb, "%d. [%s] %s (%s)\n   method: %s\n   pass: %s\n", i+1, t.Priority, t.TestName, t.Category, t.Method, t.PassCriterion)
	}
	return sb.String()
}

func renderOutreach(b SpecBundle) (subject, body string) {
	subject = fmt.Sprintf("Spec revision request — %s", b.ListingID)

	var sb strings.Builder
	sb.WriteString("Hello,\n\nBased on aggregated customer feedback, please review the following revisions:\n\n")
	for _, e := range b.BlocA {
		fmt.Fprintf(&sb, "- [%s] %s\n", e.Requirement.Priority, e.Requirement.Text)
	}
	for _, e := range b.BlocB {
		fmt.Fprintf(&sb, "- [%s] %s\n", e.Requirement.Priority, e.Requirement.Text)
	}
	sb.WriteString("\nA full QC checklist is attached separately. Please confirm feasibility and lead time.\n\nThank you.")
	body = sb.String()
	return subject, body
}
