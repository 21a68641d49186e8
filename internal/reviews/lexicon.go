package reviews

// DefectType is one of the closed set of niche-specific defect tags
// (spec §4.9: "a fixed closed set for the target vertical"). The
// vertical modeled here is durable consumer hardgoods (bags, luggage,
// outdoor gear) — the same shape original_source/ describes for its
// OEM spec/QC mapping.
type DefectType string

const (
	DefectZipperFailure     DefectType = "zipper_failure"
	DefectStitchingFailure  DefectType = "stitching_failure"
	DefectStrapBreakage     DefectType = "strap_breakage"
	DefectMaterialTear      DefectType = "material_tear"
	DefectColorFade         DefectType = "color_fade"
	DefectBuckleFailure     DefectType = "buckle_failure"
	DefectWaterLeakage      DefectType = "water_leakage"
	DefectOdorRetention     DefectType = "odor_retention"
	DefectSizingMismatch    DefectType = "sizing_mismatch"
	DefectHandleBreakage    DefectType = "handle_breakage"
)

// WeightedKeyword is one lexicon entry: a phrase and its severity weight.
type WeightedKeyword struct {
	Phrase string
	Weight float64
}

// Lexicon maps each defect type to its weighted keyword bag (spec §4.9).
var Lexicon = map[DefectType][]WeightedKeyword{
	DefectZipperFailure: {
		{Phrase: "zipper broke", Weight: 1.0},
		{Phrase: "zipper stuck", Weight: 0.6},
		{Phrase: "zipper came off", Weight: 1.0},
		{Phrase: "zip failed", Weight: 0.8},
	},
	DefectStitchingFailure: {
		{Phrase: "seam ripped", Weight: 1.0},
		{Phrase: "stitching came undone", Weight: 1.0},
		{Phrase: "threads unraveling", Weight: 0.7},
		{Phrase: "coming apart at the seams", Weight: 0.9},
	},
	DefectStrapBreakage: {
		{Phrase: "strap broke", Weight: 1.0},
		{Phrase: "strap tore", Weight: 0.9},
		{Phrase: "strap snapped", Weight: 1.0},
	},
	DefectMaterialTear: {
		{Phrase: "material tore", Weight: 0.9},
		{Phrase: "ripped easily", Weight: 0.8},
		{Phrase: "fabric is thin", Weight: 0.5},
		{Phrase: "tears easily", Weight: 0.8},
	},
	DefectColorFade: {
		{Phrase: "color faded", Weight: 0.6},
		{Phrase: "faded after", Weight: 0.6},
		{Phrase: "discolored", Weight: 0.5},
	},
	DefectBuckleFailure: {
		{Phrase: "buckle broke", Weight: 1.0},
		{Phrase: "buckle snapped", Weight: 1.0},
		{Phrase: "clasp failed", Weight: 0.7},
	},
	DefectWaterLeakage: {
		{Phrase: "not waterproof", Weight: 0.8},
		{Phrase: "leaks when it rains", Weight: 1.0},
		{Phrase: "water got in", Weight: 0.9},
	},
	DefectOdorRetention: {
		{Phrase: "smells bad", Weight: 0.5},
		{Phrase: "chemical smell", Weight: 0.6},
		{Phrase: "odor won't go away", Weight: 0.7},
	},
	DefectSizingMismatch: {
		{Phrase: "runs small", Weight: 0.5},
		{Phrase: "runs large", Weight: 0.5},
		{Phrase: "sizing is off", Weight: 0.6},
	},
	DefectHandleBreakage: {
		{Phrase: "handle broke", Weight: 1.0},
		{Phrase: "handle tore off", Weight: 1.0},
	},
}

// WishPatterns are substring triggers used to locate feature-wish
// sentences within a review body (spec §4.9). Matching is on the
// lower-cased body; the remainder of the sentence after the trigger is
// captured as the candidate feature text.
var WishPatterns = []string{
	"i wish",
	"would be better if",
	"would love",
	"missing",
	"needs",
	"should have",
	"lacks",
}

// StopWords are removed when normalizing a captured wish into a key.
var StopWords = map[string]bool{
	"a": true, "an": true, "the": true, "it": true, "to": true,
	"is": true, "was": true, "had": true, "have": true, "this": true,
	"that": true, "of": true, "for": true, "with": true, "and": true,
	"i": true, "my": true, "so": true, "it's": true, "but": true,
}
