package specbundle

import "github.com/maous26/smartacus/internal/reviews"

// MappingVersion is bumped whenever the tables below change (spec §4.11).
const MappingVersion = "oem-mapping-v1"

// Priority enumerates OEM requirement severity (spec §3).
type Priority string

const (
	PriorityCritical Priority = "CRITICAL"
	PriorityHigh     Priority = "HIGH"
	PriorityMedium   Priority = "MEDIUM"
	PriorityLow      Priority = "LOW"
)

// QCPriority enumerates QC test mandatoriness (spec §3).
type QCPriority string

const (
	QCMandatory   QCPriority = "MANDATORY"
	QCRecommended QCPriority = "RECOMMENDED"
)

// Requirement is one OEM spec row.
type Requirement struct {
	Text         string
	MaterialSpec string
	Tolerance    string
	Priority     Priority
}

// QCTest is one QC checklist row.
type QCTest struct {
	TestName      string
	Category      string
	Method        string
	PassCriterion string
	Priority      QCPriority
}

// defectMappingEntry bundles the requirement(s) and QC test(s) a
// matched defect type produces.
type defectMappingEntry struct {
	requirements []Requirement
	qcTests      []QCTest
}

// DefectMapping is the closed defect-type -> (OEM requirements, QC tests)
// table (spec §4.11).
var DefectMapping = map[reviews.DefectType]defectMappingEntry{
	reviews.DefectZipperFailure: {
		requirements: []Requirement{
			{Text: "Upgrade to a reinforced double-pull zipper assembly", MaterialSpec: "#8 nylon coil, brass pull", Tolerance: "±0.2mm tooth pitch", Priority: PriorityHigh},
		},
		qcTests: []QCTest{
			{TestName: "zipper_cycle_test", Category: "mechanical", Method: "10,000-cycle open/close under load", PassCriterion: "no tooth separation", Priority: QCMandatory},
		},
	},
	reviews.DefectStitchingFailure: {
		requirements: []Requirement{
			{Text: "Switch to bar-tacked box-X stitching at stress points", MaterialSpec: "bonded nylon thread, Tex 70", Tolerance: "8-10 stitches/inch", Priority: PriorityHigh},
		},
		qcTests: []QCTest{
			{TestName: "seam_strength_test", Category: "mechanical", Method: "pull-to-failure at main seams", PassCriterion: ">= 40kg before seam failure", Priority: QCMandatory},
		},
	},
	reviews.DefectStrapBreakage: {
		requirements: []Requirement{
			{Text: "Reinforce strap attachment points with box-stitched webbing loops", MaterialSpec: "25mm polypropylene webbing", Tolerance: "min 25kg tensile", Priority: PriorityCritical},
		},
		qcTests: []QCTest{
			{TestName: "strap_load_test", Category: "mechanical", Method: "static hang test at rated capacity x2", PassCriterion: "no visible deformation", Priority: QCMandatory},
		},
	},
	reviews.DefectMaterialTear: {
		requirements: []Requirement{
			{Text: "Increase base fabric denier and add rip-stop weave", MaterialSpec: "600D rip-stop polyester", Tolerance: "+/-5% weight/m2", Priority: PriorityHigh},
		},
		qcTests: []QCTest{
			{TestName: "tear_strength_test", Category: "material", Method: "ASTM D1424 trapezoid tear", PassCriterion: ">= 15N", Priority: QCMandatory},
		},
	},
	reviews.DefectColorFade: {
		requirements: []Requirement{
			{Text: "Use UV-stabilized dye lot for exterior panels", MaterialSpec: "UV-resistant pigment dye", Tolerance: "Delta-E < 2 after test", Priority: PriorityMedium},
		},
		qcTests: []QCTest{
			{TestName: "uv_fade_test", Category: "material", Method: "100hr xenon-arc exposure", PassCriterion: "Delta-E < 3", Priority: QCRecommended},
		},
	},
	reviews.DefectBuckleFailure: {
		requirements: []Requirement{
			{Text: "Replace buckle with glass-fiber reinforced nylon hardware", MaterialSpec: "GF-reinforced POM/nylon", Tolerance: "min 50kg tensile", Priority: PriorityHigh},
		},
		qcTests: []QCTest{
			{TestName: "buckle_stress_test", Category: "mechanical", Method: "repeated snap-load cycling", PassCriterion: "no crack after 5,000 cycles", Priority: QCMandatory},
		},
	},
	reviews.DefectWaterLeakage: {
		requirements: []Requirement{
			{Text: "Apply seam-taped waterproof coating to main compartment", MaterialSpec: "TPU-coated fabric, taped seams", Tolerance: "IPX4 equivalent", Priority: PriorityHigh},
		},
		qcTests: []QCTest{
			{TestName: "water_ingress_test", Category: "material", Method: "spray test at 45 degrees, 10 minutes", PassCriterion: "no interior moisture", Priority: QCMandatory},
		},
	},
	reviews.DefectOdorRetention: {
		requirements: []Requirement{
			{Text: "Switch adhesive/coating supplier to low-VOC formulation", MaterialSpec: "low-VOC water-based adhesive", Tolerance: "VOC < 50g/L", Priority: PriorityMedium},
		},
		qcTests: []QCTest{
			{TestName: "off_gas_test", Category: "material", Method: "48hr sealed-bag odor panel", PassCriterion: "panel score <= 2/5", Priority: QCRecommended},
		},
	},
	reviews.DefectSizingMismatch: {
		requirements: []Requirement{
			{Text: "Revise size chart and add fit-confirmation diagram", MaterialSpec: "n/a", Tolerance: "+/-1cm vs published dims", Priority: PriorityMedium},
		},
		qcTests: []QCTest{
			{TestName: "dimension_audit", Category: "dimensional", Method: "sample measurement against spec sheet", PassCriterion: "within published tolerance", Priority: QCRecommended},
		},
	},
	reviews.DefectHandleBreakage: {
		requirements: []Requirement{
			{Text: "Reinforce handle core with steel-wire insert", MaterialSpec: "steel-wire-core webbing handle", Tolerance: "min 30kg tensile", Priority: PriorityCritical},
		},
		qcTests: []QCTest{
			{TestName: "handle_load_test", Category: "mechanical", Method: "static hang test at rated capacity x2", PassCriterion: "no visible deformation", Priority: QCMandatory},
		},
	},
}

// FeatureMapping is the feature-keyword -> (OEM requirements, QC tests)
// table (spec §4.11). Keys are matched case-insensitively as substrings
// against the normalized feature key.
var FeatureMapping = map[string]defectMappingEntry{
	"waterproof": {
		requirements: []Requirement{
			{Text: "Add fully waterproof variant with taped seams", MaterialSpec: "TPU-coated fabric, taped seams", Tolerance: "IPX4 equivalent", Priority: PriorityMedium},
		},
		qcTests: []QCTest{
			{TestName: "water_ingress_test", Category: "material", Method: "spray test at 45 degrees, 10 minutes", PassCriterion: "no interior moisture", Priority: QCRecommended},
		},
	},
	"pocket": {
		requirements: []Requirement{
			{Text: "Add additional zippered organizer pocket", MaterialSpec: "matches shell fabric", Tolerance: "n/a", Priority: PriorityLow},
		},
		qcTests: []QCTest{
			{TestName: "pocket_access_test", Category: "usability", Method: "one-handed access trial", PassCriterion: "accessible without removing pack", Priority: QCRecommended},
		},
	},
	"lighter": {
		requirements: []Requirement{
			{Text: "Reduce shell weight via lighter-denier fabric substitution where load allows", MaterialSpec: "400D ripstop alternative", Tolerance: "+/-5% target weight", Priority: PriorityLow},
		},
		qcTests: []QCTest{
			{TestName: "weight_audit", Category: "dimensional", Method: "sample weigh-in vs target spec", PassCriterion: "within published tolerance", Priority: QCRecommended},
		},
	},
	"color": {
		requirements: []Requirement{
			{Text: "Expand color/finish options based on requested palette", MaterialSpec: "n/a", Tolerance: "n/a", Priority: PriorityLow},
		},
		qcTests: []QCTest{
			{TestName: "colorway_audit", Category: "visual", Method: "sample compared against approved color standards", PassCriterion: "matches approved swatch", Priority: QCRecommended},
		},
	},
}

// priorityFromSeverity bands a defect's severity into an OEM requirement
// Priority (spec §4.11 "priority derived from severity via a banding
// function").
func priorityFromSeverity(severity float64) Priority {
	switch {
	case severity >= 0.75:
		return PriorityCritical
	case severity >= 0.5:
		return PriorityHigh
	case severity >= 0.25:
		return PriorityMedium
	default:
		return PriorityLow
	}
}
