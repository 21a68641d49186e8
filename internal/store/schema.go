package store

// schemaSQL is the single source of truth for every Smartacus table (spec
// §6). Complex nested fields (category paths, dimensions, rating
// histograms, example quotes, component breakdowns) are stored as JSON
// text columns, matching spec §6's "opportunities ... carries score and
// component JSON".
const schemaSQL = `
CREATE TABLE IF NOT EXISTS listings (
	listing_id      TEXT PRIMARY KEY,
	title           TEXT NOT NULL DEFAULT '',
	brand           TEXT NOT NULL DEFAULT '',
	manufacturer    TEXT NOT NULL DEFAULT '',
	model           TEXT NOT NULL DEFAULT '',
	category_path   TEXT NOT NULL DEFAULT '[]',
	weight_grams    REAL NOT NULL DEFAULT 0,
	dimensions_cm   TEXT NOT NULL DEFAULT '[0,0,0]',
	image_url       TEXT NOT NULL DEFAULT '',
	is_active       INTEGER NOT NULL DEFAULT 1,
	first_seen_at   TEXT NOT NULL,
	last_seen_at    TEXT NOT NULL,
	deactivated_at  TEXT
);

CREATE TABLE IF NOT EXISTS snapshots (
	listing_id           TEXT NOT NULL,
	captured_at          TEXT NOT NULL,
	current_price_cents  INTEGER NOT NULL DEFAULT 0,
	original_price_cents INTEGER NOT NULL DEFAULT 0,
	lowest_new_cents     INTEGER NOT NULL DEFAULT 0,
	lowest_used_cents    INTEGER NOT NULL DEFAULT 0,
	currency             TEXT NOT NULL DEFAULT 'USD',
	bsr                  INTEGER NOT NULL DEFAULT 0,
	bsr_category         TEXT NOT NULL DEFAULT '',
	stock                TEXT NOT NULL DEFAULT 'unknown',
	fulfillment          TEXT NOT NULL DEFAULT 'unknown',
	seller_count         INTEGER NOT NULL DEFAULT 0,
	rating_average       REAL NOT NULL DEFAULT 0,
	review_count         INTEGER NOT NULL DEFAULT 0,
	rating_histogram     TEXT,
	ingestion_session_id TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (listing_id, captured_at)
);
CREATE INDEX IF NOT EXISTS idx_snapshots_listing_captured ON snapshots(listing_id, captured_at DESC);

CREATE TABLE IF NOT EXISTS price_events (
	listing_id   TEXT NOT NULL,
	detected_at  TEXT NOT NULL,
	before_cents INTEGER NOT NULL,
	after_cents  INTEGER NOT NULL,
	percent_change REAL NOT NULL,
	direction    TEXT NOT NULL,
	severity     TEXT NOT NULL,
	PRIMARY KEY (listing_id, detected_at)
);

CREATE TABLE IF NOT EXISTS bsr_events (
	listing_id   TEXT NOT NULL,
	detected_at  TEXT NOT NULL,
	before_bsr   INTEGER NOT NULL,
	after_bsr    INTEGER NOT NULL,
	percent_change REAL NOT NULL,
	direction    TEXT NOT NULL,
	severity     TEXT NOT NULL,
	PRIMARY KEY (listing_id, detected_at)
);

CREATE TABLE IF NOT EXISTS stock_events (
	listing_id  TEXT NOT NULL,
	detected_at TEXT NOT NULL,
	before_status TEXT NOT NULL,
	after_status  TEXT NOT NULL,
	direction   TEXT NOT NULL,
	severity    TEXT NOT NULL,
	PRIMARY KEY (listing_id, detected_at)
);

CREATE TABLE IF NOT EXISTS economic_events (
	listing_id   TEXT NOT NULL,
	detected_at  TEXT NOT NULL,
	type         TEXT NOT NULL,
	thesis       TEXT NOT NULL,
	confidence   TEXT NOT NULL,
	urgency      TEXT NOT NULL,
	window_days  INTEGER NOT NULL,
	supporting_signals TEXT NOT NULL DEFAULT '[]',
	contradicting_signals TEXT NOT NULL DEFAULT '[]',
	opportunity_value REAL,
	PRIMARY KEY (listing_id, detected_at)
);

CREATE TABLE IF NOT EXISTS opportunities (
	listing_id        TEXT NOT NULL,
	detected_at       TEXT NOT NULL,
	base_score        REAL NOT NULL,
	time_multiplier   REAL NOT NULL,
	final_score       INTEGER NOT NULL,
	est_monthly_profit_cents INTEGER NOT NULL,
	est_annual_value_cents   INTEGER NOT NULL,
	risk_adjusted_value_cents INTEGER NOT NULL,
	window_class      TEXT NOT NULL,
	window_days       INTEGER NOT NULL,
	thesis            TEXT NOT NULL,
	rank_score        REAL NOT NULL,
	confidence        REAL NOT NULL,
	components_json   TEXT NOT NULL DEFAULT '{}',
	PRIMARY KEY (listing_id, detected_at)
);
CREATE INDEX IF NOT EXISTS idx_opportunities_rank ON opportunities(rank_score DESC);

CREATE TABLE IF NOT EXISTS pipeline_runs (
	run_id       TEXT PRIMARY KEY,
	category_id  TEXT NOT NULL DEFAULT '',
	started_at   TEXT NOT NULL,
	completed_at TEXT,
	status       TEXT NOT NULL,
	stages_json  TEXT NOT NULL DEFAULT '[]',
	opportunities_found INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS token_budget (
	year_month           TEXT PRIMARY KEY,
	monthly_limit        INTEGER NOT NULL,
	tokens_used          INTEGER NOT NULL DEFAULT 0,
	discovery_alloc_pct  REAL NOT NULL DEFAULT 0,
	scanning_alloc_pct   REAL NOT NULL DEFAULT 0,
	runs_completed       INTEGER NOT NULL DEFAULT 0,
	categories_scanned   INTEGER NOT NULL DEFAULT 0,
	opportunities_found  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS niche_registry (
	category_id         TEXT NOT NULL,
	marketplace_domain  INTEGER NOT NULL,
	name                TEXT NOT NULL DEFAULT '',
	path_json           TEXT NOT NULL DEFAULT '[]',
	priority            INTEGER NOT NULL DEFAULT 5,
	is_active           INTEGER NOT NULL DEFAULT 1,
	total_runs          INTEGER NOT NULL DEFAULT 0,
	total_opportunities_found INTEGER NOT NULL DEFAULT 0,
	conversion_rate       REAL NOT NULL DEFAULT 0,
	prior_conversion_rate REAL NOT NULL DEFAULT 0,
	last_scanned_at       TEXT,
	tokens_used           INTEGER NOT NULL DEFAULT 0,
	avg_opportunity_score REAL NOT NULL DEFAULT 0,
	PRIMARY KEY (category_id, marketplace_domain)
);

CREATE TABLE IF NOT EXISTS niche_performance_history (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	category_id     TEXT NOT NULL,
	recorded_at     TEXT NOT NULL,
	niches_scanned  INTEGER NOT NULL,
	opportunities_found INTEGER NOT NULL,
	conversion_rate REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_niche_perf_category ON niche_performance_history(category_id, recorded_at DESC);

CREATE TABLE IF NOT EXISTS review_defects (
	listing_id     TEXT NOT NULL,
	run_id         TEXT NOT NULL,
	defect_type    TEXT NOT NULL,
	frequency      INTEGER NOT NULL,
	severity_score REAL NOT NULL,
	example_quotes TEXT NOT NULL DEFAULT '[]',
	total_reviews_scanned    INTEGER NOT NULL DEFAULT 0,
	negative_reviews_scanned INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (listing_id, run_id, defect_type)
);

CREATE TABLE IF NOT EXISTS review_feature_requests (
	listing_id    TEXT NOT NULL,
	run_id        TEXT NOT NULL,
	feature       TEXT NOT NULL,
	mentions      INTEGER NOT NULL,
	confidence    REAL NOT NULL,
	source_quotes TEXT NOT NULL DEFAULT '[]',
	helpful_votes INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (listing_id, run_id, feature)
);

CREATE TABLE IF NOT EXISTS improvement_profiles (
	listing_id                 TEXT NOT NULL,
	run_id                     TEXT NOT NULL,
	dominant_pain              TEXT NOT NULL DEFAULT 'none',
	improvement_score          REAL NOT NULL DEFAULT 0,
	reviews_analyzed           INTEGER NOT NULL DEFAULT 0,
	negative_reviews_analyzed  INTEGER NOT NULL DEFAULT 0,
	reviews_ready              INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (listing_id, run_id)
);

CREATE TABLE IF NOT EXISTS sourcing_quotes (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	listing_id        TEXT NOT NULL,
	supplier_name     TEXT NOT NULL DEFAULT '',
	unit_cost_cents   INTEGER NOT NULL,
	moq               INTEGER NOT NULL DEFAULT 0,
	lead_time_days    INTEGER NOT NULL DEFAULT 0,
	quoted_at         TEXT NOT NULL,
	expires_at        TEXT,
	is_active         INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_sourcing_quotes_listing ON sourcing_quotes(listing_id, is_active);

CREATE TABLE IF NOT EXISTS spec_bundles (
	listing_id        TEXT NOT NULL,
	run_id            TEXT NOT NULL,
	mapping_version   TEXT NOT NULL,
	inputs_hash       TEXT NOT NULL,
	bundle_json       TEXT NOT NULL,
	rendered_oem_spec TEXT NOT NULL,
	rendered_qc       TEXT NOT NULL,
	rendered_outreach TEXT NOT NULL,
	created_at        TEXT NOT NULL,
	PRIMARY KEY (listing_id, run_id)
);
`
