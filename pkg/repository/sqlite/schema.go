package sqlite

// Lowercased copies of name and chunk text are stored because SQLite lower()
// only folds ASCII.
const schema = `
CREATE TABLE IF NOT EXISTS guidelines (
	id TEXT PRIMARY KEY,
	code INTEGER,
	version INTEGER,
	name TEXT NOT NULL,
	name_lower TEXT NOT NULL,
	publish_date TEXT,
	status INTEGER NOT NULL,
	apply_status TEXT,
	source_url TEXT NOT NULL,
	pdf_url TEXT NOT NULL,
	is_oncology INTEGER NOT NULL DEFAULT 1,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_guidelines_publish_date ON guidelines(publish_date);
CREATE INDEX IF NOT EXISTS idx_guidelines_code ON guidelines(code);

CREATE TABLE IF NOT EXISTS guideline_sections (
	guideline_id TEXT NOT NULL,
	section_id TEXT NOT NULL,
	section_title TEXT NOT NULL,
	section_html TEXT NOT NULL,
	section_text TEXT NOT NULL,
	PRIMARY KEY (guideline_id, section_id),
	FOREIGN KEY (guideline_id) REFERENCES guidelines(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS recommendation_chunks (
	chunk_id TEXT PRIMARY KEY,
	guideline_id TEXT NOT NULL,
	section_id TEXT NOT NULL,
	chunk_text TEXT NOT NULL,
	chunk_text_lower TEXT NOT NULL,
	tags TEXT NOT NULL,
	evidence_level TEXT,
	source_anchor TEXT,
	created_at TEXT NOT NULL,
	FOREIGN KEY (guideline_id) REFERENCES guidelines(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_chunks_guideline ON recommendation_chunks(guideline_id);
CREATE INDEX IF NOT EXISTS idx_chunks_section ON recommendation_chunks(section_id);

CREATE VIRTUAL TABLE IF NOT EXISTS recommendation_chunks_fts
USING fts5(chunk_id UNINDEXED, chunk_text, tags);

CREATE TABLE IF NOT EXISTS validation_runs (
	run_id TEXT PRIMARY KEY,
	case_id TEXT,
	as_of_date TEXT NOT NULL,
	result_json TEXT NOT NULL,
	latency_ms INTEGER NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_validation_created ON validation_runs(created_at DESC);

CREATE TABLE IF NOT EXISTS benchmark_runs (
	bench_id TEXT PRIMARY KEY,
	dataset_version TEXT NOT NULL,
	report_json TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_benchmark_created ON benchmark_runs(created_at DESC);

CREATE TABLE IF NOT EXISTS trials_cache (
	query_key TEXT PRIMARY KEY,
	fetched_at TEXT NOT NULL,
	payload_json TEXT NOT NULL
);
`
