package postgres

// Lowercased copies of name and chunk text are stored so that matching does
// not depend on the database collation.
const schema = `
CREATE TABLE IF NOT EXISTS guidelines (
	id TEXT PRIMARY KEY,
	code BIGINT,
	version INTEGER,
	name TEXT NOT NULL,
	name_lower TEXT NOT NULL,
	publish_date TEXT,
	status INTEGER NOT NULL,
	apply_status TEXT,
	source_url TEXT NOT NULL,
	pdf_url TEXT NOT NULL,
	is_oncology BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_guidelines_publish_date ON guidelines(publish_date);
CREATE INDEX IF NOT EXISTS idx_guidelines_code ON guidelines(code);

CREATE TABLE IF NOT EXISTS guideline_sections (
	guideline_id TEXT NOT NULL REFERENCES guidelines(id) ON DELETE CASCADE,
	section_id TEXT NOT NULL,
	section_title TEXT NOT NULL,
	section_html TEXT NOT NULL,
	section_text TEXT NOT NULL,
	PRIMARY KEY (guideline_id, section_id)
);

CREATE TABLE IF NOT EXISTS recommendation_chunks (
	chunk_id TEXT PRIMARY KEY,
	guideline_id TEXT NOT NULL REFERENCES guidelines(id) ON DELETE CASCADE,
	section_id TEXT NOT NULL,
	chunk_text TEXT NOT NULL,
	chunk_text_lower TEXT NOT NULL,
	tags TEXT[] NOT NULL DEFAULT '{}',
	evidence_level TEXT,
	source_anchor TEXT,
	search_tsv TSVECTOR NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chunks_guideline ON recommendation_chunks(guideline_id);
CREATE INDEX IF NOT EXISTS idx_chunks_section ON recommendation_chunks(section_id);
CREATE INDEX IF NOT EXISTS idx_chunks_tsv ON recommendation_chunks USING GIN(search_tsv);

CREATE TABLE IF NOT EXISTS validation_runs (
	run_id TEXT PRIMARY KEY,
	case_id TEXT,
	as_of_date TEXT NOT NULL,
	result_json JSONB NOT NULL,
	latency_ms BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_validation_created ON validation_runs(created_at DESC);

CREATE TABLE IF NOT EXISTS benchmark_runs (
	seq BIGSERIAL,
	bench_id TEXT PRIMARY KEY,
	dataset_version TEXT NOT NULL,
	report_json JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_benchmark_created ON benchmark_runs(created_at DESC);

CREATE TABLE IF NOT EXISTS trials_cache (
	query_key TEXT PRIMARY KEY,
	fetched_at TIMESTAMPTZ NOT NULL,
	payload_json JSONB NOT NULL
);
`
