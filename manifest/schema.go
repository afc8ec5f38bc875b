package manifest

// Schema statements are executed in order against a freshly opened
// database. CREATE TABLE / INDEX both use IF NOT EXISTS so opening an
// existing manifest is idempotent — no migration machinery, since the
// schema has never changed shape.

const paperSchema = `
CREATE TABLE IF NOT EXISTS paper_index (
	paper_id TEXT PRIMARY KEY,
	archive_file TEXT NOT NULL,
	offset INTEGER NOT NULL,
	size INTEGER NOT NULL,
	file_type TEXT NOT NULL,
	year INTEGER NOT NULL,
	record_created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	categories TEXT,
	title TEXT,
	authors TEXT,
	abstract TEXT,
	doi TEXT,
	journal_ref TEXT,
	comments TEXT,
	submitter TEXT,
	report_no TEXT,
	versions TEXT
);
CREATE INDEX IF NOT EXISTS paper_index_year_idx ON paper_index (year);
CREATE INDEX IF NOT EXISTS paper_index_archive_file_idx ON paper_index (archive_file);
CREATE INDEX IF NOT EXISTS paper_index_categories_idx ON paper_index (categories);
CREATE INDEX IF NOT EXISTS paper_index_doi_idx ON paper_index (doi);

CREATE TABLE IF NOT EXISTS bulk_files (
	file_path TEXT PRIMARY KEY,
	file_hash TEXT NOT NULL,
	last_modified REAL NOT NULL,
	processed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

const patentSchema = `
CREATE TABLE IF NOT EXISTS patent_index (
	patent_id TEXT PRIMARY KEY,
	archive_file TEXT NOT NULL,
	offset INTEGER NOT NULL,
	size INTEGER NOT NULL,
	doc_type TEXT NOT NULL DEFAULT 'grant',
	kind_code TEXT,
	year INTEGER,
	record_created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS patent_index_year_idx ON patent_index (year);
CREATE INDEX IF NOT EXISTS patent_index_archive_file_idx ON patent_index (archive_file);
CREATE INDEX IF NOT EXISTS patent_index_doc_type_idx ON patent_index (doc_type);

CREATE TABLE IF NOT EXISTS bulk_files (
	file_path TEXT PRIMARY KEY,
	file_hash TEXT NOT NULL,
	last_modified REAL NOT NULL,
	processed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`
