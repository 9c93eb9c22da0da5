package store

// Schema v1 - the catalog as it existed before the two-phase review
// pipeline: collections, Dublin Core records, media attachments, and the
// step-level session tracker.
const schemaV1 = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Named groupings of catalog records
CREATE TABLE IF NOT EXISTS collections (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  description TEXT,
  is_public INTEGER DEFAULT 1,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Dublin Core catalog records
CREATE TABLE IF NOT EXISTS dublin_core_records (
  id TEXT PRIMARY KEY,
  collection_id TEXT REFERENCES collections(id) ON DELETE CASCADE,
  title TEXT,
  creator TEXT,
  subject TEXT,
  description TEXT,
  publisher TEXT,
  contributor TEXT,
  date_created TEXT,
  type TEXT,
  format TEXT,
  identifier TEXT,
  source TEXT,
  language TEXT DEFAULT 'en',
  relation TEXT,
  coverage TEXT,
  rights TEXT,
  searchable_content TEXT,
  metadata TEXT,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_dublin_core_title ON dublin_core_records(title);
CREATE INDEX IF NOT EXISTS idx_dublin_core_creator ON dublin_core_records(creator);
CREATE INDEX IF NOT EXISTS idx_dublin_core_subject ON dublin_core_records(subject);
CREATE INDEX IF NOT EXISTS idx_dublin_core_identifier ON dublin_core_records(identifier);
CREATE INDEX IF NOT EXISTS idx_dublin_core_collection ON dublin_core_records(collection_id);

-- File attachments owned by catalog records
CREATE TABLE IF NOT EXISTS media_files (
  id TEXT PRIMARY KEY,
  record_id TEXT NOT NULL REFERENCES dublin_core_records(id) ON DELETE CASCADE,
  file_path TEXT NOT NULL,
  file_type TEXT,
  file_size INTEGER,
  mime_type TEXT,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_media_files_record ON media_files(record_id);

-- Step-level pipeline tracking, keyed by a business session id
CREATE TABLE IF NOT EXISTS processing_sessions (
  id TEXT PRIMARY KEY,
  session_id TEXT NOT NULL UNIQUE,
  status TEXT DEFAULT 'created',
  current_step TEXT,
  steps_completed TEXT DEFAULT '[]',
  stats TEXT DEFAULT '{}',
  error_log TEXT,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE VIEW IF NOT EXISTS dublin_core_with_collection AS
SELECT r.*, c.name AS collection_name, c.description AS collection_description
  FROM dublin_core_records r
  LEFT JOIN collections c ON r.collection_id = c.id;
`

// Schema v2 - the two-phase review pipeline: the per-session tracker that
// records carry a stamp from, the staging table items wait in before
// promotion, and the full-text index over the catalog. The view is rebuilt
// because dublin_core_records gained columns.
const schemaV2 = `
-- Per-session tracker for the review pipeline
CREATE TABLE IF NOT EXISTS processing_sessions_new (
  session_id TEXT PRIMARY KEY,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  status TEXT DEFAULT 'created',
  uploaded_filename TEXT,
  session_path TEXT,
  total_items INTEGER DEFAULT 0,
  duplicates_found INTEGER DEFAULT 0,
  quality_issues INTEGER DEFAULT 0,
  completed_at DATETIME,
  imported_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_sessions_new_status ON processing_sessions_new(status);

-- Extracted items awaiting human review before promotion into the catalog
CREATE TABLE IF NOT EXISTS processing_items_temp (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  session_id TEXT NOT NULL REFERENCES processing_sessions_new(session_id) ON DELETE CASCADE,
  directory TEXT,
  id_number TEXT,
  front_image_path TEXT,
  back_image_path TEXT,
  handwritten_notes TEXT,
  printed_labels TEXT,
  addresses TEXT,
  other_markings TEXT,
  extraction_notes TEXT,
  flags TEXT DEFAULT '[]',
  processed_at TEXT,
  model_used TEXT DEFAULT 'gpt-4o',
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_items_temp_session ON processing_items_temp(session_id);

ALTER TABLE dublin_core_records ADD COLUMN session_id TEXT REFERENCES processing_sessions_new(session_id);
ALTER TABLE dublin_core_records ADD COLUMN imported_at DATETIME;

CREATE INDEX IF NOT EXISTS idx_dublin_core_type ON dublin_core_records(type);
CREATE INDEX IF NOT EXISTS idx_dublin_core_date ON dublin_core_records(date_created);
CREATE INDEX IF NOT EXISTS idx_dublin_core_session ON dublin_core_records(session_id);

-- Full-text index over the catalog. External content table kept in sync
-- by the triggers below, never by application code.
CREATE VIRTUAL TABLE IF NOT EXISTS catalog_fts USING fts5(
  title, description, searchable_content,
  content='dublin_core_records'
);

CREATE TRIGGER IF NOT EXISTS dublin_core_ai AFTER INSERT ON dublin_core_records BEGIN
  INSERT INTO catalog_fts(rowid, title, description, searchable_content)
  VALUES (new.rowid, COALESCE(new.title,''), COALESCE(new.description,''), COALESCE(new.searchable_content,''));
END;

CREATE TRIGGER IF NOT EXISTS dublin_core_ad AFTER DELETE ON dublin_core_records BEGIN
  INSERT INTO catalog_fts(catalog_fts, rowid, title, description, searchable_content)
  VALUES ('delete', old.rowid, COALESCE(old.title,''), COALESCE(old.description,''), COALESCE(old.searchable_content,''));
END;

CREATE TRIGGER IF NOT EXISTS dublin_core_au AFTER UPDATE ON dublin_core_records BEGIN
  INSERT INTO catalog_fts(catalog_fts, rowid, title, description, searchable_content)
  VALUES ('delete', old.rowid, COALESCE(old.title,''), COALESCE(old.description,''), COALESCE(old.searchable_content,''));
  INSERT INTO catalog_fts(rowid, title, description, searchable_content)
  VALUES (new.rowid, COALESCE(new.title,''), COALESCE(new.description,''), COALESCE(new.searchable_content,''));
END;

-- Rebuild the join view so it exposes the new record columns
DROP VIEW IF EXISTS dublin_core_with_collection;
CREATE VIEW dublin_core_with_collection AS
SELECT r.*, c.name AS collection_name, c.description AS collection_description
  FROM dublin_core_records r
  LEFT JOIN collections c ON r.collection_id = c.id;
`
