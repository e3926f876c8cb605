package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the newsletter database schema.
//
// Timestamps are stored as Unix microseconds so the upsert can keep
// updated_at strictly increasing inside a single statement.
const Schema = `
-- Newsletter records, one per publish date
CREATE TABLE IF NOT EXISTS newsletters (
    id TEXT PRIMARY KEY,
    publish_date TEXT NOT NULL UNIQUE,

    -- Content
    title TEXT NOT NULL DEFAULT '',
    hook TEXT NOT NULL DEFAULT '',
    sections TEXT NOT NULL DEFAULT '[]',
    conclusion TEXT NOT NULL DEFAULT '',
    sources TEXT NOT NULL DEFAULT '[]',

    -- Narration
    audio_url TEXT,
    audio_duration_seconds INTEGER,

    -- Outcome
    status TEXT NOT NULL,
    error_message TEXT,

    -- Timestamps (unix microseconds, UTC)
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_newsletters_status_updated ON newsletters(status, updated_at);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const recordColumns = `id, publish_date, title, hook, sections, conclusion, sources,
    audio_url, audio_duration_seconds, status, error_message, created_at, updated_at`

// olderThanPredicate is shared by the retention preview and delete paths.
const olderThanPredicate = `publish_date < ?`

const upsertRecord = `
INSERT INTO newsletters (` + recordColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(publish_date) DO UPDATE SET
    title = excluded.title,
    hook = excluded.hook,
    sections = excluded.sections,
    conclusion = excluded.conclusion,
    sources = excluded.sources,
    audio_url = excluded.audio_url,
    audio_duration_seconds = excluded.audio_duration_seconds,
    status = excluded.status,
    error_message = excluded.error_message,
    updated_at = MAX(excluded.updated_at, newsletters.updated_at + 1)
RETURNING ` + recordColumns

const updateStatus = `
INSERT INTO newsletters (id, publish_date, status, error_message, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(publish_date) DO UPDATE SET
    status = excluded.status,
    error_message = excluded.error_message,
    updated_at = MAX(excluded.updated_at, newsletters.updated_at + 1)
RETURNING ` + recordColumns

const (
	selectByDate = `SELECT ` + recordColumns + ` FROM newsletters WHERE publish_date = ?`

	selectLatestComplete = `SELECT ` + recordColumns + ` FROM newsletters
WHERE status = 'complete' ORDER BY updated_at DESC LIMIT 1`

	selectHistory = `SELECT ` + recordColumns + ` FROM newsletters
WHERE status = 'complete' ORDER BY publish_date DESC LIMIT ?`

	selectAll = `SELECT ` + recordColumns + ` FROM newsletters ORDER BY publish_date DESC`

	selectOlderThan = `SELECT ` + recordColumns + ` FROM newsletters
WHERE ` + olderThanPredicate + ` ORDER BY publish_date ASC`

	deleteOlderThan = `DELETE FROM newsletters WHERE ` + olderThanPredicate

	deleteByDate = `DELETE FROM newsletters WHERE publish_date = ?`

	deleteByID = `DELETE FROM newsletters WHERE id = ?`
)
