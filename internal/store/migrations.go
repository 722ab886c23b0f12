package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
	id                   TEXT PRIMARY KEY,
	reason               TEXT NOT NULL,
	unread               INTEGER NOT NULL DEFAULT 1,
	subject_title        TEXT NOT NULL DEFAULT '',
	subject_url          TEXT NOT NULL DEFAULT '',
	subject_type         TEXT NOT NULL DEFAULT '',
	repository_name      TEXT NOT NULL DEFAULT '',
	repository_full_name TEXT NOT NULL DEFAULT '',
	repository_html_url  TEXT NOT NULL DEFAULT '',
	updated_at           DATETIME NOT NULL,
	insert_time          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	read_time            DATETIME
);

CREATE INDEX IF NOT EXISTS idx_notifications_reason ON notifications(reason);
CREATE INDEX IF NOT EXISTS idx_notifications_unread ON notifications(unread);
CREATE INDEX IF NOT EXISTS idx_notifications_updated_at ON notifications(updated_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS batches (
	id          TEXT PRIMARY KEY,
	received_at DATETIME NOT NULL,
	size        INTEGER NOT NULL,
	added       INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_batches_received_at ON batches(received_at);
CREATE INDEX IF NOT EXISTS idx_notifications_repo
	ON notifications(repository_full_name, updated_at);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
