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

CREATE TABLE IF NOT EXISTS attempts (
	id          TEXT PRIMARY KEY,
	epoch       INTEGER NOT NULL,
	outcome     TEXT NOT NULL CHECK(outcome IN ('already_marked', 'success', 'unknown', 'failure', 'skipped')),
	status      TEXT NOT NULL DEFAULT '',
	employee    TEXT NOT NULL DEFAULT '',
	error_code  TEXT NOT NULL DEFAULT '',
	confidence  REAL,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME NOT NULL
);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_attempts_started_at ON attempts(started_at);
CREATE INDEX IF NOT EXISTS idx_attempts_outcome ON attempts(outcome);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
