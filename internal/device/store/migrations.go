package store

type migration struct {
	version int
	sql     string
}

// migrations must stay sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS device (
	singleton   INTEGER PRIMARY KEY CHECK (singleton = 1),
	device_id   TEXT NOT NULL,
	permission  TEXT NOT NULL DEFAULT 'default',
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS background_contexts (
	path          TEXT PRIMARY KEY,
	subscription  TEXT NOT NULL,
	registered_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS device_tokens (
	value         TEXT PRIMARY KEY,
	subscription  TEXT NOT NULL,
	key_hash      TEXT NOT NULL,
	issued_at     DATETIME NOT NULL,
	superseded_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_device_tokens_active
	ON device_tokens (subscription, superseded_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS foreground_lease (
	singleton  INTEGER PRIMARY KEY CHECK (singleton = 1),
	holder     TEXT NOT NULL,
	expires_at INTEGER NOT NULL
);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
