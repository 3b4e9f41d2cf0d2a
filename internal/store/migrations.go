package store

// migration is one schema step of the mail cache. version is written to
// PRAGMA user_version once the step commits.
type migration struct {
	version int
	sql     string
}

// migrations run in order; versions start at 1 and never change once
// released.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS messages (
	id             TEXT PRIMARY KEY,
	account        TEXT NOT NULL,
	uid            INTEGER NOT NULL,
	from_name      TEXT NOT NULL DEFAULT '',
	from_address   TEXT NOT NULL DEFAULT '',
	to_addresses   TEXT NOT NULL DEFAULT '',
	subject        TEXT NOT NULL DEFAULT '',
	body           TEXT NOT NULL DEFAULT '',
	date           DATETIME NOT NULL,
	is_read        INTEGER NOT NULL DEFAULT 0,
	has_attachment INTEGER NOT NULL DEFAULT 0,
	attachments    TEXT NOT NULL DEFAULT '[]',
	fetched_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (account, uid)
);

CREATE INDEX IF NOT EXISTS idx_messages_account_date ON messages (account, date DESC);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS sent_messages (
	id           TEXT PRIMARY KEY,
	account      TEXT NOT NULL,
	to_addresses TEXT NOT NULL,
	subject      TEXT NOT NULL DEFAULT '',
	body         TEXT NOT NULL DEFAULT '',
	sent_at      DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sent_account_date ON sent_messages (account, sent_at DESC);
`,
	},
}
