package sqlite

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// schema is bootstrapped on open; sqlite is the zero-setup dev store, so it
// owns its own DDL unlike the server engines.
const schema = `
CREATE TABLE IF NOT EXISTS compliance_reports (
	id            TEXT PRIMARY KEY,
	filename      TEXT NOT NULL,
	file_url      TEXT NOT NULL,
	created_at    TIMESTAMP NOT NULL,
	compliance_score INTEGER,
	critical      INTEGER NOT NULL DEFAULT 0,
	high          INTEGER NOT NULL DEFAULT 0,
	medium        INTEGER NOT NULL DEFAULT 0,
	low           INTEGER NOT NULL DEFAULT 0,
	resolved      INTEGER NOT NULL DEFAULT 0,
	issues_total  INTEGER NOT NULL DEFAULT 0,
	recent_issues TEXT NOT NULL DEFAULT '[]',
	claims        TEXT NOT NULL DEFAULT '[]',
	ingredients   TEXT NOT NULL DEFAULT '[]',
	findings      TEXT NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS idx_reports_created_at ON compliance_reports (created_at DESC);

CREATE TABLE IF NOT EXISTS analysis_failures (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	filename   TEXT NOT NULL,
	stage      TEXT NOT NULL,
	message    TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
`

func Connect(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// sqlite handles one writer at a time
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, err
	}
	return db, nil
}
