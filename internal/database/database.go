package database

import (
	"database/sql"

	_ "modernc.org/sqlite" // SQLite driver
)

// New creates a new database connection pool.
func New(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", "file:"+dataSourceName+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate runs the SQL statements to set up the database schema.
//
// The UNIQUE index on votes.voter_account_id is the single-vote gate: the
// storage layer rejects a second insert for the same voter no matter how the
// requests interleave. Candidate numbers come from the counters row, bumped
// atomically inside the registration transaction.
func Migrate(db *sql.DB) error {
	const sqlStmt = `
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT NOT NULL PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'candidate', 'admin')),
		refresh_token_hash TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS candidates (
		id TEXT NOT NULL PRIMARY KEY,
		account_id TEXT NOT NULL UNIQUE REFERENCES accounts(id),
		candidate_number INTEGER NOT NULL UNIQUE,
		display_name TEXT NOT NULL,
		slogan TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		image_ref TEXT NOT NULL DEFAULT '',
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS votes (
		id TEXT NOT NULL PRIMARY KEY,
		voter_account_id TEXT NOT NULL UNIQUE,
		candidate_account_id TEXT NOT NULL,
		cast_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT NOT NULL PRIMARY KEY,
		value INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS counters (
		name TEXT NOT NULL PRIMARY KEY,
		value INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT NOT NULL PRIMARY KEY,
		type TEXT NOT NULL,
		level TEXT NOT NULL,
		message TEXT NOT NULL,
		account_id TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS vote_snapshots (
		id TEXT NOT NULL PRIMARY KEY,
		total INTEGER NOT NULL,
		tally_json TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	INSERT OR IGNORE INTO settings (key, value) VALUES ('votingEnabled', 1);
	INSERT OR IGNORE INTO counters (name, value) VALUES ('candidate_number', 0);
	`
	_, err := db.Exec(sqlStmt)
	return err
}
