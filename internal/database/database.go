package database

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3" // SQLite driver
)

// New creates a new database connection pool.
func New(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dataSourceName+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate runs the SQL statements to set up the database schema. The UNIQUE
// indexes on users are the real uniqueness enforcement; the application-level
// existence checks are only a fast path for precise conflict reporting.
func Migrate(db *sql.DB) error {
	const sqlStmt = `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER NOT NULL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS entries (
		id INTEGER NOT NULL PRIMARY KEY,
		posted_by TEXT NOT NULL,
		date TEXT NOT NULL,
		time TEXT NOT NULL,
		mood INTEGER NOT NULL,
		sleep INTEGER,
		irritability INTEGER,
		-- Store list fields as JSON text
		medications_json TEXT,
		diet_json TEXT,
		exercise TEXT,
		notes TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_entries_posted_by ON entries (posted_by);

	CREATE TABLE IF NOT EXISTS counters (
		name TEXT NOT NULL PRIMARY KEY,
		value INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT NOT NULL PRIMARY KEY,
		type TEXT NOT NULL,
		level TEXT NOT NULL,
		message TEXT NOT NULL,
		username TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	INSERT OR IGNORE INTO counters (name, value) VALUES ('userid', 0), ('entryid', 0);
	`
	_, err := db.Exec(sqlStmt)
	return err
}

// IsUniqueViolation reports whether err is a SQLite UNIQUE constraint
// violation on the given column (e.g. "users.username").
func IsUniqueViolation(err error, column string) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	if sqliteErr.ExtendedCode != sqlite3.ErrConstraintUnique {
		return false
	}
	return strings.Contains(sqliteErr.Error(), column)
}
