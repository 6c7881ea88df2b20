package database

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

// schemaSQLite mirrors schemaMySQL for the in-memory test database.
// Column declarations keep DATETIME/TIMESTAMP types so the sqlite
// driver scans them back into time.Time values.
var schemaSQLite = []string{
	`CREATE TABLE animals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		breed TEXT NOT NULL DEFAULT '',
		sex TEXT NOT NULL DEFAULT '',
		birth_date DATETIME NULL,
		father_id INTEGER NULL,
		mother_id INTEGER NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE clients (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE litters (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		father_id INTEGER NOT NULL,
		mother_id INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'planned',
		total_males INTEGER NOT NULL DEFAULT 0,
		total_females INTEGER NOT NULL DEFAULT 0,
		available_males INTEGER NOT NULL DEFAULT 0,
		available_females INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE puppies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		litter_id INTEGER NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		gender TEXT NOT NULL,
		color TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE reservations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		client_id INTEGER NOT NULL,
		reservation_type TEXT NOT NULL,
		litter_id INTEGER NULL,
		puppy_id INTEGER NULL UNIQUE,
		choice_gender TEXT NULL,
		deposit_cents INTEGER NOT NULL,
		deposit_paid INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'awaiting_deposit',
		expires_at DATETIME NULL,
		status_history TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE reservation_preferences (
		reservation_id INTEGER PRIMARY KEY,
		data TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE reservation_documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		reservation_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		url TEXT NOT NULL,
		uploaded_at DATETIME NOT NULL
	)`,
}

// NewTestDB creates a fresh in-memory SQLite database with the schema
// applied.  Repository SQL is dialect-portable, so tests exercise the
// same queries that run against MySQL in production.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	// A single connection keeps every statement on the same in-memory DB.
	db.SetMaxOpenConns(1)

	for _, stmt := range schemaSQLite {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			t.Fatalf("creating test database schema: %v", err)
		}
	}

	t.Cleanup(func() { db.Close() })

	return db
}
