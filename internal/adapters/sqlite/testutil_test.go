// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database schema is loaded for tests.
// All test setup functions use db.GetSchemaSQL() to ensure tests run against
// the authoritative schema, preventing drift between test and production.
//
// DO NOT hardcode CREATE TABLE statements in test files. Use setupTestDB()
// and the seed* helpers instead.
package sqlite_test

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/rota/internal/db"
)

// setupTestDB creates an in-memory database with the authoritative schema.
// This is the single shared test database setup function for all repository tests.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	// One connection keeps the in-memory database shared across queries.
	testDB.SetMaxOpenConns(1)

	_, err = testDB.Exec(db.GetSchemaSQL())
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedMember inserts an active member and returns its ID.
func seedMember(t *testing.T, db *sql.DB, id, name string) string {
	t.Helper()
	if id == "" {
		id = "MEM-001"
	}
	if name == "" {
		name = "Alice"
	}
	_, err := db.Exec(
		"INSERT INTO members (id, external_id, display_name, active) VALUES (?, ?, ?, 1)",
		id, "ext-"+id, name,
	)
	if err != nil {
		t.Fatalf("failed to seed member: %v", err)
	}
	return id
}

// seedHousehold inserts Alice, Bob and Carol as MEM-001..MEM-003.
func seedHousehold(t *testing.T, db *sql.DB) {
	t.Helper()
	seedMember(t, db, "MEM-001", "Alice")
	seedMember(t, db, "MEM-002", "Bob")
	seedMember(t, db, "MEM-003", "Carol")
}

// seedOverride inserts an override row and returns its ID.
func seedOverride(t *testing.T, db *sql.DB, id, weekStart, overrideType, from, to, status string) string {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO overrides (id, week_start, type, source, member_from_id, member_to_id, status, created_at, updated_at)
		 VALUES (?, ?, ?, 'manual', ?, ?, ?, ?, ?)`,
		id, weekStart, overrideType, from, to, status, time.Now().UTC(), time.Now().UTC(),
	)
	if err != nil {
		t.Fatalf("failed to seed override: %v", err)
	}
	return id
}

func mustWeek(t *testing.T, s string) time.Time {
	t.Helper()
	w, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("bad week %q: %v", s, err)
	}
	return w
}
