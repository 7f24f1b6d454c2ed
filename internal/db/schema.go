package db

import (
	"database/sql"
	"fmt"
)

// SchemaSQL is the complete schema for fresh installs.
// This schema reflects the current state after all migrations.
//
// Tests load it through GetSchemaSQL() and never hardcode CREATE TABLE
// statements, so a repository referencing a missing column fails immediately
// with "no such column".
//
// When adding new columns or tables:
//  1. Add a migration in migrations.go
//  2. Update SchemaSQL here
//  3. Run `make test` to verify alignment
const SchemaSQL = `
-- Members (household directory mirror)
CREATE TABLE IF NOT EXISTS members (
	id TEXT PRIMARY KEY,
	external_id TEXT NOT NULL UNIQUE,
	display_name TEXT NOT NULL,
	notify_channel TEXT,
	active INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Rotation (singleton row holding the ordered member ids and the anchor week)
CREATE TABLE IF NOT EXISTS rotation_config (
	id INTEGER PRIMARY KEY CHECK(id = 1),
	ordered_member_ids TEXT NOT NULL DEFAULT '[]',
	anchor_week_start TEXT,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Assignments (one row per week, keyed by its Monday)
CREATE TABLE IF NOT EXISTS assignments (
	week_start TEXT PRIMARY KEY,
	assignee_member_id TEXT,
	status TEXT NOT NULL CHECK(status IN ('pending', 'done', 'missed')) DEFAULT 'pending',
	completed_by_member_id TEXT,
	completion_mode TEXT CHECK(completion_mode IN ('own', 'takeover')),
	completed_at DATETIME,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (assignee_member_id) REFERENCES members(id),
	FOREIGN KEY (completed_by_member_id) REFERENCES members(id)
);

CREATE INDEX IF NOT EXISTS idx_assignments_status ON assignments(status);

-- Overrides (swaps and compensations; one row per week and status)
CREATE TABLE IF NOT EXISTS overrides (
	id TEXT PRIMARY KEY,
	week_start TEXT NOT NULL,
	type TEXT NOT NULL CHECK(type IN ('manual_swap', 'compensation')),
	source TEXT NOT NULL CHECK(source IN ('manual', 'takeover_completion')) DEFAULT 'manual',
	source_event_id INTEGER,
	member_from_id TEXT NOT NULL,
	member_to_id TEXT NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('planned', 'applied', 'canceled')) DEFAULT 'planned',
	created_by_member_id TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (member_from_id) REFERENCES members(id),
	FOREIGN KEY (member_to_id) REFERENCES members(id),
	FOREIGN KEY (source_event_id) REFERENCES events(id),
	UNIQUE(week_start, status)
);

CREATE INDEX IF NOT EXISTS idx_overrides_source_event ON overrides(source_event_id);

-- Events (append-only activity log)
CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	domain TEXT NOT NULL,
	action TEXT NOT NULL,
	actor_member_id TEXT,
	actor_external_id TEXT,
	payload_json TEXT NOT NULL DEFAULT '{}',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_events_domain_action ON events(domain, action);

-- Notification dispatches (delivery audit written by the host)
CREATE TABLE IF NOT EXISTS notification_dispatches (
	id TEXT PRIMARY KEY,
	week_start TEXT NOT NULL,
	member_id TEXT,
	notify_channel TEXT,
	kind TEXT NOT NULL,
	slot TEXT,
	source_action TEXT,
	title TEXT,
	message TEXT,
	status TEXT NOT NULL CHECK(status IN ('sent', 'failed', 'skipped', 'suppressed', 'test_redirected')),
	reason TEXT,
	dispatched_at DATETIME NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_dispatches_week ON notification_dispatches(week_start);
`

// InitSchema creates the schema on a fresh database and runs pending
// migrations on an existing one.
func InitSchema(database *sql.DB) error {
	var tableCount int
	err := database.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}

	if tableCount > 0 {
		return RunMigrations(database)
	}

	var memberTables int
	err = database.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='members'").Scan(&memberTables)
	if err != nil {
		return err
	}
	if memberTables > 0 {
		// Tables from before versioning existed; migrate them forward.
		return RunMigrations(database)
	}

	tx, err := database.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(SchemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := tx.Exec(schemaVersionSQL); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}
	// Fresh installs start at the latest version.
	for _, m := range migrations {
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
