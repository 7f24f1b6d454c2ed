package db

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// migrations is the list of all migrations in order
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_rotation_tables",
		Up:      migrationV1,
	},
	{
		Version: 2,
		Name:    "add_notification_dispatches",
		Up:      migrationV2,
	},
}

const schemaVersionSQL = `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)
`

// LatestVersion returns the highest known migration version.
func LatestVersion() int {
	return migrations[len(migrations)-1].Version
}

// CurrentVersion returns the highest applied migration version.
func CurrentVersion(database *sql.DB) (int, error) {
	var version int
	err := database.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get current schema version: %w", err)
	}
	return version, nil
}

// RunMigrations executes all pending migrations
func RunMigrations(database *sql.DB) error {
	if _, err := database.Exec(schemaVersionSQL); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	currentVersion, err := CurrentVersion(database)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		slog.Info("running migration", "version", migration.Version, "name", migration.Name)

		tx, err := database.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// migrationV1 creates the member, rotation, assignment, override and event tables.
func migrationV1(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS members (
			id TEXT PRIMARY KEY,
			external_id TEXT NOT NULL UNIQUE,
			display_name TEXT NOT NULL,
			notify_channel TEXT,
			active INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS rotation_config (
			id INTEGER PRIMARY KEY CHECK(id = 1),
			ordered_member_ids TEXT NOT NULL DEFAULT '[]',
			anchor_week_start TEXT,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

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
	`)
	return err
}

// migrationV2 adds the notification dispatch audit table.
func migrationV2(tx *sql.Tx) error {
	_, err := tx.Exec(`
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
	`)
	return err
}
