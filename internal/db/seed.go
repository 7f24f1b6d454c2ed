package db

import (
	"database/sql"
	"fmt"
	"time"
)

// SeedFixtures populates the database with a small development household.
// The rotation order and assignments are derived on first use.
func SeedFixtures(database *sql.DB) error {
	now := time.Now().UTC()

	members := []struct{ id, externalID, name, channel string }{
		{"MEM-001", "ha-alice", "Alice", "notify.mobile_app_alice"},
		{"MEM-002", "ha-bob", "Bob", "notify.mobile_app_bob"},
		{"MEM-003", "ha-carol", "Carol", "notify.mobile_app_carol"},
	}
	for _, m := range members {
		if _, err := database.Exec(
			`INSERT INTO members (id, external_id, display_name, notify_channel, active, created_at, updated_at)
			 VALUES (?, ?, ?, ?, 1, ?, ?)`,
			m.id, m.externalID, m.name, m.channel, now, now,
		); err != nil {
			return fmt.Errorf("seed members: %w", err)
		}
	}

	return nil
}
