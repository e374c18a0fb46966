package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema
// creation. Each migration must be idempotent. Append new migrations at
// the end.
var migrations = []string{
	// Migration 1: speed up candidate fetches for the match synthesizer.
	`CREATE INDEX IF NOT EXISTS idx_lost_active
	     ON lost_reports(status, category_id, location_id)`,
	`CREATE INDEX IF NOT EXISTS idx_found_active
	     ON found_items(status, category_id, location_id)`,
	// Migration 2: audit listing is filtered by action and time range.
	`CREATE INDEX IF NOT EXISTS idx_audit_action_time
	     ON audit_logs(action, created_at)`,
}

// Migrate ensures the base schema and applies all migrations.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return err
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
