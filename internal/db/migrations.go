package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: customers are looked up by name from the rental desk.
	`CREATE INDEX IF NOT EXISTS idx_customers_name ON customers(name)`,
	// Migration 2: overdue scans read active rentals by end date.
	`CREATE INDEX IF NOT EXISTS idx_rentals_status_end
	     ON rentals(status, end_date)`,
}

// Migrate applies the ordered migrations. The base schema must exist.
func Migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}
	return nil
}
