package migrations

import (
	"database/sql"
)

func migration002PlanExports() Migration {
	return Migration{
		Version:     2,
		Description: "Record where a plan's artifacts were exported",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec(`ALTER TABLE plans ADD COLUMN export_backend TEXT NOT NULL DEFAULT ''`); err != nil {
				return err
			}
			_, err := tx.Exec(`ALTER TABLE plans ADD COLUMN export_prefix TEXT NOT NULL DEFAULT ''`)
			return err
		},
	}
}
