package migrations

import (
	"database/sql"
)

func migration001Plans() Migration {
	return Migration{
		Version:     1,
		Description: "Add plans table",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE plans (
					id TEXT PRIMARY KEY,
					version TEXT NOT NULL,
					arch TEXT NOT NULL DEFAULT '',
					toolchain TEXT NOT NULL DEFAULT '{}',
					lto TEXT NOT NULL,
					fingerprint TEXT NOT NULL,
					config TEXT NOT NULL,
					patches TEXT NOT NULL DEFAULT '[]',
					violations TEXT NOT NULL DEFAULT '[]',
					valid INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)
			`)
			if err != nil {
				return err
			}

			_, err = tx.Exec(`CREATE INDEX idx_plans_version ON plans(version)`)
			if err != nil {
				return err
			}
			_, err = tx.Exec(`CREATE INDEX idx_plans_created_at ON plans(created_at)`)
			return err
		},
	}
}
