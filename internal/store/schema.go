package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Table names keep the collection names existing exports rely on.
const (
	TableIndividual = "registrations_individual"
	TableSchool     = "registrations_school"
)

func migrate(ctx context.Context, db *sql.DB, driver string) error {
	// mattn/go-sqlite3 only decodes time.Time for DATETIME/TIMESTAMP/DATE column types
	ts := "TIMESTAMPTZ"
	if driver == DriverSQLite {
		ts = "DATETIME"
	}

	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id           TEXT PRIMARY KEY,
			student_name TEXT NOT NULL,
			grade        INTEGER NOT NULL,
			category     TEXT NOT NULL DEFAULT '',
			style        TEXT NOT NULL DEFAULT '',
			school_name  TEXT NOT NULL,
			taluk        TEXT NOT NULL,
			district     TEXT NOT NULL,
			parent_name  TEXT NOT NULL,
			parent_email TEXT NOT NULL,
			parent_phone TEXT NOT NULL,
			created_at   %s NOT NULL
		)`, TableIndividual, ts),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%[1]s_created ON %[1]s (created_at)`, TableIndividual),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id           TEXT PRIMARY KEY,
			org_name     TEXT NOT NULL,
			coord_name   TEXT NOT NULL,
			coord_email  TEXT NOT NULL,
			coord_phone  TEXT NOT NULL,
			taluk        TEXT NOT NULL,
			district     TEXT NOT NULL,
			file_name    TEXT NOT NULL DEFAULT '',
			file_path    TEXT NOT NULL DEFAULT '',
			download_url TEXT NOT NULL DEFAULT '',
			created_at   %s NOT NULL
		)`, TableSchool, ts),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%[1]s_created ON %[1]s (created_at)`, TableSchool),
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
