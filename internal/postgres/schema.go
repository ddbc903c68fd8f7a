package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/arod1104/uic-gradebook/internal/grades"
	"github.com/jackc/pgx/v5"
)

const gradeTable = "grade_distributions"

// gradeTableDDL is derived from the column table so the two cannot drift.
func gradeTableDDL() string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", pgx.Identifier{gradeTable}.Sanitize())
	b.WriteString("\tid BIGSERIAL PRIMARY KEY")
	for _, col := range grades.StoredColumns() {
		b.WriteString(",\n\t")
		b.WriteString(pgx.Identifier{col.Name}.Sanitize())
		switch {
		case col.Name == "term":
			b.WriteString(" TEXT NOT NULL")
		case col.Kind == grades.Numeric:
			b.WriteString(" INTEGER NOT NULL DEFAULT 0 CHECK (")
			b.WriteString(pgx.Identifier{col.Name}.Sanitize())
			b.WriteString(" >= 0)")
		default:
			b.WriteString(" TEXT NOT NULL DEFAULT ''")
		}
	}
	b.WriteString("\n);")
	return b.String()
}

const migrationFilesDDL = `
CREATE TABLE IF NOT EXISTS migration_files (
	id SERIAL PRIMARY KEY,
	file_name VARCHAR(255) NOT NULL,
	term VARCHAR(64) NOT NULL,
	checksum VARCHAR(64) NOT NULL,
	rows_inserted INTEGER NOT NULL DEFAULT 0,
	status VARCHAR(16) NOT NULL CHECK (status IN ('DONE', 'FAILED')),
	error TEXT,
	processed_at TIMESTAMPTZ NOT NULL
);`

var indexDDL = []string{
	`CREATE INDEX IF NOT EXISTS idx_grade_distributions_term ON grade_distributions (term);`,
	`CREATE INDEX IF NOT EXISTS idx_grade_distributions_course ON grade_distributions (crs_subj_cd, crs_nbr);`,
}

// CreateSchema creates the grade table, its indexes and the migration ledger.
// It is safe to run more than once.
func (db *DB) CreateSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, gradeTableDDL()); err != nil {
		return fmt.Errorf("error creating %s table: %w", gradeTable, err)
	}

	for _, query := range indexDDL {
		if _, err := db.pool.Exec(ctx, query); err != nil {
			return fmt.Errorf("error creating index: %w", err)
		}
	}

	if _, err := db.pool.Exec(ctx, migrationFilesDDL); err != nil {
		return fmt.Errorf("error creating migration_files table: %w", err)
	}

	return nil
}
