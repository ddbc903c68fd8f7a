package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/arod1104/uic-gradebook/internal/grades"
	"github.com/arod1104/uic-gradebook/internal/types"
	"github.com/jackc/pgx/v5"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes every character of s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// buildSearchSQL renders q as a single statement. The last selected column is
// the window count of all matching rows, which is unaffected by the LIMIT.
func buildSearchSQL(q grades.Query) (string, []any) {
	cols := make([]string, 0, len(q.Columns)+1)
	for _, name := range q.Columns {
		cols = append(cols, pgx.Identifier{name}.Sanitize())
	}
	cols = append(cols, "COUNT(*) OVER() AS total_count")

	var (
		where []string
		args  []any
	)
	for _, p := range q.Predicates {
		ident := pgx.Identifier{p.Column}.Sanitize()
		switch p.Op {
		case grades.OpContains:
			args = append(args, "%"+escapeLike(p.Text)+"%")
			where = append(where, fmt.Sprintf(`%s ILIKE $%d ESCAPE '\'`, ident, len(args)))
		case grades.OpEqualFold:
			args = append(args, escapeLike(p.Text))
			where = append(where, fmt.Sprintf(`%s ILIKE $%d ESCAPE '\'`, ident, len(args)))
		case grades.OpEqual:
			args = append(args, p.Number)
			where = append(where, fmt.Sprintf("%s = $%d", ident, len(args)))
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", strings.Join(cols, ", "), pgx.Identifier{gradeTable}.Sanitize())
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}

	limit := q.Limit
	if limit <= 0 || limit > grades.MaxResults {
		limit = grades.MaxResults
	}
	fmt.Fprintf(&b, " ORDER BY id LIMIT %d", limit)

	return b.String(), args
}

// SearchGrades runs q and returns the projected rows together with the total
// number of matching rows.
func (db *DB) SearchGrades(ctx context.Context, q grades.Query) ([]grades.Row, int64, error) {
	query, args := buildSearchSQL(q)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error querying %s: %w", gradeTable, err)
	}
	defer rows.Close()

	data := make([]grades.Row, 0)
	var total int64
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, 0, fmt.Errorf("error reading grade row: %w", err)
		}

		row := make(grades.Row, len(q.Columns))
		for i, name := range q.Columns {
			row[name] = normalizeValue(name, values[i])
		}
		if n, ok := values[len(values)-1].(int64); ok {
			total = n
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating grade rows: %w", err)
	}

	return data, total, nil
}

// normalizeValue maps driver values onto the types GradeRecord uses so both
// backends produce identical rows.
func normalizeValue(name string, v any) any {
	col, ok := grades.Lookup(name)
	if !ok {
		return v
	}

	switch n := v.(type) {
	case nil:
		if col.Kind == grades.Text {
			return ""
		}
		if name == "id" {
			return int64(0)
		}
		return 0
	case int32:
		if name == "id" {
			return int64(n)
		}
		return int(n)
	case int64:
		if name == "id" {
			return n
		}
		return int(n)
	}
	return v
}

var insertSQL = func() string {
	stored := grades.StoredColumns()
	names := make([]string, len(stored))
	params := make([]string, len(stored))
	for i, col := range stored {
		names[i] = pgx.Identifier{col.Name}.Sanitize()
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pgx.Identifier{gradeTable}.Sanitize(), strings.Join(names, ", "), strings.Join(params, ", "))
}()

func insertArgs(r *types.GradeRecord) []any {
	stored := grades.StoredColumns()
	args := make([]any, len(stored))
	for i, col := range stored {
		args[i] = col.Value(r)
	}
	return args
}

// InsertGrade inserts a single record. The backend assigns the id.
func (db *DB) InsertGrade(ctx context.Context, r *types.GradeRecord) error {
	if _, err := db.pool.Exec(ctx, insertSQL, insertArgs(r)...); err != nil {
		return fmt.Errorf("error inserting grade record: %w", err)
	}
	return nil
}

// RecordMigrationFile appends one entry to the migration ledger.
func (db *DB) RecordMigrationFile(ctx context.Context, f *types.MigrationFile) error {
	var errText any
	if f.Error != "" {
		errText = f.Error
	}

	_, err := db.pool.Exec(ctx, `
	INSERT INTO migration_files (file_name, term, checksum, rows_inserted, status, error, processed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		f.FileName, f.Term, f.Checksum, f.RowsInserted, f.Status, errText, f.ProcessedAt)
	if err != nil {
		return fmt.Errorf("error recording migration file %s: %w", f.FileName, err)
	}
	return nil
}
