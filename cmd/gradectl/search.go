package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/arod1104/uic-gradebook/internal/grades"
	"github.com/arod1104/uic-gradebook/internal/localstore"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	searchExact    bool
	searchDetailed bool
	searchDir      string
)

var searchCmd = &cobra.Command{
	Use:   "search [column=value ...]",
	Short: "Query grade distributions",
	Long: `Runs the same search as GET /api/search. Text columns match as a
case-insensitive substring, or as a whole value with --exact. Numeric
columns match exactly. At most 100 rows are printed.

Example:
  gradectl search dept_cd=CS crs_nbr=141 --exact`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchExact, "exact", false, "match text columns exactly")
	searchCmd.Flags().BoolVar(&searchDetailed, "detailed", false, "print every column")
	searchCmd.Flags().StringVar(&searchDir, "dir", "", "search CSV files in this directory instead of the database")
	rootCmd.AddCommand(searchCmd)
}

type searcher interface {
	SearchGrades(ctx context.Context, q grades.Query) ([]grades.Row, int64, error)
}

// parseFilters turns column=value arguments into query parameters.
func parseFilters(args []string, exact, detailed bool) (url.Values, error) {
	values := url.Values{}
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid filter %q, expected column=value", arg)
		}
		if _, known := grades.Lookup(name); !known {
			return nil, fmt.Errorf("unknown column %q", name)
		}
		values.Add(name, value)
	}
	if exact {
		values.Set(grades.ParamExact, "true")
	}
	if detailed {
		values.Set(grades.ParamDetailed, "true")
	}
	return values, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	values, err := parseFilters(args, searchExact, searchDetailed)
	if err != nil {
		return err
	}
	q, err := grades.Translate(grades.SplitParams(values))
	if err != nil {
		return err
	}

	var backend searcher
	if searchDir != "" {
		store, err := localstore.Open(searchDir)
		if err != nil {
			return err
		}
		backend = store
	} else {
		db, err := openDB(ctx)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer db.Close()
		backend = db
	}

	rows, total, err := backend.SearchGrades(ctx, q)
	if err != nil {
		return err
	}

	if len(rows) == 0 {
		color.Yellow("No matching records")
		return nil
	}
	renderRows(os.Stdout, q.Columns, rows)
	if total > int64(len(rows)) {
		color.Cyan("Showing %d of %d matching records", len(rows), total)
	} else {
		color.Cyan("%d matching records", total)
	}
	return nil
}

func renderRows(w io.Writer, columns []string, rows []grades.Row) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(columns)
	table.SetAutoWrapText(false)
	for _, row := range rows {
		line := make([]string, len(columns))
		for i, col := range columns {
			line[i] = fmt.Sprint(row[col])
		}
		table.Append(line)
	}
	table.Render()
}
