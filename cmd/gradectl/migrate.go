package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/arod1104/uic-gradebook/internal/migrate"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	migrateDir         string
	migrateFromStorage string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Load CSV releases into the grade table",
	Long: `Reads every *.csv file of a directory in name order and inserts each row into
grade_distributions. The term is taken from the file name (RadGridExport-Fall-2024.csv -> "Fall 2024").
The run stops at the first failing row; rows inserted before it are kept.

With --from-storage the files are first downloaded from the given bucket folder.`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().StringVar(&migrateDir, "dir", "", "directory holding the CSV files")
	migrateCmd.Flags().StringVar(&migrateFromStorage, "from-storage", "", "bucket folder to download the CSV files from")
	migrateCmd.MarkFlagsMutuallyExclusive("dir", "from-storage")
	migrateCmd.MarkFlagsOneRequired("dir", "from-storage")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	dir := migrateDir
	if migrateFromStorage != "" {
		tmp, err := os.MkdirTemp("", "gradectl-*")
		if err != nil {
			return fmt.Errorf("creating download directory: %w", err)
		}
		defer os.RemoveAll(tmp)

		store, err := openStorage(ctx)
		if err != nil {
			return fmt.Errorf("connecting to storage: %w", err)
		}
		n, err := store.DownloadFromFolder(ctx, migrateFromStorage, tmp)
		if err != nil {
			return err
		}
		log.Info().Str("folder", migrateFromStorage).Int("files", n).Msg("downloaded releases")
		dir = tmp
	}

	db, err := openDB(ctx)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	report, err := migrate.New(db, db).Run(ctx, dir)
	if report != nil {
		printReport(report)
	}
	if err != nil {
		var rowErr *migrate.RowError
		if errors.As(err, &rowErr) {
			color.Red("%s: row %d failed after %d row(s) were inserted", rowErr.File, rowErr.Row, rowErr.Inserted)
		}
		return err
	}

	color.Green("Migrated %d row(s) from %d file(s)", report.Rows, len(report.Files))
	return nil
}

func printReport(report *migrate.Report) {
	if len(report.Files) == 0 {
		color.Yellow("No files were migrated")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"File", "Term", "Rows", "Checksum"})
	for _, f := range report.Files {
		table.Append([]string{f.Name, f.Term, strconv.Itoa(f.Rows), f.Checksum})
	}
	table.Render()
}
