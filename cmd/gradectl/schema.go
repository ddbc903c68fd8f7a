package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create the grade and migration tables",
	Long:  `Creates grade_distributions, migration_files and their indexes if they do not exist.`,
	RunE:  runSchema,
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

func runSchema(cmd *cobra.Command, args []string) error {
	db, err := openDB(cmd.Context())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	if err := db.CreateSchema(cmd.Context()); err != nil {
		return err
	}

	color.Green("Schema is up to date")
	return nil
}
