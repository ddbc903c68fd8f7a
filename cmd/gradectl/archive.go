package main

import (
	"fmt"

	"github.com/arod1104/uic-gradebook/internal/firebase"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	archiveDir    string
	archiveFolder string
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Upload raw CSV releases to Firebase Storage",
	Long: `Uploads every *.csv file of --dir to <folder>/<name> in the configured bucket
so later migrations can be rerun with --from-storage.`,
	RunE: runArchive,
}

func init() {
	archiveCmd.Flags().StringVar(&archiveDir, "dir", "", "directory holding the CSV files")
	archiveCmd.Flags().StringVar(&archiveFolder, "folder", firebase.GradesFolder, "bucket folder to upload into")
	archiveCmd.MarkFlagRequired("dir")
	rootCmd.AddCommand(archiveCmd)
}

func runArchive(cmd *cobra.Command, args []string) error {
	store, err := openStorage(cmd.Context())
	if err != nil {
		return fmt.Errorf("connecting to storage: %w", err)
	}

	uploaded, err := store.ArchiveDir(cmd.Context(), archiveDir, archiveFolder)
	if err != nil {
		color.Red("Archived %d file(s) before failing", len(uploaded))
		return err
	}

	color.Green("Archived %d file(s) to %s/", len(uploaded), archiveFolder)
	return nil
}
