package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/arod1104/uic-gradebook/internal/config"
	"github.com/arod1104/uic-gradebook/internal/firebase"
	"github.com/arod1104/uic-gradebook/internal/logger"
	"github.com/arod1104/uic-gradebook/internal/postgres"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfgFile     string
	databaseURL string
	cfg         *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "gradectl",
	Short: "Manage the UIC grade distribution database",
	Long: `gradectl loads registrar grade distribution releases into PostgreSQL,
archives the raw CSV files to Firebase Storage and queries the grade table.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}

		cfg = config.New()
		if cfgFile != "" {
			if err := config.LoadFile(cfgFile, cfg); err != nil {
				return err
			}
		}
		if databaseURL != "" {
			cfg.DatabaseURL = databaseURL
		}

		logger.Init(cfg.LogLevel)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file overriding the environment")
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection string (default $DATABASE_URL)")
}

// openDB connects to the configured database.
func openDB(ctx context.Context) (*postgres.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("no database configured, set DATABASE_URL or --database-url")
	}
	return postgres.Connect(ctx, cfg.DatabaseURL)
}

// openStorage connects to the configured Firebase Storage bucket.
func openStorage(ctx context.Context) (*firebase.CloudStorage, error) {
	app, err := firebase.NewApp(ctx, cfg.FirebaseConfig, cfg.StorageBucket)
	if err != nil {
		return nil, err
	}
	return firebase.NewCloudStorage(ctx, app, cfg.StorageBucket)
}
