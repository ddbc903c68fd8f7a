package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arod1104/uic-gradebook/internal/accounts"
	"github.com/arod1104/uic-gradebook/internal/config"
	"github.com/arod1104/uic-gradebook/internal/firebase"
	"github.com/arod1104/uic-gradebook/internal/localstore"
	"github.com/arod1104/uic-gradebook/internal/logger"
	"github.com/arod1104/uic-gradebook/internal/postgres"
	"github.com/arod1104/uic-gradebook/internal/server"
	"github.com/arod1104/uic-gradebook/internal/server/handlers"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func init() {
	if _, err := os.Stat("/.dockerenv"); os.IsNotExist(err) {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "error loading .env file: %v\n", err)
			os.Exit(1)
		}
	}
}

func gracefulShutdown(ctx context.Context, stop context.CancelFunc, apiServer *http.Server, done chan bool) {
	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Info().Msg("shutting down gracefully, press Ctrl+C again to force")
	stop()

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exiting")

	done <- true
}

// gradeBackend prefers PostgreSQL and falls back to CSV files loaded in
// memory. The returned func releases the backend.
func gradeBackend(ctx context.Context, cfg *config.Config) (handlers.GradeSearcher, func(), error) {
	if cfg.DatabaseURL != "" {
		db, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	}

	if cfg.GradesDir != "" {
		store, err := localstore.Open(cfg.GradesDir)
		if err != nil {
			return nil, nil, err
		}
		log.Warn().Str("dir", cfg.GradesDir).Int("records", store.Len()).Msg("serving grades from CSV files")
		return store, func() {}, nil
	}

	return nil, nil, fmt.Errorf("DATABASE_URL or GRADES_DIR must be set")
}

func main() {
	cfg := config.New()
	logger.Init(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := firebase.NewApp(ctx, cfg.FirebaseConfig, cfg.StorageBucket)
	if err != nil {
		log.Fatal().Err(err).Msg("error initializing firebase app")
	}

	db, err := firebase.NewFirestore(ctx, app)
	if err != nil {
		log.Fatal().Err(err).Msg("error initializing firestore")
	}
	defer db.Close()

	directory, err := firebase.NewDirectory(ctx, app)
	if err != nil {
		log.Fatal().Err(err).Msg("error initializing firebase auth")
	}

	adminKey, err := db.EnsureAdminKey(ctx, cfg.AdminAPIKey)
	if err != nil {
		log.Fatal().Err(err).Msg("error resolving admin key")
	}

	searcher, closeGrades, err := gradeBackend(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("error initializing grade backend")
	}
	defer closeGrades()

	apiServer := server.NewServer(ctx, cfg, server.Deps{
		Grades:   searcher,
		Accounts: accounts.NewService(directory, db),
		Keys:     db,
		AdminKey: adminKey,
	})

	done := make(chan bool, 1)
	go gracefulShutdown(ctx, stop, apiServer, done)

	log.Info().Str("addr", apiServer.Addr).Msg("server starting")
	err = apiServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server error")
	}

	<-done
	log.Info().Msg("graceful shutdown complete")
}
