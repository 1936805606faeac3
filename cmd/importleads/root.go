package main

import (
	"context"
	"fmt"
	"os"

	"github.com/natserract/mkto/pkg/config"
	"github.com/natserract/mkto/pkg/importjobs"
	"github.com/natserract/mkto/pkg/importjobs/postgres"
	"github.com/natserract/mkto/pkg/marketo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	envFile  string
	inMemory bool
	debug    bool

	logger  *zap.Logger
	client  *marketo.Client
	db      *postgres.DB
	tracker *importjobs.Tracker
)

var rootCmd = &cobra.Command{
	Use:   "importleads",
	Short: "Import lead files into Marketo and track the batches",
	Long: `importleads uploads CSV, TSV or SSV lead files to the Marketo bulk
import API, waits for each batch to finish and records the outcome.

Credentials are read from MARKETO_* environment variables or a .env file.
Jobs are stored in Postgres (DATABASE_URL or DB_*) unless --in-memory is set.`,
	SilenceUsage:       true,
	PersistentPreRunE:  initializeApp,
	PersistentPostRunE: shutdownApp,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file with MARKETO_* settings (default is ./.env if present)")
	rootCmd.PersistentFlags().BoolVar(&inMemory, "in-memory", false, "keep job records in memory instead of Postgres")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(failuresCmd)
}

func initializeApp(cmd *cobra.Command, _ []string) error {
	var err error
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	var cfg *marketo.Config
	if envFile != "" {
		cfg, err = config.LoadFile(envFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		logger.Error("Failed to load config", zap.Error(err))
		return fmt.Errorf("failed to load config: %w", err)
	}

	client, err = marketo.NewClientWithLogger(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create Marketo client: %w", err)
	}

	store, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	tracker = importjobs.NewTracker(client, store, logger)
	return nil
}

func openStore(ctx context.Context) (importjobs.Store, error) {
	if inMemory {
		logger.Info("Using in-memory job store")
		return importjobs.NewMemoryStore(), nil
	}

	var err error
	db, err = postgres.New(ctx, postgres.NewConfig(), logger)
	if err != nil {
		logger.Error("Failed to connect to database", zap.Error(err))
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.InitSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("Database connection established")
	return postgres.NewJobStore(db, logger), nil
}

func shutdownApp(*cobra.Command, []string) error {
	if db != nil {
		db.Close()
	}
	if logger != nil {
		_ = logger.Sync()
	}
	return nil
}
