package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sbenjam1n/goaltrack/internal/complexity"
	"github.com/sbenjam1n/goaltrack/internal/config"
	"github.com/sbenjam1n/goaltrack/internal/db"
	"github.com/sbenjam1n/goaltrack/internal/logging"
	"github.com/sbenjam1n/goaltrack/internal/modelstore"
	"github.com/sbenjam1n/goaltrack/internal/service"
	"github.com/sbenjam1n/goaltrack/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg     *config.Config
	logger  *zap.Logger
	userID  string
	jsonOut bool
	rootCmd = &cobra.Command{
		Use:   "goals",
		Short: "goals: personal goal tracking with completion insights",
		Long: `goals tracks yearly goals and their subtasks, derives completion from
subtask progress, and learns from your history to flag goals at risk.

Get started:
  goals init
  goals goal add "Run a half marathon" --subtask "Buy shoes" --subtask "Train"

Ask for advice:
  goals recommend
  goals model train && goals insights`,
		SilenceUsage: true,
	}
)

// Execute runs the root command.
func Execute() error {
	defer func() {
		if logger != nil {
			_ = logger.Sync()
		}
	}()
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&userID, "user", defaultUser(), "Owner of the goals")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Print raw JSON payloads")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(goalCmd)
	rootCmd.AddCommand(subtaskCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(modelCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(insightsCmd)
	rootCmd.AddCommand(serveCmd)
}

func initConfig() {
	var err error
	cfg, err = config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	logger, err = logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
}

func defaultUser() string {
	if u := os.Getenv("GOALS_USER"); u != "" {
		return u
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "local"
}

func connectDB(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w\nSet GOALS_DATABASE_URL environment variable", err)
	}
	return pool, nil
}

// openArtifacts returns the configured model store and a func releasing it.
func openArtifacts() (modelstore.Store, func(), error) {
	if cfg.ModelStore == config.ModelStoreFile {
		if err := os.MkdirAll(cfg.ModelDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create model dir: %w", err)
		}
		return modelstore.NewFileStore(cfg.ModelDir), func() {}, nil
	}
	rdb, err := modelstore.ConnectRedis(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("%w\nSet GOALS_REDIS_URL environment variable", err)
	}
	return modelstore.NewRedisStore(rdb), func() { rdb.Close() }, nil
}

func loadScorer() (*complexity.Scorer, error) {
	if cfg.VocabularyFile == "" {
		return complexity.Default(), nil
	}
	vocab, err := complexity.LoadVocabulary(cfg.VocabularyFile)
	if err != nil {
		return nil, err
	}
	return complexity.NewScorer(vocab), nil
}

// newService wires a Service over the given goal store.
func newService(st store.Store) (*service.Service, func(), error) {
	scorer, err := loadScorer()
	if err != nil {
		return nil, nil, err
	}
	artifacts, closeArtifacts, err := openArtifacts()
	if err != nil {
		return nil, nil, err
	}
	return service.New(st, artifacts, logger, service.WithScorer(scorer)), closeArtifacts, nil
}

// openService connects to PostgreSQL and returns a Service and its cleanup.
func openService(ctx context.Context) (*service.Service, func(), error) {
	pool, err := connectDB(ctx)
	if err != nil {
		return nil, nil, err
	}
	svc, closeArtifacts, err := newService(store.NewPostgresStore(pool))
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return svc, func() {
		closeArtifacts()
		pool.Close()
	}, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
