package cli

import (
	"context"
	"fmt"

	"github.com/sbenjam1n/goaltrack/internal/config"
	"github.com/sbenjam1n/goaltrack/internal/db"
	"github.com/sbenjam1n/goaltrack/internal/predictor"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize goal storage",
	Long:  "Initialize storage: PostgreSQL schema and the model artifact store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		fmt.Println("Connecting to PostgreSQL...")
		pool, err := connectDB(ctx)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		defer pool.Close()

		fmt.Println("Running migrations...")
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir(), logger); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		fmt.Println("PostgreSQL schema created")

		artifacts, closeArtifacts, err := openArtifacts()
		if err != nil {
			return fmt.Errorf("model store setup failed: %w", err)
		}
		defer closeArtifacts()

		if _, err := predictor.LoadModels(ctx, artifacts); err != nil {
			return fmt.Errorf("model store check failed: %w", err)
		}
		if cfg.ModelStore == config.ModelStoreFile {
			fmt.Printf("Model store ready (files in %s)\n", cfg.ModelDir)
		} else {
			fmt.Printf("Model store ready (redis %s)\n", cfg.RedisURL)
		}

		fmt.Println("\ngoals initialized successfully.")
		fmt.Println("Next steps:")
		fmt.Println("  1. Run: goals goal add \"<title>\" --subtask \"<step>\"")
		fmt.Println("  2. Run: goals recommend")
		fmt.Println("  3. Once you have 10+ goals: goals model train")
		return nil
	},
}
