package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sbenjam1n/goaltrack/internal/predictor"
	"github.com/spf13/cobra"
)

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Completion model management",
}

var modelTrainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train completion models on your goal history",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		svc, cleanup, err := openService(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		report, err := svc.TrainModels(ctx, userID)
		var insufficient *predictor.ErrInsufficientData
		if errors.As(err, &insufficient) {
			fmt.Printf("Not enough history yet: %d of %d goals.\n", insufficient.Actual, insufficient.Required)
			return nil
		}
		if err != nil {
			return fmt.Errorf("train models: %w", err)
		}
		if jsonOut {
			return printJSON(report)
		}

		fmt.Printf("Trained on %d goals\n", report.TrainingSamples)
		if report.CompletionModelTrained {
			fmt.Printf("  completion model: train accuracy %.2f, test accuracy %.2f\n",
				*report.TrainAccuracy, *report.TestAccuracy)
		} else {
			fmt.Println("  completion model: skipped (need both completed and open goals)")
		}
		if report.TimeModelTrained {
			fmt.Printf("  time model: R² %.2f\n", *report.TimeModelR2)
		} else {
			fmt.Printf("  time model: skipped (need %d finished goals)\n", predictor.MinTrainingGoals)
		}
		if n := min(5, len(report.FeatureImportance)); n > 0 {
			fmt.Println("\nTop features:")
			for _, fi := range report.FeatureImportance[:n] {
				fmt.Printf("  %-28s %.3f\n", fi.Feature, fi.Importance)
			}
		}
		return nil
	},
}

var modelStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show persisted model artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cleanup, err := newService(nil)
		if err != nil {
			return err
		}
		defer cleanup()

		status, err := svc.ModelStatus(context.Background())
		if err != nil {
			return fmt.Errorf("model status: %w", err)
		}
		if jsonOut {
			return printJSON(status)
		}

		fmt.Printf("Model store: %s\n", cfg.ModelStore)
		for _, s := range status {
			if !s.Present {
				fmt.Printf("  %-18s missing\n", s.Name)
				continue
			}
			fmt.Printf("  %-18s %6d bytes  saved %s\n", s.Name, s.Size, s.SavedAt.Format(time.RFC3339))
		}
		return nil
	},
}

func init() {
	modelCmd.AddCommand(modelTrainCmd)
	modelCmd.AddCommand(modelStatusCmd)
}
