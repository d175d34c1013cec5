package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Analyze your goals and suggest changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		svc, cleanup, err := openService(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		report, err := svc.Recommendations(ctx, userID)
		if err != nil {
			return err
		}
		if jsonOut {
			return printJSON(report)
		}
		fmt.Print(formatReport(report))
		return nil
	},
}

var predictCmd = &cobra.Command{
	Use:   "predict [goal-id]",
	Short: "Predict whether and when a goal will be completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		svc, cleanup, err := openService(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		pred, err := svc.PredictGoal(ctx, userID, args[0])
		if err != nil {
			return err
		}
		if jsonOut {
			return printJSON(pred)
		}
		fmt.Print(formatPrediction(pred))
		return nil
	},
}

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Predictions for all active goals plus best practices",
	RunE: func(cmd *cobra.Command, args []string) error {
		var year *int
		if cmd.Flags().Changed("year") {
			y, _ := cmd.Flags().GetInt("year")
			year = &y
		}

		ctx := context.Background()
		svc, cleanup, err := openService(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		ins, err := svc.Insights(ctx, userID, year)
		if err != nil {
			return err
		}
		if jsonOut {
			return printJSON(ins)
		}
		fmt.Print(formatInsights(ins))
		return nil
	},
}

func init() {
	insightsCmd.Flags().Int("year", 0, "Only goals for this year")
}
