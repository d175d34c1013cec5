package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/sbenjam1n/goaltrack/internal/service"
	"github.com/spf13/cobra"
)

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Goal management",
}

var goalAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Create a goal, optionally with subtasks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")
		year, _ := cmd.Flags().GetInt("year")
		subtasks, _ := cmd.Flags().GetStringArray("subtask")

		in := service.GoalInput{Title: args[0], Description: description, Year: year}
		if cmd.Flags().Changed("completed") {
			completed, _ := cmd.Flags().GetBool("completed")
			in.Completed = &completed
		}
		for _, title := range subtasks {
			in.Subtasks = append(in.Subtasks, service.SubtaskInput{Title: title})
		}

		ctx := context.Background()
		svc, cleanup, err := openService(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		g, err := svc.CreateGoal(ctx, userID, in)
		if err != nil {
			return fmt.Errorf("create goal: %w", err)
		}
		if jsonOut {
			return printJSON(g)
		}
		fmt.Printf("Goal '%s' created (id: %s)\n", g.Title, g.ID)
		if len(g.Subtasks) > 0 {
			fmt.Printf("Subtasks: %d\n", len(g.Subtasks))
		}
		return nil
	},
}

var goalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List goals, newest first",
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

		goals, err := svc.ListGoals(ctx, userID, year)
		if err != nil {
			return err
		}
		if jsonOut {
			return printJSON(goals)
		}
		if len(goals) == 0 {
			fmt.Println("No goals yet. Add one with: goals goal add \"<title>\"")
			return nil
		}
		for _, g := range goals {
			fmt.Println(formatGoalLine(g))
		}
		return nil
	},
}

var goalShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a goal with its subtasks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		svc, cleanup, err := openService(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		g, err := svc.GetGoal(ctx, userID, args[0])
		if err != nil {
			return err
		}
		if jsonOut {
			return printJSON(g)
		}
		fmt.Print(formatGoal(g))
		return nil
	},
}

var goalUpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Update goal fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var p service.GoalPatch
		flags := cmd.Flags()
		if flags.Changed("title") {
			v, _ := flags.GetString("title")
			p.Title = &v
		}
		if flags.Changed("description") {
			v, _ := flags.GetString("description")
			p.Description = &v
		}
		if flags.Changed("year") {
			v, _ := flags.GetInt("year")
			p.Year = &v
		}
		if flags.Changed("completed") {
			v, _ := flags.GetBool("completed")
			p.Completed = &v
		}

		ctx := context.Background()
		svc, cleanup, err := openService(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		g, err := svc.UpdateGoal(ctx, userID, args[0], p)
		if err != nil {
			return fmt.Errorf("update goal: %w", err)
		}
		if jsonOut {
			return printJSON(g)
		}
		fmt.Print(formatGoal(g))
		return nil
	},
}

var goalDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a goal and its subtasks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		svc, cleanup, err := openService(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := svc.DeleteGoal(ctx, userID, args[0]); err != nil {
			return err
		}
		fmt.Printf("Goal %s deleted\n", args[0])
		return nil
	},
}

var goalToggleCmd = &cobra.Command{
	Use:   "toggle [id]",
	Short: "Flip a goal's completion; un-completing resets its subtasks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		svc, cleanup, err := openService(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		g, err := svc.ToggleCompletion(ctx, userID, args[0])
		if err != nil {
			return err
		}
		if jsonOut {
			return printJSON(g)
		}
		fmt.Println(formatGoalLine(g))
		return nil
	},
}

func init() {
	goalAddCmd.Flags().String("description", "", "Goal description")
	goalAddCmd.Flags().Int("year", time.Now().Year(), "Goal year")
	goalAddCmd.Flags().StringArray("subtask", nil, "Subtask title (repeatable)")
	goalAddCmd.Flags().Bool("completed", false, "Mark the goal completed")

	goalListCmd.Flags().Int("year", 0, "Only goals for this year")

	goalUpdateCmd.Flags().String("title", "", "New title")
	goalUpdateCmd.Flags().String("description", "", "New description")
	goalUpdateCmd.Flags().Int("year", 0, "New year")
	goalUpdateCmd.Flags().Bool("completed", false, "Set completion explicitly")

	goalCmd.AddCommand(goalAddCmd)
	goalCmd.AddCommand(goalListCmd)
	goalCmd.AddCommand(goalShowCmd)
	goalCmd.AddCommand(goalUpdateCmd)
	goalCmd.AddCommand(goalDeleteCmd)
	goalCmd.AddCommand(goalToggleCmd)
}
