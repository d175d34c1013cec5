package cli

import (
	"context"
	"fmt"

	"github.com/sbenjam1n/goaltrack/internal/service"
	"github.com/spf13/cobra"
)

var subtaskCmd = &cobra.Command{
	Use:   "subtask",
	Short: "Subtask management",
}

var subtaskAddCmd = &cobra.Command{
	Use:   "add [goal-id] [title]",
	Short: "Add a subtask to a goal",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		svc, cleanup, err := openService(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		st, err := svc.AddSubtask(ctx, userID, args[0], service.SubtaskInput{Title: args[1]})
		if err != nil {
			return fmt.Errorf("add subtask: %w", err)
		}
		if jsonOut {
			return printJSON(st)
		}
		fmt.Printf("Subtask '%s' added (id: %s)\n", st.Title, st.ID)
		return nil
	},
}

// setSubtaskCmd builds the done/undo commands.
func setSubtaskCmd(use, short string, completed bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			st, err := svc.UpdateSubtask(ctx, userID, args[0], service.SubtaskPatch{Completed: &completed})
			if err != nil {
				return err
			}
			g, err := svc.GetGoal(ctx, userID, st.GoalID)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(g)
			}
			fmt.Printf("%s %s\n", checkbox(st.Completed), st.Title)
			fmt.Println(formatGoalLine(g))
			return nil
		},
	}
}

var subtaskRmCmd = &cobra.Command{
	Use:   "rm [id]",
	Short: "Remove a subtask",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		svc, cleanup, err := openService(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := svc.DeleteSubtask(ctx, userID, args[0]); err != nil {
			return err
		}
		fmt.Printf("Subtask %s removed\n", args[0])
		return nil
	},
}

func init() {
	subtaskCmd.AddCommand(subtaskAddCmd)
	subtaskCmd.AddCommand(setSubtaskCmd("done", "Mark a subtask completed", true))
	subtaskCmd.AddCommand(setSubtaskCmd("undo", "Mark a subtask not completed", false))
	subtaskCmd.AddCommand(subtaskRmCmd)
}
