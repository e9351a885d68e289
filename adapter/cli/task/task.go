package task

import (
	"fmt"

	"github.com/felixgeelhaar/planwise/adapter/cli"
	availabilityCommands "github.com/felixgeelhaar/planwise/internal/availability/application/commands"
	availabilityDomain "github.com/felixgeelhaar/planwise/internal/availability/domain"
	"github.com/spf13/cobra"
)

var (
	duration int
	priority string
	dueDate  string
)

// Cmd is the task command group
var Cmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks the slot finder can place",
}

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a task",
	Long: `Add a task with an estimated duration.

Examples:
  planwise task add "Write report" --duration 90 --priority high
  planwise task add "Expenses" --duration 30 --due 2024-07-05`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.CreateTaskHandler == nil {
			return cli.ErrNotInitialized
		}
		command := availabilityCommands.CreateTaskCommand{
			UserID:          app.CurrentUserID,
			Title:           args[0],
			DurationMinutes: duration,
			Priority:        priority,
		}
		if dueDate != "" {
			due, err := availabilityDomain.ParseDate(dueDate)
			if err != nil {
				return fmt.Errorf("invalid --due format, use YYYY-MM-DD: %w", err)
			}
			command.DueDate = &due
		}

		task, err := app.CreateTaskHandler.Handle(cmd.Context(), command)
		if err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Task created: %s\n", task.ID)
		return nil
	},
}

func init() {
	addCmd.Flags().IntVarP(&duration, "duration", "d", 30, "estimated duration in minutes")
	addCmd.Flags().StringVarP(&priority, "priority", "p", "medium", "priority (high, medium, low)")
	addCmd.Flags().StringVar(&dueDate, "due", "", "due date (YYYY-MM-DD)")
	Cmd.AddCommand(addCmd)
}
