package cli

import (
	"fmt"

	availabilityCommands "github.com/felixgeelhaar/planwise/internal/availability/application/commands"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file.ics>",
	Short: "Import events from an iCalendar file",
	Long: `Import the VEVENTs of an .ics file. Re-importing a file replaces events
with the same UID.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.ImportCalendarHandler == nil {
			return ErrNotInitialized
		}
		result, err := app.ImportCalendarHandler.Handle(cmd.Context(), availabilityCommands.ImportCalendarCommand{
			UserID: app.CurrentUserID,
			Path:   args[0],
		})
		if err != nil {
			return fmt.Errorf("failed to import calendar: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d events (%d recurring).\n", result.Imported, result.Recurring)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
