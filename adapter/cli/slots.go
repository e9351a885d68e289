package cli

import (
	"fmt"

	availabilityQueries "github.com/felixgeelhaar/planwise/internal/availability/application/queries"
	"github.com/spf13/cobra"
)

var (
	slotsTaskID   string
	slotsDuration int
	slotsDate     string
	slotsStart    string
	slotsEnd      string
	slotsMax      int
)

var slotsCmd = &cobra.Command{
	Use:   "slots",
	Short: "Find the best times for a task",
	Long: `Rank the free times on a day where a task fits.

Either --task names a stored task or --duration places an ad hoc block.

Examples:
  planwise slots --task 3f2c...                 # best slots today
  planwise slots --duration 90 --date 2024-07-01
  planwise slots --task 3f2c... --start 08:00 --end 12:00 --max 3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.FindBestSlotsHandler == nil {
			return ErrNotInitialized
		}
		if slotsTaskID == "" && slotsDuration <= 0 {
			return fmt.Errorf("either --task or --duration is required")
		}
		loc := app.Loc()
		date, err := ParseDateFlag(slotsDate, loc)
		if err != nil {
			return err
		}
		window, err := ParseWindowFlags(slotsStart, slotsEnd)
		if err != nil {
			return err
		}

		result, err := app.FindBestSlotsHandler.Handle(cmd.Context(), availabilityQueries.FindBestSlotsQuery{
			UserID:          app.CurrentUserID,
			TaskID:          slotsTaskID,
			DurationMinutes: slotsDuration,
			Date:            date,
			Window:          window,
			MaxSlots:        slotsMax,
		})
		if err != nil {
			return fmt.Errorf("failed to find slots: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(result.Slots) == 0 {
			fmt.Fprintf(out, "No free slot on %s fits %d minutes.\n", date, result.Task.DurationMinutes)
			return nil
		}
		title := result.Task.Title
		if title == "" {
			title = fmt.Sprintf("%d min block", result.Task.DurationMinutes)
		}
		fmt.Fprintf(out, "Best slots for %q on %s:\n", title, date)
		for i, s := range result.Slots {
			fmt.Fprintf(out, "  %d. %s  score %.1f\n", i+1, FormatRange(s.Start, s.End, loc), s.Score)
		}
		return nil
	},
}

func init() {
	slotsCmd.Flags().StringVar(&slotsTaskID, "task", "", "stored task ID")
	slotsCmd.Flags().IntVar(&slotsDuration, "duration", 0, "ad hoc duration in minutes")
	slotsCmd.Flags().StringVar(&slotsDate, "date", "", "day to search (YYYY-MM-DD, default today)")
	slotsCmd.Flags().StringVar(&slotsStart, "start", "", "working window start (HH:MM)")
	slotsCmd.Flags().StringVar(&slotsEnd, "end", "", "working window end (HH:MM)")
	slotsCmd.Flags().IntVar(&slotsMax, "max", availabilityQueries.DefaultMaxSlots, "maximum slots to show")
	rootCmd.AddCommand(slotsCmd)
}
