package insight

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/planwise/adapter/cli"
	availabilityQueries "github.com/felixgeelhaar/planwise/internal/availability/application/queries"
	availabilityDomain "github.com/felixgeelhaar/planwise/internal/availability/domain"
	"github.com/spf13/cobra"
)

var date string

// Cmd is the insights command group
var Cmd = &cobra.Command{
	Use:   "insights",
	Short: "Summarize how time is spent",
}

var dayCmd = &cobra.Command{
	Use:   "day",
	Short: "Summarize one working day",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.InsightsHandler == nil {
			return cli.ErrNotInitialized
		}
		day, err := cli.ParseDateFlag(date, app.Loc())
		if err != nil {
			return err
		}
		summary, err := app.InsightsHandler.HandleDay(cmd.Context(), availabilityQueries.GetDayInsightsQuery{
			UserID: app.CurrentUserID,
			Date:   day,
		})
		if err != nil {
			return fmt.Errorf("failed to summarize day: %w", err)
		}
		printDay(cmd.OutOrStdout(), *summary)
		return nil
	},
}

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "Summarize the Monday-based week containing a date",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.InsightsHandler == nil {
			return cli.ErrNotInitialized
		}
		day, err := cli.ParseDateFlag(date, app.Loc())
		if err != nil {
			return err
		}
		summary, err := app.InsightsHandler.HandleWeek(cmd.Context(), availabilityQueries.GetWeekInsightsQuery{
			UserID: app.CurrentUserID,
			Date:   day,
		})
		if err != nil {
			return fmt.Errorf("failed to summarize week: %w", err)
		}
		printWeek(cmd.OutOrStdout(), *summary)
		return nil
	},
}

func printDay(out io.Writer, s availabilityDomain.DaySummary) {
	fmt.Fprintf(out, "Day %s\n", s.Date)
	fmt.Fprintf(out, "  Busy:      %s of %s (%.0f%%)\n", hours(s.BusyMinutes), hours(s.WorkingMinutes), s.BusyRatio*100)
	fmt.Fprintf(out, "  Free:      %s in %d gaps (longest %.0f min)\n", hours(s.FreeMinutes), s.GapCount, s.LongestGapMinutes)
	fmt.Fprintf(out, "  Meetings:  %s (%.0f%% load)\n", hours(s.MeetingMinutes), s.MeetingLoadPercent)
	fmt.Fprintf(out, "  Focus:     %s, deep work %s\n", hours(s.FocusMinutes), hours(s.DeepWorkMinutes))
	fmt.Fprintf(out, "  Events:    %d\n", s.EventCount)
	printCategories(out, s.Categories)
}

func printWeek(out io.Writer, s availabilityDomain.WeekSummary) {
	fmt.Fprintf(out, "Week of %s\n", s.StartDate)
	fmt.Fprintf(out, "  Busy:      %s of %s (avg %.0f%%)\n", hours(s.BusyMinutes), hours(s.WorkingMinutes), s.AverageBusyRatio*100)
	fmt.Fprintf(out, "  Meetings:  %s (%.0f%% load)\n", hours(s.MeetingMinutes), s.MeetingLoadPercent)
	fmt.Fprintf(out, "  Focus:     %s, deep work %s\n", hours(s.FocusMinutes), hours(s.DeepWorkMinutes))
	if s.BusiestDay != nil {
		fmt.Fprintf(out, "  Busiest:   %s %s\n", s.BusiestDay.Weekday(), s.BusiestDay)
	}
	for _, d := range s.Days {
		fmt.Fprintf(out, "    %s %s  busy %s  meetings %s\n", d.Date.Weekday().String()[:3], d.Date, hours(d.BusyMinutes), hours(d.MeetingMinutes))
	}
	printCategories(out, s.Categories)
}

func printCategories(out io.Writer, categories []availabilityDomain.CategoryTime) {
	if len(categories) == 0 {
		return
	}
	fmt.Fprintln(out, "  Categories:")
	for _, c := range categories {
		name := c.CategoryID
		if name == "" {
			name = "(none)"
		}
		fmt.Fprintf(out, "    %-14s %s (%.0f%%)\n", name, hours(c.Minutes), c.Percent)
	}
}

func hours(minutes float64) string {
	return fmt.Sprintf("%dh%02dm", int(minutes)/60, int(minutes)%60)
}

func init() {
	Cmd.PersistentFlags().StringVar(&date, "date", "", "day (YYYY-MM-DD, default today)")
	Cmd.AddCommand(dayCmd)
	Cmd.AddCommand(weekCmd)
}
