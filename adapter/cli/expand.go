package cli

import (
	"fmt"
	"time"

	availabilityQueries "github.com/felixgeelhaar/planwise/internal/availability/application/queries"
	availabilityDomain "github.com/felixgeelhaar/planwise/internal/availability/domain"
	"github.com/spf13/cobra"
)

var (
	expandRule  string
	expandStart string
	expandEnd   string
	expandFrom  string
	expandTo    string
	expandUntil string
)

var expandCmd = &cobra.Command{
	Use:   "expand",
	Short: "Preview the occurrences of a recurrence rule",
	Long: `Expand an RRULE anchored at its first occurrence.

--from and --to bound the preview and default to the first occurrence and
ninety days later.

Example:
  planwise expand --rule "FREQ=WEEKLY;BYDAY=MO,WE;COUNT=6" \
    --start 2024-07-01T09:00:00Z --end 2024-07-01T09:30:00Z`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.ExpandRecurrenceHandler == nil {
			return ErrNotInitialized
		}
		query, err := expandQuery()
		if err != nil {
			return err
		}

		ranges, err := app.ExpandRecurrenceHandler.Handle(cmd.Context(), query)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(ranges) == 0 {
			fmt.Fprintln(out, "No occurrences in range.")
			return nil
		}
		loc := app.Loc()
		fmt.Fprintf(out, "Occurrences (%d):\n", len(ranges))
		for _, r := range ranges {
			fmt.Fprintf(out, "  %s  %s\n", r.Start.In(loc).Format("Mon 2006-01-02"), FormatRange(r.Start, r.End, loc))
		}
		return nil
	},
}

func expandQuery() (availabilityQueries.ExpandRecurrenceQuery, error) {
	if expandRule == "" {
		return availabilityQueries.ExpandRecurrenceQuery{}, fmt.Errorf("--rule is required")
	}
	start, err := parseTimestamp("--start", expandStart)
	if err != nil {
		return availabilityQueries.ExpandRecurrenceQuery{}, err
	}
	end, err := parseTimestamp("--end", expandEnd)
	if err != nil {
		return availabilityQueries.ExpandRecurrenceQuery{}, err
	}

	query := availabilityQueries.ExpandRecurrenceQuery{
		Rule:  expandRule,
		First: availabilityDomain.TimeRange{Start: start, End: end},
		From:  start,
		To:    start.AddDate(0, 0, 90),
	}
	if expandFrom != "" {
		if query.From, err = parseTimestamp("--from", expandFrom); err != nil {
			return availabilityQueries.ExpandRecurrenceQuery{}, err
		}
	}
	if expandTo != "" {
		if query.To, err = parseTimestamp("--to", expandTo); err != nil {
			return availabilityQueries.ExpandRecurrenceQuery{}, err
		}
	}
	if expandUntil != "" {
		until, err := parseTimestamp("--until", expandUntil)
		if err != nil {
			return availabilityQueries.ExpandRecurrenceQuery{}, err
		}
		query.Until = &until
	}
	return query, nil
}

func parseTimestamp(flag, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("%s is required", flag)
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s, use RFC3339: %w", flag, err)
	}
	return t, nil
}

func init() {
	expandCmd.Flags().StringVar(&expandRule, "rule", "", "RRULE text")
	expandCmd.Flags().StringVar(&expandStart, "start", "", "first occurrence start (RFC3339)")
	expandCmd.Flags().StringVar(&expandEnd, "end", "", "first occurrence end (RFC3339)")
	expandCmd.Flags().StringVar(&expandFrom, "from", "", "preview window start (RFC3339)")
	expandCmd.Flags().StringVar(&expandTo, "to", "", "preview window end (RFC3339)")
	expandCmd.Flags().StringVar(&expandUntil, "until", "", "series end (RFC3339)")
	rootCmd.AddCommand(expandCmd)
}
