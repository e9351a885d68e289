package risk

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/planwise/adapter/cli"
	availabilityCommands "github.com/felixgeelhaar/planwise/internal/availability/application/commands"
	availabilityQueries "github.com/felixgeelhaar/planwise/internal/availability/application/queries"
	availabilityDomain "github.com/felixgeelhaar/planwise/internal/availability/domain"
	"github.com/spf13/cobra"
)

var (
	date          string
	windowStart   string
	windowEnd     string
	showDismissed bool
)

// Cmd is the risks command group
var Cmd = &cobra.Command{
	Use:   "risks",
	Short: "Show schedule risks for a day",
	Long: `Detect overbooked days, back-to-back meetings, missing breaks,
overlapping events and tasks that no longer fit.

Examples:
  planwise risks                       # today
  planwise risks --date 2024-07-01
  planwise risks dismiss back_to_back  # hide a finding for today`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.GetDayRisksHandler == nil {
			return cli.ErrNotInitialized
		}
		day, err := cli.ParseDateFlag(date, app.Loc())
		if err != nil {
			return err
		}
		window, err := cli.ParseWindowFlags(windowStart, windowEnd)
		if err != nil {
			return err
		}

		report, err := app.GetDayRisksHandler.Handle(cmd.Context(), availabilityQueries.GetDayRisksQuery{
			UserID:           app.CurrentUserID,
			Date:             day,
			Window:           window,
			IncludeDismissed: showDismissed,
		})
		if err != nil {
			return fmt.Errorf("failed to detect risks: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(report.Findings) == 0 {
			fmt.Fprintf(out, "No risks on %s.\n", day)
		} else {
			fmt.Fprintf(out, "Risks on %s (%d):\n", day, len(report.Findings))
			for _, f := range report.Findings {
				fmt.Fprintf(out, "  [%s] %s  %s\n", strings.ToUpper(string(f.Severity)), f.Type, describe(f))
			}
		}
		if len(report.Dismissed) > 0 {
			fmt.Fprintf(out, "Dismissed: %s\n", joinTypes(report.Dismissed))
		}
		return nil
	},
}

var dismissCmd = &cobra.Command{
	Use:   "dismiss <type>",
	Short: "Hide a risk type for a day",
	Long: `Hide one risk type for a day. Types: overbooked, back_to_back,
no_break, overlap, task_risk.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.DismissRiskHandler == nil {
			return cli.ErrNotInitialized
		}
		day, err := cli.ParseDateFlag(date, app.Loc())
		if err != nil {
			return err
		}
		err = app.DismissRiskHandler.Handle(cmd.Context(), availabilityCommands.DismissRiskCommand{
			UserID:   app.CurrentUserID,
			Date:     day,
			RiskType: args[0],
		})
		if err != nil {
			return fmt.Errorf("failed to dismiss risk: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Dismissed %s on %s.\n", args[0], day)
		return nil
	},
}

func describe(f availabilityDomain.RiskFinding) string {
	var detail string
	switch f.Type {
	case availabilityDomain.RiskOverbooked:
		detail = fmt.Sprintf("%.0f%% of the working day is booked", f.Value*100)
	case availabilityDomain.RiskBackToBack:
		detail = fmt.Sprintf("%.0f back-to-back transitions", f.Value)
	case availabilityDomain.RiskNoBreak:
		detail = fmt.Sprintf("longest gap is %.0f min", f.Value)
	case availabilityDomain.RiskOverlap:
		detail = fmt.Sprintf("%.0f overlapping pairs", f.Value)
	case availabilityDomain.RiskTask:
		detail = fmt.Sprintf("%.0f min of due work does not fit", f.Value)
	}
	if len(f.AffectedIDs) > 0 {
		detail += " (" + strings.Join(f.AffectedIDs, ", ") + ")"
	}
	return detail
}

func joinTypes(types []availabilityDomain.RiskType) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

func init() {
	Cmd.PersistentFlags().StringVar(&date, "date", "", "day (YYYY-MM-DD, default today)")
	Cmd.Flags().StringVar(&windowStart, "start", "", "working window start (HH:MM)")
	Cmd.Flags().StringVar(&windowEnd, "end", "", "working window end (HH:MM)")
	Cmd.Flags().BoolVar(&showDismissed, "all", false, "include dismissed findings")
	Cmd.AddCommand(dismissCmd)
}
