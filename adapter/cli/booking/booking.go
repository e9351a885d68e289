package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/planwise/adapter/cli"
	availabilityDomain "github.com/felixgeelhaar/planwise/internal/availability/domain"
	bookingCommands "github.com/felixgeelhaar/planwise/internal/booking/application/commands"
	bookingQueries "github.com/felixgeelhaar/planwise/internal/booking/application/queries"
	"github.com/felixgeelhaar/planwise/internal/booking/domain"
	"github.com/spf13/cobra"
)

var (
	date string
	rank bool
)

// Cmd is the booking command group
var Cmd = &cobra.Command{
	Use:   "booking",
	Short: "Manage booking links and their availability",
}

var slotsCmd = &cobra.Command{
	Use:   "slots <link>",
	Short: "List bookable start times of a link",
	Long: `List the start times a booking link still offers on a date. The link
is given by ID or slug. Times are shown in the link's timezone.

Examples:
  planwise booking slots intro-call --date 2024-07-01
  planwise booking slots intro-call --rank`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.GetBookingSlotsHandler == nil {
			return cli.ErrNotInitialized
		}
		day, err := cli.ParseDateFlag(date, app.Loc())
		if err != nil {
			return err
		}
		result, err := app.GetBookingSlotsHandler.Handle(cmd.Context(), bookingQueries.GetBookingSlotsQuery{
			Link: args[0],
			Date: day,
			Rank: rank,
		})
		if err != nil {
			return fmt.Errorf("failed to load availability: %w", err)
		}

		out := cmd.OutOrStdout()
		if result.Empty() {
			fmt.Fprintf(out, "%s has no availability on %s.\n", result.Slug, day)
			return nil
		}
		fmt.Fprintf(out, "%s on %s (%s):\n", result.Slug, day, result.Timezone)
		for i, t := range result.Times {
			if rank {
				fmt.Fprintf(out, "  %s  score %.1f\n", t, result.Slots[i].Score)
				continue
			}
			fmt.Fprintf(out, "  %s\n", t)
		}
		return nil
	},
}

var (
	slug         string
	title        string
	duration     int
	bufferBefore int
	bufferAfter  int
	minNotice    int
	maxPerDay    int
	timezone     string
	rules        []string
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Manage booking links",
}

var createLinkCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a booking link",
	Long: `Create a booking link with weekly availability rules.

Rules use weekday=HH:MM-HH:MM and may be repeated.

Example:
  planwise booking link create --slug intro-call --duration 30 \
    --buffer-after 10 --timezone Europe/Berlin \
    --rule mon=09:00-12:00 --rule wed=13:00-17:00`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.CreateLinkHandler == nil {
			return cli.ErrNotInitialized
		}
		parsed := make([]domain.AvailabilityRule, 0, len(rules))
		for _, r := range rules {
			rule, err := ParseRule(r)
			if err != nil {
				return err
			}
			parsed = append(parsed, rule)
		}

		command := bookingCommands.CreateLinkCommand{
			UserID:              app.CurrentUserID,
			Slug:                slug,
			Title:               title,
			DurationMinutes:     duration,
			BufferBeforeMinutes: bufferBefore,
			BufferAfterMinutes:  bufferAfter,
			MinNoticeMinutes:    minNotice,
			Timezone:            timezone,
			Rules:               parsed,
		}
		if cmd.Flags().Changed("max-per-day") {
			command.MaxPerDay = &maxPerDay
		}

		link, err := app.CreateLinkHandler.Handle(cmd.Context(), command)
		if err != nil {
			return fmt.Errorf("failed to create link: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Link created: %s (%s)\n", link.Slug, link.ID)
		return nil
	},
}

var (
	at         string
	guestName  string
	guestEmail string
)

var bookCmd = &cobra.Command{
	Use:   "book <link>",
	Short: "Book a time on a link",
	Long: `Book a start time on a link. The time must be one the link currently
offers.

Example:
  planwise booking book intro-call --at 2024-07-01T10:00:00+02:00 --name Ada`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.CreateBookingHandler == nil {
			return cli.ErrNotInitialized
		}
		start, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return fmt.Errorf("invalid --at, use RFC3339: %w", err)
		}
		booking, err := app.CreateBookingHandler.Handle(cmd.Context(), bookingCommands.CreateBookingCommand{
			Link:       args[0],
			Start:      start,
			GuestName:  guestName,
			GuestEmail: guestEmail,
		})
		if err != nil {
			return fmt.Errorf("failed to book: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Booked %s (%s)\n", booking.Start.Format(time.RFC3339), booking.ID)
		return nil
	},
}

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

// ParseRule parses weekday=HH:MM-HH:MM into an open availability rule.
func ParseRule(s string) (domain.AvailabilityRule, error) {
	day, span, ok := strings.Cut(s, "=")
	if !ok {
		return domain.AvailabilityRule{}, fmt.Errorf("invalid rule %q, use weekday=HH:MM-HH:MM", s)
	}
	name := strings.ToLower(strings.TrimSpace(day))
	if len(name) > 3 {
		name = name[:3]
	}
	weekday, ok := weekdays[name]
	if !ok {
		return domain.AvailabilityRule{}, fmt.Errorf("invalid weekday in rule %q", s)
	}
	start, end, ok := strings.Cut(span, "-")
	if !ok {
		return domain.AvailabilityRule{}, fmt.Errorf("invalid rule %q, use weekday=HH:MM-HH:MM", s)
	}
	window, err := availabilityDomain.ParseWorkingWindow(strings.TrimSpace(start), strings.TrimSpace(end))
	if err != nil {
		return domain.AvailabilityRule{}, fmt.Errorf("rule %q: %w", s, err)
	}
	return domain.AvailabilityRule{DayOfWeek: weekday, Window: window, IsAvailable: true}, nil
}

func init() {
	slotsCmd.Flags().StringVar(&date, "date", "", "day (YYYY-MM-DD, default today)")
	slotsCmd.Flags().BoolVar(&rank, "rank", false, "order by score instead of time")

	createLinkCmd.Flags().StringVar(&slug, "slug", "", "public slug")
	createLinkCmd.Flags().StringVar(&title, "title", "", "title shown to guests")
	createLinkCmd.Flags().IntVar(&duration, "duration", 30, "meeting length in minutes")
	createLinkCmd.Flags().IntVar(&bufferBefore, "buffer-before", 0, "minutes kept free before each booking")
	createLinkCmd.Flags().IntVar(&bufferAfter, "buffer-after", 0, "minutes kept free after each booking")
	createLinkCmd.Flags().IntVar(&minNotice, "notice", 0, "minimum notice in minutes")
	createLinkCmd.Flags().IntVar(&maxPerDay, "max-per-day", 0, "maximum bookings per day")
	createLinkCmd.Flags().StringVar(&timezone, "timezone", "UTC", "IANA timezone of the rules")
	createLinkCmd.Flags().StringArrayVar(&rules, "rule", nil, "availability rule weekday=HH:MM-HH:MM (repeatable)")
	_ = createLinkCmd.MarkFlagRequired("slug")
	linkCmd.AddCommand(createLinkCmd)

	bookCmd.Flags().StringVar(&at, "at", "", "start time (RFC3339)")
	bookCmd.Flags().StringVar(&guestName, "name", "", "guest name")
	bookCmd.Flags().StringVar(&guestEmail, "email", "", "guest email")
	_ = bookCmd.MarkFlagRequired("at")

	Cmd.AddCommand(slotsCmd)
	Cmd.AddCommand(linkCmd)
	Cmd.AddCommand(bookCmd)
}
