package cli

import (
	"errors"
	"time"

	internalApp "github.com/felixgeelhaar/planwise/internal/app"
	availabilityCommands "github.com/felixgeelhaar/planwise/internal/availability/application/commands"
	availabilityQueries "github.com/felixgeelhaar/planwise/internal/availability/application/queries"
	bookingCommands "github.com/felixgeelhaar/planwise/internal/booking/application/commands"
	bookingQueries "github.com/felixgeelhaar/planwise/internal/booking/application/queries"
	"github.com/felixgeelhaar/planwise/pkg/observability"
	"github.com/google/uuid"
)

// ErrNotInitialized is returned by commands that need the database.
var ErrNotInitialized = errors.New("application not initialized - database connection required")

// App holds the CLI application dependencies.
type App struct {
	// Availability queries
	GetDayRisksHandler      *availabilityQueries.GetDayRisksHandler
	FindBestSlotsHandler    *availabilityQueries.FindBestSlotsHandler
	InsightsHandler         *availabilityQueries.InsightsHandler
	ExpandRecurrenceHandler *availabilityQueries.ExpandRecurrenceHandler

	// Availability commands
	DismissRiskHandler    *availabilityCommands.DismissRiskHandler
	ImportCalendarHandler *availabilityCommands.ImportCalendarHandler
	CreateTaskHandler     *availabilityCommands.CreateTaskHandler

	// Booking
	GetBookingSlotsHandler *bookingQueries.GetBookingSlotsHandler
	CreateLinkHandler      *bookingCommands.CreateLinkHandler
	CreateBookingHandler   *bookingCommands.CreateBookingHandler

	Health *observability.HealthRegistry

	// CurrentUserID is the user all commands act for.
	CurrentUserID uuid.UUID
	// Location renders times and resolves "today".
	Location *time.Location
}

// NewApp exposes the container's handlers to the commands.
func NewApp(c *internalApp.Container, userID uuid.UUID) *App {
	return &App{
		GetDayRisksHandler:      c.GetDayRisksHandler,
		FindBestSlotsHandler:    c.FindBestSlotsHandler,
		InsightsHandler:         c.InsightsHandler,
		ExpandRecurrenceHandler: c.ExpandRecurrenceHandler,
		DismissRiskHandler:      c.DismissRiskHandler,
		ImportCalendarHandler:   c.ImportCalendarHandler,
		CreateTaskHandler:       c.CreateTaskHandler,
		GetBookingSlotsHandler:  c.GetBookingSlotsHandler,
		CreateLinkHandler:       c.CreateLinkHandler,
		CreateBookingHandler:    c.CreateBookingHandler,
		Health:                  c.Health,
		CurrentUserID:           userID,
		Location:                c.Config.Location(),
	}
}

// SetCurrentUserID updates the current user ID.
func (a *App) SetCurrentUserID(userID uuid.UUID) {
	a.CurrentUserID = userID
}

// Loc returns the display location, UTC when unset.
func (a *App) Loc() *time.Location {
	if a == nil || a.Location == nil {
		return time.UTC
	}
	return a.Location
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
