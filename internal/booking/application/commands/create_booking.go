package commands

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	availabilityDomain "github.com/felixgeelhaar/planwise/internal/availability/domain"
	"github.com/felixgeelhaar/planwise/internal/booking/application/services"
	"github.com/felixgeelhaar/planwise/internal/booking/domain"
	sharedApplication "github.com/felixgeelhaar/planwise/internal/shared/application"
	"github.com/google/uuid"
)

var ErrSlotUnavailable = errors.New("requested time is not available")

// CreateBookingCommand reserves a slot on a link. Link is an ID or slug.
type CreateBookingCommand struct {
	Link       string
	Start      time.Time
	GuestName  string
	GuestEmail string
}

// CreateBookingHandler handles CreateBookingCommand.
type CreateBookingHandler struct {
	calculator *services.AvailabilityCalculator
	bookings   domain.BookingRepository
	uow        sharedApplication.UnitOfWork
	logger     *slog.Logger
}

// NewCreateBookingHandler creates the handler.
func NewCreateBookingHandler(
	calculator *services.AvailabilityCalculator,
	bookings domain.BookingRepository,
	uow sharedApplication.UnitOfWork,
	logger *slog.Logger,
) *CreateBookingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CreateBookingHandler{calculator: calculator, bookings: bookings, uow: uow, logger: logger}
}

// Handle re-checks availability inside the transaction and stores a
// confirmed booking. Any rejection is reported as ErrSlotUnavailable.
func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*domain.Booking, error) {
	var booking *domain.Booking
	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		link, err := h.calculator.ResolveLink(txCtx, cmd.Link)
		if err != nil {
			return err
		}
		loc, err := link.Location()
		if err != nil {
			return err
		}

		start := cmd.Start.In(loc)
		date := availabilityDomain.DateOf(start)
		availability, err := h.calculator.ForDate(txCtx, link, date, false)
		if err != nil {
			return err
		}
		offered := slices.ContainsFunc(availability.Slots, func(s availabilityDomain.ScoredSlot) bool {
			return s.Start.Equal(start)
		})
		if !offered {
			return ErrSlotUnavailable
		}

		booking = &domain.Booking{
			ID:         uuid.New(),
			LinkID:     link.ID,
			Start:      start.UTC(),
			End:        start.Add(time.Duration(link.DurationMinutes) * time.Minute).UTC(),
			Status:     domain.BookingConfirmed,
			GuestName:  strings.TrimSpace(cmd.GuestName),
			GuestEmail: strings.TrimSpace(cmd.GuestEmail),
			CreatedAt:  h.calculator.Now().UTC(),
		}
		return h.bookings.Save(txCtx, booking)
	})
	if err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "booking created",
		"booking_id", booking.ID,
		"link_id", booking.LinkID,
		"start", booking.Start,
	)
	return booking, nil
}
