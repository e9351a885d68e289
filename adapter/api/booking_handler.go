package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	availabilityDomain "github.com/felixgeelhaar/planwise/internal/availability/domain"
	bookingCommands "github.com/felixgeelhaar/planwise/internal/booking/application/commands"
	bookingQueries "github.com/felixgeelhaar/planwise/internal/booking/application/queries"
	"github.com/felixgeelhaar/planwise/internal/booking/domain"
)

// SlotsQuerier lists the bookable times of a link.
type SlotsQuerier interface {
	Handle(ctx context.Context, query bookingQueries.GetBookingSlotsQuery) (*bookingQueries.BookingSlotsDTO, error)
}

// Booker reserves a time on a link.
type Booker interface {
	Handle(ctx context.Context, cmd bookingCommands.CreateBookingCommand) (*domain.Booking, error)
}

// BookingHandler handles the public booking endpoints.
type BookingHandler struct {
	slots  SlotsQuerier
	booker Booker
	logger *slog.Logger
}

// NewBookingHandler creates a new booking handler.
func NewBookingHandler(slots SlotsQuerier, booker Booker, logger *slog.Logger) *BookingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BookingHandler{slots: slots, booker: booker, logger: logger}
}

// SlotResponse is one bookable start time.
type SlotResponse struct {
	Time  string    `json:"time"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Score *float64  `json:"score,omitempty"`
}

// SlotsResponse is the body of GET /api/v1/links/{link}/slots.
type SlotsResponse struct {
	LinkID   string         `json:"link_id"`
	Slug     string         `json:"slug"`
	Timezone string         `json:"timezone"`
	Date     string         `json:"date"`
	Slots    []SlotResponse `json:"slots"`
}

// GetSlots handles GET /api/v1/links/{link}/slots?date=YYYY-MM-DD&rank=true.
// Without a date, today in the link's timezone is used.
func (h *BookingHandler) GetSlots(w http.ResponseWriter, r *http.Request) {
	query := bookingQueries.GetBookingSlotsQuery{
		Link: r.PathValue("link"),
		Rank: parseBoolParam(r, "rank", false),
	}

	if dateParam := r.URL.Query().Get("date"); dateParam != "" {
		date, err := availabilityDomain.ParseDate(dateParam)
		if err != nil {
			writeError(w, badRequest("date must be YYYY-MM-DD"))
			return
		}
		query.Date = date
	}

	result, err := h.slots.Handle(r.Context(), query)
	if err != nil {
		h.writeDomainError(w, r, "failed to load slots", err)
		return
	}

	resp := SlotsResponse{
		LinkID:   result.LinkID,
		Slug:     result.Slug,
		Timezone: result.Timezone,
		Date:     result.Date.String(),
		Slots:    make([]SlotResponse, 0, len(result.Times)),
	}
	for i, t := range result.Times {
		slot := SlotResponse{Time: t}
		if i < len(result.Slots) {
			slot.Start = result.Slots[i].Start
			slot.End = result.Slots[i].End
			if query.Rank {
				score := result.Slots[i].Score
				slot.Score = &score
			}
		}
		resp.Slots = append(resp.Slots, slot)
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateBookingRequest is the body of POST /api/v1/links/{link}/bookings.
type CreateBookingRequest struct {
	Start      time.Time `json:"start"`
	GuestName  string    `json:"guest_name"`
	GuestEmail string    `json:"guest_email"`
}

// BookingResponse describes a confirmed booking.
type BookingResponse struct {
	ID         string    `json:"id"`
	LinkID     string    `json:"link_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Status     string    `json:"status"`
	GuestName  string    `json:"guest_name,omitempty"`
	GuestEmail string    `json:"guest_email,omitempty"`
}

// CreateBooking handles POST /api/v1/links/{link}/bookings.
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, badRequest("invalid JSON body"))
		return
	}
	if req.Start.IsZero() {
		writeError(w, badRequest("start is required"))
		return
	}

	booking, err := h.booker.Handle(r.Context(), bookingCommands.CreateBookingCommand{
		Link:       r.PathValue("link"),
		Start:      req.Start,
		GuestName:  req.GuestName,
		GuestEmail: req.GuestEmail,
	})
	if err != nil {
		h.writeDomainError(w, r, "failed to create booking", err)
		return
	}

	writeJSON(w, http.StatusCreated, BookingResponse{
		ID:         booking.ID.String(),
		LinkID:     booking.LinkID.String(),
		Start:      booking.Start,
		End:        booking.End,
		Status:     string(booking.Status),
		GuestName:  booking.GuestName,
		GuestEmail: booking.GuestEmail,
	})
}

func (h *BookingHandler) writeDomainError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	switch {
	case errors.Is(err, domain.ErrLinkNotFound):
		writeError(w, ErrNotFound)
	case errors.Is(err, bookingCommands.ErrSlotUnavailable):
		writeError(w, ErrConflict)
	default:
		h.logger.ErrorContext(r.Context(), msg, "link", r.PathValue("link"), "error", err)
		writeError(w, ErrInternalServer)
	}
}

func parseBoolParam(r *http.Request, name string, defaultValue bool) bool {
	v := r.URL.Query().Get(name)
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}
	return b
}
