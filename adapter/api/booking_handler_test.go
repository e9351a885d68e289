package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	availabilityDomain "github.com/felixgeelhaar/planwise/internal/availability/domain"
	bookingCommands "github.com/felixgeelhaar/planwise/internal/booking/application/commands"
	bookingQueries "github.com/felixgeelhaar/planwise/internal/booking/application/queries"
	"github.com/felixgeelhaar/planwise/internal/booking/domain"
	"github.com/felixgeelhaar/planwise/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSlots struct {
	mock.Mock
}

func (m *mockSlots) Handle(ctx context.Context, q bookingQueries.GetBookingSlotsQuery) (*bookingQueries.BookingSlotsDTO, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bookingQueries.BookingSlotsDTO), args.Error(1)
}

type mockBooker struct {
	mock.Mock
}

func (m *mockBooker) Handle(ctx context.Context, cmd bookingCommands.CreateBookingCommand) (*domain.Booking, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func newTestServer(slots *mockSlots, booker *mockBooker, health *observability.HealthRegistry) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(DefaultServerConfig(), NewBookingHandler(slots, booker, logger), health, logger).Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, reader))
	return rec
}

func TestBookingHandler_GetSlots(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	date := availabilityDomain.NewDate(2024, time.July, 2)
	start := time.Date(2024, time.July, 2, 14, 0, 0, 0, berlin)
	linkID := uuid.New()

	dto := &bookingQueries.BookingSlotsDTO{
		LinkID:   linkID.String(),
		Slug:     "coffee",
		Timezone: "Europe/Berlin",
		Date:     date,
		Availability: domain.Availability{
			Times: []string{"14:00"},
			Slots: []availabilityDomain.ScoredSlot{{Start: start, End: start.Add(time.Hour), Score: 72.5}},
		},
	}

	t.Run("lists ranked slots", func(t *testing.T) {
		slots := &mockSlots{}
		slots.On("Handle", mock.Anything, bookingQueries.GetBookingSlotsQuery{Link: "coffee", Date: date, Rank: true}).Return(dto, nil)
		h := newTestServer(slots, &mockBooker{}, nil)

		rec := do(t, h, http.MethodGet, "/api/v1/links/coffee/slots?date=2024-07-02&rank=true", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
		var resp SlotsResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "coffee", resp.Slug)
		assert.Equal(t, "2024-07-02", resp.Date)
		require.Len(t, resp.Slots, 1)
		assert.Equal(t, "14:00", resp.Slots[0].Time)
		assert.True(t, start.Equal(resp.Slots[0].Start))
		require.NotNil(t, resp.Slots[0].Score)
		assert.Equal(t, 72.5, *resp.Slots[0].Score)
	})

	t.Run("missing date is left to the link timezone", func(t *testing.T) {
		slots := &mockSlots{}
		slots.On("Handle", mock.Anything, bookingQueries.GetBookingSlotsQuery{Link: "coffee"}).Return(dto, nil)
		h := newTestServer(slots, &mockBooker{}, nil)

		rec := do(t, h, http.MethodGet, "/api/v1/links/coffee/slots", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "score")
		slots.AssertExpectations(t)
	})

	t.Run("invalid date", func(t *testing.T) {
		slots := &mockSlots{}
		h := newTestServer(slots, &mockBooker{}, nil)

		rec := do(t, h, http.MethodGet, "/api/v1/links/coffee/slots?date=07/02/2024", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		slots.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
	})

	t.Run("unknown link", func(t *testing.T) {
		slots := &mockSlots{}
		slots.On("Handle", mock.Anything, mock.Anything).Return(nil, domain.ErrLinkNotFound)
		h := newTestServer(slots, &mockBooker{}, nil)

		rec := do(t, h, http.MethodGet, "/api/v1/links/nope/slots?date=2024-07-02", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "not_found")
	})

	t.Run("storage failure", func(t *testing.T) {
		slots := &mockSlots{}
		slots.On("Handle", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))
		h := newTestServer(slots, &mockBooker{}, nil)

		rec := do(t, h, http.MethodGet, "/api/v1/links/coffee/slots?date=2024-07-02", "")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "db down")
	})
}

func TestBookingHandler_CreateBooking(t *testing.T) {
	start := time.Date(2024, time.July, 2, 12, 0, 0, 0, time.UTC)

	t.Run("confirms a booking", func(t *testing.T) {
		booker := &mockBooker{}
		booking := &domain.Booking{
			ID:        uuid.New(),
			LinkID:    uuid.New(),
			Start:     start,
			End:       start.Add(30 * time.Minute),
			Status:    domain.BookingConfirmed,
			GuestName: "Ada",
		}
		booker.On("Handle", mock.Anything, mock.MatchedBy(func(cmd bookingCommands.CreateBookingCommand) bool {
			return cmd.Link == "coffee" && cmd.Start.Equal(start) && cmd.GuestName == "Ada"
		})).Return(booking, nil)
		h := newTestServer(&mockSlots{}, booker, nil)

		rec := do(t, h, http.MethodPost, "/api/v1/links/coffee/bookings",
			`{"start":"2024-07-02T12:00:00Z","guest_name":"Ada"}`)

		require.Equal(t, http.StatusCreated, rec.Code)
		var resp BookingResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, booking.ID.String(), resp.ID)
		assert.Equal(t, "confirmed", resp.Status)
		booker.AssertExpectations(t)
	})

	t.Run("taken slot", func(t *testing.T) {
		booker := &mockBooker{}
		booker.On("Handle", mock.Anything, mock.Anything).Return(nil, bookingCommands.ErrSlotUnavailable)
		h := newTestServer(&mockSlots{}, booker, nil)

		rec := do(t, h, http.MethodPost, "/api/v1/links/coffee/bookings", `{"start":"2024-07-02T12:00:00Z"}`)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("rejects bad bodies", func(t *testing.T) {
		booker := &mockBooker{}
		h := newTestServer(&mockSlots{}, booker, nil)

		for _, body := range []string{`not json`, `{}`, `{"start":"2024-07-02T12:00:00Z","extra":1}`} {
			rec := do(t, h, http.MethodPost, "/api/v1/links/coffee/bookings", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		}
		booker.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
	})

	t.Run("wrong method", func(t *testing.T) {
		h := newTestServer(&mockSlots{}, &mockBooker{}, nil)

		rec := do(t, h, http.MethodGet, "/api/v1/links/coffee/bookings", "")

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestServer_Health(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		rec := do(t, newTestServer(&mockSlots{}, &mockBooker{}, nil), http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unhealthy dependency", func(t *testing.T) {
		health := observability.NewHealthRegistry()
		health.Register("database", observability.PingChecker("database", true, func(context.Context) error {
			return errors.New("connection refused")
		}))

		rec := do(t, newTestServer(&mockSlots{}, &mockBooker{}, health), http.MethodGet, "/health", "")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "database")
	})
}
