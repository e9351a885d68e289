package services

import (
	"context"
	"time"

	availabilityDomain "github.com/felixgeelhaar/planwise/internal/availability/domain"
	"github.com/felixgeelhaar/planwise/internal/booking/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockLinkRepo struct {
	mock.Mock
}

func (m *mockLinkRepo) Save(ctx context.Context, link *domain.Link) error {
	return m.Called(ctx, link).Error(0)
}

func (m *mockLinkRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Link, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Link), args.Error(1)
}

func (m *mockLinkRepo) FindBySlug(ctx context.Context, slug string) (*domain.Link, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Link), args.Error(1)
}

func (m *mockLinkRepo) SaveRules(ctx context.Context, linkID uuid.UUID, rules []domain.AvailabilityRule) error {
	return m.Called(ctx, linkID, rules).Error(0)
}

func (m *mockLinkRepo) FindRules(ctx context.Context, linkID uuid.UUID) ([]domain.AvailabilityRule, error) {
	args := m.Called(ctx, linkID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AvailabilityRule), args.Error(1)
}

func (m *mockLinkRepo) AddExcludedDate(ctx context.Context, linkID uuid.UUID, date availabilityDomain.Date) error {
	return m.Called(ctx, linkID, date).Error(0)
}

func (m *mockLinkRepo) FindExcludedDates(ctx context.Context, linkID uuid.UUID) ([]availabilityDomain.Date, error) {
	args := m.Called(ctx, linkID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]availabilityDomain.Date), args.Error(1)
}

type mockBookingRepo struct {
	mock.Mock
}

func (m *mockBookingRepo) Save(ctx context.Context, booking *domain.Booking) error {
	return m.Called(ctx, booking).Error(0)
}

func (m *mockBookingRepo) FindConfirmedInRange(ctx context.Context, linkID uuid.UUID, start, end time.Time) ([]domain.Booking, error) {
	args := m.Called(ctx, linkID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}
