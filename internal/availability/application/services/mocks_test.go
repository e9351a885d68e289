package services

import (
	"context"
	"time"

	availabilityDomain "github.com/felixgeelhaar/planwise/internal/availability/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockEventSource struct {
	mock.Mock
}

func (m *mockEventSource) FindInRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]availabilityDomain.Event, error) {
	args := m.Called(ctx, userID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]availabilityDomain.Event), args.Error(1)
}

type mockTaskRepo struct {
	mock.Mock
}

func (m *mockTaskRepo) Save(ctx context.Context, task availabilityDomain.Task) error {
	return m.Called(ctx, task).Error(0)
}

func (m *mockTaskRepo) FindByID(ctx context.Context, userID uuid.UUID, id string) (*availabilityDomain.Task, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*availabilityDomain.Task), args.Error(1)
}

func (m *mockTaskRepo) FindOpen(ctx context.Context, userID uuid.UUID) ([]availabilityDomain.Task, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]availabilityDomain.Task), args.Error(1)
}
