package commands

import (
	"context"
	"io"
	"time"

	"github.com/felixgeelhaar/planwise/internal/availability/application/queries"
	availabilityDomain "github.com/felixgeelhaar/planwise/internal/availability/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockStateStore struct {
	mock.Mock
}

func (m *mockStateStore) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *mockStateStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *mockStateStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type mockUserLister struct {
	mock.Mock
}

func (m *mockUserLister) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type mockRiskReporter struct {
	mock.Mock
}

func (m *mockRiskReporter) Handle(ctx context.Context, query queries.GetDayRisksQuery) (*queries.DayRisksDTO, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queries.DayRisksDTO), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	return m.Called(ctx, routingKey, payload).Error(0)
}

func (m *mockPublisher) Close() error {
	return m.Called().Error(0)
}

type mockDecoder struct {
	mock.Mock
}

func (m *mockDecoder) Decode(r io.Reader, userID uuid.UUID) ([]availabilityDomain.Event, error) {
	args := m.Called(r, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]availabilityDomain.Event), args.Error(1)
}

type mockEventRepo struct {
	mock.Mock
}

func (m *mockEventRepo) Save(ctx context.Context, event availabilityDomain.Event) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockEventRepo) FindByID(ctx context.Context, userID uuid.UUID, id string) (*availabilityDomain.Event, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*availabilityDomain.Event), args.Error(1)
}

func (m *mockEventRepo) FindInRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]availabilityDomain.Event, error) {
	args := m.Called(ctx, userID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]availabilityDomain.Event), args.Error(1)
}

func (m *mockEventRepo) Delete(ctx context.Context, userID uuid.UUID, id string) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *mockEventRepo) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
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

type mockUnitOfWork struct {
	mock.Mock
}

func (m *mockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(context.Context), args.Error(1)
}

func (m *mockUnitOfWork) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockUnitOfWork) Rollback(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
