package app

import (
	"fmt"

	availabilityDomain "github.com/felixgeelhaar/planwise/internal/availability/domain"
	availabilityPersistence "github.com/felixgeelhaar/planwise/internal/availability/infrastructure/persistence"
	bookingDomain "github.com/felixgeelhaar/planwise/internal/booking/domain"
	bookingPersistence "github.com/felixgeelhaar/planwise/internal/booking/infrastructure/persistence"
	"github.com/felixgeelhaar/planwise/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/planwise/internal/shared/infrastructure/outbox"
)

// RepositoryFactory creates repositories based on the database driver.
type RepositoryFactory struct {
	conn   database.Connection
	driver database.Driver
}

// NewRepositoryFactory creates a new repository factory.
func NewRepositoryFactory(conn database.Connection) *RepositoryFactory {
	return &RepositoryFactory{
		conn:   conn,
		driver: conn.Driver(),
	}
}

// EventRepository creates an event repository for the configured driver.
func (f *RepositoryFactory) EventRepository() (availabilityDomain.EventRepository, error) {
	switch f.driver {
	case database.DriverPostgres:
		return availabilityPersistence.NewPostgresEventRepository(f.conn), nil
	case database.DriverSQLite:
		return availabilityPersistence.NewSQLiteEventRepository(f.conn), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// TaskRepository creates a task repository for the configured driver.
func (f *RepositoryFactory) TaskRepository() (availabilityDomain.TaskRepository, error) {
	switch f.driver {
	case database.DriverPostgres:
		return availabilityPersistence.NewPostgresTaskRepository(f.conn), nil
	case database.DriverSQLite:
		return availabilityPersistence.NewSQLiteTaskRepository(f.conn), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// LinkRepository creates a booking link repository for the configured driver.
func (f *RepositoryFactory) LinkRepository() (bookingDomain.LinkRepository, error) {
	switch f.driver {
	case database.DriverPostgres:
		return bookingPersistence.NewPostgresLinkRepository(f.conn), nil
	case database.DriverSQLite:
		return bookingPersistence.NewSQLiteLinkRepository(f.conn), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// BookingRepository creates a booking repository for the configured driver.
func (f *RepositoryFactory) BookingRepository() (bookingDomain.BookingRepository, error) {
	switch f.driver {
	case database.DriverPostgres:
		return bookingPersistence.NewPostgresBookingRepository(f.conn), nil
	case database.DriverSQLite:
		return bookingPersistence.NewSQLiteBookingRepository(f.conn), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// OutboxRepository creates an outbox repository for the configured driver.
func (f *RepositoryFactory) OutboxRepository() (outbox.Repository, error) {
	switch f.driver {
	case database.DriverPostgres:
		return outbox.NewPostgresRepository(f.conn), nil
	case database.DriverSQLite:
		return outbox.NewSQLiteRepository(f.conn), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// Repositories bundles every repository the application needs.
type Repositories struct {
	Events   availabilityDomain.EventRepository
	Tasks    availabilityDomain.TaskRepository
	Links    bookingDomain.LinkRepository
	Bookings bookingDomain.BookingRepository
	Outbox   outbox.Repository
}

// All creates every repository.
func (f *RepositoryFactory) All() (*Repositories, error) {
	events, err := f.EventRepository()
	if err != nil {
		return nil, err
	}
	tasks, err := f.TaskRepository()
	if err != nil {
		return nil, err
	}
	links, err := f.LinkRepository()
	if err != nil {
		return nil, err
	}
	bookings, err := f.BookingRepository()
	if err != nil {
		return nil, err
	}
	outboxRepo, err := f.OutboxRepository()
	if err != nil {
		return nil, err
	}
	return &Repositories{Events: events, Tasks: tasks, Links: links, Bookings: bookings, Outbox: outboxRepo}, nil
}
