package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/planwise/internal/booking/domain"
	sharedApplication "github.com/felixgeelhaar/planwise/internal/shared/application"
	"github.com/google/uuid"
)

var ErrSlugTaken = errors.New("booking link slug already in use")

// CreateLinkCommand creates a booking link with its weekly rules.
type CreateLinkCommand struct {
	UserID              uuid.UUID
	Slug                string
	Title               string
	DurationMinutes     int
	BufferBeforeMinutes int
	BufferAfterMinutes  int
	MinNoticeMinutes    int
	MaxPerDay           *int
	Timezone            string
	Rules               []domain.AvailabilityRule
}

// CreateLinkHandler handles CreateLinkCommand.
type CreateLinkHandler struct {
	links domain.LinkRepository
	uow   sharedApplication.UnitOfWork
}

// NewCreateLinkHandler creates the handler.
func NewCreateLinkHandler(links domain.LinkRepository, uow sharedApplication.UnitOfWork) *CreateLinkHandler {
	return &CreateLinkHandler{links: links, uow: uow}
}

// Handle executes the command.
func (h *CreateLinkHandler) Handle(ctx context.Context, cmd CreateLinkCommand) (*domain.Link, error) {
	link, err := domain.NewLink(cmd.UserID, cmd.Slug, cmd.Title, cmd.DurationMinutes, cmd.Timezone)
	if err != nil {
		return nil, err
	}
	link.BufferBeforeMinutes = cmd.BufferBeforeMinutes
	link.BufferAfterMinutes = cmd.BufferAfterMinutes
	link.MinNoticeMinutes = cmd.MinNoticeMinutes
	link.MaxPerDay = cmd.MaxPerDay
	if err := link.Validate(); err != nil {
		return nil, err
	}
	for _, rule := range cmd.Rules {
		if err := rule.Window.Validate(); err != nil {
			return nil, fmt.Errorf("rule for %s: %w", rule.DayOfWeek, err)
		}
	}

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		existing, err := h.links.FindBySlug(txCtx, link.Slug)
		if err != nil && !errors.Is(err, domain.ErrLinkNotFound) {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: %s", ErrSlugTaken, link.Slug)
		}
		if err := h.links.Save(txCtx, link); err != nil {
			return err
		}
		return h.links.SaveRules(txCtx, link.ID, cmd.Rules)
	})
	if err != nil {
		return nil, err
	}
	return link, nil
}
