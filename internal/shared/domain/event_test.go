package domain_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/planwise/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewBaseEvent(t *testing.T) {
	aggregateID := uuid.New()
	before := time.Now().UTC()

	event := domain.NewBaseEvent(aggregateID, "day", "availability.risks.detected")

	after := time.Now().UTC()

	assert.NotEqual(t, uuid.Nil, event.EventID())
	assert.Equal(t, aggregateID, event.AggregateID())
	assert.Equal(t, "day", event.AggregateType())
	assert.Equal(t, "availability.risks.detected", event.RoutingKey())
	assert.False(t, event.OccurredAt().Before(before))
	assert.False(t, event.OccurredAt().After(after))
}

func TestBaseEvent_SetMetadata(t *testing.T) {
	userID := uuid.New()
	event := domain.NewBaseEvent(userID, "day", "availability.risks.detected")

	event.SetMetadata(domain.EventMetadata{CorrelationID: "corr", CausationID: "cause", UserID: userID})

	assert.Equal(t, "corr", event.Metadata().CorrelationID)
	assert.Equal(t, "cause", event.Metadata().CausationID)
	assert.Equal(t, userID, event.Metadata().UserID)
}

func TestBaseEvent_UniqueIDs(t *testing.T) {
	a := domain.NewBaseEvent(uuid.New(), "day", "x")
	b := domain.NewBaseEvent(uuid.New(), "day", "x")
	assert.NotEqual(t, a.EventID(), b.EventID())
}
