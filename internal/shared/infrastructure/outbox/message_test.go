package outbox_test

import (
	"testing"

	"github.com/felixgeelhaar/planwise/internal/shared/domain"
	"github.com/felixgeelhaar/planwise/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/planwise/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	t.Run("takes the event id from the envelope", func(t *testing.T) {
		event := domain.NewBaseEvent(uuid.New(), "user", "planwise.risk.detected")
		payload, err := eventbus.Encode(event, map[string]string{"type": "overlap"})
		require.NoError(t, err)

		msg := outbox.NewMessage(event.RoutingKey(), payload)
		assert.Equal(t, event.EventID(), msg.EventID)
		assert.Equal(t, "planwise.risk.detected", msg.RoutingKey)
		assert.False(t, msg.IsPublished())
		assert.True(t, msg.CanRetry(1))
	})

	t.Run("opaque payload gets a fresh id", func(t *testing.T) {
		msg := outbox.NewMessage("raw", []byte("not json"))
		assert.NotEqual(t, uuid.Nil, msg.EventID)
		assert.Equal(t, []byte("not json"), msg.Payload)
	})
}
