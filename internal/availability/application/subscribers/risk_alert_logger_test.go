package subscribers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	availabilityDomain "github.com/felixgeelhaar/planwise/internal/availability/domain"
	"github.com/felixgeelhaar/planwise/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRiskAlertLogger(t *testing.T) {
	var buf bytes.Buffer
	sub := NewRiskAlertLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	assert.Equal(t, []string{availabilityDomain.RoutingKeyRisksDetected}, sub.RoutingKeys())

	t.Run("logs each finding", func(t *testing.T) {
		buf.Reset()
		userID := uuid.New()
		event := availabilityDomain.NewRisksDetected(userID, availabilityDomain.NewDate(2024, time.May, 6), []availabilityDomain.RiskFinding{
			{Type: availabilityDomain.RiskOverbooked, Severity: availabilityDomain.SeverityMedium, AffectedIDs: []string{"a"}, Value: 0.9},
			{Type: availabilityDomain.RiskNoBreak, Severity: availabilityDomain.SeverityHigh, AffectedIDs: []string{"a"}, Value: 15},
		})
		data, err := eventbus.Encode(event, event.Payload())
		require.NoError(t, err)
		env, err := eventbus.Decode(data)
		require.NoError(t, err)

		require.NoError(t, sub.Handle(context.Background(), env))

		lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
		require.Len(t, lines, 2)
		var entry map[string]any
		require.NoError(t, json.Unmarshal(lines[0], &entry))
		assert.Equal(t, "WARN", entry["level"])
		assert.Equal(t, "overbooked", entry["risk_type"])
		assert.Equal(t, "2024-05-06", entry["date"])
		assert.Equal(t, userID.String(), entry["user_id"])
	})

	t.Run("rejects malformed payload", func(t *testing.T) {
		err := sub.Handle(context.Background(), &eventbus.Envelope{
			RoutingKey: availabilityDomain.RoutingKeyRisksDetected,
			Payload:    json.RawMessage(`"not an object"`),
		})
		assert.Error(t, err)
	})
}
