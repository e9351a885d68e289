package services

import (
	"context"
	"fmt"
	"time"

	availabilityDomain "github.com/felixgeelhaar/planwise/internal/availability/domain"
	"github.com/google/uuid"
)

// StateStore is a small key-value store with expiry. Get reports whether
// the key exists.
type StateStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// DismissalKey identifies a dismissed risk type for one user and day.
func DismissalKey(userID uuid.UUID, date availabilityDomain.Date, riskType availabilityDomain.RiskType) string {
	return fmt.Sprintf("planwise:dismissed:%s:%s:%s", userID, date, riskType)
}
