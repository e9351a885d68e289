package domain

import (
	sharedDomain "github.com/felixgeelhaar/planwise/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	// AggregateTypeDay is the aggregate type of per-day schedule events.
	AggregateTypeDay = "availability.day"

	RoutingKeyRisksDetected = "availability.risks.detected"
)

// RisksDetected is raised when a risk scan finds undismissed risks on a day.
type RisksDetected struct {
	sharedDomain.BaseEvent
	UserID   uuid.UUID
	Date     Date
	Findings []RiskFinding
}

// NewRisksDetected creates the event. The aggregate is the user.
func NewRisksDetected(userID uuid.UUID, date Date, findings []RiskFinding) *RisksDetected {
	return &RisksDetected{
		BaseEvent: sharedDomain.NewBaseEvent(userID, AggregateTypeDay, RoutingKeyRisksDetected),
		UserID:    userID,
		Date:      date,
		Findings:  findings,
	}
}

// RisksDetectedPayload is the published body of RisksDetected.
type RisksDetectedPayload struct {
	UserID   string           `json:"user_id"`
	Date     string           `json:"date"`
	Findings []FindingPayload `json:"findings"`
}

// FindingPayload is one finding on the wire.
type FindingPayload struct {
	Type        string   `json:"type"`
	Severity    string   `json:"severity"`
	AffectedIDs []string `json:"affected_ids"`
	Value       float64  `json:"value"`
}

// Payload returns the wire form of the event.
func (e *RisksDetected) Payload() RisksDetectedPayload {
	p := RisksDetectedPayload{
		UserID:   e.UserID.String(),
		Date:     e.Date.String(),
		Findings: make([]FindingPayload, 0, len(e.Findings)),
	}
	for _, f := range e.Findings {
		p.Findings = append(p.Findings, FindingPayload{
			Type:        string(f.Type),
			Severity:    string(f.Severity),
			AffectedIDs: f.AffectedIDs,
			Value:       f.Value,
		})
	}
	return p
}
