package events

import (
	"time"

	"github.com/spec-kit/bugtracker/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated      EventType = "ticket_created"
	EventTicketStateChanged EventType = "ticket_state_changed"
	EventTicketUpdated      EventType = "ticket_updated"
	EventTicketDeleted      EventType = "ticket_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	ProjectID   string                `json:"project_id"`
	Severity    domain.TicketSeverity `json:"severity"`
	Type        domain.TicketType     `json:"ticket_type"`
	Description string                `json:"description"`
}

// TicketStateChangedPayload payload.
type TicketStateChangedPayload struct {
	OldState domain.TicketState `json:"old_state"`
	NewState domain.TicketState `json:"new_state"`
}

// TicketUpdatedPayload payload.
type TicketUpdatedPayload struct {
	AssigneeID *string `json:"assignee_user_id,omitempty"`
}

// TicketDeletedPayload payload.
type TicketDeletedPayload struct {
	ProjectID string `json:"project_id"`
}
