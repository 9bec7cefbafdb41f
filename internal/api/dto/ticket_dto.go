package dto

import (
	"time"

	"github.com/spec-kit/bugtracker/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	ProjectID   string                `json:"projectId"`
	Description string                `json:"description"`
	Severity    domain.TicketSeverity `json:"severity"`
	Type        domain.TicketType     `json:"type"`
	AssigneeID  *string               `json:"assigneeId"`
}

// UpdateTicketRequest payload; nil fields are left unchanged.
type UpdateTicketRequest struct {
	Description *string                `json:"description"`
	Severity    *domain.TicketSeverity `json:"severity"`
	Type        *domain.TicketType     `json:"type"`
	AssigneeID  *string                `json:"assigneeId"`
}

// ChangeTicketStateRequest payload; the actor comes from the auth context.
type ChangeTicketStateRequest struct {
	TicketID string             `json:"ticketId"`
	NewState domain.TicketState `json:"newState"`
}

// TicketResponse response shape.
type TicketResponse struct {
	ID          string                `json:"id"`
	ExternalKey string                `json:"externalKey"`
	ProjectID   string                `json:"projectId"`
	SubmitterID string                `json:"submitterId"`
	AssigneeID  *string               `json:"assigneeId"`
	Description string                `json:"description"`
	Severity    domain.TicketSeverity `json:"severity"`
	Type        domain.TicketType     `json:"type"`
	State       domain.TicketState    `json:"state"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

// AuditLogResponse response shape.
type AuditLogResponse struct {
	ID        string             `json:"id"`
	Action    domain.AuditAction `json:"action"`
	TicketID  string             `json:"ticketId"`
	ChangedBy string             `json:"changedBy"`
	OldValue  string             `json:"oldValue"`
	NewValue  string             `json:"newValue"`
	Timestamp time.Time          `json:"timestamp"`
}
