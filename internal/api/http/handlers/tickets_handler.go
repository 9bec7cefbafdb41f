package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/bugtracker/internal/api/dto"
	"github.com/spec-kit/bugtracker/internal/auth"
	"github.com/spec-kit/bugtracker/internal/domain"
	"github.com/spec-kit/bugtracker/internal/service"
	apperrors "github.com/spec-kit/bugtracker/pkg/util"
)

// TicketsHandler manages ticket endpoints, including lifecycle transitions.
type TicketsHandler struct {
	tickets *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{tickets: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.tickets.CreateTicket(c.Context(), principal.User.ID, service.TicketCreateInput{
		ProjectID:   req.ProjectID,
		Description: req.Description,
		Severity:    req.Severity,
		Type:        req.Type,
		AssigneeID:  req.AssigneeID,
	})
	if err != nil {
		return err
	}
	return sendCreated(c, "ticket created", ticketResponse(ticket))
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.tickets.GetTicket(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return sendOK(c, "ticket", ticketResponse(ticket))
}

// ListProjectTickets GET /tickets/project/:projectId.
func (h *TicketsHandler) ListProjectTickets(c *fiber.Ctx) error {
	tickets, err := h.tickets.ListProjectTickets(c.Context(), c.Params("projectId"))
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return sendOK(c, "tickets", items)
}

// UpdateTicket PUT /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.tickets.UpdateTicket(c.Context(), principal.User.ID, c.Params("id"), service.TicketUpdateInput{
		Description: req.Description,
		Severity:    req.Severity,
		Type:        req.Type,
		AssigneeID:  req.AssigneeID,
	})
	if err != nil {
		return err
	}
	return sendOK(c, "ticket updated", ticketResponse(ticket))
}

// DeleteTicket DELETE /tickets/:id. Admin-only at the route layer.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	if err := h.tickets.DeleteTicket(c.Context(), principal.User.ID, c.Params("id")); err != nil {
		return err
	}
	return sendOK(c, "ticket deleted", nil)
}

// ChangeTicketState POST /changeTicketState. The acting user comes from the
// auth context; the created audit entry is returned.
func (h *TicketsHandler) ChangeTicketState(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ChangeTicketStateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	entry, err := h.tickets.ChangeTicketState(c.Context(), req.TicketID, req.NewState, principal.User.ID)
	if err != nil {
		return err
	}
	return sendOK(c, "ticket state changed", auditLogResponse(entry))
}

func requirePrincipal(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal, nil
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:          ticket.ID,
		ExternalKey: ticket.ExternalKey,
		ProjectID:   ticket.ProjectID,
		SubmitterID: ticket.SubmitterID,
		AssigneeID:  ticket.AssigneeID,
		Description: ticket.Description,
		Severity:    ticket.Severity,
		Type:        ticket.Type,
		State:       ticket.State,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
	}
}

func auditLogResponse(entry *domain.AuditLog) dto.AuditLogResponse {
	return dto.AuditLogResponse{
		ID:        entry.ID,
		Action:    entry.Action,
		TicketID:  entry.TicketID,
		ChangedBy: entry.ChangedBy,
		OldValue:  entry.OldValue,
		NewValue:  entry.NewValue,
		Timestamp: entry.CreatedAt,
	}
}
