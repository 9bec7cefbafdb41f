package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/bugtracker/internal/api/dto"
	"github.com/spec-kit/bugtracker/internal/domain"
	"github.com/spec-kit/bugtracker/internal/service"
)

// AuditLogsHandler exposes the audit trail query surface.
type AuditLogsHandler struct {
	tickets *service.TicketService
}

// NewAuditLogsHandler constructs handler.
func NewAuditLogsHandler(ticketService *service.TicketService) *AuditLogsHandler {
	return &AuditLogsHandler{tickets: ticketService}
}

// GetAllLogs GET /logs.
func (h *AuditLogsHandler) GetAllLogs(c *fiber.Ctx) error {
	logs, err := h.tickets.GetAllLogs(c.Context())
	if err != nil {
		return err
	}
	return sendOK(c, "audit logs", auditLogResponses(logs))
}

// GetLogsForTicket GET /logs/ticket/:ticketId.
func (h *AuditLogsHandler) GetLogsForTicket(c *fiber.Ctx) error {
	logs, err := h.tickets.GetLogsForTicket(c.Context(), c.Params("ticketId"))
	if err != nil {
		return err
	}
	return sendOK(c, "audit logs", auditLogResponses(logs))
}

// GetLogsByUser GET /logs/user/:userId.
func (h *AuditLogsHandler) GetLogsByUser(c *fiber.Ctx) error {
	logs, err := h.tickets.GetLogsByUser(c.Context(), c.Params("userId"))
	if err != nil {
		return err
	}
	return sendOK(c, "audit logs", auditLogResponses(logs))
}

// DeleteLog DELETE /log/:logId. Admin-only at the route layer; the referenced
// ticket is unaffected.
func (h *AuditLogsHandler) DeleteLog(c *fiber.Ctx) error {
	if err := h.tickets.DeleteLog(c.Context(), c.Params("logId")); err != nil {
		return err
	}
	return sendOK(c, "audit log deleted", nil)
}

func auditLogResponses(entries []domain.AuditLog) []dto.AuditLogResponse {
	resp := make([]dto.AuditLogResponse, 0, len(entries))
	for i := range entries {
		resp = append(resp, auditLogResponse(&entries[i]))
	}
	return resp
}
