package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/bugtracker/internal/api/dto"
)

// sendSuccess writes the shared response envelope for successful calls.
func sendSuccess(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(dto.Envelope{
		Success: true,
		Status:  status,
		Message: message,
		Data:    data,
	})
}

func sendOK(c *fiber.Ctx, message string, data any) error {
	return sendSuccess(c, http.StatusOK, message, data)
}

func sendCreated(c *fiber.Ctx, message string, data any) error {
	return sendSuccess(c, http.StatusCreated, message, data)
}
