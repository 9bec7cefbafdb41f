package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/bugtracker/internal/api/dto"
	"github.com/spec-kit/bugtracker/internal/domain"
	"github.com/spec-kit/bugtracker/internal/service"
	apperrors "github.com/spec-kit/bugtracker/pkg/util"
)

// TeamsHandler manages team endpoints.
type TeamsHandler struct {
	teams *service.TeamService
}

// NewTeamsHandler constructs handler.
func NewTeamsHandler(teamService *service.TeamService) *TeamsHandler {
	return &TeamsHandler{teams: teamService}
}

// CreateTeam POST /teams.
func (h *TeamsHandler) CreateTeam(c *fiber.Ctx) error {
	var req dto.CreateTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	team, err := h.teams.CreateTeam(c.Context(), req.Name, req.Description)
	if err != nil {
		return err
	}
	return sendCreated(c, "team created", teamResponse(team, nil))
}

// ListTeams GET /teams.
func (h *TeamsHandler) ListTeams(c *fiber.Ctx) error {
	teams, err := h.teams.ListTeams(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.TeamResponse, 0, len(teams))
	for i := range teams {
		items = append(items, teamResponse(&teams[i], nil))
	}
	return sendOK(c, "teams", items)
}

// GetTeam GET /teams/:id.
func (h *TeamsHandler) GetTeam(c *fiber.Ctx) error {
	team, members, err := h.teams.GetTeam(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return sendOK(c, "team", teamResponse(team, members))
}

// UpdateTeam PUT /teams/:id.
func (h *TeamsHandler) UpdateTeam(c *fiber.Ctx) error {
	var req dto.UpdateTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	team, err := h.teams.UpdateTeam(c.Context(), c.Params("id"), req.Name, req.Description, req.IsActive)
	if err != nil {
		return err
	}
	return sendOK(c, "team updated", teamResponse(team, nil))
}

// DeleteTeam DELETE /teams/:id. Admin-only at the route layer.
func (h *TeamsHandler) DeleteTeam(c *fiber.Ctx) error {
	if err := h.teams.DeleteTeam(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return sendOK(c, "team deleted", nil)
}

// JoinTeam POST /teams/:id/join.
func (h *TeamsHandler) JoinTeam(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	if err := h.teams.JoinTeam(c.Context(), principal.User.ID, c.Params("id")); err != nil {
		return err
	}
	return sendOK(c, "joined team", nil)
}

// LeaveTeam POST /teams/leave.
func (h *TeamsHandler) LeaveTeam(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	if err := h.teams.LeaveTeam(c.Context(), principal.User.ID); err != nil {
		return err
	}
	return sendOK(c, "left team", nil)
}

func teamResponse(team *domain.Team, members []domain.User) dto.TeamResponse {
	resp := dto.TeamResponse{
		ID:          team.ID,
		Name:        team.Name,
		Description: team.Description,
		IsActive:    team.IsActive,
		CreatedAt:   team.CreatedAt,
	}
	for i := range members {
		resp.Members = append(resp.Members, userResponse(&members[i]))
	}
	return resp
}
