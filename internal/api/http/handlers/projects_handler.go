package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/bugtracker/internal/api/dto"
	"github.com/spec-kit/bugtracker/internal/domain"
	"github.com/spec-kit/bugtracker/internal/service"
	apperrors "github.com/spec-kit/bugtracker/pkg/util"
)

// ProjectsHandler manages project endpoints.
type ProjectsHandler struct {
	projects *service.ProjectService
}

// NewProjectsHandler constructs handler.
func NewProjectsHandler(projectService *service.ProjectService) *ProjectsHandler {
	return &ProjectsHandler{projects: projectService}
}

// CreateProject POST /projects.
func (h *ProjectsHandler) CreateProject(c *fiber.Ctx) error {
	var req dto.CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.TeamID == "" {
		return apperrors.NewValidationError("teamId required", nil)
	}
	project, err := h.projects.CreateProject(c.Context(), req.TeamID, req.Name, req.Description)
	if err != nil {
		return err
	}
	return sendCreated(c, "project created", projectResponse(project))
}

// GetProject GET /projects/:id.
func (h *ProjectsHandler) GetProject(c *fiber.Ctx) error {
	project, err := h.projects.GetProject(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return sendOK(c, "project", projectResponse(project))
}

// ListTeamProjects GET /projects/team/:teamId.
func (h *ProjectsHandler) ListTeamProjects(c *fiber.Ctx) error {
	projects, err := h.projects.ListTeamProjects(c.Context(), c.Params("teamId"))
	if err != nil {
		return err
	}
	items := make([]dto.ProjectResponse, 0, len(projects))
	for i := range projects {
		items = append(items, projectResponse(&projects[i]))
	}
	return sendOK(c, "projects", items)
}

// UpdateProject PUT /projects/:id.
func (h *ProjectsHandler) UpdateProject(c *fiber.Ctx) error {
	var req dto.UpdateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	project, err := h.projects.UpdateProject(c.Context(), c.Params("id"), req.Name, req.Description, req.IsActive)
	if err != nil {
		return err
	}
	return sendOK(c, "project updated", projectResponse(project))
}

// DeleteProject DELETE /projects/:id. Admin-only at the route layer.
func (h *ProjectsHandler) DeleteProject(c *fiber.Ctx) error {
	if err := h.projects.DeleteProject(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return sendOK(c, "project deleted", nil)
}

func projectResponse(project *domain.Project) dto.ProjectResponse {
	return dto.ProjectResponse{
		ID:          project.ID,
		TeamID:      project.TeamID,
		Name:        project.Name,
		Description: project.Description,
		IsActive:    project.IsActive,
		CreatedAt:   project.CreatedAt,
	}
}
