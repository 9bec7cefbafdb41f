package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/bugtracker/internal/domain"
	"github.com/spec-kit/bugtracker/internal/repository"
	apperrors "github.com/spec-kit/bugtracker/pkg/util"
)

// ProjectService manages projects owned by teams.
type ProjectService struct {
	projects repository.ProjectRepository
	teams    repository.TeamRepository
}

// NewProjectService constructs the service.
func NewProjectService(projects repository.ProjectRepository, teams repository.TeamRepository) *ProjectService {
	return &ProjectService{projects: projects, teams: teams}
}

// CreateProject creates a project owned by an active team.
func (s *ProjectService) CreateProject(ctx context.Context, teamID, name, description string) (*domain.Project, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("team", map[string]any{"team_id": teamID})
		}
		return nil, apperrors.NewPersistenceError("load team", err)
	}
	if !team.IsActive {
		return nil, apperrors.NewValidationError("team is inactive", nil)
	}

	project := &domain.Project{
		TeamID:      team.ID,
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		IsActive:    true,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, apperrors.NewPersistenceError("create project", err)
	}
	return project, nil
}

// GetProject fetches one project by id.
func (s *ProjectService) GetProject(ctx context.Context, projectID string) (*domain.Project, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("project", map[string]any{"project_id": projectID})
		}
		return nil, apperrors.NewPersistenceError("load project", err)
	}
	return project, nil
}

// ListTeamProjects returns the projects owned by a team.
func (s *ProjectService) ListTeamProjects(ctx context.Context, teamID string) ([]domain.Project, error) {
	projects, err := s.projects.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, apperrors.NewPersistenceError("list projects", err)
	}
	return projects, nil
}

// UpdateProject edits project fields.
func (s *ProjectService) UpdateProject(ctx context.Context, projectID string, name, description *string, isActive *bool) (*domain.Project, error) {
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if name != nil {
		if strings.TrimSpace(*name) == "" {
			return nil, apperrors.NewValidationError("name cannot be empty", nil)
		}
		project.Name = strings.TrimSpace(*name)
	}
	if description != nil {
		project.Description = strings.TrimSpace(*description)
	}
	if isActive != nil {
		project.IsActive = *isActive
	}
	if err := s.projects.Update(ctx, project); err != nil {
		return nil, apperrors.NewPersistenceError("update project", err)
	}
	return project, nil
}

// DeleteProject removes a project and, through the schema, its tickets.
func (s *ProjectService) DeleteProject(ctx context.Context, projectID string) error {
	if err := s.projects.Delete(ctx, projectID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("project", map[string]any{"project_id": projectID})
		}
		return apperrors.NewPersistenceError("delete project", err)
	}
	return nil
}
