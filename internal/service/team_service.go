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

// TeamService manages teams and their membership.
type TeamService struct {
	teams repository.TeamRepository
	users repository.UserRepository
}

// NewTeamService constructs the service.
func NewTeamService(teams repository.TeamRepository, users repository.UserRepository) *TeamService {
	return &TeamService{teams: teams, users: users}
}

// CreateTeam creates an active team.
func (s *TeamService) CreateTeam(ctx context.Context, name, description string) (*domain.Team, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	team := &domain.Team{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		IsActive:    true,
	}
	if err := s.teams.Create(ctx, team); err != nil {
		return nil, apperrors.NewPersistenceError("create team", err)
	}
	return team, nil
}

// GetTeam fetches one team with its members.
func (s *TeamService) GetTeam(ctx context.Context, teamID string) (*domain.Team, []domain.User, error) {
	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("team", map[string]any{"team_id": teamID})
		}
		return nil, nil, apperrors.NewPersistenceError("load team", err)
	}
	members, err := s.users.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, nil, apperrors.NewPersistenceError("list members", err)
	}
	return team, members, nil
}

// ListTeams returns all active teams.
func (s *TeamService) ListTeams(ctx context.Context) ([]domain.Team, error) {
	teams, err := s.teams.ListActive(ctx)
	if err != nil {
		return nil, apperrors.NewPersistenceError("list teams", err)
	}
	return teams, nil
}

// UpdateTeam renames or toggles a team.
func (s *TeamService) UpdateTeam(ctx context.Context, teamID string, name, description *string, isActive *bool) (*domain.Team, error) {
	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("team", map[string]any{"team_id": teamID})
		}
		return nil, apperrors.NewPersistenceError("load team", err)
	}
	if name != nil {
		if strings.TrimSpace(*name) == "" {
			return nil, apperrors.NewValidationError("name cannot be empty", nil)
		}
		team.Name = strings.TrimSpace(*name)
	}
	if description != nil {
		team.Description = strings.TrimSpace(*description)
	}
	if isActive != nil {
		team.IsActive = *isActive
	}
	if err := s.teams.Update(ctx, team); err != nil {
		return nil, apperrors.NewPersistenceError("update team", err)
	}
	return team, nil
}

// DeleteTeam removes a team; member accounts keep existing with no team.
func (s *TeamService) DeleteTeam(ctx context.Context, teamID string) error {
	if err := s.teams.Delete(ctx, teamID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("team", map[string]any{"team_id": teamID})
		}
		return apperrors.NewPersistenceError("delete team", err)
	}
	return nil
}

// JoinTeam assigns a user to a team.
func (s *TeamService) JoinTeam(ctx context.Context, userID, teamID string) error {
	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("team", map[string]any{"team_id": teamID})
		}
		return apperrors.NewPersistenceError("load team", err)
	}
	if !team.IsActive {
		return apperrors.NewValidationError("team is inactive", nil)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return apperrors.MapError(err)
	}
	user.TeamID = &team.ID
	if err := s.users.Update(ctx, user); err != nil {
		return apperrors.NewPersistenceError("update user", err)
	}
	return nil
}

// LeaveTeam clears the user's team membership.
func (s *TeamService) LeaveTeam(ctx context.Context, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return apperrors.MapError(err)
	}
	user.TeamID = nil
	if err := s.users.Update(ctx, user); err != nil {
		return apperrors.NewPersistenceError("update user", err)
	}
	return nil
}
