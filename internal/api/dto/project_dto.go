package dto

import "time"

// CreateProjectRequest payload.
type CreateProjectRequest struct {
	TeamID      string `json:"teamId"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UpdateProjectRequest payload; nil fields are left unchanged.
type UpdateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"isActive"`
}

// ProjectResponse response shape.
type ProjectResponse struct {
	ID          string    `json:"id"`
	TeamID      string    `json:"teamId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}
