package dto

import "time"

// CreateTeamRequest payload.
type CreateTeamRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UpdateTeamRequest payload; nil fields are left unchanged.
type UpdateTeamRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"isActive"`
}

// TeamResponse response shape.
type TeamResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	IsActive    bool           `json:"isActive"`
	Members     []UserResponse `json:"members,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}
