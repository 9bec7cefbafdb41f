package domain

import "time"

// Project is a body of work tickets are filed against.
type Project struct {
	ID          string
	TeamID      string
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
