package domain

import "time"

// UserRole enumerates account roles.
type UserRole string

const (
	RoleStudent   UserRole = "STUDENT"
	RoleProfessor UserRole = "PROFESSOR"
	RoleAdmin     UserRole = "ADMIN"
)

// Valid reports whether r is one of the defined roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleStudent, RoleProfessor, RoleAdmin:
		return true
	}
	return false
}

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is the domain model for accounts that submit and work tickets.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         UserRole
	TeamID       *string
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
