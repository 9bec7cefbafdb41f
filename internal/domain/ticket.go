package domain

import "time"

// TicketState enumerates lifecycle states for tickets. The string values are
// the wire vocabulary; they appear verbatim in API payloads and audit entries.
type TicketState string

const (
	StateNew        TicketState = "New"
	StateInProgress TicketState = "In Progress"
	StateReadyForQC TicketState = "Ready for QC"
	StateInQC       TicketState = "In QC"
	StateCompleted  TicketState = "Completed"
	StateInBacklog  TicketState = "In Backlog"
)

// TicketStates lists every defined state.
var TicketStates = []TicketState{
	StateNew,
	StateInProgress,
	StateReadyForQC,
	StateInQC,
	StateCompleted,
	StateInBacklog,
}

// Valid reports whether s is one of the defined states.
func (s TicketState) Valid() bool {
	for _, candidate := range TicketStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// TicketSeverity enumerates ticket impact levels.
type TicketSeverity string

const (
	SeverityLow    TicketSeverity = "Low"
	SeverityMedium TicketSeverity = "Medium"
	SeverityHigh   TicketSeverity = "High"
)

// Valid reports whether s is one of the defined severities.
func (s TicketSeverity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// TicketType classifies what kind of work a ticket tracks.
type TicketType string

const (
	TypeBug            TicketType = "Bug"
	TypeFeatureRequest TicketType = "Feature Request"
	TypeOther          TicketType = "Other"
)

// Valid reports whether t is one of the defined types.
func (t TicketType) Valid() bool {
	switch t {
	case TypeBug, TypeFeatureRequest, TypeOther:
		return true
	}
	return false
}

// Ticket is the aggregate for tracked work items.
type Ticket struct {
	ID          string
	ExternalKey string
	ProjectID   string
	SubmitterID string
	AssigneeID  *string
	Description string
	Severity    TicketSeverity
	Type        TicketType
	State       TicketState
	// Version is an optimistic concurrency counter; state writes are
	// conditional on the version read at load time.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
