package domain

import "time"

// AuditAction captures what kind of change an audit entry records.
type AuditAction string

const (
	ActionStatusChange AuditAction = "STATUS_CHANGE"
	ActionCreation     AuditAction = "CREATION"
	ActionUpdate       AuditAction = "UPDATE"
	ActionDeletion     AuditAction = "DELETION"
)

// AuditValueNone is recorded when an action has no meaningful old or new value.
const AuditValueNone = "N/A"

// AuditLog is an immutable record of one change made to a ticket. Entries are
// append-only; nothing in the service ever updates one.
type AuditLog struct {
	ID        string
	Action    AuditAction
	TicketID  string
	ChangedBy string
	OldValue  string
	NewValue  string
	CreatedAt time.Time
}
