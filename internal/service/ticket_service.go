package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/bugtracker/internal/domain"
	"github.com/spec-kit/bugtracker/internal/events"
	"github.com/spec-kit/bugtracker/internal/repository"
	apperrors "github.com/spec-kit/bugtracker/pkg/util"
)

// allowedTransitions is the ticket lifecycle graph. It is built once and only
// ever read; Completed has no outgoing edges.
var allowedTransitions = map[domain.TicketState][]domain.TicketState{
	domain.StateNew:        {domain.StateInProgress, domain.StateInBacklog},
	domain.StateInProgress: {domain.StateReadyForQC, domain.StateInBacklog},
	domain.StateReadyForQC: {domain.StateInQC},
	domain.StateInQC:       {domain.StateCompleted, domain.StateInProgress},
	domain.StateCompleted:  {},
	domain.StateInBacklog:  {domain.StateInProgress},
}

func isValidTransition(current, next domain.TicketState) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// TicketService coordinates ticket workflows: CRUD, the lifecycle state
// machine, and the audit trail every accepted change appends to.
type TicketService struct {
	db         repository.TxStarter
	tickets    repository.TicketRepository
	projects   repository.ProjectRepository
	logs       repository.AuditLogRepository
	dispatcher events.Dispatcher
}

// TicketDependencies bundles requirements for the ticket service.
type TicketDependencies struct {
	DB          repository.TxStarter
	TicketRepo  repository.TicketRepository
	ProjectRepo repository.ProjectRepository
	AuditRepo   repository.AuditLogRepository
	Dispatcher  events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		db:         deps.DB,
		tickets:    deps.TicketRepo,
		projects:   deps.ProjectRepo,
		logs:       deps.AuditRepo,
		dispatcher: deps.Dispatcher,
	}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	ProjectID   string
	Description string
	Severity    domain.TicketSeverity
	Type        domain.TicketType
	AssigneeID  *string
}

// TicketUpdateInput describes updates to non-state ticket fields.
type TicketUpdateInput struct {
	Description *string
	Severity    *domain.TicketSeverity
	Type        *domain.TicketType
	AssigneeID  *string
}

// CreateTicket files a new ticket. Every ticket starts in state New and the
// creation is recorded in the audit trail.
func (s *TicketService) CreateTicket(ctx context.Context, submitterID string, input TicketCreateInput) (*domain.Ticket, error) {
	if strings.TrimSpace(input.Description) == "" {
		return nil, apperrors.NewValidationError("description is required", nil)
	}
	if input.ProjectID == "" {
		return nil, apperrors.NewValidationError("projectId is required", nil)
	}
	if input.Severity == "" {
		input.Severity = domain.SeverityLow
	}
	if !input.Severity.Valid() {
		return nil, apperrors.NewValidationError("unknown severity", map[string]any{"severity": input.Severity})
	}
	if input.Type == "" {
		input.Type = domain.TypeOther
	}
	if !input.Type.Valid() {
		return nil, apperrors.NewValidationError("unknown ticket type", map[string]any{"type": input.Type})
	}

	project, err := s.projects.GetByID(ctx, input.ProjectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("project", map[string]any{"project_id": input.ProjectID})
		}
		return nil, apperrors.NewPersistenceError("load project", err)
	}
	if !project.IsActive {
		return nil, apperrors.NewValidationError("project is inactive", nil)
	}

	ticket := &domain.Ticket{
		ExternalKey: generateTicketKey(),
		ProjectID:   input.ProjectID,
		SubmitterID: submitterID,
		AssigneeID:  input.AssigneeID,
		Description: strings.TrimSpace(input.Description),
		Severity:    input.Severity,
		Type:        input.Type,
		State:       domain.StateNew,
	}
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, apperrors.NewPersistenceError("begin transaction", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := s.tickets.WithTx(tx).Create(ctx, ticket); err != nil {
		return nil, apperrors.NewPersistenceError("create ticket", err)
	}

	entry := &domain.AuditLog{
		Action:    domain.ActionCreation,
		TicketID:  ticket.ID,
		ChangedBy: submitterID,
		OldValue:  domain.AuditValueNone,
		NewValue:  string(domain.StateNew),
	}
	if err := s.logs.WithTx(tx).Create(ctx, entry); err != nil {
		return nil, apperrors.NewPersistenceError("append audit entry", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, apperrors.NewPersistenceError("commit transaction", err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  submitterID,
		Payload: events.TicketCreatedPayload{
			ProjectID:   ticket.ProjectID,
			Severity:    ticket.Severity,
			Type:        ticket.Type,
			Description: ticket.Description,
		},
	})
	return ticket, nil
}

// ChangeTicketState validates a requested lifecycle transition against the
// allowed-transition table, applies it, and appends a STATUS_CHANGE audit
// entry. Both writes run in one transaction, and the ticket write is
// conditional on the version read here, so a concurrent transition causes a
// conflict instead of a silent lost update.
func (s *TicketService) ChangeTicketState(ctx context.Context, ticketID string, newState domain.TicketState, actorID string) (*domain.AuditLog, error) {
	if ticketID == "" || newState == "" {
		return nil, apperrors.NewValidationError("ticketId and newState are both required", nil)
	}
	if !newState.Valid() {
		return nil, apperrors.NewValidationError("unknown ticket state", map[string]any{"state": newState})
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.NewPersistenceError("load ticket", err)
	}

	if !isValidTransition(ticket.State, newState) {
		return nil, apperrors.NewInvalidTransition(string(ticket.State), string(newState))
	}

	entry := &domain.AuditLog{
		Action:    domain.ActionStatusChange,
		TicketID:  ticket.ID,
		ChangedBy: actorID,
		OldValue:  string(ticket.State),
		NewValue:  string(newState),
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, apperrors.NewPersistenceError("begin transaction", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := s.tickets.WithTx(tx).UpdateState(ctx, ticket.ID, newState, ticket.Version); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, apperrors.NewConflict("ticket was modified concurrently", map[string]any{"ticket_id": ticket.ID})
		}
		return nil, apperrors.NewPersistenceError("update ticket state", err)
	}
	if err := s.logs.WithTx(tx).Create(ctx, entry); err != nil {
		return nil, apperrors.NewPersistenceError("append audit entry", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, apperrors.NewPersistenceError("commit transaction", err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStateChanged,
		TicketID: ticket.ID,
		ActorID:  actorID,
		Payload: events.TicketStateChangedPayload{
			OldState: ticket.State,
			NewState: newState,
		},
	})
	return entry, nil
}

// GetTicket fetches one ticket by id.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.NewPersistenceError("load ticket", err)
	}
	return ticket, nil
}

// ListProjectTickets returns every ticket filed against a project.
func (s *TicketService) ListProjectTickets(ctx context.Context, projectID string) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListByProject(ctx, projectID)
	if err != nil {
		return nil, apperrors.NewPersistenceError("list tickets", err)
	}
	return tickets, nil
}

// UpdateTicket changes non-state fields and records an UPDATE audit entry.
func (s *TicketService) UpdateTicket(ctx context.Context, actorID, ticketID string, input TicketUpdateInput) (*domain.Ticket, error) {
	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if input.Description != nil {
		if strings.TrimSpace(*input.Description) == "" {
			return nil, apperrors.NewValidationError("description cannot be empty", nil)
		}
		ticket.Description = strings.TrimSpace(*input.Description)
	}
	if input.Severity != nil {
		if !input.Severity.Valid() {
			return nil, apperrors.NewValidationError("unknown severity", map[string]any{"severity": *input.Severity})
		}
		ticket.Severity = *input.Severity
	}
	if input.Type != nil {
		if !input.Type.Valid() {
			return nil, apperrors.NewValidationError("unknown ticket type", map[string]any{"type": *input.Type})
		}
		ticket.Type = *input.Type
	}
	if input.AssigneeID != nil {
		ticket.AssigneeID = input.AssigneeID
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, apperrors.NewPersistenceError("begin transaction", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := s.tickets.WithTx(tx).Update(ctx, ticket); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.NewPersistenceError("update ticket", err)
	}

	entry := &domain.AuditLog{
		Action:    domain.ActionUpdate,
		TicketID:  ticket.ID,
		ChangedBy: actorID,
		OldValue:  domain.AuditValueNone,
		NewValue:  domain.AuditValueNone,
	}
	if err := s.logs.WithTx(tx).Create(ctx, entry); err != nil {
		return nil, apperrors.NewPersistenceError("append audit entry", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, apperrors.NewPersistenceError("commit transaction", err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: ticket.ID,
		ActorID:  actorID,
		Payload:  events.TicketUpdatedPayload{AssigneeID: ticket.AssigneeID},
	})
	return ticket, nil
}

// DeleteTicket removes a ticket and records a DELETION audit entry. The audit
// trail for the ticket is left intact.
func (s *TicketService) DeleteTicket(ctx context.Context, actorID, ticketID string) error {
	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return apperrors.NewPersistenceError("begin transaction", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := s.tickets.WithTx(tx).Delete(ctx, ticket.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return apperrors.NewPersistenceError("delete ticket", err)
	}

	entry := &domain.AuditLog{
		Action:    domain.ActionDeletion,
		TicketID:  ticket.ID,
		ChangedBy: actorID,
		OldValue:  string(ticket.State),
		NewValue:  domain.AuditValueNone,
	}
	if err := s.logs.WithTx(tx).Create(ctx, entry); err != nil {
		return apperrors.NewPersistenceError("append audit entry", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewPersistenceError("commit transaction", err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: ticket.ID,
		ActorID:  actorID,
		Payload:  events.TicketDeletedPayload{ProjectID: ticket.ProjectID},
	})
	return nil
}

// GetAllLogs returns every audit entry in storage order.
func (s *TicketService) GetAllLogs(ctx context.Context) ([]domain.AuditLog, error) {
	logs, err := s.logs.ListAll(ctx)
	if err != nil {
		return nil, apperrors.NewPersistenceError("list audit entries", err)
	}
	return logs, nil
}

// GetLogsForTicket returns the audit entries for one ticket, oldest first.
func (s *TicketService) GetLogsForTicket(ctx context.Context, ticketID string) ([]domain.AuditLog, error) {
	if ticketID == "" {
		return nil, apperrors.NewValidationError("ticketId is required", nil)
	}
	logs, err := s.logs.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NewPersistenceError("list audit entries", err)
	}
	return logs, nil
}

// GetLogsByUser returns the audit entries recorded for one acting user.
func (s *TicketService) GetLogsByUser(ctx context.Context, userID string) ([]domain.AuditLog, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("userId is required", nil)
	}
	logs, err := s.logs.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.NewPersistenceError("list audit entries", err)
	}
	return logs, nil
}

// DeleteLog removes one audit entry. Deleting an entry that does not exist
// fails with not-found; the referenced ticket is never touched.
func (s *TicketService) DeleteLog(ctx context.Context, logID string) error {
	if logID == "" {
		return apperrors.NewValidationError("logId is required", nil)
	}
	if err := s.logs.Delete(ctx, logID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("audit log", map[string]any{"log_id": logID})
		}
		return apperrors.NewPersistenceError("delete audit entry", err)
	}
	return nil
}

func generateTicketKey() string {
	return "TKT-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
