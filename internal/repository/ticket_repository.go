package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/bugtracker/internal/domain"
)

// ErrVersionConflict is returned when a conditional state write loses the race
// against another writer.
var ErrVersionConflict = errors.New("ticket version conflict")

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	// UpdateState sets the ticket state only when the stored version still
	// matches expectedVersion; on success the version is incremented.
	UpdateState(ctx context.Context, id string, state domain.TicketState, expectedVersion int64) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListByProject(ctx context.Context, projectID string) ([]domain.Ticket, error)
	Delete(ctx context.Context, id string) error
	WithTx(tx pgx.Tx) TicketRepository
}

type ticketRepository struct {
	db DB
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DB) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) WithTx(tx pgx.Tx) TicketRepository {
	return &ticketRepository{db: tx}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (external_key, project_id, submitter_user_id, assignee_user_id, description, severity, ticket_type, state)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, version, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		ticket.ExternalKey,
		ticket.ProjectID,
		ticket.SubmitterID,
		ticket.AssigneeID,
		ticket.Description,
		ticket.Severity,
		ticket.Type,
		ticket.State,
	).Scan(&ticket.ID, &ticket.Version, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET assignee_user_id=$1, description=$2, severity=$3, ticket_type=$4, updated_at=NOW()
        WHERE id=$5`
	cmd, err := r.db.Exec(ctx, query,
		ticket.AssigneeID,
		ticket.Description,
		ticket.Severity,
		ticket.Type,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) UpdateState(ctx context.Context, id string, state domain.TicketState, expectedVersion int64) error {
	const query = `
        UPDATE tickets SET state=$1, version=version+1, updated_at=NOW()
        WHERE id=$2 AND version=$3`
	cmd, err := r.db.Exec(ctx, query, state, id, expectedVersion)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `
        SELECT id, external_key, project_id, submitter_user_id, assignee_user_id,
               description, severity, ticket_type, state, version, created_at, updated_at
        FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.ExternalKey,
		&ticket.ProjectID,
		&ticket.SubmitterID,
		&ticket.AssigneeID,
		&ticket.Description,
		&ticket.Severity,
		&ticket.Type,
		&ticket.State,
		&ticket.Version,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListByProject(ctx context.Context, projectID string) ([]domain.Ticket, error) {
	const query = `
        SELECT id, external_key, project_id, submitter_user_id, assignee_user_id,
               description, severity, ticket_type, state, version, created_at, updated_at
        FROM tickets WHERE project_id=$1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.ExternalKey,
			&ticket.ProjectID,
			&ticket.SubmitterID,
			&ticket.AssigneeID,
			&ticket.Description,
			&ticket.Severity,
			&ticket.Type,
			&ticket.State,
			&ticket.Version,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
