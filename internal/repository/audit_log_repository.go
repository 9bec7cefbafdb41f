package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/bugtracker/internal/domain"
)

// AuditLogRepository stores append-only audit entries.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
	ListAll(ctx context.Context) ([]domain.AuditLog, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.AuditLog, error)
	ListByUser(ctx context.Context, userID string) ([]domain.AuditLog, error)
	Delete(ctx context.Context, id string) error
	WithTx(tx pgx.Tx) AuditLogRepository
}

type auditLogRepository struct {
	db DB
}

// NewAuditLogRepository builds repository.
func NewAuditLogRepository(db DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) WithTx(tx pgx.Tx) AuditLogRepository {
	return &auditLogRepository{db: tx}
}

func (r *auditLogRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	const query = `
        INSERT INTO audit_logs (action, ticket_id, changed_by, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		entry.Action,
		entry.TicketID,
		entry.ChangedBy,
		entry.OldValue,
		entry.NewValue,
	).Scan(&entry.ID, &entry.CreatedAt)
}

const auditLogColumns = `id, action, ticket_id, changed_by, old_value, new_value, created_at`

func (r *auditLogRepository) ListAll(ctx context.Context) ([]domain.AuditLog, error) {
	rows, err := r.db.Query(ctx, `SELECT `+auditLogColumns+` FROM audit_logs ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAuditLogs(rows)
}

func (r *auditLogRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.AuditLog, error) {
	rows, err := r.db.Query(ctx, `SELECT `+auditLogColumns+` FROM audit_logs WHERE ticket_id=$1 ORDER BY created_at ASC`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAuditLogs(rows)
}

func (r *auditLogRepository) ListByUser(ctx context.Context, userID string) ([]domain.AuditLog, error) {
	rows, err := r.db.Query(ctx, `SELECT `+auditLogColumns+` FROM audit_logs WHERE changed_by=$1 ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAuditLogs(rows)
}

func (r *auditLogRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM audit_logs WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanAuditLogs(rows pgx.Rows) ([]domain.AuditLog, error) {
	var result []domain.AuditLog
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(
			&entry.ID,
			&entry.Action,
			&entry.TicketID,
			&entry.ChangedBy,
			&entry.OldValue,
			&entry.NewValue,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
