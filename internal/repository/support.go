package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"streamnet/internal/model"
)

type supportRepository struct {
	db *sqlx.DB
}

func NewSupportRepository(db *sqlx.DB) SupportRepository {
	return &supportRepository{db: db}
}

// ticketRow is a ticket with its owner and responder left-joined; either may be gone.
type ticketRow struct {
	model.SupportTicket
	OwnerName       sql.NullString `db:"owner_name"`
	OwnerEmail      sql.NullString `db:"owner_email"`
	OwnerPic        sql.NullString `db:"owner_pic"`
	ResponderName   sql.NullString `db:"responder_name"`
	ResponderID sql.NullInt64  `db:"responder_id"`
}

func (row ticketRow) toModel() model.SupportTicket {
	t := row.SupportTicket
	if row.OwnerName.Valid {
		t.User = &model.TicketParty{
			ID:         t.UserID,
			FullName:   row.OwnerName.String,
			Email:      row.OwnerEmail.String,
			ProfilePic: row.OwnerPic.String,
		}
	}
	if row.ResponderID.Valid {
		t.Responder = &model.TicketParty{ID: row.ResponderID.Int64, FullName: row.ResponderName.String}
	}
	return t
}

const ticketSelect = `
	SELECT t.id, t.user_id, t.category, t.subject, t.message, t.priority, t.status,
	       t.response, t.responded_by, t.responded_at, t.created_at, t.updated_at,
	       o.full_name AS owner_name, o.email AS owner_email, o.profile_pic AS owner_pic,
	       r.id AS responder_id, r.full_name AS responder_name
	FROM support_tickets t
	LEFT JOIN users o ON o.id = t.user_id
	LEFT JOIN users r ON r.id = t.responded_by
`

func (r *supportRepository) Create(ctx context.Context, t *model.SupportTicket) error {
	query := `
		INSERT INTO support_tickets (user_id, category, subject, message, priority, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	row := r.db.QueryRowxContext(ctx, query, t.UserID, t.Category, t.Subject, t.Message, t.Priority, t.Status)
	if err := row.Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert support ticket: %w", err)
	}
	return nil
}

func (r *supportRepository) GetByID(ctx context.Context, id int64) (*model.SupportTicket, error) {
	var row ticketRow
	if err := r.db.GetContext(ctx, &row, ticketSelect+` WHERE t.id = $1`, id); err != nil {
		if isNoRows(err) {
			return nil, model.ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to get support ticket: %w", err)
	}
	t := row.toModel()
	return &t, nil
}

func (r *supportRepository) ListByUser(ctx context.Context, userID int64) ([]model.SupportTicket, error) {
	var rows []ticketRow
	query := ticketSelect + ` WHERE t.user_id = $1 ORDER BY t.created_at DESC, t.id DESC`
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list user support tickets: %w", err)
	}
	return toTickets(rows), nil
}

func (r *supportRepository) List(ctx context.Context, f model.TicketFilter) ([]model.SupportTicket, int, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("t.status = $%d", len(args)))
	}
	if f.Priority != "" {
		args = append(args, f.Priority)
		where = append(where, fmt.Sprintf("t.priority = $%d", len(args)))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM support_tickets t`+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count support tickets: %w", err)
	}

	args = append(args, f.Limit, f.Offset())
	query := fmt.Sprintf(`%s%s ORDER BY t.created_at DESC, t.id DESC LIMIT $%d OFFSET $%d`,
		ticketSelect, clause, len(args)-1, len(args))

	var rows []ticketRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list support tickets: %w", err)
	}
	return toTickets(rows), total, nil
}

func (r *supportRepository) Respond(ctx context.Context, id, responderID int64, response string, status model.TicketStatus, at time.Time) (*model.SupportTicket, error) {
	query := `
		UPDATE support_tickets
		SET response = $2, responded_by = $3, responded_at = $4, status = $5, updated_at = NOW()
		WHERE id = $1
	`
	if err := r.updateOne(ctx, "respond to support ticket", query, id, response, responderID, at, status); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *supportRepository) SetStatus(ctx context.Context, id int64, status model.TicketStatus) (*model.SupportTicket, error) {
	query := `UPDATE support_tickets SET status = $2, updated_at = NOW() WHERE id = $1`
	if err := r.updateOne(ctx, "update support ticket status", query, id, status); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *supportRepository) updateOne(ctx context.Context, op, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrTicketNotFound
	}
	return nil
}

func toTickets(rows []ticketRow) []model.SupportTicket {
	out := make([]model.SupportTicket, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out
}
