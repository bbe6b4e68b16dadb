package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// TicketRepo provides data access to the tickets table.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo returns a new TicketRepo bound to the provided database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

const ticketColumns = `id, code, user_id, event_id, order_id, checked_in_at, created_at`

// CreateBulk inserts all tickets in one statement and returns them as
// stored, with ids and timestamps.  Passing an empty slice has no effect.
// Run it inside TxManager.WithinTx when the insert must be atomic with
// other writes.
func (r *TicketRepo) CreateBulk(ctx context.Context, tickets []model.Ticket) ([]model.Ticket, error) {
	if len(tickets) == 0 {
		return []model.Ticket{}, nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO tickets (code, user_id, event_id, order_id) VALUES `)
	args := make([]any, 0, len(tickets)*4)
	codes := make([]any, 0, len(tickets))
	for i, t := range tickets {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?, ?, ?, ?)")
		args = append(args, t.Code, t.UserID, t.EventID, t.OrderID)
		codes = append(codes, t.Code)
	}
	db := conn(ctx, r.db)
	if _, err := db.ExecContext(ctx, sb.String(), args...); err != nil {
		if isDuplicate(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	// Re-read by code: auto-increment ids of a multi-row insert are not
	// guaranteed to be consecutive under interleaved lock mode.
	q := `SELECT ` + ticketColumns + ` FROM tickets WHERE code IN (` + placeholders(len(codes)) + `) ORDER BY id`
	return queryTickets(ctx, db, q, codes...)
}

// ListByUser returns every ticket owned by userID, oldest first.
func (r *TicketRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Ticket, error) {
	q := `SELECT ` + ticketColumns + ` FROM tickets WHERE user_id = ? ORDER BY id`
	return queryTickets(ctx, conn(ctx, r.db), q, userID)
}

// ListByEvent returns every ticket issued for eventID, oldest first.
func (r *TicketRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.Ticket, error) {
	q := `SELECT ` + ticketColumns + ` FROM tickets WHERE event_id = ? ORDER BY id`
	return queryTickets(ctx, conn(ctx, r.db), q, eventID)
}

// ListByOrder returns the tickets paid for by the provider order orderID.
func (r *TicketRepo) ListByOrder(ctx context.Context, orderID string) ([]model.Ticket, error) {
	q := `SELECT ` + ticketColumns + ` FROM tickets WHERE order_id = ? ORDER BY id`
	return queryTickets(ctx, conn(ctx, r.db), q, orderID)
}

// GetByCode loads a ticket by its public code.
func (r *TicketRepo) GetByCode(ctx context.Context, code string) (model.Ticket, error) {
	q := `SELECT ` + ticketColumns + ` FROM tickets WHERE code = ? LIMIT 1`
	list, err := queryTickets(ctx, conn(ctx, r.db), q, code)
	if err != nil {
		return model.Ticket{}, err
	}
	if len(list) == 0 {
		return model.Ticket{}, ErrNotFound
	}
	return list[0], nil
}

// CheckIn stamps checked_in_at on a ticket that has not been checked in
// yet.  It returns false when the ticket was already checked in.
func (r *TicketRepo) CheckIn(ctx context.Context, ticketID uint64) (bool, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE tickets SET checked_in_at = UTC_TIMESTAMP() WHERE id = ? AND checked_in_at IS NULL`, ticketID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func queryTickets(ctx context.Context, db dbtx, q string, args ...any) ([]model.Ticket, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Ticket{}
	for rows.Next() {
		var (
			t         model.Ticket
			orderID   sql.NullString
			checkedIn sql.NullTime
		)
		if err := rows.Scan(&t.ID, &t.Code, &t.UserID, &t.EventID, &orderID, &checkedIn, &t.CreatedAt); err != nil {
			return nil, err
		}
		if orderID.Valid {
			t.OrderID = &orderID.String
		}
		if checkedIn.Valid {
			ts := checkedIn.Time
			t.CheckedInAt = &ts
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// errNoRows normalises sql.ErrNoRows to ErrNotFound.
func errNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
