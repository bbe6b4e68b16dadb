package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// PaymentRepo persists payment attempts in the payments table.  Rows are
// only ever inserted and then moved out of pending once by Transition.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a PaymentRepo bound to db.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentColumns = `id, order_id, payment_id, amount, amount_paid, amount_due, currency, receipt,
	   status, user_id, event_id, ticket_count, description, created_at, updated_at`

// Create inserts a new pending payment and sets p.ID.  A duplicate order id
// or receipt yields ErrConflict.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	const q = `INSERT INTO payments
		(order_id, payment_id, amount, amount_paid, amount_due, currency, receipt, status, user_id, event_id, ticket_count, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := conn(ctx, r.db).ExecContext(ctx, q,
		p.OrderID, p.PaymentID, p.Amount, p.AmountPaid, p.AmountDue, p.Currency, p.Receipt,
		string(p.Status), p.UserID, p.EventID, p.TicketCount, p.Description)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetByOrder loads the payment identified by (orderID, amount).
func (r *PaymentRepo) GetByOrder(ctx context.Context, orderID string, amount int64) (model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE order_id = ? AND amount = ? LIMIT 1`
	return scanPayment(conn(ctx, r.db).QueryRowContext(ctx, q, orderID, amount))
}

// Transition moves the payment from pending to t.To in a single guarded
// UPDATE.  It returns true when this call performed the transition and
// false when the row exists but had already left pending.  A capture also
// settles the amounts (amount_paid = amount, amount_due = 0); a failure
// leaves them untouched.  An empty t.PaymentID keeps the stored value.
//
// Concurrent callers serialise on the InnoDB row lock; the loser re-reads
// the committed status and matches zero rows.
func (r *PaymentRepo) Transition(ctx context.Context, t model.Transition) (bool, error) {
	var q string
	switch t.To {
	case model.PaymentCaptured:
		q = `UPDATE payments
			 SET status = 'captured', payment_id = COALESCE(NULLIF(?, ''), payment_id), amount_paid = amount, amount_due = 0
			 WHERE order_id = ? AND amount = ? AND status = 'pending'`
	case model.PaymentFailed:
		q = `UPDATE payments
			 SET status = 'failed', payment_id = COALESCE(NULLIF(?, ''), payment_id)
			 WHERE order_id = ? AND amount = ? AND status = 'pending'`
	default:
		return false, errors.New("invalid target status: " + string(t.To))
	}
	res, err := conn(ctx, r.db).ExecContext(ctx, q, t.PaymentID, t.OrderID, t.Amount)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 1 {
		return true, nil
	}
	// Nothing matched: either the payment is unknown or it is terminal.
	var exists int
	err = conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT 1 FROM payments WHERE order_id = ? AND amount = ? LIMIT 1`, t.OrderID, t.Amount).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

func scanPayment(row *sql.Row) (model.Payment, error) {
	var (
		p         model.Payment
		paymentID sql.NullString
		status    string
	)
	err := row.Scan(&p.ID, &p.OrderID, &paymentID, &p.Amount, &p.AmountPaid, &p.AmountDue, &p.Currency,
		&p.Receipt, &status, &p.UserID, &p.EventID, &p.TicketCount, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Payment{}, ErrNotFound
	}
	if err != nil {
		return model.Payment{}, err
	}
	if paymentID.Valid {
		p.PaymentID = &paymentID.String
	}
	p.Status = model.PaymentStatus(status)
	return p, nil
}

// isDuplicate reports a MySQL duplicate-key error (1062).
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
