package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MrJamesThe3rd/invox/internal/invoice"
	"github.com/MrJamesThe3rd/invox/internal/money"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectInvoiceColumns = `
	id, invoice_number, user_id, customer_name, description, contact_type, contact_value,
	currency, total, amount_paid, balance_due, status, is_deleted, is_archived, created_at, deadline
`

func scanInvoice(s scanner) (*invoice.Invoice, error) {
	var inv invoice.Invoice

	var description sql.NullString

	var statusStr, contactTypeStr string

	if err := s.Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.UserID, &inv.CustomerName, &description,
		&contactTypeStr, &inv.ContactValue, &inv.Currency,
		&inv.Total, &inv.AmountPaid, &inv.BalanceDue, &statusStr,
		&inv.IsDeleted, &inv.IsArchived, &inv.CreatedAt, &inv.Deadline,
	); err != nil {
		return nil, err
	}

	inv.Description = description.String
	inv.ContactType = invoice.ContactType(contactTypeStr)
	inv.Status = invoice.Status(statusStr)

	return &inv, nil
}

// CreateInvoice inserts the invoice and its lines and stamps the derived
// invoice number, all in one transaction. The number comes from the global
// id sequence.
func (s *Store) CreateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO invoices (user_id, customer_name, description, contact_type, contact_value,
			currency, total, amount_paid, balance_due, status, created_at, deadline)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`

	err = tx.QueryRowContext(ctx, query,
		inv.UserID,
		inv.CustomerName,
		nullString(inv.Description),
		string(inv.ContactType),
		inv.ContactValue,
		inv.Currency,
		inv.Total,
		inv.AmountPaid,
		inv.BalanceDue,
		string(inv.Status),
		inv.CreatedAt,
		inv.Deadline,
	).Scan(&inv.ID)
	if err != nil {
		return fmt.Errorf("creating invoice: %w", err)
	}

	inv.InvoiceNumber = invoice.Number(inv.ID)

	if _, err := tx.ExecContext(ctx,
		`UPDATE invoices SET invoice_number = $1 WHERE id = $2`,
		inv.InvoiceNumber, inv.ID,
	); err != nil {
		return fmt.Errorf("stamping invoice number: %w", err)
	}

	for i := range inv.Lines {
		line := &inv.Lines[i]
		line.InvoiceID = inv.ID

		err := tx.QueryRowContext(ctx,
			`INSERT INTO invoice_lines (invoice_id, description, quantity, unit_price)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			line.InvoiceID, line.Description, line.Quantity, line.UnitPrice,
		).Scan(&line.ID)
		if err != nil {
			return fmt.Errorf("creating invoice line: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing invoice: %w", err)
	}

	return nil
}

func (s *Store) GetInvoice(ctx context.Context, userID, id int64) (*invoice.Invoice, error) {
	query := `SELECT ` + selectInvoiceColumns + `
		FROM invoices
		WHERE id = $1 AND user_id = $2`

	inv, err := scanInvoice(s.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, invoice.ErrNotFound
		}

		return nil, fmt.Errorf("getting invoice: %w", err)
	}

	if inv.Payments, err = s.loadPayments(ctx, s.db, id); err != nil {
		return nil, err
	}

	if inv.Lines, err = s.loadLines(ctx, id); err != nil {
		return nil, err
	}

	return inv, nil
}

func (s *Store) ListInvoices(ctx context.Context, userID int64) ([]*invoice.Invoice, error) {
	query := `SELECT ` + selectInvoiceColumns + `
		FROM invoices
		WHERE user_id = $1
		ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	defer rows.Close()

	var invs []*invoice.Invoice

	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning invoice: %w", err)
		}

		invs = append(invs, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating invoices: %w", err)
	}

	return invs, nil
}

// UpdateInvoice rewrites the editable columns. The invoice row is locked for
// the duration, so the amount_paid the total is checked against is the same
// one balance and status are re-derived from; a concurrent payment serializes
// behind the lock. A total below the amount already paid is rejected, since
// committing it would leave a negative balance on a PAID invoice.
func (s *Store) UpdateInvoice(ctx context.Context, userID, id int64, fields invoice.UpdateParams) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var amountPaid money.Cents

	err = tx.QueryRowContext(ctx,
		`SELECT amount_paid FROM invoices WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		id, userID,
	).Scan(&amountPaid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return invoice.ErrNotFound
		}

		return fmt.Errorf("locking invoice: %w", err)
	}

	if fields.Total < amountPaid {
		return fmt.Errorf("%w: total cannot be below the amount already paid", invoice.ErrValidation)
	}

	query := `
		UPDATE invoices
		SET customer_name = $1, description = $2, contact_type = $3, contact_value = $4,
			currency = $5, total = $6, deadline = $7,
			balance_due = $6 - amount_paid,
			status = CASE WHEN $6 - amount_paid <= 0 THEN 'PAID' ELSE 'DRAFT' END
		WHERE id = $8 AND user_id = $9
	`

	if _, err := tx.ExecContext(ctx, query,
		fields.CustomerName,
		nullString(fields.Description),
		string(fields.ContactType),
		fields.ContactValue,
		fields.Currency,
		fields.Total,
		fields.Deadline,
		id,
		userID,
	); err != nil {
		return fmt.Errorf("updating invoice: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing invoice update: %w", err)
	}

	return nil
}

func (s *Store) SetDeleted(ctx context.Context, userID, id int64, deleted bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE invoices SET is_deleted = $1 WHERE id = $2 AND user_id = $3`,
		deleted, id, userID,
	)
	if err != nil {
		return fmt.Errorf("setting deleted flag: %w", err)
	}

	return oneRowAffected(res)
}

func (s *Store) SetArchived(ctx context.Context, userID, id int64, archived bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE invoices SET is_archived = $1 WHERE id = $2 AND user_id = $3`,
		archived, id, userID,
	)
	if err != nil {
		return fmt.Errorf("setting archived flag: %w", err)
	}

	return oneRowAffected(res)
}

func (s *Store) DeleteInvoice(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM invoices WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("deleting invoice: %w", err)
	}

	return oneRowAffected(res)
}

func (s *Store) TrashCompleted(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE invoices SET is_deleted = true WHERE user_id = $1 AND status = 'PAID' AND NOT is_deleted`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("trashing completed invoices: %w", err)
	}

	return nil
}

func (s *Store) EmptyTrash(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM invoices WHERE user_id = $1 AND is_deleted`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("emptying trash: %w", err)
	}

	return nil
}

// AddPayment appends a payment and recomputes the invoice's derived fields
// atomically. The invoice row stays locked until commit, so two concurrent
// payments serialize and the balance check always sees the latest state.
func (s *Store) AddPayment(ctx context.Context, userID, invoiceID int64, amount money.Cents, paidAt time.Time) (*invoice.Invoice, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	query := `SELECT ` + selectInvoiceColumns + `
		FROM invoices
		WHERE id = $1 AND user_id = $2
		FOR UPDATE`

	inv, err := scanInvoice(tx.QueryRowContext(ctx, query, invoiceID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, invoice.ErrNotFound
		}

		return nil, fmt.Errorf("locking invoice: %w", err)
	}

	if amount > inv.BalanceDue {
		return nil, fmt.Errorf("%w: payment exceeds balance due", invoice.ErrValidation)
	}

	var payment invoice.Payment

	err = tx.QueryRowContext(ctx,
		`INSERT INTO payments (invoice_id, amount, payment_date)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		invoiceID, amount, paidAt,
	).Scan(&payment.ID)
	if err != nil {
		return nil, fmt.Errorf("creating payment: %w", err)
	}

	payment.InvoiceID = invoiceID
	payment.Amount = amount
	payment.PaymentDate = paidAt

	inv.AmountPaid += amount
	inv.BalanceDue = inv.Total - inv.AmountPaid
	inv.Status = invoice.DeriveStatus(inv.BalanceDue)

	if _, err := tx.ExecContext(ctx,
		`UPDATE invoices SET amount_paid = $1, balance_due = $2, status = $3 WHERE id = $4`,
		inv.AmountPaid, inv.BalanceDue, string(inv.Status), invoiceID,
	); err != nil {
		return nil, fmt.Errorf("updating invoice balance: %w", err)
	}

	if inv.Payments, err = s.loadPayments(ctx, tx, invoiceID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing payment: %w", err)
	}

	return inv, nil
}

func (s *Store) GetStats(ctx context.Context, userID int64) (*invoice.Stats, error) {
	query := `
		SELECT COALESCE(SUM(total), 0), COALESCE(SUM(amount_paid), 0),
			COALESCE(SUM(balance_due), 0), COUNT(*)
		FROM invoices
		WHERE user_id = $1 AND NOT is_deleted
	`

	var stats invoice.Stats

	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&stats.TotalRevenue, &stats.TotalPaid, &stats.PendingBalance, &stats.InvoiceCount,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregating stats: %w", err)
	}

	return &stats, nil
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) loadPayments(ctx context.Context, q querier, invoiceID int64) ([]invoice.Payment, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, invoice_id, amount, payment_date
		 FROM payments
		 WHERE invoice_id = $1
		 ORDER BY id ASC`,
		invoiceID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading payments: %w", err)
	}
	defer rows.Close()

	var payments []invoice.Payment

	for rows.Next() {
		var p invoice.Payment
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.PaymentDate); err != nil {
			return nil, fmt.Errorf("scanning payment: %w", err)
		}

		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating payments: %w", err)
	}

	return payments, nil
}

func (s *Store) loadLines(ctx context.Context, invoiceID int64) ([]invoice.Line, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, invoice_id, description, quantity, unit_price
		 FROM invoice_lines
		 WHERE invoice_id = $1
		 ORDER BY id ASC`,
		invoiceID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading lines: %w", err)
	}
	defer rows.Close()

	var lines []invoice.Line

	for rows.Next() {
		var l invoice.Line
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.Description, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, fmt.Errorf("scanning line: %w", err)
		}

		lines = append(lines, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating lines: %w", err)
	}

	return lines, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func oneRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}

	if n == 0 {
		return invoice.ErrNotFound
	}

	return nil
}
