package invoice

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrJamesThe3rd/invox/internal/money"
)

var (
	ErrNotFound   = errors.New("invoice not found")
	ErrValidation = errors.New("invalid invoice")
)

// Status is fully derived from total and amount paid; clients never set it.
type Status string

const (
	StatusDraft Status = "DRAFT"
	StatusPaid  Status = "PAID"
)

// DeriveStatus returns PAID iff nothing is left to pay.
func DeriveStatus(balanceDue money.Cents) Status {
	if balanceDue <= 0 {
		return StatusPaid
	}

	return StatusDraft
}

type ContactType string

const (
	ContactEmail ContactType = "Email"
	ContactPhone ContactType = "Phone"
)

// Invoice is a per-customer monetary claim owned by exactly one user.
// BalanceDue and Status are stored but recomputed on every write path.
type Invoice struct {
	ID            int64
	InvoiceNumber string
	UserID        int64
	CustomerName  string
	Description   string
	ContactType   ContactType
	ContactValue  string
	Currency      string
	Total         money.Cents
	AmountPaid    money.Cents
	BalanceDue    money.Cents
	Status        Status
	IsDeleted     bool
	IsArchived    bool
	CreatedAt     time.Time
	Deadline      *time.Time
	Lines         []Line    // loaded on detail reads
	Payments      []Payment // loaded on detail reads
}

// Payment is an append-only ledger entry against one invoice.
type Payment struct {
	ID          int64
	InvoiceID   int64
	Amount      money.Cents
	PaymentDate time.Time
}

// Line is a persisted invoice line item. Read-only in the current write paths.
type Line struct {
	ID          int64
	InvoiceID   int64
	Description string
	Quantity    int64
	UnitPrice   money.Cents
}

// LineTotal is derived, never stored.
func (l Line) LineTotal() money.Cents {
	return money.Cents(l.Quantity) * l.UnitPrice
}

// Stats aggregates a user's non-deleted invoices.
type Stats struct {
	TotalRevenue   money.Cents
	TotalPaid      money.Cents
	PendingBalance money.Cents
	InvoiceCount   int64
}

// Number renders the display number for an invoice id. The sequence is
// global across tenants, so numbers are not dense within one user.
func Number(id int64) string {
	return fmt.Sprintf("INV-%03d", id)
}
