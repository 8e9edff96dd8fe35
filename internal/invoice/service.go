package invoice

import (
	"context"
	"fmt"
	"time"

	"github.com/MrJamesThe3rd/invox/internal/money"
)

// Every repository operation takes the owner's user id and embeds it in the
// query predicate. No operation returns rows without that predicate; another
// tenant's row is indistinguishable from a missing one.
//
//go:generate mockgen -source=service.go -destination=repository_mock.go -package=invoice
type Repository interface {
	CreateInvoice(ctx context.Context, inv *Invoice) error
	GetInvoice(ctx context.Context, userID, id int64) (*Invoice, error)
	ListInvoices(ctx context.Context, userID int64) ([]*Invoice, error)
	UpdateInvoice(ctx context.Context, userID, id int64, fields UpdateParams) error
	SetDeleted(ctx context.Context, userID, id int64, deleted bool) error
	SetArchived(ctx context.Context, userID, id int64, archived bool) error
	DeleteInvoice(ctx context.Context, userID, id int64) error
	TrashCompleted(ctx context.Context, userID int64) error
	EmptyTrash(ctx context.Context, userID int64) error
	AddPayment(ctx context.Context, userID, invoiceID int64, amount money.Cents, paidAt time.Time) (*Invoice, error)
	GetStats(ctx context.Context, userID int64) (*Stats, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	CustomerName string
	Description  string
	ContactType  ContactType
	ContactValue string
	Currency     string
	Total        money.Cents
	Deadline     *time.Time
	Lines        []Line
}

type UpdateParams struct {
	CustomerName string
	Description  string
	ContactType  ContactType
	ContactValue string
	Currency     string
	Total        money.Cents
	Deadline     *time.Time
}

func validateFields(customerName string, contactType ContactType, contactValue string, total money.Cents) error {
	if customerName == "" {
		return fmt.Errorf("%w: customer name is required", ErrValidation)
	}

	if contactType != ContactEmail && contactType != ContactPhone {
		return fmt.Errorf("%w: contact type must be Email or Phone", ErrValidation)
	}

	if contactValue == "" {
		return fmt.Errorf("%w: contact value is required", ErrValidation)
	}

	if total < 0 {
		return fmt.Errorf("%w: total cannot be negative", ErrValidation)
	}

	return nil
}

// Create persists a fresh DRAFT invoice owned by userID. The invoice number
// is derived from the id; amount paid starts at zero and the balance equals
// the total.
func (s *Service) Create(ctx context.Context, userID int64, params CreateParams) (*Invoice, error) {
	if err := validateFields(params.CustomerName, params.ContactType, params.ContactValue, params.Total); err != nil {
		return nil, err
	}

	currency := params.Currency
	if currency == "" {
		currency = "$"
	}

	inv := &Invoice{
		UserID:       userID,
		CustomerName: params.CustomerName,
		Description:  params.Description,
		ContactType:  params.ContactType,
		ContactValue: params.ContactValue,
		Currency:     currency,
		Total:        params.Total,
		AmountPaid:   0,
		BalanceDue:   params.Total,
		Status:       DeriveStatus(params.Total),
		CreatedAt:    time.Now().UTC(),
		Deadline:     toUTC(params.Deadline),
		Lines:        params.Lines,
	}

	if err := s.repo.CreateInvoice(ctx, inv); err != nil {
		return nil, err
	}

	return inv, nil
}

// List returns every invoice owned by userID, trashed rows included, in
// insertion order.
func (s *Service) List(ctx context.Context, userID int64) ([]*Invoice, error) {
	return s.repo.ListInvoices(ctx, userID)
}

// Get returns one invoice with payments and lines loaded.
func (s *Service) Get(ctx context.Context, userID, id int64) (*Invoice, error) {
	return s.repo.GetInvoice(ctx, userID, id)
}

// Update rewrites the editable fields and re-derives balance and status from
// the new total. The repository rejects a total below the amount already
// paid. CreatedAt, owner, number, amount paid, and the soft flags are not
// writable through this path.
func (s *Service) Update(ctx context.Context, userID, id int64, params UpdateParams) error {
	if err := validateFields(params.CustomerName, params.ContactType, params.ContactValue, params.Total); err != nil {
		return err
	}

	if params.Currency == "" {
		params.Currency = "$"
	}

	params.Deadline = toUTC(params.Deadline)

	return s.repo.UpdateInvoice(ctx, userID, id, params)
}

// SoftDelete moves the invoice to the trash. Idempotent.
func (s *Service) SoftDelete(ctx context.Context, userID, id int64) error {
	return s.repo.SetDeleted(ctx, userID, id, true)
}

// Restore takes the invoice out of the trash. Idempotent.
func (s *Service) Restore(ctx context.Context, userID, id int64) error {
	return s.repo.SetDeleted(ctx, userID, id, false)
}

// Archive flags the invoice as archived. Idempotent.
func (s *Service) Archive(ctx context.Context, userID, id int64) error {
	return s.repo.SetArchived(ctx, userID, id, true)
}

// PermanentDelete hard-deletes the invoice; payments and lines cascade.
func (s *Service) PermanentDelete(ctx context.Context, userID, id int64) error {
	return s.repo.DeleteInvoice(ctx, userID, id)
}

// TrashCompleted soft-deletes every PAID invoice not already in the trash.
func (s *Service) TrashCompleted(ctx context.Context, userID int64) error {
	return s.repo.TrashCompleted(ctx, userID)
}

// EmptyTrash hard-deletes the caller's trashed invoices only.
func (s *Service) EmptyTrash(ctx context.Context, userID int64) error {
	return s.repo.EmptyTrash(ctx, userID)
}

// RecordPayment appends a payment and updates the invoice's derived fields
// in one transaction. The repository holds a row lock for the duration, so
// concurrent payments cannot overpay.
func (s *Service) RecordPayment(ctx context.Context, userID, invoiceID int64, amount money.Cents) (*Invoice, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: payment amount must be greater than zero", ErrValidation)
	}

	return s.repo.AddPayment(ctx, userID, invoiceID, amount, time.Now().UTC())
}

// GetStats sums the caller's non-deleted invoices. Zero invoices yield all
// zeros.
func (s *Service) GetStats(ctx context.Context, userID int64) (*Stats, error) {
	return s.repo.GetStats(ctx, userID)
}

func toUTC(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}

	utc := t.UTC()

	return &utc
}
