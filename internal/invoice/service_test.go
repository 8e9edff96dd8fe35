package invoice_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/invox/internal/invoice"
	"github.com/MrJamesThe3rd/invox/internal/money"
)

func validCreateParams() invoice.CreateParams {
	return invoice.CreateParams{
		CustomerName: "Acme",
		ContactType:  invoice.ContactEmail,
		ContactValue: "a@b.c",
		Currency:     "$",
		Total:        10000,
	}
}

func TestService_Create(t *testing.T) {
	type testCase struct {
		name      string
		params    invoice.CreateParams
		setupMock func(m *invoice.MockRepository)
		wantErr   bool
		check     func(t *testing.T, inv *invoice.Invoice)
	}

	tests := []testCase{
		{
			name:   "Success",
			params: validCreateParams(),
			setupMock: func(m *invoice.MockRepository) {
				m.EXPECT().
					CreateInvoice(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, inv *invoice.Invoice) error {
						inv.ID = 1
						inv.InvoiceNumber = invoice.Number(inv.ID)
						return nil
					})
			},
			check: func(t *testing.T, inv *invoice.Invoice) {
				assert.Equal(t, "INV-001", inv.InvoiceNumber)
				assert.Equal(t, invoice.StatusDraft, inv.Status)
				assert.Equal(t, money.Cents(0), inv.AmountPaid)
				assert.Equal(t, money.Cents(10000), inv.BalanceDue)
				assert.Equal(t, int64(7), inv.UserID)
				assert.Equal(t, time.UTC, inv.CreatedAt.Location())
			},
		},
		{
			name: "MissingCustomerName",
			params: invoice.CreateParams{
				ContactType:  invoice.ContactEmail,
				ContactValue: "a@b.c",
				Total:        10000,
			},
			wantErr: true,
		},
		{
			name: "BadContactType",
			params: invoice.CreateParams{
				CustomerName: "Acme",
				ContactType:  "Carrier Pigeon",
				ContactValue: "a@b.c",
				Total:        10000,
			},
			wantErr: true,
		},
		{
			name: "MissingContactValue",
			params: invoice.CreateParams{
				CustomerName: "Acme",
				ContactType:  invoice.ContactPhone,
				Total:        10000,
			},
			wantErr: true,
		},
		{
			name: "NegativeTotal",
			params: invoice.CreateParams{
				CustomerName: "Acme",
				ContactType:  invoice.ContactEmail,
				ContactValue: "a@b.c",
				Total:        -1,
			},
			wantErr: true,
		},
		{
			name: "DefaultCurrency",
			params: invoice.CreateParams{
				CustomerName: "Acme",
				ContactType:  invoice.ContactEmail,
				ContactValue: "a@b.c",
				Total:        500,
			},
			setupMock: func(m *invoice.MockRepository) {
				m.EXPECT().CreateInvoice(gomock.Any(), gomock.Any()).Return(nil)
			},
			check: func(t *testing.T, inv *invoice.Invoice) {
				assert.Equal(t, "$", inv.Currency)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := invoice.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := invoice.NewService(repo)
			got, err := svc.Create(context.Background(), 7, tt.params)

			if tt.wantErr {
				assert.ErrorIs(t, err, invoice.ErrValidation)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			require.NotNil(t, got)

			if tt.check != nil {
				tt.check(t, got)
			}
		})
	}
}

func TestService_Create_DeadlineNormalizedToUTC(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := invoice.NewMockRepository(ctrl)
	repo.EXPECT().CreateInvoice(gomock.Any(), gomock.Any()).Return(nil)

	loc := time.FixedZone("UTC+5", 5*60*60)
	deadline := time.Date(2026, 3, 1, 12, 0, 0, 0, loc)

	params := validCreateParams()
	params.Deadline = &deadline

	got, err := invoice.NewService(repo).Create(context.Background(), 1, params)
	require.NoError(t, err)
	require.NotNil(t, got.Deadline)
	assert.Equal(t, time.UTC, got.Deadline.Location())
	assert.True(t, got.Deadline.Equal(deadline))
}

func TestService_RecordPayment(t *testing.T) {
	type testCase struct {
		name      string
		amount    money.Cents
		setupMock func(m *invoice.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name:   "Success",
			amount: 4000,
			setupMock: func(m *invoice.MockRepository) {
				m.EXPECT().
					AddPayment(gomock.Any(), int64(7), int64(1), money.Cents(4000), gomock.Any()).
					Return(&invoice.Invoice{
						ID:         1,
						Total:      10000,
						AmountPaid: 4000,
						BalanceDue: 6000,
						Status:     invoice.StatusDraft,
					}, nil)
			},
		},
		{
			name:    "ZeroAmount",
			amount:  0,
			wantErr: invoice.ErrValidation,
		},
		{
			name:    "NegativeAmount",
			amount:  -100,
			wantErr: invoice.ErrValidation,
		},
		{
			name:   "Overpay",
			amount: 6001,
			setupMock: func(m *invoice.MockRepository) {
				m.EXPECT().
					AddPayment(gomock.Any(), int64(7), int64(1), money.Cents(6001), gomock.Any()).
					Return(nil, invoice.ErrValidation)
			},
			wantErr: invoice.ErrValidation,
		},
		{
			name:   "OtherTenant",
			amount: 100,
			setupMock: func(m *invoice.MockRepository) {
				m.EXPECT().
					AddPayment(gomock.Any(), int64(7), int64(1), money.Cents(100), gomock.Any()).
					Return(nil, invoice.ErrNotFound)
			},
			wantErr: invoice.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := invoice.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := invoice.NewService(repo)
			got, err := svc.RecordPayment(context.Background(), 7, 1, tt.amount)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, got.BalanceDue, got.Total-got.AmountPaid)
		})
	}
}

func TestService_Update_Validation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := invoice.NewService(invoice.NewMockRepository(ctrl))

	err := svc.Update(context.Background(), 7, 1, invoice.UpdateParams{
		CustomerName: "",
		ContactType:  invoice.ContactEmail,
		ContactValue: "a@b.c",
		Total:        100,
	})
	assert.ErrorIs(t, err, invoice.ErrValidation)
}

func TestService_Update_PassesThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := invoice.NewMockRepository(ctrl)
	repo.EXPECT().
		UpdateInvoice(gomock.Any(), int64(7), int64(1), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ int64, fields invoice.UpdateParams) error {
			assert.Equal(t, "$", fields.Currency)
			return nil
		})

	err := invoice.NewService(repo).Update(context.Background(), 7, 1, invoice.UpdateParams{
		CustomerName: "Acme",
		ContactType:  invoice.ContactPhone,
		ContactValue: "555-0100",
		Total:        20000,
	})
	require.NoError(t, err)
}

// Shrinking the total below what has already been paid would commit a
// negative balance, so the repository refuses it and the error must surface.
func TestService_Update_TotalBelowAmountPaid(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := invoice.NewMockRepository(ctrl)
	repo.EXPECT().
		UpdateInvoice(gomock.Any(), int64(7), int64(1), gomock.Any()).
		Return(fmt.Errorf("%w: total cannot be below the amount already paid", invoice.ErrValidation))

	err := invoice.NewService(repo).Update(context.Background(), 7, 1, invoice.UpdateParams{
		CustomerName: "Acme",
		ContactType:  invoice.ContactEmail,
		ContactValue: "a@b.c",
		Total:        5000,
	})
	assert.ErrorIs(t, err, invoice.ErrValidation)
}

func TestService_TrashFlows(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := invoice.NewMockRepository(ctrl)
	svc := invoice.NewService(repo)
	ctx := context.Background()

	repo.EXPECT().SetDeleted(ctx, int64(7), int64(1), true).Return(nil)
	require.NoError(t, svc.SoftDelete(ctx, 7, 1))

	repo.EXPECT().SetDeleted(ctx, int64(7), int64(1), false).Return(nil)
	require.NoError(t, svc.Restore(ctx, 7, 1))

	repo.EXPECT().TrashCompleted(ctx, int64(7)).Return(nil)
	require.NoError(t, svc.TrashCompleted(ctx, 7))

	repo.EXPECT().EmptyTrash(ctx, int64(7)).Return(nil)
	require.NoError(t, svc.EmptyTrash(ctx, 7))

	repo.EXPECT().DeleteInvoice(ctx, int64(7), int64(1)).Return(invoice.ErrNotFound)
	assert.ErrorIs(t, svc.PermanentDelete(ctx, 7, 1), invoice.ErrNotFound)
}

func TestService_GetStats_ZeroInvoices(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := invoice.NewMockRepository(ctrl)
	repo.EXPECT().GetStats(gomock.Any(), int64(7)).Return(&invoice.Stats{}, nil)

	stats, err := invoice.NewService(repo).GetStats(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, money.Cents(0), stats.TotalRevenue)
	assert.Equal(t, money.Cents(0), stats.TotalPaid)
	assert.Equal(t, money.Cents(0), stats.PendingBalance)
	assert.Equal(t, int64(0), stats.InvoiceCount)
}

func TestNumber(t *testing.T) {
	assert.Equal(t, "INV-001", invoice.Number(1))
	assert.Equal(t, "INV-042", invoice.Number(42))
	assert.Equal(t, "INV-1000", invoice.Number(1000))
}

func TestDeriveStatus(t *testing.T) {
	assert.Equal(t, invoice.StatusPaid, invoice.DeriveStatus(0))
	assert.Equal(t, invoice.StatusPaid, invoice.DeriveStatus(-1))
	assert.Equal(t, invoice.StatusDraft, invoice.DeriveStatus(1))
}

func TestLine_LineTotal(t *testing.T) {
	line := invoice.Line{Quantity: 3, UnitPrice: 2550}
	assert.Equal(t, money.Cents(7650), line.LineTotal())
}
