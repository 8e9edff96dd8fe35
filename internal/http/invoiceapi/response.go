package invoiceapi

import (
	"time"

	"github.com/MrJamesThe3rd/invox/internal/invoice"
	"github.com/MrJamesThe3rd/invox/internal/money"
)

type invoiceResponse struct {
	ID            int64               `json:"id"`
	InvoiceNumber string              `json:"invoiceNumber"`
	UserID        int64               `json:"userId"`
	CustomerName  string              `json:"customerName"`
	Description   string              `json:"description,omitempty"`
	ContactType   invoice.ContactType `json:"contactType"`
	ContactValue  string              `json:"contactValue"`
	Currency      string              `json:"currency"`
	Total         money.Cents         `json:"total"`
	AmountPaid    money.Cents         `json:"amountPaid"`
	BalanceDue    money.Cents         `json:"balanceDue"`
	Status        invoice.Status      `json:"status"`
	IsDeleted     bool                `json:"isDeleted"`
	IsArchived    bool                `json:"isArchived"`
	CreatedAt     time.Time           `json:"createdAt"`
	Deadline      *time.Time          `json:"deadline,omitempty"`
	LineItems     []lineResponse      `json:"lineItems,omitempty"`
	Payments      []paymentResponse   `json:"payments,omitempty"`
}

type paymentResponse struct {
	ID          int64       `json:"id"`
	InvoiceID   int64       `json:"invoiceId"`
	Amount      money.Cents `json:"amount"`
	PaymentDate time.Time   `json:"paymentDate"`
}

type lineResponse struct {
	ID          int64       `json:"id"`
	InvoiceID   int64       `json:"invoiceId"`
	Description string      `json:"description"`
	Quantity    int64       `json:"quantity"`
	UnitPrice   money.Cents `json:"unitPrice"`
	LineTotal   money.Cents `json:"lineTotal"`
}

type statsResponse struct {
	TotalRevenue   money.Cents `json:"totalRevenue"`
	TotalPaid      money.Cents `json:"totalPaid"`
	PendingBalance money.Cents `json:"pendingBalance"`
	InvoiceCount   int64       `json:"invoiceCount"`
}

func toResponse(inv *invoice.Invoice) invoiceResponse {
	resp := invoiceResponse{
		ID:            inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		UserID:        inv.UserID,
		CustomerName:  inv.CustomerName,
		Description:   inv.Description,
		ContactType:   inv.ContactType,
		ContactValue:  inv.ContactValue,
		Currency:      inv.Currency,
		Total:         inv.Total,
		AmountPaid:    inv.AmountPaid,
		BalanceDue:    inv.BalanceDue,
		Status:        inv.Status,
		IsDeleted:     inv.IsDeleted,
		IsArchived:    inv.IsArchived,
		CreatedAt:     inv.CreatedAt,
		Deadline:      inv.Deadline,
	}

	for _, l := range inv.Lines {
		resp.LineItems = append(resp.LineItems, lineResponse{
			ID:          l.ID,
			InvoiceID:   l.InvoiceID,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			LineTotal:   l.LineTotal(),
		})
	}

	for _, p := range inv.Payments {
		resp.Payments = append(resp.Payments, paymentResponse{
			ID:          p.ID,
			InvoiceID:   p.InvoiceID,
			Amount:      p.Amount,
			PaymentDate: p.PaymentDate,
		})
	}

	return resp
}

func toResponseList(invs []*invoice.Invoice) []invoiceResponse {
	resp := make([]invoiceResponse, len(invs))
	for i, inv := range invs {
		resp[i] = toResponse(inv)
	}

	return resp
}

func toStatsResponse(stats *invoice.Stats) statsResponse {
	return statsResponse{
		TotalRevenue:   stats.TotalRevenue,
		TotalPaid:      stats.TotalPaid,
		PendingBalance: stats.PendingBalance,
		InvoiceCount:   stats.InvoiceCount,
	}
}
