package invoiceapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/invox/internal/http/authmw"
	"github.com/MrJamesThe3rd/invox/internal/invoice"
	"github.com/MrJamesThe3rd/invox/internal/money"
)

type Handler struct {
	svc *invoice.Service
}

func NewHandler(svc *invoice.Service) *Handler {
	return &Handler{svc: svc}
}

// Routes assumes the auth middleware already resolved the caller.
// Static segments are registered alongside the {id} pattern; chi matches
// them first, so /stats and the bulk routes never collide with ids.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/stats", h.stats)
	r.Post("/completed/trash", h.trashCompleted)
	r.Delete("/trash/empty", h.emptyTrash)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.softDelete)
	r.Post("/{id}/restore", h.restore)
	r.Post("/{id}/archive", h.archive)
	r.Delete("/{id}/permanent", h.permanentDelete)
	r.Post("/{id}/payments", h.addPayment)
}

type invoiceRequest struct {
	CustomerName string              `json:"customerName"`
	Description  string              `json:"description"`
	ContactType  invoice.ContactType `json:"contactType"`
	ContactValue string              `json:"contactValue"`
	Currency     string              `json:"currency"`
	Total        money.Cents         `json:"total"`
	Deadline     *time.Time          `json:"deadline"`
	LineItems    []lineRequest       `json:"lineItems"`
}

type lineRequest struct {
	Description string      `json:"description"`
	Quantity    int64       `json:"quantity"`
	UnitPrice   money.Cents `json:"unitPrice"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	userID, ok := authmw.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	var req invoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	lines := make([]invoice.Line, len(req.LineItems))
	for i, l := range req.LineItems {
		lines[i] = invoice.Line{Description: l.Description, Quantity: l.Quantity, UnitPrice: l.UnitPrice}
	}

	inv, err := h.svc.Create(r.Context(), userID, invoice.CreateParams{
		CustomerName: req.CustomerName,
		Description:  req.Description,
		ContactType:  req.ContactType,
		ContactValue: req.ContactValue,
		Currency:     req.Currency,
		Total:        req.Total,
		Deadline:     req.Deadline,
		Lines:        lines,
	})
	if err != nil {
		writeInvoiceError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/invoices/%d", inv.ID))
	writeJSON(w, http.StatusCreated, toResponse(inv))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := authmw.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	invs, err := h.svc.List(r.Context(), userID)
	if err != nil {
		writeInvoiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponseList(invs))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.callerAndID(w, r)
	if !ok {
		return
	}

	inv, err := h.svc.Get(r.Context(), userID, id)
	if err != nil {
		writeInvoiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(inv))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.callerAndID(w, r)
	if !ok {
		return
	}

	var req invoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err := h.svc.Update(r.Context(), userID, id, invoice.UpdateParams{
		CustomerName: req.CustomerName,
		Description:  req.Description,
		ContactType:  req.ContactType,
		ContactValue: req.ContactValue,
		Currency:     req.Currency,
		Total:        req.Total,
		Deadline:     req.Deadline,
	})
	if err != nil {
		writeInvoiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) softDelete(w http.ResponseWriter, r *http.Request) {
	h.flagOp(w, r, h.svc.SoftDelete)
}

func (h *Handler) restore(w http.ResponseWriter, r *http.Request) {
	h.flagOp(w, r, h.svc.Restore)
}

func (h *Handler) archive(w http.ResponseWriter, r *http.Request) {
	h.flagOp(w, r, h.svc.Archive)
}

func (h *Handler) permanentDelete(w http.ResponseWriter, r *http.Request) {
	h.flagOp(w, r, h.svc.PermanentDelete)
}

func (h *Handler) trashCompleted(w http.ResponseWriter, r *http.Request) {
	h.bulkOp(w, r, h.svc.TrashCompleted)
}

func (h *Handler) emptyTrash(w http.ResponseWriter, r *http.Request) {
	h.bulkOp(w, r, h.svc.EmptyTrash)
}

type paymentRequest struct {
	Amount money.Cents `json:"amount"`
}

func (h *Handler) addPayment(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.callerAndID(w, r)
	if !ok {
		return
	}

	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	inv, err := h.svc.RecordPayment(r.Context(), userID, id, req.Amount)
	if err != nil {
		writeInvoiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(inv))
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := authmw.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	stats, err := h.svc.GetStats(r.Context(), userID)
	if err != nil {
		writeInvoiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toStatsResponse(stats))
}

func (h *Handler) callerAndID(w http.ResponseWriter, r *http.Request) (userID, id int64, ok bool) {
	userID, ok = authmw.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return 0, 0, false
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, 0, false
	}

	return userID, id, true
}

func (h *Handler) flagOp(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID, id int64) error) {
	userID, id, ok := h.callerAndID(w, r)
	if !ok {
		return
	}

	if err := op(r.Context(), userID, id); err != nil {
		writeInvoiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) bulkOp(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID int64) error) {
	userID, ok := authmw.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	if err := op(r.Context(), userID); err != nil {
		writeInvoiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeInvoiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, invoice.ErrNotFound):
		http.Error(w, "invoice not found", http.StatusNotFound)
	case errors.Is(err, invoice.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		slog.Error("invoice handler failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
