package ar

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/stockbook/stockbook/internal/platform/httpx"
)

// Handler manages AR endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers routes under /payments.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.recordPayment)
}

// MountClientRoutes registers payment and statement sub-resources under /clients.
func (h *Handler) MountClientRoutes(r chi.Router) {
	r.Get("/{id}/payments", h.listPayments)
	r.Get("/{id}/statement", h.statement)
}

type recordPaymentRequest struct {
	ClientID      int64           `json:"client_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentDate   string          `json:"payment_date" validate:"omitempty,datetime=2006-01-02"`
	Method        string          `json:"method" validate:"omitempty,oneof=cash card bank_transfer"`
	BankAccountID *int64          `json:"bank_account_id"`
	Notes         string          `json:"notes" validate:"max=2000"`
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	var req recordPaymentRequest
	if err := httpx.DecodeAndValidate(r, h.validator, &req); err != nil {
		h.fail(w, "record payment", err)
		return
	}
	input := RecordPaymentInput{
		ClientID:       req.ClientID,
		Amount:         req.Amount,
		Method:         Method(req.Method),
		BankAccountID:  req.BankAccountID,
		Notes:          req.Notes,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	}
	if req.PaymentDate != "" {
		date, err := time.Parse("2006-01-02", req.PaymentDate)
		if err != nil {
			h.fail(w, "record payment", fmt.Errorf("%w: payment_date: %v", httpx.ErrBadRequest, err))
			return
		}
		input.PaymentDate = date
	}
	p, err := h.service.RecordPayment(r.Context(), input)
	if err != nil {
		h.fail(w, "record payment", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathInt64(r, "id")
	if err != nil {
		h.fail(w, "list payments", err)
		return
	}
	list, err := h.service.ListPayments(r.Context(), id)
	if err != nil {
		h.fail(w, "list payments", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) statement(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathInt64(r, "id")
	if err != nil {
		h.fail(w, "statement", err)
		return
	}
	st, err := h.service.Statement(r.Context(), id)
	if err != nil {
		h.fail(w, "statement", err)
		return
	}
	httpx.JSON(w, http.StatusOK, st)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.StatusOf(err) >= http.StatusInternalServerError {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
