package sales

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stockbook/stockbook/internal/platform/httpx"
)

const dateLayout = "2006-01-02"

// Handler exposes invoice endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers routes under /invoices.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.createInvoice)
	r.Post("/preview", h.previewInvoice)
	r.Get("/{id}", h.getInvoice)
}

// MountClientRoutes registers invoice sub-resources under /clients.
func (h *Handler) MountClientRoutes(r chi.Router) {
	r.Get("/{id}/invoices", h.listClientInvoices)
}

type createInvoiceRequest struct {
	ClientID  int64       `json:"client_id"`
	Number    string      `json:"number" validate:"max=50"`
	IssueDate string      `json:"issue_date" validate:"omitempty,datetime=2006-01-02"`
	DueDate   string      `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Notes     string      `json:"notes" validate:"max=2000"`
	Lines     []LineInput `json:"line_items" validate:"dive"`
}

func (req createInvoiceRequest) input() (CreateInvoiceInput, error) {
	in := CreateInvoiceInput{
		ClientID: req.ClientID,
		Number:   req.Number,
		Notes:    req.Notes,
		Lines:    req.Lines,
	}
	var err error
	if req.IssueDate != "" {
		if in.IssueDate, err = time.Parse(dateLayout, req.IssueDate); err != nil {
			return in, fmt.Errorf("%w: issue_date: %v", httpx.ErrBadRequest, err)
		}
	}
	if req.DueDate != "" {
		if in.DueDate, err = time.Parse(dateLayout, req.DueDate); err != nil {
			return in, fmt.Errorf("%w: due_date: %v", httpx.ErrBadRequest, err)
		}
	}
	return in, nil
}

func (h *Handler) decode(r *http.Request) (CreateInvoiceInput, error) {
	var req createInvoiceRequest
	if err := httpx.DecodeAndValidate(r, h.validator, &req); err != nil {
		return CreateInvoiceInput{}, err
	}
	return req.input()
}

func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	input, err := h.decode(r)
	if err != nil {
		h.fail(w, "create invoice", err)
		return
	}
	input.IdempotencyKey = r.Header.Get("Idempotency-Key")
	inv, err := h.service.CreateInvoice(r.Context(), input)
	if err != nil {
		h.fail(w, "create invoice", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *Handler) previewInvoice(w http.ResponseWriter, r *http.Request) {
	input, err := h.decode(r)
	if err != nil {
		h.fail(w, "preview invoice", err)
		return
	}
	doc, err := h.service.PreviewInvoice(r.Context(), input)
	if err != nil {
		h.fail(w, "preview invoice", err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathInt64(r, "id")
	if err != nil {
		h.fail(w, "get invoice", err)
		return
	}
	inv, err := h.service.GetInvoice(r.Context(), id)
	if err != nil {
		h.fail(w, "get invoice", err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) listClientInvoices(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathInt64(r, "id")
	if err != nil {
		h.fail(w, "list invoices", err)
		return
	}
	list, err := h.service.ListInvoices(r.Context(), id)
	if err != nil {
		h.fail(w, "list invoices", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.StatusOf(err) >= http.StatusInternalServerError {
		h.logger.Error(op, slog.Any("error", err))
	} else {
		h.logger.Debug(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
