package bankaccounts

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stockbook/stockbook/internal/platform/httpx"
)

// Handler exposes bank account endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers bank account routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListBankAccounts(r.Context())
	if err != nil {
		h.fail(w, "list bank accounts", err)
		return
	}
	if list == nil {
		list = []BankAccount{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input BankAccountInput
	if err := httpx.DecodeAndValidate(r, h.validator, &input); err != nil {
		h.fail(w, "create bank account", err)
		return
	}
	a, err := h.service.CreateBankAccount(r.Context(), input)
	if err != nil {
		h.fail(w, "create bank account", err)
		return
	}
	h.logger.Info("bank account created", slog.Int64("bank_account_id", a.ID))
	httpx.JSON(w, http.StatusCreated, a)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathInt64(r, "id")
	if err != nil {
		h.fail(w, "get bank account", err)
		return
	}
	a, err := h.service.GetBankAccount(r.Context(), id)
	if err != nil {
		h.fail(w, "get bank account", err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathInt64(r, "id")
	if err != nil {
		h.fail(w, "update bank account", err)
		return
	}
	var input BankAccountInput
	if err := httpx.DecodeAndValidate(r, h.validator, &input); err != nil {
		h.fail(w, "update bank account", err)
		return
	}
	a, err := h.service.UpdateBankAccount(r.Context(), id, input)
	if err != nil {
		h.fail(w, "update bank account", err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathInt64(r, "id")
	if err != nil {
		h.fail(w, "delete bank account", err)
		return
	}
	if err := h.service.DeleteBankAccount(r.Context(), id); err != nil {
		h.fail(w, "delete bank account", err)
		return
	}
	h.logger.Info("bank account deleted", slog.Int64("bank_account_id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.StatusOf(err) >= http.StatusInternalServerError {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
