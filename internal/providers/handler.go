package providers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stockbook/stockbook/internal/platform/httpx"
)

// Handler exposes provider endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers provider routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listProviders)
	r.Post("/", h.createProvider)
	r.Get("/{id}", h.getProvider)
	r.Put("/{id}", h.updateProvider)
	r.Delete("/{id}", h.deleteProvider)
}

func (h *Handler) listProviders(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListProviders(r.Context())
	if err != nil {
		h.fail(w, "list providers", err)
		return
	}
	if list == nil {
		list = []Provider{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) createProvider(w http.ResponseWriter, r *http.Request) {
	var input ProviderInput
	if err := httpx.DecodeAndValidate(r, h.validator, &input); err != nil {
		h.fail(w, "create provider", err)
		return
	}
	p, err := h.service.CreateProvider(r.Context(), input)
	if err != nil {
		h.fail(w, "create provider", err)
		return
	}
	h.logger.Info("provider created", slog.Int64("provider_id", p.ID))
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) getProvider(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathInt64(r, "id")
	if err != nil {
		h.fail(w, "get provider", err)
		return
	}
	p, err := h.service.GetProvider(r.Context(), id)
	if err != nil {
		h.fail(w, "get provider", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) updateProvider(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathInt64(r, "id")
	if err != nil {
		h.fail(w, "update provider", err)
		return
	}
	var input ProviderInput
	if err := httpx.DecodeAndValidate(r, h.validator, &input); err != nil {
		h.fail(w, "update provider", err)
		return
	}
	p, err := h.service.UpdateProvider(r.Context(), id, input)
	if err != nil {
		h.fail(w, "update provider", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) deleteProvider(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathInt64(r, "id")
	if err != nil {
		h.fail(w, "delete provider", err)
		return
	}
	if err := h.service.DeleteProvider(r.Context(), id); err != nil {
		h.fail(w, "delete provider", err)
		return
	}
	h.logger.Info("provider deleted", slog.Int64("provider_id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.StatusOf(err) >= http.StatusInternalServerError {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
