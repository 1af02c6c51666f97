package inventory

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stockbook/stockbook/internal/platform/httpx"
)

// Handler wires HTTP endpoints for inventory module.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products", h.listProducts)
	r.Post("/products", h.createProduct)
	r.Get("/products/{id}", h.getProduct)
	r.Get("/products/{id}/stock", h.getVariantStock)
}

type productResponse struct {
	Product
	TotalQuantity int64 `json:"total_quantity"`
}

func toResponse(p Product) productResponse {
	if p.Variants == nil {
		p.Variants = []Variant{}
	}
	return productResponse{Product: p, TotalQuantity: p.TotalQuantity()}
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		h.fail(w, "list products", err)
		return
	}
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toResponse(p))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var input CreateProductInput
	if err := httpx.DecodeAndValidate(r, h.validator, &input); err != nil {
		h.fail(w, "create product", err)
		return
	}
	product, err := h.service.CreateProduct(r.Context(), input)
	if err != nil {
		h.fail(w, "create product", err)
		return
	}
	h.logger.Info("product created",
		slog.Int64("product_id", product.ID),
		slog.Int("variants", len(product.Variants)))
	httpx.JSON(w, http.StatusCreated, toResponse(product))
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathInt64(r, "id")
	if err != nil {
		h.fail(w, "get product", err)
		return
	}
	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		h.fail(w, "get product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(product))
}

type stockResponse struct {
	ProductID  int64      `json:"product_id"`
	Attributes Attributes `json:"attributes"`
	Quantity   int64      `json:"quantity"`
}

// getVariantStock reads the attribute set from the query string, e.g.
// ?color=Blue&size=L. Repeated keys use the first value.
func (h *Handler) getVariantStock(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathInt64(r, "id")
	if err != nil {
		h.fail(w, "get variant stock", err)
		return
	}
	query := make(map[string]string)
	for name, values := range r.URL.Query() {
		if len(values) > 0 {
			query[name] = values[0]
		}
	}
	attrs := AttributesFromMap(query)
	qty, err := h.service.GetVariantStock(r.Context(), id, attrs)
	if err != nil {
		h.fail(w, "get variant stock", err)
		return
	}
	httpx.JSON(w, http.StatusOK, stockResponse{ProductID: id, Attributes: attrs, Quantity: qty})
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.StatusOf(err) >= http.StatusInternalServerError {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
