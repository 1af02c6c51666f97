package inventory

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestRouter(repo *memoryRepo) http.Handler {
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), NewService(repo, nil))
	r := chi.NewRouter()
	r.Route("/inventory", h.MountRoutes)
	return r
}

func TestHandlerCreateAndGetProduct(t *testing.T) {
	router := newTestRouter(newMemoryRepo())

	body := `{"name":"Shirt","variants":[{"attributes":{"size":"L","color":"Blue"},"quantity":4,"cost_price":"8","selling_price":"10"}]}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/inventory/products", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rr.Code)

	var created productResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
	require.Equal(t, int64(4), created.TotalQuantity)
	require.Equal(t, "L / Blue", created.Variants[0].Attributes.Label())
	require.True(t, decimal.NewFromInt(10).Equal(created.Variants[0].SellingPrice))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/inventory/products/1/stock?color=Blue&size=L", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var stock stockResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&stock))
	require.Equal(t, int64(4), stock.Quantity)
}

func TestHandlerErrors(t *testing.T) {
	router := newTestRouter(newMemoryRepo())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/inventory/products/99", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/inventory/products/abc", nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/inventory/products", strings.NewReader(`{"name":"Shirt"}`)))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	body := `{"name":"Shirt","variants":[{"attributes":{"size":"L"},"quantity":1,"cost_price":"12","selling_price":"10"}]}`
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/inventory/products", strings.NewReader(body)))
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestHandlerListProductsEmpty(t *testing.T) {
	router := newTestRouter(newMemoryRepo())
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/inventory/products", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `[]`, rr.Body.String())
}
