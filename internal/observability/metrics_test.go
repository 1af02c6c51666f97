package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestMetricsHandlerExposesPrometheusMetrics(t *testing.T) {
	body := scrape(t, NewMetrics())
	require.Contains(t, body, "stockbook_invoices_created_total 0")
	require.Contains(t, body, "stockbook_payments_recorded_total 0")
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusTeapot, rr.Code)

	body := scrape(t, metrics)
	require.Contains(t, body, `stockbook_http_requests_total{code="418",route="/test"} 1`)
	require.Contains(t, body, `stockbook_http_request_duration_seconds_bucket{route="/test"`)
}

func TestDomainCounters(t *testing.T) {
	m := NewMetrics()
	m.InvoiceCreated(decimal.RequireFromString("25.00"))
	m.InvoiceRejected("insufficient_stock")
	m.InvoiceRejected("insufficient_stock")
	m.PaymentRecorded(decimal.RequireFromString("40"))
	m.StatementServed("cache")

	body := scrape(t, m)
	require.Contains(t, body, "stockbook_invoices_created_total 1")
	require.Contains(t, body, "stockbook_invoiced_amount_total 25")
	require.Contains(t, body, `stockbook_invoice_rejections_total{reason="insufficient_stock"} 2`)
	require.Contains(t, body, "stockbook_paid_amount_total 40")
	require.Contains(t, body, `stockbook_statements_served_total{source="cache"} 1`)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.InvoiceCreated(decimal.NewFromInt(1))
	m.InvoiceRejected("error")
	m.PaymentRecorded(decimal.NewFromInt(1))
	m.StatementServed("built")

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.False(t, strings.Contains(rr.Body.String(), "stockbook_"))
}
