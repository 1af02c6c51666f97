package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/stockbook/stockbook/internal/ar"
	"github.com/stockbook/stockbook/internal/bankaccounts"
	"github.com/stockbook/stockbook/internal/clients"
	"github.com/stockbook/stockbook/internal/inventory"
	"github.com/stockbook/stockbook/internal/observability"
	"github.com/stockbook/stockbook/internal/platform/httpx"
	"github.com/stockbook/stockbook/internal/providers"
	"github.com/stockbook/stockbook/internal/sales"
	"github.com/stockbook/stockbook/jobs"
	"github.com/stockbook/stockbook/report"
)

// ReadinessCheck checks one backing service.
type ReadinessCheck func(ctx context.Context) error

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger              *slog.Logger
	Config              *Config
	Metrics             *observability.Metrics
	InventoryHandler    *inventory.Handler
	ClientsHandler      *clients.Handler
	ProvidersHandler    *providers.Handler
	BankAccountsHandler *bankaccounts.Handler
	SalesHandler        *sales.Handler
	ARHandler           *ar.Handler
	ReportHandler       *report.Handler
	JobHandler          *jobs.Handler
	Readiness           map[string]ReadinessCheck
	AccessLog           bool
}

// NewRouter constructs the chi.Router with stockbook defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}
	if params.AccessLog {
		r.Use(chimw.Logger)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readinessHandler(params.Logger, params.Readiness))

	if params.InventoryHandler != nil {
		r.Route("/inventory", params.InventoryHandler.MountRoutes)
	}
	if params.ProvidersHandler != nil {
		r.Route("/providers", params.ProvidersHandler.MountRoutes)
	}
	if params.BankAccountsHandler != nil {
		r.Route("/bank-accounts", params.BankAccountsHandler.MountRoutes)
	}
	r.Route("/clients", func(r chi.Router) {
		if params.ClientsHandler != nil {
			params.ClientsHandler.MountRoutes(r)
		}
		if params.SalesHandler != nil {
			params.SalesHandler.MountClientRoutes(r)
		}
		if params.ARHandler != nil {
			params.ARHandler.MountClientRoutes(r)
		}
		if params.ReportHandler != nil {
			params.ReportHandler.MountClientRoutes(r)
		}
	})
	r.Route("/invoices", func(r chi.Router) {
		if params.SalesHandler != nil {
			params.SalesHandler.MountRoutes(r)
		}
		if params.ReportHandler != nil {
			params.ReportHandler.MountInvoiceRoutes(r)
		}
	})
	if params.ARHandler != nil {
		r.Route("/payments", params.ARHandler.MountRoutes)
	}
	if params.ReportHandler != nil {
		r.Route("/report", params.ReportHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

func readinessHandler(logger *slog.Logger, checks map[string]ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.Warn("readiness check failed", slog.String("check", name), slog.Any("error", err))
				results[name] = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		httpx.JSON(w, status, results)
	}
}
