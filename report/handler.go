package report

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stockbook/stockbook/internal/platform/httpx"
	"github.com/stockbook/stockbook/jobs"
)

// Enqueuer schedules background rendering.
type Enqueuer interface {
	EnqueueInvoiceDocument(ctx context.Context, invoiceID int64) (string, error)
	EnqueueStatementDocument(ctx context.Context, clientID int64) (string, error)
}

// Pinger reports converter availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HandlerDeps groups the collaborators of Handler.
type HandlerDeps struct {
	Renderer   *Renderer
	Converter  Converter
	Invoices   InvoiceSource
	Statements StatementSource
	Enqueuer   Enqueuer
	Logger     *slog.Logger
}

// Handler manages document endpoints.
type Handler struct {
	deps   HandlerDeps
	logger *slog.Logger
}

// NewHandler creates a report handler.
func NewHandler(deps HandlerDeps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{deps: deps, logger: logger}
}

// MountRoutes registers converter diagnostics under /report.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ping", h.ping)
}

// MountInvoiceRoutes registers document routes under /invoices.
func (h *Handler) MountInvoiceRoutes(r chi.Router) {
	r.Get("/{id}/pdf", h.invoicePDF)
	r.Post("/{id}/render", h.renderInvoice)
}

// MountClientRoutes registers statement document routes under /clients.
func (h *Handler) MountClientRoutes(r chi.Router) {
	r.Get("/{id}/statement.pdf", h.statementPDF)
	r.Post("/{id}/statement/render", h.renderStatement)
}

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	pinger, ok := h.deps.Converter.(Pinger)
	if !ok {
		httpx.Problem(w, http.StatusServiceUnavailable, "Converter unavailable", "no PDF converter configured")
		return
	}
	if err := pinger.Ping(r.Context()); err != nil {
		h.logger.Warn("gotenberg ping failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "Converter unavailable", err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) invoicePDF(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathInt64(r, "id")
	if err != nil {
		h.fail(w, "invoice pdf", err)
		return
	}
	doc, err := h.deps.Invoices.InvoiceDocument(r.Context(), id)
	if err != nil {
		h.fail(w, "invoice pdf", err)
		return
	}
	html, err := h.deps.Renderer.RenderInvoice(doc)
	if err != nil {
		h.fail(w, "invoice pdf", err)
		return
	}
	h.writeDocument(w, r, html, doc.InvoiceNumber+".pdf")
}

func (h *Handler) statementPDF(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathInt64(r, "id")
	if err != nil {
		h.fail(w, "statement pdf", err)
		return
	}
	st, err := h.deps.Statements.Statement(r.Context(), id)
	if err != nil {
		h.fail(w, "statement pdf", err)
		return
	}
	html, err := h.deps.Renderer.RenderStatement(st)
	if err != nil {
		h.fail(w, "statement pdf", err)
		return
	}
	h.writeDocument(w, r, html, StatementFileName(id, st))
}

// writeDocument converts html to PDF, or returns the HTML itself for ?format=html.
func (h *Handler) writeDocument(w http.ResponseWriter, r *http.Request, html, filename string) {
	if r.URL.Query().Get("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(html))
		return
	}
	pdf, err := h.deps.Converter.RenderHTML(r.Context(), html)
	if err != nil {
		h.logger.Error("render pdf", slog.String("file", filename), slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Render failed", "the PDF converter could not render the document")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename="+strconv.Quote(filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

type enqueueResponse struct {
	TaskID string `json:"task_id"`
	Queue  string `json:"queue"`
}

func (h *Handler) renderInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathInt64(r, "id")
	if err != nil {
		h.fail(w, "enqueue invoice document", err)
		return
	}
	if _, err := h.deps.Invoices.InvoiceDocument(r.Context(), id); err != nil {
		h.fail(w, "enqueue invoice document", err)
		return
	}
	h.enqueue(w, r, "enqueue invoice document", func(ctx context.Context) (string, error) {
		return h.deps.Enqueuer.EnqueueInvoiceDocument(ctx, id)
	})
}

func (h *Handler) renderStatement(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathInt64(r, "id")
	if err != nil {
		h.fail(w, "enqueue statement document", err)
		return
	}
	h.enqueue(w, r, "enqueue statement document", func(ctx context.Context) (string, error) {
		return h.deps.Enqueuer.EnqueueStatementDocument(ctx, id)
	})
}

func (h *Handler) enqueue(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context) (string, error)) {
	if h.deps.Enqueuer == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Jobs unavailable", "background rendering is not configured")
		return
	}
	taskID, err := fn(r.Context())
	if err != nil {
		if errors.Is(err, jobs.ErrInvalidPayload) {
			h.fail(w, op, errors.Join(httpx.ErrBadRequest, err))
			return
		}
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "Jobs unavailable", "the job queue rejected the request")
		return
	}
	httpx.JSON(w, http.StatusAccepted, enqueueResponse{TaskID: taskID, Queue: jobs.QueueDocuments})
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.StatusOf(err) >= http.StatusInternalServerError {
		h.logger.Error(op, slog.Any("error", err))
	} else {
		h.logger.Debug(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
