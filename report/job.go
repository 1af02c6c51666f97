package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hibiken/asynq"

	"github.com/stockbook/stockbook/internal/ar"
	jobmetrics "github.com/stockbook/stockbook/internal/jobs"
	"github.com/stockbook/stockbook/internal/sales"
	"github.com/stockbook/stockbook/internal/shared"
	"github.com/stockbook/stockbook/jobs"
)

// InvoiceSource loads the printable view of an invoice.
type InvoiceSource interface {
	InvoiceDocument(ctx context.Context, id int64) (*sales.Document, error)
}

// StatementSource loads a client statement.
type StatementSource interface {
	Statement(ctx context.Context, clientID int64) (*ar.Statement, error)
}

// RenderJob renders documents to PDF in the background and writes them under StorageDir.
type RenderJob struct {
	Renderer   *Renderer
	Converter  Converter
	Invoices   InvoiceSource
	Statements StatementSource
	StorageDir string
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
}

// Handlers returns the task registrations served by the job.
func (j *RenderJob) Handlers() []jobs.TaskHandler {
	return []jobs.TaskHandler{
		{Type: jobs.TaskInvoiceDocument, Handler: j.HandleInvoice},
		{Type: jobs.TaskStatementDocument, Handler: j.HandleStatement},
	}
}

// HandleInvoice processes jobs.TaskInvoiceDocument.
func (j *RenderJob) HandleInvoice(ctx context.Context, task *asynq.Task) (err error) {
	if err := j.check(); err != nil {
		return err
	}
	tracker := j.Metrics.Track(jobs.TaskInvoiceDocument)
	defer func() {
		err = tracker.End(err)
	}()
	payload, err := jobs.ParseInvoiceDocumentPayload(task)
	if err != nil {
		return err
	}
	doc, err := j.Invoices.InvoiceDocument(ctx, payload.InvoiceID)
	if err != nil {
		return skipWhenMissing(err)
	}
	html, err := j.Renderer.RenderInvoice(doc)
	if err != nil {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	path, err := j.store(ctx, filepath.Join("invoices", doc.InvoiceNumber+".pdf"), html, "invoice")
	if err != nil {
		return err
	}
	j.log().Info("invoice document stored",
		slog.Int64("invoice_id", payload.InvoiceID),
		slog.String("number", doc.InvoiceNumber),
		slog.String("path", path),
	)
	return nil
}

// HandleStatement processes jobs.TaskStatementDocument.
func (j *RenderJob) HandleStatement(ctx context.Context, task *asynq.Task) (err error) {
	if err := j.check(); err != nil {
		return err
	}
	tracker := j.Metrics.Track(jobs.TaskStatementDocument)
	defer func() {
		err = tracker.End(err)
	}()
	payload, err := jobs.ParseStatementDocumentPayload(task)
	if err != nil {
		return err
	}
	st, err := j.Statements.Statement(ctx, payload.ClientID)
	if err != nil {
		return skipWhenMissing(err)
	}
	html, err := j.Renderer.RenderStatement(st)
	if err != nil {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	name := StatementFileName(payload.ClientID, st)
	path, err := j.store(ctx, filepath.Join("statements", name), html, "statement")
	if err != nil {
		return err
	}
	j.log().Info("statement document stored",
		slog.Int64("client_id", payload.ClientID),
		slog.String("path", path),
	)
	return nil
}

// StatementFileName names a stored statement by client and generation date.
func StatementFileName(clientID int64, st *ar.Statement) string {
	name := "client-" + strconv.FormatInt(clientID, 10)
	if st != nil && !st.GeneratedAt.IsZero() {
		name += "-" + st.GeneratedAt.UTC().Format("20060102")
	}
	return name + ".pdf"
}

func (j *RenderJob) store(ctx context.Context, rel, html, kind string) (string, error) {
	pdf, err := j.Converter.RenderHTML(ctx, html)
	if err != nil {
		return "", err
	}
	path := filepath.Join(j.StorageDir, rel)
	if err := writeFileAtomic(path, pdf); err != nil {
		return "", fmt.Errorf("report: store %s: %w", rel, err)
	}
	j.Metrics.DocumentRendered(kind, len(pdf))
	return path, nil
}

func (j *RenderJob) check() error {
	if j == nil || j.Renderer == nil || j.Converter == nil || j.Invoices == nil || j.Statements == nil || j.StorageDir == "" {
		return errors.New("render job: dependencies not configured")
	}
	return nil
}

func (j *RenderJob) log() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func skipWhenMissing(err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	return err
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".render-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
