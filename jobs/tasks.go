package jobs

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueDocuments carries PDF rendering work.
	QueueDocuments = "documents"

	// TaskInvoiceDocument renders an invoice PDF into document storage.
	TaskInvoiceDocument = "documents:invoice"
	// TaskStatementDocument renders a client statement PDF into document storage.
	TaskStatementDocument = "documents:statement"
	// TaskIdempotencyCleanup purges expired idempotency keys.
	TaskIdempotencyCleanup = "maintenance:idempotency_cleanup"
)

// ErrInvalidPayload marks a task whose payload can never be processed.
var ErrInvalidPayload = errors.New("jobs: invalid payload")

// InvoiceDocumentPayload identifies the invoice to render.
type InvoiceDocumentPayload struct {
	InvoiceID int64 `json:"invoice_id"`
}

// StatementDocumentPayload identifies the client whose statement is rendered.
type StatementDocumentPayload struct {
	ClientID int64 `json:"client_id"`
}

// IdempotencyCleanupPayload configures the retention window.
type IdempotencyCleanupPayload struct {
	OlderThan time.Duration `json:"older_than"`
}

// DefaultIdempotencyRetention is used when the cleanup payload carries no window.
const DefaultIdempotencyRetention = 72 * time.Hour

// NewInvoiceDocumentTask constructs an Asynq task for rendering an invoice.
func NewInvoiceDocumentTask(invoiceID int64) (*asynq.Task, error) {
	if invoiceID <= 0 {
		return nil, fmt.Errorf("%w: invoice id must be positive", ErrInvalidPayload)
	}
	body, err := json.Marshal(InvoiceDocumentPayload{InvoiceID: invoiceID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInvoiceDocument, body, asynq.Queue(QueueDocuments), asynq.MaxRetry(5)), nil
}

// NewStatementDocumentTask constructs an Asynq task for rendering a statement.
func NewStatementDocumentTask(clientID int64) (*asynq.Task, error) {
	if clientID <= 0 {
		return nil, fmt.Errorf("%w: client id must be positive", ErrInvalidPayload)
	}
	body, err := json.Marshal(StatementDocumentPayload{ClientID: clientID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStatementDocument, body, asynq.Queue(QueueDocuments), asynq.MaxRetry(5)), nil
}

// NewIdempotencyCleanupTask constructs the periodic cleanup task.
func NewIdempotencyCleanupTask(olderThan time.Duration) (*asynq.Task, error) {
	body, err := json.Marshal(IdempotencyCleanupPayload{OlderThan: olderThan})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, body, asynq.Queue(QueueDefault)), nil
}

// ParseInvoiceDocumentPayload decodes a TaskInvoiceDocument payload. Undecodable
// payloads are marked with asynq.SkipRetry.
func ParseInvoiceDocumentPayload(t *asynq.Task) (InvoiceDocumentPayload, error) {
	var payload InvoiceDocumentPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("%w: %v: %w", ErrInvalidPayload, err, asynq.SkipRetry)
	}
	if payload.InvoiceID <= 0 {
		return payload, fmt.Errorf("%w: invoice id must be positive: %w", ErrInvalidPayload, asynq.SkipRetry)
	}
	return payload, nil
}

// ParseStatementDocumentPayload decodes a TaskStatementDocument payload.
func ParseStatementDocumentPayload(t *asynq.Task) (StatementDocumentPayload, error) {
	var payload StatementDocumentPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("%w: %v: %w", ErrInvalidPayload, err, asynq.SkipRetry)
	}
	if payload.ClientID <= 0 {
		return payload, fmt.Errorf("%w: client id must be positive: %w", ErrInvalidPayload, asynq.SkipRetry)
	}
	return payload, nil
}
