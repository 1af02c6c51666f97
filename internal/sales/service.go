package sales

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockbook/stockbook/internal/clients"
	"github.com/stockbook/stockbook/internal/inventory"
)

// RepositoryPort abstracts invoice persistence.
type RepositoryPort interface {
	InsertInvoice(ctx context.Context, inv Invoice) (Invoice, error)
	GetInvoice(ctx context.Context, id int64) (Invoice, error)
	ListInvoices(ctx context.Context, clientID int64) ([]Invoice, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// VariantStore is the read side of inventory used when invoicing.
type VariantStore interface {
	ListProducts(ctx context.Context) ([]inventory.Product, error)
}

// ClientDirectory resolves invoice recipients.
type ClientDirectory interface {
	GetClient(ctx context.Context, id int64) (clients.Client, error)
}

// IdempotencyPort claims request keys. Satisfied by *shared.IdempotencyStore.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// LedgerInvalidator drops cached statements for a client.
type LedgerInvalidator interface {
	Invalidate(ctx context.Context, clientID int64) error
}

// Recorder receives invoice outcome metrics.
type Recorder interface {
	InvoiceCreated(total decimal.Decimal)
	InvoiceRejected(reason string)
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	// ReserveStock decrements variant stock in the same transaction as the
	// invoice insert.
	ReserveStock bool
}

// Dependencies wires collaborators into Service. Idempotency, Ledger,
// Metrics and Logger are optional.
type Dependencies struct {
	Repo        RepositoryPort
	Store       VariantStore
	Clients     ClientDirectory
	Idempotency IdempotencyPort
	Ledger      LedgerInvalidator
	Metrics     Recorder
	Logger      *slog.Logger
}

// Service creates and reads invoices.
type Service struct {
	repo    RepositoryPort
	store   VariantStore
	clients ClientDirectory
	idem    IdempotencyPort
	ledger  LedgerInvalidator
	metrics Recorder
	logger  *slog.Logger
	cfg     ServiceConfig
	now     func() time.Time
}

// NewService builds Service.
func NewService(deps Dependencies, cfg ServiceConfig) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    deps.Repo,
		store:   deps.Store,
		clients: deps.Clients,
		idem:    deps.Idempotency,
		ledger:  deps.Ledger,
		metrics: deps.Metrics,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// CreateInvoice validates the requested lines against one stock snapshot and
// persists the invoice. Nothing is written unless validation passes.
func (s *Service) CreateInvoice(ctx context.Context, input CreateInvoiceInput) (*Invoice, error) {
	issue, due, err := s.checkHeader(input)
	if err != nil {
		return nil, err
	}
	if _, err := s.clients.GetClient(ctx, input.ClientID); err != nil {
		return nil, err
	}

	key := strings.TrimSpace(input.IdempotencyKey)
	claimed := false
	if key != "" && s.idem != nil {
		if err := s.idem.CheckAndInsert(ctx, "invoice:"+key, "sales"); err != nil {
			return nil, err
		}
		claimed = true
	}

	inv, err := s.createInvoice(ctx, input, issue, due)
	if err != nil {
		if claimed {
			if derr := s.idem.Delete(ctx, "invoice:"+key); derr != nil {
				s.logger.Warn("release idempotency key", slog.String("key", key), slog.Any("error", derr))
			}
		}
		s.recordRejection(err)
		return nil, err
	}

	if s.ledger != nil {
		if err := s.ledger.Invalidate(ctx, inv.ClientID); err != nil {
			s.logger.Warn("invalidate ledger cache", slog.Int64("client_id", inv.ClientID), slog.Any("error", err))
		}
	}
	if s.metrics != nil {
		s.metrics.InvoiceCreated(inv.TotalAmount)
	}
	s.logger.Info("invoice created",
		slog.Int64("invoice_id", inv.ID),
		slog.String("number", inv.Number),
		slog.Int64("client_id", inv.ClientID),
		slog.Int("lines", len(inv.Lines)),
		slog.String("total", inv.TotalAmount.StringFixed(2)))
	return inv, nil
}

func (s *Service) createInvoice(ctx context.Context, input CreateInvoiceInput, issue, due time.Time) (*Invoice, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	snapshot := inventory.NewSnapshot(products)
	requested := resolveLines(input.Lines, snapshot)

	lines, err := Validate(requested, snapshot)
	if err != nil {
		return nil, err
	}
	totals := ComputeTotals(lines)

	number := strings.TrimSpace(input.Number)
	if number == "" {
		number = NewInvoiceNumber()
	}
	inv := Invoice{
		Number:      number,
		ClientID:    input.ClientID,
		IssueDate:   issue,
		DueDate:     due,
		Lines:       lines,
		Notes:       strings.TrimSpace(input.Notes),
		TotalAmount: totals.Total,
	}

	if !s.cfg.ReserveStock {
		saved, err := s.repo.InsertInvoice(ctx, inv)
		if err != nil {
			return nil, err
		}
		return &saved, nil
	}

	var saved Invoice
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, qty := aggregateOrdered(requested)
		for _, k := range order {
			available, ok, err := tx.ReserveStock(ctx, k, qty[k])
			if err != nil {
				return err
			}
			if !ok {
				line := firstLineFor(requested, k)
				return &ValidationError{
					Err:       ErrInsufficientStock,
					Line:      line + 1,
					Product:   lines[line].ProductName,
					Variant:   lines[line].Attributes.Label(),
					Requested: qty[k],
					Available: available,
				}
			}
		}
		var err error
		saved, err = tx.InsertInvoice(ctx, inv)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// PreviewInvoice builds the document for an unsaved invoice. Lines are not
// validated and nothing is persisted.
func (s *Service) PreviewInvoice(ctx context.Context, input CreateInvoiceInput) (*Document, error) {
	if input.ClientID <= 0 {
		return nil, ErrClientRequired
	}
	client, err := s.clients.GetClient(ctx, input.ClientID)
	if err != nil {
		return nil, err
	}
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	snapshot := inventory.NewSnapshot(products)

	doc := &Document{
		InvoiceNumber: strings.TrimSpace(input.Number),
		Client:        client,
		IssueDate:     dateOnly(input.IssueDate),
		DueDate:       dateOnly(input.DueDate),
		Notes:         strings.TrimSpace(input.Notes),
		LineItems:     make([]DocumentLine, 0, len(input.Lines)),
	}
	if doc.InvoiceNumber == "" {
		doc.InvoiceNumber = NewInvoiceNumber()
	}
	if doc.IssueDate.IsZero() {
		doc.IssueDate = dateOnly(s.now())
	}
	requested := resolveLines(input.Lines, snapshot)
	for i, line := range input.Lines {
		name, ok := snapshot.ProductName(line.ProductID)
		if !ok {
			name = "N/A"
		}
		price := requested[i].UnitPrice
		doc.LineItems = append(doc.LineItems, DocumentLine{
			ProductName: name,
			VariantName: line.Attributes.Label(),
			Quantity:    line.Quantity,
			Price:       price,
			Amount:      price.Mul(decimal.NewFromInt(line.Quantity)),
		})
	}
	totals := requestedTotals(requested)
	doc.Subtotal = totals.Subtotal
	doc.Total = totals.Total
	return doc, nil
}

// GetInvoice loads an invoice by id.
func (s *Service) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	if id <= 0 {
		return nil, ErrInvoiceNotFound
	}
	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// ListInvoices lists a client's invoices.
func (s *Service) ListInvoices(ctx context.Context, clientID int64) ([]Invoice, error) {
	if _, err := s.clients.GetClient(ctx, clientID); err != nil {
		return nil, err
	}
	list, err := s.repo.ListInvoices(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []Invoice{}
	}
	return list, nil
}

// InvoiceDocument builds the renderer data for a saved invoice.
func (s *Service) InvoiceDocument(ctx context.Context, id int64) (*Document, error) {
	inv, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	client, err := s.clients.GetClient(ctx, inv.ClientID)
	if err != nil {
		return nil, fmt.Errorf("sales: invoice %s: %w", inv.Number, err)
	}
	return NewDocument(*inv, client), nil
}

// NewDocument maps a saved invoice to renderer data.
func NewDocument(inv Invoice, client clients.Client) *Document {
	totals := ComputeTotals(inv.Lines)
	doc := &Document{
		InvoiceNumber: inv.Number,
		Client:        client,
		IssueDate:     inv.IssueDate,
		DueDate:       inv.DueDate,
		Notes:         inv.Notes,
		Subtotal:      totals.Subtotal,
		Total:         totals.Total,
		LineItems:     make([]DocumentLine, 0, len(inv.Lines)),
	}
	for _, line := range inv.Lines {
		doc.LineItems = append(doc.LineItems, DocumentLine{
			ProductName: line.ProductName,
			VariantName: line.Attributes.Label(),
			Quantity:    line.Quantity,
			Price:       line.UnitPrice,
			Amount:      line.Amount(),
		})
	}
	return doc
}

func (s *Service) checkHeader(input CreateInvoiceInput) (time.Time, time.Time, error) {
	if input.ClientID <= 0 {
		return time.Time{}, time.Time{}, ErrClientRequired
	}
	if input.DueDate.IsZero() {
		return time.Time{}, time.Time{}, ErrDueDateRequired
	}
	issue := dateOnly(input.IssueDate)
	if issue.IsZero() {
		issue = dateOnly(s.now())
	}
	due := dateOnly(input.DueDate)
	if due.Before(issue) {
		return time.Time{}, time.Time{}, ErrDueBeforeIssue
	}
	return issue, due, nil
}

func (s *Service) recordRejection(err error) {
	if s.metrics == nil {
		return
	}
	var verr *ValidationError
	switch {
	case errors.As(err, &verr) && verr.Err == ErrPriceBelowCost:
		s.metrics.InvoiceRejected("price_below_cost")
	case errors.As(err, &verr) && verr.Err == ErrInsufficientStock:
		s.metrics.InvoiceRejected("insufficient_stock")
	case errors.As(err, &verr):
		s.metrics.InvoiceRejected("missing_selection")
	default:
		s.metrics.InvoiceRejected("error")
	}
}

// resolveLines turns caller lines into requested lines holding a copy of the
// selected variant. Lines with no attributes have no selection. Attribute sets
// the snapshot does not know keep their attributes so the stock check reports
// them as unavailable. An omitted price takes the variant's selling price.
func resolveLines(inputs []LineInput, snapshot *inventory.Snapshot) []RequestedLine {
	out := make([]RequestedLine, 0, len(inputs))
	for _, in := range inputs {
		line := RequestedLine{ProductID: in.ProductID, Quantity: in.Quantity}
		if len(in.Attributes) > 0 {
			variant, ok := snapshot.Variant(inventory.KeyOf(in.ProductID, in.Attributes))
			if !ok {
				variant = inventory.Variant{Attributes: in.Attributes.Clone()}
			}
			line.Variant = &variant
			line.UnitPrice = variant.SellingPrice
		}
		if in.UnitPrice != nil {
			line.UnitPrice = *in.UnitPrice
		}
		out = append(out, line)
	}
	return out
}

func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
