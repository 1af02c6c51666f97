package ar

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/stockbook/stockbook/internal/bankaccounts"
	"github.com/stockbook/stockbook/internal/clients"
	"github.com/stockbook/stockbook/internal/sales"
	"github.com/stockbook/stockbook/internal/shared"
)

// RepositoryPort defines data access methods for AR.
type RepositoryPort interface {
	InsertPayment(ctx context.Context, p Payment) (Payment, error)
	ListPayments(ctx context.Context, clientID int64) ([]Payment, error)
}

// InvoiceSource lists a client's saved invoices.
type InvoiceSource interface {
	ListInvoices(ctx context.Context, clientID int64) ([]sales.Invoice, error)
}

// ClientDirectory resolves clients.
type ClientDirectory interface {
	GetClient(ctx context.Context, id int64) (clients.Client, error)
}

// BankAccountDirectory resolves the accounts non-cash payments land in.
type BankAccountDirectory interface {
	GetBankAccount(ctx context.Context, id int64) (bankaccounts.BankAccount, error)
}

// IdempotencyPort claims request keys. Satisfied by *shared.IdempotencyStore.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Recorder receives payment and statement metrics.
type Recorder interface {
	PaymentRecorded(amount decimal.Decimal)
	StatementServed(source string)
}

// Dependencies wires collaborators into Service. BankAccounts, Cache,
// Idempotency, Metrics and Logger are optional.
type Dependencies struct {
	Repo         RepositoryPort
	Invoices     InvoiceSource
	Clients      ClientDirectory
	BankAccounts BankAccountDirectory
	Cache        *Cache
	Idempotency  IdempotencyPort
	Metrics      Recorder
	Logger       *slog.Logger
}

// Service handles AR business logic.
type Service struct {
	repo     RepositoryPort
	invoices InvoiceSource
	clients  ClientDirectory
	accounts BankAccountDirectory
	cache    *Cache
	idem     IdempotencyPort
	metrics  Recorder
	logger   *slog.Logger
	group    singleflight.Group
	now      func() time.Time
}

// NewService builds Service instance.
func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     deps.Repo,
		invoices: deps.Invoices,
		clients:  deps.Clients,
		accounts: deps.BankAccounts,
		cache:    deps.Cache,
		idem:     deps.Idempotency,
		metrics:  deps.Metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// RecordPayment validates and stores a payment. Cash payments never carry a
// bank account.
func (s *Service) RecordPayment(ctx context.Context, input RecordPaymentInput) (*Payment, error) {
	p, err := buildPayment(input)
	if err != nil {
		return nil, err
	}
	if _, err := s.clients.GetClient(ctx, p.ClientID); err != nil {
		return nil, err
	}
	if p.BankAccountID != nil && s.accounts != nil {
		if _, err := s.accounts.GetBankAccount(ctx, *p.BankAccountID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, ErrUnknownBankAccount
			}
			return nil, err
		}
	}

	key := strings.TrimSpace(input.IdempotencyKey)
	if key != "" && s.idem != nil {
		if err := s.idem.CheckAndInsert(ctx, "payment:"+key, "ar"); err != nil {
			return nil, err
		}
	}
	saved, err := s.repo.InsertPayment(ctx, p)
	if err != nil {
		if key != "" && s.idem != nil {
			if derr := s.idem.Delete(ctx, "payment:"+key); derr != nil {
				s.logger.Warn("release idempotency key", slog.String("key", key), slog.Any("error", derr))
			}
		}
		return nil, err
	}

	if err := s.cache.Invalidate(ctx, saved.ClientID); err != nil {
		s.logger.Warn("invalidate ledger cache", slog.Int64("client_id", saved.ClientID), slog.Any("error", err))
	}
	if s.metrics != nil {
		s.metrics.PaymentRecorded(saved.Amount)
	}
	s.logger.Info("payment recorded",
		slog.Int64("payment_id", saved.ID),
		slog.Int64("client_id", saved.ClientID),
		slog.String("method", string(saved.Method)),
		slog.String("amount", saved.Amount.StringFixed(2)))
	return &saved, nil
}

func buildPayment(input RecordPaymentInput) (Payment, error) {
	if input.ClientID <= 0 {
		return Payment{}, ErrClientRequired
	}
	if !input.Amount.IsPositive() {
		return Payment{}, ErrInvalidAmount
	}
	if !input.Method.Valid() {
		return Payment{}, ErrInvalidMethod
	}
	if input.PaymentDate.IsZero() {
		return Payment{}, ErrPaymentDateRequired
	}
	p := Payment{
		ClientID:    input.ClientID,
		Amount:      input.Amount,
		PaymentDate: dateOnly(input.PaymentDate),
		Method:      input.Method,
		Notes:       strings.TrimSpace(input.Notes),
	}
	if input.Method != MethodCash {
		if input.BankAccountID == nil || *input.BankAccountID <= 0 {
			return Payment{}, ErrBankAccountRequired
		}
		id := *input.BankAccountID
		p.BankAccountID = &id
	}
	return p, nil
}

// ListPayments lists a client's payments.
func (s *Service) ListPayments(ctx context.Context, clientID int64) ([]Payment, error) {
	if _, err := s.clients.GetClient(ctx, clientID); err != nil {
		return nil, err
	}
	list, err := s.repo.ListPayments(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []Payment{}
	}
	return list, nil
}

// Statement returns the client's ledger statement, served from cache when
// the client has had no invoice or payment since it was built. Concurrent
// calls for one client share a single build.
func (s *Service) Statement(ctx context.Context, clientID int64) (*Statement, error) {
	if clientID <= 0 {
		return nil, clients.ErrClientNotFound
	}
	ch := s.group.DoChan(strconv.FormatInt(clientID, 10), func() (any, error) {
		return s.cachedStatement(context.WithoutCancel(ctx), clientID)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Statement), nil
	}
}

func (s *Service) cachedStatement(ctx context.Context, clientID int64) (*Statement, error) {
	key, err := s.cache.StatementKey(ctx, clientID)
	if err != nil {
		s.logger.Warn("ledger cache unavailable", slog.Int64("client_id", clientID), slog.Any("error", err))
		return s.buildStatement(ctx, clientID)
	}

	var (
		st       Statement
		built    *Statement
		buildErr error
	)
	err = s.cache.FetchJSON(ctx, key, &st, func(ctx context.Context) (any, error) {
		built, buildErr = s.buildStatement(ctx, clientID)
		return built, buildErr
	})
	if buildErr != nil {
		return nil, buildErr
	}
	if err != nil {
		s.logger.Warn("ledger cache unavailable", slog.Int64("client_id", clientID), slog.Any("error", err))
		if built != nil {
			s.served("built")
			return built, nil
		}
		return s.buildStatement(ctx, clientID)
	}
	if built != nil {
		s.served("built")
	} else {
		s.served("cache")
	}
	return &st, nil
}

func (s *Service) served(source string) {
	if s.metrics != nil {
		s.metrics.StatementServed(source)
	}
}

func (s *Service) buildStatement(ctx context.Context, clientID int64) (*Statement, error) {
	var (
		client   clients.Client
		invoices []sales.Invoice
		payments []Payment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		client, err = s.clients.GetClient(gctx, clientID)
		return err
	})
	g.Go(func() error {
		var err error
		invoices, err = s.invoices.ListInvoices(gctx, clientID)
		return err
	})
	g.Go(func() error {
		var err error
		payments, err = s.repo.ListPayments(gctx, clientID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if invoices == nil {
		invoices = []sales.Invoice{}
	}
	if payments == nil {
		payments = []Payment{}
	}
	return &Statement{
		Client:      client,
		Invoices:    invoices,
		Payments:    payments,
		Ledger:      BuildLedger(invoices, payments),
		GeneratedAt: s.now().UTC(),
	}, nil
}

// Invalidate drops the client's cached statement.
func (s *Service) Invalidate(ctx context.Context, clientID int64) error {
	return s.cache.Invalidate(ctx, clientID)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
