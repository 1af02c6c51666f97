package sales

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/stockbook/stockbook/internal/clients"
	"github.com/stockbook/stockbook/internal/inventory"
	"github.com/stockbook/stockbook/internal/shared"
)

// ============================================================================
// FAKES
// ============================================================================

type memoryRepo struct {
	invoices  []Invoice
	stock     map[inventory.VariantKey]int64
	insertErr error
	inserts   int
	txCalls   int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{stock: make(map[inventory.VariantKey]int64)}
}

func (r *memoryRepo) InsertInvoice(ctx context.Context, inv Invoice) (Invoice, error) {
	r.inserts++
	if r.insertErr != nil {
		return Invoice{}, r.insertErr
	}
	for _, existing := range r.invoices {
		if existing.Number == inv.Number {
			return Invoice{}, ErrDuplicateNumber
		}
	}
	inv.ID = int64(len(r.invoices) + 1)
	inv.CreatedAt = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	r.invoices = append(r.invoices, inv)
	return inv, nil
}

func (r *memoryRepo) GetInvoice(ctx context.Context, id int64) (Invoice, error) {
	for _, inv := range r.invoices {
		if inv.ID == id {
			return inv, nil
		}
	}
	return Invoice{}, ErrInvoiceNotFound
}

func (r *memoryRepo) ListInvoices(ctx context.Context, clientID int64) ([]Invoice, error) {
	var out []Invoice
	for _, inv := range r.invoices {
		if inv.ClientID == clientID {
			out = append(out, inv)
		}
	}
	return out, nil
}

// WithTx applies reservations to a copy and keeps it only when fn succeeds.
func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.txCalls++
	tx := &memoryTx{repo: r, stock: make(map[inventory.VariantKey]int64, len(r.stock))}
	for k, v := range r.stock {
		tx.stock[k] = v
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	r.stock = tx.stock
	return nil
}

type memoryTx struct {
	repo  *memoryRepo
	stock map[inventory.VariantKey]int64
}

func (tx *memoryTx) InsertInvoice(ctx context.Context, inv Invoice) (Invoice, error) {
	return tx.repo.InsertInvoice(ctx, inv)
}

func (tx *memoryTx) ReserveStock(ctx context.Context, key inventory.VariantKey, qty int64) (int64, bool, error) {
	available := tx.stock[key]
	if available < qty {
		return available, false, nil
	}
	tx.stock[key] = available - qty
	return tx.stock[key], true, nil
}

// A store only needs to list products; stock comes from the snapshot.
var _ VariantStore = (*fakeStore)(nil)

type fakeStore struct {
	products []inventory.Product
	err      error
	calls    int
}

func (s *fakeStore) ListProducts(ctx context.Context) ([]inventory.Product, error) {
	s.calls++
	return s.products, s.err
}

type fakeClients map[int64]clients.Client

func (f fakeClients) GetClient(ctx context.Context, id int64) (clients.Client, error) {
	c, ok := f[id]
	if !ok {
		return clients.Client{}, clients.ErrClientNotFound
	}
	return c, nil
}

type fakeIdempotency struct {
	keys    map[string]bool
	deleted []string
}

func (f *fakeIdempotency) CheckAndInsert(ctx context.Context, key, module string) error {
	if f.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	f.keys[key] = true
	return nil
}

func (f *fakeIdempotency) Delete(ctx context.Context, key string) error {
	delete(f.keys, key)
	f.deleted = append(f.deleted, key)
	return nil
}

type fakeLedger struct {
	invalidated []int64
}

func (f *fakeLedger) Invalidate(ctx context.Context, clientID int64) error {
	f.invalidated = append(f.invalidated, clientID)
	return nil
}

type fakeRecorder struct {
	created  int
	rejected []string
}

func (f *fakeRecorder) InvoiceCreated(decimal.Decimal) { f.created++ }

func (f *fakeRecorder) InvoiceRejected(reason string) { f.rejected = append(f.rejected, reason) }

type fixture struct {
	svc     *Service
	repo    *memoryRepo
	store   *fakeStore
	idem    *fakeIdempotency
	ledger  *fakeLedger
	metrics *fakeRecorder
}

func newFixture(cfg ServiceConfig) *fixture {
	f := &fixture{
		repo:    newMemoryRepo(),
		store:   &fakeStore{products: shirtCatalog()},
		idem:    &fakeIdempotency{keys: map[string]bool{}},
		ledger:  &fakeLedger{},
		metrics: &fakeRecorder{},
	}
	f.svc = NewService(Dependencies{
		Repo:        f.repo,
		Store:       f.store,
		Clients:     fakeClients{7: {ID: 7, Name: "Acme", Phone: "555", Address: "Main St"}},
		Idempotency: f.idem,
		Ledger:      f.ledger,
		Metrics:     f.metrics,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, cfg)
	f.svc.now = func() time.Time { return time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC) }
	for _, p := range f.store.products {
		for _, v := range p.Variants {
			f.repo.stock[inventory.KeyOf(p.ID, v.Attributes)] = v.Quantity
		}
	}
	return f
}

func price(s string) *decimal.Decimal {
	d := money(s)
	return &d
}

func validInput() CreateInvoiceInput {
	return CreateInvoiceInput{
		ClientID: 7,
		DueDate:  time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC),
		Notes:    " thanks ",
		Lines: []LineInput{
			{ProductID: 1, Attributes: attrs("Size", "L", "Color", "Blue"), Quantity: 2, UnitPrice: price("10.00")},
			{ProductID: 2, Attributes: attrs("Color", "Black"), Quantity: 1, UnitPrice: price("5.00")},
		},
	}
}

// ============================================================================
// TESTS
// ============================================================================

func TestCreateInvoicePersistsValidatedInvoice(t *testing.T) {
	f := newFixture(ServiceConfig{})

	inv, err := f.svc.CreateInvoice(context.Background(), validInput())
	require.NoError(t, err)
	require.Equal(t, int64(1), inv.ID)
	require.Regexp(t, `^INV-[0-9A-F]{8}$`, inv.Number)
	require.Equal(t, "25.00", inv.TotalAmount.StringFixed(2))
	require.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), inv.IssueDate)
	require.Equal(t, "thanks", inv.Notes)
	require.Len(t, inv.Lines, 2)
	require.Equal(t, "Shirt", inv.Lines[0].ProductName)
	require.Equal(t, "Blue / L", inv.Lines[0].Attributes.Label())
	require.True(t, money("6.00").Equal(inv.Lines[0].UnitCost))

	require.Equal(t, 1, f.store.calls)
	require.Equal(t, []int64{7}, f.ledger.invalidated)
	require.Equal(t, 1, f.metrics.created)
	require.Zero(t, f.repo.txCalls)
}

func TestCreateInvoiceHeaderRules(t *testing.T) {
	cases := map[string]struct {
		mutate func(*CreateInvoiceInput)
		err    error
	}{
		"client required":    {func(in *CreateInvoiceInput) { in.ClientID = 0 }, ErrClientRequired},
		"due date required":  {func(in *CreateInvoiceInput) { in.DueDate = time.Time{} }, ErrDueDateRequired},
		"due before issue":   {func(in *CreateInvoiceInput) { in.IssueDate = in.DueDate.AddDate(0, 0, 1) }, ErrDueBeforeIssue},
		"unknown client":     {func(in *CreateInvoiceInput) { in.ClientID = 8 }, clients.ErrClientNotFound},
		"no line items":      {func(in *CreateInvoiceInput) { in.Lines = nil }, ErrMissingSelection},
		"line missing attrs": {func(in *CreateInvoiceInput) { in.Lines[1].Attributes = nil }, ErrMissingSelection},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(ServiceConfig{})
			in := validInput()
			tc.mutate(&in)

			_, err := f.svc.CreateInvoice(context.Background(), in)
			require.ErrorIs(t, err, tc.err)
			require.Zero(t, f.repo.inserts)
			require.Empty(t, f.ledger.invalidated)
		})
	}
}

func TestCreateInvoiceValidationFailureWritesNothing(t *testing.T) {
	f := newFixture(ServiceConfig{})
	in := validInput()
	in.Lines[0].UnitPrice = price("6.00")

	_, err := f.svc.CreateInvoice(context.Background(), in)
	require.ErrorIs(t, err, ErrPriceBelowCost)
	require.ErrorIs(t, err, shared.ErrInvalidInput)
	require.Zero(t, f.repo.inserts)
	require.Equal(t, []string{"price_below_cost"}, f.metrics.rejected)

	in = validInput()
	in.Lines = append(in.Lines, LineInput{ProductID: 1, Attributes: attrs("Color", "Blue", "Size", "L"), Quantity: 4, UnitPrice: price("11")})
	_, err = f.svc.CreateInvoice(context.Background(), in)
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.Zero(t, f.repo.inserts)
}

func TestCreateInvoiceSurfacesPersistenceError(t *testing.T) {
	f := newFixture(ServiceConfig{})
	f.repo.insertErr = shared.Persistence("insert invoice", errors.New("connection refused"))

	_, err := f.svc.CreateInvoice(context.Background(), validInput())
	require.ErrorIs(t, err, shared.ErrPersistence)
	require.Contains(t, err.Error(), "connection refused")
	require.Equal(t, 1, f.repo.inserts)
	require.Empty(t, f.ledger.invalidated)
	require.Equal(t, []string{"error"}, f.metrics.rejected)
}

func TestCreateInvoiceStoreFailure(t *testing.T) {
	f := newFixture(ServiceConfig{})
	f.store.err = shared.Persistence("list products", errors.New("timeout"))

	_, err := f.svc.CreateInvoice(context.Background(), validInput())
	require.ErrorIs(t, err, shared.ErrPersistence)
	require.Zero(t, f.repo.inserts)
}

func TestCreateInvoiceIdempotencyKey(t *testing.T) {
	f := newFixture(ServiceConfig{})
	in := validInput()
	in.IdempotencyKey = "abc"

	_, err := f.svc.CreateInvoice(context.Background(), in)
	require.NoError(t, err)

	_, err = f.svc.CreateInvoice(context.Background(), in)
	require.ErrorIs(t, err, shared.ErrIdempotencyConflict)
	require.ErrorIs(t, err, shared.ErrConflict)
	require.Equal(t, 1, f.repo.inserts)
}

func TestCreateInvoiceReleasesKeyOnFailure(t *testing.T) {
	f := newFixture(ServiceConfig{})
	in := validInput()
	in.IdempotencyKey = "retry-me"
	in.Lines[0].Quantity = 50

	_, err := f.svc.CreateInvoice(context.Background(), in)
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.Equal(t, []string{"invoice:retry-me"}, f.idem.deleted)

	in.Lines[0].Quantity = 1
	_, err = f.svc.CreateInvoice(context.Background(), in)
	require.NoError(t, err)
}

func TestCreateInvoiceKeepsSuppliedNumber(t *testing.T) {
	f := newFixture(ServiceConfig{})
	in := validInput()
	in.Number = "INV-0001"

	inv, err := f.svc.CreateInvoice(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, "INV-0001", inv.Number)

	_, err = f.svc.CreateInvoice(context.Background(), in)
	require.ErrorIs(t, err, ErrDuplicateNumber)
}

func TestCreateInvoiceReservesStock(t *testing.T) {
	f := newFixture(ServiceConfig{ReserveStock: true})
	blueL := inventory.KeyOf(1, attrs("Color", "Blue", "Size", "L"))

	_, err := f.svc.CreateInvoice(context.Background(), validInput())
	require.NoError(t, err)
	require.Equal(t, 1, f.repo.txCalls)
	require.Equal(t, int64(3), f.repo.stock[blueL])

	// Another writer drained the variant after the snapshot was read.
	f.repo.stock[blueL] = 1
	_, err = f.svc.CreateInvoice(context.Background(), validInput())
	require.ErrorIs(t, err, ErrInsufficientStock)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, int64(1), verr.Available)
	require.Equal(t, int64(2), verr.Requested)
	require.Equal(t, int64(1), f.repo.stock[blueL])
	require.Len(t, f.repo.invoices, 1)
}

func TestCreateInvoiceOversizedQuantitiesNeverAddStock(t *testing.T) {
	f := newFixture(ServiceConfig{ReserveStock: true})
	blueL := inventory.KeyOf(1, attrs("Color", "Blue", "Size", "L"))
	in := validInput()
	in.Lines = []LineInput{
		{ProductID: 1, Attributes: attrs("Color", "Blue", "Size", "L"), Quantity: MaxLineQuantity, UnitPrice: price("10")},
		{ProductID: 1, Attributes: attrs("Size", "L", "Color", "Blue"), Quantity: MaxLineQuantity, UnitPrice: price("10")},
	}

	_, err := f.svc.CreateInvoice(context.Background(), in)
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.Equal(t, int64(5), f.repo.stock[blueL])
	require.Empty(t, f.repo.invoices)
}

func TestCreateInvoiceDefaultsPriceToSellingPrice(t *testing.T) {
	f := newFixture(ServiceConfig{})
	in := validInput()
	in.Lines[0].UnitPrice = nil

	inv, err := f.svc.CreateInvoice(context.Background(), in)
	require.NoError(t, err)
	require.True(t, money("10.00").Equal(inv.Lines[0].UnitPrice))
	require.True(t, money("5.00").Equal(inv.Lines[1].UnitPrice))
	require.Equal(t, "25.00", inv.TotalAmount.StringFixed(2))

	// An explicit price still wins over the catalog price.
	in.Lines[0].UnitPrice = price("12.00")
	inv, err = f.svc.CreateInvoice(context.Background(), in)
	require.NoError(t, err)
	require.True(t, money("12.00").Equal(inv.Lines[0].UnitPrice))
}

func TestPreviewInvoiceDefaultsPrice(t *testing.T) {
	f := newFixture(ServiceConfig{})
	in := validInput()
	in.Lines[1].UnitPrice = nil

	doc, err := f.svc.PreviewInvoice(context.Background(), in)
	require.NoError(t, err)
	require.True(t, money("5.00").Equal(doc.LineItems[1].Price))
	require.Equal(t, "25.00", doc.Total.StringFixed(2))
}

func TestPreviewInvoiceDoesNotValidateOrPersist(t *testing.T) {
	f := newFixture(ServiceConfig{})
	in := validInput()
	in.Lines[0].UnitPrice = price("1.00")
	in.Lines = append(in.Lines, LineInput{ProductID: 42, Quantity: 1, UnitPrice: price("3")})

	doc, err := f.svc.PreviewInvoice(context.Background(), in)
	require.NoError(t, err)
	require.Zero(t, f.repo.inserts)
	require.Equal(t, "Acme", doc.Client.Name)
	require.Len(t, doc.LineItems, 3)
	require.Equal(t, "Shirt", doc.LineItems[0].ProductName)
	require.Equal(t, "L / Blue", doc.LineItems[0].VariantName)
	require.Equal(t, "N/A", doc.LineItems[2].ProductName)
	require.Equal(t, "10.00", doc.Total.StringFixed(2))
	require.NotEmpty(t, doc.InvoiceNumber)
}

func TestInvoiceDocumentFromSavedInvoice(t *testing.T) {
	f := newFixture(ServiceConfig{})
	inv, err := f.svc.CreateInvoice(context.Background(), validInput())
	require.NoError(t, err)

	// Later stock or price changes must not affect the saved document.
	f.store.products[0].Variants[0].SellingPrice = money("99")

	doc, err := f.svc.InvoiceDocument(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, inv.Number, doc.InvoiceNumber)
	require.Equal(t, "Blue / L", doc.LineItems[0].VariantName)
	require.Equal(t, "20.00", doc.LineItems[0].Amount.StringFixed(2))
	require.Equal(t, "25.00", doc.Subtotal.StringFixed(2))

	_, err = f.svc.InvoiceDocument(context.Background(), 99)
	require.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestListInvoices(t *testing.T) {
	f := newFixture(ServiceConfig{})
	list, err := f.svc.ListInvoices(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, list)
	require.Empty(t, list)

	_, err = f.svc.CreateInvoice(context.Background(), validInput())
	require.NoError(t, err)
	list, err = f.svc.ListInvoices(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = f.svc.ListInvoices(context.Background(), 8)
	require.ErrorIs(t, err, clients.ErrClientNotFound)
}
