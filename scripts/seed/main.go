package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockbook/stockbook/internal/app"
	"github.com/stockbook/stockbook/internal/ar"
	"github.com/stockbook/stockbook/internal/bankaccounts"
	"github.com/stockbook/stockbook/internal/clients"
	"github.com/stockbook/stockbook/internal/inventory"
	"github.com/stockbook/stockbook/internal/platform/db"
	"github.com/stockbook/stockbook/internal/providers"
	"github.com/stockbook/stockbook/internal/sales"
	"github.com/stockbook/stockbook/internal/shared"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	ctx := context.Background()
	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: 2})
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	services := app.NewServices(cfg, pool, nil, nil, logger)

	existing, err := services.Clients.ListClients(ctx)
	if err != nil {
		log.Fatalf("list clients: %v", err)
	}
	if len(existing) > 0 {
		fmt.Println("✓ Seed skipped, clients already present")
		return
	}

	fmt.Println("→ Seeding clients...")
	seeded, err := seedClients(ctx, services.Clients)
	if err != nil {
		log.Fatalf("seed clients: %v", err)
	}

	fmt.Println("→ Seeding providers and bank accounts...")
	provider, err := services.Providers.CreateProvider(ctx, providers.ProviderInput{
		Name: "Harbor Textiles", CompanyName: "Harbor Textiles Ltd", Phone: "+1 555 0177", Address: "9 Dockside Way, Oakland",
	})
	if err != nil {
		log.Fatalf("seed provider: %v", err)
	}
	account, err := services.BankAccounts.CreateBankAccount(ctx, bankaccounts.BankAccountInput{
		Nickname: "Operating", BankName: "First Coast Bank", AccountHolderName: "Stockbook Demo LLC", AccountNumber: "000123456789",
	})
	if err != nil {
		log.Fatalf("seed bank account: %v", err)
	}

	fmt.Println("→ Seeding products...")
	products, err := seedProducts(ctx, services.Inventory, provider.ID)
	if err != nil {
		log.Fatalf("seed products: %v", err)
	}

	fmt.Println("→ Seeding invoices...")
	if err := seedInvoices(ctx, services.Sales, seeded, products); err != nil {
		log.Fatalf("seed invoices: %v", err)
	}

	fmt.Println("→ Seeding payments...")
	if err := seedPayments(ctx, services.AR, seeded, account.ID); err != nil {
		log.Fatalf("seed payments: %v", err)
	}

	fmt.Println("✓ Seed complete at", time.Now().Format(time.RFC3339))
}

func seedClients(ctx context.Context, svc *clients.Service) ([]clients.Client, error) {
	inputs := []clients.CreateClientInput{
		{Name: "Northwind Traders", Phone: "+1 555 0101", Address: "12 Harbour Road, Seattle"},
		{Name: "Blue Lagoon Boutique", Phone: "+1 555 0142", Address: "88 Palm Avenue, Miami"},
		{Name: "Cedar & Co", Phone: "+1 555 0199", Address: "4 Mill Lane, Portland"},
	}
	out := make([]clients.Client, 0, len(inputs))
	for _, in := range inputs {
		c, err := svc.CreateClient(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", in.Name, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func attrs(pairs ...string) inventory.Attributes {
	var a inventory.Attributes
	for i := 0; i+1 < len(pairs); i += 2 {
		a = a.Set(pairs[i], pairs[i+1])
	}
	return a
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedProducts(ctx context.Context, svc *inventory.Service, providerID int64) ([]inventory.Product, error) {
	inputs := []inventory.CreateProductInput{
		{
			Name:       "Linen Shirt",
			ProviderID: providerID,
			Variants: []inventory.VariantInput{
				{Attributes: attrs("color", "White", "size", "M"), Quantity: 40, CostPrice: money("12.50"), SellingPrice: money("29.90")},
				{Attributes: attrs("color", "White", "size", "L"), Quantity: 35, CostPrice: money("12.50"), SellingPrice: money("29.90")},
				{Attributes: attrs("color", "Navy", "size", "L"), Quantity: 20, CostPrice: money("13.00"), SellingPrice: money("31.50")},
			},
		},
		{
			Name:       "Canvas Tote",
			ProviderID: providerID,
			Variants: []inventory.VariantInput{
				{Attributes: attrs("color", "Natural"), Quantity: 120, CostPrice: money("3.10"), SellingPrice: money("9.00")},
				{Attributes: attrs("color", "Black"), Quantity: 80, CostPrice: money("3.40"), SellingPrice: money("9.50")},
			},
		},
		{
			Name: "Ceramic Mug",
			Variants: []inventory.VariantInput{
				{Attributes: attrs("capacity", "350ml", "finish", "Matte"), Quantity: 60, CostPrice: money("2.75"), SellingPrice: money("7.25")},
			},
		},
	}
	out := make([]inventory.Product, 0, len(inputs))
	for _, in := range inputs {
		p, err := svc.CreateProduct(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", in.Name, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// line sells a variant at its selling price.
func line(p inventory.Product, variant int, qty int64) sales.LineInput {
	return sales.LineInput{
		ProductID:  p.ID,
		Attributes: p.Variants[variant].Attributes,
		Quantity:   qty,
	}
}

func seedInvoices(ctx context.Context, svc *sales.Service, cs []clients.Client, ps []inventory.Product) error {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	inputs := []sales.CreateInvoiceInput{
		{
			ClientID:  cs[0].ID,
			IssueDate: today.AddDate(0, 0, -30),
			DueDate:   today.AddDate(0, 0, -16),
			Lines:     []sales.LineInput{line(ps[0], 0, 10), line(ps[0], 1, 5), line(ps[1], 0, 25)},
			Notes:     "Spring restock",
		},
		{
			ClientID:  cs[0].ID,
			IssueDate: today.AddDate(0, 0, -7),
			DueDate:   today.AddDate(0, 0, 7),
			Lines:     []sales.LineInput{line(ps[2], 0, 12)},
		},
		{
			ClientID:  cs[1].ID,
			IssueDate: today.AddDate(0, 0, -3),
			DueDate:   today.AddDate(0, 0, 27),
			Lines:     []sales.LineInput{line(ps[0], 2, 4), line(ps[1], 1, 10)},
		},
	}
	for i, in := range inputs {
		in.IdempotencyKey = fmt.Sprintf("seed-invoice-%d", i+1)
		if _, err := svc.CreateInvoice(ctx, in); err != nil && !errors.Is(err, shared.ErrIdempotencyConflict) {
			return fmt.Errorf("invoice %d: %w", i+1, err)
		}
	}
	return nil
}

func seedPayments(ctx context.Context, svc *ar.Service, cs []clients.Client, account int64) error {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	inputs := []ar.RecordPaymentInput{
		{ClientID: cs[0].ID, Amount: money("300.00"), PaymentDate: today.AddDate(0, 0, -20), Method: ar.MethodBankTransfer, BankAccountID: &account},
		{ClientID: cs[0].ID, Amount: money("50.00"), PaymentDate: today.AddDate(0, 0, -2), Method: ar.MethodCash},
		{ClientID: cs[1].ID, Amount: money("100.00"), PaymentDate: today.AddDate(0, 0, -1), Method: ar.MethodCard, BankAccountID: &account},
	}
	for i, in := range inputs {
		in.IdempotencyKey = fmt.Sprintf("seed-payment-%d", i+1)
		if _, err := svc.RecordPayment(ctx, in); err != nil && !errors.Is(err, shared.ErrIdempotencyConflict) {
			return fmt.Errorf("payment %d: %w", i+1, err)
		}
	}
	return nil
}
