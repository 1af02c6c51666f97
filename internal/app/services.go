package app

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/stockbook/stockbook/internal/ar"
	"github.com/stockbook/stockbook/internal/bankaccounts"
	"github.com/stockbook/stockbook/internal/clients"
	"github.com/stockbook/stockbook/internal/inventory"
	"github.com/stockbook/stockbook/internal/observability"
	"github.com/stockbook/stockbook/internal/providers"
	"github.com/stockbook/stockbook/internal/sales"
	"github.com/stockbook/stockbook/internal/shared"
)

// Services is the domain service graph shared by the HTTP server and the worker.
type Services struct {
	Inventory    *inventory.Service
	Clients      *clients.Service
	Providers    *providers.Service
	BankAccounts *bankaccounts.Service
	Sales        *sales.Service
	AR           *ar.Service
	Idempotency  *shared.IdempotencyStore
	LedgerCache  *ar.Cache
}

// NewServices wires repositories and services. redisClient may be nil, in which
// case statements are always built from the record store.
func NewServices(cfg *Config, pool *pgxpool.Pool, redisClient *redis.Client, metrics *observability.Metrics, logger *slog.Logger) *Services {
	idempotency := shared.NewIdempotencyStore(pool)

	var ledgerCache *ar.Cache
	if redisClient != nil {
		ledgerCache = ar.NewCache(redisClient, cfg.LedgerCacheTTL)
	}

	providerService := providers.NewService(providers.NewRepository(pool))
	bankService := bankaccounts.NewService(bankaccounts.NewRepository(pool))
	inventoryService := inventory.NewService(inventory.NewRepository(pool), providerService)
	clientService := clients.NewService(clients.NewRepository(pool))

	salesDeps := sales.Dependencies{
		Repo:        sales.NewRepository(pool),
		Store:       inventoryService,
		Clients:     clientService,
		Idempotency: idempotency,
		Metrics:     metrics,
		Logger:      logger.With(slog.String("module", "sales")),
	}
	if ledgerCache != nil {
		salesDeps.Ledger = ledgerCache
	}
	salesService := sales.NewService(salesDeps, sales.ServiceConfig{ReserveStock: cfg.InvoiceReserveStock})

	arService := ar.NewService(ar.Dependencies{
		Repo:         ar.NewRepository(pool),
		Invoices:     salesService,
		Clients:      clientService,
		BankAccounts: bankService,
		Cache:        ledgerCache,
		Idempotency:  idempotency,
		Metrics:      metrics,
		Logger:       logger.With(slog.String("module", "ar")),
	})

	return &Services{
		Inventory:    inventoryService,
		Clients:      clientService,
		Providers:    providerService,
		BankAccounts: bankService,
		Sales:        salesService,
		AR:           arService,
		Idempotency:  idempotency,
		LedgerCache:  ledgerCache,
	}
}
