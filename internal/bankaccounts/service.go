package bankaccounts

import (
	"context"
	"strings"
)

// RepositoryPort abstracts bank account storage.
type RepositoryPort interface {
	InsertBankAccount(ctx context.Context, a BankAccount) (BankAccount, error)
	GetBankAccount(ctx context.Context, id int64) (BankAccount, error)
	ListBankAccounts(ctx context.Context) ([]BankAccount, error)
	UpdateBankAccount(ctx context.Context, a BankAccount) (BankAccount, error)
	DeleteBankAccount(ctx context.Context, id int64) error
}

// Service manages the business's bank accounts.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// CreateBankAccount validates and stores an account.
func (s *Service) CreateBankAccount(ctx context.Context, input BankAccountInput) (BankAccount, error) {
	a, err := buildAccount(input)
	if err != nil {
		return BankAccount{}, err
	}
	return s.repo.InsertBankAccount(ctx, a)
}

// GetBankAccount loads an account.
func (s *Service) GetBankAccount(ctx context.Context, id int64) (BankAccount, error) {
	if id <= 0 {
		return BankAccount{}, ErrBankAccountNotFound
	}
	return s.repo.GetBankAccount(ctx, id)
}

// ListBankAccounts lists every account.
func (s *Service) ListBankAccounts(ctx context.Context) ([]BankAccount, error) {
	return s.repo.ListBankAccounts(ctx)
}

// UpdateBankAccount replaces an account's details.
func (s *Service) UpdateBankAccount(ctx context.Context, id int64, input BankAccountInput) (BankAccount, error) {
	if id <= 0 {
		return BankAccount{}, ErrBankAccountNotFound
	}
	a, err := buildAccount(input)
	if err != nil {
		return BankAccount{}, err
	}
	a.ID = id
	return s.repo.UpdateBankAccount(ctx, a)
}

// DeleteBankAccount removes an account that no payment references.
func (s *Service) DeleteBankAccount(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrBankAccountNotFound
	}
	return s.repo.DeleteBankAccount(ctx, id)
}

func buildAccount(input BankAccountInput) (BankAccount, error) {
	a := BankAccount{
		Nickname:          strings.TrimSpace(input.Nickname),
		BankName:          strings.TrimSpace(input.BankName),
		AccountHolderName: strings.TrimSpace(input.AccountHolderName),
		AccountNumber:     strings.TrimSpace(input.AccountNumber),
	}
	if a.Nickname == "" || a.BankName == "" || a.AccountHolderName == "" || a.AccountNumber == "" {
		return BankAccount{}, ErrFieldsRequired
	}
	return a, nil
}
