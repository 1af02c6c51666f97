package providers

import (
	"context"
	"strings"
)

// RepositoryPort abstracts provider storage.
type RepositoryPort interface {
	InsertProvider(ctx context.Context, p Provider) (Provider, error)
	GetProvider(ctx context.Context, id int64) (Provider, error)
	ListProviders(ctx context.Context) ([]Provider, error)
	UpdateProvider(ctx context.Context, p Provider) (Provider, error)
	DeleteProvider(ctx context.Context, id int64) error
}

// Service manages provider records.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// CreateProvider validates and stores a provider.
func (s *Service) CreateProvider(ctx context.Context, input ProviderInput) (Provider, error) {
	p, err := buildProvider(input)
	if err != nil {
		return Provider{}, err
	}
	return s.repo.InsertProvider(ctx, p)
}

// GetProvider loads a provider.
func (s *Service) GetProvider(ctx context.Context, id int64) (Provider, error) {
	if id <= 0 {
		return Provider{}, ErrProviderNotFound
	}
	return s.repo.GetProvider(ctx, id)
}

// ListProviders lists every provider.
func (s *Service) ListProviders(ctx context.Context) ([]Provider, error) {
	return s.repo.ListProviders(ctx)
}

// UpdateProvider replaces a provider's details.
func (s *Service) UpdateProvider(ctx context.Context, id int64, input ProviderInput) (Provider, error) {
	if id <= 0 {
		return Provider{}, ErrProviderNotFound
	}
	p, err := buildProvider(input)
	if err != nil {
		return Provider{}, err
	}
	p.ID = id
	return s.repo.UpdateProvider(ctx, p)
}

// DeleteProvider removes a provider. Its products keep existing without one.
func (s *Service) DeleteProvider(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrProviderNotFound
	}
	return s.repo.DeleteProvider(ctx, id)
}

func buildProvider(input ProviderInput) (Provider, error) {
	p := Provider{
		Name:        strings.TrimSpace(input.Name),
		CompanyName: strings.TrimSpace(input.CompanyName),
		Phone:       strings.TrimSpace(input.Phone),
		Address:     strings.TrimSpace(input.Address),
	}
	switch {
	case p.Name == "":
		return Provider{}, ErrNameRequired
	case p.Phone == "":
		return Provider{}, ErrPhoneRequired
	case p.Address == "":
		return Provider{}, ErrAddressRequired
	}
	return p, nil
}
