package clients

import (
	"context"
	"strings"
)

// RepositoryPort abstracts client storage.
type RepositoryPort interface {
	InsertClient(ctx context.Context, c Client) (Client, error)
	GetClient(ctx context.Context, id int64) (Client, error)
	ListClients(ctx context.Context) ([]Client, error)
}

// Service manages client records.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// CreateClient validates and stores a client.
func (s *Service) CreateClient(ctx context.Context, input CreateClientInput) (Client, error) {
	c := Client{
		Name:    strings.TrimSpace(input.Name),
		Phone:   strings.TrimSpace(input.Phone),
		Address: strings.TrimSpace(input.Address),
	}
	switch {
	case c.Name == "":
		return Client{}, ErrNameRequired
	case c.Phone == "":
		return Client{}, ErrPhoneRequired
	case c.Address == "":
		return Client{}, ErrAddressRequired
	}
	return s.repo.InsertClient(ctx, c)
}

// GetClient loads a client.
func (s *Service) GetClient(ctx context.Context, id int64) (Client, error) {
	if id <= 0 {
		return Client{}, ErrClientNotFound
	}
	return s.repo.GetClient(ctx, id)
}

// ListClients lists every client.
func (s *Service) ListClients(ctx context.Context) ([]Client, error) {
	return s.repo.ListClients(ctx)
}
