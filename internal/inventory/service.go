package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stockbook/stockbook/internal/providers"
	"github.com/stockbook/stockbook/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
	GetVariantStock(ctx context.Context, productID int64, attrs Attributes) (int64, error)
	CreateProduct(ctx context.Context, product Product) (Product, error)
}

// ProviderDirectory resolves the supplier a product is bought from.
type ProviderDirectory interface {
	GetProvider(ctx context.Context, id int64) (providers.Provider, error)
}

// Service coordinates inventory operations.
type Service struct {
	repo      RepositoryPort
	providers ProviderDirectory
}

// NewService builds Service. providers may be nil, in which case provider
// ids are stored unchecked.
func NewService(repo RepositoryPort, providers ProviderDirectory) *Service {
	return &Service{repo: repo, providers: providers}
}

// ListProducts returns all products with their variants.
func (s *Service) ListProducts(ctx context.Context) ([]Product, error) {
	return s.repo.ListProducts(ctx)
}

// GetProduct loads one product.
func (s *Service) GetProduct(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, ErrProductNotFound
	}
	return s.repo.GetProduct(ctx, id)
}

// GetVariantStock reports the current quantity of one variant.
func (s *Service) GetVariantStock(ctx context.Context, productID int64, attrs Attributes) (int64, error) {
	if productID <= 0 {
		return 0, ErrProductNotFound
	}
	if len(attrs) == 0 {
		return 0, ErrAttributesRequired
	}
	return s.repo.GetVariantStock(ctx, productID, attrs)
}

// Snapshot reads the variant store once and indexes it for validation.
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(products), nil
}

// CreateProduct validates and stores a product with its variants.
func (s *Service) CreateProduct(ctx context.Context, input CreateProductInput) (Product, error) {
	product, err := buildProduct(input)
	if err != nil {
		return Product{}, err
	}
	if product.ProviderID != 0 && s.providers != nil {
		if _, err := s.providers.GetProvider(ctx, product.ProviderID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return Product{}, ErrUnknownProvider
			}
			return Product{}, err
		}
	}
	return s.repo.CreateProduct(ctx, product)
}

func buildProduct(input CreateProductInput) (Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Product{}, ErrNameRequired
	}
	if len(input.Variants) == 0 {
		return Product{}, ErrNoVariants
	}
	product := Product{Name: name, ProviderID: input.ProviderID}
	for i, v := range input.Variants {
		if len(v.Attributes) == 0 {
			return Product{}, fmt.Errorf("variant %d: %w", i+1, ErrAttributesRequired)
		}
		if v.Quantity < 0 {
			return Product{}, fmt.Errorf("variant %d: %w", i+1, ErrInvalidQuantity)
		}
		if v.CostPrice.IsNegative() {
			return Product{}, fmt.Errorf("variant %d: %w", i+1, ErrInvalidCost)
		}
		if v.CostPrice.GreaterThan(v.SellingPrice) {
			return Product{}, fmt.Errorf("variant %d: %w", i+1, ErrCostAboveSelling)
		}
		product.Variants = append(product.Variants, Variant{
			Attributes:   v.Attributes.Clone(),
			Quantity:     v.Quantity,
			CostPrice:    v.CostPrice,
			SellingPrice: v.SellingPrice,
		})
	}
	return product, nil
}
