package providers

import (
	"time"

	"github.com/stockbook/stockbook/internal/shared"
)

var (
	// ErrProviderNotFound indicates the provider id is unknown.
	ErrProviderNotFound = shared.NotFound("providers: provider not found")
	// ErrNameRequired rejects providers without a name.
	ErrNameRequired = shared.InvalidInput("providers: name is required")
	// ErrPhoneRequired rejects providers without a phone number.
	ErrPhoneRequired = shared.InvalidInput("providers: phone is required")
	// ErrAddressRequired rejects providers without an address.
	ErrAddressRequired = shared.InvalidInput("providers: address is required")
)

// Provider is a supplier that products are bought from.
type Provider struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	CompanyName string    `json:"company_name,omitempty"`
	Phone       string    `json:"phone"`
	Address     string    `json:"address"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProviderInput captures a new or edited provider. CompanyName is optional.
type ProviderInput struct {
	Name        string `json:"name" validate:"required,max=200"`
	CompanyName string `json:"company_name" validate:"max=200"`
	Phone       string `json:"phone" validate:"required,max=50"`
	Address     string `json:"address" validate:"required,max=500"`
}
