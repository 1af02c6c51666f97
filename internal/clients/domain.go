package clients

import (
	"time"

	"github.com/stockbook/stockbook/internal/shared"
)

var (
	// ErrClientNotFound indicates the client id is unknown.
	ErrClientNotFound = shared.NotFound("clients: client not found")
	// ErrNameRequired rejects clients without a name.
	ErrNameRequired = shared.InvalidInput("clients: name is required")
	// ErrPhoneRequired rejects clients without a phone number.
	ErrPhoneRequired = shared.InvalidInput("clients: phone is required")
	// ErrAddressRequired rejects clients without an address.
	ErrAddressRequired = shared.InvalidInput("clients: address is required")
)

// Client is a customer that receives invoices and makes payments.
type Client struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateClientInput captures a new client.
type CreateClientInput struct {
	Name    string `json:"name" validate:"required,max=200"`
	Phone   string `json:"phone" validate:"required,max=50"`
	Address string `json:"address" validate:"required,max=500"`
}
