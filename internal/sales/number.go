package sales

import (
	"strings"

	"github.com/google/uuid"
)

// NewInvoiceNumber returns a short unique number such as INV-1A2B3C4D.
func NewInvoiceNumber() string {
	id := uuid.NewString()
	return "INV-" + strings.ToUpper(id[:strings.IndexByte(id, '-')])
}
