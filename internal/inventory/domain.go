package inventory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockbook/stockbook/internal/shared"
)

var (
	// ErrProductNotFound indicates the product id is unknown.
	ErrProductNotFound = shared.NotFound("inventory: product not found")
	// ErrVariantNotFound indicates no variant of the product carries the attribute set.
	ErrVariantNotFound = shared.NotFound("inventory: variant not found")
	// ErrNameRequired rejects products without a name.
	ErrNameRequired = shared.InvalidInput("inventory: product name is required")
	// ErrNoVariants rejects products without variants.
	ErrNoVariants = shared.InvalidInput("inventory: at least one variant is required")
	// ErrAttributesRequired rejects variants without attributes.
	ErrAttributesRequired = shared.InvalidInput("inventory: variant attributes are required")
	// ErrInvalidQuantity rejects negative stock quantities.
	ErrInvalidQuantity = shared.InvalidInput("inventory: quantity cannot be negative")
	// ErrInvalidCost rejects negative cost prices.
	ErrInvalidCost = shared.InvalidInput("inventory: cost price cannot be negative")
	// ErrCostAboveSelling rejects variants that would always sell at a loss.
	ErrCostAboveSelling = shared.InvalidInput("inventory: cost price cannot exceed selling price")
	// ErrUnknownProvider rejects products referencing a provider that does not exist.
	ErrUnknownProvider = shared.InvalidInput("inventory: provider does not exist")
)

// Attribute is a single name/value pair such as color=Blue.
type Attribute struct {
	Name  string
	Value string
}

// Attributes is an ordered attribute mapping. Insertion order is kept for
// display; identity uses the canonical form.
type Attributes []Attribute

// Get returns the value stored under name.
func (a Attributes) Get(name string) (string, bool) {
	for _, attr := range a {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return "", false
}

// Set replaces the value for name, appending it when absent.
func (a Attributes) Set(name, value string) Attributes {
	for i := range a {
		if a[i].Name == name {
			out := a.Clone()
			out[i].Value = value
			return out
		}
	}
	return append(a.Clone(), Attribute{Name: name, Value: value})
}

// Clone returns an independent copy.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	copy(out, a)
	return out
}

// Map returns the attributes as an unordered map.
func (a Attributes) Map() map[string]string {
	m := make(map[string]string, len(a))
	for _, attr := range a {
		m[attr.Name] = attr.Value
	}
	return m
}

// Canonical renders the attributes as a JSON object with sorted keys, so
// two sets holding the same pairs in any order are equal.
func (a Attributes) Canonical() string {
	raw, err := json.Marshal(a.Map())
	if err != nil {
		return "{}"
	}
	return string(raw)
}

// Label joins attribute values in insertion order, e.g. "Blue / L".
func (a Attributes) Label() string {
	values := make([]string, 0, len(a))
	for _, attr := range a {
		values = append(values, attr.Value)
	}
	return strings.Join(values, " / ")
}

// AttributesFromMap builds attributes in sorted key order.
func AttributesFromMap(m map[string]string) Attributes {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make(Attributes, 0, len(names))
	for _, name := range names {
		out = append(out, Attribute{Name: name, Value: m[name]})
	}
	return out
}

// MarshalJSON writes a JSON object in insertion order.
func (a Attributes) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, attr := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(attr.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(attr.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping the order keys appear in.
func (a *Attributes) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*a = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("inventory: attributes must be a JSON object")
	}
	out := Attributes{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := keyTok.(string)
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("inventory: attribute %q: %w", name, err)
		}
		out = out.Set(name, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*a = out
	return nil
}

// VariantKey identifies a variant independently of attribute order.
type VariantKey struct {
	ProductID  int64
	Attributes string
}

// KeyOf builds the variant key for a product and attribute set.
func KeyOf(productID int64, attrs Attributes) VariantKey {
	return VariantKey{ProductID: productID, Attributes: attrs.Canonical()}
}

func (k VariantKey) String() string {
	return fmt.Sprintf("%d:%s", k.ProductID, k.Attributes)
}

// Variant is a sellable configuration of a product.
type Variant struct {
	ID           int64           `json:"id"`
	Attributes   Attributes      `json:"attributes"`
	Quantity     int64           `json:"quantity"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
}

// Product groups variants under a name.
type Product struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	ProviderID int64     `json:"provider_id,omitempty"`
	Variants   []Variant `json:"variants"`
	CreatedAt  time.Time `json:"created_at"`
}

// TotalQuantity sums stock across all variants.
func (p Product) TotalQuantity() int64 {
	var total int64
	for _, v := range p.Variants {
		total += v.Quantity
	}
	return total
}

// FindVariant returns the variant matching attrs regardless of attribute order.
func (p Product) FindVariant(attrs Attributes) (Variant, bool) {
	want := attrs.Canonical()
	for _, v := range p.Variants {
		if v.Attributes.Canonical() == want {
			return v, true
		}
	}
	return Variant{}, false
}

// VariantInput describes one variant in a product creation request.
type VariantInput struct {
	Attributes   Attributes      `json:"attributes"`
	Quantity     int64           `json:"quantity"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
}

// CreateProductInput captures a new product with its variants.
type CreateProductInput struct {
	Name       string         `json:"name" validate:"required"`
	ProviderID int64          `json:"provider_id"`
	Variants   []VariantInput `json:"variants" validate:"required,min=1"`
}

// Snapshot is a point-in-time view of the variant store used by a single
// invoice attempt.
type Snapshot struct {
	names    map[int64]string
	variants map[VariantKey]Variant
}

// NewSnapshot indexes products by id and variants by key. When two variants of
// a product share an attribute set the first one wins.
func NewSnapshot(products []Product) *Snapshot {
	s := &Snapshot{
		names:    make(map[int64]string, len(products)),
		variants: make(map[VariantKey]Variant),
	}
	for _, p := range products {
		s.names[p.ID] = p.Name
		for _, v := range p.Variants {
			key := KeyOf(p.ID, v.Attributes)
			if _, exists := s.variants[key]; exists {
				continue
			}
			s.variants[key] = v
		}
	}
	return s
}

// ProductName resolves a product id.
func (s *Snapshot) ProductName(productID int64) (string, bool) {
	if s == nil {
		return "", false
	}
	name, ok := s.names[productID]
	return name, ok
}

// Variant returns the stored variant for key.
func (s *Snapshot) Variant(key VariantKey) (Variant, bool) {
	if s == nil {
		return Variant{}, false
	}
	v, ok := s.variants[key]
	return v, ok
}

// Available reports stock for key. Unknown keys have no stock.
func (s *Snapshot) Available(key VariantKey) int64 {
	v, ok := s.Variant(key)
	if !ok {
		return 0
	}
	return v.Quantity
}
