package catalog

import (
	"strings"
	"time"

	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

const (
	maxNameLength        = 200
	maxDescriptionLength = 2000
	maxTagLength         = 50
)

// Product represents a sellable item in the catalog.
// It is the aggregate root for stock, price and discount.
type Product struct {
	shared.BaseAggregateRoot
	Name        string
	Description string
	Price       decimal.Decimal
	Discount    *decimal.Decimal // percent in [0, 100); nil means no discount
	Stock       int
	Tags        []string
	Images      []string // ordered image URLs

	stockChanged bool
}

// NewProduct creates a new product
func NewProduct(name, description string, price decimal.Decimal, stock int) (*Product, error) {
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if err := validateDescription(description); err != nil {
		return nil, err
	}
	if err := validatePrice(price); err != nil {
		return nil, err
	}
	if err := validateStock(stock); err != nil {
		return nil, err
	}

	product := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRootAt(time.Now()),
		Name:              strings.TrimSpace(name),
		Description:       description,
		Price:             price,
		Stock:             stock,
		Tags:              []string{},
		Images:            []string{},
	}

	product.AddDomainEvent(NewProductCreatedEvent(product))

	return product, nil
}

// Update updates the product's basic information
func (p *Product) Update(name, description string) error {
	if err := validateProductName(name); err != nil {
		return err
	}
	if err := validateDescription(description); err != nil {
		return err
	}

	p.Name = strings.TrimSpace(name)
	p.Description = description
	p.touch()

	return nil
}

// SetPrice sets the list price
func (p *Product) SetPrice(price decimal.Decimal) error {
	if err := validatePrice(price); err != nil {
		return err
	}
	p.Price = price
	p.touch()
	return nil
}

// SetDiscount sets or clears the discount percentage
func (p *Product) SetDiscount(percent *decimal.Decimal) error {
	if percent != nil {
		if _, err := valueobject.NewDiscount(*percent); err != nil {
			return shared.NewDomainError("INVALID_DISCOUNT", "Discount must be between 0 (inclusive) and 100 (exclusive)")
		}
		d := *percent
		percent = &d
	}
	p.Discount = percent
	p.touch()
	return nil
}

// SetStock overwrites the stock level. Used by catalog management, never by orders.
// Saving an overwritten stock only succeeds against the version it was read at.
func (p *Product) SetStock(stock int) error {
	if err := validateStock(stock); err != nil {
		return err
	}
	p.Stock = stock
	p.stockChanged = true
	p.touch()
	return nil
}

// StockChanged reports whether SetStock was called since the product was
// loaded or last saved
func (p *Product) StockChanged() bool {
	return p.stockChanged
}

// MarkSaved records the stored version and stock after a successful save
func (p *Product) MarkSaved(version, stock int) {
	p.Version = version
	p.Stock = stock
	p.stockChanged = false
}

// SetTags replaces the tag set. Tags are trimmed, empty ones dropped and
// duplicates removed while keeping first-seen order.
func (p *Product) SetTags(tags []string) error {
	normalized := NormalizeTags(tags)
	for _, t := range normalized {
		if len(t) > maxTagLength {
			return shared.NewDomainError("INVALID_TAG", "Tag cannot exceed 50 characters")
		}
	}
	p.Tags = normalized
	p.touch()
	return nil
}

// AddImages appends image URLs in order
func (p *Product) AddImages(urls ...string) {
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			p.Images = append(p.Images, u)
		}
	}
	p.touch()
}

// DiscountValue returns the discount as a value object, zero when absent
func (p *Product) DiscountValue() valueobject.Discount {
	d, err := valueobject.DiscountFromPtr(p.Discount)
	if err != nil {
		return valueobject.Discount{}
	}
	return d
}

// HasStock reports whether quantity units are available
func (p *Product) HasStock(quantity int) bool {
	return p.Stock >= quantity
}

// MarkUpdated records an update event for publishing
func (p *Product) MarkUpdated() {
	p.AddDomainEvent(NewProductUpdatedEvent(p))
}

// touch stamps the edit time. The version is advanced by the store.
func (p *Product) touch() {
	p.UpdatedAt = time.Now().UTC()
}

// NormalizeTags trims, drops empties and de-duplicates tags
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func validateProductName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > maxNameLength {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}

func validateDescription(description string) error {
	if len(description) > maxDescriptionLength {
		return shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot exceed 2000 characters")
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	return nil
}

func validateStock(stock int) error {
	if stock < 0 {
		return shared.NewDomainError("INVALID_STOCK", "Stock cannot be negative")
	}
	return nil
}
