package valueobject

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Discount is a percentage taken off a unit price, in the range [0, 100)
type Discount struct {
	percent decimal.Decimal
}

// NewDiscount validates and creates a discount from a percentage
func NewDiscount(percent decimal.Decimal) (Discount, error) {
	if percent.IsNegative() || percent.GreaterThanOrEqual(hundred) {
		return Discount{}, fmt.Errorf("discount must be in [0, 100), got %s", percent.String())
	}
	return Discount{percent: percent}, nil
}

// DiscountFromPtr treats an absent percentage as zero
func DiscountFromPtr(percent *decimal.Decimal) (Discount, error) {
	if percent == nil {
		return Discount{percent: decimal.Zero}, nil
	}
	return NewDiscount(*percent)
}

// Percent returns the discount percentage
func (d Discount) Percent() decimal.Decimal {
	return d.percent
}

// IsZero returns true if no discount applies
func (d Discount) IsZero() bool {
	return d.percent.IsZero()
}

// ApplyTo returns price - price*percent/100
func (d Discount) ApplyTo(price decimal.Decimal) decimal.Decimal {
	if d.percent.IsZero() {
		return price
	}
	return price.Sub(price.Mul(d.percent).Div(hundred))
}
