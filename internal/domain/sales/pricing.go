package sales

import (
	"github.com/shopfront/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ComputeLineTotal returns (unitPrice - unitPrice*discount/100) * quantity.
// A nil discount counts as zero. Discounts outside [0, 100) are rejected when
// products are written, so here an invalid value is also treated as zero.
func ComputeLineTotal(unitPrice decimal.Decimal, discountPercent *decimal.Decimal, quantity int) decimal.Decimal {
	discount, err := valueobject.DiscountFromPtr(discountPercent)
	if err != nil {
		discount = valueobject.Discount{}
	}
	return discount.ApplyTo(unitPrice).Mul(decimal.NewFromInt(int64(quantity)))
}

// SumLineTotals adds up the line totals of the given lines
func SumLineTotals(lines []SaleLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.LineTotal)
	}
	return total
}
