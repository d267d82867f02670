package sales

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SaleLine is one product-and-quantity entry of a sale. Name, UnitPrice and
// Discount are captured when the sale is created and never change afterwards.
type SaleLine struct {
	ProductID uuid.UUID
	Name      string
	UnitPrice decimal.Decimal
	Discount  *decimal.Decimal
	Quantity  int
	LineTotal decimal.Decimal
}

// NewSaleLine snapshots a product's name, price and discount for quantity units
func NewSaleLine(productID uuid.UUID, name string, unitPrice decimal.Decimal, discount *decimal.Decimal, quantity int) SaleLine {
	var d *decimal.Decimal
	if discount != nil {
		v := *discount
		d = &v
	}
	return SaleLine{
		ProductID: productID,
		Name:      name,
		UnitPrice: unitPrice,
		Discount:  d,
		Quantity:  quantity,
		LineTotal: ComputeLineTotal(unitPrice, d, quantity),
	}
}

// Customer is the contact left by an anonymous buyer
type Customer struct {
	Email string
	Phone string
}

// Sale represents a persisted order
type Sale struct {
	shared.BaseAggregateRoot
	OrderType     OrderType
	Lines         []SaleLine
	RepairTotal   *decimal.Decimal
	Description   string
	Total         decimal.Decimal
	Status        Status
	PaymentMethod PaymentMethod
	UserID        *uuid.UUID
	Customer      *Customer
}

// NewSaleParams carries everything needed to assemble a sale
type NewSaleParams struct {
	OrderType     OrderType
	Lines         []SaleLine
	RepairTotal   *decimal.Decimal
	Description   string
	PaymentMethod PaymentMethod
	UserID        *uuid.UUID
	Customer      *Customer
	CreatedAt     time.Time
}

// ValidateShape checks that the fields required by the order type are present
// and the ones it forbids are absent. It runs before any stock is touched.
func ValidateShape(orderType OrderType, lineCount int, repairTotal *decimal.Decimal, description string) error {
	if !orderType.IsValid() {
		return shared.NewValidationError("orderType must be one of STANDARD_PRODUCT_SALE, SERVICE_REPAIR, MIXED")
	}

	if orderType.HasProductLines() && lineCount == 0 {
		return shared.NewValidationError("products are required for " + orderType.String())
	}
	if !orderType.HasProductLines() && lineCount > 0 {
		return shared.NewValidationError("products are not allowed for " + orderType.String())
	}

	if orderType.HasRepair() {
		if repairTotal == nil {
			return shared.NewValidationError("repairTotal is required for " + orderType.String())
		}
		if repairTotal.IsNegative() {
			return shared.NewValidationError("repairTotal cannot be negative")
		}
		if strings.TrimSpace(description) == "" {
			return shared.NewValidationError("description is required for " + orderType.String())
		}
	} else if repairTotal != nil || strings.TrimSpace(description) != "" {
		return shared.NewValidationError("repairTotal and description are only allowed for repair orders")
	}

	return nil
}

// NewSale assembles a sale from reconciled lines. The status always starts as PENDING.
func NewSale(p NewSaleParams) (*Sale, error) {
	if err := ValidateShape(p.OrderType, len(p.Lines), p.RepairTotal, p.Description); err != nil {
		return nil, err
	}
	if !p.PaymentMethod.IsValid() {
		return nil, shared.NewValidationError("paymentMethod must be CASH or CARD")
	}
	for _, l := range p.Lines {
		if l.Quantity <= 0 {
			return nil, shared.ErrInvalidQuantity
		}
	}

	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	sale := &Sale{
		BaseAggregateRoot: shared.NewBaseAggregateRootAt(createdAt),
		OrderType:         p.OrderType,
		Lines:             p.Lines,
		Description:       strings.TrimSpace(p.Description),
		Status:            StatusPending,
		PaymentMethod:     p.PaymentMethod,
		UserID:            p.UserID,
		Customer:          p.Customer,
	}
	if p.RepairTotal != nil {
		rt := *p.RepairTotal
		sale.RepairTotal = &rt
	}
	if sale.Lines == nil {
		sale.Lines = []SaleLine{}
	}
	sale.Total = sale.computeTotal()

	sale.AddDomainEvent(NewSaleCreatedEvent(sale))

	return sale, nil
}

// computeTotal applies the order type rule:
// product sale = sum of lines, repair = repair total, mixed = both.
func (s *Sale) computeTotal() decimal.Decimal {
	switch s.OrderType {
	case OrderTypeStandardProductSale:
		return SumLineTotals(s.Lines)
	case OrderTypeServiceRepair:
		return *s.RepairTotal
	case OrderTypeMixed:
		return s.RepairTotal.Add(SumLineTotals(s.Lines))
	}
	return decimal.Zero
}

// ChangeStatus sets a new status. A nil payment method keeps the stored one.
func (s *Sale) ChangeStatus(status Status, paymentMethod *PaymentMethod) error {
	if !status.IsValid() {
		return shared.ErrInvalidStatus
	}
	if paymentMethod != nil && !paymentMethod.IsValid() {
		return shared.NewValidationError("paymentMethod must be CASH or CARD")
	}

	from := s.Status
	s.Status = status
	if paymentMethod != nil {
		s.PaymentMethod = *paymentMethod
	}
	s.UpdatedAt = time.Now().UTC()
	s.IncrementVersion()

	s.AddDomainEvent(NewSaleStatusChangedEvent(s, from))

	return nil
}

// ItemCount returns the number of units across all lines
func (s *Sale) ItemCount() int {
	n := 0
	for _, l := range s.Lines {
		n += l.Quantity
	}
	return n
}
