package sales

import "strings"

// OrderType classifies what a sale is made of
type OrderType string

const (
	OrderTypeStandardProductSale OrderType = "STANDARD_PRODUCT_SALE"
	OrderTypeServiceRepair       OrderType = "SERVICE_REPAIR"
	OrderTypeMixed               OrderType = "MIXED"
)

// IsValid checks if the order type is one of the known values
func (t OrderType) IsValid() bool {
	switch t {
	case OrderTypeStandardProductSale, OrderTypeServiceRepair, OrderTypeMixed:
		return true
	}
	return false
}

// HasProductLines reports whether orders of this type carry stock-reconciled lines
func (t OrderType) HasProductLines() bool {
	switch t {
	case OrderTypeStandardProductSale, OrderTypeMixed:
		return true
	}
	return false
}

// HasRepair reports whether orders of this type carry a repair description and total
func (t OrderType) HasRepair() bool {
	switch t {
	case OrderTypeServiceRepair, OrderTypeMixed:
		return true
	}
	return false
}

// String returns the string representation of OrderType
func (t OrderType) String() string {
	return string(t)
}

// ParseOrderType parses an order type, ignoring case and surrounding spaces
func ParseOrderType(s string) (OrderType, bool) {
	t := OrderType(strings.ToUpper(strings.TrimSpace(s)))
	return t, t.IsValid()
}

// Status represents the lifecycle status of a sale.
// Any status may follow any other; there is no transition table.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
	StatusRefunded   Status = "REFUNDED"
)

// AllStatuses lists every status in display order
var AllStatuses = []Status{
	StatusPending,
	StatusConfirmed,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
	StatusRefunded,
}

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// ParseStatus parses a status, ignoring case and surrounding spaces
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	return st, st.IsValid()
}

// PaymentMethod is how the customer pays
type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "CASH"
	PaymentMethodCard PaymentMethod = "CARD"
)

// IsValid checks if the payment method is known
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// ParsePaymentMethod parses a payment method, ignoring case and surrounding spaces
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	m := PaymentMethod(strings.ToUpper(strings.TrimSpace(s)))
	return m, m.IsValid()
}
