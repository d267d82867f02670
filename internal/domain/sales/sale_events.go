package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeSale = "Sale"

// Event type constants
const (
	EventTypeSaleCreated       = "SaleCreated"
	EventTypeSaleStatusChanged = "SaleStatusChanged"
)

// SaleItemEvent is the per-line payload carried by sale events
type SaleItemEvent struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// SaleCreatedEvent is published after a sale and its stock changes are committed
type SaleCreatedEvent struct {
	shared.BaseDomainEvent
	SaleID        uuid.UUID       `json:"sale_id"`
	OrderType     OrderType       `json:"order_type"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Items         []SaleItemEvent `json:"items"`
}

// NewSaleCreatedEvent creates a new SaleCreatedEvent
func NewSaleCreatedEvent(s *Sale) *SaleCreatedEvent {
	items := make([]SaleItemEvent, len(s.Lines))
	for i, l := range s.Lines {
		items[i] = SaleItemEvent{ProductID: l.ProductID, Quantity: l.Quantity, LineTotal: l.LineTotal}
	}
	return &SaleCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCreated, AggregateTypeSale, s.ID, s.CreatedAt),
		SaleID:          s.ID,
		OrderType:       s.OrderType,
		Total:           s.Total,
		PaymentMethod:   s.PaymentMethod,
		Items:           items,
	}
}

// SaleStatusChangedEvent is published when a sale's status is written
type SaleStatusChangedEvent struct {
	shared.BaseDomainEvent
	SaleID        uuid.UUID     `json:"sale_id"`
	FromStatus    Status        `json:"from_status"`
	ToStatus      Status        `json:"to_status"`
	PaymentMethod PaymentMethod `json:"payment_method"`
}

// NewSaleStatusChangedEvent creates a new SaleStatusChangedEvent
func NewSaleStatusChangedEvent(s *Sale, from Status) *SaleStatusChangedEvent {
	return &SaleStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleStatusChanged, AggregateTypeSale, s.ID, time.Now()),
		SaleID:          s.ID,
		FromStatus:      from,
		ToStatus:        s.Status,
		PaymentMethod:   s.PaymentMethod,
	}
}
