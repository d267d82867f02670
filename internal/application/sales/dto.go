package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/sales"
	"github.com/shopspring/decimal"
)

// OrderLineInput is one product and quantity of an order request
type OrderLineInput struct {
	ProductID uuid.UUID `json:"productId" binding:"required"`
	Quantity  int       `json:"quantity" binding:"max=1000000"`
}

// CreateOrderRequest represents an admin order.
// Shape rules per order type are enforced by the domain, not by binding tags.
type CreateOrderRequest struct {
	OrderType     string           `json:"orderType" binding:"required"`
	Products      []OrderLineInput `json:"products" binding:"omitempty,dive"`
	RepairTotal   *decimal.Decimal `json:"repairTotal"`
	Description   string           `json:"description" binding:"max=2000"`
	PaymentMethod string           `json:"paymentMethod" binding:"required"`
}

// CreatePublicSaleRequest represents an anonymous single-product purchase
type CreatePublicSaleRequest struct {
	ProductID     uuid.UUID `json:"productId" binding:"required"`
	Email         string    `json:"email" binding:"required,email,max=255"`
	Phone         string    `json:"phone" binding:"required,min=5,max=50"`
	PaymentMethod string    `json:"paymentMethod"` // defaults to CASH
}

// ChangeStatusRequest represents a status update of an existing sale
type ChangeStatusRequest struct {
	ID            uuid.UUID `json:"id" binding:"required"`
	Status        string    `json:"status" binding:"required"`
	PaymentMethod *string   `json:"paymentMethod"` // nil keeps the stored method
}

// ListSalesFilter narrows a sales listing
type ListSalesFilter struct {
	Status  string `form:"status"`
	SortBy  string `form:"sort"`
	SortDir string `form:"order"`
	Page    int    `form:"page"`
}

// SaleLineResponse is one captured line of a sale
type SaleLineResponse struct {
	ProductID uuid.UUID        `json:"productId"`
	Name      string           `json:"name"`
	UnitPrice decimal.Decimal  `json:"unitPrice"`
	Discount  *decimal.Decimal `json:"discount,omitempty"`
	Quantity  int              `json:"quantity"`
	LineTotal decimal.Decimal  `json:"lineTotal"`
}

// CustomerResponse is the contact left by an anonymous buyer
type CustomerResponse struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// SaleResponse represents a sale in API responses
type SaleResponse struct {
	ID            uuid.UUID          `json:"id"`
	OrderType     string             `json:"orderType"`
	Products      []SaleLineResponse `json:"products"`
	RepairTotal   *decimal.Decimal   `json:"repairTotal,omitempty"`
	Description   string             `json:"description,omitempty"`
	Total         decimal.Decimal    `json:"total"`
	Status        string             `json:"status"`
	PaymentMethod string             `json:"paymentMethod"`
	UserID        *uuid.UUID         `json:"userId,omitempty"`
	Customer      *CustomerResponse  `json:"customer,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// ToSaleResponse converts a domain Sale to SaleResponse
func ToSaleResponse(s *sales.Sale) SaleResponse {
	lines := make([]SaleLineResponse, len(s.Lines))
	for i, l := range s.Lines {
		lines[i] = SaleLineResponse{
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Discount:  l.Discount,
			Quantity:  l.Quantity,
			LineTotal: l.LineTotal,
		}
	}

	resp := SaleResponse{
		ID:            s.ID,
		OrderType:     s.OrderType.String(),
		Products:      lines,
		RepairTotal:   s.RepairTotal,
		Description:   s.Description,
		Total:         s.Total,
		Status:        s.Status.String(),
		PaymentMethod: s.PaymentMethod.String(),
		UserID:        s.UserID,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
	if s.Customer != nil {
		resp.Customer = &CustomerResponse{Email: s.Customer.Email, Phone: s.Customer.Phone}
	}
	return resp
}

// ToSaleResponses converts a slice of domain Sales
func ToSaleResponses(list []sales.Sale) []SaleResponse {
	out := make([]SaleResponse, len(list))
	for i := range list {
		out[i] = ToSaleResponse(&list[i])
	}
	return out
}
