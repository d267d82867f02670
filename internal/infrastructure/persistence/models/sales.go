package models

import (
	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/sales"
	"github.com/shopspring/decimal"
)

// SaleModel is the persistence model for the Sale aggregate root.
type SaleModel struct {
	AggregateModel
	OrderType     sales.OrderType     `gorm:"type:varchar(32);not null"`
	RepairTotal   decimal.NullDecimal `gorm:"type:decimal(18,4)"`
	Description   string              `gorm:"type:text"`
	Total         decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	Status        sales.Status        `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	PaymentMethod sales.PaymentMethod `gorm:"type:varchar(10);not null"`
	UserID        *uuid.UUID          `gorm:"type:uuid;index"`
	CustomerEmail string              `gorm:"type:varchar(255)"`
	CustomerPhone string              `gorm:"type:varchar(50)"`
	Lines         []SaleLineModel     `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts the persistence model to a domain Sale.
func (m *SaleModel) ToDomain() *sales.Sale {
	s := &sales.Sale{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		OrderType:         m.OrderType,
		Description:       m.Description,
		Total:             m.Total,
		Status:            m.Status,
		PaymentMethod:     m.PaymentMethod,
		UserID:            m.UserID,
		Lines:             make([]sales.SaleLine, 0, len(m.Lines)),
	}
	if m.RepairTotal.Valid {
		rt := m.RepairTotal.Decimal
		s.RepairTotal = &rt
	}
	if m.CustomerEmail != "" || m.CustomerPhone != "" {
		s.Customer = &sales.Customer{Email: m.CustomerEmail, Phone: m.CustomerPhone}
	}
	for _, l := range m.Lines {
		s.Lines = append(s.Lines, l.ToDomain())
	}
	return s
}

// FromDomain populates the persistence model from a domain Sale.
func (m *SaleModel) FromDomain(s *sales.Sale) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.OrderType = s.OrderType
	m.Description = s.Description
	m.Total = s.Total
	m.Status = s.Status
	m.PaymentMethod = s.PaymentMethod
	m.UserID = s.UserID
	m.RepairTotal = decimal.NullDecimal{}
	if s.RepairTotal != nil {
		m.RepairTotal = decimal.NewNullDecimal(*s.RepairTotal)
	}
	m.CustomerEmail, m.CustomerPhone = "", ""
	if s.Customer != nil {
		m.CustomerEmail = s.Customer.Email
		m.CustomerPhone = s.Customer.Phone
	}

	m.Lines = make([]SaleLineModel, 0, len(s.Lines))
	for i, l := range s.Lines {
		m.Lines = append(m.Lines, SaleLineModelFromDomain(s.ID, i, l))
	}
}

// SaleModelFromDomain creates a new persistence model from a domain Sale.
func SaleModelFromDomain(s *sales.Sale) *SaleModel {
	m := &SaleModel{}
	m.FromDomain(s)
	return m
}

// SaleLineModel stores one line of a sale with its captured product snapshot
type SaleLineModel struct {
	ID          uuid.UUID           `gorm:"type:uuid;primary_key"`
	SaleID      uuid.UUID           `gorm:"type:uuid;not null;index"`
	Position    int                 `gorm:"not null;default:0"`
	ProductID   uuid.UUID           `gorm:"type:uuid;not null;index"`
	ProductName string              `gorm:"type:varchar(200);not null"`
	UnitPrice   decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	Discount    decimal.NullDecimal `gorm:"type:decimal(7,4)"`
	Quantity    int                 `gorm:"not null"`
	LineTotal   decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (SaleLineModel) TableName() string {
	return "sale_lines"
}

// ToDomain converts the line model to a domain SaleLine
func (m *SaleLineModel) ToDomain() sales.SaleLine {
	l := sales.SaleLine{
		ProductID: m.ProductID,
		Name:      m.ProductName,
		UnitPrice: m.UnitPrice,
		Quantity:  m.Quantity,
		LineTotal: m.LineTotal,
	}
	if m.Discount.Valid {
		d := m.Discount.Decimal
		l.Discount = &d
	}
	return l
}

// SaleLineModelFromDomain builds the line row for position i of a sale
func SaleLineModelFromDomain(saleID uuid.UUID, i int, l sales.SaleLine) SaleLineModel {
	m := SaleLineModel{
		ID:          uuid.New(),
		SaleID:      saleID,
		Position:    i,
		ProductID:   l.ProductID,
		ProductName: l.Name,
		UnitPrice:   l.UnitPrice,
		Quantity:    l.Quantity,
		LineTotal:   l.LineTotal,
	}
	if l.Discount != nil {
		m.Discount = decimal.NewNullDecimal(*l.Discount)
	}
	return m
}
