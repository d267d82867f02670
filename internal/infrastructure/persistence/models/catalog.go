package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for the Product domain entity.
type ProductModel struct {
	AggregateModel
	Name        string              `gorm:"type:varchar(200);not null;index"`
	Description string              `gorm:"type:text"`
	Price       decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	Discount    decimal.NullDecimal `gorm:"type:decimal(7,4)"`
	Stock       int                 `gorm:"not null;default:0;check:chk_products_stock,stock >= 0"`
	Tags        []ProductTagModel   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Images      []ProductImageModel `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	p := &catalog.Product{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		Description:       m.Description,
		Price:             m.Price,
		Stock:             m.Stock,
		Tags:              make([]string, 0, len(m.Tags)),
		Images:            make([]string, 0, len(m.Images)),
	}
	if m.Discount.Valid {
		d := m.Discount.Decimal
		p.Discount = &d
	}
	for _, t := range m.Tags {
		p.Tags = append(p.Tags, t.Tag)
	}
	for _, img := range m.Images {
		p.Images = append(p.Images, img.URL)
	}
	return p
}

// FromDomain populates the persistence model from a domain Product entity.
// Tag and image rows are rebuilt with positions following slice order.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Name = p.Name
	m.Description = p.Description
	m.Price = p.Price
	m.Stock = p.Stock
	m.Discount = decimal.NullDecimal{}
	if p.Discount != nil {
		m.Discount = decimal.NewNullDecimal(*p.Discount)
	}

	m.Tags = make([]ProductTagModel, 0, len(p.Tags))
	for i, t := range p.Tags {
		m.Tags = append(m.Tags, ProductTagModel{ProductID: p.ID, Tag: t, Position: i})
	}
	m.Images = make([]ProductImageModel, 0, len(p.Images))
	for i, u := range p.Images {
		m.Images = append(m.Images, ProductImageModel{ProductID: p.ID, URL: u, Position: i})
	}
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}

// ProductTagModel links a product to one tag name
type ProductTagModel struct {
	ProductID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Tag       string    `gorm:"type:varchar(50);primaryKey;index"`
	Position  int       `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductTagModel) TableName() string {
	return "product_tags"
}

// ProductImageModel is one image URL of a product
type ProductImageModel struct {
	ProductID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Position  int       `gorm:"primaryKey"`
	URL       string    `gorm:"type:varchar(1024);not null"`
}

// TableName returns the table name for GORM
func (ProductImageModel) TableName() string {
	return "product_images"
}

// UserLikedProductModel records that a user liked a product
type UserLikedProductModel struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (UserLikedProductModel) TableName() string {
	return "user_liked_products"
}
