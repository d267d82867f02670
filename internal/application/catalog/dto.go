package catalog

import (
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/catalog"
	csvimport "github.com/shopfront/backend/internal/infrastructure/import"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	Name        string           `json:"name" binding:"required,min=1,max=200"`
	Description string           `json:"description" binding:"max=2000"`
	Price       *decimal.Decimal `json:"price" binding:"required"`
	Discount    *decimal.Decimal `json:"discount"`
	Stock       int              `json:"stock" binding:"min=0"`
	Tags        []string         `json:"tags" binding:"omitempty,dive,max=50"`
}

// UpdateProductRequest represents a partial edit of a product.
// Nil fields are left unchanged.
type UpdateProductRequest struct {
	Name           *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Description    *string          `json:"description" binding:"omitempty,max=2000"`
	Price          *decimal.Decimal `json:"price"`
	Discount       *decimal.Decimal `json:"discount"`
	RemoveDiscount bool             `json:"removeDiscount"`
	Stock          *int             `json:"stock" binding:"omitempty,min=0"`
	Tags           *[]string        `json:"tags" binding:"omitempty,dive,max=50"`
}

// ListProductsFilter narrows a product listing
type ListProductsFilter struct {
	Search   string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Tags     []string
	SortBy   string
	SortDir  string
	Page     int
}

// LikeRequest likes or unlikes a product
type LikeRequest struct {
	Like bool `json:"like"`
}

// ImageUpload is one image file to attach to a product
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price"`
	Discount    *decimal.Decimal `json:"discount,omitempty"`
	FinalPrice  decimal.Decimal  `json:"finalPrice"`
	Stock       int              `json:"stock"`
	Tags        []string         `json:"tags"`
	Images      []string         `json:"images"`
	Liked       bool             `json:"liked"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// ImportResult summarizes a CSV import
type ImportResult struct {
	TotalRows    int                  `json:"totalRows"`
	ImportedRows int                  `json:"importedRows"`
	ErrorRows    int                  `json:"errorRows"`
	Errors       []csvimport.RowError `json:"errors,omitempty"`
	IsTruncated  bool                 `json:"isTruncated,omitempty"`
	TotalErrors  int                  `json:"totalErrors,omitempty"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *catalog.Product) ProductResponse {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Discount:    p.Discount,
		FinalPrice:  p.DiscountValue().ApplyTo(p.Price),
		Stock:       p.Stock,
		Tags:        tags,
		Images:      images,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ToProductResponses converts a slice of products, flagging the liked ones
func ToProductResponses(products []catalog.Product, liked map[uuid.UUID]bool) []ProductResponse {
	responses := make([]ProductResponse, len(products))
	for i := range products {
		responses[i] = ToProductResponse(&products[i])
		responses[i].Liked = liked[products[i].ID]
	}
	return responses
}
