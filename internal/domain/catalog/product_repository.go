package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductFilter narrows a product listing
type ProductFilter struct {
	Search   string           // case-insensitive substring of the name
	MinPrice *decimal.Decimal // inclusive
	MaxPrice *decimal.Decimal // inclusive
	Tags     []string         // product must carry at least one of these
	SortBy   string           // column name; unknown columns fall back to created_at
	SortDir  string           // "asc" or "desc"
	Page     int
	PageSize int
}

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByIDs finds the products that exist among ids, in no particular order
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)

	// Find returns one page of products matching the filter and the total match count
	Find(ctx context.Context, filter ProductFilter) ([]Product, int64, error)

	// Save creates or updates a product together with its tags and images
	Save(ctx context.Context, product *Product) error

	// SaveBatch creates multiple products in one transaction
	SaveBatch(ctx context.Context, products []*Product) error

	// DecrementStock subtracts quantity from stock only if enough stock remains.
	// Returns shared.ErrInsufficientStock when the conditional update matched nothing.
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error
}

// LikeRepository manages the per-user liked-products set
type LikeRepository interface {
	// Like adds a product to the user's liked set; liking twice is a no-op
	Like(ctx context.Context, userID, productID uuid.UUID) error

	// Unlike removes a product from the user's liked set
	Unlike(ctx context.Context, userID, productID uuid.UUID) error

	// LikedAmong returns which of productIDs the user has liked
	LikedAmong(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID) (map[uuid.UUID]bool, error)

	// ListLiked returns the IDs of all products the user has liked
	ListLiked(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}
