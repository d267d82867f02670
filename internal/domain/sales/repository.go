package sales

import (
	"context"

	"github.com/google/uuid"
)

// SaleFilter narrows a sales listing
type SaleFilter struct {
	Status   *Status
	SortBy   string
	SortDir  string
	Page     int
	PageSize int
}

// SaleRepository defines the interface for sale persistence
type SaleRepository interface {
	// Save inserts a new sale together with its lines
	Save(ctx context.Context, sale *Sale) error

	// FindByID finds a sale with its lines
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)

	// List returns one page of sales, newest first unless the filter sorts
	// otherwise, and the total matching the filter
	List(ctx context.Context, filter SaleFilter) ([]Sale, int64, error)

	// UpdateStatus persists the status, payment method and version of an existing sale
	UpdateStatus(ctx context.Context, sale *Sale) error
}
