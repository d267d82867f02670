package sales

import (
	"context"

	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/sales"
)

// TransactionScope runs order work inside one database transaction.
// If fn returns an error every write made through the repositories is
// rolled back, including stock decrements already applied.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes repositories bound to the same transaction.
type TransactionalRepositories interface {
	// ProductRepo is used for stock reads and conditional decrements
	ProductRepo() catalog.ProductRepository
	// SaleRepo persists the sale and its line snapshots
	SaleRepo() sales.SaleRepository
}
