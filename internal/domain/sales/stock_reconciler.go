package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/shared"
)

// MaxLineQuantity bounds the quantity of a single line and the summed demand
// for one product within an order
const MaxLineQuantity = 1_000_000

// LineRequest is a requested product and quantity
type LineRequest struct {
	ProductID uuid.UUID
	Quantity  int
}

// StockReconciler validates requested lines against stock and decrements it.
//
// Reserve works in two phases. Phase one reads every product and checks every
// line without writing anything. Phase two runs one conditional decrement per
// product. The repository must be bound to the caller's transaction so that a
// failure in phase two rolls back the decrements already applied.
type StockReconciler struct {
	products catalog.ProductRepository
}

// NewStockReconciler creates a reconciler over the given product repository
func NewStockReconciler(products catalog.ProductRepository) *StockReconciler {
	return &StockReconciler{products: products}
}

// Reserve validates all lines, then decrements stock for all of them.
// It returns one snapshot line per request, in request order.
func (r *StockReconciler) Reserve(ctx context.Context, requests []LineRequest) ([]SaleLine, error) {
	products, demand, order, err := r.validate(ctx, requests)
	if err != nil {
		return nil, err
	}

	for _, id := range order {
		if err := r.products.DecrementStock(ctx, id, demand[id]); err != nil {
			if errors.Is(err, shared.ErrInsufficientStock) {
				return nil, &LineErrors{Errors: insufficientLines(requests, id, products[id])}
			}
			return nil, shared.WrapPersistence(fmt.Errorf("decrement stock for %s: %w", id, err))
		}
	}

	lines := make([]SaleLine, len(requests))
	for i, req := range requests {
		p := products[req.ProductID]
		lines[i] = NewSaleLine(p.ID, p.Name, p.Price, p.Discount, req.Quantity)
	}
	return lines, nil
}

// validate is phase one. It returns the loaded products, the summed demand per
// product and the products in first-seen order.
func (r *StockReconciler) validate(ctx context.Context, requests []LineRequest) (map[uuid.UUID]*catalog.Product, map[uuid.UUID]int, []uuid.UUID, error) {
	var lineErrs []LineError

	demand := make(map[uuid.UUID]int, len(requests))
	order := make([]uuid.UUID, 0, len(requests))
	for i, req := range requests {
		if req.Quantity <= 0 {
			lineErrs = append(lineErrs, newLineError(i, req.ProductID, shared.ErrInvalidQuantity,
				fmt.Sprintf("quantity must be greater than zero, got %d", req.Quantity)))
			continue
		}
		if req.Quantity > MaxLineQuantity {
			lineErrs = append(lineErrs, newLineError(i, req.ProductID, shared.ErrInvalidQuantity,
				fmt.Sprintf("quantity must not exceed %d, got %d", MaxLineQuantity, req.Quantity)))
			continue
		}
		if _, seen := demand[req.ProductID]; !seen {
			order = append(order, req.ProductID)
		}
		demand[req.ProductID] += req.Quantity
	}

	// each line is capped, so the per-product sums cannot overflow
	for i, req := range requests {
		if validQuantity(req.Quantity) && demand[req.ProductID] > MaxLineQuantity {
			lineErrs = append(lineErrs, newLineError(i, req.ProductID, shared.ErrInvalidQuantity,
				fmt.Sprintf("total quantity of one product must not exceed %d, got %d", MaxLineQuantity, demand[req.ProductID])))
		}
	}

	found, err := r.products.FindByIDs(ctx, order)
	if err != nil {
		return nil, nil, nil, shared.WrapPersistence(fmt.Errorf("load products: %w", err))
	}
	products := make(map[uuid.UUID]*catalog.Product, len(found))
	for i := range found {
		products[found[i].ID] = &found[i]
	}

	for i, req := range requests {
		if !validQuantity(req.Quantity) || demand[req.ProductID] > MaxLineQuantity {
			continue
		}
		p, ok := products[req.ProductID]
		if !ok {
			lineErrs = append(lineErrs, newLineError(i, req.ProductID, shared.ErrNotFound, "product does not exist"))
			continue
		}
		if !p.HasStock(demand[req.ProductID]) {
			lineErrs = append(lineErrs, newLineError(i, req.ProductID, shared.ErrInsufficientStock,
				fmt.Sprintf("requested %d of %q, only %d in stock", demand[req.ProductID], p.Name, p.Stock)))
		}
	}

	if len(lineErrs) > 0 {
		return nil, nil, nil, &LineErrors{Errors: lineErrs}
	}
	return products, demand, order, nil
}

func validQuantity(quantity int) bool {
	return quantity > 0 && quantity <= MaxLineQuantity
}

func insufficientLines(requests []LineRequest, id uuid.UUID, p *catalog.Product) []LineError {
	var errs []LineError
	for i, req := range requests {
		if req.ProductID == id {
			errs = append(errs, newLineError(i, id, shared.ErrInsufficientStock,
				fmt.Sprintf("%q sold out while the order was being placed", p.Name)))
		}
	}
	return errs
}
