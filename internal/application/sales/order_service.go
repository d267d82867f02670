package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/sales"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const idempotencyKeyPrefix = "idem:sale:"

// OrderService creates sales, changes their status and lists them
type OrderService struct {
	scope          TransactionScope
	saleRepo       sales.SaleRepository
	eventPublisher shared.EventPublisher
	idempotency    shared.IdempotencyStore
	idempotencyTTL time.Duration
	queryTimeout   time.Duration
	now            func() time.Time
	logger         *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(scope TransactionScope, saleRepo sales.SaleRepository, logger *zap.Logger) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		scope:          scope,
		saleRepo:       saleRepo,
		idempotencyTTL: 24 * time.Hour,
		now:            time.Now,
		logger:         logger,
	}
}

// SetEventPublisher sets the publisher that receives SaleCreated and SaleStatusChanged
func (s *OrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetIdempotencyStore enables Idempotency-Key handling for order creation
func (s *OrderService) SetIdempotencyStore(store shared.IdempotencyStore, ttl time.Duration) {
	s.idempotency = store
	if ttl > 0 {
		s.idempotencyTTL = ttl
	}
}

// SetQueryTimeout bounds every store interaction; zero disables the bound
func (s *OrderService) SetQueryTimeout(timeout time.Duration) {
	s.queryTimeout = timeout
}

// SetClock replaces the time source used for creation timestamps
func (s *OrderService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// placement is a validated order ready to be reserved and stored
type placement struct {
	orderType     sales.OrderType
	lines         []sales.LineRequest
	repairTotal   *decimal.Decimal
	description   string
	paymentMethod sales.PaymentMethod
	userID        *uuid.UUID
	customer      *sales.Customer
}

// CreateOrder validates an admin order, reserves stock for its lines and
// stores the sale, all inside one transaction.
func (s *OrderService) CreateOrder(ctx context.Context, userID *uuid.UUID, idempotencyKey string, req CreateOrderRequest) (*SaleResponse, error) {
	orderType, ok := sales.ParseOrderType(req.OrderType)
	if !ok {
		return nil, shared.NewValidationError("orderType must be one of STANDARD_PRODUCT_SALE, SERVICE_REPAIR, MIXED")
	}
	paymentMethod, ok := sales.ParsePaymentMethod(req.PaymentMethod)
	if !ok {
		return nil, shared.NewValidationError("paymentMethod must be CASH or CARD")
	}
	if err := sales.ValidateShape(orderType, len(req.Products), req.RepairTotal, req.Description); err != nil {
		return nil, err
	}

	lines := make([]sales.LineRequest, len(req.Products))
	for i, p := range req.Products {
		lines[i] = sales.LineRequest{ProductID: p.ProductID, Quantity: p.Quantity}
	}

	return s.place(ctx, idempotencyKey, placement{
		orderType:     orderType,
		lines:         lines,
		repairTotal:   req.RepairTotal,
		description:   req.Description,
		paymentMethod: paymentMethod,
		userID:        userID,
	})
}

// CreatePublicSale sells one unit of a product to an anonymous customer.
// It runs through the same reconciliation as admin orders.
func (s *OrderService) CreatePublicSale(ctx context.Context, idempotencyKey string, req CreatePublicSaleRequest) (*SaleResponse, error) {
	paymentMethod := sales.PaymentMethodCash
	if req.PaymentMethod != "" {
		pm, ok := sales.ParsePaymentMethod(req.PaymentMethod)
		if !ok {
			return nil, shared.NewValidationError("paymentMethod must be CASH or CARD")
		}
		paymentMethod = pm
	}
	if req.ProductID == uuid.Nil {
		return nil, shared.NewValidationError("productId is required")
	}

	return s.place(ctx, idempotencyKey, placement{
		orderType:     sales.OrderTypeStandardProductSale,
		lines:         []sales.LineRequest{{ProductID: req.ProductID, Quantity: 1}},
		paymentMethod: paymentMethod,
		customer:      &sales.Customer{Email: req.Email, Phone: req.Phone},
	})
}

func (s *OrderService) place(ctx context.Context, idempotencyKey string, p placement) (*SaleResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "place",
		telemetry.SpanAttrOrderType, p.orderType.String(),
		telemetry.SpanAttrLineCount, len(p.lines),
	)
	defer span.End()

	release, err := s.claim(ctx, idempotencyKey)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var sale *sales.Sale
	err = s.inTx(ctx, func(ctx context.Context, repos TransactionalRepositories) error {
		var lines []sales.SaleLine
		if p.orderType.HasProductLines() {
			reserved, err := sales.NewStockReconciler(repos.ProductRepo()).Reserve(ctx, p.lines)
			if err != nil {
				return err
			}
			lines = reserved
		}

		created, err := sales.NewSale(sales.NewSaleParams{
			OrderType:     p.orderType,
			Lines:         lines,
			RepairTotal:   p.repairTotal,
			Description:   p.description,
			PaymentMethod: p.paymentMethod,
			UserID:        p.userID,
			Customer:      p.customer,
			CreatedAt:     s.now(),
		})
		if err != nil {
			return err
		}

		if err := repos.SaleRepo().Save(ctx, created); err != nil {
			return shared.WrapPersistence(fmt.Errorf("save sale: %w", err))
		}
		sale = created
		return nil
	})
	if err != nil {
		release()
		telemetry.RecordError(span, err)
		s.logRejection(p, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrSaleID, sale.ID.String())

	s.logger.Info("Sale created",
		zap.String("sale_id", sale.ID.String()),
		zap.String("order_type", sale.OrderType.String()),
		zap.String("total", sale.Total.String()),
		zap.Int("items", sale.ItemCount()),
	)
	s.publish(ctx, sale)

	resp := ToSaleResponse(sale)
	return &resp, nil
}

// claim reserves the idempotency key. The returned release frees the key
// again when the order fails so the client can retry.
func (s *OrderService) claim(ctx context.Context, key string) (func(), error) {
	noop := func() {}
	if key == "" || s.idempotency == nil {
		return noop, nil
	}

	fullKey := idempotencyKeyPrefix + key
	claimed, err := s.idempotency.Claim(ctx, fullKey, s.idempotencyTTL)
	if err != nil {
		return noop, shared.WrapPersistence(fmt.Errorf("claim idempotency key: %w", err))
	}
	if !claimed {
		return noop, shared.ErrDuplicateRequest
	}

	return func() {
		// The request context may already be done
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := s.idempotency.Release(releaseCtx, fullKey); err != nil {
			s.logger.Warn("Failed to release idempotency key", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

// ChangeStatus sets the status of a sale. Any status may follow any other.
func (s *OrderService) ChangeStatus(ctx context.Context, req ChangeStatusRequest) (*SaleResponse, error) {
	status, ok := sales.ParseStatus(req.Status)
	if !ok {
		return nil, shared.ErrInvalidStatus
	}
	var paymentMethod *sales.PaymentMethod
	if req.PaymentMethod != nil {
		pm, ok := sales.ParsePaymentMethod(*req.PaymentMethod)
		if !ok {
			return nil, shared.NewValidationError("paymentMethod must be CASH or CARD")
		}
		paymentMethod = &pm
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "order", "change_status",
		telemetry.SpanAttrSaleID, req.ID.String(),
		telemetry.SpanAttrSaleStatus, status.String(),
	)
	defer span.End()

	var sale *sales.Sale
	err := s.inTx(ctx, func(ctx context.Context, repos TransactionalRepositories) error {
		found, err := repos.SaleRepo().FindByID(ctx, req.ID)
		if err != nil {
			return shared.WrapPersistence(err)
		}
		if err := found.ChangeStatus(status, paymentMethod); err != nil {
			return err
		}
		if err := repos.SaleRepo().UpdateStatus(ctx, found); err != nil {
			return shared.WrapPersistence(fmt.Errorf("update sale status: %w", err))
		}
		sale = found
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publish(ctx, sale)

	resp := ToSaleResponse(sale)
	return &resp, nil
}

// GetSale returns one sale with its lines
func (s *OrderService) GetSale(ctx context.Context, id uuid.UUID) (*SaleResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	sale, err := s.saleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, shared.WrapPersistence(err)
	}
	resp := ToSaleResponse(sale)
	return &resp, nil
}

// ListSales returns one page of sales, newest first, and the number of
// sales matching the status filter
func (s *OrderService) ListSales(ctx context.Context, filter ListSalesFilter) ([]SaleResponse, int64, error) {
	domainFilter := sales.SaleFilter{
		SortBy:   filter.SortBy,
		SortDir:  filter.SortDir,
		Page:     filter.Page,
		PageSize: shared.DefaultPageSize,
	}
	if filter.Status != "" {
		status, ok := sales.ParseStatus(filter.Status)
		if !ok {
			return nil, 0, shared.ErrInvalidStatus
		}
		domainFilter.Status = &status
	}
	if domainFilter.Page < 1 {
		domainFilter.Page = 1
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	list, total, err := s.saleRepo.List(ctx, domainFilter)
	if err != nil {
		return nil, 0, shared.WrapPersistence(fmt.Errorf("list sales: %w", err))
	}
	return ToSaleResponses(list), total, nil
}

// inTx runs fn inside the transaction scope under the query timeout.
// Errors that are not domain errors are reported as persistence failures.
func (s *OrderService) inTx(ctx context.Context, fn func(ctx context.Context, repos TransactionalRepositories) error) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		return fn(ctx, repos)
	})
	if err == nil {
		return nil
	}
	var lineErrs *sales.LineErrors
	if errors.As(err, &lineErrs) {
		return err
	}
	return shared.WrapPersistence(err)
}

func (s *OrderService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}

func (s *OrderService) publish(ctx context.Context, sale *sales.Sale) {
	events := sale.GetDomainEvents()
	sale.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	// Delivery failures are logged; the sale is already committed
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish sale events",
			zap.String("sale_id", sale.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *OrderService) logRejection(p placement, err error) {
	fields := []zap.Field{
		zap.String("order_type", p.orderType.String()),
		zap.Int("lines", len(p.lines)),
		zap.Error(err),
	}
	if errors.Is(err, shared.ErrPersistence) {
		s.logger.Error("Order failed", fields...)
		return
	}
	s.logger.Info("Order rejected", fields...)
}
