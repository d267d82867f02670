package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	salesapp "github.com/shopfront/backend/internal/application/sales"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/interfaces/http/dto"
	"github.com/shopfront/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// OrderService is the sales surface used by SaleHandler
type OrderService interface {
	CreateOrder(ctx context.Context, userID *uuid.UUID, idempotencyKey string, req salesapp.CreateOrderRequest) (*salesapp.SaleResponse, error)
	CreatePublicSale(ctx context.Context, idempotencyKey string, req salesapp.CreatePublicSaleRequest) (*salesapp.SaleResponse, error)
	ChangeStatus(ctx context.Context, req salesapp.ChangeStatusRequest) (*salesapp.SaleResponse, error)
	GetSale(ctx context.Context, id uuid.UUID) (*salesapp.SaleResponse, error)
	ListSales(ctx context.Context, filter salesapp.ListSalesFilter) ([]salesapp.SaleResponse, int64, error)
}

// SaleHandler handles order creation, lookup and status changes
type SaleHandler struct {
	BaseHandler
	orders OrderService
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(orders OrderService, logger *zap.Logger) *SaleHandler {
	return &SaleHandler{
		BaseHandler: newBaseHandler(logger),
		orders:      orders,
	}
}

// Create handles POST /sales
func (h *SaleHandler) Create(c *gin.Context) {
	var req salesapp.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	sale, err := h.orders.CreateOrder(c.Request.Context(), callerID(c), idempotencyKey(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.Payload{"sale": sale})
}

// CreatePublic handles POST /sales/public
func (h *SaleHandler) CreatePublic(c *gin.Context) {
	var req salesapp.CreatePublicSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	sale, err := h.orders.CreatePublicSale(c.Request.Context(), idempotencyKey(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.Payload{"sale": sale})
}

// List handles GET /sales?status=&page=
func (h *SaleHandler) List(c *gin.Context) {
	filter := salesapp.ListSalesFilter{
		Status:  strings.TrimSpace(c.Query("status")),
		SortBy:  c.Query("sort"),
		SortDir: c.Query("order"),
		Page:    queryPage(c),
	}

	list, total, err := h.orders.ListSales(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.Payload{
		"sales":      list,
		"total":      total,
		"pagination": dto.NewPagination(total, filter.Page, shared.DefaultPageSize),
	})
}

// Detail handles GET /sales/detail?id=
func (h *SaleHandler) Detail(c *gin.Context) {
	id, ok := h.parseUUID(c, c.Query("id"), "id")
	if !ok {
		return
	}

	sale, err := h.orders.GetSale(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.Payload{"data": sale})
}

// ChangeStatus handles PUT /sales/status
func (h *SaleHandler) ChangeStatus(c *gin.Context) {
	var req salesapp.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	sale, err := h.orders.ChangeStatus(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.Payload{
		"id":            sale.ID,
		"status":        sale.Status,
		"paymentMethod": sale.PaymentMethod,
	})
}

func idempotencyKey(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(middleware.IdempotencyKeyHeader))
}
