package handler

import (
	"context"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	catalogapp "github.com/shopfront/backend/internal/application/catalog"
	salesapp "github.com/shopfront/backend/internal/application/sales"
	"github.com/shopfront/backend/internal/domain/report"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockProductService struct {
	mock.Mock
}

func (m *mockProductService) Create(ctx context.Context, req catalogapp.CreateProductRequest) (*catalogapp.ProductResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.ProductResponse), args.Error(1)
}

func (m *mockProductService) Update(ctx context.Context, id uuid.UUID, req catalogapp.UpdateProductRequest) (*catalogapp.ProductResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.ProductResponse), args.Error(1)
}

func (m *mockProductService) GetByID(ctx context.Context, id uuid.UUID, userID *uuid.UUID) (*catalogapp.ProductResponse, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.ProductResponse), args.Error(1)
}

func (m *mockProductService) List(ctx context.Context, userID *uuid.UUID, filter catalogapp.ListProductsFilter) ([]catalogapp.ProductResponse, int64, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).([]catalogapp.ProductResponse), args.Get(1).(int64), args.Error(2)
}

func (m *mockProductService) Like(ctx context.Context, userID, productID uuid.UUID, like bool) error {
	return m.Called(ctx, userID, productID, like).Error(0)
}

func (m *mockProductService) ImportCSV(ctx context.Context, r io.Reader) (*catalogapp.ImportResult, error) {
	data, _ := io.ReadAll(r)
	args := m.Called(ctx, string(data))
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.ImportResult), args.Error(1)
}

func (m *mockProductService) AttachImages(ctx context.Context, productID uuid.UUID, files []catalogapp.ImageUpload) (*catalogapp.ProductResponse, error) {
	args := m.Called(ctx, productID, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.ProductResponse), args.Error(1)
}

type mockOrderService struct {
	mock.Mock
}

func (m *mockOrderService) CreateOrder(ctx context.Context, userID *uuid.UUID, idempotencyKey string, req salesapp.CreateOrderRequest) (*salesapp.SaleResponse, error) {
	args := m.Called(ctx, userID, idempotencyKey, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*salesapp.SaleResponse), args.Error(1)
}

func (m *mockOrderService) CreatePublicSale(ctx context.Context, idempotencyKey string, req salesapp.CreatePublicSaleRequest) (*salesapp.SaleResponse, error) {
	args := m.Called(ctx, idempotencyKey, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*salesapp.SaleResponse), args.Error(1)
}

func (m *mockOrderService) ChangeStatus(ctx context.Context, req salesapp.ChangeStatusRequest) (*salesapp.SaleResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*salesapp.SaleResponse), args.Error(1)
}

func (m *mockOrderService) GetSale(ctx context.Context, id uuid.UUID) (*salesapp.SaleResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*salesapp.SaleResponse), args.Error(1)
}

func (m *mockOrderService) ListSales(ctx context.Context, filter salesapp.ListSalesFilter) ([]salesapp.SaleResponse, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]salesapp.SaleResponse), args.Get(1).(int64), args.Error(2)
}

type mockReportService struct {
	mock.Mock
}

func (m *mockReportService) TopProducts(ctx context.Context, page int) (shared.Paginated[report.TopProduct], error) {
	args := m.Called(ctx, page)
	return args.Get(0).(shared.Paginated[report.TopProduct]), args.Error(1)
}

func (m *mockReportService) PeriodTotal(ctx context.Context, window string) (*report.PeriodTotal, error) {
	args := m.Called(ctx, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.PeriodTotal), args.Error(1)
}

func (m *mockReportService) DailyBreakdown(ctx context.Context, date time.Time) (*report.DailyBreakdown, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.DailyBreakdown), args.Error(1)
}

func (m *mockReportService) MonthlySales(ctx context.Context, date time.Time) (*report.MonthlySales, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.MonthlySales), args.Error(1)
}

func (m *mockReportService) ParseDate(value string) (time.Time, error) {
	args := m.Called(value)
	return args.Get(0).(time.Time), args.Error(1)
}

// withUser mimics the JWT middleware for handler-level tests
func withUser(id uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", id.String())
		c.Next()
	}
}
