package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/report"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormSalesReportRepository implements report.SalesReportRepository using GORM.
// The queries avoid dialect-specific date functions so they run unchanged on
// PostgreSQL and SQLite; calendar bucketing happens in the caller.
type GormSalesReportRepository struct {
	db *gorm.DB
}

// NewGormSalesReportRepository creates a new GormSalesReportRepository
func NewGormSalesReportRepository(db *gorm.DB) *GormSalesReportRepository {
	return &GormSalesReportRepository{db: db}
}

// TopProducts ranks products by the number of sale lines that reference them.
// The current catalog name is preferred over the captured one.
func (r *GormSalesReportRepository) TopProducts(ctx context.Context, offset, limit int) ([]report.TopProduct, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Table("sale_lines").
		Select("COUNT(DISTINCT product_id)").
		Scan(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []report.TopProduct{}, 0, nil
	}

	type topResult struct {
		ProductID   uuid.UUID
		ProductName string
		LineCount   int64
	}
	var results []topResult

	err := r.db.WithContext(ctx).
		Table("sale_lines sl").
		Select(`
			sl.product_id AS product_id,
			COALESCE(p.name, MAX(sl.product_name)) AS product_name,
			COUNT(*) AS line_count
		`).
		Joins("LEFT JOIN products p ON p.id = sl.product_id").
		Group("sl.product_id, p.name").
		Order("line_count DESC, sl.product_id ASC").
		Offset(offset).
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, 0, err
	}

	items := make([]report.TopProduct, len(results))
	for i, res := range results {
		items[i] = report.TopProduct{
			Rank:        offset + i + 1,
			ProductID:   res.ProductID,
			ProductName: res.ProductName,
			Count:       res.LineCount,
		}
	}
	return items, total, nil
}

// SumTotals sums sale totals with from <= created_at < to
func (r *GormSalesReportRepository) SumTotals(ctx context.Context, from, to time.Time) (decimal.Decimal, int64, error) {
	type sumResult struct {
		Total      decimal.Decimal
		OrderCount int64
	}
	var result sumResult

	err := r.db.WithContext(ctx).
		Table("sales").
		Select("COALESCE(SUM(total), 0) AS total, COUNT(*) AS order_count").
		Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC()).
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, 0, err
	}
	return result.Total, result.OrderCount, nil
}

// ProductQuantities groups the lines of sales created in [from, to) by
// product and captured name and price
func (r *GormSalesReportRepository) ProductQuantities(ctx context.Context, from, to time.Time) ([]report.ProductQuantity, error) {
	type quantityResult struct {
		ProductID   uuid.UUID
		ProductName string
		UnitPrice   decimal.Decimal
		Quantity    int64
	}
	var results []quantityResult

	err := r.db.WithContext(ctx).
		Table("sale_lines sl").
		Select(`
			sl.product_id AS product_id,
			sl.product_name AS product_name,
			sl.unit_price AS unit_price,
			COALESCE(SUM(sl.quantity), 0) AS quantity
		`).
		Joins("JOIN sales s ON s.id = sl.sale_id").
		Where("s.created_at >= ? AND s.created_at < ?", from.UTC(), to.UTC()).
		Group("sl.product_id, sl.product_name, sl.unit_price").
		Order("sl.product_name ASC, sl.product_id ASC, sl.unit_price ASC").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	items := make([]report.ProductQuantity, len(results))
	for i, res := range results {
		items[i] = report.ProductQuantity{
			ProductID:   res.ProductID,
			ProductName: res.ProductName,
			UnitPrice:   res.UnitPrice,
			Quantity:    res.Quantity,
			Revenue:     decimal.Zero,
		}
	}
	return items, nil
}

// SaleTotals lists creation time and total of sales created in [from, to)
func (r *GormSalesReportRepository) SaleTotals(ctx context.Context, from, to time.Time) ([]report.SaleTotal, error) {
	type totalResult struct {
		CreatedAt time.Time
		Total     decimal.Decimal
	}
	var results []totalResult

	err := r.db.WithContext(ctx).
		Table("sales").
		Select("created_at, total").
		Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC()).
		Order("created_at ASC").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	totals := make([]report.SaleTotal, len(results))
	for i, res := range results {
		totals[i] = report.SaleTotal{CreatedAt: res.CreatedAt.UTC(), Total: res.Total}
	}
	return totals, nil
}

// Ensure GormSalesReportRepository implements SalesReportRepository
var _ report.SalesReportRepository = (*GormSalesReportRepository)(nil)
