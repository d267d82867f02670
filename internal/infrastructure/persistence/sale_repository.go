package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/sales"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSaleRepository implements sales.SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

func withSaleLines(db *gorm.DB) *gorm.DB {
	return db.Preload("Lines", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") })
}

// Save inserts a new sale together with its lines
func (r *GormSaleRepository) Save(ctx context.Context, sale *sales.Sale) error {
	model := models.SaleModelFromDomain(sale)
	lines := model.Lines
	model.Lines = nil

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return err
		}
		if len(lines) > 0 {
			if err := tx.Create(&lines).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FindByID finds a sale with its lines
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Sale, error) {
	var model models.SaleModel
	if err := withSaleLines(r.db.WithContext(ctx)).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Sale")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns one page of sales, newest first by default. The total counts
// the rows matching the same status filter.
func (r *GormSaleRepository) List(ctx context.Context, filter sales.SaleFilter) ([]sales.Sale, int64, error) {
	page := shared.Filter{Page: filter.Page, PageSize: filter.PageSize}.Normalize()

	scope := func(db *gorm.DB) *gorm.DB {
		if filter.Status != nil {
			return db.Where("status = ?", *filter.Status)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.SaleModel{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []sales.Sale{}, 0, nil
	}

	var rows []models.SaleModel
	if err := withSaleLines(r.db.WithContext(ctx)).
		Scopes(scope).
		Order(orderClause(filter.SortBy, filter.SortDir, SaleSortFields)).
		Order("id ASC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	result := make([]sales.Sale, len(rows))
	for i := range rows {
		result[i] = *rows[i].ToDomain()
	}
	return result, total, nil
}

// UpdateStatus persists status, payment method, version and updated_at.
// Lines are never rewritten.
func (r *GormSaleRepository) UpdateStatus(ctx context.Context, sale *sales.Sale) error {
	result := r.db.WithContext(ctx).
		Model(&models.SaleModel{}).
		Where("id = ?", sale.ID).
		Updates(map[string]any{
			"status":         sale.Status,
			"payment_method": sale.PaymentMethod,
			"version":        sale.Version,
			"updated_at":     sale.UpdatedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("Sale")
	}
	return nil
}

// Ensure GormSaleRepository implements SaleRepository
var _ sales.SaleRepository = (*GormSaleRepository)(nil)
