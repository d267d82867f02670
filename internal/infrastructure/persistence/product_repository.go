package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func withProductChildren(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Tags", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") }).
		Preload("Images", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") })
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := withProductChildren(r.db.WithContext(ctx)).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Product")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds the products that exist among ids
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return []catalog.Product{}, nil
	}

	var rows []models.ProductModel
	if err := withProductChildren(r.db.WithContext(ctx)).
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainProducts(rows), nil
}

// Find returns one page of products matching the filter and the total match count
func (r *GormProductRepository) Find(ctx context.Context, filter catalog.ProductFilter) ([]catalog.Product, int64, error) {
	page := shared.Filter{Page: filter.Page, PageSize: filter.PageSize}.Normalize()

	var total int64
	if err := r.applyFilter(r.db.WithContext(ctx).Model(&models.ProductModel{}), filter).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []catalog.Product{}, 0, nil
	}

	var rows []models.ProductModel
	query := r.applyFilter(withProductChildren(r.db.WithContext(ctx)), filter)
	if err := query.
		Order(orderClause(filter.SortBy, filter.SortDir, ProductSortFields)).
		Order("id ASC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toDomainProducts(rows), total, nil
}

// applyFilter narrows the query. Search is case-insensitive on the name and
// portable between PostgreSQL and SQLite.
func (r *GormProductRepository) applyFilter(query *gorm.DB, filter catalog.ProductFilter) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\'`, "%"+strings.ToLower(escapeLike(search))+"%")
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}
	if tags := catalog.NormalizeTags(filter.Tags); len(tags) > 0 {
		query = query.Where("id IN (?)",
			r.db.Model(&models.ProductTagModel{}).Select("product_id").Where("tag IN ?", tags))
	}
	return query
}

// Save creates or updates a product, replacing its tag and image rows
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return saveProduct(tx, product)
	})
}

// SaveBatch creates or updates multiple products in one transaction
func (r *GormProductRepository) SaveBatch(ctx context.Context, products []*catalog.Product) error {
	if len(products) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range products {
			if err := saveProduct(tx, p); err != nil {
				return err
			}
		}
		return nil
	})
}

// productState is the part of a stored product that orders change
type productState struct {
	Version int
	Stock   int
}

// saveProduct inserts a new product or updates an existing one. Updates never
// write the stock column unless the product's stock was set explicitly, in
// which case the row must still be at the version the product was read at.
// Orders decrement stock concurrently and bump the version.
func saveProduct(tx *gorm.DB, product *catalog.Product) error {
	model := models.ProductModelFromDomain(product)
	tags, images := model.Tags, model.Images
	model.Tags, model.Images = nil, nil

	var existing []productState
	if err := tx.Model(&models.ProductModel{}).
		Select("version", "stock").
		Where("id = ?", model.ID).
		Limit(1).
		Find(&existing).Error; err != nil {
		return err
	}

	if len(existing) == 0 {
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return err
		}
	} else {
		columns := map[string]any{
			"name":        model.Name,
			"description": model.Description,
			"price":       model.Price,
			"discount":    model.Discount,
			"updated_at":  model.UpdatedAt,
			"version":     gorm.Expr("version + 1"),
		}
		query := tx.Model(&models.ProductModel{}).Where("id = ?", model.ID)
		if product.StockChanged() {
			columns["stock"] = model.Stock
			query = query.Where("version = ?", product.Version)
		}
		result := query.Updates(columns)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrentUpdate
		}
	}

	if err := tx.Where("product_id = ?", model.ID).Delete(&models.ProductTagModel{}).Error; err != nil {
		return err
	}
	if len(tags) > 0 {
		if err := tx.Create(&tags).Error; err != nil {
			return err
		}
	}

	if err := tx.Where("product_id = ?", model.ID).Delete(&models.ProductImageModel{}).Error; err != nil {
		return err
	}
	if len(images) > 0 {
		if err := tx.Create(&images).Error; err != nil {
			return err
		}
	}

	var stored productState
	if err := tx.Model(&models.ProductModel{}).
		Select("version", "stock").
		Where("id = ?", model.ID).
		Take(&stored).Error; err != nil {
		return err
	}
	product.MarkSaved(stored.Version, stored.Stock)
	return nil
}

// DecrementStock subtracts quantity with a single conditional UPDATE so two
// concurrent orders can never both take the last unit.
func (r *GormProductRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return shared.ErrInvalidQuantity
	}

	result := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("id = ? AND stock >= ?", id, quantity).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock - ?", quantity),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrInsufficientStock
	}
	return nil
}

func toDomainProducts(rows []models.ProductModel) []catalog.Product {
	products := make([]catalog.Product, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products
}

// escapeLike neutralizes LIKE wildcards in user input
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Ensure GormProductRepository implements ProductRepository
var _ catalog.ProductRepository = (*GormProductRepository)(nil)
