package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/shared"
	csvimport "github.com/shopfront/backend/internal/infrastructure/import"
	"github.com/shopfront/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ImageStorage stores product images and resolves their public URLs
type ImageStorage interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

var allowedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// ProductService handles catalog management and the per-user liked flags
type ProductService struct {
	productRepo     catalog.ProductRepository
	likeRepo        catalog.LikeRepository
	images          ImageStorage
	eventPublisher  shared.EventPublisher
	queryTimeout    time.Duration
	maxImportErrors int
	logger          *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(productRepo catalog.ProductRepository, likeRepo catalog.LikeRepository, logger *zap.Logger) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		productRepo:     productRepo,
		likeRepo:        likeRepo,
		maxImportErrors: csvimport.DefaultMaxErrors,
		logger:          logger,
	}
}

// SetImageStorage enables AttachImages
func (s *ProductService) SetImageStorage(images ImageStorage) {
	s.images = images
}

// SetEventPublisher sets the publisher for ProductCreated and ProductUpdated
func (s *ProductService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetQueryTimeout bounds every store interaction; zero disables the bound
func (s *ProductService) SetQueryTimeout(timeout time.Duration) {
	s.queryTimeout = timeout
}

// Create creates a new product
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	if req.Price == nil {
		return nil, shared.NewValidationError("price is required")
	}
	product, err := buildProduct(req.Name, req.Description, *req.Price, req.Stock, req.Tags, req.Discount)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, shared.WrapPersistence(fmt.Errorf("save product: %w", err))
	}

	s.logger.Info("Product created", zap.String("product_id", product.ID.String()), zap.String("name", product.Name))
	s.publish(ctx, product)

	resp := ToProductResponse(product)
	return &resp, nil
}

// Update applies the non-nil fields of req to a product
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, shared.WrapPersistence(err)
	}

	if req.Name != nil || req.Description != nil {
		name, description := product.Name, product.Description
		if req.Name != nil {
			name = *req.Name
		}
		if req.Description != nil {
			description = *req.Description
		}
		if err := product.Update(name, description); err != nil {
			return nil, err
		}
	}
	if req.Price != nil {
		if err := product.SetPrice(*req.Price); err != nil {
			return nil, err
		}
	}
	if req.RemoveDiscount {
		if err := product.SetDiscount(nil); err != nil {
			return nil, err
		}
	} else if req.Discount != nil {
		if err := product.SetDiscount(req.Discount); err != nil {
			return nil, err
		}
	}
	if req.Stock != nil {
		if err := product.SetStock(*req.Stock); err != nil {
			return nil, err
		}
	}
	if req.Tags != nil {
		if err := product.SetTags(*req.Tags); err != nil {
			return nil, err
		}
	}

	product.MarkUpdated()
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, shared.WrapPersistence(fmt.Errorf("save product: %w", err))
	}

	s.publish(ctx, product)

	resp := ToProductResponse(product)
	return &resp, nil
}

// GetByID returns a product. When userID is set the liked flag is filled in.
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID, userID *uuid.UUID) (*ProductResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, shared.WrapPersistence(err)
	}

	resp := ToProductResponse(product)
	if userID != nil {
		liked, err := s.likeRepo.LikedAmong(ctx, *userID, []uuid.UUID{id})
		if err != nil {
			return nil, shared.WrapPersistence(fmt.Errorf("load liked products: %w", err))
		}
		resp.Liked = liked[id]
	}
	return &resp, nil
}

// List returns one page of products matching the filter and the total match count
func (s *ProductService) List(ctx context.Context, userID *uuid.UUID, filter ListProductsFilter) ([]ProductResponse, int64, error) {
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return nil, 0, shared.NewValidationError("minPrice cannot be greater than maxPrice")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	products, total, err := s.productRepo.Find(ctx, catalog.ProductFilter{
		Search:   strings.TrimSpace(filter.Search),
		MinPrice: filter.MinPrice,
		MaxPrice: filter.MaxPrice,
		Tags:     catalog.NormalizeTags(filter.Tags),
		SortBy:   filter.SortBy,
		SortDir:  filter.SortDir,
		Page:     page,
		PageSize: shared.DefaultPageSize,
	})
	if err != nil {
		return nil, 0, shared.WrapPersistence(fmt.Errorf("find products: %w", err))
	}

	liked := map[uuid.UUID]bool{}
	if userID != nil && len(products) > 0 {
		ids := make([]uuid.UUID, len(products))
		for i := range products {
			ids[i] = products[i].ID
		}
		liked, err = s.likeRepo.LikedAmong(ctx, *userID, ids)
		if err != nil {
			return nil, 0, shared.WrapPersistence(fmt.Errorf("load liked products: %w", err))
		}
	}

	return ToProductResponses(products, liked), total, nil
}

// Like adds the product to, or removes it from, the user's liked set
func (s *ProductService) Like(ctx context.Context, userID, productID uuid.UUID, like bool) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return shared.WrapPersistence(err)
	}

	var err error
	if like {
		err = s.likeRepo.Like(ctx, userID, productID)
	} else {
		err = s.likeRepo.Unlike(ctx, userID, productID)
	}
	if err != nil {
		return shared.WrapPersistence(fmt.Errorf("update liked products: %w", err))
	}
	return nil
}

// ImportCSV creates products from a CSV file. Rows that fail validation are
// reported with their line numbers; all other rows are saved in one batch.
func (s *ProductService) ImportCSV(ctx context.Context, r io.Reader) (*ImportResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "product", "import_csv")
	defer span.End()

	parsed, err := csvimport.ParseProducts(r, s.maxImportErrors)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, importFileError(err)
	}

	products := make([]*catalog.Product, 0, len(parsed.Rows))
	for _, row := range parsed.Rows {
		product, err := buildProduct(row.Name, row.Description, row.Price, row.Stock, row.Tags, row.Discount)
		if err != nil {
			parsed.Errors.Add(csvimport.RowError{
				Row:     row.Line,
				Code:    csvimport.ErrCodeImportValidation,
				Message: err.Error(),
			})
			continue
		}
		products = append(products, product)
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrRowCount, parsed.TotalRows)

	if len(products) > 0 {
		saveCtx, cancel := s.withTimeout(ctx)
		defer cancel()
		if err := s.productRepo.SaveBatch(saveCtx, products); err != nil {
			err = shared.WrapPersistence(fmt.Errorf("save imported products: %w", err))
			telemetry.RecordError(span, err)
			return nil, err
		}
		for _, p := range products {
			s.publish(ctx, p)
		}
	}

	s.logger.Info("Product import finished",
		zap.Int("total_rows", parsed.TotalRows),
		zap.Int("imported", len(products)),
		zap.Int("failed", parsed.Errors.FailedRows()),
	)

	return &ImportResult{
		TotalRows:    parsed.TotalRows,
		ImportedRows: len(products),
		ErrorRows:    parsed.Errors.FailedRows(),
		Errors:       parsed.Errors.Errors(),
		IsTruncated:  parsed.Errors.IsTruncated(),
		TotalErrors:  parsed.Errors.TotalCount(),
	}, nil
}

// AttachImages uploads images and appends their URLs to the product in
// upload order. Objects already uploaded are removed again when a later
// step fails.
func (s *ProductService) AttachImages(ctx context.Context, productID uuid.UUID, files []ImageUpload) (*ProductResponse, error) {
	if s.images == nil {
		return nil, shared.NewDomainError("STORAGE_DISABLED", "Image storage is not configured")
	}
	if len(files) == 0 {
		return nil, shared.NewValidationError("at least one image is required")
	}
	exts := make([]string, len(files))
	for i, f := range files {
		ext := strings.ToLower(filepath.Ext(f.Filename))
		if !allowedImageExtensions[ext] {
			return nil, shared.NewValidationError(fmt.Sprintf("file %q is not a supported image type", f.Filename))
		}
		if f.ContentType != "" && !strings.HasPrefix(f.ContentType, "image/") {
			return nil, shared.NewValidationError(fmt.Sprintf("file %q is not an image", f.Filename))
		}
		exts[i] = ext
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "product", "attach_images",
		telemetry.SpanAttrProductID, productID.String(),
	)
	defer span.End()

	findCtx, cancel := s.withTimeout(ctx)
	product, err := s.productRepo.FindByID(findCtx, productID)
	cancel()
	if err != nil {
		return nil, shared.WrapPersistence(err)
	}

	uploaded := make([]string, 0, len(files))
	urls := make([]string, 0, len(files))
	for i, f := range files {
		key := fmt.Sprintf("products/%s/%s%s", productID, uuid.New(), exts[i])
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		if err := s.images.Upload(ctx, key, f.Body, f.Size, contentType); err != nil {
			s.cleanupImages(ctx, uploaded)
			telemetry.RecordError(span, err)
			return nil, shared.WrapPersistence(fmt.Errorf("upload image: %w", err))
		}
		uploaded = append(uploaded, key)
		urls = append(urls, s.images.PublicURL(key))
	}

	product.AddImages(urls...)
	product.MarkUpdated()

	saveCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.productRepo.Save(saveCtx, product); err != nil {
		s.cleanupImages(ctx, uploaded)
		telemetry.RecordError(span, err)
		return nil, shared.WrapPersistence(fmt.Errorf("save product images: %w", err))
	}

	s.publish(ctx, product)

	resp := ToProductResponse(product)
	return &resp, nil
}

func (s *ProductService) cleanupImages(ctx context.Context, keys []string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	for _, key := range keys {
		if err := s.images.Delete(ctx, key); err != nil {
			s.logger.Warn("Failed to remove orphaned image", zap.String("key", key), zap.Error(err))
		}
	}
}

func (s *ProductService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}

func (s *ProductService) publish(ctx context.Context, product *catalog.Product) {
	events := product.GetDomainEvents()
	product.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish product events",
			zap.String("product_id", product.ID.String()),
			zap.Error(err),
		)
	}
}

// buildProduct creates a product with the optional fields applied
func buildProduct(name, description string, price decimal.Decimal, stock int, tags []string, discount *decimal.Decimal) (*catalog.Product, error) {
	product, err := catalog.NewProduct(name, description, price, stock)
	if err != nil {
		return nil, err
	}
	if len(tags) > 0 {
		if err := product.SetTags(tags); err != nil {
			return nil, err
		}
	}
	if discount != nil {
		if err := product.SetDiscount(discount); err != nil {
			return nil, err
		}
	}
	return product, nil
}

func importFileError(err error) error {
	var missing *csvimport.MissingColumnsError
	switch {
	case errors.As(err, &missing):
		return shared.NewValidationError(missing.Error())
	case errors.Is(err, csvimport.ErrEmptyFile),
		errors.Is(err, csvimport.ErrInvalidEncoding),
		errors.Is(err, csvimport.ErrMissingHeader):
		return shared.NewValidationError(err.Error())
	}
	return shared.NewValidationError(fmt.Sprintf("could not read CSV file: %v", err))
}
