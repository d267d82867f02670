package handler

import (
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	catalogapp "github.com/shopfront/backend/internal/application/catalog"
	"github.com/shopfront/backend/internal/domain/report"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Multipart field names accepted by the upload endpoints
const (
	importFileField   = "file"
	legacyImportField = "excel"
	imageFileField    = "productImage"
)

// ProductService is the catalog surface used by ProductHandler
type ProductService interface {
	Create(ctx context.Context, req catalogapp.CreateProductRequest) (*catalogapp.ProductResponse, error)
	Update(ctx context.Context, id uuid.UUID, req catalogapp.UpdateProductRequest) (*catalogapp.ProductResponse, error)
	GetByID(ctx context.Context, id uuid.UUID, userID *uuid.UUID) (*catalogapp.ProductResponse, error)
	List(ctx context.Context, userID *uuid.UUID, filter catalogapp.ListProductsFilter) ([]catalogapp.ProductResponse, int64, error)
	Like(ctx context.Context, userID, productID uuid.UUID, like bool) error
	ImportCSV(ctx context.Context, r io.Reader) (*catalogapp.ImportResult, error)
	AttachImages(ctx context.Context, productID uuid.UUID, files []catalogapp.ImageUpload) (*catalogapp.ProductResponse, error)
}

// TopProductsService ranks the best-selling products
type TopProductsService interface {
	TopProducts(ctx context.Context, page int) (shared.Paginated[report.TopProduct], error)
}

// ProductHandler handles product-related API endpoints
type ProductHandler struct {
	BaseHandler
	products ProductService
	reports  TopProductsService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(products ProductService, reports TopProductsService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		BaseHandler: newBaseHandler(logger),
		products:    products,
		reports:     reports,
	}
}

// List handles GET /products
func (h *ProductHandler) List(c *gin.Context) {
	filter := catalogapp.ListProductsFilter{
		Search:  strings.TrimSpace(c.Query("search")),
		SortBy:  c.Query("sort"),
		SortDir: c.Query("order"),
		Page:    queryPage(c),
	}

	var ok bool
	if filter.MinPrice, ok = h.queryDecimal(c, "minPrice"); !ok {
		return
	}
	if filter.MaxPrice, ok = h.queryDecimal(c, "maxPrice"); !ok {
		return
	}
	tags, err := parseTags(c.Query("tags"))
	if err != nil {
		h.BadRequest(c, "tags must be a comma-separated list or a JSON array of strings")
		return
	}
	filter.Tags = tags

	products, total, err := h.products.List(c.Request.Context(), callerID(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.Payload{
		"products":   products,
		"pagination": dto.NewPagination(total, filter.Page, shared.DefaultPageSize),
		"total":      total,
	})
}

// Detail handles GET /products/detail?id=
func (h *ProductHandler) Detail(c *gin.Context) {
	id, ok := h.parseUUID(c, c.Query("id"), "id")
	if !ok {
		return
	}

	product, err := h.products.GetByID(c.Request.Context(), id, callerID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.Payload{"product": product})
}

// Create handles POST /products
func (h *ProductHandler) Create(c *gin.Context) {
	var req catalogapp.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	product, err := h.products.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.Payload{"product": product})
}

// Update handles PUT /products/edit/:id
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := h.parseUUID(c, c.Param("id"), "id")
	if !ok {
		return
	}

	var req catalogapp.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	product, err := h.products.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.Payload{"product": product})
}

// Like handles POST /products/like/:id
func (h *ProductHandler) Like(c *gin.Context) {
	userID := callerID(c)
	if userID == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	productID, ok := h.parseUUID(c, c.Param("id"), "id")
	if !ok {
		return
	}

	var req catalogapp.LikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	if err := h.products.Like(c.Request.Context(), *userID, productID, req.Like); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.Payload{"productId": productID, "liked": req.Like})
}

// TopProducts handles GET /products/top-products?page=
func (h *ProductHandler) TopProducts(c *gin.Context) {
	result, err := h.reports.TopProducts(c.Request.Context(), queryPage(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.Payload{
		"data":     result.Items,
		"metadata": dto.NewPagination(result.Total, result.Page, result.PageSize),
	})
}

// Import handles POST /products/import with a multipart CSV file
func (h *ProductHandler) Import(c *gin.Context) {
	header, err := c.FormFile(importFileField)
	if err != nil {
		header, err = c.FormFile(legacyImportField)
	}
	if err != nil {
		h.BadRequest(c, "A CSV file is required in the \""+importFileField+"\" field")
		return
	}

	file, err := header.Open()
	if err != nil {
		h.BadRequest(c, "Unable to read the uploaded file")
		return
	}
	defer file.Close()

	result, err := h.products.ImportCSV(c.Request.Context(), file)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.logger.Info("Product import finished",
		zap.String("filename", header.Filename),
		zap.Int("imported", result.ImportedRows),
		zap.Int("errors", result.ErrorRows),
	)
	h.Success(c, dto.Payload{"result": result})
}

// AttachImages handles POST /products/:id/images with multipart image files
func (h *ProductHandler) AttachImages(c *gin.Context) {
	productID, ok := h.parseUUID(c, c.Param("id"), "id")
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		h.BadRequest(c, "A multipart form is required")
		return
	}
	headers := form.File[imageFileField]
	if len(headers) == 0 {
		h.BadRequest(c, "At least one image is required in the \""+imageFileField+"\" field")
		return
	}

	uploads, closeAll, err := openUploads(headers)
	defer closeAll()
	if err != nil {
		h.BadRequest(c, "Unable to read the uploaded images")
		return
	}

	product, err := h.products.AttachImages(c.Request.Context(), productID, uploads)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.Payload{"product": product})
}

func (h *ProductHandler) queryDecimal(c *gin.Context, key string) (*decimal.Decimal, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, true
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		h.BadRequest(c, key+" must be a number")
		return nil, false
	}
	return &d, true
}

// parseTags accepts either a JSON array of strings or a comma-separated list
func parseTags(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var parts []string
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &parts); err != nil {
			return nil, err
		}
	} else {
		parts = strings.Split(raw, ",")
	}

	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags, nil
}

func openUploads(headers []*multipart.FileHeader) ([]catalogapp.ImageUpload, func(), error) {
	files := make([]multipart.File, 0, len(headers))
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}

	uploads := make([]catalogapp.ImageUpload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, closeAll, err
		}
		files = append(files, f)
		uploads = append(uploads, catalogapp.ImageUpload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		})
	}
	return uploads, closeAll, nil
}
