package handler

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	catalogapp "github.com/shopfront/backend/internal/application/catalog"
	"github.com/shopfront/backend/internal/domain/report"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/interfaces/http/dto"
	"github.com/shopfront/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupProductTestRouter(userID *uuid.UUID) (*gin.Engine, *mockProductService, *mockReportService) {
	products := new(mockProductService)
	reports := new(mockReportService)
	h := NewProductHandler(products, reports, nil)

	router := gin.New()
	if userID != nil {
		router.Use(withUser(*userID))
	}
	router.GET("/products", h.List)
	router.GET("/products/detail", h.Detail)
	router.POST("/products", h.Create)
	router.PUT("/products/edit/:id", h.Update)
	router.POST("/products/like/:id", h.Like)
	router.GET("/products/top-products", h.TopProducts)
	router.POST("/products/import", h.Import)
	router.POST("/products/:id/images", h.AttachImages)
	return router, products, reports
}

func sampleProduct() *catalogapp.ProductResponse {
	return &catalogapp.ProductResponse{
		ID:         testutil.NewTestUUID("case"),
		Name:       "Phone case",
		Price:      decimal.NewFromInt(100),
		FinalPrice: decimal.NewFromInt(90),
		Stock:      4,
		Tags:       []string{"case"},
		Images:     []string{},
	}
}

func TestProductHandler_List(t *testing.T) {
	t.Run("should parse filters and flag the caller", func(t *testing.T) {
		userID := testutil.TestUserID()
		router, products, _ := setupProductTestRouter(&userID)

		products.On("List", mock.Anything, &userID, mock.MatchedBy(func(f catalogapp.ListProductsFilter) bool {
			return f.Search == "case" &&
				f.Page == 2 &&
				f.SortBy == "price" && f.SortDir == "asc" &&
				f.MinPrice != nil && f.MinPrice.Equal(decimal.NewFromInt(10)) &&
				f.MaxPrice != nil && f.MaxPrice.Equal(decimal.RequireFromString("99.5")) &&
				assert.ObjectsAreEqual([]string{"red", "blue"}, f.Tags)
		})).Return([]catalogapp.ProductResponse{*sampleProduct()}, int64(11), nil)

		w := testutil.Do(t, router, testutil.Request{
			Path: "/products?search=case&page=2&minPrice=10&maxPrice=99.5&tags=red,%20blue&sort=price&order=asc",
		})

		body := testutil.AssertOK(t, w, http.StatusOK)
		assert.Len(t, body["products"], 1)
		assert.Equal(t, float64(11), body["total"])
		pagination := body["pagination"].(map[string]interface{})
		assert.Equal(t, float64(2), pagination["totalPages"])
		products.AssertExpectations(t)
	})

	t.Run("should accept tags as a JSON array", func(t *testing.T) {
		router, products, _ := setupProductTestRouter(nil)

		products.On("List", mock.Anything, (*uuid.UUID)(nil), mock.MatchedBy(func(f catalogapp.ListProductsFilter) bool {
			return assert.ObjectsAreEqual([]string{"red", "blue"}, f.Tags) && f.Page == 1
		})).Return([]catalogapp.ProductResponse{}, int64(0), nil)

		w := testutil.Do(t, router, testutil.Request{Path: `/products?tags=%5B%22red%22,%22blue%22%5D`})

		testutil.AssertOK(t, w, http.StatusOK)
		products.AssertExpectations(t)
	})

	t.Run("should reject a non-numeric price bound", func(t *testing.T) {
		router, products, _ := setupProductTestRouter(nil)

		w := testutil.Do(t, router, testutil.Request{Path: "/products?minPrice=cheap"})

		testutil.AssertError(t, w, http.StatusBadRequest, dto.ErrCodeBadRequest)
		products.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("should reject malformed JSON tags", func(t *testing.T) {
		router, _, _ := setupProductTestRouter(nil)

		w := testutil.Do(t, router, testutil.Request{Path: "/products?tags=%5B%22red%22"})

		testutil.AssertError(t, w, http.StatusBadRequest, dto.ErrCodeBadRequest)
	})
}

func TestProductHandler_Detail(t *testing.T) {
	t.Run("should return the product", func(t *testing.T) {
		router, products, _ := setupProductTestRouter(nil)
		p := sampleProduct()
		products.On("GetByID", mock.Anything, p.ID, (*uuid.UUID)(nil)).Return(p, nil)

		w := testutil.Do(t, router, testutil.Request{Path: "/products/detail?id=" + p.ID.String()})

		body := testutil.AssertOK(t, w, http.StatusOK)
		product := body["product"].(map[string]interface{})
		assert.Equal(t, "Phone case", product["name"])
		assert.Equal(t, "90", product["finalPrice"])
	})

	t.Run("should return 404 for a missing product", func(t *testing.T) {
		router, products, _ := setupProductTestRouter(nil)
		id := uuid.New()
		products.On("GetByID", mock.Anything, id, (*uuid.UUID)(nil)).Return(nil, shared.NewNotFoundError("Product"))

		w := testutil.Do(t, router, testutil.Request{Path: "/products/detail?id=" + id.String()})

		testutil.AssertError(t, w, http.StatusNotFound, dto.ErrCodeNotFound)
	})

	t.Run("should reject a malformed id", func(t *testing.T) {
		router, _, _ := setupProductTestRouter(nil)

		w := testutil.Do(t, router, testutil.Request{Path: "/products/detail?id=abc"})

		testutil.AssertError(t, w, http.StatusBadRequest, dto.ErrCodeBadRequest)
	})
}

func TestProductHandler_Create(t *testing.T) {
	t.Run("should create a product", func(t *testing.T) {
		router, products, _ := setupProductTestRouter(nil)
		products.On("Create", mock.Anything, mock.MatchedBy(func(req catalogapp.CreateProductRequest) bool {
			return req.Name == "Phone case" && req.Price.Equal(decimal.NewFromInt(100)) && req.Stock == 4
		})).Return(sampleProduct(), nil)

		w := testutil.Do(t, router, testutil.Request{
			Method: http.MethodPost,
			Path:   "/products",
			Body:   `{"name":"Phone case","price":"100","stock":4,"tags":["case"]}`,
		})

		testutil.AssertOK(t, w, http.StatusCreated)
		products.AssertExpectations(t)
	})

	t.Run("should list field errors for a missing price", func(t *testing.T) {
		router, products, _ := setupProductTestRouter(nil)

		w := testutil.Do(t, router, testutil.Request{
			Method: http.MethodPost,
			Path:   "/products",
			Body:   `{"name":"Phone case"}`,
		})

		body := testutil.AssertError(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
		assert.NotEmpty(t, body["errors"])
		products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("should surface domain validation errors", func(t *testing.T) {
		router, products, _ := setupProductTestRouter(nil)
		products.On("Create", mock.Anything, mock.Anything).
			Return(nil, shared.NewValidationError("discount must be in [0, 100)"))

		w := testutil.Do(t, router, testutil.Request{
			Method: http.MethodPost,
			Path:   "/products",
			Body:   `{"name":"Phone case","price":"100","discount":"100"}`,
		})

		body := testutil.AssertError(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
		assert.Equal(t, "discount must be in [0, 100)", body["message"])
	})
}

func TestProductHandler_Update(t *testing.T) {
	router, products, _ := setupProductTestRouter(nil)
	p := sampleProduct()
	products.On("Update", mock.Anything, p.ID, mock.MatchedBy(func(req catalogapp.UpdateProductRequest) bool {
		return req.Stock != nil && *req.Stock == 9 && req.Name == nil
	})).Return(p, nil)

	w := testutil.Do(t, router, testutil.Request{
		Method: http.MethodPut,
		Path:   "/products/edit/" + p.ID.String(),
		Body:   `{"stock":9}`,
	})

	testutil.AssertOK(t, w, http.StatusOK)
	products.AssertExpectations(t)
}

func TestProductHandler_Like(t *testing.T) {
	t.Run("should like for the caller", func(t *testing.T) {
		userID := testutil.TestUserID()
		router, products, _ := setupProductTestRouter(&userID)
		productID := uuid.New()
		products.On("Like", mock.Anything, userID, productID, true).Return(nil)

		w := testutil.Do(t, router, testutil.Request{
			Method: http.MethodPost,
			Path:   "/products/like/" + productID.String(),
			Body:   `{"like":true}`,
		})

		body := testutil.AssertOK(t, w, http.StatusOK)
		assert.Equal(t, true, body["liked"])
		products.AssertExpectations(t)
	})

	t.Run("should require a caller", func(t *testing.T) {
		router, _, _ := setupProductTestRouter(nil)

		w := testutil.Do(t, router, testutil.Request{
			Method: http.MethodPost,
			Path:   "/products/like/" + uuid.NewString(),
			Body:   `{"like":true}`,
		})

		testutil.AssertError(t, w, http.StatusUnauthorized, dto.ErrCodeUnauthorized)
	})
}

func TestProductHandler_TopProducts(t *testing.T) {
	router, _, reports := setupProductTestRouter(nil)
	items := []report.TopProduct{
		{Rank: 11, ProductID: uuid.New(), ProductName: "Cable", Count: 3},
	}
	reports.On("TopProducts", mock.Anything, 2).Return(shared.NewPaginated(items, 11, 2, 10), nil)

	w := testutil.Do(t, router, testutil.Request{Path: "/products/top-products?page=2"})

	body := testutil.AssertOK(t, w, http.StatusOK)
	assert.Len(t, body["data"], 1)
	metadata := body["metadata"].(map[string]interface{})
	assert.Equal(t, float64(11), metadata["total"])
	assert.Equal(t, float64(2), metadata["totalPages"])
}

func multipartBody(t *testing.T, field, filename string, content []byte, extra ...string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	names := append([]string{filename}, extra...)
	for _, name := range names {
		part, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func TestProductHandler_Import(t *testing.T) {
	csv := "name,price,stock\nCase,10,3\n"

	t.Run("should import the uploaded CSV", func(t *testing.T) {
		router, products, _ := setupProductTestRouter(nil)
		products.On("ImportCSV", mock.Anything, csv).
			Return(&catalogapp.ImportResult{TotalRows: 1, ImportedRows: 1}, nil)

		body, contentType := multipartBody(t, "file", "products.csv", []byte(csv))
		req := httptest.NewRequest(http.MethodPost, "/products/import", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		resp := testutil.AssertOK(t, w, http.StatusOK)
		result := resp["result"].(map[string]interface{})
		assert.Equal(t, float64(1), result["importedRows"])
	})

	t.Run("should accept the legacy field name", func(t *testing.T) {
		router, products, _ := setupProductTestRouter(nil)
		products.On("ImportCSV", mock.Anything, csv).Return(&catalogapp.ImportResult{}, nil)

		body, contentType := multipartBody(t, "excel", "products.csv", []byte(csv))
		req := httptest.NewRequest(http.MethodPost, "/products/import", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		testutil.AssertOK(t, w, http.StatusOK)
	})

	t.Run("should require a file", func(t *testing.T) {
		router, _, _ := setupProductTestRouter(nil)

		w := testutil.Do(t, router, testutil.Request{Method: http.MethodPost, Path: "/products/import"})

		testutil.AssertError(t, w, http.StatusBadRequest, dto.ErrCodeBadRequest)
	})
}

func TestProductHandler_AttachImages(t *testing.T) {
	t.Run("should pass every file in order", func(t *testing.T) {
		router, products, _ := setupProductTestRouter(nil)
		p := sampleProduct()
		products.On("AttachImages", mock.Anything, p.ID, mock.MatchedBy(func(files []catalogapp.ImageUpload) bool {
			return len(files) == 2 && files[0].Filename == "a.png" && files[1].Filename == "b.png"
		})).Return(p, nil)

		body, contentType := multipartBody(t, "productImage", "a.png", []byte("png"), "b.png")
		req := httptest.NewRequest(http.MethodPost, "/products/"+p.ID.String()+"/images", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		testutil.AssertOK(t, w, http.StatusOK)
		products.AssertExpectations(t)
	})

	t.Run("should report disabled storage", func(t *testing.T) {
		router, products, _ := setupProductTestRouter(nil)
		products.On("AttachImages", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, shared.NewDomainError("STORAGE_DISABLED", "Image storage is not configured"))

		body, contentType := multipartBody(t, "productImage", "a.png", []byte("png"))
		req := httptest.NewRequest(http.MethodPost, "/products/"+uuid.NewString()+"/images", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		testutil.AssertError(t, w, http.StatusServiceUnavailable, dto.ErrCodeStorageDisabled)
	})

	t.Run("should map unexpected failures to 500", func(t *testing.T) {
		router, products, _ := setupProductTestRouter(nil)
		products.On("AttachImages", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("boom"))

		body, contentType := multipartBody(t, "productImage", "a.png", []byte("png"))
		req := httptest.NewRequest(http.MethodPost, "/products/"+uuid.NewString()+"/images", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		testutil.AssertError(t, w, http.StatusInternalServerError, dto.ErrCodeInternal)
	})
}
