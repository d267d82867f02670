package catalog_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	appcatalog "github.com/shopfront/backend/internal/application/catalog"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/infrastructure/persistence"
	"github.com/shopfront/backend/internal/infrastructure/storage"
	"github.com/shopfront/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setupProductService(t *testing.T) *appcatalog.ProductService {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	return appcatalog.NewProductService(
		persistence.NewGormProductRepository(db),
		persistence.NewGormLikeRepository(db),
		zaptest.NewLogger(t),
	)
}

// racingProductRepository runs beforeSave ahead of the next Save, standing in
// for an order committed between the service's read and its write
type racingProductRepository struct {
	*persistence.GormProductRepository
	beforeSave func()
}

func (r *racingProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	if r.beforeSave != nil {
		r.beforeSave()
		r.beforeSave = nil
	}
	return r.GormProductRepository.Save(ctx, product)
}

// uploadHookStorage runs onUpload while the first image is being uploaded
type uploadHookStorage struct {
	*storage.MemoryImageStorage
	onUpload func()
}

func (s *uploadHookStorage) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if s.onUpload != nil {
		s.onUpload()
		s.onUpload = nil
	}
	return s.MemoryImageStorage.Upload(ctx, key, body, size, contentType)
}

func setupRacingProductService(t *testing.T) (*appcatalog.ProductService, *racingProductRepository) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	repo := &racingProductRepository{GormProductRepository: persistence.NewGormProductRepository(db)}
	svc := appcatalog.NewProductService(repo, persistence.NewGormLikeRepository(db), zaptest.NewLogger(t))
	return svc, repo
}

func TestProductService_ImportThenSearch(t *testing.T) {
	svc := setupProductService(t)
	ctx := context.Background()

	csv := "name,price,tags,description,stock,discount\n" +
		"Blue mug,12,\"kitchen,blue\",Stoneware,5,\n" +
		"Red mug,14,kitchen,,2,10\n" +
		"Poster,30,wall,,1,\n" +
		",1,,,,\n"

	result, err := svc.ImportCSV(ctx, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 3, result.ImportedRows)
	assert.Equal(t, 1, result.ErrorRows)

	minPrice := decimal.NewFromInt(13)
	items, total, err := svc.List(ctx, nil, appcatalog.ListProductsFilter{
		Search:   "MUG",
		MinPrice: &minPrice,
		Tags:     []string{"kitchen"},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "Red mug", items[0].Name)
	assert.True(t, items[0].FinalPrice.Equal(decimal.RequireFromString("12.6")))
}

func TestProductService_LikesAreFlaggedPerUser(t *testing.T) {
	svc := setupProductService(t)
	ctx := context.Background()

	price := decimal.NewFromInt(5)
	a, err := svc.Create(ctx, appcatalog.CreateProductRequest{Name: "A", Price: &price, Stock: 1})
	require.NoError(t, err)
	b, err := svc.Create(ctx, appcatalog.CreateProductRequest{Name: "B", Price: &price, Stock: 1})
	require.NoError(t, err)

	alice, bob := uuid.New(), uuid.New()
	require.NoError(t, svc.Like(ctx, alice, a.ID, true))
	require.NoError(t, svc.Like(ctx, alice, a.ID, true))
	require.NoError(t, svc.Like(ctx, bob, b.ID, true))

	items, _, err := svc.List(ctx, &alice, appcatalog.ListProductsFilter{})
	require.NoError(t, err)
	liked := map[string]bool{}
	for _, it := range items {
		liked[it.Name] = it.Liked
	}
	assert.Equal(t, map[string]bool{"A": true, "B": false}, liked)

	require.NoError(t, svc.Like(ctx, alice, a.ID, false))
	detail, err := svc.GetByID(ctx, a.ID, &alice)
	require.NoError(t, err)
	assert.False(t, detail.Liked)
}

func TestProductService_AttachImages_KeepsConcurrentSale(t *testing.T) {
	svc, repo := setupRacingProductService(t)
	ctx := context.Background()

	price := decimal.NewFromInt(20)
	created, err := svc.Create(ctx, appcatalog.CreateProductRequest{Name: "Lamp", Price: &price, Stock: 5})
	require.NoError(t, err)

	images := &uploadHookStorage{MemoryImageStorage: storage.NewMemoryImageStorage("http://localhost/images")}
	images.onUpload = func() {
		require.NoError(t, repo.DecrementStock(ctx, created.ID, 2))
	}
	svc.SetImageStorage(images)

	resp, err := svc.AttachImages(ctx, created.ID, []appcatalog.ImageUpload{
		{Filename: "lamp.png", ContentType: "image/png", Size: 3, Body: strings.NewReader("png")},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Stock)
	assert.Len(t, resp.Images, 1)

	stored, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Stock)
	assert.Len(t, stored.Images, 1)
}

func TestProductService_Update_ConcurrentSale(t *testing.T) {
	svc, repo := setupRacingProductService(t)
	ctx := context.Background()

	price := decimal.NewFromInt(20)
	created, err := svc.Create(ctx, appcatalog.CreateProductRequest{Name: "Lamp", Price: &price, Stock: 5})
	require.NoError(t, err)

	sell := func(quantity int) func() {
		return func() {
			require.NoError(t, repo.DecrementStock(ctx, created.ID, quantity))
		}
	}

	t.Run("edits without stock keep the sale", func(t *testing.T) {
		repo.beforeSave = sell(2)
		name := "Desk lamp"

		resp, err := svc.Update(ctx, created.ID, appcatalog.UpdateProductRequest{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "Desk lamp", resp.Name)
		assert.Equal(t, 3, resp.Stock)
	})

	t.Run("stock overwrite against a stale read is rejected", func(t *testing.T) {
		repo.beforeSave = sell(1)
		stock := 10

		_, err := svc.Update(ctx, created.ID, appcatalog.UpdateProductRequest{Stock: &stock})
		assert.ErrorIs(t, err, shared.ErrConcurrentUpdate)

		stored, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, stored.Stock)
	})

	t.Run("stock overwrite succeeds once re-read", func(t *testing.T) {
		stock := 10

		resp, err := svc.Update(ctx, created.ID, appcatalog.UpdateProductRequest{Stock: &stock})
		require.NoError(t, err)
		assert.Equal(t, 10, resp.Stock)
	})
}
