package persistence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProduct(t *testing.T, repo *GormProductRepository, name string, price string, stock int, createdAt time.Time, tags ...string) *catalog.Product {
	t.Helper()

	p, err := catalog.NewProduct(name, "", decimal.RequireFromString(price), stock)
	require.NoError(t, err)
	p.CreatedAt = createdAt.UTC()
	p.UpdatedAt = createdAt.UTC()
	if len(tags) > 0 {
		require.NoError(t, p.SetTags(tags))
	}
	require.NoError(t, repo.Save(context.Background(), p))
	return p
}

func TestGormProductRepository_SaveAndFindByID(t *testing.T) {
	repo := NewGormProductRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()

	p, err := catalog.NewProduct("Phone Case", "Silicone", decimal.RequireFromString("19.99"), 5)
	require.NoError(t, err)
	ten := decimal.NewFromInt(10)
	require.NoError(t, p.SetDiscount(&ten))
	require.NoError(t, p.SetTags([]string{"cases", "accessories"}))
	p.AddImages("https://cdn.example.com/a.png", "https://cdn.example.com/b.png")
	require.NoError(t, repo.Save(ctx, p))

	found, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Phone Case", found.Name)
	assert.Equal(t, "Silicone", found.Description)
	assert.True(t, found.Price.Equal(decimal.RequireFromString("19.99")))
	require.NotNil(t, found.Discount)
	assert.True(t, found.Discount.Equal(ten))
	assert.Equal(t, 5, found.Stock)
	assert.Equal(t, []string{"cases", "accessories"}, found.Tags)
	assert.Equal(t, []string{"https://cdn.example.com/a.png", "https://cdn.example.com/b.png"}, found.Images)

	t.Run("update replaces tags and images", func(t *testing.T) {
		require.NoError(t, found.SetTags([]string{"sale"}))
		found.Images = []string{"https://cdn.example.com/c.png"}
		found.Discount = nil
		require.NoError(t, repo.Save(ctx, found))

		again, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"sale"}, again.Tags)
		assert.Equal(t, []string{"https://cdn.example.com/c.png"}, again.Images)
		assert.Nil(t, again.Discount)
	})

	t.Run("missing product is not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormProductRepository_FindByIDs(t *testing.T) {
	repo := NewGormProductRepository(testutil.NewSQLiteDB(t))
	now := time.Now()

	a := seedProduct(t, repo, "A", "1", 1, now)
	b := seedProduct(t, repo, "B", "2", 2, now)

	found, err := repo.FindByIDs(context.Background(), []uuid.UUID{a.ID, uuid.New(), b.ID})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	empty, err := repo.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGormProductRepository_Find(t *testing.T) {
	repo := NewGormProductRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	cable := seedProduct(t, repo, "USB Cable", "5", 10, base, "cables")
	charger := seedProduct(t, repo, "Fast Charger", "25", 3, base.Add(time.Hour), "chargers", "power")
	bank := seedProduct(t, repo, "Power Bank", "40", 0, base.Add(2*time.Hour), "power")
	cloth := seedProduct(t, repo, "100% Cotton Cloth", "3", 7, base.Add(3*time.Hour))

	min := decimal.NewFromInt(5)
	max := decimal.NewFromInt(25)

	tests := []struct {
		name   string
		filter catalog.ProductFilter
		want   []uuid.UUID
		total  int64
	}{
		{
			name:   "search is case insensitive",
			filter: catalog.ProductFilter{Search: "cHaRgEr"},
			want:   []uuid.UUID{charger.ID},
			total:  1,
		},
		{
			name:   "price range is inclusive on both ends",
			filter: catalog.ProductFilter{MinPrice: &min, MaxPrice: &max},
			want:   []uuid.UUID{charger.ID, cable.ID},
			total:  2,
		},
		{
			name:   "tags match any",
			filter: catalog.ProductFilter{Tags: []string{"power"}},
			want:   []uuid.UUID{bank.ID, charger.ID},
			total:  2,
		},
		{
			name:   "search combined with tags",
			filter: catalog.ProductFilter{Search: "bank", Tags: []string{"power", "cables"}},
			want:   []uuid.UUID{bank.ID},
			total:  1,
		},
		{
			name:   "sort by price ascending",
			filter: catalog.ProductFilter{Tags: []string{"power"}, SortBy: "price", SortDir: "asc"},
			want:   []uuid.UUID{charger.ID, bank.ID},
			total:  2,
		},
		{
			name:   "sort by stock ascending",
			filter: catalog.ProductFilter{SortBy: "stock", SortDir: "ASC"},
			want:   []uuid.UUID{bank.ID, charger.ID, cloth.ID, cable.ID},
			total:  4,
		},
		{
			name:   "unknown sort column falls back to newest first",
			filter: catalog.ProductFilter{SortBy: "cost_price"},
			want:   []uuid.UUID{cloth.ID, bank.ID, charger.ID, cable.ID},
			total:  4,
		},
		{
			name:   "percent sign is matched literally",
			filter: catalog.ProductFilter{Search: "0%"},
			total:  1,
		},
		{
			name:   "underscore is matched literally",
			filter: catalog.ProductFilter{Search: "_"},
			want:   []uuid.UUID{},
			total:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products, total, err := repo.Find(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.total, total)
			if tt.want == nil {
				return
			}
			ids := make([]uuid.UUID, len(products))
			for i, p := range products {
				ids[i] = p.ID
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	t.Run("pagination keeps the filtered total", func(t *testing.T) {
		products, total, err := repo.Find(ctx, catalog.ProductFilter{Page: 2, PageSize: 3})
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		require.Len(t, products, 1)
		assert.Equal(t, cable.ID, products[0].ID)
	})
}

func TestGormProductRepository_SaveBatch(t *testing.T) {
	repo := NewGormProductRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()

	var batch []*catalog.Product
	for _, name := range []string{"One", "Two", "Three"} {
		p, err := catalog.NewProduct(name, "", decimal.NewFromInt(1), 1)
		require.NoError(t, err)
		require.NoError(t, p.SetTags([]string{"bulk"}))
		batch = append(batch, p)
	}
	require.NoError(t, repo.SaveBatch(ctx, batch))

	_, total, err := repo.Find(ctx, catalog.ProductFilter{Tags: []string{"bulk"}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestGormProductRepository_DecrementStock(t *testing.T) {
	repo := NewGormProductRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()
	p := seedProduct(t, repo, "Screen", "80", 3, time.Now())

	require.NoError(t, repo.DecrementStock(ctx, p.ID, 2))
	found, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, found.Stock)
	assert.Equal(t, p.Version+1, found.Version)

	err = repo.DecrementStock(ctx, p.ID, 2)
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	err = repo.DecrementStock(ctx, p.ID, 0)
	assert.ErrorIs(t, err, shared.ErrInvalidQuantity)

	err = repo.DecrementStock(ctx, uuid.New(), 1)
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	found, err = repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, found.Stock)
}

func TestGormProductRepository_Save_StockAndConcurrentOrders(t *testing.T) {
	repo := NewGormProductRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()

	t.Run("edit without stock keeps a decrement made after the read", func(t *testing.T) {
		p := seedProduct(t, repo, "Kettle", "30", 5, time.Now())
		loaded, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)

		require.NoError(t, repo.DecrementStock(ctx, p.ID, 2))

		require.NoError(t, loaded.SetPrice(decimal.NewFromInt(25)))
		require.NoError(t, repo.Save(ctx, loaded))
		assert.Equal(t, 3, loaded.Stock)
		assert.False(t, loaded.StockChanged())

		found, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, found.Stock)
		assert.True(t, found.Price.Equal(decimal.NewFromInt(25)))
		assert.Equal(t, loaded.Version, found.Version)
	})

	t.Run("stock overwrite after a decrement is a conflict", func(t *testing.T) {
		p := seedProduct(t, repo, "Toaster", "40", 5, time.Now())
		loaded, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)

		require.NoError(t, repo.DecrementStock(ctx, p.ID, 1))

		require.NoError(t, loaded.SetStock(9))
		err = repo.Save(ctx, loaded)
		assert.ErrorIs(t, err, shared.ErrConcurrentUpdate)

		found, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, found.Stock)
	})

	t.Run("stock overwrite on a current read is applied", func(t *testing.T) {
		p := seedProduct(t, repo, "Blender", "60", 5, time.Now())
		loaded, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)

		require.NoError(t, loaded.SetStock(9))
		require.NoError(t, repo.Save(ctx, loaded))
		assert.Equal(t, p.Version+1, loaded.Version)

		found, err := repo.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 9, found.Stock)
	})
}

func TestGormProductRepository_DecrementStock_LastUnitRace(t *testing.T) {
	repo := NewGormProductRepository(testutil.NewSQLiteDB(t))
	p := seedProduct(t, repo, "Last One", "10", 1, time.Now())

	const buyers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		soldOut   int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.DecrementStock(context.Background(), p.ID, 1)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, shared.ErrInsufficientStock):
				soldOut++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, buyers-1, soldOut)

	found, err := repo.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, found.Stock)
}

func TestGormProductRepository_DecrementStock_SQL(t *testing.T) {
	mdb := testutil.NewMockDB(t)
	repo := NewGormProductRepository(mdb.DB)
	id := uuid.New()

	t.Run("conditional update", func(t *testing.T) {
		mdb.Mock.ExpectExec(`UPDATE "products" SET "stock"=stock - \$1,.*"version"=version \+ 1 WHERE id = \$3 AND stock >= \$4`).
			WithArgs(2, sqlmock.AnyArg(), id, 2).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.DecrementStock(context.Background(), id, 2))
	})

	t.Run("no row matched means insufficient stock", func(t *testing.T) {
		mdb.Mock.ExpectExec(`UPDATE "products" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.DecrementStock(context.Background(), id, 1)
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	})

	t.Run("driver error is returned", func(t *testing.T) {
		mdb.Mock.ExpectExec(`UPDATE "products" SET`).
			WillReturnError(assert.AnError)

		err := repo.DecrementStock(context.Background(), id, 1)
		assert.ErrorIs(t, err, assert.AnError)
	})

	mdb.ExpectationsWereMet(t)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%`, escapeLike("50%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c:\\d`, escapeLike(`c:\d`))
}
