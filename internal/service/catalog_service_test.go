package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"optipos/internal/events"
	"optipos/internal/model"
	"optipos/pkg/apperror"
)

type mockCatalogRepo struct {
	CreateCategoryFn      func(ctx context.Context, category *model.PriceCategory) error
	UpdateCategoryFn      func(ctx context.Context, category *model.PriceCategory) error
	DeleteCategoryFn      func(ctx context.Context, id uuid.UUID) error
	FindCategoryByIDFn    func(ctx context.Context, id uuid.UUID) (*model.PriceCategory, error)
	ListCategoriesFn      func(ctx context.Context) ([]model.PriceCategory, error)
	CreateSubcategoryFn   func(ctx context.Context, sub *model.PriceSubcategory) error
	UpdateSubcategoryFn   func(ctx context.Context, sub *model.PriceSubcategory) error
	DeleteSubcategoryFn   func(ctx context.Context, id uuid.UUID) error
	FindSubcategoryByIDFn func(ctx context.Context, id uuid.UUID) (*model.PriceSubcategory, error)
	PriceListTreeFn       func(ctx context.Context) ([]model.PriceCategory, error)
}

func (m *mockCatalogRepo) CreateCategory(ctx context.Context, category *model.PriceCategory) error {
	if m.CreateCategoryFn != nil {
		return m.CreateCategoryFn(ctx, category)
	}
	return nil
}

func (m *mockCatalogRepo) UpdateCategory(ctx context.Context, category *model.PriceCategory) error {
	if m.UpdateCategoryFn != nil {
		return m.UpdateCategoryFn(ctx, category)
	}
	return nil
}

func (m *mockCatalogRepo) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if m.DeleteCategoryFn != nil {
		return m.DeleteCategoryFn(ctx, id)
	}
	return nil
}

func (m *mockCatalogRepo) FindCategoryByID(ctx context.Context, id uuid.UUID) (*model.PriceCategory, error) {
	if m.FindCategoryByIDFn != nil {
		return m.FindCategoryByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockCatalogRepo) ListCategories(ctx context.Context) ([]model.PriceCategory, error) {
	if m.ListCategoriesFn != nil {
		return m.ListCategoriesFn(ctx)
	}
	return nil, nil
}

func (m *mockCatalogRepo) CreateSubcategory(ctx context.Context, sub *model.PriceSubcategory) error {
	if m.CreateSubcategoryFn != nil {
		return m.CreateSubcategoryFn(ctx, sub)
	}
	return nil
}

func (m *mockCatalogRepo) UpdateSubcategory(ctx context.Context, sub *model.PriceSubcategory) error {
	if m.UpdateSubcategoryFn != nil {
		return m.UpdateSubcategoryFn(ctx, sub)
	}
	return nil
}

func (m *mockCatalogRepo) DeleteSubcategory(ctx context.Context, id uuid.UUID) error {
	if m.DeleteSubcategoryFn != nil {
		return m.DeleteSubcategoryFn(ctx, id)
	}
	return nil
}

func (m *mockCatalogRepo) FindSubcategoryByID(ctx context.Context, id uuid.UUID) (*model.PriceSubcategory, error) {
	if m.FindSubcategoryByIDFn != nil {
		return m.FindSubcategoryByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockCatalogRepo) PriceListTree(ctx context.Context) ([]model.PriceCategory, error) {
	if m.PriceListTreeFn != nil {
		return m.PriceListTreeFn(ctx)
	}
	return nil, nil
}

// memoryPriceCache is an in-process stand-in for the Redis cache
type memoryPriceCache struct {
	store   map[string][]model.PriceCategory
	deletes int
}

func newMemoryPriceCache() *memoryPriceCache {
	return &memoryPriceCache{store: map[string][]model.PriceCategory{}}
}

func (m *memoryPriceCache) Get(_ context.Context, key string) ([]model.PriceCategory, bool, error) {
	v, ok := m.store[key]
	return v, ok, nil
}

func (m *memoryPriceCache) Set(_ context.Context, key string, value []model.PriceCategory, _ time.Duration) error {
	m.store[key] = value
	return nil
}

func (m *memoryPriceCache) Delete(_ context.Context, key string) error {
	delete(m.store, key)
	m.deletes++
	return nil
}

func TestGetPriceList(t *testing.T) {
	staffID := uuid.New()

	t.Run("caches the tree after the first load", func(t *testing.T) {
		loads := 0
		catalogRepo := &mockCatalogRepo{
			PriceListTreeFn: func(ctx context.Context) ([]model.PriceCategory, error) {
				loads++
				return []model.PriceCategory{{ID: uuid.New(), Name: "Frames"}}, nil
			},
		}
		memCache := newMemoryPriceCache()
		svc := NewCatalogService(catalogRepo, &mockProductRepo{}, &mockAuditRepo{}, stubTxManager{}, memCache, events.Noop{})

		first, err := svc.GetPriceList(context.Background())
		require.NoError(t, err)
		second, err := svc.GetPriceList(context.Background())
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, loads)
	})

	t.Run("catalog mutation invalidates the cache", func(t *testing.T) {
		catalogRepo := &mockCatalogRepo{
			PriceListTreeFn: func(ctx context.Context) ([]model.PriceCategory, error) {
				return []model.PriceCategory{}, nil
			},
		}
		memCache := newMemoryPriceCache()
		svc := NewCatalogService(catalogRepo, &mockProductRepo{}, &mockAuditRepo{}, stubTxManager{}, memCache, events.Noop{})

		_, err := svc.GetPriceList(context.Background())
		require.NoError(t, err)

		_, err = svc.CreateCategory(context.Background(), staffID.String(), CategoryRequest{Name: "Contact Lenses"})
		require.NoError(t, err)

		assert.Equal(t, 1, memCache.deletes)
		_, found, _ := memCache.Get(context.Background(), "price-list:tree")
		assert.False(t, found)
	})
}

func TestAdjustStock(t *testing.T) {
	staffID := uuid.New()
	productID := uuid.New()

	newSvc := func(productRepo *mockProductRepo, auditRepo *mockAuditRepo) CatalogService {
		return NewCatalogService(&mockCatalogRepo{}, productRepo, auditRepo, stubTxManager{}, newMemoryPriceCache(), events.Noop{})
	}

	t.Run("sets absolute stock and records previous level", func(t *testing.T) {
		var written int
		productRepo := &mockProductRepo{
			FindByIDForUpdateFn: func(ctx context.Context, id uuid.UUID) (*model.Product, error) {
				return &model.Product{ID: productID, Stock: 4, Description: "Blue frame"}, nil
			},
			UpdateStockFn: func(ctx context.Context, id uuid.UUID, stock int) error {
				written = stock
				return nil
			},
		}
		auditRepo := &mockAuditRepo{}
		svc := newSvc(productRepo, auditRepo)

		product, err := svc.AdjustStock(context.Background(), staffID.String(), productID.String(), AdjustStockRequest{
			Stock:  17,
			Reason: "yearly inventory count",
		})
		require.NoError(t, err)
		assert.Equal(t, 17, product.Stock)
		assert.Equal(t, 17, written)
		require.Len(t, auditRepo.entries, 1)
		assert.Equal(t, model.ActionAdjustStock, auditRepo.entries[0].Action)
		assert.Contains(t, auditRepo.entries[0].Details, "yearly inventory count")
	})

	t.Run("requires a reason", func(t *testing.T) {
		svc := newSvc(&mockProductRepo{}, &mockAuditRepo{})

		_, err := svc.AdjustStock(context.Background(), staffID.String(), productID.String(), AdjustStockRequest{Stock: 5})
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	})

	t.Run("rejects negative stock", func(t *testing.T) {
		svc := newSvc(&mockProductRepo{}, &mockAuditRepo{})

		_, err := svc.AdjustStock(context.Background(), staffID.String(), productID.String(), AdjustStockRequest{Stock: -1, Reason: "typo"})
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	})

	t.Run("unknown product", func(t *testing.T) {
		productRepo := &mockProductRepo{
			FindByIDForUpdateFn: func(ctx context.Context, id uuid.UUID) (*model.Product, error) {
				return nil, gorm.ErrRecordNotFound
			},
		}
		svc := newSvc(productRepo, &mockAuditRepo{})

		_, err := svc.AdjustStock(context.Background(), staffID.String(), productID.String(), AdjustStockRequest{Stock: 5, Reason: "recount"})
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
	})
}
