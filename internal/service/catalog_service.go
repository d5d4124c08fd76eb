package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"optipos/internal/cache"
	"optipos/internal/events"
	"optipos/internal/model"
	"optipos/internal/repository"
	"optipos/pkg/apperror"
)

const (
	priceListCacheKey = "price-list:tree"
	priceListCacheTTL = 5 * time.Minute
)

// DTOs
type CategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

type SubcategoryRequest struct {
	CategoryID string `json:"category_id" binding:"required"`
	Name       string `json:"name" binding:"required"`
}

type ProductRequest struct {
	SubcategoryID     string                  `json:"subcategory_id" binding:"required"`
	Code              string                  `json:"code" binding:"required"`
	Description       string                  `json:"description" binding:"required"`
	PcPrice           decimal.Decimal         `json:"pc_price" binding:"required"`
	PcCost            decimal.Decimal         `json:"pc_cost"`
	Attributes        model.ProductAttributes `json:"attributes"`
	LowStockThreshold int                     `json:"low_stock_threshold"`
	SupplierID        string                  `json:"supplier_id"`
}

type AdjustStockRequest struct {
	Stock  int    `json:"stock" binding:"min=0"`
	Reason string `json:"reason" binding:"required"`
}

type CatalogService interface {
	CreateCategory(ctx context.Context, userID string, req CategoryRequest) (*model.PriceCategory, error)
	UpdateCategory(ctx context.Context, userID string, id string, req CategoryRequest) (*model.PriceCategory, error)
	DeleteCategory(ctx context.Context, userID string, id string) error
	ListCategories(ctx context.Context) ([]model.PriceCategory, error)

	CreateSubcategory(ctx context.Context, userID string, req SubcategoryRequest) (*model.PriceSubcategory, error)
	UpdateSubcategory(ctx context.Context, userID string, id string, req SubcategoryRequest) (*model.PriceSubcategory, error)
	DeleteSubcategory(ctx context.Context, userID string, id string) error

	CreateProduct(ctx context.Context, userID string, req ProductRequest) (*model.Product, error)
	UpdateProduct(ctx context.Context, userID string, id string, req ProductRequest) (*model.Product, error)
	DeleteProduct(ctx context.Context, userID string, id string) error
	GetProducts(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error)
	GetLowStockProducts(ctx context.Context) ([]model.Product, error)
	AdjustStock(ctx context.Context, userID string, productID string, req AdjustStockRequest) (*model.Product, error)

	GetPriceList(ctx context.Context) ([]model.PriceCategory, error)
}

type catalogService struct {
	catalogRepo repository.CatalogRepository
	productRepo repository.ProductRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	priceCache  cache.PriceListCache
	publisher   events.Publisher
}

func NewCatalogService(
	catalogRepo repository.CatalogRepository,
	productRepo repository.ProductRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	priceCache cache.PriceListCache,
	publisher events.Publisher,
) CatalogService {
	return &catalogService{
		catalogRepo: catalogRepo,
		productRepo: productRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		priceCache:  priceCache,
		publisher:   publisher,
	}
}

// invalidatePriceList drops the cached tree after any catalog mutation.
// Cache failures are logged, never surfaced — the store is authoritative.
func (s *catalogService) invalidatePriceList(ctx context.Context) {
	if err := s.priceCache.Delete(ctx, priceListCacheKey); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate price list cache")
	}
}

func (s *catalogService) auditInTx(txCtx context.Context, userID, action, entityID, entityName string, payload interface{}) error {
	details, _ := json.Marshal(payload)
	return s.auditRepo.Log(txCtx, &model.AuditLog{
		UserID:     auditUserID(userID),
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(details),
	})
}

func (s *catalogService) CreateCategory(ctx context.Context, userID string, req CategoryRequest) (*model.PriceCategory, error) {
	category := model.PriceCategory{Name: req.Name}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.catalogRepo.CreateCategory(txCtx, &category); createErr != nil {
			return apperror.Internal(createErr)
		}
		if auditErr := s.auditInTx(txCtx, userID, model.ActionCreateCategory, category.ID.String(), category.Name, req); auditErr != nil {
			return apperror.Internal(auditErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidatePriceList(ctx)
	s.publisher.Publish(events.RoomCatalog, events.Change("item-updated", events.ChangeAdded, "category", category))
	return &category, nil
}

func (s *catalogService) UpdateCategory(ctx context.Context, userID string, id string, req CategoryRequest) (*model.PriceCategory, error) {
	categoryID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validationf("invalid category id")
	}

	category, err := s.catalogRepo.FindCategoryByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFoundf("category not found: %s", id)
		}
		return nil, apperror.Internal(err)
	}

	category.Name = req.Name
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.catalogRepo.UpdateCategory(txCtx, category); updateErr != nil {
			return apperror.Internal(updateErr)
		}
		if auditErr := s.auditInTx(txCtx, userID, model.ActionUpdateCategory, category.ID.String(), category.Name, req); auditErr != nil {
			return apperror.Internal(auditErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidatePriceList(ctx)
	s.publisher.Publish(events.RoomCatalog, events.Change("item-updated", events.ChangeUpdated, "category", category))
	return category, nil
}

func (s *catalogService) DeleteCategory(ctx context.Context, userID string, id string) error {
	categoryID, err := uuid.Parse(id)
	if err != nil {
		return apperror.Validationf("invalid category id")
	}

	category, err := s.catalogRepo.FindCategoryByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFoundf("category not found: %s", id)
		}
		return apperror.Internal(err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if deleteErr := s.catalogRepo.DeleteCategory(txCtx, categoryID); deleteErr != nil {
			return apperror.Internal(deleteErr)
		}
		if auditErr := s.auditInTx(txCtx, userID, model.ActionDeleteCategory, id, category.Name, map[string]bool{"deleted": true}); auditErr != nil {
			return apperror.Internal(auditErr)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidatePriceList(ctx)
	s.publisher.Publish(events.RoomCatalog, events.Change("item-updated", events.ChangeDeleted, "category_id", id))
	return nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]model.PriceCategory, error) {
	categories, err := s.catalogRepo.ListCategories(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return categories, nil
}

func (s *catalogService) CreateSubcategory(ctx context.Context, userID string, req SubcategoryRequest) (*model.PriceSubcategory, error) {
	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return nil, apperror.Validationf("invalid category_id")
	}
	if _, err := s.catalogRepo.FindCategoryByID(ctx, categoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFoundf("category not found: %s", req.CategoryID)
		}
		return nil, apperror.Internal(err)
	}

	sub := model.PriceSubcategory{CategoryID: categoryID, Name: req.Name}
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.catalogRepo.CreateSubcategory(txCtx, &sub); createErr != nil {
			return apperror.Internal(createErr)
		}
		if auditErr := s.auditInTx(txCtx, userID, model.ActionCreateSubcategory, sub.ID.String(), sub.Name, req); auditErr != nil {
			return apperror.Internal(auditErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidatePriceList(ctx)
	s.publisher.Publish(events.RoomCatalog, events.Change("item-updated", events.ChangeAdded, "subcategory", sub))
	return &sub, nil
}

func (s *catalogService) UpdateSubcategory(ctx context.Context, userID string, id string, req SubcategoryRequest) (*model.PriceSubcategory, error) {
	subID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validationf("invalid subcategory id")
	}

	sub, err := s.catalogRepo.FindSubcategoryByID(ctx, subID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFoundf("subcategory not found: %s", id)
		}
		return nil, apperror.Internal(err)
	}

	sub.Name = req.Name
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.catalogRepo.UpdateSubcategory(txCtx, sub); updateErr != nil {
			return apperror.Internal(updateErr)
		}
		if auditErr := s.auditInTx(txCtx, userID, model.ActionUpdateSubcategory, sub.ID.String(), sub.Name, req); auditErr != nil {
			return apperror.Internal(auditErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidatePriceList(ctx)
	s.publisher.Publish(events.RoomCatalog, events.Change("item-updated", events.ChangeUpdated, "subcategory", sub))
	return sub, nil
}

func (s *catalogService) DeleteSubcategory(ctx context.Context, userID string, id string) error {
	subID, err := uuid.Parse(id)
	if err != nil {
		return apperror.Validationf("invalid subcategory id")
	}

	sub, err := s.catalogRepo.FindSubcategoryByID(ctx, subID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFoundf("subcategory not found: %s", id)
		}
		return apperror.Internal(err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if deleteErr := s.catalogRepo.DeleteSubcategory(txCtx, subID); deleteErr != nil {
			return apperror.Internal(deleteErr)
		}
		if auditErr := s.auditInTx(txCtx, userID, model.ActionDeleteSubcategory, id, sub.Name, map[string]bool{"deleted": true}); auditErr != nil {
			return apperror.Internal(auditErr)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidatePriceList(ctx)
	s.publisher.Publish(events.RoomCatalog, events.Change("item-updated", events.ChangeDeleted, "subcategory_id", id))
	return nil
}

func (s *catalogService) productFromRequest(req ProductRequest) (*model.Product, error) {
	subID, err := uuid.Parse(req.SubcategoryID)
	if err != nil {
		return nil, apperror.Validationf("invalid subcategory_id")
	}
	if req.PcPrice.IsNegative() || req.PcCost.IsNegative() {
		return nil, apperror.Validationf("prices must not be negative")
	}

	product := &model.Product{
		SubcategoryID:     subID,
		Code:              req.Code,
		Description:       req.Description,
		PcPrice:           req.PcPrice,
		PcCost:            req.PcCost,
		Attributes:        req.Attributes,
		LowStockThreshold: req.LowStockThreshold,
	}
	if req.SupplierID != "" {
		supplierID, err := uuid.Parse(req.SupplierID)
		if err != nil {
			return nil, apperror.Validationf("invalid supplier_id")
		}
		product.SupplierID = &supplierID
	}
	return product, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, userID string, req ProductRequest) (*model.Product, error) {
	product, err := s.productFromRequest(req)
	if err != nil {
		return nil, err
	}

	if _, err := s.catalogRepo.FindSubcategoryByID(ctx, product.SubcategoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFoundf("subcategory not found: %s", req.SubcategoryID)
		}
		return nil, apperror.Internal(err)
	}
	if _, err := s.productRepo.FindByCode(ctx, req.Code); err == nil {
		return nil, apperror.Validationf("product code already exists: %s", req.Code)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Internal(err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.productRepo.Create(txCtx, product); createErr != nil {
			return apperror.Internal(createErr)
		}
		if auditErr := s.auditInTx(txCtx, userID, model.ActionCreateProduct, product.ID.String(), product.Description, req); auditErr != nil {
			return apperror.Internal(auditErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidatePriceList(ctx)
	s.publisher.Publish(events.RoomCatalog, events.Change("item-updated", events.ChangeAdded, "item", product))
	return product, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, userID string, id string, req ProductRequest) (*model.Product, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validationf("invalid product id")
	}

	existing, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFoundf("product not found: %s", id)
		}
		return nil, apperror.Internal(err)
	}

	updated, err := s.productFromRequest(req)
	if err != nil {
		return nil, err
	}

	// Code must stay unique across other products
	if req.Code != existing.Code {
		if _, err := s.productRepo.FindByCode(ctx, req.Code); err == nil {
			return nil, apperror.Validationf("product code already exists: %s", req.Code)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Internal(err)
		}
	}

	existing.SubcategoryID = updated.SubcategoryID
	existing.Code = updated.Code
	existing.Description = updated.Description
	existing.PcPrice = updated.PcPrice
	existing.PcCost = updated.PcCost
	existing.Attributes = updated.Attributes
	existing.LowStockThreshold = updated.LowStockThreshold
	existing.SupplierID = updated.SupplierID

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.productRepo.Update(txCtx, existing); updateErr != nil {
			return apperror.Internal(updateErr)
		}
		if auditErr := s.auditInTx(txCtx, userID, model.ActionUpdateProduct, existing.ID.String(), existing.Description, req); auditErr != nil {
			return apperror.Internal(auditErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidatePriceList(ctx)
	s.publisher.Publish(events.RoomCatalog, events.Change("item-updated", events.ChangeUpdated, "item", existing))
	return existing, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, userID string, id string) error {
	productID, err := uuid.Parse(id)
	if err != nil {
		return apperror.Validationf("invalid product id")
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFoundf("product not found: %s", id)
		}
		return apperror.Internal(err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if deleteErr := s.productRepo.Delete(txCtx, productID); deleteErr != nil {
			return apperror.Internal(deleteErr)
		}
		if auditErr := s.auditInTx(txCtx, userID, model.ActionDeleteProduct, id, product.Description, map[string]bool{"deleted": true}); auditErr != nil {
			return apperror.Internal(auditErr)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidatePriceList(ctx)
	s.publisher.Publish(events.RoomCatalog, events.Change("item-updated", events.ChangeDeleted, "item_id", id))
	return nil
}

func (s *catalogService) GetProducts(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	products, total, err := s.productRepo.List(ctx, page, limit, search)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return products, total, nil
}

func (s *catalogService) GetLowStockProducts(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.ListLowStock(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return products, nil
}

// AdjustStock sets an absolute stock level outside the sale/refund/return
// flows. A reason is mandatory since this bypasses the usual bookkeeping.
func (s *catalogService) AdjustStock(ctx context.Context, userID string, productID string, req AdjustStockRequest) (*model.Product, error) {
	pid, err := uuid.Parse(productID)
	if err != nil {
		return nil, apperror.Validationf("invalid product id")
	}
	if req.Stock < 0 {
		return nil, apperror.Validationf("stock must not be negative")
	}
	if req.Reason == "" {
		return nil, apperror.Validationf("reason is required")
	}

	var product *model.Product
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		product, findErr = s.productRepo.FindByIDForUpdate(txCtx, pid)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperror.NotFoundf("product not found: %s", productID)
			}
			return apperror.Internal(findErr)
		}

		previous := product.Stock
		product.Stock = req.Stock
		if stockErr := s.productRepo.UpdateStock(txCtx, pid, req.Stock); stockErr != nil {
			return apperror.Internal(stockErr)
		}

		payload := map[string]interface{}{
			"previous_stock": previous,
			"new_stock":      req.Stock,
			"reason":         req.Reason,
		}
		if auditErr := s.auditInTx(txCtx, userID, model.ActionAdjustStock, productID, product.Description, payload); auditErr != nil {
			return apperror.Internal(auditErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(events.RoomInventory, events.Change("inventory-updated", events.ChangeUpdated, "item", product))
	return product, nil
}

// GetPriceList serves the category→subcategory→item tree, preferring the
// cache. A cache read failure falls through to the store.
func (s *catalogService) GetPriceList(ctx context.Context) ([]model.PriceCategory, error) {
	cached, found, err := s.priceCache.Get(ctx, priceListCacheKey)
	if err != nil {
		log.Warn().Err(err).Msg("price list cache read failed")
	}
	if found {
		return cached, nil
	}

	tree, err := s.catalogRepo.PriceListTree(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	if err := s.priceCache.Set(ctx, priceListCacheKey, tree, priceListCacheTTL); err != nil {
		log.Warn().Err(err).Msg("price list cache write failed")
	}
	return tree, nil
}
