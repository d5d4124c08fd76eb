package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"optipos/internal/model"
)

// OrderFilter narrows and sorts the paginated order listing
type OrderFilter struct {
	Status     string
	SupplierID *uuid.UUID
	Search     string // matches receipt number, description, supplier name
	StartDate  *time.Time
	EndDate    *time.Time
	SortBy     string // must be a key of orderSortColumns
	SortDir    string // ASC or DESC
	Page       int
	Limit      int
}

// orderSortColumns is the allow-list for the sort_by parameter. Anything not
// in this map falls back to created_at, so raw input never reaches the query.
var orderSortColumns = map[string]string{
	"created_at":     "orders.created_at",
	"total_price":    "orders.total_price",
	"status":         "orders.status",
	"receipt_number": "orders.receipt_number",
}

// OrderSortable reports whether column is an accepted sort_by value
func OrderSortable(column string) bool {
	_, ok := orderSortColumns[column]
	return ok
}

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	CreateItem(ctx context.Context, item *model.OrderItem) error
	Update(ctx context.Context, order *model.Order) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteItemsByOrderID(ctx context.Context, orderID uuid.UUID) error
	FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Order, error)
	FindItemByID(ctx context.Context, id uuid.UUID) (*model.OrderItem, error)
	UpdateItem(ctx context.Context, item *model.OrderItem) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	List(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return GetDB(ctx, r.db).Create(order).Error
}

func (r *orderRepository) CreateItem(ctx context.Context, item *model.OrderItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *orderRepository) Update(ctx context.Context, order *model.Order) error {
	return GetDB(ctx, r.db).Save(order).Error
}

func (r *orderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Order{}).Error
}

func (r *orderRepository) DeleteItemsByOrderID(ctx context.Context, orderID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("order_id = ?", orderID).Delete(&model.OrderItem{}).Error
}

func (r *orderRepository) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := GetDB(ctx, r.db).
		Preload("Items").
		Preload("Items.Product").
		Preload("Supplier").
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindItemByID(ctx context.Context, id uuid.UUID) (*model.OrderItem, error) {
	var item model.OrderItem
	if err := GetDB(ctx, r.db).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *orderRepository) UpdateItem(ctx context.Context, item *model.OrderItem) error {
	return GetDB(ctx, r.db).Save(item).Error
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.Order{}).Where("id = ?", id).Update("status", status).Error
}

func (r *orderRepository) List(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	base := func() *gorm.DB {
		q := GetDB(ctx, r.db).Model(&model.Order{}).
			Joins("LEFT JOIN suppliers ON suppliers.id = orders.supplier_id")
		if filter.Status != "" {
			q = q.Where("orders.status = ?", filter.Status)
		}
		if filter.SupplierID != nil {
			q = q.Where("orders.supplier_id = ?", *filter.SupplierID)
		}
		if filter.Search != "" {
			pattern := "%" + filter.Search + "%"
			q = q.Where("orders.receipt_number LIKE ? OR orders.description LIKE ? OR suppliers.name LIKE ?",
				pattern, pattern, pattern)
		}
		if filter.StartDate != nil {
			q = q.Where("orders.created_at >= ?", *filter.StartDate)
		}
		if filter.EndDate != nil {
			q = q.Where("orders.created_at <= ?", *filter.EndDate)
		}
		return q
	}

	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortColumn, ok := orderSortColumns[filter.SortBy]
	if !ok {
		sortColumn = orderSortColumns["created_at"]
	}
	direction := "DESC"
	if filter.SortDir == "ASC" {
		direction = "ASC"
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := base().
		Preload("Items").
		Preload("Items.Product").
		Preload("Supplier").
		Order(sortColumn + " " + direction).
		Offset(offset).Limit(filter.Limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}
