package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"optipos/internal/events"
	"optipos/internal/model"
	"optipos/internal/repository"
	"optipos/pkg/apperror"
)

// DTOs
type OrderItemRequest struct {
	ProductID string          `json:"product_id" binding:"required"`
	Qty       int             `json:"qty" binding:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" binding:"required"`
}

type CreateOrderRequest struct {
	SupplierID    string             `json:"supplier_id" binding:"required"`
	Description   string             `json:"description"`
	ReceiptNumber string             `json:"receipt_number"`
	Items         []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

type UpdateOrderRequest struct {
	Description   string             `json:"description"`
	ReceiptNumber string             `json:"receipt_number"`
	Items         []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type ReturnOrderItemRequest struct {
	ReturnedQuantity int    `json:"returned_quantity" binding:"required,gt=0"`
	RefundReason     string `json:"refund_reason" binding:"required"`
}

// ListOrdersQuery mirrors the REST filter surface of the order listing
type ListOrdersQuery struct {
	Status     string
	SupplierID string
	Search     string
	StartDate  string // YYYY-MM-DD
	EndDate    string // YYYY-MM-DD
	SortBy     string
	SortDir    string
	Page       int
	Limit      int
}

type OrderService interface {
	CreateOrder(ctx context.Context, userID string, req CreateOrderRequest) (*model.Order, error)
	UpdateOrder(ctx context.Context, userID string, id string, req UpdateOrderRequest) (*model.Order, error)
	DeleteOrder(ctx context.Context, userID string, id string) error
	UpdateOrderStatus(ctx context.Context, userID string, id string, status string) error
	UpdateOrderItemStatus(ctx context.Context, userID string, orderID, itemID string, status string) error
	ReturnOrderItem(ctx context.Context, userID string, orderID, itemID string, req ReturnOrderItemRequest) (*model.OrderItem, error)
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	ListOrders(ctx context.Context, query ListOrdersQuery) ([]model.Order, int64, error)
}

type orderService struct {
	orderRepo    repository.OrderRepository
	productRepo  repository.ProductRepository
	supplierRepo repository.SupplierRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	publisher    events.Publisher
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	supplierRepo repository.SupplierRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	publisher events.Publisher,
) OrderService {
	return &orderService{
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		supplierRepo: supplierRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		publisher:    publisher,
	}
}

// buildItems validates the request lines and computes the order total.
// Ordering does not touch stock — goods arrive with the delivery, not the
// purchase order.
func (s *orderService) buildItems(ctx context.Context, reqItems []OrderItemRequest) ([]model.OrderItem, decimal.Decimal, error) {
	total := decimal.Zero
	items := make([]model.OrderItem, 0, len(reqItems))

	for _, itemReq := range reqItems {
		pid, err := uuid.Parse(itemReq.ProductID)
		if err != nil {
			return nil, decimal.Zero, apperror.Validationf("invalid product_id: %s", itemReq.ProductID)
		}
		if itemReq.UnitPrice.IsNegative() {
			return nil, decimal.Zero, apperror.Validationf("unit_price must not be negative")
		}
		if _, err := s.productRepo.FindByID(ctx, pid); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, decimal.Zero, apperror.NotFoundf("product not found: %s", itemReq.ProductID)
			}
			return nil, decimal.Zero, apperror.Internal(err)
		}

		total = total.Add(itemReq.UnitPrice.Mul(decimal.NewFromInt(int64(itemReq.Qty))))
		items = append(items, model.OrderItem{
			ProductID: pid,
			Qty:       itemReq.Qty,
			UnitPrice: itemReq.UnitPrice,
			Status:    model.OrderItemStatusPending,
		})
	}

	return items, total, nil
}

func (s *orderService) CreateOrder(ctx context.Context, userID string, req CreateOrderRequest) (*model.Order, error) {
	supplierID, err := uuid.Parse(req.SupplierID)
	if err != nil {
		return nil, apperror.Validationf("invalid supplier_id")
	}

	order := model.Order{
		SupplierID:    supplierID,
		Description:   req.Description,
		ReceiptNumber: req.ReceiptNumber,
		Status:        model.OrderStatusOrdered,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, findErr := s.supplierRepo.FindByID(txCtx, supplierID); findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperror.NotFoundf("supplier not found: %s", req.SupplierID)
			}
			return apperror.Internal(findErr)
		}

		items, total, buildErr := s.buildItems(txCtx, req.Items)
		if buildErr != nil {
			return buildErr
		}
		order.TotalPrice = total

		if createErr := s.orderRepo.Create(txCtx, &order); createErr != nil {
			return apperror.Internal(createErr)
		}
		for i := range items {
			items[i].OrderID = order.ID
			if createErr := s.orderRepo.CreateItem(txCtx, &items[i]); createErr != nil {
				return apperror.Internal(createErr)
			}
		}

		details, _ := json.Marshal(map[string]interface{}{
			"supplier_id": req.SupplierID,
			"total_price": total,
			"item_count":  len(items),
		})
		audit := &model.AuditLog{
			UserID:     auditUserID(userID),
			Action:     model.ActionCreateOrder,
			EntityID:   order.ID.String(),
			EntityName: order.ReceiptNumber,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return apperror.Internal(auditErr)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	created, err := s.orderRepo.FindByIDWithItems(ctx, order.ID)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	s.publisher.Publish(events.RoomOrders, events.Change("order-updated", events.ChangeAdded, "order", created))
	return created, nil
}

// UpdateOrder replaces the full item set and recomputes the total
func (s *orderService) UpdateOrder(ctx context.Context, userID string, id string, req UpdateOrderRequest) (*model.Order, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validationf("invalid order id")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, findErr := s.orderRepo.FindByIDWithItems(txCtx, orderID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperror.NotFoundf("order not found: %s", id)
			}
			return apperror.Internal(findErr)
		}

		items, total, buildErr := s.buildItems(txCtx, req.Items)
		if buildErr != nil {
			return buildErr
		}

		if deleteErr := s.orderRepo.DeleteItemsByOrderID(txCtx, orderID); deleteErr != nil {
			return apperror.Internal(deleteErr)
		}
		for i := range items {
			items[i].OrderID = orderID
			if createErr := s.orderRepo.CreateItem(txCtx, &items[i]); createErr != nil {
				return apperror.Internal(createErr)
			}
		}

		order.Description = req.Description
		order.ReceiptNumber = req.ReceiptNumber
		order.TotalPrice = total
		order.Items = nil // replaced above; avoid resaving stale associations
		if updateErr := s.orderRepo.Update(txCtx, order); updateErr != nil {
			return apperror.Internal(updateErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"total_price": total,
			"item_count":  len(items),
		})
		audit := &model.AuditLog{
			UserID:     auditUserID(userID),
			Action:     model.ActionUpdateOrder,
			EntityID:   order.ID.String(),
			EntityName: order.ReceiptNumber,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return apperror.Internal(auditErr)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	updated, err := s.orderRepo.FindByIDWithItems(ctx, orderID)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	s.publisher.Publish(events.RoomOrders, events.Change("order-updated", events.ChangeUpdated, "order", updated))
	return updated, nil
}

func (s *orderService) DeleteOrder(ctx context.Context, userID string, id string) error {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return apperror.Validationf("invalid order id")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, findErr := s.orderRepo.FindByIDWithItems(txCtx, orderID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperror.NotFoundf("order not found: %s", id)
			}
			return apperror.Internal(findErr)
		}

		if deleteErr := s.orderRepo.Delete(txCtx, orderID); deleteErr != nil {
			return apperror.Internal(deleteErr)
		}

		audit := &model.AuditLog{
			UserID:     auditUserID(userID),
			Action:     model.ActionDeleteOrder,
			EntityID:   order.ID.String(),
			EntityName: order.ReceiptNumber,
			Details:    `{"deleted": true}`,
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return apperror.Internal(auditErr)
		}
		return nil
	})

	if err != nil {
		return err
	}

	s.publisher.Publish(events.RoomOrders, events.Change("order-updated", events.ChangeDeleted, "order_id", id))
	return nil
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, userID string, id string, status string) error {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return apperror.Validationf("invalid order id")
	}
	if !model.ValidOrderStatus(status) {
		return apperror.Validationf("invalid order status: %s", status)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, findErr := s.orderRepo.FindByIDWithItems(txCtx, orderID); findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperror.NotFoundf("order not found: %s", id)
			}
			return apperror.Internal(findErr)
		}

		if updateErr := s.orderRepo.UpdateStatus(txCtx, orderID, status); updateErr != nil {
			return apperror.Internal(updateErr)
		}

		details, _ := json.Marshal(map[string]interface{}{"status": status})
		audit := &model.AuditLog{
			UserID:   auditUserID(userID),
			Action:   model.ActionUpdateOrderStatus,
			EntityID: id,
			Details:  string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return apperror.Internal(auditErr)
		}
		return nil
	})

	if err != nil {
		return err
	}

	s.publisher.Publish(events.RoomOrders, events.Change("order-updated", events.ChangeUpdated, "order_id", id))
	return nil
}

func (s *orderService) UpdateOrderItemStatus(ctx context.Context, userID string, orderID, itemID string, status string) error {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return apperror.Validationf("invalid order id")
	}
	iid, err := uuid.Parse(itemID)
	if err != nil {
		return apperror.Validationf("invalid item id")
	}
	if !model.ValidOrderItemStatus(status) {
		return apperror.Validationf("invalid order item status: %s", status)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		item, findErr := s.orderRepo.FindItemByID(txCtx, iid)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperror.NotFoundf("order item not found: %s", itemID)
			}
			return apperror.Internal(findErr)
		}
		if item.OrderID != oid {
			return apperror.NotFoundf("order item %s does not belong to order %s", itemID, orderID)
		}

		item.Status = status
		if updateErr := s.orderRepo.UpdateItem(txCtx, item); updateErr != nil {
			return apperror.Internal(updateErr)
		}
		return nil
	})

	if err != nil {
		return err
	}

	s.publisher.Publish(events.RoomOrders, events.Change("order-updated", events.ChangeUpdated, "order_id", orderID))
	return nil
}

// ReturnOrderItem records a supplier return claim: the item's refunded_qty
// accumulates, the reason is recorded, and the product's stock rises by the
// returned quantity — the goods come back into inventory.
func (s *orderService) ReturnOrderItem(ctx context.Context, userID string, orderID, itemID string, req ReturnOrderItemRequest) (*model.OrderItem, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return nil, apperror.Validationf("invalid order id")
	}
	iid, err := uuid.Parse(itemID)
	if err != nil {
		return nil, apperror.Validationf("invalid item id")
	}
	if req.ReturnedQuantity <= 0 {
		return nil, apperror.Validationf("returned_quantity must be greater than zero")
	}
	if req.RefundReason == "" {
		return nil, apperror.Validationf("refund_reason is required")
	}

	var item *model.OrderItem
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		item, findErr = s.orderRepo.FindItemByID(txCtx, iid)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperror.NotFoundf("order item not found: %s", itemID)
			}
			return apperror.Internal(findErr)
		}
		if item.OrderID != oid {
			return apperror.NotFoundf("order item %s does not belong to order %s", itemID, orderID)
		}

		newRefunded := item.RefundedQty + req.ReturnedQuantity
		if newRefunded > item.Qty {
			return apperror.Validationf("return exceeds ordered quantity: %d already returned of %d, requested %d",
				item.RefundedQty, item.Qty, req.ReturnedQuantity)
		}

		now := time.Now()
		item.RefundedQty = newRefunded
		item.RefundReason = req.RefundReason
		item.RefundedAt = &now
		if newRefunded == item.Qty {
			item.Status = model.OrderItemStatusReturned
		} else {
			item.Status = model.OrderItemStatusPartiallyReturned
		}
		if updateErr := s.orderRepo.UpdateItem(txCtx, item); updateErr != nil {
			return apperror.Internal(updateErr)
		}

		product, lockErr := s.productRepo.FindByIDForUpdate(txCtx, item.ProductID)
		if lockErr != nil {
			return apperror.Internal(lockErr)
		}
		if stockErr := s.productRepo.UpdateStock(txCtx, product.ID, product.Stock+req.ReturnedQuantity); stockErr != nil {
			return apperror.Internal(stockErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"order_id":          orderID,
			"returned_quantity": req.ReturnedQuantity,
			"total_returned":    newRefunded,
			"refund_reason":     req.RefundReason,
		})
		audit := &model.AuditLog{
			UserID:   auditUserID(userID),
			Action:   model.ActionReturnOrderItem,
			EntityID: item.ID.String(),
			Details:  string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return apperror.Internal(auditErr)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	s.publisher.Publish(events.RoomOrders, events.Change("order-updated", events.ChangeUpdated, "item", item))
	s.publisher.Publish(events.RoomInventory, events.Change("inventory-updated", events.ChangeUpdated, "product_id", item.ProductID.String()))
	return item, nil
}

func (s *orderService) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validationf("invalid order id")
	}

	order, err := s.orderRepo.FindByIDWithItems(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFoundf("order not found: %s", id)
		}
		return nil, apperror.Internal(err)
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, query ListOrdersQuery) ([]model.Order, int64, error) {
	filter := repository.OrderFilter{
		Search:  query.Search,
		SortDir: query.SortDir,
		Page:    query.Page,
		Limit:   query.Limit,
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	if query.Status != "" {
		if !model.ValidOrderStatus(query.Status) {
			return nil, 0, apperror.Validationf("invalid order status: %s", query.Status)
		}
		filter.Status = query.Status
	}
	if query.SupplierID != "" {
		sid, err := uuid.Parse(query.SupplierID)
		if err != nil {
			return nil, 0, apperror.Validationf("invalid supplier_id")
		}
		filter.SupplierID = &sid
	}
	if query.SortBy != "" {
		if !repository.OrderSortable(query.SortBy) {
			return nil, 0, apperror.Validationf("invalid sort_by column: %s", query.SortBy)
		}
		filter.SortBy = query.SortBy
	}
	if query.StartDate != "" {
		start, err := time.Parse("2006-01-02", query.StartDate)
		if err != nil {
			return nil, 0, apperror.Validationf("invalid start_date, expected YYYY-MM-DD")
		}
		filter.StartDate = &start
	}
	if query.EndDate != "" {
		end, err := time.Parse("2006-01-02", query.EndDate)
		if err != nil {
			return nil, 0, apperror.Validationf("invalid end_date, expected YYYY-MM-DD")
		}
		// inclusive through end of day
		end = end.Add(24*time.Hour - time.Nanosecond)
		filter.EndDate = &end
	}

	orders, total, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return orders, total, nil
}
