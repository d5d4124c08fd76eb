package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus constants — lifecycle of a purchase from a supplier
const (
	OrderStatusOrdered    = "ordered"
	OrderStatusOnDelivery = "on_delivery"
	OrderStatusDelivered  = "delivered"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
	OrderStatusReturned   = "returned"
)

// OrderItem status constants
const (
	OrderItemStatusPending           = "pending"
	OrderItemStatusReceived          = "received"
	OrderItemStatusReturned          = "returned"
	OrderItemStatusPartiallyReturned = "partially_returned"
)

// ValidOrderStatus reports whether s is an accepted order status
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusOrdered, OrderStatusOnDelivery, OrderStatusDelivered,
		OrderStatusCompleted, OrderStatusCancelled, OrderStatusReturned:
		return true
	}
	return false
}

// ValidOrderItemStatus reports whether s is a directly settable item status.
// partially_returned is derived from the return flow, never set by hand.
func ValidOrderItemStatus(s string) bool {
	switch s {
	case OrderItemStatusPending, OrderItemStatusReceived, OrderItemStatusReturned:
		return true
	}
	return false
}

// Order represents a purchase from a supplier
type Order struct {
	ID            uuid.UUID       `gorm:"type:char(36);primaryKey" json:"id"`
	SupplierID    uuid.UUID       `gorm:"type:char(36);not null;index" json:"supplier_id"`
	Supplier      *Supplier       `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	Description   string          `gorm:"type:text" json:"description"`
	ReceiptNumber string          `gorm:"type:varchar(100);index" json:"receipt_number"`
	Status        string          `gorm:"type:varchar(30);default:'ordered';not null" json:"status"`
	TotalPrice    decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"total_price"`
	Items         []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderItem represents one product line within an order.
// Invariant: 0 <= RefundedQty <= Qty.
type OrderItem struct {
	ID           uuid.UUID       `gorm:"type:char(36);primaryKey" json:"id"`
	OrderID      uuid.UUID       `gorm:"type:char(36);not null;index" json:"order_id"`
	ProductID    uuid.UUID       `gorm:"type:char(36);not null;index" json:"product_id"`
	Product      *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Qty          int             `gorm:"type:int;not null" json:"qty"`
	RefundedQty  int             `gorm:"type:int;default:0;not null" json:"refunded_qty"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Status       string          `gorm:"type:varchar(30);default:'pending';not null" json:"status"`
	RefundReason string          `gorm:"type:text" json:"refund_reason"`
	RefundedAt   *time.Time      `json:"refunded_at"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
