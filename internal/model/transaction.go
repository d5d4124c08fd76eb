package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction status constants. fulfilled is derived — a transaction becomes
// fulfilled only when its last pending item is fulfilled, never set directly.
const (
	TransactionStatusPending   = "pending"
	TransactionStatusFulfilled = "fulfilled"
	TransactionStatusCancelled = "cancelled"
)

// TransactionItem status constants
const (
	TransactionItemStatusPending           = "pending"
	TransactionItemStatusFulfilled         = "fulfilled"
	TransactionItemStatusRefunded          = "refunded"
	TransactionItemStatusPartiallyRefunded = "partially_refunded"
	TransactionItemStatusCancelled         = "cancelled"
)

// Transaction represents a point-of-sale sale to a patient
type Transaction struct {
	ID              uuid.UUID         `gorm:"type:char(36);primaryKey" json:"id"`
	UserID          uuid.UUID         `gorm:"type:char(36);not null;index" json:"user_id"`
	User            *User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
	PatientID       *uuid.UUID        `gorm:"type:char(36);index" json:"patient_id"`
	Patient         *Patient          `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	ReceiptNumber   string            `gorm:"type:varchar(100);uniqueIndex;not null" json:"receipt_number"`
	SubtotalPrice   decimal.Decimal   `gorm:"type:decimal(14,2);not null" json:"subtotal_price"`
	TotalDiscount   decimal.Decimal   `gorm:"type:decimal(14,2);not null" json:"total_discount"`
	FinalPrice      decimal.Decimal   `gorm:"type:decimal(14,2);not null" json:"final_price"`
	DiscountPercent decimal.Decimal   `gorm:"type:decimal(5,2);default:0" json:"discount_percent"`
	Status          string            `gorm:"type:varchar(30);default:'pending';not null" json:"status"`
	Items           []TransactionItem `gorm:"foreignKey:TransactionID" json:"items"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	DeletedAt       gorm.DeletedAt    `gorm:"index" json:"-"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TransactionItem represents one product line within a sale.
// Invariant: 0 <= RefundedQuantity <= Quantity; refunds only accumulate.
type TransactionItem struct {
	ID               uuid.UUID       `gorm:"type:char(36);primaryKey" json:"id"`
	TransactionID    uuid.UUID       `gorm:"type:char(36);not null;index" json:"transaction_id"`
	ProductID        uuid.UUID       `gorm:"type:char(36);not null;index" json:"product_id"`
	Product          *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity         int             `gorm:"type:int;not null" json:"quantity"`
	RefundedQuantity int             `gorm:"type:int;default:0;not null" json:"refunded_quantity"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"` // copied from the product at sale time
	Discount         decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"discount"`
	Status           string          `gorm:"type:varchar(30);default:'pending';not null" json:"status"`
	RefundedAt       *time.Time      `json:"refunded_at"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (i *TransactionItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
