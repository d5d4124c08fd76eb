package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionCreateSupplier = "CREATE_SUPPLIER"
	ActionUpdateSupplier = "UPDATE_SUPPLIER"
	ActionDeleteSupplier = "DELETE_SUPPLIER"

	ActionCreateCategory    = "CREATE_CATEGORY"
	ActionUpdateCategory    = "UPDATE_CATEGORY"
	ActionDeleteCategory    = "DELETE_CATEGORY"
	ActionCreateSubcategory = "CREATE_SUBCATEGORY"
	ActionUpdateSubcategory = "UPDATE_SUBCATEGORY"
	ActionDeleteSubcategory = "DELETE_SUBCATEGORY"
	ActionCreateProduct     = "CREATE_PRODUCT"
	ActionUpdateProduct     = "UPDATE_PRODUCT"
	ActionDeleteProduct     = "DELETE_PRODUCT"
	ActionAdjustStock       = "ADJUST_STOCK"

	ActionCreatePatient = "CREATE_PATIENT"
	ActionUpdatePatient = "UPDATE_PATIENT"
	ActionDeletePatient = "DELETE_PATIENT"
	ActionCreateCheckup = "CREATE_CHECKUP"
	ActionDeleteCheckup = "DELETE_CHECKUP"

	ActionCreateOrder       = "CREATE_ORDER"
	ActionUpdateOrder       = "UPDATE_ORDER"
	ActionDeleteOrder       = "DELETE_ORDER"
	ActionUpdateOrderStatus = "UPDATE_ORDER_STATUS"
	ActionReturnOrderItem   = "RETURN_ORDER_ITEM"

	ActionCreateTransaction      = "CREATE_TRANSACTION"
	ActionFulfillTransactionItem = "FULFILL_TRANSACTION_ITEM"
	ActionRefundTransactionItem  = "REFUND_TRANSACTION_ITEM"
	ActionCancelTransaction      = "CANCEL_TRANSACTION"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:char(36);index" json:"user_id"` // Nullable gracefully if automated
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:json" json:"details"`                       // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
