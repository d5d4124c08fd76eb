package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PriceCategory is a top-level price-list grouping (lenses, frames, ...)
type PriceCategory struct {
	ID            uuid.UUID          `gorm:"type:char(36);primaryKey" json:"id"`
	Name          string             `gorm:"type:varchar(255);not null" json:"name"`
	Subcategories []PriceSubcategory `gorm:"foreignKey:CategoryID" json:"subcategories"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	DeletedAt     gorm.DeletedAt     `gorm:"index" json:"-"`
}

func (c *PriceCategory) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// PriceSubcategory is a second-level grouping within a category
type PriceSubcategory struct {
	ID         uuid.UUID      `gorm:"type:char(36);primaryKey" json:"id"`
	CategoryID uuid.UUID      `gorm:"type:char(36);not null;index" json:"category_id"`
	Name       string         `gorm:"type:varchar(255);not null" json:"name"`
	Products   []Product      `gorm:"foreignKey:SubcategoryID" json:"products"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (s *PriceSubcategory) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// ProductAttributes holds the optical specs of a price-list item. Stored as a
// JSON column; fields are optional and which group applies depends on the
// product's category (lens, contact lens, frame, solution).
type ProductAttributes struct {
	Sphere   string `json:"sphere,omitempty"`
	Cylinder string `json:"cylinder,omitempty"`
	Axis     string `json:"axis,omitempty"`
	Add      string `json:"add,omitempty"`
	Coating  string `json:"coating,omitempty"`
	Index    string `json:"index,omitempty"`

	BaseCurve string `json:"base_curve,omitempty"`
	Diameter  string `json:"diameter,omitempty"`
	Brand     string `json:"brand,omitempty"`

	FrameMaterial string `json:"frame_material,omitempty"`
	FrameColor    string `json:"frame_color,omitempty"`
	FrameSize     string `json:"frame_size,omitempty"`

	SolutionVolumeML int `json:"solution_volume_ml,omitempty"`
}

func (a ProductAttributes) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *ProductAttributes) Scan(value interface{}) error {
	if value == nil {
		*a = ProductAttributes{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	}
	return errors.New("unsupported type for ProductAttributes")
}

// Product represents a sellable/purchasable price-list item. A non-nil
// SupplierID means the item is carried in inventory. Stock is mutated only by
// sales, refunds, order-item returns, and explicit adjustments.
type Product struct {
	ID                uuid.UUID         `gorm:"type:char(36);primaryKey" json:"id"`
	SubcategoryID     uuid.UUID         `gorm:"type:char(36);not null;index" json:"subcategory_id"`
	Code              string            `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"`
	Description       string            `gorm:"type:varchar(255);not null" json:"description"`
	PcPrice           decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"pc_price"`
	PcCost            decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"pc_cost"`
	Attributes        ProductAttributes `gorm:"type:json" json:"attributes"`
	Stock             int               `gorm:"type:int;default:0;not null" json:"stock"`
	LowStockThreshold int               `gorm:"type:int;default:0" json:"low_stock_threshold"`
	SupplierID        *uuid.UUID        `gorm:"type:char(36);index" json:"supplier_id"`
	Supplier          *Supplier         `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
	DeletedAt         gorm.DeletedAt    `gorm:"index" json:"-"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// LowOnStock reports whether the item has fallen to its reorder threshold
func (p *Product) LowOnStock() bool {
	return p.SupplierID != nil && p.Stock <= p.LowStockThreshold
}
