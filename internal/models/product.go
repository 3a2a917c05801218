package models

import (
	"math"
	"time"
)

const (
	// MaxProductImages caps the images a vendor can attach to one product.
	MaxProductImages = 10
	// MaxPriceMWK bounds a unit price so order totals stay far from int64 limits.
	MaxPriceMWK int64 = 1_000_000_000_000
	// MaxQuantity matches the INTEGER columns holding stock and item quantities.
	MaxQuantity = math.MaxInt32
)

type Product struct {
	ID            uint           `gorm:"primaryKey;autoIncrement"                     json:"id"`
	VendorID      uint           `gorm:"not null;index"                               json:"vendor_id"`
	Vendor        *User          `gorm:"constraint:OnDelete:RESTRICT"                 json:"-"`
	Name          string         `gorm:"size:200;not null"                            json:"name"`
	Slug          string         `gorm:"uniqueIndex;size:220;not null"                json:"slug"`
	Description   string         `gorm:"type:text"                                    json:"description"`
	PriceMWK      int64          `gorm:"not null;check:price_mwk > 0"                 json:"price_mwk"`
	StockQuantity int            `gorm:"not null;default:0;check:stock_quantity >= 0" json:"stock_quantity"`
	Category      string         `gorm:"size:100;index"                               json:"category,omitempty"`
	Images        []ProductImage `gorm:"constraint:OnDelete:CASCADE"                  json:"images,omitempty"`
	CreatedAt     time.Time      `gorm:"index"                                        json:"created_at"`
	UpdatedAt     time.Time      `                                                    json:"updated_at"`
}

type ProductImage struct {
	ID        uint   `gorm:"primaryKey"        json:"id"`
	ProductID uint   `gorm:"not null;index"    json:"product_id"`
	Path      string `gorm:"size:255;not null" json:"path"`
}
