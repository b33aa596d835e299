package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type StockTransactionType string

const (
	StockTransactionIn         StockTransactionType = "in"
	StockTransactionOut        StockTransactionType = "out"
	StockTransactionWaste      StockTransactionType = "waste"
	StockTransactionAdjustment StockTransactionType = "adjustment"
)

type StockReferenceType string

const (
	StockReferencePurchase StockReferenceType = "purchase"
	StockReferenceOrder    StockReferenceType = "order"
	StockReferenceManual   StockReferenceType = "manual"
)

type StockAlertType string

const (
	StockAlertLowStock   StockAlertType = "low_stock"
	StockAlertOutOfStock StockAlertType = "out_of_stock"
)

type RawMaterial struct {
	ID           int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	RestaurantID int64   `gorm:"index;not null" json:"restaurant_id"`
	Name         string  `gorm:"type:varchar(128);not null" json:"name"`
	Unit         string  `gorm:"type:varchar(32);not null" json:"unit"`

	CurrentStock decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"current_stock"`
	MinimumStock decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"minimum_stock"`
	MaximumStock decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"maximum_stock"`
	ReorderLevel decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"reorder_level"`

	// CostPerUnit is the weighted-average cost across received stock.
	CostPerUnit decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"cost_per_unit"`

	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StockTransaction is an append-only ledger entry. Rows are never updated or
// deleted; corrections are recorded as new adjustment entries.
type StockTransaction struct {
	ID         int64                `gorm:"primaryKey;autoIncrement" json:"id"`
	MaterialID int64                `gorm:"index;not null" json:"material_id"`
	Type       StockTransactionType `gorm:"type:varchar(16);index;not null" json:"type"`

	Quantity decimal.Decimal  `gorm:"type:decimal(12,3);not null" json:"quantity"`
	UnitCost *decimal.Decimal `gorm:"type:decimal(12,4)" json:"unit_cost,omitempty"`

	StockBefore decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"stock_before"`
	StockAfter  decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"stock_after"`

	ReferenceType StockReferenceType `gorm:"type:varchar(16);not null" json:"reference_type"`
	ReferenceID   *int64             `json:"reference_id,omitempty"`
	Notes         *string            `gorm:"type:varchar(255)" json:"notes,omitempty"`

	CreatedBy int64     `gorm:"not null" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

type StockAlert struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	MaterialID int64          `gorm:"index;not null" json:"material_id"`
	Type       StockAlertType `gorm:"type:varchar(16);not null" json:"type"`
	Message    string         `gorm:"type:varchar(255);not null" json:"message"`

	IsResolved bool       `gorm:"not null;default:false" json:"is_resolved"`
	ResolvedBy *int64     `json:"resolved_by,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
