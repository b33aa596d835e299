package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderType string

const (
	OrderTypeDineIn   OrderType = "dine_in"
	OrderTypeTakeaway OrderType = "takeaway"
	OrderTypeDelivery OrderType = "delivery"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusServed    OrderStatus = "served"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed out of s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "unpaid"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

type TableStatus string

const (
	TableStatusAvailable   TableStatus = "available"
	TableStatusOccupied    TableStatus = "occupied"
	TableStatusReserved    TableStatus = "reserved"
	TableStatusMaintenance TableStatus = "maintenance"
)

type TicketStatus string

const (
	TicketStatusPending   TicketStatus = "pending"
	TicketStatusPreparing TicketStatus = "preparing"
	TicketStatusReady     TicketStatus = "ready"
	TicketStatusCancelled TicketStatus = "cancelled"
)

type MenuItem struct {
	ID           int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	RestaurantID int64           `gorm:"index;not null" json:"restaurant_id"`
	Name         string          `gorm:"type:varchar(128);not null" json:"name"`
	Description  *string         `gorm:"type:text" json:"description,omitempty"`
	Price        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	PrepMinutes  *int32          `json:"prep_minutes,omitempty"`
	Category     *string         `gorm:"type:varchar(64)" json:"category,omitempty"`
	IsAvailable  bool            `gorm:"not null;default:true" json:"is_available"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type DiningTable struct {
	ID           int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	RestaurantID int64       `gorm:"uniqueIndex:idx_tables_restaurant_number;not null" json:"restaurant_id"`
	TableNumber  int32       `gorm:"uniqueIndex:idx_tables_restaurant_number;not null" json:"table_number"`
	Capacity     int32       `gorm:"not null" json:"capacity"`
	Status       TableStatus `gorm:"type:varchar(16);not null;default:'available'" json:"status"`
	Location     *string     `gorm:"type:varchar(64)" json:"location,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

type Order struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber  string `gorm:"type:varchar(32);uniqueIndex;not null" json:"order_number"`
	RestaurantID int64  `gorm:"index;not null" json:"restaurant_id"`
	CustomerID   *int64 `json:"customer_id,omitempty"`
	TableID      *int64 `gorm:"index" json:"table_id,omitempty"`
	WaiterID     *int64 `json:"waiter_id,omitempty"`

	OrderType OrderType   `gorm:"type:varchar(16);not null" json:"order_type"`
	Status    OrderStatus `gorm:"type:varchar(16);index;not null;default:'pending'" json:"status"`

	Subtotal    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	Tax         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"tax"`
	Discount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount"`
	DeliveryFee decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"delivery_fee"`
	Total       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`

	PaymentStatus PaymentStatus `gorm:"type:varchar(16);not null;default:'unpaid'" json:"payment_status"`
	PaymentMethod *string       `gorm:"type:varchar(32)" json:"payment_method,omitempty"`

	SpecialInstructions *string   `gorm:"type:text" json:"special_instructions,omitempty"`
	CreatedBy           int64     `gorm:"not null" json:"created_by"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`

	Lines  []OrderLine    `gorm:"foreignKey:OrderID" json:"lines,omitempty"`
	Ticket *KitchenTicket `gorm:"foreignKey:OrderID" json:"ticket,omitempty"`
}

// OrderLine captures the menu item's name and price at order time. The
// snapshot stays fixed even if the catalog price changes later.
type OrderLine struct {
	ID         int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID    int64 `gorm:"index;not null" json:"order_id"`
	MenuItemID int64 `gorm:"not null" json:"menu_item_id"`

	ItemName  string          `gorm:"type:varchar(128);not null" json:"item_name"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Quantity  int32           `gorm:"not null" json:"quantity"`
	LineTotal decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"line_total"`

	Status              OrderStatus `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	SpecialInstructions *string     `gorm:"type:text" json:"special_instructions,omitempty"`
	CreatedAt           time.Time   `json:"created_at"`
}

type KitchenTicket struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID      int64  `gorm:"uniqueIndex;not null" json:"order_id"`
	RestaurantID int64  `gorm:"index;not null" json:"restaurant_id"`
	TicketNumber string `gorm:"type:varchar(32);uniqueIndex;not null" json:"ticket_number"`

	Status           TicketStatus `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	EstimatedMinutes int32        `gorm:"not null" json:"estimated_minutes"`
	Priority         int32        `gorm:"not null;default:0" json:"priority"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
