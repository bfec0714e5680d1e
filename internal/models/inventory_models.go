package models

import "time"

// InventoryItem represents a stock-keeping unit owned by a store.
// CurrentQuantity is never written directly by callers; every change
// flows through the inventory service's AdjustQuantity operation.
type InventoryItem struct {
	ID              int64     `json:"id" db:"id"`
	StoreID         int64     `json:"store_id" db:"store_id"`
	Name            string    `json:"name" db:"name" binding:"required"`
	SKU             *string   `json:"sku,omitempty" db:"sku"` // Unique per store when set
	Category        *string   `json:"category,omitempty" db:"category"`
	Location        *string   `json:"location,omitempty" db:"location"`
	CurrentQuantity int       `json:"current_quantity" db:"current_quantity"`
	MinQuantity     int       `json:"min_quantity" db:"min_quantity"` // Low-stock threshold
	UnitPrice       *float64  `json:"unit_price,omitempty" db:"unit_price"`
	CostPrice       *float64  `json:"cost_price,omitempty" db:"cost_price"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// IsLowStock reports whether the item is at or below its threshold.
func (i *InventoryItem) IsLowStock() bool {
	return i.CurrentQuantity <= i.MinQuantity
}

// InventoryMovement is an audit record for a single stock adjustment.
// One row is written for every delta that passes through AdjustQuantity.
type InventoryMovement struct {
	ID              int64     `json:"id" db:"id"`
	InventoryItemID int64     `json:"inventory_item_id" db:"inventory_item_id"`
	StoreID         int64     `json:"store_id" db:"store_id"`
	QuantityChanged int       `json:"quantity_changed" db:"quantity_changed"`
	Reason          *string   `json:"reason,omitempty" db:"reason"`
	TicketID        *int64    `json:"ticket_id,omitempty" db:"ticket_id"` // Set when the adjustment came from a ticket expense
	MovementDate    time.Time `json:"movement_date" db:"movement_date"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`

	Item *InventoryItem `json:"item,omitempty"` // For joined listings
}

// InventoryFilters narrows inventory item listings.
type InventoryFilters struct {
	Category *string
	Location *string
	Search   *string // Matches name or SKU
	LowStock bool    // Only items at or below MinQuantity
	Page     int
	PageSize int
}
