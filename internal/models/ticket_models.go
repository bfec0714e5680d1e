package models

import "time"

// RepairTicket is the central intake record for a device brought in
// for repair. Status is always "pending" at creation regardless of
// caller input; subsequent transitions are caller-driven.
type RepairTicket struct {
	ID                  int64      `json:"id" db:"id"`
	StoreID             int64      `json:"store_id" db:"store_id"`
	CustomerID          int64      `json:"customer_id" db:"customer_id"`
	DeviceType          string     `json:"device_type" db:"device_type"`
	DeviceBrand         *string    `json:"device_brand,omitempty" db:"device_brand"`
	DeviceModel         *string    `json:"device_model,omitempty" db:"device_model"`
	SerialNumber        *string    `json:"serial_number,omitempty" db:"serial_number"`
	IssueDescription    string     `json:"issue_description" db:"issue_description"`
	Status              string     `json:"status" db:"status"`     // pending, in_progress, waiting_parts, completed, cancelled
	Priority            string     `json:"priority" db:"priority"` // low, medium, high, urgent
	EstimatedCost       *float64   `json:"estimated_cost,omitempty" db:"estimated_cost"`
	ActualCost          *float64   `json:"actual_cost,omitempty" db:"actual_cost"`
	EstimatedCompletion *time.Time `json:"estimated_completion,omitempty" db:"estimated_completion"`
	ActualCompletion    *time.Time `json:"actual_completion,omitempty" db:"actual_completion"`
	Notes               *string    `json:"notes,omitempty" db:"notes"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" db:"updated_at"`

	Customer *Customer       `json:"customer,omitempty"`
	Expenses []TicketExpense `json:"expenses,omitempty"`
	Images   []TicketImage   `json:"images,omitempty"`
}

// TicketExpense is a billable line item (part or labor) attached to a
// repair ticket. When InventoryItemID is set the line's quantity
// represents stock removed from that inventory item for as long as the
// line exists.
type TicketExpense struct {
	ID              int64     `json:"id" db:"id"`
	TicketID        int64     `json:"ticket_id" db:"ticket_id"`
	InventoryItemID *int64    `json:"inventory_item_id,omitempty" db:"inventory_item_id"`
	Name            string    `json:"name" db:"name" binding:"required"`
	Quantity        int       `json:"quantity" db:"quantity"`
	Price           float64   `json:"price" db:"price"` // Per unit
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Total returns the line total for the expense.
func (e *TicketExpense) Total() float64 {
	return float64(e.Quantity) * e.Price
}

// TicketImage is metadata for an image attached to a ticket. The blob
// itself lives on disk at FilePath and is removed best-effort when the
// ticket is deleted.
type TicketImage struct {
	ID        int64     `json:"id" db:"id"`
	TicketID  int64     `json:"ticket_id" db:"ticket_id"`
	FilePath  string    `json:"file_path" db:"file_path"`
	Caption   *string   `json:"caption,omitempty" db:"caption"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TicketFilters narrows repair ticket listings.
type TicketFilters struct {
	Status     *string
	Priority   *string
	CustomerID *int64
	Search     *string // Matches device fields or issue description
	Page       int
	PageSize   int
}
