package models

import "time"

// Warranty is a time-bounded coverage record derived from a completed
// repair ticket (at most one per ticket). The stored status is not
// authoritative for the active/expired boundary: read paths reconcile
// active warranties whose expiry has passed before returning them.
type Warranty struct {
	ID                 int64     `json:"id" db:"id"`
	TicketID           int64     `json:"ticket_id" db:"ticket_id"`
	StoreID            int64     `json:"store_id" db:"store_id"`
	CustomerID         int64     `json:"customer_id" db:"customer_id"`
	WarrantyPeriodDays int       `json:"warranty_period_days" db:"warranty_period_days"`
	StartDate          time.Time `json:"start_date" db:"start_date"`
	ExpiryDate         time.Time `json:"expiry_date" db:"expiry_date"` // StartDate + WarrantyPeriodDays
	WarrantyType       string    `json:"warranty_type" db:"warranty_type"` // parts, labor, both
	Status             string    `json:"status" db:"status"`               // active, expired, voided, claimed
	Terms              *string   `json:"terms,omitempty" db:"terms"`
	Notes              *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`

	Claims []WarrantyClaim `json:"claims,omitempty"`
}

// WarrantyClaim records a customer-reported problem against a
// warranty. Claims are recorded regardless of warranty state; only a
// claim against a currently active warranty flips it to "claimed".
type WarrantyClaim struct {
	ID               int64      `json:"id" db:"id"`
	WarrantyID       int64      `json:"warranty_id" db:"warranty_id"`
	IssueDescription string     `json:"issue_description" db:"issue_description" binding:"required"`
	ClaimDate        time.Time  `json:"claim_date" db:"claim_date"`
	Status           string     `json:"status" db:"status"` // pending, approved, rejected, completed
	ResolutionNotes  *string    `json:"resolution_notes,omitempty" db:"resolution_notes"`
	ResolutionDate   *time.Time `json:"resolution_date,omitempty" db:"resolution_date"`
	FollowUpTicketID *int64     `json:"follow_up_ticket_id,omitempty" db:"follow_up_ticket_id"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}
