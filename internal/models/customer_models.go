package models

import "time"

// Customer is a store-scoped customer record referenced by repair
// tickets and warranties.
type Customer struct {
	ID          int64     `json:"id" db:"id"`
	StoreID     int64     `json:"store_id" db:"store_id"`
	FullName    string    `json:"full_name" db:"full_name" binding:"required"`
	PhoneNumber string    `json:"phone_number" db:"phone_number" binding:"required"` // Unique per store
	Email       *string   `json:"email,omitempty" db:"email"`                        // Unique per store when set
	Address     *string   `json:"address,omitempty" db:"address"`
	Notes       *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
