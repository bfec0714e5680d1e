package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"repair_crm_backend/internal/models"

	"github.com/lib/pq"
)

// WarrantyRepository defines the interface for warranty and warranty
// claim database operations. All lookups are store-scoped.
type WarrantyRepository interface {
	CreateWarranty(executor SQLExecutor, warranty *models.Warranty) (int64, error)
	GetWarrantyByID(storeID, warrantyID int64) (*models.Warranty, error)
	GetWarrantyByTicketID(storeID, ticketID int64) (*models.Warranty, error)
	GetWarrantiesByCustomerID(storeID, customerID int64) ([]models.Warranty, error)
	GetWarranties(storeID int64, status *string, page, pageSize int) ([]models.Warranty, int, error)
	GetExpiringWarranties(storeID int64, from, to time.Time) ([]models.Warranty, error)
	UpdateWarrantyStatus(executor SQLExecutor, storeID, warrantyID int64, status string) error
	ExpireOverdueWarranties(executor SQLExecutor, storeID int64, asOf time.Time) (int64, error)
	CreateClaim(executor SQLExecutor, claim *models.WarrantyClaim) (int64, error)
	GetClaimsByWarrantyID(warrantyID int64) ([]models.WarrantyClaim, error)
	UpdateClaim(executor SQLExecutor, claim *models.WarrantyClaim) error
}

type warrantyRepository struct {
	db *sql.DB
}

// NewWarrantyRepository creates a new instance of WarrantyRepository.
func NewWarrantyRepository(db *sql.DB) WarrantyRepository {
	return &warrantyRepository{db: db}
}

const warrantyColumns = `id, ticket_id, store_id, customer_id, warranty_period_days, start_date, expiry_date,
	warranty_type, status, terms, notes, created_at, updated_at`

func scanWarranty(s interface {
	Scan(dest ...interface{}) error
}, w *models.Warranty, extra ...interface{}) error {
	dest := []interface{}{
		&w.ID, &w.TicketID, &w.StoreID, &w.CustomerID, &w.WarrantyPeriodDays,
		&w.StartDate, &w.ExpiryDate, &w.WarrantyType, &w.Status,
		&w.Terms, &w.Notes, &w.CreatedAt, &w.UpdatedAt,
	}
	dest = append(dest, extra...)
	return s.Scan(dest...)
}

func (r *warrantyRepository) CreateWarranty(executor SQLExecutor, warranty *models.Warranty) (int64, error) {
	query := `INSERT INTO warranties
	          (ticket_id, store_id, customer_id, warranty_period_days, start_date, expiry_date,
	           warranty_type, status, terms, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	          RETURNING id`
	currentTime := time.Now()
	err := executor.QueryRow(query,
		warranty.TicketID, warranty.StoreID, warranty.CustomerID, warranty.WarrantyPeriodDays,
		warranty.StartDate, warranty.ExpiryDate, warranty.WarrantyType, warranty.Status,
		warranty.Terms, warranty.Notes, currentTime, currentTime,
	).Scan(&warranty.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: warranty already exists for ticket %d (constraint: %s)", ErrDuplicateKey, warranty.TicketID, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating warranty: %v", ErrDatabaseError, err)
	}
	return warranty.ID, nil
}

func (r *warrantyRepository) GetWarrantyByID(storeID, warrantyID int64) (*models.Warranty, error) {
	warranty := &models.Warranty{}
	query := `SELECT ` + warrantyColumns + ` FROM warranties WHERE id = $1 AND store_id = $2`
	err := scanWarranty(r.db.QueryRow(query, warrantyID, storeID), warranty)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting warranty by ID %d: %v", ErrDatabaseError, warrantyID, err)
	}
	return warranty, nil
}

func (r *warrantyRepository) GetWarrantyByTicketID(storeID, ticketID int64) (*models.Warranty, error) {
	warranty := &models.Warranty{}
	query := `SELECT ` + warrantyColumns + ` FROM warranties WHERE ticket_id = $1 AND store_id = $2`
	err := scanWarranty(r.db.QueryRow(query, ticketID, storeID), warranty)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting warranty for ticket ID %d: %v", ErrDatabaseError, ticketID, err)
	}
	return warranty, nil
}

func (r *warrantyRepository) GetWarrantiesByCustomerID(storeID, customerID int64) ([]models.Warranty, error) {
	warranties := []models.Warranty{}
	query := `SELECT ` + warrantyColumns + ` FROM warranties
	          WHERE customer_id = $1 AND store_id = $2 ORDER BY created_at DESC`
	rows, err := r.db.Query(query, customerID, storeID)
	if err != nil {
		return nil, fmt.Errorf("%w: getting warranties for customer ID %d: %v", ErrDatabaseError, customerID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var warranty models.Warranty
		if err := scanWarranty(rows, &warranty); err != nil {
			return nil, fmt.Errorf("%w: scanning warranty: %v", ErrDatabaseError, err)
		}
		warranties = append(warranties, warranty)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating warranties: %v", ErrDatabaseError, err)
	}
	return warranties, nil
}

func (r *warrantyRepository) GetWarranties(storeID int64, status *string, page, pageSize int) ([]models.Warranty, int, error) {
	warranties := []models.Warranty{}
	totalCount := 0

	query := `SELECT ` + warrantyColumns + `, COUNT(*) OVER() AS total_count FROM warranties WHERE store_id = $1`
	args := []interface{}{storeID}
	argCount := 2
	if status != nil && *status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, *status)
		argCount++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argCount, argCount+1)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting warranties: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var warranty models.Warranty
		if err := scanWarranty(rows, &warranty, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning warranty: %v", ErrDatabaseError, err)
		}
		warranties = append(warranties, warranty)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating warranties: %v", ErrDatabaseError, err)
	}
	return warranties, totalCount, nil
}

func (r *warrantyRepository) GetExpiringWarranties(storeID int64, from, to time.Time) ([]models.Warranty, error) {
	warranties := []models.Warranty{}
	query := `SELECT ` + warrantyColumns + ` FROM warranties
	          WHERE store_id = $1 AND status = 'active' AND expiry_date >= $2 AND expiry_date <= $3
	          ORDER BY expiry_date ASC`
	rows, err := r.db.Query(query, storeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: getting expiring warranties: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var warranty models.Warranty
		if err := scanWarranty(rows, &warranty); err != nil {
			return nil, fmt.Errorf("%w: scanning warranty: %v", ErrDatabaseError, err)
		}
		warranties = append(warranties, warranty)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating expiring warranties: %v", ErrDatabaseError, err)
	}
	return warranties, nil
}

func (r *warrantyRepository) UpdateWarrantyStatus(executor SQLExecutor, storeID, warrantyID int64, status string) error {
	query := `UPDATE warranties SET status = $1, updated_at = $2 WHERE id = $3 AND store_id = $4`
	result, err := executor.Exec(query, status, time.Now(), warrantyID, storeID)
	if err != nil {
		return fmt.Errorf("%w: updating warranty ID %d status: %v", ErrDatabaseError, warrantyID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ExpireOverdueWarranties flips every active warranty in the store
// whose expiry date has passed to expired. Read paths call this before
// returning warranties so a stale "active" status is never observed.
func (r *warrantyRepository) ExpireOverdueWarranties(executor SQLExecutor, storeID int64, asOf time.Time) (int64, error) {
	query := `UPDATE warranties SET status = 'expired', updated_at = $1
	          WHERE store_id = $2 AND status = 'active' AND expiry_date < $3`
	result, err := executor.Exec(query, time.Now(), storeID, asOf)
	if err != nil {
		return 0, fmt.Errorf("%w: expiring overdue warranties: %v", ErrDatabaseError, err)
	}
	rowsAffected, _ := result.RowsAffected()
	return rowsAffected, nil
}

func (r *warrantyRepository) CreateClaim(executor SQLExecutor, claim *models.WarrantyClaim) (int64, error) {
	query := `INSERT INTO warranty_claims
	          (warranty_id, issue_description, claim_date, status, resolution_notes, resolution_date, follow_up_ticket_id, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`
	currentTime := time.Now()
	if claim.ClaimDate.IsZero() {
		claim.ClaimDate = currentTime
	}
	err := executor.QueryRow(query,
		claim.WarrantyID, claim.IssueDescription, claim.ClaimDate, claim.Status,
		claim.ResolutionNotes, claim.ResolutionDate, claim.FollowUpTicketID,
		currentTime, currentTime,
	).Scan(&claim.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating warranty claim: %v", ErrDatabaseError, err)
	}
	return claim.ID, nil
}

func (r *warrantyRepository) GetClaimsByWarrantyID(warrantyID int64) ([]models.WarrantyClaim, error) {
	claims := []models.WarrantyClaim{}
	query := `SELECT id, warranty_id, issue_description, claim_date, status, resolution_notes, resolution_date, follow_up_ticket_id, created_at, updated_at
	          FROM warranty_claims WHERE warranty_id = $1 ORDER BY claim_date DESC`
	rows, err := r.db.Query(query, warrantyID)
	if err != nil {
		return nil, fmt.Errorf("%w: getting claims for warranty ID %d: %v", ErrDatabaseError, warrantyID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var claim models.WarrantyClaim
		if err := rows.Scan(
			&claim.ID, &claim.WarrantyID, &claim.IssueDescription, &claim.ClaimDate, &claim.Status,
			&claim.ResolutionNotes, &claim.ResolutionDate, &claim.FollowUpTicketID,
			&claim.CreatedAt, &claim.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning warranty claim: %v", ErrDatabaseError, err)
		}
		claims = append(claims, claim)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating warranty claims: %v", ErrDatabaseError, err)
	}
	return claims, nil
}

func (r *warrantyRepository) UpdateClaim(executor SQLExecutor, claim *models.WarrantyClaim) error {
	query := `UPDATE warranty_claims SET
	            status = $1, resolution_notes = $2, resolution_date = $3, follow_up_ticket_id = $4, updated_at = $5
	          WHERE id = $6`
	result, err := executor.Exec(query,
		claim.Status, claim.ResolutionNotes, claim.ResolutionDate, claim.FollowUpTicketID,
		time.Now(), claim.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating warranty claim ID %d: %v", ErrDatabaseError, claim.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
