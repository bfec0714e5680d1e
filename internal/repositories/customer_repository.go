package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"repair_crm_backend/internal/models"

	"github.com/lib/pq"
)

// CustomerRepository defines the interface for customer database
// operations, all store-scoped.
type CustomerRepository interface {
	CreateCustomer(executor SQLExecutor, customer *models.Customer) (int64, error)
	GetCustomerByID(storeID, customerID int64) (*models.Customer, error)
	GetCustomerByPhoneNumber(storeID int64, phoneNumber string) (*models.Customer, error)
	GetCustomers(storeID int64, page, pageSize int, searchTerm *string) ([]models.Customer, int, error)
	UpdateCustomer(executor SQLExecutor, customer *models.Customer) error
	DeleteCustomer(executor SQLExecutor, storeID, customerID int64) error
}

type customerRepository struct {
	db *sql.DB
}

// NewCustomerRepository creates a new instance of CustomerRepository.
func NewCustomerRepository(db *sql.DB) CustomerRepository {
	return &customerRepository{db: db}
}

const customerColumns = `id, store_id, full_name, phone_number, email, address, notes, created_at, updated_at`

func (r *customerRepository) CreateCustomer(executor SQLExecutor, customer *models.Customer) (int64, error) {
	query := `INSERT INTO customers (store_id, full_name, phone_number, email, address, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`
	currentTime := time.Now()
	err := executor.QueryRow(query,
		customer.StoreID, customer.FullName, customer.PhoneNumber, customer.Email,
		customer.Address, customer.Notes, currentTime, currentTime,
	).Scan(&customer.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: customer contact already exists in this store (constraint: %s)", ErrDuplicateKey, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating customer: %v", ErrDatabaseError, err)
	}
	return customer.ID, nil
}

func (r *customerRepository) GetCustomerByID(storeID, customerID int64) (*models.Customer, error) {
	customer := &models.Customer{}
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1 AND store_id = $2`
	err := r.db.QueryRow(query, customerID, storeID).Scan(
		&customer.ID, &customer.StoreID, &customer.FullName, &customer.PhoneNumber,
		&customer.Email, &customer.Address, &customer.Notes, &customer.CreatedAt, &customer.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting customer by ID %d: %v", ErrDatabaseError, customerID, err)
	}
	return customer, nil
}

func (r *customerRepository) GetCustomerByPhoneNumber(storeID int64, phoneNumber string) (*models.Customer, error) {
	customer := &models.Customer{}
	query := `SELECT ` + customerColumns + ` FROM customers WHERE phone_number = $1 AND store_id = $2`
	err := r.db.QueryRow(query, phoneNumber, storeID).Scan(
		&customer.ID, &customer.StoreID, &customer.FullName, &customer.PhoneNumber,
		&customer.Email, &customer.Address, &customer.Notes, &customer.CreatedAt, &customer.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting customer by phone number: %v", ErrDatabaseError, err)
	}
	return customer, nil
}

func (r *customerRepository) GetCustomers(storeID int64, page, pageSize int, searchTerm *string) ([]models.Customer, int, error) {
	customers := []models.Customer{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + customerColumns + `, COUNT(*) OVER() AS total_count FROM customers WHERE store_id = $1`)

	args := []interface{}{storeID}
	argCount := 2
	if searchTerm != nil && *searchTerm != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND (full_name ILIKE $%d OR phone_number ILIKE $%d OR email ILIKE $%d)", argCount, argCount, argCount))
		args = append(args, "%"+*searchTerm+"%")
		argCount++
	}
	queryBuilder.WriteString(" ORDER BY full_name")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting customers: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var customer models.Customer
		if err := rows.Scan(
			&customer.ID, &customer.StoreID, &customer.FullName, &customer.PhoneNumber,
			&customer.Email, &customer.Address, &customer.Notes, &customer.CreatedAt, &customer.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning customer: %v", ErrDatabaseError, err)
		}
		customers = append(customers, customer)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating customers: %v", ErrDatabaseError, err)
	}
	return customers, totalCount, nil
}

func (r *customerRepository) UpdateCustomer(executor SQLExecutor, customer *models.Customer) error {
	query := `UPDATE customers SET full_name = $1, phone_number = $2, email = $3, address = $4, notes = $5, updated_at = $6
	          WHERE id = $7 AND store_id = $8`
	result, err := executor.Exec(query,
		customer.FullName, customer.PhoneNumber, customer.Email, customer.Address, customer.Notes,
		time.Now(), customer.ID, customer.StoreID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("%w: customer contact already exists in this store (constraint: %s)", ErrDuplicateKey, pqErr.Constraint)
		}
		return fmt.Errorf("%w: updating customer ID %d: %v", ErrDatabaseError, customer.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *customerRepository) DeleteCustomer(executor SQLExecutor, storeID, customerID int64) error {
	result, err := executor.Exec(`DELETE FROM customers WHERE id = $1 AND store_id = $2`, customerID, storeID)
	if err != nil {
		return fmt.Errorf("%w: deleting customer ID %d: %v", ErrDatabaseError, customerID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
