package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"repair_crm_backend/internal/models"
)

// ExpenseRepository defines the interface for ticket expense line
// database operations. Store scoping is enforced one level up: the
// service resolves the owning ticket (store-checked) before touching
// expense rows.
type ExpenseRepository interface {
	CreateExpense(executor SQLExecutor, expense *models.TicketExpense) (int64, error)
	GetExpenseByID(expenseID int64) (*models.TicketExpense, error)
	GetExpensesByTicketID(ticketID int64) ([]models.TicketExpense, error)
	UpdateExpense(executor SQLExecutor, expense *models.TicketExpense) error
	DeleteExpense(executor SQLExecutor, expenseID int64) error
	DeleteExpensesByTicketID(executor SQLExecutor, ticketID int64) error
}

type expenseRepository struct {
	db *sql.DB
}

// NewExpenseRepository creates a new instance of ExpenseRepository.
func NewExpenseRepository(db *sql.DB) ExpenseRepository {
	return &expenseRepository{db: db}
}

func (r *expenseRepository) CreateExpense(executor SQLExecutor, expense *models.TicketExpense) (int64, error) {
	query := `INSERT INTO ticket_expenses
	          (ticket_id, inventory_item_id, name, quantity, price, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	currentTime := time.Now()
	err := executor.QueryRow(query,
		expense.TicketID, expense.InventoryItemID, expense.Name,
		expense.Quantity, expense.Price, currentTime, currentTime,
	).Scan(&expense.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating ticket expense: %v", ErrDatabaseError, err)
	}
	return expense.ID, nil
}

func (r *expenseRepository) GetExpenseByID(expenseID int64) (*models.TicketExpense, error) {
	expense := &models.TicketExpense{}
	query := `SELECT id, ticket_id, inventory_item_id, name, quantity, price, created_at, updated_at
	          FROM ticket_expenses WHERE id = $1`
	err := r.db.QueryRow(query, expenseID).Scan(
		&expense.ID, &expense.TicketID, &expense.InventoryItemID, &expense.Name,
		&expense.Quantity, &expense.Price, &expense.CreatedAt, &expense.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting ticket expense by ID %d: %v", ErrDatabaseError, expenseID, err)
	}
	return expense, nil
}

func (r *expenseRepository) GetExpensesByTicketID(ticketID int64) ([]models.TicketExpense, error) {
	expenses := []models.TicketExpense{}
	query := `SELECT id, ticket_id, inventory_item_id, name, quantity, price, created_at, updated_at
	          FROM ticket_expenses WHERE ticket_id = $1 ORDER BY created_at`
	rows, err := r.db.Query(query, ticketID)
	if err != nil {
		return nil, fmt.Errorf("%w: getting expenses for ticket ID %d: %v", ErrDatabaseError, ticketID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var expense models.TicketExpense
		if err := rows.Scan(
			&expense.ID, &expense.TicketID, &expense.InventoryItemID, &expense.Name,
			&expense.Quantity, &expense.Price, &expense.CreatedAt, &expense.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning ticket expense: %v", ErrDatabaseError, err)
		}
		expenses = append(expenses, expense)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating ticket expenses: %v", ErrDatabaseError, err)
	}
	return expenses, nil
}

func (r *expenseRepository) UpdateExpense(executor SQLExecutor, expense *models.TicketExpense) error {
	query := `UPDATE ticket_expenses SET name = $1, quantity = $2, price = $3, updated_at = $4 WHERE id = $5`
	result, err := executor.Exec(query, expense.Name, expense.Quantity, expense.Price, time.Now(), expense.ID)
	if err != nil {
		return fmt.Errorf("%w: updating ticket expense ID %d: %v", ErrDatabaseError, expense.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *expenseRepository) DeleteExpense(executor SQLExecutor, expenseID int64) error {
	query := `DELETE FROM ticket_expenses WHERE id = $1`
	result, err := executor.Exec(query, expenseID)
	if err != nil {
		return fmt.Errorf("%w: deleting ticket expense ID %d: %v", ErrDatabaseError, expenseID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *expenseRepository) DeleteExpensesByTicketID(executor SQLExecutor, ticketID int64) error {
	_, err := executor.Exec(`DELETE FROM ticket_expenses WHERE ticket_id = $1`, ticketID)
	if err != nil {
		return fmt.Errorf("%w: deleting expenses for ticket ID %d: %v", ErrDatabaseError, ticketID, err)
	}
	return nil
}
