package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"repair_crm_backend/internal/models"
	"repair_crm_backend/internal/repositories"
	"repair_crm_backend/pkg/utils"
)

// --- Custom Service Errors ---
var (
	ErrExpenseNotFound       = errors.New("ticket expense not found")
	ErrInsufficientInventory = errors.New("insufficient inventory for expense")
)

// InsufficientInventoryError reports a stock shortfall, carrying the
// quantities the caller needs to display. errors.Is matches it against
// ErrInsufficientInventory.
type InsufficientInventoryError struct {
	ItemID    int64
	ItemName  string
	Available int
	Required  int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory for %q (ID: %d): available %d, required %d",
		e.ItemName, e.ItemID, e.Available, e.Required)
}

func (e *InsufficientInventoryError) Unwrap() error {
	return ErrInsufficientInventory
}

// --- Expense DTOs ---

type CreateExpenseRequest struct {
	InventoryItemID *int64  `json:"inventory_item_id"`
	Name            string  `json:"name" binding:"required"`
	Quantity        int     `json:"quantity" binding:"required"`
	Price           float64 `json:"price"`
}

type UpdateExpenseRequest struct {
	Name     *string  `json:"name"`
	Quantity *int     `json:"quantity"`
	Price    *float64 `json:"price"`
}

// --- ExpenseService Interface ---

// ExpenseService owns a ticket's itemized expense lines and keeps
// linked inventory quantities in sync with them. Each mutation pairs
// the inventory adjustment and the expense write in one transaction:
// a failed stock check leaves the expense row untouched, and a failed
// expense write rolls the adjustment back.
type ExpenseService interface {
	CreateExpense(storeID, ticketID int64, req CreateExpenseRequest) (*models.TicketExpense, error)
	GetExpensesByTicket(storeID, ticketID int64) ([]models.TicketExpense, error)
	UpdateExpense(storeID, expenseID int64, req UpdateExpenseRequest) (*models.TicketExpense, error)
	DeleteExpense(storeID, expenseID int64) error
}

type expenseService struct {
	expenseRepo   repositories.ExpenseRepository
	ticketRepo    repositories.TicketRepository
	inventoryRepo repositories.InventoryRepository
	inventorySvc  InventoryService
	db            *sql.DB
}

// NewExpenseService creates a new instance of ExpenseService.
func NewExpenseService(
	er repositories.ExpenseRepository,
	tr repositories.TicketRepository,
	ir repositories.InventoryRepository,
	is InventoryService,
	db *sql.DB,
) ExpenseService {
	return &expenseService{
		expenseRepo:   er,
		ticketRepo:    tr,
		inventoryRepo: ir,
		inventorySvc:  is,
		db:            db,
	}
}

func (s *expenseService) CreateExpense(storeID, ticketID int64, req CreateExpenseRequest) (*models.TicketExpense, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: expense name cannot be empty", ErrValidation)
	}
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: expense quantity must be positive", ErrValidation)
	}
	if req.Price < 0 {
		return nil, fmt.Errorf("%w: expense price cannot be negative", ErrValidation)
	}

	// Resolving the ticket also verifies it belongs to the caller's store.
	ticket, err := s.ticketRepo.GetTicketByID(storeID, ticketID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to resolve ticket for expense: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if req.InventoryItemID != nil {
		item, repoErr := s.inventoryRepo.GetItemForUpdate(tx, storeID, *req.InventoryItemID)
		if repoErr != nil {
			if errors.Is(repoErr, repositories.ErrNotFound) {
				return nil, ErrItemNotFound
			}
			return nil, fmt.Errorf("failed to load inventory item for expense: %w", repoErr)
		}
		if item.CurrentQuantity < req.Quantity {
			return nil, &InsufficientInventoryError{
				ItemID:    item.ID,
				ItemName:  item.Name,
				Available: item.CurrentQuantity,
				Required:  req.Quantity,
			}
		}
		reason := utils.NewNullString(fmt.Sprintf("Expense added to ticket %d", ticket.ID))
		if _, adjErr := s.inventorySvc.AdjustQuantityTx(tx, storeID, *req.InventoryItemID, -req.Quantity, reason, &ticket.ID); adjErr != nil {
			return nil, fmt.Errorf("failed to consume inventory for expense: %w", adjErr)
		}
	}

	expense := &models.TicketExpense{
		TicketID:        ticket.ID,
		InventoryItemID: req.InventoryItemID,
		Name:            req.Name,
		Quantity:        req.Quantity,
		Price:           req.Price,
	}
	id, err := s.expenseRepo.CreateExpense(tx, expense)
	if err != nil {
		return nil, fmt.Errorf("failed to create expense record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit expense transaction: %w", err)
	}
	return s.expenseRepo.GetExpenseByID(id)
}

func (s *expenseService) GetExpensesByTicket(storeID, ticketID int64) ([]models.TicketExpense, error) {
	if _, err := s.ticketRepo.GetTicketByID(storeID, ticketID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to resolve ticket for expenses: %w", err)
	}
	expenses, err := s.expenseRepo.GetExpensesByTicketID(ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get expenses for ticket %d: %w", ticketID, err)
	}
	return expenses, nil
}

func (s *expenseService) UpdateExpense(storeID, expenseID int64, req UpdateExpenseRequest) (*models.TicketExpense, error) {
	expense, err := s.resolveExpense(storeID, expenseID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, fmt.Errorf("%w: expense name cannot be empty if provided", ErrValidation)
		}
		expense.Name = *req.Name
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, fmt.Errorf("%w: expense price cannot be negative", ErrValidation)
		}
		expense.Price = *req.Price
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if req.Quantity != nil && *req.Quantity != expense.Quantity {
		newQuantity := *req.Quantity
		if newQuantity <= 0 {
			return nil, fmt.Errorf("%w: expense quantity must be positive", ErrValidation)
		}

		if expense.InventoryItemID != nil {
			delta := newQuantity - expense.Quantity
			item, repoErr := s.inventoryRepo.GetItemForUpdate(tx, storeID, *expense.InventoryItemID)
			if repoErr != nil {
				if errors.Is(repoErr, repositories.ErrNotFound) {
					return nil, ErrItemNotFound
				}
				return nil, fmt.Errorf("failed to load inventory item for expense update: %w", repoErr)
			}
			// Only the extra consumption needs to be in stock; a
			// shrinking line returns stock unconditionally.
			if delta > 0 && item.CurrentQuantity < delta {
				return nil, &InsufficientInventoryError{
					ItemID:    item.ID,
					ItemName:  item.Name,
					Available: item.CurrentQuantity,
					Required:  delta,
				}
			}
			reason := utils.NewNullString(fmt.Sprintf("Expense updated on ticket %d", expense.TicketID))
			if _, adjErr := s.inventorySvc.AdjustQuantityTx(tx, storeID, *expense.InventoryItemID, -delta, reason, &expense.TicketID); adjErr != nil {
				return nil, fmt.Errorf("failed to reconcile inventory for expense update: %w", adjErr)
			}
		}
		expense.Quantity = newQuantity
	}

	if err := s.expenseRepo.UpdateExpense(tx, expense); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrExpenseNotFound
		}
		return nil, fmt.Errorf("failed to update expense record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit expense update: %w", err)
	}
	return s.expenseRepo.GetExpenseByID(expenseID)
}

// DeleteExpense removes the line and, for inventory-linked lines,
// returns the consumed stock first. The restore is not skipped just
// because the row is about to disappear: the inventory quantity and
// the movement audit must both reflect the return.
func (s *expenseService) DeleteExpense(storeID, expenseID int64) error {
	expense, err := s.resolveExpense(storeID, expenseID)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if expense.InventoryItemID != nil {
		reason := utils.NewNullString(fmt.Sprintf("Expense removed from ticket %d", expense.TicketID))
		if _, adjErr := s.inventorySvc.AdjustQuantityTx(tx, storeID, *expense.InventoryItemID, expense.Quantity, reason, &expense.TicketID); adjErr != nil {
			return fmt.Errorf("failed to return inventory for deleted expense: %w", adjErr)
		}
	}

	if err := s.expenseRepo.DeleteExpense(tx, expenseID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrExpenseNotFound
		}
		return fmt.Errorf("failed to delete expense record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit expense deletion: %w", err)
	}
	return nil
}

// resolveExpense loads an expense and confirms its parent ticket
// belongs to the caller's store.
func (s *expenseService) resolveExpense(storeID, expenseID int64) (*models.TicketExpense, error) {
	expense, err := s.expenseRepo.GetExpenseByID(expenseID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrExpenseNotFound
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	if _, err := s.ticketRepo.GetTicketByID(storeID, expense.TicketID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrExpenseNotFound
		}
		return nil, fmt.Errorf("failed to verify expense ownership: %w", err)
	}
	return expense, nil
}
