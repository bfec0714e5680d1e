package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"repair_crm_backend/internal/models"
	"repair_crm_backend/internal/repositories"
)

// --- Custom Service Errors ---
var (
	ErrValidation      = errors.New("validation error")
	ErrItemNotFound    = errors.New("inventory item not found")
	ErrDuplicateSKU    = errors.New("an item with this SKU already exists in this store")
	ErrInvalidQuantity = errors.New("adjustment would drive inventory quantity below zero")
)

// --- Inventory DTOs ---

type CreateInventoryItemRequest struct {
	Name            string   `json:"name" binding:"required"`
	SKU             *string  `json:"sku"`
	Category        *string  `json:"category"`
	Location        *string  `json:"location"`
	CurrentQuantity int      `json:"current_quantity"`
	MinQuantity     int      `json:"min_quantity"`
	UnitPrice       *float64 `json:"unit_price"`
	CostPrice       *float64 `json:"cost_price"`
}

type UpdateInventoryItemRequest struct {
	Name        *string  `json:"name"`
	SKU         *string  `json:"sku"`
	Category    *string  `json:"category"`
	Location    *string  `json:"location"`
	MinQuantity *int     `json:"min_quantity"`
	UnitPrice   *float64 `json:"unit_price"`
	CostPrice   *float64 `json:"cost_price"`
}

type AdjustQuantityRequest struct {
	Delta  int     `json:"delta" binding:"required"`
	Reason *string `json:"reason"`
}

// --- InventoryService Interface ---

// InventoryService owns stock-keeping units. AdjustQuantity (and its
// transactional form AdjustQuantityTx) is the single choke point for
// every stock change; no other code path writes current_quantity.
type InventoryService interface {
	CreateItem(storeID int64, req CreateInventoryItemRequest) (*models.InventoryItem, error)
	GetItemByID(storeID, itemID int64) (*models.InventoryItem, error)
	GetItems(storeID int64, filters models.InventoryFilters) ([]models.InventoryItem, int, error)
	UpdateItem(storeID, itemID int64, req UpdateInventoryItemRequest) (*models.InventoryItem, error)
	DeleteItem(storeID, itemID int64) error
	AdjustQuantity(storeID, itemID int64, delta int, reason *string) (*models.InventoryItem, error)
	AdjustQuantityTx(executor repositories.SQLExecutor, storeID, itemID int64, delta int, reason *string, ticketID *int64) (int, error)
	GetMovements(storeID int64, itemID *int64, page, pageSize int) ([]models.InventoryMovement, int, error)
}

type inventoryService struct {
	inventoryRepo repositories.InventoryRepository
	db            *sql.DB
}

// NewInventoryService creates a new instance of InventoryService.
func NewInventoryService(repo repositories.InventoryRepository, db *sql.DB) InventoryService {
	return &inventoryService{
		inventoryRepo: repo,
		db:            db,
	}
}

func (s *inventoryService) CreateItem(storeID int64, req CreateInventoryItemRequest) (*models.InventoryItem, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: item name cannot be empty", ErrValidation)
	}
	if req.CurrentQuantity < 0 {
		return nil, fmt.Errorf("%w: current quantity cannot be negative", ErrValidation)
	}
	if req.MinQuantity < 0 {
		return nil, fmt.Errorf("%w: min quantity cannot be negative", ErrValidation)
	}

	item := &models.InventoryItem{
		StoreID:         storeID,
		Name:            req.Name,
		SKU:             req.SKU,
		Category:        req.Category,
		Location:        req.Location,
		CurrentQuantity: req.CurrentQuantity,
		MinQuantity:     req.MinQuantity,
		UnitPrice:       req.UnitPrice,
		CostPrice:       req.CostPrice,
	}

	id, err := s.inventoryRepo.CreateItem(s.db, item)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrDuplicateSKU
		}
		return nil, fmt.Errorf("failed to create inventory item: %w", err)
	}
	return s.inventoryRepo.GetItemByID(storeID, id)
}

func (s *inventoryService) GetItemByID(storeID, itemID int64) (*models.InventoryItem, error) {
	item, err := s.inventoryRepo.GetItemByID(storeID, itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get inventory item: %w", err)
	}
	return item, nil
}

func (s *inventoryService) GetItems(storeID int64, filters models.InventoryFilters) ([]models.InventoryItem, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 20
	}
	items, totalCount, err := s.inventoryRepo.GetItems(storeID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get inventory items: %w", err)
	}
	return items, totalCount, nil
}

// UpdateItem edits descriptive fields. Quantity is deliberately not
// updatable here: stock changes flow through AdjustQuantity only.
func (s *inventoryService) UpdateItem(storeID, itemID int64, req UpdateInventoryItemRequest) (*models.InventoryItem, error) {
	item, err := s.inventoryRepo.GetItemByID(storeID, itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to find inventory item for update: %w", err)
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, fmt.Errorf("%w: item name cannot be empty if provided", ErrValidation)
		}
		item.Name = *req.Name
	}
	if req.SKU != nil {
		item.SKU = req.SKU
	}
	if req.Category != nil {
		item.Category = req.Category
	}
	if req.Location != nil {
		item.Location = req.Location
	}
	if req.MinQuantity != nil {
		if *req.MinQuantity < 0 {
			return nil, fmt.Errorf("%w: min quantity cannot be negative", ErrValidation)
		}
		item.MinQuantity = *req.MinQuantity
	}
	if req.UnitPrice != nil {
		item.UnitPrice = req.UnitPrice
	}
	if req.CostPrice != nil {
		item.CostPrice = req.CostPrice
	}

	if err := s.inventoryRepo.UpdateItem(s.db, item); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrDuplicateSKU
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to update inventory item: %w", err)
	}
	return s.inventoryRepo.GetItemByID(storeID, itemID)
}

// DeleteItem removes an item. A missing item (or one in another store)
// reports ErrItemNotFound; outstanding expense references are not
// checked.
func (s *inventoryService) DeleteItem(storeID, itemID int64) error {
	err := s.inventoryRepo.DeleteItem(s.db, storeID, itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrItemNotFound
		}
		return fmt.Errorf("failed to delete inventory item: %w", err)
	}
	return nil
}

// AdjustQuantity applies a stock delta inside its own transaction.
func (s *inventoryService) AdjustQuantity(storeID, itemID int64, delta int, reason *string) (*models.InventoryItem, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.AdjustQuantityTx(tx, storeID, itemID, delta, reason, nil); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit quantity adjustment: %w", err)
	}
	return s.inventoryRepo.GetItemByID(storeID, itemID)
}

// AdjustQuantityTx applies a stock delta through the caller's
// executor. The item row is locked for the duration of the enclosing
// transaction so concurrent adjustments serialize. The invariant
// current_quantity >= 0 is enforced here and nowhere else.
func (s *inventoryService) AdjustQuantityTx(executor repositories.SQLExecutor, storeID, itemID int64, delta int, reason *string, ticketID *int64) (int, error) {
	item, err := s.inventoryRepo.GetItemForUpdate(executor, storeID, itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return 0, ErrItemNotFound
		}
		return 0, fmt.Errorf("failed to load inventory item for adjustment: %w", err)
	}

	newQuantity := item.CurrentQuantity + delta
	if newQuantity < 0 {
		return 0, fmt.Errorf("%w: item %q has %d, adjustment of %d requested", ErrInvalidQuantity, item.Name, item.CurrentQuantity, delta)
	}

	if err := s.inventoryRepo.SetQuantity(executor, storeID, itemID, newQuantity); err != nil {
		return 0, fmt.Errorf("failed to persist quantity for item ID %d: %w", itemID, err)
	}

	movement := &models.InventoryMovement{
		InventoryItemID: itemID,
		StoreID:         storeID,
		QuantityChanged: delta,
		Reason:          reason,
		TicketID:        ticketID,
	}
	if _, err := s.inventoryRepo.CreateMovement(executor, movement); err != nil {
		return 0, fmt.Errorf("failed to record inventory movement for item ID %d: %w", itemID, err)
	}
	return newQuantity, nil
}

func (s *inventoryService) GetMovements(storeID int64, itemID *int64, page, pageSize int) ([]models.InventoryMovement, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	movements, totalCount, err := s.inventoryRepo.GetMovements(storeID, itemID, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get inventory movements: %w", err)
	}
	return movements, totalCount, nil
}
