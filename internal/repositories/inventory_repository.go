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

// InventoryRepository defines the interface for inventory item and
// movement database operations. All queries are store-scoped.
type InventoryRepository interface {
	CreateItem(executor SQLExecutor, item *models.InventoryItem) (int64, error)
	GetItemByID(storeID, itemID int64) (*models.InventoryItem, error)
	GetItemForUpdate(executor SQLExecutor, storeID, itemID int64) (*models.InventoryItem, error)
	GetItems(storeID int64, filters models.InventoryFilters) ([]models.InventoryItem, int, error)
	UpdateItem(executor SQLExecutor, item *models.InventoryItem) error
	DeleteItem(executor SQLExecutor, storeID, itemID int64) error
	SetQuantity(executor SQLExecutor, storeID, itemID int64, quantity int) error
	CreateMovement(executor SQLExecutor, movement *models.InventoryMovement) (int64, error)
	GetMovements(storeID int64, itemID *int64, page, pageSize int) ([]models.InventoryMovement, int, error)
}

type inventoryRepository struct {
	db *sql.DB
}

// NewInventoryRepository creates a new instance of InventoryRepository.
func NewInventoryRepository(db *sql.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

const inventoryItemColumns = `id, store_id, name, sku, category, location, current_quantity, min_quantity, unit_price, cost_price, created_at, updated_at`

func scanInventoryItem(row *sql.Row, item *models.InventoryItem) error {
	return row.Scan(
		&item.ID, &item.StoreID, &item.Name, &item.SKU, &item.Category, &item.Location,
		&item.CurrentQuantity, &item.MinQuantity, &item.UnitPrice, &item.CostPrice,
		&item.CreatedAt, &item.UpdatedAt,
	)
}

func (r *inventoryRepository) CreateItem(executor SQLExecutor, item *models.InventoryItem) (int64, error) {
	query := `INSERT INTO inventory_items
	          (store_id, name, sku, category, location, current_quantity, min_quantity, unit_price, cost_price, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	          RETURNING id`
	currentTime := time.Now()
	err := executor.QueryRow(query,
		item.StoreID, item.Name, item.SKU, item.Category, item.Location,
		item.CurrentQuantity, item.MinQuantity, item.UnitPrice, item.CostPrice,
		currentTime, currentTime,
	).Scan(&item.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: inventory item SKU already exists in this store (constraint: %s)", ErrDuplicateKey, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating inventory item: %v", ErrDatabaseError, err)
	}
	return item.ID, nil
}

func (r *inventoryRepository) GetItemByID(storeID, itemID int64) (*models.InventoryItem, error) {
	item := &models.InventoryItem{}
	query := `SELECT ` + inventoryItemColumns + ` FROM inventory_items WHERE id = $1 AND store_id = $2`
	err := scanInventoryItem(r.db.QueryRow(query, itemID, storeID), item)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting inventory item by ID %d: %v", ErrDatabaseError, itemID, err)
	}
	return item, nil
}

// GetItemForUpdate loads an item through the given executor with a row
// lock, so that a quantity adjustment inside a transaction cannot race
// a concurrent adjustment of the same item.
func (r *inventoryRepository) GetItemForUpdate(executor SQLExecutor, storeID, itemID int64) (*models.InventoryItem, error) {
	item := &models.InventoryItem{}
	query := `SELECT ` + inventoryItemColumns + ` FROM inventory_items WHERE id = $1 AND store_id = $2 FOR UPDATE`
	err := scanInventoryItem(executor.QueryRow(query, itemID, storeID), item)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: locking inventory item ID %d: %v", ErrDatabaseError, itemID, err)
	}
	return item, nil
}

func (r *inventoryRepository) GetItems(storeID int64, filters models.InventoryFilters) ([]models.InventoryItem, int, error) {
	items := []models.InventoryItem{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + inventoryItemColumns + `, COUNT(*) OVER() AS total_count FROM inventory_items`)

	conditions := []string{"store_id = $1"}
	args := []interface{}{storeID}
	argCount := 2

	if filters.Category != nil && *filters.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argCount))
		args = append(args, *filters.Category)
		argCount++
	}
	if filters.Location != nil && *filters.Location != "" {
		conditions = append(conditions, fmt.Sprintf("location = $%d", argCount))
		args = append(args, *filters.Location)
		argCount++
	}
	if filters.Search != nil && *filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR sku ILIKE $%d)", argCount, argCount))
		args = append(args, "%"+*filters.Search+"%")
		argCount++
	}
	if filters.LowStock {
		conditions = append(conditions, "current_quantity <= min_quantity")
	}

	queryBuilder.WriteString(" WHERE ")
	queryBuilder.WriteString(strings.Join(conditions, " AND "))
	queryBuilder.WriteString(" ORDER BY name")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting inventory items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.InventoryItem
		if err := rows.Scan(
			&item.ID, &item.StoreID, &item.Name, &item.SKU, &item.Category, &item.Location,
			&item.CurrentQuantity, &item.MinQuantity, &item.UnitPrice, &item.CostPrice,
			&item.CreatedAt, &item.UpdatedAt, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning inventory item: %v", ErrDatabaseError, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating inventory items: %v", ErrDatabaseError, err)
	}
	return items, totalCount, nil
}

// UpdateItem persists field edits. current_quantity is intentionally
// excluded: stock changes go through SetQuantity via the service's
// adjustment operation only.
func (r *inventoryRepository) UpdateItem(executor SQLExecutor, item *models.InventoryItem) error {
	query := `UPDATE inventory_items SET
	            name = $1, sku = $2, category = $3, location = $4,
	            min_quantity = $5, unit_price = $6, cost_price = $7, updated_at = $8
	          WHERE id = $9 AND store_id = $10`
	result, err := executor.Exec(query,
		item.Name, item.SKU, item.Category, item.Location,
		item.MinQuantity, item.UnitPrice, item.CostPrice, time.Now(),
		item.ID, item.StoreID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("%w: inventory item SKU already exists in this store (constraint: %s)", ErrDuplicateKey, pqErr.Constraint)
		}
		return fmt.Errorf("%w: updating inventory item ID %d: %v", ErrDatabaseError, item.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *inventoryRepository) DeleteItem(executor SQLExecutor, storeID, itemID int64) error {
	query := `DELETE FROM inventory_items WHERE id = $1 AND store_id = $2`
	result, err := executor.Exec(query, itemID, storeID)
	if err != nil {
		return fmt.Errorf("%w: deleting inventory item ID %d: %v", ErrDatabaseError, itemID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *inventoryRepository) SetQuantity(executor SQLExecutor, storeID, itemID int64, quantity int) error {
	query := `UPDATE inventory_items SET current_quantity = $1, updated_at = $2 WHERE id = $3 AND store_id = $4`
	result, err := executor.Exec(query, quantity, time.Now(), itemID, storeID)
	if err != nil {
		return fmt.Errorf("%w: setting quantity for inventory item ID %d: %v", ErrDatabaseError, itemID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *inventoryRepository) CreateMovement(executor SQLExecutor, movement *models.InventoryMovement) (int64, error) {
	query := `INSERT INTO inventory_movements
	          (inventory_item_id, store_id, quantity_changed, reason, ticket_id, movement_date, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	currentTime := time.Now()
	if movement.MovementDate.IsZero() {
		movement.MovementDate = currentTime
	}

	err := executor.QueryRow(query,
		movement.InventoryItemID, movement.StoreID, movement.QuantityChanged,
		movement.Reason, movement.TicketID, movement.MovementDate, currentTime,
	).Scan(&movement.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating inventory movement: %v", ErrDatabaseError, err)
	}
	return movement.ID, nil
}

func (r *inventoryRepository) GetMovements(storeID int64, itemID *int64, page, pageSize int) ([]models.InventoryMovement, int, error) {
	movements := []models.InventoryMovement{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	    im.id, im.inventory_item_id, im.store_id, im.quantity_changed, im.reason, im.ticket_id,
	    im.movement_date, im.created_at,
	    ii.name AS item_name, ii.sku AS item_sku,
	    COUNT(*) OVER() AS total_count
	  FROM inventory_movements im
	  JOIN inventory_items ii ON im.inventory_item_id = ii.id`)

	conditions := []string{"im.store_id = $1"}
	args := []interface{}{storeID}
	argCount := 2

	if itemID != nil {
		conditions = append(conditions, fmt.Sprintf("im.inventory_item_id = $%d", argCount))
		args = append(args, *itemID)
		argCount++
	}

	queryBuilder.WriteString(" WHERE ")
	queryBuilder.WriteString(strings.Join(conditions, " AND "))
	queryBuilder.WriteString(" ORDER BY im.movement_date DESC, im.created_at DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting inventory movements: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var movement models.InventoryMovement
		var item models.InventoryItem
		var itemName sql.NullString
		var itemSKU sql.NullString

		if err := rows.Scan(
			&movement.ID, &movement.InventoryItemID, &movement.StoreID, &movement.QuantityChanged,
			&movement.Reason, &movement.TicketID, &movement.MovementDate, &movement.CreatedAt,
			&itemName, &itemSKU, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning inventory movement: %v", ErrDatabaseError, err)
		}

		item.ID = movement.InventoryItemID
		if itemName.Valid {
			item.Name = itemName.String
		}
		if itemSKU.Valid {
			sku := itemSKU.String
			item.SKU = &sku
		}
		movement.Item = &item
		movements = append(movements, movement)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating inventory movements: %v", ErrDatabaseError, err)
	}
	return movements, totalCount, nil
}
