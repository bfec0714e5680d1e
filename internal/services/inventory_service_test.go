package services

import (
	"testing"

	"repair_crm_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInventoryFixture(t *testing.T) (*fakeInventoryRepo, InventoryService) {
	t.Helper()
	repo := newFakeInventoryRepo()
	svc := NewInventoryService(repo, newStubDB(t))
	return repo, svc
}

func TestAdjustQuantityAppliesDeltaAndRecordsMovement(t *testing.T) {
	repo, svc := newInventoryFixture(t)
	item := repo.addItem(1, "SSD 512GB", 5, 2)

	reason := "restock delivery"
	updated, err := svc.AdjustQuantity(1, item.ID, 3, &reason)
	require.NoError(t, err)
	assert.Equal(t, 8, updated.CurrentQuantity)

	require.Len(t, repo.movements, 1)
	movement := repo.movements[0]
	assert.Equal(t, item.ID, movement.InventoryItemID)
	assert.Equal(t, 3, movement.QuantityChanged)
	require.NotNil(t, movement.Reason)
	assert.Equal(t, "restock delivery", *movement.Reason)
	assert.Nil(t, movement.TicketID)
}

func TestAdjustQuantityRejectsNegativeResult(t *testing.T) {
	repo, svc := newInventoryFixture(t)
	item := repo.addItem(1, "SSD 512GB", 5, 2)

	_, err := svc.AdjustQuantity(1, item.ID, -6, nil)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	// Nothing changed and nothing was recorded.
	reloaded, getErr := repo.GetItemByID(1, item.ID)
	require.NoError(t, getErr)
	assert.Equal(t, 5, reloaded.CurrentQuantity)
	assert.Empty(t, repo.movements)
}

func TestAdjustQuantityToExactlyZero(t *testing.T) {
	repo, svc := newInventoryFixture(t)
	item := repo.addItem(1, "Thermal paste", 4, 1)

	updated, err := svc.AdjustQuantity(1, item.ID, -4, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.CurrentQuantity)
	assert.True(t, updated.IsLowStock())
}

func TestAdjustQuantityCrossStoreNotFound(t *testing.T) {
	repo, svc := newInventoryFixture(t)
	item := repo.addItem(1, "SSD 512GB", 5, 2)

	_, err := svc.AdjustQuantity(2, item.ID, -1, nil)
	require.ErrorIs(t, err, ErrItemNotFound)
}

func TestCreateItemRejectsDuplicateSKUPerStore(t *testing.T) {
	_, svc := newInventoryFixture(t)
	sku := "SSD-512"

	_, err := svc.CreateItem(1, CreateInventoryItemRequest{Name: "SSD 512GB", SKU: &sku, CurrentQuantity: 5})
	require.NoError(t, err)

	_, err = svc.CreateItem(1, CreateInventoryItemRequest{Name: "Another SSD", SKU: &sku})
	require.ErrorIs(t, err, ErrDuplicateSKU)

	// The same SKU in a different store is fine.
	_, err = svc.CreateItem(2, CreateInventoryItemRequest{Name: "SSD 512GB", SKU: &sku})
	require.NoError(t, err)
}

func TestCreateItemRejectsNegativeQuantities(t *testing.T) {
	_, svc := newInventoryFixture(t)

	_, err := svc.CreateItem(1, CreateInventoryItemRequest{Name: "SSD", CurrentQuantity: -1})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateItem(1, CreateInventoryItemRequest{Name: "SSD", MinQuantity: -1})
	require.ErrorIs(t, err, ErrValidation)
}

func TestUpdateItemLeavesQuantityAlone(t *testing.T) {
	repo, svc := newInventoryFixture(t)
	item := repo.addItem(1, "SSD 512GB", 9, 2)

	newName := "SSD 512GB NVMe"
	updated, err := svc.UpdateItem(1, item.ID, UpdateInventoryItemRequest{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "SSD 512GB NVMe", updated.Name)
	assert.Equal(t, 9, updated.CurrentQuantity)
	assert.Empty(t, repo.movements)
}

func TestGetItemsLowStockFilter(t *testing.T) {
	repo, svc := newInventoryFixture(t)
	repo.addItem(1, "Plenty", 50, 5)
	low := repo.addItem(1, "Scarce", 2, 5)

	items, total, err := svc.GetItems(1, models.InventoryFilters{LowStock: true})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, low.ID, items[0].ID)
}
