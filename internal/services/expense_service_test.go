package services

import (
	"errors"
	"testing"

	"repair_crm_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type expenseFixture struct {
	inventoryRepo *fakeInventoryRepo
	expenseRepo   *fakeExpenseRepo
	ticketRepo    *fakeTicketRepo
	svc           ExpenseService
	ticket        *models.RepairTicket
}

func newExpenseFixture(t *testing.T) *expenseFixture {
	t.Helper()
	inventoryRepo := newFakeInventoryRepo()
	expenseRepo := newFakeExpenseRepo()
	ticketRepo := newFakeTicketRepo()
	db := newStubDB(t)
	inventorySvc := NewInventoryService(inventoryRepo, db)
	svc := NewExpenseService(expenseRepo, ticketRepo, inventoryRepo, inventorySvc, db)
	return &expenseFixture{
		inventoryRepo: inventoryRepo,
		expenseRepo:   expenseRepo,
		ticketRepo:    ticketRepo,
		svc:           svc,
		ticket:        ticketRepo.addTicket(1, 1, StatusInProgress),
	}
}

func TestCreateExpenseConsumesLinkedInventory(t *testing.T) {
	f := newExpenseFixture(t)
	item := f.inventoryRepo.addItem(1, "Screen assembly", 10, 2)

	expense, err := f.svc.CreateExpense(1, f.ticket.ID, CreateExpenseRequest{
		InventoryItemID: &item.ID,
		Name:            "Screen replacement",
		Quantity:        3,
		Price:           120,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, expense.Quantity)

	reloaded, _ := f.inventoryRepo.GetItemByID(1, item.ID)
	assert.Equal(t, 7, reloaded.CurrentQuantity)

	require.Len(t, f.inventoryRepo.movements, 1)
	movement := f.inventoryRepo.movements[0]
	assert.Equal(t, -3, movement.QuantityChanged)
	require.NotNil(t, movement.TicketID)
	assert.Equal(t, f.ticket.ID, *movement.TicketID)
}

func TestCreateExpenseInsufficientInventory(t *testing.T) {
	f := newExpenseFixture(t)
	item := f.inventoryRepo.addItem(1, "Screen assembly", 2, 1)

	_, err := f.svc.CreateExpense(1, f.ticket.ID, CreateExpenseRequest{
		InventoryItemID: &item.ID,
		Name:            "Screen replacement",
		Quantity:        5,
		Price:           120,
	})
	require.ErrorIs(t, err, ErrInsufficientInventory)

	var insufficientErr *InsufficientInventoryError
	require.True(t, errors.As(err, &insufficientErr))
	assert.Equal(t, 2, insufficientErr.Available)
	assert.Equal(t, 5, insufficientErr.Required)
	assert.Equal(t, "Screen assembly", insufficientErr.ItemName)

	// Neither the expense nor the stock level changed.
	assert.Empty(t, f.expenseRepo.expenses)
	reloaded, _ := f.inventoryRepo.GetItemByID(1, item.ID)
	assert.Equal(t, 2, reloaded.CurrentQuantity)
	assert.Empty(t, f.inventoryRepo.movements)
}

func TestCreateExpenseWithoutInventoryLink(t *testing.T) {
	f := newExpenseFixture(t)

	expense, err := f.svc.CreateExpense(1, f.ticket.ID, CreateExpenseRequest{
		Name:     "Courier fee",
		Quantity: 1,
		Price:    15,
	})
	require.NoError(t, err)
	assert.Nil(t, expense.InventoryItemID)
	assert.Empty(t, f.inventoryRepo.movements)
}

func TestCreateExpenseValidation(t *testing.T) {
	f := newExpenseFixture(t)

	_, err := f.svc.CreateExpense(1, f.ticket.ID, CreateExpenseRequest{Name: "  ", Quantity: 1})
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.CreateExpense(1, f.ticket.ID, CreateExpenseRequest{Name: "Part", Quantity: 0})
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.CreateExpense(1, f.ticket.ID, CreateExpenseRequest{Name: "Part", Quantity: 1, Price: -5})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreateExpenseCrossStoreTicketHidden(t *testing.T) {
	f := newExpenseFixture(t)
	otherStoreTicket := f.ticketRepo.addTicket(2, 1, StatusPending)

	_, err := f.svc.CreateExpense(1, otherStoreTicket.ID, CreateExpenseRequest{Name: "Part", Quantity: 1})
	require.ErrorIs(t, err, ErrTicketNotFound)
}

func TestUpdateExpenseGrowingLineConsumesDelta(t *testing.T) {
	f := newExpenseFixture(t)
	item := f.inventoryRepo.addItem(1, "Screen assembly", 10, 2)
	created, err := f.svc.CreateExpense(1, f.ticket.ID, CreateExpenseRequest{
		InventoryItemID: &item.ID, Name: "Screen replacement", Quantity: 3, Price: 120,
	})
	require.NoError(t, err)

	newQuantity := 5
	updated, err := f.svc.UpdateExpense(1, created.ID, UpdateExpenseRequest{Quantity: &newQuantity})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Quantity)

	reloaded, _ := f.inventoryRepo.GetItemByID(1, item.ID)
	assert.Equal(t, 5, reloaded.CurrentQuantity)

	require.Len(t, f.inventoryRepo.movements, 2)
	assert.Equal(t, -2, f.inventoryRepo.movements[1].QuantityChanged)
}

func TestUpdateExpenseShrinkingLineReturnsStock(t *testing.T) {
	f := newExpenseFixture(t)
	item := f.inventoryRepo.addItem(1, "Screen assembly", 10, 2)
	created, err := f.svc.CreateExpense(1, f.ticket.ID, CreateExpenseRequest{
		InventoryItemID: &item.ID, Name: "Screen replacement", Quantity: 3, Price: 120,
	})
	require.NoError(t, err)

	newQuantity := 1
	_, err = f.svc.UpdateExpense(1, created.ID, UpdateExpenseRequest{Quantity: &newQuantity})
	require.NoError(t, err)

	reloaded, _ := f.inventoryRepo.GetItemByID(1, item.ID)
	assert.Equal(t, 9, reloaded.CurrentQuantity)
	require.Len(t, f.inventoryRepo.movements, 2)
	assert.Equal(t, 2, f.inventoryRepo.movements[1].QuantityChanged)
}

func TestUpdateExpenseInsufficientForDelta(t *testing.T) {
	f := newExpenseFixture(t)
	item := f.inventoryRepo.addItem(1, "Screen assembly", 4, 1)
	created, err := f.svc.CreateExpense(1, f.ticket.ID, CreateExpenseRequest{
		InventoryItemID: &item.ID, Name: "Screen replacement", Quantity: 3, Price: 120,
	})
	require.NoError(t, err)

	// 1 left in stock, the line wants 7 more.
	newQuantity := 10
	_, err = f.svc.UpdateExpense(1, created.ID, UpdateExpenseRequest{Quantity: &newQuantity})
	require.ErrorIs(t, err, ErrInsufficientInventory)

	var insufficientErr *InsufficientInventoryError
	require.True(t, errors.As(err, &insufficientErr))
	assert.Equal(t, 1, insufficientErr.Available)
	assert.Equal(t, 7, insufficientErr.Required)

	// Line unchanged.
	unchanged, _ := f.expenseRepo.GetExpenseByID(created.ID)
	assert.Equal(t, 3, unchanged.Quantity)
}

func TestDeleteExpenseReturnsConsumedStock(t *testing.T) {
	f := newExpenseFixture(t)
	item := f.inventoryRepo.addItem(1, "Screen assembly", 10, 2)
	created, err := f.svc.CreateExpense(1, f.ticket.ID, CreateExpenseRequest{
		InventoryItemID: &item.ID, Name: "Screen replacement", Quantity: 3, Price: 120,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteExpense(1, created.ID))

	reloaded, _ := f.inventoryRepo.GetItemByID(1, item.ID)
	assert.Equal(t, 10, reloaded.CurrentQuantity)
	assert.Empty(t, f.expenseRepo.expenses)

	// The consumption and the return are both in the audit trail.
	require.Len(t, f.inventoryRepo.movements, 2)
	assert.Equal(t, -3, f.inventoryRepo.movements[0].QuantityChanged)
	assert.Equal(t, 3, f.inventoryRepo.movements[1].QuantityChanged)
}

func TestDeleteUnlinkedExpenseLeavesInventoryAlone(t *testing.T) {
	f := newExpenseFixture(t)
	created, err := f.svc.CreateExpense(1, f.ticket.ID, CreateExpenseRequest{Name: "Courier fee", Quantity: 1, Price: 15})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteExpense(1, created.ID))
	assert.Empty(t, f.inventoryRepo.movements)
}

func TestExpenseAccessViaForeignStoreDenied(t *testing.T) {
	f := newExpenseFixture(t)
	created, err := f.svc.CreateExpense(1, f.ticket.ID, CreateExpenseRequest{Name: "Courier fee", Quantity: 1})
	require.NoError(t, err)

	// The expense exists, but the caller's store does not own its ticket.
	_, err = f.svc.UpdateExpense(2, created.ID, UpdateExpenseRequest{})
	require.ErrorIs(t, err, ErrExpenseNotFound)
	err = f.svc.DeleteExpense(2, created.ID)
	require.ErrorIs(t, err, ErrExpenseNotFound)
}
