package services

import (
	"testing"
	"time"

	"repair_crm_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ticketFixture struct {
	ticketRepo    *fakeTicketRepo
	expenseRepo   *fakeExpenseRepo
	warrantyRepo  *fakeWarrantyRepo
	storeRepo     *fakeStoreRepo
	customerRepo  *fakeCustomerRepo
	inventoryRepo *fakeInventoryRepo
	svc           *ticketService
	expenseSvc    ExpenseService
	customer      *models.Customer
	now           time.Time
}

func newTicketFixture(t *testing.T) *ticketFixture {
	t.Helper()
	ticketRepo := newFakeTicketRepo()
	expenseRepo := newFakeExpenseRepo()
	warrantyRepo := newFakeWarrantyRepo()
	storeRepo := newFakeStoreRepo()
	customerRepo := newFakeCustomerRepo()
	inventoryRepo := newFakeInventoryRepo()
	db := newStubDB(t)

	svc := NewTicketService(ticketRepo, expenseRepo, warrantyRepo, storeRepo, customerRepo, db).(*ticketService)
	fixedNow := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixedNow }

	inventorySvc := NewInventoryService(inventoryRepo, db)
	expenseSvc := NewExpenseService(expenseRepo, ticketRepo, inventoryRepo, inventorySvc, db)

	return &ticketFixture{
		ticketRepo:    ticketRepo,
		expenseRepo:   expenseRepo,
		warrantyRepo:  warrantyRepo,
		storeRepo:     storeRepo,
		customerRepo:  customerRepo,
		inventoryRepo: inventoryRepo,
		svc:           svc,
		expenseSvc:    expenseSvc,
		customer:      customerRepo.addCustomer(1, "Dana Smith"),
		now:           fixedNow,
	}
}

func strPtr(s string) *string { return &s }

func TestCreateTicketAlwaysStartsPending(t *testing.T) {
	f := newTicketFixture(t)

	ticket, err := f.svc.CreateTicket(1, CreateTicketRequest{
		CustomerID:       f.customer.ID,
		DeviceType:       "phone",
		IssueDescription: "cracked screen",
		Status:           strPtr(StatusCompleted),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, ticket.Status)
	assert.Equal(t, PriorityMedium, ticket.Priority)
}

func TestCreateTicketUnknownCustomer(t *testing.T) {
	f := newTicketFixture(t)

	_, err := f.svc.CreateTicket(1, CreateTicketRequest{
		CustomerID:       999,
		DeviceType:       "phone",
		IssueDescription: "cracked screen",
	})
	require.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestUpdateTicketAnyStatusTransitionAllowed(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.ticketRepo.addTicket(1, f.customer.ID, StatusPending)

	// Straight from pending to completed, no intermediate steps required.
	updated, err := f.svc.UpdateTicket(1, ticket.ID, UpdateTicketRequest{Status: strPtr(StatusCompleted)})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, updated.Status)

	// And back again.
	updated, err = f.svc.UpdateTicket(1, ticket.ID, UpdateTicketRequest{Status: strPtr(StatusWaitingParts)})
	require.NoError(t, err)
	assert.Equal(t, StatusWaitingParts, updated.Status)
}

func TestUpdateTicketRejectsUnknownStatus(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.ticketRepo.addTicket(1, f.customer.ID, StatusPending)

	_, err := f.svc.UpdateTicket(1, ticket.ID, UpdateTicketRequest{Status: strPtr("done")})
	require.ErrorIs(t, err, ErrInvalidTicketStatus)
}

func TestCompletionCreatesWarrantyWithDefaultPeriod(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.ticketRepo.addTicket(1, f.customer.ID, StatusInProgress)

	_, err := f.svc.UpdateTicket(1, ticket.ID, UpdateTicketRequest{Status: strPtr(StatusCompleted)})
	require.NoError(t, err)

	warranty, err := f.warrantyRepo.GetWarrantyByTicketID(1, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, WarrantyStatusActive, warranty.Status)
	assert.Equal(t, WarrantyTypeBoth, warranty.WarrantyType)
	assert.Equal(t, DefaultWarrantyPeriodDays, warranty.WarrantyPeriodDays)
	assert.Equal(t, f.now, warranty.StartDate)
	assert.Equal(t, f.now.AddDate(0, 0, DefaultWarrantyPeriodDays), warranty.ExpiryDate)
	assert.Equal(t, f.customer.ID, warranty.CustomerID)
}

func TestCompletionUsesStoreConfiguredPeriod(t *testing.T) {
	f := newTicketFixture(t)
	f.storeRepo.setSetting(1, SettingWarrantyPeriodDays, "90")
	ticket := f.ticketRepo.addTicket(1, f.customer.ID, StatusInProgress)

	_, err := f.svc.UpdateTicket(1, ticket.ID, UpdateTicketRequest{Status: strPtr(StatusCompleted)})
	require.NoError(t, err)

	warranty, err := f.warrantyRepo.GetWarrantyByTicketID(1, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, 90, warranty.WarrantyPeriodDays)
	assert.Equal(t, f.now.AddDate(0, 0, 90), warranty.ExpiryDate)
}

func TestCompletionFallsBackOnMalformedPeriodSetting(t *testing.T) {
	f := newTicketFixture(t)
	f.storeRepo.setSetting(1, SettingWarrantyPeriodDays, "ninety")
	ticket := f.ticketRepo.addTicket(1, f.customer.ID, StatusInProgress)

	_, err := f.svc.UpdateTicket(1, ticket.ID, UpdateTicketRequest{Status: strPtr(StatusCompleted)})
	require.NoError(t, err)

	warranty, err := f.warrantyRepo.GetWarrantyByTicketID(1, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, DefaultWarrantyPeriodDays, warranty.WarrantyPeriodDays)
}

func TestCompletionUsesSuppliedCompletionDate(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.ticketRepo.addTicket(1, f.customer.ID, StatusInProgress)

	completedOn := time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC)
	_, err := f.svc.UpdateTicket(1, ticket.ID, UpdateTicketRequest{
		Status:           strPtr(StatusCompleted),
		ActualCompletion: &completedOn,
	})
	require.NoError(t, err)

	// The warranty clock starts at the supplied completion date, not at
	// the moment the request was processed.
	warranty, err := f.warrantyRepo.GetWarrantyByTicketID(1, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, completedOn, warranty.StartDate)
	assert.Equal(t, completedOn.AddDate(0, 0, DefaultWarrantyPeriodDays), warranty.ExpiryDate)
}

func TestCompletionWarrantyIsCreatedOnlyOnce(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.ticketRepo.addTicket(1, f.customer.ID, StatusInProgress)

	_, err := f.svc.UpdateTicket(1, ticket.ID, UpdateTicketRequest{Status: strPtr(StatusCompleted)})
	require.NoError(t, err)

	// Reopen and complete again.
	_, err = f.svc.UpdateTicket(1, ticket.ID, UpdateTicketRequest{Status: strPtr(StatusInProgress)})
	require.NoError(t, err)
	_, err = f.svc.UpdateTicket(1, ticket.ID, UpdateTicketRequest{Status: strPtr(StatusCompleted)})
	require.NoError(t, err)

	assert.Len(t, f.warrantyRepo.warranties, 1)
}

func TestCompletionWithFieldEditsMergesBeforeWarranty(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.ticketRepo.addTicket(1, f.customer.ID, StatusInProgress)

	completedOn := time.Date(2025, 6, 12, 18, 0, 0, 0, time.UTC)
	actualCost := 250.0
	updated, err := f.svc.UpdateTicket(1, ticket.ID, UpdateTicketRequest{
		Status:           strPtr(StatusCompleted),
		ActualCost:       &actualCost,
		ActualCompletion: &completedOn,
		Notes:            strPtr("replaced battery"),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, updated.Status)
	require.NotNil(t, updated.ActualCost)
	assert.Equal(t, 250.0, *updated.ActualCost)

	warranty, err := f.warrantyRepo.GetWarrantyByTicketID(1, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, completedOn, warranty.StartDate)
}

func TestDeleteTicketRemovesExpensesButKeepsConsumption(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.ticketRepo.addTicket(1, f.customer.ID, StatusInProgress)
	item := f.inventoryRepo.addItem(1, "Battery", 10, 2)

	_, err := f.expenseSvc.CreateExpense(1, ticket.ID, CreateExpenseRequest{
		InventoryItemID: &item.ID, Name: "Battery swap", Quantity: 4, Price: 40,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteTicket(1, ticket.ID))

	// Ticket and its expense rows are gone.
	_, err = f.svc.GetTicketByID(1, ticket.ID)
	require.ErrorIs(t, err, ErrTicketNotFound)
	assert.Empty(t, f.expenseRepo.expenses)

	// Consumed stock stays consumed: only the original consumption
	// movement exists and the quantity still reflects it.
	reloaded, _ := f.inventoryRepo.GetItemByID(1, item.ID)
	assert.Equal(t, 6, reloaded.CurrentQuantity)
	require.Len(t, f.inventoryRepo.movements, 1)
	assert.Equal(t, -4, f.inventoryRepo.movements[0].QuantityChanged)
}

func TestDeleteTicketCrossStoreHidden(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.ticketRepo.addTicket(2, f.customer.ID, StatusPending)

	err := f.svc.DeleteTicket(1, ticket.ID)
	require.ErrorIs(t, err, ErrTicketNotFound)
}

func TestGetTicketIncludesExpenses(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.ticketRepo.addTicket(1, f.customer.ID, StatusInProgress)
	_, err := f.expenseSvc.CreateExpense(1, ticket.ID, CreateExpenseRequest{Name: "Diagnostics", Quantity: 1, Price: 25})
	require.NoError(t, err)

	loaded, err := f.svc.GetTicketByID(1, ticket.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Expenses, 1)
	assert.Equal(t, "Diagnostics", loaded.Expenses[0].Name)
}
