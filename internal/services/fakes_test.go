package services

import (
	"strings"
	"time"

	"repair_crm_backend/internal/models"
	"repair_crm_backend/internal/repositories"
)

// In-memory repository fakes. They ignore the executor argument since
// they keep state in maps; tests that care about transaction
// boundaries assert on the observable outcomes instead.

type fakeInventoryRepo struct {
	items     map[int64]*models.InventoryItem
	movements []models.InventoryMovement
	nextID    int64
}

func newFakeInventoryRepo() *fakeInventoryRepo {
	return &fakeInventoryRepo{items: make(map[int64]*models.InventoryItem), nextID: 1}
}

func (f *fakeInventoryRepo) addItem(storeID int64, name string, quantity, minQuantity int) *models.InventoryItem {
	item := &models.InventoryItem{
		ID:              f.nextID,
		StoreID:         storeID,
		Name:            name,
		CurrentQuantity: quantity,
		MinQuantity:     minQuantity,
	}
	f.items[item.ID] = item
	f.nextID++
	return item
}

func (f *fakeInventoryRepo) CreateItem(_ repositories.SQLExecutor, item *models.InventoryItem) (int64, error) {
	if item.SKU != nil {
		for _, existing := range f.items {
			if existing.StoreID == item.StoreID && existing.SKU != nil && *existing.SKU == *item.SKU {
				return 0, repositories.ErrDuplicateKey
			}
		}
	}
	item.ID = f.nextID
	f.nextID++
	copied := *item
	f.items[item.ID] = &copied
	return item.ID, nil
}

func (f *fakeInventoryRepo) GetItemByID(storeID, itemID int64) (*models.InventoryItem, error) {
	item, ok := f.items[itemID]
	if !ok || item.StoreID != storeID {
		return nil, repositories.ErrNotFound
	}
	copied := *item
	return &copied, nil
}

func (f *fakeInventoryRepo) GetItemForUpdate(_ repositories.SQLExecutor, storeID, itemID int64) (*models.InventoryItem, error) {
	return f.GetItemByID(storeID, itemID)
}

func (f *fakeInventoryRepo) GetItems(storeID int64, filters models.InventoryFilters) ([]models.InventoryItem, int, error) {
	result := []models.InventoryItem{}
	for _, item := range f.items {
		if item.StoreID != storeID {
			continue
		}
		if filters.LowStock && !item.IsLowStock() {
			continue
		}
		if filters.Search != nil && !strings.Contains(strings.ToLower(item.Name), strings.ToLower(*filters.Search)) {
			continue
		}
		result = append(result, *item)
	}
	return result, len(result), nil
}

func (f *fakeInventoryRepo) UpdateItem(_ repositories.SQLExecutor, item *models.InventoryItem) error {
	existing, ok := f.items[item.ID]
	if !ok || existing.StoreID != item.StoreID {
		return repositories.ErrNotFound
	}
	quantity := existing.CurrentQuantity
	copied := *item
	copied.CurrentQuantity = quantity
	f.items[item.ID] = &copied
	return nil
}

func (f *fakeInventoryRepo) DeleteItem(_ repositories.SQLExecutor, storeID, itemID int64) error {
	item, ok := f.items[itemID]
	if !ok || item.StoreID != storeID {
		return repositories.ErrNotFound
	}
	delete(f.items, itemID)
	return nil
}

func (f *fakeInventoryRepo) SetQuantity(_ repositories.SQLExecutor, storeID, itemID int64, quantity int) error {
	item, ok := f.items[itemID]
	if !ok || item.StoreID != storeID {
		return repositories.ErrNotFound
	}
	item.CurrentQuantity = quantity
	return nil
}

func (f *fakeInventoryRepo) CreateMovement(_ repositories.SQLExecutor, movement *models.InventoryMovement) (int64, error) {
	movement.ID = int64(len(f.movements) + 1)
	movement.MovementDate = time.Now()
	f.movements = append(f.movements, *movement)
	return movement.ID, nil
}

func (f *fakeInventoryRepo) GetMovements(storeID int64, itemID *int64, page, pageSize int) ([]models.InventoryMovement, int, error) {
	result := []models.InventoryMovement{}
	for _, movement := range f.movements {
		if movement.StoreID != storeID {
			continue
		}
		if itemID != nil && movement.InventoryItemID != *itemID {
			continue
		}
		result = append(result, movement)
	}
	return result, len(result), nil
}

type fakeExpenseRepo struct {
	expenses map[int64]*models.TicketExpense
	nextID   int64
}

func newFakeExpenseRepo() *fakeExpenseRepo {
	return &fakeExpenseRepo{expenses: make(map[int64]*models.TicketExpense), nextID: 1}
}

func (f *fakeExpenseRepo) CreateExpense(_ repositories.SQLExecutor, expense *models.TicketExpense) (int64, error) {
	expense.ID = f.nextID
	f.nextID++
	copied := *expense
	f.expenses[expense.ID] = &copied
	return expense.ID, nil
}

func (f *fakeExpenseRepo) GetExpenseByID(expenseID int64) (*models.TicketExpense, error) {
	expense, ok := f.expenses[expenseID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *expense
	return &copied, nil
}

func (f *fakeExpenseRepo) GetExpensesByTicketID(ticketID int64) ([]models.TicketExpense, error) {
	result := []models.TicketExpense{}
	for _, expense := range f.expenses {
		if expense.TicketID == ticketID {
			result = append(result, *expense)
		}
	}
	return result, nil
}

func (f *fakeExpenseRepo) UpdateExpense(_ repositories.SQLExecutor, expense *models.TicketExpense) error {
	if _, ok := f.expenses[expense.ID]; !ok {
		return repositories.ErrNotFound
	}
	copied := *expense
	f.expenses[expense.ID] = &copied
	return nil
}

func (f *fakeExpenseRepo) DeleteExpense(_ repositories.SQLExecutor, expenseID int64) error {
	if _, ok := f.expenses[expenseID]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.expenses, expenseID)
	return nil
}

func (f *fakeExpenseRepo) DeleteExpensesByTicketID(_ repositories.SQLExecutor, ticketID int64) error {
	for id, expense := range f.expenses {
		if expense.TicketID == ticketID {
			delete(f.expenses, id)
		}
	}
	return nil
}

type fakeTicketRepo struct {
	tickets map[int64]*models.RepairTicket
	images  map[int64][]models.TicketImage
	nextID  int64
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{
		tickets: make(map[int64]*models.RepairTicket),
		images:  make(map[int64][]models.TicketImage),
		nextID:  1,
	}
}

func (f *fakeTicketRepo) addTicket(storeID, customerID int64, status string) *models.RepairTicket {
	ticket := &models.RepairTicket{
		ID:               f.nextID,
		StoreID:          storeID,
		CustomerID:       customerID,
		DeviceType:       "laptop",
		IssueDescription: "does not boot",
		Status:           status,
		Priority:         PriorityMedium,
	}
	f.tickets[ticket.ID] = ticket
	f.nextID++
	return ticket
}

func (f *fakeTicketRepo) CreateTicket(_ repositories.SQLExecutor, ticket *models.RepairTicket) (int64, error) {
	ticket.ID = f.nextID
	f.nextID++
	copied := *ticket
	f.tickets[ticket.ID] = &copied
	return ticket.ID, nil
}

func (f *fakeTicketRepo) GetTicketByID(storeID, ticketID int64) (*models.RepairTicket, error) {
	ticket, ok := f.tickets[ticketID]
	if !ok || ticket.StoreID != storeID {
		return nil, repositories.ErrNotFound
	}
	copied := *ticket
	return &copied, nil
}

func (f *fakeTicketRepo) GetTickets(storeID int64, filters models.TicketFilters) ([]models.RepairTicket, int, error) {
	result := []models.RepairTicket{}
	for _, ticket := range f.tickets {
		if ticket.StoreID != storeID {
			continue
		}
		if filters.Status != nil && *filters.Status != "" && ticket.Status != *filters.Status {
			continue
		}
		result = append(result, *ticket)
	}
	return result, len(result), nil
}

func (f *fakeTicketRepo) UpdateTicket(_ repositories.SQLExecutor, ticket *models.RepairTicket) error {
	existing, ok := f.tickets[ticket.ID]
	if !ok || existing.StoreID != ticket.StoreID {
		return repositories.ErrNotFound
	}
	copied := *ticket
	f.tickets[ticket.ID] = &copied
	return nil
}

func (f *fakeTicketRepo) DeleteTicket(_ repositories.SQLExecutor, storeID, ticketID int64) error {
	ticket, ok := f.tickets[ticketID]
	if !ok || ticket.StoreID != storeID {
		return repositories.ErrNotFound
	}
	delete(f.tickets, ticketID)
	return nil
}

func (f *fakeTicketRepo) GetImagesByTicketID(ticketID int64) ([]models.TicketImage, error) {
	return f.images[ticketID], nil
}

func (f *fakeTicketRepo) CreateImage(_ repositories.SQLExecutor, image *models.TicketImage) (int64, error) {
	image.ID = int64(len(f.images[image.TicketID]) + 1)
	f.images[image.TicketID] = append(f.images[image.TicketID], *image)
	return image.ID, nil
}

func (f *fakeTicketRepo) DeleteImagesByTicketID(_ repositories.SQLExecutor, ticketID int64) error {
	delete(f.images, ticketID)
	return nil
}

type fakeWarrantyRepo struct {
	warranties map[int64]*models.Warranty
	claims     map[int64][]models.WarrantyClaim
	nextID     int64
}

func newFakeWarrantyRepo() *fakeWarrantyRepo {
	return &fakeWarrantyRepo{
		warranties: make(map[int64]*models.Warranty),
		claims:     make(map[int64][]models.WarrantyClaim),
		nextID:     1,
	}
}

func (f *fakeWarrantyRepo) addWarranty(storeID, ticketID, customerID int64, status string, expiry time.Time) *models.Warranty {
	warranty := &models.Warranty{
		ID:                 f.nextID,
		TicketID:           ticketID,
		StoreID:            storeID,
		CustomerID:         customerID,
		WarrantyPeriodDays: 30,
		StartDate:          expiry.AddDate(0, 0, -30),
		ExpiryDate:         expiry,
		WarrantyType:       WarrantyTypeBoth,
		Status:             status,
	}
	f.warranties[warranty.ID] = warranty
	f.nextID++
	return warranty
}

func (f *fakeWarrantyRepo) CreateWarranty(_ repositories.SQLExecutor, warranty *models.Warranty) (int64, error) {
	for _, existing := range f.warranties {
		if existing.TicketID == warranty.TicketID {
			return 0, repositories.ErrDuplicateKey
		}
	}
	warranty.ID = f.nextID
	f.nextID++
	copied := *warranty
	f.warranties[warranty.ID] = &copied
	return warranty.ID, nil
}

func (f *fakeWarrantyRepo) GetWarrantyByID(storeID, warrantyID int64) (*models.Warranty, error) {
	warranty, ok := f.warranties[warrantyID]
	if !ok || warranty.StoreID != storeID {
		return nil, repositories.ErrNotFound
	}
	copied := *warranty
	return &copied, nil
}

func (f *fakeWarrantyRepo) GetWarrantyByTicketID(storeID, ticketID int64) (*models.Warranty, error) {
	for _, warranty := range f.warranties {
		if warranty.StoreID == storeID && warranty.TicketID == ticketID {
			copied := *warranty
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeWarrantyRepo) GetWarrantiesByCustomerID(storeID, customerID int64) ([]models.Warranty, error) {
	result := []models.Warranty{}
	for _, warranty := range f.warranties {
		if warranty.StoreID == storeID && warranty.CustomerID == customerID {
			result = append(result, *warranty)
		}
	}
	return result, nil
}

func (f *fakeWarrantyRepo) GetWarranties(storeID int64, status *string, page, pageSize int) ([]models.Warranty, int, error) {
	result := []models.Warranty{}
	for _, warranty := range f.warranties {
		if warranty.StoreID != storeID {
			continue
		}
		if status != nil && *status != "" && warranty.Status != *status {
			continue
		}
		result = append(result, *warranty)
	}
	return result, len(result), nil
}

func (f *fakeWarrantyRepo) GetExpiringWarranties(storeID int64, from, to time.Time) ([]models.Warranty, error) {
	result := []models.Warranty{}
	for _, warranty := range f.warranties {
		if warranty.StoreID != storeID || warranty.Status != WarrantyStatusActive {
			continue
		}
		if warranty.ExpiryDate.Before(from) || warranty.ExpiryDate.After(to) {
			continue
		}
		result = append(result, *warranty)
	}
	return result, nil
}

func (f *fakeWarrantyRepo) UpdateWarrantyStatus(_ repositories.SQLExecutor, storeID, warrantyID int64, status string) error {
	warranty, ok := f.warranties[warrantyID]
	if !ok || warranty.StoreID != storeID {
		return repositories.ErrNotFound
	}
	warranty.Status = status
	return nil
}

func (f *fakeWarrantyRepo) ExpireOverdueWarranties(_ repositories.SQLExecutor, storeID int64, asOf time.Time) (int64, error) {
	var expired int64
	for _, warranty := range f.warranties {
		if warranty.StoreID == storeID && warranty.Status == WarrantyStatusActive && warranty.ExpiryDate.Before(asOf) {
			warranty.Status = WarrantyStatusExpired
			expired++
		}
	}
	return expired, nil
}

func (f *fakeWarrantyRepo) CreateClaim(_ repositories.SQLExecutor, claim *models.WarrantyClaim) (int64, error) {
	claim.ID = int64(len(f.claims[claim.WarrantyID]) + 1)
	f.claims[claim.WarrantyID] = append(f.claims[claim.WarrantyID], *claim)
	return claim.ID, nil
}

func (f *fakeWarrantyRepo) GetClaimsByWarrantyID(warrantyID int64) ([]models.WarrantyClaim, error) {
	return f.claims[warrantyID], nil
}

func (f *fakeWarrantyRepo) UpdateClaim(_ repositories.SQLExecutor, claim *models.WarrantyClaim) error {
	claims := f.claims[claim.WarrantyID]
	for i := range claims {
		if claims[i].ID == claim.ID {
			claims[i] = *claim
			return nil
		}
	}
	return repositories.ErrNotFound
}

type fakeStoreRepo struct {
	stores   map[int64]*models.Store
	settings map[int64]map[string]*models.StoreSetting
}

func newFakeStoreRepo() *fakeStoreRepo {
	return &fakeStoreRepo{
		stores:   make(map[int64]*models.Store),
		settings: make(map[int64]map[string]*models.StoreSetting),
	}
}

func (f *fakeStoreRepo) setSetting(storeID int64, key, value string) {
	if f.settings[storeID] == nil {
		f.settings[storeID] = make(map[string]*models.StoreSetting)
	}
	f.settings[storeID][key] = &models.StoreSetting{StoreID: storeID, SettingKey: key, SettingValue: value}
}

func (f *fakeStoreRepo) GetStoreByID(storeID int64) (*models.Store, error) {
	store, ok := f.stores[storeID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return store, nil
}

func (f *fakeStoreRepo) GetSettings(storeID int64) ([]models.StoreSetting, error) {
	result := []models.StoreSetting{}
	for _, setting := range f.settings[storeID] {
		result = append(result, *setting)
	}
	return result, nil
}

func (f *fakeStoreRepo) GetSettingByKey(storeID int64, key string) (*models.StoreSetting, error) {
	setting, ok := f.settings[storeID][key]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *setting
	return &copied, nil
}

func (f *fakeStoreRepo) UpsertSetting(_ repositories.SQLExecutor, setting *models.StoreSetting) error {
	f.setSetting(setting.StoreID, setting.SettingKey, setting.SettingValue)
	return nil
}

func (f *fakeStoreRepo) DeleteSettingByKey(_ repositories.SQLExecutor, storeID int64, key string) error {
	if _, ok := f.settings[storeID][key]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.settings[storeID], key)
	return nil
}

type fakeAuthRepo struct {
	users  map[int64]*models.User
	nextID int64
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{users: make(map[int64]*models.User), nextID: 1}
}

func (f *fakeAuthRepo) CreateUser(_ repositories.SQLExecutor, user *models.User, hashedPassword string) (int64, error) {
	for _, existing := range f.users {
		if existing.Username == user.Username {
			return 0, repositories.ErrDuplicateKey
		}
	}
	copied := *user
	copied.ID = f.nextID
	copied.PasswordHash = hashedPassword
	copied.IsActive = true
	f.users[copied.ID] = &copied
	f.nextID++
	return copied.ID, nil
}

func (f *fakeAuthRepo) FindUserByUsername(username string) (*models.User, error) {
	for _, user := range f.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeAuthRepo) FindUserByID(userID int64) (*models.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

type fakeCustomerRepo struct {
	customers map[int64]*models.Customer
	nextID    int64
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{customers: make(map[int64]*models.Customer), nextID: 1}
}

func (f *fakeCustomerRepo) addCustomer(storeID int64, name string) *models.Customer {
	customer := &models.Customer{ID: f.nextID, StoreID: storeID, FullName: name, PhoneNumber: "+100000000"}
	f.customers[customer.ID] = customer
	f.nextID++
	return customer
}

func (f *fakeCustomerRepo) CreateCustomer(_ repositories.SQLExecutor, customer *models.Customer) (int64, error) {
	for _, existing := range f.customers {
		if existing.StoreID == customer.StoreID && existing.PhoneNumber == customer.PhoneNumber {
			return 0, repositories.ErrDuplicateKey
		}
	}
	customer.ID = f.nextID
	f.nextID++
	copied := *customer
	f.customers[customer.ID] = &copied
	return customer.ID, nil
}

func (f *fakeCustomerRepo) GetCustomerByID(storeID, customerID int64) (*models.Customer, error) {
	customer, ok := f.customers[customerID]
	if !ok || customer.StoreID != storeID {
		return nil, repositories.ErrNotFound
	}
	copied := *customer
	return &copied, nil
}

func (f *fakeCustomerRepo) GetCustomerByPhoneNumber(storeID int64, phoneNumber string) (*models.Customer, error) {
	for _, customer := range f.customers {
		if customer.StoreID == storeID && customer.PhoneNumber == phoneNumber {
			copied := *customer
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeCustomerRepo) GetCustomers(storeID int64, page, pageSize int, searchTerm *string) ([]models.Customer, int, error) {
	result := []models.Customer{}
	for _, customer := range f.customers {
		if customer.StoreID == storeID {
			result = append(result, *customer)
		}
	}
	return result, len(result), nil
}

func (f *fakeCustomerRepo) UpdateCustomer(_ repositories.SQLExecutor, customer *models.Customer) error {
	existing, ok := f.customers[customer.ID]
	if !ok || existing.StoreID != customer.StoreID {
		return repositories.ErrNotFound
	}
	copied := *customer
	f.customers[customer.ID] = &copied
	return nil
}

func (f *fakeCustomerRepo) DeleteCustomer(_ repositories.SQLExecutor, storeID, customerID int64) error {
	customer, ok := f.customers[customerID]
	if !ok || customer.StoreID != storeID {
		return repositories.ErrNotFound
	}
	delete(f.customers, customerID)
	return nil
}
