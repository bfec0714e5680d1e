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
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrDuplicateCustomer = errors.New("a customer with this phone number already exists in this store")
)

// --- Customer DTOs ---

type CreateCustomerRequest struct {
	FullName    string  `json:"full_name" binding:"required"`
	PhoneNumber string  `json:"phone_number" binding:"required"`
	Email       *string `json:"email"`
	Address     *string `json:"address"`
	Notes       *string `json:"notes"`
}

type UpdateCustomerRequest struct {
	FullName    *string `json:"full_name"`
	PhoneNumber *string `json:"phone_number"`
	Email       *string `json:"email"`
	Address     *string `json:"address"`
	Notes       *string `json:"notes"`
}

// --- CustomerService Interface ---

// CustomerService defines the interface for customer business logic.
type CustomerService interface {
	CreateCustomer(storeID int64, req CreateCustomerRequest) (*models.Customer, error)
	GetCustomerByID(storeID, customerID int64) (*models.Customer, error)
	GetCustomerByPhoneNumber(storeID int64, phoneNumber string) (*models.Customer, error)
	GetCustomers(storeID int64, page, pageSize int, searchTerm *string) ([]models.Customer, int, error)
	UpdateCustomer(storeID, customerID int64, req UpdateCustomerRequest) (*models.Customer, error)
	DeleteCustomer(storeID, customerID int64) error
}

type customerService struct {
	customerRepo repositories.CustomerRepository
	db           *sql.DB
}

// NewCustomerService creates a new instance of CustomerService.
func NewCustomerService(repo repositories.CustomerRepository, db *sql.DB) CustomerService {
	return &customerService{customerRepo: repo, db: db}
}

func (s *customerService) CreateCustomer(storeID int64, req CreateCustomerRequest) (*models.Customer, error) {
	if strings.TrimSpace(req.FullName) == "" {
		return nil, fmt.Errorf("%w: customer name cannot be empty", ErrValidation)
	}
	if strings.TrimSpace(req.PhoneNumber) == "" {
		return nil, fmt.Errorf("%w: customer phone number cannot be empty", ErrValidation)
	}

	customer := &models.Customer{
		StoreID:     storeID,
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
		Address:     req.Address,
		Notes:       req.Notes,
	}
	id, err := s.customerRepo.CreateCustomer(s.db, customer)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrDuplicateCustomer
		}
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return s.customerRepo.GetCustomerByID(storeID, id)
}

func (s *customerService) GetCustomerByID(storeID, customerID int64) (*models.Customer, error) {
	customer, err := s.customerRepo.GetCustomerByID(storeID, customerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return customer, nil
}

func (s *customerService) GetCustomerByPhoneNumber(storeID int64, phoneNumber string) (*models.Customer, error) {
	customer, err := s.customerRepo.GetCustomerByPhoneNumber(storeID, phoneNumber)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer by phone number: %w", err)
	}
	return customer, nil
}

func (s *customerService) GetCustomers(storeID int64, page, pageSize int, searchTerm *string) ([]models.Customer, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	customers, totalCount, err := s.customerRepo.GetCustomers(storeID, page, pageSize, searchTerm)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get customers: %w", err)
	}
	return customers, totalCount, nil
}

func (s *customerService) UpdateCustomer(storeID, customerID int64, req UpdateCustomerRequest) (*models.Customer, error) {
	customer, err := s.customerRepo.GetCustomerByID(storeID, customerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to find customer for update: %w", err)
	}

	if req.FullName != nil {
		if strings.TrimSpace(*req.FullName) == "" {
			return nil, fmt.Errorf("%w: customer name cannot be empty if provided", ErrValidation)
		}
		customer.FullName = *req.FullName
	}
	if req.PhoneNumber != nil {
		if strings.TrimSpace(*req.PhoneNumber) == "" {
			return nil, fmt.Errorf("%w: customer phone number cannot be empty if provided", ErrValidation)
		}
		customer.PhoneNumber = *req.PhoneNumber
	}
	if req.Email != nil {
		customer.Email = req.Email
	}
	if req.Address != nil {
		customer.Address = req.Address
	}
	if req.Notes != nil {
		customer.Notes = req.Notes
	}

	if err := s.customerRepo.UpdateCustomer(s.db, customer); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrDuplicateCustomer
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	return s.customerRepo.GetCustomerByID(storeID, customerID)
}

func (s *customerService) DeleteCustomer(storeID, customerID int64) error {
	if err := s.customerRepo.DeleteCustomer(s.db, storeID, customerID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrCustomerNotFound
		}
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	return nil
}
