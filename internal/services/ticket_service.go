package services

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"repair_crm_backend/internal/models"
	"repair_crm_backend/internal/repositories"
	"repair_crm_backend/pkg/utils"
)

// --- Custom Service Errors ---
var (
	ErrTicketNotFound        = errors.New("repair ticket not found")
	ErrInvalidTicketStatus   = errors.New("invalid ticket status")
	ErrInvalidTicketPriority = errors.New("invalid ticket priority")
)

// Ticket status constants. Any status may transition to any other;
// entering StatusCompleted triggers warranty creation.
const (
	StatusPending      = "pending"
	StatusInProgress   = "in_progress"
	StatusWaitingParts = "waiting_parts"
	StatusCompleted    = "completed"
	StatusCancelled    = "cancelled"
)

// Ticket priority constants.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Store setting key and fallback for the warranty period applied at
// ticket completion.
const (
	SettingWarrantyPeriodDays = "warranty_period_days"
	DefaultWarrantyPeriodDays = 30
)

// --- Ticket DTOs ---

type CreateTicketRequest struct {
	CustomerID          int64      `json:"customer_id" binding:"required"`
	DeviceType          string     `json:"device_type" binding:"required"`
	DeviceBrand         *string    `json:"device_brand"`
	DeviceModel         *string    `json:"device_model"`
	SerialNumber        *string    `json:"serial_number"`
	IssueDescription    string     `json:"issue_description" binding:"required"`
	Status              *string    `json:"status"` // Accepted but ignored: new tickets always start pending
	Priority            *string    `json:"priority"`
	EstimatedCost       *float64   `json:"estimated_cost"`
	EstimatedCompletion *time.Time `json:"estimated_completion"`
	Notes               *string    `json:"notes"`
}

type UpdateTicketRequest struct {
	CustomerID          *int64     `json:"customer_id"`
	DeviceType          *string    `json:"device_type"`
	DeviceBrand         *string    `json:"device_brand"`
	DeviceModel         *string    `json:"device_model"`
	SerialNumber        *string    `json:"serial_number"`
	IssueDescription    *string    `json:"issue_description"`
	Status              *string    `json:"status"`
	Priority            *string    `json:"priority"`
	EstimatedCost       *float64   `json:"estimated_cost"`
	ActualCost          *float64   `json:"actual_cost"`
	EstimatedCompletion *time.Time `json:"estimated_completion"`
	ActualCompletion    *time.Time `json:"actual_completion"`
	Notes               *string    `json:"notes"`
}

type AddTicketImageRequest struct {
	FilePath string  `json:"file_path" binding:"required"`
	Caption  *string `json:"caption"`
}

// --- TicketService Interface ---

// TicketService drives the repair ticket lifecycle. Field edits and
// status changes share one update call; a status change entering
// "completed" creates the ticket's warranty (at most once).
type TicketService interface {
	CreateTicket(storeID int64, req CreateTicketRequest) (*models.RepairTicket, error)
	GetTicketByID(storeID, ticketID int64) (*models.RepairTicket, error)
	GetTickets(storeID int64, filters models.TicketFilters) ([]models.RepairTicket, int, error)
	UpdateTicket(storeID, ticketID int64, req UpdateTicketRequest) (*models.RepairTicket, error)
	DeleteTicket(storeID, ticketID int64) error
	AddTicketImage(storeID, ticketID int64, req AddTicketImageRequest) (*models.TicketImage, error)
}

type ticketService struct {
	ticketRepo   repositories.TicketRepository
	expenseRepo  repositories.ExpenseRepository
	warrantyRepo repositories.WarrantyRepository
	storeRepo    repositories.StoreRepository
	customerRepo repositories.CustomerRepository
	db           *sql.DB
	now          func() time.Time
}

// NewTicketService creates a new instance of TicketService.
func NewTicketService(
	tr repositories.TicketRepository,
	er repositories.ExpenseRepository,
	wr repositories.WarrantyRepository,
	sr repositories.StoreRepository,
	cr repositories.CustomerRepository,
	db *sql.DB,
) TicketService {
	return &ticketService{
		ticketRepo:   tr,
		expenseRepo:  er,
		warrantyRepo: wr,
		storeRepo:    sr,
		customerRepo: cr,
		db:           db,
		now:          time.Now,
	}
}

func isValidTicketStatus(status string) bool {
	switch status {
	case StatusPending, StatusInProgress, StatusWaitingParts, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

func isValidTicketPriority(priority string) bool {
	switch priority {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

func (s *ticketService) CreateTicket(storeID int64, req CreateTicketRequest) (*models.RepairTicket, error) {
	if strings.TrimSpace(req.DeviceType) == "" {
		return nil, fmt.Errorf("%w: device type cannot be empty", ErrValidation)
	}
	if strings.TrimSpace(req.IssueDescription) == "" {
		return nil, fmt.Errorf("%w: issue description cannot be empty", ErrValidation)
	}

	if _, err := s.customerRepo.GetCustomerByID(storeID, req.CustomerID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to resolve customer for ticket: %w", err)
	}

	priority := PriorityMedium
	if req.Priority != nil {
		if !isValidTicketPriority(*req.Priority) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidTicketPriority, *req.Priority)
		}
		priority = *req.Priority
	}

	// A requested status is discarded: intake always starts pending.
	ticket := &models.RepairTicket{
		StoreID:             storeID,
		CustomerID:          req.CustomerID,
		DeviceType:          req.DeviceType,
		DeviceBrand:         req.DeviceBrand,
		DeviceModel:         req.DeviceModel,
		SerialNumber:        req.SerialNumber,
		IssueDescription:    req.IssueDescription,
		Status:              StatusPending,
		Priority:            priority,
		EstimatedCost:       req.EstimatedCost,
		EstimatedCompletion: req.EstimatedCompletion,
		Notes:               req.Notes,
	}

	id, err := s.ticketRepo.CreateTicket(s.db, ticket)
	if err != nil {
		return nil, fmt.Errorf("failed to create repair ticket: %w", err)
	}
	return s.GetTicketByID(storeID, id)
}

func (s *ticketService) GetTicketByID(storeID, ticketID int64) (*models.RepairTicket, error) {
	ticket, err := s.ticketRepo.GetTicketByID(storeID, ticketID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to get repair ticket: %w", err)
	}

	expenses, err := s.expenseRepo.GetExpensesByTicketID(ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get expenses for ticket %d: %w", ticketID, err)
	}
	ticket.Expenses = expenses

	images, err := s.ticketRepo.GetImagesByTicketID(ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get images for ticket %d: %w", ticketID, err)
	}
	ticket.Images = images

	return ticket, nil
}

func (s *ticketService) GetTickets(storeID int64, filters models.TicketFilters) ([]models.RepairTicket, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 20
	}
	if filters.Status != nil && *filters.Status != "" && !isValidTicketStatus(*filters.Status) {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidTicketStatus, *filters.Status)
	}
	tickets, totalCount, err := s.ticketRepo.GetTickets(storeID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get repair tickets: %w", err)
	}
	return tickets, totalCount, nil
}

// UpdateTicket applies field edits and an optional status change in
// one logical update. Field edits (including a supplied actual
// completion date) are merged before the completion side effect runs,
// so a combined "complete with date" update derives the warranty start
// from that date.
func (s *ticketService) UpdateTicket(storeID, ticketID int64, req UpdateTicketRequest) (*models.RepairTicket, error) {
	ticket, err := s.ticketRepo.GetTicketByID(storeID, ticketID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to find ticket for update: %w", err)
	}

	if req.Status != nil && !isValidTicketStatus(*req.Status) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTicketStatus, *req.Status)
	}
	if req.Priority != nil && !isValidTicketPriority(*req.Priority) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTicketPriority, *req.Priority)
	}

	if req.CustomerID != nil {
		if _, err := s.customerRepo.GetCustomerByID(storeID, *req.CustomerID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, ErrCustomerNotFound
			}
			return nil, fmt.Errorf("failed to resolve customer for ticket update: %w", err)
		}
		ticket.CustomerID = *req.CustomerID
	}
	if req.DeviceType != nil {
		if strings.TrimSpace(*req.DeviceType) == "" {
			return nil, fmt.Errorf("%w: device type cannot be empty if provided", ErrValidation)
		}
		ticket.DeviceType = *req.DeviceType
	}
	if req.DeviceBrand != nil {
		ticket.DeviceBrand = req.DeviceBrand
	}
	if req.DeviceModel != nil {
		ticket.DeviceModel = req.DeviceModel
	}
	if req.SerialNumber != nil {
		ticket.SerialNumber = req.SerialNumber
	}
	if req.IssueDescription != nil {
		if strings.TrimSpace(*req.IssueDescription) == "" {
			return nil, fmt.Errorf("%w: issue description cannot be empty if provided", ErrValidation)
		}
		ticket.IssueDescription = *req.IssueDescription
	}
	if req.Priority != nil {
		ticket.Priority = *req.Priority
	}
	if req.EstimatedCost != nil {
		ticket.EstimatedCost = req.EstimatedCost
	}
	if req.ActualCost != nil {
		ticket.ActualCost = req.ActualCost
	}
	if req.EstimatedCompletion != nil {
		ticket.EstimatedCompletion = req.EstimatedCompletion
	}
	if req.ActualCompletion != nil {
		ticket.ActualCompletion = req.ActualCompletion
	}
	if req.Notes != nil {
		ticket.Notes = req.Notes
	}

	enteringCompleted := req.Status != nil && *req.Status == StatusCompleted
	if req.Status != nil {
		ticket.Status = *req.Status
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.ticketRepo.UpdateTicket(tx, ticket); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to update repair ticket: %w", err)
	}

	if enteringCompleted {
		if err := s.ensureWarranty(tx, ticket); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit ticket update: %w", err)
	}
	return s.GetTicketByID(storeID, ticketID)
}

// ensureWarranty creates the ticket's warranty when none exists yet.
// Existence is checked by ticket-id lookup immediately before
// creation, so re-entering "completed" later never creates a second
// warranty; the unique constraint on ticket_id backstops a race.
func (s *ticketService) ensureWarranty(executor repositories.SQLExecutor, ticket *models.RepairTicket) error {
	_, err := s.warrantyRepo.GetWarrantyByTicketID(ticket.StoreID, ticket.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("failed to check for existing warranty: %w", err)
	}

	periodDays := s.warrantyPeriodDays(ticket.StoreID)
	startDate := s.now()
	if ticket.ActualCompletion != nil {
		startDate = *ticket.ActualCompletion
	}

	warranty := &models.Warranty{
		TicketID:           ticket.ID,
		StoreID:            ticket.StoreID,
		CustomerID:         ticket.CustomerID,
		WarrantyPeriodDays: periodDays,
		StartDate:          startDate,
		ExpiryDate:         startDate.AddDate(0, 0, periodDays),
		WarrantyType:       WarrantyTypeBoth,
		Status:             WarrantyStatusActive,
	}
	if _, err := s.warrantyRepo.CreateWarranty(executor, warranty); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil
		}
		return fmt.Errorf("failed to create warranty for completed ticket %d: %w", ticket.ID, err)
	}

	utils.LogInfo("Warranty created on ticket completion", map[string]interface{}{
		"ticket_id":   ticket.ID,
		"store_id":    ticket.StoreID,
		"period_days": periodDays,
	})
	return nil
}

// warrantyPeriodDays reads the store's configured period, falling back
// to the default when the setting is missing or malformed.
func (s *ticketService) warrantyPeriodDays(storeID int64) int {
	setting, err := s.storeRepo.GetSettingByKey(storeID, SettingWarrantyPeriodDays)
	if err != nil {
		return DefaultWarrantyPeriodDays
	}
	days, convErr := strconv.Atoi(strings.TrimSpace(setting.SettingValue))
	if convErr != nil || days <= 0 {
		return DefaultWarrantyPeriodDays
	}
	return days
}

// DeleteTicket removes the ticket with its images and expense rows.
// Inventory consumed by the ticket's expenses is NOT returned here,
// unlike single-expense deletion; stock reports reflect parts as used
// even after the ticket is gone.
func (s *ticketService) DeleteTicket(storeID, ticketID int64) error {
	if _, err := s.ticketRepo.GetTicketByID(storeID, ticketID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrTicketNotFound
		}
		return fmt.Errorf("failed to find ticket for deletion: %w", err)
	}

	images, err := s.ticketRepo.GetImagesByTicketID(ticketID)
	if err != nil {
		return fmt.Errorf("failed to list images for ticket deletion: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.ticketRepo.DeleteImagesByTicketID(tx, ticketID); err != nil {
		return fmt.Errorf("failed to delete ticket images: %w", err)
	}
	if err := s.expenseRepo.DeleteExpensesByTicketID(tx, ticketID); err != nil {
		return fmt.Errorf("failed to delete ticket expenses: %w", err)
	}
	if err := s.ticketRepo.DeleteTicket(tx, storeID, ticketID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrTicketNotFound
		}
		return fmt.Errorf("failed to delete repair ticket: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ticket deletion: %w", err)
	}

	// Stored blobs are removed after commit, best-effort.
	for _, image := range images {
		if removeErr := os.Remove(image.FilePath); removeErr != nil && !os.IsNotExist(removeErr) {
			utils.LogError(removeErr, "Failed to remove ticket image file")
		}
	}
	return nil
}

func (s *ticketService) AddTicketImage(storeID, ticketID int64, req AddTicketImageRequest) (*models.TicketImage, error) {
	if strings.TrimSpace(req.FilePath) == "" {
		return nil, fmt.Errorf("%w: image file path cannot be empty", ErrValidation)
	}
	if _, err := s.ticketRepo.GetTicketByID(storeID, ticketID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to resolve ticket for image: %w", err)
	}

	image := &models.TicketImage{
		TicketID: ticketID,
		FilePath: req.FilePath,
		Caption:  req.Caption,
	}
	if _, err := s.ticketRepo.CreateImage(s.db, image); err != nil {
		return nil, fmt.Errorf("failed to create ticket image: %w", err)
	}
	return image, nil
}
