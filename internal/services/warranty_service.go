package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"repair_crm_backend/internal/models"
	"repair_crm_backend/internal/repositories"
	"repair_crm_backend/pkg/utils"
)

// --- Custom Service Errors ---
var (
	ErrWarrantyNotFound      = errors.New("warranty not found")
	ErrDuplicateWarranty     = errors.New("a warranty already exists for this ticket")
	ErrClaimNotFound         = errors.New("warranty claim not found")
	ErrInvalidWarrantyType   = errors.New("invalid warranty type")
	ErrInvalidWarrantyStatus = errors.New("invalid warranty status")
	ErrInvalidClaimStatus    = errors.New("invalid claim status")
)

// Warranty status constants. "expired" is derived lazily from the
// expiry date; "claimed" and "voided" are explicit terminal states.
const (
	WarrantyStatusActive  = "active"
	WarrantyStatusExpired = "expired"
	WarrantyStatusClaimed = "claimed"
	WarrantyStatusVoided  = "voided"
)

// Warranty coverage type constants.
const (
	WarrantyTypeParts = "parts"
	WarrantyTypeLabor = "labor"
	WarrantyTypeBoth  = "both"
)

// Warranty claim status constants.
const (
	ClaimStatusPending   = "pending"
	ClaimStatusApproved  = "approved"
	ClaimStatusRejected  = "rejected"
	ClaimStatusCompleted = "completed"
)

// --- Warranty DTOs ---

type CreateWarrantyRequest struct {
	TicketID           int64      `json:"ticket_id" binding:"required"`
	WarrantyPeriodDays int        `json:"warranty_period_days"`
	StartDate          *time.Time `json:"start_date"`
	WarrantyType       *string    `json:"warranty_type"`
	Terms              *string    `json:"terms"`
	Notes              *string    `json:"notes"`
}

type CreateClaimRequest struct {
	IssueDescription string     `json:"issue_description" binding:"required"`
	ClaimDate        *time.Time `json:"claim_date"`
}

type UpdateClaimRequest struct {
	Status           *string    `json:"status"`
	ResolutionNotes  *string    `json:"resolution_notes"`
	ResolutionDate   *time.Time `json:"resolution_date"`
	FollowUpTicketID *int64     `json:"follow_up_ticket_id"`
}

// --- WarrantyService Interface ---

// WarrantyService manages warranties and their claims. There is no
// background expiry job: every read path first reconciles the store's
// overdue active warranties to expired, so callers never observe an
// "active" warranty whose expiry date has passed.
type WarrantyService interface {
	CreateWarranty(storeID int64, req CreateWarrantyRequest) (*models.Warranty, error)
	GetWarrantyByID(storeID, warrantyID int64) (*models.Warranty, error)
	GetWarrantyByTicketID(storeID, ticketID int64) (*models.Warranty, error)
	GetWarrantiesByCustomerID(storeID, customerID int64) ([]models.Warranty, error)
	GetWarranties(storeID int64, status *string, page, pageSize int) ([]models.Warranty, int, error)
	GetExpiringSoon(storeID int64, days int) ([]models.Warranty, error)
	VoidWarranty(storeID, warrantyID int64) (*models.Warranty, error)
	CreateClaim(storeID, warrantyID int64, req CreateClaimRequest) (*models.WarrantyClaim, error)
	UpdateClaim(storeID, warrantyID, claimID int64, req UpdateClaimRequest) (*models.WarrantyClaim, error)
}

type warrantyService struct {
	warrantyRepo repositories.WarrantyRepository
	ticketRepo   repositories.TicketRepository
	db           *sql.DB
	now          func() time.Time
}

// NewWarrantyService creates a new instance of WarrantyService.
func NewWarrantyService(wr repositories.WarrantyRepository, tr repositories.TicketRepository, db *sql.DB) WarrantyService {
	return &warrantyService{
		warrantyRepo: wr,
		ticketRepo:   tr,
		db:           db,
		now:          time.Now,
	}
}

func isValidWarrantyType(warrantyType string) bool {
	switch warrantyType {
	case WarrantyTypeParts, WarrantyTypeLabor, WarrantyTypeBoth:
		return true
	default:
		return false
	}
}

func isValidWarrantyStatus(status string) bool {
	switch status {
	case WarrantyStatusActive, WarrantyStatusExpired, WarrantyStatusClaimed, WarrantyStatusVoided:
		return true
	default:
		return false
	}
}

func isValidClaimStatus(status string) bool {
	switch status {
	case ClaimStatusPending, ClaimStatusApproved, ClaimStatusRejected, ClaimStatusCompleted:
		return true
	default:
		return false
	}
}

// reconcileExpired flips the store's overdue active warranties to
// expired. Called at the top of every read path.
func (s *warrantyService) reconcileExpired(storeID int64) error {
	expired, err := s.warrantyRepo.ExpireOverdueWarranties(s.db, storeID, s.now())
	if err != nil {
		return fmt.Errorf("failed to reconcile expired warranties: %w", err)
	}
	if expired > 0 {
		utils.LogDebug("Reconciled overdue warranties", map[string]interface{}{
			"store_id": storeID,
			"expired":  expired,
		})
	}
	return nil
}

// CreateWarranty registers a warranty by hand, outside the automatic
// path that runs on ticket completion. A zero period falls back to
// nothing here; the caller must supply a positive one.
func (s *warrantyService) CreateWarranty(storeID int64, req CreateWarrantyRequest) (*models.Warranty, error) {
	if req.WarrantyPeriodDays <= 0 {
		return nil, fmt.Errorf("%w: warranty period must be positive", ErrValidation)
	}
	warrantyType := WarrantyTypeBoth
	if req.WarrantyType != nil {
		if !isValidWarrantyType(*req.WarrantyType) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidWarrantyType, *req.WarrantyType)
		}
		warrantyType = *req.WarrantyType
	}

	ticket, err := s.ticketRepo.GetTicketByID(storeID, req.TicketID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to resolve ticket for warranty: %w", err)
	}

	startDate := s.now()
	if req.StartDate != nil {
		startDate = *req.StartDate
	}

	warranty := &models.Warranty{
		TicketID:           ticket.ID,
		StoreID:            storeID,
		CustomerID:         ticket.CustomerID,
		WarrantyPeriodDays: req.WarrantyPeriodDays,
		StartDate:          startDate,
		ExpiryDate:         startDate.AddDate(0, 0, req.WarrantyPeriodDays),
		WarrantyType:       warrantyType,
		Status:             WarrantyStatusActive,
		Terms:              req.Terms,
		Notes:              req.Notes,
	}
	id, err := s.warrantyRepo.CreateWarranty(s.db, warranty)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrDuplicateWarranty
		}
		return nil, fmt.Errorf("failed to create warranty: %w", err)
	}
	return s.GetWarrantyByID(storeID, id)
}

func (s *warrantyService) GetWarrantyByID(storeID, warrantyID int64) (*models.Warranty, error) {
	if err := s.reconcileExpired(storeID); err != nil {
		return nil, err
	}
	warranty, err := s.warrantyRepo.GetWarrantyByID(storeID, warrantyID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrWarrantyNotFound
		}
		return nil, fmt.Errorf("failed to get warranty: %w", err)
	}
	claims, err := s.warrantyRepo.GetClaimsByWarrantyID(warrantyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get claims for warranty %d: %w", warrantyID, err)
	}
	warranty.Claims = claims
	return warranty, nil
}

func (s *warrantyService) GetWarrantyByTicketID(storeID, ticketID int64) (*models.Warranty, error) {
	if err := s.reconcileExpired(storeID); err != nil {
		return nil, err
	}
	warranty, err := s.warrantyRepo.GetWarrantyByTicketID(storeID, ticketID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrWarrantyNotFound
		}
		return nil, fmt.Errorf("failed to get warranty for ticket %d: %w", ticketID, err)
	}
	claims, err := s.warrantyRepo.GetClaimsByWarrantyID(warranty.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get claims for warranty %d: %w", warranty.ID, err)
	}
	warranty.Claims = claims
	return warranty, nil
}

func (s *warrantyService) GetWarrantiesByCustomerID(storeID, customerID int64) ([]models.Warranty, error) {
	if err := s.reconcileExpired(storeID); err != nil {
		return nil, err
	}
	warranties, err := s.warrantyRepo.GetWarrantiesByCustomerID(storeID, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get warranties for customer %d: %w", customerID, err)
	}
	return warranties, nil
}

func (s *warrantyService) GetWarranties(storeID int64, status *string, page, pageSize int) ([]models.Warranty, int, error) {
	if status != nil && *status != "" && !isValidWarrantyStatus(*status) {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidWarrantyStatus, *status)
	}
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if err := s.reconcileExpired(storeID); err != nil {
		return nil, 0, err
	}
	warranties, totalCount, err := s.warrantyRepo.GetWarranties(storeID, status, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get warranties: %w", err)
	}
	return warranties, totalCount, nil
}

// GetExpiringSoon lists active warranties whose expiry date falls
// within the next N days, soonest first.
func (s *warrantyService) GetExpiringSoon(storeID int64, days int) ([]models.Warranty, error) {
	if days <= 0 {
		days = 7
	}
	if err := s.reconcileExpired(storeID); err != nil {
		return nil, err
	}
	from := s.now()
	to := from.AddDate(0, 0, days)
	warranties, err := s.warrantyRepo.GetExpiringWarranties(storeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get expiring warranties: %w", err)
	}
	return warranties, nil
}

// VoidWarranty marks a warranty voided. Voiding is terminal and is
// permitted from any state, including expired.
func (s *warrantyService) VoidWarranty(storeID, warrantyID int64) (*models.Warranty, error) {
	if err := s.reconcileExpired(storeID); err != nil {
		return nil, err
	}
	if err := s.warrantyRepo.UpdateWarrantyStatus(s.db, storeID, warrantyID, WarrantyStatusVoided); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrWarrantyNotFound
		}
		return nil, fmt.Errorf("failed to void warranty: %w", err)
	}
	return s.GetWarrantyByID(storeID, warrantyID)
}

// CreateClaim files a claim against a warranty. The claim row is
// always recorded, whatever state the warranty is in after the lazy
// expiry reconciliation has run; only a currently active warranty is
// flipped to claimed, and the claim row and the flip commit together.
func (s *warrantyService) CreateClaim(storeID, warrantyID int64, req CreateClaimRequest) (*models.WarrantyClaim, error) {
	if strings.TrimSpace(req.IssueDescription) == "" {
		return nil, fmt.Errorf("%w: claim issue description cannot be empty", ErrValidation)
	}
	if err := s.reconcileExpired(storeID); err != nil {
		return nil, err
	}

	warranty, err := s.warrantyRepo.GetWarrantyByID(storeID, warrantyID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrWarrantyNotFound
		}
		return nil, fmt.Errorf("failed to get warranty for claim: %w", err)
	}

	claimDate := s.now()
	if req.ClaimDate != nil {
		claimDate = *req.ClaimDate
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	claim := &models.WarrantyClaim{
		WarrantyID:       warrantyID,
		IssueDescription: req.IssueDescription,
		ClaimDate:        claimDate,
		Status:           ClaimStatusPending,
	}
	if _, err := s.warrantyRepo.CreateClaim(tx, claim); err != nil {
		return nil, fmt.Errorf("failed to create warranty claim: %w", err)
	}
	if warranty.Status == WarrantyStatusActive {
		if err := s.warrantyRepo.UpdateWarrantyStatus(tx, storeID, warrantyID, WarrantyStatusClaimed); err != nil {
			return nil, fmt.Errorf("failed to mark warranty as claimed: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit warranty claim: %w", err)
	}
	return claim, nil
}

func (s *warrantyService) UpdateClaim(storeID, warrantyID, claimID int64, req UpdateClaimRequest) (*models.WarrantyClaim, error) {
	// Resolving the warranty first enforces store scoping for the claim.
	if _, err := s.warrantyRepo.GetWarrantyByID(storeID, warrantyID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrWarrantyNotFound
		}
		return nil, fmt.Errorf("failed to get warranty for claim update: %w", err)
	}

	claims, err := s.warrantyRepo.GetClaimsByWarrantyID(warrantyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get claims for warranty %d: %w", warrantyID, err)
	}
	var claim *models.WarrantyClaim
	for i := range claims {
		if claims[i].ID == claimID {
			claim = &claims[i]
			break
		}
	}
	if claim == nil {
		return nil, ErrClaimNotFound
	}

	if req.Status != nil {
		if !isValidClaimStatus(*req.Status) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidClaimStatus, *req.Status)
		}
		claim.Status = *req.Status
		if *req.Status == ClaimStatusCompleted && req.ResolutionDate == nil && claim.ResolutionDate == nil {
			completed := s.now()
			claim.ResolutionDate = &completed
		}
	}
	if req.ResolutionNotes != nil {
		claim.ResolutionNotes = req.ResolutionNotes
	}
	if req.ResolutionDate != nil {
		claim.ResolutionDate = req.ResolutionDate
	}
	if req.FollowUpTicketID != nil {
		if _, err := s.ticketRepo.GetTicketByID(storeID, *req.FollowUpTicketID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, ErrTicketNotFound
			}
			return nil, fmt.Errorf("failed to resolve follow-up ticket: %w", err)
		}
		claim.FollowUpTicketID = req.FollowUpTicketID
	}

	if err := s.warrantyRepo.UpdateClaim(s.db, claim); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrClaimNotFound
		}
		return nil, fmt.Errorf("failed to update warranty claim: %w", err)
	}
	return claim, nil
}
