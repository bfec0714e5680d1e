package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"repair_crm_backend/internal/services"
	"repair_crm_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// WarrantyHandler holds the warranty service.
type WarrantyHandler struct {
	warrantyService services.WarrantyService
}

// NewWarrantyHandler creates a new WarrantyHandler.
func NewWarrantyHandler(ws services.WarrantyService) *WarrantyHandler {
	return &WarrantyHandler{warrantyService: ws}
}

// CreateWarranty handles manual warranty registration.
func (h *WarrantyHandler) CreateWarranty(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		return
	}

	var req services.CreateWarrantyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	warranty, err := h.warrantyService.CreateWarranty(storeID, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDuplicateWarranty):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeDuplicateWarranty, "A warranty already exists for this ticket.", err.Error()))
		case errors.Is(err, services.ErrTicketNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Repair ticket not found.", ""))
		case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrInvalidWarrantyType):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Warranty input invalid.", err.Error()))
		default:
			utils.LogError(err, "CreateWarranty: Error from warrantyService.CreateWarranty")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create warranty.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, warranty)
}

// GetWarranties handles fetching warranties with an optional status
// filter.
func (h *WarrantyHandler) GetWarranties(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		return
	}

	var status *string
	if statusStr := c.Query("status"); statusStr != "" {
		status = &statusStr
	}
	page, pageSize := parsePagination(c)

	warranties, total, err := h.warrantyService.GetWarranties(storeID, status, page, pageSize)
	if err != nil {
		if errors.Is(err, services.ErrInvalidWarrantyStatus) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid status filter.", err.Error()))
		} else {
			utils.LogError(err, "GetWarranties: Error from warrantyService.GetWarranties")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch warranties.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, paginatedResponse(warranties, total, page, pageSize))
}

// GetWarrantyByID handles fetching a single warranty with its claims.
func (h *WarrantyHandler) GetWarrantyByID(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		return
	}
	warrantyID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	warranty, err := h.warrantyService.GetWarrantyByID(storeID, warrantyID)
	if err != nil {
		if errors.Is(err, services.ErrWarrantyNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Warranty not found.", ""))
		} else {
			utils.LogError(err, "GetWarrantyByID: Error from warrantyService.GetWarrantyByID")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch warranty.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, warranty)
}

// GetWarrantyByTicket handles fetching the warranty for a ticket.
func (h *WarrantyHandler) GetWarrantyByTicket(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		return
	}
	ticketID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	warranty, err := h.warrantyService.GetWarrantyByTicketID(storeID, ticketID)
	if err != nil {
		if errors.Is(err, services.ErrWarrantyNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Warranty not found for this ticket.", ""))
		} else {
			utils.LogError(err, "GetWarrantyByTicket: Error from warrantyService.GetWarrantyByTicketID")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch warranty.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, warranty)
}

// GetWarrantiesByCustomer handles fetching a customer's warranties.
func (h *WarrantyHandler) GetWarrantiesByCustomer(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		return
	}
	customerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	warranties, err := h.warrantyService.GetWarrantiesByCustomerID(storeID, customerID)
	if err != nil {
		utils.LogError(err, "GetWarrantiesByCustomer: Error from warrantyService.GetWarrantiesByCustomerID")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch warranties.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, warranties)
}

// GetExpiringSoon handles listing active warranties expiring within
// the next N days (default 7).
func (h *WarrantyHandler) GetExpiringSoon(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		return
	}

	days := 7
	if daysStr := c.Query("days"); daysStr != "" {
		parsed, err := strconv.Atoi(daysStr)
		if err != nil || parsed <= 0 {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid days format.", "Must be a positive integer"))
			return
		}
		days = parsed
	}

	warranties, err := h.warrantyService.GetExpiringSoon(storeID, days)
	if err != nil {
		utils.LogError(err, "GetExpiringSoon: Error from warrantyService.GetExpiringSoon")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch expiring warranties.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, warranties)
}

// VoidWarranty handles voiding a warranty.
func (h *WarrantyHandler) VoidWarranty(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		return
	}
	warrantyID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	warranty, err := h.warrantyService.VoidWarranty(storeID, warrantyID)
	if err != nil {
		if errors.Is(err, services.ErrWarrantyNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Warranty not found.", ""))
		} else {
			utils.LogError(err, "VoidWarranty: Error from warrantyService.VoidWarranty")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to void warranty.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, warranty)
}

// CreateClaim handles filing a claim against an active warranty.
func (h *WarrantyHandler) CreateClaim(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		return
	}
	warrantyID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.CreateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	claim, err := h.warrantyService.CreateClaim(storeID, warrantyID, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrWarrantyNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Warranty not found.", ""))
		case errors.Is(err, services.ErrValidation):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Claim input invalid.", err.Error()))
		default:
			utils.LogError(err, "CreateClaim: Error from warrantyService.CreateClaim")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create warranty claim.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, claim)
}

// UpdateClaim handles editing a claim's status and resolution fields.
func (h *WarrantyHandler) UpdateClaim(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		return
	}
	warrantyID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	claimID, ok := parseIDParam(c, "claimId")
	if !ok {
		return
	}

	var req services.UpdateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	claim, err := h.warrantyService.UpdateClaim(storeID, warrantyID, claimID, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrWarrantyNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Warranty not found.", ""))
		case errors.Is(err, services.ErrClaimNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Warranty claim not found.", ""))
		case errors.Is(err, services.ErrTicketNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Follow-up ticket not found.", err.Error()))
		case errors.Is(err, services.ErrInvalidClaimStatus):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid claim status.", err.Error()))
		default:
			utils.LogError(err, "UpdateClaim: Error from warrantyService.UpdateClaim")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update warranty claim.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, claim)
}
