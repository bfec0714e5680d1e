package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"repair_crm_backend/internal/models"
	"repair_crm_backend/internal/services"
	"repair_crm_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// TicketHandler holds the ticket and expense services.
type TicketHandler struct {
	ticketService  services.TicketService
	expenseService services.ExpenseService
}

// NewTicketHandler creates a new TicketHandler.
func NewTicketHandler(ts services.TicketService, es services.ExpenseService) *TicketHandler {
	return &TicketHandler{ticketService: ts, expenseService: es}
}

// CreateTicket handles creation of a new repair ticket. The ticket
// always starts in pending regardless of any status in the payload.
func (h *TicketHandler) CreateTicket(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		return
	}

	var req services.CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	ticket, err := h.ticketService.CreateTicket(storeID, req)
	if err != nil {
		if errors.Is(err, services.ErrCustomerNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Customer not found.", err.Error()))
		} else if errors.Is(err, services.ErrValidation) || errors.Is(err, services.ErrInvalidTicketPriority) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Ticket input invalid.", err.Error()))
		} else {
			utils.LogError(err, "CreateTicket: Error from ticketService.CreateTicket")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create repair ticket.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, ticket)
}

// GetTickets handles fetching repair tickets with filters.
func (h *TicketHandler) GetTickets(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		return
	}

	var filters models.TicketFilters
	if status := c.Query("status"); status != "" {
		filters.Status = &status
	}
	if priority := c.Query("priority"); priority != "" {
		filters.Priority = &priority
	}
	if customerIDStr := c.Query("customer_id"); customerIDStr != "" {
		customerID, err := strconv.ParseInt(customerIDStr, 10, 64)
		if err != nil || customerID <= 0 {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid customer_id format.", "Must be a positive integer"))
			return
		}
		filters.CustomerID = &customerID
	}
	if search := c.Query("search"); search != "" {
		filters.Search = &search
	}
	filters.Page, filters.PageSize = parsePagination(c)

	tickets, total, err := h.ticketService.GetTickets(storeID, filters)
	if err != nil {
		if errors.Is(err, services.ErrInvalidTicketStatus) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid status filter.", err.Error()))
		} else {
			utils.LogError(err, "GetTickets: Error from ticketService.GetTickets")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch repair tickets.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, paginatedResponse(tickets, total, filters.Page, filters.PageSize))
}

// GetTicketByID handles fetching a single ticket with its expenses and
// images.
func (h *TicketHandler) GetTicketByID(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		return
	}
	ticketID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ticket, err := h.ticketService.GetTicketByID(storeID, ticketID)
	if err != nil {
		if errors.Is(err, services.ErrTicketNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Repair ticket not found.", ""))
		} else {
			utils.LogError(err, "GetTicketByID: Error from ticketService.GetTicketByID")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch repair ticket.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// UpdateTicket handles field edits and status changes. Completing a
// ticket creates its warranty as a side effect.
func (h *TicketHandler) UpdateTicket(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		return
	}
	ticketID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	ticket, err := h.ticketService.UpdateTicket(storeID, ticketID, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTicketNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Repair ticket not found.", ""))
		case errors.Is(err, services.ErrCustomerNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Customer not found.", err.Error()))
		case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrInvalidTicketStatus), errors.Is(err, services.ErrInvalidTicketPriority):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Ticket update input invalid.", err.Error()))
		default:
			utils.LogError(err, "UpdateTicket: Error from ticketService.UpdateTicket")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update repair ticket.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// DeleteTicket handles deleting a ticket and its dependent records.
func (h *TicketHandler) DeleteTicket(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		return
	}
	ticketID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.ticketService.DeleteTicket(storeID, ticketID); err != nil {
		if errors.Is(err, services.ErrTicketNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Repair ticket not found.", ""))
		} else {
			utils.LogError(err, "DeleteTicket: Error from ticketService.DeleteTicket")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to delete repair ticket.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Repair ticket deleted successfully"})
}

// AddImage handles attaching image metadata to a ticket.
func (h *TicketHandler) AddImage(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		return
	}
	ticketID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.AddTicketImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	image, err := h.ticketService.AddTicketImage(storeID, ticketID, req)
	if err != nil {
		if errors.Is(err, services.ErrTicketNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Repair ticket not found.", ""))
		} else if errors.Is(err, services.ErrValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Image input invalid.", err.Error()))
		} else {
			utils.LogError(err, "AddImage: Error from ticketService.AddTicketImage")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to add ticket image.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, image)
}

// --- Nested expense endpoints ---

// CreateExpense adds an expense line to a ticket. Lines referencing an
// inventory item consume stock atomically with the line insert.
func (h *TicketHandler) CreateExpense(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		return
	}
	ticketID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	expense, err := h.expenseService.CreateExpense(storeID, ticketID, req)
	if err != nil {
		h.respondExpenseError(c, err, "CreateExpense")
		return
	}
	c.JSON(http.StatusCreated, expense)
}

// GetExpenses lists a ticket's expense lines.
func (h *TicketHandler) GetExpenses(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		return
	}
	ticketID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	expenses, err := h.expenseService.GetExpensesByTicket(storeID, ticketID)
	if err != nil {
		if errors.Is(err, services.ErrTicketNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Repair ticket not found.", ""))
		} else {
			utils.LogError(err, "GetExpenses: Error from expenseService.GetExpensesByTicket")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch ticket expenses.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, expenses)
}

// UpdateExpense edits an expense line, reconciling linked stock by the
// quantity delta.
func (h *TicketHandler) UpdateExpense(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		return
	}
	expenseID, ok := parseIDParam(c, "expenseId")
	if !ok {
		return
	}

	var req services.UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	expense, err := h.expenseService.UpdateExpense(storeID, expenseID, req)
	if err != nil {
		h.respondExpenseError(c, err, "UpdateExpense")
		return
	}
	c.JSON(http.StatusOK, expense)
}

// DeleteExpense removes an expense line, returning linked stock.
func (h *TicketHandler) DeleteExpense(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		return
	}
	expenseID, ok := parseIDParam(c, "expenseId")
	if !ok {
		return
	}

	if err := h.expenseService.DeleteExpense(storeID, expenseID); err != nil {
		h.respondExpenseError(c, err, "DeleteExpense")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Expense deleted successfully"})
}

// respondExpenseError maps expense service errors to API responses.
// Insufficient inventory carries the available/required quantities in
// the error details so the client can show a usable message.
func (h *TicketHandler) respondExpenseError(c *gin.Context, err error, operation string) {
	var insufficientErr *services.InsufficientInventoryError
	switch {
	case errors.As(err, &insufficientErr):
		details := fmt.Sprintf("item %q (ID %d): available %d, required %d",
			insufficientErr.ItemName, insufficientErr.ItemID, insufficientErr.Available, insufficientErr.Required)
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeInsufficientInventory, "Insufficient inventory for this expense.", details))
	case errors.Is(err, services.ErrInvalidQuantity):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeInvalidQuantity, "Adjustment would drive quantity below zero.", err.Error()))
	case errors.Is(err, services.ErrTicketNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Repair ticket not found.", ""))
	case errors.Is(err, services.ErrExpenseNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Expense not found.", ""))
	case errors.Is(err, services.ErrItemNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Inventory item not found.", err.Error()))
	case errors.Is(err, services.ErrValidation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Expense input invalid.", err.Error()))
	default:
		utils.LogError(err, operation+": Error from expenseService")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to process expense.", "Internal error"))
	}
}
