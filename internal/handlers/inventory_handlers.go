package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"repair_crm_backend/internal/models"
	"repair_crm_backend/internal/services"
	"repair_crm_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// InventoryHandler holds the inventory service.
type InventoryHandler struct {
	inventoryService services.InventoryService
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(is services.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: is}
}

// CreateItem handles creation of a new inventory item.
func (h *InventoryHandler) CreateItem(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		return
	}

	var req services.CreateInventoryItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	item, err := h.inventoryService.CreateItem(storeID, req)
	if err != nil {
		if errors.Is(err, services.ErrDuplicateSKU) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeDuplicateSKU, "An item with this SKU already exists.", err.Error()))
		} else if errors.Is(err, services.ErrValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Inventory item input invalid.", err.Error()))
		} else {
			utils.LogError(err, "CreateItem: Error from inventoryService.CreateItem")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create inventory item.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, item)
}

// GetItems handles fetching inventory items with filters.
func (h *InventoryHandler) GetItems(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		return
	}

	var filters models.InventoryFilters
	if category := c.Query("category"); category != "" {
		filters.Category = &category
	}
	if location := c.Query("location"); location != "" {
		filters.Location = &location
	}
	if search := c.Query("search"); search != "" {
		filters.Search = &search
	}
	filters.LowStock = c.Query("low_stock") == "true"
	filters.Page, filters.PageSize = parsePagination(c)

	items, total, err := h.inventoryService.GetItems(storeID, filters)
	if err != nil {
		utils.LogError(err, "GetItems: Error from inventoryService.GetItems")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch inventory items.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, paginatedResponse(items, total, filters.Page, filters.PageSize))
}

// GetItemByID handles fetching a single inventory item.
func (h *InventoryHandler) GetItemByID(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	item, err := h.inventoryService.GetItemByID(storeID, itemID)
	if err != nil {
		if errors.Is(err, services.ErrItemNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Inventory item not found.", ""))
		} else {
			utils.LogError(err, "GetItemByID: Error from inventoryService.GetItemByID")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch inventory item.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, item)
}

// UpdateItem handles editing an item's descriptive fields. Quantity is
// rejected here; clients must use the adjust endpoint.
func (h *InventoryHandler) UpdateItem(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateInventoryItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	item, err := h.inventoryService.UpdateItem(storeID, itemID, req)
	if err != nil {
		if errors.Is(err, services.ErrItemNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Inventory item not found.", ""))
		} else if errors.Is(err, services.ErrDuplicateSKU) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeDuplicateSKU, "An item with this SKU already exists.", err.Error()))
		} else if errors.Is(err, services.ErrValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Inventory item input invalid.", err.Error()))
		} else {
			utils.LogError(err, "UpdateItem: Error from inventoryService.UpdateItem")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update inventory item.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteItem handles deleting an inventory item.
func (h *InventoryHandler) DeleteItem(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.inventoryService.DeleteItem(storeID, itemID); err != nil {
		if errors.Is(err, services.ErrItemNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Inventory item not found.", ""))
		} else {
			utils.LogError(err, "DeleteItem: Error from inventoryService.DeleteItem")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to delete inventory item.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Inventory item deleted successfully"})
}

// AdjustQuantity handles a manual stock adjustment (restock, shrinkage
// correction). A delta that would drive the quantity below zero is
// rejected with 400.
func (h *InventoryHandler) AdjustQuantity(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.AdjustQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	if req.Delta == 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Adjustment delta cannot be zero.", ""))
		return
	}

	item, err := h.inventoryService.AdjustQuantity(storeID, itemID, req.Delta, req.Reason)
	if err != nil {
		if errors.Is(err, services.ErrItemNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Inventory item not found.", ""))
		} else if errors.Is(err, services.ErrInvalidQuantity) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeInvalidQuantity, "Adjustment would drive quantity below zero.", err.Error()))
		} else {
			utils.LogError(err, "AdjustQuantity: Error from inventoryService.AdjustQuantity")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to adjust inventory quantity.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, item)
}

// GetMovements handles fetching the stock movement audit trail,
// optionally filtered to one item.
func (h *InventoryHandler) GetMovements(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		return
	}

	var itemID *int64
	if itemIDStr := c.Query("item_id"); itemIDStr != "" {
		id, err := strconv.ParseInt(itemIDStr, 10, 64)
		if err != nil || id <= 0 {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid item_id format.", "Must be a positive integer"))
			return
		}
		itemID = &id
	}
	page, pageSize := parsePagination(c)

	movements, total, err := h.inventoryService.GetMovements(storeID, itemID, page, pageSize)
	if err != nil {
		utils.LogError(err, "GetMovements: Error from inventoryService.GetMovements")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch inventory movements.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, paginatedResponse(movements, total, page, pageSize))
}
