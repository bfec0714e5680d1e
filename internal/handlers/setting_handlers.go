package handlers

import (
	"errors"
	"net/http"

	"repair_crm_backend/internal/services"
	"repair_crm_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// StoreHandler holds the store service.
type StoreHandler struct {
	storeService services.StoreService
}

// NewStoreHandler creates a new StoreHandler.
func NewStoreHandler(ss services.StoreService) *StoreHandler {
	return &StoreHandler{storeService: ss}
}

// GetStore returns the authenticated user's store.
func (h *StoreHandler) GetStore(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		return
	}

	store, err := h.storeService.GetStore(storeID)
	if err != nil {
		if errors.Is(err, services.ErrStoreNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Store not found.", ""))
		} else {
			utils.LogError(err, "GetStore: Error from storeService.GetStore")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch store.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, store)
}

// GetSettings lists the store's settings.
func (h *StoreHandler) GetSettings(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		return
	}

	settings, err := h.storeService.GetSettings(storeID)
	if err != nil {
		utils.LogError(err, "GetSettings: Error from storeService.GetSettings")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch store settings.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, settings)
}

// GetSetting fetches one setting by key.
func (h *StoreHandler) GetSetting(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		return
	}
	key := c.Param("key")

	setting, err := h.storeService.GetSetting(storeID, key)
	if err != nil {
		if errors.Is(err, services.ErrSettingNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Store setting not found.", ""))
		} else {
			utils.LogError(err, "GetSetting: Error from storeService.GetSetting")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch store setting.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, setting)
}

// UpsertSetting creates or replaces a setting value.
func (h *StoreHandler) UpsertSetting(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		return
	}
	key := c.Param("key")

	var req services.UpsertSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	setting, err := h.storeService.UpsertSetting(storeID, key, req)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Setting input invalid.", err.Error()))
		} else {
			utils.LogError(err, "UpsertSetting: Error from storeService.UpsertSetting")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to save store setting.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, setting)
}

// DeleteSetting removes a setting by key.
func (h *StoreHandler) DeleteSetting(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		return
	}
	key := c.Param("key")

	if err := h.storeService.DeleteSetting(storeID, key); err != nil {
		if errors.Is(err, services.ErrSettingNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Store setting not found.", ""))
		} else {
			utils.LogError(err, "DeleteSetting: Error from storeService.DeleteSetting")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to delete store setting.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Store setting deleted successfully"})
}
