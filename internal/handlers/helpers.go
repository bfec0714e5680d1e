package handlers

import (
	"net/http"
	"strconv"

	"repair_crm_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// storeIDFromContext reads the store ID placed in the gin context by
// the auth middleware. A missing value means the route was wired
// without authentication, which is a server bug, not a client error.
func storeIDFromContext(c *gin.Context) (int64, bool) {
	value, exists := c.Get("storeID")
	if !exists {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Store context missing.", "Authentication middleware did not run"))
		return 0, false
	}
	storeID, ok := value.(int64)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Store context invalid.", "Unexpected store ID type"))
		return 0, false
	}
	return storeID, true
}

// parseIDParam parses a path parameter as a positive int64 ID.
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid "+name+" parameter.", "Must be a positive integer"))
		return 0, false
	}
	return id, true
}

// parsePagination reads page/page_size query parameters with defaults.
func parsePagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20
	if pageStr := c.Query("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}
	if pageSizeStr := c.Query("page_size"); pageSizeStr != "" {
		if ps, err := strconv.Atoi(pageSizeStr); err == nil && ps > 0 {
			pageSize = ps
		}
	}
	return page, pageSize
}

// paginatedResponse is the standard list envelope.
func paginatedResponse(data interface{}, total, page, pageSize int) gin.H {
	return gin.H{
		"data":      data,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	}
}
