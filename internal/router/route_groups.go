package router

import (
	"repair_crm_backend/internal/handlers"
	"repair_crm_backend/internal/middleware"
	"repair_crm_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// SetupPublicAuthRoutes registers routes reachable without a token.
func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/register", authHandler.Register)
	group.POST("/login", authHandler.Login)
	group.POST("/refresh-token", authHandler.RefreshToken)
}

// SetupAuthenticatedAuthRoutes registers auth routes requiring a token.
func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.GET("/me", authHandler.GetProfile)
}

// SetupStoreRoutes registers store metadata and settings routes.
// Settings writes are admin-only.
func SetupStoreRoutes(authenticatedGroup *gin.RouterGroup, storeHandler *handlers.StoreHandler) {
	storeRoutes := authenticatedGroup.Group("/store")
	{
		storeRoutes.GET("", storeHandler.GetStore)
		storeRoutes.GET("/settings", storeHandler.GetSettings)
		storeRoutes.GET("/settings/:key", storeHandler.GetSetting)
	}

	settingsWriteRoutes := authenticatedGroup.Group("/store/settings")
	settingsWriteRoutes.Use(middleware.RoleAuthMiddleware(services.RoleAdmin))
	{
		settingsWriteRoutes.PUT("/:key", storeHandler.UpsertSetting)
		settingsWriteRoutes.DELETE("/:key", storeHandler.DeleteSetting)
	}
}

// SetupCustomerRoutes registers the customer routes.
func SetupCustomerRoutes(authenticatedGroup *gin.RouterGroup, customerHandler *handlers.CustomerHandler) {
	customerRoutes := authenticatedGroup.Group("/customers")
	customerRoutes.Use(middleware.RoleAuthMiddleware(services.RoleAdmin, services.RoleTechnician))
	{
		customerRoutes.POST("", customerHandler.CreateCustomer)
		customerRoutes.GET("", customerHandler.GetCustomers)
		customerRoutes.GET("/:id", customerHandler.GetCustomerByID)
		customerRoutes.PUT("/:id", customerHandler.UpdateCustomer)
		customerRoutes.DELETE("/:id", customerHandler.DeleteCustomer)
	}
}

// SetupInventoryRoutes registers the inventory item, adjustment and
// movement audit routes. Item deletion is admin-only.
func SetupInventoryRoutes(authenticatedGroup *gin.RouterGroup, inventoryHandler *handlers.InventoryHandler) {
	inventoryRoutes := authenticatedGroup.Group("/inventory")
	inventoryRoutes.Use(middleware.RoleAuthMiddleware(services.RoleAdmin, services.RoleTechnician))
	{
		inventoryRoutes.POST("", inventoryHandler.CreateItem)
		inventoryRoutes.GET("", inventoryHandler.GetItems)
		inventoryRoutes.GET("/:id", inventoryHandler.GetItemByID)
		inventoryRoutes.PUT("/:id", inventoryHandler.UpdateItem)
		inventoryRoutes.POST("/:id/adjust", inventoryHandler.AdjustQuantity)
	}

	authenticatedGroup.DELETE("/inventory/:id", middleware.RoleAuthMiddleware(services.RoleAdmin), inventoryHandler.DeleteItem)
	authenticatedGroup.GET("/inventory-movements", middleware.RoleAuthMiddleware(services.RoleAdmin, services.RoleTechnician), inventoryHandler.GetMovements)
}

// SetupTicketRoutes registers repair ticket routes, including the
// nested expense and image routes.
func SetupTicketRoutes(authenticatedGroup *gin.RouterGroup, ticketHandler *handlers.TicketHandler) {
	ticketRoutes := authenticatedGroup.Group("/tickets")
	ticketRoutes.Use(middleware.RoleAuthMiddleware(services.RoleAdmin, services.RoleTechnician))
	{
		ticketRoutes.POST("", ticketHandler.CreateTicket)
		ticketRoutes.GET("", ticketHandler.GetTickets)
		ticketRoutes.GET("/:id", ticketHandler.GetTicketByID)
		ticketRoutes.PATCH("/:id", ticketHandler.UpdateTicket)
		ticketRoutes.POST("/:id/images", ticketHandler.AddImage)

		ticketRoutes.POST("/:id/expenses", ticketHandler.CreateExpense)
		ticketRoutes.GET("/:id/expenses", ticketHandler.GetExpenses)
	}

	authenticatedGroup.DELETE("/tickets/:id", middleware.RoleAuthMiddleware(services.RoleAdmin), ticketHandler.DeleteTicket)

	expenseRoutes := authenticatedGroup.Group("/expenses")
	expenseRoutes.Use(middleware.RoleAuthMiddleware(services.RoleAdmin, services.RoleTechnician))
	{
		expenseRoutes.PUT("/:expenseId", ticketHandler.UpdateExpense)
		expenseRoutes.DELETE("/:expenseId", ticketHandler.DeleteExpense)
	}
}

// SetupWarrantyRoutes registers warranty and claim routes. Voiding is
// admin-only.
func SetupWarrantyRoutes(authenticatedGroup *gin.RouterGroup, warrantyHandler *handlers.WarrantyHandler) {
	warrantyRoutes := authenticatedGroup.Group("/warranties")
	warrantyRoutes.Use(middleware.RoleAuthMiddleware(services.RoleAdmin, services.RoleTechnician))
	{
		warrantyRoutes.POST("", warrantyHandler.CreateWarranty)
		warrantyRoutes.GET("", warrantyHandler.GetWarranties)
		warrantyRoutes.GET("/expiring-soon", warrantyHandler.GetExpiringSoon)
		warrantyRoutes.GET("/:id", warrantyHandler.GetWarrantyByID)
		warrantyRoutes.POST("/:id/claims", warrantyHandler.CreateClaim)
		warrantyRoutes.PUT("/:id/claims/:claimId", warrantyHandler.UpdateClaim)
	}

	authenticatedGroup.POST("/warranties/:id/void", middleware.RoleAuthMiddleware(services.RoleAdmin), warrantyHandler.VoidWarranty)

	authenticatedGroup.GET("/tickets/:id/warranty", middleware.RoleAuthMiddleware(services.RoleAdmin, services.RoleTechnician), warrantyHandler.GetWarrantyByTicket)
	authenticatedGroup.GET("/customers/:id/warranties", middleware.RoleAuthMiddleware(services.RoleAdmin, services.RoleTechnician), warrantyHandler.GetWarrantiesByCustomer)
}
