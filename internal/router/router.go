package router

import (
	"database/sql"

	"repair_crm_backend/internal/handlers"
	"repair_crm_backend/internal/middleware"
	"repair_crm_backend/internal/repositories"
	"repair_crm_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// Setup wires repositories, services and handlers and registers all
// application routes under /api/v1.
func Setup(engine *gin.Engine, db *sql.DB) {
	// Repositories
	authRepo := repositories.NewAuthRepository(db)
	storeRepo := repositories.NewStoreRepository(db)
	customerRepo := repositories.NewCustomerRepository(db)
	inventoryRepo := repositories.NewInventoryRepository(db)
	ticketRepo := repositories.NewTicketRepository(db)
	expenseRepo := repositories.NewExpenseRepository(db)
	warrantyRepo := repositories.NewWarrantyRepository(db)

	// Services
	authService := services.NewAuthService(authRepo, storeRepo, db)
	storeService := services.NewStoreService(storeRepo, db)
	customerService := services.NewCustomerService(customerRepo, db)
	inventoryService := services.NewInventoryService(inventoryRepo, db)
	expenseService := services.NewExpenseService(expenseRepo, ticketRepo, inventoryRepo, inventoryService, db)
	ticketService := services.NewTicketService(ticketRepo, expenseRepo, warrantyRepo, storeRepo, customerRepo, db)
	warrantyService := services.NewWarrantyService(warrantyRepo, ticketRepo, db)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	storeHandler := handlers.NewStoreHandler(storeService)
	customerHandler := handlers.NewCustomerHandler(customerService)
	inventoryHandler := handlers.NewInventoryHandler(inventoryService)
	ticketHandler := handlers.NewTicketHandler(ticketService, expenseService)
	warrantyHandler := handlers.NewWarrantyHandler(warrantyService)

	apiV1 := engine.Group("/api/v1")

	// Public authentication routes
	SetupPublicAuthRoutes(apiV1.Group("/auth"), authHandler)

	// Authenticated routes
	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), authHandler)
		SetupStoreRoutes(authenticated, storeHandler)
		SetupCustomerRoutes(authenticated, customerHandler)
		SetupInventoryRoutes(authenticated, inventoryHandler)
		SetupTicketRoutes(authenticated, ticketHandler)
		SetupWarrantyRoutes(authenticated, warrantyHandler)
	}
}
