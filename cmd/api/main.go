package main

import (
	"context"
	"log"
	"os"

	_ "backend/api/swagger" // swagger docs
	"backend/internal/database"
	"backend/internal/handler"
	"backend/internal/middleware"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Credit Sales & Settlement API
// @version         1.0
// @description     Backend for credit-based ordering, billing cycles, and field payment collection.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "postgres"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	middleware.InitPermissionMiddleware(db)

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Repositories
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	billRepo := repository.NewBillRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	statsRepo := repository.NewStatisticsRepository(db)

	// Services
	ledgerService := service.NewLedgerService(customerRepo, productRepo)
	userService := service.NewUserService(userRepo)
	customerService := service.NewCustomerService(customerRepo, userRepo, auditRepo, txManager)
	catalogService := service.NewCatalogService(productRepo, auditRepo, txManager)
	orderService := service.NewOrderService(orderRepo, customerRepo, productRepo, userRepo, auditRepo, ledgerService, txManager, wsHub)
	billingService := service.NewBillingService(billRepo, orderRepo, customerRepo, auditRepo, ledgerService, txManager, wsHub)
	paymentService := service.NewPaymentService(paymentRepo, billRepo, customerRepo, userRepo, auditRepo, txManager, wsHub)
	walletService := service.NewWalletService(walletRepo, orderRepo, auditRepo, txManager)
	auditService := service.NewAuditService(auditRepo)
	roleService := service.NewRoleService(roleRepo, txManager)
	statisticsService := service.NewStatisticsService(statsRepo)

	// Seed built-in roles and their permission grants
	if err := roleService.SeedDefaultRolesAndPermissions(context.Background()); err != nil {
		log.Fatalf("Role seeding failed: %v", err)
	}

	// Handlers
	userHandler := handler.NewUserHandler(userService)
	customerHandler := handler.NewCustomerHandler(customerService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	orderHandler := handler.NewOrderHandler(orderService)
	billHandler := handler.NewBillHandler(billingService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	walletHandler := handler.NewWalletHandler(walletService)
	auditHandler := handler.NewAuditHandler(auditService)
	roleHandler := handler.NewRoleHandler(roleService)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// API Routing
	userHandler.RegisterRoutes(router.Group(""))
	customerHandler.RegisterRoutes(router.Group(""))
	catalogHandler.RegisterRoutes(router.Group(""))
	orderHandler.RegisterRoutes(router.Group(""))
	billHandler.RegisterRoutes(router.Group(""))
	paymentHandler.RegisterRoutes(router.Group(""))
	walletHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))
	roleHandler.RegisterRoutes(router.Group(""))
	statisticsHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
