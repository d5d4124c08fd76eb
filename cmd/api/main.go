package main

import (
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "optipos/api/swagger" // swagger docs
	"optipos/internal/cache"
	"optipos/internal/config"
	"optipos/internal/database"
	"optipos/internal/handler"
	"optipos/internal/middleware"
	"optipos/internal/repository"
	"optipos/internal/service"
	"optipos/internal/websocket"
)

// @title           OptiPOS API
// @version         1.0
// @description     Backend for an optical shop: point of sale, inventory, patient records and purchase orders.
// @host            localhost:8080
// @BasePath        /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found, relying on environment variables")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg := config.Load()

	if cfg.JWT.Secret != "" {
		os.Setenv("JWT_SECRET", cfg.JWT.Secret)
	}
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewConnection(cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	log.Info().Str("host", cfg.Database.Host).Str("database", cfg.Database.Name).Msg("connected to MySQL")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Price list cache: Redis when configured, otherwise a no-op passthrough
	var priceCache cache.PriceListCache = cache.NoopPriceListCache{}
	if cfg.Redis.Enabled {
		priceCache = cache.NewRedisPriceListCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis price list cache enabled")
	}

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	productRepo := repository.NewProductRepository(db)
	patientRepo := repository.NewPatientRepository(db)
	checkupRepo := repository.NewCheckupRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	userService := service.NewUserService(userRepo, cfg.JWT.Expiry)
	supplierService := service.NewSupplierService(supplierRepo, auditRepo, txManager, wsHub)
	catalogService := service.NewCatalogService(catalogRepo, productRepo, auditRepo, txManager, priceCache, wsHub)
	patientService := service.NewPatientService(patientRepo, checkupRepo, auditRepo, txManager, wsHub)
	orderService := service.NewOrderService(orderRepo, productRepo, supplierRepo, auditRepo, txManager, wsHub)
	transactionService := service.NewTransactionService(transactionRepo, productRepo, patientRepo, auditRepo, txManager, wsHub)
	auditService := service.NewAuditService(auditRepo)

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	supplierHandler := handler.NewSupplierHandler(supplierService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	patientHandler := handler.NewPatientHandler(patientService)
	orderHandler := handler.NewOrderHandler(orderService)
	transactionHandler := handler.NewTransactionHandler(transactionService)
	auditHandler := handler.NewAuditHandler(auditService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORS.AllowedOrigins
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

	// Register API Routes
	api := router.Group("/api")
	userHandler.RegisterRoutes(api)
	supplierHandler.RegisterRoutes(api)
	catalogHandler.RegisterRoutes(api)
	patientHandler.RegisterRoutes(api)
	orderHandler.RegisterRoutes(api)
	transactionHandler.RegisterRoutes(api)
	auditHandler.RegisterRoutes(api)

	log.Info().Str("port", cfg.App.Port).Msg("server listening")
	if err := router.Run(":" + cfg.App.Port); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
