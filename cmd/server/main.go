package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"savora-system/config"
	"savora-system/internal/database"
	"savora-system/internal/events"
	"savora-system/internal/gateway/handlers"
	"savora-system/internal/gateway/middleware"
	"savora-system/internal/services/catalog"
	"savora-system/internal/services/inventory"
	"savora-system/internal/services/order"
	"savora-system/internal/services/table"
	"savora-system/internal/utils"
)

func main() {
	cfg := config.LoadConfig()
	utils.SetSecret(cfg.Auth.JWTSecret)

	db, err := database.NewConnection(cfg.DB.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	redisClient := config.NewRedisClient(cfg.Redis)
	publisher := events.NewRedisPublisher(redisClient)

	orderService := order.NewService(db, publisher, cfg.Order)
	inventoryService := inventory.NewService(db, publisher)
	catalogService := catalog.NewService(db, redisClient)
	tableService := table.NewService(db)

	orderHandler := handlers.NewOrderHTTPHandler(orderService)
	inventoryHandler := handlers.NewInventoryHTTPHandler(inventoryService)
	catalogHandler := handlers.NewCatalogHTTPHandler(catalogService)
	tableHandler := handlers.NewTableHTTPHandler(tableService)

	r := gin.Default()

	r.Use(middleware.CORS())
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit("60-M"))

	protected := r.Group("/api/v1")
	protected.Use(middleware.JWTAuth())
	{
		orders := protected.Group("/orders")
		{
			orders.POST("", orderHandler.Create)
			orders.GET("", orderHandler.List)
			orders.GET("/:id", orderHandler.Get)
			orders.PATCH("/:id/status", orderHandler.UpdateStatus)
			orders.POST("/:id/payment", orderHandler.ProcessPayment)
		}

		menuItems := protected.Group("/menu-items")
		{
			menuItems.POST("", catalogHandler.Create)
			menuItems.GET("", catalogHandler.List)
			menuItems.GET("/:id", catalogHandler.Get)
			menuItems.PUT("/:id", catalogHandler.Update)
		}

		tables := protected.Group("/tables")
		{
			tables.POST("", tableHandler.Create)
			tables.GET("", tableHandler.List)
			tables.GET("/:id", tableHandler.Get)
			tables.PATCH("/:id/status", tableHandler.UpdateStatus)
		}

		inventoryGroup := protected.Group("/inventory")
		{
			inventoryGroup.POST("/transactions", inventoryHandler.RecordTransaction)
			inventoryGroup.GET("/transactions", inventoryHandler.ListTransactions)
			inventoryGroup.POST("/materials", inventoryHandler.CreateMaterial)
			inventoryGroup.GET("/materials", inventoryHandler.ListMaterials)
			inventoryGroup.GET("/materials/:id", inventoryHandler.GetMaterial)
			inventoryGroup.PUT("/materials/:id", inventoryHandler.UpdateMaterial)
			inventoryGroup.GET("/alerts", inventoryHandler.ListAlerts)
			inventoryGroup.POST("/alerts/:id/resolve", inventoryHandler.ResolveAlert)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"message":   "Server is running",
			"timestamp": time.Now(),
		})
	})

	port := ":" + cfg.Server.Port
	log.Printf("Starting server on port %s", port)
	if err := r.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
