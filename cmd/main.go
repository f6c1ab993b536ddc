package main

import (
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"sheets-catalog-connector/internal/catalog"
	"sheets-catalog-connector/internal/config"
	"sheets-catalog-connector/internal/database"
	"sheets-catalog-connector/internal/handlers"
	"sheets-catalog-connector/internal/middleware"
	"sheets-catalog-connector/internal/models"
	"sheets-catalog-connector/internal/repository"
	"sheets-catalog-connector/internal/services"
	"sheets-catalog-connector/internal/sheet"
)

func main() {
	cfg := config.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	db, err := database.Connect(cfg.DatabaseURL, cfg.Environment)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	if err := db.AutoMigrate(
		&models.ImportLock{},
		&models.TenantFolders{},
		&models.AppSettings{},
	); err != nil {
		logger.WithError(err).Warn("Failed to run database migrations")
	}

	settingsRepo := repository.NewSettingsRepository(db)
	catalogClient := catalog.NewHTTPClient(cfg.CatalogBaseURL, cfg.CatalogRateLimit, logger)
	store := sheet.NewHTTPStore(cfg.SheetsBaseURL, cfg.SheetWriteRetryDelay, logger)

	importService := services.NewImportService(cfg, catalogClient, store, settingsRepo, logger)
	exportService := services.NewExportService(cfg, catalogClient, store, settingsRepo, logger)
	validationService := services.NewValidationService(cfg, catalogClient, store, settingsRepo, logger)

	healthHandler := handlers.NewHealthHandler()
	sheetsHandler := handlers.NewSheetsHandler(importService, exportService, validationService)
	settingsHandler := handlers.NewSettingsHandler(settingsRepo)

	router := setupRouter(cfg, healthHandler, sheetsHandler, settingsHandler)

	logger.WithField("port", cfg.Port).Info("Starting sheets catalog connector")
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.WithError(err).Fatal("Failed to start server")
	}
}

func setupRouter(cfg *config.Config, healthHandler *handlers.HealthHandler, sheetsHandler *handlers.SheetsHandler, settingsHandler *handlers.SettingsHandler) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())

	allowedOrigins := []string{"http://localhost:3000"}
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		allowedOrigins = strings.Split(origins, ",")
	}
	router.Use(middleware.CORS(allowedOrigins))
	router.Use(middleware.TenantMiddleware())

	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.RequireTenantID())
	{
		sheets := v1.Group("/catalog-sheets")
		{
			sheets.POST("/process", sheetsHandler.Process)
			sheets.POST("/clear", sheetsHandler.Clear)
			sheets.POST("/export", sheetsHandler.Export)
			sheets.POST("/validation", sheetsHandler.Validation)
			sheets.GET("/search-total", sheetsHandler.SearchTotal)
		}

		settings := v1.Group("/settings")
		{
			settings.GET("", settingsHandler.GetSettings)
			settings.PUT("", settingsHandler.SaveSettings)
			settings.GET("/folders", settingsHandler.GetFolders)
			settings.PUT("/folders", settingsHandler.SaveFolders)
		}
	}

	return router
}
