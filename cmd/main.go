package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"docgen"
	"docgen/internal/api/handler/endpoints"
	"docgen/internal/api/models"
	"docgen/internal/api/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
)

func main() {
	docgen.InitConfig(".env")
	gin.SetMode(gin.ReleaseMode)

	if docgen.DB != nil {
		if err := docgen.DB.AutoMigrate(&models.Batch{}, &models.BatchItem{}); err != nil {
			docgen.Logger.Fatal().Err(err).Msg("Failed to migrate database")
		}
		docgen.Logger.Info().Msg("Database migrated successfully")
	}
	if docgen.GetConfig().Mode == "dev" {
		gin.SetMode(gin.DebugMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	router, err := graceful.Default(graceful.WithAddr(docgen.GetConfig().ApiPort))
	if err != nil {
		panic(err)
	}
	defer stop()
	defer router.Close()

	// Nested template names are sent URL-encoded in a single path segment.
	router.UseRawPath = true

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	initAPI(router)

	docgen.Logger.Debug().Msgf("Starting docgen API on port %s", docgen.GetConfig().ApiPort)
	if err = router.RunWithContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		docgen.Logger.Fatal().Msg(err.Error())
		panic(err)
	}
}

func initAPI(router *graceful.Graceful) {
	cfg := docgen.GetConfig()
	documentService := service.NewDocumentService()

	endpoints.DocumentHandler(router, documentService, cfg)
	endpoints.BatchHandler(router, documentService, cfg)
}
