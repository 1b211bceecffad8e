package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/brandforge/brandforge-backend/internal/handlers"
)

type RouterConfig struct {
	BrandHandler      *handlers.BrandHandler
	RepositoryHandler *handlers.RepositoryHandler
	ReviewHandler     *handlers.ReviewHandler
	AllowOrigins      []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		// Brands
		api.POST("/brands", cfg.BrandHandler.Create)
		api.GET("/brands/:brandId", cfg.BrandHandler.Get)

		// Pipeline
		api.POST("/brands/:brandId/ingest", cfg.RepositoryHandler.Ingest)
		api.POST("/brands/:brandId/query", cfg.RepositoryHandler.QuerySimilar)
		api.POST("/brands/:brandId/usage", cfg.RepositoryHandler.MarkUsed)

		// Review
		api.POST("/chunks/:id/approve", cfg.ReviewHandler.Approve)
		api.POST("/chunks/:id/deprecate", cfg.ReviewHandler.Deprecate)
		api.POST("/chunks/:id/lock", cfg.ReviewHandler.Lock)
		api.POST("/chunks/:id/unlock", cfg.ReviewHandler.Unlock)
		api.DELETE("/chunks/:id", cfg.ReviewHandler.Delete)
		api.PATCH("/chunks/:id/classification", cfg.ReviewHandler.UpdateClassification)
		api.POST("/clusters/:id/canonical", cfg.ReviewHandler.SetCanonical)
		api.PATCH("/clusters/:id/summary", cfg.ReviewHandler.UpdateClusterSummary)

		// Conflicts
		api.GET("/brands/:brandId/conflicts", cfg.ReviewHandler.ListOpenConflicts)
		api.POST("/brands/:brandId/conflicts", cfg.ReviewHandler.ReportConflict)
		api.POST("/conflicts/:id/resolve", cfg.ReviewHandler.ResolveConflict)
	}

	return router
}
