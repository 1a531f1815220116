package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/relaw/case-intake/internal/config"
	"github.com/relaw/case-intake/internal/docgen"
	"github.com/relaw/case-intake/internal/pipeline"
	"github.com/relaw/case-intake/internal/reconstruct"
	"github.com/relaw/case-intake/internal/taxonomy"
	"github.com/relaw/case-intake/pkg/logger"
)

// SetupRoutes configures all application routes
func SetupRoutes(router *gin.Engine, db *gorm.DB, coordinator *pipeline.Coordinator, recon *reconstruct.Reconstructor, taxonomyStore *taxonomy.Store, documents *docgen.Service, log *logger.Logger, cfg *config.Config) {
	h := NewHandlers(db, coordinator, recon, taxonomyStore, documents, log, cfg)

	api := router.Group("/api")
	{
		// Health check
		api.GET("/health", h.HealthCheck)

		// Intake pipeline
		api.POST("/intake", h.SubmitIntake)

		// Case endpoints
		api.GET("/cases", h.ListCases)
		api.GET("/cases/:id", h.GetCase)
		api.POST("/cases/:id/rerun", h.RerunPipeline)
		api.GET("/cases/:id/document", h.GetCaseDocument)
		api.POST("/cases/:id/generate", h.GenerateDocuments)

		// Taxonomy endpoints
		api.GET("/taxonomy", h.ListTaxonomy)
		api.POST("/taxonomy/refresh", h.RefreshTaxonomy)
		api.GET("/taxonomy/cache", h.TaxonomyCacheStats)
	}
}
