package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/relaw/case-intake/internal/config"
	"github.com/relaw/case-intake/internal/database"
	"github.com/relaw/case-intake/internal/docgen"
	"github.com/relaw/case-intake/internal/intake"
	"github.com/relaw/case-intake/internal/pipeline"
	"github.com/relaw/case-intake/internal/reconstruct"
	"github.com/relaw/case-intake/internal/taxonomy"
	"github.com/relaw/case-intake/pkg/logger"
)

// Handlers holds all HTTP handlers
type Handlers struct {
	db          *gorm.DB
	coordinator *pipeline.Coordinator
	recon       *reconstruct.Reconstructor
	taxonomy    *taxonomy.Store
	documents   *docgen.Service
	logger      *logger.Logger
	cfg         *config.Config
}

// NewHandlers creates a new handlers instance
func NewHandlers(db *gorm.DB, coordinator *pipeline.Coordinator, recon *reconstruct.Reconstructor, taxonomyStore *taxonomy.Store, documents *docgen.Service, log *logger.Logger, cfg *config.Config) *Handlers {
	return &Handlers{
		db:          db,
		coordinator: coordinator,
		recon:       recon,
		taxonomy:    taxonomyStore,
		documents:   documents,
		logger:      log,
		cfg:         cfg,
	}
}

// SubmitIntake accepts one raw submission document and runs the pipeline.
// An optional case_id query parameter re-runs an existing case with the
// posted payload.
func (h *Handlers) SubmitIntake(c *gin.Context) {
	var raw map[string]interface{}
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "request body must be a JSON document: " + err.Error(),
		})
		return
	}

	result, err := h.coordinator.Run(c.Request.Context(), c.Query("case_id"), raw)
	if err != nil {
		h.logger.Error("Pipeline run errored", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, intakeResponse(result))
}

// RerunPipeline re-runs the pipeline from a case's stored raw payload.
func (h *Handlers) RerunPipeline(c *gin.Context) {
	caseID := c.Param("id")

	result, err := h.coordinator.RunStored(c.Request.Context(), caseID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, gorm.ErrRecordNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, intakeResponse(result))
}

func intakeResponse(result *pipeline.Result) gin.H {
	unresolved := result.Unresolved
	if unresolved == nil {
		unresolved = []intake.UnresolvedIssue{}
	}
	errs := result.Errors
	if errs == nil {
		errs = []string{}
	}
	return gin.H{
		"case_id":           result.CaseID,
		"pipeline_status":   result.Status,
		"unresolved_issues": unresolved,
		"errors":            errs,
	}
}

// GetCase returns a case with its parties and selections.
func (h *Handlers) GetCase(c *gin.Context) {
	var caseRow database.Case
	err := h.db.WithContext(c.Request.Context()).
		Preload("Parties", func(db *gorm.DB) *gorm.DB {
			return db.Order("type ASC, ordinal ASC")
		}).
		Preload("Parties.Selections.IssueOption").
		First(&caseRow, "id = ?", c.Param("id")).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "case not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    caseRow,
	})
}

// ListCases returns cases ordered by creation time, paginated.
func (h *Handlers) ListCases(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	offset := (page - 1) * limit

	var total int64
	h.db.Model(&database.Case{}).Count(&total)

	var cases []database.Case
	h.db.WithContext(c.Request.Context()).
		Preload("Parties", func(db *gorm.DB) *gorm.DB {
			return db.Order("type ASC, ordinal ASC")
		}).
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&cases)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    cases,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetCaseDocument rebuilds the original-shaped document for a case.
func (h *Handlers) GetCaseDocument(c *gin.Context) {
	doc, err := h.recon.Reconstruct(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    doc,
	})
}

// GenerateDocuments renders templates for a succeeded case.
func (h *Handlers) GenerateDocuments(c *gin.Context) {
	var req struct {
		Templates []string `json:"templates"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   err.Error(),
			})
			return
		}
	}

	result, err := h.documents.GenerateForCase(c.Request.Context(), c.Param("id"), req.Templates)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": result.Success,
		"result":  result,
	})
}

// ListTaxonomy serves the issue catalog from the snapshot cache.
func (h *Handlers) ListTaxonomy(c *gin.Context) {
	snap, err := h.taxonomy.Snapshot(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    snap.Categories,
	})
}

// RefreshTaxonomy invalidates the cached snapshot.
func (h *Handlers) RefreshTaxonomy(c *gin.Context) {
	h.taxonomy.Invalidate()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "taxonomy snapshot invalidated",
	})
}

// TaxonomyCacheStats returns snapshot cache statistics.
func (h *Handlers) TaxonomyCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   h.taxonomy.Stats(),
	})
}

// HealthCheck returns the health status
func (h *Handlers) HealthCheck(c *gin.Context) {
	var count int64
	dbHealthy := h.db.Model(&database.Case{}).Count(&count).Error == nil

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": dbHealthy,
		"cases":    count,
	})
}
