package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/relaw/case-intake/internal/api"
	"github.com/relaw/case-intake/internal/config"
	"github.com/relaw/case-intake/internal/docgen"
	"github.com/relaw/case-intake/internal/intake"
	"github.com/relaw/case-intake/internal/pipeline"
	"github.com/relaw/case-intake/internal/reconstruct"
	"github.com/relaw/case-intake/internal/taxonomy"
	"github.com/relaw/case-intake/pkg/logger"
)

type Server struct {
	cfg    *config.Config
	db     *gorm.DB
	logger *logger.Logger
	router *gin.Engine
}

func New(cfg *config.Config, db *gorm.DB, taxonomyStore *taxonomy.Store, log *logger.Logger) *Server {
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	coordinator := pipeline.NewCoordinator(db, taxonomyStore, log, pipeline.Config{
		Normalizer: intake.Options{
			DefaultState:      cfg.DefaultState,
			MaxPartiesPerType: cfg.MaxPartiesPerType,
		},
		Quality: pipeline.QualityRules{
			RequireParty:      cfg.RequireParty,
			PostalCodePattern: cfg.PostalCodePattern,
		},
	})

	recon := reconstruct.New(db)
	renderer := docgen.NewRenderClient(cfg.DocmosisAPIURL, cfg.DocmosisAccessKey, cfg.DocmosisTimeout, cfg.DocmosisRetries, log)
	backup := docgen.NewBackupClient(cfg.DropboxEnabled, cfg.DropboxAccessToken, cfg.DropboxBasePath, log)
	documents := docgen.NewService(db, recon, renderer, backup, cfg.DocumentOutputDir, log)

	api.SetupRoutes(router, db, coordinator, recon, taxonomyStore, documents, log, cfg)

	return &Server{
		cfg:    cfg,
		db:     db,
		logger: log,
		router: router,
	}
}

func (s *Server) Run() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal("Failed to start server", "error", err)
		}
	}()

	s.logger.Info("Server started", "address", srv.Addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Error("Server forced to shutdown", "error", err)
		return err
	}

	s.logger.Info("Server exited gracefully")
	return nil
}

func loggingMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		clientIP := c.ClientIP()
		method := c.Request.Method
		statusCode := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			"client_ip", clientIP,
			"method", method,
			"path", path,
			"status", statusCode,
			"latency", latency.String(),
			"user_agent", c.Request.UserAgent(),
		)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
