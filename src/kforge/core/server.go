package core

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bitswalk/kforge/src/kforge/api"
	"github.com/bitswalk/kforge/src/kforge/db"
	"github.com/bitswalk/kforge/src/kforge/export"
	"github.com/bitswalk/kforge/src/kforge/storage"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the planner over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	serveCmd.Flags().IntP("port", "p", 8420, "Port to listen on")
	serveCmd.Flags().StringP("bind", "b", "127.0.0.1", "Address to bind to")
	serveCmd.Flags().String("db-path", "", "Path to persist the plan history on shutdown")
	serveCmd.Flags().String("storage-type", "local", "Storage backend type: 'local' or 's3'")
	serveCmd.Flags().String("storage-path", "", "Local storage path (for local backend)")
	serveCmd.Flags().String("s3-endpoint", "", "S3-compatible storage endpoint URL")
	serveCmd.Flags().String("s3-bucket", "kforge", "S3 bucket for plan artifacts")

	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("server.bind", serveCmd.Flags().Lookup("bind"))
	_ = viper.BindPFlag("database.path", serveCmd.Flags().Lookup("db-path"))
	_ = viper.BindPFlag("storage.type", serveCmd.Flags().Lookup("storage-type"))
	_ = viper.BindPFlag("storage.local.path", serveCmd.Flags().Lookup("storage-path"))
	_ = viper.BindPFlag("storage.s3.endpoint", serveCmd.Flags().Lookup("s3-endpoint"))
	_ = viper.BindPFlag("storage.s3.bucket", serveCmd.Flags().Lookup("s3-bucket"))
}

// Server holds the HTTP server instance and configuration
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	api        *api.API
	database   *db.Database
	storage    storage.Backend
}

// NewServer creates a Server with every route registered
func NewServer(database *db.Database, backend storage.Backend) *Server {
	if viper.GetString("log.level") == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger())

	cfg := api.Config{
		Catalog:     newCatalog(),
		Detector:    newDetector(),
		DefaultArch: viper.GetString("plan.arch"),
		Jobs:        jobs(),
		Version:     VersionInfo,
		RateLimit: api.RateLimitConfig{
			Enabled:            viper.GetBool("server.rate_limit.enabled"),
			PlanRequestsPerMin: viper.GetInt("server.rate_limit.plans_per_minute"),
			APIRequestsPerMin:  viper.GetInt("server.rate_limit.requests_per_minute"),
		},
	}
	if database != nil {
		cfg.Plans = db.NewPlanRepository(database)
	}
	if backend != nil {
		cfg.Exporter = export.New(backend, export.WithParallelism(jobs()))
	}
	handlers := api.New(cfg)
	handlers.RegisterRoutes(router)

	return &Server{
		router:   router,
		api:      handlers,
		database: database,
		storage:  backend,
	}
}

// Handler returns the router, for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until SIGINT or SIGTERM, then shuts down gracefully
func (s *Server) Run() error {
	addr := fmt.Sprintf("%s:%d", viper.GetString("server.bind"), viper.GetInt("server.port"))

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errChan := make(chan error, 1)

	go func() {
		log.Info("Starting kforge server", "address", addr)
		if s.storage != nil {
			log.Info("Storage enabled", "type", s.storage.Type(), "location", s.storage.Location())
		} else {
			log.Warn("Storage not configured - plan export disabled")
		}
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errChan:
		s.api.Close()
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		log.Info("Received signal, shutting down", "signal", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	defer s.api.Close()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	log.Info("Server stopped gracefully")
	return nil
}

// ginLogger returns a gin middleware for logging requests
func ginLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		if query != "" {
			path = path + "?" + query
		}

		log.Debug("HTTP request",
			"status", c.Writer.Status(),
			"method", c.Request.Method,
			"path", path,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

// runServer is called by the serve command
func runServer() error {
	log.Info("kforge starting",
		"version", VersionInfo.Version,
		"build_date", VersionInfo.BuildDate,
		"log_output", log.Output(),
	)

	database, err := openDatabase()
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	log.Info("Plan history ready", "persist_path", database.PersistPath())

	var backend storage.Backend
	storageCfg := storageConfig()
	log.Info("Initializing storage", "type", storageCfg.Type)
	backend, err = storage.New(storageCfg)
	if err != nil {
		log.Warn("Storage unavailable - plan export disabled", "error", err)
		backend = nil
	}

	if s3Backend, ok := backend.(*storage.S3Backend); ok {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := s3Backend.EnsureBucket(ctx); err != nil {
			log.Warn("S3 bucket not accessible - exports may fail", "bucket", storageCfg.S3.Bucket, "error", err)
		}
		cancel()
	}

	server := NewServer(database, backend)
	err = server.Run()

	log.Info("Persisting plan history to disk")
	if dbErr := database.Shutdown(); dbErr != nil {
		log.Error("Failed to persist plan history", "error", dbErr)
		if err == nil {
			err = dbErr
		}
	}

	return err
}
