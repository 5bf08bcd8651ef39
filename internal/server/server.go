package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/recastlabs/recast/internal/config"
	"github.com/recastlabs/recast/internal/service"
	"github.com/recastlabs/recast/internal/service/generation"
	"github.com/recastlabs/recast/internal/service/social"
	"github.com/recastlabs/recast/internal/store"
)

type Server struct {
	Config *config.Config
	DB     *gorm.DB
	Router *gin.Engine
	Logger *zap.Logger
	Server *http.Server

	// Services
	Store         store.Store
	Intake        *service.IntakeService
	Status        *service.StatusService
	Editor        *service.EditorService
	Schedule      *service.ScheduleService
	Dispatcher    *service.Dispatcher
	PublishWorker *service.PublishWorker
	StatsUpdater  *service.StatsUpdater
}

func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	// Set gin mode
	gin.SetMode(cfg.Server.Mode)

	// Initialize database
	db, err := service.NewDatabase(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	st := store.NewGormStore(db)

	// Generation and image clients
	generator, err := generation.NewGeminiGenerator(context.Background(), cfg.Generation.APIKey, cfg.Generation.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize generator: %w", err)
	}
	images := generation.NewHTTPImageTransformer(cfg.Images.BaseURL, parseDuration(cfg.Images.Timeout, 30*time.Second))
	socialClient := social.NewHTTPClient(cfg.Publishing.BaseURL, cfg.Publishing.Token, parseDuration(cfg.Publishing.Timeout, 30*time.Second))

	// Initialize services
	monitoring := service.NewMonitoringService(db, logger)
	recorder := service.NewRecorder(st, logger, monitoring)
	dispatcher := service.NewDispatcher(st, logger, generator, images, recorder, service.DispatcherOptions{
		JobTimeout:     parseDuration(cfg.Dispatch.JobTimeout, 5*time.Minute),
		MaxRetries:     cfg.Dispatch.MaxRetries,
		RetryBaseDelay: parseDuration(cfg.Dispatch.RetryBaseDelay, 2*time.Second),
	})
	intake := service.NewIntakeService(st, logger, dispatcher)
	status := service.NewStatusService(st)
	editor := service.NewEditorService(st, logger, dispatcher)
	schedule := service.NewScheduleService(st, logger)
	publishWorker := service.NewPublishWorker(st, logger, socialClient, monitoring,
		parseDuration(cfg.Scheduler.PublishInterval, time.Minute), cfg.Scheduler.PublishBatch)
	statsUpdater := service.NewStatsUpdater(monitoring, logger, parseDuration(cfg.Scheduler.StatsInterval, 15*time.Minute))

	// Create router
	router := gin.New()

	// Create server
	srv := &Server{
		Config:        cfg,
		DB:            db,
		Router:        router,
		Logger:        logger,
		Store:         st,
		Intake:        intake,
		Status:        status,
		Editor:        editor,
		Schedule:      schedule,
		Dispatcher:    dispatcher,
		PublishWorker: publishWorker,
		StatsUpdater:  statsUpdater,
	}

	// Setup middleware and routes
	srv.setupMiddleware()
	srv.setupRoutes()

	return srv, nil
}

func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.Router.Use(gin.Recovery())

	// Logger middleware
	s.Router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	// CORS middleware
	s.Router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})
}

func (s *Server) setupRoutes() {
	// Health check
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Unix(),
		})
	})

	// API routes
	api := s.Router.Group("/api/v1")
	{
		profiles := api.Group("/profiles")
		{
			profiles.POST("", s.handleCreateProfile)
			profiles.GET("", s.handleListProfiles)
			profiles.GET("/:id", s.handleGetProfile)
			profiles.PUT("/:id/platforms/:platform", s.handleSavePlatformConfig)
		}

		content := api.Group("/content")
		{
			content.POST("", s.handleSubmitContent)
			content.GET("/:id/status", s.handleGetStatus)
			content.GET("/:id/results", s.handleGetResults)
			content.POST("/:id/results/:resultId/edit", s.handleEditResult)
			content.POST("/:id/regenerate", s.handleRegenerate)
			content.POST("/:id/schedule", s.handleSchedule)
		}
	}
}

func (s *Server) Start(ctx context.Context) error {
	// Start background workers
	if s.Config.Scheduler.Enabled {
		s.PublishWorker.Start(ctx)
		s.StatsUpdater.Start(ctx)
	}

	addr := fmt.Sprintf("%s:%d", s.Config.Server.Host, s.Config.Server.Port)

	s.Server = &http.Server{
		Addr:    addr,
		Handler: s.Router,
	}

	s.Logger.Info("Starting HTTP server", zap.String("addr", addr))

	if s.Config.Server.CertFile != "" && s.Config.Server.KeyFile != "" {
		return s.Server.ListenAndServeTLS(s.Config.Server.CertFile, s.Config.Server.KeyFile)
	}

	return s.Server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	// Stop workers first, then wait for in-flight platform jobs to report.
	if s.Config.Scheduler.Enabled {
		s.PublishWorker.Stop()
		s.StatsUpdater.Stop()
	}
	s.Dispatcher.Drain()

	if s.Server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	return s.Server.Shutdown(shutdownCtx)
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
