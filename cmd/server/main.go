// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/listing-studio/internal/config"
	"github.com/javajoker/listing-studio/internal/database"
	"github.com/javajoker/listing-studio/internal/generation"
	"github.com/javajoker/listing-studio/internal/i18n"
	"github.com/javajoker/listing-studio/internal/router"
	"github.com/javajoker/listing-studio/internal/services"
	"github.com/javajoker/listing-studio/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	setupLogging(cfg)

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize database")
	}
	defer database.Close(db)

	// Run database migrations
	if err := database.RunMigrations(db); err != nil {
		logrus.WithError(err).Fatal("Failed to run migrations")
	}

	// Initialize i18n
	if err := i18n.Initialize(cfg.I18n.DefaultLocale); err != nil {
		logrus.WithError(err).Fatal("Failed to initialize i18n")
	}

	// Initialize services
	productService := services.NewProductService(db)
	listingService := services.NewListingService(db, productService)
	contentService := services.NewContentLibraryService(db)
	notificationService := services.NewNotificationService(db, cfg)
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize storage")
	}

	aiClient := services.NewAIClient(cfg.AI, nil)
	finalizer := generation.NewFinalizer(listingService, notificationService, logrus.WithField("component", "finalizer"))

	opts := []generation.Option{
		generation.WithContentLibrary(contentService),
		generation.WithProductSync(productService),
		generation.WithFinalizer(finalizer),
		generation.WithLogger(logrus.WithField("component", "orchestrator")),
	}
	if storageService.Enabled() {
		opts = append(opts, generation.WithAssetMirror(storageService))
	}
	orchestrator := generation.NewOrchestrator(aiClient.Clients(), listingService, pipelineConfig(cfg), opts...)

	registry := generation.NewRegistry()
	generationService := services.NewGenerationService(db, registry, orchestrator, productService)

	// Wire run dispatch
	var stopWorkers func(ctx context.Context)
	if cfg.Queue.Enabled {
		stopWorkers = startQueue(cfg, generationService)
	} else {
		inline := worker.NewInlineDispatcher(generationService)
		generationService.SetDispatcher(inline)
		stopWorkers = func(ctx context.Context) {
			if err := inline.Shutdown(ctx); err != nil {
				logrus.WithError(err).Warn("Generation runs did not stop in time")
			}
		}
		logrus.Info("Generation runs execute in-process")
	}

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	go generationService.RunReaper(bgCtx, time.Minute, cfg.Pipeline.StaleRunAfter)

	limiter := router.NewRateLimiter(cfg.Server)
	go limiter.Cleanup(bgCtx)

	// Initialize router
	r := router.Initialize(cfg, router.Services{
		Listings:      listingService,
		Products:      productService,
		Generations:   generationService,
		Contents:      contentService,
		Notifications: notificationService,
		RateLimiter:   limiter,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logrus.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown server
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Server forced to shutdown")
	}
	stopWorkers(ctx)

	logrus.Info("Server exited")
}

func setupLogging(cfg *config.Config) {
	if cfg.IsProduction() {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

func pipelineConfig(cfg *config.Config) generation.Config {
	pc := generation.DefaultConfig()
	pc.Language = cfg.Pipeline.Language
	pc.Tone = cfg.Pipeline.Tone
	pc.ImageConcurrency = cfg.Pipeline.ImageConcurrency
	pc.VideoDurationSeconds = cfg.Pipeline.VideoDurationSeconds
	pc.ResearchTimeout = cfg.AI.ResearchTimeout
	pc.CopyTimeout = cfg.AI.CopyTimeout
	pc.ImageTimeout = cfg.AI.ImageTimeout
	pc.VideoTimeout = cfg.AI.VideoTimeout
	return pc
}

// startQueue dispatches runs through Redis and, unless disabled, consumes
// them in this process too.
func startQueue(cfg *config.Config, generationService *services.GenerationService) func(context.Context) {
	client := asynq.NewClient(worker.RedisOpt(cfg.Redis))
	generationService.SetDispatcher(worker.NewQueueDispatcher(client, cfg.Queue))

	var srv *asynq.Server
	if cfg.Queue.RunWorker {
		srv = worker.NewServer(cfg.Redis, cfg.Queue)
		if err := srv.Start(worker.NewProcessor(generationService).Mux()); err != nil {
			logrus.WithError(err).Fatal("Failed to start queue worker")
		}
		logrus.WithFields(logrus.Fields{
			"queue":       cfg.Queue.Queue,
			"concurrency": cfg.Queue.Concurrency,
		}).Info("Queue worker started")
	}

	return func(context.Context) {
		if srv != nil {
			srv.Shutdown()
		}
		if err := client.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close queue client")
		}
	}
}
