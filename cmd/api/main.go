package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jfries/batchlens/internal/api"
	"github.com/jfries/batchlens/internal/api/middleware"
	"github.com/jfries/batchlens/internal/config"
	"github.com/jfries/batchlens/internal/job"
	"github.com/jfries/batchlens/internal/logger"
	"github.com/jfries/batchlens/internal/repository"
	"github.com/jfries/batchlens/internal/scanner"
	"github.com/jfries/batchlens/internal/schedule"
	"github.com/jfries/batchlens/internal/service"
	"github.com/jfries/batchlens/internal/storage"
	"github.com/jfries/batchlens/internal/task"
	"github.com/jfries/batchlens/internal/worker"
)

func main() {
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLog := logger.New(nil)
	logger.SetDefault(appLog)
	defer logger.Sync()

	// Initialize both stores; they are connected independently and never
	// joined in a single query
	primary, err := repository.InitPrimary(&cfg.Database)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize primary store")
	}
	secondary, err := repository.InitSecondary(&cfg.Secondary)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize secondary store")
	}

	// Object storage is optional; uploads still land on disk without it
	var objectStorage storage.ObjectStorage
	if cfg.Storage.Enabled {
		objectStorage, err = storage.NewStorage(&storage.S3Config{
			Type:      storage.StorageType(cfg.Storage.Type),
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			PublicURL: cfg.Storage.PublicURL,
		})
		if err != nil {
			appLog.WithError(err).Fatal("Failed to initialize object storage")
		}
		if s3, ok := objectStorage.(*storage.S3Storage); ok {
			if err := s3.EnsureBucket(context.Background()); err != nil {
				appLog.WithError(err).Fatal("Failed to ensure storage bucket")
			}
		}
	}

	folderRepo := repository.NewFolderRepository(primary)
	documentRepo := repository.NewDocumentRepository(primary)
	promptRepo := repository.NewPromptRepository(primary)
	connectionRepo := repository.NewConnectionRepository(primary)
	batchRepo := repository.NewBatchRepository(primary)
	stagedDocRepo := repository.NewStagedDocRepository(secondary)
	responseRepo := repository.NewResponseRepository(secondary)

	registry := task.NewRegistry(time.Duration(cfg.Tasks.RetentionHours) * time.Hour)

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := worker.NewPool(rootCtx, cfg.Staging.Workers, cfg.Staging.QueueSize, appLog)

	docScanner := scanner.New(cfg.Scan.Extensions)
	libraryService := service.NewLibraryService(folderRepo, documentRepo, docScanner, objectStorage, appLog)
	synchronizer := service.NewSynchronizer(documentRepo, promptRepo, connectionRepo, stagedDocRepo, responseRepo, registry, appLog)
	batchService := service.NewBatchService(batchRepo, folderRepo, promptRepo, connectionRepo, synchronizer, registry, pool, appLog)
	progressService := service.NewProgressService(batchRepo, documentRepo, responseRepo, appLog)
	probeService := service.NewProbeService(cfg.Probe.Timeout)

	// Background sweep keeps the task registry from growing without bound
	scheduler := schedule.NewCronScheduler(appLog)
	if err := scheduler.AddJob(job.NewTaskSweepJob(registry), cfg.Tasks.SweepSpec); err != nil {
		appLog.WithError(err).Fatal("Failed to schedule task sweep")
	}
	scheduler.Start(rootCtx)

	router := api.SetupRouter(api.Deps{
		Primary:     primary,
		Secondary:   secondary,
		Folders:     folderRepo,
		Documents:   documentRepo,
		Prompts:     promptRepo,
		Connections: connectionRepo,
		Library:     libraryService,
		Batches:     batchService,
		Progress:    progressService,
		Probe:       probeService,
		Registry:    registry,
		Log:         appLog,
		CORS: middleware.CORSConfig{
			AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
			AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
		},
	}, cfg.Server.Mode)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		appLog.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.WithError(err).Error("Server forced to shutdown")
	}

	// Stop accepting new staging work, then drain
	scheduler.Stop()
	pool.Stop()
	cancel()

	appLog.Info("Server exited")
}
