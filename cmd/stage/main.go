package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jfries/batchlens/internal/config"
	"github.com/jfries/batchlens/internal/logger"
	"github.com/jfries/batchlens/internal/repository"
	"github.com/jfries/batchlens/internal/scanner"
	"github.com/jfries/batchlens/internal/service"
	"github.com/jfries/batchlens/internal/task"
	"github.com/jfries/batchlens/internal/worker"
)

// stage registers a folder, builds a batch over the active prompts and
// connections, and runs staging synchronously. Intended for operators and
// cron jobs that don't want to go through the API.
func main() {
	appLog := logger.New(&logger.Config{
		Level:       "info",
		Format:      "text",
		ServiceName: "batchlens-stage",
	})
	logger.SetDefault(appLog)
	defer logger.Sync()

	folderPath := flag.String("folder", "", "Directory of documents to stage (required)")
	batchName := flag.String("name", "", "Batch name (defaults to the folder name)")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	if *folderPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to load config")
	}

	primary, err := repository.InitPrimary(&cfg.Database)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize primary store")
	}
	secondary, err := repository.InitSecondary(&cfg.Secondary)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize secondary store")
	}

	folderRepo := repository.NewFolderRepository(primary)
	documentRepo := repository.NewDocumentRepository(primary)
	promptRepo := repository.NewPromptRepository(primary)
	connectionRepo := repository.NewConnectionRepository(primary)
	batchRepo := repository.NewBatchRepository(primary)
	stagedDocRepo := repository.NewStagedDocRepository(secondary)
	responseRepo := repository.NewResponseRepository(secondary)

	registry := task.NewRegistry(time.Duration(cfg.Tasks.RetentionHours) * time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := worker.NewPool(ctx, cfg.Staging.Workers, cfg.Staging.QueueSize, appLog)
	defer pool.Stop()

	docScanner := scanner.New(cfg.Scan.Extensions)
	libraryService := service.NewLibraryService(folderRepo, documentRepo, docScanner, nil, appLog)
	synchronizer := service.NewSynchronizer(documentRepo, promptRepo, connectionRepo, stagedDocRepo, responseRepo, registry, appLog)
	batchService := service.NewBatchService(batchRepo, folderRepo, promptRepo, connectionRepo, synchronizer, registry, pool, appLog)

	folder, added, err := libraryService.RegisterFolder(ctx, *folderPath, "")
	if err != nil && folder == nil {
		appLog.WithError(err).Fatal("Failed to register folder")
	}
	if err != nil {
		appLog.WithError(err).Warn("Folder scan was partial")
	}
	appLog.WithFields(logger.Fields{
		logger.FieldFolder: folder.Path,
		logger.FieldCount:  added,
	}).Info("Folder registered")

	name := *batchName
	if name == "" {
		name = folder.Name
	}

	// Empty connection/prompt selections snapshot all active ones
	batch, err := batchService.Create(ctx, name, []string{folder.ID}, nil, nil)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to create batch")
	}
	appLog.WithField(logger.FieldBatchID, batch.ID).Info("Batch created")

	summary, err := batchService.StageSync(ctx, batch.ID)
	if summary != nil {
		fmt.Println(summary.String())
	}
	if err != nil {
		appLog.WithError(err).Fatal("Staging finished with errors")
	}
	appLog.WithField(logger.FieldBatchID, batch.ID).Info("Staging complete")
}
