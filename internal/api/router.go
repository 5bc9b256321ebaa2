package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/jfries/batchlens/internal/api/handler"
	"github.com/jfries/batchlens/internal/api/middleware"
	"github.com/jfries/batchlens/internal/logger"
	"github.com/jfries/batchlens/internal/repository"
	"github.com/jfries/batchlens/internal/service"
	"github.com/jfries/batchlens/internal/task"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Primary   *gorm.DB
	Secondary *gorm.DB

	Folders     *repository.FolderRepository
	Documents   *repository.DocumentRepository
	Prompts     *repository.PromptRepository
	Connections *repository.ConnectionRepository

	Library  *service.LibraryService
	Batches  *service.BatchService
	Progress *service.ProgressService
	Probe    *service.ProbeService
	Registry *task.Registry

	Log  *logger.Logger
	CORS middleware.CORSConfig
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(deps Deps, mode string) *gin.Engine {
	switch mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.Logger(deps.Log))
	r.Use(middleware.CORS(deps.CORS))

	healthHandler := handler.NewHealthHandler(deps.Primary, deps.Secondary)
	folderHandler := handler.NewFolderHandler(deps.Library, deps.Folders)
	documentHandler := handler.NewDocumentHandler(deps.Documents, deps.Library)
	promptHandler := handler.NewPromptHandler(deps.Prompts)
	connectionHandler := handler.NewConnectionHandler(deps.Connections, deps.Probe)
	batchHandler := handler.NewBatchHandler(deps.Batches, deps.Progress)
	taskHandler := handler.NewTaskHandler(deps.Registry, deps.Progress)

	// Health check
	r.GET("/health", healthHandler.Health)

	v1 := r.Group("/api/v1")
	{
		// Folders
		v1.POST("/folders", folderHandler.RegisterFolder)
		v1.GET("/folders", folderHandler.ListFolders)
		v1.POST("/folders/:id/rescan", folderHandler.Rescan)
		v1.DELETE("/folders/:id", folderHandler.Deactivate)

		// Documents
		v1.GET("/documents", documentHandler.ListDocuments)
		v1.GET("/documents/:id", documentHandler.GetDocument)
		v1.POST("/documents", documentHandler.UploadDocument)

		// Prompts
		v1.POST("/prompts", promptHandler.CreatePrompt)
		v1.GET("/prompts", promptHandler.ListPrompts)
		v1.GET("/prompts/:id", promptHandler.GetPrompt)
		v1.PUT("/prompts/:id", promptHandler.UpdatePrompt)
		v1.DELETE("/prompts/:id", promptHandler.DeactivatePrompt)

		// Connections
		v1.POST("/connections", connectionHandler.CreateConnection)
		v1.GET("/connections", connectionHandler.ListConnections)
		v1.GET("/connections/:id", connectionHandler.GetConnection)
		v1.PUT("/connections/:id", connectionHandler.UpdateConnection)
		v1.DELETE("/connections/:id", connectionHandler.DeleteConnection)
		v1.POST("/connections/:id/test", connectionHandler.TestConnection)

		// Batches
		v1.POST("/batches", batchHandler.CreateBatch)
		v1.GET("/batches", batchHandler.ListBatches)
		v1.GET("/batches/:id", batchHandler.GetBatch)
		v1.GET("/batches/:id/progress", batchHandler.BatchProgress)
		v1.POST("/batches/:id/stage", batchHandler.StageBatch)
		v1.POST("/batches/:id/archive", batchHandler.ArchiveBatch)

		// Tasks and progress
		v1.GET("/tasks/:id", taskHandler.GetTask)
		v1.GET("/progress", taskHandler.GlobalProgress)
	}

	return r
}
