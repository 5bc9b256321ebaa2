package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jfries/batchlens/internal/domain"
	"github.com/jfries/batchlens/internal/repository"
	"github.com/jfries/batchlens/internal/task"
	"github.com/jfries/batchlens/internal/worker"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// openTestDB opens an isolated in-memory store. The pool is pinned to a
// single connection so the memory database is not silently duplicated.
func openTestDB(t *testing.T, models ...interface{}) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(models...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// fixture wires both stores, all repositories, and the services under test.
type fixture struct {
	primary   *gorm.DB
	secondary *gorm.DB

	folders     *repository.FolderRepository
	documents   *repository.DocumentRepository
	prompts     *repository.PromptRepository
	connections *repository.ConnectionRepository
	batches     *repository.BatchRepository
	stagedDocs  *repository.StagedDocRepository
	responses   *repository.ResponseRepository

	registry *task.Registry
	sync     *Synchronizer
	batchSvc *BatchService
	progress *ProgressService
	pool     *worker.Pool
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		primary: openTestDB(t,
			&domain.Folder{}, &domain.Document{}, &domain.Connection{}, &domain.Prompt{}, &domain.Batch{}),
		secondary: openTestDB(t,
			&domain.StagedDocument{}, &domain.ResponseRecord{}),
	}
	f.folders = repository.NewFolderRepository(f.primary)
	f.documents = repository.NewDocumentRepository(f.primary)
	f.prompts = repository.NewPromptRepository(f.primary)
	f.connections = repository.NewConnectionRepository(f.primary)
	f.batches = repository.NewBatchRepository(f.primary)
	f.stagedDocs = repository.NewStagedDocRepository(f.secondary)
	f.responses = repository.NewResponseRepository(f.secondary)

	f.registry = task.NewRegistry(0)
	f.sync = NewSynchronizer(f.documents, f.prompts, f.connections, f.stagedDocs, f.responses, f.registry, nil)
	f.pool = worker.NewPool(context.Background(), 2, 8, nil)
	t.Cleanup(f.pool.Stop)
	f.batchSvc = NewBatchService(f.batches, f.folders, f.prompts, f.connections, f.sync, f.registry, f.pool, nil)
	f.progress = NewProgressService(f.batches, f.documents, f.responses, nil)
	return f
}

// seedFolder creates a folder row plus nDocs real files registered as documents.
func (f *fixture) seedFolder(t *testing.T, nDocs int) (*domain.Folder, []domain.Document) {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	folder := &domain.Folder{
		ID:        uuid.New().String(),
		Path:      dir,
		Name:      filepath.Base(dir),
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	if err := f.folders.Create(ctx, folder); err != nil {
		t.Fatalf("create folder: %v", err)
	}

	docs := make([]domain.Document, 0, nDocs)
	for i := 0; i < nDocs; i++ {
		name := string(rune('a'+i)) + ".txt"
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("document body "+name), 0644); err != nil {
			t.Fatalf("write doc: %v", err)
		}
		doc := domain.Document{
			ID:        uuid.New().String(),
			Filename:  name,
			Filepath:  path,
			FolderID:  folder.ID,
			FileSize:  int64(len("document body " + name)),
			CreatedAt: time.Now(),
		}
		if err := f.documents.Create(ctx, &doc); err != nil {
			t.Fatalf("create document: %v", err)
		}
		docs = append(docs, doc)
	}
	return folder, docs
}

func (f *fixture) seedPrompt(t *testing.T, text string) *domain.Prompt {
	t.Helper()
	p := &domain.Prompt{ID: uuid.New().String(), Text: text, IsActive: true, CreatedAt: time.Now()}
	if err := f.prompts.Create(context.Background(), p); err != nil {
		t.Fatalf("create prompt: %v", err)
	}
	return p
}

func (f *fixture) seedConnection(t *testing.T, name string) *domain.Connection {
	t.Helper()
	c := &domain.Connection{
		ID:           uuid.New().String(),
		Name:         name,
		BaseURL:      "http://localhost:11434",
		ModelName:    "llama3",
		ProviderType: domain.ProviderTypeOllama,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	if err := f.connections.Create(context.Background(), c); err != nil {
		t.Fatalf("create connection: %v", err)
	}
	return c
}

func (f *fixture) createBatch(t *testing.T, folder *domain.Folder) *domain.Batch {
	t.Helper()
	batch, err := f.batchSvc.Create(context.Background(), "batch-"+folder.Name, []string{folder.ID}, nil, nil)
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}
	return batch
}
