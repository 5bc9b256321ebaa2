package service

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"testing"

	"github.com/jfries/batchlens/internal/domain"
)

func TestStageFolderScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	folder, _ := f.seedFolder(t, 2)
	f.seedPrompt(t, "summarize")
	f.seedConnection(t, "local-ollama")
	batch := f.createBatch(t, folder)

	summary, err := f.batchSvc.StageSync(ctx, batch.ID)
	if err != nil {
		t.Fatalf("StageSync: %v", err)
	}
	if summary.DocumentsPrepared != 2 || summary.DocumentsTotal != 2 {
		t.Fatalf("expected 2/2 documents prepared, got %d/%d", summary.DocumentsPrepared, summary.DocumentsTotal)
	}
	if summary.ResponsesQueued != 2 {
		t.Fatalf("expected 2 responses queued, got %d", summary.ResponsesQueued)
	}

	got, err := f.batches.GetByID(ctx, batch.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != domain.BatchStatusStaged {
		t.Fatalf("expected staged, got %s", got.Status)
	}
	if got.DocumentCount != 2 {
		t.Fatalf("expected cached document count 2, got %d", got.DocumentCount)
	}

	recs, err := f.responses.ListByBatch(ctx, batch.ID)
	if err != nil {
		t.Fatalf("ListByBatch: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 response records, got %d", len(recs))
	}
	for _, rec := range recs {
		if rec.Status != domain.ResponseStatusQueued {
			t.Errorf("expected queued, got %s", rec.Status)
		}
	}
}

func TestStagingIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	folder, _ := f.seedFolder(t, 3)
	f.seedPrompt(t, "summarize")
	f.seedPrompt(t, "classify")
	f.seedConnection(t, "conn-a")
	batch := f.createBatch(t, folder)

	first, err := f.batchSvc.StageSync(ctx, batch.ID)
	if err != nil {
		t.Fatalf("first StageSync: %v", err)
	}
	second, err := f.batchSvc.StageSync(ctx, batch.ID)
	if err != nil {
		t.Fatalf("second StageSync: %v", err)
	}

	if first.DocumentsPrepared != 3 || second.DocumentsPrepared != 3 {
		t.Fatalf("expected 3/3 prepared both times, got %d then %d", first.DocumentsPrepared, second.DocumentsPrepared)
	}
	if first.ResponsesQueued != 6 {
		t.Fatalf("expected 6 queued on first run, got %d", first.ResponsesQueued)
	}
	if second.ResponsesQueued != 0 {
		t.Fatalf("expected 0 newly queued on second run, got %d", second.ResponsesQueued)
	}

	staged, err := f.stagedDocs.ListByBatch(ctx, batch.ID)
	if err != nil {
		t.Fatalf("ListByBatch: %v", err)
	}
	if len(staged) != 3 {
		t.Fatalf("expected 3 staged documents, got %d", len(staged))
	}
	recs, _ := f.responses.ListByBatch(ctx, batch.ID)
	if len(recs) != 6 {
		t.Fatalf("expected 6 response records after retry, got %d", len(recs))
	}
}

func TestPartialStagingResumes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	folder, docs := f.seedFolder(t, 8)
	f.seedPrompt(t, "summarize")
	f.seedConnection(t, "conn-a")
	batch := f.createBatch(t, folder)

	// Simulate a first run that wrote 5 of 8 document rows before dying
	partial := docs[:5]
	for i := range partial {
		if _, err := f.sync.ensureStagedDocument(ctx, batch.ID, &partial[i], nil); err != nil {
			t.Fatalf("seed staged doc: %v", err)
		}
	}
	before, _ := f.stagedDocs.ListByBatch(ctx, batch.ID)
	if len(before) != 5 {
		t.Fatalf("expected 5 pre-staged docs, got %d", len(before))
	}
	createdAt := map[string]string{}
	for _, sd := range before {
		createdAt[sd.DocumentID] = sd.ID
	}

	summary, err := f.batchSvc.StageSync(ctx, batch.ID)
	if err != nil {
		t.Fatalf("StageSync: %v", err)
	}
	if summary.DocumentsPrepared != 8 || summary.DocumentsTotal != 8 {
		t.Fatalf("expected 8/8 prepared, got %d/%d", summary.DocumentsPrepared, summary.DocumentsTotal)
	}

	after, _ := f.stagedDocs.ListByBatch(ctx, batch.ID)
	if len(after) != 8 {
		t.Fatalf("expected 8 staged docs, got %d", len(after))
	}
	// The first five rows must be reused, not rewritten
	for _, sd := range after {
		if want, ok := createdAt[sd.DocumentID]; ok && sd.ID != want {
			t.Errorf("staged doc %s was recreated", sd.DocumentID)
		}
	}

	got, _ := f.batches.GetByID(ctx, batch.ID)
	if got.Status != domain.BatchStatusStaged {
		t.Fatalf("expected staged, got %s", got.Status)
	}
}

func TestStagingSkipsTerminalUnits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	folder, docs := f.seedFolder(t, 2)
	p1 := f.seedPrompt(t, "p1")
	f.seedPrompt(t, "p2")
	c1 := f.seedConnection(t, "c1")
	f.seedConnection(t, "c2")
	batch := f.createBatch(t, folder)

	// Pre-existing terminal response for (doc1, p1, c1)
	staged, err := f.sync.ensureStagedDocument(ctx, batch.ID, &docs[0], nil)
	if err != nil {
		t.Fatalf("stage doc: %v", err)
	}
	done := &domain.ResponseRecord{
		ID:           "pre-existing",
		DocID:        staged.ID,
		PromptID:     p1.ID,
		ConnectionID: c1.ID,
		BatchID:      batch.ID,
		Status:       domain.ResponseStatusSuccess,
	}
	if err := f.responses.Create(ctx, done); err != nil {
		t.Fatalf("seed terminal response: %v", err)
	}

	summary, err := f.batchSvc.StageSync(ctx, batch.ID)
	if err != nil {
		t.Fatalf("StageSync: %v", err)
	}
	if summary.ResponsesQueued != 7 {
		t.Fatalf("expected 7 newly queued (8 minus 1 terminal), got %d", summary.ResponsesQueued)
	}

	// The terminal record must be untouched
	rec, err := f.responses.GetByNaturalKey(ctx, staged.ID, p1.ID, c1.ID)
	if err != nil {
		t.Fatalf("GetByNaturalKey: %v", err)
	}
	if rec.ID != "pre-existing" || rec.Status != domain.ResponseStatusSuccess {
		t.Fatalf("terminal response was modified: %+v", rec)
	}
}

func TestStagingRepairsMalformedEncoding(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	folder, docs := f.seedFolder(t, 1)
	f.seedPrompt(t, "p1")
	f.seedConnection(t, "c1")
	batch := f.createBatch(t, folder)

	staged, err := f.sync.ensureStagedDocument(ctx, batch.ID, &docs[0], nil)
	if err != nil {
		t.Fatalf("stage doc: %v", err)
	}
	// Corrupt the stored encoding (bad padding)
	if err := f.stagedDocs.UpdateContent(ctx, staged.ID, "not-base64!!", staged.ContentHash, staged.ContentLength); err != nil {
		t.Fatalf("corrupt: %v", err)
	}

	if _, err := f.batchSvc.StageSync(ctx, batch.ID); err != nil {
		t.Fatalf("StageSync: %v", err)
	}

	repaired, err := f.stagedDocs.GetByNaturalKey(ctx, batch.ID, docs[0].ID)
	if err != nil {
		t.Fatalf("GetByNaturalKey: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(repaired.ContentEncoded)
	if err != nil {
		t.Fatalf("repaired content still malformed: %v", err)
	}
	want, _ := os.ReadFile(docs[0].Filepath)
	if string(raw) != string(want) {
		t.Fatalf("repaired content does not match source")
	}
}

func TestStagingPartialFailureMarksBatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	folder, docs := f.seedFolder(t, 3)
	f.seedPrompt(t, "p1")
	f.seedConnection(t, "c1")
	batch := f.createBatch(t, folder)

	// One source file disappears before staging
	if err := os.Remove(docs[1].Filepath); err != nil {
		t.Fatalf("remove: %v", err)
	}

	summary, err := f.batchSvc.StageSync(ctx, batch.ID)
	if err != nil {
		t.Fatalf("StageSync itself must not error: %v", err)
	}
	if summary.DocumentsPrepared != 2 || summary.DocumentsTotal != 3 {
		t.Fatalf("expected 2/3 prepared, got %d/%d", summary.DocumentsPrepared, summary.DocumentsTotal)
	}
	if summary.Error == "" {
		t.Fatalf("expected error text on summary")
	}

	got, _ := f.batches.GetByID(ctx, batch.ID)
	if got.Status != domain.BatchStatusFailedStaging {
		t.Fatalf("expected failed_staging, got %s", got.Status)
	}
	if got.LastError == "" {
		t.Fatalf("expected staging error retained on batch row")
	}

	// Written rows for the two good documents remain
	staged, _ := f.stagedDocs.ListByBatch(ctx, batch.ID)
	if len(staged) != 2 {
		t.Fatalf("expected 2 staged docs to survive, got %d", len(staged))
	}

	// Retry after the file returns converges to fully staged
	if err := os.WriteFile(docs[1].Filepath, []byte("restored"), 0644); err != nil {
		t.Fatalf("restore: %v", err)
	}
	retry, err := f.batchSvc.StageSync(ctx, batch.ID)
	if err != nil {
		t.Fatalf("retry StageSync: %v", err)
	}
	if retry.DocumentsPrepared != 3 {
		t.Fatalf("expected 3/3 after retry, got %d/%d", retry.DocumentsPrepared, retry.DocumentsTotal)
	}
	got, _ = f.batches.GetByID(ctx, batch.ID)
	if got.Status != domain.BatchStatusStaged {
		t.Fatalf("expected staged after retry, got %s", got.Status)
	}
}

func TestStagingEmptyConfigurationFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	folder, _ := f.seedFolder(t, 2)
	f.seedConnection(t, "c1")
	// No prompts exist at snapshot time
	batch := f.createBatch(t, folder)

	summary, err := f.batchSvc.StageSync(ctx, batch.ID)
	if err != nil {
		t.Fatalf("StageSync: %v", err)
	}
	if summary.Error == "" {
		t.Fatalf("expected empty-configuration error on summary")
	}

	got, _ := f.batches.GetByID(ctx, batch.ID)
	if got.Status != domain.BatchStatusFailedStaging {
		t.Fatalf("expected failed_staging, got %s", got.Status)
	}
}

func TestConcurrentStageRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	folder, _ := f.seedFolder(t, 1)
	f.seedPrompt(t, "p1")
	f.seedConnection(t, "c1")
	batch := f.createBatch(t, folder)

	_, release, err := f.batchSvc.acquire(ctx, batch.ID)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	if _, _, err := f.batchSvc.acquire(ctx, batch.ID); !errors.Is(err, domain.ErrStagingInProgress) {
		t.Fatalf("expected ErrStagingInProgress, got %v", err)
	}

	release()
	// The row is still in staging status; a fresh acquire must also refuse
	// until the run settles the state, mirroring a crashed worker.
	if _, _, err := f.batchSvc.acquire(ctx, batch.ID); !errors.Is(err, domain.ErrStagingInProgress) {
		t.Fatalf("expected ErrStagingInProgress while row is staging, got %v", err)
	}
}

func TestArchiveLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	folder, _ := f.seedFolder(t, 1)
	f.seedPrompt(t, "p1")
	f.seedConnection(t, "c1")
	batch := f.createBatch(t, folder)

	if err := f.batchSvc.Archive(ctx, batch.ID); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	active, err := f.batchSvc.List(ctx, false)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("archived batch still listed: %v", active)
	}
	all, _ := f.batchSvc.List(ctx, true)
	if len(all) != 1 {
		t.Fatalf("expected archived batch in full listing")
	}

	// A batch mid-staging cannot be archived
	other := f.createBatch(t, folder)
	if _, _, err := f.batchSvc.acquire(ctx, other.ID); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if err := f.batchSvc.Archive(ctx, other.ID); !errors.Is(err, domain.ErrStagingInProgress) {
		t.Fatalf("expected ErrStagingInProgress, got %v", err)
	}
}

func TestStageUnknownBatch(t *testing.T) {
	f := newFixture(t)
	if _, err := f.batchSvc.StageSync(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
