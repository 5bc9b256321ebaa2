package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jfries/batchlens/internal/domain"
)

func TestBatchProgressCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	folder, _ := f.seedFolder(t, 2)
	f.seedPrompt(t, "p1")
	f.seedConnection(t, "c1")
	batch := f.createBatch(t, folder)

	if _, err := f.batchSvc.StageSync(ctx, batch.ID); err != nil {
		t.Fatalf("StageSync: %v", err)
	}

	p, err := f.progress.Batch(ctx, batch.ID)
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if p.Degraded {
		t.Fatalf("unexpected degraded flag")
	}
	if p.TotalUnits != 2 || p.ProcessedUnits != 0 || p.OutstandingUnits != 2 {
		t.Fatalf("unexpected counts: %+v", p)
	}
	if p.Percent != 0 {
		t.Fatalf("expected 0%%, got %f", p.Percent)
	}

	// External processing service finishes one unit
	recs, _ := f.responses.ListByBatch(ctx, batch.ID)
	if err := f.secondary.Model(&domain.ResponseRecord{}).
		Where("id = ?", recs[0].ID).
		Update("status", domain.ResponseStatusSuccess).Error; err != nil {
		t.Fatalf("simulate completion: %v", err)
	}

	p, err = f.progress.Batch(ctx, batch.ID)
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if p.ProcessedUnits != 1 || p.OutstandingUnits != 1 {
		t.Fatalf("unexpected counts after completion: %+v", p)
	}
	if p.Percent != 50 {
		t.Fatalf("expected 50%%, got %f", p.Percent)
	}
}

func TestBatchProgressDegradedWhenSecondaryDown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	folder, _ := f.seedFolder(t, 2)
	f.seedPrompt(t, "p1")
	f.seedConnection(t, "c1")
	batch := f.createBatch(t, folder)
	if _, err := f.batchSvc.StageSync(ctx, batch.ID); err != nil {
		t.Fatalf("StageSync: %v", err)
	}

	sqlDB, err := f.secondary.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.Close()

	p, err := f.progress.Batch(ctx, batch.ID)
	if err != nil {
		t.Fatalf("progress must not fail when secondary is down: %v", err)
	}
	if !p.Degraded {
		t.Fatalf("expected degraded flag")
	}
	if p.DocumentCount != 2 {
		t.Fatalf("expected primary-derived document count 2, got %d", p.DocumentCount)
	}
	if p.TotalUnits != 2 {
		t.Fatalf("expected snapshot-derived total 2, got %d", p.TotalUnits)
	}
	if p.BatchStatus != domain.BatchStatusStaged {
		t.Fatalf("expected staged status from primary store, got %s", p.BatchStatus)
	}
}

func TestBatchProgressUnknownBatch(t *testing.T) {
	f := newFixture(t)
	if _, err := f.progress.Batch(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGlobalProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	folder, _ := f.seedFolder(t, 3)
	f.seedPrompt(t, "p1")
	f.seedConnection(t, "c1")
	batch := f.createBatch(t, folder)
	if _, err := f.batchSvc.StageSync(ctx, batch.ID); err != nil {
		t.Fatalf("StageSync: %v", err)
	}

	p, err := f.progress.Global(ctx)
	if err != nil {
		t.Fatalf("Global: %v", err)
	}
	if p.TotalUnits != 3 {
		t.Fatalf("expected 3 total units, got %d", p.TotalUnits)
	}
	if p.DocumentCount != 3 {
		t.Fatalf("expected 3 documents, got %d", p.DocumentCount)
	}
	if p.ActiveBatches != 1 {
		t.Fatalf("expected 1 active batch, got %d", p.ActiveBatches)
	}
}
