package request_test

import (
	"context"
	"errors"
	"testing"

	"marquee/internal/request"
)

func TestArchiveSnapshotsAndDeletes(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	req := sampleRequest()
	if err := store.Create(ctx, req); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.AddRequester(ctx, "603", "trinity"); err != nil {
		t.Fatalf("AddRequester: %v", err)
	}
	if err := store.Approve(ctx, "603"); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if err := store.SetAcquisitionRef(ctx, "603", "radarr-a", "11"); err != nil {
		t.Fatalf("SetAcquisitionRef: %v", err)
	}

	archived, err := store.Archive(ctx, "603", false, true, "duplicate request")
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if !archived.Removed || archived.Complete {
		t.Fatalf("unexpected flags: %+v", archived)
	}
	if archived.RemovedReason != "duplicate request" {
		t.Fatalf("reason not recorded: %q", archived.RemovedReason)
	}
	if archived.ArchivedAt.IsZero() {
		t.Fatal("archive timestamp missing")
	}

	// Snapshot carries the full request state.
	if archived.Title != "The Matrix" || !archived.Approved {
		t.Fatalf("snapshot lost request fields: %+v", archived.Request)
	}
	if len(archived.Requesters) != 2 {
		t.Fatalf("snapshot lost requesters: %v", archived.Requesters)
	}
	if archived.AcquisitionRefs["radarr-a"] != "11" {
		t.Fatalf("snapshot lost refs: %v", archived.AcquisitionRefs)
	}

	// Active row is gone, snapshot is readable.
	if active, _ := store.FindActive(ctx, "603"); active != nil {
		t.Fatal("active request survived archive")
	}
	stored, err := store.FindArchived(ctx, "603")
	if err != nil || stored == nil {
		t.Fatalf("FindArchived: %v %v", stored, err)
	}
	if len(stored.Requesters) != 2 || stored.AcquisitionRefs["radarr-a"] != "11" {
		t.Fatalf("persisted snapshot mismatch: %+v", stored)
	}
}

func TestArchiveMissingRequest(t *testing.T) {
	store := openStore(t)
	if _, err := store.Archive(context.Background(), "nope", true, false, ""); !errors.Is(err, request.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindArchivedMissing(t *testing.T) {
	store := openStore(t)
	archived, err := store.FindArchived(context.Background(), "nope")
	if err != nil {
		t.Fatalf("FindArchived: %v", err)
	}
	if archived != nil {
		t.Fatalf("expected nil, got %+v", archived)
	}
}

func TestListArchiveNewestFirst(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for _, id := range []string{"1", "2"} {
		req := &request.Request{ContentID: id, Class: request.ClassMovie, Title: "m" + id, Requesters: []string{"neo"}}
		if err := store.Create(ctx, req); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
		if _, err := store.Archive(ctx, id, true, false, ""); err != nil {
			t.Fatalf("Archive %s: %v", id, err)
		}
	}

	archive, err := store.ListArchive(ctx)
	if err != nil {
		t.Fatalf("ListArchive: %v", err)
	}
	if len(archive) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(archive))
	}
	if archive[0].ArchivedAt.Before(archive[1].ArchivedAt) {
		t.Fatal("archive not ordered newest first")
	}
}

func TestReconcileArchives(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if err := store.Create(ctx, sampleRequest()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.Archive(ctx, "603", true, false, ""); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	// Simulate a crash between archive write and active delete by
	// re-creating the active row.
	if err := store.Create(ctx, sampleRequest()); err != nil {
		t.Fatalf("re-Create: %v", err)
	}

	healed, err := store.ReconcileArchives(ctx)
	if err != nil {
		t.Fatalf("ReconcileArchives: %v", err)
	}
	if healed != 1 {
		t.Fatalf("expected 1 healed row, got %d", healed)
	}
	if active, _ := store.FindActive(ctx, "603"); active != nil {
		t.Fatal("stale active row survived reconciliation")
	}

	healed, err = store.ReconcileArchives(ctx)
	if err != nil || healed != 0 {
		t.Fatalf("second reconcile should heal nothing: %d %v", healed, err)
	}
}
