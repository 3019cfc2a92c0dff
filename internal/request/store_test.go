package request_test

import (
	"context"
	"errors"
	"testing"

	"marquee/internal/request"
	"marquee/internal/testsupport"
)

func openStore(t *testing.T) *request.Store {
	t.Helper()
	return testsupport.MustOpenStore(t, testsupport.NewConfig(t))
}

func sampleRequest() *request.Request {
	return &request.Request{
		ContentID:  "603",
		Class:      request.ClassMovie,
		Title:      "The Matrix",
		Thumb:      "/poster.jpg",
		IMDBID:     "tt0133093",
		TMDBID:     "603",
		Requesters: []string{"neo"},
	}
}

func TestCreateAndFindActive(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if err := store.Create(ctx, sampleRequest()); err != nil {
		t.Fatalf("Create: %v", err)
	}

	found, err := store.FindActive(ctx, "603")
	if err != nil {
		t.Fatalf("FindActive: %v", err)
	}
	if found == nil {
		t.Fatal("request not found")
	}
	if found.Title != "The Matrix" || found.Class != request.ClassMovie {
		t.Fatalf("unexpected request: %+v", found)
	}
	if len(found.Requesters) != 1 || found.Requesters[0] != "neo" {
		t.Fatalf("unexpected requesters: %v", found.Requesters)
	}
	if found.Approved {
		t.Fatal("new request should not be approved")
	}
	if found.CreatedAt.IsZero() || found.UpdatedAt.IsZero() {
		t.Fatal("timestamps not recorded")
	}
}

func TestCreateDuplicateContentID(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if err := store.Create(ctx, sampleRequest()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := store.Create(ctx, sampleRequest())
	if !errors.Is(err, request.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestFindActiveMissing(t *testing.T) {
	store := openStore(t)
	found, err := store.FindActive(context.Background(), "nope")
	if err != nil {
		t.Fatalf("FindActive: %v", err)
	}
	if found != nil {
		t.Fatalf("expected nil for missing request, got %+v", found)
	}
}

func TestAddRequesterOrderAndIdempotence(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if err := store.Create(ctx, sampleRequest()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.AddRequester(ctx, "603", "trinity"); err != nil {
		t.Fatalf("AddRequester: %v", err)
	}
	if err := store.AddRequester(ctx, "603", "neo"); err != nil {
		t.Fatalf("re-adding existing requester: %v", err)
	}

	found, _ := store.FindActive(ctx, "603")
	if len(found.Requesters) != 2 {
		t.Fatalf("expected 2 requesters, got %v", found.Requesters)
	}
	if found.Requesters[0] != "neo" || found.Requesters[1] != "trinity" {
		t.Fatalf("requesters out of order: %v", found.Requesters)
	}
}

func TestAddRequesterMissingRequestIsNoop(t *testing.T) {
	store := openStore(t)
	if err := store.AddRequester(context.Background(), "nope", "neo"); err != nil {
		t.Fatalf("AddRequester on missing request: %v", err)
	}
}

func TestApproveIsOneWay(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if err := store.Create(ctx, sampleRequest()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Approve(ctx, "603"); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if err := store.Approve(ctx, "603"); err != nil {
		t.Fatalf("second Approve should be a no-op: %v", err)
	}

	found, _ := store.FindActive(ctx, "603")
	if !found.Approved {
		t.Fatal("request should be approved")
	}

	if err := store.Approve(ctx, "missing"); !errors.Is(err, request.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetAcquisitionRefUpserts(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if err := store.Create(ctx, sampleRequest()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.SetAcquisitionRef(ctx, "603", "radarr-a", "11"); err != nil {
		t.Fatalf("SetAcquisitionRef: %v", err)
	}
	if err := store.SetAcquisitionRef(ctx, "603", "radarr-a", "12"); err != nil {
		t.Fatalf("SetAcquisitionRef overwrite: %v", err)
	}
	if err := store.SetAcquisitionRef(ctx, "603", "radarr-b", "7"); err != nil {
		t.Fatalf("SetAcquisitionRef second target: %v", err)
	}

	found, _ := store.FindActive(ctx, "603")
	if found.AcquisitionRefs["radarr-a"] != "12" || found.AcquisitionRefs["radarr-b"] != "7" {
		t.Fatalf("unexpected refs: %v", found.AcquisitionRefs)
	}
}

func TestListAndStats(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	first := sampleRequest()
	if err := store.Create(ctx, first); err != nil {
		t.Fatalf("Create: %v", err)
	}
	second := &request.Request{
		ContentID:  "81189",
		Class:      request.ClassSeries,
		Title:      "Breaking Bad",
		Requesters: []string{"walt"},
		Approved:   true,
	}
	if err := store.Create(ctx, second); err != nil {
		t.Fatalf("Create second: %v", err)
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(list))
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Active != 2 || stats.Approved != 1 || stats.Archived != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
