package testsupport

import (
	"context"
	"testing"

	"marquee/internal/config"
	"marquee/internal/request"
)

// MustOpenStore opens a request.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *request.Store {
	t.Helper()

	store, err := request.Open(cfg)
	if err != nil {
		t.Fatalf("request.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedUser inserts a user record for tests.
func SeedUser(t testing.TB, store *request.Store, user request.User) {
	t.Helper()
	if err := store.UpsertUser(context.Background(), &user); err != nil {
		t.Fatalf("store.UpsertUser: %v", err)
	}
}

// SeedAdmin inserts an admin record for tests.
func SeedAdmin(t testing.TB, store *request.Store, admin request.Admin) {
	t.Helper()
	if err := store.UpsertAdmin(context.Background(), &admin); err != nil {
		t.Fatalf("store.UpsertAdmin: %v", err)
	}
}

// SeedProfile inserts a profile record for tests.
func SeedProfile(t testing.TB, store *request.Store, profile request.Profile) {
	t.Helper()
	if err := store.UpsertProfile(context.Background(), &profile); err != nil {
		t.Fatalf("store.UpsertProfile: %v", err)
	}
}
