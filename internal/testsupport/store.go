package testsupport

import (
	"context"
	"fmt"
	"testing"

	"partscope/internal/config"
	"partscope/internal/inventory"
)

// MustOpenStore opens an inventory.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *inventory.Store {
	t.Helper()

	store, err := inventory.Open(cfg)
	if err != nil {
		t.Fatalf("inventory.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewItem creates an item with a unique image path for tests.
func NewItem(t testing.TB, store *inventory.Store, name string) *inventory.Item {
	t.Helper()

	item, err := store.Create(context.Background(), inventory.NewItem{
		Name:      name,
		ImagePath: fmt.Sprintf("/inventory/images/%s-%d.png", name, nextFixtureID()),
	})
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return item
}

// Ptr returns a pointer to v; patches use it for optional fields.
func Ptr[T any](v T) *T {
	return &v
}
