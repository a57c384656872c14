package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"sigmatch/internal/refstore"
)

// NewStore opens a reference store in a per-test temp directory and
// closes it when the test finishes.
func NewStore(t *testing.T) *refstore.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "companies.db")
	store, err := refstore.Open(context.Background(), path, 5)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}
