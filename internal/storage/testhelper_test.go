package storage

import (
	"fmt"
	"net/url"
	"testing"
)

// setupTestSQLite creates a named shared in-memory SQLite store.
// The unique name derived from t.Name() isolates parallel tests.
func setupTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()

	dsn := fmt.Sprintf(
		"file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)",
		url.PathEscape(t.Name()),
	)

	store, err := NewSQLiteStoreDSN(dsn)
	if err != nil {
		t.Fatalf("create test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	return store
}
