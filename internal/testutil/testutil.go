// Package testutil provides shared test helpers for stores and keyboard catalogs.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/perchsync/internal/keyboard"
	"github.com/starford/perchsync/internal/kvstore"
)

// TestStore creates a temporary SQLite store that is automatically cleaned up.
func TestStore(t *testing.T) *kvstore.SQLite {
	t.Helper()
	dbFile, err := os.CreateTemp("", "perchsync-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	s, err := kvstore.OpenSQLite(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestCatalog writes content to a temporary keyboard set file and loads it.
func TestCatalog(t *testing.T, content string) *keyboard.Catalog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keyboards.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	c := keyboard.NewCatalog(path, Logger())
	if _, err := c.Reload(); err != nil {
		t.Fatal(err)
	}
	return c
}

// Logger returns a logger that discards output.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
