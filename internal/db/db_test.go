package db

import (
	"path/filepath"
	"testing"
)

func TestOpenMemory(t *testing.T) {
	database, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	tables := []string{
		"customers", "credits", "credit_usage", "invoices",
		"credit_memos", "sessions", "session_messages",
	}
	for _, table := range tables {
		var count int
		err := database.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count)
		if err != nil {
			t.Errorf("table %s missing after migration: %v", table, err)
		}
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "creditdesk.db")
	database, err := Open(path)
	if err != nil {
		t.Fatalf("Open(%s) error: %v", path, err)
	}
	t.Cleanup(func() { database.Close() })

	var count int
	if err := database.QueryRow("SELECT COUNT(*) FROM customers").Scan(&count); err != nil {
		t.Errorf("querying customers: %v", err)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	database, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	// Running the schema again must be a no-op, not an error.
	if err := database.migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}
