package repository

import (
	"path/filepath"
	"testing"
)

// newTestDB creates a schema-initialized database in a per-test temp dir
func newTestDB(t *testing.T) *SQLiteDB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "scheduler_test.db")
	db, err := NewSQLiteDB(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.InitSchema(); err != nil {
		t.Fatalf("Failed to init schema: %v", err)
	}
	return db
}
