package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newBackupFixture(t *testing.T) (*BackupService, string) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "scheduler.db")
	if err := os.WriteFile(dbPath, []byte("database content"), 0644); err != nil {
		t.Fatalf("Failed to write db file: %v", err)
	}
	backupDir := filepath.Join(dir, "backups")
	return NewBackupService(dbPath, backupDir), backupDir
}

func TestBackupCopiesDatabase(t *testing.T) {
	svc, backupDir := newBackupFixture(t)

	path, err := svc.Backup()
	if err != nil {
		t.Fatalf("Backup failed: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), backupPrefix) {
		t.Errorf("Unexpected backup name: %s", path)
	}
	if filepath.Dir(path) != backupDir {
		t.Errorf("Backup written outside backup dir: %s", path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read backup: %v", err)
	}
	if string(content) != "database content" {
		t.Errorf("Backup content mismatch: %s", content)
	}
}

func TestCleanOldBackupsKeepsMostRecent(t *testing.T) {
	svc, backupDir := newBackupFixture(t)
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	// Six fake backups with ascending timestamps in the name.
	for i := 1; i <= 6; i++ {
		name := fmt.Sprintf("%s2026-08-0%d_120000.db", backupPrefix, i)
		if err := os.WriteFile(filepath.Join(backupDir, name), []byte("x"), 0644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}

	if err := svc.CleanOldBackups(); err != nil {
		t.Fatalf("CleanOldBackups failed: %v", err)
	}

	entries, err := os.ReadDir(backupDir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("Expected 4 backups kept, got %d", len(entries))
	}
	// The two oldest must be gone.
	for _, e := range entries {
		if strings.Contains(e.Name(), "2026-08-01") || strings.Contains(e.Name(), "2026-08-02") {
			t.Errorf("Old backup not cleaned: %s", e.Name())
		}
	}
}

func TestGetLastBackupTimeEmptyDir(t *testing.T) {
	svc, _ := newBackupFixture(t)

	ts, err := svc.GetLastBackupTime()
	if err != nil {
		t.Fatalf("GetLastBackupTime failed: %v", err)
	}
	if !ts.IsZero() {
		t.Errorf("Expected zero time without backups, got %v", ts)
	}
}
