package progress

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRemoveStaleLock(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "progress.json.lock")
	if err := os.WriteFile(lockPath, nil, filePerm); err != nil {
		t.Fatal(err)
	}
	now := time.Now()

	if removeStaleLock(lockPath, now, time.Minute) {
		t.Fatal("a fresh lock must be left alone")
	}
	if _, err := os.Stat(lockPath); err != nil {
		t.Fatalf("lock should still exist: %v", err)
	}

	if !removeStaleLock(lockPath, now.Add(2*time.Minute), time.Minute) {
		t.Fatal("expected an old lock to be removed")
	}
	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Errorf("expected lock file gone, got %v", err)
	}

	if removeStaleLock(lockPath, now.Add(time.Hour), time.Minute) {
		t.Error("a missing lock is not stale")
	}
}
