package progress

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	filePerm      = 0o600
	dirPerm       = 0o700
	lockRetryWait = 25 * time.Millisecond

	// staleLockAge bounds how long a lock file left by a dead process blocks writers.
	staleLockAge = 2 * time.Minute
)

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return nil
}

// writeAtomic replaces path with content through a synced temp file and a rename.
func writeAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("write temp for %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp for %s: %w", path, err)
	}
	if err := tmp.Chmod(filePerm); err != nil {
		return fmt.Errorf("chmod temp for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp for %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp for %s: %w", path, err)
	}

	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}

func waitForLockRetry(ctx context.Context, lockPath string) error {
	timer := time.NewTimer(lockRetryWait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %s: %v", ErrLockTimeout, lockPath, ctx.Err())
	case <-timer.C:
		return nil
	}
}

// removeStaleLock deletes lockPath when it was last touched before now-maxAge.
// It reports whether a stale lock was removed.
func removeStaleLock(lockPath string, now time.Time, maxAge time.Duration) bool {
	info, err := os.Stat(lockPath)
	if err != nil || now.Sub(info.ModTime()) < maxAge {
		return false
	}
	return os.Remove(lockPath) == nil
}
