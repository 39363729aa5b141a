//go:build windows

package progress

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cryptogyan1/tgbot/internal/logger"
)

func withFileLock(ctx context.Context, lockPath string, fn func() error) error {
	for {
		file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, filePerm)
		if err == nil {
			defer func() {
				_ = file.Close()
				_ = os.Remove(lockPath)
			}()
			return fn()
		}
		if !errors.Is(err, os.ErrExist) {
			return fmt.Errorf("open lock %s: %w", lockPath, err)
		}
		if removeStaleLock(lockPath, time.Now(), staleLockAge) {
			logger.Warn("removed stale progress lock", "path", lockPath)
			continue
		}
		if waitErr := waitForLockRetry(ctx, lockPath); waitErr != nil {
			return waitErr
		}
	}
}
