package store

import (
	"context"
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/NeverVane/keepsake/internal/logger"
)

// FileLock serializes snippet document rewrites across processes. Locks
// are always exclusive: every mutation is a full read-modify-write of
// the document, so shared access buys nothing.
type FileLock struct {
	path    string
	file    *os.File
	logger  *logger.Logger
	locked  bool
	mu      sync.Mutex
	timeout time.Duration
}

// NewFileLock creates a lock guarding the document at the given lock
// file path. The lock file itself lives on the real filesystem.
func NewFileLock(lockPath string, timeout time.Duration) *FileLock {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &FileLock{
		path:    lockPath,
		logger:  logger.GetLogger().WithComponent("filelock"),
		timeout: timeout,
	}
}

// Lock acquires the lock, retrying until the configured timeout.
func (fl *FileLock) Lock(ctx context.Context) error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.locked {
		return fmt.Errorf("lock already acquired")
	}

	lockCtx, cancel := context.WithTimeout(ctx, fl.timeout)
	defer cancel()

	fl.logger.Debug().
		Str("lock_path", fl.path).
		Dur("timeout", fl.timeout).
		Msg("Attempting to acquire store lock")

	const retryInterval = 100 * time.Millisecond
	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()

	if err := fl.tryLockOnce(); err == nil {
		return nil
	}

	for {
		select {
		case <-lockCtx.Done():
			return fmt.Errorf("failed to acquire store lock within timeout: %w", lockCtx.Err())
		case <-ticker.C:
			if err := fl.tryLockOnce(); err == nil {
				return nil
			}
		}
	}
}

// Unlock releases the lock and removes the lock file.
func (fl *FileLock) Unlock() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if !fl.locked {
		return nil
	}

	var err error
	if fl.file != nil {
		if unlockErr := syscall.Flock(int(fl.file.Fd()), syscall.LOCK_UN); unlockErr != nil {
			fl.logger.Warn().
				Err(unlockErr).
				Str("lock_path", fl.path).
				Msg("Failed to unlock store lock file")
			err = fmt.Errorf("failed to release store lock: %w", unlockErr)
		}
		if closeErr := fl.file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		fl.file = nil
	}
	fl.locked = false

	// Best effort; a stale lock file does not block future locks.
	if removeErr := os.Remove(fl.path); removeErr != nil && !os.IsNotExist(removeErr) {
		fl.logger.Debug().
			Err(removeErr).
			Str("lock_path", fl.path).
			Msg("Failed to remove store lock file")
	}

	return err
}

func (fl *FileLock) tryLockOnce() error {
	file, err := os.OpenFile(fl.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("failed to open store lock file: %w", err)
	}

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		file.Close()
		if err == syscall.EWOULDBLOCK || err == syscall.EAGAIN {
			return fmt.Errorf("store lock is held by another process")
		}
		return fmt.Errorf("failed to acquire store lock: %w", err)
	}

	// PID lands in the lock file so a stuck holder can be identified.
	if _, err := file.WriteString(fmt.Sprintf("%d\n", os.Getpid())); err != nil {
		syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		file.Close()
		return fmt.Errorf("failed to write PID to store lock file: %w", err)
	}

	fl.file = file
	fl.locked = true

	fl.logger.Debug().
		Str("lock_path", fl.path).
		Int("pid", os.Getpid()).
		Msg("Acquired store lock")

	return nil
}
