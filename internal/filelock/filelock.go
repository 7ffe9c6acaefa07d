// Package filelock guards the persisted state file against concurrent
// bot processes.
package filelock

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// FileLock represents a file-based lock
type FileLock struct {
	path string
	file *os.File
}

// New creates a new file lock for the given path
// The lock file will be created at path + ".lock"
func New(path string) *FileLock {
	return &FileLock{
		path: path + ".lock",
	}
}

// TryLock attempts to acquire an exclusive lock without blocking
// Returns true if the lock was acquired, false otherwise
func (fl *FileLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(fl.path), 0700); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}

	f, err := os.OpenFile(fl.path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return false, fmt.Errorf("failed to open lock file: %w", err)
	}
	fl.file = f

	err = syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	if err != nil {
		f.Close()
		fl.file = nil
		if err == syscall.EWOULDBLOCK {
			return false, nil
		}
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}

	return true, nil
}

// Unlock releases the lock
func (fl *FileLock) Unlock() error {
	if fl.file == nil {
		return nil
	}

	err := syscall.Flock(int(fl.file.Fd()), syscall.LOCK_UN)
	closeErr := fl.file.Close()
	fl.file = nil

	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close lock file: %w", closeErr)
	}

	return nil
}
