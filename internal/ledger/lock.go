package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"
)

// ApplyLock is an advisory lock file serializing ledger applies.
// At most one apply may be in flight against a planning directory.
type ApplyLock struct {
	// PID is the process ID holding the lock.
	PID int `yaml:"pid"`
	// AcquiredAt is when the lock was taken.
	AcquiredAt time.Time `yaml:"acquired_at"`
}

// lockFileName is the lock file kept alongside the ledger documents.
const lockFileName = ".apply.lock"

// LockPath returns the path of the apply lock for a planning directory.
func LockPath(dir string) string {
	return filepath.Join(dir, lockFileName)
}

// AcquireLock takes the apply lock for dir. A stale lock (holder process
// gone) is cleaned up and re-acquired.
func AcquireLock(dir string) error {
	existing, err := loadLock(dir)
	if err != nil {
		return err
	}
	if existing != nil {
		if isProcessRunning(existing.PID) {
			return fmt.Errorf("ledger is locked by PID %d since %s",
				existing.PID, existing.AcquiredAt.Format(time.RFC3339))
		}
		_ = ReleaseLock(dir)
	}

	lock := &ApplyLock{PID: os.Getpid(), AcquiredAt: time.Now()}
	data, err := yaml.Marshal(lock)
	if err != nil {
		return fmt.Errorf("marshaling lock: %w", err)
	}
	return AtomicWriteFile(LockPath(dir), data)
}

// ReleaseLock removes the apply lock for dir.
func ReleaseLock(dir string) error {
	if err := os.Remove(LockPath(dir)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing lock file: %w", err)
	}
	return nil
}

// loadLock reads the lock file. Returns nil and no error when absent.
func loadLock(dir string) (*ApplyLock, error) {
	data, err := os.ReadFile(LockPath(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading lock file: %w", err)
	}

	var lock ApplyLock
	if err := yaml.Unmarshal(data, &lock); err != nil {
		return nil, fmt.Errorf("parsing lock file: %w", err)
	}
	return &lock, nil
}

// isProcessRunning checks if a process with the given PID exists.
func isProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// On Unix, FindProcess always succeeds. Send signal 0 to check existence.
	err = process.Signal(syscall.Signal(0))
	return err == nil
}
