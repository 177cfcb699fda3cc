// Package lock provides an advisory, process-exclusive file lock used to
// serialize ingestion runs against one index.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrLocked is returned when another process holds the lock.
var ErrLocked = errors.New("lock: already held by another process")

// Lock is a held file lock.
type Lock struct {
	path string
	file *os.File
}

// Path returns the lock file location.
func (l *Lock) Path() string { return l.path }

// Acquire takes the lock without blocking.
func Acquire(path string) (*Lock, error) {
	return acquire(path, false)
}

// Wait takes the lock, blocking until it is released by its holder.
func Wait(path string) (*Lock, error) {
	return acquire(path, true)
}

func acquire(path string, wait bool) (*Lock, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("lock: create dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("lock: open %s: %w", path, err)
	}
	if wait {
		err = lockExclusiveBlocking(f)
	} else {
		err = tryLockExclusive(f)
	}
	if err != nil {
		_ = f.Close()
		if errors.Is(err, errWouldBlock) {
			return nil, fmt.Errorf("%w: %s", ErrLocked, path)
		}
		return nil, fmt.Errorf("lock: %s: %w", path, err)
	}
	return &Lock{path: path, file: f}, nil
}

// Release unlocks and closes the lock file. It is safe to call twice.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := unlockFile(l.file)
	if cerr := l.file.Close(); err == nil {
		err = cerr
	}
	l.file = nil
	return err
}
