package render

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// ErrRunActive is returned when another render run holds the lock.
var ErrRunActive = errors.New("another render run is active")

// RunLock is an advisory lock on <metadata log>.lock held for a whole run.
type RunLock struct {
	path string
	lock *flock.Flock
}

// LockPath returns the lock file used for a metadata log.
func LockPath(metadataPath string) string {
	return metadataPath + ".lock"
}

// AcquireRunLock takes the run lock without blocking.
func AcquireRunLock(metadataPath string) (*RunLock, error) {
	path := LockPath(metadataPath)
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunActive, path)
	}
	return &RunLock{path: path, lock: lock}, nil
}

// Path returns the lock file location.
func (l *RunLock) Path() string { return l.path }

// Release unlocks. The lock file is left in place.
func (l *RunLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
