package lock

import (
	"time"

	"github.com/gofrs/flock"
)

// FileLock represents a handle to a shared OS-level file lock.
type FileLock struct {
	FilePath string
	flock    *flock.Flock
}

// Held reports whether the handle owns an OS lock.
func (l *FileLock) Held() bool {
	return l != nil && l.flock != nil && l.flock.RLocked()
}

// LockManagerInterface is implemented by lock managers used by the line reader.
// Every handle returned by AcquireReadLock must be given back to ReleaseLock.
type LockManagerInterface interface {
	AcquireReadLock(filePath string, timeout time.Duration) (*FileLock, error)
	ReleaseLock(lock *FileLock) error
}
