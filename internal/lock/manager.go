package lock

import (
	"context"
	"os"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

var (
	// ErrLockTimeout is returned when acquiring a lock times out.
	ErrLockTimeout = errors.New("timeout acquiring lock")
	// ErrFilenameRequired is returned when a filename is empty.
	ErrFilenameRequired = errors.New("filename is required")
	// ErrNilLock is returned when a nil lock handle is provided to ReleaseLock.
	ErrNilLock = errors.New("nil lock handle")
)

// shortPollInterval is the interval to sleep when polling for a lock.
const shortPollInterval = 10 * time.Millisecond

// LockManager takes shared advisory locks directly on the files being read.
// The file is opened read-only, so locking never creates or modifies anything;
// readers only wait for writers holding an exclusive lock.
type LockManager struct{}

// NewLockManager initializes and returns a new LockManager.
func NewLockManager() *LockManager {
	return &LockManager{}
}

// AcquireReadLock acquires a shared OS-level lock on filename, waiting at most timeout.
func (lm *LockManager) AcquireReadLock(filename string, timeout time.Duration) (*FileLock, error) {
	if filename == "" {
		return nil, ErrFilenameRequired
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	fileLock := flock.New(filename, flock.SetFlag(os.O_RDONLY))
	locked, err := fileLock.TryRLockContext(ctx, shortPollInterval)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrLockTimeout
		}
		return nil, errors.Wrapf(err, "error acquiring read lock for %s", filename)
	}
	if !locked {
		return nil, ErrLockTimeout
	}

	return &FileLock{FilePath: filename, flock: fileLock}, nil
}

// ReleaseLock releases the lock and closes the underlying handle.
func (lm *LockManager) ReleaseLock(lock *FileLock) error {
	if lock == nil {
		return ErrNilLock
	}
	if lock.flock == nil {
		return nil
	}
	if err := lock.flock.Unlock(); err != nil {
		return errors.Wrapf(err, "error releasing lock for %s", lock.FilePath)
	}
	return nil
}

// NoopLockManager hands out handles without touching the file system.
// It is used when locking is disabled.
type NoopLockManager struct{}

// AcquireReadLock returns a handle that holds no OS lock.
func (NoopLockManager) AcquireReadLock(filename string, _ time.Duration) (*FileLock, error) {
	if filename == "" {
		return nil, ErrFilenameRequired
	}
	return &FileLock{FilePath: filename}, nil
}

// ReleaseLock is a no-op for any non-nil handle.
func (NoopLockManager) ReleaseLock(lock *FileLock) error {
	if lock == nil {
		return ErrNilLock
	}
	return nil
}

var (
	_ LockManagerInterface = (*LockManager)(nil)
	_ LockManagerInterface = NoopLockManager{}
)
