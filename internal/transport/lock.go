package transport

import (
	"errors"
	"os"
	"syscall"
	"time"

	singleinstance "github.com/allan-simon/go-singleinstance"
)

// errLockReplaced means the lock file kept being replaced while it was taken.
var errLockReplaced = errors.New("lock file replaced while locking")

// acquireLock takes the exclusive lock at path. A lock on an inode that was
// unlinked in the meantime is dropped and retried, so the returned lock is
// always the one other processes see at path.
func acquireLock(path string) (*os.File, error) {
	for attempt := 0; attempt < 3; attempt++ {
		lock, err := singleinstance.CreateLockFile(path)
		if err != nil {
			return nil, err
		}
		if sameLock(lock, path) {
			return lock, nil
		}
		_ = lock.Close()
	}
	return nil, errLockReplaced
}

// waitLock retries acquireLock while another process holds the lock, until
// timeout passes.
func waitLock(path string, timeout time.Duration) (*os.File, error) {
	deadline := time.Now().Add(timeout)
	for {
		lock, err := acquireLock(path)
		if err == nil || !lockHeld(err) || time.Now().After(deadline) {
			return lock, err
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// lockHeld reports whether err means another process holds the lock, as
// opposed to the lock file being unusable.
func lockHeld(err error) bool {
	return errors.Is(err, syscall.EWOULDBLOCK) ||
		errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, errLockReplaced)
}

func sameLock(lock *os.File, path string) bool {
	held, err := lock.Stat()
	if err != nil {
		return false
	}
	onDisk, err := os.Stat(path)
	if err != nil {
		return false
	}
	return os.SameFile(held, onDisk)
}
