package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"
)

// ErrDestinationLocked reports that another session holds the output lock.
var ErrDestinationLocked = errors.New("output file is in use by another labelling session")

// Lock is an exclusive advisory lock on an output table.
type Lock struct {
	path string
	lock *flock.Flock
}

// LockPath returns the lock file guarding output.
func LockPath(output string) string {
	return output + ".lock"
}

// LockDestination takes the lock for output without blocking.
func LockDestination(output string) (*Lock, error) {
	path := LockPath(output)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire output lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDestinationLocked, output)
	}
	return &Lock{path: path, lock: fl}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }

// Release drops the lock. The lock file is left in place.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release output lock: %w", err)
	}
	return nil
}

// CheckDestination creates the output directory if needed and verifies the
// process may write into it.
func CheckDestination(output string) error {
	dir := filepath.Dir(output)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory %s: %w", dir, err)
	}
	if err := unix.Access(dir, unix.W_OK|unix.X_OK); err != nil {
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	if info, err := os.Stat(output); err == nil && info.IsDir() {
		return fmt.Errorf("output path %s is a directory", output)
	}
	return nil
}
