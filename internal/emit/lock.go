package emit

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFile is the name of the run lock inside the standard directory.
const LockFile = ".bookmerge.lock"

// ErrLocked is returned when another run holds the output lock.
var ErrLocked = errors.New("another run holds the output lock")

// Lock takes the exclusive run lock of dir without blocking. The caller
// releases it with Unlock.
func Lock(dir string) (*flock.Flock, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	lock := flock.New(filepath.Join(dir, LockFile))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, lock.Path())
	}
	return lock, nil
}
