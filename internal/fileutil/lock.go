package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrLocked indicates a lock file already exists.
var ErrLocked = errors.New("lock is held")

// Lock creates path exclusively and writes owner into it. The returned
// function removes the lock; calling it more than once is safe.
func Lock(path string, owner []byte) (func() error, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	if err := os.MkdirAll(filepath.Dir(path), DirPerm); err != nil {
		return nil, fmt.Errorf("creating directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600) //nolint:gosec // G304: path is derived from the home directory
	if errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	if err != nil {
		return nil, fmt.Errorf("creating lock: %w", err)
	}

	_, werr := f.Write(owner)
	cerr := f.Close()
	if werr = errors.Join(werr, cerr); werr != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("writing lock: %w", werr)
	}

	var (
		once      sync.Once
		unlockErr error
	)
	return func() error {
		once.Do(func() { unlockErr = RemoveIfExists(path) })
		return unlockErr
	}, nil
}

// ReadLockOwner returns the owner recorded in a lock file.
func ReadLockOwner(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is derived from the home directory
	if err != nil {
		return "", err
	}
	return string(data), nil
}
