package deposit

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cosmospool/cosmospool/internal/fileutil"
	poolerr "github.com/cosmospool/cosmospool/pkg/errors"
)

// Guard serializes deposit sequences beyond one Service, for example across
// processes sharing a home directory. Acquire fails with
// ErrSequenceInProgress while another holder has (account, pool).
type Guard interface {
	Acquire(account, pool string) (release func(), err error)
}

// LockDir is the directory under the home directory holding deposit locks.
const LockDir = "locks"

// FileGuard keeps one lock file per (account, pool) in Dir.
type FileGuard struct {
	Dir string
}

// NewFileGuard returns a FileGuard storing its locks under home.
func NewFileGuard(home string) *FileGuard {
	return &FileGuard{Dir: filepath.Join(home, LockDir)}
}

// Path returns the lock file for (account, pool).
func (g *FileGuard) Path(account, pool string) string {
	name := fmt.Sprintf("deposit-%s-%s.lock", strings.ToLower(account), strings.ToLower(pool))
	return filepath.Join(g.Dir, name)
}

// Acquire implements Guard.
func (g *FileGuard) Acquire(account, pool string) (func(), error) {
	path := g.Path(account, pool)
	owner := fmt.Sprintf("pid=%d started=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))

	unlock, err := fileutil.Lock(path, []byte(owner))
	if errors.Is(err, fileutil.ErrLocked) {
		details := map[string]string{"account": account, "pool": pool, "lock": path}
		if held, readErr := fileutil.ReadLockOwner(path); readErr == nil {
			details["holder"] = strings.TrimSpace(held)
		}
		return nil, poolerr.WithSuggestion(
			poolerr.WithDetails(poolerr.ErrSequenceInProgress, details),
			"Wait for the other deposit to finish. If none is running, remove "+path,
		)
	}
	if err != nil {
		return nil, err
	}
	return func() { _ = unlock() }, nil
}
