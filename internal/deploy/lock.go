package deploy

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/hnrobert/ftpmgr/internal/hostfs"
)

const lockRetry = 100 * time.Millisecond

// acquireFileLock takes an exclusive flock on path, waiting until ctx is
// done.
func acquireFileLock(ctx context.Context, path string) (func(), error) {
	local, err := hostfs.Abs(path)
	if err != nil {
		return nil, &TargetError{Path: path, Op: "lock", Err: err}
	}
	if err := hostfs.EnsureDir(filepath.Dir(local), DirMode); err != nil {
		return nil, &TargetError{Path: path, Op: "lock", Err: err}
	}
	fl := flock.New(local)
	ok, err := fl.TryLockContext(ctx, lockRetry)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLocked, path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	return func() { _ = fl.Unlock() }, nil
}
