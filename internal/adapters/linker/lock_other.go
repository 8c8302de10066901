//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package linker

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/hoist/internal/core/domain"
)

// installLock is an exclusively created lock file on platforms without flock.
// A crashed run leaves the file behind and it must be removed by hand.
type installLock struct {
	path string
}

// acquireInstallLock creates the lock file at path, waiting until it is free or ctx ends.
func acquireInstallLock(ctx context.Context, path string) (*installLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return nil, err
	}

	for {
		//nolint:gosec // Path is the install lock inside the workspace internal directory
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			_ = f.Close()
			return &installLock{path: path}, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
}

// Release removes the lock file. Subsequent calls are no-ops.
func (l *installLock) Release() {
	if l == nil || l.path == "" {
		return
	}
	_ = os.Remove(l.path)
	l.path = ""
}
