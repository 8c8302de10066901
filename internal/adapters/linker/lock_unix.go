//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package linker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/hoist/internal/core/domain"
	"golang.org/x/sys/unix"
)

// installLock holds an exclusive flock on the workspace install lock file.
// The kernel releases the flock when the descriptor closes, including on crash.
type installLock struct {
	file *os.File
}

// acquireInstallLock takes the exclusive lock at path, waiting until it is free or ctx ends.
func acquireInstallLock(ctx context.Context, path string) (*installLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return nil, err
	}
	//nolint:gosec // Path is the install lock inside the workspace internal directory
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, err
	}

	for {
		err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return &installLock{file: f}, nil
		}
		if !errors.Is(err, unix.EWOULDBLOCK) {
			_ = f.Close()
			return nil, err
		}
		select {
		case <-ctx.Done():
			_ = f.Close()
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
}

// Release unlocks and closes the lock file. Subsequent calls are no-ops.
func (l *installLock) Release() {
	if l == nil || l.file == nil {
		return
	}
	_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	_ = l.file.Close()
	l.file = nil
}
