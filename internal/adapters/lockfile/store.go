// Package lockfile persists the hoisting lockfile as YAML at the workspace root.
package lockfile

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	hoistfs "go.trai.ch/hoist/internal/adapters/fs"
	"go.trai.ch/hoist/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Store implements ports.LockfileStore.
type Store struct{}

// NewStore creates a new lockfile store.
func NewStore() *Store {
	return &Store{}
}

// Load reads hoist.lock.yaml under root. It returns nil when the file does not exist.
func (s *Store) Load(root string) (*domain.Lockfile, error) {
	path := filepath.Join(root, domain.LockfileName)
	//nolint:gosec // Path is the lockfile at the workspace root
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.Wrap(err, domain.ErrLockfileReadFailed.Error())
	}

	var lock domain.Lockfile
	if err := yaml.Unmarshal(data, &lock); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrLockfileParseFailed.Error()), "file", path)
	}
	if lock.Version > domain.LockfileVersion {
		return nil, zerr.With(domain.ErrUnsupportedLockfileVersion, "lockfileVersion", lock.Version)
	}
	if lock.Packages == nil {
		lock.Packages = make(map[string]domain.LockedPackage)
	}
	return &lock, nil
}

// Save writes the lockfile atomically. yaml.v3 sorts map keys, so output is stable.
func (s *Store) Save(root string, lock *domain.Lockfile) error {
	data, err := yaml.Marshal(lock)
	if err != nil {
		return zerr.Wrap(err, domain.ErrLockfileWriteFailed.Error())
	}

	path := filepath.Join(root, domain.LockfileName)
	if err := hoistfs.WriteFileAtomic(path, data); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrLockfileWriteFailed.Error()), "file", path)
	}
	return nil
}
