package fs

import (
	_ "crypto/sha256" // registers the canonical digest algorithm
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"

	"github.com/opencontainers/go-digest"
	"go.trai.ch/hoist/internal/core/domain"
	"go.trai.ch/zerr"
)

// DigestDir computes the canonical digest of a directory tree.
// Files are visited in lexical order; each contributes its slash path and content.
// Integrity markers written by the linker are ignored.
func DigestDir(dir string) (digest.Digest, error) {
	digester := digest.Canonical.Digester()
	hash := digester.Hash()

	err := filepath.WalkDir(dir, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() == domain.IntegrityFileName {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		_, _ = io.WriteString(hash, filepath.ToSlash(rel))
		_, _ = hash.Write([]byte{0})

		f, err := os.Open(path) //nolint:gosec // Path is produced by WalkDir below dir
		if err != nil {
			return err
		}
		defer f.Close() //nolint:errcheck // Best effort close in defer
		if _, err := io.Copy(hash, f); err != nil {
			return err
		}
		_, _ = hash.Write([]byte{0})
		return nil
	})
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to digest directory"), "path", dir)
	}

	return digester.Digest(), nil
}
