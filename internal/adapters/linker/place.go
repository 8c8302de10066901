package linker

import (
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/hoist/internal/core/domain"
	"go.trai.ch/zerr"
)

// place materializes one entry. It reports false when the target was already in place.
func place(root string, entry *domain.PlacementEntry) (bool, error) {
	target := filepath.Join(root, filepath.FromSlash(entry.Target))
	switch entry.Kind {
	case domain.PlacementLocalLink:
		return placeLink(root, target, entry)
	case domain.PlacementSharedCopy, domain.PlacementNestedCopy:
		return placeCopy(root, target, entry)
	default:
		return false, zerr.With(zerr.New("unknown placement kind"), "kind", string(entry.Kind))
	}
}

// placeLink points target at the sibling package with a relative symlink.
func placeLink(root, target string, entry *domain.PlacementEntry) (bool, error) {
	src := filepath.Join(root, filepath.FromSlash(entry.Source))
	rel, err := filepath.Rel(filepath.Dir(target), src)
	if err != nil {
		return false, zerr.Wrap(err, "failed to compute link path")
	}
	if cur, err := os.Readlink(target); err == nil && cur == rel {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(target), domain.DirPerm); err != nil {
		return false, zerr.Wrap(err, "failed to create modules directory")
	}
	if err := os.RemoveAll(target); err != nil {
		return false, zerr.Wrap(err, "failed to remove previous placement")
	}
	if err := os.Symlink(rel, target); err != nil {
		return false, zerr.With(zerr.Wrap(err, "failed to create link"), "source", entry.Source)
	}
	return true, nil
}

// placeCopy builds the copy in a sibling temp directory and renames it over target.
// A copy whose integrity file already records the digest is left alone.
func placeCopy(root, target string, entry *domain.PlacementEntry) (bool, error) {
	if intact(target, entry) {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(target), domain.DirPerm); err != nil {
		return false, zerr.Wrap(err, "failed to create modules directory")
	}
	tmp := target + tmpSuffix
	if err := os.RemoveAll(tmp); err != nil {
		return false, zerr.Wrap(err, "failed to clear temp directory")
	}

	if err := fill(root, tmp, entry); err != nil {
		_ = os.RemoveAll(tmp)
		return false, err
	}
	integrity := filepath.Join(tmp, domain.IntegrityFileName)
	if err := os.WriteFile(integrity, []byte(entry.Digest.String()+"\n"), domain.FilePerm); err != nil {
		_ = os.RemoveAll(tmp)
		return false, zerr.Wrap(err, "failed to write integrity file")
	}

	if err := os.RemoveAll(target); err != nil {
		_ = os.RemoveAll(tmp)
		return false, zerr.Wrap(err, "failed to remove previous placement")
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.RemoveAll(tmp)
		return false, zerr.Wrap(err, "failed to move copy into place")
	}
	return true, nil
}

// fill writes the content of entry into dir. Relative sources live under root.
func fill(root, dir string, entry *domain.PlacementEntry) error {
	if entry.Source == "" {
		if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
			return zerr.Wrap(err, "failed to create copy directory")
		}
		manifest := filepath.Join(dir, domain.ManifestFileName)
		if err := os.WriteFile(manifest, domain.StubManifest(entry.Name, entry.Version), domain.FilePerm); err != nil {
			return zerr.Wrap(err, "failed to write manifest")
		}
		return nil
	}
	src := filepath.FromSlash(entry.Source)
	if !filepath.IsAbs(src) {
		src = filepath.Join(root, src)
	}
	if err := os.CopyFS(dir, os.DirFS(src)); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to copy package content"), "source", entry.Source)
	}
	return nil
}

func intact(target string, entry *domain.PlacementEntry) bool {
	info, err := os.Lstat(target)
	if err != nil || !info.IsDir() {
		return false
	}
	//nolint:gosec // Path is the integrity file of a managed placement
	data, err := os.ReadFile(filepath.Join(target, domain.IntegrityFileName))
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(data)) == entry.Digest.String()
}
