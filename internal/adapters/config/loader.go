// Package config discovers workspace packages and loads user settings.
package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/bmatcuk/doublestar/v4"
	"go.trai.ch/hoist/internal/core/domain"
	"go.trai.ch/hoist/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.WorkspaceLoader.
type Loader struct {
	Logger      ports.Logger
	FS          FileSystem
	Concurrency int
}

// NewLoader creates a Loader reading from the host filesystem.
func NewLoader(logger ports.Logger, concurrency int) *Loader {
	return &Loader{Logger: logger, FS: NewOSFS(), Concurrency: concurrency}
}

// DiscoverRoot walks up from cwd to the first directory holding a workspace config.
func (l *Loader) DiscoverRoot(cwd string) (string, error) {
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return "", zerr.With(domain.ErrWorkspaceNotFound, "cwd", cwd)
	}

	current := abs
	for {
		if isWorkspaceRoot(current) {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	return "", domain.NewError(domain.KindDiscovery, "", zerr.With(domain.ErrWorkspaceNotFound, "cwd", abs))
}

func isWorkspaceRoot(dir string) bool {
	for _, name := range []string{domain.WorkFileName, domain.PnpmWorkspaceFileName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	// #nosec G304 -- dir is derived from the caller's working directory
	data, err := os.ReadFile(filepath.Join(dir, domain.ManifestFileName))
	if err != nil {
		return false
	}
	var pkg PackageJSON
	return json.Unmarshal(data, &pkg) == nil && pkg.Workspaces != nil
}

// Load discovers and parses every package of the workspace at root.
func (l *Loader) Load(ctx context.Context, root string) (*domain.Workspace, error) {
	fsys := l.FS.Open(root)

	configFile, patterns, err := readPatterns(fsys)
	if err != nil {
		return nil, domain.NewError(domain.KindDiscovery, configFile, err)
	}
	l.Logger.Debug(fmt.Sprintf("reading packages from %s: %s", configFile, strings.Join(patterns, ", ")))

	dirs, errs := l.expandPatterns(fsys, configFile, patterns)

	manifests, parseErrs, err := l.parseManifests(ctx, fsys, dirs)
	if err != nil {
		return nil, err
	}
	errs = append(errs, parseErrs...)
	errs = append(errs, checkDuplicates(manifests)...)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &domain.Workspace{
		Root:       root,
		ConfigFile: configFile,
		Patterns:   patterns,
		Manifests:  manifests,
	}, nil
}

// readPatterns returns the package patterns and the file they came from.
// The workfile wins over package.json workspaces, which win over pnpm-workspace.yaml.
func readPatterns(fsys fs.FS) (string, []string, error) {
	var workfile Workfile
	found, err := readYAML(fsys, domain.WorkFileName, &workfile)
	if err != nil {
		return domain.WorkFileName, nil, err
	}
	if found {
		return withPatterns(domain.WorkFileName, workfile.Packages)
	}

	data, err := fs.ReadFile(fsys, domain.ManifestFileName)
	if err == nil {
		var pkg PackageJSON
		if jsonErr := json.Unmarshal(data, &pkg); jsonErr != nil {
			return domain.ManifestFileName, nil, zerr.Wrap(jsonErr, domain.ErrConfigParseFailed.Error())
		}
		if pkg.Workspaces != nil {
			return withPatterns(domain.ManifestFileName, pkg.Workspaces.Packages)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return domain.ManifestFileName, nil, zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	var pnpm PnpmWorkspace
	found, err = readYAML(fsys, domain.PnpmWorkspaceFileName, &pnpm)
	if err != nil {
		return domain.PnpmWorkspaceFileName, nil, err
	}
	if found {
		return withPatterns(domain.PnpmWorkspaceFileName, pnpm.Packages)
	}

	return "", nil, domain.ErrWorkspaceNotFound
}

func withPatterns(file string, patterns []string) (string, []string, error) {
	if len(patterns) == 0 {
		return file, nil, domain.ErrNoPatterns
	}
	return file, patterns, nil
}

// readYAML unmarshals name into target. It reports false when the file does not exist.
func readYAML[T any](fsys fs.FS, name string, target *T) (bool, error) {
	data, err := fs.ReadFile(fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return false, zerr.Wrap(err, domain.ErrConfigParseFailed.Error())
	}
	return true, nil
}

// expandPatterns resolves the patterns to package directories, sorted.
// Every positive pattern must contribute at least one package after exclusions.
func (l *Loader) expandPatterns(fsys fs.FS, configFile string, patterns []string) ([]string, []error) {
	var include, exclude []string
	var errs []error

	for _, raw := range patterns {
		pattern, negated := normalizePattern(raw)
		if !doublestar.ValidatePattern(pattern) {
			err := zerr.With(domain.ErrInvalidPattern, "pattern", raw)
			errs = append(errs, domain.NewError(domain.KindDiscovery, configFile, err))
			continue
		}
		if negated {
			exclude = append(exclude, pattern)
		} else {
			include = append(include, pattern)
		}
	}

	found := make(map[string]struct{})
	for _, pattern := range include {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			err = zerr.With(zerr.Wrap(err, domain.ErrInvalidPattern.Error()), "pattern", pattern)
			errs = append(errs, domain.NewError(domain.KindDiscovery, configFile, err))
			continue
		}

		count := 0
		for _, match := range matches {
			if !isPackageDir(fsys, match) || isExcluded(match, exclude) {
				continue
			}
			found[match] = struct{}{}
			count++
		}
		if count == 0 {
			err := zerr.With(domain.ErrPatternNoMatch, "pattern", pattern)
			errs = append(errs, domain.NewError(domain.KindDiscovery, configFile, err))
		}
	}

	dirs := make([]string, 0, len(found))
	for dir := range found {
		dirs = append(dirs, dir)
	}
	slices.Sort(dirs)

	return dirs, errs
}

func normalizePattern(raw string) (string, bool) {
	pattern := strings.TrimSpace(raw)
	pattern, negated := strings.CutPrefix(pattern, "!")
	pattern = strings.TrimPrefix(pattern, "./")
	return path.Clean(pattern), negated
}

func isPackageDir(fsys fs.FS, dir string) bool {
	for _, segment := range strings.Split(dir, "/") {
		if domain.IsIgnoredDir(segment) {
			return false
		}
	}
	info, err := fs.Stat(fsys, dir)
	if err != nil || !info.IsDir() {
		return false
	}
	info, err = fs.Stat(fsys, path.Join(dir, domain.ManifestFileName))
	return err == nil && !info.IsDir()
}

func isExcluded(dir string, exclude []string) bool {
	for _, pattern := range exclude {
		if ok, _ := doublestar.Match(pattern, dir); ok {
			return true
		}
	}
	return false
}

// parseManifests parses every package.json with a bounded worker pool.
// Per-package errors are collected; only cancellation aborts the pool.
func (l *Loader) parseManifests(ctx context.Context, fsys fs.FS, dirs []string) ([]*domain.Manifest, []error, error) {
	results := make([]*domain.Manifest, len(dirs))
	failures := make([]error, len(dirs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.limit())

	for i, dir := range dirs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			m, err := parseManifest(fsys, dir)
			if err != nil {
				failures[i] = domain.NewError(domain.KindDiscovery, dir, err)
				return nil
			}
			results[i] = m
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, zerr.Wrap(err, "discovery interrupted")
	}

	manifests := make([]*domain.Manifest, 0, len(dirs))
	var errs []error
	for i := range dirs {
		if failures[i] != nil {
			errs = append(errs, failures[i])
			continue
		}
		manifests = append(manifests, results[i])
	}
	return manifests, errs, nil
}

func (l *Loader) limit() int {
	if l.Concurrency > 0 {
		return l.Concurrency
	}
	return runtime.NumCPU()
}

func parseManifest(fsys fs.FS, dir string) (*domain.Manifest, error) {
	file := path.Join(dir, domain.ManifestFileName)
	data, err := fs.ReadFile(fsys, file)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrManifestReadFailed.Error())
	}

	var pkg PackageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, zerr.Wrap(err, domain.ErrMalformedManifest.Error())
	}

	if strings.TrimSpace(pkg.Name) == "" {
		return nil, zerr.With(domain.ErrMalformedManifest, "missing_field", "name")
	}
	if pkg.Version == "" {
		return nil, zerr.With(domain.ErrMalformedManifest, "missing_field", "version")
	}
	version, err := semver.StrictNewVersion(pkg.Version)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrMalformedManifest.Error()), "version", pkg.Version)
	}

	raw, err := mergeDependencies(pkg.Dependencies, pkg.DevDependencies)
	if err != nil {
		return nil, err
	}

	deps := make(map[string]domain.DependencySpec, len(raw))
	var errs []error
	for _, name := range slices.Sorted(maps.Keys(raw)) {
		spec, err := domain.ParseDependencySpec(raw[name])
		if err != nil {
			errs = append(errs, zerr.With(err, "dependency", name))
			continue
		}
		deps[name] = spec
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &domain.Manifest{
		ID:           domain.NewPackageID(pkg.Name),
		Name:         pkg.Name,
		Version:      version,
		Dependencies: deps,
		Path:         dir,
	}, nil
}

// mergeDependencies merges dependencies and devDependencies. A name declared in both must agree.
func mergeDependencies(deps, devDeps map[string]string) (map[string]string, error) {
	merged := make(map[string]string, len(deps)+len(devDeps))
	maps.Copy(merged, deps)
	for name, spec := range devDeps {
		if existing, ok := merged[name]; ok && existing != spec {
			err := zerr.With(domain.ErrMalformedManifest, "conflicting_dependency", name)
			err = zerr.With(err, "dependencies", existing)
			return nil, zerr.With(err, "devDependencies", spec)
		}
		merged[name] = spec
	}
	return merged, nil
}

func checkDuplicates(manifests []*domain.Manifest) []error {
	var errs []error
	seen := make(map[string]string, len(manifests))
	for _, m := range manifests {
		if first, ok := seen[m.Name]; ok {
			err := zerr.With(domain.ErrDuplicatePackageName, "package_name", m.Name)
			err = zerr.With(err, "first_occurrence", first)
			err = zerr.With(err, "duplicate_at", m.Path)
			errs = append(errs, domain.NewError(domain.KindDiscovery, m.Path, err))
			continue
		}
		seen[m.Name] = m.Path
	}
	return errs
}
