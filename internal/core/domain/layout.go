package domain

import "path/filepath"

const (
	// HoistDirName is the name of the internal workspace directory.
	HoistDirName = ".hoist"

	// WorkFileName is the name of the workspace configuration file.
	WorkFileName = "hoist.work.yaml"

	// PnpmWorkspaceFileName is the pnpm workspace file used when no workfile exists.
	PnpmWorkspaceFileName = "pnpm-workspace.yaml"

	// ManifestFileName is the name of a package manifest.
	ManifestFileName = "package.json"

	// LockfileName is the name of the lockfile at the workspace root.
	LockfileName = "hoist.lock.yaml"

	// ModulesDirName is the directory dependencies are placed in.
	ModulesDirName = "node_modules"

	// IntegrityFileName records the digest of a materialized copy.
	IntegrityFileName = ".hoist-integrity"

	// InstallLockFileName is the exclusive apply lock inside the internal directory.
	InstallLockFileName = "install.lock"

	// ApplyStateFileName is the resume marker inside the internal directory.
	ApplyStateFileName = "apply-state.json"

	// InstalledFileName records the targets of the last successful apply.
	InstalledFileName = "installed.json"

	// RegistryDirName is the default offline registry directory inside the internal directory.
	RegistryDirName = "registry"

	// RegistryIndexFileName is the index file of an offline registry.
	RegistryIndexFileName = "index.yaml"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultHoistPath returns the default root directory for hoist metadata.
func DefaultHoistPath() string {
	return HoistDirName
}

// DefaultRegistryPath returns the default offline registry directory.
// It joins .hoist and registry.
func DefaultRegistryPath() string {
	return filepath.Join(HoistDirName, RegistryDirName)
}

// InstallLockPath returns the install lock path relative to the workspace root.
func InstallLockPath() string {
	return filepath.Join(HoistDirName, InstallLockFileName)
}

// ApplyStatePath returns the resume marker path relative to the workspace root.
func ApplyStatePath() string {
	return filepath.Join(HoistDirName, ApplyStateFileName)
}

// InstalledPath returns the installed-targets record path relative to the workspace root.
func InstalledPath() string {
	return filepath.Join(HoistDirName, InstalledFileName)
}

// IsIgnoredDir reports whether a directory name is never a workspace package or part of one's path.
func IsIgnoredDir(name string) bool {
	return name == ModulesDirName || name == HoistDirName
}
