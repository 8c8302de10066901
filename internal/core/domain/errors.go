package domain

import "go.trai.ch/zerr"

var (
	// ErrWorkspaceNotFound is returned when no workspace config exists in the directory or any parent.
	ErrWorkspaceNotFound = zerr.New("could not find hoist.work.yaml, pnpm-workspace.yaml or a package.json with workspaces")

	// ErrConfigReadFailed is returned when the workspace config cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read workspace config")

	// ErrConfigParseFailed is returned when the workspace config cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse workspace config")

	// ErrNoPatterns is returned when the workspace config lists no package patterns.
	ErrNoPatterns = zerr.New("workspace config lists no package patterns")

	// ErrInvalidPattern is returned when a package pattern is not a valid glob.
	ErrInvalidPattern = zerr.New("invalid package pattern")

	// ErrPatternNoMatch is returned when a positive package pattern matches no package.
	ErrPatternNoMatch = zerr.New("package pattern matched no packages")

	// ErrManifestReadFailed is returned when a package.json cannot be read.
	ErrManifestReadFailed = zerr.New("failed to read manifest")

	// ErrMalformedManifest is returned when a package.json is not valid.
	ErrMalformedManifest = zerr.New("malformed manifest")

	// ErrDuplicatePackageName is returned when two workspace packages declare the same name.
	ErrDuplicatePackageName = zerr.New("duplicate package name")

	// ErrInvalidDependencySpec is returned when a dependency spec cannot be parsed.
	ErrInvalidDependencySpec = zerr.New("invalid dependency spec")

	// ErrUnresolvedWorkspaceDependency is returned when a workspace: reference names no local package.
	ErrUnresolvedWorkspaceDependency = zerr.New("workspace dependency does not name a local package")

	// ErrWorkspaceVersionConflict is returned when a local package does not satisfy a workspace: range.
	ErrWorkspaceVersionConflict = zerr.New("local package version does not satisfy workspace range")

	// ErrSelfDependency is returned when a package depends on itself.
	ErrSelfDependency = zerr.New("package depends on itself")

	// ErrExternalVersionConflict is returned when a registry range admits no available version.
	ErrExternalVersionConflict = zerr.New("no available version satisfies range")

	// ErrPackageNotFound is returned when the registry does not know a package.
	ErrPackageNotFound = zerr.New("package not found in registry")

	// ErrVersionNotFound is returned when the registry does not know a version of a package.
	ErrVersionNotFound = zerr.New("version not found in registry")

	// ErrRegistryReadFailed is returned when the registry index cannot be read.
	ErrRegistryReadFailed = zerr.New("failed to read registry index")

	// ErrRegistryParseFailed is returned when the registry index cannot be parsed.
	ErrRegistryParseFailed = zerr.New("failed to parse registry index")

	// ErrInvalidDigest is returned when a registry digest is not of the form algorithm:hex.
	ErrInvalidDigest = zerr.New("invalid content digest")

	// ErrRegistryLookupFailed is returned when a registry lookup fails for a reason other than an unknown package.
	ErrRegistryLookupFailed = zerr.New("registry lookup failed")

	// ErrMissingResolution is returned when the planner meets an external edge without a resolution.
	ErrMissingResolution = zerr.New("external dependency has no resolution")

	// ErrPlacementCollision is returned when two plan entries share a target.
	ErrPlacementCollision = zerr.New("two placements share a target")

	// ErrPlanApplyFailed is returned when applying an install plan fails.
	ErrPlanApplyFailed = zerr.New("failed to apply install plan")

	// ErrApplyCancelled is returned when an apply is interrupted between entries.
	ErrApplyCancelled = zerr.New("install plan apply cancelled")

	// ErrLockAcquireFailed is returned when the workspace install lock cannot be taken.
	ErrLockAcquireFailed = zerr.New("failed to acquire workspace install lock")

	// ErrLockfileReadFailed is returned when the lockfile cannot be read.
	ErrLockfileReadFailed = zerr.New("failed to read lockfile")

	// ErrLockfileParseFailed is returned when the lockfile cannot be parsed.
	ErrLockfileParseFailed = zerr.New("failed to parse lockfile")

	// ErrLockfileWriteFailed is returned when the lockfile cannot be written.
	ErrLockfileWriteFailed = zerr.New("failed to write lockfile")

	// ErrUnsupportedLockfileVersion is returned when the lockfile version is newer than this binary understands.
	ErrUnsupportedLockfileVersion = zerr.New("unsupported lockfile version")

	// ErrSettingsReadFailed is returned when the user settings file cannot be read.
	ErrSettingsReadFailed = zerr.New("failed to read settings")

	// ErrInvalidSettings is returned when a settings value is out of range.
	ErrInvalidSettings = zerr.New("invalid settings")

	// ErrConsumerNotFound is returned by why when the consumer is not a workspace package.
	ErrConsumerNotFound = zerr.New("consumer is not a workspace package")

	// ErrDependencyNotFound is returned by why when the consumer does not declare the dependency.
	ErrDependencyNotFound = zerr.New("consumer does not declare dependency")

	// ErrHoistingRateBelowTarget is returned when the hoisting rate is below the configured minimum.
	ErrHoistingRateBelowTarget = zerr.New("hoisting rate below target")
)
