// Package linker applies install plans to the workspace filesystem.
package linker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.trai.ch/hoist/internal/core/domain"
	"go.trai.ch/hoist/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	lockRetryInterval = 50 * time.Millisecond
	tmpSuffix         = ".hoist-tmp"
)

// Linker implements ports.Linker.
//
// Entries are applied in plan order under an exclusive workspace lock.
// After each entry a resume marker records the plan fingerprint and index,
// so an interrupted apply of the same plan continues where it stopped.
type Linker struct {
	logger ports.Logger
}

// NewLinker creates a new Linker.
func NewLinker(logger ports.Logger) *Linker {
	return &Linker{logger: logger}
}

// Apply materializes plan under root.
func (l *Linker) Apply(ctx context.Context, root string, plan *domain.InstallPlan) (domain.ApplyResult, error) {
	var result domain.ApplyResult
	if plan == nil {
		plan = &domain.InstallPlan{}
	}
	if err := validateTargets(plan); err != nil {
		return result, err
	}

	lockPath := filepath.Join(root, domain.InstallLockPath())
	lock, err := acquireInstallLock(ctx, lockPath)
	if err != nil {
		wrapped := zerr.With(zerr.Wrap(err, domain.ErrLockAcquireFailed.Error()), "lock", lockPath)
		return result, domain.NewError(domain.KindPlanApply, domain.InstallLockPath(), wrapped)
	}
	defer lock.Release()

	fingerprint := plan.Fingerprint()
	statePath := filepath.Join(root, domain.ApplyStatePath())

	start := l.resumeIndex(statePath, fingerprint, plan)
	if start > 0 {
		result.Resumed = true
		result.Skipped = start
		l.logger.Info(fmt.Sprintf("resuming install after %s", plan.Entries[start-1].Target))
	}

	last := ""
	if start > 0 {
		last = plan.Entries[start-1].Target
	}
	for i := start; i < len(plan.Entries); i++ {
		entry := plan.Entries[i]
		if err := ctx.Err(); err != nil {
			return result, applyError(zerr.Wrap(err, domain.ErrApplyCancelled.Error()), entry.Target, last)
		}

		changed, err := place(root, &entry)
		if err != nil {
			return result, applyError(err, entry.Target, last)
		}
		if changed {
			result.Applied++
			l.logger.Debug(fmt.Sprintf("placed %s (%s)", entry.Target, entry.Kind))
		} else {
			result.Skipped++
		}
		last = entry.Target

		if err := writeState(statePath, applyState{Plan: fingerprint, Index: i, Target: entry.Target}); err != nil {
			return result, applyError(zerr.Wrap(err, "failed to write resume marker"), entry.Target, last)
		}
	}

	installedPath := filepath.Join(root, domain.InstalledPath())
	pruned, err := l.prune(root, installedPath, plan)
	if err != nil {
		return result, applyError(err, "", last)
	}
	result.Pruned = pruned

	if err := writeState(installedPath, installedState{Plan: fingerprint, Targets: plan.Targets()}); err != nil {
		return result, applyError(zerr.Wrap(err, "failed to record installed targets"), "", last)
	}
	if err := os.Remove(statePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return result, applyError(zerr.Wrap(err, "failed to remove resume marker"), "", last)
	}

	return result, nil
}

// resumeIndex returns the first entry to apply, honouring a marker left by
// an interrupted apply of the same plan.
func (l *Linker) resumeIndex(statePath, fingerprint string, plan *domain.InstallPlan) int {
	state, err := readState[applyState](statePath)
	if err != nil {
		l.logger.Warn(fmt.Sprintf("ignoring unreadable resume marker: %v", err))
		return 0
	}
	if state == nil || state.Plan != fingerprint {
		return 0
	}
	if state.Index < 0 || state.Index >= len(plan.Entries) || plan.Entries[state.Index].Target != state.Target {
		return 0
	}
	return state.Index + 1
}

// prune removes targets of the previous successful apply that the new plan no longer has.
func (l *Linker) prune(root, installedPath string, plan *domain.InstallPlan) (int, error) {
	prev, err := readState[installedState](installedPath)
	if err != nil {
		l.logger.Warn(fmt.Sprintf("ignoring unreadable install record: %v", err))
		return 0, nil
	}
	if prev == nil {
		return 0, nil
	}

	keep := make(map[string]struct{}, len(plan.Entries))
	for _, t := range plan.Targets() {
		keep[t] = struct{}{}
	}

	pruned := 0
	for _, t := range prev.Targets {
		if _, ok := keep[t]; ok || !isManagedTarget(t) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(root, filepath.FromSlash(t))); err != nil {
			return pruned, zerr.With(zerr.Wrap(err, "failed to prune stale placement"), "target", t)
		}
		l.logger.Debug(fmt.Sprintf("pruned %s", t))
		pruned++
	}
	return pruned, nil
}

func applyError(err error, target, last string) error {
	wrapped := zerr.Wrap(err, domain.ErrPlanApplyFailed.Error())
	if target != "" {
		wrapped = zerr.With(wrapped, "target", target)
	}
	if last != "" {
		wrapped = zerr.With(wrapped, "last_applied", last)
	}
	subject := target
	if subject == "" {
		subject = domain.InstalledPath()
	}
	return domain.NewError(domain.KindPlanApply, subject, wrapped)
}

// validateTargets rejects targets that would escape the workspace or land outside node_modules.
func validateTargets(plan *domain.InstallPlan) error {
	seen := make(map[string]struct{}, len(plan.Entries))
	for _, e := range plan.Entries {
		if !isManagedTarget(e.Target) {
			return applyError(zerr.With(zerr.New("placement target is not inside node_modules"), "target", e.Target), e.Target, "")
		}
		if _, dup := seen[e.Target]; dup {
			return applyError(zerr.With(domain.ErrPlacementCollision, "target", e.Target), e.Target, "")
		}
		seen[e.Target] = struct{}{}
	}
	return nil
}

// isManagedTarget reports whether target is a clean relative path with a node_modules segment.
func isManagedTarget(target string) bool {
	if target == "" || path.IsAbs(target) || path.Clean(target) != target {
		return false
	}
	managed := false
	for _, seg := range strings.Split(target, "/") {
		if seg == ".." {
			return false
		}
		if seg == domain.ModulesDirName {
			managed = true
		}
	}
	return managed
}
