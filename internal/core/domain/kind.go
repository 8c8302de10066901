package domain

import (
	"errors"
	"slices"
)

// ErrorKind classifies a failure for reporting and exit codes.
type ErrorKind int

const (
	// KindUnknown is any failure without a classification.
	KindUnknown ErrorKind = iota
	// KindDiscovery covers workspace config and manifest problems.
	KindDiscovery
	// KindUnresolvedWorkspaceDependency is a workspace: reference to a missing package.
	KindUnresolvedWorkspaceDependency
	// KindWorkspaceVersionConflict is a local version outside a workspace: range.
	KindWorkspaceVersionConflict
	// KindSelfDependency is a package depending on itself.
	KindSelfDependency
	// KindExternalVersionConflict is a registry range no available version satisfies.
	KindExternalVersionConflict
	// KindPlanApply is a failure while applying an install plan.
	KindPlanApply
	// KindHoistingRateBelowTarget is a hoisting rate under the configured minimum.
	KindHoistingRateBelowTarget
)

// String returns the name of the kind as used in reports.
func (k ErrorKind) String() string {
	switch k {
	case KindDiscovery:
		return "DiscoveryError"
	case KindUnresolvedWorkspaceDependency:
		return "UnresolvedWorkspaceDependency"
	case KindWorkspaceVersionConflict:
		return "WorkspaceVersionConflict"
	case KindSelfDependency:
		return "SelfDependency"
	case KindExternalVersionConflict:
		return "ExternalVersionConflict"
	case KindPlanApply:
		return "PlanApplyError"
	case KindHoistingRateBelowTarget:
		return "HoistingRateBelowTarget"
	default:
		return "Unknown"
	}
}

// ExitCode maps the kind to the process exit status.
func (k ErrorKind) ExitCode() int {
	if k == KindUnknown {
		return 1
	}
	return int(k) + 1
}

// Error attaches a kind and subject to an underlying error.
// The underlying error is usually a zerr sentinel carrying metadata.
type Error struct {
	Kind    ErrorKind
	Subject string
	err     error
}

// NewError classifies err under kind. Subject names the package or file the error is about.
func NewError(kind ErrorKind, subject string, err error) *Error {
	return &Error{Kind: kind, Subject: subject, err: err}
}

func (e *Error) Error() string {
	if e.Subject == "" {
		return e.err.Error()
	}
	return e.Subject + ": " + e.err.Error()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.err
}

// Errors flattens joined errors into their classified leaves, in join order.
// Unclassified leaves are returned with KindUnknown.
func Errors(err error) []*Error {
	if err == nil {
		return nil
	}
	var out []*Error
	var walk func(error)
	walk = func(e error) {
		if ke, ok := e.(*Error); ok {
			out = append(out, ke)
			return
		}
		if joined, ok := e.(interface{ Unwrap() []error }); ok {
			for _, inner := range joined.Unwrap() {
				walk(inner)
			}
			return
		}
		var ke *Error
		if errors.As(e, &ke) {
			out = append(out, ke)
			return
		}
		out = append(out, &Error{Kind: KindUnknown, err: e})
	}
	walk(err)
	return out
}

// KindOf returns the kind of the first classified error in err.
func KindOf(err error) ErrorKind {
	for _, e := range Errors(err) {
		if e.Kind != KindUnknown {
			return e.Kind
		}
	}
	return KindUnknown
}

// Kinds returns the distinct kinds present in err, in first-seen order.
func Kinds(err error) []ErrorKind {
	var kinds []ErrorKind
	for _, e := range Errors(err) {
		if !slices.Contains(kinds, e.Kind) {
			kinds = append(kinds, e.Kind)
		}
	}
	return kinds
}
