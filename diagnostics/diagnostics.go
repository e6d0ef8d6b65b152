// Package diagnostics implements the error taxonomy from spec §7.
// Diagnostics are first-class values attached to parse results, never
// thrown; the driver decides when (and whether) one becomes a failure.
package diagnostics

import (
	"fmt"

	"beliefgraph/domain/core/valueobjects"
)

// Severity classifies how a diagnostic should affect the pass that
// produced it.
type Severity int

const (
	// SeverityWarning is recoverable; the pass continues.
	SeverityWarning Severity = iota
	// SeverityPending is non-fatal and retained until resolved or the
	// pass converges without producing new resolutions.
	SeverityPending
	// SeverityFatal aborts the change for the affected file only; prior
	// state for that file is preserved.
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityPending:
		return "pending"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Diagnostic is the common interface every diagnostic kind satisfies.
type Diagnostic interface {
	error
	Severity() Severity
	Path() string
}

// ParseWarning is a recoverable codec issue: a missing optional field or
// a malformed non-fatal construct. The file's contribution to the pass
// is kept.
type ParseWarning struct {
	File   string
	Reason string
}

func (w ParseWarning) Error() string {
	return fmt.Sprintf("%s: parse warning: %s", w.File, w.Reason)
}
func (w ParseWarning) Severity() Severity { return SeverityWarning }
func (w ParseWarning) Path() string       { return w.File }

// UnresolvedReference records a link target not yet known. RequiresRewrite
// is true iff the originating key is of kind Path or Title, or the link's
// auto_title flag is set — i.e. the source text must be refreshed once
// the target resolves (spec §4.3 step 4).
type UnresolvedReference struct {
	File            string
	SelfBid         valueobjects.Bid
	Other           valueobjects.NodeKey
	RequiresRewrite bool
}

func (u UnresolvedReference) Error() string {
	return fmt.Sprintf("%s: unresolved reference %s", u.File, u.Other.String())
}
func (u UnresolvedReference) Severity() Severity { return SeverityPending }
func (u UnresolvedReference) Path() string        { return u.File }

// SinkDependency signals that reparsing bid's owning node touched an
// edge with auto_title=true, so the holder file of that edge must
// reparse to refresh its rendered text (spec §4.4 sink-dependency
// tracking).
type SinkDependency struct {
	File string // the file that must be reparsed
	Bid  valueobjects.Bid
}

func (s SinkDependency) Error() string {
	return fmt.Sprintf("%s: sink-dependency on %s requires reparse", s.File, s.Bid.String())
}
func (s SinkDependency) Severity() Severity { return SeverityWarning }
func (s SinkDependency) Path() string       { return s.File }

// InvariantViolationKind identifies which invariant failed.
type InvariantViolationKind int

const (
	InvariantCycle InvariantViolationKind = iota
	InvariantDanglingEdge
	InvariantReservedNamespace
)

func (k InvariantViolationKind) String() string {
	switch k {
	case InvariantCycle:
		return "cycle"
	case InvariantDanglingEdge:
		return "dangling-edge"
	case InvariantReservedNamespace:
		return "reserved-namespace"
	default:
		return "unknown"
	}
}

// InvariantViolation is fatal for the affected file; prior state for
// that file is preserved (spec §7).
type InvariantViolation struct {
	File   string
	Kind   InvariantViolationKind
	Detail string
}

func (v InvariantViolation) Error() string {
	return fmt.Sprintf("%s: invariant violation (%s): %s", v.File, v.Kind, v.Detail)
}
func (v InvariantViolation) Severity() Severity { return SeverityFatal }
func (v InvariantViolation) Path() string       { return v.File }

// IoError is fatal for the whole pass and propagates upward as a
// BuildError.
type IoError struct {
	File  string
	Cause error
}

func (e IoError) Error() string {
	return fmt.Sprintf("%s: io error: %v", e.File, e.Cause)
}
func (e IoError) Unwrap() error     { return e.Cause }
func (e IoError) Severity() Severity { return SeverityFatal }
func (e IoError) Path() string       { return e.File }

// BuildError wraps a fatal diagnostic that aborted an entire pass (e.g.
// an IoError during write-back). It is what escapes the driver's public
// API as a Go error.
type BuildError struct {
	Diagnostic Diagnostic
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build aborted: %v", e.Diagnostic)
}
func (e *BuildError) Unwrap() error { return e.Diagnostic }

// NewBuildError wraps any diagnostic as a BuildError.
func NewBuildError(d Diagnostic) *BuildError {
	return &BuildError{Diagnostic: d}
}
