// Package pipelineerrors classifies run failures so summaries and logs can
// tell an operator problem from a broken environment. Per-record problems
// are never errors; they are counted and dropped by the phase that saw them.
package pipelineerrors

import (
	"errors"
	"fmt"
)

// Kind buckets a run failure by what has to change for a retry to succeed.
type Kind string

const (
	// KindConfig marks unusable configuration or rule tables.
	KindConfig Kind = "config"
	// KindData marks source data a phase could not process at all.
	KindData Kind = "data"
	// KindInfrastructure marks database, broker or graph outages.
	KindInfrastructure Kind = "infrastructure"
	// KindValidation marks a publish-time consistency failure.
	KindValidation Kind = "validation"
)

// RunError is a phase failure that aborts the run.
type RunError struct {
	Kind  Kind
	Phase string
	cause error
}

// Wrap ties a phase failure to its taxonomy bucket. A nil cause returns nil.
func Wrap(kind Kind, phase string, cause error) error {
	if cause == nil {
		return nil
	}

	return &RunError{Kind: kind, Phase: phase, cause: cause}
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Phase, e.cause)
}

func (e *RunError) Unwrap() error {
	return e.cause
}

// KindOf reports the bucket of err. Unclassified errors count as
// infrastructure, the only bucket a blind retry can fix.
func KindOf(err error) Kind {
	var runErr *RunError
	if errors.As(err, &runErr) {
		return runErr.Kind
	}

	return KindInfrastructure
}

// PhaseOf reports the phase that raised err, or "" when unknown.
func PhaseOf(err error) string {
	var runErr *RunError
	if errors.As(err, &runErr) {
		return runErr.Phase
	}

	return ""
}
