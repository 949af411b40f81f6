package consolida

import (
	"errors"
	"fmt"
)

// ErrNoSources indicates the subordinates directory held no
// consolidatable workbook.
var ErrNoSources = errors.New("no consolidatable workbooks found")

// ErrNoValidDocuments indicates no subordinate document survived
// extraction.
var ErrNoValidDocuments = errors.New("no subordinate document survived extraction")

// ErrBackupFailed indicates the existing master could not be backed
// up. The run aborts before touching any document.
var ErrBackupFailed = errors.New("backup failed")

// PhaseError represents a failure in one phase of a consolidation run.
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("consolidation failed in phase %q: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// NewPhaseError creates a new PhaseError.
func NewPhaseError(phase Phase, err error) *PhaseError {
	return &PhaseError{Phase: phase, Err: err}
}
