package consolida

import "fmt"

// Phase is one stage of a consolidation run.
type Phase string

const (
	// PhaseInitialized is the starting phase of every run.
	PhaseInitialized Phase = "initialized"
	// PhaseBackingUp covers the backup of an existing master. The
	// phase is entered even when no master exists yet; it is then a
	// no-op.
	PhaseBackingUp Phase = "backing_up"
	// PhaseExtracting covers the parallel extraction of subordinate
	// documents.
	PhaseExtracting Phase = "extracting"
	// PhaseMerging covers the strictly serial merge and the write of
	// the assembled master.
	PhaseMerging Phase = "merging"
	// PhaseAssembled is the terminal success phase.
	PhaseAssembled Phase = "assembled"
	// PhaseFailed is the terminal failure phase.
	PhaseFailed Phase = "failed"
)

// allowedTransitions fixes the run lifecycle. Backup strictly precedes
// extraction, extraction precedes the merge, and failure is reachable
// from every working phase. The terminal phases allow nothing; a
// failed run is re-invoked from scratch, never resumed.
var allowedTransitions = map[Phase]map[Phase]struct{}{
	PhaseInitialized: {
		PhaseBackingUp: {},
		PhaseFailed:    {},
	},
	PhaseBackingUp: {
		PhaseExtracting: {},
		PhaseFailed:     {},
	},
	PhaseExtracting: {
		PhaseMerging: {},
		PhaseFailed:  {},
	},
	PhaseMerging: {
		PhaseAssembled: {},
		PhaseFailed:    {},
	},
	PhaseAssembled: {},
	PhaseFailed:    {},
}

// ValidatePhase reports whether p names a run phase.
func ValidatePhase(p Phase) error {
	if _, ok := allowedTransitions[p]; !ok {
		return fmt.Errorf("invalid run phase %q", p)
	}
	return nil
}

// ValidateTransition reports whether a run may move from one phase to
// another.
func ValidateTransition(from, to Phase) error {
	if err := ValidatePhase(from); err != nil {
		return err
	}
	if err := ValidatePhase(to); err != nil {
		return err
	}
	if _, ok := allowedTransitions[from][to]; !ok {
		return fmt.Errorf("invalid phase transition: %s -> %s", from, to)
	}
	return nil
}

// Terminal reports whether a phase ends the run.
func Terminal(p Phase) bool {
	return p == PhaseAssembled || p == PhaseFailed
}
