package consolida

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTransition(t *testing.T) {
	valid := [][2]Phase{
		{PhaseInitialized, PhaseBackingUp},
		{PhaseBackingUp, PhaseExtracting},
		{PhaseExtracting, PhaseMerging},
		{PhaseMerging, PhaseAssembled},
		{PhaseInitialized, PhaseFailed},
		{PhaseBackingUp, PhaseFailed},
		{PhaseMerging, PhaseFailed},
	}
	for _, tr := range valid {
		assert.NoError(t, ValidateTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}

	invalid := [][2]Phase{
		{PhaseInitialized, PhaseExtracting},
		{PhaseInitialized, PhaseMerging},
		{PhaseExtracting, PhaseAssembled},
		{PhaseAssembled, PhaseFailed},
		{PhaseFailed, PhaseInitialized},
		{PhaseMerging, PhaseExtracting},
	}
	for _, tr := range invalid {
		assert.Error(t, ValidateTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}
}

func TestValidatePhase(t *testing.T) {
	assert.NoError(t, ValidatePhase(PhaseMerging))
	assert.Error(t, ValidatePhase(Phase("restarting")))
	assert.Error(t, ValidatePhase(Phase("")))
}

func TestTerminal(t *testing.T) {
	assert.True(t, Terminal(PhaseAssembled))
	assert.True(t, Terminal(PhaseFailed))
	assert.False(t, Terminal(PhaseExtracting))
	assert.False(t, Terminal(PhaseInitialized))
}
