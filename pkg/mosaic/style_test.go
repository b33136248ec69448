package mosaic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStyleStateBasicAttributes(t *testing.T) {
	var st StyleState
	assert.False(t, st.Active())
	assert.Equal(t, "", st.ActiveCodes())
	assert.Equal(t, "", st.LineEndReset())

	st.Process("\x1b[1;31m")
	assert.True(t, st.Active())
	assert.Equal(t, "\x1b[1;31m", st.ActiveCodes())
	assert.Equal(t, "\x1b[0m", st.LineEndReset())

	st.Process("\x1b[0m")
	assert.False(t, st.Active())
}

func TestStyleStateEmptyParamsReset(t *testing.T) {
	var st StyleState
	st.Process("\x1b[4m")
	st.Process("\x1b[m")
	assert.False(t, st.Active())
}

func TestStyleState256Color(t *testing.T) {
	var st StyleState
	st.Process("\x1b[38;5;196m")
	assert.Equal(t, "\x1b[38;5;196m", st.ActiveCodes())

	st.Process("\x1b[48;5;21m")
	assert.Equal(t, "\x1b[38;5;196;48;5;21m", st.ActiveCodes())

	st.Process("\x1b[39;49m")
	assert.False(t, st.Active())
}

func TestStyleStateTrueColor(t *testing.T) {
	var st StyleState
	st.Process("\x1b[48;2;10;20;30m")
	assert.Equal(t, "\x1b[48;2;10;20;30m", st.ActiveCodes())
}

func TestStyleStateBoldDimClearing(t *testing.T) {
	var st StyleState
	st.Process("\x1b[1;2m")
	assert.Equal(t, "\x1b[1;2m", st.ActiveCodes())

	// 22 clears both bold and dim.
	st.Process("\x1b[22m")
	assert.False(t, st.Active())
}

func TestStyleStateSelectiveClear(t *testing.T) {
	var st StyleState
	st.Process("\x1b[3;4;31m")
	st.Process("\x1b[24m")
	assert.Equal(t, "\x1b[3;31m", st.ActiveCodes())
}

func TestStyleStateCombinedSequence(t *testing.T) {
	var st StyleState
	st.Process("\x1b[1;7;38;5;40;44m")
	assert.Equal(t, "\x1b[1;7;38;5;40;44m", st.ActiveCodes())
}

func TestStyleStateIgnoresNonSGR(t *testing.T) {
	var st StyleState
	st.Process("\x1b[2K")
	st.Process("\x1b[10;5H")
	assert.False(t, st.Active())
}

func TestStyleStateProcessString(t *testing.T) {
	var st StyleState
	st.ProcessString("plain \x1b[4munder\x1b[24m then \x1b[91mbright")
	assert.Equal(t, "\x1b[91m", st.ActiveCodes())
}
