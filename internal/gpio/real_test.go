//go:build linux

package gpio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubLine struct {
	values   []int
	setErr   error
	closeErr error
	closed   bool
}

func (l *stubLine) SetValue(v int) error {
	if l.setErr != nil {
		return l.setErr
	}
	l.values = append(l.values, v)
	return nil
}

func (l *stubLine) Close() error {
	l.closed = true
	return l.closeErr
}

func TestRealOutputSet(t *testing.T) {
	line := &stubLine{}
	o := &RealOutput{pin: 21, line: line}

	assert.NoError(t, o.Set(true))
	assert.NoError(t, o.Set(false))
	assert.Equal(t, []int{1, 0}, line.values)
}

func TestRealOutputCloseClearsPin(t *testing.T) {
	line := &stubLine{}
	o := &RealOutput{pin: 21, line: line}

	assert.NoError(t, o.Close())
	assert.Equal(t, []int{0}, line.values)
	assert.True(t, line.closed)
	assert.NoError(t, o.Close(), "second close is a no-op")
}

func TestRealOutputCloseReportsClearFailure(t *testing.T) {
	stuck := errors.New("line busy")
	line := &stubLine{setErr: stuck}
	o := &RealOutput{pin: 21, line: line}

	err := o.Close()
	assert.ErrorIs(t, err, stuck)
	assert.ErrorContains(t, err, "clear pin 21")
	assert.True(t, line.closed, "line is released even when clearing fails")
}

func TestRealOutputCloseJoinsErrors(t *testing.T) {
	setErr, closeErr := errors.New("set"), errors.New("close")
	o := &RealOutput{pin: 21, line: &stubLine{setErr: setErr, closeErr: closeErr}}

	err := o.Close()
	assert.ErrorIs(t, err, setErr)
	assert.ErrorIs(t, err, closeErr)
}
