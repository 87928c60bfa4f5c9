package gpio

import (
	"errors"
	"sync"
)

// FakeInput is a test double that returns scripted sense readings.
type FakeInput struct {
	// Samples contains scripted readings to return.
	// Each call to Read() consumes the next sample.
	Samples []bool

	// index tracks current position in Samples
	index int

	// Reads counts calls to Read
	Reads int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeInput creates a FakeInput with the given samples.
func NewFakeInput(samples ...bool) *FakeInput {
	return &FakeInput{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeInput) Read() (bool, error) {
	f.Reads++
	if f.ReadError != nil {
		return false, f.ReadError
	}

	if len(f.Samples) == 0 {
		return false, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return sample, nil
}

// Close marks the input as closed.
func (f *FakeInput) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds the input to the beginning of samples.
func (f *FakeInput) Reset() {
	f.index = 0
	f.Reads = 0
	f.Closed = false
}

// FakeOutput records every level it is driven to.
// Safe for concurrent use: the indicator worker writes while tests read.
type FakeOutput struct {
	mu     sync.Mutex
	levels []bool
	closed bool

	// SetError, if set, will be returned by Set (the level is not recorded).
	SetError error
}

// NewFakeOutput creates an empty FakeOutput.
func NewFakeOutput() *FakeOutput {
	return &FakeOutput{}
}

// Set records the level.
func (f *FakeOutput) Set(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetError != nil {
		return f.SetError
	}
	f.levels = append(f.levels, on)
	return nil
}

// Levels returns a copy of every recorded level, oldest first.
func (f *FakeOutput) Levels() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]bool, len(f.levels))
	copy(out, f.levels)
	return out
}

// Close marks the output as closed.
func (f *FakeOutput) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (f *FakeOutput) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
