package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryBuffer is an in-process global store. An instrumented Go program
// pushes entries into it and the panel reads it through the Evaluator
// contract, exactly as it would a remote context.
type MemoryBuffer struct {
	mu        sync.Mutex
	buf       Buffer
	installed bool
	torn      bool
	reloads   int
}

// NewMemoryBuffer returns a buffer. When installed is false every query
// fails until Reload is called, as with a page loaded before the hook.
func NewMemoryBuffer(installed bool) *MemoryBuffer {
	return &MemoryBuffer{buf: EmptyBuffer(), installed: installed}
}

// Push records new entries. Entries pushed before the hook is installed
// are lost.
func (m *MemoryBuffer) Push(measures []Measure, raw []RawMeasure) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.installed {
		return
	}
	m.buf.Measures = append(m.buf.Measures, measures...)
	m.buf.RawMeasures = append(m.buf.RawMeasures, raw...)
	m.buf.Length = len(m.buf.Measures)
}

// Snapshot returns a copy of the current buffer.
func (m *MemoryBuffer) Snapshot() Buffer {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := Buffer{
		Length:      m.buf.Length,
		Measures:    append([]Measure{}, m.buf.Measures...),
		RawMeasures: append([]RawMeasure{}, m.buf.RawMeasures...),
	}
	return out
}

// Reloads reports how many times Reload was called.
func (m *MemoryBuffer) Reloads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reloads
}

// TearDown makes every later evaluation fail, like a context that
// navigated away. Reload brings it back.
func (m *MemoryBuffer) TearDown() {
	m.mu.Lock()
	m.torn = true
	m.mu.Unlock()
}

// Reload implements Reloader.
func (m *MemoryBuffer) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buf = EmptyBuffer()
	m.installed = true
	m.torn = false
	m.reloads++
	return nil
}

// Evaluate implements Evaluator.
func (m *MemoryBuffer) Evaluate(ctx context.Context, q Query) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %s", ErrChannelUnavailable, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.torn {
		return "", fmt.Errorf("%w: context torn down", ErrChannelUnavailable)
	}
	if !m.installed {
		return "", fmt.Errorf("%w: %s is not defined", ErrChannelUnavailable, globalStore)
	}

	var v any
	switch q {
	case QueryLength:
		v = m.buf.Length
	case QueryMeasures:
		v = m.buf.Measures
	case QueryRawMeasures:
		v = m.buf.RawMeasures
	case QueryClear:
		m.buf = EmptyBuffer()
		return "", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownQuery, q)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", q, err)
	}
	return string(b), nil
}
