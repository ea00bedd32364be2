package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// FileEvaluator answers the query set from a buffer dump written by the
// observed process. The file holds a Buffer in JSON or YAML. A missing file
// means the hook has not been installed yet.
type FileEvaluator struct {
	Path string
	Log  *zap.Logger

	mu sync.Mutex
}

// NewFileEvaluator creates an evaluator bound to path.
func NewFileEvaluator(path string, log *zap.Logger) *FileEvaluator {
	if log == nil {
		log = zap.NewNop()
	}
	return &FileEvaluator{Path: path, Log: log}
}

// Evaluate implements Evaluator.
func (f *FileEvaluator) Evaluate(ctx context.Context, q Query) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %s", ErrChannelUnavailable, err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if q == QueryClear {
		if err := f.write(EmptyBuffer()); err != nil {
			return "", err
		}
		return "", nil
	}

	buf, err := f.read()
	if err != nil {
		return "", err
	}

	var v any
	switch q {
	case QueryLength:
		v = buf.Length
	case QueryMeasures:
		v = buf.Measures
	case QueryRawMeasures:
		v = buf.RawMeasures
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownQuery, q)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", q, err)
	}
	return string(b), nil
}

// Reload installs an empty buffer, the file equivalent of a fresh page load.
func (f *FileEvaluator) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Log.Info("reloading buffer file", zap.String("path", f.Path))
	return f.write(EmptyBuffer())
}

func (f *FileEvaluator) read() (Buffer, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return Buffer{}, fmt.Errorf("%w: buffer %s not installed", ErrChannelUnavailable, f.Path)
	}
	if err != nil {
		return Buffer{}, fmt.Errorf("%w: read buffer: %s", ErrChannelUnavailable, err)
	}
	var buf Buffer
	// YAML is a superset of the JSON the hook writes, so one decoder covers both.
	if err := yaml.Unmarshal(data, &buf); err != nil {
		return Buffer{}, fmt.Errorf("%w: %s: %s", ErrMalformedResult, f.Path, err)
	}
	if buf.Measures == nil {
		buf.Measures = []Measure{}
	}
	if buf.RawMeasures == nil {
		buf.RawMeasures = []RawMeasure{}
	}
	return buf, nil
}

// write replaces the file atomically so a concurrent reader in the observed
// process never sees a partial buffer.
func (f *FileEvaluator) write(buf Buffer) error {
	data, err := json.Marshal(buf)
	if err != nil {
		return fmt.Errorf("encode buffer: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.Path), ".buffer-*")
	if err != nil {
		return fmt.Errorf("%w: create temp buffer: %s", ErrChannelUnavailable, err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("%w: write buffer: %s", ErrChannelUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("%w: close buffer: %s", ErrChannelUnavailable, err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("%w: replace buffer: %s", ErrChannelUnavailable, err)
	}
	return nil
}
