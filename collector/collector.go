package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"perfpanel/logger"
)

// Evaluator is the transport into the inspected context. It answers one of
// the fixed queries with a JSON-encoded string. The clear query returns an
// empty string. A failure to reach the buffer wraps ErrChannelUnavailable. A
// buffer that was reached but cannot be decoded wraps ErrMalformedResult.
type Evaluator interface {
	Evaluate(ctx context.Context, q Query) (string, error)
}

// Reloader restarts the inspected context so the instrumentation hook gets
// installed on a fresh load.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Channel is the typed view of an Evaluator: the only operations the rest of
// the panel can run against the external buffer.
type Channel struct {
	Eval    Evaluator     // injected for testability
	Log     *zap.Logger   // logger for debugging
	Timeout time.Duration // per-evaluation deadline, 0 disables it
}

// NewChannel returns a ready-to-use channel.
func NewChannel(eval Evaluator, timeout time.Duration, log *zap.Logger) *Channel {
	if log == nil {
		log = zap.NewNop()
	}
	return &Channel{
		Eval:    eval,
		Log:     log,
		Timeout: timeout,
	}
}

// Length returns the number of events currently buffered. A null or negative
// length means the hook is not answering properly and is reported as
// ErrMalformedResult rather than an empty buffer.
func (c *Channel) Length(ctx context.Context) (int, error) {
	var n *int
	if err := c.query(ctx, QueryLength, &n); err != nil {
		return 0, err
	}
	if n == nil {
		return 0, fmt.Errorf("evaluate %s: %w: null length", QueryLength, ErrMalformedResult)
	}
	if *n < 0 {
		return 0, fmt.Errorf("evaluate %s: %w: negative length %d", QueryLength, ErrMalformedResult, *n)
	}
	return *n, nil
}

// Measures returns the normalized measures currently buffered.
func (c *Channel) Measures(ctx context.Context) ([]Measure, error) {
	var out []Measure
	if err := c.query(ctx, QueryMeasures, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RawMeasures returns the raw measures currently buffered.
func (c *Channel) RawMeasures(ctx context.Context) ([]RawMeasure, error) {
	var out []RawMeasure
	if err := c.query(ctx, QueryRawMeasures, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Clear resets the external buffer. The result of the evaluation is ignored.
func (c *Channel) Clear(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	if _, err := c.Eval.Evaluate(ctx, QueryClear); err != nil {
		return fmt.Errorf("evaluate %s: %w", QueryClear, err)
	}
	return nil
}

// Fetch reads both measure sequences concurrently. Either failure fails the
// whole fetch so a batch is never half-populated.
func (c *Channel) Fetch(ctx context.Context) (*Batch, error) {
	batch := NewBatch(time.Now())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := c.Measures(gctx)
		if err != nil {
			return err
		}
		if m != nil {
			batch.Measures = m
		}
		return nil
	})
	g.Go(func() error {
		r, err := c.RawMeasures(gctx)
		if err != nil {
			return err
		}
		if r != nil {
			batch.RawMeasures = r
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.FromContext(ctx, c.Log).Debug("measures fetched",
		zap.Int("measures", len(batch.Measures)),
		zap.Int("raw_measures", len(batch.RawMeasures)))
	return batch, nil
}

func (c *Channel) query(ctx context.Context, q Query, v any) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	res, err := c.Eval.Evaluate(ctx, q)
	if err != nil {
		return fmt.Errorf("evaluate %s: %w", q, err)
	}
	if res == "" {
		return fmt.Errorf("evaluate %s: %w: empty result", q, ErrMalformedResult)
	}
	if err := json.Unmarshal([]byte(res), v); err != nil {
		return fmt.Errorf("decode %s: %w: %s", q, ErrMalformedResult, err)
	}
	return nil
}

func (c *Channel) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.Timeout)
}
