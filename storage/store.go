package storage

import (
	"context"
	"time"
)

// Cycle is one merged poll cycle as recorded in the session journal.
type Cycle struct {
	ID          string    // uuid of the cycle
	Epoch       string    // mount epoch the cycle ran in
	CollectedAt time.Time // when the batch was fetched
	Merged      int       // measures merged by this cycle
	Pending     int       // buffer length reported before the fetch

	// Running totals after the merge, in milliseconds.
	TotalTime        float64
	CommitTime       float64
	EffectsTime      float64
	LifecycleTime    float64
	Effects          int
	LifecycleMethods int
}

// Store abstracts the journal back-end.
type Store interface {
	// Record stores one cycle. The write is atomic.
	Record(ctx context.Context, c Cycle) error

	// Query returns cycles collected between from and to, ordered by
	// CollectedAt ascending. A zero bound is open.
	Query(ctx context.Context, from, to time.Time) ([]Cycle, error)

	// Reset drops every recorded cycle.
	Reset(ctx context.Context) error

	// Close releases any resources (e.g. DB connections).
	Close() error
}
