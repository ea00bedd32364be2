package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"perfpanel/aggregate"
	"perfpanel/collector"
	"perfpanel/logger"
	"perfpanel/stats"
	"perfpanel/storage"
)

// DefaultInterval is the polling period.
const DefaultInterval = 2 * time.Second

// Channel is the part of collector.Channel the scheduler drives.
type Channel interface {
	Length(ctx context.Context) (int, error)
	Fetch(ctx context.Context) (*collector.Batch, error)
	Clear(ctx context.Context) error
}

// Journal records merged cycles. It is optional.
type Journal interface {
	Record(ctx context.Context, c storage.Cycle) error
	Reset(ctx context.Context) error
}

// Snapshot is the scheduler's observable state after a change.
type Snapshot struct {
	State         State
	Epoch         string
	Measures      []collector.Measure
	RawMeasures   []collector.RawMeasure
	TotalTime     float64
	Stats         stats.Stats
	PendingEvents int
	Loading       bool
	HasError      bool
	LastError     error
	ResetFailures int
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithInterval overrides DefaultInterval.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithJournal records every merged cycle in j.
func WithJournal(j Journal) Option {
	return func(s *Scheduler) { s.journal = j }
}

// WithReloadOnEmpty controls the one-shot reload when the first poll after
// mounting an empty store finds an empty buffer. Enabled by default.
func WithReloadOnEmpty(on bool) Option {
	return func(s *Scheduler) { s.reloadOnEmpty = on }
}

// WithObserver registers fn to receive a Snapshot after every change.
// Observers are called one at a time, oldest change first, and must neither
// block nor call back into Mount, Unmount, ClearAll or Reload.
func WithObserver(fn func(Snapshot)) Option {
	return func(s *Scheduler) { s.observers = append(s.observers, fn) }
}

// Scheduler drives the fetch, merge and reset cycle against the external
// buffer on a fixed interval.
//
// Every Mount, Unmount and ClearAll opens a new epoch. A cycle remembers the
// epoch it started in and applies nothing once that epoch is over, so late
// results are dropped by construction. At most one cycle runs at a time.
type Scheduler struct {
	ch       Channel
	reloader collector.Reloader
	store    *aggregate.Store
	log      *zap.Logger

	interval      time.Duration
	journal       Journal
	reloadOnEmpty bool
	observers     []func(Snapshot)

	// notifyMu orders observer calls, journalMu orders journal writes
	// against ClearAll's reset. Both are taken before mu, never after.
	notifyMu  sync.Mutex
	journalMu sync.Mutex

	mu            sync.Mutex
	state         State
	epoch         uuid.UUID
	cancel        context.CancelFunc
	inFlight      bool
	reloadPending bool
	pending       int
	loading       bool
	hasError      bool
	lastErr       error
	resetFailures int
}

// New creates an idle scheduler over store. The store is owned by the
// caller and only mutated through the scheduler while it runs.
func New(ch Channel, reloader collector.Reloader, store *aggregate.Store, log *zap.Logger, opts ...Option) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Scheduler{
		ch:            ch,
		reloader:      reloader,
		store:         store,
		log:           log,
		interval:      DefaultInterval,
		reloadOnEmpty: true,
		epoch:         uuid.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns the current observable state.
func (s *Scheduler) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Mount starts polling. The timer runs until Unmount, ClearAll or the end
// of ctx, so ctx should live as long as the panel does.
func (s *Scheduler) Mount(ctx context.Context) error {
	return s.mount(ctx, s.reloadOnEmpty)
}

func (s *Scheduler) mount(ctx context.Context, reloadOnEmpty bool) error {
	s.mu.Lock()
	if s.state == StatePolling {
		s.mu.Unlock()
		return ErrAlreadyMounted
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.epoch = uuid.New()
	s.cancel = cancel
	s.state = StatePolling
	s.loading = true
	s.reloadPending = reloadOnEmpty && s.store.Len() == 0
	epoch := s.epoch
	s.mu.Unlock()

	s.log.Info("polling started",
		zap.String("epoch", epoch.String()),
		zap.Duration("interval", s.interval))
	go s.loop(loopCtx, epoch)
	s.publish(epoch)
	return nil
}

// Unmount stops the timer. A cycle still in flight finishes without
// touching the store. Unmounting a scheduler that is not polling is a no-op.
func (s *Scheduler) Unmount() {
	s.mu.Lock()
	if s.state != StatePolling {
		s.mu.Unlock()
		return
	}
	s.stopLocked()
	epoch := s.epoch
	s.mu.Unlock()

	s.log.Info("polling stopped")
	s.publish(epoch)
}

// ClearAll stops polling, empties the store and resets the external buffer.
// Polling resumes only through Reload.
func (s *Scheduler) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	s.stopLocked()
	s.store.Clear()
	s.pending = 0
	s.hasError = false
	s.loading = false
	s.lastErr = nil
	epoch := s.epoch
	s.mu.Unlock()

	s.publish(epoch)

	if s.journal != nil {
		// Waits for a journal write still in progress, so no row from the
		// previous epoch survives the reset.
		s.journalMu.Lock()
		err := s.journal.Reset(ctx)
		s.journalMu.Unlock()
		if err != nil {
			s.log.Warn("journal reset failed", zap.Error(err))
		}
	}
	if err := s.ch.Clear(ctx); err != nil {
		return fmt.Errorf("clear external buffer: %w", err)
	}
	s.log.Info("measures cleared")
	return nil
}

// Reload clears everything, restarts the inspected context and polls again.
// A failing external clear is logged, since the context is about to be
// replaced anyway.
func (s *Scheduler) Reload(ctx context.Context) error {
	if err := s.ClearAll(ctx); err != nil {
		s.log.Warn("clear before reload failed", zap.Error(err))
	}
	if err := s.reloader.Reload(ctx); err != nil {
		return fmt.Errorf("reload inspected context: %w", err)
	}
	// The context was just reloaded, so an empty first poll is expected.
	return s.mount(ctx, false)
}

// PollOnce runs a single cycle on the calling goroutine. It works on an idle
// or polling scheduler. After ClearAll or Unmount it returns ErrStopped until
// the next Reload or Mount.
func (s *Scheduler) PollOnce(ctx context.Context) error {
	epoch, err := s.begin()
	if err != nil {
		return err
	}
	defer s.end()
	return s.cycle(ctx, epoch)
}

func (s *Scheduler) loop(ctx context.Context, epoch uuid.UUID) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cur, err := s.begin()
			if errors.Is(err, ErrCycleInFlight) {
				s.log.Debug("cycle in flight, tick skipped")
				continue
			}
			if err != nil {
				return
			}
			if cur != epoch {
				s.end()
				return
			}
			err = s.cycle(ctx, epoch)
			s.end()
			if err != nil && !errors.Is(err, ErrStaleResult) {
				s.log.Debug("poll cycle failed", zap.Error(err))
			}
		}
	}
}

// begin claims the in-flight slot and returns the epoch the cycle runs in.
func (s *Scheduler) begin() (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return uuid.Nil, ErrCycleInFlight
	}
	if s.state == StateStopped {
		return uuid.Nil, ErrStopped
	}
	s.inFlight = true
	return s.epoch, nil
}

func (s *Scheduler) end() {
	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()
}

// cycle is one length, fetch, merge, reset sequence. Every step that
// touches shared state first checks that epoch is still current.
func (s *Scheduler) cycle(ctx context.Context, epoch uuid.UUID) error {
	id := uuid.NewString()
	log := s.log.With(zap.String("cycle", id))
	ctx = logger.WithContext(ctx, log)

	n, err := s.ch.Length(ctx)

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return ErrStaleResult
	}
	if err != nil {
		s.failLocked(err)
		s.mu.Unlock()
		log.Warn("length query failed", zap.Error(err))
		s.publish(epoch)
		return err
	}
	s.hasError = false
	s.lastErr = nil
	s.loading = false
	s.pending = n
	reload := s.reloadPending && n == 0
	s.reloadPending = false
	s.mu.Unlock()

	if n == 0 {
		s.publish(epoch)
		if reload {
			log.Info("buffer empty on first poll, reloading inspected context")
			if err := s.reloader.Reload(ctx); err != nil {
				log.Warn("reload failed", zap.Error(err))
				return fmt.Errorf("reload inspected context: %w", err)
			}
		}
		return nil
	}

	batch, err := s.ch.Fetch(ctx)

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return ErrStaleResult
	}
	if err != nil {
		s.failLocked(err)
		s.mu.Unlock()
		log.Warn("measure fetch failed", zap.Error(err))
		s.publish(epoch)
		return err
	}
	total := s.store.Merge(batch.Measures, batch.RawMeasures)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	log.Debug("measures merged",
		zap.String("epoch", epoch.String()),
		zap.Int("merged", len(batch.Measures)),
		zap.Int("store_len", total))
	s.record(ctx, id, epoch, batch, snap)
	s.publish(epoch)

	// The merged batch must be followed by its reset even if the panel is
	// unmounted or cleared in between, so the reset does not inherit ctx
	// cancellation.
	if err := s.ch.Clear(context.WithoutCancel(ctx)); err != nil {
		s.mu.Lock()
		s.resetFailures++
		s.mu.Unlock()
		log.Error("buffer reset failed, merged events may be counted again",
			zap.Int("merged", len(batch.Measures)),
			zap.Error(err))
		return fmt.Errorf("%w: %w", ErrResetFailed, err)
	}
	return nil
}

func (s *Scheduler) failLocked(err error) {
	s.hasError = true
	s.loading = false
	s.lastErr = err
}

func (s *Scheduler) stopLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.epoch = uuid.New()
	s.state = StateStopped
}

func (s *Scheduler) snapshotLocked() Snapshot {
	raw := s.store.RawMeasures()
	return Snapshot{
		State:         s.state,
		Epoch:         s.epoch.String(),
		Measures:      s.store.Measures(),
		RawMeasures:   raw,
		TotalTime:     stats.TotalTime(raw, s.store.TotalTime()),
		Stats:         stats.Derive(raw),
		PendingEvents: s.pending,
		Loading:       s.loading,
		HasError:      s.hasError,
		LastError:     s.lastErr,
		ResetFailures: s.resetFailures,
	}
}

// record journals a merged cycle unless its epoch ended in the meantime.
func (s *Scheduler) record(ctx context.Context, id string, epoch uuid.UUID, batch *collector.Batch, snap Snapshot) {
	if s.journal == nil {
		return
	}
	s.journalMu.Lock()
	defer s.journalMu.Unlock()

	s.mu.Lock()
	stale := s.epoch != epoch
	s.mu.Unlock()
	if stale {
		return
	}

	c := storage.Cycle{
		ID:               id,
		Epoch:            epoch.String(),
		CollectedAt:      batch.CollectedAt,
		Merged:           len(batch.Measures),
		Pending:          snap.PendingEvents,
		TotalTime:        snap.TotalTime,
		CommitTime:       snap.Stats.CommitChangesTime,
		EffectsTime:      snap.Stats.HostEffectsTime,
		LifecycleTime:    snap.Stats.LifecycleTime,
		Effects:          snap.Stats.TotalEffects,
		LifecycleMethods: snap.Stats.TotalLifecycleMethods,
	}
	if err := s.journal.Record(ctx, c); err != nil {
		logger.FromContext(ctx, s.log).Warn("journal record failed", zap.Error(err))
	}
}

// publish hands the current state to the observers if epoch is still the
// current one. A change from an epoch that has ended is never delivered, and
// deliveries never overtake each other.
func (s *Scheduler) publish(epoch uuid.UUID) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	for _, fn := range s.observers {
		fn(snap)
	}
}
