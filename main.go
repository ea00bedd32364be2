package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"perfpanel/aggregate"
	"perfpanel/collector"
	"perfpanel/config"
	"perfpanel/logger"
	"perfpanel/poller"
	"perfpanel/presenter"
	"perfpanel/storage"
)

// panel prints the view whenever something the user can see changed.
type panel struct {
	out     io.Writer
	adapter *presenter.Adapter

	mu       sync.Mutex
	printed  bool
	measures int
	pending  int
	hasError bool
}

func (p *panel) update(s poller.Snapshot) {
	vm := p.adapter.Present(presenter.Input{
		Measures:      s.Measures,
		RawMeasures:   s.RawMeasures,
		TotalTime:     s.TotalTime,
		Stats:         s.Stats,
		PendingEvents: s.PendingEvents,
		Loading:       s.Loading,
		HasError:      s.HasError,
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.printed && len(s.Measures) == p.measures && s.PendingEvents == p.pending && s.HasError == p.hasError {
		return
	}
	p.printed = true
	p.measures = len(s.Measures)
	p.pending = s.PendingEvents
	p.hasError = s.HasError
	_ = presenter.WriteSummary(p.out, vm)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	bufferPath := flag.String("buffer", cfg.BufferPath, "Path of the buffer file written by the instrumented app")
	interval := flag.Duration("interval", cfg.PollInterval, "Polling period")
	journalDSN := flag.String("journal", cfg.JournalDSN, "Journal location, \":memory:\" or a file to export cycles into")
	logLevel := flag.String("log-level", cfg.LogLevel, "debug|info|warn|error")
	once := flag.Bool("once", false, "Run a single poll cycle and exit")
	clearOnly := flag.Bool("clear", false, "Clear the buffer and exit")
	flag.Parse()

	cfg.BufferPath = *bufferPath
	cfg.PollInterval = *interval
	cfg.JournalDSN = *journalDSN
	cfg.LogLevel = *logLevel
	if err := cfg.Validate(); err != nil {
		fmt.Println("Invalid configuration:", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Println("Error setting up logger:", err)
		os.Exit(1)
	}
	defer logger.Flush(log.Logger)

	if err := run(cfg, log, *once, *clearOnly); err != nil {
		log.Logger.Error("perfpanel failed", zap.Error(err))
		logger.Flush(log.Logger)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger, once, clearOnly bool) error {
	journal, err := storage.NewSQLite(cfg.JournalDSN, log.Component("journal"))
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer journal.Close()

	eval := collector.NewFileEvaluator(cfg.BufferPath, log.Component("buffer"))
	ch := collector.NewChannel(eval, cfg.EvalTimeout, log.Component("channel"))
	store := aggregate.New()

	p := &panel{
		out:     os.Stdout,
		adapter: presenter.NewAdapter(&presenter.TextRenderer{W: os.Stdout}, cfg.ShowChart, log.Component("presenter")),
	}
	sched := poller.New(ch, eval, store, log.Component("poller"),
		poller.WithInterval(cfg.PollInterval),
		poller.WithJournal(journal),
		poller.WithReloadOnEmpty(cfg.ReloadOnEmpty),
		poller.WithObserver(p.update),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case clearOnly:
		return sched.ClearAll(ctx)
	case once:
		return sched.PollOnce(ctx)
	}

	if err := sched.Mount(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	sched.Unmount()

	cycles, err := journal.Query(context.Background(), time.Time{}, time.Time{})
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}
	snap := sched.Snapshot()
	log.Logger.Info("session finished",
		zap.Int("cycles", len(cycles)),
		zap.Int("measures", store.Len()),
		zap.Float64("total_time_ms", snap.TotalTime),
		zap.Int("reset_failures", snap.ResetFailures))
	return nil
}
