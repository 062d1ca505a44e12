// Package task runs background jobs for the API server. The only job today
// is the periodic highlight import.
package task

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// SyncFunc performs one import run. since is the start of the previous run,
// or zero on the first run after boot.
type SyncFunc func(ctx context.Context, since time.Time) error

// SyncRunner invokes a sync function on a fixed interval. It runs one sync
// at a time; a slow run simply delays the next tick.
type SyncRunner struct {
	interval time.Duration
	sync     SyncFunc
	logger   *slog.Logger

	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewSyncRunner creates a runner that calls sync every interval.
func NewSyncRunner(interval time.Duration, syncFn SyncFunc, logger *slog.Logger) *SyncRunner {
	if interval <= 0 {
		panic("interval must be positive")
	}
	if syncFn == nil {
		panic("sync function cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &SyncRunner{
		interval:   interval,
		sync:       syncFn,
		logger:     logger.With(slog.String("component", "sync_runner")),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start launches the polling loop. The first sync runs immediately.
func (r *SyncRunner) Start() {
	r.wg.Add(1)
	go r.loop()

	r.logger.Info("sync runner started", slog.Duration("interval", r.interval))
}

// Stop cancels the loop and waits for an in-flight sync to finish.
func (r *SyncRunner) Stop() {
	r.cancelFunc()
	r.wg.Wait()
	r.logger.Info("sync runner stopped")
}

func (r *SyncRunner) loop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	var lastRun time.Time
	for {
		started := time.Now().UTC()
		if err := r.sync(r.ctx, lastRun); err != nil {
			if r.ctx.Err() != nil {
				return
			}
			r.logger.Error("sync run failed", slog.String("error", err.Error()))
		} else {
			lastRun = started
		}

		select {
		case <-ticker.C:
		case <-r.ctx.Done():
			return
		}
	}
}
