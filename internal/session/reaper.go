package session

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Reaper periodically closes sessions that have gone idle.
type Reaper struct {
	manager      *Manager
	logger       *slog.Logger
	maxIdle      time.Duration
	pollInterval time.Duration
	running      atomic.Bool
	paused       atomic.Bool
	reaped       atomic.Int64
}

func NewReaper(manager *Manager, maxIdle time.Duration, logger *slog.Logger) *Reaper {
	interval := maxIdle / 4
	if interval < time.Second {
		interval = time.Second
	}
	if interval > time.Minute {
		interval = time.Minute
	}
	return &Reaper{
		manager:      manager,
		logger:       logger,
		maxIdle:      maxIdle,
		pollInterval: interval,
	}
}

// Start blocks until ctx is done.
func (r *Reaper) Start(ctx context.Context) {
	if r.running.Swap(true) {
		return
	}

	r.logger.Info("session reaper started", "max_idle", r.maxIdle, "interval", r.pollInterval)

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("session reaper stopping")
			r.running.Store(false)
			return
		case <-ticker.C:
			if !r.paused.Load() {
				r.Sweep(ctx)
			}
		}
	}
}

// Sweep runs one idle check.
func (r *Reaper) Sweep(ctx context.Context) int {
	n := r.manager.CloseIdle(ctx, r.maxIdle)
	if n > 0 {
		r.reaped.Add(int64(n))
		r.logger.Info("reaped idle sessions", "count", n, "remaining", r.manager.Len())
	}
	return n
}

func (r *Reaper) Pause() {
	r.paused.Store(true)
	r.logger.Info("session reaper paused")
}

func (r *Reaper) Resume() {
	r.paused.Store(false)
	r.logger.Info("session reaper resumed")
}

func (r *Reaper) IsPaused() bool {
	return r.paused.Load()
}

func (r *Reaper) IsRunning() bool {
	return r.running.Load()
}

func (r *Reaper) Reaped() int64 {
	return r.reaped.Load()
}
