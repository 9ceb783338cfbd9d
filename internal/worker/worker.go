package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/mailbridge-core/internal/core/ports/driven"
	"github.com/custodia-labs/mailbridge-core/internal/core/ports/driving"
	"github.com/custodia-labs/mailbridge-core/internal/metrics"
)

// Worker runs the periodic maintenance sweep: it purges expired
// authorization states and proactively refreshes access tokens that
// expire within the refresh window, so interactive requests rarely pay
// the refresh latency.
//
// For multi-instance deployments, configure a DistributedLock so only
// one instance sweeps at a time.
type Worker struct {
	states driven.StateStore
	tokens driving.TokenService
	lock   driven.DistributedLock
	logger *slog.Logger

	// Internal state
	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	// Sweep configuration
	interval      time.Duration
	refreshWindow time.Duration
	refreshLimit  int

	// Lock configuration
	lockTTL      time.Duration
	lockRequired bool
}

// WorkerConfig holds configuration for the maintenance worker.
type WorkerConfig struct {
	States driven.StateStore
	Tokens driving.TokenService
	Lock   driven.DistributedLock // Optional: distributed lock for multi-instance coordination
	Logger *slog.Logger

	SweepInterval time.Duration // How often to sweep (default: 5m)
	RefreshWindow time.Duration // Refresh tokens expiring within this window (default: 10m)
	RefreshLimit  int           // Max connections refreshed per sweep (default: 50)

	LockTTL      time.Duration // TTL for the distributed lock (default: 2x sweep interval)
	LockRequired bool          // If true, skip the sweep when the lock cannot be acquired
}

// NewWorker creates a new maintenance worker.
func NewWorker(cfg WorkerConfig) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	interval := cfg.SweepInterval
	if interval == 0 {
		interval = 5 * time.Minute
	}

	refreshWindow := cfg.RefreshWindow
	if refreshWindow == 0 {
		refreshWindow = 10 * time.Minute
	}

	refreshLimit := cfg.RefreshLimit
	if refreshLimit <= 0 {
		refreshLimit = 50
	}

	lockTTL := cfg.LockTTL
	if lockTTL == 0 {
		lockTTL = 2 * interval
	}

	return &Worker{
		states:        cfg.States,
		tokens:        cfg.Tokens,
		lock:          cfg.Lock,
		logger:        logger,
		interval:      interval,
		refreshWindow: refreshWindow,
		refreshLimit:  refreshLimit,
		lockTTL:       lockTTL,
		lockRequired:  cfg.LockRequired,
	}
}

// Start begins the sweep loop.
// It runs until Stop is called or context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info("worker starting",
		"sweep_interval", w.interval,
		"refresh_window", w.refreshWindow,
		"refresh_limit", w.refreshLimit,
	)

	go w.run(ctx)

	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.stopCh)
	w.mu.Unlock()

	// Wait for the current sweep to finish
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("worker stopped")
}

// run is the main sweep loop.
func (w *Worker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Run immediately on start
	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker context cancelled")
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// sweep purges expired authorization states and refreshes expiring
// tokens. If a distributed lock is configured, it acquires the lock
// first so multiple instances do not refresh the same connections.
func (w *Worker) sweep(ctx context.Context) {
	// Attempt to acquire distributed lock if configured
	if w.lock != nil {
		acquired, err := w.lock.Acquire(ctx, "maintenance", w.lockTTL)
		if err != nil {
			w.logger.Warn("failed to acquire maintenance lock", "error", err)
			if w.lockRequired {
				return // Skip this sweep
			}
			// Fall through if lock not required (single-instance mode)
		} else if !acquired {
			w.logger.Debug("maintenance lock held by another instance, skipping sweep")
			return
		} else {
			// Lock acquired, release when done
			defer func() {
				if err := w.lock.Release(ctx, "maintenance"); err != nil {
					w.logger.Warn("failed to release maintenance lock", "error", err)
				}
			}()
		}
	}

	purged, err := w.states.DeleteExpired(ctx)
	if err != nil {
		w.logger.Error("failed to purge expired auth states", "error", err)
	} else if purged > 0 {
		metrics.StatesPurged.Add(float64(purged))
		w.logger.Info("purged expired auth states", "count", purged)
	}

	report, err := w.tokens.RefreshExpiring(ctx, w.refreshWindow, w.refreshLimit)
	if err != nil {
		w.logger.Error("proactive token refresh failed", "error", err)
		return
	}

	if report.Scanned > 0 {
		w.logger.Info("proactive refresh sweep completed",
			"scanned", report.Scanned,
			"refreshed", report.Refreshed,
			"demoted", report.Demoted,
			"failed", report.Failed,
		)
	}
}
