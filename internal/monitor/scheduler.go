// storewatch - Mobile App Listing Availability Monitor
// SPDX-License-Identifier: AGPL-3.0-or-later

package monitor

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/storewatch/storewatch/internal/logging"
)

// Scheduler triggers batch runs on a fixed interval inside the process,
// for deployments without an external cron. Disabled when the interval
// is zero. Overlapping runs are skipped, never queued.
type Scheduler struct {
	engine   *Engine
	interval time.Duration
	running  atomic.Bool
}

// NewScheduler creates a scheduler around the given engine.
func NewScheduler(engine *Engine, interval time.Duration) *Scheduler {
	return &Scheduler{engine: engine, interval: interval}
}

// Run blocks until ctx is done, triggering a batch every interval.
// Returns immediately when the scheduler is disabled.
func (s *Scheduler) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}

	logging.Info().
		Str("interval", s.interval.String()).
		Msg("monitor scheduler started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("monitor scheduler stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// runOnce executes a single scheduled batch unless one is in flight.
func (s *Scheduler) runOnce(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		logging.Warn().Msg("previous batch still running, skipping scheduled run")
		return
	}
	defer s.running.Store(false)

	summary, err := s.engine.Run(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("scheduled batch run failed")
		return
	}
	logging.Info().
		Int("checked", summary.Checked).
		Msg("scheduled batch run finished")
}
