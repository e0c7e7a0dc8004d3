// storewatch - Mobile App Listing Availability Monitor
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package monitor implements the batch reconciliation loop: load the
// watch-list, probe each Online app's listing, apply the resulting
// status transition idempotently, and record alert events for removals.
//
// Execution is deliberately sequential with a fixed minimum spacing
// between probes (see Pacer); one slow, rate-limited worker is the
// mechanism that keeps the external platform's bot defenses quiet.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/storewatch/storewatch/internal/logging"
	"github.com/storewatch/storewatch/internal/models"
	"github.com/storewatch/storewatch/internal/notify"
	"github.com/storewatch/storewatch/internal/prober"
	"github.com/storewatch/storewatch/internal/store"
)

// Summary aggregates one batch run. Results preserve watch-list load
// order; Checked equals the number of apps actually processed, so a
// canceled run reports its partial progress instead of discarding it.
type Summary struct {
	Checked  int                  `json:"checked"`
	Canceled bool                 `json:"canceled,omitempty"`
	Results  []models.CheckResult `json:"results"`
}

// Empty reports whether the run had nothing to do. A canceled run is
// never empty: it had work and did not get to it.
func (s *Summary) Empty() bool {
	return s.Checked == 0 && !s.Canceled
}

// Engine drives batch runs. All collaborators are injected so tests run
// against fakes with a zero-delay pacer.
type Engine struct {
	apps     store.AppStore
	alerts   store.AlertStore
	prober   prober.Prober
	pacer    Pacer
	notifier notify.Notifier

	// now is the clock for status transitions, injectable in tests.
	now func() time.Time
}

// NewEngine creates a monitor engine. A nil notifier disables outbound
// notifications; a nil pacer disables probe spacing.
func NewEngine(apps store.AppStore, alerts store.AlertStore, p prober.Prober, pacer Pacer, notifier notify.Notifier) *Engine {
	if pacer == nil {
		pacer = NopPacer{}
	}
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &Engine{
		apps:     apps,
		alerts:   alerts,
		prober:   p,
		pacer:    pacer,
		notifier: notifier,
		now:      time.Now,
	}
}

// Run executes one batch over all Online apps.
//
// Per-app failures (probe or persistence) are isolated into that app's
// error result and never abort the rest of the batch. Only a failure to
// load the watch-list itself aborts the run with a top-level error.
// Context cancellation stops starting new per-app work; apps already
// processed stay in the returned partial summary.
func (e *Engine) Run(ctx context.Context) (*Summary, error) {
	start := e.now()

	apps, err := e.apps.ListAppsByStatus(ctx, models.StatusOnline)
	if err != nil {
		batchRunsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("failed to load watch-list: %w", err)
	}

	if len(apps) == 0 {
		logging.Ctx(ctx).Info().Msg("no apps to monitor")
		batchRunsTotal.WithLabelValues("empty").Inc()
		return &Summary{}, nil
	}

	summary := &Summary{Results: make([]models.CheckResult, 0, len(apps))}

	for i := range apps {
		// Spacing before every probe keeps the aggregate minimum
		// inter-request interval even across immediate retries. A
		// pacer error only ever means the context is done.
		if err := e.pacer.Wait(ctx); err != nil {
			summary.Canceled = true
			logging.Ctx(ctx).Warn().
				Int("processed", len(summary.Results)).
				Int("remaining", len(apps)-i).
				Msg("batch canceled, returning partial results")
			break
		}

		result := e.checkApp(ctx, &apps[i])
		summary.Results = append(summary.Results, result)
	}

	summary.Checked = len(summary.Results)
	runResult := "ok"
	if summary.Canceled {
		runResult = "canceled"
	}
	batchRunsTotal.WithLabelValues(runResult).Inc()
	batchDuration.Observe(e.now().Sub(start).Seconds())

	logging.Ctx(ctx).Info().
		Int("checked", summary.Checked).
		Bool("canceled", summary.Canceled).
		Msg("batch run finished")

	return summary, nil
}

// checkApp probes one app and reconciles the outcome. Any error along
// the way becomes this app's error result; stored state is only touched
// after a conclusive probe.
func (e *Engine) checkApp(ctx context.Context, app *models.WatchedApp) models.CheckResult {
	alive, err := e.prober.Probe(ctx, app)
	if err != nil {
		// Inconclusive: a transport failure must never be recorded
		// as a removal, so nothing is persisted here.
		logging.Ctx(ctx).Error().
			Err(err).
			Int64("app_id", app.ID).
			Str("package_id", app.PackageID).
			Msg("probe failed")
		checksTotal.WithLabelValues(outcomeError).Inc()
		return models.ErrorResult(app, err)
	}

	return e.reconcile(ctx, app, alive)
}

// reconcile applies the transition implied by a conclusive probe.
func (e *Engine) reconcile(ctx context.Context, app *models.WatchedApp, alive bool) models.CheckResult {
	now := e.now()

	if alive {
		if err := e.apps.UpdateLastCheck(ctx, app.ID, now); err != nil {
			checksTotal.WithLabelValues(outcomeError).Inc()
			return models.ErrorResult(app, err)
		}
		checksTotal.WithLabelValues(outcomeOnline).Inc()
		return models.OnlineResult(app)
	}

	logging.Ctx(ctx).Warn().
		Int64("app_id", app.ID).
		Str("name", app.Name).
		Str("package_id", app.PackageID).
		Msg("app listing removed")

	// Status first, alert second. If the alert append fails the app
	// stays Removed without a matching alert row; that gap is accepted
	// and surfaced as the app's error result rather than rolled back.
	if err := e.apps.MarkRemoved(ctx, app.ID, now); err != nil {
		checksTotal.WithLabelValues(outcomeError).Inc()
		return models.ErrorResult(app, err)
	}

	event := models.NewAlertEvent(app, now)
	if err := e.alerts.InsertAlert(ctx, event); err != nil {
		logging.Ctx(ctx).Error().
			Err(err).
			Int64("app_id", app.ID).
			Msg("status updated but alert append failed")
		checksTotal.WithLabelValues(outcomeError).Inc()
		return models.ErrorResult(app, err)
	}
	alertsRecordedTotal.Inc()

	// Best-effort outbound notification; failures are logged and never
	// alter the batch outcome.
	if e.notifier.Enabled() {
		if err := e.notifier.Send(ctx, app, event); err != nil {
			logging.Ctx(ctx).Error().
				Err(err).
				Str("notifier", e.notifier.Name()).
				Int64("app_id", app.ID).
				Msg("alert notification failed")
		}
	}

	checksTotal.WithLabelValues(outcomeRemoved).Inc()
	return models.RemovedResult(app)
}
