// storewatch - Mobile App Listing Availability Monitor
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/storewatch/storewatch/internal/logging"
	"github.com/storewatch/storewatch/internal/monitor"
	"github.com/storewatch/storewatch/internal/store"
)

// BatchRunner triggers one monitoring batch. Satisfied by monitor.Engine.
type BatchRunner interface {
	Run(ctx context.Context) (*monitor.Summary, error)
}

// Pinger reports backing-store reachability for the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the handler dependencies.
type Server struct {
	runner BatchRunner
	apps   store.AppStore
	alerts store.AlertStore
	pinger Pinger
}

// NewServer creates the API server. pinger may be nil, in which case the
// readiness probe only checks process liveness.
func NewServer(runner BatchRunner, apps store.AppStore, alerts store.AlertStore, pinger Pinger) *Server {
	return &Server{runner: runner, apps: apps, alerts: alerts, pinger: pinger}
}

// runResponse is the trigger response for a non-empty batch.
type runResponse struct {
	Success bool `json:"success"`
	monitor.Summary
}

// handleMonitorRun executes one batch synchronously and reports the
// per-app outcomes. An empty watch-list is a distinct, successful
// outcome rather than a zero-length result set.
func (s *Server) handleMonitorRun(w http.ResponseWriter, r *http.Request) {
	summary, err := s.runner.Run(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("batch run failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if summary.Empty() {
		respondJSON(w, http.StatusOK, messageResponse{Message: "No apps to monitor"})
		return
	}

	respondJSON(w, http.StatusOK, runResponse{Success: true, Summary: *summary})
}

// appsResponse wraps the watch-list view.
type appsResponse struct {
	Apps  any `json:"apps"`
	Count int `json:"count"`
}

// handleListApps returns every watched app regardless of status.
func (s *Server) handleListApps(w http.ResponseWriter, r *http.Request) {
	apps, err := s.apps.ListApps(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to list apps")
		respondError(w, http.StatusInternalServerError, "failed to list apps")
		return
	}
	respondJSON(w, http.StatusOK, appsResponse{Apps: apps, Count: len(apps)})
}

// alertsResponse wraps the alert history view.
type alertsResponse struct {
	Alerts any `json:"alerts"`
	Count  int `json:"count"`
}

// handleListAlerts returns alert history, newest first, filtered by the
// group, since, until, limit and offset query parameters.
func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	filter, err := parseAlertFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	alerts, err := s.alerts.ListAlerts(r.Context(), filter)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to list alerts")
		respondError(w, http.StatusInternalServerError, "failed to list alerts")
		return
	}
	respondJSON(w, http.StatusOK, alertsResponse{Alerts: alerts, Count: len(alerts)})
}

// parseAlertFilter copies the query parameters into an AlertsRequest,
// validates it, and converts it to a store filter. Timestamps are RFC 3339.
func parseAlertFilter(r *http.Request) (store.AlertFilter, error) {
	q := r.URL.Query()

	req := AlertsRequest{
		Group: q.Get("group"),
		Since: q.Get("since"),
		Until: q.Get("until"),
	}

	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"limit", &req.Limit},
		{"offset", &req.Offset},
	} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return store.AlertFilter{}, &badParamError{name: p.name, value: raw}
		}
		*p.dst = n
	}

	if err := validateRequest(&req); err != nil {
		return store.AlertFilter{}, err
	}

	filter := store.AlertFilter{
		Group:  req.Group,
		Limit:  req.Limit,
		Offset: req.Offset,
	}
	for _, p := range []struct {
		raw string
		dst **time.Time
	}{
		{req.Since, &filter.Since},
		{req.Until, &filter.Until},
	} {
		if p.raw == "" {
			continue
		}
		// Format already validated; a parse failure here is a bug.
		ts, err := time.Parse(time.RFC3339, p.raw)
		if err != nil {
			return store.AlertFilter{}, err
		}
		*p.dst = &ts
	}

	return filter, nil
}

// badParamError reports an unparseable query parameter.
type badParamError struct {
	name  string
	value string
}

func (e *badParamError) Error() string {
	return "invalid " + e.name + " parameter: " + e.value
}

// handleHealthLive answers as long as the process serves requests.
func (s *Server) handleHealthLive(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleHealthReady additionally requires the backing store to answer.
func (s *Server) handleHealthReady(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.pinger.Ping(ctx); err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Msg("readiness check failed")
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
			})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
