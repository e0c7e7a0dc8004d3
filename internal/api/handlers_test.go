// storewatch - Mobile App Listing Availability Monitor
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/storewatch/storewatch/internal/config"
	"github.com/storewatch/storewatch/internal/models"
	"github.com/storewatch/storewatch/internal/monitor"
	"github.com/storewatch/storewatch/internal/store"
)

// fakeRunner returns a canned summary or error.
type fakeRunner struct {
	summary *monitor.Summary
	err     error
}

func (f *fakeRunner) Run(context.Context) (*monitor.Summary, error) {
	return f.summary, f.err
}

// fakeAppStore serves a fixed watch-list.
type fakeAppStore struct {
	apps    []models.WatchedApp
	listErr error
}

func (f *fakeAppStore) ListAppsByStatus(_ context.Context, status models.AppStatus) ([]models.WatchedApp, error) {
	var out []models.WatchedApp
	for _, app := range f.apps {
		if app.Status == status {
			out = append(out, app)
		}
	}
	return out, f.listErr
}

func (f *fakeAppStore) ListApps(context.Context) ([]models.WatchedApp, error) {
	return f.apps, f.listErr
}

func (f *fakeAppStore) UpdateLastCheck(context.Context, int64, time.Time) error { return nil }
func (f *fakeAppStore) MarkRemoved(context.Context, int64, time.Time) error    { return nil }

// fakeAlertStore records the filter it was queried with.
type fakeAlertStore struct {
	alerts     []models.AlertEvent
	listErr    error
	lastFilter store.AlertFilter
}

func (f *fakeAlertStore) InsertAlert(context.Context, *models.AlertEvent) error { return nil }

func (f *fakeAlertStore) ListAlerts(_ context.Context, filter store.AlertFilter) ([]models.AlertEvent, error) {
	f.lastFilter = filter
	return f.alerts, f.listErr
}

// pingFunc adapts a function to the Pinger interface.
type pingFunc func(ctx context.Context) error

func (fn pingFunc) Ping(ctx context.Context) error { return fn(ctx) }

func testConfig(secret string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Timeout: 30 * time.Second},
		Security: config.SecurityConfig{
			CronSecret:        secret,
			RateLimitDisabled: true,
		},
	}
}

func newTestRouter(s *Server, secret string) http.Handler {
	return NewRouter(s, testConfig(secret))
}

func TestMonitorRunNoApps(t *testing.T) {
	t.Parallel()

	s := NewServer(&fakeRunner{summary: &monitor.Summary{}}, &fakeAppStore{}, &fakeAlertStore{}, nil)
	router := newTestRouter(s, "s3cret")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/monitor/run", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body messageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Message != "No apps to monitor" {
		t.Errorf("message = %q, want %q", body.Message, "No apps to monitor")
	}
}

func TestMonitorRunWithResults(t *testing.T) {
	t.Parallel()

	summary := &monitor.Summary{
		Checked: 2,
		Results: []models.CheckResult{
			{ID: 1, Name: "Wallet", Status: models.StatusOnline},
			{ID: 2, Name: "Gone", Status: models.StatusRemoved},
		},
	}
	s := NewServer(&fakeRunner{summary: summary}, &fakeAppStore{}, &fakeAlertStore{}, nil)
	router := newTestRouter(s, "s3cret")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/monitor/run", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Success bool                 `json:"success"`
		Checked int                  `json:"checked"`
		Results []models.CheckResult `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success {
		t.Error("success must be true")
	}
	if body.Checked != 2 || len(body.Results) != 2 {
		t.Errorf("checked = %d, results = %d, want 2 and 2", body.Checked, len(body.Results))
	}
	if body.Results[1].Status != models.StatusRemoved {
		t.Errorf("results[1] = %+v, want Removed", body.Results[1])
	}
}

func TestMonitorRunFailure(t *testing.T) {
	t.Parallel()

	s := NewServer(&fakeRunner{err: errors.New("failed to load watch-list: database unavailable")},
		&fakeAppStore{}, &fakeAlertStore{}, nil)
	router := newTestRouter(s, "s3cret")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/monitor/run", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error == "" {
		t.Error("error body must carry the failure")
	}
}

func TestMonitorRunRequiresAuth(t *testing.T) {
	t.Parallel()

	s := NewServer(&fakeRunner{summary: &monitor.Summary{}}, &fakeAppStore{}, &fakeAlertStore{}, nil)
	router := newTestRouter(s, "s3cret")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/monitor/run", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestListApps(t *testing.T) {
	t.Parallel()

	apps := &fakeAppStore{apps: []models.WatchedApp{
		{ID: 1, Name: "Wallet", PackageID: "com.example.wallet", Status: models.StatusOnline},
		{ID: 2, Name: "Gone", PackageID: "com.example.gone", Status: models.StatusRemoved},
	}}
	s := NewServer(&fakeRunner{}, apps, &fakeAlertStore{}, nil)
	router := newTestRouter(s, "s3cret")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/apps", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Apps  []models.WatchedApp `json:"apps"`
		Count int                 `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 2 || len(body.Apps) != 2 {
		t.Errorf("count = %d, apps = %d, want 2 and 2", body.Count, len(body.Apps))
	}
}

func TestListAlertsFilterParsing(t *testing.T) {
	t.Parallel()

	alerts := &fakeAlertStore{}
	s := NewServer(&fakeRunner{}, &fakeAppStore{}, alerts, nil)
	router := newTestRouter(s, "s3cret")

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/alerts?group=Payments&since=2026-03-01T00:00:00Z&limit=10&offset=5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	got := alerts.lastFilter
	if got.Group != "Payments" {
		t.Errorf("group = %q, want Payments", got.Group)
	}
	wantSince := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if got.Since == nil || !got.Since.Equal(wantSince) {
		t.Errorf("since = %v, want %v", got.Since, wantSince)
	}
	if got.Until != nil {
		t.Errorf("until = %v, want nil", got.Until)
	}
	if got.Limit != 10 || got.Offset != 5 {
		t.Errorf("limit/offset = %d/%d, want 10/5", got.Limit, got.Offset)
	}
}

func TestListAlertsBadParams(t *testing.T) {
	t.Parallel()

	s := NewServer(&fakeRunner{}, &fakeAppStore{}, &fakeAlertStore{}, nil)
	router := newTestRouter(s, "s3cret")

	for _, target := range []string{
		"/api/v1/alerts?since=yesterday",
		"/api/v1/alerts?until=not-a-time",
		"/api/v1/alerts?limit=ten",
		"/api/v1/alerts?limit=-1",
		"/api/v1/alerts?limit=5000",
		"/api/v1/alerts?offset=-1",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, rec.Code)
		}
	}
}

func TestMonitorRunCanceledNotReportedAsIdle(t *testing.T) {
	t.Parallel()

	// A run cut short before any app completed must not masquerade as
	// an empty watch-list.
	s := NewServer(&fakeRunner{summary: &monitor.Summary{Canceled: true,
		Results: []models.CheckResult{}}},
		&fakeAppStore{}, &fakeAlertStore{}, nil)
	router := newTestRouter(s, "s3cret")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/monitor/run", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Success  bool   `json:"success"`
		Checked  int    `json:"checked"`
		Canceled bool   `json:"canceled"`
		Message  string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Message != "" {
		t.Errorf("message = %q, want none for a canceled run", body.Message)
	}
	if !body.Success || !body.Canceled {
		t.Errorf("success = %v, canceled = %v, want both true", body.Success, body.Canceled)
	}
}

func TestCORSHeadersForConfiguredOrigin(t *testing.T) {
	t.Parallel()

	cfg := testConfig("s3cret")
	cfg.Security.CORSOrigins = []string{"https://dashboard.example.com"}
	s := NewServer(&fakeRunner{}, &fakeAppStore{}, &fakeAlertStore{}, nil)
	router := NewRouter(s, cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/apps", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://dashboard.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q, want the configured origin", got)
	}

	// No origins configured: same-origin only, no CORS headers.
	rec = httptest.NewRecorder()
	plain := newTestRouter(s, "s3cret")
	plainReq := httptest.NewRequest(http.MethodGet, "/api/v1/apps", nil)
	plainReq.Header.Set("Origin", "https://dashboard.example.com")
	plain.ServeHTTP(rec, plainReq)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Access-Control-Allow-Origin = %q, want none by default", got)
	}
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("live", func(t *testing.T) {
		t.Parallel()
		s := NewServer(&fakeRunner{}, &fakeAppStore{}, &fakeAlertStore{}, nil)
		rec := httptest.NewRecorder()
		newTestRouter(s, "s").ServeHTTP(rec,
			httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("ready with healthy store", func(t *testing.T) {
		t.Parallel()
		s := NewServer(&fakeRunner{}, &fakeAppStore{}, &fakeAlertStore{},
			pingFunc(func(context.Context) error { return nil }))
		rec := httptest.NewRecorder()
		newTestRouter(s, "s").ServeHTTP(rec,
			httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("ready with unreachable store", func(t *testing.T) {
		t.Parallel()
		s := NewServer(&fakeRunner{}, &fakeAppStore{}, &fakeAlertStore{},
			pingFunc(func(context.Context) error { return errors.New("connection refused") }))
		rec := httptest.NewRecorder()
		newTestRouter(s, "s").ServeHTTP(rec,
			httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}
	})
}

func TestMetricsExposed(t *testing.T) {
	t.Parallel()

	s := NewServer(&fakeRunner{}, &fakeAppStore{}, &fakeAlertStore{}, nil)
	rec := httptest.NewRecorder()
	newTestRouter(s, "s").ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	t.Parallel()

	s := NewServer(&fakeRunner{}, &fakeAppStore{}, &fakeAlertStore{}, nil)
	router := newTestRouter(s, "s")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil)
	req.Header.Set("X-Request-ID", "caller-supplied")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "caller-supplied" {
		t.Errorf("X-Request-ID = %q, want caller-supplied", got)
	}

	// Without a caller-supplied ID, one is minted.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil))
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("a request ID must be generated when none is supplied")
	}
}
