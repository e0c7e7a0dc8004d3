// storewatch - Mobile App Listing Availability Monitor
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prober checks whether a watched app's store listing still
// exists on its distribution platform.
//
// Google Play is the only platform with a real network probe: a 404 from
// the public listing page means the listing is gone, any other response
// status means it is still live. That heuristic deliberately treats
// transient platform errors (5xx) as "live" — a known false-negative
// risk, preserved so a platform outage can never be misread as a mass
// removal. Transport errors are surfaced to the caller and are never a
// removal signal.
package prober

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/storewatch/storewatch/internal/config"
	"github.com/storewatch/storewatch/internal/logging"
	"github.com/storewatch/storewatch/internal/models"
)

// ErrEmptyPackageID indicates a probed app without a platform identifier.
var ErrEmptyPackageID = errors.New("prober: package id is empty")

// Prober decides whether an app's listing currently exists.
type Prober interface {
	// Probe returns true when the listing is live, false when the
	// platform reports it gone. A non-nil error means the check was
	// inconclusive and the caller must not change stored state.
	Probe(ctx context.Context, app *models.WatchedApp) (bool, error)
}

// playStoreBaseURL is the public Google Play listing endpoint.
const playStoreBaseURL = "https://play.google.com"

// HTTPProber probes listings over plain HTTP GET requests. Calls to the
// platform run through a circuit breaker so a dead upstream fails fast
// instead of spending the full probe timeout on every app in the batch.
type HTTPProber struct {
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker[*http.Response]
	userAgent string
	baseURL   string
}

// Option customizes an HTTPProber.
type Option func(*HTTPProber)

// WithBaseURL overrides the platform base URL. Used by tests.
func WithBaseURL(baseURL string) Option {
	return func(p *HTTPProber) {
		p.baseURL = baseURL
	}
}

// WithClient replaces the HTTP client.
func WithClient(client *http.Client) Option {
	return func(p *HTTPProber) {
		p.client = client
	}
}

// New creates an HTTPProber from the monitor configuration.
//
// Breaker tuning: listing probes are sequential and slow-paced, so the
// breaker trips on a short run of consecutive transport failures and
// retries after half the probe timeout.
func New(cfg config.MonitorConfig, opts ...Option) *HTTPProber {
	p := &HTTPProber{
		client: &http.Client{
			Timeout: cfg.ProbeTimeout,
		},
		userAgent: cfg.UserAgent,
		baseURL:   playStoreBaseURL,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.breaker = gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "play-listing",
		MaxRequests: 1,
		Timeout:     cfg.ProbeTimeout / 2,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("probe circuit breaker state change")
		},
	})

	return p
}

// Probe dispatches on the app's platform.
//
// Platforms other than Google Play have no listing check yet and are
// assumed live unconditionally. The default branch is explicit so that
// adding a real check for a new platform is a visible code change, not
// a silent fallthrough.
func (p *HTTPProber) Probe(ctx context.Context, app *models.WatchedApp) (bool, error) {
	switch app.Platform {
	case models.PlatformGooglePlay:
		return p.probeGooglePlay(ctx, app)
	default:
		logging.Debug().
			Str("platform", string(app.Platform)).
			Str("package_id", app.PackageID).
			Msg("no probe for platform, assuming live")
		return true, nil
	}
}

// probeGooglePlay issues the listing GET and maps the response status.
func (p *HTTPProber) probeGooglePlay(ctx context.Context, app *models.WatchedApp) (bool, error) {
	if app.PackageID == "" {
		return false, fmt.Errorf("app %d: %w", app.ID, ErrEmptyPackageID)
	}

	listingURL := fmt.Sprintf("%s/store/apps/details?id=%s",
		p.baseURL, url.QueryEscape(app.PackageID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listingURL, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create probe request: %w", err)
	}
	// A realistic browser identity lowers the chance of bot-defense
	// blocks. Pragmatic, not a security measure.
	req.Header.Set("User-Agent", p.userAgent)

	start := time.Now()
	resp, err := p.breaker.Execute(func() (*http.Response, error) {
		return p.client.Do(req)
	})
	if err != nil {
		return false, fmt.Errorf("probe %s: %w", app.PackageID, err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	logging.Debug().
		Str("package_id", app.PackageID).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("listing probed")

	// Google Play returns 404 for removed listings. Everything else,
	// including 5xx, counts as live, see the package comment.
	return resp.StatusCode != http.StatusNotFound, nil
}
