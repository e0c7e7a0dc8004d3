// storewatch - Mobile App Listing Availability Monitor
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package models defines the core data types shared across storewatch:
// watched applications, alert events, and per-run check results.
package models

import "time"

// AppStatus is the stored lifecycle status of a watched application.
type AppStatus string

const (
	// StatusOnline marks an app whose store listing was present at the
	// last probe. Only Online apps are probed by a batch run.
	StatusOnline AppStatus = "Online"

	// StatusRemoved marks an app whose store listing has disappeared.
	// Removed apps are excluded from monitoring until manually reset.
	StatusRemoved AppStatus = "Removed"
)

// Platform identifies the distribution platform of a watched app.
type Platform string

// PlatformGooglePlay is the only platform with a real listing probe.
// Other values are recognized but assumed live, see prober.
const PlatformGooglePlay Platform = "Google Play"

// DefaultAlertGroup is the alert routing group used when an app has
// no group of its own.
const DefaultAlertGroup = "System"

// WatchedApp represents one monitored application. Rows are created and
// edited externally; the monitor only ever mutates Status and LastCheck,
// and only as the result of a probe outcome.
type WatchedApp struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	PackageID  string     `json:"package_id"`
	Platform   Platform   `json:"platform"`
	Region     string     `json:"region,omitempty"`
	AlertGroup string     `json:"alert_group,omitempty"`
	Status     AppStatus  `json:"status"`
	LastCheck  *time.Time `json:"last_check,omitempty"`
}

// EffectiveAlertGroup returns the app's alert group, falling back to
// DefaultAlertGroup when unset.
func (a *WatchedApp) EffectiveAlertGroup() string {
	if a.AlertGroup == "" {
		return DefaultAlertGroup
	}
	return a.AlertGroup
}

// AlertEvent is an immutable audit record created when a watched app
// transitions to Removed. The app identity fields are a deliberate
// denormalized snapshot: historical alerts stay meaningful even if the
// app row is later deleted or altered. Append-only; never updated.
type AlertEvent struct {
	ID         int64     `json:"id"`
	AppName    string    `json:"app_name"`
	PackageID  string    `json:"package_id"`
	Platform   Platform  `json:"platform"`
	Region     string    `json:"region,omitempty"`
	AlertGroup string    `json:"alert_group"`
	AlertTime  time.Time `json:"alert_time"`
}

// NewAlertEvent builds the alert snapshot for a removal of the given app.
func NewAlertEvent(app *WatchedApp, at time.Time) *AlertEvent {
	return &AlertEvent{
		AppName:    app.Name,
		PackageID:  app.PackageID,
		Platform:   app.Platform,
		Region:     app.Region,
		AlertGroup: app.EffectiveAlertGroup(),
		AlertTime:  at,
	}
}

// CheckResult is the per-app outcome reported in a batch summary.
// Exactly one of Status or Error is set. Not persisted.
type CheckResult struct {
	ID     int64     `json:"id"`
	Name   string    `json:"name"`
	Status AppStatus `json:"status,omitempty"`
	Error  string    `json:"error,omitempty"`
}

// OnlineResult reports an app whose listing is still live.
func OnlineResult(app *WatchedApp) CheckResult {
	return CheckResult{ID: app.ID, Name: app.Name, Status: StatusOnline}
}

// RemovedResult reports an app whose listing has disappeared.
func RemovedResult(app *WatchedApp) CheckResult {
	return CheckResult{ID: app.ID, Name: app.Name, Status: StatusRemoved}
}

// ErrorResult reports an app whose check failed; the stored state of the
// app is untouched in this case.
func ErrorResult(app *WatchedApp, err error) CheckResult {
	return CheckResult{ID: app.ID, Name: app.Name, Error: err.Error()}
}
