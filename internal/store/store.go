// storewatch - Mobile App Listing Availability Monitor
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store persists watched apps and alert events. The monitor core
// consumes only the narrow interfaces defined here; the production
// implementation is PostgreSQL via pgx, see postgres.go.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/storewatch/storewatch/internal/models"
)

// ErrNotFound indicates the referenced app row does not exist.
var ErrNotFound = errors.New("store: not found")

// AppStore provides read and update access to watched app rows.
// Updates are keyed by app id and idempotent: re-applying the same
// transition leaves the same stored state (last-write-wins).
type AppStore interface {
	// ListAppsByStatus returns all apps with the given status, in
	// stable id order. The monitor loads status=Online only.
	ListAppsByStatus(ctx context.Context, status models.AppStatus) ([]models.WatchedApp, error)

	// ListApps returns all apps regardless of status.
	ListApps(ctx context.Context) ([]models.WatchedApp, error)

	// UpdateLastCheck refreshes last_check for a still-live app.
	UpdateLastCheck(ctx context.Context, id int64, at time.Time) error

	// MarkRemoved sets status=Removed and last_check in one write.
	MarkRemoved(ctx context.Context, id int64, at time.Time) error
}

// AlertStore provides append and read access to alert events.
// Alerts are append-only; nothing here updates or deletes them.
type AlertStore interface {
	// InsertAlert appends one alert event and fills in its ID.
	InsertAlert(ctx context.Context, alert *models.AlertEvent) error

	// ListAlerts returns alerts matching the filter, newest first.
	ListAlerts(ctx context.Context, filter AlertFilter) ([]models.AlertEvent, error)
}

// AlertFilter narrows ListAlerts results.
type AlertFilter struct {
	// Group filters by alert_group when non-empty.
	Group string

	// Since / Until bound alert_time when non-nil.
	Since *time.Time
	Until *time.Time

	// Limit caps the result size; 0 applies a server-side default.
	Limit  int
	Offset int
}
