// storewatch - Mobile App Listing Availability Monitor
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package notify delivers removal alerts to outbound channels.
//
// Delivery is strictly best-effort: a notifier failure is logged by the
// caller and never changes a batch result or stored state.
package notify

import (
	"context"

	"github.com/storewatch/storewatch/internal/models"
)

// Notifier sends a removal alert to an external channel.
type Notifier interface {
	// Send delivers one alert. Implementations should honor ctx and
	// return quickly; callers treat any error as non-fatal.
	Send(ctx context.Context, app *models.WatchedApp, event *models.AlertEvent) error

	// Name identifies the channel, e.g. "telegram".
	Name() string

	// Enabled reports whether the channel is configured and active.
	Enabled() bool
}

// Noop is the disabled notification channel.
type Noop struct{}

// Send does nothing.
func (Noop) Send(context.Context, *models.WatchedApp, *models.AlertEvent) error {
	return nil
}

// Name returns "noop".
func (Noop) Name() string { return "noop" }

// Enabled always returns false.
func (Noop) Enabled() bool { return false }
