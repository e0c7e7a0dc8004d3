// storewatch - Mobile App Listing Availability Monitor
// SPDX-License-Identifier: AGPL-3.0-or-later

package monitor

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces consecutive listing probes. The production implementation
// enforces a fixed minimum interval to stay under the platform's bot
// defenses; tests inject NopPacer to run with zero delay.
type Pacer interface {
	// Wait blocks until the next probe may start or ctx is done.
	Wait(ctx context.Context) error
}

// intervalPacer enforces a minimum interval between probes.
type intervalPacer struct {
	limiter *rate.Limiter
}

// NewIntervalPacer returns a Pacer with the given minimum spacing.
// A non-positive interval yields a NopPacer.
func NewIntervalPacer(interval time.Duration) Pacer {
	if interval <= 0 {
		return NopPacer{}
	}
	// Burst of one: the first probe starts immediately, every later
	// probe waits out the interval.
	return &intervalPacer{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

func (p *intervalPacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// NopPacer never delays. It still honors context cancellation so a
// canceled batch stops between apps.
type NopPacer struct{}

func (NopPacer) Wait(ctx context.Context) error {
	return ctx.Err()
}
