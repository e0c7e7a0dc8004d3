// storewatch - Mobile App Listing Availability Monitor
// SPDX-License-Identifier: AGPL-3.0-or-later

package monitor

import (
	"context"
	"testing"
	"time"
)

func TestSchedulerDisabled(t *testing.T) {
	t.Parallel()

	apps := newFakeAppStore()
	engine := newTestEngine(apps, &fakeAlertStore{}, aliveProber(true), nil)
	scheduler := NewScheduler(engine, 0)

	done := make(chan struct{})
	go func() {
		scheduler.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled scheduler must return immediately")
	}

	apps.mu.Lock()
	defer apps.mu.Unlock()
	if len(apps.listedWith) != 0 {
		t.Errorf("disabled scheduler must not trigger runs, got %d", len(apps.listedWith))
	}
}

func TestSchedulerTriggersRuns(t *testing.T) {
	t.Parallel()

	apps := newFakeAppStore(onlineApp(1, "Wallet", "com.example.wallet"))
	engine := newTestEngine(apps, &fakeAlertStore{}, aliveProber(true), nil)
	scheduler := NewScheduler(engine, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		scheduler.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		apps.mu.Lock()
		runs := len(apps.listedWith)
		apps.mu.Unlock()
		if runs >= 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("expected at least 2 scheduled runs, got %d", runs)
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler must stop on context cancellation")
	}
}

func TestSchedulerSkipsOverlappingRuns(t *testing.T) {
	t.Parallel()

	apps := newFakeAppStore()
	engine := newTestEngine(apps, &fakeAlertStore{}, aliveProber(true), nil)
	scheduler := NewScheduler(engine, time.Hour)

	// Simulate an in-flight batch: the guard must reject a second entry.
	if !scheduler.running.CompareAndSwap(false, true) {
		t.Fatal("fresh scheduler must not be marked running")
	}
	scheduler.runOnce(context.Background())

	apps.mu.Lock()
	defer apps.mu.Unlock()
	if len(apps.listedWith) != 0 {
		t.Error("overlapping run must be skipped, not executed")
	}
}
