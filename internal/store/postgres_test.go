// storewatch - Mobile App Listing Availability Monitor
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"strings"
	"testing"
	"time"
)

func TestBuildAlertQueryDefaults(t *testing.T) {
	t.Parallel()

	query, args := buildAlertQuery(AlertFilter{})

	if !strings.Contains(query, "ORDER BY alert_time DESC") {
		t.Errorf("expected newest-first ordering, got %q", query)
	}
	if !strings.Contains(query, "LIMIT $1") {
		t.Errorf("expected default limit parameter, got %q", query)
	}
	if len(args) != 1 || args[0] != defaultAlertLimit {
		t.Errorf("expected default limit arg, got %v", args)
	}
	if strings.Contains(query, "alert_group =") {
		t.Errorf("unexpected group filter in %q", query)
	}
}

func TestBuildAlertQueryAllFilters(t *testing.T) {
	t.Parallel()

	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	until := since.Add(24 * time.Hour)
	query, args := buildAlertQuery(AlertFilter{
		Group:  "Payments",
		Since:  &since,
		Until:  &until,
		Limit:  25,
		Offset: 50,
	})

	for _, fragment := range []string{
		"alert_group = $1",
		"alert_time >= $2",
		"alert_time <= $3",
		"LIMIT $4",
		"OFFSET $5",
	} {
		if !strings.Contains(query, fragment) {
			t.Errorf("expected %q in %q", fragment, query)
		}
	}

	want := []any{"Payments", since, until, 25, 50}
	if len(args) != len(want) {
		t.Fatalf("args = %v, want %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("args[%d] = %v, want %v", i, args[i], want[i])
		}
	}
}

func TestBuildAlertQueryIgnoresNonPositiveLimit(t *testing.T) {
	t.Parallel()

	_, args := buildAlertQuery(AlertFilter{Limit: -5})
	if len(args) != 1 || args[0] != defaultAlertLimit {
		t.Errorf("negative limit should fall back to default, got %v", args)
	}
}
