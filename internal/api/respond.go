// storewatch - Mobile App Listing Availability Monitor
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP surface of storewatch: the authenticated
// monitor trigger, read-only views over apps and alerts, health probes
// and Prometheus metrics.
package api

import (
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/storewatch/storewatch/internal/logging"
)

// errorResponse is the uniform error body for every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}

// messageResponse carries an informational outcome with no payload.
type messageResponse struct {
	Message string `json:"message"`
}

// respondJSON writes v with the given status. Encoding failures are
// logged; by then the status line is already on the wire.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("failed to encode response")
	}
}

// respondError writes a uniform error body.
func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}
