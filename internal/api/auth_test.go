// storewatch - Mobile App Listing Availability Monitor
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
)

func TestRequireCronSecret(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		secret     string
		authHeader string
		wantStatus int
	}{
		{
			name:       "valid token",
			secret:     "s3cret",
			authHeader: "Bearer s3cret",
			wantStatus: http.StatusOK,
		},
		{
			name:       "wrong token",
			secret:     "s3cret",
			authHeader: "Bearer guess",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing header",
			secret:     "s3cret",
			authHeader: "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong scheme",
			secret:     "s3cret",
			authHeader: "Basic s3cret",
			wantStatus: http.StatusUnauthorized,
		},
		{
			// No secret configured is the operator's fault, not the
			// caller's: 500, not 401.
			name:       "secret not configured",
			secret:     "",
			authHeader: "Bearer anything",
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, "/api/v1/monitor/run", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			RequireCronSecret(tt.secret)(next).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				if got := rec.Header().Get("WWW-Authenticate"); !strings.Contains(got, "Bearer") {
					t.Errorf("WWW-Authenticate = %q, want Bearer challenge", got)
				}
			}
			if tt.wantStatus != http.StatusOK {
				var body errorResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
					t.Fatalf("error body not JSON: %v", err)
				}
				if body.Error == "" {
					t.Error("error body must carry a message")
				}
			}
		})
	}
}

func TestRequireCronSecretMisconfigurationMessage(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/monitor/run", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rec := httptest.NewRecorder()

	RequireCronSecret("")(http.NotFoundHandler()).ServeHTTP(rec, req)

	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(body.Error, "misconfigured") {
		t.Errorf("error = %q, want misconfiguration wording", body.Error)
	}
}
