// storewatch - Mobile App Listing Availability Monitor
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/storewatch/storewatch/internal/logging"
)

const bearerPrefix = "Bearer "

// RequireCronSecret guards the monitor trigger with a pre-shared bearer
// token. Two failure modes are reported distinctly: a server with no
// secret configured answers 500 (operator problem), while a caller with
// a missing or wrong token answers 401 (caller problem). The comparison
// is constant-time.
func RequireCronSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				logging.Ctx(r.Context()).Error().
					Msg("monitor trigger called but no cron secret is configured")
				respondError(w, http.StatusInternalServerError,
					"server misconfigured: trigger secret not set")
				return
			}

			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, bearerPrefix) {
				unauthorized(w, r)
				return
			}

			token := strings.TrimPrefix(header, bearerPrefix)
			if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
				unauthorized(w, r)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	logging.Ctx(r.Context()).Warn().
		Str("remote_addr", r.RemoteAddr).
		Msg("monitor trigger rejected: invalid or missing bearer token")
	w.Header().Set("WWW-Authenticate", `Bearer realm="storewatch"`)
	respondError(w, http.StatusUnauthorized, "unauthorized")
}
