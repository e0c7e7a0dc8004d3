// storewatch - Mobile App Listing Availability Monitor
// SPDX-License-Identifier: AGPL-3.0-or-later

// requests.go - validated query-parameter structs.
//
// Incoming query parameters are copied into a request struct and checked
// with go-playground/validator tags before any store access. Raw string
// parsing (Atoi, time.Parse) stays in the handlers; the structs own the
// bounds and format rules.

package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// AlertsRequest represents the validated query parameters for /alerts.
//
// Fields:
//   - Group: alert group filter (optional)
//   - Since, Until: RFC 3339 time bounds (optional)
//   - Limit: results cap (0 applies the server default)
//   - Offset: pagination offset
type AlertsRequest struct {
	Group  string `validate:"omitempty,max=128"`
	Since  string `validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Until  string `validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Limit  int    `validate:"min=0,max=1000"`
	Offset int    `validate:"min=0,max=1000000"`
}

// validateRequest validates a request struct and converts the first
// violation into a caller-facing message.
func validateRequest(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("invalid request parameters")
	}

	fe := verrs[0]
	return fmt.Errorf("invalid %s parameter: fails %q", strings.ToLower(fe.Field()), fe.Tag())
}
