package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/groupsplit/internal/core/domain"
)

// ContextUserID is the echo context key the Auth middleware stores the
// verified user id under.
const ContextUserID = "user_id"

var errInvalidPayload = domain.Validation("INVALID_PAYLOAD", "", "invalid payload")

// actorID returns the verified caller. Presence proves the Auth middleware ran.
func actorID(c echo.Context) (string, error) {
	id, _ := c.Get(ContextUserID).(string)
	if id == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return id, nil
}

// bind decodes the request into req and runs struct validation.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return errInvalidPayload
	}
	return c.Validate(req)
}

// parseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, domain.ErrInvalidDate.WithField(field).WithMessage("%s must be a date (YYYY-MM-DD) or RFC 3339 timestamp", field)
	}
	return t.UTC(), nil
}
