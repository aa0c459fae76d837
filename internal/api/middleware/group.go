package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/groupsplit/internal/api/handler"
	"github.com/sirpyerre/groupsplit/internal/core/domain"
	"github.com/sirpyerre/groupsplit/internal/core/ports"
)

// RequireGroupMember rejects callers that are not on the roster of the group
// named by the param path segment. It must run after Auth.
func RequireGroupMember(gate ports.MembershipGate, param string) echo.MiddlewareFunc {
	return groupGate(param, domain.ErrNotGroupMember, gate.IsMember)
}

// RequireGroupAdmin rejects callers that are not admins of the group.
func RequireGroupAdmin(gate ports.MembershipGate, param string) echo.MiddlewareFunc {
	return groupGate(param, domain.ErrAdminRequired, gate.IsAdmin)
}

type rosterCheck func(ctx context.Context, groupID, userID string) (bool, error)

func groupGate(param string, denied error, check rosterCheck) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, _ := c.Get(handler.ContextUserID).(string)
			if userID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
			}

			ok, err := check(c.Request().Context(), c.Param(param), userID)
			if err != nil {
				return err
			}
			if !ok {
				return denied
			}
			return next(c)
		}
	}
}
