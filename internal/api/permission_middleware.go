package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/parley-chat/parley/internal/auth"
	"github.com/parley-chat/parley/internal/permissions"
	"github.com/parley-chat/parley/internal/service"
)

// RequireServerPermission returns middleware that checks a server-level
// permission. It expects the route to have an ":id" param for the server ID.
func RequireServerPermission(perm permissions.Permission, checker *service.PermissionChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			serverID, err := strconv.ParseInt(c.Param("id"), 10, 64)
			if err != nil {
				return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid server id")
			}

			userID := auth.GetUserID(c)
			if err := checker.RequireServerPermission(c.Request().Context(), serverID, userID, perm); err != nil {
				return mapServiceError(c, err)
			}
			return next(c)
		}
	}
}

// RequireChannelPermission returns middleware that checks a channel-level
// permission, overrides included. It expects the route to have an ":id"
// param for the channel ID.
func RequireChannelPermission(perm permissions.Permission, checker *service.PermissionChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			channelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
			if err != nil {
				return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid channel id")
			}

			userID := auth.GetUserID(c)
			if err := checker.RequireChannelPermission(c.Request().Context(), channelID, userID, perm); err != nil {
				return mapServiceError(c, err)
			}
			return next(c)
		}
	}
}
