package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/parley-chat/parley/internal/auth"
	"github.com/parley-chat/parley/internal/models"
	"github.com/parley-chat/parley/internal/permissions"
	"github.com/parley-chat/parley/internal/service"
)

// ChannelHandler handles channel and channel override endpoints.
type ChannelHandler struct {
	service *service.ChannelService
	checker *service.PermissionChecker
}

// NewChannelHandler creates a ChannelHandler.
func NewChannelHandler(svc *service.ChannelService, checker *service.PermissionChecker) *ChannelHandler {
	return &ChannelHandler{service: svc, checker: checker}
}

type createChannelRequest struct {
	Name     string  `json:"name"`
	Position int     `json:"position"`
	Topic    *string `json:"topic,omitempty"`
}

// CreateChannel handles POST /api/v1/servers/:id/channels.
func (h *ChannelHandler) CreateChannel(c echo.Context) error {
	serverID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid server id")
	}

	var req createChannelRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	actorID := auth.GetUserID(c)

	channel, err := h.service.CreateChannel(c.Request().Context(), serverID, actorID, req.Name, req.Position, req.Topic)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, channel)
}

// ListChannels handles GET /api/v1/servers/:id/channels. Only channels the
// caller can read are returned.
func (h *ChannelHandler) ListChannels(c echo.Context) error {
	serverID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid server id")
	}

	userID := auth.GetUserID(c)

	channels, err := h.service.ListChannels(c.Request().Context(), serverID, userID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, channels)
}

// GetChannel handles GET /api/v1/channels/:id.
func (h *ChannelHandler) GetChannel(c echo.Context) error {
	channelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid channel id")
	}

	userID := auth.GetUserID(c)

	channel, err := h.service.GetChannel(c.Request().Context(), channelID, userID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, channel)
}

type updateChannelRequest struct {
	Name     *string `json:"name,omitempty"`
	Position *int    `json:"position,omitempty"`
	Topic    *string `json:"topic,omitempty"`
}

// UpdateChannel handles PATCH /api/v1/channels/:id.
func (h *ChannelHandler) UpdateChannel(c echo.Context) error {
	channelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid channel id")
	}

	var req updateChannelRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	actorID := auth.GetUserID(c)

	channel, err := h.service.UpdateChannel(c.Request().Context(), channelID, actorID, req.Name, req.Position, req.Topic)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, channel)
}

// DeleteChannel handles DELETE /api/v1/channels/:id.
func (h *ChannelHandler) DeleteChannel(c echo.Context) error {
	channelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid channel id")
	}

	actorID := auth.GetUserID(c)

	if err := h.service.DeleteChannel(c.Request().Context(), channelID, actorID); err != nil {
		return mapServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type effectivePermissionsResponse struct {
	ChannelID int64              `json:"channel_id,string"`
	UserID    int64              `json:"user_id,string"`
	Grants    permissions.Grants `json:"permissions"`
}

// GetEffectivePermissions handles GET /api/v1/channels/:id/permissions.
// It returns the caller's resolved permissions for the channel.
func (h *ChannelHandler) GetEffectivePermissions(c echo.Context) error {
	channelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid channel id")
	}

	userID := auth.GetUserID(c)

	perms, err := h.checker.EffectiveChannelPermissions(c.Request().Context(), channelID, userID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusOK, effectivePermissionsResponse{
		ChannelID: channelID,
		UserID:    userID,
		Grants:    permissions.GrantsFrom(perms),
	})
}

// ListOverrides handles GET /api/v1/channels/:id/overrides.
func (h *ChannelHandler) ListOverrides(c echo.Context) error {
	channelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid channel id")
	}

	actorID := auth.GetUserID(c)

	overrides, err := h.service.ListOverrides(c.Request().Context(), channelID, actorID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, overrides)
}

type setOverrideRequest struct {
	Allow []string `json:"allow"`
	Deny  []string `json:"deny"`
}

// SetOverride handles PUT /api/v1/channels/:id/permissions/:target_type/:target_id.
func (h *ChannelHandler) SetOverride(c echo.Context) error {
	channelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid channel id")
	}

	target, err := parseOverrideTarget(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_TARGET", "target must be role/<id> or user/<id>")
	}

	var req setOverrideRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	actorID := auth.GetUserID(c)

	override, err := h.service.SetOverride(c.Request().Context(), channelID, actorID, target, req.Allow, req.Deny)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, override)
}

// DeleteOverride handles DELETE /api/v1/channels/:id/permissions/:target_type/:target_id.
func (h *ChannelHandler) DeleteOverride(c echo.Context) error {
	channelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid channel id")
	}

	target, err := parseOverrideTarget(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_TARGET", "target must be role/<id> or user/<id>")
	}

	actorID := auth.GetUserID(c)

	if err := h.service.DeleteOverride(c.Request().Context(), channelID, actorID, target); err != nil {
		return mapServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func parseOverrideTarget(c echo.Context) (models.OverrideTarget, error) {
	targetType := models.OverrideTargetType(c.Param("target_type"))
	if targetType != models.OverrideTargetRole && targetType != models.OverrideTargetUser {
		return models.OverrideTarget{}, echo.ErrBadRequest
	}
	targetID, err := strconv.ParseInt(c.Param("target_id"), 10, 64)
	if err != nil {
		return models.OverrideTarget{}, echo.ErrBadRequest
	}
	return models.OverrideTarget{Type: targetType, ID: targetID}, nil
}
