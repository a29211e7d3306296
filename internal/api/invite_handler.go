package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/parley-chat/parley/internal/auth"
	"github.com/parley-chat/parley/internal/service"
)

// InviteHandler handles invite endpoints.
type InviteHandler struct {
	service *service.InviteService
}

// NewInviteHandler creates an InviteHandler.
func NewInviteHandler(svc *service.InviteService) *InviteHandler {
	return &InviteHandler{service: svc}
}

type createInviteRequest struct {
	MaxUses    int `json:"max_uses"`
	ExpiresSec int `json:"expires_in"`
}

// CreateInvite handles POST /api/v1/servers/:id/invites.
func (h *InviteHandler) CreateInvite(c echo.Context) error {
	serverID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid server id")
	}

	var req createInviteRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	actorID := auth.GetUserID(c)

	invite, err := h.service.CreateInvite(c.Request().Context(), serverID, actorID, req.MaxUses, time.Duration(req.ExpiresSec)*time.Second)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, invite)
}

// ListInvites handles GET /api/v1/servers/:id/invites.
func (h *InviteHandler) ListInvites(c echo.Context) error {
	serverID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid server id")
	}

	actorID := auth.GetUserID(c)

	invites, err := h.service.ListInvites(c.Request().Context(), serverID, actorID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, invites)
}

// AcceptInvite handles POST /api/v1/invites/:code.
func (h *InviteHandler) AcceptInvite(c echo.Context) error {
	code := c.Param("code")
	if code == "" {
		return errorJSON(c, http.StatusBadRequest, "INVALID_CODE", "invite code is required")
	}

	userID := auth.GetUserID(c)

	server, err := h.service.AcceptInvite(c.Request().Context(), code, userID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, server)
}

// RevokeInvite handles DELETE /api/v1/invites/:code.
func (h *InviteHandler) RevokeInvite(c echo.Context) error {
	code := c.Param("code")
	if code == "" {
		return errorJSON(c, http.StatusBadRequest, "INVALID_CODE", "invite code is required")
	}

	actorID := auth.GetUserID(c)

	if err := h.service.RevokeInvite(c.Request().Context(), code, actorID); err != nil {
		return mapServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
