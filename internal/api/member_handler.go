package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/parley-chat/parley/internal/auth"
	"github.com/parley-chat/parley/internal/service"
)

// MemberHandler handles member endpoints.
type MemberHandler struct {
	service *service.MemberService
}

// NewMemberHandler creates a MemberHandler.
func NewMemberHandler(svc *service.MemberService) *MemberHandler {
	return &MemberHandler{service: svc}
}

// ListMembers handles GET /api/v1/servers/:id/members.
func (h *MemberHandler) ListMembers(c echo.Context) error {
	serverID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid server id")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	actorID := auth.GetUserID(c)

	members, err := h.service.ListMembers(c.Request().Context(), serverID, actorID, limit, offset)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, members)
}

// GetMember handles GET /api/v1/servers/:id/members/:user_id.
func (h *MemberHandler) GetMember(c echo.Context) error {
	serverID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid server id")
	}

	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid user id")
	}

	actorID := auth.GetUserID(c)

	member, err := h.service.GetMember(c.Request().Context(), serverID, actorID, userID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, member)
}

type updateNicknameRequest struct {
	Nickname *string `json:"nickname"`
}

// UpdateNickname handles PATCH /api/v1/servers/:id/members/:user_id.
func (h *MemberHandler) UpdateNickname(c echo.Context) error {
	serverID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid server id")
	}

	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid user id")
	}

	var req updateNicknameRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	actorID := auth.GetUserID(c)

	member, err := h.service.UpdateNickname(c.Request().Context(), serverID, actorID, userID, req.Nickname)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, member)
}

// KickMember handles DELETE /api/v1/servers/:id/members/:user_id.
func (h *MemberHandler) KickMember(c echo.Context) error {
	serverID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid server id")
	}

	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid user id")
	}

	actorID := auth.GetUserID(c)

	if err := h.service.KickMember(c.Request().Context(), serverID, actorID, userID); err != nil {
		return mapServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
