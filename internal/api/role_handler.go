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

// RoleHandler handles role endpoints.
type RoleHandler struct {
	service *service.RoleService
}

// NewRoleHandler creates a RoleHandler.
func NewRoleHandler(svc *service.RoleService) *RoleHandler {
	return &RoleHandler{service: svc}
}

// roleResponse is the API shape of a role. The permission bitfield is
// exposed as the per-kind boolean object.
type roleResponse struct {
	ID          int64              `json:"id,string"`
	ServerID    int64              `json:"server_id,string"`
	Name        string             `json:"name"`
	Color       int                `json:"color"`
	Permissions permissions.Grants `json:"permissions"`
	Position    int                `json:"position"`
	Mentionable bool               `json:"mentionable"`
}

func toRoleResponse(role *models.Role) roleResponse {
	return roleResponse{
		ID:          role.ID,
		ServerID:    role.ServerID,
		Name:        role.Name,
		Color:       role.Color,
		Permissions: permissions.GrantsFrom(permissions.Permission(role.Permissions)),
		Position:    role.Position,
		Mentionable: role.Mentionable,
	}
}

type createRoleRequest struct {
	Name        string             `json:"name"`
	Color       int                `json:"color"`
	Permissions permissions.Grants `json:"permissions"`
	Position    int                `json:"position"`
	Mentionable bool               `json:"mentionable"`
}

// CreateRole handles POST /api/v1/servers/:id/roles.
func (h *RoleHandler) CreateRole(c echo.Context) error {
	serverID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid server id")
	}

	var req createRoleRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	actorID := auth.GetUserID(c)

	role, err := h.service.CreateRole(c.Request().Context(), serverID, actorID, req.Name, req.Color, req.Permissions.Bitfield(), req.Position, req.Mentionable)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, toRoleResponse(role))
}

// ListRoles handles GET /api/v1/servers/:id/roles.
func (h *RoleHandler) ListRoles(c echo.Context) error {
	serverID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid server id")
	}

	actorID := auth.GetUserID(c)

	roles, err := h.service.ListRoles(c.Request().Context(), serverID, actorID)
	if err != nil {
		return mapServiceError(c, err)
	}

	out := make([]roleResponse, 0, len(roles))
	for i := range roles {
		out = append(out, toRoleResponse(&roles[i]))
	}
	return c.JSON(http.StatusOK, out)
}

type updateRoleRequest struct {
	Name        *string             `json:"name,omitempty"`
	Color       *int                `json:"color,omitempty"`
	Permissions *permissions.Grants `json:"permissions,omitempty"`
	Position    *int                `json:"position,omitempty"`
	Mentionable *bool               `json:"mentionable,omitempty"`
}

// UpdateRole handles PATCH /api/v1/servers/:id/roles/:role_id.
func (h *RoleHandler) UpdateRole(c echo.Context) error {
	serverID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid server id")
	}

	roleID, err := strconv.ParseInt(c.Param("role_id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid role id")
	}

	var req updateRoleRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	actorID := auth.GetUserID(c)

	var grants *permissions.Permission
	if req.Permissions != nil {
		p := req.Permissions.Bitfield()
		grants = &p
	}

	role, err := h.service.UpdateRole(c.Request().Context(), serverID, actorID, roleID, req.Name, req.Color, grants, req.Position, req.Mentionable)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toRoleResponse(role))
}

// DeleteRole handles DELETE /api/v1/servers/:id/roles/:role_id.
func (h *RoleHandler) DeleteRole(c echo.Context) error {
	serverID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid server id")
	}

	roleID, err := strconv.ParseInt(c.Param("role_id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid role id")
	}

	actorID := auth.GetUserID(c)

	if err := h.service.DeleteRole(c.Request().Context(), serverID, actorID, roleID); err != nil {
		return mapServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AssignRole handles PUT /api/v1/servers/:id/members/:user_id/roles/:role_id.
func (h *RoleHandler) AssignRole(c echo.Context) error {
	serverID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid server id")
	}

	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid user id")
	}

	roleID, err := strconv.ParseInt(c.Param("role_id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid role id")
	}

	actorID := auth.GetUserID(c)

	if err := h.service.AssignRole(c.Request().Context(), serverID, actorID, userID, roleID); err != nil {
		return mapServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RemoveRole handles DELETE /api/v1/servers/:id/members/:user_id/roles/:role_id.
func (h *RoleHandler) RemoveRole(c echo.Context) error {
	serverID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid server id")
	}

	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid user id")
	}

	roleID, err := strconv.ParseInt(c.Param("role_id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid role id")
	}

	actorID := auth.GetUserID(c)

	if err := h.service.RemoveRole(c.Request().Context(), serverID, actorID, userID, roleID); err != nil {
		return mapServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
