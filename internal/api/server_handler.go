package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/parley-chat/parley/internal/auth"
	"github.com/parley-chat/parley/internal/service"
)

// ServerHandler handles server lifecycle endpoints.
type ServerHandler struct {
	service *service.ServerService
}

// NewServerHandler creates a ServerHandler.
func NewServerHandler(svc *service.ServerService) *ServerHandler {
	return &ServerHandler{service: svc}
}

type createServerRequest struct {
	Name string `json:"name"`
}

// CreateServer handles POST /api/v1/servers.
func (h *ServerHandler) CreateServer(c echo.Context) error {
	var req createServerRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	userID := auth.GetUserID(c)

	server, err := h.service.CreateServer(c.Request().Context(), userID, req.Name)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, server)
}

// ListServers handles GET /api/v1/servers.
func (h *ServerHandler) ListServers(c echo.Context) error {
	userID := auth.GetUserID(c)

	servers, err := h.service.ListServers(c.Request().Context(), userID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, servers)
}

// GetServer handles GET /api/v1/servers/:id.
func (h *ServerHandler) GetServer(c echo.Context) error {
	serverID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid server id")
	}

	userID := auth.GetUserID(c)

	server, err := h.service.GetServer(c.Request().Context(), serverID, userID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, server)
}

type updateServerRequest struct {
	Name string `json:"name"`
}

// UpdateServer handles PATCH /api/v1/servers/:id.
func (h *ServerHandler) UpdateServer(c echo.Context) error {
	serverID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid server id")
	}

	var req updateServerRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	userID := auth.GetUserID(c)

	server, err := h.service.UpdateServer(c.Request().Context(), serverID, userID, req.Name)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, server)
}

// DeleteServer handles DELETE /api/v1/servers/:id.
func (h *ServerHandler) DeleteServer(c echo.Context) error {
	serverID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid server id")
	}

	userID := auth.GetUserID(c)

	if err := h.service.DeleteServer(c.Request().Context(), serverID, userID); err != nil {
		return mapServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// LeaveServer handles DELETE /api/v1/servers/:id/members/@me.
func (h *ServerHandler) LeaveServer(c echo.Context) error {
	serverID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid server id")
	}

	userID := auth.GetUserID(c)

	if err := h.service.LeaveServer(c.Request().Context(), serverID, userID); err != nil {
		return mapServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
