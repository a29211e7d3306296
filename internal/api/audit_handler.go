package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/parley-chat/parley/internal/auth"
	"github.com/parley-chat/parley/internal/service"
)

// AuditHandler handles audit log endpoints.
type AuditHandler struct {
	service *service.AuditService
}

// NewAuditHandler creates an AuditHandler.
func NewAuditHandler(svc *service.AuditService) *AuditHandler {
	return &AuditHandler{service: svc}
}

// ListEntries handles GET /api/v1/servers/:id/audit-log.
func (h *AuditHandler) ListEntries(c echo.Context) error {
	serverID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid server id")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	actorID := auth.GetUserID(c)

	entries, err := h.service.List(c.Request().Context(), serverID, actorID, limit, offset)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, entries)
}

// Export handles GET /api/v1/servers/:id/audit-log/export?format=json|csv.
// The response is a file download.
func (h *AuditHandler) Export(c echo.Context) error {
	serverID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid server id")
	}

	format := c.QueryParam("format")
	if format == "" {
		format = "json"
	}

	actorID := auth.GetUserID(c)

	export, err := h.service.Export(c.Request().Context(), serverID, actorID, format)
	if err != nil {
		return mapServiceError(c, err)
	}

	c.Response().Header().Set("X-Export-ID", export.ID)
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+export.Filename+`"`)
	return c.Blob(http.StatusOK, export.ContentType, export.Data)
}
