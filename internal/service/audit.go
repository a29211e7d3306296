package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/parley-chat/parley/internal/database"
	"github.com/parley-chat/parley/internal/models"
	"github.com/parley-chat/parley/internal/permissions"
	"github.com/parley-chat/parley/internal/snowflake"
)

// AuditRecorder writes audit log entries for configuration mutations.
// Recording is best-effort: a failure is logged but never fails the mutation
// that triggered it.
type AuditRecorder struct {
	entries   database.AuditLogRepository
	snowflake *snowflake.Generator
	log       *slog.Logger
}

// NewAuditRecorder creates an AuditRecorder.
func NewAuditRecorder(entries database.AuditLogRepository, sf *snowflake.Generator, log *slog.Logger) *AuditRecorder {
	return &AuditRecorder{entries: entries, snowflake: sf, log: log}
}

// Record writes one audit entry.
func (a *AuditRecorder) Record(ctx context.Context, serverID, actorID int64, action string, targetID *int64, detail map[string]any) {
	entry := &models.AuditLogEntry{
		ID:        a.snowflake.Generate().Int64(),
		ServerID:  serverID,
		ActorID:   actorID,
		Action:    action,
		TargetID:  targetID,
		Detail:    detail,
		CreatedAt: time.Now(),
	}
	if err := a.entries.Create(ctx, entry); err != nil {
		a.log.Error("recording audit entry failed",
			"action", action, "server_id", serverID, "actor_id", actorID, "error", err)
	}
}

// exportLimit caps how many entries a single export fetches.
const exportLimit = 1000

// AuditExport is a rendered audit log export.
type AuditExport struct {
	ID          string
	Filename    string
	ContentType string
	Data        []byte
}

// AuditService exposes the audit log to users holding manageServer.
type AuditService struct {
	entries database.AuditLogRepository
	perms   *PermissionChecker
}

// NewAuditService creates an AuditService.
func NewAuditService(entries database.AuditLogRepository, perms *PermissionChecker) *AuditService {
	return &AuditService{entries: entries, perms: perms}
}

// List returns audit entries for a server, newest first.
func (s *AuditService) List(ctx context.Context, serverID, actorID int64, limit, offset int) ([]models.AuditLogEntry, error) {
	if err := s.perms.RequireServerPermission(ctx, serverID, actorID, permissions.PermManageServer); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	entries, err := s.entries.GetByServerID(ctx, serverID, limit, offset)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if entries == nil {
		entries = []models.AuditLogEntry{}
	}
	return entries, nil
}

// Export renders the audit log as a downloadable JSON or CSV document.
func (s *AuditService) Export(ctx context.Context, serverID, actorID int64, format string) (*AuditExport, error) {
	if format != "json" && format != "csv" {
		return nil, BadRequest("INVALID_FORMAT", "format must be json or csv")
	}

	if err := s.perms.RequireServerPermission(ctx, serverID, actorID, permissions.PermManageServer); err != nil {
		return nil, err
	}

	entries, err := s.entries.GetByServerID(ctx, serverID, exportLimit, 0)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}

	exportID := uuid.NewString()
	generatedAt := time.Now().UTC()

	var data []byte
	var contentType string
	switch format {
	case "json":
		data, err = renderJSONExport(exportID, serverID, generatedAt, entries)
		contentType = "application/json"
	case "csv":
		data, err = renderCSVExport(entries)
		contentType = "text/csv"
	}
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}

	return &AuditExport{
		ID:          exportID,
		Filename:    "audit-" + strconv.FormatInt(serverID, 10) + "-" + generatedAt.Format("20060102T150405Z") + "." + format,
		ContentType: contentType,
		Data:        data,
	}, nil
}

func renderJSONExport(exportID string, serverID int64, generatedAt time.Time, entries []models.AuditLogEntry) ([]byte, error) {
	if entries == nil {
		entries = []models.AuditLogEntry{}
	}
	envelope := struct {
		ExportID    string                 `json:"export_id"`
		ServerID    int64                  `json:"server_id,string"`
		GeneratedAt time.Time              `json:"generated_at"`
		Entries     []models.AuditLogEntry `json:"entries"`
	}{
		ExportID:    exportID,
		ServerID:    serverID,
		GeneratedAt: generatedAt,
		Entries:     entries,
	}
	return json.MarshalIndent(envelope, "", "  ")
}

func renderCSVExport(entries []models.AuditLogEntry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"id", "actor_id", "action", "target_id", "detail", "created_at"}); err != nil {
		return nil, err
	}
	for _, e := range entries {
		targetID := ""
		if e.TargetID != nil {
			targetID = strconv.FormatInt(*e.TargetID, 10)
		}
		detail := ""
		if len(e.Detail) > 0 {
			raw, err := json.Marshal(e.Detail)
			if err != nil {
				return nil, err
			}
			detail = string(raw)
		}
		record := []string{
			strconv.FormatInt(e.ID, 10),
			strconv.FormatInt(e.ActorID, 10),
			e.Action,
			targetID,
			detail,
			e.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
