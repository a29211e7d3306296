package models

import "time"

// AuditLogEntry records a mutation to server configuration: role, channel,
// override, invite, and server changes.
type AuditLogEntry struct {
	ID        int64          `json:"id,string"`
	ServerID  int64          `json:"server_id,string"`
	ActorID   int64          `json:"actor_id,string"`
	Action    string         `json:"action"`
	TargetID  *int64         `json:"target_id,string,omitempty"`
	Detail    map[string]any `json:"detail,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
