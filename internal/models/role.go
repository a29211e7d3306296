package models

// Role is a named, server-scoped bundle of base permission grants.
// Permissions holds the permission bitfield; API payloads expose it as the
// per-kind boolean object rather than the raw integer.
type Role struct {
	ID          int64  `json:"id,string"`
	ServerID    int64  `json:"server_id,string"`
	Name        string `json:"name"`
	Color       int    `json:"color"`
	Permissions int64  `json:"-"`
	Position    int    `json:"position"`
	Mentionable bool   `json:"mentionable"`
}
