package models

import "time"

// Server is a community owned by a single user. The owner bypasses all
// permission checks unconditionally.
type Server struct {
	ID        int64     `json:"id,string"`
	Name      string    `json:"name"`
	OwnerID   int64     `json:"owner_id,string"`
	CreatedAt time.Time `json:"created_at"`
}
