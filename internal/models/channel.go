package models

type Channel struct {
	ID       int64   `json:"id,string"`
	ServerID int64   `json:"server_id,string"`
	Name     string  `json:"name"`
	Position int     `json:"position"`
	Topic    *string `json:"topic,omitempty"`
}
