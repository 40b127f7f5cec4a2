package model

import "time"

// Notification is a per-user message persisted at order commit and routed
// best-effort to the user's live channel.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Message   string    `json:"message"`
	Icon      string    `json:"icon"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
