package model

import "time"

// User identifies the customer owning orders and notifications. Accounts are
// managed by the external auth service; this engine only reads them.
type User struct {
	ID        int64
	Login     string
	CreatedAt time.Time
}
