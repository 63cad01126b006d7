package domain

import "time"

// AuditLog is one security-relevant event: who did what to which resource,
// from where. UserID is 0 for events with no authenticated user, such as
// failed logins.
type AuditLog struct {
	ID        int64
	UserID    int64
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
