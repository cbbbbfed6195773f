package models

import "time"

// LoginAttempt is a single failed login, appended by the rate limiter and
// pruned by maintenance. Rows are never updated.
type LoginAttempt struct {
	ID        int64
	CreatedAt time.Time
	Username  *string // nil when the attempt carried no username
	IP        string
}
