package domain

import "time"

// User is an authenticated account. Administrators and a ticket's assignee are staff for that ticket.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	IsAdmin      bool
	IsActive     bool
	CreatedAt    time.Time
	LastSeen     *time.Time
}
