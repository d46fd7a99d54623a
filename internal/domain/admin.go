package domain

import "time"

// Admin is a console operator allowed to advance queues.
type Admin struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}
