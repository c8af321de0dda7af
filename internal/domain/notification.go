package domain

import (
	"errors"
	"time"
)

var (
	// ErrNotificationNotFound indicates that the notification is not found.
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrNotificationOwnerMismatch indicates that the notification belongs to another user.
	ErrNotificationOwnerMismatch = errors.New("notification owner mismatch")
)

// Notification is an in-app message about a movement outcome.
type Notification struct {
	ID        int64     `json:"id"`
	Owner     string    `json:"owner"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateNotificationParams is the input data to create a notification.
type CreateNotificationParams struct {
	Owner   string
	Message string
}
