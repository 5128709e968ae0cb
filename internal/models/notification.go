package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationLevel represents notification severity levels
type NotificationLevel string

const (
	NotificationSuccess NotificationLevel = "success"
	NotificationError   NotificationLevel = "error"
	NotificationInfo    NotificationLevel = "info"
)

// Notification is a non-blocking message surfaced to the operator.
// No failure is ever presented as a full-console crash.
type Notification struct {
	ID        uuid.UUID         `json:"id"`
	Level     NotificationLevel `json:"level"`
	Message   string            `json:"message"`
	CreatedAt time.Time         `json:"created_at"`
}
