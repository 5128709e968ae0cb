package models

import (
	"time"
)

// LogEvent is one entry from a device's push log stream. Events live only
// in the per-device ring buffer and are never persisted by the console.
type LogEvent struct {
	ID         int64     `json:"id"`
	DeviceID   string    `json:"device_id"`
	DeviceName string    `json:"device_name"`
	Message    string    `json:"message"`
	Level      string    `json:"level"`
	Timestamp  time.Time `json:"timestamp"`
}
