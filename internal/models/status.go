package models

import (
	"strings"
)

// DisplayStatus is the closed taxonomy the console renders. The backend
// reports runtime status as free text in arbitrary case; every raw value
// maps to exactly one bucket, unrecognized values to StatusUnknown.
type DisplayStatus string

const (
	StatusRunning  DisplayStatus = "running"
	StatusOnline   DisplayStatus = "online"
	StatusPaused   DisplayStatus = "paused"
	StatusCooldown DisplayStatus = "cooldown"
	StatusOffline  DisplayStatus = "offline"
	StatusError    DisplayStatus = "error"
	StatusUnknown  DisplayStatus = "unknown"
)

// MapRuntimeStatus maps a raw server status string to a display bucket.
// Total by construction: there is no input without an output.
func MapRuntimeStatus(raw string) DisplayStatus {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "RUNNING", "ACTIVE":
		return StatusRunning
	case "READY", "IDLE", "WAITING", "PENDING":
		return StatusOnline
	case "PAUSED":
		return StatusPaused
	case "COOLDOWN":
		return StatusCooldown
	case "OFFLINE", "DISABLED":
		return StatusOffline
	case "ERROR", "FAILED":
		return StatusError
	default:
		return StatusUnknown
	}
}
