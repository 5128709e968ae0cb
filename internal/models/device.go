package models

import (
	"time"
)

// TaskMode represents the automation mode a device runs in
type TaskMode string

const (
	TaskModeFollow TaskMode = "follow"
	TaskModeWarmup TaskMode = "warmup"
)

// Valid reports whether the mode is one the backend understands
func (m TaskMode) Valid() bool {
	return m == TaskModeFollow || m == TaskModeWarmup
}

// DeviceRecord is one device's row in the fleet snapshot. Records are
// replaced wholesale on every refresh and never mutated field-by-field;
// the Fleet Snapshot Store is the single writer.
type DeviceRecord struct {
	DeviceID      string      `json:"device_id"`
	DisplayName   string      `json:"profile_name"`
	RuntimeStatus string      `json:"runtime_status"`
	Status        string      `json:"status"`
	Enabled       bool        `json:"is_enabled"`
	TaskMode      TaskMode    `json:"task_mode,omitempty"`
	WarmupDay     int         `json:"warmup_day,omitempty"`
	DailyLimit    int         `json:"daily_limit"`
	CooldownUntil *time.Time  `json:"cooldown_until,omitempty"`
	GroupName     string      `json:"group_name,omitempty"`
	StreamURL     string      `json:"stream_url,omitempty"`
	Stats         DeviceStats `json:"stats"`
}

// DeviceStats holds the rolling activity counters reported per device
type DeviceStats struct {
	Recent2h   int `json:"recent_2h"`
	Rolling24h int `json:"rolling_24h"`
}

// DisplayStatus returns the closed display bucket for the record's
// free-form runtime status
func (d *DeviceRecord) DisplayStatus() DisplayStatus {
	return MapRuntimeStatus(d.RuntimeStatus)
}

// AutomationStatus is the backend's snapshot response envelope
type AutomationStatus struct {
	Status   string         `json:"status"`
	Message  string         `json:"message"`
	Accounts []DeviceRecord `json:"accounts"`
}

// DeviceSelection is the scope payload for start/stop commands.
// An absent or empty device list means the entire fleet.
type DeviceSelection struct {
	DeviceIDs []string `json:"device_ids,omitempty"`
	Mode      TaskMode `json:"mode,omitempty"`
	WarmupDay int      `json:"warmup_day,omitempty"`
}
