package models

import (
	"time"
)

// Target is one queued automation target as reported by the backend
type Target struct {
	Username   string    `json:"username"`
	Source     string    `json:"source"`
	Status     string    `json:"status"`
	ReservedBy *string   `json:"reserved_by"`
	AddedAt    time.Time `json:"added_at"`
}

// TargetBase is the payload for adding a target to the pending queue
type TargetBase struct {
	Username string `json:"username" validate:"required"`
	Source   string `json:"source" validate:"required"`
}

// TargetStats summarizes the target queue by status
type TargetStats struct {
	Pending   int `json:"pending"`
	Reserved  int `json:"reserved"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Total     int `json:"total"`
}
