package models

import "time"

// RunState is the snapshot of the in-flight sequence execution.
// Exactly one exists process-wide; it is overwritten, never queued.
type RunState struct {
	Active     bool       `json:"active"`
	Name       string     `json:"name,omitempty"`
	Step       string     `json:"step,omitempty"` // e.g. "2/3: S1 (5m)", "cancelled", "error"
	EndsAt     *time.Time `json:"ends_at,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	ScheduleID int        `json:"schedule_id,omitempty"`
}
