package models

import "time"

// HardwareStatus is the health snapshot of a single device.
type HardwareStatus struct {
	DeviceID          string     `json:"device_id"`
	IsFailed          bool       `json:"is_failed"`
	ConsecutiveErrors int        `json:"consecutive_errors"`
	LastError         string     `json:"last_error,omitempty"`
	LastErrorTime     *time.Time `json:"last_error_time,omitempty"`
	LastSuccessTime   *time.Time `json:"last_success_time,omitempty"`
	CanRetry          bool       `json:"can_retry"`

	// Human-readable ages for the status UI.
	LastSeen     string `json:"last_seen"`      // e.g. "42s ago", "Never"
	LastErrorAgo string `json:"last_error_ago"` // same format
}

// HardwareErrorRecord is one entry of the bounded hardware error log.
type HardwareErrorRecord struct {
	EventID   string    `json:"event_id"`
	Time      time.Time `json:"time"`
	DeviceID  string    `json:"device_id"`
	ErrorType string    `json:"error_type"` // e.g. "activation_failed", "deactivation_failed"
	Message   string    `json:"error_msg"`
}

// SkipRecord is one entry of the bounded humidity-skip log.
type SkipRecord struct {
	EventID      string    `json:"event_id"`
	Time         time.Time `json:"time"`
	ScheduleID   int       `json:"schedule_id"`
	ScheduleName string    `json:"schedule_name"`
	Humidity     float64   `json:"humidity"`
	Temp         *float64  `json:"temp"`
}
