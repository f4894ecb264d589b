// Package device abstracts one irrigation output behind a uniform on/off
// capability. Variants: a GPIO relay, a Shelly Wi-Fi switch, and an
// in-memory mock used both for simulation and as a fallback when a real
// device cannot be constructed.
package device

import (
	"errors"
	"fmt"
)

// Device is the capability every zone output implements. On and Off either
// succeed (one physical/network write, health recorded as success) or fail
// with a device error (health recorded as failure). The only silent no-op is
// an active cooldown, which surfaces as ErrCooldown without touching the
// hardware or the error count.
type Device interface {
	On() error
	Off() error
	IsOn() bool
}

// HealthRecorder is the per-device health bookkeeping a device reports into.
// Implemented by hardware.Tracker; kept as an interface here to avoid the
// device layer depending on the orchestration layer.
type HealthRecorder interface {
	RecordSuccess(deviceID string)
	RecordError(deviceID, message string)
	CanRetry(deviceID string) bool
}

// ErrCooldown marks a command refused because the device is failed and its
// retry cooldown has not elapsed.
var ErrCooldown = errors.New("device in cooldown")

// Error wraps a device failure with the zone and operation it happened on.
type Error struct {
	Device string
	Op     string // "on" | "off"
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("device %s: %s: %v", e.Device, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(device, op string, err error) *Error {
	return &Error{Device: device, Op: op, Err: err}
}
