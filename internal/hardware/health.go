// Package hardware owns device health tracking and the zone registry that
// enforces single-zone-at-a-time activation.
package hardware

import (
	"fmt"
	"sync"
	"time"

	"irrigation_control/internal/models"
)

// deviceHealth is the mutable per-device record. Entries are created lazily
// on first reference and live for the process lifetime.
type deviceHealth struct {
	consecutiveErrors int
	lastError         string
	lastErrorTime     time.Time
	lastSuccessTime   time.Time
	isFailed          bool
}

// Tracker counts consecutive failures per device and gates retries behind a
// cooldown once a device is marked failed. It is the only inline-retry
// policy in the system: a failed-but-cooled-down device gets exactly one
// more attempt, which either resets it (success) or restarts the clock.
type Tracker struct {
	maxConsecutiveErrors int
	cooldown             time.Duration
	now                  func() time.Time // injectable for tests

	mu      sync.Mutex
	devices map[string]*deviceHealth
}

func NewTracker(maxConsecutiveErrors int, cooldown time.Duration) *Tracker {
	return &Tracker{
		maxConsecutiveErrors: maxConsecutiveErrors,
		cooldown:             cooldown,
		now:                  time.Now,
		devices:              make(map[string]*deviceHealth),
	}
}

// get must be called with t.mu held.
func (t *Tracker) get(deviceID string) *deviceHealth {
	h, ok := t.devices[deviceID]
	if !ok {
		h = &deviceHealth{}
		t.devices[deviceID] = h
	}
	return h
}

// RecordSuccess resets the error count and clears the failed flag.
func (t *Tracker) RecordSuccess(deviceID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	h := t.get(deviceID)
	h.consecutiveErrors = 0
	h.isFailed = false
	h.lastSuccessTime = t.now()
}

// RecordError bumps the consecutive-error count; crossing the threshold
// marks the device failed. A single failed retry attempt keeps the count
// climbing, it does not reset anything.
func (t *Tracker) RecordError(deviceID, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	h := t.get(deviceID)
	h.consecutiveErrors++
	h.lastError = message
	h.lastErrorTime = t.now()
	if h.consecutiveErrors >= t.maxConsecutiveErrors {
		h.isFailed = true
	}
}

// CanRetry reports whether a command may be attempted: always for a healthy
// device, and for a failed one only after the cooldown since its last error.
func (t *Tracker) CanRetry(deviceID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	h := t.get(deviceID)
	if !h.isFailed {
		return true
	}
	if h.lastErrorTime.IsZero() {
		return true
	}
	return t.now().Sub(h.lastErrorTime) >= t.cooldown
}

// Status returns snapshots for every device seen so far, keyed by id.
func (t *Tracker) Status() map[string]models.HardwareStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]models.HardwareStatus, len(t.devices))
	for id, h := range t.devices {
		out[id] = t.snapshot(id, h)
	}
	return out
}

// snapshot must be called with t.mu held.
func (t *Tracker) snapshot(id string, h *deviceHealth) models.HardwareStatus {
	now := t.now()
	s := models.HardwareStatus{
		DeviceID:          id,
		IsFailed:          h.isFailed,
		ConsecutiveErrors: h.consecutiveErrors,
		LastError:         h.lastError,
		LastSeen:          "Never",
		LastErrorAgo:      "Never",
	}
	if !h.lastErrorTime.IsZero() {
		et := h.lastErrorTime
		s.LastErrorTime = &et
		s.LastErrorAgo = formatAgo(now.Sub(et))
	}
	if !h.lastSuccessTime.IsZero() {
		st := h.lastSuccessTime
		s.LastSuccessTime = &st
		s.LastSeen = formatAgo(now.Sub(st))
	}
	s.CanRetry = !h.isFailed || h.lastErrorTime.IsZero() || now.Sub(h.lastErrorTime) >= t.cooldown
	return s
}

func formatAgo(d time.Duration) string {
	secs := int(d.Seconds())
	switch {
	case secs < 60:
		return fmt.Sprintf("%ds ago", secs)
	case secs < 3600:
		return fmt.Sprintf("%dm ago", secs/60)
	case secs < 86400:
		return fmt.Sprintf("%dh ago", secs/3600)
	default:
		return fmt.Sprintf("%dd ago", secs/86400)
	}
}
