package device

import (
	"sync"

	"github.com/stianeikeland/go-rpio/v4"
)

// Relay drives a valve through a GPIO pin. Most relay boards used for
// irrigation valves are active-low: driving the pin low energizes the relay.
//
// rpio.Open must have been called once before constructing relays; the
// registry owns that and falls back to mocks when the GPIO memory range is
// unavailable.
type Relay struct {
	id        string
	pin       rpio.Pin
	activeLow bool
	health    HealthRecorder

	mu sync.Mutex
	on bool
}

// NewRelay configures the pin for output and leaves the valve de-energized.
func NewRelay(id string, pin int, activeLow bool, health HealthRecorder) *Relay {
	r := &Relay{
		id:        id,
		pin:       rpio.Pin(pin),
		activeLow: activeLow,
		health:    health,
	}
	r.pin.Output()
	r.write(false)
	health.RecordSuccess(id)
	return r
}

func (r *Relay) On() error {
	if !r.health.CanRetry(r.id) {
		return newError(r.id, "on", ErrCooldown)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.write(true)
	r.on = true
	r.health.RecordSuccess(r.id)
	return nil
}

func (r *Relay) Off() error {
	if !r.health.CanRetry(r.id) {
		return newError(r.id, "off", ErrCooldown)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.write(false)
	r.on = false
	r.health.RecordSuccess(r.id)
	return nil
}

func (r *Relay) IsOn() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.on
}

// write drives the pin. Pin writes are memory-mapped and cannot fail once
// the GPIO range is open.
func (r *Relay) write(energize bool) {
	high := energize != r.activeLow // active-low inverts the level
	if high {
		r.pin.High()
	} else {
		r.pin.Low()
	}
}
