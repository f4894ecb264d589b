package hardware

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/stianeikeland/go-rpio/v4"

	"irrigation_control/internal/device"
	"irrigation_control/internal/logger"
	"irrigation_control/internal/models"
)

// ErrUnknownZone marks a command naming a zone key that is not registered.
var ErrUnknownZone = errors.New("unknown zone")

// Registry owns the fixed set of zones and their devices and enforces the
// exclusivity invariant: at most one zone energized at a time.
type Registry struct {
	log     *logger.Logger
	zones   []models.Zone // config order, fixed at startup
	tracker *Tracker

	simulate bool

	initOnce sync.Once
	devices  map[string]device.Device
	gpioOpen bool
}

// NewRegistry prepares a registry; devices are built on the first Init call.
func NewRegistry(zones []models.Zone, tracker *Tracker, simulate bool, log *logger.Logger) *Registry {
	return &Registry{
		log:      log,
		zones:    zones,
		tracker:  tracker,
		simulate: simulate,
	}
}

// Init builds one device per configured zone. It is idempotent: concurrent
// first callers are serialized and exactly one set of devices is constructed.
// A zone whose real device cannot be built gets a mock substitute so the rest
// of the system keeps functioning.
func (r *Registry) Init() {
	r.initOnce.Do(r.buildDevices)
}

func (r *Registry) buildDevices() {
	r.devices = make(map[string]device.Device, len(r.zones))

	if r.simulate {
		r.log.Infow("hardware_simulated", "zones", len(r.zones))
		for _, z := range r.zones {
			r.devices[z.Key] = device.NewMock(z.Key, r.tracker)
		}
		return
	}

	// One rpio.Open serves every relay zone. If the GPIO memory range is
	// unavailable, all relay zones fall back to mocks.
	if r.hasRelayZones() {
		if err := rpio.Open(); err != nil {
			r.log.Errorw("gpio_open_failed", "err", err)
			r.tracker.RecordError("gpio", fmt.Sprintf("open gpio: %v", err))
		} else {
			r.gpioOpen = true
		}
	}

	for _, z := range r.zones {
		r.devices[z.Key] = r.buildDevice(z)
	}
	r.log.Infow("hardware_initialized", "zones", len(r.devices))
}

func (r *Registry) hasRelayZones() bool {
	for _, z := range r.zones {
		if z.Kind == models.KindRelay {
			return true
		}
	}
	return false
}

func (r *Registry) buildDevice(z models.Zone) device.Device {
	switch z.Kind {
	case models.KindRelay:
		if !r.gpioOpen {
			r.log.Warnw("zone_fallback_mock", "zone", z.Key, "reason", "gpio unavailable")
			return device.NewMock(z.Key, r.tracker)
		}
		return device.NewRelay(z.Key, z.Pin, true, r.tracker)
	case models.KindShelly:
		timeout := time.Duration(z.TimeoutSec * float64(time.Second))
		return device.NewShelly(z.Key, z.Address, z.RPCID, timeout, r.tracker)
	default:
		// Config validation filters unknown kinds; guard anyway.
		r.log.Warnw("zone_fallback_mock", "zone", z.Key, "reason", "unknown kind")
		return device.NewMock(z.Key, r.tracker)
	}
}

// Zones returns the configured zones with their live on/off state.
func (r *Registry) Zones() []models.ZoneStatus {
	r.Init()
	out := make([]models.ZoneStatus, 0, len(r.zones))
	for _, z := range r.zones {
		out = append(out, models.ZoneStatus{
			Key:  z.Key,
			Name: z.Name,
			Kind: z.Kind,
			IsOn: r.devices[z.Key].IsOn(),
		})
	}
	return out
}

// ZoneName resolves a zone key to its display name, falling back to the key.
func (r *Registry) ZoneName(key string) string {
	for _, z := range r.zones {
		if z.Key == key {
			return z.Name
		}
	}
	return key
}

// HasZone reports whether key names a registered zone.
func (r *Registry) HasZone(key string) bool {
	for _, z := range r.zones {
		if z.Key == key {
			return true
		}
	}
	return false
}

// IsOn reports the live state of one zone.
func (r *Registry) IsOn(key string) (bool, error) {
	r.Init()
	d, ok := r.devices[key]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownZone, key)
	}
	return d.IsOn(), nil
}

// TurnOff turns one zone off.
func (r *Registry) TurnOff(key string) error {
	r.Init()
	d, ok := r.devices[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownZone, key)
	}
	return d.Off()
}

// AllOff turns every zone off. Failures are collected, not raised per zone:
// a failure to turn off zone A must not prevent attempting zone B. The
// joined error is returned for logging and bookkeeping by the caller.
func (r *Registry) AllOff() error {
	r.Init()
	var errs []error
	for _, z := range r.zones {
		if err := r.devices[z.Key].Off(); err != nil {
			r.log.Errorw("zone_off_failed", "zone", z.Key, "err", err)
			errs = append(errs, fmt.Errorf("turn off %s: %w", z.Key, err))
		}
	}
	return errors.Join(errs...)
}

// ExclusiveOn is the invariant-enforcing primitive: every other zone is
// turned off first, then the target is turned on. Off failures on other
// zones are logged and collected but never abort the activation; the
// ordering alone guarantees two zones are never on together, at the accepted
// risk of a non-target zone sticking on, which surfaces through the health
// tracker rather than being retried inline.
func (r *Registry) ExclusiveOn(key string) error {
	r.Init()
	target, ok := r.devices[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownZone, key)
	}

	for _, z := range r.zones {
		if z.Key == key {
			continue
		}
		if err := r.devices[z.Key].Off(); err != nil {
			r.log.Warnw("exclusive_on_off_failed", "target", key, "zone", z.Key, "err", err)
		}
	}

	if err := target.On(); err != nil {
		return fmt.Errorf("turn on %s: %w", key, err)
	}
	r.log.Infow("zone_on", "zone", key)
	return nil
}

// Close releases the GPIO range. Call on shutdown after AllOff.
func (r *Registry) Close() {
	if r.gpioOpen {
		if err := rpio.Close(); err != nil {
			r.log.Errorw("gpio_close_failed", "err", err)
		}
		r.gpioOpen = false
	}
}
