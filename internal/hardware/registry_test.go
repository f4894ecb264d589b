package hardware

import (
	"errors"
	"testing"
	"time"

	"irrigation_control/internal/device"
	"irrigation_control/internal/logger"
	"irrigation_control/internal/models"
)

// flakyDevice fails On/Off a configurable number of times.
type flakyDevice struct {
	on       bool
	onErr    error
	offErr   error
	offCalls int
	onCalls  int
}

func (d *flakyDevice) On() error {
	d.onCalls++
	if d.onErr != nil {
		return d.onErr
	}
	d.on = true
	return nil
}

func (d *flakyDevice) Off() error {
	d.offCalls++
	if d.offErr != nil {
		return d.offErr
	}
	d.on = false
	return nil
}

func (d *flakyDevice) IsOn() bool { return d.on }

func testZones(keys ...string) []models.Zone {
	zones := make([]models.Zone, 0, len(keys))
	for _, k := range keys {
		zones = append(zones, models.Zone{Key: k, Name: "zone " + k, Kind: models.KindShelly, Address: "127.0.0.1"})
	}
	return zones
}

// newFakeRegistry wires a registry around injected devices, bypassing Init.
func newFakeRegistry(t *testing.T, devices map[string]device.Device, keys ...string) *Registry {
	t.Helper()
	r := NewRegistry(testZones(keys...), NewTracker(3, 5*time.Minute), true, logger.Get(logger.ErrorLevel))
	r.initOnce.Do(func() {}) // burn the once so Init keeps the injected set
	r.devices = devices
	return r
}

func TestRegistry_ExclusiveOnInvariant(t *testing.T) {
	r := NewRegistry(testZones("R1", "R2", "S1"), NewTracker(3, 5*time.Minute), true, logger.Get(logger.ErrorLevel))

	if err := r.ExclusiveOn("R2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.ExclusiveOn("S1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, z := range r.Zones() {
		want := z.Key == "S1"
		if z.IsOn != want {
			t.Fatalf("zone %s: expected on=%v, got %v", z.Key, want, z.IsOn)
		}
	}
}

func TestRegistry_ExclusiveOnUnknownZone(t *testing.T) {
	r := NewRegistry(testZones("R1"), NewTracker(3, 5*time.Minute), true, logger.Get(logger.ErrorLevel))

	err := r.ExclusiveOn("nope")
	if !errors.Is(err, ErrUnknownZone) {
		t.Fatalf("expected ErrUnknownZone, got %v", err)
	}
}

func TestRegistry_ExclusiveOnSurvivesOtherZoneOffFailure(t *testing.T) {
	stuck := &flakyDevice{on: true, offErr: errors.New("relay stuck")}
	target := &flakyDevice{}
	r := newFakeRegistry(t, map[string]device.Device{"R1": stuck, "R2": target}, "R1", "R2")

	if err := r.ExclusiveOn("R2"); err != nil {
		t.Fatalf("off failure on another zone must not abort activation: %v", err)
	}
	if !target.on {
		t.Fatalf("expected target on")
	}
	if stuck.offCalls == 0 {
		t.Fatalf("expected an off attempt on the stuck zone")
	}
}

func TestRegistry_ExclusiveOnTargetFailurePropagates(t *testing.T) {
	target := &flakyDevice{onErr: errors.New("unreachable")}
	r := newFakeRegistry(t, map[string]device.Device{"S1": target}, "S1")

	err := r.ExclusiveOn("S1")
	if err == nil {
		t.Fatalf("expected error when target on() fails")
	}
}

func TestRegistry_AllOffCollectsFailures(t *testing.T) {
	bad := &flakyDevice{on: true, offErr: errors.New("no ack")}
	good := &flakyDevice{on: true}
	r := newFakeRegistry(t, map[string]device.Device{"R1": bad, "R2": good}, "R1", "R2")

	err := r.AllOff()
	if err == nil {
		t.Fatalf("expected joined error from failing zone")
	}
	if good.offCalls != 1 || good.on {
		t.Fatalf("failure on R1 must not prevent turning off R2")
	}
}

func TestRegistry_InitIsIdempotent(t *testing.T) {
	r := NewRegistry(testZones("R1"), NewTracker(3, 5*time.Minute), true, logger.Get(logger.ErrorLevel))

	r.Init()
	first := r.devices["R1"]
	r.Init()
	if r.devices["R1"] != first {
		t.Fatalf("repeat Init must return the cached device set")
	}
}

func TestRegistry_HasRelayZones(t *testing.T) {
	shellyOnly := NewRegistry(testZones("S1", "S2"), NewTracker(3, 5*time.Minute), true, logger.Get(logger.ErrorLevel))
	if shellyOnly.hasRelayZones() {
		t.Fatalf("shelly-only zone set must not report relay zones")
	}

	mixed := append(testZones("S1"), models.Zone{Key: "R1", Name: "zone R1", Kind: models.KindRelay, Pin: 26})
	withRelay := NewRegistry(mixed, NewTracker(3, 5*time.Minute), true, logger.Get(logger.ErrorLevel))
	if !withRelay.hasRelayZones() {
		t.Fatalf("expected relay zone to be detected")
	}
}

func TestRegistry_SimulatedDevicesAreMocks(t *testing.T) {
	r := NewRegistry(testZones("R1", "S1"), NewTracker(3, 5*time.Minute), true, logger.Get(logger.ErrorLevel))
	r.Init()

	for key, d := range r.devices {
		if _, ok := d.(*device.Mock); !ok {
			t.Fatalf("zone %s: expected mock device in simulate mode, got %T", key, d)
		}
	}
}

func TestRegistry_ZoneNameFallsBackToKey(t *testing.T) {
	r := NewRegistry(testZones("R1"), NewTracker(3, 5*time.Minute), true, logger.Get(logger.ErrorLevel))
	if got := r.ZoneName("R1"); got != "zone R1" {
		t.Fatalf("expected display name, got %q", got)
	}
	if got := r.ZoneName("ghost"); got != "ghost" {
		t.Fatalf("expected key fallback, got %q", got)
	}
}
