package service

import (
	"errors"
	"fmt"
	"time"

	"irrigation_control/internal/logger"
	"irrigation_control/internal/metrics"
	"irrigation_control/internal/models"
	"irrigation_control/internal/state"
)

// Domain errors for manual zone control.
var (
	ErrSequenceRunning = errors.New("a scheduled sequence is running")
	ErrPulseRunning    = errors.New("a pulse is already running")
	ErrBadDuration     = errors.New("duration must be between 1 second and 1 hour")
)

const maxPulseSeconds = 3600

// ZonesService drives manual zone commands against the hardware registry.
type ZonesService struct {
	log    *logger.Logger
	zones  Orchestrator
	runs   *state.RunState
	cancel *state.Cancel
	gate   RunGate

	// pollInterval bounds pulse cancellation latency; tests shrink it.
	pollInterval time.Duration

	// single-flight guard for background pulses.
	inFlight chan struct{}
}

func NewZonesService(zones Orchestrator, runs *state.RunState, cancel *state.Cancel,
	gate RunGate, log *logger.Logger) *ZonesService {
	return &ZonesService{
		log:          log,
		zones:        zones,
		runs:         runs,
		cancel:       cancel,
		gate:         gate,
		pollInterval: time.Second,
		inFlight:     make(chan struct{}, 1),
	}
}

func (s *ZonesService) List() []models.ZoneStatus {
	return s.zones.Zones()
}

// TurnOn activates one zone exclusively: every other zone goes off first.
func (s *ZonesService) TurnOn(key string) error {
	if err := s.zones.ExclusiveOn(key); err != nil {
		return fmt.Errorf("turn on %s: %w", s.zones.ZoneName(key), err)
	}
	metrics.ZoneActivations.WithLabelValues(key).Inc()
	return nil
}

func (s *ZonesService) TurnOff(key string) error {
	if err := s.zones.TurnOff(key); err != nil {
		return fmt.Errorf("turn off %s: %w", s.zones.ZoneName(key), err)
	}
	return nil
}

// Pulse turns a zone on for a bounded number of seconds, then off, on a
// background goroutine. It is refused while a scheduled sequence or another
// pulse is in flight; the wait itself observes the cancellation signal.
func (s *ZonesService) Pulse(key string, seconds int) error {
	if seconds <= 0 || seconds > maxPulseSeconds {
		return ErrBadDuration
	}
	if !s.zones.HasZone(key) {
		return fmt.Errorf("unknown zone %q", key)
	}
	if s.gate.Busy() {
		return ErrSequenceRunning
	}

	select {
	case s.inFlight <- struct{}{}:
	default:
		return ErrPulseRunning
	}

	name := s.zones.ZoneName(key)
	if err := s.zones.ExclusiveOn(key); err != nil {
		<-s.inFlight
		return fmt.Errorf("turn on %s: %w", name, err)
	}
	metrics.ZoneActivations.WithLabelValues(key).Inc()

	s.cancel.Clear()
	d := time.Duration(seconds) * time.Second
	ends := time.Now().Add(d)
	s.runs.Set(true, fmt.Sprintf("manual: %s", name), fmt.Sprintf("pulse %ds", seconds), &ends, 0)
	s.log.Infow("pulse_started", "zone", key, "seconds", seconds)

	go func() {
		defer func() { <-s.inFlight }()

		if !state.WaitOrCancel(s.cancel, d, s.pollInterval) {
			s.log.Infow("pulse_cancelled", "zone", key)
			if err := s.zones.AllOff(); err != nil {
				s.log.Errorw("all_off_after_cancel_failed", "err", err)
			}
			s.runs.Clear("cancelled")
			return
		}
		if err := s.zones.TurnOff(key); err != nil {
			s.log.Errorw("pulse_off_failed", "zone", key, "err", err)
		}
		s.runs.Clear("")
		s.log.Infow("pulse_completed", "zone", key)
	}()
	return nil
}

// AllOff is the panic button: it raises the cancellation signal first so any
// in-flight sequence or pulse stops, then turns every zone off.
func (s *ZonesService) AllOff() error {
	s.cancel.Set()
	s.log.Infow("all_off_requested")
	if err := s.zones.AllOff(); err != nil {
		return fmt.Errorf("turn all zones off: %w", err)
	}
	return nil
}

func (s *ZonesService) ZoneName(key string) string {
	return s.zones.ZoneName(key)
}
