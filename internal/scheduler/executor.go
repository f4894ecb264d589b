package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"irrigation_control/internal/logger"
	"irrigation_control/internal/metrics"
	"irrigation_control/internal/models"
	"irrigation_control/internal/repository"
	"irrigation_control/internal/state"
)

// Orchestrator is the slice of the hardware registry the executor drives.
type Orchestrator interface {
	ExclusiveOn(key string) error
	TurnOff(key string) error
	AllOff() error
	HasZone(key string) bool
	ZoneName(key string) string
}

// ErrRunInProgress rejects a sequence launch while another is in flight.
// Overlapping runs are refused outright rather than queued: last_run is not
// stamped for the refused schedule, so a later matching minute can still
// fire it, and the exclusivity invariant never depends on this guard.
var ErrRunInProgress = errors.New("a sequence is already running")

// Executor runs one schedule's ordered zone steps to completion or
// cancellation, publishing progress into the shared run state.
type Executor struct {
	log    *logger.Logger
	zones  Orchestrator
	runs   *state.RunState
	cancel *state.Cancel
	errLog repository.ErrorLogRepo

	// stepUnit is the wall-clock length of one step minute and pollInterval
	// the cancellation poll granularity; tests shrink both.
	stepUnit     time.Duration
	pollInterval time.Duration

	// single-flight guard; see ErrRunInProgress.
	inFlight chan struct{}
}

func NewExecutor(zones Orchestrator, runs *state.RunState, cancel *state.Cancel,
	errLog repository.ErrorLogRepo, log *logger.Logger) *Executor {
	return &Executor{
		log:          log,
		zones:        zones,
		runs:         runs,
		cancel:       cancel,
		errLog:       errLog,
		stepUnit:     time.Minute,
		pollInterval: time.Second,
		inFlight:     make(chan struct{}, 1),
	}
}

// Busy reports whether a sequence is currently in flight.
func (e *Executor) Busy() bool {
	return len(e.inFlight) == 1
}

// TryAcquire reserves the single-flight slot without blocking. The caller
// must follow with runReserved, or hand the slot back with Release when the
// reserved run is abandoned before launch.
func (e *Executor) TryAcquire() bool {
	select {
	case e.inFlight <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release returns a slot taken by TryAcquire.
func (e *Executor) Release() {
	select {
	case <-e.inFlight:
	default:
	}
}

// Run executes the schedule's sequence. It blocks until the sequence ends.
// Terminal states: completed, cancelled and error all leave the run state
// inactive and every zone off (best effort).
func (e *Executor) Run(sched models.Schedule) error {
	if !e.TryAcquire() {
		return ErrRunInProgress
	}
	return e.runReserved(sched)
}

// runReserved runs the sequence with the single-flight slot already held and
// releases it on return. The scheduler loop reserves the slot synchronously
// before stamping last_run, then launches this on its own goroutine, so
// admission and stamping are one decision.
func (e *Executor) runReserved(sched models.Schedule) error {
	defer func() { <-e.inFlight }()

	// A panicking device implementation must not take down the scheduler;
	// shut the hardware off and mark the run errored.
	defer func() {
		if r := recover(); r != nil {
			e.log.Errorw("sequence_panic", "schedule", sched.Name, "panic", r)
			if err := e.zones.AllOff(); err != nil {
				e.log.Errorw("emergency_all_off_failed", "err", err)
			}
			e.runs.Clear("error")
		}
	}()

	e.cancel.Clear()
	e.runs.Set(true, sched.Name, "starting", nil, sched.ID)
	metrics.RunsStarted.Inc()

	total := time.Duration(totalMinutes(sched.Sequence)) * e.stepUnit
	ends := time.Now().Add(total)
	e.runs.Set(true, sched.Name, "starting", &ends, sched.ID)
	e.log.Infow("sequence_started", "schedule", sched.Name, "steps", len(sched.Sequence), "ends_at", ends)

	for i, step := range sched.Sequence {
		if step.Mins <= 0 {
			e.log.Infow("step_skipped", "schedule", sched.Name, "step", i+1, "reason", "zero duration")
			continue
		}
		if !e.zones.HasZone(step.Key) {
			e.log.Warnw("step_skipped", "schedule", sched.Name, "step", i+1, "zone", step.Key, "reason", "unknown zone")
			continue
		}

		label := fmt.Sprintf("%d/%d: %s (%dm)", i+1, len(sched.Sequence), step.Key, step.Mins)
		e.runs.Set(true, sched.Name, label, &ends, sched.ID)
		e.log.Infow("step_started", "schedule", sched.Name, "step", label)

		if err := e.zones.ExclusiveOn(step.Key); err != nil {
			// A single bad zone must not cancel an otherwise valid plan.
			e.log.Errorw("zone_activation_failed", "zone", step.Key, "err", err)
			e.recordHardwareError(step.Key, "activation_failed", err)
			continue
		}
		metrics.ZoneActivations.WithLabelValues(step.Key).Inc()

		if !state.WaitOrCancel(e.cancel, time.Duration(step.Mins)*e.stepUnit, e.pollInterval) {
			return e.finishCancelled(sched.Name)
		}

		if err := e.zones.TurnOff(step.Key); err != nil {
			e.log.Errorw("zone_deactivation_failed", "zone", step.Key, "err", err)
			e.recordHardwareError(step.Key, "deactivation_failed", err)
		}
	}

	e.runs.Clear("")
	metrics.RunsCompleted.Inc()
	e.log.Infow("sequence_completed", "schedule", sched.Name)
	return nil
}

func (e *Executor) finishCancelled(name string) error {
	e.log.Infow("sequence_cancelled", "schedule", name)
	if err := e.zones.AllOff(); err != nil {
		e.log.Errorw("all_off_after_cancel_failed", "err", err)
	}
	e.runs.Clear("cancelled")
	metrics.RunsCancelled.Inc()
	return nil
}

func (e *Executor) recordHardwareError(zone, errType string, err error) {
	metrics.HardwareErrors.WithLabelValues(zone).Inc()
	rec := models.HardwareErrorRecord{
		EventID:   uuid.NewString(),
		Time:      time.Now().UTC(),
		DeviceID:  zone,
		ErrorType: errType,
		Message:   err.Error(),
	}
	if logErr := e.errLog.Append(rec); logErr != nil {
		e.log.Errorw("hardware_error_log_failed", "zone", zone, "err", logErr)
	}
}

func totalMinutes(seq []models.SequenceStep) int {
	var mins int
	for _, s := range seq {
		if s.Mins > 0 {
			mins += s.Mins
		}
	}
	return mins
}
