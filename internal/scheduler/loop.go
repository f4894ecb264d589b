package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"irrigation_control/internal/logger"
	"irrigation_control/internal/metrics"
	"irrigation_control/internal/models"
	"irrigation_control/internal/repository"
	"irrigation_control/internal/sensor"
	"irrigation_control/internal/state"
)

// EnvironmentReader is the slice of the sensor client the loop consumes.
type EnvironmentReader interface {
	Read(useCache bool) (models.Environment, error)
}

// Loop wakes on a fixed tick, evaluates every schedule against the current
// time and an optional humidity reading, and launches due sequences.
type Loop struct {
	log       *logger.Logger
	schedules repository.ScheduleRepo
	skips     repository.SkipLogRepo
	env       EnvironmentReader
	executor  *Executor
	zones     Orchestrator
	runs      *state.RunState

	humidityThreshold float64

	now    func() time.Time      // injectable for tests
	launch func(models.Schedule) // fire-and-forget; replaced in tests
}

func NewLoop(schedules repository.ScheduleRepo, skips repository.SkipLogRepo,
	env EnvironmentReader, executor *Executor, zones Orchestrator,
	runs *state.RunState, humidityThreshold float64, log *logger.Logger) *Loop {
	l := &Loop{
		log:               log,
		schedules:         schedules,
		skips:             skips,
		env:               env,
		executor:          executor,
		zones:             zones,
		runs:              runs,
		humidityThreshold: humidityThreshold,
		now:               time.Now,
	}
	// launch is called with the single-flight slot already reserved; the run
	// frees it when the sequence ends.
	l.launch = func(s models.Schedule) {
		go func() {
			if err := executor.runReserved(s); err != nil {
				log.Warnw("sequence_failed", "schedule", s.Name, "err", err)
			}
		}()
	}
	return l
}

// Run ticks at the given interval until ctx is canceled. The loop itself
// never terminates on failure: a panic inside a tick triggers an emergency
// all-off and an error-marked run state, then the next tick proceeds.
func (l *Loop) Run(ctx context.Context, tick time.Duration) {
	l.log.Infow("scheduler_started", "tick", tick)
	t := time.NewTicker(tick)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			l.log.Infow("scheduler_stopped")
			return
		case <-t.C:
			l.safeTick()
		}
	}
}

func (l *Loop) safeTick() {
	defer func() {
		if r := recover(); r != nil {
			l.log.Errorw("scheduler_tick_panic", "panic", r)
			if err := l.zones.AllOff(); err != nil {
				l.log.Errorw("emergency_all_off_failed", "err", err)
			}
			l.runs.Clear("error")
		}
	}()
	l.tick(l.now())
}

// tick evaluates every schedule once. Failures are isolated per schedule:
// one broken record never stops the remaining ones from being evaluated.
func (l *Loop) tick(now time.Time) {
	schedules, err := l.schedules.Load()
	if err != nil {
		// Skip this tick entirely; the next one retries the load.
		l.log.Errorw("schedule_load_failed", "err", err)
		return
	}

	for i := range schedules {
		l.evaluate(schedules, i, now)
	}
}

func (l *Loop) evaluate(schedules []models.Schedule, i int, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Errorw("schedule_evaluation_panic", "schedule", schedules[i].Name, "panic", r)
		}
	}()

	s := &schedules[i]
	due := dayMatches(s.Days, now) && timeMatches(s.Start, now) && !alreadyRanThisMinute(*s, now)
	if !due {
		return
	}
	l.log.Infow("schedule_due", "schedule", s.Name, "id", s.ID)

	// Admission and stamping must be one decision: reserve the executor's
	// single-flight slot before persisting last_run, so two schedules due in
	// the same tick can never both be stamped. The losing schedule stays
	// unstamped and a later matching minute can still fire it.
	if !l.executor.TryAcquire() {
		l.log.Warnw("schedule_rejected", "schedule", s.Name, "reason", "sequence already running")
		return
	}

	if l.shouldSkipForHumidity(schedules, i, now) {
		l.executor.Release()
		return
	}

	// Persist last_run before launching so a crash or slow run cannot cause
	// a duplicate fire on the next tick.
	s.MarkLastRun(now)
	if err := l.schedules.Save(schedules); err != nil {
		l.log.Errorw("schedule_save_failed", "schedule", s.Name, "err", err)
	}

	l.log.Infow("schedule_fired", "schedule", s.Name, "id", s.ID)
	l.launch(*s)
}

// shouldSkipForHumidity consults the sensor and, when humidity exceeds the
// threshold, records the skip and persists the schedule's skip summary. A
// sensor failure never blocks scheduling; it only disables the check for
// this firing.
func (l *Loop) shouldSkipForHumidity(schedules []models.Schedule, i int, now time.Time) bool {
	env, err := l.env.Read(true)
	if err != nil {
		l.log.Warnw("sensor_unavailable", "err", err)
		return false
	}

	if env.Humidity <= l.humidityThreshold {
		return false
	}

	s := &schedules[i]
	l.log.Infow("schedule_skipped_humidity", "schedule", s.Name, "humidity", env.Humidity, "threshold", l.humidityThreshold)
	metrics.RunsSkippedHumidity.Inc()

	temp := env.TempC
	rec := models.SkipRecord{
		EventID:      uuid.NewString(),
		Time:         now.UTC(),
		ScheduleID:   s.ID,
		ScheduleName: s.Name,
		Humidity:     env.Humidity,
		Temp:         &temp,
	}
	if err := l.skips.Append(rec); err != nil {
		l.log.Errorw("skip_log_failed", "schedule", s.Name, "err", err)
	}

	s.LastSkipped = &models.SkipSummary{Time: rec.Time, Humidity: rec.Humidity, Temp: rec.Temp}
	if err := l.schedules.Save(schedules); err != nil {
		l.log.Errorw("schedule_save_failed", "schedule", s.Name, "err", err)
	}
	return true
}

// compile-time check: the sensor client satisfies the loop's dependency.
var _ EnvironmentReader = (*sensor.Client)(nil)
