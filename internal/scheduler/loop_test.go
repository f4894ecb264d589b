package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"irrigation_control/internal/logger"
	"irrigation_control/internal/models"
	"irrigation_control/internal/state"
)

// fakeScheduleRepo keeps schedules in memory and records every save.
type fakeScheduleRepo struct {
	mu        sync.Mutex
	schedules []models.Schedule
	loadErr   error
	saves     int
	onSave    func() // called with the lock held, after the write
}

func (f *fakeScheduleRepo) Load() ([]models.Schedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return append([]models.Schedule(nil), f.schedules...), nil
}

func (f *fakeScheduleRepo) Save(schedules []models.Schedule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.schedules = append([]models.Schedule(nil), schedules...)
	f.saves++
	if f.onSave != nil {
		f.onSave()
	}
	return nil
}

func (f *fakeScheduleRepo) get(i int) models.Schedule {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.schedules[i]
}

// fakeSkipLog collects humidity skip records.
type fakeSkipLog struct {
	mu      sync.Mutex
	records []models.SkipRecord
}

func (f *fakeSkipLog) Append(r models.SkipRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, r)
	return nil
}

func (f *fakeSkipLog) Recent(limit int) ([]models.SkipRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.SkipRecord(nil), f.records...), nil
}

// fakeEnv serves a fixed reading or a fixed error.
type fakeEnv struct {
	env models.Environment
	err error
}

func (f *fakeEnv) Read(useCache bool) (models.Environment, error) {
	if f.err != nil {
		return models.Environment{}, f.err
	}
	return f.env, nil
}

type loopHarness struct {
	loop      *Loop
	schedules *fakeScheduleRepo
	skips     *fakeSkipLog
	env       *fakeEnv
	executor  *Executor
	orch      *fakeOrch

	mu       sync.Mutex
	launched []models.Schedule
	events   []string // "save" and "launch", in observed order
}

func newLoopHarness(schedules []models.Schedule) *loopHarness {
	h := &loopHarness{
		schedules: &fakeScheduleRepo{schedules: schedules},
		skips:     &fakeSkipLog{},
		env:       &fakeEnv{err: errors.New("no sensor configured")},
		orch:      newFakeOrch("R1", "R2", "S1"),
	}
	h.schedules.onSave = func() {
		h.mu.Lock()
		h.events = append(h.events, "save")
		h.mu.Unlock()
	}

	log := logger.Get(logger.ErrorLevel)
	runs := state.NewRunState()
	cancel := state.NewCancel()
	h.executor = NewExecutor(h.orch, runs, cancel, &fakeErrLog{}, log)

	h.loop = NewLoop(h.schedules, h.skips, h.env, h.executor, h.orch, runs, 95.0, log)
	// The real launch runs the sequence and frees the single-flight slot;
	// this recording stub must free it too.
	h.loop.launch = func(s models.Schedule) {
		h.mu.Lock()
		h.launched = append(h.launched, s)
		h.events = append(h.events, "launch")
		h.mu.Unlock()
		h.executor.Release()
	}
	return h
}

func (h *loopHarness) launchedNames() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	names := make([]string, len(h.launched))
	for i, s := range h.launched {
		names[i] = s.Name
	}
	return names
}

func mondaySchedule(id int, name string) models.Schedule {
	return models.Schedule{
		ID:       id,
		Name:     name,
		Start:    "06:00",
		Days:     []string{"Mon"},
		Sequence: []models.SequenceStep{{Key: "R1", Mins: 5}},
	}
}

func TestLoop_FiresOncePerMinute(t *testing.T) {
	h := newLoopHarness([]models.Schedule{mondaySchedule(1, "morning")})

	h.loop.tick(mondaySixAM)
	h.loop.tick(mondaySixAM.Add(10 * time.Second))
	h.loop.tick(mondaySixAM.Add(50 * time.Second))

	if got := h.launchedNames(); len(got) != 1 || got[0] != "morning" {
		t.Fatalf("expected exactly one launch within the minute, got %v", got)
	}

	// The next matching minute a week later fires again.
	h.loop.tick(mondaySixAM.AddDate(0, 0, 7))
	if got := h.launchedNames(); len(got) != 2 {
		t.Fatalf("expected a second launch the following week, got %v", got)
	}
}

func TestLoop_PersistsLastRunBeforeLaunching(t *testing.T) {
	h := newLoopHarness([]models.Schedule{mondaySchedule(1, "morning")})

	h.loop.tick(mondaySixAM)

	h.mu.Lock()
	events := append([]string(nil), h.events...)
	h.mu.Unlock()
	if len(events) != 2 || events[0] != "save" || events[1] != "launch" {
		t.Fatalf("expected save before launch, got %v", events)
	}
	if got := h.schedules.get(0).LastRun; got != mondaySixAM.Format(models.MinuteLayout) {
		t.Fatalf("persisted last_run = %q, want the firing minute", got)
	}
}

func TestLoop_SkipsOnHighHumidity(t *testing.T) {
	h := newLoopHarness([]models.Schedule{mondaySchedule(3, "morning")})
	h.env.err = nil
	h.env.env = models.Environment{TempC: 21.5, Humidity: 97.2, ReadAt: mondaySixAM}

	h.loop.tick(mondaySixAM)

	if got := h.launchedNames(); len(got) != 0 {
		t.Fatalf("expected no launch above the humidity threshold, got %v", got)
	}
	recs, _ := h.skips.Recent(0)
	if len(recs) != 1 {
		t.Fatalf("expected one skip record, got %d", len(recs))
	}
	if recs[0].ScheduleID != 3 || recs[0].Humidity != 97.2 {
		t.Fatalf("unexpected skip record: %+v", recs[0])
	}
	if recs[0].Temp == nil || *recs[0].Temp != 21.5 {
		t.Fatalf("expected temperature captured in skip record, got %+v", recs[0].Temp)
	}

	saved := h.schedules.get(0)
	if saved.LastSkipped == nil || saved.LastSkipped.Humidity != 97.2 {
		t.Fatalf("expected persisted skip summary, got %+v", saved.LastSkipped)
	}
	if saved.LastRun != "" {
		t.Fatalf("a humidity skip must not stamp last_run, got %q", saved.LastRun)
	}
}

func TestLoop_HumidityAtThresholdStillFires(t *testing.T) {
	h := newLoopHarness([]models.Schedule{mondaySchedule(1, "morning")})
	h.env.err = nil
	h.env.env = models.Environment{Humidity: 95.0}

	h.loop.tick(mondaySixAM)

	if got := h.launchedNames(); len(got) != 1 {
		t.Fatalf("humidity equal to the threshold must not skip, got %v", got)
	}
}

func TestLoop_SensorFailureDoesNotBlockFiring(t *testing.T) {
	h := newLoopHarness([]models.Schedule{mondaySchedule(1, "morning")})
	h.env.err = errors.New("sensor offline")

	h.loop.tick(mondaySixAM)

	if got := h.launchedNames(); len(got) != 1 {
		t.Fatalf("expected launch despite sensor failure, got %v", got)
	}
	recs, _ := h.skips.Recent(0)
	if len(recs) != 0 {
		t.Fatalf("a sensor failure is not a humidity skip, got %v", recs)
	}
}

func TestLoop_BusyExecutorRejectsWithoutStamping(t *testing.T) {
	h := newLoopHarness([]models.Schedule{mondaySchedule(1, "morning")})

	// Occupy the executor as an in-flight sequence would.
	h.executor.inFlight <- struct{}{}
	defer func() { <-h.executor.inFlight }()

	h.loop.tick(mondaySixAM)

	if got := h.launchedNames(); len(got) != 0 {
		t.Fatalf("expected rejection while busy, got %v", got)
	}
	if got := h.schedules.get(0).LastRun; got != "" {
		t.Fatalf("a rejected schedule must keep last_run empty, got %q", got)
	}
	if h.schedules.saves != 0 {
		t.Fatalf("a rejected schedule must not be persisted, got %d saves", h.schedules.saves)
	}
}

func TestLoop_TwoSchedulesDueSameMinuteOnlyOneFires(t *testing.T) {
	lawn := mondaySchedule(1, "lawn")
	beds := mondaySchedule(2, "beds")
	beds.Sequence = []models.SequenceStep{{Key: "R2", Mins: 1}}
	h := newLoopHarness([]models.Schedule{lawn, beds})
	h.executor.stepUnit = 20 * time.Millisecond
	h.executor.pollInterval = 2 * time.Millisecond

	// Real launch path: the slot was reserved by the loop, the run frees it.
	done := make(chan string, 2)
	h.loop.launch = func(s models.Schedule) {
		go func() {
			_ = h.executor.runReserved(s)
			done <- s.Name
		}()
	}

	h.loop.tick(mondaySixAM)

	select {
	case name := <-done:
		if name != "lawn" {
			t.Fatalf("expected the first due schedule to run, got %q", name)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("sequence never completed")
	}
	select {
	case name := <-done:
		t.Fatalf("second sequence %q must not have run", name)
	case <-time.After(50 * time.Millisecond):
	}

	if got := h.schedules.get(0).LastRun; got != mondaySixAM.Format(models.MinuteLayout) {
		t.Fatalf("winning schedule last_run = %q, want the firing minute", got)
	}
	if got := h.schedules.get(1).LastRun; got != "" {
		t.Fatalf("losing schedule must keep last_run empty, got %q", got)
	}
	if calls := h.orch.onCallsSnapshot(); len(calls) != 1 || calls[0] != "R1" {
		t.Fatalf("expected only the winning schedule's zone activated, got %v", calls)
	}
}

func TestLoop_LoadFailureSkipsTick(t *testing.T) {
	h := newLoopHarness([]models.Schedule{mondaySchedule(1, "morning")})
	h.schedules.loadErr = errors.New("disk gone")

	h.loop.tick(mondaySixAM)
	if got := h.launchedNames(); len(got) != 0 {
		t.Fatalf("expected no launch when the store cannot be read, got %v", got)
	}

	// Store recovers within the same minute: the schedule still fires.
	h.schedules.loadErr = nil
	h.loop.tick(mondaySixAM.Add(20 * time.Second))
	if got := h.launchedNames(); len(got) != 1 {
		t.Fatalf("expected launch after the store recovered, got %v", got)
	}
}

func TestLoop_EvaluatesEverySchedule(t *testing.T) {
	off := mondaySchedule(1, "off-day")
	off.Days = []string{"Tue"}
	due := mondaySchedule(2, "due")
	h := newLoopHarness([]models.Schedule{off, due})

	h.loop.tick(mondaySixAM)

	if got := h.launchedNames(); len(got) != 1 || got[0] != "due" {
		t.Fatalf("expected only the matching schedule to fire, got %v", got)
	}
}

func TestLoop_RunStopsOnContextCancel(t *testing.T) {
	h := newLoopHarness(nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.loop.Run(ctx, 5*time.Millisecond)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("loop did not stop after context cancellation")
	}
}
