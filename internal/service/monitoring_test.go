package service

import (
	"errors"
	"testing"
	"time"

	"irrigation_control/internal/models"
	"irrigation_control/internal/repository"
	"irrigation_control/internal/state"
)

// mockSensor is an in-test EnvironmentSource.
type mockSensor struct {
	env         models.Environment
	err         error
	status      models.SensorStatus
	cacheClears int
	reads       []bool // useCache flags, in call order
}

func (m *mockSensor) Read(useCache bool) (models.Environment, error) {
	m.reads = append(m.reads, useCache)
	if m.err != nil {
		return models.Environment{}, m.err
	}
	return m.env, nil
}

func (m *mockSensor) ClearCache()                 { m.cacheClears++ }
func (m *mockSensor) Status() models.SensorStatus { return m.status }

// mockHealth is an in-test HealthSource.
type mockHealth struct {
	byID map[string]models.HardwareStatus
}

func (m *mockHealth) Status() map[string]models.HardwareStatus { return m.byID }

// mockSkipLog / mockErrorLog are bounded-log stand-ins that just record.
type mockSkipLog struct {
	records []models.SkipRecord
}

func (m *mockSkipLog) Append(r models.SkipRecord) error { m.records = append(m.records, r); return nil }
func (m *mockSkipLog) Recent(limit int) ([]models.SkipRecord, error) {
	if limit > len(m.records) {
		limit = len(m.records)
	}
	return m.records[:limit], nil
}

type mockErrorLog struct {
	records []models.HardwareErrorRecord
	lastN   int
}

func (m *mockErrorLog) Append(r models.HardwareErrorRecord) error {
	m.records = append(m.records, r)
	return nil
}

func (m *mockErrorLog) Recent(limit int) ([]models.HardwareErrorRecord, error) {
	m.lastN = limit
	if limit > len(m.records) {
		limit = len(m.records)
	}
	return m.records[:limit], nil
}

type monitoringFixture struct {
	svc       *MonitoringService
	orch      *mockOrchestrator
	sensor    *mockSensor
	health    *mockHealth
	schedules *mockScheduleRepo
	errorLog  *mockErrorLog
	runs      *state.RunState
	cancel    *state.Cancel
}

func newMonitoringFixture() *monitoringFixture {
	f := &monitoringFixture{
		orch:      newMockOrchestrator("R1", "S1"),
		sensor:    &mockSensor{err: errors.New("offline")},
		health:    &mockHealth{byID: map[string]models.HardwareStatus{}},
		schedules: &mockScheduleRepo{},
		errorLog:  &mockErrorLog{},
		runs:      state.NewRunState(),
		cancel:    state.NewCancel(),
	}
	repos := &repository.Repository{
		Schedules: f.schedules,
		SkipLog:   &mockSkipLog{},
		ErrorLog:  f.errorLog,
	}
	f.svc = NewMonitoringService(f.orch, f.health, f.sensor, repos, f.runs, f.cancel)
	return f
}

func TestMonitoringService_StatusWithSensorDown(t *testing.T) {
	f := newMonitoringFixture()
	f.runs.Set(true, "morning", "1/2: R1 (5m)", nil, 4)
	f.cancel.Set()

	got := f.svc.Status()

	if !got.Run.Active || got.Run.Name != "morning" {
		t.Fatalf("expected active run in status, got %+v", got.Run)
	}
	if !got.CancelRequested {
		t.Fatalf("expected cancel_requested true")
	}
	if len(got.Zones) != 2 {
		t.Fatalf("expected 2 zones, got %d", len(got.Zones))
	}
	if got.Environment != nil {
		t.Fatalf("an unreachable sensor must yield a nil environment, got %+v", got.Environment)
	}
}

func TestMonitoringService_StatusIncludesEnvironmentAndLastRun(t *testing.T) {
	f := newMonitoringFixture()
	f.sensor.err = nil
	f.sensor.env = models.Environment{TempC: 19.5, Humidity: 60}
	f.schedules.schedules = []models.Schedule{
		{ID: 1, Name: "early", LastRun: "2025-06-02 06:00"},
		{ID: 2, Name: "late", LastRun: "2025-06-02 18:00"},
		{ID: 3, Name: "never"},
	}

	got := f.svc.Status()

	if got.Environment == nil || got.Environment.Humidity != 60 {
		t.Fatalf("expected environment in status, got %+v", got.Environment)
	}
	if got.LastRun == nil || got.LastRun.ScheduleID != 2 || got.LastRun.Time != "2025-06-02 18:00" {
		t.Fatalf("expected the most recent firing surfaced, got %+v", got.LastRun)
	}
	if len(f.sensor.reads) != 1 || !f.sensor.reads[0] {
		t.Fatalf("status must use the cached reading, got %v", f.sensor.reads)
	}
}

func TestMonitoringService_HardwareSortedByDevice(t *testing.T) {
	f := newMonitoringFixture()
	f.health.byID = map[string]models.HardwareStatus{
		"S1": {DeviceID: "S1", ConsecutiveErrors: 2},
		"R1": {DeviceID: "R1"},
	}

	got := f.svc.Hardware()
	if len(got) != 2 || got[0].DeviceID != "R1" || got[1].DeviceID != "S1" {
		t.Fatalf("expected deterministic device order, got %+v", got)
	}
}

func TestMonitoringService_HardwareErrorsDefaultLimit(t *testing.T) {
	f := newMonitoringFixture()

	if _, err := f.svc.HardwareErrors(0); err != nil {
		t.Fatalf("HardwareErrors: %v", err)
	}
	if f.errorLog.lastN != defaultLogLimit {
		t.Fatalf("expected default limit %d, got %d", defaultLogLimit, f.errorLog.lastN)
	}

	if _, err := f.svc.HardwareErrors(7); err != nil {
		t.Fatalf("HardwareErrors: %v", err)
	}
	if f.errorLog.lastN != 7 {
		t.Fatalf("expected explicit limit passed through, got %d", f.errorLog.lastN)
	}
}

func TestMonitoringService_RefreshSensorForcesFreshRead(t *testing.T) {
	f := newMonitoringFixture()
	f.sensor.err = nil
	f.sensor.env = models.Environment{TempC: 21, Humidity: 50, ReadAt: time.Now()}

	env, err := f.svc.RefreshSensor()
	if err != nil {
		t.Fatalf("RefreshSensor: %v", err)
	}
	if env.Humidity != 50 {
		t.Fatalf("unexpected reading: %+v", env)
	}
	if f.sensor.cacheClears != 1 {
		t.Fatalf("expected the cache dropped before the read")
	}
	if len(f.sensor.reads) != 1 || f.sensor.reads[0] {
		t.Fatalf("expected a cache-bypassing read, got %v", f.sensor.reads)
	}
}
