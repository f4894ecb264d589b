package service

import (
	"sort"

	"irrigation_control/internal/models"
	"irrigation_control/internal/repository"
	"irrigation_control/internal/state"
)

const defaultLogLimit = 20

// StatusReport is the dashboard payload: everything the UI needs in one read.
type StatusReport struct {
	Run             models.RunState     `json:"run"`
	CancelRequested bool                `json:"cancel_requested"`
	Zones           []models.ZoneStatus `json:"zones"`
	Sensor          models.SensorStatus `json:"sensor"`

	// Environment is nil when the sensor is unavailable; "no reading" and
	// "humidity zero" must stay distinguishable.
	Environment *models.Environment `json:"environment,omitempty"`

	// LastRun is the most recent firing across all schedules.
	LastRun *LastRunInfo `json:"last_run,omitempty"`
}

// LastRunInfo names the schedule behind the most recent firing.
type LastRunInfo struct {
	ScheduleID   int    `json:"schedule_id"`
	ScheduleName string `json:"schedule_name"`
	Time         string `json:"time"`
}

type MonitoringService struct {
	zones  Orchestrator
	health HealthSource
	sensor EnvironmentSource
	repos  *repository.Repository
	runs   *state.RunState
	cancel *state.Cancel
}

func NewMonitoringService(zones Orchestrator, health HealthSource, sensor EnvironmentSource,
	repos *repository.Repository, runs *state.RunState, cancel *state.Cancel) *MonitoringService {
	return &MonitoringService{
		zones:  zones,
		health: health,
		sensor: sensor,
		repos:  repos,
		runs:   runs,
		cancel: cancel,
	}
}

// Status assembles the dashboard snapshot. A failing sensor or schedule store
// degrades the payload instead of failing it: the run state and zone states
// are always present.
func (s *MonitoringService) Status() StatusReport {
	report := StatusReport{
		Run:             s.runs.Get(),
		CancelRequested: s.cancel.IsSet(),
		Zones:           s.zones.Zones(),
		Sensor:          s.sensor.Status(),
	}

	if env, err := s.sensor.Read(true); err == nil {
		report.Environment = &env
	}

	if schedules, err := s.repos.Schedules.Load(); err == nil {
		report.LastRun = latestRun(schedules)
	}
	return report
}

// Hardware returns per-device health snapshots sorted by device id.
func (s *MonitoringService) Hardware() []models.HardwareStatus {
	byID := s.health.Status()
	out := make([]models.HardwareStatus, 0, len(byID))
	for _, st := range byID {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeviceID < out[j].DeviceID })
	return out
}

func (s *MonitoringService) HardwareErrors(limit int) ([]models.HardwareErrorRecord, error) {
	if limit <= 0 {
		limit = defaultLogLimit
	}
	return s.repos.ErrorLog.Recent(limit)
}

func (s *MonitoringService) Skips(limit int) ([]models.SkipRecord, error) {
	if limit <= 0 {
		limit = defaultLogLimit
	}
	return s.repos.SkipLog.Recent(limit)
}

// RefreshSensor drops the cache and forces a fresh read.
func (s *MonitoringService) RefreshSensor() (models.Environment, error) {
	s.sensor.ClearCache()
	return s.sensor.Read(false)
}

// latestRun picks the most recent last_run stamp; the stamps are minute
// formatted and lexically ordered, so a string compare suffices.
func latestRun(schedules []models.Schedule) *LastRunInfo {
	var best *LastRunInfo
	for _, s := range schedules {
		if s.LastRun == "" {
			continue
		}
		if best == nil || s.LastRun > best.Time {
			best = &LastRunInfo{ScheduleID: s.ID, ScheduleName: s.Name, Time: s.LastRun}
		}
	}
	return best
}
