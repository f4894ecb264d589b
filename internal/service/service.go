// Package service is the application boundary: handlers talk to these
// interfaces only, never to the registry, repositories or scheduler directly.
package service

import (
	"time"

	"irrigation_control/internal/logger"
	"irrigation_control/internal/models"
	"irrigation_control/internal/repository"
	"irrigation_control/internal/state"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Zones exposes manual zone control. Activation is always exclusive: at most
// one zone is on, regardless of how the command arrived.
type Zones interface {
	List() []models.ZoneStatus
	TurnOn(key string) error
	TurnOff(key string) error
	Pulse(key string, seconds int) error
	AllOff() error
	ZoneName(key string) string
}

// Schedules exposes the stored automation rules.
type Schedules interface {
	List() ([]models.Schedule, error)
	Add(s models.Schedule) (models.Schedule, error)
	Delete(id int) error
}

// Monitoring exposes read-only state: the run snapshot, device health,
// bounded event logs and the environment sensor.
type Monitoring interface {
	Status() StatusReport
	Hardware() []models.HardwareStatus
	HardwareErrors(limit int) ([]models.HardwareErrorRecord, error)
	Skips(limit int) ([]models.SkipRecord, error)
	RefreshSensor() (models.Environment, error)
}

// Orchestrator is the slice of the hardware registry the services drive.
type Orchestrator interface {
	Zones() []models.ZoneStatus
	ExclusiveOn(key string) error
	TurnOff(key string) error
	AllOff() error
	HasZone(key string) bool
	ZoneName(key string) string
}

// HealthSource is the slice of the health tracker monitoring reads.
type HealthSource interface {
	Status() map[string]models.HardwareStatus
}

// EnvironmentSource is the slice of the sensor client the services consume.
type EnvironmentSource interface {
	Read(useCache bool) (models.Environment, error)
	ClearCache()
	Status() models.SensorStatus
}

// RunGate reports whether a scheduled sequence is in flight; manual pulses
// are refused while one is.
type RunGate interface {
	Busy() bool
}

type Service struct {
	Zones
	Schedules
	Monitoring
	Authorization
}

// Deps carries everything the concrete services are wired from.
type Deps struct {
	Repos    *repository.Repository
	Zones    Orchestrator
	Health   HealthSource
	Sensor   EnvironmentSource
	Runs     *state.RunState
	Cancel   *state.Cancel
	Gate     RunGate
	Log      *logger.Logger
	JWTKey   string
	TokenTTL time.Duration
}

func NewService(d Deps) *Service {
	return &Service{
		Zones:         NewZonesService(d.Zones, d.Runs, d.Cancel, d.Gate, d.Log),
		Schedules:     NewSchedulesService(d.Repos.Schedules, d.Zones),
		Monitoring:    NewMonitoringService(d.Zones, d.Health, d.Sensor, d.Repos, d.Runs, d.Cancel),
		Authorization: NewAuthService(d.Repos.Auth, d.JWTKey, d.TokenTTL),
	}
}
