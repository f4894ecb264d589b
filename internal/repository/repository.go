// Package repository persists the application's records as whole JSON files
// with atomic write-temp-then-rename semantics. There is deliberately no
// database here: every artifact is small, rewritten whole, and must survive
// corruption by backing up the broken file and starting empty.
package repository

import (
	"irrigation_control/internal/models"
)

// ScheduleRepo is the store contract the scheduler core consumes.
type ScheduleRepo interface {
	Load() ([]models.Schedule, error)
	Save([]models.Schedule) error
}

// SkipLogRepo is the bounded humidity-skip log.
type SkipLogRepo interface {
	Append(models.SkipRecord) error
	Recent(limit int) ([]models.SkipRecord, error)
}

// ErrorLogRepo is the bounded hardware-error log.
type ErrorLogRepo interface {
	Append(models.HardwareErrorRecord) error
	Recent(limit int) ([]models.HardwareErrorRecord, error)
}

// Authorization stores operator accounts.
type Authorization interface {
	Create(username, passwordHash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

// Paths names the files each repository writes.
type Paths struct {
	Schedules string
	SkipLog   string
	ErrorLog  string
	Users     string
}

type Repository struct {
	Schedules ScheduleRepo
	SkipLog   SkipLogRepo
	ErrorLog  ErrorLogRepo
	Auth      Authorization
}

func NewRepository(p Paths) *Repository {
	return &Repository{
		Schedules: NewScheduleFile(p.Schedules),
		SkipLog:   NewSkipLogFile(p.SkipLog, maxSkipEntries),
		ErrorLog:  NewErrorLogFile(p.ErrorLog, maxErrorEntries),
		Auth:      NewUserFile(p.Users),
	}
}

// Log caps, matching the retention the status UI needs.
const (
	maxSkipEntries  = 100
	maxErrorEntries = 200
)
