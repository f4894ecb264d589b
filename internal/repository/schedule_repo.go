package repository

import (
	"sync"

	"irrigation_control/internal/models"
)

// ScheduleFile persists the schedule list as one JSON file. The mutex
// serializes writers; the scheduler loop and the HTTP front end both save.
type ScheduleFile struct {
	mu   sync.Mutex
	path string
}

func NewScheduleFile(path string) *ScheduleFile {
	return &ScheduleFile{path: path}
}

var _ ScheduleRepo = (*ScheduleFile)(nil)

func (r *ScheduleFile) Load() ([]models.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var schedules []models.Schedule
	if err := readJSONList(r.path, &schedules); err != nil {
		return nil, err
	}
	if schedules == nil {
		schedules = []models.Schedule{}
	}
	return schedules, nil
}

func (r *ScheduleFile) Save(schedules []models.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return writeJSONAtomic(r.path, schedules)
}
