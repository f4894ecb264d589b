package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"irrigation_control/internal/models"
	"irrigation_control/internal/repository"
)

// ErrScheduleNotFound marks a delete for an id that is not stored.
var ErrScheduleNotFound = errors.New("schedule not found")

var startRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

var validDays = map[string]bool{
	"Mon": true, "Tue": true, "Wed": true, "Thu": true,
	"Fri": true, "Sat": true, "Sun": true,
}

// SchedulesService validates and stores automation rules. Mutations are
// serialized so concurrent adds cannot hand out the same id.
type SchedulesService struct {
	mu    sync.Mutex
	repo  repository.ScheduleRepo
	zones Orchestrator
}

func NewSchedulesService(repo repository.ScheduleRepo, zones Orchestrator) *SchedulesService {
	return &SchedulesService{repo: repo, zones: zones}
}

func (s *SchedulesService) List() ([]models.Schedule, error) {
	return s.repo.Load()
}

// Add validates the schedule, assigns a unique id and persists it. LastRun
// and LastSkipped are always reset: a new rule has no history.
func (s *SchedulesService) Add(sched models.Schedule) (models.Schedule, error) {
	if err := s.validate(sched); err != nil {
		return models.Schedule{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.repo.Load()
	if err != nil {
		return models.Schedule{}, err
	}

	sched.ID = nextID(all)
	sched.LastRun = ""
	sched.LastSkipped = nil

	all = append(all, sched)
	if err := s.repo.Save(all); err != nil {
		return models.Schedule{}, err
	}
	return sched, nil
}

func (s *SchedulesService) Delete(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.repo.Load()
	if err != nil {
		return err
	}

	kept := all[:0]
	for _, sched := range all {
		if sched.ID != id {
			kept = append(kept, sched)
		}
	}
	if len(kept) == len(all) {
		return fmt.Errorf("%w: id %d", ErrScheduleNotFound, id)
	}
	return s.repo.Save(kept)
}

func (s *SchedulesService) validate(sched models.Schedule) error {
	if strings.TrimSpace(sched.Name) == "" {
		return errors.New("schedule name is required")
	}
	if !startRe.MatchString(sched.Start) {
		return fmt.Errorf("start %q is not a valid HH:MM time", sched.Start)
	}
	if len(sched.Days) == 0 {
		return errors.New("at least one day is required")
	}
	for _, d := range sched.Days {
		if !validDays[d] {
			return fmt.Errorf("unknown day %q", d)
		}
	}
	if len(sched.Sequence) == 0 {
		return errors.New("sequence must have at least one step")
	}
	for i, step := range sched.Sequence {
		if !s.zones.HasZone(step.Key) {
			return fmt.Errorf("step %d: unknown zone %q", i+1, step.Key)
		}
		if step.Mins <= 0 {
			return fmt.Errorf("step %d: duration must be at least one minute", i+1)
		}
	}
	return nil
}

// nextID is max(id)+1, never reusing the id of a deleted schedule within the
// currently stored set.
func nextID(all []models.Schedule) int {
	next := 1
	for _, s := range all {
		if s.ID >= next {
			next = s.ID + 1
		}
	}
	return next
}
