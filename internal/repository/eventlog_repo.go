package repository

import (
	"sync"

	"irrigation_control/internal/models"
)

// SkipLogFile is the bounded FIFO log of humidity skips.
type SkipLogFile struct {
	mu   sync.Mutex
	path string
	cap  int
}

func NewSkipLogFile(path string, capacity int) *SkipLogFile {
	return &SkipLogFile{path: path, cap: capacity}
}

var _ SkipLogRepo = (*SkipLogFile)(nil)

func (r *SkipLogFile) Append(rec models.SkipRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var entries []models.SkipRecord
	if err := readJSONList(r.path, &entries); err != nil {
		return err
	}
	entries = append(entries, rec)
	if len(entries) > r.cap {
		entries = entries[len(entries)-r.cap:]
	}
	return writeJSONAtomic(r.path, entries)
}

func (r *SkipLogFile) Recent(limit int) ([]models.SkipRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var entries []models.SkipRecord
	if err := readJSONList(r.path, &entries); err != nil {
		return nil, err
	}
	return lastReversed(entries, limit), nil
}

// ErrorLogFile is the bounded FIFO log of hardware errors.
type ErrorLogFile struct {
	mu   sync.Mutex
	path string
	cap  int
}

func NewErrorLogFile(path string, capacity int) *ErrorLogFile {
	return &ErrorLogFile{path: path, cap: capacity}
}

var _ ErrorLogRepo = (*ErrorLogFile)(nil)

func (r *ErrorLogFile) Append(rec models.HardwareErrorRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var entries []models.HardwareErrorRecord
	if err := readJSONList(r.path, &entries); err != nil {
		return err
	}
	entries = append(entries, rec)
	if len(entries) > r.cap {
		entries = entries[len(entries)-r.cap:]
	}
	return writeJSONAtomic(r.path, entries)
}

func (r *ErrorLogFile) Recent(limit int) ([]models.HardwareErrorRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var entries []models.HardwareErrorRecord
	if err := readJSONList(r.path, &entries); err != nil {
		return nil, err
	}
	return lastReversed(entries, limit), nil
}

// lastReversed returns up to limit entries, most recent first.
func lastReversed[T any](entries []T, limit int) []T {
	if limit <= 0 || limit > len(entries) {
		limit = len(entries)
	}
	out := make([]T, 0, limit)
	for i := len(entries) - 1; i >= len(entries)-limit; i-- {
		out = append(out, entries[i])
	}
	return out
}
