package device

import "sync"

// Mock is the simulation device. It is also substituted for any zone whose
// real device could not be constructed, so the rest of the system keeps
// functioning.
type Mock struct {
	id     string
	health HealthRecorder

	mu sync.Mutex
	on bool
}

func NewMock(id string, health HealthRecorder) *Mock {
	return &Mock{id: id, health: health}
}

func (m *Mock) On() error {
	m.mu.Lock()
	m.on = true
	m.mu.Unlock()
	m.health.RecordSuccess(m.id)
	return nil
}

func (m *Mock) Off() error {
	m.mu.Lock()
	m.on = false
	m.mu.Unlock()
	m.health.RecordSuccess(m.id)
	return nil
}

func (m *Mock) IsOn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.on
}
