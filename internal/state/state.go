// Package state holds the cross-goroutine mutable state shared between the
// scheduler loop, sequence executions and foreground commands: the single
// run-state record and the cooperative cancellation signal. Each lives behind
// its own lock so status reads never queue behind run-state writes.
package state

import (
	"sync"
	"time"

	"irrigation_control/internal/models"
)

// RunState is the single source of truth for "is a sequence running".
// Writers overwrite it whole; readers get a consistent snapshot.
type RunState struct {
	mu      sync.Mutex
	current models.RunState
}

func NewRunState() *RunState {
	return &RunState{}
}

// Set overwrites the record. StartedAt is stamped when transitioning active.
func (r *RunState) Set(active bool, name, step string, endsAt *time.Time, scheduleID int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var startedAt *time.Time
	if active {
		if r.current.Active && r.current.StartedAt != nil {
			startedAt = r.current.StartedAt
		} else {
			now := time.Now()
			startedAt = &now
		}
	}
	r.current = models.RunState{
		Active:     active,
		Name:       name,
		Step:       step,
		EndsAt:     endsAt,
		StartedAt:  startedAt,
		ScheduleID: scheduleID,
	}
}

// SetStep updates only the step label of an active run.
func (r *RunState) SetStep(step string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current.Step = step
}

// Clear resets to inactive, keeping an optional terminal step label
// ("cancelled", "error", or "" for natural completion).
func (r *RunState) Clear(terminalStep string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = models.RunState{Step: terminalStep}
}

// Get returns a snapshot of the record.
func (r *RunState) Get() models.RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Cancel is the process-wide cancellation signal: settable, clearable,
// testable, and waitable. The channel form lets the executor's wait be a
// select with timeout instead of a sleep-and-recheck loop.
type Cancel struct {
	mu  sync.Mutex
	set bool
	ch  chan struct{}
}

func NewCancel() *Cancel {
	return &Cancel{ch: make(chan struct{})}
}

// Set requests cancellation. Idempotent.
func (c *Cancel) Set() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.set {
		c.set = true
		close(c.ch)
	}
}

// Clear re-arms the signal; called at the start of each new sequence.
func (c *Cancel) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.set {
		c.set = false
		c.ch = make(chan struct{})
	}
}

// IsSet reports whether cancellation has been requested.
func (c *Cancel) IsSet() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.set
}

// Done returns a channel closed while the signal is set. Callers must call
// Done again after a Clear; the channel is replaced, not reused.
func (c *Cancel) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ch
}

// WaitOrCancel blocks for d and returns true, or returns false as soon as
// the signal is set. The wait is an interruptible select, sliced by slice so
// a signal re-armed mid-wait is still observed promptly.
func WaitOrCancel(c *Cancel, d, slice time.Duration) bool {
	if slice <= 0 {
		slice = time.Second
	}
	deadline := time.Now().Add(d)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return true
		}
		if remaining > slice {
			remaining = slice
		}
		select {
		case <-c.Done():
			return false
		case <-time.After(remaining):
		}
	}
}
