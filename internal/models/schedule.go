package models

import "time"

// MinuteLayout is the persisted last_run format. Minute granularity is
// deliberate: the scheduler matches "fired this minute", nothing finer.
const MinuteLayout = "2006-01-02 15:04"

// SequenceStep is one (zone, duration) pair within a schedule.
// A zero duration or unknown zone key makes the step a no-op, not an error.
type SequenceStep struct {
	Key  string `json:"key"`
	Mins int    `json:"mins"`
}

// SkipSummary records the sensor snapshot of the most recent humidity skip.
type SkipSummary struct {
	Time     time.Time `json:"time"`
	Humidity float64   `json:"humidity"`
	Temp     *float64  `json:"temp"`
}

// Schedule is a persisted automation rule.
type Schedule struct {
	ID       int            `json:"id"`    // unique, monotonically assigned
	Name     string         `json:"name"`
	Start    string         `json:"start"` // "HH:MM", 24h
	Days     []string       `json:"days"`  // e.g. ["Mon","Wed","Fri"]
	Sequence []SequenceStep `json:"sequence"`

	LastRun     string       `json:"last_run,omitempty"` // MinuteLayout
	LastSkipped *SkipSummary `json:"last_skipped,omitempty"`
}

// MarkLastRun stamps the schedule's last_run to the minute bucket of t.
func (s *Schedule) MarkLastRun(t time.Time) {
	s.LastRun = t.Format(MinuteLayout)
}

// TotalDuration sums the sequence's step durations. Negative step durations
// are treated as zero.
func (s *Schedule) TotalDuration() time.Duration {
	var mins int
	for _, step := range s.Sequence {
		if step.Mins > 0 {
			mins += step.Mins
		}
	}
	return time.Duration(mins) * time.Minute
}
