// Package scheduler contains the tick loop that decides which schedules are
// due and the executor that runs one schedule's zone sequence.
package scheduler

import (
	"strconv"
	"strings"
	"time"

	"irrigation_control/internal/models"
)

var dayTags = [...]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// dayMatches reports whether the schedule is eligible on t's weekday.
func dayMatches(days []string, t time.Time) bool {
	// time.Weekday starts at Sunday; the tag table starts at Monday.
	tag := dayTags[(int(t.Weekday())+6)%7]
	for _, d := range days {
		if d == tag {
			return true
		}
	}
	return false
}

// timeMatches compares hour and minute only; seconds are irrelevant because
// the loop ticks several times per minute.
func timeMatches(start string, t time.Time) bool {
	hour, minute, ok := parseStart(start)
	if !ok {
		return false
	}
	return t.Hour() == hour && t.Minute() == minute
}

// alreadyRanThisMinute compares last_run to the current minute bucket,
// guaranteeing at most one fire per matching minute across repeated ticks.
func alreadyRanThisMinute(s models.Schedule, t time.Time) bool {
	if s.LastRun == "" {
		return false
	}
	return s.LastRun == t.Format(models.MinuteLayout)
}

// parseStart splits "HH:MM" into its parts. Malformed values never match.
func parseStart(start string) (hour, minute int, ok bool) {
	parts := strings.Split(start, ":")
	if len(parts) != 2 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}
