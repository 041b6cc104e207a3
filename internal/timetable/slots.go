package timetable

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/classmanager/backend/internal/models"
)

// dayOrder fixes the rendering order of weekdays on the grid.
var dayOrder = []string{
	"MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY", "SUNDAY",
}

// DayIndex returns the position of a weekday in the grid ordering, or -1 when
// the name is not a valid weekday.
func DayIndex(day string) int {
	for i, d := range dayOrder {
		if d == day {
			return i
		}
	}
	return -1
}

// SortDays orders weekday names Monday first. Unknown names sort last.
func SortDays(days []string) []string {
	sorted := make([]string, len(days))
	copy(sorted, days)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := DayIndex(sorted[i]), DayIndex(sorted[j])
		if a < 0 {
			return false
		}
		if b < 0 {
			return true
		}
		return a < b
	})
	return sorted
}

// Slot is one derived, half-open clock interval [Start, End) within a course
// time window. Times are HH:MM:SS.
type Slot struct {
	Start string `json:"start_time"`
	End   string `json:"end_time"`
}

// Label renders the slot as "HH:MM-HH:MM", the cell key format used by the
// grid and by persisted entries.
func (s Slot) Label() string {
	return FormatRange(s.Start, s.End)
}

// FormatRange renders a start/end pair as "HH:MM-HH:MM", dropping seconds.
func FormatRange(start, end string) string {
	return shortClock(start) + "-" + shortClock(end)
}

func shortClock(clock string) string {
	if len(clock) >= 5 {
		return clock[:5]
	}
	return clock
}

// NormalizeClock accepts "HH:MM" or "HH:MM:SS" and returns "HH:MM:SS".
func NormalizeClock(clock string) (string, error) {
	parts := strings.Split(clock, ":")
	switch len(parts) {
	case 2:
		parts = append(parts, "00")
	case 3:
	default:
		return "", fmt.Errorf("invalid clock value %q", clock)
	}
	for _, p := range parts {
		if len(p) != 2 {
			return "", fmt.Errorf("invalid clock value %q", clock)
		}
		if _, err := strconv.Atoi(p); err != nil {
			return "", fmt.Errorf("invalid clock value %q", clock)
		}
	}
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	s, _ := strconv.Atoi(parts[2])
	if h > 23 || m > 59 || s > 59 {
		return "", fmt.Errorf("clock value %q out of range", clock)
	}
	return strings.Join(parts, ":"), nil
}

// ClockMinutes converts a normalized clock value to minutes since midnight.
// Seconds are truncated; persisted times are always whole minutes.
func ClockMinutes(clock string) (int, error) {
	normalized, err := NormalizeClock(clock)
	if err != nil {
		return 0, err
	}
	h, _ := strconv.Atoi(normalized[0:2])
	m, _ := strconv.Atoi(normalized[3:5])
	return h*60 + m, nil
}

func minutesClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d:00", minutes/60, minutes%60)
}

// DeriveSlots tiles a course time window into fixed-duration slots. Starting
// at the window start, each step emits [cursor, cursor+duration) until the
// next interval would cross the window end; a trailing partial interval is
// discarded. The result is a pure function of the window: empty when the
// duration does not fit even once.
func DeriveSlots(window *models.TimeWindow) ([]Slot, error) {
	if window == nil {
		return nil, fmt.Errorf("nil time window")
	}
	if window.LessonDurationMinutes <= 0 {
		return nil, fmt.Errorf("lesson duration must be positive, got %d", window.LessonDurationMinutes)
	}

	start, err := ClockMinutes(window.StartTime)
	if err != nil {
		return nil, fmt.Errorf("window start: %w", err)
	}
	end, err := ClockMinutes(window.EndTime)
	if err != nil {
		return nil, fmt.Errorf("window end: %w", err)
	}
	if start >= end {
		return nil, fmt.Errorf("window start %s not before end %s", window.StartTime, window.EndTime)
	}

	var slots []Slot
	for cursor := start; cursor+window.LessonDurationMinutes <= end; cursor += window.LessonDurationMinutes {
		slots = append(slots, Slot{
			Start: minutesClock(cursor),
			End:   minutesClock(cursor + window.LessonDurationMinutes),
		})
	}
	return slots, nil
}
