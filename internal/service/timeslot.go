package service

import (
	"fmt"
	"strconv"
	"strings"
)

// Weekday names accepted on bookings, in teaching-week order. The timetable
// has no weekend scheduling.
var weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

func isWeekday(day string) bool {
	for _, d := range weekdays {
		if d == day {
			return true
		}
	}
	return false
}

// minuteOfDay converts a zero-padded 24h "HH:MM" string to minutes since
// midnight.
func minuteOfDay(raw string) (int, error) {
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", raw)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", raw, err)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", raw, err)
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid time %q: out of range", raw)
	}
	return hours*60 + minutes, nil
}

// overlaps reports whether the half-open intervals [aStart,aEnd) and
// [bStart,bEnd) intersect. An entry that starts exactly when another ends
// does not conflict. On a malformed time string the answer is true: the
// caller must never silently double-book, so parse failures fail closed
// instead of propagating an error.
func overlaps(aStart, aEnd, bStart, bEnd string) bool {
	as, err := minuteOfDay(aStart)
	if err != nil {
		return true
	}
	ae, err := minuteOfDay(aEnd)
	if err != nil {
		return true
	}
	bs, err := minuteOfDay(bStart)
	if err != nil {
		return true
	}
	be, err := minuteOfDay(bEnd)
	if err != nil {
		return true
	}
	return as < be && ae > bs
}

// validTimeRange reports whether both endpoints parse and start precedes end.
func validTimeRange(start, end string) bool {
	s, err := minuteOfDay(start)
	if err != nil {
		return false
	}
	e, err := minuteOfDay(end)
	if err != nil {
		return false
	}
	return s < e
}

// slotWindow is one bookable range on the hourly grid.
type slotWindow struct {
	Start string
	End   string
}

// buildHourlyGrid expands [dayStart,dayEnd) into one-hour slots, holding out
// the lunch window. With the defaults this yields 08:00-09:00 through
// 16:00-17:00 minus 12:00-13:00.
func buildHourlyGrid(dayStart, dayEnd, lunchStart, lunchEnd string) ([]slotWindow, error) {
	start, err := minuteOfDay(dayStart)
	if err != nil {
		return nil, fmt.Errorf("day start: %w", err)
	}
	end, err := minuteOfDay(dayEnd)
	if err != nil {
		return nil, fmt.Errorf("day end: %w", err)
	}
	lunchS, err := minuteOfDay(lunchStart)
	if err != nil {
		return nil, fmt.Errorf("lunch start: %w", err)
	}
	lunchE, err := minuteOfDay(lunchEnd)
	if err != nil {
		return nil, fmt.Errorf("lunch end: %w", err)
	}
	if start >= end {
		return nil, fmt.Errorf("day start %s must precede day end %s", dayStart, dayEnd)
	}

	var grid []slotWindow
	for from := start; from+60 <= end; from += 60 {
		to := from + 60
		if from < lunchE && to > lunchS {
			continue
		}
		grid = append(grid, slotWindow{Start: formatMinute(from), End: formatMinute(to)})
	}
	return grid, nil
}

func formatMinute(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
