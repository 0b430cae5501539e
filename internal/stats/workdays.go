package stats

import "time"

// BusinessDaysBetween counts the weekdays in the half-open day range [start, end).
// Both instants are truncated to midnight first; end is read in start's location.
// It returns 0 when end is not after start or when either instant is unset.
func BusinessDaysBetween(start, end time.Time) int {
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return 0
	}

	day := midnight(start)
	last := midnight(end.In(start.Location()))

	count := 0
	for day.Before(last) {
		switch day.Weekday() {
		case time.Saturday, time.Sunday:
		default:
			count++
		}
		day = day.AddDate(0, 0, 1)
	}
	return count
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
