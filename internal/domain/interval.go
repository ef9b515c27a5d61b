package domain

import "time"

// Overlaps reports whether half-open intervals [aStart, aEnd) and [bStart, bEnd) intersect.
// An interval ending exactly when the other begins does not overlap it.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Contains reports whether [start, end) lies fully inside [outerStart, outerEnd)
func Contains(outerStart, outerEnd, start, end time.Time) bool {
	return !start.Before(outerStart) && !end.After(outerEnd) && start.Before(end)
}
