package domain

import (
	"time"

	"github.com/m04kA/SMC-PodologyScheduler/pkg/types"
)

// WorkDay is the effective working window of a professional for one date
type WorkDay struct {
	IsWorking bool
	Start     types.TimeString
	End       types.TimeString
}

// NotWorking is the work day of a professional without a template entry or override
var NotWorking = WorkDay{IsWorking: false}

// ResolveWorkDay merges the weekly template with a date-specific override.
// An override always wins, including turning a working day off and vice versa.
// Without either the professional is not working.
func ResolveWorkDay(p *Professional, date time.Time) WorkDay {
	if p == nil {
		return NotWorking
	}

	for _, o := range p.Overrides {
		if SameDay(o.Date, date) {
			return WorkDay{IsWorking: o.IsWorking, Start: o.Start, End: o.End}.normalize()
		}
	}

	weekday := date.Weekday()
	for _, e := range p.WeeklySchedule {
		if e.Weekday == weekday {
			return WorkDay{IsWorking: e.IsWorking, Start: e.Start, End: e.End}.normalize()
		}
	}

	return NotWorking
}

// Bounds returns the working interval [start, end) on the given date
func (w WorkDay) Bounds(date time.Time) (time.Time, time.Time, error) {
	start, err := w.Start.On(date)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := w.End.On(date)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// normalize treats a working day with a broken or empty window as a day off
func (w WorkDay) normalize() WorkDay {
	if !w.IsWorking {
		return NotWorking
	}
	if w.Start.Validate() != nil || w.End.Validate() != nil || !w.Start.IsBefore(w.End) {
		return NotWorking
	}
	return w
}

// SameDay reports whether two instants fall on the same calendar date.
// Both values are compared in their own location, which is the clinic's.
func SameDay(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// StartOfDay returns midnight of the date in its location
func StartOfDay(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, date.Location())
}

// Combine builds the instant for a calendar date and a wall-clock time
func Combine(date time.Time, at types.TimeString) (time.Time, error) {
	return at.On(date)
}
