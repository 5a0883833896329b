// Package payroll computes worked hours from time clock punches over fixed
// half-month pay periods.
package payroll

import (
	"time"
)

// SecondHalfStartDay is the first day of the second pay period of a month.
const SecondHalfStartDay = 15

// Period is a half-open time window [Start, End).
type Period struct {
	Title string    `json:"title"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// PeriodFor returns the pay period containing t, in t's location.
func PeriodFor(t time.Time) Period {
	y, m, d := t.Date()
	loc := t.Location()

	if d < SecondHalfStartDay {
		return newPeriod(
			time.Date(y, m, 1, 0, 0, 0, 0, loc),
			time.Date(y, m, SecondHalfStartDay, 0, 0, 0, 0, loc),
		)
	}
	return newPeriod(
		time.Date(y, m, SecondHalfStartDay, 0, 0, 0, 0, loc),
		time.Date(y, m+1, 1, 0, 0, 0, 0, loc),
	)
}

// Periods returns the period containing now and the one before it.
func Periods(now time.Time) (current, previous Period) {
	current = PeriodFor(now)
	previous = PeriodFor(current.Start.Add(-time.Nanosecond))
	return current, previous
}

func newPeriod(start, end time.Time) Period {
	last := end.AddDate(0, 0, -1)
	return Period{
		Title: start.Format("Jan 2") + " - " + last.Format("Jan 2, 2006"),
		Start: start,
		End:   end,
	}
}
