package schedule

import (
	"iter"
	"time"
)

// Booked is the minimal view of an appointment the engine needs.
// Callers translate their domain rows into this shape at the boundary;
// the engine never sees raw storage rows.
type Booked struct {
	Date      time.Time // calendar day, time-of-day ignored
	StartMin  int       // minutes since midnight
	EndMin    int
	Cancelled bool
}

// SameDay reports whether two timestamps fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// MinuteOfDay returns t's wall-clock position as minutes since midnight.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// HasConflict reports whether the half-open interval [startMin, endMin)
// on the given date overlaps any non-cancelled booking on that date.
// Back-to-back bookings are allowed: one ending exactly where the next
// starts is not a conflict. An interval that fully envelops an existing
// booking is a conflict.
//
// Preconditions (caller-validated): startMin < endMin.
func HasConflict(existing []Booked, date time.Time, startMin, endMin int) bool {
	for _, b := range existing {
		if b.Cancelled || !SameDay(b.Date, date) {
			continue
		}
		if startMin >= b.StartMin && startMin < b.EndMin {
			return true
		}
		if endMin > b.StartMin && endMin <= b.EndMin {
			return true
		}
		// Containment: the candidate starts before and ends after b.
		if b.StartMin >= startMin && b.StartMin < endMin {
			return true
		}
	}
	return false
}

// CanScheduleAt reports whether a booking starting at startMin on date is
// strictly in the future relative to now. Starting exactly at the current
// minute is rejected; past dates are rejected outright.
func CanScheduleAt(date time.Time, startMin int, now time.Time) bool {
	if SameDay(date, now) {
		return startMin > MinuteOfDay(now)
	}
	ny, nm, nd := now.Date()
	today := time.Date(ny, nm, nd, 0, 0, 0, 0, date.Location())
	dy, dm, dd := date.Date()
	day := time.Date(dy, dm, dd, 0, 0, 0, 0, date.Location())
	return day.After(today)
}

// AvailableSlots yields the grid start times (minutes since midnight, in
// the grid's order, which callers supply ascending) at which a booking of
// slotMin minutes would neither fall in the past nor conflict with an
// existing booking. Past dates yield nothing. The sequence is lazy and can
// be ranged over more than once.
func AvailableSlots(existing []Booked, date time.Time, grid []int, slotMin int, now time.Time) iter.Seq[int] {
	return func(yield func(int) bool) {
		for _, start := range grid {
			if !CanScheduleAt(date, start, now) {
				continue
			}
			if HasConflict(existing, date, start, start+slotMin) {
				continue
			}
			if !yield(start) {
				return
			}
		}
	}
}

// Grid returns candidate start minutes [openMin, closeMin) every stepMin.
// Business hours are the caller's concern; the engine just walks the grid.
func Grid(openMin, closeMin, stepMin int) []int {
	if stepMin <= 0 || closeMin <= openMin {
		return nil
	}
	var out []int
	for m := openMin; m < closeMin; m += stepMin {
		out = append(out, m)
	}
	return out
}
