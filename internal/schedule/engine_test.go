package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestHasConflict(t *testing.T) {
	date := day(2024, time.January, 10)
	existing := []Booked{
		{Date: date, StartMin: 9 * 60, EndMin: 9*60 + 30}, // [09:00,09:30)
	}

	tests := []struct {
		name       string
		start, end int
		want       bool
	}{
		{"exact duplicate", 9 * 60, 9*60 + 30, true},
		{"starts inside", 9*60 + 15, 9*60 + 45, true},
		{"ends inside", 8*60 + 45, 9*60 + 15, true},
		{"envelops existing", 8*60 + 30, 10 * 60, true},
		{"back-to-back after", 9*60 + 30, 10 * 60, false},
		{"back-to-back before", 8*60 + 30, 9 * 60, false},
		{"disjoint", 11 * 60, 11*60 + 30, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HasConflict(existing, date, tc.start, tc.end))
		})
	}
}

func TestHasConflictIgnoresCancelledAndOtherDays(t *testing.T) {
	date := day(2024, time.January, 10)
	existing := []Booked{
		{Date: date, StartMin: 600, EndMin: 630, Cancelled: true},
		{Date: day(2024, time.January, 11), StartMin: 600, EndMin: 630},
	}

	assert.False(t, HasConflict(existing, date, 600, 630))
}

func TestCanScheduleAt(t *testing.T) {
	now := at(2024, time.January, 10, 10, 0)

	today := day(2024, time.January, 10)
	yesterday := day(2024, time.January, 9)
	tomorrow := day(2024, time.January, 11)

	assert.False(t, CanScheduleAt(today, 10*60, now), "exactly now must be rejected")
	assert.False(t, CanScheduleAt(today, 9*60, now))
	assert.True(t, CanScheduleAt(today, 10*60+1, now), "one minute ahead is schedulable")
	assert.False(t, CanScheduleAt(yesterday, 23*60, now))
	assert.True(t, CanScheduleAt(tomorrow, 0, now), "any time tomorrow is fine")
}

func collect(seq func(func(int) bool)) []int {
	var out []int
	seq(func(m int) bool {
		out = append(out, m)
		return true
	})
	return out
}

func TestAvailableSlots(t *testing.T) {
	date := day(2024, time.January, 10)
	grid := Grid(9*60, 12*60, 30) // 09:00..11:30
	existing := []Booked{
		{Date: date, StartMin: 10 * 60, EndMin: 10*60 + 30},
	}

	t.Run("future date excludes only booked slots", func(t *testing.T) {
		now := at(2024, time.January, 9, 14, 0)
		got := collect(AvailableSlots(existing, date, grid, 30, now))
		assert.Equal(t, []int{540, 570, 630, 660, 690}, got)
	})

	t.Run("today excludes slots at or before now", func(t *testing.T) {
		now := at(2024, time.January, 10, 9, 30)
		got := collect(AvailableSlots(existing, date, grid, 30, now))
		// 09:00 and 09:30 are gone (not strictly future), 10:00 is booked.
		assert.Equal(t, []int{630, 660, 690}, got)
	})

	t.Run("past date yields nothing", func(t *testing.T) {
		now := at(2024, time.January, 11, 0, 0)
		got := collect(AvailableSlots(existing, date, grid, 30, now))
		assert.Empty(t, got)
	})

	t.Run("sequence is restartable", func(t *testing.T) {
		now := at(2024, time.January, 9, 14, 0)
		seq := AvailableSlots(existing, date, grid, 30, now)
		first := collect(seq)
		second := collect(seq)
		assert.Equal(t, first, second)
	})

	t.Run("no returned slot conflicts", func(t *testing.T) {
		now := at(2024, time.January, 9, 14, 0)
		for start := range AvailableSlots(existing, date, grid, 30, now) {
			assert.False(t, HasConflict(existing, date, start, start+30))
		}
	})
}

func TestAvailableSlotsLongerDuration(t *testing.T) {
	date := day(2024, time.January, 10)
	now := at(2024, time.January, 9, 14, 0)
	grid := Grid(9*60, 11*60, 30)
	existing := []Booked{
		{Date: date, StartMin: 10 * 60, EndMin: 10*60 + 30},
	}

	// A 60-minute booking starting 09:30 would run into the 10:00 one.
	got := collect(AvailableSlots(existing, date, grid, 60, now))
	assert.Equal(t, []int{540, 630}, got)
}

func TestGrid(t *testing.T) {
	assert.Len(t, Grid(0, 24*60, 30), 48)
	assert.Nil(t, Grid(600, 600, 30))
	assert.Nil(t, Grid(0, 60, 0))
}
