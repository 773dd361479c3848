package service_test

import (
	"testing"
	"time"

	"github.com/migi-gluttony/SADSA-ORMVAT-sub000/pkg/service"
	"github.com/stretchr/testify/assert"
)

// fixedHolidays is a HolidaySource backed by a static list of dates.
type fixedHolidays []time.Time

func (f fixedHolidays) HolidaysBetween(from, to time.Time) ([]time.Time, error) {
	var out []time.Time
	for _, d := range f {
		if !d.Before(from) && !d.After(to) {
			out = append(out, d)
		}
	}
	return out, nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCalendarDeadline(t *testing.T) {
	cal := service.NewCalendar(fixedHolidays{})

	t.Run("PlainWeek", func(t *testing.T) {
		// Monday + 3 working days lands on Thursday at 17:00.
		monday := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)
		deadline, err := cal.Deadline(monday, 3)
		assert.NoError(t, err)
		assert.Equal(t, time.Date(2026, 3, 5, 17, 0, 0, 0, time.UTC), deadline)
	})

	t.Run("ZeroDuration", func(t *testing.T) {
		monday := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)
		deadline, err := cal.Deadline(monday, 0)
		assert.NoError(t, err)
		assert.Equal(t, time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC), deadline)
	})

	t.Run("SpansWeekend", func(t *testing.T) {
		// Thursday + 3 working days: Fri, Mon, Tue.
		thursday := time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)
		deadline, err := cal.Deadline(thursday, 3)
		assert.NoError(t, err)
		assert.Equal(t, time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC), deadline)
	})

	t.Run("SkipsHoliday", func(t *testing.T) {
		withHoliday := service.NewCalendar(fixedHolidays{date(2026, 3, 3)})
		monday := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
		deadline, err := withHoliday.Deadline(monday, 3)
		assert.NoError(t, err)
		// Tuesday is a holiday, so the walk covers Wed, Thu, Fri.
		assert.Equal(t, time.Date(2026, 3, 6, 17, 0, 0, 0, time.UTC), deadline)
	})

	t.Run("NegativeDuration", func(t *testing.T) {
		_, err := cal.Deadline(date(2026, 3, 2), -1)
		assert.Error(t, err)
	})
}

func TestWorkingDaysBetween(t *testing.T) {
	cal := service.NewCalendar(fixedHolidays{})

	t.Run("SameDate", func(t *testing.T) {
		d, err := cal.WorkingDaysBetween(date(2026, 3, 2), date(2026, 3, 2))
		assert.NoError(t, err)
		assert.Equal(t, 0, d)
	})

	t.Run("SameDateDifferentClockTimes", func(t *testing.T) {
		from := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
		to := time.Date(2026, 3, 2, 19, 0, 0, 0, time.UTC)
		d, err := cal.WorkingDaysBetween(from, to)
		assert.NoError(t, err)
		assert.Equal(t, 0, d)
	})

	t.Run("NextDay", func(t *testing.T) {
		d, err := cal.WorkingDaysBetween(date(2026, 3, 2), date(2026, 3, 3))
		assert.NoError(t, err)
		assert.Equal(t, 1, d)
	})

	t.Run("AcrossWeekend", func(t *testing.T) {
		// Friday to Monday is one working day.
		d, err := cal.WorkingDaysBetween(date(2026, 3, 6), date(2026, 3, 9))
		assert.NoError(t, err)
		assert.Equal(t, 1, d)
	})

	t.Run("FullWeek", func(t *testing.T) {
		d, err := cal.WorkingDaysBetween(date(2026, 3, 2), date(2026, 3, 9))
		assert.NoError(t, err)
		assert.Equal(t, 5, d)
	})

	t.Run("ReversedRange", func(t *testing.T) {
		d, err := cal.WorkingDaysBetween(date(2026, 3, 9), date(2026, 3, 2))
		assert.NoError(t, err)
		assert.Equal(t, 0, d)
	})
}

func TestRemainingWorkingDays(t *testing.T) {
	cal := service.NewCalendar(fixedHolidays{})

	t.Run("TimeRemains", func(t *testing.T) {
		now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
		deadline := time.Date(2026, 3, 5, 17, 0, 0, 0, time.UTC)
		d, err := cal.RemainingWorkingDays(now, deadline)
		assert.NoError(t, err)
		assert.Equal(t, 3, d)
	})

	t.Run("DueToday", func(t *testing.T) {
		now := time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)
		deadline := time.Date(2026, 3, 5, 17, 0, 0, 0, time.UTC)
		d, err := cal.RemainingWorkingDays(now, deadline)
		assert.NoError(t, err)
		assert.Equal(t, 0, d)
	})

	t.Run("Overdue", func(t *testing.T) {
		// Deadline Thursday, clock the following Monday: Fri + Mon late.
		now := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
		deadline := time.Date(2026, 3, 5, 17, 0, 0, 0, time.UTC)
		d, err := cal.RemainingWorkingDays(now, deadline)
		assert.NoError(t, err)
		assert.Equal(t, -2, d)
	})
}

func TestCachedHolidaySource(t *testing.T) {
	var calls int
	counting := countingSource{inner: fixedHolidays{date(2026, 3, 3)}, calls: &calls}
	cached := service.NewCachedHolidaySource(counting, time.Hour)

	first, err := cached.HolidaysBetween(date(2026, 3, 1), date(2026, 3, 31))
	assert.NoError(t, err)
	assert.Len(t, first, 1)
	assert.Equal(t, 1, calls)

	// A narrower follow-up query within the loaded window hits the cache.
	second, err := cached.HolidaysBetween(date(2026, 3, 2), date(2026, 3, 10))
	assert.NoError(t, err)
	assert.Len(t, second, 1)
	assert.Equal(t, 1, calls)

	// A query outside the window reloads.
	_, err = cached.HolidaysBetween(date(2027, 1, 1), date(2027, 12, 31))
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

type countingSource struct {
	inner fixedHolidays
	calls *int
}

func (c countingSource) HolidaysBetween(from, to time.Time) ([]time.Time, error) {
	*c.calls++
	return c.inner.HolidaysBetween(from, to)
}
