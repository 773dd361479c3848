package service

import (
	"sync"
	"time"

	"github.com/migi-gluttony/SADSA-ORMVAT-sub000/pkg/models"
	"github.com/pkg/errors"
)

// endOfBusinessDayHour is the hour deadlines land on (17:00 local).
const endOfBusinessDayHour = 17

// HolidaySource supplies the non-working calendar dates within a range.
type HolidaySource interface {
	HolidaysBetween(from, to time.Time) ([]time.Time, error)
}

// Calendar performs all working-day arithmetic for the engine. A working
// day is a calendar day that is not Saturday, Sunday or a listed holiday.
// Both modes (deadline-from-duration and elapsed-between-dates) are pure
// functions of the holiday set and their inputs.
type Calendar struct {
	holidays HolidaySource
}

func NewCalendar(holidays HolidaySource) *Calendar {
	return &Calendar{holidays: holidays}
}

// Deadline walks forward from the entry date, counting only working days,
// and returns the date the counter reaches workingDays, at 17:00 local.
// A zero duration yields the entry date itself at 17:00.
func (c *Calendar) Deadline(entry time.Time, workingDays int) (time.Time, error) {
	if workingDays < 0 {
		return time.Time{}, errors.Errorf("negative duration %d", workingDays)
	}
	current := dateOf(entry)

	// Scan far enough ahead to cover weekends and holidays in the window.
	scanEnd := current.AddDate(0, 0, workingDays*2+30)
	holidays, err := c.holidaySet(current, scanEnd)
	if err != nil {
		return time.Time{}, err
	}

	added := 0
	for added < workingDays {
		current = current.AddDate(0, 0, 1)
		if isWorkingDay(current, holidays) {
			added++
		}
	}
	return endOfBusinessDay(current), nil
}

// WorkingDaysBetween counts the working days strictly after from up to and
// including to, comparing calendar dates only. Equal dates count as zero.
func (c *Calendar) WorkingDaysBetween(from, to time.Time) (int, error) {
	start, end := dateOf(from), dateOf(to)
	if !start.Before(end) {
		return 0, nil
	}
	holidays, err := c.holidaySet(start, end)
	if err != nil {
		return 0, err
	}
	days := 0
	for current := start; current.Before(end); {
		current = current.AddDate(0, 0, 1)
		if isWorkingDay(current, holidays) {
			days++
		}
	}
	return days, nil
}

// RemainingWorkingDays returns the signed working-day distance from now to
// the deadline: positive while time remains, zero when the deadline date is
// today, negative (the overdue magnitude, sign-flipped) once it has passed.
func (c *Calendar) RemainingWorkingDays(now, deadline time.Time) (int, error) {
	today, due := dateOf(now), dateOf(deadline)
	if due.Before(today) {
		overdue, err := c.WorkingDaysBetween(due, today)
		if err != nil {
			return 0, err
		}
		return -overdue, nil
	}
	if due.Equal(today) {
		return 0, nil
	}
	return c.WorkingDaysBetween(today, due)
}

func (c *Calendar) holidaySet(from, to time.Time) (map[string]struct{}, error) {
	dates, err := c.holidays.HolidaysBetween(from, to)
	if err != nil {
		return nil, errors.Wrap(err, "load holidays")
	}
	set := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		set[d.Format("2006-01-02")] = struct{}{}
	}
	return set, nil
}

func isWorkingDay(d time.Time, holidays map[string]struct{}) bool {
	if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		return false
	}
	_, holiday := holidays[d.Format("2006-01-02")]
	return !holiday
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfBusinessDay(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), endOfBusinessDayHour, 0, 0, 0, d.Location())
}

// storeHolidaySource adapts a storage.Store holiday table to HolidaySource.
type storeHolidaySource struct {
	store interface {
		ListHolidays(from, to time.Time) ([]models.Holiday, error)
	}
}

func (s storeHolidaySource) HolidaysBetween(from, to time.Time) ([]time.Time, error) {
	rows, err := s.store.ListHolidays(from, to)
	if err != nil {
		return nil, err
	}
	dates := make([]time.Time, 0, len(rows))
	for _, h := range rows {
		dates = append(dates, h.Date)
	}
	return dates, nil
}

// CachedHolidaySource caches the full holiday window process-wide and
// refreshes it after a bounded interval. Holidays change rarely, so a
// coarse single-window cache keeps transitions off the holiday table.
type CachedHolidaySource struct {
	src HolidaySource
	ttl time.Duration

	mu        sync.Mutex
	from, to  time.Time
	dates     []time.Time
	fetchedAt time.Time
}

func NewCachedHolidaySource(src HolidaySource, ttl time.Duration) *CachedHolidaySource {
	return &CachedHolidaySource{src: src, ttl: ttl}
}

func (c *CachedHolidaySource) HolidaysBetween(from, to time.Time) ([]time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fresh := time.Since(c.fetchedAt) < c.ttl
	covered := !c.fetchedAt.IsZero() && !from.Before(c.from) && !to.After(c.to)
	if fresh && covered {
		return c.filter(from, to), nil
	}

	// Widen the window so nearby follow-up queries hit the cache.
	loadFrom := from.AddDate(0, -1, 0)
	loadTo := to.AddDate(0, 3, 0)
	dates, err := c.src.HolidaysBetween(loadFrom, loadTo)
	if err != nil {
		return nil, err
	}
	c.from, c.to = loadFrom, loadTo
	c.dates = dates
	c.fetchedAt = time.Now()
	return c.filter(from, to), nil
}

func (c *CachedHolidaySource) filter(from, to time.Time) []time.Time {
	var out []time.Time
	for _, d := range c.dates {
		if !d.Before(from) && !d.After(to) {
			out = append(out, d)
		}
	}
	return out
}
