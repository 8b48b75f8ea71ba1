package service

import (
	"fmt"
	"time"

	"github.com/azsu-rae/asura-edt/pkg/config"
)

// ExamCalendar is the ordered list of exam days and the fixed daily slots.
// It is built once per run from the configured base Monday by walking the
// calendar window and dropping the rest weekday.
type ExamCalendar struct {
	days      []time.Time
	slotTimes []slotTime
}

type slotTime struct {
	hour   int
	minute int
}

// BuildCalendar derives the exam days from the configuration. With the
// defaults (21 calendar days, Friday rest) it yields 18 exam days.
func BuildCalendar(cfg config.ExamConfig) (*ExamCalendar, error) {
	base := cfg.ParsedBaseDate()
	if base.IsZero() {
		return nil, fmt.Errorf("invalid base date %q", cfg.BaseDate)
	}

	cal := &ExamCalendar{}
	for _, raw := range cfg.SlotTimes {
		t, err := time.Parse("15:04", raw)
		if err != nil {
			return nil, fmt.Errorf("invalid slot time %q: %w", raw, err)
		}
		cal.slotTimes = append(cal.slotTimes, slotTime{hour: t.Hour(), minute: t.Minute()})
	}
	if len(cal.slotTimes) == 0 {
		return nil, fmt.Errorf("no slot times configured")
	}

	rest := time.Weekday(cfg.RestWeekday)
	for i := 0; i < cfg.NumCalendarDays; i++ {
		day := base.AddDate(0, 0, i)
		if day.Weekday() == rest {
			continue
		}
		cal.days = append(cal.days, day)
	}
	if len(cal.days) == 0 {
		return nil, fmt.Errorf("calendar window of %d days contains no exam day", cfg.NumCalendarDays)
	}
	return cal, nil
}

// NumDays returns the number of usable exam days.
func (c *ExamCalendar) NumDays() int {
	return len(c.days)
}

// SlotsPerDay returns the number of daily slots.
func (c *ExamCalendar) SlotsPerDay() int {
	return len(c.slotTimes)
}

// TotalSlots returns days times slots.
func (c *ExamCalendar) TotalSlots() int {
	return len(c.days) * len(c.slotTimes)
}

// At composes the naive local timestamp of a (day, slot) cell.
func (c *ExamCalendar) At(day, slot int) time.Time {
	d := c.days[day]
	st := c.slotTimes[slot]
	return time.Date(d.Year(), d.Month(), d.Day(), st.hour, st.minute, 0, 0, d.Location())
}

// Day returns the date of a day index.
func (c *ExamCalendar) Day(day int) time.Time {
	return c.days[day]
}
