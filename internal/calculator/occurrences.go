package calculator

import (
	"strings"
	"time"

	"github.com/dharun-Siva/Tutor-App-sub002/internal/models"
)

// Schedule is the part of a class needed to expand it into session dates.
type Schedule struct {
	Type          models.ScheduleType
	ClassDate     time.Time
	StartDate     time.Time
	EndDate       time.Time
	RecurringDays []string
}

// ScheduleOf extracts the schedule definition from a class.
func ScheduleOf(c *models.Class) Schedule {
	return Schedule{
		Type:          c.ScheduleType,
		ClassDate:     c.ClassDate,
		StartDate:     c.StartDate,
		EndDate:       c.EndDate,
		RecurringDays: c.RecurringDays,
	}
}

// Occurrences returns the dates within month on which the schedule has a
// session, in ascending order.
//
// A one-time class occurs on ClassDate only. A weekly-recurring class occurs
// on every date in [StartDate, EndDate] whose weekday is listed in
// RecurringDays. An inverted range, an empty day list or an unknown schedule
// type yields no dates.
func Occurrences(s Schedule, month MonthYear) []time.Time {
	return OccurrencesFrom(s, month, month.Start())
}

// OccurrencesFrom is Occurrences restricted to dates on or after from.
func OccurrencesFrom(s Schedule, month MonthYear, from time.Time) []time.Time {
	lo := month.Start()
	if f := DateOf(from); f.After(lo) {
		lo = f
	}
	hi := month.End()

	switch s.Type {
	case models.ScheduleOneTime:
		d := DateOf(s.ClassDate)
		if d.Before(lo) || d.After(hi) {
			return nil
		}
		return []time.Time{d}

	case models.ScheduleWeeklyRecurring:
		days := weekdaySet(s.RecurringDays)
		if len(days) == 0 {
			return nil
		}
		start, end := DateOf(s.StartDate), DateOf(s.EndDate)
		if start.After(end) {
			return nil
		}
		if start.After(lo) {
			lo = start
		}
		if end.Before(hi) {
			hi = end
		}

		var dates []time.Time
		for d := lo; !d.After(hi); d = d.AddDate(0, 0, 1) {
			if days[d.Weekday()] {
				dates = append(dates, d)
			}
		}
		return dates
	}

	return nil
}

// CountOccurrences is len(Occurrences(s, month)).
func CountOccurrences(s Schedule, month MonthYear) int {
	return len(Occurrences(s, month))
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday maps an English weekday name to time.Weekday, ignoring case
// and surrounding spaces.
func ParseWeekday(name string) (time.Weekday, bool) {
	wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
	return wd, ok
}

func weekdaySet(names []string) map[time.Weekday]bool {
	set := make(map[time.Weekday]bool, len(names))
	for _, n := range names {
		if wd, ok := ParseWeekday(n); ok {
			set[wd] = true
		}
	}
	return set
}
