package schedule

import (
	"time"

	"zapis/internal/errs"
	"zapis/internal/models"
)

// MinutesPerDay is the number of wall-clock minutes in a calendar day.
// A schedule entry ending at 1440 means "until midnight".
const MinutesPerDay = 24 * 60

// ToInstant converts a date plus wall-clock minutes since midnight into
// an absolute instant in loc. time.Date handles DST transitions on the
// organization's calendar, so 09:00 is 09:00 local even on switch days.
func ToInstant(date time.Time, minutes int, loc *time.Location) (time.Time, error) {
	if date.IsZero() {
		return time.Time{}, errs.InvalidInputf("zero date")
	}
	if minutes < 0 || minutes > MinutesPerDay {
		return time.Time{}, errs.InvalidInputf("minutes %d out of range", minutes)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), 0, minutes, 0, 0, loc), nil
}

// DayBounds returns the working window for one date as absolute
// instants. A closed day yields a zero interval and no error.
func DayBounds(entry *models.WeeklyScheduleEntry, date time.Time, loc *time.Location) (Interval, error) {
	if entry == nil || entry.IsClosed {
		return Interval{}, nil
	}
	start, err := ToInstant(date, entry.StartMinutes, loc)
	if err != nil {
		return Interval{}, err
	}
	end, err := ToInstant(date, entry.EndMinutes, loc)
	if err != nil {
		return Interval{}, err
	}
	if !start.Before(end) {
		return Interval{}, errs.InvalidInputf("schedule entry start %d not before end %d", entry.StartMinutes, entry.EndMinutes)
	}
	return Interval{Start: start, End: end}, nil
}

// MinutesOf returns the wall-clock minutes since midnight of t in loc.
func MinutesOf(t time.Time, loc *time.Location) int {
	local := t.In(loc)
	return local.Hour()*60 + local.Minute()
}
