package clock

import (
	"time"

	"github.com/shekified/life-tracker/internal/model"
)

// Calendar turns a Clock into local calendar dates. Time of day is ignored.
type Calendar struct {
	Clock Clock
}

func NewCalendar(c Clock) Calendar {
	if c == nil {
		c = RealClock{}
	}
	return Calendar{Clock: c}
}

func (c Calendar) now() time.Time {
	if c.Clock == nil {
		return time.Now().In(time.Local)
	}
	return c.Clock.Now().In(time.Local)
}

func (c Calendar) Today() string {
	return c.now().Format(model.DateLayout)
}

// Trailing returns n dates ending at today, oldest first.
func (c Calendar) Trailing(n int) []string {
	return TrailingFrom(c.Today(), n)
}

// TrailingFrom returns n dates ending at day, oldest first.
// A malformed day yields nil.
func TrailingFrom(day string, n int) []string {
	if n <= 0 {
		return []string{}
	}
	end, err := ParseDate(day)
	if err != nil {
		return nil
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = end.AddDate(0, 0, i-(n-1)).Format(model.DateLayout)
	}
	return out
}

// AddDays shifts a YYYY-MM-DD date by n calendar days.
func AddDays(day string, n int) (string, error) {
	d, err := ParseDate(day)
	if err != nil {
		return "", err
	}
	return d.AddDate(0, 0, n).Format(model.DateLayout), nil
}

// ParseDate parses a YYYY-MM-DD date at local midnight.
func ParseDate(day string) (time.Time, error) {
	return time.ParseInLocation(model.DateLayout, day, time.Local)
}

// Weekday returns the short weekday label ("Mon") for a date, or "" when malformed.
func Weekday(day string) string {
	d, err := ParseDate(day)
	if err != nil {
		return ""
	}
	return d.Weekday().String()[:3]
}
