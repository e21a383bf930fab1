package schedule

import (
	"math"
	"time"
)

// horizon bounds how far past its start an element produces occurrences.
const horizon = 250 * 365 * 24 * time.Hour

// Interval is a calendar step between two occurrences of an element.
type Interval struct {
	Years   int `json:"years,omitempty"`
	Months  int `json:"months,omitempty"`
	Weeks   int `json:"weeks,omitempty"`
	Days    int `json:"days,omitempty"`
	Hours   int `json:"hours,omitempty"`
	Minutes int `json:"minutes,omitempty"`
	Seconds int `json:"seconds,omitempty"`
}

func Days(n int) Interval    { return Interval{Days: n} }
func Weeks(n int) Interval   { return Interval{Weeks: n} }
func Hours(n int) Interval   { return Interval{Hours: n} }
func Minutes(n int) Interval { return Interval{Minutes: n} }

// IsZero reports whether the interval never advances.
func (i Interval) IsZero() bool {
	return i == Interval{}
}

// Advances reports whether every step moves time forward: no component is
// negative and at least one is positive.
func (i Interval) Advances() bool {
	positive := false
	for _, c := range [...]int{i.Years, i.Months, i.Weeks, i.Days, i.Hours, i.Minutes, i.Seconds} {
		if c < 0 {
			return false
		}
		if c > 0 {
			positive = true
		}
	}
	return positive
}

// minSpan is a lower bound of one step in seconds. A calendar day is at
// least 23 hours long, a month at least 28 days.
func (i Interval) minSpan() float64 {
	const day = 23 * 3600.0
	return float64(i.Years)*365*day +
		float64(i.Months)*28*day +
		float64(i.Weeks)*7*day +
		float64(i.Days)*day +
		float64(i.Hours)*3600 +
		float64(i.Minutes)*60 +
		float64(i.Seconds)
}

// maxSteps returns the largest n that may still land inside the horizon.
// Within it Step cannot overflow.
func (i Interval) maxSteps() int {
	if !i.Advances() {
		return 0
	}
	return int(min(horizon.Seconds()/i.minSpan(), math.MaxInt32))
}

// Step returns t advanced by n intervals. Stepping is always computed from the
// element start so month arithmetic does not drift between occurrences.
func (i Interval) Step(t time.Time, n int) time.Time {
	if n == 0 {
		return t
	}
	t = t.AddDate(i.Years*n, i.Months*n, (i.Weeks*7+i.Days)*n)
	clock := time.Duration(i.Hours)*time.Hour +
		time.Duration(i.Minutes)*time.Minute +
		time.Duration(i.Seconds)*time.Second
	return t.Add(clock * time.Duration(n))
}

// Duration is how long every event of an element lasts.
type Duration struct {
	Length time.Duration `json:"length,omitempty"`
	AllDay bool          `json:"allDay,omitempty"`
}

// AllDay is a duration covering the whole calendar day of the event.
func AllDay() Duration { return Duration{AllDay: true} }

// Fixed is a duration of d.
func Fixed(d time.Duration) Duration { return Duration{Length: d} }

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween counts calendar days from a to b in a's location.
func DaysBetween(a, b time.Time) int {
	a = StartOfDay(a)
	b = StartOfDay(b.In(a.Location()))
	days := 0
	for cur := a; cur.Before(b); cur = cur.AddDate(0, 0, 1) {
		days++
	}
	return days
}
