package schedule

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrInvalidElement is returned for elements that cannot be expanded.
var ErrInvalidElement = errors.New("invalid schedule element")

// Element is one recurring component of a schedule.
type Element struct {
	Start        time.Time  `json:"start"`
	End          *time.Time `json:"end,omitempty"`
	Text         string     `json:"text,omitempty"`
	TargetValues []Value    `json:"targetValues,omitempty"`
	Interval     Interval   `json:"interval"`
	Duration     Duration   `json:"duration"`
}

// Event is a single occurrence of a schedule. Derived, never persisted.
type Event struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	Element         Element   `json:"element"`
	OccurrenceIndex int       `json:"occurrence"`
}

// start returns the first occurrence instant; all-day elements begin at midnight.
func (e Element) start() time.Time {
	if e.Duration.AllDay {
		return StartOfDay(e.Start)
	}
	return e.Start
}

// limit returns the exclusive bound for occurrence starts, or false for an
// infinite element. All-day elements keep occurrences on the end's day.
func (e Element) limit() (time.Time, bool) {
	if e.End == nil {
		return time.Time{}, false
	}
	if e.Duration.AllDay {
		return StartOfDay(*e.End).AddDate(0, 0, 1), true
	}
	return *e.End, true
}

// Date returns the start of the n-th occurrence of the element.
func (e Element) Date(n int) (time.Time, bool) {
	if n < 0 || n > e.Interval.maxSteps() {
		return time.Time{}, false
	}
	start := e.start()
	d := e.Interval.Step(start, n)
	if !d.Before(start.Add(horizon)) {
		return time.Time{}, false
	}
	if limit, ok := e.limit(); ok && !d.Before(limit) {
		return time.Time{}, false
	}
	return d, true
}

func (e Element) eventAt(n int, start time.Time) Event {
	ev := Event{Element: e, OccurrenceIndex: n}
	if e.Duration.AllDay {
		ev.Start = StartOfDay(start)
		ev.End = ev.Start.AddDate(0, 0, 1).Add(-time.Second)
		return ev
	}
	ev.Start = start
	ev.End = start.Add(e.Duration.Length)
	return ev
}

// search returns the smallest n for which stop reports true, treating every
// n past the last occurrence as stopping. Occurrence starts grow with n.
func (e Element) search(stop func(n int, start time.Time) bool) int {
	return sort.Search(e.Interval.maxSteps()+1, func(n int) bool {
		d, ok := e.Date(n)
		return !ok || stop(n, d)
	})
}

// count returns the number of occurrences.
func (e Element) count() int {
	return e.search(func(int, time.Time) bool { return false })
}

// countBefore returns the number of occurrences starting before t.
func (e Element) countBefore(t time.Time) int {
	return e.search(func(_ int, d time.Time) bool { return !d.Before(t) })
}

// Events returns the element's own events in [from, to). Occurrence indices
// are local to the element.
func (e Element) Events(from, to time.Time) []Event {
	if !from.Before(to) {
		return nil
	}
	var out []Event
	first := e.search(func(n int, d time.Time) bool { return !e.eventAt(n, d).End.Before(from) })
	for n := first; ; n++ {
		d, ok := e.Date(n)
		if !ok || !d.Before(to) {
			return out
		}
		out = append(out, e.eventAt(n, d))
	}
}

// Validate reports an element whose occurrences would not move forward in
// time or whose end precedes its start.
func (e Element) Validate() error {
	if !e.Interval.Advances() {
		return fmt.Errorf("%w: interval %+v does not advance", ErrInvalidElement, e.Interval)
	}
	if e.End != nil && e.End.Before(e.Start) {
		return fmt.Errorf("%w: end %s is before start %s", ErrInvalidElement,
			e.End.Format(time.RFC3339), e.Start.Format(time.RFC3339))
	}
	if e.Duration.Length < 0 {
		return fmt.Errorf("%w: negative duration %s", ErrInvalidElement, e.Duration.Length)
	}
	return nil
}

// Offset returns a copy shifted by d.
func (e Element) Offset(d time.Duration) Element {
	c := e.Clone()
	c.Start = c.Start.Add(d)
	if c.End != nil {
		end := c.End.Add(d)
		c.End = &end
	}
	return c
}

// Clone returns a deep copy.
func (e Element) Clone() Element {
	c := e
	if e.End != nil {
		end := *e.End
		c.End = &end
	}
	if e.TargetValues != nil {
		c.TargetValues = make([]Value, len(e.TargetValues))
		for i, v := range e.TargetValues {
			c.TargetValues[i] = v.Clone()
		}
	}
	return c
}
