// Package schedule expands recurring schedules into concrete, numbered
// occurrences.
package schedule

import (
	"cmp"
	"fmt"
	"slices"
	"sort"
	"time"
)

// Schedule is an ordered composition of elements. Occurrence indices are
// global across all elements and counted from the schedule start.
type Schedule struct {
	Elements []Element `json:"elements"`
}

// New composes elements into a schedule ordered by start. Elements with equal
// starts keep their declaration order.
func New(elements ...Element) Schedule {
	s := Schedule{Elements: make([]Element, len(elements))}
	for i, e := range elements {
		s.Elements[i] = e.Clone()
	}
	s.sortElements()
	return s
}

// Compose merges several schedules into one.
func Compose(schedules ...Schedule) Schedule {
	var elements []Element
	for _, s := range schedules {
		elements = append(elements, s.Elements...)
	}
	return New(elements...)
}

func (s *Schedule) sortElements() {
	slices.SortStableFunc(s.Elements, func(a, b Element) int {
		return a.start().Compare(b.start())
	})
}

func (s Schedule) sorted() []Element {
	els := slices.Clone(s.Elements)
	slices.SortStableFunc(els, func(a, b Element) int {
		return a.start().Compare(b.start())
	})
	return els
}

// Start returns the earliest element start, zero for an empty schedule.
func (s Schedule) Start() time.Time {
	var start time.Time
	for i, e := range s.Elements {
		if i == 0 || e.start().Before(start) {
			start = e.start()
		}
	}
	return start
}

// End returns the latest element end, or nil when any element never ends.
func (s Schedule) End() *time.Time {
	if len(s.Elements) == 0 {
		return nil
	}
	var end time.Time
	for _, e := range s.Elements {
		if e.End == nil {
			return nil
		}
		if e.End.After(end) {
			end = *e.End
		}
	}
	return &end
}

// Events returns all events with start < to and end >= from, numbered from
// the beginning of the schedule.
func (s Schedule) Events(from, to time.Time) []Event {
	if !from.Before(to) || len(s.Elements) == 0 {
		return nil
	}

	els := s.sorted()
	var out []Event
	for j, e := range els {
		// события элемента, закончившегося до окна, не попадают в выборку
		if e.End != nil && !e.Duration.AllDay && !e.End.After(from) {
			continue
		}
		for _, ev := range e.Events(from, to) {
			// ранжируем по началу повторения, а не по началу дня
			d, _ := e.Date(ev.OccurrenceIndex)
			ev.OccurrenceIndex = rank(els, j, d)
			out = append(out, ev)
		}
	}
	slices.SortFunc(out, func(a, b Event) int {
		return cmp.Compare(a.OccurrenceIndex, b.OccurrenceIndex)
	})
	return out
}

// rank returns the global index of the occurrence of els[j] starting at t:
// everything starting earlier, plus occurrences of preceding elements that
// start at the same instant.
func rank(els []Element, j int, t time.Time) int {
	r := 0
	for k, e := range els {
		if k < j {
			r += e.countBefore(t.Add(time.Nanosecond))
		} else {
			r += e.countBefore(t)
		}
	}
	return r
}

// Event returns the occurrence with the given global index. Each element is
// searched by rank, so the cost does not depend on how large index is.
func (s Schedule) Event(index int) (Event, bool) {
	if index < 0 || len(s.Elements) == 0 {
		return Event{}, false
	}
	els := s.sorted()
	for j, e := range els {
		total := e.count()
		n := sort.Search(total, func(n int) bool {
			d, _ := e.Date(n)
			return rank(els, j, d) >= index
		})
		if n == total {
			continue
		}
		d, _ := e.Date(n)
		if rank(els, j, d) == index {
			ev := e.eventAt(n, d)
			ev.OccurrenceIndex = index
			return ev, true
		}
	}
	return Event{}, false
}

// Count returns the number of occurrences, false when the schedule never ends.
func (s Schedule) Count() (int, bool) {
	if s.End() == nil && len(s.Elements) > 0 {
		return 0, false
	}
	total := 0
	for _, e := range s.Elements {
		total += e.count()
	}
	return total, true
}

// Validate checks every element of the schedule.
func (s Schedule) Validate() error {
	for i, e := range s.Elements {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// Exists reports whether any event falls on the calendar day of day.
func (s Schedule) Exists(day time.Time) bool {
	start := StartOfDay(day)
	return len(s.Events(start, start.AddDate(0, 0, 1))) > 0
}

// Offset returns a copy with every element shifted by d.
func (s Schedule) Offset(d time.Duration) Schedule {
	out := Schedule{Elements: make([]Element, len(s.Elements))}
	for i, e := range s.Elements {
		out.Elements[i] = e.Offset(d)
	}
	return out
}

// Clone returns a deep copy.
func (s Schedule) Clone() Schedule {
	if s.Elements == nil {
		return Schedule{}
	}
	out := Schedule{Elements: make([]Element, len(s.Elements))}
	for i, e := range s.Elements {
		out.Elements[i] = e.Clone()
	}
	return out
}

// DailyAtTime builds a schedule that repeats every day at hour:minute,
// beginning on the day of start.
func DailyAtTime(hour, minute int, start time.Time, end *time.Time, text string, duration Duration, targets ...Value) Schedule {
	y, m, d := start.Date()
	first := time.Date(y, m, d, hour, minute, 0, 0, start.Location())
	return New(Element{
		Start:        first,
		End:          end,
		Text:         text,
		TargetValues: targets,
		Interval:     Days(1),
		Duration:     duration,
	})
}

// WeeklyAtTime builds a schedule that repeats every week on weekday at
// hour:minute, beginning with the first such weekday on or after start.
func WeeklyAtTime(weekday time.Weekday, hour, minute int, start time.Time, end *time.Time, text string, duration Duration, targets ...Value) Schedule {
	y, m, d := start.Date()
	first := time.Date(y, m, d, hour, minute, 0, 0, start.Location())
	shift := (int(weekday) - int(first.Weekday()) + 7) % 7
	first = first.AddDate(0, 0, shift)
	return New(Element{
		Start:        first,
		End:          end,
		Text:         text,
		TargetValues: targets,
		Interval:     Weeks(1),
		Duration:     duration,
	})
}
