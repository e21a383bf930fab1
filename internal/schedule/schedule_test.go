package schedule

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

func at(day, hour int) time.Time {
	return day0.AddDate(0, 0, day).Add(time.Duration(hour) * time.Hour)
}

func TestDailyAtTime_ThreeDays(t *testing.T) {
	s := DailyAtTime(8, 0, day0, nil, "take medication", Fixed(time.Hour))

	events := s.Events(day0, day0.AddDate(0, 0, 3))

	require.Len(t, events, 3)
	for i, ev := range events {
		assert.Equal(t, i, ev.OccurrenceIndex)
		assert.Equal(t, at(i, 8), ev.Start)
		assert.Equal(t, at(i, 9), ev.End)
		if i > 0 {
			assert.Equal(t, 24*time.Hour, ev.Start.Sub(events[i-1].Start))
		}
	}
}

func TestSchedule_EmptyWindowAndEmptySchedule(t *testing.T) {
	s := DailyAtTime(8, 0, day0, nil, "", Fixed(0))

	assert.Empty(t, s.Events(at(1, 8), at(1, 8)))
	assert.Empty(t, s.Events(at(2, 0), at(1, 0)))
	assert.Empty(t, Schedule{}.Events(day0, day0.AddDate(1, 0, 0)))

	_, ok := Schedule{}.Event(0)
	assert.False(t, ok)
	assert.True(t, Schedule{}.Start().IsZero())
	assert.Nil(t, Schedule{}.End())
}

func TestSchedule_CompositionNumbering(t *testing.T) {
	morning := Element{Start: at(0, 8), Interval: Days(1), Text: "morning"}
	evening := Element{Start: at(0, 20), Interval: Days(1), Text: "evening"}

	// порядок объявления не важен, элементы сортируются по началу
	s := New(evening, morning)
	assert.Equal(t, at(0, 8), s.Start())
	assert.Nil(t, s.End())

	events := s.Events(at(1, 0), at(2, 0))
	require.Len(t, events, 2)
	assert.Equal(t, 2, events[0].OccurrenceIndex)
	assert.Equal(t, "morning", events[0].Element.Text)
	assert.Equal(t, 3, events[1].OccurrenceIndex)
	assert.Equal(t, "evening", events[1].Element.Text)

	for _, ev := range events {
		byIndex, ok := s.Event(ev.OccurrenceIndex)
		require.True(t, ok)
		assert.Equal(t, ev.Start, byIndex.Start)
		assert.Equal(t, ev.Element.Text, byIndex.Element.Text)
	}
}

func TestSchedule_TiesKeepDeclarationOrder(t *testing.T) {
	a := Element{Start: at(0, 8), Interval: Days(1), Text: "a"}
	b := Element{Start: at(0, 8), Interval: Days(1), Text: "b"}

	events := New(a, b).Events(day0, day0.AddDate(0, 0, 2))

	require.Len(t, events, 4)
	texts := []string{}
	for _, ev := range events {
		texts = append(texts, ev.Element.Text)
	}
	assert.Equal(t, []string{"a", "b", "a", "b"}, texts)
}

func TestSchedule_BoundedEnd(t *testing.T) {
	end := at(2, 8)
	s := New(Element{Start: at(0, 8), End: &end, Interval: Days(1)})

	require.NotNil(t, s.End())
	assert.Equal(t, end, *s.End())
	assert.Len(t, s.Events(day0, day0.AddDate(0, 0, 10)), 2)

	_, ok := s.Event(1)
	assert.True(t, ok)
	_, ok = s.Event(2)
	assert.False(t, ok)
}

func TestSchedule_EndNilWhenAnyElementInfinite(t *testing.T) {
	end := at(5, 0)
	s := New(
		Element{Start: at(0, 8), End: &end, Interval: Days(1)},
		Element{Start: at(1, 8), Interval: Days(2)},
	)
	assert.Nil(t, s.End())
}

func TestSchedule_AllDay(t *testing.T) {
	s := New(Element{Start: at(0, 15), Interval: Days(1), Duration: AllDay()})

	events := s.Events(at(1, 12), at(1, 13))
	require.Len(t, events, 1)
	assert.Equal(t, 1, events[0].OccurrenceIndex)
	assert.Equal(t, at(1, 0), events[0].Start)
	assert.Equal(t, at(2, 0).Add(-time.Second), events[0].End)
	assert.True(t, s.Exists(at(3, 10)))
}

func TestWeeklyAtTime(t *testing.T) {
	// 1 марта 2024 - пятница
	s := WeeklyAtTime(time.Monday, 9, 30, day0, nil, "checkup", Fixed(30*time.Minute))

	events := s.Events(day0, day0.AddDate(0, 0, 15))
	require.Len(t, events, 2)
	assert.Equal(t, time.Date(2024, time.March, 4, 9, 30, 0, 0, time.UTC), events[0].Start)
	assert.Equal(t, time.Date(2024, time.March, 11, 9, 30, 0, 0, time.UTC), events[1].Start)
	assert.False(t, s.Exists(at(1, 0)))
	assert.True(t, s.Exists(at(3, 0)))
}

func TestSchedule_OrderedAndContiguous(t *testing.T) {
	s := New(
		Element{Start: at(0, 7), Interval: Hours(5)},
		Element{Start: at(0, 8), Interval: Days(1), Duration: Fixed(time.Hour)},
		Element{Start: at(1, 0), Interval: Weeks(1), Duration: AllDay()},
	)

	events := s.Events(s.Start(), s.Start().AddDate(0, 0, 20))
	require.NotEmpty(t, events)
	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].Start.Before(events[i-1].Start))
		assert.Equal(t, events[i-1].OccurrenceIndex+1, events[i].OccurrenceIndex)
	}
	assert.Equal(t, 0, events[0].OccurrenceIndex)
}

func TestSchedule_Offset(t *testing.T) {
	s := DailyAtTime(8, 0, day0, nil, "", Fixed(0)).Offset(2 * time.Hour)
	ev, ok := s.Event(0)
	require.True(t, ok)
	assert.Equal(t, at(0, 10), ev.Start)
}

func TestValue_Meets(t *testing.T) {
	tests := []struct {
		name   string
		value  Value
		target Value
		want   bool
	}{
		{"integer reaches target", IntegerValue(10), IntegerValue(10), true},
		{"double below target", DoubleValue(9.5), IntegerValue(10), false},
		{"double above integer target", DoubleValue(12), IntegerValue(10), true},
		{"text equal", TextValue("done"), TextValue("done"), true},
		{"text differs", TextValue("skipped"), TextValue("done"), false},
		{"bool equal", BooleanValue(true), BooleanValue(true), true},
		{"type mismatch", TextValue("10"), IntegerValue(10), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.value.Meets(tt.target))
		})
	}
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 0, DaysBetween(at(0, 8), at(0, 23)))
	assert.Equal(t, 2, DaysBetween(at(0, 23), at(2, 1)))
}

func TestSchedule_EventFarPastBoundedEnd(t *testing.T) {
	end := at(3, 0)
	s := DailyAtTime(8, 0, day0, &end, "", Fixed(time.Hour))

	for _, index := range []int{3, 1000, 1 << 40, math.MaxInt} {
		_, ok := s.Event(index)
		assert.False(t, ok, "index %d", index)
	}
	count, finite := s.Count()
	assert.True(t, finite)
	assert.Equal(t, 3, count)

	_, finite = DailyAtTime(8, 0, day0, nil, "", Fixed(0)).Count()
	assert.False(t, finite)
}

func TestSchedule_EventFarIntoOpenSchedule(t *testing.T) {
	s := New(
		Element{Start: at(0, 8), Interval: Days(1), Text: "morning"},
		Element{Start: at(0, 20), Interval: Days(1), Text: "evening"},
	)

	ev, ok := s.Event(20001)
	require.True(t, ok)
	assert.Equal(t, "evening", ev.Element.Text)
	assert.Equal(t, at(10000, 20), ev.Start)

	window := s.Events(at(10000, 0), at(10001, 0))
	require.Len(t, window, 2)
	assert.Equal(t, 20000, window[0].OccurrenceIndex)
	assert.Equal(t, 20001, window[1].OccurrenceIndex)

	// за горизонтом планирования повторений нет
	_, ok = s.Event(1 << 40)
	assert.False(t, ok)
}

func TestInterval_Advances(t *testing.T) {
	tests := []struct {
		name     string
		interval Interval
		want     bool
	}{
		{"zero", Interval{}, false},
		{"negative", Days(-1), false},
		{"self cancelling", Interval{Days: 1, Hours: -24}, false},
		{"days", Days(1), true},
		{"months and minutes", Interval{Months: 1, Minutes: 5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.interval.Advances())
		})
	}
}

func TestElement_NonAdvancingIntervalStops(t *testing.T) {
	for _, interval := range []Interval{{}, Days(-1), {Days: 1, Hours: -24}} {
		e := Element{Start: at(0, 8), Interval: interval}

		_, ok := e.Date(1)
		assert.False(t, ok)
		events := New(e).Events(day0, day0.AddDate(0, 0, 30))
		require.Len(t, events, 1)
		assert.Equal(t, at(0, 8), events[0].Start)
		assert.Error(t, e.Validate())
	}
}

func TestSchedule_Validate(t *testing.T) {
	before := at(-1, 0)
	require.NoError(t, DailyAtTime(8, 0, day0, nil, "", AllDay()).Validate())
	require.NoError(t, Schedule{}.Validate())

	err := New(
		Element{Start: at(0, 8), Interval: Days(1)},
		Element{Start: at(0, 9), End: &before, Interval: Days(1)},
	).Validate()
	require.ErrorIs(t, err, ErrInvalidElement)

	err = New(Element{Start: at(0, 8), Interval: Days(1), Duration: Fixed(-time.Minute)}).Validate()
	require.ErrorIs(t, err, ErrInvalidElement)
}
