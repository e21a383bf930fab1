package events

import (
	"context"

	"github.com/iudanet/carestore/internal/models"
	"github.com/iudanet/carestore/internal/schedule"
	"github.com/iudanet/carestore/internal/store"
)

// AdherenceStatus distinguishes measured days from days with nothing to measure.
type AdherenceStatus int

const (
	// AdherenceProgress carries a measured value in Progress.
	AdherenceProgress AdherenceStatus = iota
	// AdherenceNoEvents marks a day without scheduled events.
	AdherenceNoEvents
	// AdherenceNoTasks marks every day when no task impacts adherence.
	AdherenceNoTasks
)

// Adherence is the value of one day bucket.
type Adherence struct {
	Status   AdherenceStatus
	Progress float64
}

// Progress returns a measured adherence value.
func Progress(v float64) Adherence { return Adherence{Status: AdherenceProgress, Progress: v} }

// Aggregator reduces the events of one day to an adherence value.
type Aggregator func(events []Event) Adherence

// averageOf applies metric to every event and averages the results.
func averageOf(metric func(Event) float64) Aggregator {
	return func(events []Event) Adherence {
		if len(events) == 0 {
			return Adherence{Status: AdherenceNoEvents}
		}
		var sum float64
		for _, ev := range events {
			sum += metric(ev)
		}
		return Progress(sum / float64(len(events)))
	}
}

// OutcomeExists counts an event as complete when it has an outcome.
func OutcomeExists() Aggregator {
	return averageOf(func(ev Event) float64 {
		if ev.Outcome != nil {
			return 1
		}
		return 0
	})
}

// PercentOfOutcomeValuesThatExist scores each event by the share of expected
// values recorded. Events without targets expect one value.
func PercentOfOutcomeValuesThatExist() Aggregator {
	return averageOf(func(ev Event) float64 {
		required := max(len(ev.ScheduleEvent.Element.TargetValues), 1)
		recorded := 0
		if ev.Outcome != nil {
			recorded = len(ev.Outcome.Values)
		}
		return min(1, float64(recorded)/float64(required))
	})
}

// CompareTargetValues counts an event as complete only when every target is met.
func CompareTargetValues() Aggregator {
	return averageOf(func(ev Event) float64 {
		if ev.Outcome == nil {
			return 0
		}
		targets := ev.ScheduleEvent.Element.TargetValues
		if len(targets) > len(ev.Outcome.Values) {
			return 0
		}
		for i, target := range targets {
			if !meets(ev.Outcome.Values[i], target) {
				return 0
			}
		}
		return 1
	})
}

// PercentOfTargetValuesMet scores each event by the share of targets met.
func PercentOfTargetValuesMet() Aggregator {
	return averageOf(func(ev Event) float64 {
		if ev.Outcome == nil {
			return 0
		}
		targets := ev.ScheduleEvent.Element.TargetValues
		values := ev.Outcome.Values
		if len(targets) == 0 {
			if len(values) == 0 {
				return 0
			}
			return 1
		}
		met := 0
		for i := range min(len(targets), len(values)) {
			if meets(values[i], targets[i]) {
				met++
			}
		}
		return float64(met) / float64(len(targets))
	})
}

// Custom wraps a caller-supplied aggregator.
func Custom(fn func(events []Event) Adherence) Aggregator {
	return Aggregator(fn)
}

// meets compares values of the same type only.
func meets(value, target models.OutcomeValue) bool {
	return value.Type == target.Type && value.Meets(target)
}

// AdherenceQuery selects the tasks and days to aggregate. Empty TaskIDs
// means every task.
type AdherenceQuery struct {
	TaskIDs      []string
	DateInterval models.DateInterval
}

// InsightQuery selects one task and the days to aggregate.
type InsightQuery struct {
	TaskID       string
	DateInterval models.DateInterval
}

// dayBuckets returns one empty bucket per calendar day from start to end
// inclusive, and the window covering those whole days.
func dayBuckets(interval models.DateInterval) ([][]Event, models.DateInterval) {
	start := schedule.StartOfDay(interval.Start)
	n := schedule.DaysBetween(interval.Start, interval.End) + 1
	return make([][]Event, n), models.DateInterval{Start: start, End: start.AddDate(0, 0, n)}
}

func bucketize(buckets [][]Event, window models.DateInterval, events []Event) {
	for _, ev := range events {
		i := schedule.DaysBetween(window.Start, ev.ScheduleEvent.Start)
		if ev.ScheduleEvent.Start.Before(window.Start) || i >= len(buckets) {
			continue
		}
		buckets[i] = append(buckets[i], ev)
	}
}

// FetchAdherence returns one adherence value per day of the query interval.
// Only tasks that impact adherence are counted.
func (m *Materializer) FetchAdherence(ctx context.Context, q AdherenceQuery, agg Aggregator) ([]Adherence, error) {
	if q.DateInterval.End.Before(q.DateInterval.Start) {
		return nil, store.NewError(store.KindInvalidValue, "adherence interval ends before it starts")
	}
	if agg == nil {
		agg = OutcomeExists()
	}

	buckets, window := dayBuckets(q.DateInterval)
	tasks, err := m.store.FetchTasks(ctx, models.TaskQuery{
		Query: models.Query{IDs: q.TaskIDs, DateInterval: &window},
	})
	if err != nil {
		return nil, err
	}

	relevant := 0
	for _, task := range tasks {
		if !task.ImpactsAdherence {
			continue
		}
		relevant++
		events, err := m.FetchEvents(ctx, task.ID, window)
		if err != nil {
			return nil, err
		}
		bucketize(buckets, window, events)
	}

	out := make([]Adherence, len(buckets))
	for i, bucket := range buckets {
		if relevant == 0 {
			out[i] = Adherence{Status: AdherenceNoTasks}
			continue
		}
		out[i] = agg(bucket)
	}
	return out, nil
}

// FetchInsights returns fn applied to each day's events of one task.
func (m *Materializer) FetchInsights(ctx context.Context, q InsightQuery, fn func(events []Event) float64) ([]float64, error) {
	if q.DateInterval.End.Before(q.DateInterval.Start) {
		return nil, store.NewError(store.KindInvalidValue, "insight interval ends before it starts")
	}
	if fn == nil {
		return nil, store.NewError(store.KindInvalidValue, "insight aggregator is required")
	}

	buckets, window := dayBuckets(q.DateInterval)
	events, err := m.FetchEvents(ctx, q.TaskID, window)
	if err != nil {
		return nil, err
	}
	bucketize(buckets, window, events)

	out := make([]float64, len(buckets))
	for i, bucket := range buckets {
		out[i] = fn(bucket)
	}
	return out, nil
}
