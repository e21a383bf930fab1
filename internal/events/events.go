// Package events joins task schedules with recorded outcomes: it expands the
// version chain of a task into concrete events and aggregates them into
// per-day adherence and insight values.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/iudanet/carestore/internal/models"
	"github.com/iudanet/carestore/internal/schedule"
	"github.com/iudanet/carestore/internal/store"
)

// DefaultCacheSize is the number of schedule expansions kept in memory.
const DefaultCacheSize = 512

// outcomeSlack widens outcome lookups so occurrences starting exactly on a
// window edge are joined.
const outcomeSlack = time.Second

// maxVersions bounds the walk back along a task's version chain.
const maxVersions = 1024

// Event is one scheduled occurrence of a task version with its outcome, if any.
type Event struct {
	Task          *models.Task
	Outcome       *models.Outcome
	ScheduleEvent schedule.Event
}

// Store is the read surface the materializer needs.
type Store interface {
	store.ReadableTaskStore
	store.ReadableOutcomeStore
}

type cacheKey struct {
	version uuid.UUID
	updated int64
	from    int64
	to      int64
}

// Materializer computes events on top of a store.
type Materializer struct {
	store  Store
	cache  *lru.Cache[cacheKey, []schedule.Event]
	logger *slog.Logger
}

// Option configures a Materializer.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	cacheSize int
}

// WithCacheSize sets the number of cached schedule expansions.
func WithCacheSize(n int) Option {
	return func(o *options) { o.cacheSize = n }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New creates a materializer reading from s.
func New(s Store, opts ...Option) (*Materializer, error) {
	o := options{cacheSize: DefaultCacheSize, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	cache, err := lru.New[cacheKey, []schedule.Event](o.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create schedule cache: %w", err)
	}
	return &Materializer{store: s, cache: cache, logger: o.logger}, nil
}

// expand returns the schedule events of task in [from, to). Expansions are
// cached per version and last update, so in-place updates are not served stale.
func (m *Materializer) expand(task *models.Task, from, to time.Time) []schedule.Event {
	key := cacheKey{
		version: task.LocalVersionID,
		from:    from.UnixNano(),
		to:      to.UnixNano(),
	}
	if task.UpdatedDate != nil {
		key.updated = task.UpdatedDate.UnixNano()
	}
	if cached, ok := m.cache.Get(key); ok {
		return cached
	}
	evs := task.Schedule.Events(from, to)
	m.cache.Add(key, evs)
	return evs
}

// FetchEvents returns the events of task taskID inside interval. The task
// version current at the end of the interval provides the newest events;
// older versions fill the time before each newer version took effect.
func (m *Materializer) FetchEvents(ctx context.Context, taskID string, interval models.DateInterval) ([]Event, error) {
	tasks, err := m.store.FetchTasks(ctx, models.TaskQuery{
		Query: models.Query{IDs: []string{taskID}, DateInterval: &interval},
	})
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, nil
	}

	var (
		out  []Event
		end  = interval.End
		task = tasks[0]
	)
	for range maxVersions {
		if task.EffectiveDate.Before(end) {
			from := interval.Start
			if task.EffectiveDate.After(from) {
				from = task.EffectiveDate
			}
			if from.Before(end) {
				evs, err := m.eventsOf(ctx, task, from, end)
				if err != nil {
					return nil, err
				}
				out = append(evs, out...)
			}
			end = task.EffectiveDate
		}
		if !interval.Start.Before(end) {
			break
		}
		prev, err := m.previous(ctx, task)
		if err != nil {
			return nil, err
		}
		if prev == nil {
			break
		}
		task = prev
	}
	return out, nil
}

// eventsOf expands one task version in [from, to) and joins its outcomes.
func (m *Materializer) eventsOf(ctx context.Context, task *models.Task, from, to time.Time) ([]Event, error) {
	if end := task.Schedule.End(); end != nil && end.Before(to) {
		to = *end
	}
	if !from.Before(to) {
		return nil, nil
	}
	scheduled := m.expand(task, from, to)
	if len(scheduled) == 0 {
		return nil, nil
	}

	outcomes, err := m.store.FetchOutcomes(ctx, models.OutcomeQuery{
		TaskVersionIDs: []uuid.UUID{task.LocalVersionID},
		Query: models.Query{DateInterval: &models.DateInterval{
			Start: from.Add(-outcomeSlack),
			End:   to.Add(outcomeSlack),
		}},
	})
	if err != nil {
		return nil, err
	}
	byOccurrence := make(map[int]*models.Outcome, len(outcomes))
	for _, o := range outcomes {
		byOccurrence[o.TaskOccurrenceIndex] = o
	}

	out := make([]Event, 0, len(scheduled))
	for _, se := range scheduled {
		out = append(out, Event{Task: task, Outcome: byOccurrence[se.OccurrenceIndex], ScheduleEvent: se})
	}
	return out, nil
}

// previous returns the version task succeeded. A merge version has several
// predecessors; the one that took effect last is followed.
func (m *Materializer) previous(ctx context.Context, task *models.Task) (*models.Task, error) {
	if len(task.PreviousVersionIDs) == 0 {
		return nil, nil
	}
	prevs, err := m.store.FetchTasks(ctx, models.TaskQuery{
		Query: models.Query{LocalVersionIDs: task.PreviousVersionIDs},
	})
	if err != nil {
		return nil, err
	}
	if len(prevs) == 0 {
		m.logger.Debug("previous task version not found",
			slog.String("task", task.ID),
			slog.String("version", task.LocalVersionID.String()))
		return nil, nil
	}
	return slices.MaxFunc(prevs, func(a, b *models.Task) int {
		return a.EffectiveDate.Compare(b.EffectiveDate)
	}), nil
}

// FetchEvent returns one occurrence of a task version.
func (m *Materializer) FetchEvent(ctx context.Context, taskVersionID uuid.UUID, occurrence int) (Event, error) {
	tasks, err := m.store.FetchTasks(ctx, models.TaskQuery{
		Query: models.Query{LocalVersionIDs: []uuid.UUID{taskVersionID}},
	})
	if err != nil {
		return Event{}, err
	}
	if len(tasks) == 0 {
		return Event{}, store.NewError(store.KindFetchFailed, "no task with uuid %s", taskVersionID)
	}
	task := tasks[0]

	se, ok := task.Schedule.Event(occurrence)
	if !ok {
		return Event{}, store.NewError(store.KindFetchFailed, "task %q has no occurrence %d", task.ID, occurrence)
	}

	outcomes, err := m.store.FetchOutcomes(ctx, models.OutcomeQuery{
		TaskVersionIDs:    []uuid.UUID{taskVersionID},
		OccurrenceIndices: []int{occurrence},
	})
	if err != nil {
		return Event{}, err
	}
	ev := Event{Task: task, ScheduleEvent: se}
	if len(outcomes) > 0 {
		ev.Outcome = outcomes[0]
	}
	return ev, nil
}
