package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/carestore/internal/models"
	"github.com/iudanet/carestore/internal/validation"
)

// requiredRelationship returns the kind an entity of kind k must point to
// when missing relationships are not allowed.
func requiredRelationship(k models.Kind) (models.Kind, bool) {
	switch k {
	case models.KindCarePlan:
		return models.KindPatient, true
	case models.KindContact, models.KindTask:
		return models.KindCarePlan, true
	default:
		return "", false
	}
}

// prepare clones the input, derives outcome identifiers and checks the
// batch for invalid or duplicate identifiers.
func prepare(kind models.Kind, values []models.Versionable) ([]models.Versionable, error) {
	out := make([]models.Versionable, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if v == nil {
			return nil, NewError(KindInvalidValue, "nil %s in batch", kind)
		}
		if v.Kind() != kind {
			return nil, NewError(KindInvalidValue, "expected %s, got %s", kind, v.Kind())
		}
		c := v.Clone()
		if o, ok := c.(*models.Outcome); ok {
			o.ID = models.OutcomeID(o.TaskVersionID, o.TaskOccurrenceIndex)
		}
		id := c.Header().ID
		if err := validation.ValidateIdentifier(id); err != nil {
			return nil, WrapError(KindInvalidValue, "invalid identifier", err)
		}
		if seen[id] {
			return nil, NewError(KindInvalidValue, "identifiers contain duplicate value %q", id)
		}
		seen[id] = true
		out = append(out, c)
	}
	return out, nil
}

// validateContent rejects values that cannot be expanded or matched later:
// schedules that do not move forward and negative occurrence indices.
func validateContent(value models.Versionable) error {
	switch v := value.(type) {
	case *models.Task:
		if err := v.Schedule.Validate(); err != nil {
			return WrapError(KindInvalidValue, fmt.Sprintf("task %q has an invalid schedule", v.ID), err)
		}
	case *models.Outcome:
		if v.TaskOccurrenceIndex < 0 {
			return NewError(KindInvalidValue, "outcome %q has negative occurrence index %d", v.ID, v.TaskOccurrenceIndex)
		}
	}
	return nil
}

// checkRelationships verifies that referenced versions exist.
func (s *Store) checkRelationships(v view, value models.Versionable) error {
	if o, ok := value.(*models.Outcome); ok {
		return validateOutcome(v, o)
	}
	if s.cfg.AllowsEntitiesWithMissingRelationships {
		return nil
	}

	refs := value.References()
	if want, ok := requiredRelationship(value.Kind()); ok && len(refs) == 0 {
		return NewError(KindInvalidValue, "%s %q has no %s", value.Kind(), value.Header().ID, want)
	}
	for _, ref := range refs {
		r := v.get(ref.VersionID)
		if r == nil || r.value.Kind() != ref.Kind {
			return NewError(KindInvalidValue, "%s %q references missing %s %s",
				value.Kind(), value.Header().ID, ref.Kind, ref.VersionID)
		}
	}
	return nil
}

// validateOutcome checks that the outcome belongs to an existing occurrence
// of its task version, and that no newer version of the task already covers
// that occurrence.
func validateOutcome(v view, o *models.Outcome) error {
	r := v.get(o.TaskVersionID)
	if r == nil || r.value.Kind() != models.KindTask {
		return NewError(KindInvalidValue, "failed to find task with uuid %s", o.TaskVersionID)
	}
	task := r.value.(*models.Task)

	ev, ok := task.Schedule.Event(o.TaskOccurrenceIndex)
	if !ok {
		if count, finite := task.Schedule.Count(); finite {
			return NewError(KindInvalidValue, "task %q has %d occurrences, got index %d",
				task.ID, count, o.TaskOccurrenceIndex)
		}
		return NewError(KindInvalidValue, "task %q has no occurrence %d", task.ID, o.TaskOccurrenceIndex)
	}

	cur := r
	for range maxChainWalk {
		next := v.next(cur.header().LocalVersionID)
		if len(next) == 0 {
			break
		}
		nr := v.get(next[0])
		if nr == nil {
			break
		}
		eff := nr.header().EffectiveDate
		if !eff.Before(cur.header().EffectiveDate) && !eff.After(ev.Start) {
			return NewError(KindInvalidValue,
				"occurrence %d of task %q at %s is overshadowed by a version effective %s",
				o.TaskOccurrenceIndex, task.ID, ev.Start.Format(time.RFC3339), eff.Format(time.RFC3339))
		}
		cur = nr
	}
	return nil
}

// maxChainWalk bounds walks along version links.
const maxChainWalk = 1 << 16

// latestOutcomeStart returns the start of the latest occurrence that has a
// live outcome on any version of the task identifier.
func latestOutcomeStart(v view, taskID string) (time.Time, bool) {
	versions := make(map[uuid.UUID]*models.Task)
	for _, r := range v.versionsOf(models.KindTask, taskID) {
		versions[r.header().LocalVersionID] = r.value.(*models.Task)
	}

	var (
		latest time.Time
		found  bool
	)
	for _, r := range v.all(models.KindOutcome) {
		o := r.value.(*models.Outcome)
		if o.IsDeleted() {
			continue
		}
		task, ok := versions[o.TaskVersionID]
		if !ok {
			continue
		}
		ev, ok := task.Schedule.Event(o.TaskOccurrenceIndex)
		if !ok {
			continue
		}
		if !found || ev.Start.After(latest) {
			latest, found = ev.Start, true
		}
	}
	return latest, found
}

// confirmTaskUpdate rejects a new task version that would take effect on or
// before an occurrence that already has an outcome.
func confirmTaskUpdate(v view, task *models.Task) error {
	latest, ok := latestOutcomeStart(v, task.ID)
	if !ok {
		return nil
	}
	if !task.EffectiveDate.After(latest) {
		return NewError(KindUpdateFailed,
			"new version of task %q takes effect %s, but an outcome exists for %s; delete later outcomes or move the effective date",
			task.ID, task.EffectiveDate.Format(time.RFC3339), latest.Format(time.RFC3339))
	}
	return nil
}
