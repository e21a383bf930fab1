package store

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/carestore/internal/models"
	"github.com/iudanet/carestore/internal/validation"
)

// matcher applies kind-specific filters.
type matcher func(v view, r *record) bool

// fetch returns clones of the records of kind that match q, sorted and paged.
func (s *Store) fetch(ctx context.Context, kind models.Kind, q models.Query, match matcher) ([]models.Versionable, error) {
	if err := validation.ValidateQuery(q); err != nil {
		return nil, WrapError(KindInvalidValue, "invalid query", err)
	}

	var out []models.Versionable
	err := s.read(ctx, "fetch_"+string(kind), func(v view) error {
		for _, r := range v.all(kind) {
			if !visible(v, r, q) || !q.MatchesMetadata(r.header()) {
				continue
			}
			if match != nil && !match(v, r) {
				continue
			}
			c := r.value.Clone()
			c.Header().NextVersionIDs = slices.Clone(v.next(r.header().LocalVersionID))
			out = append(out, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortValues(out, q.Sort)
	return page(out, q.Offset, q.Limit), nil
}

// visible applies the point-in-time rules. Without a date interval only
// current versions match, unless exact versions are requested.
func visible(v view, r *record, q models.Query) bool {
	h := r.header()
	if h.IsDeleted() {
		return false
	}
	kind := r.value.Kind()
	if !kind.Versioned() {
		return true
	}

	if q.DateInterval == nil {
		if len(q.LocalVersionIDs) > 0 {
			return true
		}
		return isTip(v, r)
	}

	end := q.DateInterval.End
	if !h.EffectiveDate.Before(end) {
		return false
	}
	if tombstoned(v, kind, h.ID) {
		return false
	}
	next := v.next(h.LocalVersionID)
	if len(next) == 0 {
		return true
	}
	for _, id := range next {
		if n := v.get(id); n != nil && !n.header().EffectiveDate.Before(end) {
			return true
		}
	}
	return false
}

// tombstoned reports whether every tip of identifier is deleted.
// A deleted chain hides its history from interval queries.
func tombstoned(v view, kind models.Kind, identifier string) bool {
	ts := tips(v, kind, identifier)
	if len(ts) == 0 {
		return false
	}
	for _, t := range ts {
		if !t.header().IsDeleted() {
			return false
		}
	}
	return true
}

// identifierOf resolves the identifier of the version id, "" when unknown.
func identifierOf(v view, id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	if r := v.get(*id); r != nil {
		return r.header().ID
	}
	return ""
}

func matchesRelation(v view, ref *uuid.UUID, ids []string, versionIDs []uuid.UUID) bool {
	if len(versionIDs) > 0 && (ref == nil || !slices.Contains(versionIDs, *ref)) {
		return false
	}
	if len(ids) > 0 && !slices.Contains(ids, identifierOf(v, ref)) {
		return false
	}
	return true
}

func carePlanMatcher(q models.CarePlanQuery) matcher {
	return func(v view, r *record) bool {
		p := r.value.(*models.CarePlan)
		return matchesRelation(v, p.PatientVersionID, q.PatientIDs, q.PatientVersionIDs)
	}
}

func contactMatcher(q models.ContactQuery) matcher {
	return func(v view, r *record) bool {
		c := r.value.(*models.Contact)
		return matchesRelation(v, c.CarePlanVersionID, q.CarePlanIDs, q.CarePlanVersionIDs)
	}
}

func taskMatcher(q models.TaskQuery) matcher {
	return func(v view, r *record) bool {
		task := r.value.(*models.Task)
		if !matchesRelation(v, task.CarePlanVersionID, q.CarePlanIDs, q.CarePlanVersionIDs) {
			return false
		}
		if q.DateInterval == nil {
			return true
		}
		if end := task.Schedule.End(); end != nil && end.Before(q.DateInterval.Start) {
			return false
		}
		if q.ExcludesTasksWithNoEvents {
			from := q.DateInterval.Start
			if task.EffectiveDate.After(from) {
				from = task.EffectiveDate
			}
			if len(task.Schedule.Events(from, q.DateInterval.End)) == 0 {
				return false
			}
		}
		return true
	}
}

func outcomeMatcher(q models.OutcomeQuery) matcher {
	return func(v view, r *record) bool {
		o := r.value.(*models.Outcome)
		if len(q.TaskVersionIDs) > 0 && !slices.Contains(q.TaskVersionIDs, o.TaskVersionID) {
			return false
		}
		if len(q.OccurrenceIndices) > 0 && !slices.Contains(q.OccurrenceIndices, o.TaskOccurrenceIndex) {
			return false
		}
		if len(q.TaskIDs) == 0 && q.DateInterval == nil {
			return true
		}

		tr := v.get(o.TaskVersionID)
		if tr == nil || tr.value.Kind() != models.KindTask {
			return false
		}
		task := tr.value.(*models.Task)
		if len(q.TaskIDs) > 0 && !slices.Contains(q.TaskIDs, task.ID) {
			return false
		}
		if q.DateInterval != nil {
			ev, ok := task.Schedule.Event(o.TaskOccurrenceIndex)
			if !ok || !ev.Start.Before(q.DateInterval.End) || ev.End.Before(q.DateInterval.Start) {
				return false
			}
		}
		return true
	}
}

func timeOf(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func titleOf(v models.Versionable) string {
	switch e := v.(type) {
	case *models.CarePlan:
		return e.Title
	case *models.Task:
		return e.Title
	case *models.Contact:
		return e.Title
	default:
		return ""
	}
}

func nameOf(v models.Versionable) models.Name {
	switch e := v.(type) {
	case *models.Patient:
		return e.Name
	case *models.Contact:
		return e.Name
	default:
		return models.Name{}
	}
}

func compareBy(key models.SortKey, a, b models.Versionable) int {
	ha, hb := a.Header(), b.Header()
	switch key {
	case models.SortByEffectiveDate:
		return ha.EffectiveDate.Compare(hb.EffectiveDate)
	case models.SortByCreatedDate:
		return timeOf(ha.CreatedDate).Compare(timeOf(hb.CreatedDate))
	case models.SortByUpdatedDate:
		return timeOf(ha.UpdatedDate).Compare(timeOf(hb.UpdatedDate))
	case models.SortByID:
		return strings.Compare(ha.ID, hb.ID)
	case models.SortByGroupIdentifier:
		return strings.Compare(ha.GroupIdentifier, hb.GroupIdentifier)
	case models.SortByTitle:
		return strings.Compare(titleOf(a), titleOf(b))
	case models.SortByGivenName:
		return strings.Compare(nameOf(a).GivenName, nameOf(b).GivenName)
	case models.SortByFamilyName:
		return strings.Compare(nameOf(a).FamilyName, nameOf(b).FamilyName)
	case models.SortByOccurrence:
		oa, _ := a.(*models.Outcome)
		ob, _ := b.(*models.Outcome)
		if oa == nil || ob == nil {
			return 0
		}
		return cmp.Compare(oa.TaskOccurrenceIndex, ob.TaskOccurrenceIndex)
	default:
		return 0
	}
}

// sortValues orders by the descriptors, or by created date descending when
// none are given. Ties fall back to identifier then version id.
func sortValues(values []models.Versionable, sorts []models.SortDescriptor) {
	if len(sorts) == 0 {
		sorts = []models.SortDescriptor{{Key: models.SortByCreatedDate}}
	}
	slices.SortStableFunc(values, func(a, b models.Versionable) int {
		for _, d := range sorts {
			c := compareBy(d.Key, a, b)
			if !d.Ascending {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		ha, hb := a.Header(), b.Header()
		if c := strings.Compare(ha.ID, hb.ID); c != 0 {
			return c
		}
		return strings.Compare(ha.LocalVersionID.String(), hb.LocalVersionID.String())
	})
}

func page(values []models.Versionable, offset, limit int) []models.Versionable {
	if offset >= len(values) {
		return nil
	}
	values = values[offset:]
	if limit > 0 && limit < len(values) {
		values = values[:limit]
	}
	return values
}
