package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// DateInterval is a closed time window.
type DateInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DayInterval covers the calendar day of t in t's location.
func DayInterval(t time.Time) DateInterval {
	y, m, d := t.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return DateInterval{Start: start, End: start.AddDate(0, 0, 1)}
}

// SortKey names a field results can be ordered by.
type SortKey string

const (
	SortByEffectiveDate   SortKey = "effectiveDate"
	SortByCreatedDate     SortKey = "createdDate"
	SortByUpdatedDate     SortKey = "updatedDate"
	SortByID              SortKey = "id"
	SortByGroupIdentifier SortKey = "groupIdentifier"
	SortByTitle           SortKey = "title"
	SortByGivenName       SortKey = "givenName"
	SortByFamilyName      SortKey = "familyName"
	SortByOccurrence      SortKey = "occurrence"
)

// SortDescriptor orders results by one key.
type SortDescriptor struct {
	Key       SortKey `json:"key"`
	Ascending bool    `json:"ascending"`
}

// Query holds the filters shared by every entity kind. Empty slices do not
// filter. A nil DateInterval means "the latest versions".
type Query struct {
	DateInterval     *DateInterval    `json:"dateInterval,omitempty"`
	IDs              []string         `json:"ids,omitempty"`
	LocalVersionIDs  []uuid.UUID      `json:"uuids,omitempty"`
	RemoteIDs        []string         `json:"remoteIDs,omitempty"`
	GroupIdentifiers []string         `json:"groupIdentifiers,omitempty"` // "" matches entities without a group
	Tags             []string         `json:"tags,omitempty"`             // any shared tag matches
	Sort             []SortDescriptor `json:"sortDescriptors,omitempty"`
	Limit            int              `json:"limit,omitempty"`
	Offset           int              `json:"offset,omitempty"`
}

// Common returns the shared part of the query.
func (q Query) Common() Query { return q }

// MatchesMetadata applies the identity and metadata filters of q.
func (q Query) MatchesMetadata(v *Versioned) bool {
	if len(q.IDs) > 0 && !slices.Contains(q.IDs, v.ID) {
		return false
	}
	if len(q.LocalVersionIDs) > 0 && !slices.Contains(q.LocalVersionIDs, v.LocalVersionID) {
		return false
	}
	if len(q.RemoteIDs) > 0 && !slices.Contains(q.RemoteIDs, v.RemoteID) {
		return false
	}
	if len(q.GroupIdentifiers) > 0 && !slices.Contains(q.GroupIdentifiers, v.GroupIdentifier) {
		return false
	}
	if len(q.Tags) > 0 && !slices.ContainsFunc(v.Tags, func(tag string) bool {
		return slices.Contains(q.Tags, tag)
	}) {
		return false
	}
	return true
}

type PatientQuery struct {
	Query
}

type CarePlanQuery struct {
	PatientIDs        []string    `json:"patientIDs,omitempty"`
	PatientVersionIDs []uuid.UUID `json:"patientUUIDs,omitempty"`
	Query
}

type ContactQuery struct {
	CarePlanIDs        []string    `json:"carePlanIDs,omitempty"`
	CarePlanVersionIDs []uuid.UUID `json:"carePlanUUIDs,omitempty"`
	Query
}

type TaskQuery struct {
	CarePlanIDs        []string    `json:"carePlanIDs,omitempty"`
	CarePlanVersionIDs []uuid.UUID `json:"carePlanUUIDs,omitempty"`
	// ExcludesTasksWithNoEvents drops tasks without events in DateInterval.
	ExcludesTasksWithNoEvents bool `json:"excludesTasksWithNoEvents,omitempty"`
	Query
}

type OutcomeQuery struct {
	TaskIDs           []string    `json:"taskIDs,omitempty"`
	TaskVersionIDs    []uuid.UUID `json:"taskUUIDs,omitempty"`
	OccurrenceIndices []int       `json:"taskOccurrenceIndices,omitempty"`
	Query
}

// Querier is implemented by every kind-specific query.
type Querier interface {
	Common() Query
}
