package store

import (
	"context"

	"github.com/iudanet/carestore/internal/models"
)

func values[T models.Versionable](items []T) []models.Versionable {
	out := make([]models.Versionable, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}

func typed[T models.Versionable](vs []models.Versionable) []T {
	out := make([]T, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.(T))
	}
	return out
}

func addTyped[T models.Versionable](ctx context.Context, s *Store, kind models.Kind, items []T) ([]T, error) {
	saved, err := s.add(ctx, kind, values(items))
	if err != nil {
		return nil, err
	}
	return typed[T](saved), nil
}

func updateTyped[T models.Versionable](ctx context.Context, s *Store, kind models.Kind, items []T) ([]T, error) {
	saved, err := s.update(ctx, kind, values(items))
	if err != nil {
		return nil, err
	}
	return typed[T](saved), nil
}

func deleteTyped[T models.Versionable](ctx context.Context, s *Store, kind models.Kind, items []T) ([]T, error) {
	saved, err := s.remove(ctx, kind, values(items))
	if err != nil {
		return nil, err
	}
	return typed[T](saved), nil
}

func fetchTyped[T models.Versionable](ctx context.Context, s *Store, kind models.Kind, q models.Query, match matcher) ([]T, error) {
	found, err := s.fetch(ctx, kind, q, match)
	if err != nil {
		return nil, err
	}
	return typed[T](found), nil
}

// fetchOne returns the current version of identifier.
func fetchOne[T models.Versionable](ctx context.Context, s *Store, kind models.Kind, id string) (T, error) {
	var zero T
	found, err := s.fetch(ctx, kind, models.Query{IDs: []string{id}}, nil)
	if err != nil {
		return zero, err
	}
	if len(found) == 0 {
		return zero, NewError(KindFetchFailed, "no %s with id %q", kind, id)
	}
	return found[0].(T), nil
}

// AddPatients inserts new patients. The batch is all-or-nothing.
func (s *Store) AddPatients(ctx context.Context, patients []*models.Patient) ([]*models.Patient, error) {
	return addTyped(ctx, s, models.KindPatient, patients)
}

func (s *Store) UpdatePatients(ctx context.Context, patients []*models.Patient) ([]*models.Patient, error) {
	return updateTyped(ctx, s, models.KindPatient, patients)
}

// DeletePatients marks the current versions deleted. History is kept.
func (s *Store) DeletePatients(ctx context.Context, patients []*models.Patient) ([]*models.Patient, error) {
	return deleteTyped(ctx, s, models.KindPatient, patients)
}

// FetchPatients returns the versions matching q, newest first by default.
func (s *Store) FetchPatients(ctx context.Context, q models.PatientQuery) ([]*models.Patient, error) {
	return fetchTyped[*models.Patient](ctx, s, models.KindPatient, q.Query, nil)
}

// FetchPatient returns the current version of the patient with identifier id.
func (s *Store) FetchPatient(ctx context.Context, id string) (*models.Patient, error) {
	return fetchOne[*models.Patient](ctx, s, models.KindPatient, id)
}

func (s *Store) AddCarePlans(ctx context.Context, carePlans []*models.CarePlan) ([]*models.CarePlan, error) {
	return addTyped(ctx, s, models.KindCarePlan, carePlans)
}

func (s *Store) UpdateCarePlans(ctx context.Context, carePlans []*models.CarePlan) ([]*models.CarePlan, error) {
	return updateTyped(ctx, s, models.KindCarePlan, carePlans)
}

func (s *Store) DeleteCarePlans(ctx context.Context, carePlans []*models.CarePlan) ([]*models.CarePlan, error) {
	return deleteTyped(ctx, s, models.KindCarePlan, carePlans)
}

func (s *Store) FetchCarePlans(ctx context.Context, q models.CarePlanQuery) ([]*models.CarePlan, error) {
	return fetchTyped[*models.CarePlan](ctx, s, models.KindCarePlan, q.Query, carePlanMatcher(q))
}

func (s *Store) FetchCarePlan(ctx context.Context, id string) (*models.CarePlan, error) {
	return fetchOne[*models.CarePlan](ctx, s, models.KindCarePlan, id)
}

func (s *Store) AddContacts(ctx context.Context, contacts []*models.Contact) ([]*models.Contact, error) {
	return addTyped(ctx, s, models.KindContact, contacts)
}

func (s *Store) UpdateContacts(ctx context.Context, contacts []*models.Contact) ([]*models.Contact, error) {
	return updateTyped(ctx, s, models.KindContact, contacts)
}

func (s *Store) DeleteContacts(ctx context.Context, contacts []*models.Contact) ([]*models.Contact, error) {
	return deleteTyped(ctx, s, models.KindContact, contacts)
}

func (s *Store) FetchContacts(ctx context.Context, q models.ContactQuery) ([]*models.Contact, error) {
	return fetchTyped[*models.Contact](ctx, s, models.KindContact, q.Query, contactMatcher(q))
}

func (s *Store) FetchContact(ctx context.Context, id string) (*models.Contact, error) {
	return fetchOne[*models.Contact](ctx, s, models.KindContact, id)
}

// AddTasks inserts new tasks. Every identifier must be unused or deleted.
func (s *Store) AddTasks(ctx context.Context, tasks []*models.Task) ([]*models.Task, error) {
	return addTyped(ctx, s, models.KindTask, tasks)
}

// UpdateTasks fails when a new version would take effect on or before an
// occurrence that already has an outcome.
func (s *Store) UpdateTasks(ctx context.Context, tasks []*models.Task) ([]*models.Task, error) {
	return updateTyped(ctx, s, models.KindTask, tasks)
}

func (s *Store) DeleteTasks(ctx context.Context, tasks []*models.Task) ([]*models.Task, error) {
	return deleteTyped(ctx, s, models.KindTask, tasks)
}

func (s *Store) FetchTasks(ctx context.Context, q models.TaskQuery) ([]*models.Task, error) {
	return fetchTyped[*models.Task](ctx, s, models.KindTask, q.Query, taskMatcher(q))
}

func (s *Store) FetchTask(ctx context.Context, id string) (*models.Task, error) {
	return fetchOne[*models.Task](ctx, s, models.KindTask, id)
}

// AddOutcomes records outcomes. The identifier of an outcome is derived from
// its task version and occurrence index, so any ID set by the caller is replaced.
func (s *Store) AddOutcomes(ctx context.Context, outcomes []*models.Outcome) ([]*models.Outcome, error) {
	return addTyped(ctx, s, models.KindOutcome, outcomes)
}

func (s *Store) UpdateOutcomes(ctx context.Context, outcomes []*models.Outcome) ([]*models.Outcome, error) {
	return updateTyped(ctx, s, models.KindOutcome, outcomes)
}

func (s *Store) DeleteOutcomes(ctx context.Context, outcomes []*models.Outcome) ([]*models.Outcome, error) {
	return deleteTyped(ctx, s, models.KindOutcome, outcomes)
}

func (s *Store) FetchOutcomes(ctx context.Context, q models.OutcomeQuery) ([]*models.Outcome, error) {
	return fetchTyped[*models.Outcome](ctx, s, models.KindOutcome, q.Query, outcomeMatcher(q))
}

func (s *Store) FetchOutcome(ctx context.Context, id string) (*models.Outcome, error) {
	return fetchOne[*models.Outcome](ctx, s, models.KindOutcome, id)
}
