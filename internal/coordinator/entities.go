package coordinator

import (
	"context"

	"github.com/iudanet/carestore/internal/models"
	"github.com/iudanet/carestore/internal/store"
)

func (c *Coordinator) AttachReadablePatientStore(name string, s store.ReadablePatientStore) {
	attachReadable(c, c.patients, name, s)
}

func (c *Coordinator) AttachPatientStore(name string, s store.WritablePatientStore) {
	attachWritable(c, c.patients, name, store.ReadablePatientStore(s), s)
}

func (c *Coordinator) FetchPatients(ctx context.Context, q models.PatientQuery) ([]*models.Patient, error) {
	return fetchAll(ctx, c, c.patients, q, store.ReadablePatientStore.FetchPatients)
}

// FetchPatient returns the current version of id from the first store that has it.
func (c *Coordinator) FetchPatient(ctx context.Context, id string) (*models.Patient, error) {
	found, err := c.FetchPatients(ctx, models.PatientQuery{Query: models.Query{IDs: []string{id}}})
	return fetchFirst(found, err, models.KindPatient, id)
}

func (c *Coordinator) AddPatients(ctx context.Context, patients []*models.Patient) ([]*models.Patient, error) {
	return writeTo(ctx, c, c.patients, "add", store.KindAddFailed, patients, store.WritablePatientStore.AddPatients)
}

func (c *Coordinator) UpdatePatients(ctx context.Context, patients []*models.Patient) ([]*models.Patient, error) {
	return writeTo(ctx, c, c.patients, "update", store.KindUpdateFailed, patients, store.WritablePatientStore.UpdatePatients)
}

func (c *Coordinator) DeletePatients(ctx context.Context, patients []*models.Patient) ([]*models.Patient, error) {
	return writeTo(ctx, c, c.patients, "delete", store.KindDeleteFailed, patients, store.WritablePatientStore.DeletePatients)
}

func (c *Coordinator) AttachReadableCarePlanStore(name string, s store.ReadableCarePlanStore) {
	attachReadable(c, c.carePlans, name, s)
}

func (c *Coordinator) AttachCarePlanStore(name string, s store.WritableCarePlanStore) {
	attachWritable(c, c.carePlans, name, store.ReadableCarePlanStore(s), s)
}

func (c *Coordinator) FetchCarePlans(ctx context.Context, q models.CarePlanQuery) ([]*models.CarePlan, error) {
	return fetchAll(ctx, c, c.carePlans, q, store.ReadableCarePlanStore.FetchCarePlans)
}

func (c *Coordinator) FetchCarePlan(ctx context.Context, id string) (*models.CarePlan, error) {
	found, err := c.FetchCarePlans(ctx, models.CarePlanQuery{Query: models.Query{IDs: []string{id}}})
	return fetchFirst(found, err, models.KindCarePlan, id)
}

func (c *Coordinator) AddCarePlans(ctx context.Context, plans []*models.CarePlan) ([]*models.CarePlan, error) {
	return writeTo(ctx, c, c.carePlans, "add", store.KindAddFailed, plans, store.WritableCarePlanStore.AddCarePlans)
}

func (c *Coordinator) UpdateCarePlans(ctx context.Context, plans []*models.CarePlan) ([]*models.CarePlan, error) {
	return writeTo(ctx, c, c.carePlans, "update", store.KindUpdateFailed, plans, store.WritableCarePlanStore.UpdateCarePlans)
}

func (c *Coordinator) DeleteCarePlans(ctx context.Context, plans []*models.CarePlan) ([]*models.CarePlan, error) {
	return writeTo(ctx, c, c.carePlans, "delete", store.KindDeleteFailed, plans, store.WritableCarePlanStore.DeleteCarePlans)
}

func (c *Coordinator) AttachReadableContactStore(name string, s store.ReadableContactStore) {
	attachReadable(c, c.contacts, name, s)
}

func (c *Coordinator) AttachContactStore(name string, s store.WritableContactStore) {
	attachWritable(c, c.contacts, name, store.ReadableContactStore(s), s)
}

func (c *Coordinator) FetchContacts(ctx context.Context, q models.ContactQuery) ([]*models.Contact, error) {
	return fetchAll(ctx, c, c.contacts, q, store.ReadableContactStore.FetchContacts)
}

func (c *Coordinator) FetchContact(ctx context.Context, id string) (*models.Contact, error) {
	found, err := c.FetchContacts(ctx, models.ContactQuery{Query: models.Query{IDs: []string{id}}})
	return fetchFirst(found, err, models.KindContact, id)
}

func (c *Coordinator) AddContacts(ctx context.Context, contacts []*models.Contact) ([]*models.Contact, error) {
	return writeTo(ctx, c, c.contacts, "add", store.KindAddFailed, contacts, store.WritableContactStore.AddContacts)
}

func (c *Coordinator) UpdateContacts(ctx context.Context, contacts []*models.Contact) ([]*models.Contact, error) {
	return writeTo(ctx, c, c.contacts, "update", store.KindUpdateFailed, contacts, store.WritableContactStore.UpdateContacts)
}

func (c *Coordinator) DeleteContacts(ctx context.Context, contacts []*models.Contact) ([]*models.Contact, error) {
	return writeTo(ctx, c, c.contacts, "delete", store.KindDeleteFailed, contacts, store.WritableContactStore.DeleteContacts)
}

func (c *Coordinator) AttachReadableTaskStore(name string, s store.ReadableTaskStore) {
	attachReadable(c, c.tasks, name, s)
}

func (c *Coordinator) AttachTaskStore(name string, s store.WritableTaskStore) {
	attachWritable(c, c.tasks, name, store.ReadableTaskStore(s), s)
}

func (c *Coordinator) FetchTasks(ctx context.Context, q models.TaskQuery) ([]*models.Task, error) {
	return fetchAll(ctx, c, c.tasks, q, store.ReadableTaskStore.FetchTasks)
}

func (c *Coordinator) FetchTask(ctx context.Context, id string) (*models.Task, error) {
	found, err := c.FetchTasks(ctx, models.TaskQuery{Query: models.Query{IDs: []string{id}}})
	return fetchFirst(found, err, models.KindTask, id)
}

func (c *Coordinator) AddTasks(ctx context.Context, tasks []*models.Task) ([]*models.Task, error) {
	return writeTo(ctx, c, c.tasks, "add", store.KindAddFailed, tasks, store.WritableTaskStore.AddTasks)
}

func (c *Coordinator) UpdateTasks(ctx context.Context, tasks []*models.Task) ([]*models.Task, error) {
	return writeTo(ctx, c, c.tasks, "update", store.KindUpdateFailed, tasks, store.WritableTaskStore.UpdateTasks)
}

func (c *Coordinator) DeleteTasks(ctx context.Context, tasks []*models.Task) ([]*models.Task, error) {
	return writeTo(ctx, c, c.tasks, "delete", store.KindDeleteFailed, tasks, store.WritableTaskStore.DeleteTasks)
}

func (c *Coordinator) AttachReadableOutcomeStore(name string, s store.ReadableOutcomeStore) {
	attachReadable(c, c.outcomes, name, s)
}

func (c *Coordinator) AttachOutcomeStore(name string, s store.WritableOutcomeStore) {
	attachWritable(c, c.outcomes, name, store.ReadableOutcomeStore(s), s)
}

func (c *Coordinator) FetchOutcomes(ctx context.Context, q models.OutcomeQuery) ([]*models.Outcome, error) {
	return fetchAll(ctx, c, c.outcomes, q, store.ReadableOutcomeStore.FetchOutcomes)
}

func (c *Coordinator) FetchOutcome(ctx context.Context, id string) (*models.Outcome, error) {
	found, err := c.FetchOutcomes(ctx, models.OutcomeQuery{Query: models.Query{IDs: []string{id}}})
	return fetchFirst(found, err, models.KindOutcome, id)
}

func (c *Coordinator) AddOutcomes(ctx context.Context, outcomes []*models.Outcome) ([]*models.Outcome, error) {
	return writeTo(ctx, c, c.outcomes, "add", store.KindAddFailed, outcomes, store.WritableOutcomeStore.AddOutcomes)
}

func (c *Coordinator) UpdateOutcomes(ctx context.Context, outcomes []*models.Outcome) ([]*models.Outcome, error) {
	return writeTo(ctx, c, c.outcomes, "update", store.KindUpdateFailed, outcomes, store.WritableOutcomeStore.UpdateOutcomes)
}

func (c *Coordinator) DeleteOutcomes(ctx context.Context, outcomes []*models.Outcome) ([]*models.Outcome, error) {
	return writeTo(ctx, c, c.outcomes, "delete", store.KindDeleteFailed, outcomes, store.WritableOutcomeStore.DeleteOutcomes)
}
