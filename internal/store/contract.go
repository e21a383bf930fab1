package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/iudanet/carestore/internal/crdt"
	"github.com/iudanet/carestore/internal/models"
)

type ReadablePatientStore interface {
	FetchPatients(ctx context.Context, q models.PatientQuery) ([]*models.Patient, error)
	FetchPatient(ctx context.Context, id string) (*models.Patient, error)
}

type WritablePatientStore interface {
	ReadablePatientStore
	AddPatients(ctx context.Context, patients []*models.Patient) ([]*models.Patient, error)
	UpdatePatients(ctx context.Context, patients []*models.Patient) ([]*models.Patient, error)
	DeletePatients(ctx context.Context, patients []*models.Patient) ([]*models.Patient, error)
}

type ReadableCarePlanStore interface {
	FetchCarePlans(ctx context.Context, q models.CarePlanQuery) ([]*models.CarePlan, error)
	FetchCarePlan(ctx context.Context, id string) (*models.CarePlan, error)
}

type WritableCarePlanStore interface {
	ReadableCarePlanStore
	AddCarePlans(ctx context.Context, plans []*models.CarePlan) ([]*models.CarePlan, error)
	UpdateCarePlans(ctx context.Context, plans []*models.CarePlan) ([]*models.CarePlan, error)
	DeleteCarePlans(ctx context.Context, plans []*models.CarePlan) ([]*models.CarePlan, error)
}

type ReadableContactStore interface {
	FetchContacts(ctx context.Context, q models.ContactQuery) ([]*models.Contact, error)
	FetchContact(ctx context.Context, id string) (*models.Contact, error)
}

type WritableContactStore interface {
	ReadableContactStore
	AddContacts(ctx context.Context, contacts []*models.Contact) ([]*models.Contact, error)
	UpdateContacts(ctx context.Context, contacts []*models.Contact) ([]*models.Contact, error)
	DeleteContacts(ctx context.Context, contacts []*models.Contact) ([]*models.Contact, error)
}

type ReadableTaskStore interface {
	FetchTasks(ctx context.Context, q models.TaskQuery) ([]*models.Task, error)
	FetchTask(ctx context.Context, id string) (*models.Task, error)
}

type WritableTaskStore interface {
	ReadableTaskStore
	AddTasks(ctx context.Context, tasks []*models.Task) ([]*models.Task, error)
	UpdateTasks(ctx context.Context, tasks []*models.Task) ([]*models.Task, error)
	DeleteTasks(ctx context.Context, tasks []*models.Task) ([]*models.Task, error)
}

type ReadableOutcomeStore interface {
	FetchOutcomes(ctx context.Context, q models.OutcomeQuery) ([]*models.Outcome, error)
	FetchOutcome(ctx context.Context, id string) (*models.Outcome, error)
}

type WritableOutcomeStore interface {
	ReadableOutcomeStore
	AddOutcomes(ctx context.Context, outcomes []*models.Outcome) ([]*models.Outcome, error)
	UpdateOutcomes(ctx context.Context, outcomes []*models.Outcome) ([]*models.Outcome, error)
	DeleteOutcomes(ctx context.Context, outcomes []*models.Outcome) ([]*models.Outcome, error)
}

// ReadableStore reads every entity kind.
type ReadableStore interface {
	ReadablePatientStore
	ReadableCarePlanStore
	ReadableContactStore
	ReadableTaskStore
	ReadableOutcomeStore
}

// WritableStore reads and writes every entity kind. Writes to one store are
// serialized, reads run concurrently.
type WritableStore interface {
	Name() string
	WritablePatientStore
	WritableCarePlanStore
	WritableContactStore
	WritableTaskStore
	WritableOutcomeStore
}

// SyncableStore exposes the revision log of a store.
type SyncableStore interface {
	ClockID() uuid.UUID
	KnowledgeVector() crdt.KnowledgeVector
	Revisions(ctx context.Context, since crdt.KnowledgeVector) ([]models.RevisionRecord, error)
	MergeRevisions(ctx context.Context, records []models.RevisionRecord) (MergeResult, error)
}

var (
	_ WritableStore = (*Store)(nil)
	_ SyncableStore = (*Store)(nil)
)
