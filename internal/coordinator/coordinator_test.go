package coordinator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/iudanet/carestore/internal/models"
	"github.com/iudanet/carestore/internal/store"
	"github.com/iudanet/carestore/internal/storage/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newStore(t *testing.T, name string) *store.Store {
	t.Helper()
	cfg := store.DefaultConfig()
	cfg.Name = name
	s, err := store.Open(context.Background(), memory.New(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func patient(id string) *models.Patient {
	return &models.Patient{Versioned: models.Versioned{ID: id}}
}

func ids(patients []*models.Patient) []string {
	out := make([]string, len(patients))
	for i, p := range patients {
		out[i] = p.ID
	}
	return out
}

// byPrefix routes entities to the store named by the prefix of their ID.
func byPrefix() Routing {
	return Routing{Writing: func(name string, entity models.Versionable) bool {
		return strings.HasPrefix(entity.Header().ID, name+"-")
	}}
}

type failingPatients struct{ err error }

func (f failingPatients) FetchPatients(context.Context, models.PatientQuery) ([]*models.Patient, error) {
	return nil, f.err
}

func (f failingPatients) FetchPatient(context.Context, string) (*models.Patient, error) {
	return nil, f.err
}

// blockingPatients waits until its query is cancelled.
type blockingPatients struct{ started chan struct{} }

func (b blockingPatients) FetchPatients(ctx context.Context, _ models.PatientQuery) ([]*models.Patient, error) {
	close(b.started)
	<-ctx.Done()
	return nil, ctx.Err()
}

func (b blockingPatients) FetchPatient(ctx context.Context, _ string) (*models.Patient, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestCoordinator_FetchConcatenatesInAttachmentOrder(t *testing.T) {
	ctx := context.Background()
	a, b := newStore(t, "a"), newStore(t, "b")
	_, err := a.AddPatients(ctx, []*models.Patient{patient("a-1"), patient("a-2")})
	require.NoError(t, err)
	_, err = b.AddPatients(ctx, []*models.Patient{patient("b-1")})
	require.NoError(t, err)

	c := New()
	c.Attach(b)
	c.Attach(a)

	got, err := c.FetchPatients(ctx, models.PatientQuery{
		Query: models.Query{Sort: []models.SortDescriptor{{Key: models.SortByID, Ascending: true}}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"b-1", "a-1", "a-2"}, ids(got))

	one, err := c.FetchPatient(ctx, "a-2")
	require.NoError(t, err)
	assert.Equal(t, "a-2", one.ID)

	_, err = c.FetchPatient(ctx, "missing")
	require.ErrorIs(t, err, store.ErrFetchFailed)
}

func TestCoordinator_ShouldHandleQuery(t *testing.T) {
	ctx := context.Background()
	a, b := newStore(t, "a"), newStore(t, "b")
	_, err := a.AddPatients(ctx, []*models.Patient{patient("a-1")})
	require.NoError(t, err)
	_, err = b.AddPatients(ctx, []*models.Patient{patient("b-1")})
	require.NoError(t, err)

	c := New(WithDelegate(Routing{Query: func(name string, kind models.Kind) bool {
		return name == "a" || kind != models.KindPatient
	}}))
	c.Attach(a)
	c.Attach(b)

	got, err := c.FetchPatients(ctx, models.PatientQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a-1"}, ids(got))
}

func TestCoordinator_FetchFailsFast(t *testing.T) {
	boom := errors.New("disk on fire")
	blocker := blockingPatients{started: make(chan struct{})}

	c := New()
	c.AttachReadablePatientStore("slow", blocker)
	c.AttachReadablePatientStore("broken", failingPatients{err: boom})

	_, err := c.FetchPatients(context.Background(), models.PatientQuery{})
	require.Error(t, err)
	require.ErrorIs(t, err, store.ErrFetchFailed)
	require.ErrorIs(t, err, boom)
	<-blocker.started
}

func TestCoordinator_FetchKeepsStoreErrors(t *testing.T) {
	c := New()
	c.AttachReadablePatientStore("timeout", failingPatients{err: store.NewError(store.KindTimedOut, "slow disk")})

	_, err := c.FetchPatients(context.Background(), models.PatientQuery{})
	require.ErrorIs(t, err, store.ErrTimedOut)
}

func TestCoordinator_WriteRouting(t *testing.T) {
	ctx := context.Background()
	a, b := newStore(t, "a"), newStore(t, "b")
	c := New(WithDelegate(byPrefix()))
	c.Attach(a)
	c.Attach(b)

	_, err := c.AddPatients(ctx, []*models.Patient{patient("b-1"), patient("b-2")})
	require.NoError(t, err)

	inA, err := a.FetchPatients(ctx, models.PatientQuery{})
	require.NoError(t, err)
	inB, err := b.FetchPatients(ctx, models.PatientQuery{})
	require.NoError(t, err)
	assert.Empty(t, inA)
	assert.Len(t, inB, 2)

	// ни одно хранилище не принимает весь batch
	_, err = c.AddPatients(ctx, []*models.Patient{patient("a-1"), patient("b-3")})
	require.ErrorIs(t, err, store.ErrAddFailed)

	inA, err = a.FetchPatients(ctx, models.PatientQuery{})
	require.NoError(t, err)
	inB, err = b.FetchPatients(ctx, models.PatientQuery{})
	require.NoError(t, err)
	assert.Empty(t, inA)
	assert.Len(t, inB, 2)
}

func TestCoordinator_WriteFailureKinds(t *testing.T) {
	ctx := context.Background()
	a := newStore(t, "a")
	c := New(WithDelegate(Routing{Writing: func(string, models.Versionable) bool { return false }}))
	c.Attach(a)

	_, err := c.UpdateTasks(ctx, []*models.Task{{Versioned: models.Versioned{ID: "t"}}})
	require.ErrorIs(t, err, store.ErrUpdateFailed)
	_, err = c.DeleteOutcomes(ctx, []*models.Outcome{{}})
	require.ErrorIs(t, err, store.ErrDeleteFailed)
}

func TestCoordinator_ReadOnlyStoresAreNotWritten(t *testing.T) {
	ctx := context.Background()
	readonly, writable := newStore(t, "ro"), newStore(t, "rw")
	c := New()
	c.AttachReadable("ro", readonly)
	c.AttachPatientStore("rw", writable)

	_, err := c.AddPatients(ctx, []*models.Patient{patient("p")})
	require.NoError(t, err)

	got, err := writable.FetchPatients(ctx, models.PatientQuery{})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = readonly.FetchPatients(ctx, models.PatientQuery{})
	require.NoError(t, err)
	assert.Empty(t, got)

	onlyReadable := New()
	onlyReadable.AttachReadable("ro", readonly)
	_, err = onlyReadable.AddCarePlans(ctx, []*models.CarePlan{{Versioned: models.Versioned{ID: "plan"}}})
	require.ErrorIs(t, err, store.ErrAddFailed)
}

func TestCoordinator_RelaysChanges(t *testing.T) {
	ctx := context.Background()
	a := newStore(t, "a")
	c := New()
	c.Attach(a)

	var (
		mu   sync.Mutex
		seen []store.Change
	)
	c.SetChangeDelegate(models.KindPatient, store.DelegateFunc(func(_ context.Context, change store.Change) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, change)
	}))

	_, err := c.AddPatients(ctx, []*models.Patient{patient("p")})
	require.NoError(t, err)
	_, err = c.AddCarePlans(ctx, []*models.CarePlan{{Versioned: models.Versioned{ID: "plan"}}})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 1)
	assert.Equal(t, "a", seen[0].Store)
	assert.Equal(t, store.OpAdd, seen[0].Op)
	assert.Equal(t, models.KindPatient, seen[0].Kind)
	require.Len(t, seen[0].Entities, 1)
	assert.Equal(t, "p", seen[0].Entities[0].Header().ID)
}

func TestCoordinator_ImplementsStore(t *testing.T) {
	var s store.WritableStore = New()
	assert.Equal(t, Name, s.Name())
}
