// Package coordinator presents several stores as one. Reads fan out to every
// attached store, writes go to exactly one of them.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/iudanet/carestore/internal/models"
	"github.com/iudanet/carestore/internal/store"
)

// Name is reported by the coordinator when it is used as a store.
const Name = "coordinator"

// Delegate decides which attached stores take part in a query or a write.
type Delegate interface {
	// ShouldHandleQuery reports whether the named store is asked for kind.
	ShouldHandleQuery(store string, kind models.Kind) bool
	// ShouldHandleWriting reports whether the named store may persist entity.
	ShouldHandleWriting(store string, entity models.Versionable) bool
}

// Routing adapts functions to Delegate. A nil function accepts everything.
type Routing struct {
	Query   func(store string, kind models.Kind) bool
	Writing func(store string, entity models.Versionable) bool
}

func (r Routing) ShouldHandleQuery(store string, kind models.Kind) bool {
	return r.Query == nil || r.Query(store, kind)
}

func (r Routing) ShouldHandleWriting(store string, entity models.Versionable) bool {
	return r.Writing == nil || r.Writing(store, entity)
}

// slot is one attachment of a store for one kind.
type slot[R, W any] struct {
	reader   R
	writer   W
	name     string
	writable bool
}

type registry[R, W any] struct {
	kind  models.Kind
	slots []slot[R, W]
	mu    sync.RWMutex
}

func newRegistry[R, W any](kind models.Kind) *registry[R, W] {
	return &registry[R, W]{kind: kind}
}

func (r *registry[R, W]) attach(s slot[R, W]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots = append(r.slots, s)
}

func (r *registry[R, W]) snapshot() []slot[R, W] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.slots)
}

func (r *registry[R, W]) has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.ContainsFunc(r.slots, func(s slot[R, W]) bool { return s.name == name })
}

// Coordinator keeps the attached stores per entity kind in attachment order.
type Coordinator struct {
	patients  *registry[store.ReadablePatientStore, store.WritablePatientStore]
	carePlans *registry[store.ReadableCarePlanStore, store.WritableCarePlanStore]
	contacts  *registry[store.ReadableContactStore, store.WritableContactStore]
	tasks     *registry[store.ReadableTaskStore, store.WritableTaskStore]
	outcomes  *registry[store.ReadableOutcomeStore, store.WritableOutcomeStore]

	logger    *slog.Logger
	delegate  Delegate
	observers map[models.Kind]store.Delegate
	mu        sync.RWMutex
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDelegate sets the routing delegate.
func WithDelegate(d Delegate) Option {
	return func(c *Coordinator) { c.delegate = d }
}

// New creates a coordinator without stores.
func New(opts ...Option) *Coordinator {
	c := &Coordinator{
		patients:  newRegistry[store.ReadablePatientStore, store.WritablePatientStore](models.KindPatient),
		carePlans: newRegistry[store.ReadableCarePlanStore, store.WritableCarePlanStore](models.KindCarePlan),
		contacts:  newRegistry[store.ReadableContactStore, store.WritableContactStore](models.KindContact),
		tasks:     newRegistry[store.ReadableTaskStore, store.WritableTaskStore](models.KindTask),
		outcomes:  newRegistry[store.ReadableOutcomeStore, store.WritableOutcomeStore](models.KindOutcome),
		logger:    slog.Default(),
		observers: make(map[models.Kind]store.Delegate),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements store.WritableStore.
func (c *Coordinator) Name() string { return Name }

// SetDelegate replaces the routing delegate. nil accepts everything.
func (c *Coordinator) SetDelegate(d Delegate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delegate = d
}

// SetChangeDelegate registers the receiver of change notifications of kind
// coming from attached stores. One delegate per kind; nil removes it.
func (c *Coordinator) SetChangeDelegate(kind models.Kind, d store.Delegate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d == nil {
		delete(c.observers, kind)
		return
	}
	c.observers[kind] = d
}

func (c *Coordinator) routing() Delegate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.delegate == nil {
		return Routing{}
	}
	return c.delegate
}

// StoreDidChange relays a notification of an attached store to the change
// delegate of its kind.
func (c *Coordinator) StoreDidChange(ctx context.Context, change store.Change) {
	if !c.attachedFor(change.Kind, change.Store) {
		return
	}
	c.mu.RLock()
	d := c.observers[change.Kind]
	c.mu.RUnlock()
	if d != nil {
		d.StoreDidChange(ctx, change)
	}
}

func (c *Coordinator) attachedFor(kind models.Kind, name string) bool {
	switch kind {
	case models.KindPatient:
		return c.patients.has(name)
	case models.KindCarePlan:
		return c.carePlans.has(name)
	case models.KindContact:
		return c.contacts.has(name)
	case models.KindTask:
		return c.tasks.has(name)
	case models.KindOutcome:
		return c.outcomes.has(name)
	default:
		return false
	}
}

// observe makes the coordinator the delegate of s when s reports changes.
// This replaces any delegate set on s before.
func (c *Coordinator) observe(s any) {
	if n, ok := s.(interface{ SetDelegate(store.Delegate) }); ok {
		n.SetDelegate(c)
	}
}

// Attach attaches s as a writable store for every kind.
func (c *Coordinator) Attach(s store.WritableStore) {
	name := s.Name()
	c.AttachPatientStore(name, s)
	c.AttachCarePlanStore(name, s)
	c.AttachContactStore(name, s)
	c.AttachTaskStore(name, s)
	c.AttachOutcomeStore(name, s)
}

// AttachReadable attaches s as a read-only store for every kind.
func (c *Coordinator) AttachReadable(name string, s store.ReadableStore) {
	c.AttachReadablePatientStore(name, s)
	c.AttachReadableCarePlanStore(name, s)
	c.AttachReadableContactStore(name, s)
	c.AttachReadableTaskStore(name, s)
	c.AttachReadableOutcomeStore(name, s)
}

func attachReadable[R, W any](c *Coordinator, reg *registry[R, W], name string, s R) {
	reg.attach(slot[R, W]{name: name, reader: s})
	c.observe(s)
	c.logger.Debug("store attached", slog.String("store", name), slog.String("kind", string(reg.kind)), slog.Bool("writable", false))
}

func attachWritable[R, W any](c *Coordinator, reg *registry[R, W], name string, r R, w W) {
	reg.attach(slot[R, W]{name: name, reader: r, writer: w, writable: true})
	c.observe(w)
	c.logger.Debug("store attached", slog.String("store", name), slog.String("kind", string(reg.kind)), slog.Bool("writable", true))
}

// fetchAll queries every store accepted by the delegate concurrently and
// concatenates the results in attachment order. The first failure cancels
// the remaining queries.
func fetchAll[R, W, Q, T any](ctx context.Context, c *Coordinator, reg *registry[R, W], q Q, fetch func(R, context.Context, Q) ([]T, error)) ([]T, error) {
	route := c.routing()
	var targets []slot[R, W]
	for _, s := range reg.snapshot() {
		if route.ShouldHandleQuery(s.name, reg.kind) {
			targets = append(targets, s)
		}
	}

	results := make([][]T, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range targets {
		g.Go(func() error {
			found, err := fetch(s.reader, gctx, q)
			if err != nil {
				return store.WrapError(store.KindFetchFailed, fmt.Sprintf("store %q", s.name), err)
			}
			results[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return slices.Concat(results...), nil
}

// fetchFirst returns the first match in attachment order.
func fetchFirst[T any](found []T, err error, kind models.Kind, id string) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if len(found) == 0 {
		return zero, store.NewError(store.KindFetchFailed, "no %s with id %q", kind, id)
	}
	return found[0], nil
}

// writeTo sends the whole batch to the first writable store that accepts
// every item. A batch no single store accepts is not written at all.
func writeTo[R, W any, T models.Versionable](ctx context.Context, c *Coordinator, reg *registry[R, W], op string, fail store.ErrorKind, items []T, write func(W, context.Context, []T) ([]T, error)) ([]T, error) {
	route := c.routing()
	for _, s := range reg.snapshot() {
		if !s.writable {
			continue
		}
		accepts := true
		for _, item := range items {
			if !route.ShouldHandleWriting(s.name, item) {
				accepts = false
				break
			}
		}
		if !accepts {
			continue
		}
		c.logger.Debug("routing write",
			slog.String("op", op),
			slog.String("kind", string(reg.kind)),
			slog.String("store", s.name),
			slog.Int("count", len(items)))
		return write(s.writer, ctx, items)
	}
	return nil, store.NewError(fail, "no %s store accepts all %d entities", reg.kind, len(items))
}

var _ store.WritableStore = (*Coordinator)(nil)
