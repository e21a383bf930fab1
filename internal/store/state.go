package store

import (
	"slices"

	"github.com/google/uuid"

	"github.com/iudanet/carestore/internal/crdt"
	"github.com/iudanet/carestore/internal/models"
)

// record is one stored version plus the knowledge stamp it was written under.
type record struct {
	value models.Versionable
	stamp crdt.KnowledgeVector
}

func (r *record) header() *models.Versioned { return r.value.Header() }

func (r *record) clone() *record {
	return &record{value: r.value.Clone(), stamp: r.stamp.Clone()}
}

// state is the version arena. Versions reference each other only by uuid;
// next links are derived from previous links.
type state struct {
	versions map[uuid.UUID]*record
	byID     map[models.Kind]map[string][]uuid.UUID
	byKind   map[models.Kind][]uuid.UUID
	children map[uuid.UUID][]uuid.UUID // parent -> children, parent may be absent
	clock    *crdt.Clock
}

func newState(clock *crdt.Clock) *state {
	return &state{
		versions: make(map[uuid.UUID]*record),
		byID:     make(map[models.Kind]map[string][]uuid.UUID),
		byKind:   make(map[models.Kind][]uuid.UUID),
		children: make(map[uuid.UUID][]uuid.UUID),
		clock:    clock,
	}
}

// put inserts or replaces a record and maintains the link indexes.
func (s *state) put(r *record) {
	h := r.header()
	id := h.LocalVersionID
	kind := r.value.Kind()

	if old, ok := s.versions[id]; ok {
		// замена на месте: ссылки на предыдущие версии не меняются
		h.NextVersionIDs = old.header().NextVersionIDs
		s.versions[id] = r
		return
	}

	s.versions[id] = r
	s.byKind[kind] = append(s.byKind[kind], id)
	if s.byID[kind] == nil {
		s.byID[kind] = make(map[string][]uuid.UUID)
	}
	s.byID[kind][h.ID] = append(s.byID[kind][h.ID], id)

	h.NextVersionIDs = slices.Clone(s.children[id])
	for _, parent := range h.PreviousVersionIDs {
		if slices.Contains(s.children[parent], id) {
			continue
		}
		s.children[parent] = append(s.children[parent], id)
		models.SortIDs(s.children[parent])
		if p, ok := s.versions[parent]; ok {
			p.header().NextVersionIDs = slices.Clone(s.children[parent])
		}
	}
}

// view is the read surface shared by committed state and open transactions.
type view interface {
	get(id uuid.UUID) *record
	versionsOf(kind models.Kind, identifier string) []*record
	all(kind models.Kind) []*record
	next(id uuid.UUID) []uuid.UUID
}

func (s *state) get(id uuid.UUID) *record { return s.versions[id] }

func (s *state) versionsOf(kind models.Kind, identifier string) []*record {
	ids := s.byID[kind][identifier]
	out := make([]*record, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.versions[id])
	}
	return out
}

func (s *state) all(kind models.Kind) []*record {
	ids := s.byKind[kind]
	out := make([]*record, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.versions[id])
	}
	return out
}

func (s *state) next(id uuid.UUID) []uuid.UUID { return s.children[id] }

// tx is a write overlay over committed state. Writers are serialized, so the
// base state does not change while a tx is open.
type tx struct {
	base     *state
	puts     map[uuid.UUID]*record
	order    []uuid.UUID
	children map[uuid.UUID][]uuid.UUID
	clock    *crdt.Clock
	changes  []change
}

type change struct {
	op   ChangeOp
	kind models.Kind
	id   uuid.UUID
}

func newTx(base *state) *tx {
	return &tx{
		base:     base,
		puts:     make(map[uuid.UUID]*record),
		children: make(map[uuid.UUID][]uuid.UUID),
		clock:    crdt.RestoreClock(base.clock.ID(), base.clock.Vector()),
	}
}

func (t *tx) get(id uuid.UUID) *record {
	if r, ok := t.puts[id]; ok {
		return r
	}
	return t.base.get(id)
}

func (t *tx) versionsOf(kind models.Kind, identifier string) []*record {
	out := t.base.versionsOf(kind, identifier)
	for i, r := range out {
		if p, ok := t.puts[r.header().LocalVersionID]; ok {
			out[i] = p
		}
	}
	for _, id := range t.order {
		r := t.puts[id]
		if r.value.Kind() == kind && r.header().ID == identifier && t.base.get(id) == nil {
			out = append(out, r)
		}
	}
	return out
}

func (t *tx) all(kind models.Kind) []*record {
	out := t.base.all(kind)
	for i, r := range out {
		if p, ok := t.puts[r.header().LocalVersionID]; ok {
			out[i] = p
		}
	}
	for _, id := range t.order {
		r := t.puts[id]
		if r.value.Kind() == kind && t.base.get(id) == nil {
			out = append(out, r)
		}
	}
	return out
}

func (t *tx) next(id uuid.UUID) []uuid.UUID {
	extra := t.children[id]
	if len(extra) == 0 {
		return t.base.next(id)
	}
	out := slices.Clone(t.base.next(id))
	for _, c := range extra {
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	models.SortIDs(out)
	return out
}

// put stages a new or replaced record.
func (t *tx) put(op ChangeOp, r *record) {
	id := r.header().LocalVersionID
	if _, staged := t.puts[id]; !staged {
		t.order = append(t.order, id)
	}
	if t.base.get(id) == nil && t.puts[id] == nil {
		for _, parent := range r.header().PreviousVersionIDs {
			t.children[parent] = append(t.children[parent], id)
		}
	}
	t.puts[id] = r
	t.changes = append(t.changes, change{op: op, kind: r.value.Kind(), id: id})
}

func (t *tx) empty() bool { return len(t.puts) == 0 }

// apply commits the overlay into the base state.
func (t *tx) apply() {
	for _, id := range t.order {
		t.base.put(t.puts[id])
	}
	t.base.clock = t.clock
}

// isTip reports whether no version succeeds r.
func isTip(v view, r *record) bool {
	return len(v.next(r.header().LocalVersionID)) == 0
}

// tips returns the versions of identifier that have no successor.
func tips(v view, kind models.Kind, identifier string) []*record {
	var out []*record
	for _, r := range v.versionsOf(kind, identifier) {
		if isTip(v, r) {
			out = append(out, r)
		}
	}
	return out
}

// current returns the live version of identifier, nil if there is none.
// Unversioned kinds have no chain, any non-deleted row is live.
func current(v view, kind models.Kind, identifier string) *record {
	for _, r := range v.versionsOf(kind, identifier) {
		if r.header().IsDeleted() {
			continue
		}
		if !kind.Versioned() || isTip(v, r) {
			return r
		}
	}
	return nil
}

// collectChanges groups the staged changes by operation and kind, keeping
// the order of first appearance. Must run after apply, under the store lock.
func (t *tx) collectChanges(store string) []Change {
	type group struct {
		op   ChangeOp
		kind models.Kind
	}
	var (
		order   []group
		batches = make(map[group][]models.Entity)
		seen    = make(map[change]bool)
	)
	for _, c := range t.changes {
		if seen[c] {
			continue
		}
		seen[c] = true
		g := group{op: c.op, kind: c.kind}
		if _, ok := batches[g]; !ok {
			order = append(order, g)
		}
		batches[g] = append(batches[g], models.Wrap(t.puts[c.id].value.Clone()))
	}
	out := make([]Change, 0, len(order))
	for _, g := range order {
		out = append(out, Change{Store: store, Op: g.op, Kind: g.kind, Entities: batches[g]})
	}
	return out
}
