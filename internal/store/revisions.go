package store

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/carestore/internal/crdt"
	"github.com/iudanet/carestore/internal/models"
	"github.com/iudanet/carestore/internal/validation"
)

// mergeNamespace seeds the ids of versions created by conflict resolution,
// so every peer derives the same id for the same set of tips.
var mergeNamespace = uuid.MustParse("6f1c1b8e-2f7a-4d8e-9a51-0c8a4e7d3b21")

// MergeResult summarizes one MergeRevisions call.
type MergeResult struct {
	Inserted  int
	Updated   int
	Skipped   int
	Conflicts int
}

// Changed reports whether the merge modified the store.
func (r MergeResult) Changed() bool {
	return r.Inserted+r.Updated+r.Conflicts > 0
}

// ClockID returns the id of this store's component in knowledge vectors.
func (s *Store) ClockID() uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clock.ID()
}

// KnowledgeVector returns a copy of what this store knows.
func (s *Store) KnowledgeVector() crdt.KnowledgeVector {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clock.Vector()
}

// Revisions returns every version written or learned after since, in batches
// of SyncBatchSize. At least one record is returned so the receiver always
// learns the sender's vector. The local clock advances afterwards: writes
// made from now on are unknown to whoever receives these records.
func (s *Store) Revisions(ctx context.Context, since crdt.KnowledgeVector) ([]models.RevisionRecord, error) {
	var records []models.RevisionRecord
	_, err := s.write(ctx, "revisions", KindFetchFailed, func(t *tx) error {
		vector := t.clock.Vector()

		var pending []models.Versionable
		for _, kind := range models.Kinds {
			var batch []models.Versionable
			for _, r := range t.all(kind) {
				if since.Knows(r.stamp) {
					continue
				}
				v := r.value.Clone()
				v.Header().NextVersionIDs = nil
				batch = append(batch, v)
			}
			slices.SortStableFunc(batch, func(a, b models.Versionable) int {
				ha, hb := a.Header(), b.Header()
				if c := ha.EffectiveDate.Compare(hb.EffectiveDate); c != 0 {
					return c
				}
				if c := strings.Compare(ha.ID, hb.ID); c != 0 {
					return c
				}
				return strings.Compare(ha.LocalVersionID.String(), hb.LocalVersionID.String())
			})
			pending = append(pending, batch...)
		}

		for start := 0; start < len(pending) || start == 0; start += s.cfg.SyncBatchSize {
			end := min(start+s.cfg.SyncBatchSize, len(pending))
			rec := models.RevisionRecord{KnowledgeVector: vector.Clone(), Entities: []models.Entity{}}
			for _, v := range pending[start:end] {
				rec.Entities = append(rec.Entities, models.Wrap(v))
			}
			records = append(records, rec)
		}

		t.clock.Tick()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// MergeRevisions applies records received from a peer in one transaction.
// Records already covered by the local vector are skipped. Copies of a
// version that already exists are merged last-writer-wins, keeping the
// earliest deletion. Identifiers left with several tips are resolved by
// appending a deterministic merge version.
func (s *Store) MergeRevisions(ctx context.Context, records []models.RevisionRecord) (MergeResult, error) {
	var result MergeResult
	_, err := s.write(ctx, "merge_revisions", KindRemoteSyncFailed, func(t *tx) error {
		result = MergeResult{}
		known := t.clock.Vector()
		touched := make(map[models.Kind]map[string]bool)

		for _, rec := range records {
			if known.Knows(rec.KnowledgeVector) {
				result.Skipped += len(rec.Entities)
				continue
			}
			for _, e := range rec.Entities {
				kind, id, changed, err := s.mergeEntity(t, e, rec.KnowledgeVector)
				if err != nil {
					return err
				}
				switch changed {
				case OpAdd:
					result.Inserted++
				case OpUpdate:
					result.Updated++
				default:
					result.Skipped++
				}
				if touched[kind] == nil {
					touched[kind] = make(map[string]bool)
				}
				touched[kind][id] = true
			}
			t.clock.Observe(rec.KnowledgeVector)
		}

		for _, kind := range models.Kinds {
			ids := make([]string, 0, len(touched[kind]))
			for id := range touched[kind] {
				ids = append(ids, id)
			}
			slices.Sort(ids)
			for _, id := range ids {
				n, err := s.resolveConflicts(t, kind, id)
				if err != nil {
					return err
				}
				result.Conflicts += n
			}
		}

		if result.Changed() {
			t.clock.Tick()
		}
		return nil
	})
	if err != nil {
		return MergeResult{}, err
	}

	s.logger.Debug("revisions merged",
		slog.Int("inserted", result.Inserted),
		slog.Int("updated", result.Updated),
		slog.Int("skipped", result.Skipped),
		slog.Int("conflicts", result.Conflicts))
	return result, nil
}

// mergeEntity stages one incoming version. The returned op is empty when the
// local copy already reflects it.
func (s *Store) mergeEntity(t *tx, e models.Entity, vector crdt.KnowledgeVector) (models.Kind, string, ChangeOp, error) {
	if e.Value == nil {
		return "", "", "", NewError(KindInvalidValue, "revision contains an empty entity")
	}
	v := e.Value.Clone()
	h := v.Header()
	h.NextVersionIDs = nil
	if err := validation.ValidateIdentifier(h.ID); err != nil {
		return "", "", "", WrapError(KindInvalidValue, "invalid identifier in revision", err)
	}
	if h.LocalVersionID == uuid.Nil {
		return "", "", "", NewError(KindInvalidValue, "%s %q in revision has no uuid", v.Kind(), h.ID)
	}
	if err := validateContent(v); err != nil {
		return "", "", "", err
	}

	existing := t.get(h.LocalVersionID)
	if existing == nil {
		t.put(OpAdd, &record{value: v, stamp: vector.Clone()})
		return v.Kind(), h.ID, OpAdd, nil
	}
	if existing.value.Kind() != v.Kind() {
		return "", "", "", NewError(KindInvalidValue, "uuid %s is a %s locally but a %s in revision",
			h.LocalVersionID, existing.value.Kind(), v.Kind())
	}
	if existing.header().ID != h.ID {
		return "", "", "", NewError(KindInvalidValue, "uuid %s is %s %q locally but %q in revision",
			h.LocalVersionID, v.Kind(), existing.header().ID, h.ID)
	}

	merged, changed := mergeCopies(existing.value, v)
	if !changed {
		return v.Kind(), h.ID, "", nil
	}
	stamp := existing.stamp.Clone()
	stamp.Merge(vector)
	t.put(OpUpdate, &record{value: merged, stamp: stamp})
	return v.Kind(), h.ID, OpUpdate, nil
}

// canonical encodes a version without derived links for comparison.
func canonical(v models.Versionable) []byte {
	c := v.Clone()
	c.Header().NextVersionIDs = nil
	data, err := json.Marshal(c)
	if err != nil {
		return nil
	}
	return data
}

// mergeCopies merges two copies of the same version. The newer copy wins,
// ties are broken by content; the earliest deletion date is kept.
func mergeCopies(local, remote models.Versionable) (models.Versionable, bool) {
	localData, remoteData := canonical(local), canonical(remote)
	copies := []models.Versionable{local, remote}
	contents := [][]byte{localData, remoteData}
	i := crdt.Winner([]int{0, 1}, func(i int) crdt.Stamp {
		return crdt.Stamp{
			Timestamp: timeOf(copies[i].Header().UpdatedDate),
			Tiebreak:  string(contents[i]),
		}
	})

	merged := copies[i].Clone()
	mh := merged.Header()
	mh.NextVersionIDs = nil
	mh.DeletedDate = earliest(local.Header().DeletedDate, remote.Header().DeletedDate)

	return merged, !bytes.Equal(canonical(merged), localData)
}

func earliest(a, b *time.Time) *time.Time {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		return timePtr(*b)
	case b == nil || a.Before(*b):
		return timePtr(*a)
	default:
		return timePtr(*b)
	}
}

// resolveConflicts restores a single tip for identifier and returns the
// number of conflicts resolved.
func (s *Store) resolveConflicts(t *tx, kind models.Kind, identifier string) (int, error) {
	if !kind.Versioned() {
		return s.resolveOutcomeConflicts(t, identifier), nil
	}

	ts := tips(t, kind, identifier)
	if len(ts) < 2 {
		return 0, nil
	}

	ids := make([]uuid.UUID, 0, len(ts))
	var (
		effective time.Time
		updated   time.Time
	)
	for _, r := range ts {
		h := r.header()
		ids = append(ids, h.LocalVersionID)
		if h.EffectiveDate.After(effective) {
			effective = h.EffectiveDate
		}
		if u := timeOf(h.UpdatedDate); u.After(updated) {
			updated = u
		}
	}
	models.SortIDs(ids)

	var seed []byte
	for _, id := range ids {
		seed = append(seed, id[:]...)
	}
	mergeID := uuid.NewSHA1(mergeNamespace, seed)
	if t.get(mergeID) != nil {
		return 0, NewError(KindRemoteSyncFailed, "merge version %s for %s %q already exists", mergeID, kind, identifier)
	}

	keeper := ts[crdt.Winner(ts, func(r *record) crdt.Stamp { return r.header().Stamp() })]
	merged := keeper.value.Clone()
	h := merged.Header()
	h.LocalVersionID = mergeID
	h.PreviousVersionIDs = ids
	h.NextVersionIDs = nil
	h.EffectiveDate = effective
	h.CreatedDate = timePtr(updated)
	h.UpdatedDate = timePtr(updated)

	t.put(OpUpdate, &record{value: merged, stamp: t.clock.Stamp()})
	s.metrics.AddConflicts(s.cfg.Name, string(kind), 1)
	s.logger.Warn("version conflict resolved",
		slog.String("kind", string(kind)),
		slog.String("id", identifier),
		slog.Int("tips", len(ts)),
		slog.String("keeper", keeper.header().LocalVersionID.String()))
	return 1, nil
}

// resolveOutcomeConflicts keeps the newest live outcome row of identifier
// and soft-deletes the others.
func (s *Store) resolveOutcomeConflicts(t *tx, identifier string) int {
	var live []*record
	for _, r := range t.versionsOf(models.KindOutcome, identifier) {
		if !r.header().IsDeleted() {
			live = append(live, r)
		}
	}
	if len(live) < 2 {
		return 0
	}

	var updated time.Time
	for _, r := range live {
		if u := timeOf(r.header().UpdatedDate); u.After(updated) {
			updated = u
		}
	}
	winner := crdt.Winner(live, func(r *record) crdt.Stamp { return r.header().Stamp() })
	for i, r := range live {
		if i == winner {
			continue
		}
		loser := r.value.Clone()
		h := loser.Header()
		h.DeletedDate = timePtr(updated)
		h.UpdatedDate = timePtr(updated)
		t.put(OpDelete, &record{value: loser, stamp: t.clock.Stamp()})
	}

	s.metrics.AddConflicts(s.cfg.Name, string(models.KindOutcome), 1)
	s.logger.Warn("duplicate outcomes resolved",
		slog.String("id", identifier),
		slog.Int("rows", len(live)))
	return 1
}
