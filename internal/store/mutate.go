package store

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/carestore/internal/crdt"
	"github.com/iudanet/carestore/internal/models"
)

func opName(op ChangeOp, kind models.Kind) string {
	return string(op) + "_" + string(kind)
}

func timePtr(t time.Time) *time.Time { return &t }

// latestTip returns the most recently updated tip of identifier, deleted or not.
func latestTip(v view, kind models.Kind, identifier string) *record {
	ts := tips(v, kind, identifier)
	i := crdt.Winner(ts, func(r *record) crdt.Stamp { return r.header().Stamp() })
	if i < 0 {
		return nil
	}
	return ts[i]
}

// add inserts first versions. Re-adding a deleted identifier continues its
// chain from the deleted tip.
func (s *Store) add(ctx context.Context, kind models.Kind, values []models.Versionable) ([]models.Versionable, error) {
	var saved []models.Versionable
	_, err := s.write(ctx, opName(OpAdd, kind), KindAddFailed, func(t *tx) error {
		prepared, err := prepare(kind, values)
		if err != nil {
			return err
		}
		saved = make([]models.Versionable, 0, len(prepared))
		for _, v := range prepared {
			h := v.Header()
			if h.LocalVersionID != uuid.Nil && t.get(h.LocalVersionID) != nil {
				return NewError(KindAddFailed, "%s with uuid %s already exists", kind, h.LocalVersionID)
			}
			if current(t, kind, h.ID) != nil {
				return NewError(KindAddFailed, "%s %q already exists", kind, h.ID)
			}
			if err := validateContent(v); err != nil {
				return err
			}
			if err := s.checkRelationships(t, v); err != nil {
				return err
			}

			now := s.now()
			if h.LocalVersionID == uuid.Nil {
				h.LocalVersionID = uuid.New()
			}
			h.CreatedDate = timePtr(now)
			h.UpdatedDate = timePtr(now)
			h.DeletedDate = nil
			h.SchemaVersion = CurrentSchemaVersion
			if h.Timezone == "" {
				h.Timezone = s.cfg.Timezone
			}
			if h.EffectiveDate.IsZero() {
				h.EffectiveDate = now
			}
			h.NextVersionIDs = nil
			h.PreviousVersionIDs = nil
			if kind.Versioned() {
				if prev := latestTip(t, kind, h.ID); prev != nil {
					h.PreviousVersionIDs = []uuid.UUID{prev.header().LocalVersionID}
				}
			}

			t.put(OpAdd, &record{value: v, stamp: t.clock.Stamp()})
			saved = append(saved, v.Clone())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("entities added", slog.String("kind", string(kind)), slog.Int("count", len(saved)))
	return saved, nil
}

// update appends a new version per identifier, or overwrites the current
// row when the kind is unversioned or versioning is off.
func (s *Store) update(ctx context.Context, kind models.Kind, values []models.Versionable) ([]models.Versionable, error) {
	var saved []models.Versionable
	_, err := s.write(ctx, opName(OpUpdate, kind), KindUpdateFailed, func(t *tx) error {
		prepared, err := prepare(kind, values)
		if err != nil {
			return err
		}
		saved = make([]models.Versionable, 0, len(prepared))
		for _, v := range prepared {
			h := v.Header()
			cur := current(t, kind, h.ID)
			if cur == nil {
				return NewError(KindUpdateFailed, "%s %q has no current version", kind, h.ID)
			}
			if err := validateContent(v); err != nil {
				return err
			}
			if err := s.checkRelationships(t, v); err != nil {
				return err
			}

			now := s.now()
			ch := cur.header()
			h.UpdatedDate = timePtr(now)
			h.DeletedDate = nil
			h.NextVersionIDs = nil
			h.SchemaVersion = CurrentSchemaVersion
			if h.Timezone == "" {
				h.Timezone = s.cfg.Timezone
			}

			if s.cfg.Versioning && kind.Versioned() {
				if h.EffectiveDate.IsZero() {
					h.EffectiveDate = now
				}
				if task, ok := v.(*models.Task); ok {
					if err := confirmTaskUpdate(t, task); err != nil {
						return err
					}
				}
				h.LocalVersionID = uuid.New()
				h.PreviousVersionIDs = []uuid.UUID{ch.LocalVersionID}
				h.CreatedDate = timePtr(now)
			} else {
				if h.EffectiveDate.IsZero() {
					h.EffectiveDate = ch.EffectiveDate
				}
				h.LocalVersionID = ch.LocalVersionID
				h.PreviousVersionIDs = slices.Clone(ch.PreviousVersionIDs)
				h.CreatedDate = nil
				if ch.CreatedDate != nil {
					h.CreatedDate = timePtr(*ch.CreatedDate)
				}
			}

			t.put(OpUpdate, &record{value: v, stamp: t.clock.Stamp()})
			saved = append(saved, v.Clone())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("entities updated", slog.String("kind", string(kind)), slog.Int("count", len(saved)))
	return saved, nil
}

// remove marks the current version of each identifier deleted. Only the
// identifier and the optional DeletedDate of the input are used.
func (s *Store) remove(ctx context.Context, kind models.Kind, values []models.Versionable) ([]models.Versionable, error) {
	var saved []models.Versionable
	_, err := s.write(ctx, opName(OpDelete, kind), KindDeleteFailed, func(t *tx) error {
		prepared, err := prepare(kind, values)
		if err != nil {
			return err
		}
		saved = make([]models.Versionable, 0, len(prepared))
		for _, v := range prepared {
			h := v.Header()
			cur := current(t, kind, h.ID)
			if cur == nil {
				return NewError(KindDeleteFailed, "%s %q has no current version", kind, h.ID)
			}

			now := s.now()
			deleted := cur.value.Clone()
			dh := deleted.Header()
			dh.DeletedDate = timePtr(now)
			if h.DeletedDate != nil {
				dh.DeletedDate = timePtr(*h.DeletedDate)
			}
			dh.UpdatedDate = timePtr(now)

			t.put(OpDelete, &record{value: deleted, stamp: t.clock.Stamp()})
			saved = append(saved, deleted.Clone())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("entities deleted", slog.String("kind", string(kind)), slog.Int("count", len(saved)))
	return saved, nil
}
