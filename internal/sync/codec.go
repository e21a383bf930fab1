package sync

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/iudanet/carestore/internal/crdt"
	"github.com/iudanet/carestore/internal/models"
	"github.com/iudanet/carestore/pkg/api"
)

// EncodeVector converts a knowledge vector to its wire form with processes
// ordered by id.
func EncodeVector(v crdt.KnowledgeVector) api.KnowledgeVector {
	out := api.KnowledgeVector{Processes: make([]api.Process, 0, len(v))}
	for id, clock := range v {
		out.Processes = append(out.Processes, api.Process{ID: id.String(), Clock: clock})
	}
	slices.SortFunc(out.Processes, func(a, b api.Process) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// DecodeVector parses the wire form of a knowledge vector.
func DecodeVector(v api.KnowledgeVector) (crdt.KnowledgeVector, error) {
	out := crdt.NewKnowledgeVector()
	for _, p := range v.Processes {
		id, err := uuid.Parse(p.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid process id %q: %w", p.ID, err)
		}
		if clock, ok := out[id]; ok && clock != p.Clock {
			return nil, fmt.Errorf("process %s listed twice", id)
		}
		out[id] = p.Clock
	}
	return out, nil
}

// EncodeRecord converts a revision record to its wire form.
func EncodeRecord(r models.RevisionRecord) (api.RevisionRecord, error) {
	out := api.RevisionRecord{
		Entities:        make([]api.Entity, 0, len(r.Entities)),
		KnowledgeVector: EncodeVector(r.KnowledgeVector),
	}
	for _, e := range r.Entities {
		if e.Value == nil {
			return api.RevisionRecord{}, fmt.Errorf("record contains an empty entity")
		}
		obj, err := json.Marshal(e.Value)
		if err != nil {
			return api.RevisionRecord{}, fmt.Errorf("failed to marshal %s %q: %w", e.Kind(), e.Header().ID, err)
		}
		out.Entities = append(out.Entities, api.Entity{Type: string(e.Kind()), Object: obj})
	}
	return out, nil
}

// DecodeRecord parses the wire form of a revision record.
func DecodeRecord(r api.RevisionRecord) (models.RevisionRecord, error) {
	vector, err := DecodeVector(r.KnowledgeVector)
	if err != nil {
		return models.RevisionRecord{}, err
	}
	out := models.RevisionRecord{
		KnowledgeVector: vector,
		Entities:        make([]models.Entity, 0, len(r.Entities)),
	}
	for i, e := range r.Entities {
		v, err := models.New(models.Kind(e.Type))
		if err != nil {
			return models.RevisionRecord{}, fmt.Errorf("entity %d: %w", i, err)
		}
		if err := json.Unmarshal(e.Object, v); err != nil {
			return models.RevisionRecord{}, fmt.Errorf("failed to unmarshal %s: %w", e.Type, err)
		}
		out.Entities = append(out.Entities, models.Wrap(v))
	}
	return out, nil
}

// Marshal encodes records as a JSON array of wire records.
func Marshal(records []models.RevisionRecord) ([]byte, error) {
	wire := make([]api.RevisionRecord, 0, len(records))
	for _, r := range records {
		w, err := EncodeRecord(r)
		if err != nil {
			return nil, err
		}
		wire = append(wire, w)
	}
	return json.Marshal(wire)
}

// Unmarshal decodes the output of Marshal.
func Unmarshal(data []byte) ([]models.RevisionRecord, error) {
	var wire []api.RevisionRecord
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("failed to unmarshal revision records: %w", err)
	}
	out := make([]models.RevisionRecord, 0, len(wire))
	for _, w := range wire {
		r, err := DecodeRecord(w)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
