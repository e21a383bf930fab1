package crdt

import (
	"bytes"
	"slices"

	"github.com/google/uuid"
)

// KnowledgeVector хранит логические часы каждого известного узла.
// Узел увеличивает только собственную компоненту, чужие компоненты
// только поднимаются при слиянии.
type KnowledgeVector map[uuid.UUID]uint64

// NewKnowledgeVector создает пустой вектор.
func NewKnowledgeVector() KnowledgeVector {
	return make(KnowledgeVector)
}

// Clock возвращает время узла id, 0 если узел неизвестен.
func (v KnowledgeVector) Clock(id uuid.UUID) uint64 {
	return v[id]
}

// Increment увеличивает компоненту id на единицу и возвращает новое значение.
func (v KnowledgeVector) Increment(id uuid.UUID) uint64 {
	v[id]++
	return v[id]
}

// Merge поднимает каждую компоненту до максимума из двух векторов.
func (v KnowledgeVector) Merge(other KnowledgeVector) {
	for id, clock := range other {
		if clock > v[id] {
			v[id] = clock
		}
	}
}

// Dominates reports whether every component of other is covered by v.
func (v KnowledgeVector) Dominates(other KnowledgeVector) bool {
	for id, clock := range other {
		if v[id] < clock {
			return false
		}
	}
	return true
}

// Less reports whether v is strictly dominated by other.
func (v KnowledgeVector) Less(other KnowledgeVector) bool {
	return other.Dominates(v) && !v.Dominates(other)
}

// Knows reports whether a write stamped with stamp is already reflected in v.
// A node missing from v is never known, even at clock 0.
func (v KnowledgeVector) Knows(stamp KnowledgeVector) bool {
	for id, clock := range stamp {
		known, ok := v[id]
		if !ok || known < clock {
			return false
		}
	}
	return true
}

// Equal compares two vectors component-wise.
func (v KnowledgeVector) Equal(other KnowledgeVector) bool {
	return len(v) == len(other) && v.Dominates(other) && other.Dominates(v)
}

// Clone возвращает независимую копию.
func (v KnowledgeVector) Clone() KnowledgeVector {
	c := make(KnowledgeVector, len(v))
	for id, clock := range v {
		c[id] = clock
	}
	return c
}

// IDs returns the node ids in byte order.
func (v KnowledgeVector) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(v))
	for id := range v {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})
	return ids
}
