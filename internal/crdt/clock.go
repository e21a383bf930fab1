package crdt

import (
	"sync"

	"github.com/google/uuid"
)

// Clock - векторные часы узла: собственный идентификатор плюс все, что
// узел знает о других узлах.
type Clock struct {
	vector KnowledgeVector // известное время всех узлов
	id     uuid.UUID       // идентификатор этого узла
	mu     sync.Mutex
}

// NewClock создает часы с новым случайным идентификатором узла.
// Собственная компонента начинается с 1.
func NewClock() *Clock {
	id := uuid.New()
	return &Clock{
		id:     id,
		vector: KnowledgeVector{id: 1},
	}
}

// RestoreClock восстанавливает часы после перезапуска.
func RestoreClock(id uuid.UUID, vector KnowledgeVector) *Clock {
	v := vector.Clone()
	if v.Clock(id) == 0 {
		v[id] = 1
	}
	return &Clock{id: id, vector: v}
}

// ID возвращает идентификатор узла.
func (c *Clock) ID() uuid.UUID {
	return c.id
}

// Time возвращает текущее значение собственной компоненты.
func (c *Clock) Time() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.vector.Clock(c.id)
}

// Tick увеличивает собственную компоненту.
// Записи, сделанные после Tick, неизвестны узлам, получившим вектор до него.
func (c *Clock) Tick() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.vector.Increment(c.id)
}

// Observe сливает удаленный вектор с локальным.
func (c *Clock) Observe(remote KnowledgeVector) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.vector.Merge(remote)
}

// Vector возвращает копию вектора.
func (c *Clock) Vector() KnowledgeVector {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.vector.Clone()
}

// Stamp returns the vector a local write made right now is tagged with.
func (c *Clock) Stamp() KnowledgeVector {
	c.mu.Lock()
	defer c.mu.Unlock()

	return KnowledgeVector{c.id: c.vector.Clock(c.id)}
}
