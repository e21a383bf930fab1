package crdt

import "time"

// Stamp упорядочивает конкурирующие записи одного регистра (Last-Write-Wins).
// Сначала сравнивается время, при равенстве - Tiebreak.
type Stamp struct {
	Timestamp time.Time
	Tiebreak  string
}

// After проверяет, новее ли s чем other.
func (s Stamp) After(other Stamp) bool {
	if !s.Timestamp.Equal(other.Timestamp) {
		return s.Timestamp.After(other.Timestamp)
	}
	return s.Tiebreak > other.Tiebreak
}

// Winner returns the index of the newest item, -1 for an empty slice.
// The result does not depend on the order of items.
func Winner[T any](items []T, stamp func(T) Stamp) int {
	best := -1
	var bestStamp Stamp
	for i, item := range items {
		s := stamp(item)
		if best == -1 || s.After(bestStamp) {
			best, bestStamp = i, s
		}
	}
	return best
}
