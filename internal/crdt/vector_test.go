package crdt

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestKnowledgeVector_Merge(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	tests := []struct {
		name     string
		local    KnowledgeVector
		remote   KnowledgeVector
		expected KnowledgeVector
	}{
		{
			name:     "takes max per component",
			local:    KnowledgeVector{a: 3, b: 1},
			remote:   KnowledgeVector{a: 2, b: 5},
			expected: KnowledgeVector{a: 3, b: 5},
		},
		{
			name:     "learns unknown nodes",
			local:    KnowledgeVector{a: 1},
			remote:   KnowledgeVector{c: 7},
			expected: KnowledgeVector{a: 1, c: 7},
		},
		{
			name:     "empty remote is a no-op",
			local:    KnowledgeVector{a: 1},
			remote:   KnowledgeVector{},
			expected: KnowledgeVector{a: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.local.Merge(tt.remote)
			assert.True(t, tt.expected.Equal(tt.local), "got %v", tt.local)
		})
	}
}

func TestKnowledgeVector_MergeIsIdempotentAndCommutative(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	x := KnowledgeVector{a: 4, b: 1}
	y := KnowledgeVector{a: 2, b: 9}

	xy := x.Clone()
	xy.Merge(y)
	yx := y.Clone()
	yx.Merge(x)
	assert.True(t, xy.Equal(yx))

	again := xy.Clone()
	again.Merge(y)
	assert.True(t, again.Equal(xy))
}

func TestKnowledgeVector_Dominance(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	small := KnowledgeVector{a: 1}
	big := KnowledgeVector{a: 2, b: 1}
	concurrent := KnowledgeVector{a: 1, b: 2}

	assert.True(t, big.Dominates(small))
	assert.False(t, small.Dominates(big))
	assert.True(t, small.Less(big))
	assert.False(t, big.Less(big))
	assert.False(t, big.Dominates(concurrent))
	assert.False(t, concurrent.Dominates(big))
	assert.True(t, big.Dominates(KnowledgeVector{}))
}

func TestKnowledgeVector_Knows(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	v := KnowledgeVector{a: 3}

	assert.True(t, v.Knows(KnowledgeVector{a: 3}))
	assert.True(t, v.Knows(KnowledgeVector{a: 1}))
	assert.False(t, v.Knows(KnowledgeVector{a: 4}))
	assert.False(t, v.Knows(KnowledgeVector{b: 0}), "unknown node is never known")
}

func TestKnowledgeVector_IDsSorted(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	b := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	v := KnowledgeVector{a: 1, b: 1}

	assert.Equal(t, []uuid.UUID{b, a}, v.IDs())
}
