package crdt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStamp_After(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		a, b Stamp
		want bool
	}{
		{"newer timestamp", Stamp{t0.Add(time.Second), "a"}, Stamp{t0, "z"}, true},
		{"older timestamp", Stamp{t0, "z"}, Stamp{t0.Add(time.Second), "a"}, false},
		{"tiebreak wins", Stamp{t0, "b"}, Stamp{t0, "a"}, true},
		{"identical", Stamp{t0, "a"}, Stamp{t0, "a"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.After(tt.b))
		})
	}
}

func TestWinner_OrderIndependent(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	stamps := []Stamp{
		{t0, "b"},
		{t0.Add(time.Minute), "a"},
		{t0.Add(time.Minute), "c"},
	}
	identity := func(s Stamp) Stamp { return s }

	assert.Equal(t, 2, Winner(stamps, identity))

	reversed := []Stamp{stamps[2], stamps[1], stamps[0]}
	assert.Equal(t, 0, Winner(reversed, identity))
	assert.Equal(t, -1, Winner([]Stamp{}, identity))
}
