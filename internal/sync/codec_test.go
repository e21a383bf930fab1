package sync

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/carestore/internal/crdt"
	"github.com/iudanet/carestore/internal/models"
	"github.com/iudanet/carestore/internal/schedule"
	"github.com/iudanet/carestore/pkg/api"
)

func TestEncodeRecord_Golden(t *testing.T) {
	updated := time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)
	record := models.RevisionRecord{
		KnowledgeVector: crdt.KnowledgeVector{
			uuid.MustParse("00000000-0000-0000-0000-000000000002"): 7,
			uuid.MustParse("00000000-0000-0000-0000-000000000001"): 3,
		},
		Entities: []models.Entity{models.Wrap(&models.Patient{
			Name: models.Name{GivenName: "Ada", FamilyName: "Lovelace"},
			Versioned: models.Versioned{
				ID:             "ada",
				EffectiveDate:  time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
				UpdatedDate:    &updated,
				LocalVersionID: uuid.MustParse("11111111-1111-1111-1111-111111111111"),
			},
		})},
	}

	wire, err := EncodeRecord(record)
	require.NoError(t, err)
	data, err := json.MarshalIndent(wire, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "revision_record", append(data, '\n'))
}

func TestCodec_RoundTripKeepsSchedules(t *testing.T) {
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	task := &models.Task{
		Title:    "walk",
		Schedule: schedule.DailyAtTime(8, 0, start, nil, "morning", schedule.Fixed(time.Hour), schedule.IntegerValue(5000)),
		Versioned: models.Versioned{
			ID:             "walk",
			EffectiveDate:  start,
			LocalVersionID: uuid.New(),
		},
	}
	clock := uuid.New()

	data, err := Marshal([]models.RevisionRecord{{
		KnowledgeVector: crdt.KnowledgeVector{clock: 4},
		Entities:        []models.Entity{models.Wrap(task)},
	}})
	require.NoError(t, err)

	decoded, err := Unmarshal(data)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, uint64(4), decoded[0].KnowledgeVector.Clock(clock))
	require.Len(t, decoded[0].Entities, 1)

	got, ok := decoded[0].Entities[0].Value.(*models.Task)
	require.True(t, ok)
	assert.Equal(t, task.LocalVersionID, got.LocalVersionID)
	want := task.Schedule.Events(start, start.AddDate(0, 0, 3))
	have := got.Schedule.Events(start, start.AddDate(0, 0, 3))
	require.Len(t, have, len(want))
	for i := range want {
		assert.True(t, want[i].Start.Equal(have[i].Start))
		assert.Equal(t, want[i].OccurrenceIndex, have[i].OccurrenceIndex)
		assert.Equal(t, want[i].Element.TargetValues, have[i].Element.TargetValues)
	}
}

func TestDecodeRecord_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		record api.RevisionRecord
	}{
		{
			name: "bad process id",
			record: api.RevisionRecord{KnowledgeVector: api.KnowledgeVector{
				Processes: []api.Process{{ID: "not-a-uuid", Clock: 1}},
			}},
		},
		{
			name: "conflicting clocks",
			record: api.RevisionRecord{KnowledgeVector: api.KnowledgeVector{
				Processes: []api.Process{
					{ID: "00000000-0000-0000-0000-000000000001", Clock: 1},
					{ID: "00000000-0000-0000-0000-000000000001", Clock: 2},
				},
			}},
		},
		{
			name:   "unknown type",
			record: api.RevisionRecord{Entities: []api.Entity{{Type: "medication", Object: json.RawMessage(`{}`)}}},
		},
		{
			name:   "broken object",
			record: api.RevisionRecord{Entities: []api.Entity{{Type: "task", Object: json.RawMessage(`{"id": 5}`)}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRecord(tt.record)
			assert.Error(t, err)
		})
	}
}

func TestEncodeVector_SortsProcesses(t *testing.T) {
	v := crdt.NewKnowledgeVector()
	for range 5 {
		v.Increment(uuid.New())
	}
	wire := EncodeVector(v)
	require.Len(t, wire.Processes, 5)
	for i := 1; i < len(wire.Processes); i++ {
		assert.Less(t, wire.Processes[i-1].ID, wire.Processes[i].ID)
	}
}
