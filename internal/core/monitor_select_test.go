package core

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"funcfleet/internal/types"
)

func sweepCandidates() []types.SearchCandidate {
	base := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	return []types.SearchCandidate{
		{TopicID: 1, FolderWeight: 5, StartTime: base.Add(48 * time.Hour), LastChecked: base.Add(3 * time.Hour), ChecksMade: 9},
		{TopicID: 2, FolderWeight: 1, StartTime: base, LastChecked: base.Add(1 * time.Hour), ChecksMade: 2},
		{TopicID: 3, FolderWeight: 3, StartTime: base.Add(24 * time.Hour), LastChecked: base.Add(2 * time.Hour), ChecksMade: 5},
		{TopicID: 4, FolderWeight: 3, StartTime: base.Add(12 * time.Hour), LastChecked: base, ChecksMade: 7},
	}
}

func TestParseSelectMode(t *testing.T) {
	mode, err := ParseSelectMode("start_time")
	require.NoError(t, err)
	assert.Equal(t, SelectModeStartTime, mode)

	_, err = ParseSelectMode("whatever")
	require.Error(t, err)
}

func TestPickModeDrawsFromTable(t *testing.T) {
	selector := NewMonitorSelector(rand.New(rand.NewSource(1)))
	valid := map[SelectMode]struct{}{
		SelectModeStartTime:    {},
		SelectModeUpdTime:      {},
		SelectModeFolderWeight: {},
		SelectModeChecksMade:   {},
		SelectModeRandom:       {},
	}
	for i := 0; i < 50; i++ {
		_, ok := valid[selector.PickMode()]
		assert.True(t, ok)
	}
}

func TestSelectStartTimeOldestFirst(t *testing.T) {
	selector := NewMonitorSelector(rand.New(rand.NewSource(1)))
	selected := selector.Select(sweepCandidates(), SelectModeStartTime, 50)
	require.Len(t, selected, 2)
	assert.Equal(t, 2, selected[0].TopicID)
	assert.Equal(t, 4, selected[1].TopicID)
}

func TestSelectUpdTimeStalestFirst(t *testing.T) {
	selector := NewMonitorSelector(rand.New(rand.NewSource(1)))
	selected := selector.Select(sweepCandidates(), SelectModeUpdTime, 25)
	require.Len(t, selected, 1)
	assert.Equal(t, 4, selected[0].TopicID)
}

func TestSelectFolderWeightHeaviestFirst(t *testing.T) {
	selector := NewMonitorSelector(rand.New(rand.NewSource(1)))
	selected := selector.Select(sweepCandidates(), SelectModeFolderWeight, 75)
	require.Len(t, selected, 3)
	assert.Equal(t, 1, selected[0].TopicID)
	// Equal weights break ties by topic id.
	assert.Equal(t, 3, selected[1].TopicID)
	assert.Equal(t, 4, selected[2].TopicID)
}

func TestSelectChecksMadeFewestFirst(t *testing.T) {
	selector := NewMonitorSelector(rand.New(rand.NewSource(1)))
	selected := selector.Select(sweepCandidates(), SelectModeChecksMade, 25)
	require.Len(t, selected, 1)
	assert.Equal(t, 2, selected[0].TopicID)
}

func TestSelectTakesAtLeastOne(t *testing.T) {
	selector := NewMonitorSelector(rand.New(rand.NewSource(1)))
	selected := selector.Select(sweepCandidates(), SelectModeStartTime, 1)
	assert.Len(t, selected, 1)
}

func TestSelectOutOfRangePercentFallsBack(t *testing.T) {
	selector := NewMonitorSelector(rand.New(rand.NewSource(1)))
	// 20% of 4 candidates floors to 0 and the minimum of one applies.
	assert.Len(t, selector.Select(sweepCandidates(), SelectModeStartTime, 500), 1)
}

func TestSelectEmpty(t *testing.T) {
	selector := NewMonitorSelector(rand.New(rand.NewSource(1)))
	assert.Nil(t, selector.Select(nil, SelectModeStartTime, 50))
}

func TestSelectDoesNotMutateInput(t *testing.T) {
	selector := NewMonitorSelector(rand.New(rand.NewSource(1)))
	candidates := sweepCandidates()
	selector.Select(candidates, SelectModeStartTime, 100)
	assert.Equal(t, 1, candidates[0].TopicID)
}

func TestVisibilityBatchOrdersByLastChecked(t *testing.T) {
	batch := VisibilityBatch(sweepCandidates(), 2)
	require.Len(t, batch, 2)
	assert.Equal(t, 4, batch[0].TopicID)
	assert.Equal(t, 2, batch[1].TopicID)
}

func TestVisibilityBatchDefaultLimit(t *testing.T) {
	batch := VisibilityBatch(sweepCandidates(), 0)
	assert.Len(t, batch, 4)
}
