package core

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"funcfleet/internal/types"
)

// SelectMode picks how a sweep orders its candidate topics before taking
// the head of the list.
type SelectMode string

const (
	SelectModeStartTime    SelectMode = "start_time"
	SelectModeUpdTime      SelectMode = "upd_time"
	SelectModeFolderWeight SelectMode = "folder_weight"
	SelectModeChecksMade   SelectMode = "checks_made"
	SelectModeRandom       SelectMode = "random"
)

// DefaultSweepPercent is the share of candidates one sweep re-checks.
const DefaultSweepPercent = 20

// VisibilityBatchLimit caps how many topics one visibility sweep probes.
const VisibilityBatchLimit = 100

var selectModeWeights = []struct {
	mode   SelectMode
	weight int
}{
	{SelectModeStartTime, 20},
	{SelectModeUpdTime, 20},
	{SelectModeFolderWeight, 20},
	{SelectModeChecksMade, 20},
	{SelectModeRandom, 20},
}

type MonitorSelector struct {
	rand *rand.Rand
}

func NewMonitorSelector(rng *rand.Rand) MonitorSelector {
	return MonitorSelector{rand: rng}
}

func ParseSelectMode(value string) (SelectMode, error) {
	switch SelectMode(value) {
	case SelectModeStartTime, SelectModeUpdTime, SelectModeFolderWeight, SelectModeChecksMade, SelectModeRandom:
		return SelectMode(value), nil
	default:
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unknown sweep mode: %s", value))
	}
}

// PickMode draws one sweep mode from the weighted table.
func (s MonitorSelector) PickMode() SelectMode {
	total := 0
	for _, entry := range selectModeWeights {
		total += entry.weight
	}
	roll := s.rand.Intn(total)
	for _, entry := range selectModeWeights {
		if roll < entry.weight {
			return entry.mode
		}
		roll -= entry.weight
	}
	return SelectModeRandom
}

// Select orders the candidates for the given mode and returns the head
// share of the list. percent covers the 1..100 range and a sweep always
// takes at least one candidate when any exist.
func (s MonitorSelector) Select(candidates []types.SearchCandidate, mode SelectMode, percent int) []types.SearchCandidate {
	if len(candidates) == 0 {
		return nil
	}
	if percent <= 0 || percent > 100 {
		percent = DefaultSweepPercent
	}

	ordered := append([]types.SearchCandidate{}, candidates...)
	switch mode {
	case SelectModeStartTime:
		sort.SliceStable(ordered, func(i, j int) bool {
			if !ordered[i].StartTime.Equal(ordered[j].StartTime) {
				return ordered[i].StartTime.Before(ordered[j].StartTime)
			}
			return ordered[i].TopicID < ordered[j].TopicID
		})
	case SelectModeUpdTime:
		sort.SliceStable(ordered, func(i, j int) bool {
			if !ordered[i].LastChecked.Equal(ordered[j].LastChecked) {
				return ordered[i].LastChecked.Before(ordered[j].LastChecked)
			}
			return ordered[i].TopicID < ordered[j].TopicID
		})
	case SelectModeFolderWeight:
		sort.SliceStable(ordered, func(i, j int) bool {
			if ordered[i].FolderWeight != ordered[j].FolderWeight {
				return ordered[i].FolderWeight > ordered[j].FolderWeight
			}
			return ordered[i].TopicID < ordered[j].TopicID
		})
	case SelectModeChecksMade:
		sort.SliceStable(ordered, func(i, j int) bool {
			if ordered[i].ChecksMade != ordered[j].ChecksMade {
				return ordered[i].ChecksMade < ordered[j].ChecksMade
			}
			return ordered[i].TopicID < ordered[j].TopicID
		})
	default:
		s.rand.Shuffle(len(ordered), func(i, j int) {
			ordered[i], ordered[j] = ordered[j], ordered[i]
		})
	}

	take := len(ordered) * percent / 100
	if take < 1 {
		take = 1
	}
	return ordered[:take]
}

// VisibilityBatch returns the stalest candidates for a visibility probe,
// never more than the batch limit.
func VisibilityBatch(candidates []types.SearchCandidate, limit int) []types.SearchCandidate {
	if limit <= 0 || limit > VisibilityBatchLimit {
		limit = VisibilityBatchLimit
	}
	ordered := append([]types.SearchCandidate{}, candidates...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].LastChecked.Equal(ordered[j].LastChecked) {
			return ordered[i].LastChecked.Before(ordered[j].LastChecked)
		}
		return ordered[i].TopicID < ordered[j].TopicID
	})
	if len(ordered) > limit {
		ordered = ordered[:limit]
	}
	return ordered
}
