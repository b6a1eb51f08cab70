// Package timefilter reclassifies previously built flows against a time
// interval.
package timefilter

import (
	"fmt"

	"s1apflow/internal/core/model"
	"s1apflow/internal/flowset"
)

// Mode selects the interval-matching policy.
type Mode string

const (
	// ModeContained keeps flows lying entirely inside the interval.
	ModeContained Mode = "contained"
	// ModeOverlap keeps flows intersecting the interval.
	ModeOverlap Mode = "overlap"
)

// ParseMode validates a user-supplied mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeContained, ModeOverlap:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown filter mode '%s' (want contained or overlap)", s)
	}
}

// Backfill fills missing start/end times from a frame→timestamp map, e.g.
// one extracted from the capture after the flow set was built.
func Backfill(flows []*model.Flow, times map[int]float64) {
	flowset.FillTimes(flows, times)
}

// NeedBackfill reports whether any flow is missing a start or end time.
func NeedBackfill(flows []*model.Flow) bool {
	for _, f := range flows {
		if f.StartTime == nil || f.EndTime == nil {
			return true
		}
	}
	return false
}

// Filter returns the flows matching the interval [start, end] under the
// given mode, in input order. Bounds are inclusive. Flows still missing a
// start or end time are excluded unconditionally. start > end is a usage
// error.
func Filter(flows []*model.Flow, start, end float64, mode Mode) ([]*model.Flow, error) {
	if start > end {
		return nil, fmt.Errorf("start time %v is after end time %v", start, end)
	}
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}

	var kept []*model.Flow
	for _, flow := range flows {
		if flow.StartTime == nil || flow.EndTime == nil {
			continue
		}
		st, en := *flow.StartTime, *flow.EndTime
		var keep bool
		if mode == ModeContained {
			keep = st >= start && en <= end
		} else {
			keep = !(en < start || st > end)
		}
		if keep {
			kept = append(kept, flow)
		}
	}
	return kept, nil
}
