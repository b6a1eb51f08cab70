// Package flowset persists and orders correlated flow sets. The on-disk
// interchange format is a JSON array of flow objects, ordered by start time
// and then by smallest member frame.
package flowset

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"s1apflow/internal/core/model"
)

// Writer is a sink for a built flow set. Implementations know their own
// destination (file, database, ...).
type Writer interface {
	Write(ctx context.Context, flows []*model.Flow) error
}

// FillTimes sets start/end on flows that are missing either, taking the
// min/max timestamp over member frames. Frames absent from the map are
// skipped; a flow with no timestamped frames is left untouched.
func FillTimes(flows []*model.Flow, times map[int]float64) {
	for _, flow := range flows {
		if flow.StartTime != nil && flow.EndTime != nil {
			continue
		}
		var start, end float64
		found := false
		for _, n := range flow.Frames {
			t, ok := times[n]
			if !ok {
				continue
			}
			if !found || t < start {
				start = t
			}
			if !found || t > end {
				end = t
			}
			found = true
		}
		if found {
			s, e := start, end
			flow.StartTime = &s
			flow.EndTime = &e
		}
	}
}

// Sort orders flows ascending by start time, ties broken by the smallest
// member frame number. Flows without a start time sort last.
func Sort(flows []*model.Flow) {
	sort.SliceStable(flows, func(i, j int) bool {
		si, sj := flows[i].StartTime, flows[j].StartTime
		switch {
		case si == nil && sj == nil:
			return flows[i].FirstFrame() < flows[j].FirstFrame()
		case si == nil:
			return false
		case sj == nil:
			return true
		case *si != *sj:
			return *si < *sj
		default:
			return flows[i].FirstFrame() < flows[j].FirstFrame()
		}
	})
}

// WriteFiltered persists a filtered output object as indented JSON.
func WriteFiltered(path string, set *model.FilteredSet) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode filtered flows: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write filtered flows file '%s': %w", path, err)
	}
	return nil
}

// Read loads a persisted flow set.
func Read(path string) ([]*model.Flow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read flow set: %w", err)
	}
	var flows []*model.Flow
	if err := json.Unmarshal(data, &flows); err != nil {
		return nil, fmt.Errorf("invalid flow set JSON in '%s': %w", path, err)
	}
	return flows, nil
}

// Write persists a flow set as indented JSON, creating parent directories
// as needed.
func Write(path string, flows []*model.Flow) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(flows, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode flow set: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write flow set file '%s': %w", path, err)
	}
	return nil
}
