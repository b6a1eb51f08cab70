// Package record reads decoded-record CSV exports (the tshark field dump
// the flow builder consumes).
package record

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"s1apflow/internal/core/model"
	"s1apflow/pkg/parse"
)

// Column names in the decoded-record export.
const (
	colFrame = "frame.number"
	colTime  = "frame.time_epoch"
	colEnb   = "s1ap.ENB_UE_S1AP_ID"
	colMme   = "s1ap.MME_UE_S1AP_ID"
)

// ReadCSV loads frame records from a tshark CSV export, preserving input
// order. It also returns the frame→timestamp map gathered from the time
// column. Rows without a parseable frame number are skipped; malformed
// identifier or time cells are treated as absent.
func ReadCSV(path string) ([]model.FrameRecord, map[int]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open records CSV: %w", err)
	}
	defer f.Close()
	return read(f)
}

func read(r io.Reader) ([]model.FrameRecord, map[int]float64, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, map[int]float64{}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}

	cell := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var records []model.FrameRecord
	times := make(map[int]float64)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		frame, ok := parse.Int(cell(row, colFrame))
		if !ok {
			continue
		}
		rec := model.FrameRecord{Number: int(frame)}
		if v, ok := parse.Int(cell(row, colEnb)); ok {
			rec.Enb = &v
		}
		if v, ok := parse.Int(cell(row, colMme)); ok {
			rec.Mme = &v
		}
		if t, ok := parse.Float(cell(row, colTime)); ok {
			rec.Time = &t
			times[rec.Number] = t
		}
		records = append(records, rec)
	}
	return records, times, nil
}
