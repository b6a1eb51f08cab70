// Package enrich attaches per-frame tabular summaries to filtered flows.
//
// Summaries come from the external decoder, one invocation per chunk of
// frame numbers. The chunk size is bounded by the rendered length of the
// frame-number list so the invocation stays within command-line limits.
package enrich

import (
	"context"
	"log"
	"strconv"
	"sync"

	"s1apflow/internal/core/model"
	"s1apflow/internal/flowset"
	"s1apflow/pkg/parse"
)

// FrameDecoder produces the summary header and rows for a set of frames.
type FrameDecoder interface {
	FrameSummary(ctx context.Context, capture string, frames []int) (header string, rows []string, err error)
	FallbackHeader() string
}

// Options shapes the output records.
type Options struct {
	ShowTime   bool // include ISO-8601 start/end times
	ShowFrames bool // include the frame-number list
}

// Enricher builds filtered output records.
type Enricher struct {
	dec         FrameDecoder
	chunkBudget int
	workers     int
}

// DefaultChunkBudget bounds the comma-joined frame list of one decoder
// invocation.
const DefaultChunkBudget = 6000

// New creates an enricher. Non-positive budget or worker counts fall back
// to safe values.
func New(dec FrameDecoder, chunkBudget, workers int) *Enricher {
	if chunkBudget <= 0 {
		chunkBudget = DefaultChunkBudget
	}
	if workers <= 0 {
		workers = 1
	}
	return &Enricher{dec: dec, chunkBudget: chunkBudget, workers: workers}
}

// EnrichAll sorts the flows (ascending start time, ties by first frame),
// renumbers them 1..N, and attaches per-frame summaries. Flows and their
// frame sets are disjoint and immutable here, so per-flow decoder calls
// run on up to the configured number of goroutines; output order stays
// the flow order regardless.
func (e *Enricher) EnrichAll(ctx context.Context, capture string, flows []*model.Flow, opts Options) (*model.FilteredSet, error) {
	flowset.Sort(flows)

	type result struct {
		header string
		rows   []string
	}
	results := make([]result, len(flows))

	var wg sync.WaitGroup
	sem := make(chan struct{}, e.workers)
	for i, flow := range flows {
		wg.Add(1)
		go func(i int, flow *model.Flow) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			header, rows := e.enrichFlow(ctx, capture, flow)
			results[i] = result{header: header, rows: rows}
		}(i, flow)
	}
	wg.Wait()

	set := &model.FilteredSet{Flows: make([]model.FilteredFlow, 0, len(flows))}
	for i, flow := range flows {
		out := model.FilteredFlow{
			FlowNo:        i + 1,
			EnbUeID:       flow.EnbUeID,
			MmeUeID:       flow.MmeUeID,
			PktSummaryCSV: results[i].rows,
		}
		if out.PktSummaryCSV == nil {
			out.PktSummaryCSV = []string{}
		}
		if opts.ShowTime {
			out.StartTime = isoTime(flow.StartTime)
			out.EndTime = isoTime(flow.EndTime)
		}
		if opts.ShowFrames {
			out.Frames = flow.Frames
		}
		if set.CSVHeader == "" && results[i].header != "" {
			set.CSVHeader = results[i].header
		}
		set.Flows = append(set.Flows, out)
	}
	set.TotalFlows = len(set.Flows)
	if set.CSVHeader == "" {
		set.CSVHeader = e.dec.FallbackHeader()
	}
	return set, nil
}

// enrichFlow fetches the summary rows for one flow, chunked. Only the
// first chunk's header is kept. A failed chunk is reported and its rows
// omitted; it does not fail the flow.
func (e *Enricher) enrichFlow(ctx context.Context, capture string, flow *model.Flow) (string, []string) {
	var header string
	var rows []string
	for _, chunk := range e.chunks(flow.Frames) {
		h, r, err := e.dec.FrameSummary(ctx, capture, chunk)
		if err != nil {
			log.Printf("Warning: frame summary failed for %d frames, rows omitted: %v", len(chunk), err)
			continue
		}
		if header == "" {
			header = h
		}
		rows = append(rows, r...)
	}
	return header, rows
}

// chunks splits a frame list so each chunk's comma-joined rendering stays
// within the budget.
func (e *Enricher) chunks(frames []int) [][]int {
	var out [][]int
	var chunk []int
	length := 0
	for _, n := range frames {
		w := len(strconv.Itoa(n)) + 1
		if length+w > e.chunkBudget && len(chunk) > 0 {
			out = append(out, chunk)
			chunk = nil
			length = 0
		}
		chunk = append(chunk, n)
		length += w
	}
	if len(chunk) > 0 {
		out = append(out, chunk)
	}
	return out
}

func isoTime(epoch *float64) *string {
	if epoch == nil {
		return nil
	}
	s := parse.ISOMillis(*epoch)
	return &s
}
