// Package tshark drives the external packet decoder. All protocol
// dissection happens out of process: this package builds the tshark
// invocations, parses their CSV/catalog output, and exposes the three maps
// the pipeline consumes (frame→IDs, frame→time, frame summaries).
package tshark

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"s1apflow/internal/core/model"
	"s1apflow/pkg/parse"
)

const (
	fieldEnb = "s1ap.ENB_UE_S1AP_ID"
	fieldMme = "s1ap.MME_UE_S1AP_ID"
)

// DefaultSummaryFields is the per-frame summary column set used when the
// config does not override it.
var DefaultSummaryFields = []string{
	"frame.number",
	"frame.time_epoch",
	"ip.src",
	"ip.dst",
	"ipv6.src",
	"ipv6.dst",
	"sctp.srcport",
	"sctp.dstport",
	"s1ap.RRC_Establishment_Cause",
	fieldEnb,
	fieldMme,
	"s1ap.radioNetwork",
	"e212.tai.mcc",
	"e212.tai.mnc",
	"s1ap.tAC",
	"s1ap.CellIdentity",
	"_ws.col.Info",
}

// Runner invokes tshark. The run hook exists so tests can substitute
// canned output for the external process.
type Runner struct {
	Path          string
	SummaryFields []string

	run func(ctx context.Context, args ...string) ([]byte, error)
}

// NewRunner creates a runner for the given tshark executable. An empty
// path means "tshark" on PATH; an empty field list means the defaults.
func NewRunner(path string, summaryFields []string) *Runner {
	r := &Runner{Path: path, SummaryFields: summaryFields}
	if r.Path == "" {
		r.Path = "tshark"
	}
	if len(r.SummaryFields) == 0 {
		r.SummaryFields = DefaultSummaryFields
	}
	r.run = r.exec
	return r
}

// Available reports whether the tshark executable can be found.
func (r *Runner) Available() bool {
	_, err := exec.LookPath(r.Path)
	return err == nil
}

func (r *Runner) exec(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, r.Path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		return nil, fmt.Errorf("tshark %s failed: %v: %s", args[0], err, msg)
	}
	return stdout.Bytes(), nil
}

// Fields returns the decoder's field catalog (the set of field
// abbreviations from `tshark -G fields`).
func (r *Runner) Fields(ctx context.Context) (map[string]struct{}, error) {
	out, err := r.run(ctx, "-G", "fields")
	if err != nil {
		return nil, fmt.Errorf("failed to read field catalog: %w", err)
	}
	fields := make(map[string]struct{})
	for _, line := range strings.Split(string(out), "\n") {
		parts := strings.Split(line, "\t")
		if len(parts) >= 2 && (parts[0] == "F" || parts[0] == "f") {
			fields[parts[1]] = struct{}{}
		}
	}
	return fields, nil
}

// SupplementalIDFields discovers the nested UE-ID field names from the
// catalog: every s1ap.* field ending in the ENB/MME suffix other than the
// two top-level ones. Schema-dependent names are never hardcoded.
func (r *Runner) SupplementalIDFields(ctx context.Context) (enb, mme []string, err error) {
	available, err := r.Fields(ctx)
	if err != nil {
		return nil, nil, err
	}
	for f := range available {
		if !strings.HasPrefix(f, "s1ap.") || f == fieldEnb || f == fieldMme {
			continue
		}
		if strings.HasSuffix(f, "ENB_UE_S1AP_ID") {
			enb = append(enb, f)
		} else if strings.HasSuffix(f, "MME_UE_S1AP_ID") {
			mme = append(mme, f)
		}
	}
	sort.Strings(enb)
	sort.Strings(mme)
	return enb, mme, nil
}

// csvArgs is the shared field-export argument set. occurrence=f keeps only
// the first occurrence of repeated fields, matching per-frame semantics.
func csvArgs(capture, displayFilter string, fields []string) []string {
	args := []string{"-r", capture}
	if displayFilter != "" {
		args = append(args, "-Y", displayFilter)
	}
	args = append(args,
		"-T", "fields",
		"-E", "header=y",
		"-E", "separator=,",
		"-E", "quote=d",
		"-E", "occurrence=f",
	)
	for _, f := range fields {
		args = append(args, "-e", f)
	}
	return args
}

// FrameIDMap runs one pass over the capture and returns, for every S1AP
// frame, the identifiers visible to the decoder: top-level fields first,
// then the discovered nested variants as fallback.
func (r *Runner) FrameIDMap(ctx context.Context, capture string) (map[int]model.IDPair, error) {
	nestedEnb, nestedMme, err := r.SupplementalIDFields(ctx)
	if err != nil {
		return nil, err
	}

	fields := append([]string{"frame.number", fieldEnb, fieldMme}, append(nestedEnb, nestedMme...)...)
	out, err := r.run(ctx, csvArgs(capture, "s1ap", fields)...)
	if err != nil {
		return nil, fmt.Errorf("failed to build frame ID map: %w", err)
	}

	rows, header, err := parseCSV(out)
	if err != nil {
		return nil, fmt.Errorf("failed to parse frame ID export: %w", err)
	}

	ids := make(map[int]model.IDPair)
	for _, row := range rows {
		frame, ok := parse.Int(cell(row, header, "frame.number"))
		if !ok {
			continue
		}
		pair := model.IDPair{}
		if v, ok := parse.Int(cell(row, header, fieldEnb)); ok {
			pair.Enb = &v
		}
		if v, ok := parse.Int(cell(row, header, fieldMme)); ok {
			pair.Mme = &v
		}
		for _, f := range nestedEnb {
			if pair.Enb != nil {
				break
			}
			if v, ok := parse.Int(cell(row, header, f)); ok {
				pair.Enb = &v
			}
		}
		for _, f := range nestedMme {
			if pair.Mme != nil {
				break
			}
			if v, ok := parse.Int(cell(row, header, f)); ok {
				pair.Mme = &v
			}
		}
		ids[int(frame)] = pair
	}
	return ids, nil
}

// FrameTimeMap returns frame number → fractional epoch seconds for every
// frame in the capture (unfiltered). The gopacket reader in pkg/pcap is the
// usual source for this map; this path covers captures in formats only the
// decoder reads.
func (r *Runner) FrameTimeMap(ctx context.Context, capture string) (map[int]float64, error) {
	out, err := r.run(ctx, csvArgs(capture, "", []string{"frame.number", "frame.time_epoch"})...)
	if err != nil {
		return nil, fmt.Errorf("failed to export frame times: %w", err)
	}
	rows, header, err := parseCSV(out)
	if err != nil {
		return nil, fmt.Errorf("failed to parse frame time export: %w", err)
	}
	times := make(map[int]float64)
	for _, row := range rows {
		frame, ok := parse.Int(cell(row, header, "frame.number"))
		if !ok {
			continue
		}
		if t, ok := parse.Float(cell(row, header, "frame.time_epoch")); ok {
			times[int(frame)] = t
		}
	}
	return times, nil
}

// FrameSummary exports the summary columns for the given frames, returning
// the header line and the data lines. The caller is responsible for
// chunking oversized frame lists.
func (r *Runner) FrameSummary(ctx context.Context, capture string, frames []int) (string, []string, error) {
	if len(frames) == 0 {
		return "", nil, nil
	}
	nums := make([]string, len(frames))
	for i, n := range frames {
		nums[i] = fmt.Sprintf("%d", n)
	}
	filter := fmt.Sprintf("frame.number in {%s}", strings.Join(nums, ","))

	out, err := r.run(ctx, csvArgs(capture, filter, r.SummaryFields)...)
	if err != nil {
		return "", nil, fmt.Errorf("failed to export frame summaries: %w", err)
	}

	lines := splitLines(string(out))
	if len(lines) == 0 {
		return "", nil, nil
	}
	return lines[0], lines[1:], nil
}

// FallbackHeader is the header used when no summary invocation produced
// one (all retained flows were empty or failed).
func (r *Runner) FallbackHeader() string {
	return strings.Join(r.SummaryFields, ",")
}

func splitLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// parseCSV reads quoted tshark CSV output into rows plus a column index.
func parseCSV(out []byte) ([][]string, map[string]int, error) {
	reader := csv.NewReader(bytes.NewReader(out))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, nil
	}
	header := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		header[name] = i
	}
	return records[1:], header, nil
}

func cell(row []string, header map[string]int, field string) string {
	i, ok := header[field]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}
