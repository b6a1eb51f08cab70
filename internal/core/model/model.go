package model

// FrameRecord is a single decoded S1AP message from a capture.
// Identifier and time fields are optional: the exporting decoder leaves
// them empty for messages that do not carry them.
type FrameRecord struct {
	Number int
	Enb    *int64
	Mme    *int64
	Time   *float64
}

// IDPair holds the identifiers recovered for one frame by the external
// decoder, including values nested inside non-top-level IEs.
type IDPair struct {
	Enb *int64
	Mme *int64
}

// FlowKey uniquely identifies a UE session once both sides have assigned
// their identifiers.
type FlowKey struct {
	Enb int64
	Mme int64
}

// Flow is the set of frames belonging to one correlated UE session.
// Frames are unique and sorted ascending. Start/end times are the min/max
// of the timestamps observed for member frames; frames without a timestamp
// do not affect them.
type Flow struct {
	EnbUeID   *int64   `json:"enb_ue_s1ap_id"`
	MmeUeID   *int64   `json:"mme_ue_s1ap_id"`
	StartTime *float64 `json:"start_time"`
	EndTime   *float64 `json:"end_time"`
	Frames    []int    `json:"frames"`
}

// Key returns the flow key, reporting false when either identifier is
// missing (possible for flows read back from a hand-edited set).
func (f *Flow) Key() (FlowKey, bool) {
	if f.EnbUeID == nil || f.MmeUeID == nil {
		return FlowKey{}, false
	}
	return FlowKey{Enb: *f.EnbUeID, Mme: *f.MmeUeID}, true
}

// FirstFrame returns the smallest member frame number, used as the
// tie-break in flow ordering. Empty flows sort last.
func (f *Flow) FirstFrame() int {
	if len(f.Frames) == 0 {
		return int(^uint(0) >> 1)
	}
	return f.Frames[0]
}

// FilteredFlow is one flow in the filtered output: renumbered for display
// and carrying its per-frame summary rows. Times are ISO-8601 UTC with
// millisecond precision and appear only when requested, as does the frame
// list.
type FilteredFlow struct {
	FlowNo        int      `json:"flow_no"`
	EnbUeID       *int64   `json:"enb_ue_s1ap_id"`
	MmeUeID       *int64   `json:"mme_ue_s1ap_id"`
	StartTime     *string  `json:"start_time,omitempty"`
	EndTime       *string  `json:"end_time,omitempty"`
	Frames        []int    `json:"frames,omitempty"`
	PktSummaryCSV []string `json:"pkt_summary_csv"`
}

// FilteredSet is the top-level filtered output object. The summary header
// is carried once here rather than repeated per flow.
type FilteredSet struct {
	TotalFlows int            `json:"total_flows"`
	CSVHeader  string         `json:"csv_header"`
	Flows      []FilteredFlow `json:"flows"`
}
