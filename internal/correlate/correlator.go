// Package correlate assigns decoded S1AP frames to UE session flows.
//
// A session is keyed by the (ENB_UE_S1AP_ID, MME_UE_S1AP_ID) pair, but the
// two identifiers rarely appear together from the first message: the eNB
// side is assigned first (Initial UE Message carries only the ENB ID) and
// the MME side shows up once the core network answers. The correlator makes
// a single forward pass, parking ENB-only frames in a pending bucket until
// the pair is known, and binding each ENB ID to the first pair it was seen
// with so that later frames resolve to the same flow.
package correlate

import (
	"sort"

	"s1apflow/internal/core/model"
)

// correlator holds the working state of one correlation pass. Each call to
// Correlate owns a fresh instance, so independent correlations never share
// state.
type correlator struct {
	flows   map[model.FlowKey][]int
	pending map[int64][]int
	binding map[int64]model.FlowKey
	order   []model.FlowKey
}

// Correlate groups records into disjoint flows.
//
// The supplemental map carries identifiers the record source could not see
// directly (values nested inside UE-S1AP-IDs IEs, recovered out-of-band by
// the external decoder); it is consulted only for fields missing on the
// record itself.
//
// Frames with neither identifier, and frames carrying only an MME ID with
// no bound ENB ID, are discarded. ENB-only frames whose ID is never paired
// stay in their bucket and are not emitted.
func Correlate(records []model.FrameRecord, supplemental map[int]model.IDPair) []*model.Flow {
	c := &correlator{
		flows:   make(map[model.FlowKey][]int),
		pending: make(map[int64][]int),
		binding: make(map[int64]model.FlowKey),
	}

	for _, rec := range records {
		enb, mme := rec.Enb, rec.Mme
		if enb == nil || mme == nil {
			if sup, ok := supplemental[rec.Number]; ok {
				if enb == nil {
					enb = sup.Enb
				}
				if mme == nil {
					mme = sup.Mme
				}
			}
		}

		switch {
		case enb != nil && mme != nil:
			c.append(c.resolve(*enb, *mme), rec.Number)
		case enb != nil:
			if key, bound := c.binding[*enb]; bound {
				c.append(key, rec.Number)
			} else {
				c.pending[*enb] = append(c.pending[*enb], rec.Number)
			}
		default:
			// MME-only or no identifiers at all: node-level messages
			// (ErrorIndication, configuration transfers) that belong to
			// no session.
		}
	}

	return c.emit()
}

// resolve returns the flow key for an (enb, mme) observation. The first
// pair seen for an ENB ID wins: a later, conflicting MME ID for the same
// ENB ID neither rebinds nor opens a new flow. Any frames pending on the
// ENB ID are drained into the new flow.
func (c *correlator) resolve(enb, mme int64) model.FlowKey {
	if key, bound := c.binding[enb]; bound {
		return key
	}
	key := model.FlowKey{Enb: enb, Mme: mme}
	c.binding[enb] = key
	if parked, ok := c.pending[enb]; ok {
		for _, n := range parked {
			c.append(key, n)
		}
		delete(c.pending, enb)
	}
	return key
}

func (c *correlator) append(key model.FlowKey, frame int) {
	if _, ok := c.flows[key]; !ok {
		c.order = append(c.order, key)
	}
	c.flows[key] = append(c.flows[key], frame)
}

// emit deduplicates and sorts each flow's frames and materializes the flow
// set in first-observation order.
func (c *correlator) emit() []*model.Flow {
	out := make([]*model.Flow, 0, len(c.flows))
	for _, key := range c.order {
		frames := c.flows[key]
		if len(frames) == 0 {
			continue
		}
		sort.Ints(frames)
		unique := frames[:1]
		for _, n := range frames[1:] {
			if n != unique[len(unique)-1] {
				unique = append(unique, n)
			}
		}
		enb, mme := key.Enb, key.Mme
		out = append(out, &model.Flow{
			EnbUeID: &enb,
			MmeUeID: &mme,
			Frames:  unique,
		})
	}
	return out
}
